package questiongen

import (
	"fmt"

	"github.com/abhisek/skillprobe/internal/question"
)

// Validator checks a generated question for correctness.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier, e.g. "structural", "payload".
	Name() string

	// Validate returns nil if q passes. The input is passed for context
	// such as the requested type and prior questions.
	Validate(q *question.Question, input GenerateInput) *ValidationError
}

// ValidationError describes why a question failed validation.
type ValidationError struct {
	Validator string // name of the validator that failed
	Message   string
	Retryable bool // whether regeneration is likely to fix this
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// Unwrap lets callers match every validation failure as a malformed
// collaborator response.
func (e *ValidationError) Unwrap() error { return question.ErrMalformedResponse }
