package questiongen

import (
	"fmt"
	"strings"

	"github.com/abhisek/skillprobe/internal/question"
)

const (
	maxQuestionLen = 2000
	maxTimeLimit   = 3600
)

// StructuralValidator checks the fields every question carries regardless
// of type.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *question.Question, input GenerateInput) *ValidationError {
	fail := func(msg string) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: msg, Retryable: true}
	}

	if strings.TrimSpace(q.Text) == "" {
		return fail("question_text is empty")
	}
	if len(q.Text) > maxQuestionLen {
		return fail("question_text exceeds 2000 characters")
	}
	if q.Type != input.Spec.Type {
		return &ValidationError{Validator: v.Name(), Message: "question type does not match the spec"}
	}
	if q.TimeLimit <= 0 || q.TimeLimit > maxTimeLimit {
		return fail("time_limit_seconds must be between 1 and 3600")
	}
	return nil
}

// PayloadValidator enforces the per-type answer key shape.
type PayloadValidator struct{}

func (v *PayloadValidator) Name() string { return "payload" }

func (v *PayloadValidator) Validate(q *question.Question, _ GenerateInput) *ValidationError {
	if err := q.Validate(); err != nil {
		return &ValidationError{Validator: v.Name(), Message: err.Error(), Retryable: true}
	}

	switch q.Type {
	case question.TypeMultipleChoice:
		seen := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			key := normalizeText(o)
			if seen[key] {
				return &ValidationError{Validator: v.Name(), Message: "options are not distinct", Retryable: true}
			}
			seen[key] = true
		}
	case question.TypeCoding:
		for i, tc := range q.TestCases {
			if strings.TrimSpace(tc.ExpectedOutput) == "" {
				return &ValidationError{
					Validator: v.Name(),
					Message:   fmt.Sprintf("test case %d has empty expected_output", i),
					Retryable: true,
				}
			}
		}
	}
	return nil
}

// DuplicateValidator rejects a question already asked in this session.
type DuplicateValidator struct{}

func (v *DuplicateValidator) Name() string { return "duplicate" }

func (v *DuplicateValidator) Validate(q *question.Question, input GenerateInput) *ValidationError {
	text := normalizeText(q.Text)
	for _, prior := range input.PriorQuestions {
		if normalizeText(prior) == text {
			return &ValidationError{Validator: v.Name(), Message: "question repeats an earlier one", Retryable: true}
		}
	}
	return nil
}

// normalizeText lower-cases and collapses whitespace for comparisons.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
