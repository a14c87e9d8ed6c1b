package questiongen

import "github.com/abhisek/skillprobe/internal/question"

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run in order on every generated question; the first
	// failure stops the pipeline.
	Validators []Validator

	// MaxTokens is the token budget for the LLM response. Coding questions
	// carry ten or more test cases, so this is larger than a plain prompt.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// MaxPriorQuestions caps how many prior questions go into the prompt.
	MaxPriorQuestions int

	// TimeLimits is used when the model returns a time_limit_seconds below 10.
	TimeLimits map[question.Type]int
}

// minTimeLimit is the shortest time limit, in seconds, taken from a model
// response; anything shorter falls back to TimeLimits.
const minTimeLimit = 10

// DefaultTimeLimits returns the fallback per-type time limits in seconds.
func DefaultTimeLimits() map[question.Type]int {
	return map[question.Type]int{
		question.TypeMultipleChoice: 60,
		question.TypeShortAnswer:    120,
		question.TypeCoding:         600,
	}
}

// DefaultConfig returns a Config with the standard validator chain
// and recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&PayloadValidator{},
			&DuplicateValidator{},
		},
		MaxTokens:         2048,
		Temperature:       0.7,
		MaxPriorQuestions: 10,
		TimeLimits:        DefaultTimeLimits(),
	}
}
