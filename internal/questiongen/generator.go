// Package questiongen produces assessment questions from a question.Spec
// using an LLM provider and a chain of validators.
package questiongen

import (
	"context"

	"github.com/abhisek/skillprobe/internal/question"
)

// Generator produces exactly one question per call.
type Generator interface {
	// Generate returns a validated Question for the input spec. Every
	// configured validator runs before returning.
	Generate(ctx context.Context, input GenerateInput) (*question.Question, error)
}

// GenerateInput holds all context needed to generate a question.
type GenerateInput struct {
	// Spec names the tags, type and difficulty to generate for.
	Spec question.Spec

	// Topic is the topic the tags were decomposed from.
	Topic string

	// PriorQuestions holds the text of questions already asked in this
	// session, oldest first. Used for deduplication.
	PriorQuestions []string
}
