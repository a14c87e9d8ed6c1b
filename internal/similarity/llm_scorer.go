package similarity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/skillprobe/internal/llm"
	"github.com/abhisek/skillprobe/internal/question"
)

const systemPrompt = `You grade a learner's short answer against a reference answer.

Return "similarity" between 0 and 1: how much of the reference answer's meaning the learner's answer captures.
- 1 means the answer is fully correct, even if worded differently.
- 0 means it is wrong, empty or unrelated.
- Give partial credit for partially correct answers.
- Ignore spelling and grammar.`

// SimilaritySchema defines the JSON schema for similarity responses.
var SimilaritySchema = &llm.Schema{
	Name:        "answer-similarity",
	Description: "Semantic similarity between a learner answer and a reference",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"similarity": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
		},
		"required":             []any{"similarity"},
		"additionalProperties": false,
	},
}

// LLMScorer asks the LLM to grade semantic similarity.
type LLMScorer struct {
	provider llm.Provider
}

// NewLLMScorer creates an LLMScorer.
func NewLLMScorer(provider llm.Provider) *LLMScorer {
	return &LLMScorer{provider: provider}
}

func (s *LLMScorer) Score(ctx context.Context, answer, reference string) (float64, error) {
	ctx = llm.WithPurpose(ctx, "answer-similarity")

	resp, err := s.provider.Generate(ctx, llm.Request{
		System: systemPrompt,
		Messages: llm.UserMessage(fmt.Sprintf(
			"Reference answer:\n%s\n\nLearner answer:\n%s", reference, answer,
		)),
		Schema:    SimilaritySchema,
		MaxTokens: 64,
	})
	if err != nil {
		var inv *llm.ErrInvalidResponse
		if errors.As(err, &inv) {
			return 0, fmt.Errorf("score similarity: %w: %w", question.ErrMalformedResponse, err)
		}
		return 0, fmt.Errorf("score similarity: %w", err)
	}

	var out struct {
		Similarity float64 `json:"similarity"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return 0, fmt.Errorf("parse similarity: %w: %w", question.ErrMalformedResponse, err)
	}
	return out.Similarity, nil
}
