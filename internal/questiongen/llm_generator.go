package questiongen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/skillprobe/internal/llm"
	"github.com/abhisek/skillprobe/internal/question"
)

// LLMGenerator implements Generator using the LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	if cfg.TimeLimits == nil {
		cfg.TimeLimits = DefaultTimeLimits()
	}
	return &LLMGenerator{provider: provider, config: cfg}
}

// questionOutput is the raw LLM response before validation.
type questionOutput struct {
	QuestionText    string              `json:"question_text"`
	Options         []string            `json:"options"`
	CorrectIndex    string              `json:"correct_index"`
	ReferenceAnswer string              `json:"reference_answer"`
	TestCases       []question.TestCase `json:"test_cases"`
	TimeLimit       int                 `json:"time_limit_seconds"`
}

// Generate produces a single question for the given input.
func (g *LLMGenerator) Generate(ctx context.Context, input GenerateInput) (*question.Question, error) {
	if err := input.Spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid spec: %w", err)
	}

	ctx = llm.WithPurpose(ctx, "question-gen")

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    llm.UserMessage(buildUserMessage(input, g.config)),
		Schema:      QuestionSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		var inv *llm.ErrInvalidResponse
		if errors.As(err, &inv) {
			return nil, fmt.Errorf("generate question: %w: %w", question.ErrMalformedResponse, err)
		}
		return nil, fmt.Errorf("generate question: %w", err)
	}

	var raw questionOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("parse question: %w: %w", question.ErrMalformedResponse, err)
	}

	q := g.toQuestion(raw, input.Spec)

	for _, v := range g.config.Validators {
		if verr := v.Validate(q, input); verr != nil {
			return nil, verr
		}
	}

	return q, nil
}

// toQuestion keeps only the payload that belongs to the requested type.
func (g *LLMGenerator) toQuestion(raw questionOutput, spec question.Spec) *question.Question {
	q := &question.Question{
		Text:       raw.QuestionText,
		Type:       spec.Type,
		TimeLimit:  raw.TimeLimit,
		Tags:       append([]string(nil), spec.Tags...),
		Difficulty: spec.Difficulty,
	}
	if q.TimeLimit < minTimeLimit {
		q.TimeLimit = g.config.TimeLimits[spec.Type]
	}

	switch spec.Type {
	case question.TypeMultipleChoice:
		q.Options = raw.Options
		q.CorrectAnswer = raw.CorrectIndex
	case question.TypeShortAnswer:
		q.Reference = raw.ReferenceAnswer
	case question.TypeCoding:
		q.TestCases = raw.TestCases
	}
	return q
}
