// Package advisor asks an LLM which question to ask next. It implements
// planner.Advisor; the planner validates the advice and falls back to its
// own plan on any failure.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/abhisek/skillprobe/internal/llm"
	"github.com/abhisek/skillprobe/internal/planner"
	"github.com/abhisek/skillprobe/internal/question"
)

const systemPrompt = `You pick the next question in an adaptive knowledge assessment.

You receive the subtopics with the learner's current belief (0 = no mastery, 1 = full mastery, 0.5 = unknown) and how many times each was tested, plus how many questions of each type were asked and a suggested next question.

Rules:
- Prefer subtopics that were tested least and whose belief is closest to 0.5.
- Choose 1 to 3 subtopics, copied exactly from the list.
- Respect the suggested type unless the learner's beliefs give a strong reason not to.
- Match difficulty to the beliefs of the chosen subtopics: low belief means Easy, high belief means Hard.`

// NextQuestionSchema defines the JSON schema for advice responses.
var NextQuestionSchema = &llm.Schema{
	Name:        "next-question",
	Description: "The subtopics, type and difficulty of the next question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "1 to 3 subtopics from the provided list",
			},
			"type": map[string]any{
				"type": "string",
				"enum": []any{
					string(question.TypeMultipleChoice),
					string(question.TypeShortAnswer),
					string(question.TypeCoding),
				},
			},
			"difficulty": map[string]any{
				"type": "string",
				"enum": []any{
					string(question.DifficultyEasy),
					string(question.DifficultyMedium),
					string(question.DifficultyHard),
				},
			},
		},
		"required":             []any{"tags", "type", "difficulty"},
		"additionalProperties": false,
	},
}

// LLMAdvisor implements planner.Advisor using the LLM provider.
type LLMAdvisor struct {
	provider llm.Provider
}

// New creates an LLMAdvisor.
func New(provider llm.Provider) *LLMAdvisor {
	return &LLMAdvisor{provider: provider}
}

var _ planner.Advisor = (*LLMAdvisor)(nil)

func (a *LLMAdvisor) Advise(ctx context.Context, req planner.AdviceRequest) (question.Spec, error) {
	ctx = llm.WithPurpose(ctx, "next-question")

	resp, err := a.provider.Generate(ctx, llm.Request{
		System:    systemPrompt,
		Messages:  llm.UserMessage(buildUserMessage(req)),
		Schema:    NextQuestionSchema,
		MaxTokens: 256,
	})
	if err != nil {
		var inv *llm.ErrInvalidResponse
		if errors.As(err, &inv) {
			return question.Spec{}, fmt.Errorf("advise: %w: %w", question.ErrMalformedResponse, err)
		}
		return question.Spec{}, fmt.Errorf("advise: %w", err)
	}

	var spec question.Spec
	if err := json.Unmarshal(resp.Content, &spec); err != nil {
		return question.Spec{}, fmt.Errorf("parse advice: %w: %w", question.ErrMalformedResponse, err)
	}
	return spec, nil
}

func buildUserMessage(req planner.AdviceRequest) string {
	var b strings.Builder

	b.WriteString("Subtopics:\n")
	for _, tag := range req.Tags {
		fmt.Fprintf(&b, "- %s: belief %.2f, tested %d times\n", tag, req.Beliefs[tag], req.Exposures[tag])
	}

	b.WriteString("\nQuestions asked by type:\n")
	for _, t := range question.Types {
		fmt.Fprintf(&b, "- %s: %d\n", t, req.AskedTypes[t])
	}

	if err := req.Suggested.Validate(); err == nil {
		tags := append([]string(nil), req.Suggested.Tags...)
		sort.Strings(tags)
		fmt.Fprintf(&b, "\nSuggested: %s, %s, on %s\n",
			req.Suggested.Type, req.Suggested.Difficulty, strings.Join(tags, ", "))
	}

	return b.String()
}
