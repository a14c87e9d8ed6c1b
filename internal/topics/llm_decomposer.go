package topics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/skillprobe/internal/llm"
	"github.com/abhisek/skillprobe/internal/question"
)

const systemPrompt = `You break a learning topic down into the core subtopics needed to evaluate someone's knowledge of it.

Rules:
- Return between 5 and 10 subtopics.
- Each subtopic is a short noun phrase of at most five words.
- Subtopics must be distinct and must not overlap.
- Order them from foundational to advanced.
- Echo the topic back in "topic" with normalized capitalization.`

// DecompositionSchema defines the JSON schema for decomposition responses.
var DecompositionSchema = &llm.Schema{
	Name:        "topic-decomposition",
	Description: "A topic and the subtopics that make it up",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic": map[string]any{
				"type":        "string",
				"description": "The topic being decomposed",
			},
			"subtopics": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "5 to 10 distinct subtopics",
			},
		},
		"required":             []any{"topic", "subtopics"},
		"additionalProperties": false,
	},
}

// LLMDecomposer implements Decomposer using the LLM provider.
type LLMDecomposer struct {
	provider  llm.Provider
	maxTokens int
}

// NewLLMDecomposer creates an LLMDecomposer.
func NewLLMDecomposer(provider llm.Provider) *LLMDecomposer {
	return &LLMDecomposer{provider: provider, maxTokens: 512}
}

func (d *LLMDecomposer) Decompose(ctx context.Context, topic string) (Decomposition, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Decomposition{}, fmt.Errorf("topic is empty")
	}

	ctx = llm.WithPurpose(ctx, "topic-decomposition")
	resp, err := d.provider.Generate(ctx, llm.Request{
		System:    systemPrompt,
		Messages:  llm.UserMessage("Topic: " + topic),
		Schema:    DecompositionSchema,
		MaxTokens: d.maxTokens,
	})
	if err != nil {
		var inv *llm.ErrInvalidResponse
		if errors.As(err, &inv) {
			return Decomposition{}, fmt.Errorf("decompose topic: %w: %w", question.ErrMalformedResponse, err)
		}
		return Decomposition{}, fmt.Errorf("decompose topic: %w", err)
	}

	var out Decomposition
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return Decomposition{}, fmt.Errorf("parse decomposition: %w: %w", question.ErrMalformedResponse, err)
	}

	subtopics, err := Normalize(out.Subtopics)
	if err != nil {
		return Decomposition{}, err
	}
	if strings.TrimSpace(out.Topic) == "" {
		out.Topic = topic
	}
	return Decomposition{Topic: out.Topic, Subtopics: subtopics}, nil
}
