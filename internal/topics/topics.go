// Package topics decomposes a free-text topic into the subtopic tags an
// assessment probes.
package topics

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/skillprobe/internal/question"
)

// Bounds on the number of subtopics a decomposition may yield.
const (
	MinSubtopics = 5
	MaxSubtopics = 10
)

// Decomposition is the result of splitting a topic into subtopics.
type Decomposition struct {
	Topic     string   `json:"topic"`
	Subtopics []string `json:"subtopics"`
}

// Decomposer splits a topic into subtopics.
type Decomposer interface {
	Decompose(ctx context.Context, topic string) (Decomposition, error)
}

// Normalize trims subtopics, drops empty entries and case-insensitive
// duplicates (first spelling wins), and checks the count bounds.
// The error wraps question.ErrMalformedResponse.
func Normalize(subtopics []string) ([]string, error) {
	seen := make(map[string]bool, len(subtopics))
	out := make([]string, 0, len(subtopics))
	for _, s := range subtopics {
		s = strings.Join(strings.Fields(s), " ")
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}

	if len(out) < MinSubtopics || len(out) > MaxSubtopics {
		return nil, fmt.Errorf("%w: got %d distinct subtopics, want %d-%d",
			question.ErrMalformedResponse, len(out), MinSubtopics, MaxSubtopics)
	}
	return out, nil
}
