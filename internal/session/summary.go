package session

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Band is a mastery classification.
type Band string

const (
	BandStrong   Band = "strong"
	BandModerate Band = "moderate"
	BandWeak     Band = "weak"
)

// Band boundaries: strong is above StrongAbove, weak is at or below
// WeakAtOrBelow, moderate is everything in between.
const (
	StrongAbove   = 0.7
	WeakAtOrBelow = 0.3
)

// Classify returns the band for a belief.
func Classify(belief float64) Band {
	switch {
	case belief > StrongAbove:
		return BandStrong
	case belief > WeakAtOrBelow:
		return BandModerate
	default:
		return BandWeak
	}
}

// TagResult is one tag's final belief.
type TagResult struct {
	Tag    string  `json:"tag"`
	Belief float64 `json:"belief"`
}

// Summary groups tags by band. Groups are never nil, so an empty group
// encodes as an empty list.
type Summary struct {
	Topic          string        `json:"topic,omitempty"`
	QuestionsAsked int           `json:"questions_asked"`
	Duration       time.Duration `json:"duration"`
	Strong         []TagResult   `json:"strong"`
	Moderate       []TagResult   `json:"moderate"`
	Weak           []TagResult   `json:"weak"`
}

// Summarize partitions beliefs into bands, each sorted by belief
// descending and then by tag name. It does not modify beliefs.
func Summarize(beliefs map[string]float64) Summary {
	sum := Summary{
		Strong:   []TagResult{},
		Moderate: []TagResult{},
		Weak:     []TagResult{},
	}
	for tag, b := range beliefs {
		r := TagResult{Tag: tag, Belief: b}
		switch Classify(b) {
		case BandStrong:
			sum.Strong = append(sum.Strong, r)
		case BandModerate:
			sum.Moderate = append(sum.Moderate, r)
		default:
			sum.Weak = append(sum.Weak, r)
		}
	}
	for _, g := range [][]TagResult{sum.Strong, sum.Moderate, sum.Weak} {
		sort.Slice(g, func(i, j int) bool {
			if g[i].Belief != g[j].Belief {
				return g[i].Belief > g[j].Belief
			}
			return g[i].Tag < g[j].Tag
		})
	}
	return sum
}

// Tags returns the tag names in a group.
func Tags(group []TagResult) []string {
	out := make([]string, len(group))
	for i, r := range group {
		out[i] = r.Tag
	}
	return out
}

// Report renders the summary as plain text.
func (s Summary) Report() string {
	var b strings.Builder

	if s.Topic != "" {
		fmt.Fprintf(&b, "Assessment of %s (%d questions)\n\n", s.Topic, s.QuestionsAsked)
	}

	groups := []struct {
		title string
		tags  []TagResult
	}{
		{fmt.Sprintf("Strong (belief > %.1f)", StrongAbove), s.Strong},
		{fmt.Sprintf("Moderate (%.1f < belief <= %.1f)", WeakAtOrBelow, StrongAbove), s.Moderate},
		{fmt.Sprintf("Weak (belief <= %.1f)", WeakAtOrBelow), s.Weak},
	}
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(g.title + ":\n")
		if len(g.tags) == 0 {
			b.WriteString("  (none)\n")
			continue
		}
		for _, r := range g.tags {
			fmt.Fprintf(&b, "  - %s (%.2f)\n", r.Tag, r.Belief)
		}
	}
	return b.String()
}
