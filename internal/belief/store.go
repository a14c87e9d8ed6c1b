package belief

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Prior is the neutral belief assigned to a newly created tag.
const Prior = 0.5

var (
	// ErrInvalidScore is returned when a score is outside [0,1] or NaN.
	ErrInvalidScore = errors.New("score must be within [0,1]")

	// ErrUnknownTag is returned when updating a tag that was never initialized.
	ErrUnknownTag = errors.New("unknown tag")
)

// TagBelief is the estimate held for a single tag.
type TagBelief struct {
	Tag      string
	Belief   float64
	Exposure int
}

// Store holds the per-tag running-mean mastery estimates for one session.
// It is not safe for concurrent use; the owning session serializes access.
type Store struct {
	tags  map[string]*TagBelief
	order []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{tags: make(map[string]*TagBelief)}
}

// Init adds each tag that is not already present with the neutral prior.
// Existing tags keep their belief and exposure.
func (s *Store) Init(tags []string) {
	for _, t := range tags {
		if _, ok := s.tags[t]; ok {
			continue
		}
		s.tags[t] = &TagBelief{Tag: t, Belief: Prior}
		s.order = append(s.order, t)
	}
}

// Update applies score to every tag in tags using the running mean
//
//	belief' = (belief*exposure + score) / (exposure + 1)
//
// and increments each tag's exposure by one. The batch is validated before
// anything is mutated, so a failed call leaves the store untouched.
// A tag listed twice in one batch is credited once.
func (s *Store) Update(tags []string, score float64) (map[string]float64, error) {
	if math.IsNaN(score) || score < 0 || score > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScore, score)
	}
	for _, t := range tags {
		if _, ok := s.tags[t]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTag, t)
		}
	}

	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true

		tb := s.tags[t]
		n := float64(tb.Exposure)
		tb.Belief = (tb.Belief*n + score) / (n + 1)
		tb.Exposure++
	}

	return s.Snapshot(), nil
}

// Snapshot returns a copy of the belief mapping.
func (s *Store) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(s.tags))
	for t, tb := range s.tags {
		out[t] = tb.Belief
	}
	return out
}

// Exposures returns a copy of the exposure counts.
func (s *Store) Exposures() map[string]int {
	out := make(map[string]int, len(s.tags))
	for t, tb := range s.tags {
		out[t] = tb.Exposure
	}
	return out
}

// Belief returns the current belief for tag.
func (s *Store) Belief(tag string) (float64, bool) {
	tb, ok := s.tags[tag]
	if !ok {
		return 0, false
	}
	return tb.Belief, true
}

// Exposure returns how many scoring events have been applied to tag.
func (s *Store) Exposure(tag string) int {
	if tb, ok := s.tags[tag]; ok {
		return tb.Exposure
	}
	return 0
}

// Tags returns the tags in insertion order.
func (s *Store) Tags() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of tracked tags.
func (s *Store) Len() int {
	return len(s.order)
}

// All returns every tag's estimate, highest belief first.
func (s *Store) All() []TagBelief {
	out := make([]TagBelief, 0, len(s.order))
	for _, t := range s.order {
		out = append(out, *s.tags[t])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Belief > out[j].Belief
	})
	return out
}
