package planner

import (
	"fmt"
	"math"

	"github.com/abhisek/skillprobe/internal/question"
)

// Distribution maps each question type to its target share of the session.
type Distribution map[question.Type]float64

// DefaultDistribution is the 50/30/20 MCQ/short-answer/coding mix.
func DefaultDistribution() Distribution {
	return Distribution{
		question.TypeMultipleChoice: 0.5,
		question.TypeShortAnswer:    0.3,
		question.TypeCoding:         0.2,
	}
}

// Validate checks that ratios are non-negative, name known types and sum to 1.
func (d Distribution) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("distribution is empty")
	}
	var sum float64
	for t, r := range d {
		if !t.Valid() {
			return fmt.Errorf("distribution names unknown type %q", t)
		}
		if r < 0 || math.IsNaN(r) {
			return fmt.Errorf("distribution ratio for %s must be non-negative, got %v", t, r)
		}
		sum += r
	}
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("distribution ratios must sum to 1, got %.4f", sum)
	}
	return nil
}

// Deficits returns ratio*budget - asked for every type. The budget is never
// smaller than totalAsked+1 so a session that runs past its nominal budget
// keeps steering toward the mix.
func Deficits(dist Distribution, asked map[question.Type]int, totalAsked, maxQuestions int) map[question.Type]float64 {
	budget := maxQuestions
	if budget < totalAsked+1 {
		budget = totalAsked + 1
	}
	out := make(map[question.Type]float64, len(question.Types))
	for _, t := range question.Types {
		out[t] = dist[t]*float64(budget) - float64(asked[t])
	}
	return out
}

// NextType picks the type with the largest deficit. Ties go to the type
// listed first in question.Types (MultipleChoice, ShortAnswer, Coding).
// When every deficit is non-positive the least over-served type still wins,
// so a type is always returned.
func NextType(dist Distribution, asked map[question.Type]int, totalAsked, maxQuestions int) question.Type {
	deficits := Deficits(dist, asked, totalAsked, maxQuestions)

	best := question.Types[0]
	bestDeficit := deficits[best]
	for _, t := range question.Types[1:] {
		if deficits[t] > bestDeficit+1e-9 {
			best, bestDeficit = t, deficits[t]
		}
	}
	return best
}
