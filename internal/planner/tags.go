package planner

import (
	"math"
	"sort"

	"github.com/abhisek/skillprobe/internal/belief"
	"github.com/abhisek/skillprobe/internal/question"
)

// MaxTagsPerQuestion caps how many tags one question may cover.
const MaxTagsPerQuestion = 3

// SelectTags picks the tags to probe next, prioritized by:
// 1. Lowest exposure first (never-assessed tags before anything else)
// 2. Belief closest to 0.5 (most uncertain)
// 3. Fewest questions already asked on the tag this session
// 4. Original tag order
//
// Up to maxTags tags are combined, but only from the lowest exposure tier so
// a well-covered tag never rides along with an unexplored one. The result is
// empty only when tags is empty.
func SelectTags(tags []string, exposures map[string]int, beliefs map[string]float64, askedInSession map[string]int, maxTags int) []string {
	if len(tags) == 0 {
		return nil
	}
	if maxTags < 1 {
		maxTags = 1
	}
	if maxTags > MaxTagsPerQuestion {
		maxTags = MaxTagsPerQuestion
	}

	type candidate struct {
		tag         string
		exposure    int
		uncertainty float64
		asked       int
		index       int
	}

	seen := make(map[string]bool, len(tags))
	candidates := make([]candidate, 0, len(tags))
	for i, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		b, ok := beliefs[t]
		if !ok {
			b = belief.Prior
		}
		candidates = append(candidates, candidate{
			tag:         t,
			exposure:    exposures[t],
			uncertainty: math.Abs(b - 0.5),
			asked:       askedInSession[t],
			index:       i,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.exposure != b.exposure {
			return a.exposure < b.exposure
		}
		if a.uncertainty != b.uncertainty {
			return a.uncertainty < b.uncertainty
		}
		if a.asked != b.asked {
			return a.asked < b.asked
		}
		return a.index < b.index
	})

	lowest := candidates[0].exposure
	selected := []string{candidates[0].tag}
	for _, c := range candidates[1:] {
		if len(selected) >= maxTags || c.exposure != lowest {
			break
		}
		selected = append(selected, c.tag)
	}
	return selected
}

// DifficultyFor maps the mean belief of the chosen tags to a difficulty:
// below 0.4 is Easy, below 0.7 is Medium, anything higher is Hard.
func DifficultyFor(tags []string, beliefs map[string]float64) question.Difficulty {
	if len(tags) == 0 {
		return question.DifficultyMedium
	}
	var sum float64
	for _, t := range tags {
		b, ok := beliefs[t]
		if !ok {
			b = belief.Prior
		}
		sum += b
	}
	mean := sum / float64(len(tags))

	switch {
	case mean < 0.4:
		return question.DifficultyEasy
	case mean < 0.7:
		return question.DifficultyMedium
	default:
		return question.DifficultyHard
	}
}
