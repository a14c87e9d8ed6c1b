// Package similarity scores a free-text answer against a reference answer.
// Every Scorer returns a value in [0, 1].
package similarity

import (
	"context"
	"strings"
	"unicode"
)

// Scorer rates how well answer matches reference.
type Scorer interface {
	Score(ctx context.Context, answer, reference string) (float64, error)
}

// LexicalScorer is an offline scorer: the Dice coefficient over the sets
// of lower-cased word tokens, ignoring stop words.
type LexicalScorer struct{}

func (LexicalScorer) Score(_ context.Context, answer, reference string) (float64, error) {
	a, r := tokenSet(answer), tokenSet(reference)
	if len(a) == 0 || len(r) == 0 {
		return 0, nil
	}

	shared := 0
	for tok := range a {
		if r[tok] {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(a)+len(r)), nil
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "of": true,
	"to": true, "in": true, "and": true, "or": true, "it": true, "that": true,
	"for": true, "on": true, "be": true, "by": true, "as": true, "with": true,
}

func tokenSet(s string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if !stopWords[w] {
			set[w] = true
		}
	}
	return set
}
