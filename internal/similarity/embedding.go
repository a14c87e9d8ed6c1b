package similarity

import (
	"context"
	"fmt"
	"math"

	"github.com/abhisek/skillprobe/internal/llm"
)

// EmbeddingScorer compares answer and reference by cosine similarity of
// their embeddings. Cosine can be negative; those values map to 0.
type EmbeddingScorer struct {
	embedder llm.Embedder
}

// NewEmbeddingScorer creates an EmbeddingScorer.
func NewEmbeddingScorer(e llm.Embedder) *EmbeddingScorer {
	return &EmbeddingScorer{embedder: e}
}

func (s *EmbeddingScorer) Score(ctx context.Context, answer, reference string) (float64, error) {
	vecs, err := s.embedder.Embed(llm.WithPurpose(ctx, "answer-embedding"), []string{answer, reference})
	if err != nil {
		return 0, fmt.Errorf("embed answer: %w", err)
	}
	if len(vecs) != 2 {
		return 0, fmt.Errorf("expected 2 embeddings, got %d", len(vecs))
	}
	return clamp01(cosine(vecs[0], vecs[1])), nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return min(v, 1)
}
