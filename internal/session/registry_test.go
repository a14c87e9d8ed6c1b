package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/skillprobe/internal/planner"
	"github.com/abhisek/skillprobe/internal/question"
	"github.com/abhisek/skillprobe/internal/questiongen"
	"github.com/abhisek/skillprobe/internal/topics"
)

func newTestRegistry() *Registry {
	return NewRegistry(Deps{
		Decomposer: staticDecomposer{},
		Generator:  &syncGenerator{},
		Planner:    planner.New(planner.DefaultConfig(), nil, discardLogger()),
		Evaluator:  &constEvaluator{score: 1},
		Logger:     discardLogger(),
	}, Config{MaxQuestions: 4})
}

// The collaborators below are shared across sessions, so they
// must be safe for concurrent use.
type syncGenerator struct {
	mu sync.Mutex
	fakeGenerator
}

func (g *syncGenerator) Generate(ctx context.Context, in questiongen.GenerateInput) (*question.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fakeGenerator.Generate(ctx, in)
}

type staticDecomposer struct{}

func (staticDecomposer) Decompose(_ context.Context, topic string) (topics.Decomposition, error) {
	return topics.Decomposition{Topic: topic, Subtopics: pythonTags}, nil
}

type constEvaluator struct {
	score float64
}

func (e *constEvaluator) Evaluate(context.Context, *question.Question, question.Answer) (float64, error) {
	return e.score, nil
}

func TestRegistry_CreateGetDelete(t *testing.T) {
	r := newTestRegistry()

	a := r.Create(0)
	b := r.Create(7)
	if a.ID() == b.ID() {
		t.Fatal("ids collide")
	}
	if r.Len() != 2 || len(r.IDs()) != 2 {
		t.Fatalf("Len = %d", r.Len())
	}
	if got := a.Snapshot().MaxQuestions; got != 4 {
		t.Fatalf("default budget = %d, want 4", got)
	}
	if got := b.Snapshot().MaxQuestions; got != 7 {
		t.Fatalf("override budget = %d, want 7", got)
	}

	got, err := r.Get(a.ID())
	if err != nil || got != a {
		t.Fatalf("Get = %v, %v", got, err)
	}

	if err := r.Delete(a.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := r.Get(a.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: %v", err)
	}
	if err := r.Delete(a.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestRegistry_SessionsAreIndependent(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	flows := make([]*Flow, 8)
	for i := range flows {
		flows[i] = r.Create(0)
	}
	for i, f := range flows {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.Start(ctx, "Python"); err != nil {
				t.Errorf("Start: %v", err)
				return
			}
			// Odd sessions answer one question, even ones none.
			if i%2 == 1 {
				if _, err := f.Next(ctx); err != nil {
					t.Errorf("Next: %v", err)
					return
				}
				if _, err := f.Submit(ctx, question.Answer{Choices: []string{"A"}}); err != nil {
					t.Errorf("Submit: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	for i, f := range flows {
		want := i % 2
		if got := f.Snapshot().QuestionsAsked; got != want {
			t.Errorf("session %d asked %d, want %d", i, got, want)
		}
	}
}

func TestRegistry_PruneIdleSessions(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(Deps{
		Decomposer: staticDecomposer{},
		Generator:  &syncGenerator{},
		Planner:    planner.New(planner.DefaultConfig(), nil, discardLogger()),
		Evaluator:  &constEvaluator{score: 1},
		Clock:      func() time.Time { return now },
		Logger:     discardLogger(),
	}, Config{MaxQuestions: 4})

	stale := r.Create(0)
	active := r.Create(0)

	now = now.Add(45 * time.Minute)
	if _, err := r.Get(active.ID()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n := r.Prune(time.Hour); n != 0 {
		t.Fatalf("pruned %d before anything went idle", n)
	}

	now = now.Add(30 * time.Minute)
	if n := r.Prune(time.Hour); n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
	if _, err := r.Get(stale.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("stale session still present: %v", err)
	}
	if _, err := r.Get(active.ID()); err != nil {
		t.Fatalf("recently used session was pruned: %v", err)
	}

	if n := r.Prune(0); n != 0 || r.Len() != 1 {
		t.Fatalf("zero idle pruned %d, Len = %d", n, r.Len())
	}
}
