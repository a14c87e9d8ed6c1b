package planner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/abhisek/skillprobe/internal/question"
)

func TestDefaultDistributionValid(t *testing.T) {
	if err := DefaultDistribution().Validate(); err != nil {
		t.Fatalf("default distribution invalid: %v", err)
	}
	bad := []Distribution{
		{},
		{question.TypeMultipleChoice: 0.5, question.TypeCoding: 0.2},
		{question.TypeMultipleChoice: 1.2, question.TypeCoding: -0.2},
		{"Essay": 1.0},
	}
	for i, d := range bad {
		if err := d.Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestNextType(t *testing.T) {
	dist := DefaultDistribution()
	tests := []struct {
		name  string
		asked map[question.Type]int
		total int
		max   int
		want  question.Type
	}{
		{"fresh session favours mcq", nil, 0, 10, question.TypeMultipleChoice},
		{"mcq served", map[question.Type]int{question.TypeMultipleChoice: 5}, 5, 10, question.TypeShortAnswer},
		{"short served", map[question.Type]int{question.TypeMultipleChoice: 5, question.TypeShortAnswer: 3}, 8, 10, question.TypeCoding},
		{
			// deficits: mcq 5-3=2, short 3-1=2, coding 2-0=2
			"three way tie goes to mcq",
			map[question.Type]int{question.TypeMultipleChoice: 3, question.TypeShortAnswer: 1}, 4, 10,
			question.TypeMultipleChoice,
		},
		{
			// deficits: mcq 5-4=1, short 3-2=1, coding 2-0=2
			"largest deficit wins",
			map[question.Type]int{question.TypeMultipleChoice: 4, question.TypeShortAnswer: 2}, 6, 10,
			question.TypeCoding,
		},
		{
			// past budget: budget grows to 11, deficits mcq 0.5, short 0.3, coding 0.2
			"past budget keeps the mix",
			map[question.Type]int{question.TypeMultipleChoice: 5, question.TypeShortAnswer: 3, question.TypeCoding: 2}, 10, 10,
			question.TypeMultipleChoice,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextType(dist, tt.asked, tt.total, tt.max); got != tt.want {
				t.Errorf("NextType() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNextType_FullSessionMatchesDistribution(t *testing.T) {
	dist := DefaultDistribution()
	asked := map[question.Type]int{}
	for i := 0; i < 10; i++ {
		asked[NextType(dist, asked, i, 10)]++
	}
	want := map[question.Type]int{
		question.TypeMultipleChoice: 5,
		question.TypeShortAnswer:    3,
		question.TypeCoding:         2,
	}
	if !reflect.DeepEqual(asked, want) {
		t.Errorf("type counts = %v, want %v", asked, want)
	}
}

func TestSelectTags(t *testing.T) {
	tags := []string{"Loops", "OOP", "IO", "Generators"}
	tests := []struct {
		name      string
		exposures map[string]int
		beliefs   map[string]float64
		asked     map[string]int
		maxTags   int
		want      []string
	}{
		{
			name:    "fresh session combines first tags",
			maxTags: 2,
			want:    []string{"Loops", "OOP"},
		},
		{
			name:      "unexposed tag before exposed ones",
			exposures: map[string]int{"Loops": 1, "OOP": 1, "IO": 1},
			beliefs:   map[string]float64{"Loops": 0.5, "OOP": 0.5, "IO": 0.5},
			maxTags:   3,
			want:      []string{"Generators"},
		},
		{
			name:      "closest to half wins among equal exposure",
			exposures: map[string]int{"Loops": 1, "OOP": 1, "IO": 1, "Generators": 1},
			beliefs:   map[string]float64{"Loops": 1.0, "OOP": 0.6, "IO": 0.0, "Generators": 0.45},
			maxTags:   2,
			want:      []string{"Generators", "OOP"},
		},
		{
			name:      "session asks break belief ties",
			exposures: map[string]int{"Loops": 1, "OOP": 1, "IO": 1, "Generators": 1},
			beliefs:   map[string]float64{"Loops": 0.5, "OOP": 0.5, "IO": 0.5, "Generators": 0.5},
			asked:     map[string]int{"Loops": 2, "OOP": 1},
			maxTags:   1,
			want:      []string{"IO"},
		},
		{
			name:    "max tags clamped to three",
			maxTags: 10,
			want:    []string{"Loops", "OOP", "IO"},
		},
		{
			name:    "non positive max tags selects one",
			maxTags: 0,
			want:    []string{"Loops"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectTags(tags, tt.exposures, tt.beliefs, tt.asked, tt.maxTags)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SelectTags() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectTags_NeverEmpty(t *testing.T) {
	if got := SelectTags(nil, nil, nil, nil, 2); got != nil {
		t.Errorf("expected nil for no tags, got %v", got)
	}
	got := SelectTags([]string{"only"}, map[string]int{"only": 40}, map[string]float64{"only": 1}, nil, 3)
	if len(got) != 1 || got[0] != "only" {
		t.Errorf("SelectTags() = %v, want [only]", got)
	}
}

func TestDifficultyFor(t *testing.T) {
	tests := []struct {
		beliefs map[string]float64
		tags    []string
		want    question.Difficulty
	}{
		{map[string]float64{"a": 0.1}, []string{"a"}, question.DifficultyEasy},
		{map[string]float64{"a": 0.4}, []string{"a"}, question.DifficultyMedium},
		{map[string]float64{"a": 0.5}, []string{"a"}, question.DifficultyMedium},
		{map[string]float64{"a": 0.7}, []string{"a"}, question.DifficultyHard},
		{map[string]float64{"a": 1.0, "b": 0.0}, []string{"a", "b"}, question.DifficultyMedium},
		{nil, []string{"unknown"}, question.DifficultyMedium},
	}
	for _, tt := range tests {
		if got := DifficultyFor(tt.tags, tt.beliefs); got != tt.want {
			t.Errorf("DifficultyFor(%v, %v) = %s, want %s", tt.tags, tt.beliefs, got, tt.want)
		}
	}
}

type stubAdvisor struct {
	spec  question.Spec
	err   error
	calls int
	last  AdviceRequest
}

func (s *stubAdvisor) Advise(_ context.Context, req AdviceRequest) (question.Spec, error) {
	s.calls++
	s.last = req
	return s.spec, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freshInput() PlanInput {
	return PlanInput{
		Tags:         []string{"Loops", "OOP", "IO"},
		Beliefs:      map[string]float64{"Loops": 0.5, "OOP": 0.5, "IO": 0.5},
		Exposures:    map[string]int{},
		MaxQuestions: 10,
	}
}

func TestPlan_NoAdvisorUsesFallback(t *testing.T) {
	p := New(DefaultConfig(), nil, quietLogger())
	spec, src, err := p.Plan(context.Background(), freshInput())
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if src != SourceFallback {
		t.Errorf("source = %s, want fallback", src)
	}
	want := question.Spec{
		Tags:       []string{"Loops", "OOP"},
		Type:       question.TypeMultipleChoice,
		Difficulty: question.DifficultyMedium,
	}
	if !reflect.DeepEqual(spec, want) {
		t.Errorf("spec = %+v, want %+v", spec, want)
	}
}

func TestPlan_AdvisorOverrides(t *testing.T) {
	adv := &stubAdvisor{spec: question.Spec{
		Tags:       []string{"IO"},
		Type:       question.TypeCoding,
		Difficulty: question.DifficultyHard,
	}}
	p := New(DefaultConfig(), adv, quietLogger())

	spec, src, err := p.Plan(context.Background(), freshInput())
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if src != SourceAdvisor {
		t.Errorf("source = %s, want advisor", src)
	}
	if !reflect.DeepEqual(spec, adv.spec) {
		t.Errorf("spec = %+v, want %+v", spec, adv.spec)
	}
	if adv.last.Suggested.Type != question.TypeMultipleChoice {
		t.Errorf("advisor bias type = %s, want MultipleChoice", adv.last.Suggested.Type)
	}
}

func TestPlan_InvalidAdviceFallsBack(t *testing.T) {
	invalid := []question.Spec{
		{Type: question.TypeCoding, Difficulty: question.DifficultyHard},
		{Tags: []string{"Unknown"}, Type: question.TypeCoding, Difficulty: question.DifficultyHard},
		{Tags: []string{"IO"}, Type: "Essay", Difficulty: question.DifficultyHard},
		{Tags: []string{"IO"}, Type: question.TypeCoding, Difficulty: "Extreme"},
		{Tags: []string{"IO", "IO"}, Type: question.TypeCoding, Difficulty: question.DifficultyHard},
	}
	for i, s := range invalid {
		p := New(DefaultConfig(), &stubAdvisor{spec: s}, quietLogger())
		spec, src, err := p.Plan(context.Background(), freshInput())
		if err != nil {
			t.Fatalf("case %d: Plan() error: %v", i, err)
		}
		if src != SourceFallback {
			t.Errorf("case %d: source = %s, want fallback", i, src)
		}
		if spec.Type != question.TypeMultipleChoice {
			t.Errorf("case %d: fallback type = %s", i, spec.Type)
		}
	}
}

func TestPlan_AdvisorErrorTripsBreaker(t *testing.T) {
	adv := &stubAdvisor{err: errors.New("service down")}
	p := New(DefaultConfig(), adv, quietLogger())

	for i := 0; i < 6; i++ {
		_, src, err := p.Plan(context.Background(), freshInput())
		if err != nil {
			t.Fatalf("Plan() error: %v", err)
		}
		if src != SourceFallback {
			t.Fatalf("source = %s, want fallback", src)
		}
	}
	if adv.calls >= 6 {
		t.Errorf("advisor called %d times; breaker should have opened", adv.calls)
	}
}

func TestPlan_NoTags(t *testing.T) {
	p := New(DefaultConfig(), nil, quietLogger())
	_, _, err := p.Plan(context.Background(), PlanInput{MaxQuestions: 10})
	if !errors.Is(err, ErrNoTags) {
		t.Fatalf("expected ErrNoTags, got %v", err)
	}
}
