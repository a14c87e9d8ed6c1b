package evaluate

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/abhisek/skillprobe/internal/question"
	"github.com/abhisek/skillprobe/internal/sandbox"
)

type fakeSimilarity struct {
	value float64
	err   error
	calls int
}

func (f *fakeSimilarity) Score(_ context.Context, _, _ string) (float64, error) {
	f.calls++
	return f.value, f.err
}

type fakeSandbox struct {
	result sandbox.Result
	err    error
	calls  int
}

func (f *fakeSandbox) Run(_ context.Context, _ string, _ []question.TestCase) (sandbox.Result, error) {
	f.calls++
	return f.result, f.err
}

func TestScoreMultipleChoice(t *testing.T) {
	tests := []struct {
		name    string
		chosen  []string
		correct []string
		want    float64
		wantErr error
	}{
		{"half of two", []string{"A"}, []string{"A", "B"}, 0.5, nil},
		{"extra choice clamped", []string{"A", "C"}, []string{"A"}, 1.0, nil},
		{"normalized", []string{" a "}, []string{"A"}, 1.0, nil},
		{"duplicate counted once", []string{"A", "a", "A"}, []string{"A", "B"}, 0.5, nil},
		{"wrong", []string{"D"}, []string{"A"}, 0.0, nil},
		{"nothing chosen", nil, []string{"A"}, 0.0, nil},
		{"empty correct set", []string{"A"}, nil, 0, ErrEmptyCorrectSet},
		{"blank correct set", []string{"A"}, []string{" "}, 0, ErrEmptyCorrectSet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScoreMultipleChoice(tt.chosen, tt.correct)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("score = %v, want %v", got, tt.want)
			}
		})
	}
}

func mcq() *question.Question {
	return &question.Question{
		Text:          "Which keyword starts a loop?",
		Type:          question.TypeMultipleChoice,
		Options:       []string{"if", "for", "def", "try"},
		CorrectAnswer: "1",
		TimeLimit:     60,
	}
}

func TestEvaluate_MultipleChoice(t *testing.T) {
	e := &Evaluator{}
	ctx := context.Background()

	for _, choice := range []string{"B", "b", "2"} {
		got, err := e.Evaluate(ctx, mcq(), question.Answer{Choices: []string{choice}})
		if err != nil {
			t.Fatalf("Evaluate(%q) error: %v", choice, err)
		}
		if got != 1 {
			t.Errorf("Evaluate(%q) = %v, want 1", choice, got)
		}
	}

	got, err := e.Evaluate(ctx, mcq(), question.Answer{Choices: []string{"A"}})
	if err != nil || got != 0 {
		t.Errorf("wrong choice: got %v, %v", got, err)
	}

	dup, err := e.Evaluate(ctx, mcq(), question.Answer{Choices: []string{"b", "2", " B"}})
	if err != nil || dup != 1 {
		t.Errorf("same option three ways: got %v, %v", dup, err)
	}

	broken := mcq()
	broken.CorrectAnswer = "nine"
	if _, err := e.Evaluate(ctx, broken, question.Answer{Choices: []string{"A"}}); !errors.Is(err, ErrEmptyCorrectSet) {
		t.Errorf("expected ErrEmptyCorrectSet, got %v", err)
	}
}

func TestEvaluate_MultipleChoiceRejectsExtraChoices(t *testing.T) {
	e := &Evaluator{}
	ctx := context.Background()

	tests := []struct {
		name    string
		choices []string
	}{
		{"every option", []string{"A", "B", "C", "D"}},
		{"correct plus one", []string{"B", "C"}},
		{"labels and indexes", []string{"2", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(ctx, mcq(), question.Answer{Choices: tt.choices})
			if !errors.Is(err, ErrTooManyChoices) {
				t.Fatalf("error = %v, want ErrTooManyChoices", err)
			}
			if got != 0 {
				t.Errorf("score = %v, want 0", got)
			}
		})
	}
}

func shortAnswer() *question.Question {
	return &question.Question{
		Text:      "What does a for loop do?",
		Type:      question.TypeShortAnswer,
		Reference: "It repeats a block for each item in a sequence.",
		TimeLimit: 90,
	}
}

func TestEvaluate_ShortAnswerContinuous(t *testing.T) {
	sim := &fakeSimilarity{value: 0.62}
	e := &Evaluator{Similarity: sim, Policy: DefaultShortAnswerPolicy()}

	got, err := e.Evaluate(context.Background(), shortAnswer(), question.Answer{Text: "repeats code for items"})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if got != 0.62 {
		t.Errorf("score = %v, want 0.62", got)
	}
}

func TestEvaluate_ShortAnswerThreshold(t *testing.T) {
	tests := []struct {
		sim  float64
		want float64
	}{
		{0.49, 0},
		{0.5, 1},
		{0.9, 1},
	}
	for _, tt := range tests {
		e := &Evaluator{
			Similarity: &fakeSimilarity{value: tt.sim},
			Policy:     ShortAnswerPolicy{Mode: PolicyThreshold, Threshold: 0.5},
		}
		got, err := e.Evaluate(context.Background(), shortAnswer(), question.Answer{Text: "x"})
		if err != nil {
			t.Fatalf("Evaluate() error: %v", err)
		}
		if got != tt.want {
			t.Errorf("similarity %v: score = %v, want %v", tt.sim, got, tt.want)
		}
	}
}

func TestEvaluate_ShortAnswerRejectsOutOfRange(t *testing.T) {
	for _, v := range []float64{-0.1, 1.5, math.NaN()} {
		e := &Evaluator{Similarity: &fakeSimilarity{value: v}}
		_, err := e.Evaluate(context.Background(), shortAnswer(), question.Answer{Text: "x"})
		if !errors.Is(err, ErrInvalidScore) {
			t.Errorf("similarity %v: expected ErrInvalidScore, got %v", v, err)
		}
	}
}

func TestEvaluate_ShortAnswerEmptyTextSkipsScorer(t *testing.T) {
	sim := &fakeSimilarity{value: 1}
	e := &Evaluator{Similarity: sim}
	got, err := e.Evaluate(context.Background(), shortAnswer(), question.Answer{Text: "   "})
	if err != nil || got != 0 {
		t.Fatalf("got %v, %v; want 0, nil", got, err)
	}
	if sim.calls != 0 {
		t.Errorf("scorer called %d times", sim.calls)
	}
}

func TestEvaluate_ShortAnswerScorerError(t *testing.T) {
	e := &Evaluator{Similarity: &fakeSimilarity{err: errors.New("timeout")}}
	if _, err := e.Evaluate(context.Background(), shortAnswer(), question.Answer{Text: "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func coding() *question.Question {
	cases := make([]question.TestCase, 10)
	return &question.Question{Text: "Double it", Type: question.TypeCoding, TestCases: cases, TimeLimit: 300}
}

func TestEvaluate_Coding(t *testing.T) {
	tests := []struct {
		name    string
		result  sandbox.Result
		want    float64
		wantErr error
	}{
		{"all pass", sandbox.Result{Passed: 10, Total: 10}, 1, nil},
		{"some pass", sandbox.Result{Passed: 3, Total: 10}, 0.3, nil},
		{"none pass", sandbox.Result{Passed: 0, Total: 10}, 0, nil},
		{"no cases", sandbox.Result{Passed: 0, Total: 0}, 0, ErrNoTestCases},
		{"impossible report", sandbox.Result{Passed: 11, Total: 10}, 0, ErrInvalidScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Evaluator{Sandbox: &fakeSandbox{result: tt.result}}
			got, err := e.Evaluate(context.Background(), coding(), question.Answer{Code: "print(1)"})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_MissingCollaborators(t *testing.T) {
	e := &Evaluator{}
	ctx := context.Background()
	if _, err := e.Evaluate(ctx, shortAnswer(), question.Answer{Text: "x"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("short answer: expected ErrNotConfigured, got %v", err)
	}
	if _, err := e.Evaluate(ctx, coding(), question.Answer{Code: "x"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("coding: expected ErrNotConfigured, got %v", err)
	}
}

func TestEvaluate_UnsupportedType(t *testing.T) {
	q := &question.Question{Text: "q", Type: "Essay", TimeLimit: 10}
	if _, err := (&Evaluator{}).Evaluate(context.Background(), q, question.Answer{}); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}
