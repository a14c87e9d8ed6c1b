package questiongen

import (
	"strings"
	"testing"

	"github.com/abhisek/skillprobe/internal/question"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Validator: "payload", Message: "options are not distinct", Retryable: true}
	expected := `validator "payload": options are not distinct`
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestDefaultConfig_ValidatorChain(t *testing.T) {
	cfg := DefaultConfig()
	names := []string{"structural", "payload", "duplicate"}
	if len(cfg.Validators) != len(names) {
		t.Fatalf("expected %d validators, got %d", len(names), len(cfg.Validators))
	}
	for i, v := range cfg.Validators {
		if v.Name() != names[i] {
			t.Errorf("validator %d: expected %q, got %q", i, names[i], v.Name())
		}
	}
	if cfg.TimeLimits[question.TypeCoding] <= cfg.TimeLimits[question.TypeMultipleChoice] {
		t.Error("coding should get more time than multiple choice")
	}
}

func TestStructuralValidator(t *testing.T) {
	input := GenerateInput{Spec: specFor(question.TypeShortAnswer, "x")}
	base := question.Question{Text: "Explain defer.", Type: question.TypeShortAnswer, Reference: "r", TimeLimit: 60}

	tests := []struct {
		name      string
		mutate    func(q *question.Question)
		wantErr   bool
		retryable bool
	}{
		{"valid", func(q *question.Question) {}, false, false},
		{"empty text", func(q *question.Question) { q.Text = "  " }, true, true},
		{"long text", func(q *question.Question) { q.Text = strings.Repeat("x", maxQuestionLen+1) }, true, true},
		{"type mismatch", func(q *question.Question) { q.Type = question.TypeCoding }, true, false},
		{"zero time limit", func(q *question.Question) { q.TimeLimit = 0 }, true, true},
		{"huge time limit", func(q *question.Question) { q.TimeLimit = maxTimeLimit + 1 }, true, true},
	}

	v := &StructuralValidator{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := base
			tt.mutate(&q)
			err := v.Validate(&q, input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && err.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", err.Retryable, tt.retryable)
			}
		})
	}
}

func TestPayloadValidator(t *testing.T) {
	cases := make([]question.TestCase, question.MinTestCases)
	for i := range cases {
		cases[i] = question.TestCase{Input: "1", ExpectedOutput: "1"}
	}
	blankCase := append([]question.TestCase(nil), cases...)
	blankCase[4].ExpectedOutput = " "

	tests := []struct {
		name    string
		q       question.Question
		wantErr bool
	}{
		{
			name: "valid mcq",
			q: question.Question{Text: "q", Type: question.TypeMultipleChoice, TimeLimit: 30,
				Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "3"},
		},
		{
			name: "duplicate options",
			q: question.Question{Text: "q", Type: question.TypeMultipleChoice, TimeLimit: 30,
				Options: []string{"nil", "NIL ", "zero", "panic"}, CorrectAnswer: "0"},
			wantErr: true,
		},
		{
			name:    "short answer without reference",
			q:       question.Question{Text: "q", Type: question.TypeShortAnswer, TimeLimit: 30},
			wantErr: true,
		},
		{
			name: "valid coding",
			q:    question.Question{Text: "q", Type: question.TypeCoding, TimeLimit: 30, TestCases: cases},
		},
		{
			name:    "coding blank expected output",
			q:       question.Question{Text: "q", Type: question.TypeCoding, TimeLimit: 30, TestCases: blankCase},
			wantErr: true,
		},
	}

	v := &PayloadValidator{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.q, GenerateInput{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildDedup(t *testing.T) {
	if got := buildDedup(nil, 5); got != "None" {
		t.Errorf("empty = %q", got)
	}
	got := buildDedup([]string{"q1", "q2", "q3"}, 2)
	if got != "1. q2\n2. q3" {
		t.Errorf("buildDedup = %q", got)
	}
}
