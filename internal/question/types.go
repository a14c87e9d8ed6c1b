package question

import (
	"fmt"
	"strings"
)

// Type identifies how a question is answered and scored.
type Type string

const (
	TypeMultipleChoice Type = "MultipleChoice"
	TypeShortAnswer    Type = "ShortAnswer"
	TypeCoding         Type = "Coding"
)

// Types lists every question type in fixed priority order
// (MultipleChoice > ShortAnswer > Coding). Tie-breaks rely on this order.
var Types = []Type{TypeMultipleChoice, TypeShortAnswer, TypeCoding}

// Valid reports whether t is a known question type.
func (t Type) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeShortAnswer, TypeCoding:
		return true
	}
	return false
}

// ParseType accepts the canonical names plus the short forms used in
// prompts and config files ("mcq", "short", "code").
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "multiplechoice", "multiple_choice", "mcq":
		return TypeMultipleChoice, nil
	case "shortanswer", "short_answer", "short":
		return TypeShortAnswer, nil
	case "coding", "code":
		return TypeCoding, nil
	}
	return "", fmt.Errorf("unknown question type %q", s)
}

// Difficulty is the requested difficulty band for a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty parses a difficulty name case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, nil
	case "medium":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Spec is a generation request: which tags to probe, with what kind of
// question, at what difficulty.
type Spec struct {
	Tags       []string   `json:"tags"`
	Type       Type       `json:"type"`
	Difficulty Difficulty `json:"difficulty"`
}

// Validate checks that the spec is usable for generation.
func (s Spec) Validate() error {
	if len(s.Tags) == 0 {
		return fmt.Errorf("spec has no tags")
	}
	for i, t := range s.Tags {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("spec tag %d is empty", i)
		}
	}
	if !s.Type.Valid() {
		return fmt.Errorf("spec has invalid type %q", s.Type)
	}
	if !s.Difficulty.Valid() {
		return fmt.Errorf("spec has invalid difficulty %q", s.Difficulty)
	}
	return nil
}

// TestCase is a single input/expected-output pair for a coding question.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// MinTestCases is the minimum number of test cases a coding question carries.
const MinTestCases = 10

// MCQOptionCount is the exact number of options on a multiple-choice question.
const MCQOptionCount = 4

// Question is a generated question. It is immutable once generated; the
// payload fields that apply depend on Type.
type Question struct {
	Text string
	Type Type

	// Options holds the choices for TypeMultipleChoice, empty otherwise.
	Options []string

	// CorrectAnswer is the 0-based index of the correct option, as a string
	// (TypeMultipleChoice only).
	CorrectAnswer string

	// Reference is the model answer (TypeShortAnswer only).
	Reference string

	// TestCases are the ordered cases (TypeCoding only).
	TestCases []TestCase

	// TimeLimit is the number of seconds the learner has to answer.
	TimeLimit int

	// Tags and Difficulty are copied from the Spec that produced the question.
	Tags       []string
	Difficulty Difficulty
}

// Answer is what the learner submits. Which field is read depends on the
// question type.
type Answer struct {
	// Choices are option labels ("A".."D") or 1-based indexes ("1".."4").
	Choices []string `json:"choices,omitempty"`
	Text    string   `json:"text,omitempty"`
	Code    string   `json:"code,omitempty"`
}
