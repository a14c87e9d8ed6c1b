package question

import (
	"fmt"
	"strconv"
	"strings"
)

// Validate enforces the per-type payload shape.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question text is empty")
	}
	if q.TimeLimit <= 0 {
		return fmt.Errorf("time limit must be positive, got %d", q.TimeLimit)
	}

	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Options) != MCQOptionCount {
			return fmt.Errorf("multiple choice needs exactly %d options, got %d", MCQOptionCount, len(q.Options))
		}
		for i, o := range q.Options {
			if strings.TrimSpace(o) == "" {
				return fmt.Errorf("option %d is empty", i)
			}
		}
		idx, err := strconv.Atoi(strings.TrimSpace(q.CorrectAnswer))
		if err != nil {
			return fmt.Errorf("correct answer %q is not an index: %w", q.CorrectAnswer, err)
		}
		if idx < 0 || idx >= len(q.Options) {
			return fmt.Errorf("correct answer index %d out of range", idx)
		}
	case TypeShortAnswer:
		if len(q.Options) != 0 {
			return fmt.Errorf("short answer must not carry options")
		}
		if strings.TrimSpace(q.Reference) == "" {
			return fmt.Errorf("short answer reference is empty")
		}
	case TypeCoding:
		if len(q.Options) != 0 {
			return fmt.Errorf("coding question must not carry options")
		}
		if len(q.TestCases) < MinTestCases {
			return fmt.Errorf("coding question needs at least %d test cases, got %d", MinTestCases, len(q.TestCases))
		}
	default:
		return fmt.Errorf("invalid question type %q", q.Type)
	}
	return nil
}

// OptionLabel returns the display label for option i ("A", "B", ...).
func OptionLabel(i int) string {
	return string(rune('A' + i))
}

// CorrectLabels returns the label set of the correct options for a
// multiple-choice question, or nil for other types.
func (q *Question) CorrectLabels() []string {
	if q.Type != TypeMultipleChoice {
		return nil
	}
	idx, err := strconv.Atoi(strings.TrimSpace(q.CorrectAnswer))
	if err != nil || idx < 0 || idx >= len(q.Options) {
		return nil
	}
	return []string{OptionLabel(idx)}
}

// NormalizeChoice maps a learner's choice to an option label. Both labels
// ("b") and 1-based indexes ("2") are accepted; anything else is returned
// trimmed and upper-cased so it never matches by accident.
func NormalizeChoice(choice string, optionCount int) string {
	c := strings.ToUpper(strings.TrimSpace(choice))
	if n, err := strconv.Atoi(c); err == nil && n >= 1 && n <= optionCount {
		return OptionLabel(n - 1)
	}
	return c
}
