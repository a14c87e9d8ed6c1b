package evaluate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/abhisek/skillprobe/internal/question"
	"github.com/abhisek/skillprobe/internal/sandbox"
)

var (
	// ErrEmptyCorrectSet is returned when a multiple-choice question has no
	// correct labels to compare against.
	ErrEmptyCorrectSet = errors.New("empty correct set")

	// ErrNoTestCases is returned when a sandbox run reports zero cases.
	ErrNoTestCases = errors.New("no test cases")

	// ErrInvalidScore is returned when a collaborator reports a value that
	// cannot be turned into a score in [0,1]. Such values are never clamped.
	ErrInvalidScore = errors.New("invalid score")

	// ErrUnsupportedType is returned for question types with no strategy.
	ErrUnsupportedType = errors.New("unsupported question type")

	// ErrTooManyChoices is returned when a multiple-choice answer picks more
	// options than the question has correct answers.
	ErrTooManyChoices = errors.New("too many choices")

	// ErrNotConfigured is returned when the collaborator a strategy needs is missing.
	ErrNotConfigured = errors.New("evaluator collaborator not configured")
)

// SimilarityScorer rates how closely a free-text answer matches a reference.
type SimilarityScorer interface {
	Score(ctx context.Context, answer, reference string) (float64, error)
}

// CodeSandbox runs submitted code against ordered test cases.
type CodeSandbox interface {
	Run(ctx context.Context, code string, cases []question.TestCase) (sandbox.Result, error)
}

// PolicyMode selects how a similarity value becomes a short-answer score.
type PolicyMode string

const (
	// PolicyContinuous passes the similarity through unchanged.
	PolicyContinuous PolicyMode = "continuous"

	// PolicyThreshold maps similarity >= Threshold to 1.0 and anything else to 0.0.
	PolicyThreshold PolicyMode = "threshold"
)

// ShortAnswerPolicy configures short-answer scoring.
type ShortAnswerPolicy struct {
	Mode      PolicyMode
	Threshold float64
}

// DefaultShortAnswerPolicy returns the continuous policy.
func DefaultShortAnswerPolicy() ShortAnswerPolicy {
	return ShortAnswerPolicy{Mode: PolicyContinuous, Threshold: 0.5}
}

// Evaluator dispatches an answer to the scoring strategy for its question type.
type Evaluator struct {
	Similarity SimilarityScorer
	Sandbox    CodeSandbox
	Policy     ShortAnswerPolicy
}

// Evaluate scores answer against q. A nil error guarantees a score in [0,1].
func (e *Evaluator) Evaluate(ctx context.Context, q *question.Question, answer question.Answer) (float64, error) {
	switch q.Type {
	case question.TypeMultipleChoice:
		return scoreChoices(q, answer.Choices)

	case question.TypeShortAnswer:
		return e.scoreShortAnswer(ctx, q, answer.Text)

	case question.TypeCoding:
		return e.scoreCoding(ctx, q, answer.Code)

	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, q.Type)
	}
}

// scoreChoices scores a multiple-choice answer against q. Picking more
// options than there are correct ones is rejected, otherwise checking
// every option would always score 1.
func scoreChoices(q *question.Question, choices []string) (float64, error) {
	correct := q.CorrectLabels()
	chosen := make([]string, 0, len(choices))
	distinct := make(map[string]bool, len(choices))
	for _, c := range choices {
		n := question.NormalizeChoice(c, len(q.Options))
		chosen = append(chosen, n)
		if n != "" {
			distinct[n] = true
		}
	}
	if len(correct) > 0 && len(distinct) > len(correct) {
		return 0, fmt.Errorf("%w: picked %d, at most %d allowed", ErrTooManyChoices, len(distinct), len(correct))
	}
	return ScoreMultipleChoice(chosen, correct)
}

// ScoreMultipleChoice returns |chosen ∩ correct| / |correct| clamped to
// [0,1]. Labels are compared trimmed and upper-cased; duplicate choices
// count once.
func ScoreMultipleChoice(chosen, correct []string) (float64, error) {
	correctSet := make(map[string]bool, len(correct))
	for _, c := range correct {
		if n := normalizeLabel(c); n != "" {
			correctSet[n] = true
		}
	}
	if len(correctSet) == 0 {
		return 0, ErrEmptyCorrectSet
	}

	seen := make(map[string]bool, len(chosen))
	hits := 0
	for _, c := range chosen {
		n := normalizeLabel(c)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		if correctSet[n] {
			hits++
		}
	}

	score := float64(hits) / float64(len(correctSet))
	return math.Min(1, math.Max(0, score)), nil
}

func normalizeLabel(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (e *Evaluator) scoreShortAnswer(ctx context.Context, q *question.Question, text string) (float64, error) {
	if e.Similarity == nil {
		return 0, fmt.Errorf("%w: similarity scorer", ErrNotConfigured)
	}
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	sim, err := e.Similarity.Score(ctx, text, q.Reference)
	if err != nil {
		return 0, fmt.Errorf("similarity scoring: %w", err)
	}
	if math.IsNaN(sim) || sim < 0 || sim > 1 {
		return 0, fmt.Errorf("%w: similarity %v", ErrInvalidScore, sim)
	}

	if e.Policy.Mode == PolicyThreshold {
		if sim >= e.Policy.Threshold {
			return 1, nil
		}
		return 0, nil
	}
	return sim, nil
}

func (e *Evaluator) scoreCoding(ctx context.Context, q *question.Question, code string) (float64, error) {
	if e.Sandbox == nil {
		return 0, fmt.Errorf("%w: code sandbox", ErrNotConfigured)
	}
	if strings.TrimSpace(code) == "" {
		return 0, nil
	}

	res, err := e.Sandbox.Run(ctx, code, q.TestCases)
	if err != nil {
		return 0, fmt.Errorf("code execution: %w", err)
	}
	return ScoreCoding(res.Passed, res.Total)
}

// ScoreCoding returns passed/total.
func ScoreCoding(passed, total int) (float64, error) {
	if total == 0 {
		return 0, ErrNoTestCases
	}
	if total < 0 || passed < 0 || passed > total {
		return 0, fmt.Errorf("%w: %d passed of %d", ErrInvalidScore, passed, total)
	}
	return float64(passed) / float64(total), nil
}
