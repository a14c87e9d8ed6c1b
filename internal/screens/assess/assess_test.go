package assess

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/skillprobe/internal/planner"
	"github.com/abhisek/skillprobe/internal/question"
	"github.com/abhisek/skillprobe/internal/questiongen"
	"github.com/abhisek/skillprobe/internal/router"
	"github.com/abhisek/skillprobe/internal/screens/summary"
	"github.com/abhisek/skillprobe/internal/session"
	"github.com/abhisek/skillprobe/internal/topics"
)

type stubDecomposer struct{}

func (stubDecomposer) Decompose(_ context.Context, topic string) (topics.Decomposition, error) {
	return topics.Decomposition{Topic: topic, Subtopics: []string{"Loops", "OOP", "IO", "Closures", "Typing"}}, nil
}

type stubGenerator struct {
	failures int
}

func (g *stubGenerator) Generate(_ context.Context, in questiongen.GenerateInput) (*question.Question, error) {
	if g.failures > 0 {
		g.failures--
		return nil, errors.New("model overloaded")
	}
	q := &question.Question{
		Text:       "Which of these are iterable?",
		Type:       in.Spec.Type,
		TimeLimit:  60,
		Tags:       in.Spec.Tags,
		Difficulty: in.Spec.Difficulty,
	}
	switch in.Spec.Type {
	case question.TypeMultipleChoice:
		q.Options = []string{"list", "int", "dict", "None"}
		q.CorrectAnswer = "0"
	case question.TypeShortAnswer:
		q.Reference = "a generator yields lazily"
	case question.TypeCoding:
		for i := range question.MinTestCases {
			q.TestCases = append(q.TestCases, question.TestCase{Input: fmt.Sprint(i), ExpectedOutput: fmt.Sprint(i)})
		}
	}
	return q, nil
}

type typePlanner struct {
	typ question.Type
}

func (p typePlanner) Plan(_ context.Context, in planner.PlanInput) (question.Spec, planner.Source, error) {
	return question.Spec{Tags: in.Tags[:1], Type: p.typ, Difficulty: question.DifficultyMedium}, planner.SourceFallback, nil
}

type recordingEvaluator struct {
	mu       sync.Mutex
	failures int
	answers  []question.Answer
}

func (e *recordingEvaluator) Evaluate(_ context.Context, _ *question.Question, a question.Answer) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.answers = append(e.answers, a)
	if e.failures > 0 {
		e.failures--
		return 0, errors.New("sandbox unavailable")
	}
	return 1, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func newTestScreen(t *testing.T, typ question.Type, budget int, gen *stubGenerator, eval *recordingEvaluator) *AssessScreen {
	s, _ := newClockedScreen(t, typ, budget, gen, eval)
	return s
}

func newClockedScreen(t *testing.T, typ question.Type, budget int, gen *stubGenerator, eval *recordingEvaluator) (*AssessScreen, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	flow := session.NewFlow("", session.Deps{
		Decomposer: stubDecomposer{},
		Generator:  gen,
		Planner:    typePlanner{typ: typ},
		Evaluator:  eval,
		Clock:      clock.Now,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, session.Config{MaxQuestions: budget})
	if err := flow.Start(context.Background(), "Python"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return New(flow), clock
}

func press(s string) tea.KeyPressMsg {
	switch s {
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "ctrl+x", "ctrl+s":
		return tea.KeyPressMsg{Code: rune(s[len(s)-1]), Mod: tea.ModCtrl}
	}
	return tea.KeyPressMsg{Code: []rune(s)[0], Text: s}
}

// step feeds msg to the screen and runs the resulting command once,
// feeding its message back.
func step(t *testing.T, s *AssessScreen, msg tea.Msg) tea.Msg {
	t.Helper()
	_, cmd := s.Update(msg)
	if cmd == nil {
		return nil
	}
	return cmd()
}

func start(t *testing.T, s *AssessScreen) {
	t.Helper()
	msg := s.Init()()
	s.Update(msg)
	if s.stage != stagePresenting {
		t.Fatalf("stage = %v, want presenting (err %q)", s.stage, s.errMsg)
	}
}

func TestMultipleChoiceRound(t *testing.T) {
	eval := &recordingEvaluator{}
	s := newTestScreen(t, question.TypeMultipleChoice, 2, &stubGenerator{}, eval)
	start(t, s)

	if got := s.Status(); !strings.HasPrefix(got, "Q 0/2") {
		t.Errorf("Status = %q", got)
	}
	if !strings.Contains(s.View(100, 30), "Which of these are iterable?") {
		t.Error("question text not rendered")
	}

	if _, cmd := s.Update(press("enter")); cmd != nil {
		t.Fatal("empty selection must not submit")
	}

	s.Update(press("1"))
	s.Update(press("3"))
	scored := step(t, s, press("enter"))
	s.Update(scored)

	if s.stage != stageFeedback {
		t.Fatalf("stage = %v, want feedback", s.stage)
	}
	if got := strings.Join(eval.answers[0].Choices, ","); got != "C" {
		t.Errorf("submitted choices = %q", got)
	}
	if s.feedback.Outcome != session.OutcomeAnswered || s.asked != 1 {
		t.Errorf("feedback = %+v", s.feedback)
	}

	// Any key fetches the next question.
	s.Update(step(t, s, press("n")))
	if s.stage != stagePresenting {
		t.Fatalf("stage = %v after continue", s.stage)
	}
}

func TestBudgetSpentShowsSummary(t *testing.T) {
	s := newTestScreen(t, question.TypeShortAnswer, 1, &stubGenerator{}, &recordingEvaluator{})
	start(t, s)

	s.text.Model.SetValue("lazy iteration")
	s.Update(step(t, s, press("enter")))
	if !s.feedback.Done {
		t.Fatal("expected the only question to spend the budget")
	}

	finished := step(t, s, press("x"))
	_, cmd := s.Update(finished)
	if cmd == nil {
		t.Fatal("expected navigation command")
	}
	replace, ok := cmd().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatal("expected ReplaceScreenMsg")
	}
	if _, ok := replace.Screen.(*summary.SummaryScreen); !ok {
		t.Fatalf("replaced with %T", replace.Screen)
	}
}

func TestSkip(t *testing.T) {
	eval := &recordingEvaluator{}
	s := newTestScreen(t, question.TypeShortAnswer, 3, &stubGenerator{}, eval)
	start(t, s)

	s.Update(step(t, s, press("ctrl+x")))
	if s.feedback.Outcome != session.OutcomeSkipped || s.feedback.Score != 0 {
		t.Fatalf("feedback = %+v", s.feedback)
	}
	if len(eval.answers) != 0 {
		t.Error("skip must not call the evaluator")
	}
}

func TestTimeoutExpiresQuestion(t *testing.T) {
	s, clock := newClockedScreen(t, question.TypeMultipleChoice, 3, &stubGenerator{}, &recordingEvaluator{})
	start(t, s)

	if _, cmd := s.Update(timerTickMsg{At: clock.Advance(10 * time.Second), Seq: s.tickSeq}); cmd == nil {
		t.Fatal("expected the timer to keep ticking")
	}
	if got := s.Status(); !strings.HasSuffix(got, "T 0:50") {
		t.Errorf("Status = %q", got)
	}

	expired := step(t, s, timerTickMsg{At: clock.Advance(time.Minute), Seq: s.tickSeq})
	s.Update(expired)
	if s.feedback.Outcome != session.OutcomeTimedOut {
		t.Fatalf("outcome = %q", s.feedback.Outcome)
	}
}

func TestStaleTickIsDropped(t *testing.T) {
	eval := &recordingEvaluator{}
	s, clock := newClockedScreen(t, question.TypeShortAnswer, 3, &stubGenerator{}, eval)
	start(t, s)
	first := s.tickSeq

	s.Update(step(t, s, press("ctrl+x")))
	s.Update(step(t, s, press("enter")))
	if s.stage != stagePresenting || s.tickSeq == first {
		t.Fatalf("stage = %v, seq = %d, want a second question", s.stage, s.tickSeq)
	}

	if _, cmd := s.Update(timerTickMsg{At: clock.Advance(5 * time.Second), Seq: first}); cmd != nil {
		t.Fatal("a tick from the previous question must not start another chain")
	}
	if _, cmd := s.Update(timerTickMsg{At: clock.Now(), Seq: s.tickSeq}); cmd == nil {
		t.Fatal("the current question's tick should keep ticking")
	}
}

func TestScoringFailureRetry(t *testing.T) {
	eval := &recordingEvaluator{failures: 1}
	s := newTestScreen(t, question.TypeCoding, 3, &stubGenerator{}, eval)
	start(t, s)

	s.Update(press("enter"))
	if s.stage != stagePresenting || len(eval.answers) != 0 {
		t.Fatal("enter must not submit code")
	}
	s.code.Model.SetValue("print(input())")
	s.Update(step(t, s, press("ctrl+s")))
	if s.stage != stageScoreFailed {
		t.Fatalf("stage = %v, want score failed", s.stage)
	}
	if !strings.Contains(s.View(100, 30), "sandbox unavailable") {
		t.Error("failure reason not shown")
	}

	s.Update(step(t, s, press("r")))
	if s.stage != stageFeedback || s.feedback.Score != 1 {
		t.Fatalf("stage = %v feedback = %+v", s.stage, s.feedback)
	}
	if len(eval.answers) != 2 || eval.answers[1].Code != "print(input())" {
		t.Errorf("retry did not rescore the kept answer: %+v", eval.answers)
	}
}

func TestGenerationFailureRetry(t *testing.T) {
	s := newTestScreen(t, question.TypeMultipleChoice, 3, &stubGenerator{failures: 1}, &recordingEvaluator{})

	s.Update(s.Init()())
	if s.stage != stageLoadFailed {
		t.Fatalf("stage = %v, want load failed", s.stage)
	}

	s.Update(step(t, s, press("r")))
	if s.stage != stagePresenting {
		t.Fatalf("stage = %v after retry", s.stage)
	}
}

func TestQuitConfirmFinishes(t *testing.T) {
	s := newTestScreen(t, question.TypeMultipleChoice, 5, &stubGenerator{}, &recordingEvaluator{})
	start(t, s)

	s.Update(press("esc"))
	if !s.quitConfirm {
		t.Fatal("expected quit confirmation")
	}
	s.Update(press("n"))
	if s.quitConfirm || s.stage != stagePresenting {
		t.Fatal("N should resume the question")
	}

	s.Update(press("esc"))
	finished := step(t, s, press("y"))
	fm, ok := finished.(finishedMsg)
	if !ok || fm.Err != nil {
		t.Fatalf("finish = %#v", finished)
	}
	if fm.Summary.QuestionsAsked != 0 || len(fm.Summary.Moderate) != 5 {
		t.Errorf("summary = %+v", fm.Summary)
	}
}
