// Package assess is the question loop screen. It drives a session.Flow:
// fetch a question, collect the answer, show feedback and move on until
// the budget is spent.
package assess

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/skillprobe/internal/question"
	"github.com/abhisek/skillprobe/internal/router"
	"github.com/abhisek/skillprobe/internal/screen"
	"github.com/abhisek/skillprobe/internal/screens/summary"
	"github.com/abhisek/skillprobe/internal/session"
	"github.com/abhisek/skillprobe/internal/ui/components"
	"github.com/abhisek/skillprobe/internal/ui/layout"
)

type stage int

const (
	stageLoading      stage = iota // Waiting for the next question
	stagePresenting                // Question on screen, timer running
	stageScoring                   // Answer sent to the evaluator
	stageFeedback                  // Score shown, waiting for a key
	stageScoreFailed               // Evaluator failed; retry or skip
	stageLoadFailed                // Generation failed; retry or finish
	stageFinishing                 // Summary being built
)

const (
	editorWidth  = 72
	editorHeight = 12
)

// AssessScreen implements screen.Screen for the question loop.
type AssessScreen struct {
	flow *session.Flow

	stage       stage
	quitConfirm bool

	question  *question.Question
	choices   components.ChoiceList
	text      components.TextInput
	code      components.CodeEditor
	remaining time.Duration
	tickSeq   int

	feedback session.Feedback
	asked    int
	budget   int
	errMsg   string
}

var _ screen.Screen = (*AssessScreen)(nil)
var _ screen.KeyHintProvider = (*AssessScreen)(nil)
var _ screen.StatusProvider = (*AssessScreen)(nil)

// New creates the screen for a flow whose topic is already decomposed.
func New(flow *session.Flow) *AssessScreen {
	return &AssessScreen{flow: flow}
}

func (s *AssessScreen) Init() tea.Cmd {
	snap := s.flow.Snapshot()
	s.asked = snap.QuestionsAsked
	s.budget = snap.MaxQuestions
	return s.next()
}

func (s *AssessScreen) Title() string {
	if s.question != nil && s.stage != stageLoading {
		return typeTitle(s.question.Type)
	}
	return "Assessment"
}

// Status shows progress and, while a question is open, its countdown.
func (s *AssessScreen) Status() string {
	status := progressLabel(s.asked, s.budget)
	if s.stage == stagePresenting {
		status += "  T " + layout.FormatClock(int(s.remaining.Round(time.Second).Seconds()))
	}
	return status
}

func (s *AssessScreen) KeyHints() []layout.KeyHint {
	if s.quitConfirm {
		return []layout.KeyHint{{Key: "Y", Description: "Finish now"}, {Key: "N", Description: "Keep going"}}
	}
	switch s.stage {
	case stagePresenting:
		submit := layout.KeyHint{Key: "Enter", Description: "Submit"}
		if s.question != nil && s.question.Type == question.TypeCoding {
			submit.Key = "Ctrl+S"
		}
		return []layout.KeyHint{submit, {Key: "Ctrl+X", Description: "Skip"}, {Key: "Esc", Description: "Finish"}}
	case stageFeedback:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	case stageScoreFailed:
		return []layout.KeyHint{{Key: "R", Description: "Retry scoring"}, {Key: "S", Description: "Skip question"}}
	case stageLoadFailed:
		return []layout.KeyHint{{Key: "R", Description: "Try again"}, {Key: "F", Description: "Finish"}}
	}
	return []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
}

func (s *AssessScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case questionReadyMsg:
		return s.handleQuestion(msg)
	case scoredMsg:
		return s.handleScored(msg)
	case finishedMsg:
		return s.handleFinished(msg)
	case timerTickMsg:
		return s.handleTick(msg)
	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s.forwardToInput(msg)
}

func (s *AssessScreen) handleQuestion(msg questionReadyMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.stage = stageLoadFailed
		s.errMsg = describe(msg.Err)
		return s, nil
	}
	if msg.Question == nil {
		return s, s.finish()
	}

	q := msg.Question
	s.question = q
	s.errMsg = ""
	s.stage = stagePresenting
	s.remaining = time.Duration(q.TimeLimit) * time.Second
	s.tickSeq++

	var focus tea.Cmd
	switch q.Type {
	case question.TypeMultipleChoice:
		s.choices = components.NewChoiceList(q.Options)
	case question.TypeShortAnswer:
		s.text = components.NewTextInput("Your answer", 0, editorWidth)
		focus = s.text.Init()
	case question.TypeCoding:
		s.code = components.NewCodeEditor(editorWidth, editorHeight)
		focus = s.code.Init()
	}
	return s, tea.Batch(focus, tickCmd(s.tickSeq))
}

func (s *AssessScreen) handleScored(msg scoredMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = describe(msg.Err)
		if errors.Is(msg.Err, session.ErrSubmissionAfterTimeout) {
			return s, s.expire()
		}
		s.stage = stageScoreFailed
		return s, nil
	}
	s.feedback = msg.Feedback
	s.asked = msg.Feedback.QuestionsAsked
	s.stage = stageFeedback
	s.errMsg = ""
	return s, nil
}

func (s *AssessScreen) handleFinished(msg finishedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.stage = stageLoadFailed
		s.errMsg = describe(msg.Err)
		return s, nil
	}
	next := summary.New(msg.Summary)
	return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
}

// handleTick drops ticks left over from an earlier question so only one
// chain runs at a time.
func (s *AssessScreen) handleTick(msg timerTickMsg) (screen.Screen, tea.Cmd) {
	if s.stage != stagePresenting || msg.Seq != s.tickSeq {
		return s, nil
	}
	s.remaining = s.flow.Remaining(msg.At)
	if s.flow.TimeUp(msg.At) {
		s.quitConfirm = false
		return s, s.expire()
	}
	return s, tickCmd(msg.Seq)
}

func (s *AssessScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.quitConfirm {
		switch key {
		case "y", "Y":
			s.quitConfirm = false
			return s, s.finish()
		case "n", "N", "esc":
			s.quitConfirm = false
		}
		return s, nil
	}

	switch s.stage {
	case stageFeedback:
		if s.feedback.Done {
			return s, s.summary()
		}
		return s, s.next()

	case stageScoreFailed:
		switch key {
		case "r", "R":
			return s, s.score(s.flow.Retry)
		case "s", "S":
			return s, s.score(s.flow.Skip)
		}
		return s, nil

	case stageLoadFailed:
		switch key {
		case "r", "R":
			return s, s.next()
		case "f", "F":
			return s, s.finish()
		}
		return s, nil

	case stagePresenting:
		switch key {
		case "esc":
			s.quitConfirm = true
			return s, nil
		case "ctrl+x":
			return s, s.score(s.flow.Skip)
		case "enter":
			if s.question.Type != question.TypeCoding {
				return s.submit()
			}
		case "ctrl+s":
			if s.question.Type == question.TypeCoding {
				return s.submit()
			}
		}
		return s.forwardToInput(msg)
	}
	return s, nil
}

func (s *AssessScreen) forwardToInput(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if s.stage != stagePresenting || s.question == nil || s.quitConfirm {
		return s, nil
	}
	var cmd tea.Cmd
	switch s.question.Type {
	case question.TypeMultipleChoice:
		s.choices, cmd = s.choices.Update(msg)
	case question.TypeShortAnswer:
		s.text, cmd = s.text.Update(msg)
	case question.TypeCoding:
		s.code, cmd = s.code.Update(msg)
	}
	return s, cmd
}

// submit sends the current answer. An empty answer is not sent; Skip is
// the explicit way to give up on a question.
func (s *AssessScreen) submit() (screen.Screen, tea.Cmd) {
	var answer question.Answer
	switch s.question.Type {
	case question.TypeMultipleChoice:
		answer.Choices = s.choices.Labels()
		if len(answer.Choices) == 0 {
			return s, nil
		}
	case question.TypeShortAnswer:
		answer.Text = s.text.Value()
		if strings.TrimSpace(answer.Text) == "" {
			return s, nil
		}
	case question.TypeCoding:
		answer.Code = s.code.Value()
		if strings.TrimSpace(answer.Code) == "" {
			return s, nil
		}
	}

	flow := s.flow
	return s, s.score(func(ctx context.Context) (session.Feedback, error) {
		return flow.Submit(ctx, answer)
	})
}

func (s *AssessScreen) next() tea.Cmd {
	s.stage = stageLoading
	s.question = nil
	flow := s.flow
	return func() tea.Msg {
		q, err := flow.Next(context.Background())
		return questionReadyMsg{Question: q, Err: err}
	}
}

func (s *AssessScreen) score(event func(context.Context) (session.Feedback, error)) tea.Cmd {
	s.stage = stageScoring
	return func() tea.Msg {
		fb, err := event(context.Background())
		return scoredMsg{Feedback: fb, Err: err}
	}
}

func (s *AssessScreen) expire() tea.Cmd {
	return s.score(s.flow.Expire)
}

func (s *AssessScreen) finish() tea.Cmd {
	s.stage = stageFinishing
	flow := s.flow
	return func() tea.Msg {
		sum, err := flow.Finish(context.Background())
		return finishedMsg{Summary: sum, Err: err}
	}
}

// summary moves to the result screen once the last answer spent the budget.
func (s *AssessScreen) summary() tea.Cmd {
	s.stage = stageFinishing
	flow := s.flow
	return func() tea.Msg {
		sum, err := flow.Summary()
		return finishedMsg{Summary: sum, Err: err}
	}
}

func tickCmd(seq int) tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg{At: t, Seq: seq}
	})
}

func describe(err error) string {
	if errors.Is(err, session.ErrMalformedResponse) {
		return "the model returned an unusable response: " + err.Error()
	}
	return err.Error()
}
