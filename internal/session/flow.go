// Package session runs one adaptive assessment as an explicit state
// machine: topic intake, then a loop of plan, generate, present and score
// that updates per-tag beliefs until the question budget is spent, then a
// banded summary.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/skillprobe/internal/planner"
	"github.com/abhisek/skillprobe/internal/question"
	"github.com/abhisek/skillprobe/internal/questiongen"
	"github.com/abhisek/skillprobe/internal/store"
	"github.com/abhisek/skillprobe/internal/topics"
)

var (
	// ErrMalformedResponse is wrapped by collaborator failures caused by
	// invalid structured output.
	ErrMalformedResponse = question.ErrMalformedResponse

	// ErrSubmissionAfterTimeout rejects a Submit once the question's time
	// limit has passed. Skip and Expire remain available.
	ErrSubmissionAfterTimeout = errors.New("submission after time limit")

	// ErrInvalidPhase is returned when an event does not apply to the
	// current phase.
	ErrInvalidPhase = errors.New("event not valid in current phase")

	// ErrNoTags is returned when there is nothing to plan a question from.
	ErrNoTags = planner.ErrNoTags

	// ErrEmptyTopic is returned by Start for a blank topic.
	ErrEmptyTopic = errors.New("topic is empty")

	// ErrTimeRemaining is returned by Expire while the question still has time.
	ErrTimeRemaining = errors.New("question time has not run out")

	// ErrNothingToRetry is returned by Retry when no answer is waiting to
	// be scored again.
	ErrNothingToRetry = errors.New("no failed answer to retry")
)

// Planner chooses the spec of the next question.
type Planner interface {
	Plan(ctx context.Context, in planner.PlanInput) (question.Spec, planner.Source, error)
}

// Evaluator scores an answer to a question in [0,1].
type Evaluator interface {
	Evaluate(ctx context.Context, q *question.Question, answer question.Answer) (float64, error)
}

// Journal records session activity. Write failures are logged and never
// fail the flow.
type Journal interface {
	AppendSessionEvent(ctx context.Context, data store.SessionEventData) error
	AppendAnswerEvent(ctx context.Context, data store.AnswerEventData) error
}

// Deps are the collaborators a Flow drives. Journal, Clock and Logger are
// optional.
type Deps struct {
	Decomposer topics.Decomposer
	Generator  questiongen.Generator
	Planner    Planner
	Evaluator  Evaluator
	Journal    Journal
	Clock      func() time.Time
	Logger     *slog.Logger
}

// Config holds per-session settings.
type Config struct {
	MaxQuestions int
}

// DefaultMaxQuestions is the question budget when none is configured.
const DefaultMaxQuestions = 10

// Flow is the state machine for one assessment session. All methods are
// safe for concurrent use; events are applied one at a time.
type Flow struct {
	mu     sync.Mutex
	id     string
	deps   Deps
	config Config
	state  *State
}

// NewFlow creates a flow in PhaseStart.
func NewFlow(id string, deps Deps, cfg Config) *Flow {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.MaxQuestions <= 0 {
		cfg.MaxQuestions = DefaultMaxQuestions
	}
	if id == "" {
		id = uuid.New().String()
	}

	f := &Flow{id: id, deps: deps, config: cfg}
	f.state = newState(cfg.MaxQuestions)
	f.deps.Logger = f.deps.Logger.With("session", id)
	return f
}

// ID returns the session identifier.
func (f *Flow) ID() string {
	return f.id
}

// Phase returns the current phase.
func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Phase
}

// Snapshot returns a copy of the session state.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.snapshot(f.id, f.deps.Clock())
}

// Start decomposes topic into tags and initializes their beliefs. On
// failure the session stays in PhaseStart with nothing initialized.
func (f *Flow) Start(ctx context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.expect("start", PhaseStart); err != nil {
		return err
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ErrEmptyTopic
	}

	d, err := f.deps.Decomposer.Decompose(ctx, topic)
	if err != nil {
		f.deps.Logger.Warn("topic decomposition failed", "topic", topic, "error", err)
		return fmt.Errorf("decompose %q: %w", topic, err)
	}
	tags, err := topics.Normalize(d.Subtopics)
	if err != nil {
		f.deps.Logger.Warn("topic decomposition rejected", "topic", topic, "error", err)
		return fmt.Errorf("decompose %q: %w", topic, err)
	}

	s := f.state
	s.Topic = topic
	s.Tags = tags
	s.Beliefs.Init(tags)
	s.StartedAt = f.deps.Clock()
	f.transition(PhaseTagsReady)

	f.journalSession(ctx, store.ActionStart)
	return nil
}

// Next plans and generates the next question and moves to PhasePresenting.
// When the budget is spent it summarizes instead and returns a nil
// question. A planning or generation failure leaves the phase unchanged so
// the caller can call Next again.
func (f *Flow) Next(ctx context.Context) (*question.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.expect("next", PhaseTagsReady, PhaseSelecting); err != nil {
		return nil, err
	}

	s := f.state
	if s.QuestionsAsked >= s.MaxQuestions {
		f.summarize(ctx)
		return nil, nil
	}
	if len(s.Tags) == 0 {
		return nil, ErrNoTags
	}

	prev := s.Phase
	f.transition(PhaseSelecting)

	spec, source, err := f.deps.Planner.Plan(ctx, planner.PlanInput{
		Tags:         s.Tags,
		Beliefs:      s.Beliefs.Snapshot(),
		Exposures:    s.Beliefs.Exposures(),
		AskedTags:    s.AskedTags,
		AskedTypes:   s.AskedTypes,
		TotalAsked:   s.QuestionsAsked,
		MaxQuestions: s.MaxQuestions,
	})
	if err != nil {
		s.Phase = prev
		return nil, fmt.Errorf("plan question: %w", err)
	}

	q, err := f.deps.Generator.Generate(ctx, questiongen.GenerateInput{
		Spec:           spec,
		Topic:          s.Topic,
		PriorQuestions: s.priorQuestions(),
	})
	if err == nil {
		err = checkGenerated(q, spec)
	}
	if err != nil {
		s.Phase = prev
		f.deps.Logger.Warn("question generation failed",
			"type", spec.Type, "tags", spec.Tags, "error", err)
		return nil, fmt.Errorf("generate question: %w", err)
	}

	s.Spec = spec
	s.Source = source
	s.Question = q
	s.PresentedAt = f.deps.Clock()
	s.pending = nil
	f.transition(PhasePresenting)
	return q, nil
}

// checkGenerated rejects a question whose shape does not match what was
// asked for.
func checkGenerated(q *question.Question, spec question.Spec) error {
	if q == nil {
		return fmt.Errorf("%w: no question returned", ErrMalformedResponse)
	}
	if q.Type != spec.Type {
		return fmt.Errorf("%w: asked for %s, got %s", ErrMalformedResponse, spec.Type, q.Type)
	}
	if err := q.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

// Submit scores answer for the current question. It is rejected with
// ErrSubmissionAfterTimeout once time is up. If scoring fails, beliefs and
// the question count are untouched, the session stays in PhasePresenting,
// and the answer is kept for Retry.
func (f *Flow) Submit(ctx context.Context, answer question.Answer) (Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.expect("submit", PhasePresenting); err != nil {
		return Feedback{}, err
	}
	if f.timeUp(f.deps.Clock()) {
		return Feedback{}, ErrSubmissionAfterTimeout
	}

	f.state.pending = &answer
	return f.score(ctx, answer)
}

// Retry scores the answer whose previous evaluation failed. The answer
// was submitted in time, so the time limit does not apply.
func (f *Flow) Retry(ctx context.Context) (Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.expect("retry", PhasePresenting); err != nil {
		return Feedback{}, err
	}
	if f.state.pending == nil {
		return Feedback{}, ErrNothingToRetry
	}
	return f.score(ctx, *f.state.pending)
}

// Skip abandons the current question, scoring 0 on its tags.
func (f *Flow) Skip(ctx context.Context) (Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.expect("skip", PhasePresenting); err != nil {
		return Feedback{}, err
	}
	f.transition(PhaseScoring)
	return f.apply(ctx, 0, OutcomeSkipped, "")
}

// Expire scores 0 on the current question's tags once its time is up.
func (f *Flow) Expire(ctx context.Context) (Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.expect("expire", PhasePresenting); err != nil {
		return Feedback{}, err
	}
	if !f.timeUp(f.deps.Clock()) {
		return Feedback{}, ErrTimeRemaining
	}
	f.transition(PhaseScoring)
	return f.apply(ctx, 0, OutcomeTimedOut, "")
}

// Finish ends the session early. A question being presented is dropped
// without being scored.
func (f *Flow) Finish(ctx context.Context) (Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.expect("finish", PhaseTagsReady, PhaseSelecting, PhasePresenting); err != nil {
		return Summary{}, err
	}
	f.state.Question = nil
	f.state.pending = nil
	return f.summarize(ctx), nil
}

// Summary returns the result once the session is summarized.
func (f *Flow) Summary() (Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.expect("summary", PhaseSummarized); err != nil {
		return Summary{}, err
	}
	return *f.state.Summary, nil
}

// Restart clears all state and returns to PhaseStart. It is valid in any
// phase.
func (f *Flow) Restart(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Phase != PhaseStart {
		f.journalSession(ctx, store.ActionRestart)
	}
	f.state = newState(f.config.MaxQuestions)
	f.deps.Logger.Debug("session restarted")
}

// Remaining returns the time left on the current question, or zero when
// no question is being presented.
func (f *Flow) Remaining(now time.Time) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Phase != PhasePresenting {
		return 0
	}
	return remaining(f.state.PresentedAt, now, f.state.Question.TimeLimit)
}

// TimeUp reports whether the current question's time limit has passed.
func (f *Flow) TimeUp(now time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timeUp(now)
}

func (f *Flow) timeUp(now time.Time) bool {
	if f.state.Phase != PhasePresenting {
		return false
	}
	return timeUp(f.state.PresentedAt, now, f.state.Question.TimeLimit)
}

// timeUp is now - start >= limit. time.Time values from time.Now carry a
// monotonic reading, so wall clock changes do not affect it.
func timeUp(start, now time.Time, limitSecs int) bool {
	return now.Sub(start) >= time.Duration(limitSecs)*time.Second
}

func remaining(start, now time.Time, limitSecs int) time.Duration {
	left := time.Duration(limitSecs)*time.Second - now.Sub(start)
	return max(left, 0)
}

func (f *Flow) score(ctx context.Context, answer question.Answer) (Feedback, error) {
	s := f.state
	f.transition(PhaseScoring)

	score, err := f.deps.Evaluator.Evaluate(ctx, s.Question, answer)
	if err != nil {
		f.transition(PhasePresenting)
		f.deps.Logger.Warn("answer scoring failed", "type", s.Question.Type, "error", err)
		return Feedback{}, fmt.Errorf("score answer: %w", err)
	}
	return f.apply(ctx, score, OutcomeAnswered, answerText(s.Question.Type, answer))
}

// apply folds score into the beliefs of the current question's tags and
// advances the budget. Called in PhaseScoring.
func (f *Flow) apply(ctx context.Context, score float64, outcome Outcome, answer string) (Feedback, error) {
	s := f.state
	now := f.deps.Clock()

	updated, err := s.Beliefs.Update(s.Spec.Tags, score)
	if err != nil {
		f.transition(PhasePresenting)
		return Feedback{}, fmt.Errorf("update beliefs: %w", err)
	}

	turn := Turn{
		Index:   s.QuestionsAsked,
		Spec:    s.Spec,
		Source:  s.Source,
		Text:    s.Question.Text,
		Outcome: outcome,
		Score:   score,
		Elapsed: now.Sub(s.PresentedAt),
	}
	s.Turns = append(s.Turns, turn)
	s.QuestionsAsked++
	s.AskedTypes[s.Spec.Type]++
	for _, t := range s.Spec.Tags {
		s.AskedTags[t]++
	}
	f.journalAnswer(ctx, turn, answer)

	s.Question = nil
	s.pending = nil
	f.transition(PhaseBudgetCheck)

	fb := Feedback{
		Outcome:        outcome,
		Score:          score,
		Beliefs:        updated,
		QuestionsAsked: s.QuestionsAsked,
		MaxQuestions:   s.MaxQuestions,
	}
	if s.QuestionsAsked >= s.MaxQuestions {
		f.summarize(ctx)
		fb.Done = true
	} else {
		f.transition(PhaseSelecting)
	}
	return fb, nil
}

func (f *Flow) summarize(ctx context.Context) Summary {
	s := f.state
	sum := Summarize(s.Beliefs.Snapshot())
	sum.Topic = s.Topic
	sum.QuestionsAsked = s.QuestionsAsked
	sum.Duration = f.deps.Clock().Sub(s.StartedAt)
	s.Summary = &sum
	f.transition(PhaseSummarized)

	f.journalSession(ctx, store.ActionEnd)
	return sum
}

func (f *Flow) expect(event string, phases ...Phase) error {
	for _, p := range phases {
		if f.state.Phase == p {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in %s", ErrInvalidPhase, event, f.state.Phase)
}

func (f *Flow) transition(to Phase) {
	f.deps.Logger.Debug("phase", "from", f.state.Phase, "to", to)
	f.state.Phase = to
}

func answerText(t question.Type, a question.Answer) string {
	switch t {
	case question.TypeMultipleChoice:
		return strings.Join(a.Choices, ",")
	case question.TypeCoding:
		return a.Code
	}
	return a.Text
}
