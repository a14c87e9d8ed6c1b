package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/skillprobe/internal/belief"
	"github.com/abhisek/skillprobe/internal/planner"
	"github.com/abhisek/skillprobe/internal/question"
	"github.com/abhisek/skillprobe/internal/store"
)

// Phase is a state of the session flow.
type Phase string

const (
	PhaseStart       Phase = "start"        // Waiting for a topic
	PhaseTagsReady   Phase = "tags_ready"   // Topic decomposed, no question yet
	PhaseSelecting   Phase = "selecting"    // Planning and generating the next question
	PhasePresenting  Phase = "presenting"   // Waiting for submit, skip or timeout
	PhaseScoring     Phase = "scoring"      // Evaluating an answer
	PhaseBudgetCheck Phase = "budget_check" // Deciding between another question and the summary
	PhaseSummarized  Phase = "summarized"   // Terminal until Restart
)

// Outcome is how a question turn ended.
type Outcome string

const (
	OutcomeAnswered Outcome = store.OutcomeAnswered
	OutcomeSkipped  Outcome = store.OutcomeSkipped
	OutcomeTimedOut Outcome = store.OutcomeTimedOut
)

// State is the mutable state of one session. It is owned by a Flow and
// only touched under the flow's lock.
type State struct {
	// RunID identifies this run in the journal. Restart starts a new run.
	RunID string

	Phase          Phase
	Topic          string
	Tags           []string
	Beliefs        *belief.Store
	AskedTypes     map[question.Type]int
	AskedTags      map[string]int
	QuestionsAsked int
	MaxQuestions   int

	// Spec, Source, Question and PresentedAt describe the question in
	// flight; Question is nil outside PhasePresenting and PhaseScoring.
	Spec        question.Spec
	Source      planner.Source
	Question    *question.Question
	PresentedAt time.Time

	StartedAt time.Time
	Turns     []Turn
	Summary   *Summary

	// pending is the submitted answer while it is being scored, kept after
	// a scoring failure for Retry.
	pending *question.Answer
}

func newState(maxQuestions int) *State {
	return &State{
		RunID:        uuid.New().String(),
		Phase:        PhaseStart,
		Beliefs:      belief.NewStore(),
		AskedTypes:   make(map[question.Type]int),
		AskedTags:    make(map[string]int),
		MaxQuestions: maxQuestions,
	}
}

func (s *State) priorQuestions() []string {
	out := make([]string, len(s.Turns))
	for i, t := range s.Turns {
		out[i] = t.Text
	}
	return out
}

// Turn records one scored question.
type Turn struct {
	Index   int
	Spec    question.Spec
	Source  planner.Source
	Text    string
	Outcome Outcome
	Score   float64
	Elapsed time.Duration
}

// Feedback is returned for every scored question.
type Feedback struct {
	Outcome Outcome
	Score   float64

	// Beliefs holds the updated belief of each tag the question covered.
	Beliefs map[string]float64

	QuestionsAsked int
	MaxQuestions   int

	// Done is set when this answer spent the budget and the session is
	// now summarized.
	Done bool
}

// Snapshot is a read-only copy of session state for display.
type Snapshot struct {
	ID             string
	RunID          string
	Phase          Phase
	Topic          string
	Beliefs        []belief.TagBelief
	AskedTypes     map[question.Type]int
	QuestionsAsked int
	MaxQuestions   int

	// Question and Remaining are set in PhasePresenting.
	Question  *question.Question
	Remaining time.Duration

	Turns   []Turn
	Summary *Summary
}

func (s *State) snapshot(id string, now time.Time) Snapshot {
	snap := Snapshot{
		ID:             id,
		RunID:          s.RunID,
		Phase:          s.Phase,
		Topic:          s.Topic,
		Beliefs:        s.Beliefs.All(),
		AskedTypes:     make(map[question.Type]int, len(s.AskedTypes)),
		QuestionsAsked: s.QuestionsAsked,
		MaxQuestions:   s.MaxQuestions,
		Turns:          append([]Turn(nil), s.Turns...),
	}
	for k, v := range s.AskedTypes {
		snap.AskedTypes[k] = v
	}
	if s.Phase == PhasePresenting && s.Question != nil {
		q := *s.Question
		snap.Question = &q
		snap.Remaining = remaining(s.PresentedAt, now, q.TimeLimit)
	}
	if s.Summary != nil {
		sum := *s.Summary
		snap.Summary = &sum
	}
	return snap
}
