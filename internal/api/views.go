package api

import (
	"math"

	"github.com/abhisek/skillprobe/internal/question"
	"github.com/abhisek/skillprobe/internal/session"
)

type beliefView struct {
	Tag      string  `json:"tag"`
	Belief   float64 `json:"belief"`
	Exposure int     `json:"exposure"`
}

// questionView is what the learner sees: no correct answer, reference
// answer or expected outputs.
type questionView struct {
	Text             string   `json:"text"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Tags             []string `json:"tags"`
	Options          []option `json:"options,omitempty"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
}

type option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

type sessionView struct {
	ID               string         `json:"id"`
	RunID            string         `json:"run_id"`
	Phase            string         `json:"phase"`
	Topic            string         `json:"topic,omitempty"`
	QuestionsAsked   int            `json:"questions_asked"`
	MaxQuestions     int            `json:"max_questions"`
	AskedTypes       map[string]int `json:"asked_types"`
	Beliefs          []beliefView   `json:"beliefs"`
	Question         *questionView  `json:"question,omitempty"`
	RemainingSeconds *int           `json:"remaining_seconds,omitempty"`
	Summary          *summaryView   `json:"summary,omitempty"`
}

type summaryView struct {
	Topic           string              `json:"topic,omitempty"`
	QuestionsAsked  int                 `json:"questions_asked"`
	DurationSeconds int                 `json:"duration_seconds"`
	Strong          []session.TagResult `json:"strong"`
	Moderate        []session.TagResult `json:"moderate"`
	Weak            []session.TagResult `json:"weak"`
	Report          string              `json:"report"`
}

type feedbackView struct {
	Outcome        string             `json:"outcome"`
	Score          float64            `json:"score"`
	Beliefs        map[string]float64 `json:"beliefs"`
	QuestionsAsked int                `json:"questions_asked"`
	MaxQuestions   int                `json:"max_questions"`
	Done           bool               `json:"done"`
	Summary        *summaryView       `json:"summary,omitempty"`
}

type nextView struct {
	Question *questionView `json:"question,omitempty"`
	Summary  *summaryView  `json:"summary,omitempty"`
}

func newQuestionView(q *question.Question) *questionView {
	v := &questionView{
		Text:             q.Text,
		Type:             string(q.Type),
		Difficulty:       string(q.Difficulty),
		Tags:             q.Tags,
		TimeLimitSeconds: q.TimeLimit,
	}
	for i, o := range q.Options {
		v.Options = append(v.Options, option{Label: question.OptionLabel(i), Text: o})
	}
	return v
}

func newSummaryView(s session.Summary) *summaryView {
	return &summaryView{
		Topic:           s.Topic,
		QuestionsAsked:  s.QuestionsAsked,
		DurationSeconds: int(s.Duration.Seconds()),
		Strong:          s.Strong,
		Moderate:        s.Moderate,
		Weak:            s.Weak,
		Report:          s.Report(),
	}
}

func newSessionView(snap session.Snapshot) sessionView {
	v := sessionView{
		ID:             snap.ID,
		RunID:          snap.RunID,
		Phase:          string(snap.Phase),
		Topic:          snap.Topic,
		QuestionsAsked: snap.QuestionsAsked,
		MaxQuestions:   snap.MaxQuestions,
		AskedTypes:     make(map[string]int, len(snap.AskedTypes)),
		Beliefs:        make([]beliefView, 0, len(snap.Beliefs)),
	}
	for t, n := range snap.AskedTypes {
		v.AskedTypes[string(t)] = n
	}
	for _, b := range snap.Beliefs {
		v.Beliefs = append(v.Beliefs, beliefView{Tag: b.Tag, Belief: b.Belief, Exposure: b.Exposure})
	}
	if snap.Question != nil {
		v.Question = newQuestionView(snap.Question)
		secs := int(math.Ceil(snap.Remaining.Seconds()))
		v.RemainingSeconds = &secs
	}
	if snap.Summary != nil {
		v.Summary = newSummaryView(*snap.Summary)
	}
	return v
}
