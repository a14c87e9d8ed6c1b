package session

import (
	"context"

	"github.com/abhisek/skillprobe/internal/store"
)

// journalSession records a lifecycle event for the current run.
func (f *Flow) journalSession(ctx context.Context, action string) {
	if f.deps.Journal == nil {
		return
	}
	s := f.state

	data := store.SessionEventData{
		SessionID:      s.RunID,
		Action:         action,
		Topic:          s.Topic,
		Tags:           s.Tags,
		QuestionsAsked: s.QuestionsAsked,
		MaxQuestions:   s.MaxQuestions,
	}
	if action != store.ActionStart {
		data.Beliefs = s.Beliefs.Snapshot()
		if !s.StartedAt.IsZero() {
			data.DurationSecs = int(f.deps.Clock().Sub(s.StartedAt).Seconds())
		}
	}

	if err := f.deps.Journal.AppendSessionEvent(context.WithoutCancel(ctx), data); err != nil {
		f.deps.Logger.Warn("failed to journal session event", "action", action, "error", err)
	}
}

func (f *Flow) journalAnswer(ctx context.Context, turn Turn, answer string) {
	if f.deps.Journal == nil {
		return
	}

	data := store.AnswerEventData{
		SessionID:     f.state.RunID,
		QuestionIndex: turn.Index,
		Tags:          turn.Spec.Tags,
		QuestionType:  string(turn.Spec.Type),
		Difficulty:    string(turn.Spec.Difficulty),
		QuestionText:  turn.Text,
		Answer:        answer,
		Outcome:       string(turn.Outcome),
		Score:         turn.Score,
		TimeMs:        turn.Elapsed.Milliseconds(),
		PlanSource:    string(turn.Source),
	}
	if err := f.deps.Journal.AppendAnswerEvent(context.WithoutCancel(ctx), data); err != nil {
		f.deps.Logger.Warn("failed to journal answer", "index", turn.Index, "error", err)
	}
}
