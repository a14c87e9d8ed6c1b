package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var sessionColumns = []string{
	"id", "sequence", "timestamp_ms", "session_id", "action", "topic", "tags",
	"questions_asked", "max_questions", "duration_secs", "beliefs",
}

var answerColumns = []string{
	"id", "sequence", "timestamp_ms", "session_id", "question_index", "tags",
	"question_type", "difficulty", "question_text", "answer", "outcome",
	"score", "time_ms", "plan_source",
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	tags, err := encodeJSON(data.Tags)
	if err != nil {
		return err
	}
	beliefs, err := encodeJSON(data.Beliefs)
	if err != nil {
		return err
	}

	query, args := builder().Insert(tableSessions).
		Columns(sessionColumns[1:]...).
		Values(
			seqNum, time.Now().UnixMilli(), data.SessionID, data.Action, data.Topic, tags,
			data.QuestionsAsked, data.MaxQuestions, data.DurationSecs, beliefs,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendAnswerEvent(ctx context.Context, data AnswerEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	tags, err := encodeJSON(data.Tags)
	if err != nil {
		return err
	}

	query, args := builder().Insert(tableAnswers).
		Columns(answerColumns[1:]...).
		Values(
			seqNum, time.Now().UnixMilli(), data.SessionID, data.QuestionIndex, tags,
			data.QuestionType, data.Difficulty, data.QuestionText, data.Answer, data.Outcome,
			data.Score, data.TimeMs, data.PlanSource,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) QuerySessionSummaries(ctx context.Context, opts QueryOpts) ([]SessionEventRecord, error) {
	b := builder()
	sel := b.Select(sessionColumns...).
		From(b.Table(tableSessions)).
		Where(entsql.EQ("action", ActionEnd))
	applyQueryOpts(sel, opts)
	sel.OrderBy(entsql.Desc("sequence"))

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session summaries: %w", err)
	}
	defer rows.Close()

	var out []SessionEventRecord
	for rows.Next() {
		var rec SessionEventRecord
		var ts int64
		var tags, beliefs string
		if err := rows.Scan(
			&rec.ID, &rec.Sequence, &ts, &rec.SessionID, &rec.Action, &rec.Topic, &tags,
			&rec.QuestionsAsked, &rec.MaxQuestions, &rec.DurationSecs, &beliefs,
		); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts)
		if err := decodeJSON(tags, &rec.Tags); err != nil {
			return nil, err
		}
		if err := decodeJSON(beliefs, &rec.Beliefs); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *eventRepo) SessionAnswers(ctx context.Context, sessionID string) ([]AnswerEventRecord, error) {
	b := builder()
	query, args := b.Select(answerColumns...).
		From(b.Table(tableAnswers)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("sequence").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session answers: %w", err)
	}
	defer rows.Close()

	var out []AnswerEventRecord
	for rows.Next() {
		var rec AnswerEventRecord
		var ts int64
		var tags string
		if err := rows.Scan(
			&rec.ID, &rec.Sequence, &ts, &rec.SessionID, &rec.QuestionIndex, &tags,
			&rec.QuestionType, &rec.Difficulty, &rec.QuestionText, &rec.Answer, &rec.Outcome,
			&rec.Score, &rec.TimeMs, &rec.PlanSource,
		); err != nil {
			return nil, fmt.Errorf("scan answer event: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts)
		if err := decodeJSON(tags, &rec.Tags); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	return string(data), nil
}

func decodeJSON(s string, v any) error {
	if s == "" || s == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}
