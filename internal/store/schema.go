package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const (
	tableLLMRequests = "llm_request_events"
	tableSessions    = "session_events"
	tableAnswers     = "answer_events"
)

// builder returns an ent SQL builder for the SQLite dialect.
func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// schema holds the journal DDL. Tables are append-only and never altered,
// so IF NOT EXISTS is sufficient.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ` + tableLLMRequests + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL,
		timestamp_ms INTEGER NOT NULL,
		provider TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		purpose TEXT NOT NULL DEFAULT '',
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		request_body TEXT NOT NULL DEFAULT '',
		response_body TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS ` + tableSessions + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL,
		timestamp_ms INTEGER NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL DEFAULT '',
		topic TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		questions_asked INTEGER NOT NULL DEFAULT 0,
		max_questions INTEGER NOT NULL DEFAULT 0,
		duration_secs INTEGER NOT NULL DEFAULT 0,
		beliefs TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS ` + tableAnswers + ` (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence INTEGER NOT NULL,
		timestamp_ms INTEGER NOT NULL,
		session_id TEXT NOT NULL DEFAULT '',
		question_index INTEGER NOT NULL DEFAULT 0,
		tags TEXT NOT NULL DEFAULT '',
		question_type TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL DEFAULT '',
		question_text TEXT NOT NULL DEFAULT '',
		answer TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL DEFAULT '',
		score REAL NOT NULL DEFAULT 0,
		time_ms INTEGER NOT NULL DEFAULT 0,
		plan_source TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS answer_events_session_id ON ` + tableAnswers + ` (session_id)`,
	`CREATE INDEX IF NOT EXISTS session_events_action ON ` + tableSessions + ` (action)`,
}

// migrate creates every journal table and index.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
