package assess

import (
	"time"

	"github.com/abhisek/skillprobe/internal/question"
	"github.com/abhisek/skillprobe/internal/session"
)

// questionReadyMsg carries the result of Flow.Next. A nil Question with no
// error means the budget is spent.
type questionReadyMsg struct {
	Question *question.Question
	Err      error
}

// scoredMsg carries the result of Submit, Retry, Skip or Expire.
type scoredMsg struct {
	Feedback session.Feedback
	Err      error
}

// finishedMsg carries the result of Flow.Finish.
type finishedMsg struct {
	Summary session.Summary
	Err     error
}

// timerTickMsg drives the per-question countdown. Seq names the question
// the tick chain was started for.
type timerTickMsg struct {
	At  time.Time
	Seq int
}
