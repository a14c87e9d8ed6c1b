// Package history lists finished assessments from the journal.
package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/skillprobe/internal/router"
	"github.com/abhisek/skillprobe/internal/screen"
	"github.com/abhisek/skillprobe/internal/session"
	"github.com/abhisek/skillprobe/internal/store"
	"github.com/abhisek/skillprobe/internal/ui/layout"
	"github.com/abhisek/skillprobe/internal/ui/theme"
)

// Source is the part of store.EventRepo the screen reads.
type Source interface {
	QuerySessionSummaries(ctx context.Context, opts store.QueryOpts) ([]store.SessionEventRecord, error)
	SessionAnswers(ctx context.Context, sessionID string) ([]store.AnswerEventRecord, error)
}

type historyLoadedMsg struct {
	Sessions []store.SessionEventRecord
	Err      error
}

type answersLoadedMsg struct {
	SessionID string
	Answers   []store.AnswerEventRecord
	Err       error
}

// HistoryScreen displays past sessions; Enter expands one into its answers.
type HistoryScreen struct {
	source   Source
	sessions []store.SessionEventRecord
	answers  map[string][]store.AnswerEventRecord
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a HistoryScreen.
func New(source Source) *HistoryScreen {
	return &HistoryScreen{
		source:   source,
		answers:  make(map[string][]store.AnswerEventRecord),
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	src := s.source
	return func() tea.Msg {
		sessions, err := src.QuerySessionSummaries(context.Background(), store.QueryOpts{Limit: 50})
		return historyLoadedMsg{Sessions: sessions, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.sessions = msg.Sessions
		return s, nil

	case answersLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.answers[msg.SessionID] = msg.Answers
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.sessions)-1 {
				s.selected++
			}
		case "enter":
			return s, s.toggle()
		}
	}
	return s, nil
}

func (s *HistoryScreen) toggle() tea.Cmd {
	if s.selected >= len(s.sessions) {
		return nil
	}
	s.expanded[s.selected] = !s.expanded[s.selected]
	id := s.sessions[s.selected].SessionID
	if !s.expanded[s.selected] {
		return nil
	}
	if _, ok := s.answers[id]; ok {
		return nil
	}
	src := s.source
	return func() tea.Msg {
		answers, err := src.SessionAnswers(context.Background(), id)
		return answersLoadedMsg{SessionID: id, Answers: answers, Err: err}
	}
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Centered(width, theme.Error, fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return layout.Centered(width, theme.TextDim, "\n\n  Loading history...")
	}
	if len(s.sessions) == 0 {
		return layout.Centered(width, theme.TextDim, "\n\n  No finished assessments yet.")
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, rec := range s.sessions {
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			prefix = "> "
			style = style.Foreground(theme.Primary).Bold(true)
		}
		line := fmt.Sprintf("%s%s  %-24s  %2d/%-2d questions  %s  %s",
			prefix,
			rec.Timestamp.Local().Format("Jan 02 15:04"),
			truncate(rec.Topic, 24),
			rec.QuestionsAsked, rec.MaxQuestions,
			layout.FormatClock(rec.DurationSecs),
			bandCounts(rec.Beliefs))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			b.WriteString(s.renderAnswers(rec.SessionID, width))
		}
	}
	return b.String()
}

func (s *HistoryScreen) renderAnswers(sessionID string, width int) string {
	answers, ok := s.answers[sessionID]
	if !ok {
		return layout.Centered(width, theme.TextDim, "    loading...") + "\n"
	}
	if len(answers) == 0 {
		return layout.Centered(width, theme.TextDim, "    No answers recorded") + "\n"
	}

	var b strings.Builder
	for _, a := range answers {
		line := fmt.Sprintf("    #%d %-15s %-8s %-9s %.2f  %s",
			a.QuestionIndex+1, a.QuestionType, a.Difficulty, a.Outcome, a.Score,
			truncate(strings.Join(a.Tags, ", "), 30))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Foreground(theme.ScoreColor(a.Score)).Render(line)))
		b.WriteString("\n")
	}
	return b.String()
}

// bandCounts summarizes final beliefs as strong/moderate/weak counts.
func bandCounts(beliefs map[string]float64) string {
	counts := make(map[session.Band]int, 3)
	for _, v := range beliefs {
		counts[session.Classify(v)]++
	}
	return fmt.Sprintf("%d strong / %d moderate / %d weak",
		counts[session.BandStrong], counts[session.BandModerate], counts[session.BandWeak])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
