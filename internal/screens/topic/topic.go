// Package topic is the first screen: the learner names a topic and the
// session decomposes it into tags.
package topic

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/skillprobe/internal/router"
	"github.com/abhisek/skillprobe/internal/screen"
	"github.com/abhisek/skillprobe/internal/screens/assess"
	"github.com/abhisek/skillprobe/internal/screens/history"
	"github.com/abhisek/skillprobe/internal/session"
	"github.com/abhisek/skillprobe/internal/ui/components"
	"github.com/abhisek/skillprobe/internal/ui/layout"
	"github.com/abhisek/skillprobe/internal/ui/theme"
)

type startedMsg struct {
	Err error
}

// TopicScreen collects the topic and starts the session.
type TopicScreen struct {
	flow     *session.Flow
	journal  history.Source
	input    components.TextInput
	preset   string
	starting bool
	errMsg   string
}

var _ screen.Screen = (*TopicScreen)(nil)
var _ screen.KeyHintProvider = (*TopicScreen)(nil)

// New creates the topic screen. A non-empty preset starts the session
// right away. journal may be nil, which hides the history screen.
func New(flow *session.Flow, journal history.Source, preset string) *TopicScreen {
	return &TopicScreen{
		flow:    flow,
		journal: journal,
		input:   components.NewTextInput("e.g. Python, SQL joins, Kubernetes networking", 120, 60),
		preset:  strings.TrimSpace(preset),
	}
}

// Init resets a finished session so the screen can be reused after the
// summary, then focuses the input or starts the preset topic.
func (s *TopicScreen) Init() tea.Cmd {
	if s.flow.Phase() != session.PhaseStart {
		s.flow.Restart(context.Background())
	}
	s.starting = false
	if s.preset != "" {
		topic := s.preset
		s.preset = ""
		return s.start(topic)
	}
	return s.input.Init()
}

func (s *TopicScreen) Title() string {
	return "New Assessment"
}

func (s *TopicScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Enter", Description: "Start"}}
	if s.journal != nil {
		hints = append(hints, layout.KeyHint{Key: "Tab", Description: "History"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

func (s *TopicScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		s.starting = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		next := assess.New(s.flow)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: next} }

	case tea.KeyPressMsg:
		if s.starting {
			return s, nil
		}
		switch msg.String() {
		case "enter":
			topic := strings.TrimSpace(s.input.Value())
			if topic == "" {
				return s, nil
			}
			return s, s.start(topic)
		case "tab":
			if s.journal != nil {
				h := history.New(s.journal)
				return s, func() tea.Msg { return router.PushScreenMsg{Screen: h} }
			}
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *TopicScreen) start(topic string) tea.Cmd {
	s.starting = true
	s.errMsg = ""
	flow := s.flow
	return func() tea.Msg {
		return startedMsg{Err: flow.Start(context.Background(), topic)}
	}
}

func (s *TopicScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(theme.Title.Width(width).Render("What do you want to be assessed on?"))
	b.WriteString("\n\n")
	b.WriteString(theme.Subtitle.Width(width).Render(
		"The topic is split into subtopics, then questions adapt to what you know."))
	b.WriteString("\n\n")

	if s.starting {
		b.WriteString(layout.Centered(width, theme.TextDim, "Breaking the topic into subtopics..."))
		return b.String()
	}

	box := theme.Card.Render("Topic: " + s.input.View())
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, box))

	if s.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(layout.Centered(width, theme.Error, fmt.Sprintf("Could not start: %s", s.errMsg)))
	}
	return b.String()
}
