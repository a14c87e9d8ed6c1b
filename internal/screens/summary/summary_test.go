package summary

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/skillprobe/internal/router"
	"github.com/abhisek/skillprobe/internal/session"
)

func testSummary() session.Summary {
	sum := session.Summarize(map[string]float64{
		"Loops":      0.9,
		"OOP":        0.5,
		"Decorators": 0.2,
		"IO":         0.3,
	})
	sum.Topic = "Python"
	sum.QuestionsAsked = 6
	sum.Duration = 4*time.Minute + 5*time.Second
	return sum
}

func TestViewShowsEveryBand(t *testing.T) {
	s := New(testSummary())
	view := s.View(100, 40)

	for _, want := range []string{
		"Assessment of Python",
		"6 questions in 4:05",
		"Strong", "Moderate", "Weak",
		"Loops", "OOP", "Decorators", "IO",
		"New assessment",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewEmptyGroup(t *testing.T) {
	s := New(session.Summarize(map[string]float64{"Channels": 0.5}))
	if got := strings.Count(s.View(100, 40), "(none)"); got != 2 {
		t.Errorf("expected 2 empty groups, got %d", got)
	}
}

func TestNewAssessmentPopsToRoot(t *testing.T) {
	s := New(testSummary())

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(router.PopToRootMsg); !ok {
		t.Fatal("expected PopToRootMsg")
	}
}

func TestQuitItem(t *testing.T) {
	s := New(testSummary())

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
