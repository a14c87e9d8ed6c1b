// Package summary shows the banded result of a finished assessment.
package summary

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/skillprobe/internal/router"
	"github.com/abhisek/skillprobe/internal/screen"
	"github.com/abhisek/skillprobe/internal/session"
	"github.com/abhisek/skillprobe/internal/ui/components"
	"github.com/abhisek/skillprobe/internal/ui/layout"
	"github.com/abhisek/skillprobe/internal/ui/theme"
)

// SummaryScreen displays the strong, moderate and weak tag groups.
type SummaryScreen struct {
	summary session.Summary
	menu    components.Menu
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a SummaryScreen.
func New(sum session.Summary) *SummaryScreen {
	return &SummaryScreen{
		summary: sum,
		menu: components.NewMenu([]components.MenuItem{
			{Label: "New assessment", Action: func() tea.Cmd {
				return func() tea.Msg { return router.PopToRootMsg{} }
			}},
			{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
		}),
	}
}

func (s *SummaryScreen) Init() tea.Cmd {
	return nil
}

func (s *SummaryScreen) Title() string {
	return "Results"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *SummaryScreen) View(width, height int) string {
	sum := s.summary
	var b strings.Builder

	b.WriteString(theme.Title.Width(width).Render(fmt.Sprintf("Assessment of %s", sum.Topic)))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.TextDim, fmt.Sprintf("%d questions in %s",
		sum.QuestionsAsked, layout.FormatClock(int(sum.Duration.Seconds())))))
	b.WriteString("\n\n")

	barWidth := min(width-8, 64)
	b.WriteString(renderGroup("Strong", "belief > 0.7", sum.Strong, theme.Strong, width, barWidth))
	b.WriteString(renderGroup("Moderate", "0.3 < belief <= 0.7", sum.Moderate, theme.Moderate, width, barWidth))
	b.WriteString(renderGroup("Weak", "belief <= 0.3", sum.Weak, theme.Weak, width, barWidth))

	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.menu.View()))
	return b.String()
}

func renderGroup(name, rule string, tags []session.TagResult, fg color.Color, width, barWidth int) string {
	var b strings.Builder
	header := lipgloss.NewStyle().Foreground(fg).Bold(true).Render(name) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("  ("+rule+")")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, header))
	b.WriteString("\n")

	if len(tags) == 0 {
		b.WriteString(layout.Centered(width, theme.TextDim, "(none)"))
		b.WriteString("\n\n")
		return b.String()
	}
	for _, t := range tags {
		bar := components.NewProgressBar(t.Tag, t.Belief, true, barWidth)
		bar.LabelWidth = 22
		bar.Fill = fg
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}
