package assess

import (
	"fmt"
	"sort"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/skillprobe/internal/question"
	"github.com/abhisek/skillprobe/internal/session"
	"github.com/abhisek/skillprobe/internal/ui/components"
	"github.com/abhisek/skillprobe/internal/ui/layout"
	"github.com/abhisek/skillprobe/internal/ui/theme"
)

func (s *AssessScreen) View(width, height int) string {
	if s.quitConfirm {
		return renderQuitConfirm(width)
	}
	switch s.stage {
	case stageLoading:
		return renderWaiting(width, "Preparing the next question...")
	case stageScoring:
		return renderWaiting(width, "Scoring your answer...")
	case stageFinishing:
		return renderWaiting(width, "Summarizing...")
	case stageFeedback:
		return s.renderFeedback(width)
	case stageScoreFailed:
		return renderFailure(width, "Scoring failed", s.errMsg,
			"Your answer is kept. Press R to score it again or S to skip the question.")
	case stageLoadFailed:
		return renderFailure(width, "Could not get a question", s.errMsg,
			"Press R to try again or F to finish with what you have.")
	}
	return s.renderQuestion(width)
}

func (s *AssessScreen) renderQuestion(width int) string {
	q := s.question
	if q == nil {
		return ""
	}

	var b strings.Builder
	info := fmt.Sprintf("  %s  |  %s  |  %s",
		typeTitle(q.Type), q.Difficulty, strings.Join(q.Tags, ", "))
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(info))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	textWidth := min(width-8, 90)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Width(textWidth).Foreground(theme.Text).Bold(true).Render(q.Text)))
	b.WriteString("\n\n")

	var input string
	switch q.Type {
	case question.TypeMultipleChoice:
		input = s.choices.View()
	case question.TypeShortAnswer:
		input = "Answer: " + s.text.View()
	case question.TypeCoding:
		input = s.code.View() + "\n" + theme.Hint.Render(
			fmt.Sprintf("Read input from stdin, print to stdout. %d hidden test cases.", len(q.TestCases)))
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, input))
	return b.String()
}

func (s *AssessScreen) renderFeedback(width int) string {
	fb := s.feedback
	var b strings.Builder
	b.WriteString("\n\n")

	headline, color := "Answered", theme.ScoreColor(fb.Score)
	switch fb.Outcome {
	case session.OutcomeSkipped:
		headline = "Skipped"
	case session.OutcomeTimedOut:
		headline = "Time's up"
	}
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
		Foreground(color).Bold(true).
		Render(fmt.Sprintf("%s  (score %.2f)", headline, fb.Score)))
	b.WriteString("\n\n")

	tags := make([]string, 0, len(fb.Beliefs))
	for tag := range fb.Beliefs {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	barWidth := min(width-8, 60)
	for _, tag := range tags {
		bar := components.NewProgressBar(tag, fb.Beliefs[tag], true, barWidth)
		bar.LabelWidth = 20
		bar.Fill = theme.ScoreColor(fb.Beliefs[tag])
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.TextDim, progressLabel(fb.QuestionsAsked, fb.MaxQuestions)))
	b.WriteString("\n\n")

	next := "Press any key for the next question"
	if fb.Done {
		next = "Budget spent. Press any key for your results"
	}
	b.WriteString(layout.Centered(width, theme.TextDim, next))
	return b.String()
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
		Foreground(theme.Text).Bold(true).Render("Finish the assessment now?"))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.TextDim,
		"The open question is dropped and results use the answers so far."))
	b.WriteString("\n\n")
	b.WriteString(layout.Centered(width, theme.Success, "[Y] Yes, show results"))
	b.WriteString("\n")
	b.WriteString(layout.Centered(width, theme.Primary, "[N] No, keep going"))
	return b.String()
}

func renderWaiting(width int, msg string) string {
	return layout.Centered(width, theme.TextDim, "\n\n\n"+msg)
}

func renderFailure(width int, title, detail, hint string) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
		Foreground(theme.Error).Bold(true).Render(title))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Width(min(width-8, 80)).Foreground(theme.TextDim).Render(detail)))
	b.WriteString("\n\n")
	b.WriteString(layout.Centered(width, theme.Text, hint))
	return b.String()
}

func progressLabel(asked, budget int) string {
	return fmt.Sprintf("Q %d/%d", asked, budget)
}

func typeTitle(t question.Type) string {
	switch t {
	case question.TypeMultipleChoice:
		return "Multiple choice"
	case question.TypeShortAnswer:
		return "Short answer"
	case question.TypeCoding:
		return "Coding"
	}
	return string(t)
}
