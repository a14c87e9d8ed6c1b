package components

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/skillprobe/internal/ui/theme"
)

// ProgressBar is a horizontal bar for a value in [0,1].
type ProgressBar struct {
	Label      string
	LabelWidth int
	Percent    float64
	ShowValue  bool
	Width      int

	// Fill overrides the bar color; nil uses theme.Secondary.
	Fill color.Color
}

// NewProgressBar creates a progress bar.
func NewProgressBar(label string, percent float64, showValue bool, width int) ProgressBar {
	return ProgressBar{
		Label:     label,
		Percent:   percent,
		ShowValue: showValue,
		Width:     width,
	}
}

// View renders the bar.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		label := p.Label
		if p.LabelWidth > 0 {
			label = fmt.Sprintf("%-*s", p.LabelWidth, truncate(label, p.LabelWidth))
		}
		result = lipgloss.NewStyle().Foreground(theme.Text).Render(label) + "  "
	}

	valueWidth := 0
	if p.ShowValue {
		valueWidth = 6
	}
	barWidth := max(p.Width-lipgloss.Width(result)-valueWidth, 4)
	filled := min(max(int(float64(barWidth)*p.Percent), 0), barWidth)

	fill := p.Fill
	if fill == nil {
		fill = theme.Secondary
	}
	result += lipgloss.NewStyle().Background(fill).Render(strings.Repeat(" ", filled)) +
		lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))

	if p.ShowValue {
		result += lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %.2f", p.Percent))
	}
	return result
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
