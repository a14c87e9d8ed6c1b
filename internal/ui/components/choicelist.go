package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/skillprobe/internal/question"
	"github.com/abhisek/skillprobe/internal/ui/theme"
)

// ChoiceList is a single-select option list. Space or a digit picks an
// option and replaces any earlier pick; picking it again clears it. The
// caller decides when to submit.
type ChoiceList struct {
	Options []string
	Cursor  int
	picked  int // option index plus one; zero means none
}

// NewChoiceList creates a list with nothing selected.
func NewChoiceList(options []string) ChoiceList {
	return ChoiceList{Options: options}
}

// Update handles cursor movement and selection.
func (c ChoiceList) Update(msg tea.Msg) (ChoiceList, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return c, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
	case "space", " ", "x":
		c.Toggle(c.Cursor)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			if i := int(key[0] - '1'); i < len(c.Options) {
				c.Cursor = i
				c.Toggle(i)
			}
		}
	}
	return c, nil
}

// Toggle selects option i, or clears the selection if i is already selected.
func (c *ChoiceList) Toggle(i int) {
	if i < 0 || i >= len(c.Options) {
		return
	}
	if c.Checked(i) {
		c.picked = 0
		return
	}
	c.picked = i + 1
}

// Checked reports whether option i is the selected one.
func (c ChoiceList) Checked(i int) bool {
	return c.picked > 0 && c.picked-1 == i
}

// Labels returns the selected option's letter label, or nil when nothing
// is selected.
func (c ChoiceList) Labels() []string {
	if c.picked == 0 || c.picked > len(c.Options) {
		return nil
	}
	return []string{question.OptionLabel(c.picked - 1)}
}

// View renders the list.
func (c ChoiceList) View() string {
	var b strings.Builder
	for i, opt := range c.Options {
		box := "( )"
		if c.Checked(i) {
			box = "(x)"
		}
		prefix := "  "
		if i == c.Cursor {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%s %s) %s", prefix, box, question.OptionLabel(i), opt)

		style := theme.Unselected
		switch {
		case i == c.Cursor:
			style = theme.Selected
		case c.Checked(i):
			style = theme.Checked
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).
		Render("\nSpace or 1-4 to choose one answer"))
	return b.String()
}
