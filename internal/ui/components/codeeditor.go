package components

import (
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
)

// CodeEditor is a multi-line input for coding answers. Enter inserts a
// newline, so the screen submits with a different key.
type CodeEditor struct {
	Model textarea.Model
}

// NewCodeEditor creates a focused editor with line numbers.
func NewCodeEditor(width, height int) CodeEditor {
	ta := textarea.New()
	ta.Placeholder = "def solve():\n    ..."
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.SetWidth(width)
	ta.SetHeight(height)
	ta.Focus()
	return CodeEditor{Model: ta}
}

// Init focuses the editor.
func (c CodeEditor) Init() tea.Cmd {
	return c.Model.Focus()
}

// Update forwards msg to the editor.
func (c CodeEditor) Update(msg tea.Msg) (CodeEditor, tea.Cmd) {
	var cmd tea.Cmd
	c.Model, cmd = c.Model.Update(msg)
	return c, cmd
}

// View renders the editor.
func (c CodeEditor) View() string {
	return c.Model.View()
}

// Value returns the code.
func (c CodeEditor) Value() string {
	return c.Model.Value()
}
