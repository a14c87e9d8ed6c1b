// Package screen defines the contract between the router and the screens
// of the terminal UI.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/skillprobe/internal/ui/layout"
)

// Screen is one page of the terminal UI.
type Screen interface {
	// Init returns the command to run when the screen becomes active.
	Init() tea.Cmd

	// Update handles a message and returns the updated screen.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area, without header or footer.
	View(width, height int) string

	// Title is shown in the header.
	Title() string
}

// KeyHintProvider lets a screen replace the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider lets a screen put a short status, such as assessment
// progress, on the right side of the header.
type StatusProvider interface {
	Status() string
}
