package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func key(s string) tea.KeyPressMsg {
	if s == "space" {
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	}
	if s == "down" {
		return tea.KeyPressMsg{Code: tea.KeyDown}
	}
	if s == "enter" {
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	}
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

func TestChoiceListSingleSelect(t *testing.T) {
	c := NewChoiceList([]string{"a", "b", "c", "d"})

	c, _ = c.Update(key("1"))
	c, _ = c.Update(key("3"))
	if got := strings.Join(c.Labels(), ","); got != "C" {
		t.Fatalf("Labels = %q, want C", got)
	}

	c, _ = c.Update(key("1"))
	if got := strings.Join(c.Labels(), ","); got != "A" {
		t.Fatalf("Labels after picking A = %q, want A", got)
	}
	if c.Cursor != 0 {
		t.Fatalf("Cursor = %d, want 0", c.Cursor)
	}

	c, _ = c.Update(key("down"))
	if c.Cursor != 1 {
		t.Fatalf("Cursor = %d, want 1", c.Cursor)
	}
	c, _ = c.Update(key("space"))
	if !c.Checked(1) || c.Checked(0) {
		t.Fatal("space should select the option under the cursor and clear the previous one")
	}

	c, _ = c.Update(key("9"))
	if got := strings.Join(c.Labels(), ","); got != "B" {
		t.Fatalf("out of range digit changed selection: %q", got)
	}

	c, _ = c.Update(key("space"))
	if c.Labels() != nil {
		t.Fatalf("picking the selected option again should clear it, got %v", c.Labels())
	}
}

func TestChoiceListSelectingEveryOptionKeepsOne(t *testing.T) {
	c := NewChoiceList([]string{"a", "b", "c", "d"})
	for _, k := range []string{"1", "2", "3", "4"} {
		c, _ = c.Update(key(k))
	}
	if got := c.Labels(); len(got) != 1 || got[0] != "D" {
		t.Fatalf("Labels = %v, want [D]", got)
	}
}

func TestChoiceListView(t *testing.T) {
	c := NewChoiceList([]string{"first", "second"})
	c.Toggle(1)
	view := c.View()
	for _, want := range []string{"A) first", "(x) B) second"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestMenuSkipsDisabled(t *testing.T) {
	ran := ""
	m := NewMenu([]MenuItem{
		{Label: "off", Disabled: true},
		{Label: "one", Action: func() tea.Cmd { ran = "one"; return nil }},
		{Label: "off", Disabled: true},
		{Label: "two", Action: func() tea.Cmd { ran = "two"; return nil }},
	})
	if m.Selected != 1 {
		t.Fatalf("Selected = %d, want 1", m.Selected)
	}

	m, _ = m.Update(key("down"))
	if m.Selected != 3 {
		t.Fatalf("Selected = %d, want 3", m.Selected)
	}
	m.Update(key("enter"))
	if ran != "two" {
		t.Fatalf("ran = %q", ran)
	}
}

func TestProgressBarWidth(t *testing.T) {
	p := NewProgressBar("", 0.5, false, 20)
	if !strings.Contains(p.View(), strings.Repeat(" ", 10)) {
		t.Error("expected half-filled bar")
	}
	if got := truncate("Concurrency", 6); got != "Concu…" {
		t.Errorf("truncate = %q", got)
	}
}
