package components

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/tutorbot/internal/ui/theme"
)

// ButtonRow is a horizontal set of choices. One button is highlighted;
// left, right and tab move the highlight.
type ButtonRow struct {
	Labels   []string
	Selected int
	OnPress  func(i int) tea.Cmd
}

// NewButtonRow creates a row with the first button highlighted.
func NewButtonRow(labels []string, onPress func(i int) tea.Cmd) ButtonRow {
	return ButtonRow{Labels: labels, OnPress: onPress}
}

// Empty reports whether the row has no buttons.
func (b ButtonRow) Empty() bool {
	return len(b.Labels) == 0
}

// Update handles key events. Enter presses the highlighted button.
func (b ButtonRow) Update(msg tea.Msg) (ButtonRow, tea.Cmd) {
	if b.Empty() {
		return b, nil
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return b, nil
	}

	switch kmsg.String() {
	case "left", "shift+tab":
		b.Selected = (b.Selected - 1 + len(b.Labels)) % len(b.Labels)
	case "right", "tab":
		b.Selected = (b.Selected + 1) % len(b.Labels)
	case "enter":
		if b.OnPress != nil {
			return b, b.OnPress(b.Selected)
		}
	}
	return b, nil
}

// View renders the buttons side by side.
func (b ButtonRow) View() string {
	parts := make([]string, 0, len(b.Labels))
	for i, label := range b.Labels {
		if i == b.Selected {
			parts = append(parts, theme.ButtonActive.Render("▸ "+label))
		} else {
			parts = append(parts, theme.ButtonInactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}
