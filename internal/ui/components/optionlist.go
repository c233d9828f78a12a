package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/tanmay/quizdeck/internal/exam"
	"github.com/tanmay/quizdeck/internal/ui/theme"
)

// OptionList is the answer selector for a multiple-choice question. It
// keeps the backend's option order and tracks the highlighted entry; the
// owning screen decides when a highlight becomes a submission.
type OptionList struct {
	Options  []exam.Option
	Selected int
}

// NewOptionList creates a selector over a question's options.
func NewOptionList(options []exam.Option) OptionList {
	return OptionList{Options: options}
}

// Update handles arrow/vim navigation. Number keys jump directly and report
// the choice via the second return value.
func (ol OptionList) Update(msg tea.Msg) (OptionList, bool) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return ol, false
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if ol.Selected > 0 {
			ol.Selected--
		}
	case "down", "j":
		if ol.Selected < len(ol.Options)-1 {
			ol.Selected++
		}
	case "1", "2", "3", "4", "5", "6":
		idx := int(key[0] - '1')
		if idx < len(ol.Options) {
			ol.Selected = idx
			return ol, true
		}
	}
	return ol, false
}

// Choice returns the id of the highlighted option, or "" when empty.
func (ol OptionList) Choice() string {
	if ol.Selected < 0 || ol.Selected >= len(ol.Options) {
		return ""
	}
	return ol.Options[ol.Selected].ID
}

// View renders the option list.
func (ol OptionList) View(width int) string {
	var b strings.Builder
	for i, opt := range ol.Options {
		prefix := "  "
		if i == ol.Selected {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d) %s", prefix, i+1, opt.Text)

		if i == ol.Selected {
			b.WriteString(theme.Selected.Render(line))
		} else {
			b.WriteString(theme.Unselected.Render(line))
		}
		b.WriteString("\n")
	}

	hint := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\nSelect with number keys or arrows + Enter")
	b.WriteString(hint)

	return b.String()
}
