// Package app hosts the root Bubble Tea model: one router, one header, one
// footer. Screens own everything in between.
package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/tanmay/quizdeck/internal/router"
	"github.com/tanmay/quizdeck/internal/screen"
	"github.com/tanmay/quizdeck/internal/ui/layout"
)

// Model is the root Bubble Tea model.
type Model struct {
	router *router.Router
	start  tea.Cmd
	width  int
	height int
}

// New creates the root model over an initial screen. Extra commands run at
// startup; the subcommands use one to jump straight into a child screen.
func New(initial screen.Screen, extra ...tea.Cmd) Model {
	return Model{
		router: router.New(initial),
		start:  tea.Batch(extra...),
	}
}

func (m Model) Init() tea.Cmd {
	active := m.router.Active()
	if active == nil {
		return m.start
	}
	return tea.Batch(active.Init(), m.start)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Esc is owned by the screens: the exam screen turns it into a
		// confirmation dialog, everything else emits PopScreenMsg itself.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	status := ""
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.HeaderStatus()
		}
	}

	header := layout.RenderHeader(title, status, m.width)

	footerHints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
	if active != nil {
		if hp, ok := active.(screen.KeyHintProvider); ok {
			if hints := hp.KeyHints(); len(hints) > 0 {
				footerHints = hints
			}
		}
	}
	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program over the given initial screen and blocks
// until it exits.
func Run(initial screen.Screen, extra ...tea.Cmd) error {
	p := tea.NewProgram(New(initial, extra...))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
