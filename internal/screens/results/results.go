// Package results implements the history browser: a session listing backed
// by the identity resolver, and a per-session detail view backed by the
// reconciliation cascade. When the backend is unreachable the listing falls
// back to the local session log.
package results

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/tanmay/quizdeck/internal/api"
	"github.com/tanmay/quizdeck/internal/history"
	"github.com/tanmay/quizdeck/internal/identity"
	"github.com/tanmay/quizdeck/internal/router"
	"github.com/tanmay/quizdeck/internal/screen"
	"github.com/tanmay/quizdeck/internal/store"
	"github.com/tanmay/quizdeck/internal/ui/components"
	"github.com/tanmay/quizdeck/internal/ui/layout"
	"github.com/tanmay/quizdeck/internal/ui/theme"
)

const resolveTimeout = 20 * time.Second

type phase int

const (
	phaseInput phase = iota // asking for a username
	phaseLoading
	phaseRemote // listing from the backend
	phaseLocal  // listing from the local session log
)

// resolvedMsg reports the identity cascade outcome.
type resolvedMsg struct {
	Res *identity.Resolved
	Err error
}

// localMsg carries the local session log fallback.
type localMsg struct {
	Recs []store.SessionRecord
	Err  error
}

// ListScreen shows the session history for a student.
type ListScreen struct {
	username string
	resolver *identity.Resolver
	svc      *history.Service
	sessions store.SessionLog
	log      zerolog.Logger

	phase    phase
	input    components.TextInput
	identity string
	focusID  string
	remote   []api.HistorySession
	local    []store.SessionRecord
	cursor   int
	notice   string
}

var _ screen.Screen = (*ListScreen)(nil)
var _ screen.KeyHintProvider = (*ListScreen)(nil)

// New creates the history listing. An empty username starts at the input
// prompt instead of resolving immediately.
func New(username string, resolver *identity.Resolver, svc *history.Service, sessions store.SessionLog, log zerolog.Logger) *ListScreen {
	s := &ListScreen{
		username: strings.TrimSpace(username),
		resolver: resolver,
		svc:      svc,
		sessions: sessions,
		log:      log.With().Str("screen", "results").Logger(),
	}
	if s.username == "" {
		s.phase = phaseInput
		s.input = components.NewTextInput("Your username...", 40)
	} else {
		s.phase = phaseLoading
	}
	return s
}

// Focus marks a session to open directly once the listing has loaded. A
// focus id that is not in the listing leaves the user on the list.
func (s *ListScreen) Focus(sessionID string) {
	s.focusID = sessionID
}

func (s *ListScreen) Init() tea.Cmd {
	if s.phase == phaseInput {
		return s.input.Init()
	}
	return s.resolve(s.username)
}

func (s *ListScreen) Title() string {
	return "Results"
}

func (s *ListScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phaseInput:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Look up"},
			{Key: "Esc", Description: "Back"},
		}
	case phaseRemote:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Details"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
}

func (s *ListScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case resolvedMsg:
		return s.handleResolved(msg)

	case localMsg:
		if msg.Err != nil || len(msg.Recs) == 0 {
			s.phase = phaseInput
			s.input = components.NewTextInput("Your username...", 40)
			if s.notice == "" {
				s.notice = "No history found."
			}
			return s, s.input.Init()
		}
		s.phase = phaseLocal
		s.local = msg.Recs
		s.cursor = 0
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.phase == phaseInput {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *ListScreen) handleResolved(msg resolvedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.log.Warn().Err(msg.Err).Msg("identity resolution failed")
		s.notice = "Could not load history from the server; showing local sessions."
		return s, s.loadLocal()
	}
	s.phase = phaseRemote
	s.identity = msg.Res.Identity
	s.remote = msg.Res.Sessions
	s.cursor = 0

	if s.focusID != "" {
		focus := s.focusID
		s.focusID = ""
		for i, row := range s.remote {
			if row.SessionID == focus {
				s.cursor = i
				return s, func() tea.Msg {
					return router.PushScreenMsg{
						Screen: NewDetail(s.identity, row, s.svc, s.log),
					}
				}
			}
		}
		s.notice = "Session " + focus + " was not found in the listing."
	}
	return s, nil
}

func (s *ListScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.phase == phaseInput {
		switch key {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "enter":
			name := strings.TrimSpace(s.input.Value())
			if name == "" {
				return s, nil
			}
			s.username = name
			s.phase = phaseLoading
			s.notice = ""
			return s, s.resolve(name)
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}

	switch key {
	case "esc", "q":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < s.rowCount()-1 {
			s.cursor++
		}
	case "enter":
		if s.phase == phaseRemote && s.cursor < len(s.remote) {
			row := s.remote[s.cursor]
			return s, func() tea.Msg {
				return router.PushScreenMsg{
					Screen: NewDetail(s.identity, row, s.svc, s.log),
				}
			}
		}
	}
	return s, nil
}

func (s *ListScreen) rowCount() int {
	if s.phase == phaseLocal {
		return len(s.local)
	}
	return len(s.remote)
}

func (s *ListScreen) resolve(username string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		defer cancel()
		res, err := s.resolver.Resolve(ctx, username)
		return resolvedMsg{Res: res, Err: err}
	}
}

func (s *ListScreen) loadLocal() tea.Cmd {
	if s.sessions == nil {
		return func() tea.Msg { return localMsg{} }
	}
	return func() tea.Msg {
		recs, err := s.sessions.Recent(context.Background(), 50)
		return localMsg{Recs: recs, Err: err}
	}
}

func (s *ListScreen) View(width, height int) string {
	switch s.phase {
	case phaseInput:
		return s.renderInput(width)
	case phaseLoading:
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\nLooking up your history...")
	case phaseLocal:
		return s.renderLocal(width)
	}
	return s.renderRemote(width)
}

func (s *ListScreen) renderInput(width int) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(theme.Subtitle.Width(width).Align(lipgloss.Center).Render("Whose results?"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(s.input.View()))
	if s.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(theme.Warn.Render(s.notice)))
	}
	return b.String()
}

func (s *ListScreen) renderRemote(width int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("  Sessions for %s", s.identity)))
	b.WriteString("\n")
	if s.notice != "" {
		b.WriteString(theme.Warn.Render("  " + s.notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, row := range s.remote {
		kind := "exam"
		if row.Adaptive {
			kind = "practice"
		}
		line := fmt.Sprintf("%-10s  %-12s  %2d/%2d correct  %5.1f%%  %s",
			kind, row.Subject, row.Correct, row.Attempted, row.Score, formatStartedAt(row.StartedAt))
		b.WriteString(renderRow(line, i == s.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *ListScreen) renderLocal(width int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(theme.Warn.Render(s.notice)))
	b.WriteString("\n\n")

	for i, rec := range s.local {
		kind := "exam"
		if rec.Adaptive {
			kind = "practice"
		}
		line := fmt.Sprintf("%-10s  %-12s  %2d/%2d correct  %-10s  %s",
			kind, rec.Subject, rec.Correct, rec.Attempted, rec.Status,
			rec.StartedAt.Format("2006-01-02 15:04"))
		b.WriteString(renderRow(line, i == s.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func renderRow(line string, selected bool) string {
	if selected {
		return theme.Selected.Render("  ▸ " + line)
	}
	return theme.Unselected.Render("    " + line)
}

// formatStartedAt turns the backend's RFC3339 timestamp into a short local
// form, passing unparseable values through as-is.
func formatStartedAt(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.Local().Format("2006-01-02 15:04")
}
