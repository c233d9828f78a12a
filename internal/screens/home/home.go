// Package home implements the main menu screen.
package home

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/tanmay/quizdeck/internal/api"
	"github.com/tanmay/quizdeck/internal/config"
	"github.com/tanmay/quizdeck/internal/delivery"
	session "github.com/tanmay/quizdeck/internal/exam"
	"github.com/tanmay/quizdeck/internal/history"
	"github.com/tanmay/quizdeck/internal/identity"
	"github.com/tanmay/quizdeck/internal/router"
	"github.com/tanmay/quizdeck/internal/screen"
	examscreen "github.com/tanmay/quizdeck/internal/screens/exam"
	"github.com/tanmay/quizdeck/internal/screens/results"
	"github.com/tanmay/quizdeck/internal/store"
	"github.com/tanmay/quizdeck/internal/ui/components"
	"github.com/tanmay/quizdeck/internal/ui/theme"
)

// Deps bundles everything the home screen needs to launch the others.
type Deps struct {
	Cfg       *config.Config
	Backend   api.SessionAPI
	Questions *delivery.QuestionClient
	Pipeline  *delivery.Pipeline
	Sessions  store.SessionLog
	Resolver  *identity.Resolver
	History   *history.Service
	Log       zerolog.Logger
}

// fallbackStudentID is used when no username is configured. Single-tenant
// backends seed their first student with this id.
const fallbackStudentID = "student_1"

// HomeScreen is the main menu.
type HomeScreen struct {
	deps Deps
	menu components.Menu
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates the home screen.
func New(deps Deps) *HomeScreen {
	h := &HomeScreen{deps: deps}

	items := []components.MenuItem{
		{Label: "TIMED EXAM", Action: func() tea.Cmd {
			return h.launchExam(session.TimedExam())
		}},
		{Label: "ADAPTIVE PRACTICE", Action: func() tea.Cmd {
			return h.launchExam(session.AdaptivePractice())
		}},
		{Label: "RESULTS", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: h.ResultsScreen("")}
			}
		}},
		{Label: "QUIT", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}

	h.menu = components.NewMenu(items)
	return h
}

func (h *HomeScreen) launchExam(caps session.Capabilities) tea.Cmd {
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: h.SessionScreen(caps)}
	}
}

// SessionScreen builds a session screen with the configured parameters. The
// exam and practice subcommands use it to skip the menu.
func (h *HomeScreen) SessionScreen(caps session.Capabilities) screen.Screen {
	cfg := examscreen.Config{
		StudentID: h.studentID(),
		Subject:   h.subject(),
		Questions: h.deps.Cfg.Questions,
		Minutes:   h.deps.Cfg.Minutes,
	}
	scr := examscreen.New(caps, cfg, h.deps.Backend, h.deps.Questions, h.deps.Pipeline, h.deps.Sessions, h.deps.Log)
	scr.SetDetails(func(sessionID string) screen.Screen {
		row := api.HistorySession{SessionID: sessionID, Subject: cfg.Subject, Adaptive: caps.Adaptive}
		return results.NewDetail(cfg.StudentID, row, h.deps.History, h.deps.Log)
	})
	return scr
}

// ResultsScreen builds the history browser. A non-empty focus session id
// opens that session's detail view as soon as the listing loads.
func (h *HomeScreen) ResultsScreen(focus string) screen.Screen {
	s := results.New(h.deps.Cfg.Username, h.deps.Resolver, h.deps.History, h.deps.Sessions, h.deps.Log)
	if focus != "" {
		s.Focus(focus)
	}
	return s
}

func (h *HomeScreen) studentID() string {
	if h.deps.Cfg.Username != "" {
		return h.deps.Cfg.Username
	}
	return fallbackStudentID
}

func (h *HomeScreen) subject() string {
	if h.deps.Cfg.Subject != "" {
		return h.deps.Cfg.Subject
	}
	return "general"
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Align(lipgloss.Center).Render("Q U I Z D E C K"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(width).Align(lipgloss.Center).Render("terminal exam client"))
	b.WriteString("\n\n")

	info := fmt.Sprintf("student %s   subject %s   %d questions / %d min",
		h.studentID(), h.subject(), h.deps.Cfg.Questions, h.deps.Cfg.Minutes)
	b.WriteString(theme.Hint.Width(width).Align(lipgloss.Center).Render(info))
	b.WriteString("\n\n")

	menu := h.menu.View()
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(menu))

	return b.String()
}
