package results

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/tanmay/quizdeck/internal/api"
	"github.com/tanmay/quizdeck/internal/history"
	"github.com/tanmay/quizdeck/internal/router"
	"github.com/tanmay/quizdeck/internal/screen"
	"github.com/tanmay/quizdeck/internal/ui/components"
	"github.com/tanmay/quizdeck/internal/ui/layout"
	"github.com/tanmay/quizdeck/internal/ui/theme"
)

// detailMsg carries the reconciled detail record.
type detailMsg struct {
	SessionID string
	Res       *history.DetailedResult
	Err       error
}

// DetailScreen shows the reconciled record for one session: performance
// breakdown, recommendations and the attempt list.
type DetailScreen struct {
	identity string
	row      api.HistorySession
	svc      *history.Service
	log      zerolog.Logger

	res    *history.DetailedResult
	errMsg string
	scroll int
}

var _ screen.Screen = (*DetailScreen)(nil)
var _ screen.KeyHintProvider = (*DetailScreen)(nil)

// NewDetail creates the detail view for one listed session.
func NewDetail(identity string, row api.HistorySession, svc *history.Service, log zerolog.Logger) *DetailScreen {
	return &DetailScreen{
		identity: identity,
		row:      row,
		svc:      svc,
		log:      log.With().Str("screen", "detail").Logger(),
	}
}

func (s *DetailScreen) Init() tea.Cmd {
	id := s.row.SessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		defer cancel()
		res, err := s.svc.DetailedResult(ctx, s.identity, id)
		return detailMsg{SessionID: id, Res: res, Err: err}
	}
}

func (s *DetailScreen) Title() string {
	return "Session Detail"
}

func (s *DetailScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *DetailScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case detailMsg:
		if msg.SessionID != s.row.SessionID {
			return s, nil
		}
		if msg.Err != nil {
			s.errMsg = "Could not load this session's details: " + msg.Err.Error()
			return s, nil
		}
		s.res = msg.Res
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.scroll > 0 {
				s.scroll--
			}
		case "down", "j":
			s.scroll++
		}
	}
	return s, nil
}

func (s *DetailScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Error).
			Render("\n\n" + s.errMsg)
	}
	if s.res == nil {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\nReconciling session record...")
	}

	lines := s.renderLines(width)

	if s.scroll > len(lines)-1 {
		s.scroll = len(lines) - 1
	}
	visible := lines[s.scroll:]
	if len(visible) > height {
		visible = visible[:height]
	}
	return strings.Join(visible, "\n")
}

func (s *DetailScreen) renderLines(width int) []string {
	res := s.res
	var out []string

	add := func(str string) {
		out = append(out, str)
	}

	sess := res.Session
	add("")
	add(theme.Subtitle.Render(fmt.Sprintf("  %s  %s", sess.Subject, formatStartedAt(sess.StartedAt))))
	add("")

	overall := res.Analysis.Overall
	bar := components.ProgressBar{
		Label:       "  Accuracy",
		Percent:     overall.Accuracy(),
		ShowPercent: true,
		Width:       width - 8,
	}
	add(bar.View())
	add(theme.Hint.Render(fmt.Sprintf("  %d of %d correct, %s",
		overall.Correct, overall.Attempted, formatDuration(sess.DurationSeconds))))
	add("")

	if res.Synthesized {
		add("  " + theme.Warn.Render("Per-question detail was unavailable; totals below are reconstructed from summary counts."))
		add("")
	}

	if len(res.Analysis.ByTopic) > 0 && !res.Synthesized {
		add(theme.Body.Render("  By topic"))
		topics := make([]string, 0, len(res.Analysis.ByTopic))
		for t := range res.Analysis.ByTopic {
			topics = append(topics, t)
		}
		sort.Strings(topics)
		for _, t := range topics {
			st := res.Analysis.ByTopic[t]
			add(theme.Hint.Render(fmt.Sprintf("    %-20s %d/%d  (%.0f%%)", t, st.Correct, st.Attempted, st.Accuracy()*100)))
		}
		add("")
	}

	if len(res.Analysis.Strengths) > 0 {
		add(theme.Correct.Render("  Strengths: " + strings.Join(res.Analysis.Strengths, ", ")))
	}
	if len(res.Analysis.Improvements) > 0 {
		add(theme.Incorrect.Render("  Needs work: " + strings.Join(res.Analysis.Improvements, ", ")))
	}
	for _, rec := range res.Recommendations {
		add(theme.Hint.Render("  • " + rec))
	}
	if len(res.Analysis.Strengths)+len(res.Analysis.Improvements)+len(res.Recommendations) > 0 {
		add("")
	}

	if !res.Synthesized {
		add(theme.Body.Render("  Questions"))
		for i, a := range res.Attempts {
			mark := theme.Incorrect.Render("✗")
			if a.Correct {
				mark = theme.Correct.Render("✓")
			}
			text := a.QuestionText
			if text == "" {
				text = a.QuestionID
			}
			if lipgloss.Width(text) > width-12 {
				text = truncate(text, width-12)
			}
			add(fmt.Sprintf("  %2d %s %s", i+1, mark, theme.Unselected.Render(text)))
		}
	}

	return out
}

func truncate(s string, limit int) string {
	if limit <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

func formatDuration(secs int) string {
	d := time.Duration(secs) * time.Second
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
