package exam

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	session "github.com/tanmay/quizdeck/internal/exam"
	"github.com/tanmay/quizdeck/internal/ui/components"
	"github.com/tanmay/quizdeck/internal/ui/theme"
)

func (s *ExamScreen) View(width, height int) string {
	if s.errMsg != "" {
		return renderError(width, s.errMsg)
	}
	if s.summary != nil {
		return s.renderSummary(width)
	}
	if s.sess == nil {
		return renderLoading(width, "Starting session...")
	}
	if s.showingQuitConfirm {
		return renderConfirm(width, "End this session?", "Your answers so far will be submitted.")
	}
	if s.showingSubmitConfirm {
		return renderConfirm(width, "Submit the session now?", "Unanswered questions will not count.")
	}
	if s.sess.Status == session.StatusPaused {
		return s.renderPaused(width)
	}
	if s.showingFeedback {
		return s.renderFeedback(width)
	}
	return s.renderQuestion(width)
}

func renderLoading(width int, text string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("\n\n" + text)
}

func renderError(width int, msg string) string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Error).
		Bold(true).
		Render("Something went wrong"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Render(msg))
	return b.String()
}

func renderConfirm(width int, question, detail string) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Warning).
		Bold(true).
		Render(question))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(detail + "\n\n[Y]es   [N]o"))
	return b.String()
}

func (s *ExamScreen) renderPaused(width int) string {
	rem := s.countdown.Remaining()
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Accent).
		Bold(true).
		Render("Session paused"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("%s left on the clock.\nThe timer is frozen until you resume.", formatClock(rem))))
	return b.String()
}

// renderQuestion renders the active question with the status line, warnings
// and the option selector.
func (s *ExamScreen) renderQuestion(width int) string {
	vm := session.Snapshot(s.sess, s.countdown.Remaining(), s.warningText())
	if vm.Question == nil {
		return renderLoading(width, "Fetching question...")
	}
	q := vm.Question

	var b strings.Builder

	infoLeft := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render(fmt.Sprintf("  %s", s.sess.Subject))
	if q.Topic != "" {
		infoLeft += lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render("  " + q.Topic)
	}

	infoRight := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("Q %d/%d  correct %d  difficulty %d",
			vm.Attempted+1, vm.Total, vm.Correct, q.Difficulty))

	infoLine := infoLeft
	rightPad := width - lipgloss.Width(infoLeft) - lipgloss.Width(infoRight) - 4
	if rightPad > 0 {
		infoLine += strings.Repeat(" ", rightPad) + infoRight
	}
	b.WriteString(infoLine)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n")

	if vm.Warning != "" {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Render(theme.Warn.Render(vm.Warning)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render(q.Text))
	b.WriteString("\n\n")
	b.WriteString(s.options.View(width))

	if s.submitting {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("Submitting..."))
	}

	return b.String()
}

func (s *ExamScreen) renderFeedback(width int) string {
	fb := s.sess.LastFeedback
	if fb == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n")

	var headline string
	switch {
	case fb.Degraded:
		headline = theme.Warn.Render("Answer recorded locally")
	case fb.Correct:
		headline = theme.Correct.Render("Correct!")
	default:
		headline = theme.Incorrect.Render("Incorrect")
	}
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(headline))
	b.WriteString("\n\n")

	if !fb.Correct && !fb.Degraded && fb.CorrectOption != "" && s.sess.Current != nil {
		answer := s.sess.Current.OptionText(fb.CorrectOption)
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.Text).
			Render("Correct answer: " + answer))
		b.WriteString("\n\n")
	}

	if fb.Explanation != "" {
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render(fb.Explanation))
		b.WriteString("\n\n")
	}

	if s.caps.Adaptive && !fb.Degraded {
		bar := components.ProgressBar{
			Label:       "  Mastery",
			Percent:     fb.Mastery,
			ShowPercent: true,
			Width:       width - 8,
		}
		b.WriteString(bar.View())
		b.WriteString("\n")
	}

	return b.String()
}

func (s *ExamScreen) renderSummary(width int) string {
	sum := s.summary

	var b strings.Builder
	b.WriteString("\n")

	title := "Exam finished"
	if sum.Status == session.StatusExpired {
		title = "Time's up!"
	} else if s.caps.Adaptive {
		title = "Practice finished"
	}
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Bold(true).
		Render(title))
	b.WriteString("\n\n")

	lines := []string{
		fmt.Sprintf("Subject     %s", sum.Subject),
		fmt.Sprintf("Answered    %d of %d", sum.Attempted, sum.Total),
		fmt.Sprintf("Correct     %d  (%.0f%%)", sum.Correct, sum.Accuracy*100),
		fmt.Sprintf("Time used   %s", formatClock(sum.Elapsed)),
	}
	if s.final != nil {
		lines = append(lines, fmt.Sprintf("Score       %.1f", s.final.FinalScore))
		if s.final.Grade != "" {
			lines = append(lines, fmt.Sprintf("Grade       %s", s.final.Grade))
		}
	}
	if s.caps.Adaptive {
		lines = append(lines, fmt.Sprintf("Mastery     %.0f%%", sum.Mastery*100))
	}

	card := theme.Card.Render(strings.Join(lines, "\n"))
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(card))
	b.WriteString("\n")

	if sum.Unsynced > 0 {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Render(theme.Warn.Render(fmt.Sprintf("%d answer(s) were saved locally but never reached the server.", sum.Unsynced))))
	}
	if s.finalErr != nil {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Render(theme.Warn.Render("The final submission did not reach the server; showing local results.")))
	}

	return b.String()
}

// warningText merges the latched time warning and any transient network
// notice. The network notice wins; it is the more actionable of the two.
func (s *ExamScreen) warningText() string {
	if s.netWarning != "" {
		return s.netWarning
	}
	return s.timeWarning
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
