// Package exam implements the live session screen: one controller that
// drives timed exams and adaptive practice, parameterized by the session's
// capabilities. All state transitions happen inside Update; network calls
// run as commands and report back through the typed messages in messages.go.
package exam

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/tanmay/quizdeck/internal/api"
	"github.com/tanmay/quizdeck/internal/delivery"
	session "github.com/tanmay/quizdeck/internal/exam"
	"github.com/tanmay/quizdeck/internal/router"
	"github.com/tanmay/quizdeck/internal/screen"
	"github.com/tanmay/quizdeck/internal/store"
	"github.com/tanmay/quizdeck/internal/timer"
	"github.com/tanmay/quizdeck/internal/ui/components"
	"github.com/tanmay/quizdeck/internal/ui/layout"
)

const (
	warnFiveMinutes = 5 * time.Minute
	warnOneMinute   = time.Minute

	requestTimeout  = 15 * time.Second
	fetchRetryDelay = 2 * time.Second
	maxFetchRetries = 3
)

// Config carries the launch parameters for a session.
type Config struct {
	StudentID string
	Subject   string
	Questions int
	Minutes   int
}

// ExamScreen is the session controller. It owns the Session, the countdown
// and the in-flight flags; everything it renders goes through a ViewModel
// snapshot.
type ExamScreen struct {
	caps      session.Capabilities
	cfg       Config
	backend   api.SessionAPI
	questions *delivery.QuestionClient
	pipeline  *delivery.Pipeline
	sessions  store.SessionLog
	log       zerolog.Logger

	sess      *session.Session
	countdown *timer.Countdown
	options   components.OptionList

	fetching     bool
	fetchRetries int
	submitting   bool

	showingFeedback      bool
	feedbackSeq          int
	showingQuitConfirm   bool
	showingSubmitConfirm bool

	questionStart time.Time
	timeWarning   string
	netWarning    string
	errMsg        string

	summary  *session.Summary
	final    *api.FinalResult
	finalErr error

	details func(sessionID string) screen.Screen
}

var _ screen.Screen = (*ExamScreen)(nil)
var _ screen.KeyHintProvider = (*ExamScreen)(nil)
var _ screen.StatusProvider = (*ExamScreen)(nil)

// New creates an exam screen. sessions may be nil when the local store is
// unavailable; the session then simply is not logged locally.
func New(caps session.Capabilities, cfg Config, backend api.SessionAPI, questions *delivery.QuestionClient, pipeline *delivery.Pipeline, sessions store.SessionLog, log zerolog.Logger) *ExamScreen {
	return &ExamScreen{
		caps:      caps,
		cfg:       cfg,
		backend:   backend,
		questions: questions,
		pipeline:  pipeline,
		sessions:  sessions,
		log:       log.With().Str("screen", "exam").Logger(),
	}
}

// SetDetails installs the factory for the per-session detail view. When set,
// the summary offers jumping straight into the finished session's breakdown.
func (s *ExamScreen) SetDetails(f func(sessionID string) screen.Screen) {
	s.details = f
}

func (s *ExamScreen) Init() tea.Cmd {
	return s.createSession()
}

func (s *ExamScreen) Title() string {
	if s.caps.Adaptive {
		return "Adaptive Practice"
	}
	return "Timed Exam"
}

// HeaderStatus puts the countdown in the header while the session runs.
func (s *ExamScreen) HeaderStatus() string {
	if s.countdown == nil || s.sess == nil || s.sess.Status.Terminal() {
		return ""
	}
	rem := s.countdown.Remaining()
	clock := fmt.Sprintf("%d:%02d", int(rem.Minutes()), int(rem.Seconds())%60)
	if s.sess.Status == session.StatusPaused {
		return "PAUSED " + clock
	}
	return clock
}

func (s *ExamScreen) KeyHints() []layout.KeyHint {
	if s.errMsg != "" {
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Esc", Description: "Back"},
		}
	}
	if s.summary != nil {
		hints := []layout.KeyHint{{Key: "Esc", Description: "Back to menu"}}
		if s.details != nil {
			hints = append([]layout.KeyHint{{Key: "V", Description: "Details"}}, hints...)
		}
		return hints
	}
	if s.showingQuitConfirm {
		return []layout.KeyHint{
			{Key: "Y", Description: "Submit and leave"},
			{Key: "N", Description: "Keep going"},
		}
	}
	if s.showingSubmitConfirm {
		return []layout.KeyHint{
			{Key: "Y", Description: "Submit now"},
			{Key: "N", Description: "Keep going"},
		}
	}
	if s.showingFeedback {
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	}
	if s.sess != nil && s.sess.Status == session.StatusPaused {
		return []layout.KeyHint{
			{Key: "P", Description: "Resume"},
			{Key: "Esc", Description: "Quit"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Answer"},
		{Key: "S", Description: "Submit session"},
	}
	if s.caps.Pausable {
		hints = append(hints, layout.KeyHint{Key: "P", Description: "Pause"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Quit"})
}

func (s *ExamScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionStartedMsg:
		return s.handleStarted(msg)
	case questionMsg:
		return s.handleQuestion(msg)
	case submittedMsg:
		return s.handleSubmitted(msg)
	case tickMsg:
		return s.handleTick(time.Time(msg))
	case feedbackDoneMsg:
		return s.handleFeedbackDone(msg)
	case pausedMsg:
		return s.handlePaused(msg)
	case resumedMsg:
		return s.handleResumed(msg)
	case finalizedMsg:
		return s.handleFinalized(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

// live reports whether a message stamped with the given session id still
// applies. Results of a torn-down or superseded session are dropped.
func (s *ExamScreen) live(sessionID string) bool {
	return s.sess != nil && s.sess.ID == sessionID
}

func (s *ExamScreen) handleStarted(msg sessionStartedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = "Could not start the session: " + msg.Err.Error()
		return s, nil
	}

	total := msg.Info.TotalQuestions
	if total <= 0 {
		total = s.cfg.Questions
	}
	minutes := msg.Info.DurationMinutes
	if minutes <= 0 {
		minutes = s.cfg.Minutes
	}
	duration := time.Duration(minutes) * time.Minute

	s.sess = session.NewSession(msg.Info.SessionID, s.cfg.StudentID, s.cfg.Subject, total, duration, s.caps.Adaptive)
	s.countdown = timer.New(duration)
	s.countdown.AddThreshold(warnFiveMinutes)
	s.countdown.AddThreshold(warnOneMinute)

	if s.sessions != nil {
		_ = s.sessions.Start(context.Background(), store.SessionRecord{
			SessionID: s.sess.ID,
			Subject:   s.sess.Subject,
			Adaptive:  s.sess.Adaptive,
			Status:    s.sess.Status.String(),
			StartedAt: s.sess.StartedAt,
		})
	}

	s.log.Info().Str("session_id", s.sess.ID).Int("questions", total).Int("minutes", minutes).Msg("session starting")

	s.fetching = true
	return s, s.fetchNext()
}

func (s *ExamScreen) handleQuestion(msg questionMsg) (screen.Screen, tea.Cmd) {
	if !s.live(msg.SessionID) || s.sess.Status.Terminal() {
		return s, nil
	}
	s.fetching = false

	if msg.Err != nil {
		s.fetchRetries++
		s.log.Warn().Err(msg.Err).Int("retries", s.fetchRetries).Msg("question fetch failed")

		if s.fetchRetries >= maxFetchRetries {
			if s.sess.Attempted() == 0 {
				s.errMsg = "Could not fetch any questions: " + msg.Err.Error()
				return s, nil
			}
			// Repeated failures mid-session: submit what we have.
			s.sess.Status = session.StatusCompleted
			return s, s.finalize(false)
		}
		s.netWarning = "Trouble reaching the server, retrying..."
		s.fetching = true
		return s, s.fetchAfter(fetchRetryDelay)
	}
	s.fetchRetries = 0
	s.netWarning = ""

	if msg.Result.Complete {
		s.sess.Status = session.StatusCompleted
		return s, s.finalize(false)
	}

	q := msg.Result.Question
	if q.Total > 0 {
		s.sess.TotalQuestions = q.Total
	}
	s.sess.Current = q
	s.options = components.NewOptionList(q.Options)
	s.questionStart = time.Now()

	if s.sess.Status == session.StatusInitializing {
		s.sess.Status = session.StatusActive
		s.countdown.Start(time.Now())
		return s, tickCmd()
	}
	return s, nil
}

func (s *ExamScreen) handleTick(now time.Time) (screen.Screen, tea.Cmd) {
	if s.sess == nil || s.sess.Status.Terminal() {
		return s, nil
	}

	ev := s.countdown.Tick(now)
	for _, at := range ev.Crossed {
		switch at {
		case warnFiveMinutes:
			s.timeWarning = "5 minutes remaining"
		case warnOneMinute:
			s.timeWarning = "1 minute remaining"
		}
	}

	if ev.Expired {
		// The expiry transition takes precedence over everything pending:
		// an in-flight submission result will be dropped, and any feedback
		// delay is abandoned via the terminal-status guards.
		s.sess.Status = session.StatusExpired
		s.showingFeedback = false
		s.log.Info().Str("session_id", s.sess.ID).Int("attempted", s.sess.Attempted()).Msg("time expired")
		return s, s.finalize(true)
	}
	return s, tickCmd()
}

func (s *ExamScreen) handleSubmitted(msg submittedMsg) (screen.Screen, tea.Cmd) {
	if !s.live(msg.SessionID) {
		s.pipeline.Release()
		return s, nil
	}
	s.pipeline.Release()
	s.submitting = false

	if s.sess.Status.Terminal() {
		// Expired while the answer was in flight; the auto-submit already
		// went out and this result no longer counts.
		return s, nil
	}

	if err := s.sess.RecordAttempt(msg.Outcome.Attempt); err != nil {
		s.log.Warn().Err(err).Str("question_id", msg.Outcome.Attempt.QuestionID).Msg("attempt not recorded")
		return s, nil
	}

	fb := msg.Outcome.Feedback
	if fb.CorrectOption != "" && s.sess.Current != nil {
		s.sess.Current.CorrectOption = fb.CorrectOption
	}
	if fb.Degraded {
		s.netWarning = "Answer saved locally; the server could not be reached."
	}
	s.sess.ApplyFeedback(fb)

	s.showingFeedback = true
	s.feedbackSeq++
	return s, s.feedbackDelay()
}

func (s *ExamScreen) handleFeedbackDone(msg feedbackDoneMsg) (screen.Screen, tea.Cmd) {
	if !s.live(msg.SessionID) || msg.Seq != s.feedbackSeq || !s.showingFeedback {
		return s, nil
	}
	s.showingFeedback = false

	switch s.sess.Status {
	case session.StatusCompleted:
		return s, s.finalize(false)
	case session.StatusActive:
		s.fetching = true
		return s, s.fetchNext()
	}
	return s, nil
}

func (s *ExamScreen) handlePaused(msg pausedMsg) (screen.Screen, tea.Cmd) {
	if !s.live(msg.SessionID) {
		return s, nil
	}
	if msg.Err != nil {
		// The local pause stands either way; the backend just was not told.
		s.log.Warn().Err(msg.Err).Msg("pause not recorded on server")
		s.netWarning = "Pause was not recorded on the server."
	}
	return s, nil
}

func (s *ExamScreen) handleResumed(msg resumedMsg) (screen.Screen, tea.Cmd) {
	if !s.live(msg.SessionID) || s.sess.Status != session.StatusPaused {
		return s, nil
	}
	now := time.Now()
	if msg.Err != nil {
		s.log.Warn().Err(msg.Err).Msg("resume sync failed, continuing with local clock")
		s.netWarning = "Could not sync the clock with the server."
	} else {
		s.countdown.SetRemaining(msg.Remaining, now)
	}
	s.countdown.Resume(now)
	s.sess.Status = session.StatusActive
	return s, nil
}

func (s *ExamScreen) handleFinalized(msg finalizedMsg) (screen.Screen, tea.Cmd) {
	if !s.live(msg.SessionID) {
		return s, nil
	}
	s.final = msg.Result
	s.finalErr = msg.Err
	s.showingFeedback = false
	s.showingQuitConfirm = false
	s.showingSubmitConfirm = false

	elapsed := s.sess.Duration - s.countdown.Remaining()
	s.summary = session.BuildSummary(s.sess, elapsed)

	if s.sessions != nil {
		_ = s.sessions.Finish(context.Background(), s.sess.ID, s.sess.Status.String(),
			s.sess.Attempted(), s.sess.Correct, int(elapsed.Seconds()))
	}
	if msg.Err != nil {
		s.log.Warn().Err(msg.Err).Str("session_id", s.sess.ID).Msg("final submit failed")
	}
	return s, nil
}

func (s *ExamScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		switch key {
		case "r", "R":
			s.errMsg = ""
			s.sess = nil
			s.countdown = nil
			s.fetchRetries = 0
			return s, s.createSession()
		case "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}

	if s.summary != nil {
		switch key {
		case "v", "V":
			if s.details != nil {
				id := s.sess.ID
				return s, func() tea.Msg {
					return router.ReplaceScreenMsg{Screen: s.details(id)}
				}
			}
		case "esc", "enter", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}

	if s.sess == nil {
		if key == "esc" {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}

	if s.showingQuitConfirm {
		switch key {
		case "y", "Y":
			s.showingQuitConfirm = false
			s.sess.Status = session.StatusCompleted
			return s, s.finalize(false)
		case "n", "N", "esc":
			s.showingQuitConfirm = false
		}
		return s, nil
	}

	if s.showingSubmitConfirm {
		switch key {
		case "y", "Y":
			s.showingSubmitConfirm = false
			s.sess.Status = session.StatusCompleted
			return s, s.finalize(false)
		case "n", "N", "esc":
			s.showingSubmitConfirm = false
		}
		return s, nil
	}

	if s.showingFeedback {
		return s, func() tea.Msg {
			return feedbackDoneMsg{SessionID: s.sess.ID, Seq: s.feedbackSeq}
		}
	}

	if s.sess.Status == session.StatusPaused {
		switch key {
		case "p", "P":
			return s, s.resumeSession()
		case "esc":
			s.showingQuitConfirm = true
		}
		return s, nil
	}

	if s.sess.Status != session.StatusActive {
		if key == "esc" {
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
		return s, nil
	}

	switch key {
	case "esc":
		s.showingQuitConfirm = true
		return s, nil
	case "s", "S":
		s.showingSubmitConfirm = true
		return s, nil
	case "p", "P":
		if s.caps.Pausable && !s.submitting {
			s.sess.Status = session.StatusPaused
			s.countdown.Pause(time.Now())
			return s, s.notifyPause()
		}
		return s, nil
	case "enter":
		return s, s.submitAnswer()
	}

	var chosen bool
	s.options, chosen = s.options.Update(msg)
	if chosen {
		return s, s.submitAnswer()
	}
	return s, nil
}

// submitAnswer claims the single in-flight slot and posts the highlighted
// option. A second Enter while one submission is pending does nothing.
func (s *ExamScreen) submitAnswer() tea.Cmd {
	if s.submitting || s.sess.Current == nil || s.sess.Status != session.StatusActive {
		return nil
	}
	q := s.sess.Current
	if s.sess.Answered(q.ID) {
		return nil
	}
	selected := s.options.Choice()
	if selected == "" {
		return nil
	}
	if !s.pipeline.TryAcquire() {
		return nil
	}
	s.submitting = true

	id := s.sess.ID
	timeSpent := time.Since(s.questionStart)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		outcome := s.pipeline.Submit(ctx, id, q, selected, timeSpent)
		return submittedMsg{SessionID: id, Outcome: outcome}
	}
}

// finalize issues the terminal session submit. The MarkFinalSent latch makes
// it one-shot across the completion, explicit-submit and expiry paths.
func (s *ExamScreen) finalize(forced bool) tea.Cmd {
	if !s.sess.MarkFinalSent() {
		return nil
	}
	req := api.FinalizeRequest{
		SessionID: s.sess.ID,
		Forced:    forced,
		Attempted: s.sess.Attempted(),
		Score:     s.sess.Score(),
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := s.backend.SubmitSession(ctx, req)
		return finalizedMsg{SessionID: req.SessionID, Result: res, Err: err}
	}
}

func (s *ExamScreen) createSession() tea.Cmd {
	req := api.CreateSessionRequest{
		StudentID: s.cfg.StudentID,
		Subject:   s.cfg.Subject,
		Questions: s.cfg.Questions,
		Minutes:   s.cfg.Minutes,
		Adaptive:  s.caps.Adaptive,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		info, err := s.backend.CreateSession(ctx, req)
		return sessionStartedMsg{Info: info, Err: err}
	}
}

func (s *ExamScreen) fetchNext() tea.Cmd {
	id := s.sess.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := s.questions.FetchNext(ctx, id)
		return questionMsg{SessionID: id, Result: res, Err: err}
	}
}

func (s *ExamScreen) fetchAfter(d time.Duration) tea.Cmd {
	id := s.sess.ID
	return tea.Tick(d, func(time.Time) tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := s.questions.FetchNext(ctx, id)
		return questionMsg{SessionID: id, Result: res, Err: err}
	})
}

func (s *ExamScreen) notifyPause() tea.Cmd {
	id := s.sess.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return pausedMsg{SessionID: id, Err: s.backend.PauseSession(ctx, id)}
	}
}

func (s *ExamScreen) resumeSession() tea.Cmd {
	id := s.sess.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		rem, err := s.backend.ResumeSession(ctx, id)
		return resumedMsg{SessionID: id, Remaining: rem, Err: err}
	}
}

func (s *ExamScreen) feedbackDelay() tea.Cmd {
	id := s.sess.ID
	seq := s.feedbackSeq
	return tea.Tick(s.caps.FeedbackDelay, func(time.Time) tea.Msg {
		return feedbackDoneMsg{SessionID: id, Seq: seq}
	})
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
