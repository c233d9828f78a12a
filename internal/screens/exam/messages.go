package exam

import (
	"time"

	"github.com/tanmay/quizdeck/internal/api"
	"github.com/tanmay/quizdeck/internal/delivery"
)

// Every message that completes an async operation carries the session id it
// was issued for. Update drops messages whose id no longer matches the live
// session, so results of torn-down or expired sessions are never applied.

// sessionStartedMsg is sent when backend session creation completes.
type sessionStartedMsg struct {
	Info *api.SessionInfo
	Err  error
}

// questionMsg is sent when a next-question fetch completes.
type questionMsg struct {
	SessionID string
	Result    *delivery.FetchResult
	Err       error
}

// submittedMsg is sent when an answer submission completes.
type submittedMsg struct {
	SessionID string
	Outcome   delivery.Outcome
}

// tickMsg drives the 1 Hz countdown.
type tickMsg time.Time

// feedbackDoneMsg ends the feedback display period. Seq guards against a
// stale delay firing after the session already moved on.
type feedbackDoneMsg struct {
	SessionID string
	Seq       int
}

// pausedMsg reports the backend pause notification outcome.
type pausedMsg struct {
	SessionID string
	Err       error
}

// resumedMsg carries the backend's fresh remaining-time snapshot.
type resumedMsg struct {
	SessionID string
	Remaining time.Duration
	Err       error
}

// finalizedMsg is sent when the terminal session submit completes.
type finalizedMsg struct {
	SessionID string
	Result    *api.FinalResult
	Err       error
}
