package exam

import "time"

// ViewModel is the read-only snapshot the controller exposes to the
// surrounding UI. Rendering code never touches the Session directly.
type ViewModel struct {
	Status        Status
	TimeRemaining time.Duration
	Question      *Question
	LastFeedback  *Feedback
	Attempted     int
	Correct       int
	Total         int
	Mastery       float64
	Warning       string // non-blocking notice (time warnings, degraded submit)
}

// Snapshot builds a view model from the session and the timer's remaining
// time.
func Snapshot(s *Session, remaining time.Duration, warning string) ViewModel {
	if s == nil {
		return ViewModel{Status: StatusInitializing}
	}
	return ViewModel{
		Status:        s.Status,
		TimeRemaining: remaining,
		Question:      s.Current,
		LastFeedback:  s.LastFeedback,
		Attempted:     s.Attempted(),
		Correct:       s.Correct,
		Total:         s.TotalQuestions,
		Mastery:       s.Mastery,
		Warning:       warning,
	}
}
