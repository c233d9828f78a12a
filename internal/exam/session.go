package exam

import (
	"errors"
	"fmt"
	"time"
)

// Difficulty levels are a 1-5 scale. Backends occasionally omit the field,
// in which case DifficultyNeutral is assumed.
const (
	DifficultyMin     = 1
	DifficultyNeutral = 3
	DifficultyMax     = 5
)

var (
	// ErrDuplicateAttempt is returned when an answer is recorded twice for
	// the same question. A question, once answered, is never re-served.
	ErrDuplicateAttempt = errors.New("question already answered")

	// ErrBudgetExhausted is returned when recording an attempt would exceed
	// the session's question budget.
	ErrBudgetExhausted = errors.New("question budget exhausted")
)

// Status is the lifecycle state of a session.
type Status int

const (
	StatusInitializing Status = iota
	StatusActive
	StatusPaused
	StatusExpired   // timer reached zero
	StatusCompleted // explicit finish or budget reached
	StatusError     // unrecoverable initialization failure
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusActive:
		return "active"
	case StatusPaused:
		return "paused"
	case StatusExpired:
		return "expired"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusExpired || s == StatusCompleted || s == StatusError
}

// Option is one answer choice. Options keep the order the backend served
// them in.
type Option struct {
	ID   string
	Text string
}

// Question is one adaptive item. The current question is owned by the
// session and replaced, not mutated, when the next one arrives.
type Question struct {
	ID            string
	Text          string
	Options       []Option
	Difficulty    int
	Number        int
	Total         int
	Topic         string
	CorrectOption string // only populated once known, via feedback
}

// OptionText returns the display text for an option id, or the id itself
// when the option is unknown.
func (q *Question) OptionText(id string) string {
	for _, o := range q.Options {
		if o.ID == id {
			return o.Text
		}
	}
	return id
}

// AnswerAttempt is one submitted response. Immutable once created.
type AnswerAttempt struct {
	ID          string
	QuestionID  string
	Selected    string
	TimeSpent   time.Duration
	Correct     bool
	SubmittedAt time.Time
	Synced      bool // false when the submission never reached the backend
}

// Feedback is the result of a submission. Transient: consumed to update the
// session and then discarded.
type Feedback struct {
	Correct         bool
	Explanation     string
	CorrectOption   string
	Mastery         float64 // 0..1 running mastery estimate
	NextDifficulty  int
	SessionComplete bool
	Degraded        bool // recorded locally only; backend call failed
}

// Capabilities parameterizes the one session controller across the exam
// variants (timed exam, adaptive practice, scheduled exam).
type Capabilities struct {
	Adaptive       bool
	Pausable       bool
	CascadeHistory bool
	FeedbackDelay  time.Duration
}

// TimedExam is the fixed-length, non-pausable exam configuration.
func TimedExam() Capabilities {
	return Capabilities{CascadeHistory: false, FeedbackDelay: 2 * time.Second}
}

// AdaptivePractice allows pausing and resolves history through the full
// fallback cascade.
func AdaptivePractice() Capabilities {
	return Capabilities{
		Adaptive:       true,
		Pausable:       true,
		CascadeHistory: true,
		FeedbackDelay:  2 * time.Second,
	}
}

// Session identifies one timed attempt. It is mutated only by the session
// controller, in response to timer ticks and pipeline completions.
type Session struct {
	ID             string
	StudentID      string
	Subject        string
	StartedAt      time.Time
	Duration       time.Duration
	TotalQuestions int
	Adaptive       bool
	Status         Status

	Current      *Question
	Attempts     []AnswerAttempt
	Correct      int
	Mastery      float64
	NextDiff     int
	LastFeedback *Feedback

	answered  map[string]bool
	finalSent bool
}

// NewSession creates a session in the Initializing state.
func NewSession(id, studentID, subject string, total int, duration time.Duration, adaptive bool) *Session {
	return &Session{
		ID:             id,
		StudentID:      studentID,
		Subject:        subject,
		StartedAt:      time.Now(),
		Duration:       duration,
		TotalQuestions: total,
		Adaptive:       adaptive,
		Status:         StatusInitializing,
		NextDiff:       DifficultyNeutral,
		answered:       make(map[string]bool),
	}
}

// Attempted returns the number of recorded answers.
func (s *Session) Attempted() int {
	return len(s.Attempts)
}

// Answered reports whether a question id already has a recorded attempt.
func (s *Session) Answered(questionID string) bool {
	return s.answered[questionID]
}

// RecordAttempt appends an attempt to the session log. Each question id may
// appear at most once, and the log never grows past the question budget.
func (s *Session) RecordAttempt(a AnswerAttempt) error {
	if s.answered[a.QuestionID] {
		return fmt.Errorf("%w: %s", ErrDuplicateAttempt, a.QuestionID)
	}
	if len(s.Attempts) >= s.TotalQuestions {
		return ErrBudgetExhausted
	}
	s.answered[a.QuestionID] = true
	s.Attempts = append(s.Attempts, a)
	if a.Correct {
		s.Correct++
	}
	return nil
}

// ApplyFeedback folds submission feedback into the session and decides the
// next transition. It must run before the controller picks the next action.
// Returns true when the session is complete.
func (s *Session) ApplyFeedback(fb Feedback) bool {
	s.LastFeedback = &fb
	if s.Adaptive && !fb.Degraded {
		s.Mastery = fb.Mastery
		if fb.NextDifficulty >= DifficultyMin && fb.NextDifficulty <= DifficultyMax {
			s.NextDiff = fb.NextDifficulty
		}
	}
	if fb.SessionComplete || len(s.Attempts) >= s.TotalQuestions {
		s.Status = StatusCompleted
		return true
	}
	return false
}

// MarkFinalSent latches the "final submission already sent" flag. It returns
// true only on the first call, making the terminal submit one-shot.
func (s *Session) MarkFinalSent() bool {
	if s.finalSent {
		return false
	}
	s.finalSent = true
	return true
}

// FinalSent reports whether the terminal submit was already issued.
func (s *Session) FinalSent() bool {
	return s.finalSent
}

// Score returns the fraction of attempted questions answered correctly.
func (s *Session) Score() float64 {
	if len(s.Attempts) == 0 {
		return 0
	}
	return float64(s.Correct) / float64(len(s.Attempts))
}
