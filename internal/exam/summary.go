package exam

import "time"

// Summary holds the data displayed when a session ends.
type Summary struct {
	SessionID string
	Subject   string
	Status    Status
	Elapsed   time.Duration
	Attempted int
	Correct   int
	Total     int
	Accuracy  float64
	Mastery   float64
	Unsynced  int // attempts that never reached the backend
}

// BuildSummary creates a Summary from a finished session.
func BuildSummary(s *Session, elapsed time.Duration) *Summary {
	unsynced := 0
	for _, a := range s.Attempts {
		if !a.Synced {
			unsynced++
		}
	}

	var accuracy float64
	if s.Attempted() > 0 {
		accuracy = float64(s.Correct) / float64(s.Attempted())
	}

	return &Summary{
		SessionID: s.ID,
		Subject:   s.Subject,
		Status:    s.Status,
		Elapsed:   elapsed,
		Attempted: s.Attempted(),
		Correct:   s.Correct,
		Total:     s.TotalQuestions,
		Accuracy:  accuracy,
		Mastery:   s.Mastery,
		Unsynced:  unsynced,
	}
}
