package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tanmay/quizdeck/internal/api"
	"github.com/tanmay/quizdeck/internal/exam"
	"github.com/tanmay/quizdeck/internal/store"
)

// Outcome is the result of one submission: the attempt as recorded locally
// and the adaptation feedback to fold into the session.
type Outcome struct {
	Attempt  exam.AnswerAttempt
	Feedback exam.Feedback
}

// Pipeline submits answers in the order they are given and records every
// attempt locally before the network result is known. A failed network call
// degrades the outcome instead of blocking the session: the attempt stays
// recorded with Synced=false and the controller moves on.
type Pipeline struct {
	backend  api.SessionAPI
	attempts store.AttemptRepo
	log      zerolog.Logger

	mu       sync.Mutex
	inFlight bool
}

// NewPipeline creates a submission pipeline. attempts may be nil when no
// local store is available.
func NewPipeline(backend api.SessionAPI, attempts store.AttemptRepo, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		backend:  backend,
		attempts: attempts,
		log:      log.With().Str("component", "pipeline").Logger(),
	}
}

// TryAcquire claims the single in-flight submission slot. A second submit
// while one is pending is rejected, not queued.
func (p *Pipeline) TryAcquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight {
		return false
	}
	p.inFlight = true
	return true
}

// Release frees the in-flight slot after the outcome has been applied.
func (p *Pipeline) Release() {
	p.mu.Lock()
	p.inFlight = false
	p.mu.Unlock()
}

// Submit posts one answer and returns the outcome. It never returns an
// error for transient network failure; the degraded outcome carries the
// locally recorded attempt instead.
func (p *Pipeline) Submit(ctx context.Context, sessionID string, q *exam.Question, selected string, timeSpent time.Duration) Outcome {
	attempt := exam.AnswerAttempt{
		ID:          uuid.New().String(),
		QuestionID:  q.ID,
		Selected:    selected,
		TimeSpent:   timeSpent,
		SubmittedAt: time.Now(),
	}

	fb, err := p.backend.SubmitAnswer(ctx, api.SubmitRequest{
		SessionID:        sessionID,
		QuestionID:       q.ID,
		Answer:           selected,
		TimeSpentSeconds: int(timeSpent.Seconds()),
	})
	if err != nil {
		p.log.Warn().Err(err).Str("question_id", q.ID).Msg("submission did not reach backend")
		p.record(ctx, sessionID, attempt)
		return Outcome{
			Attempt: attempt,
			Feedback: exam.Feedback{
				Degraded:       true,
				NextDifficulty: q.Difficulty,
			},
		}
	}

	attempt.Correct = fb.Correct
	attempt.Synced = true
	p.record(ctx, sessionID, attempt)

	return Outcome{
		Attempt: attempt,
		Feedback: exam.Feedback{
			Correct:         fb.Correct,
			Explanation:     fb.Explanation,
			CorrectOption:   fb.CorrectOption,
			Mastery:         fb.Mastery,
			NextDifficulty:  fb.NextDifficulty,
			SessionComplete: fb.SessionComplete,
		},
	}
}

func (p *Pipeline) record(ctx context.Context, sessionID string, a exam.AnswerAttempt) {
	if p.attempts == nil {
		return
	}
	err := p.attempts.Append(ctx, store.AttemptRecord{
		ID:          a.ID,
		SessionID:   sessionID,
		QuestionID:  a.QuestionID,
		Selected:    a.Selected,
		Correct:     a.Correct,
		TimeMs:      int(a.TimeSpent.Milliseconds()),
		SubmittedAt: a.SubmittedAt,
		Synced:      a.Synced,
	})
	if err != nil {
		p.log.Warn().Err(err).Str("attempt_id", a.ID).Msg("local attempt record failed")
	}
}
