// Package delivery adapts the backend question and submission endpoints to
// the session controller: payload normalization on the way in, optimistic
// attempt recording on the way out.
package delivery

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tanmay/quizdeck/internal/api"
	"github.com/tanmay/quizdeck/internal/exam"
)

// FetchResult is the outcome of a next-question call. Complete marks normal
// budget exhaustion, a terminal transition rather than a fault.
type FetchResult struct {
	Question *exam.Question
	Complete bool
}

// QuestionClient fetches and normalizes adaptive questions.
type QuestionClient struct {
	backend api.SessionAPI
	log     zerolog.Logger
}

// NewQuestionClient creates a question client.
func NewQuestionClient(backend api.SessionAPI, log zerolog.Logger) *QuestionClient {
	return &QuestionClient{
		backend: backend,
		log:     log.With().Str("component", "delivery").Logger(),
	}
}

// FetchNext retrieves the next question for a session, normalized into the
// canonical Question shape.
func (c *QuestionClient) FetchNext(ctx context.Context, sessionID string) (*FetchResult, error) {
	payload, err := c.backend.NextQuestion(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if payload.Complete {
		return &FetchResult{Complete: true}, nil
	}
	if payload.QuestionID == "" {
		return nil, fmt.Errorf("question payload missing id")
	}
	return &FetchResult{Question: normalizeQuestion(payload)}, nil
}

// normalizeQuestion repairs partial payloads with safe defaults rather than
// failing the flow: unknown difficulty becomes the neutral level, missing
// topic stays empty.
func normalizeQuestion(p *api.QuestionPayload) *exam.Question {
	q := &exam.Question{
		ID:         p.QuestionID,
		Text:       p.Text,
		Difficulty: p.Difficulty,
		Number:     p.QuestionNumber,
		Total:      p.TotalQuestions,
		Topic:      p.Topic,
	}
	if q.Difficulty < exam.DifficultyMin || q.Difficulty > exam.DifficultyMax {
		q.Difficulty = exam.DifficultyNeutral
	}
	for _, o := range p.Options {
		q.Options = append(q.Options, exam.Option{ID: o.ID, Text: o.Text})
	}
	return q
}
