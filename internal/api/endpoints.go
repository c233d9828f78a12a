package api

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// SessionAPI is the session lifecycle and question flow surface. Split from
// HistoryAPI so the exam screen and the reconciliation service can be mocked
// independently.
type SessionAPI interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error)
	PauseSession(ctx context.Context, sessionID string) error
	ResumeSession(ctx context.Context, sessionID string) (time.Duration, error)
	NextQuestion(ctx context.Context, sessionID string) (*QuestionPayload, error)
	SubmitAnswer(ctx context.Context, req SubmitRequest) (*FeedbackPayload, error)
	SubmitSession(ctx context.Context, req FinalizeRequest) (*FinalResult, error)
}

// HistoryAPI is the post-hoc history surface.
type HistoryAPI interface {
	GetHistory(ctx context.Context, identity string) ([]HistorySession, error)
	GetAssessmentDetail(ctx context.Context, sessionID string) (*SessionDetail, error)
	GetAdaptiveDetail(ctx context.Context, sessionID string) (*SessionDetail, error)
}

var (
	_ SessionAPI = (*Client)(nil)
	_ HistoryAPI = (*Client)(nil)
)

// CreateSession creates or joins a session for the given subject.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	var out SessionInfo
	if err := c.postJSON(ctx, "/api/sessions", req, &out); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.log.Info().
		Str("session_id", out.SessionID).
		Int("questions", out.TotalQuestions).
		Int("minutes", out.DurationMinutes).
		Msg("session created")
	return &out, nil
}

// PauseSession notifies the backend of an explicit pause.
func (c *Client) PauseSession(ctx context.Context, sessionID string) error {
	return c.postJSON(ctx, "/api/sessions/"+url.PathEscape(sessionID)+"/pause", nil, nil)
}

// ResumeSession resumes a paused session and returns the backend's fresh
// remaining-time snapshot.
func (c *Client) ResumeSession(ctx context.Context, sessionID string) (time.Duration, error) {
	var out struct {
		RemainingSeconds int `json:"remaining_seconds"`
	}
	err := c.postJSON(ctx, "/api/sessions/"+url.PathEscape(sessionID)+"/resume", nil, &out)
	if err != nil {
		return 0, fmt.Errorf("resume session: %w", err)
	}
	return time.Duration(out.RemainingSeconds) * time.Second, nil
}

// NextQuestion fetches the next adaptive question for a session.
func (c *Client) NextQuestion(ctx context.Context, sessionID string) (*QuestionPayload, error) {
	var out QuestionPayload
	err := c.getJSON(ctx, "/api/sessions/"+url.PathEscape(sessionID)+"/next", &out)
	if err != nil {
		return nil, fmt.Errorf("next question: %w", err)
	}
	return &out, nil
}

// SubmitAnswer posts one answer and returns adaptation feedback.
func (c *Client) SubmitAnswer(ctx context.Context, req SubmitRequest) (*FeedbackPayload, error) {
	var out FeedbackPayload
	path := "/api/sessions/" + url.PathEscape(req.SessionID) + "/answers"
	if err := c.postJSON(ctx, path, req, &out); err != nil {
		return nil, fmt.Errorf("submit answer: %w", err)
	}
	return &out, nil
}

// SubmitSession finalizes a session. The caller is responsible for calling
// this at most once per terminal transition.
func (c *Client) SubmitSession(ctx context.Context, req FinalizeRequest) (*FinalResult, error) {
	var out FinalResult
	path := "/api/sessions/" + url.PathEscape(req.SessionID) + "/submit"
	if err := c.postJSON(ctx, path, req, &out); err != nil {
		return nil, fmt.Errorf("submit session: %w", err)
	}
	c.log.Info().
		Str("session_id", req.SessionID).
		Bool("forced", req.Forced).
		Float64("score", out.FinalScore).
		Msg("session finalized")
	return &out, nil
}

// GetHistory lists the sessions recorded for an identity. An empty list is
// not an error; the identity resolver relies on the distinction.
func (c *Client) GetHistory(ctx context.Context, identity string) ([]HistorySession, error) {
	var out struct {
		Sessions []HistorySession `json:"sessions"`
	}
	err := c.getJSON(ctx, "/api/students/"+url.PathEscape(identity)+"/history", &out)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return out.Sessions, nil
}

// GetAssessmentDetail fetches the primary per-assessment detail record.
func (c *Client) GetAssessmentDetail(ctx context.Context, sessionID string) (*SessionDetail, error) {
	var out SessionDetail
	err := c.getJSON(ctx, "/api/assessments/"+url.PathEscape(sessionID), &out)
	if err != nil {
		return nil, fmt.Errorf("assessment detail: %w", err)
	}
	return &out, nil
}

// GetAdaptiveDetail fetches the adaptive-session detail record keyed by the
// raw session id.
func (c *Client) GetAdaptiveDetail(ctx context.Context, sessionID string) (*SessionDetail, error) {
	var out SessionDetail
	err := c.getJSON(ctx, "/api/adaptive/sessions/"+url.PathEscape(sessionID), &out)
	if err != nil {
		return nil, fmt.Errorf("adaptive detail: %w", err)
	}
	return &out, nil
}
