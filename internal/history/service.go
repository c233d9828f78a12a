package history

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanmay/quizdeck/internal/api"
	"github.com/tanmay/quizdeck/internal/exam"
)

// Service reconciles a session's detailed result from the backend's
// inconsistent sources. The cascade order is fixed: the per-assessment
// detail endpoint, then the adaptive-session detail endpoint, then the full
// history listing filtered client-side. Each step is attempted only when
// the previous one yields nothing usable.
type Service struct {
	backend api.HistoryAPI
	cascade bool // false restricts resolution to the primary endpoint
	log     zerolog.Logger
}

// NewService creates a reconciliation service. cascade selects between
// single-endpoint and full-cascade resolution.
func NewService(backend api.HistoryAPI, cascade bool, log zerolog.Logger) *Service {
	return &Service{
		backend: backend,
		cascade: cascade,
		log:     log.With().Str("component", "history").Logger(),
	}
}

type step struct {
	name string
	run  func(ctx context.Context, identity, sessionID string) (*DetailedResult, bool)
}

// DetailedResult builds the reconciled record for one session id.
func (s *Service) DetailedResult(ctx context.Context, identity, sessionID string) (*DetailedResult, error) {
	steps := []step{{name: "assessment", run: s.fromAssessment}}
	if s.cascade {
		steps = append(steps,
			step{name: "adaptive", run: s.fromAdaptive},
			step{name: "history", run: s.fromListing},
		)
	}

	for _, st := range steps {
		res, ok := st.run(ctx, identity, sessionID)
		if !ok {
			s.log.Debug().Str("step", st.name).Str("session_id", sessionID).Msg("step yielded nothing usable")
			continue
		}
		res.Source = st.name
		finalize(res)
		s.log.Info().
			Str("step", st.name).
			Str("session_id", sessionID).
			Bool("synthesized", res.Synthesized).
			Msg("detailed result reconciled")
		return res, nil
	}

	return nil, fmt.Errorf("no source has a record for session %s", sessionID)
}

func (s *Service) fromAssessment(ctx context.Context, _, sessionID string) (*DetailedResult, bool) {
	detail, err := s.backend.GetAssessmentDetail(ctx, sessionID)
	if err != nil {
		return nil, false
	}
	return fromDetail(detail, sessionID)
}

func (s *Service) fromAdaptive(ctx context.Context, _, sessionID string) (*DetailedResult, bool) {
	detail, err := s.backend.GetAdaptiveDetail(ctx, sessionID)
	if err != nil {
		return nil, false
	}
	return fromDetail(detail, sessionID)
}

// fromListing falls back to the full session-history listing for the
// resolved identity, filtered to the matching session id. Only aggregate
// counts survive this path; attempts are synthesized placeholders.
func (s *Service) fromListing(ctx context.Context, identity, sessionID string) (*DetailedResult, bool) {
	sessions, err := s.backend.GetHistory(ctx, identity)
	if err != nil {
		return nil, false
	}
	for _, sess := range sessions {
		if sess.SessionID != sessionID {
			continue
		}
		return &DetailedResult{Session: sess}, true
	}
	return nil, false
}

func fromDetail(detail *api.SessionDetail, sessionID string) (*DetailedResult, bool) {
	if detail == nil {
		return nil, false
	}
	if detail.Session.SessionID == "" && len(detail.Attempts) == 0 {
		return nil, false
	}
	res := &DetailedResult{Session: detail.Session}
	if res.Session.SessionID == "" {
		res.Session.SessionID = sessionID
	}
	for _, at := range detail.Attempts {
		res.Attempts = append(res.Attempts, attemptView(at))
	}
	return res, true
}

func attemptView(at api.AttemptDetail) AttemptView {
	v := AttemptView{
		QuestionID:   at.QuestionID,
		QuestionText: at.QuestionText,
		Selected:     at.Selected,
		CorrectAns:   at.CorrectOption,
		Correct:      at.Correct,
		Topic:        at.Topic,
		Difficulty:   at.Difficulty,
		TimeSpent:    time.Duration(at.TimeSpentSeconds) * time.Second,
	}
	if v.Difficulty < exam.DifficultyMin || v.Difficulty > exam.DifficultyMax {
		v.Difficulty = exam.DifficultyNeutral
	}
	for _, o := range at.Options {
		v.Options = append(v.Options, exam.Option{ID: o.ID, Text: o.Text})
	}
	return v
}

// finalize fills derived fields: attempt synthesis when no per-question data
// exists, the analysis, and the recommendations.
func finalize(res *DetailedResult) {
	if len(res.Attempts) == 0 {
		res.Attempts = synthesizeAttempts(res.Session)
		res.Synthesized = true
		// Aggregate counts are the only truth here; analysis comes from
		// them, not the placeholder rows' invented ordering.
	}

	res.Analysis = Analyze(res.Attempts)
	if res.Synthesized {
		// Count reconciliation: the placeholders were built to match the
		// listing's aggregates, but keep the session row authoritative.
		res.Analysis.Overall = Stat{
			Attempted: res.Session.Attempted,
			Correct:   res.Session.Correct,
		}
	} else {
		reconcileCounts(res)
	}
	res.Recommendations = Recommend(res.Analysis)
}

// reconcileCounts prefers attempt-level truth over possibly stale session
// aggregates.
func reconcileCounts(res *DetailedResult) {
	res.Session.Attempted = res.Analysis.Overall.Attempted
	res.Session.Correct = res.Analysis.Overall.Correct
}

// synthesizeAttempts builds representative placeholder attempts from
// aggregate counts. Every row is marked Synthesized so the view layer can
// caveat it.
func synthesizeAttempts(sess api.HistorySession) []AttemptView {
	var out []AttemptView
	perQuestion := time.Duration(0)
	if sess.Attempted > 0 {
		perQuestion = time.Duration(sess.DurationSeconds/sess.Attempted) * time.Second
	}
	for i := 0; i < sess.Attempted; i++ {
		out = append(out, AttemptView{
			QuestionID:   fmt.Sprintf("%s-q%d", sess.SessionID, i+1),
			QuestionText: fmt.Sprintf("Question %d (detail unavailable)", i+1),
			Correct:      i < sess.Correct,
			Difficulty:   exam.DifficultyNeutral,
			TimeSpent:    perQuestion,
			Synthesized:  true,
		})
	}
	return out
}
