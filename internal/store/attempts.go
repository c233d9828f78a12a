package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AttemptRecord is one locally recorded answer. Attempts are written before
// the backend submission resolves, so a crash or network failure never loses
// the learner's answer.
type AttemptRecord struct {
	ID          string
	SessionID   string
	QuestionID  string
	Selected    string
	Correct     bool
	TimeMs      int
	SubmittedAt time.Time
	Synced      bool
}

// AttemptRepo is the append-only local attempt log.
type AttemptRepo interface {
	Append(ctx context.Context, a AttemptRecord) error
	MarkSynced(ctx context.Context, id string) error
	BySession(ctx context.Context, sessionID string) ([]AttemptRecord, error)
}

type attemptRepo struct {
	db *sql.DB
}

func (r *attemptRepo) Append(ctx context.Context, a AttemptRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attempts (id, session_id, question_id, selected, correct, time_ms, submitted_at, synced)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SessionID, a.QuestionID, a.Selected, boolInt(a.Correct), a.TimeMs, a.SubmittedAt, boolInt(a.Synced),
	)
	if err != nil {
		return fmt.Errorf("append attempt: %w", err)
	}
	return nil
}

func (r *attemptRepo) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE attempts SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark attempt synced: %w", err)
	}
	return nil
}

func (r *attemptRepo) BySession(ctx context.Context, sessionID string) ([]AttemptRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, question_id, selected, correct, time_ms, submitted_at, synced
		 FROM attempts WHERE session_id = ? ORDER BY submitted_at`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		var a AttemptRecord
		var correct, synced int
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.Selected, &correct, &a.TimeMs, &a.SubmittedAt, &synced); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Correct = correct == 1
		a.Synced = synced == 1
		out = append(out, a)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
