package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SessionRecord is one row of the local session log.
type SessionRecord struct {
	SessionID    string
	Subject      string
	Adaptive     bool
	Status       string
	StartedAt    time.Time
	EndedAt      *time.Time
	Attempted    int
	Correct      int
	DurationSecs int
}

// SessionLog records session starts and outcomes locally, so the results
// listing works even when the backend history is unreachable.
type SessionLog interface {
	Start(ctx context.Context, rec SessionRecord) error
	Finish(ctx context.Context, sessionID, status string, attempted, correct, durationSecs int) error
	Recent(ctx context.Context, limit int) ([]SessionRecord, error)
}

type sessionLog struct {
	db *sql.DB
}

func (l *sessionLog) Start(ctx context.Context, rec SessionRecord) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO session_log (session_id, subject, adaptive, status, started_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (session_id) DO NOTHING`,
		rec.SessionID, rec.Subject, boolInt(rec.Adaptive), rec.Status, rec.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("log session start: %w", err)
	}
	return nil
}

func (l *sessionLog) Finish(ctx context.Context, sessionID, status string, attempted, correct, durationSecs int) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE session_log
		 SET status = ?, ended_at = ?, attempted = ?, correct = ?, duration_secs = ?
		 WHERE session_id = ?`,
		status, time.Now(), attempted, correct, durationSecs, sessionID,
	)
	if err != nil {
		return fmt.Errorf("log session finish: %w", err)
	}
	return nil
}

func (l *sessionLog) Recent(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT session_id, subject, adaptive, status, started_at, ended_at, attempted, correct, duration_secs
		 FROM session_log ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query session log: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var adaptive int
		var ended sql.NullTime
		if err := rows.Scan(&rec.SessionID, &rec.Subject, &adaptive, &rec.Status, &rec.StartedAt, &ended, &rec.Attempted, &rec.Correct, &rec.DurationSecs); err != nil {
			return nil, fmt.Errorf("scan session record: %w", err)
		}
		rec.Adaptive = adaptive == 1
		if ended.Valid {
			t := ended.Time
			rec.EndedAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
