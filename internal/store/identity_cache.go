package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CachedIdentity is the last identity that resolved to real history data.
// It is a last-resort candidate source for the resolver, never ground truth.
type CachedIdentity struct {
	Identity   string
	NumericID  string
	ResolvedAt time.Time
}

// IdentityCache persists the resolved identity across runs. Read at start,
// written on every successful resolution.
type IdentityCache interface {
	Get(ctx context.Context) (*CachedIdentity, error)
	Put(ctx context.Context, ci CachedIdentity) error
	Clear(ctx context.Context) error
}

type identityCache struct {
	db *sql.DB
}

func (c *identityCache) Get(ctx context.Context) (*CachedIdentity, error) {
	var ci CachedIdentity
	err := c.db.QueryRowContext(ctx,
		`SELECT identity, numeric_id, resolved_at FROM cached_identity WHERE id = 1`,
	).Scan(&ci.Identity, &ci.NumericID, &ci.ResolvedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached identity: %w", err)
	}
	return &ci, nil
}

func (c *identityCache) Put(ctx context.Context, ci CachedIdentity) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO cached_identity (id, identity, numeric_id, resolved_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			identity = excluded.identity,
			numeric_id = excluded.numeric_id,
			resolved_at = excluded.resolved_at`,
		ci.Identity, ci.NumericID, ci.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("write cached identity: %w", err)
	}
	return nil
}

func (c *identityCache) Clear(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cached_identity WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("clear cached identity: %w", err)
	}
	return nil
}
