// Package identity locates the backend record set that actually holds a
// student's data. The backend's identity scheme is inconsistent: display
// username, prefixed variants, and internal numeric ids all appear. The
// resolver probes an ordered candidate list and takes the first hit.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanmay/quizdeck/internal/api"
	"github.com/tanmay/quizdeck/internal/store"
)

// usernamePrefix is the institutional prefix some records carry.
const usernamePrefix = "student_"

// likelyUserIDs are numeric backend ids worth probing when no cached id
// exists. Single-tenant installs almost always start at 1.
var likelyUserIDs = []string{"1", "2", "3"}

var (
	// ErrNoIdentity is returned for empty or whitespace-only input, which
	// is rejected before any probe.
	ErrNoIdentity = errors.New("no student identity given")

	// ErrNoHistory aggregates the whole failed cascade into one condition.
	ErrNoHistory = errors.New("no history available for this student")
)

// Resolved is the first candidate that yielded non-empty history data,
// together with the history it yielded.
type Resolved struct {
	Identity string
	Sessions []api.HistorySession
}

// Prober is the backend check for "does this identity have history".
type Prober interface {
	GetHistory(ctx context.Context, identity string) ([]api.HistorySession, error)
}

// Resolver runs the candidate cascade and caches the outcome.
type Resolver struct {
	prober   Prober
	cache    store.IdentityCache
	log      zerolog.Logger
	resolved *Resolved
}

// NewResolver creates a resolver. cache may be nil when no local store is
// available.
func NewResolver(prober Prober, cache store.IdentityCache, log zerolog.Logger) *Resolver {
	return &Resolver{
		prober: prober,
		cache:  cache,
		log:    log.With().Str("component", "identity").Logger(),
	}
}

// Candidates builds the ordered probe list for a raw username: the raw
// value, the prefixed variant, the prefix-stripped variant, lowercase,
// uppercase, then numeric ids (cached local id first, then the fixed likely
// ids). Duplicates are dropped preserving first-seen order.
func Candidates(raw string, cachedID string) []string {
	raw = strings.TrimSpace(raw)
	var list []string
	if raw != "" {
		list = append(list,
			raw,
			usernamePrefix+raw,
			strings.TrimPrefix(raw, usernamePrefix),
			strings.ToLower(raw),
			strings.ToUpper(raw),
		)
	}
	if cachedID != "" {
		list = append(list, cachedID)
	}
	list = append(list, likelyUserIDs...)

	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, c := range list {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Resolve finds the identity with real data for rawUsername. The result is
// reused for the lifetime of the resolver; resolution is retried only after
// an outright failure.
func (r *Resolver) Resolve(ctx context.Context, rawUsername string) (*Resolved, error) {
	if r.resolved != nil {
		return r.resolved, nil
	}
	if strings.TrimSpace(rawUsername) == "" {
		return nil, ErrNoIdentity
	}

	var cachedID string
	if r.cache != nil {
		if ci, err := r.cache.Get(ctx); err == nil && ci != nil {
			cachedID = ci.NumericID
			if cachedID == "" {
				cachedID = ci.Identity
			}
		}
	}

	candidates := Candidates(rawUsername, cachedID)
	r.log.Debug().Strs("candidates", candidates).Msg("probing identity candidates")

	for _, cand := range candidates {
		sessions, err := r.prober.GetHistory(ctx, cand)
		if err != nil {
			// Individual probe failures are part of the cascade, not
			// user-facing errors.
			r.log.Debug().Err(err).Str("candidate", cand).Msg("probe failed")
			continue
		}
		if len(sessions) == 0 {
			continue
		}

		r.resolved = &Resolved{Identity: cand, Sessions: sessions}
		r.log.Info().Str("identity", cand).Int("sessions", len(sessions)).Msg("identity resolved")

		if r.cache != nil {
			ci := store.CachedIdentity{Identity: cand, ResolvedAt: time.Now()}
			if isNumeric(cand) {
				ci.NumericID = cand
			}
			if err := r.cache.Put(ctx, ci); err != nil {
				r.log.Warn().Err(err).Msg("persist resolved identity")
			}
		}
		return r.resolved, nil
	}

	return nil, fmt.Errorf("%w (tried %d candidates)", ErrNoHistory, len(candidates))
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
