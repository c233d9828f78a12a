package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestIdentityCache_RoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	cache := st.IdentityCache()

	ci, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("Get on empty cache: %v", err)
	}
	if ci != nil {
		t.Fatalf("empty cache returned %+v", ci)
	}

	want := CachedIdentity{Identity: "student_anita", NumericID: "4", ResolvedAt: time.Now()}
	if err := cache.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := cache.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Identity != "student_anita" || got.NumericID != "4" {
		t.Errorf("Get = %+v", got)
	}

	// Put overwrites the single row.
	if err := cache.Put(ctx, CachedIdentity{Identity: "7", NumericID: "7", ResolvedAt: time.Now()}); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	got, _ = cache.Get(ctx)
	if got.Identity != "7" {
		t.Errorf("after overwrite = %+v", got)
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, _ = cache.Get(ctx)
	if got != nil {
		t.Errorf("after Clear = %+v, want nil", got)
	}
}

func TestAttempts_AppendAndQuery(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	repo := st.Attempts()

	now := time.Now()
	recs := []AttemptRecord{
		{ID: "a1", SessionID: "s1", QuestionID: "q1", Selected: "a", Correct: true, TimeMs: 4000, SubmittedAt: now.Add(-2 * time.Minute), Synced: true},
		{ID: "a2", SessionID: "s1", QuestionID: "q2", Selected: "c", TimeMs: 9000, SubmittedAt: now.Add(-time.Minute), Synced: false},
		{ID: "a3", SessionID: "s2", QuestionID: "q1", Selected: "b", TimeMs: 2000, SubmittedAt: now, Synced: true},
	}
	for _, rec := range recs {
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("Append %s: %v", rec.ID, err)
		}
	}

	got, err := repo.BySession(ctx, "s1")
	if err != nil {
		t.Fatalf("BySession: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("BySession = %d rows, want 2", len(got))
	}
	if got[1].Synced {
		t.Error("unsynced flag lost on round trip")
	}

	if err := repo.MarkSynced(ctx, "a2"); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	got, _ = repo.BySession(ctx, "s1")
	if !got[1].Synced {
		t.Error("MarkSynced had no effect")
	}
}

func TestSessionLog_StartFinishRecent(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	log := st.Sessions()

	start := time.Now().Add(-time.Hour)
	if err := log.Start(ctx, SessionRecord{
		SessionID: "s1", Subject: "physics", Adaptive: true, Status: "active", StartedAt: start,
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// A duplicate start is a no-op, not an error.
	if err := log.Start(ctx, SessionRecord{
		SessionID: "s1", Subject: "physics", Status: "active", StartedAt: start,
	}); err != nil {
		t.Fatalf("duplicate Start: %v", err)
	}

	if err := log.Finish(ctx, "s1", "completed", 12, 9, 540); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	recent, err := log.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("Recent = %d rows, want 1", len(recent))
	}
	rec := recent[0]
	if rec.Status != "completed" || rec.Attempted != 12 || rec.Correct != 9 || rec.DurationSecs != 540 {
		t.Errorf("record = %+v", rec)
	}
	if rec.EndedAt == nil {
		t.Error("EndedAt not recorded")
	}
	if !rec.Adaptive {
		t.Error("Adaptive flag lost")
	}
}
