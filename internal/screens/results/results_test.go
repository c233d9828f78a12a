package results

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanmay/quizdeck/internal/api"
	"github.com/tanmay/quizdeck/internal/identity"
	"github.com/tanmay/quizdeck/internal/router"
	"github.com/tanmay/quizdeck/internal/store"
)

// fakeProber serves scripted history for one identity and fails the rest.
type fakeProber struct {
	identity string
	sessions []api.HistorySession
}

func (f *fakeProber) GetHistory(_ context.Context, id string) ([]api.HistorySession, error) {
	if id == f.identity {
		return f.sessions, nil
	}
	return nil, errors.New("not found")
}

type failingProber struct{}

func (failingProber) GetHistory(context.Context, string) ([]api.HistorySession, error) {
	return nil, errors.New("connection refused")
}

// fakeLog is an in-memory SessionLog.
type fakeLog struct {
	recs []store.SessionRecord
}

func (f *fakeLog) Start(context.Context, store.SessionRecord) error { return nil }
func (f *fakeLog) Finish(context.Context, string, string, int, int, int) error {
	return nil
}
func (f *fakeLog) Recent(context.Context, int) ([]store.SessionRecord, error) {
	return f.recs, nil
}

func twoSessions() []api.HistorySession {
	return []api.HistorySession{
		{SessionID: "s1", Subject: "physics", Attempted: 10, Correct: 8, Score: 80},
		{SessionID: "s2", Subject: "algebra", Attempted: 15, Correct: 9, Score: 60},
	}
}

func TestListScreen_EmptyUsernamePromptsForInput(t *testing.T) {
	resolver := identity.NewResolver(&fakeProber{}, nil, zerolog.Nop())
	s := New("", resolver, nil, nil, zerolog.Nop())

	if s.phase != phaseInput {
		t.Fatalf("phase = %v, want input prompt", s.phase)
	}
}

func TestListScreen_ResolvesAndLists(t *testing.T) {
	prober := &fakeProber{identity: "anita", sessions: twoSessions()}
	resolver := identity.NewResolver(prober, nil, zerolog.Nop())
	s := New("anita", resolver, nil, nil, zerolog.Nop())

	msg := s.Init()()
	s.Update(msg)
	if s.phase != phaseRemote {
		t.Fatalf("phase = %v, want remote listing", s.phase)
	}
	if s.identity != "anita" || len(s.remote) != 2 {
		t.Errorf("identity = %q, rows = %d", s.identity, len(s.remote))
	}
}

func TestListScreen_FocusOpensDetail(t *testing.T) {
	prober := &fakeProber{identity: "anita", sessions: twoSessions()}
	resolver := identity.NewResolver(prober, nil, zerolog.Nop())
	s := New("anita", resolver, nil, nil, zerolog.Nop())
	s.Focus("s2")

	msg := s.Init()()
	_, cmd := s.Update(msg)
	if cmd == nil {
		t.Fatal("expected the detail push command")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatalf("got %T, want PushScreenMsg", cmd())
	}
	detail, ok := push.Screen.(*DetailScreen)
	if !ok || detail.row.SessionID != "s2" {
		t.Errorf("pushed screen = %+v, want detail for s2", push.Screen)
	}
	if s.cursor != 1 {
		t.Errorf("cursor = %d, want the focused row", s.cursor)
	}
}

func TestListScreen_FocusMissingStaysOnList(t *testing.T) {
	prober := &fakeProber{identity: "anita", sessions: twoSessions()}
	resolver := identity.NewResolver(prober, nil, zerolog.Nop())
	s := New("anita", resolver, nil, nil, zerolog.Nop())
	s.Focus("nope")

	msg := s.Init()()
	_, cmd := s.Update(msg)
	if cmd != nil {
		t.Error("missing focus id must not push a detail screen")
	}
	if s.phase != phaseRemote || s.notice == "" {
		t.Errorf("phase = %v, notice = %q, want listing with a notice", s.phase, s.notice)
	}
}

func TestListScreen_FallsBackToLocalLog(t *testing.T) {
	resolver := identity.NewResolver(failingProber{}, nil, zerolog.Nop())
	sessions := &fakeLog{recs: []store.SessionRecord{
		{SessionID: "s9", Subject: "physics", Status: "completed", StartedAt: time.Now(), Attempted: 5, Correct: 4},
	}}
	s := New("anita", resolver, nil, sessions, zerolog.Nop())

	msg := s.Init()()
	_, cmd := s.Update(msg)
	if cmd == nil {
		t.Fatal("expected the local fallback command")
	}
	s.Update(cmd())
	if s.phase != phaseLocal {
		t.Fatalf("phase = %v, want local listing", s.phase)
	}
	if len(s.local) != 1 || s.local[0].SessionID != "s9" {
		t.Errorf("local rows = %+v", s.local)
	}
	if s.notice == "" {
		t.Error("expected the fallback notice")
	}
}

func TestListScreen_NoLocalStoreReturnsToInput(t *testing.T) {
	resolver := identity.NewResolver(failingProber{}, nil, zerolog.Nop())
	s := New("anita", resolver, nil, nil, zerolog.Nop())

	msg := s.Init()()
	_, cmd := s.Update(msg)
	s.Update(cmd())
	if s.phase != phaseInput {
		t.Fatalf("phase = %v, want input prompt after full fallback", s.phase)
	}
}
