package identity

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tanmay/quizdeck/internal/api"
	"github.com/tanmay/quizdeck/internal/store"
)

// fakeProber returns canned history per identity and records the probe
// order.
type fakeProber struct {
	data   map[string][]api.HistorySession
	errs   map[string]error
	probed []string
}

func (f *fakeProber) GetHistory(_ context.Context, identity string) ([]api.HistorySession, error) {
	f.probed = append(f.probed, identity)
	if err := f.errs[identity]; err != nil {
		return nil, err
	}
	return f.data[identity], nil
}

// memCache is an in-memory store.IdentityCache.
type memCache struct {
	ci *store.CachedIdentity
}

func (m *memCache) Get(_ context.Context) (*store.CachedIdentity, error) { return m.ci, nil }
func (m *memCache) Put(_ context.Context, ci store.CachedIdentity) error {
	m.ci = &ci
	return nil
}
func (m *memCache) Clear(_ context.Context) error {
	m.ci = nil
	return nil
}

func TestCandidates_Order(t *testing.T) {
	got := Candidates("Anita", "42")
	want := []string{"Anita", "student_Anita", "anita", "ANITA", "42", "1", "2", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates = %v, want %v", got, want)
	}
}

func TestCandidates_StripsPrefix(t *testing.T) {
	got := Candidates("student_rahul", "")
	want := []string{"student_rahul", "student_student_rahul", "rahul", "1", "2", "3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Candidates = %v, want %v", got, want)
	}
}

func TestResolve_BlankRejected(t *testing.T) {
	r := NewResolver(&fakeProber{}, nil, zerolog.Nop())
	_, err := r.Resolve(context.Background(), "   ")
	if !errors.Is(err, ErrNoIdentity) {
		t.Errorf("err = %v, want ErrNoIdentity", err)
	}
}

func TestResolve_LaterCandidateWins(t *testing.T) {
	p := &fakeProber{
		data: map[string][]api.HistorySession{
			"2": {{SessionID: "s1"}},
		},
		errs: map[string]error{
			"anita": errors.New("boom"),
		},
	}
	r := NewResolver(p, nil, zerolog.Nop())

	res, err := r.Resolve(context.Background(), "anita")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Identity != "2" {
		t.Errorf("Identity = %q, want %q", res.Identity, "2")
	}
	if len(res.Sessions) != 1 {
		t.Errorf("Sessions = %d, want 1", len(res.Sessions))
	}
}

func TestResolve_EmptyHistoryIsNotAHit(t *testing.T) {
	p := &fakeProber{
		data: map[string][]api.HistorySession{
			"anita": {}, // exists but empty; cascade must continue
			"1":     {{SessionID: "s1"}},
		},
	}
	r := NewResolver(p, nil, zerolog.Nop())

	res, err := r.Resolve(context.Background(), "anita")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Identity != "1" {
		t.Errorf("Identity = %q, want %q", res.Identity, "1")
	}
}

func TestResolve_AllFail(t *testing.T) {
	r := NewResolver(&fakeProber{}, nil, zerolog.Nop())
	_, err := r.Resolve(context.Background(), "ghost")
	if !errors.Is(err, ErrNoHistory) {
		t.Errorf("err = %v, want ErrNoHistory", err)
	}
}

func TestResolve_CachesResult(t *testing.T) {
	cache := &memCache{}
	p := &fakeProber{
		data: map[string][]api.HistorySession{
			"3": {{SessionID: "s1"}},
		},
	}
	r := NewResolver(p, cache, zerolog.Nop())

	if _, err := r.Resolve(context.Background(), "anita"); err != nil {
		t.Fatal(err)
	}
	if cache.ci == nil || cache.ci.Identity != "3" {
		t.Fatalf("cache = %+v, want identity 3", cache.ci)
	}
	if cache.ci.NumericID != "3" {
		t.Errorf("NumericID = %q, want 3", cache.ci.NumericID)
	}

	// A second call reuses the in-memory result, no new probes.
	probes := len(p.probed)
	if _, err := r.Resolve(context.Background(), "anita"); err != nil {
		t.Fatal(err)
	}
	if len(p.probed) != probes {
		t.Errorf("re-resolve probed the backend again (%d -> %d)", probes, len(p.probed))
	}
}

func TestResolve_CachedIDProbedBeforeLikelyIDs(t *testing.T) {
	cache := &memCache{ci: &store.CachedIdentity{Identity: "4", NumericID: "4"}}
	p := &fakeProber{
		data: map[string][]api.HistorySession{
			"4": {{SessionID: "s1"}},
			"1": {{SessionID: "s2"}},
		},
	}
	r := NewResolver(p, cache, zerolog.Nop())

	res, err := r.Resolve(context.Background(), "someone")
	if err != nil {
		t.Fatal(err)
	}
	if res.Identity != "4" {
		t.Errorf("Identity = %q, want cached id 4", res.Identity)
	}
}
