package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanmay/quizdeck/internal/api"
	"github.com/tanmay/quizdeck/internal/exam"
	"github.com/tanmay/quizdeck/internal/store"
)

// fakeBackend implements api.SessionAPI with canned responses.
type fakeBackend struct {
	question  *api.QuestionPayload
	questionE error
	feedback  *api.FeedbackPayload
	feedbackE error
	submits   []api.SubmitRequest
}

func (f *fakeBackend) CreateSession(context.Context, api.CreateSessionRequest) (*api.SessionInfo, error) {
	return nil, errors.New("not used")
}
func (f *fakeBackend) PauseSession(context.Context, string) error { return nil }
func (f *fakeBackend) ResumeSession(context.Context, string) (time.Duration, error) {
	return 0, nil
}
func (f *fakeBackend) NextQuestion(context.Context, string) (*api.QuestionPayload, error) {
	return f.question, f.questionE
}
func (f *fakeBackend) SubmitAnswer(_ context.Context, req api.SubmitRequest) (*api.FeedbackPayload, error) {
	f.submits = append(f.submits, req)
	return f.feedback, f.feedbackE
}
func (f *fakeBackend) SubmitSession(context.Context, api.FinalizeRequest) (*api.FinalResult, error) {
	return nil, errors.New("not used")
}

// memAttempts records appended attempts in memory.
type memAttempts struct {
	recs []store.AttemptRecord
}

func (m *memAttempts) Append(_ context.Context, rec store.AttemptRecord) error {
	m.recs = append(m.recs, rec)
	return nil
}
func (m *memAttempts) MarkSynced(context.Context, string) error { return nil }
func (m *memAttempts) BySession(context.Context, string) ([]store.AttemptRecord, error) {
	return m.recs, nil
}

func TestFetchNext_Normalizes(t *testing.T) {
	backend := &fakeBackend{
		question: &api.QuestionPayload{
			QuestionID: "q1",
			Text:       "Pick one",
			Options:    api.OptionList{{ID: "a", Text: "red"}},
			Difficulty: 99, // out of range
			Topic:      "colors",
		},
	}
	c := NewQuestionClient(backend, zerolog.Nop())

	res, err := c.FetchNext(context.Background(), "s1")
	if err != nil {
		t.Fatalf("FetchNext: %v", err)
	}
	if res.Complete {
		t.Fatal("unexpected Complete")
	}
	if res.Question.Difficulty != exam.DifficultyNeutral {
		t.Errorf("Difficulty = %d, want neutral", res.Question.Difficulty)
	}
	if len(res.Question.Options) != 1 || res.Question.Options[0].ID != "a" {
		t.Errorf("Options = %+v", res.Question.Options)
	}
}

func TestFetchNext_Complete(t *testing.T) {
	backend := &fakeBackend{question: &api.QuestionPayload{Complete: true}}
	c := NewQuestionClient(backend, zerolog.Nop())

	res, err := c.FetchNext(context.Background(), "s1")
	if err != nil {
		t.Fatalf("FetchNext: %v", err)
	}
	if !res.Complete || res.Question != nil {
		t.Errorf("res = %+v, want Complete with no question", res)
	}
}

func TestFetchNext_MissingID(t *testing.T) {
	backend := &fakeBackend{question: &api.QuestionPayload{Text: "?"}}
	c := NewQuestionClient(backend, zerolog.Nop())

	if _, err := c.FetchNext(context.Background(), "s1"); err == nil {
		t.Error("expected error for payload without question id")
	}
}

func question() *exam.Question {
	return &exam.Question{
		ID:         "q1",
		Text:       "Pick one",
		Options:    []exam.Option{{ID: "a", Text: "red"}, {ID: "b", Text: "blue"}},
		Difficulty: 3,
	}
}

func TestSubmit_Success(t *testing.T) {
	backend := &fakeBackend{
		feedback: &api.FeedbackPayload{
			Correct:        true,
			Mastery:        0.8,
			NextDifficulty: 4,
			CorrectOption:  "a",
		},
	}
	attempts := &memAttempts{}
	p := NewPipeline(backend, attempts, zerolog.Nop())

	out := p.Submit(context.Background(), "s1", question(), "a", 9*time.Second)
	if !out.Feedback.Correct || out.Feedback.Degraded {
		t.Errorf("Feedback = %+v", out.Feedback)
	}
	if !out.Attempt.Synced || !out.Attempt.Correct {
		t.Errorf("Attempt = %+v, want synced and correct", out.Attempt)
	}
	if len(attempts.recs) != 1 || !attempts.recs[0].Synced {
		t.Errorf("local record = %+v", attempts.recs)
	}
	if got := backend.submits[0].TimeSpentSeconds; got != 9 {
		t.Errorf("TimeSpentSeconds = %d, want 9", got)
	}
}

func TestSubmit_DegradesOnNetworkFailure(t *testing.T) {
	backend := &fakeBackend{feedbackE: errors.New("connection refused")}
	attempts := &memAttempts{}
	p := NewPipeline(backend, attempts, zerolog.Nop())

	q := question()
	out := p.Submit(context.Background(), "s1", q, "b", time.Second)
	if !out.Feedback.Degraded {
		t.Fatal("expected degraded feedback")
	}
	if out.Feedback.NextDifficulty != q.Difficulty {
		t.Errorf("NextDifficulty = %d, want unchanged %d", out.Feedback.NextDifficulty, q.Difficulty)
	}
	if out.Attempt.Synced {
		t.Error("attempt must not be marked synced")
	}
	if len(attempts.recs) != 1 || attempts.recs[0].Synced {
		t.Errorf("local record = %+v, want unsynced row", attempts.recs)
	}
}

func TestPipeline_SingleInFlight(t *testing.T) {
	p := NewPipeline(&fakeBackend{}, nil, zerolog.Nop())

	if !p.TryAcquire() {
		t.Fatal("first acquire must succeed")
	}
	if p.TryAcquire() {
		t.Error("second acquire must fail while in flight")
	}
	p.Release()
	if !p.TryAcquire() {
		t.Error("acquire after release must succeed")
	}
}
