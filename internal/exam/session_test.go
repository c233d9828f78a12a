package exam

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func testSession(total int) *Session {
	return NewSession("sess-1", "student_1", "physics", total, 10*time.Minute, true)
}

func TestRecordAttempt_RejectsDuplicates(t *testing.T) {
	s := testSession(5)

	if err := s.RecordAttempt(AnswerAttempt{QuestionID: "q1", Correct: true}); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	err := s.RecordAttempt(AnswerAttempt{QuestionID: "q1"})
	if !errors.Is(err, ErrDuplicateAttempt) {
		t.Errorf("err = %v, want ErrDuplicateAttempt", err)
	}
	if s.Attempted() != 1 {
		t.Errorf("Attempted = %d, want 1", s.Attempted())
	}
	if s.Correct != 1 {
		t.Errorf("Correct = %d, want 1", s.Correct)
	}
}

func TestRecordAttempt_EnforcesBudget(t *testing.T) {
	s := testSession(2)
	for i := 0; i < 2; i++ {
		if err := s.RecordAttempt(AnswerAttempt{QuestionID: fmt.Sprintf("q%d", i)}); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	err := s.RecordAttempt(AnswerAttempt{QuestionID: "q9"})
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Errorf("err = %v, want ErrBudgetExhausted", err)
	}
}

func TestApplyFeedback_CompletesOnBudget(t *testing.T) {
	s := testSession(1)
	if err := s.RecordAttempt(AnswerAttempt{QuestionID: "q1", Correct: true}); err != nil {
		t.Fatal(err)
	}
	done := s.ApplyFeedback(Feedback{Correct: true, Mastery: 0.6, NextDifficulty: 4})
	if !done {
		t.Fatal("expected completion at budget")
	}
	if s.Status != StatusCompleted {
		t.Errorf("Status = %v, want completed", s.Status)
	}
	if s.Mastery != 0.6 || s.NextDiff != 4 {
		t.Errorf("adaptation not applied: mastery=%v next=%d", s.Mastery, s.NextDiff)
	}
}

func TestApplyFeedback_BackendComplete(t *testing.T) {
	s := testSession(10)
	if err := s.RecordAttempt(AnswerAttempt{QuestionID: "q1"}); err != nil {
		t.Fatal(err)
	}
	if done := s.ApplyFeedback(Feedback{SessionComplete: true}); !done {
		t.Error("backend completion ignored")
	}
}

func TestApplyFeedback_DegradedSkipsAdaptation(t *testing.T) {
	s := testSession(10)
	s.Mastery = 0.5
	s.NextDiff = 3

	s.ApplyFeedback(Feedback{Degraded: true, Mastery: 0, NextDifficulty: 1})
	if s.Mastery != 0.5 || s.NextDiff != 3 {
		t.Errorf("degraded feedback mutated adaptation: mastery=%v next=%d", s.Mastery, s.NextDiff)
	}
}

func TestApplyFeedback_ClampsDifficulty(t *testing.T) {
	s := testSession(10)
	s.ApplyFeedback(Feedback{NextDifficulty: 9})
	if s.NextDiff != DifficultyNeutral {
		t.Errorf("NextDiff = %d, want unchanged neutral", s.NextDiff)
	}
}

func TestMarkFinalSent_OneShot(t *testing.T) {
	s := testSession(5)
	if !s.MarkFinalSent() {
		t.Fatal("first MarkFinalSent must return true")
	}
	if s.MarkFinalSent() {
		t.Error("second MarkFinalSent must return false")
	}
	if !s.FinalSent() {
		t.Error("FinalSent should report true")
	}
}

func TestScore(t *testing.T) {
	s := testSession(10)
	if s.Score() != 0 {
		t.Errorf("empty Score = %v, want 0", s.Score())
	}
	s.RecordAttempt(AnswerAttempt{QuestionID: "q1", Correct: true})
	s.RecordAttempt(AnswerAttempt{QuestionID: "q2"})
	s.RecordAttempt(AnswerAttempt{QuestionID: "q3", Correct: true})
	s.RecordAttempt(AnswerAttempt{QuestionID: "q4"})
	if s.Score() != 0.5 {
		t.Errorf("Score = %v, want 0.5", s.Score())
	}
}

func TestBuildSummary_CountsUnsynced(t *testing.T) {
	s := testSession(4)
	s.RecordAttempt(AnswerAttempt{QuestionID: "q1", Correct: true, Synced: true})
	s.RecordAttempt(AnswerAttempt{QuestionID: "q2", Synced: false})
	s.RecordAttempt(AnswerAttempt{QuestionID: "q3", Correct: true, Synced: false})
	s.Status = StatusExpired

	sum := BuildSummary(s, 7*time.Minute)
	if sum.Unsynced != 2 {
		t.Errorf("Unsynced = %d, want 2", sum.Unsynced)
	}
	if sum.Attempted != 3 || sum.Correct != 2 {
		t.Errorf("Attempted/Correct = %d/%d, want 3/2", sum.Attempted, sum.Correct)
	}
	if sum.Status != StatusExpired {
		t.Errorf("Status = %v, want expired", sum.Status)
	}
}

func TestStatusTerminal(t *testing.T) {
	for _, tc := range []struct {
		status Status
		want   bool
	}{
		{StatusInitializing, false},
		{StatusActive, false},
		{StatusPaused, false},
		{StatusExpired, true},
		{StatusCompleted, true},
		{StatusError, true},
	} {
		if got := tc.status.Terminal(); got != tc.want {
			t.Errorf("%v.Terminal() = %v, want %v", tc.status, got, tc.want)
		}
	}
}
