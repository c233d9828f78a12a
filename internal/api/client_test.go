package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 0, zerolog.Nop())
}

func TestCreateSession(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sessions", r.URL.Path)

		var req CreateSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "student_1", req.StudentID)
		assert.True(t, req.Adaptive)

		json.NewEncoder(w).Encode(SessionInfo{
			SessionID:       "abc",
			TotalQuestions:  15,
			DurationMinutes: 10,
		})
	})

	info, err := c.CreateSession(context.Background(), CreateSessionRequest{
		StudentID: "student_1",
		Subject:   "physics",
		Adaptive:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "abc", info.SessionID)
	assert.Equal(t, 15, info.TotalQuestions)
}

func TestNextQuestion_Complete(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/abc/next", r.URL.Path)
		w.Write([]byte(`{"session_complete": true}`))
	})

	q, err := c.NextQuestion(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, q.Complete)
}

func TestSubmitAnswer(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/abc/answers", r.URL.Path)
		w.Write([]byte(`{"is_correct": true, "updated_mastery": 0.7, "next_difficulty": 4}`))
	})

	fb, err := c.SubmitAnswer(context.Background(), SubmitRequest{
		SessionID:  "abc",
		QuestionID: "q1",
		Answer:     "b",
	})
	require.NoError(t, err)
	assert.True(t, fb.Correct)
	assert.Equal(t, 0.7, fb.Mastery)
	assert.Equal(t, 4, fb.NextDifficulty)
}

func TestResumeSession_ReturnsRemaining(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/abc/resume", r.URL.Path)
		w.Write([]byte(`{"remaining_seconds": 312}`))
	})

	rem, err := c.ResumeSession(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 312, int(rem.Seconds()))
}

func TestGetHistory_EmptyIsNotError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/students/anita/history", r.URL.Path)
		w.Write([]byte(`{"sessions": []}`))
	})

	sessions, err := c.GetHistory(context.Background(), "anita")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such assessment", http.StatusNotFound)
	})

	_, err := c.GetAssessmentDetail(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestOptionList_Shapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want OptionList
	}{
		{
			name: "array of strings",
			in:   `["red", "blue"]`,
			want: OptionList{{ID: "a", Text: "red"}, {ID: "b", Text: "blue"}},
		},
		{
			name: "array of objects",
			in:   `[{"id": "x", "text": "red"}, {"id": "y", "text": "blue"}]`,
			want: OptionList{{ID: "x", Text: "red"}, {ID: "y", Text: "blue"}},
		},
		{
			name: "objects without ids get positional ids",
			in:   `[{"text": "red"}, {"text": "blue"}]`,
			want: OptionList{{ID: "a", Text: "red"}, {ID: "b", Text: "blue"}},
		},
		{
			name: "keyed object sorted by key",
			in:   `{"b": "blue", "a": "red"}`,
			want: OptionList{{ID: "a", Text: "red"}, {ID: "b", Text: "blue"}},
		},
		{
			name: "empty array",
			in:   `[]`,
			want: OptionList{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got OptionList
			require.NoError(t, json.Unmarshal([]byte(tc.in), &got))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOptionList_InsideQuestionPayload(t *testing.T) {
	raw := `{
		"question_id": "q1",
		"question_text": "Pick one",
		"options": {"a": "red", "b": "blue"},
		"difficulty": 2,
		"chapter": "colors",
		"question_number": 3,
		"total_questions": 15
	}`

	var p QuestionPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, "q1", p.QuestionID)
	assert.Equal(t, "colors", p.Topic)
	assert.Len(t, p.Options, 2)
	assert.False(t, p.Complete)
}
