package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// OptionList is an ordered list of answer options. The backend is not
// consistent about representation: some endpoints send an indexed array of
// strings, some an array of {id, text} objects, some a keyed object, and
// some omit the field entirely. All shapes decode into the same ordered list.
type OptionList []OptionItem

// OptionItem is one normalized answer option.
type OptionItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (ol *OptionList) UnmarshalJSON(data []byte) error {
	// Array of objects or array of strings.
	var rawItems []json.RawMessage
	if err := json.Unmarshal(data, &rawItems); err == nil {
		items := make(OptionList, 0, len(rawItems))
		for i, raw := range rawItems {
			var obj OptionItem
			if err := json.Unmarshal(raw, &obj); err == nil && (obj.ID != "" || obj.Text != "") {
				if obj.ID == "" {
					obj.ID = indexID(i)
				}
				items = append(items, obj)
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("option %d: unsupported shape", i)
			}
			items = append(items, OptionItem{ID: indexID(i), Text: s})
		}
		*ol = items
		return nil
	}

	// Keyed object: {"a": "...", "b": "..."}. Key order is not preserved by
	// JSON, so sort keys for a deterministic option order.
	var keyed map[string]string
	if err := json.Unmarshal(data, &keyed); err != nil {
		return fmt.Errorf("options: unsupported shape: %w", err)
	}
	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	items := make(OptionList, 0, len(keys))
	for _, k := range keys {
		items = append(items, OptionItem{ID: k, Text: keyed[k]})
	}
	*ol = items
	return nil
}

// indexID maps array positions to the conventional a/b/c option ids.
func indexID(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return strconv.Itoa(i)
}

// SessionInfo is the response to session creation.
type SessionInfo struct {
	SessionID       string `json:"session_id"`
	TotalQuestions  int    `json:"total_questions"`
	DurationMinutes int    `json:"duration_minutes"`
}

// CreateSessionRequest configures a new session.
type CreateSessionRequest struct {
	StudentID string `json:"student_id"`
	Subject   string `json:"subject"`
	Questions int    `json:"question_count,omitempty"`
	Minutes   int    `json:"time_limit_minutes,omitempty"`
	Adaptive  bool   `json:"adaptive"`
}

// QuestionPayload is the next-question response. Complete marks budget
// exhaustion, a normal terminal outcome distinct from an error.
type QuestionPayload struct {
	Complete       bool       `json:"session_complete"`
	QuestionID     string     `json:"question_id"`
	Text           string     `json:"question_text"`
	Options        OptionList `json:"options"`
	Difficulty     int        `json:"difficulty"` // 0 when absent
	Topic          string     `json:"chapter"`    // may be absent
	QuestionNumber int        `json:"question_number"`
	TotalQuestions int        `json:"total_questions"`
}

// SubmitRequest posts one answer.
type SubmitRequest struct {
	SessionID        string `json:"session_id"`
	QuestionID       string `json:"question_id"`
	Answer           string `json:"answer"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

// FeedbackPayload is the adaptation feedback for one submission.
type FeedbackPayload struct {
	Correct         bool    `json:"is_correct"`
	Explanation     string  `json:"explanation"`
	CorrectOption   string  `json:"correct_answer"`
	Mastery         float64 `json:"updated_mastery"`
	NextDifficulty  int     `json:"next_difficulty"`
	SessionComplete bool    `json:"session_complete"`
}

// FinalizeRequest ends a session. Forced marks a time-expiry auto-submit.
type FinalizeRequest struct {
	SessionID string  `json:"session_id"`
	Forced    bool    `json:"forced"`
	Attempted int     `json:"questions_attempted"`
	Score     float64 `json:"final_score"`
}

// FinalResult is the backend's scored outcome.
type FinalResult struct {
	FinalScore float64 `json:"final_score"`
	Grade      string  `json:"grade"`
}

// HistorySession is one row of a student's session history listing.
type HistorySession struct {
	SessionID       string  `json:"session_id"`
	Subject         string  `json:"subject"`
	StartedAt       string  `json:"started_at"`
	Attempted       int     `json:"questions_attempted"`
	Correct         int     `json:"questions_correct"`
	DurationSeconds int     `json:"duration_seconds"`
	Score           float64 `json:"score"`
	Adaptive        bool    `json:"adaptive"`
}

// AttemptDetail is one attempt row from a detail endpoint. Fields beyond
// the question id are frequently missing depending on the source.
type AttemptDetail struct {
	QuestionID       string     `json:"question_id"`
	QuestionText     string     `json:"question_text"`
	Options          OptionList `json:"options"`
	Selected         string     `json:"selected_option"`
	CorrectOption    string     `json:"correct_answer"`
	Correct          bool       `json:"is_correct"`
	Topic            string     `json:"chapter"`
	Difficulty       int        `json:"difficulty"`
	TimeSpentSeconds int        `json:"time_spent_seconds"`
}

// SessionDetail is the attempt-level payload shared by the assessment and
// adaptive detail endpoints. Either may omit the attempts array.
type SessionDetail struct {
	Session  HistorySession  `json:"session"`
	Attempts []AttemptDetail `json:"attempts"`
}
