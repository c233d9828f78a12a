// Package history reconciles heterogeneous backend history records into one
// normalized detailed-result view.
package history

import (
	"fmt"
	"sort"
	"time"

	"github.com/tanmay/quizdeck/internal/api"
	"github.com/tanmay/quizdeck/internal/exam"
)

// AttemptView is one attempt merged with display-worthy question content.
// Synthesized marks placeholder rows built from aggregate counts; the UI
// must not present those as genuine per-question detail.
type AttemptView struct {
	QuestionID   string
	QuestionText string
	Options      []exam.Option
	Selected     string
	CorrectAns   string
	Correct      bool
	Topic        string
	Difficulty   int
	TimeSpent    time.Duration
	Synthesized  bool
}

// Stat is a correct/total pair with derived accuracy.
type Stat struct {
	Attempted int
	Correct   int
}

// Accuracy returns correct/attempted, or 0 for an empty stat.
func (s Stat) Accuracy() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Attempted)
}

// Analysis is the per-topic and per-difficulty performance breakdown.
type Analysis struct {
	Overall      Stat
	ByTopic      map[string]Stat
	ByDifficulty map[int]Stat
	Strengths    []string
	Improvements []string
}

// DetailedResult is the reconciled post-hoc record for one session.
type DetailedResult struct {
	Session         api.HistorySession
	Attempts        []AttemptView
	Analysis        Analysis
	Recommendations []string
	Source          string // which cascade step produced this
	Synthesized     bool   // true when attempts are placeholders
}

// Fixed threshold rules for deriving strengths, improvement areas and
// recommendations. Deterministic, never model-generated.
const (
	strengthAccuracy    = 0.75
	weaknessAccuracy    = 0.50
	minTopicSamples     = 2
	remediationAccuracy = 0.70
)

// Analyze computes the performance breakdown from attempt rows.
func Analyze(attempts []AttemptView) Analysis {
	a := Analysis{
		ByTopic:      make(map[string]Stat),
		ByDifficulty: make(map[int]Stat),
	}
	for _, at := range attempts {
		a.Overall.Attempted++
		topic := at.Topic
		if topic == "" {
			topic = "general"
		}
		ts := a.ByTopic[topic]
		ts.Attempted++
		ds := a.ByDifficulty[at.Difficulty]
		ds.Attempted++
		if at.Correct {
			a.Overall.Correct++
			ts.Correct++
			ds.Correct++
		}
		a.ByTopic[topic] = ts
		a.ByDifficulty[at.Difficulty] = ds
	}

	topics := make([]string, 0, len(a.ByTopic))
	for t := range a.ByTopic {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	for _, t := range topics {
		s := a.ByTopic[t]
		if s.Attempted < minTopicSamples {
			continue
		}
		switch {
		case s.Accuracy() >= strengthAccuracy:
			a.Strengths = append(a.Strengths, t)
		case s.Accuracy() < weaknessAccuracy:
			a.Improvements = append(a.Improvements, t)
		}
	}
	return a
}

// Recommend derives study recommendations from the analysis.
func Recommend(a Analysis) []string {
	var recs []string
	for _, t := range a.Improvements {
		recs = append(recs, fmt.Sprintf("Review %s: accuracy is %.0f%% across %d questions.",
			t, a.ByTopic[t].Accuracy()*100, a.ByTopic[t].Attempted))
	}
	if a.Overall.Attempted > 0 && a.Overall.Accuracy() < remediationAccuracy {
		recs = append(recs, "Overall accuracy is below 70%. Revisit the fundamentals before the next timed attempt.")
	}
	if len(recs) == 0 && a.Overall.Attempted > 0 {
		recs = append(recs, "Solid performance. Consider a harder difficulty mix next session.")
	}
	return recs
}
