package quiz

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiz-mastro/quizmastro/internal/storage"
)

func TestBlobStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemKV()
	s, err := NewBlobStore(kv)
	require.NoError(t, err)

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	started := start.Add(2 * time.Minute)
	grade := 18.0
	require.NoError(t, s.PutQuiz(ctx, Quiz{
		ID: "q1", TeacherID: "t1", Title: "Algebra", DurationMin: 45, StartTime: start,
		Status: StatusPublished,
		Questions: []Question{
			{ID: "qq", Type: TypeMCQ, Points: 10, Options: []Option{{ID: "o1", IsCorrect: true}}},
		},
	}))
	require.NoError(t, s.PutSubmission(ctx, Submission{
		QuizID: "q1", StudentID: "s1",
		StartedAt: &started, TimeSpentSec: 600,
		Answers: map[string]string{"qq": "o1"},
		Status:  StatusGrading, Grade: &grade, TeacherGraded: true,
		ManualScores:   map[string]float64{"qq": 8},
		QuestionScores: map[string]float64{"qq": 8},
		Explanations:   map[string]string{"qq": "partial credit"},
	}))

	// A fresh store hydrated from the same KV sees identical data,
	// timestamps included.
	s2, err := NewBlobStore(kv)
	require.NoError(t, err)

	q, err := s2.GetQuiz(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "Algebra", q.Title)
	assert.True(t, q.StartTime.Equal(start))

	sub, ok, err := s2.GetSubmission(ctx, "q1", "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, sub.StartedAt)
	assert.True(t, sub.StartedAt.Equal(started))
	assert.Equal(t, map[string]string{"qq": "o1"}, sub.Answers)
	require.NotNil(t, sub.Grade)
	assert.Equal(t, 18.0, *sub.Grade)
	assert.Equal(t, map[string]float64{"qq": 8}, sub.ManualScores)
	assert.Equal(t, "partial credit", sub.Explanations["qq"])
}

func TestBlobStoreSplitsGradingKey(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemKV()
	s, err := NewBlobStore(kv)
	require.NoError(t, err)

	require.NoError(t, s.PutSubmission(ctx, Submission{
		QuizID: "q1", StudentID: "s1",
		Answers:      map[string]string{"qq": "text"},
		ManualScores: map[string]float64{"qq": 5},
	}))

	// The grading worksheet lives under its own key, not inside the
	// submissions document.
	subsRaw, ok, err := kv.Get("quiz_submissions")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(subsRaw), "manual_scores")

	gradeRaw, ok, err := kv.Get("quiz_grading_state")
	require.NoError(t, err)
	require.True(t, ok)
	var state map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(gradeRaw, &state))
	assert.Contains(t, state["q1"], "s1")
}

func TestBlobStoreResetsCorruptCollections(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemKV()
	require.NoError(t, kv.Set("quizzes", []byte("{not json")))
	require.NoError(t, kv.Set("quiz_submissions", []byte("also broken")))

	s, err := NewBlobStore(kv)
	require.NoError(t, err)

	quizzes, err := s.ListQuizzes(ctx)
	require.NoError(t, err)
	assert.Empty(t, quizzes)

	_, ok, err := s.GetSubmission(ctx, "q1", "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	// The store is writable after a reset.
	require.NoError(t, s.PutQuiz(ctx, Quiz{ID: "q1", DurationMin: 5}))
	q, err := s.GetQuiz(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "q1", q.ID)
}

func TestBlobStoreDeleteOrphansSubmissions(t *testing.T) {
	ctx := context.Background()
	s, err := NewBlobStore(storage.NewMemKV())
	require.NoError(t, err)

	require.NoError(t, s.PutQuiz(ctx, Quiz{ID: "q1", DurationMin: 5}))
	require.NoError(t, s.PutSubmission(ctx, Submission{QuizID: "q1", StudentID: "s1", Answers: map[string]string{"a": "b"}}))
	require.NoError(t, s.DeleteQuiz(ctx, "q1"))

	_, err = s.GetQuiz(ctx, "q1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, ok, err := s.GetSubmission(ctx, "q1", "s1")
	require.NoError(t, err)
	assert.True(t, ok)
}
