package quiz

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/quiz-mastro/quizmastro/internal/storage"
)

// Blob store keys. Whole collections are stored as single JSON values,
// dates as RFC 3339; grading worksheets live under their own key.
const (
	keyQuizzes      = "quizzes"
	keySubmissions  = "quiz_submissions"
	keyGradingState = "quiz_grading_state"
)

type gradingState struct {
	QuestionScores map[string]float64 `json:"question_scores"`
	ManualScores   map[string]float64 `json:"manual_scores"`
	Explanations   map[string]string  `json:"explanations,omitempty"`
}

type blobSubmission struct {
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	TimeSpentSec int               `json:"time_spent_sec,omitempty"`
	Answers      map[string]string `json:"answers,omitempty"`
	Status       Status            `json:"status,omitempty"`
	Grade        *float64          `json:"grade,omitempty"`
	TeacherGraded bool             `json:"teacher_graded,omitempty"`
}

// BlobStore keeps the collections in memory and rewrites the full affected
// collection to the KV store on every mutation; hydration happens once at
// construction. Corrupt stored JSON is treated as "no data" and resets the
// collection to empty.
type BlobStore struct {
	mu      sync.RWMutex
	kv      storage.KV
	quizzes []Quiz
	subs    map[string]map[string]blobSubmission // quizID -> studentID
	grading map[string]map[string]gradingState   // quizID -> studentID
}

func NewBlobStore(kv storage.KV) (*BlobStore, error) {
	s := &BlobStore{
		kv:      kv,
		subs:    map[string]map[string]blobSubmission{},
		grading: map[string]map[string]gradingState{},
	}
	if buf, ok, err := kv.Get(keyQuizzes); err != nil {
		return nil, err
	} else if ok {
		if json.Unmarshal(buf, &s.quizzes) != nil {
			s.quizzes = nil
		}
	}
	if buf, ok, err := kv.Get(keySubmissions); err != nil {
		return nil, err
	} else if ok {
		if json.Unmarshal(buf, &s.subs) != nil {
			s.subs = map[string]map[string]blobSubmission{}
		}
	}
	if buf, ok, err := kv.Get(keyGradingState); err != nil {
		return nil, err
	} else if ok {
		if json.Unmarshal(buf, &s.grading) != nil {
			s.grading = map[string]map[string]gradingState{}
		}
	}
	return s, nil
}

func (s *BlobStore) saveQuizzes() error {
	buf, err := json.Marshal(s.quizzes)
	if err != nil {
		return err
	}
	return s.kv.Set(keyQuizzes, buf)
}

func (s *BlobStore) saveSubmissions() error {
	buf, err := json.Marshal(s.subs)
	if err != nil {
		return err
	}
	if err := s.kv.Set(keySubmissions, buf); err != nil {
		return err
	}
	gbuf, err := json.Marshal(s.grading)
	if err != nil {
		return err
	}
	return s.kv.Set(keyGradingState, gbuf)
}

func (s *BlobStore) PutQuiz(_ context.Context, q Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.quizzes {
		if s.quizzes[i].ID == q.ID {
			s.quizzes[i] = q
			return s.saveQuizzes()
		}
	}
	s.quizzes = append(s.quizzes, q)
	return s.saveQuizzes()
}

func (s *BlobStore) GetQuiz(_ context.Context, id string) (Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.quizzes {
		if q.ID == id {
			return q, nil
		}
	}
	return Quiz{}, ErrNotFound
}

func (s *BlobStore) ListQuizzes(_ context.Context) ([]Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Quiz, len(s.quizzes))
	copy(out, s.quizzes)
	return out, nil
}

func (s *BlobStore) DeleteQuiz(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.quizzes[:0]
	for _, q := range s.quizzes {
		if q.ID != id {
			kept = append(kept, q)
		}
	}
	s.quizzes = kept
	// Submissions stay orphaned under the dangling quiz ID.
	return s.saveQuizzes()
}

func (s *BlobStore) GetSubmission(_ context.Context, quizID, studentID string) (Submission, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.subs[quizID][studentID]
	if !ok {
		return Submission{}, false, nil
	}
	return s.compose(quizID, studentID, b), true, nil
}

func (s *BlobStore) ListSubmissions(_ context.Context, quizID string) ([]Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byStudent := s.subs[quizID]
	out := make([]Submission, 0, len(byStudent))
	for sid, b := range byStudent {
		out = append(out, s.compose(quizID, sid, b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (s *BlobStore) PutSubmission(_ context.Context, sub Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[sub.QuizID] == nil {
		s.subs[sub.QuizID] = map[string]blobSubmission{}
	}
	s.subs[sub.QuizID][sub.StudentID] = blobSubmission{
		StartedAt:     sub.StartedAt,
		TimeSpentSec:  sub.TimeSpentSec,
		Answers:       sub.Answers,
		Status:        sub.Status,
		Grade:         sub.Grade,
		TeacherGraded: sub.TeacherGraded,
	}
	if len(sub.ManualScores) > 0 || len(sub.QuestionScores) > 0 || len(sub.Explanations) > 0 {
		if s.grading[sub.QuizID] == nil {
			s.grading[sub.QuizID] = map[string]gradingState{}
		}
		s.grading[sub.QuizID][sub.StudentID] = gradingState{
			QuestionScores: sub.QuestionScores,
			ManualScores:   sub.ManualScores,
			Explanations:   sub.Explanations,
		}
	}
	return s.saveSubmissions()
}

func (s *BlobStore) compose(quizID, studentID string, b blobSubmission) Submission {
	sub := Submission{
		QuizID:        quizID,
		StudentID:     studentID,
		StartedAt:     b.StartedAt,
		TimeSpentSec:  b.TimeSpentSec,
		Answers:       b.Answers,
		Status:        b.Status,
		Grade:         b.Grade,
		TeacherGraded: b.TeacherGraded,
	}
	if g, ok := s.grading[quizID][studentID]; ok {
		sub.QuestionScores = g.QuestionScores
		sub.ManualScores = g.ManualScores
		sub.Explanations = g.Explanations
	}
	return sub
}
