package quiz

import (
	"context"
	"errors"
)

// ErrNotFound is returned for unknown quiz identifiers. Submissions are
// never "not found": reading an absent one yields a zero record, matching
// the upsert-on-first-touch lifecycle.
var ErrNotFound = errors.New("quiz: not found")

// Store persists quizzes and per-(quiz, student) submissions. Every mutation
// persists synchronously; there is no batching and a write failure surfaces
// as the returned error. Lifecycle semantics live in Service, not here.
type Store interface {
	PutQuiz(ctx context.Context, q Quiz) error
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	ListQuizzes(ctx context.Context) ([]Quiz, error)
	// DeleteQuiz removes the quiz only; its submissions are orphaned, not
	// purged, and stop resolving through the quiz ID.
	DeleteQuiz(ctx context.Context, id string) error

	// GetSubmission returns (zero Submission, false, nil) when the student
	// has no record yet.
	GetSubmission(ctx context.Context, quizID, studentID string) (Submission, bool, error)
	ListSubmissions(ctx context.Context, quizID string) ([]Submission, error)
	PutSubmission(ctx context.Context, s Submission) error
}
