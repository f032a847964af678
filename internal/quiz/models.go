package quiz

import "time"

// Status covers both the teacher-facing lifecycle
// (unpublished/published/grading/finished) and the student-facing derived
// states (scheduled/active/expired plus grading/finished).
type Status string

const (
	StatusUnpublished Status = "unpublished"
	StatusPublished   Status = "published"
	StatusGrading     Status = "grading"
	StatusFinished    Status = "finished"

	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
)

const (
	TypeMCQ     = "mcq"
	TypeWritten = "written"
)

type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Type    string   `json:"type"` // mcq|written
	Points  float64  `json:"points"`
	Options []Option `json:"options,omitempty"` // mcq only
}

// CorrectOptionID returns the ID of the option flagged correct, or "".
// Authoring convention is exactly one correct option per MCQ; the first
// flagged one wins if that convention is violated.
func (q Question) CorrectOptionID() string {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o.ID
		}
	}
	return ""
}

type Quiz struct {
	ID          string     `json:"id"`
	TeacherID   string     `json:"teacher_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DurationMin int        `json:"duration_min"`
	StartTime   time.Time  `json:"start_time"`
	Questions   []Question `json:"questions"`
	Status      Status     `json:"status"`

	// Legacy single-grade fields, superseded by per-student submissions.
	Grade         *float64 `json:"grade,omitempty"`
	TeacherGraded bool     `json:"teacher_graded,omitempty"`

	Notes     string `json:"notes,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// EndTime is the close of the attempt window.
func (q Quiz) EndTime() time.Time {
	return q.StartTime.Add(time.Duration(q.DurationMin) * time.Minute)
}

// Submission is one student's record for one quiz: answers, timing, grade,
// and the grading worksheet (manual overrides, saved scores, explanations).
type Submission struct {
	QuizID    string `json:"quiz_id"`
	StudentID string `json:"student_id"`

	StartedAt    *time.Time        `json:"started_at,omitempty"`
	TimeSpentSec int               `json:"time_spent_sec,omitempty"`
	Answers      map[string]string `json:"answers,omitempty"` // questionID -> option ID or free text

	// Status is a snapshot stamped at submit time (or by the grading queue
	// for no-shows); reads derive the authoritative value from time+grade.
	Status        Status   `json:"status,omitempty"`
	Grade         *float64 `json:"grade,omitempty"`
	TeacherGraded bool     `json:"teacher_graded,omitempty"`

	ManualScores   map[string]float64 `json:"manual_scores,omitempty"`   // 0 means unset
	QuestionScores map[string]float64 `json:"question_scores,omitempty"` // saved written scores
	Explanations   map[string]string  `json:"explanations,omitempty"`
}

// HasAnswers reports whether the student actually submitted anything.
func (s Submission) HasAnswers() bool { return len(s.Answers) > 0 }

// Graded reports whether a grade has been recorded.
func (s Submission) Graded() bool { return s.Grade != nil }
