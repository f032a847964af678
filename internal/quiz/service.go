package quiz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quiz-mastro/quizmastro/internal/activity"
	"github.com/quiz-mastro/quizmastro/internal/grading"
	"github.com/quiz-mastro/quizmastro/internal/roster"
)

var ErrInvalidDuration = errors.New("quiz: duration must be positive")

// Roster is the slice of the connection registry the quiz service needs:
// which students a teacher may see, and display names for dashboards.
type Roster interface {
	ConnectionsByTeacher(ctx context.Context, teacherID string) ([]roster.Connection, error)
	ConnectionsByStudent(ctx context.Context, studentID string) ([]roster.Connection, error)
	DisplayName(ctx context.Context, id string) string
}

// Service owns quiz lifecycle and grading semantics over a Store. One
// instance per process; construct explicitly (no package-level state).
type Service struct {
	store    Store
	roster   Roster
	log      *slog.Logger
	activity activity.Log
	now      func() time.Time
}

type ServiceOption func(*Service)

// WithClock substitutes the wall clock, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func WithActivityLog(l activity.Log) ServiceOption {
	return func(s *Service) { s.activity = l }
}

func NewService(store Store, r Roster, log *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		roster:   r,
		log:      log,
		activity: activity.NewMemoryLog(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ---------------- Teacher operations ----------------

// CreateQuiz assigns an identifier, forces the initial unpublished status
// and persists. Questions are taken as-is; option correctness is an
// authoring-time concern.
func (s *Service) CreateQuiz(ctx context.Context, q Quiz) (Quiz, error) {
	if q.DurationMin <= 0 {
		return Quiz{}, ErrInvalidDuration
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.Status = StatusUnpublished
	q.Grade = nil
	q.TeacherGraded = false
	if q.CreatedAt == 0 {
		q.CreatedAt = s.now().Unix()
	}
	if err := s.store.PutQuiz(ctx, q); err != nil {
		return Quiz{}, err
	}
	s.log.Info("quiz created", "quiz_id", q.ID, "teacher_id", q.TeacherID)
	return q, nil
}

// UpdateQuiz replaces an existing quiz definition. By convention questions
// are immutable once the quiz leaves unpublished; that convention is not
// enforced here.
func (s *Service) UpdateQuiz(ctx context.Context, q Quiz) (Quiz, error) {
	cur, err := s.store.GetQuiz(ctx, q.ID)
	if err != nil {
		return Quiz{}, err
	}
	if q.DurationMin <= 0 {
		return Quiz{}, ErrInvalidDuration
	}
	q.Status = cur.Status
	q.CreatedAt = cur.CreatedAt
	if err := s.store.PutQuiz(ctx, q); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

// Publish moves unpublished -> published; any other state is a no-op.
func (s *Service) Publish(ctx context.Context, quizID string) (Quiz, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return Quiz{}, err
	}
	if q.Status != StatusUnpublished {
		return q, nil
	}
	q.Status = StatusPublished
	if err := s.store.PutQuiz(ctx, q); err != nil {
		return Quiz{}, err
	}
	s.log.Info("quiz published", "quiz_id", q.ID)
	return q, nil
}

func (s *Service) GetQuiz(ctx context.Context, quizID string) (Quiz, error) {
	return s.store.GetQuiz(ctx, quizID)
}

func (s *Service) DeleteQuiz(ctx context.Context, quizID string) error {
	return s.store.DeleteQuiz(ctx, quizID)
}

// RefreshQuizStatus applies the time-driven published -> grading transition
// and queues every connected no-show for grading. Idempotent.
func (s *Service) RefreshQuizStatus(ctx context.Context, quizID string) error {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if q.Status != StatusPublished || !s.now().After(q.EndTime()) {
		return nil
	}
	q.Status = StatusGrading
	if err := s.store.PutQuiz(ctx, q); err != nil {
		return err
	}
	students, err := s.ConnectedStudents(ctx, q.ID)
	if err != nil {
		return err
	}
	for _, st := range students {
		if !st.HasSubmission {
			if err := s.SetGradingForStudent(ctx, q.ID, st.StudentID); err != nil {
				return err
			}
		}
	}
	s.log.Info("quiz moved to grading", "quiz_id", q.ID)
	return nil
}

// CheckCompletion applies grading -> finished once every connected student
// with a submission is teacher-graded. A quiz with zero submissions stays in
// grading; finished is never regressed.
func (s *Service) CheckCompletion(ctx context.Context, quizID string) error {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if q.Status != StatusGrading {
		return nil
	}
	conns, err := s.roster.ConnectionsByTeacher(ctx, q.TeacherID)
	if err != nil {
		return err
	}
	subs := make([]Submission, 0, len(conns))
	for _, c := range conns {
		sub, ok, err := s.store.GetSubmission(ctx, q.ID, c.StudentID)
		if err != nil {
			return err
		}
		if ok {
			subs = append(subs, sub)
		}
	}
	if !CompletionSatisfied(subs) {
		return nil
	}
	q.Status = StatusFinished
	if err := s.store.PutQuiz(ctx, q); err != nil {
		return err
	}
	s.log.Info("quiz finished", "quiz_id", q.ID)
	return nil
}

// CheckAllQuizStatuses sweeps every quiz through its automatic transitions.
func (s *Service) CheckAllQuizStatuses(ctx context.Context) error {
	quizzes, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return err
	}
	for _, q := range quizzes {
		switch q.Status {
		case StatusFinished:
			// terminal
		case StatusGrading:
			if err := s.CheckCompletion(ctx, q.ID); err != nil {
				return err
			}
		default:
			if err := s.RefreshQuizStatus(ctx, q.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// ---------------- Student operations ----------------

// StartQuiz stamps the attempt start time; repeated calls keep the first.
func (s *Service) StartQuiz(ctx context.Context, quizID, studentID string) error {
	sub, _, err := s.store.GetSubmission(ctx, quizID, studentID)
	if err != nil {
		return err
	}
	sub.QuizID, sub.StudentID = quizID, studentID
	if sub.StartedAt == nil {
		t := s.now()
		sub.StartedAt = &t
	}
	return s.store.PutSubmission(ctx, sub)
}

// RecordAnswer upserts a single answer during an attempt (autosave). It does
// not change submission status and is idempotent for equal values.
func (s *Service) RecordAnswer(ctx context.Context, quizID, studentID, questionID, answer string) error {
	sub, _, err := s.store.GetSubmission(ctx, quizID, studentID)
	if err != nil {
		return err
	}
	sub.QuizID, sub.StudentID = quizID, studentID
	if sub.Answers == nil {
		sub.Answers = map[string]string{}
	}
	sub.Answers[questionID] = answer
	return s.store.PutSubmission(ctx, sub)
}

// SubmitQuiz records the full answer map, stamps timing, marks the
// submission grading and rechecks the quiz-level status.
func (s *Service) SubmitQuiz(ctx context.Context, quizID, studentID string, answers map[string]string, timeSpentSec int) error {
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return err
	}
	sub, _, err := s.store.GetSubmission(ctx, quizID, studentID)
	if err != nil {
		return err
	}
	sub.QuizID, sub.StudentID = quizID, studentID
	sub.Answers = map[string]string{}
	for k, v := range answers {
		sub.Answers[k] = v
	}
	if sub.StartedAt == nil {
		t := s.now()
		sub.StartedAt = &t
	}
	if timeSpentSec > 0 {
		sub.TimeSpentSec = timeSpentSec
	}
	sub.Status = StatusGrading
	if err := s.store.PutSubmission(ctx, sub); err != nil {
		return err
	}
	s.log.Info("submission recorded", "quiz_id", quizID, "student_id", studentID)
	return s.RefreshQuizStatus(ctx, quizID)
}

// SetGradingForStudent stamps the explicit grading snapshot so a student
// with no submission still shows up in the grading queue. Only the status
// changes; a student who never started keeps a nil StartedAt.
func (s *Service) SetGradingForStudent(ctx context.Context, quizID, studentID string) error {
	sub, _, err := s.store.GetSubmission(ctx, quizID, studentID)
	if err != nil {
		return err
	}
	sub.QuizID, sub.StudentID = quizID, studentID
	sub.Status = StatusGrading
	return s.store.PutSubmission(ctx, sub)
}

func (s *Service) Submission(ctx context.Context, quizID, studentID string) (Submission, bool, error) {
	return s.store.GetSubmission(ctx, quizID, studentID)
}

// ---------------- Grading ----------------

// RecordGrade persists the total grade, flips the teacher-graded flag, sets
// the per-student status finished and rechecks quiz completion.
func (s *Service) RecordGrade(ctx context.Context, quizID, studentID string, total float64) error {
	sub, _, err := s.store.GetSubmission(ctx, quizID, studentID)
	if err != nil {
		return err
	}
	sub.QuizID, sub.StudentID = quizID, studentID
	sub.Grade = &total
	sub.TeacherGraded = true
	sub.Status = StatusFinished
	if err := s.store.PutSubmission(ctx, sub); err != nil {
		return err
	}
	_ = s.activity.Append(ctx, activity.TypeGradePosted, quizID+":"+studentID,
		map[string]any{"grade": total})
	s.log.Info("grade recorded", "quiz_id", quizID, "student_id", studentID, "grade", total)
	return s.CheckCompletion(ctx, quizID)
}

// ApplyGrades resolves per-question scores from the teacher's worksheet
// (manual overrides, written scores), saves the grading state and records
// the resulting total. Overrides are not clamped to the question's points.
func (s *Service) ApplyGrades(ctx context.Context, quizID, studentID string,
	manualScores, questionScores map[string]float64, explanations map[string]string) (float64, error) {

	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return 0, err
	}
	sub, _, err := s.store.GetSubmission(ctx, quizID, studentID)
	if err != nil {
		return 0, err
	}
	sub.QuizID, sub.StudentID = quizID, studentID
	sub.ManualScores = manualScores
	sub.QuestionScores = questionScores
	sub.Explanations = explanations

	total := 0.0
	resolved := map[string]float64{}
	for _, question := range q.Questions {
		score := grading.Score(gradingView(question), gradingEntry(question, sub))
		resolved[question.ID] = score
		total += score
	}
	sub.QuestionScores = resolved
	if err := s.store.PutSubmission(ctx, sub); err != nil {
		return 0, err
	}
	if err := s.RecordGrade(ctx, quizID, studentID, total); err != nil {
		return 0, err
	}
	return total, nil
}

// SaveGradingState stores the grading worksheet without recording a grade.
func (s *Service) SaveGradingState(ctx context.Context, quizID, studentID string,
	questionScores, manualScores map[string]float64, explanations map[string]string) error {

	sub, _, err := s.store.GetSubmission(ctx, quizID, studentID)
	if err != nil {
		return err
	}
	sub.QuizID, sub.StudentID = quizID, studentID
	sub.QuestionScores = questionScores
	sub.ManualScores = manualScores
	sub.Explanations = explanations
	return s.store.PutSubmission(ctx, sub)
}

// TotalScore resolves the current total for a student without persisting.
func (s *Service) TotalScore(ctx context.Context, quizID, studentID string) (float64, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return 0, err
	}
	sub, _, err := s.store.GetSubmission(ctx, quizID, studentID)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, question := range q.Questions {
		total += grading.Score(gradingView(question), gradingEntry(question, sub))
	}
	return total, nil
}

// TotalPoints is the quiz's maximum achievable score.
func TotalPoints(q Quiz) float64 {
	total := 0.0
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

func gradingView(q Question) grading.Q {
	return grading.Q{Type: q.Type, Points: q.Points, CorrectOption: q.CorrectOptionID()}
}

func gradingEntry(q Question, sub Submission) grading.Entry {
	return grading.Entry{
		Response: sub.Answers[q.ID],
		Manual:   sub.ManualScores[q.ID],
		Saved:    sub.QuestionScores[q.ID],
	}
}

// ---------------- Listings ----------------

// QuizzesForTeacher returns the teacher's own quizzes with derived statuses,
// running the automatic transitions as a side effect of the read, the same
// way the dashboards do.
func (s *Service) QuizzesForTeacher(ctx context.Context, teacherID string) ([]Quiz, error) {
	quizzes, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		if q.TeacherID != teacherID {
			continue
		}
		if q.Status == StatusPublished && TeacherStatus(q, now) == StatusGrading {
			if err := s.RefreshQuizStatus(ctx, q.ID); err != nil {
				return nil, err
			}
			q, err = s.store.GetQuiz(ctx, q.ID)
			if err != nil {
				return nil, err
			}
		}
		if q.Status == StatusGrading {
			if err := s.CheckCompletion(ctx, q.ID); err != nil {
				return nil, err
			}
			q, err = s.store.GetQuiz(ctx, q.ID)
			if err != nil {
				return nil, err
			}
		}
		q.Status = TeacherStatus(q, now)
		out = append(out, q)
	}
	return out, nil
}

// QuizzesForStudent returns published quizzes from the student's connected
// teachers, with per-student derived status and grade.
func (s *Service) QuizzesForStudent(ctx context.Context, studentID string) ([]Quiz, error) {
	conns, err := s.roster.ConnectionsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	teachers := map[string]bool{}
	for _, c := range conns {
		teachers[c.TeacherID] = true
	}
	quizzes, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		if q.Status == StatusUnpublished || !teachers[q.TeacherID] {
			continue
		}
		sub, ok, err := s.store.GetSubmission(ctx, q.ID, studentID)
		if err != nil {
			return nil, err
		}
		var subPtr *Submission
		if ok {
			subPtr = &sub
		}
		q.Status = StudentStatus(q, subPtr, now)
		if ok {
			q.Grade = sub.Grade
		}
		out = append(out, q)
	}
	return out, nil
}

// StudentQuizView is a quiz merged with one student's submission, for the
// attempt and review screens.
type StudentQuizView struct {
	Quiz
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	TimeSpentSec int               `json:"time_spent_sec,omitempty"`
	Answers      map[string]string `json:"answers,omitempty"`
}

func (s *Service) StudentQuizData(ctx context.Context, quizID, studentID string) (StudentQuizView, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return StudentQuizView{}, err
	}
	view := StudentQuizView{Quiz: q}
	sub, ok, err := s.store.GetSubmission(ctx, quizID, studentID)
	if err != nil {
		return StudentQuizView{}, err
	}
	var subPtr *Submission
	if ok {
		subPtr = &sub
		view.StartedAt = sub.StartedAt
		view.TimeSpentSec = sub.TimeSpentSec
		view.Answers = sub.Answers
		view.Grade = sub.Grade
	}
	view.Status = StudentStatus(q, subPtr, s.now())
	return view, nil
}

// ConnectedStudent is one roster row for a quiz's grading views.
type ConnectedStudent struct {
	StudentID     string `json:"student_id"`
	Name          string `json:"name"`
	Status        Status `json:"status"`
	HasSubmission bool   `json:"has_submission"`
}

// GradingRow extends ConnectedStudent with grade roll-ups.
type GradingRow struct {
	ConnectedStudent
	IsGraded    bool    `json:"is_graded"`
	Grade       float64 `json:"grade"`
	TotalPoints float64 `json:"total_points"`
	Percentage  int     `json:"percentage"`
}

// ConnectedStudents lists every student connected to the quiz's teacher with
// derived status and submission presence. Once the quiz is in grading,
// expired no-shows read as grading so they appear in the queue.
func (s *Service) ConnectedStudents(ctx context.Context, quizID string) ([]ConnectedStudent, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	conns, err := s.roster.ConnectionsByTeacher(ctx, q.TeacherID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	seen := map[string]bool{}
	out := make([]ConnectedStudent, 0, len(conns))
	for _, c := range conns {
		if seen[c.StudentID] {
			continue
		}
		seen[c.StudentID] = true
		sub, ok, err := s.store.GetSubmission(ctx, q.ID, c.StudentID)
		if err != nil {
			return nil, err
		}
		var subPtr *Submission
		if ok {
			subPtr = &sub
		}
		status := StudentStatus(q, subPtr, now)
		hasSub := ok && sub.HasAnswers()
		if q.Status == StatusGrading && now.After(q.EndTime()) && !hasSub && !(ok && sub.Graded()) {
			status = StatusGrading
		}
		out = append(out, ConnectedStudent{
			StudentID:     c.StudentID,
			Name:          s.roster.DisplayName(ctx, c.StudentID),
			Status:        status,
			HasSubmission: hasSub,
		})
	}
	return out, nil
}

// StudentsForGrading is the detailed grading view: status, submission
// presence, graded flag and grade roll-up per connected student.
func (s *Service) StudentsForGrading(ctx context.Context, quizID string) ([]GradingRow, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	students, err := s.ConnectedStudents(ctx, quizID)
	if err != nil {
		return nil, err
	}
	totalPoints := TotalPoints(q)
	out := make([]GradingRow, 0, len(students))
	for _, st := range students {
		row := GradingRow{ConnectedStudent: st, TotalPoints: totalPoints}
		sub, ok, err := s.store.GetSubmission(ctx, q.ID, st.StudentID)
		if err != nil {
			return nil, err
		}
		if ok {
			row.IsGraded = sub.TeacherGraded
			if sub.Grade != nil {
				row.Grade = *sub.Grade
			}
		}
		row.Percentage = grading.Percentage(row.Grade, totalPoints)
		out = append(out, row)
	}
	return out, nil
}

// GradingQueue lists connected students whose submissions carry the grading
// snapshot, i.e. work waiting for the teacher.
func (s *Service) GradingQueue(ctx context.Context, quizID string) ([]ConnectedStudent, error) {
	students, err := s.ConnectedStudents(ctx, quizID)
	if err != nil {
		return nil, err
	}
	out := make([]ConnectedStudent, 0, len(students))
	for _, st := range students {
		sub, ok, err := s.store.GetSubmission(ctx, quizID, st.StudentID)
		if err != nil {
			return nil, err
		}
		if ok && sub.Status == StatusGrading {
			out = append(out, st)
		}
	}
	return out, nil
}
