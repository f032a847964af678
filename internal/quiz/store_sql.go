package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) error {
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quizzes (id, teacher_id, title, description, duration_min, start_time,
		                      status, questions_json, grade, teacher_graded, notes, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 ON CONFLICT (id) DO UPDATE SET
		   teacher_id=EXCLUDED.teacher_id, title=EXCLUDED.title, description=EXCLUDED.description,
		   duration_min=EXCLUDED.duration_min, start_time=EXCLUDED.start_time,
		   status=EXCLUDED.status, questions_json=EXCLUDED.questions_json,
		   grade=EXCLUDED.grade, teacher_graded=EXCLUDED.teacher_graded, notes=EXCLUDED.notes`,
		q.ID, q.TeacherID, q.Title, q.Description, q.DurationMin, q.StartTime.Unix(),
		string(q.Status), string(qj), q.Grade, q.TeacherGraded, q.Notes, q.CreatedAt)
	return err
}

const quizColumns = `id, teacher_id, title, description, duration_min, start_time,
	status, questions_json, grade, teacher_graded, notes, created_at`

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE id=$1`, id)
	q, err := scanQuiz(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Quiz{}, ErrNotFound
	}
	return q, err
}

func (s *SQLStore) ListQuizzes(ctx context.Context) ([]Quiz, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quizColumns+` FROM quizzes ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteQuiz(ctx context.Context, id string) error {
	// Submissions are left orphaned on purpose.
	_, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id=$1`, id)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanQuiz(row rowScanner) (Quiz, error) {
	var q Quiz
	var start int64
	var status, qjson string
	var grade sql.NullFloat64
	if err := row.Scan(&q.ID, &q.TeacherID, &q.Title, &q.Description, &q.DurationMin, &start,
		&status, &qjson, &grade, &q.TeacherGraded, &q.Notes, &q.CreatedAt); err != nil {
		return Quiz{}, err
	}
	q.StartTime = time.Unix(start, 0)
	q.Status = Status(status)
	if grade.Valid {
		v := grade.Float64
		q.Grade = &v
	}
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

func (s *SQLStore) GetSubmission(ctx context.Context, quizID, studentID string) (Submission, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+subColumns+` FROM submissions WHERE quiz_id=$1 AND student_id=$2`,
		quizID, studentID)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, false, nil
	}
	if err != nil {
		return Submission{}, false, err
	}
	return sub, true, nil
}

func (s *SQLStore) ListSubmissions(ctx context.Context, quizID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subColumns+` FROM submissions WHERE quiz_id=$1 ORDER BY student_id`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutSubmission(ctx context.Context, sub Submission) error {
	aj, err := json.Marshal(orEmptyMap(sub.Answers))
	if err != nil {
		return err
	}
	mj, _ := json.Marshal(orEmptyScores(sub.ManualScores))
	qj, _ := json.Marshal(orEmptyScores(sub.QuestionScores))
	ej, _ := json.Marshal(orEmptyMap(sub.Explanations))

	var started *int64
	if sub.StartedAt != nil {
		v := sub.StartedAt.Unix()
		started = &v
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (quiz_id, student_id, started_at, time_spent_sec, answers_json,
		                          status, grade, teacher_graded, manual_scores_json,
		                          question_scores_json, explanations_json)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 ON CONFLICT (quiz_id, student_id) DO UPDATE SET
		   started_at=EXCLUDED.started_at, time_spent_sec=EXCLUDED.time_spent_sec,
		   answers_json=EXCLUDED.answers_json, status=EXCLUDED.status, grade=EXCLUDED.grade,
		   teacher_graded=EXCLUDED.teacher_graded, manual_scores_json=EXCLUDED.manual_scores_json,
		   question_scores_json=EXCLUDED.question_scores_json, explanations_json=EXCLUDED.explanations_json`,
		sub.QuizID, sub.StudentID, started, sub.TimeSpentSec, string(aj),
		string(sub.Status), sub.Grade, sub.TeacherGraded, string(mj), string(qj), string(ej))
	return err
}

const subColumns = `quiz_id, student_id, started_at, time_spent_sec, answers_json,
	status, grade, teacher_graded, manual_scores_json, question_scores_json, explanations_json`

func scanSubmission(row rowScanner) (Submission, error) {
	var sub Submission
	var started sql.NullInt64
	var spent sql.NullInt64
	var status, aj, mj, qj, ej string
	var grade sql.NullFloat64
	if err := row.Scan(&sub.QuizID, &sub.StudentID, &started, &spent, &aj,
		&status, &grade, &sub.TeacherGraded, &mj, &qj, &ej); err != nil {
		return Submission{}, err
	}
	if started.Valid {
		t := time.Unix(started.Int64, 0)
		sub.StartedAt = &t
	}
	if spent.Valid {
		sub.TimeSpentSec = int(spent.Int64)
	}
	sub.Status = Status(status)
	if grade.Valid {
		v := grade.Float64
		sub.Grade = &v
	}
	if err := json.Unmarshal([]byte(aj), &sub.Answers); err != nil {
		sub.Answers = map[string]string{}
	}
	if err := json.Unmarshal([]byte(mj), &sub.ManualScores); err != nil {
		sub.ManualScores = map[string]float64{}
	}
	if err := json.Unmarshal([]byte(qj), &sub.QuestionScores); err != nil {
		sub.QuestionScores = map[string]float64{}
	}
	if err := json.Unmarshal([]byte(ej), &sub.Explanations); err != nil {
		sub.Explanations = map[string]string{}
	}
	return sub, nil
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func orEmptyScores(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
