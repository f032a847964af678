package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quiz-mastro/quizmastro/internal/auth"
	"github.com/quiz-mastro/quizmastro/internal/quiz"
	"github.com/quiz-mastro/quizmastro/internal/rbac"
	"github.com/quiz-mastro/quizmastro/internal/roster"
)

type optionPayload struct {
	ID        string `json:"id"`
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

type questionPayload struct {
	ID      string          `json:"id"`
	Text    string          `json:"text" validate:"required"`
	Type    string          `json:"type" validate:"required,oneof=mcq written"`
	Points  float64         `json:"points" validate:"gt=0"`
	Options []optionPayload `json:"options,omitempty" validate:"dive"`
}

type quizPayload struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description"`
	DurationMin int               `json:"duration_min" validate:"gt=0"`
	StartTime   time.Time         `json:"start_time" validate:"required"`
	Questions   []questionPayload `json:"questions" validate:"dive"`
	Notes       string            `json:"notes"`
}

func (p quizPayload) toQuiz(teacherID string) quiz.Quiz {
	q := quiz.Quiz{
		TeacherID:   teacherID,
		Title:       p.Title,
		Description: p.Description,
		DurationMin: p.DurationMin,
		StartTime:   p.StartTime,
		Notes:       p.Notes,
	}
	for _, qp := range p.Questions {
		question := quiz.Question{ID: qp.ID, Text: qp.Text, Type: qp.Type, Points: qp.Points}
		for _, op := range qp.Options {
			question.Options = append(question.Options, quiz.Option{
				ID: op.ID, Text: op.Text, IsCorrect: op.IsCorrect,
			})
		}
		q.Questions = append(q.Questions, question)
	}
	return q
}

// POST /quizzes
func CreateQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p quizPayload
		if err := decodeValid(r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "bad quiz: "+err.Error())
			return
		}
		q, err := svc.CreateQuiz(r.Context(), p.toQuiz(auth.SubjectFromContext(r.Context())))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// PUT /quizzes/{quizID}
func UpdateQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, ok := ownedQuiz(w, r, svc)
		if !ok {
			return
		}
		var p quizPayload
		if err := decodeValid(r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "bad quiz: "+err.Error())
			return
		}
		updated := p.toQuiz(q.TeacherID)
		updated.ID = q.ID
		out, err := svc.UpdateQuiz(r.Context(), updated)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /quizzes/{quizID}/publish
func PublishQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ownedQuiz(w, r, svc); !ok {
			return
		}
		q, err := svc.Publish(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// DELETE /quizzes/{quizID}
func DeleteQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ownedQuiz(w, r, svc); !ok {
			return
		}
		if err := svc.DeleteQuiz(r.Context(), chi.URLParam(r, "quizID")); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /quizzes. Role decides the view: teachers see their own with
// lifecycle statuses, students see published quizzes from connected
// teachers with per-student derived statuses.
func ListQuizzesHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sub := auth.SubjectFromContext(ctx)
		var (
			out []quiz.Quiz
			err error
		)
		switch rbac.RoleFromContext(ctx) {
		case roster.RoleTeacher:
			out, err = svc.QuizzesForTeacher(ctx, sub)
		case roster.RoleStudent:
			out, err = svc.QuizzesForStudent(ctx, sub)
			for i := range out {
				out[i].Questions = sanitizeQuestions(out[i].Questions)
			}
		default:
			err = errors.New("unsupported role for quiz listing")
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if out == nil {
			out = []quiz.Quiz{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /quizzes/{quizID}: answers are stripped for students.
func GetQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q, err := svc.GetQuiz(ctx, chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		if rbac.RoleFromContext(ctx) == roster.RoleStudent {
			q.Questions = sanitizeQuestions(q.Questions)
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// GET /quizzes/{quizID}/me: quiz merged with the caller's submission.
func StudentQuizDataHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		view, err := svc.StudentQuizData(ctx, chi.URLParam(r, "quizID"), auth.SubjectFromContext(ctx))
		if err != nil {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		// Correct answers stay visible only once the gradebook is closed.
		if view.Status != quiz.StatusFinished {
			view.Questions = sanitizeQuestions(view.Questions)
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func sanitizeQuestions(qs []quiz.Question) []quiz.Question {
	out := make([]quiz.Question, len(qs))
	copy(out, qs)
	for i := range out {
		opts := make([]quiz.Option, len(out[i].Options))
		copy(opts, out[i].Options)
		for j := range opts {
			opts[j].IsCorrect = false
		}
		out[i].Options = opts
	}
	return out
}

// ownedQuiz loads the quiz and enforces that the caller is its owning
// teacher (admins pass).
func ownedQuiz(w http.ResponseWriter, r *http.Request, svc *quiz.Service) (quiz.Quiz, bool) {
	ctx := r.Context()
	q, err := svc.GetQuiz(ctx, chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "quiz not found")
		return quiz.Quiz{}, false
	}
	role := rbac.RoleFromContext(ctx)
	if role != roster.RoleAdmin && q.TeacherID != auth.SubjectFromContext(ctx) {
		writeError(w, http.StatusForbidden, "not the quiz owner")
		return quiz.Quiz{}, false
	}
	return q, true
}
