package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quiz-mastro/quizmastro/internal/auth"
	"github.com/quiz-mastro/quizmastro/internal/quiz"
)

// POST /quizzes/{quizID}/attempt/start
func StartAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		quizID := chi.URLParam(r, "quizID")
		if _, err := svc.GetQuiz(ctx, quizID); err != nil {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		if err := svc.StartQuiz(ctx, quizID, auth.SubjectFromContext(ctx)); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /quizzes/{quizID}/attempt/answers: incremental autosave of one
// answer; does not change the submission's status.
func SaveAnswerHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID string `json:"question_id" validate:"required"`
			Answer     string `json:"answer"`
		}
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad answer: "+err.Error())
			return
		}
		ctx := r.Context()
		err := svc.RecordAnswer(ctx, chi.URLParam(r, "quizID"), auth.SubjectFromContext(ctx),
			req.QuestionID, req.Answer)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /quizzes/{quizID}/attempt/submit
func SubmitAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answers      map[string]string `json:"answers" validate:"required"`
			TimeSpentSec int               `json:"time_spent_sec"`
		}
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad submission: "+err.Error())
			return
		}
		ctx := r.Context()
		quizID := chi.URLParam(r, "quizID")
		studentID := auth.SubjectFromContext(ctx)
		if err := svc.SubmitQuiz(ctx, quizID, studentID, req.Answers, req.TimeSpentSec); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sub, _, err := svc.Submission(ctx, quizID, studentID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// GET /quizzes/{quizID}/submissions/{studentID}: teachers and admins may
// read any student's submission; students only their own (enforced by the
// route's RequireOwnerOr).
func GetSubmissionHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, ok, err := svc.Submission(r.Context(), chi.URLParam(r, "quizID"), chi.URLParam(r, "studentID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "no submission")
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// IsSubmissionOwner reports whether the caller is the student in the path.
func IsSubmissionOwner(r *http.Request) bool {
	return chi.URLParam(r, "studentID") == auth.SubjectFromContext(r.Context())
}
