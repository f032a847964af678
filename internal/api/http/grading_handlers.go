package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quiz-mastro/quizmastro/internal/quiz"
)

// GET /quizzes/{quizID}/students: every connected student with derived
// status and submission presence.
func ConnectedStudentsHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ownedQuiz(w, r, svc); !ok {
			return
		}
		students, err := svc.ConnectedStudents(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, students)
	}
}

// GET /quizzes/{quizID}/grading: grading roll-up per connected student.
func StudentsForGradingHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ownedQuiz(w, r, svc); !ok {
			return
		}
		rows, err := svc.StudentsForGrading(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rows)
	}
}

// GET /quizzes/{quizID}/grading/queue
func GradingQueueHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ownedQuiz(w, r, svc); !ok {
			return
		}
		students, err := svc.GradingQueue(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, students)
	}
}

// POST /quizzes/{quizID}/grading/{studentID}/queue: flag a no-show for
// grading so they show up in the queue.
func SetGradingForStudentHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ownedQuiz(w, r, svc); !ok {
			return
		}
		err := svc.SetGradingForStudent(r.Context(), chi.URLParam(r, "quizID"), chi.URLParam(r, "studentID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type gradingStateReq struct {
	QuestionScores map[string]float64 `json:"question_scores"`
	ManualScores   map[string]float64 `json:"manual_scores"`
	Explanations   map[string]string  `json:"explanations"`
}

// GET /quizzes/{quizID}/grading/{studentID}: the saved grading worksheet.
func GetGradingStateHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ownedQuiz(w, r, svc); !ok {
			return
		}
		sub, _, err := svc.Submission(r.Context(), chi.URLParam(r, "quizID"), chi.URLParam(r, "studentID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out := gradingStateReq{
			QuestionScores: sub.QuestionScores,
			ManualScores:   sub.ManualScores,
			Explanations:   sub.Explanations,
		}
		if out.QuestionScores == nil {
			out.QuestionScores = map[string]float64{}
		}
		if out.ManualScores == nil {
			out.ManualScores = map[string]float64{}
		}
		if out.Explanations == nil {
			out.Explanations = map[string]string{}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// PUT /quizzes/{quizID}/grading/{studentID}: save the worksheet without
// posting a grade.
func SaveGradingStateHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ownedQuiz(w, r, svc); !ok {
			return
		}
		var req gradingStateReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad grading state: "+err.Error())
			return
		}
		err := svc.SaveGradingState(r.Context(), chi.URLParam(r, "quizID"), chi.URLParam(r, "studentID"),
			req.QuestionScores, req.ManualScores, req.Explanations)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /quizzes/{quizID}/grading/{studentID}: resolve scores from the
// worksheet, record the total grade and close the student's submission.
func ApplyGradesHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ownedQuiz(w, r, svc); !ok {
			return
		}
		var req gradingStateReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad grading state: "+err.Error())
			return
		}
		total, err := svc.ApplyGrades(r.Context(), chi.URLParam(r, "quizID"), chi.URLParam(r, "studentID"),
			req.ManualScores, req.QuestionScores, req.Explanations)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]float64{"grade": total})
	}
}
