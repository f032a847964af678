package http

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quiz-mastro/quizmastro/internal/quiz"
)

// ExportGradesHandler streams the grading roll-up for a quiz as CSV, one row
// per connected student.
func ExportGradesHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, ok := ownedQuiz(w, r, svc)
		if !ok {
			return
		}
		rows, err := svc.StudentsForGrading(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", "grades-"+q.ID+".csv"))

		cw := csv.NewWriter(w)
		cw.Write([]string{"student_id", "name", "status", "submitted", "graded", "grade", "total_points", "percentage"})
		for _, row := range rows {
			cw.Write([]string{
				row.StudentID,
				row.Name,
				string(row.Status),
				strconv.FormatBool(row.HasSubmission),
				strconv.FormatBool(row.IsGraded),
				strconv.FormatFloat(row.Grade, 'f', -1, 64),
				strconv.FormatFloat(row.TotalPoints, 'f', -1, 64),
				strconv.Itoa(row.Percentage),
			})
		}
		cw.Flush()
	}
}
