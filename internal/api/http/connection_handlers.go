package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quiz-mastro/quizmastro/internal/activity"
	"github.com/quiz-mastro/quizmastro/internal/auth"
	"github.com/quiz-mastro/quizmastro/internal/rbac"
	"github.com/quiz-mastro/quizmastro/internal/roster"
)

type connectionReq struct {
	StudentID string `json:"student_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

// POST /connections
func AddConnectionHandler(reg *roster.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req connectionReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad connection: "+err.Error())
			return
		}
		conn, err := reg.AddConnection(r.Context(), req.StudentID, req.TeacherID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, conn)
	}
}

// DELETE /connections/{connID}
func RemoveConnectionHandler(reg *roster.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "connID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad connection id")
			return
		}
		if err := reg.RemoveConnection(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /connections: teachers see their own links, admins see everything.
// Students may list theirs via ?student_id filter matching their subject.
func ListConnectionsHandler(reg *roster.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := auth.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())

		var (
			conns []roster.Connection
			err   error
		)
		switch role {
		case roster.RoleAdmin:
			conns, err = reg.Connections(r.Context())
		case roster.RoleStudent:
			conns, err = reg.ConnectionsByStudent(r.Context(), subject)
		default:
			conns, err = reg.ConnectionsByTeacher(r.Context(), subject)
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, conns)
	}
}

// GET /activity?limit=50: recent connection and grading events.
func ActivityFeedHandler(log activity.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		events, err := log.Recent(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}
