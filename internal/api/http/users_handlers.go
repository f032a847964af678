package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quiz-mastro/quizmastro/internal/roster"
)

type userReq struct {
	Username   string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required,min=6"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Role       string `json:"role" validate:"required,oneof=student teacher admin"`
	Subject    string `json:"subject"`
	GradeLevel string `json:"grade_level"`
	Phone      string `json:"phone"`
	Gender     string `json:"gender"`
}

// POST /users
func CreateUserHandler(reg *roster.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req userReq
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "bad user: "+err.Error())
			return
		}
		if _, err := reg.GetUserByUsername(r.Context(), req.Username); err == nil {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		u := roster.User{
			ID:         uuid.NewString(),
			Username:   req.Username,
			Name:       req.Name,
			Email:      req.Email,
			Role:       req.Role,
			PassHash:   string(hash),
			Subject:    req.Subject,
			GradeLevel: req.GradeLevel,
			Phone:      req.Phone,
			Gender:     req.Gender,
		}
		if err := reg.PutUser(r.Context(), u); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

// GET /users?role=student
func ListUsersHandler(reg *roster.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := reg.ListUsers(r.Context(), r.URL.Query().Get("role"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

// GET /users/{userID}
func GetUserHandler(reg *roster.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := reg.GetUser(r.Context(), chi.URLParam(r, "userID"))
		if errors.Is(err, roster.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// DELETE /users/{userID}
func DeleteUserHandler(reg *roster.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := reg.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
