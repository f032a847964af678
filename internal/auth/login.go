package auth

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/quiz-mastro/quizmastro/internal/roster"
)

// AdminAccount is the bootstrap admin from config; Hash is a bcrypt hash.
type AdminAccount struct {
	Username string
	Hash     string
}

// LoginHandler exchanges username/password for a JWT. Users come from the
// roster store with bcrypt-hashed passwords; the bootstrap admin account is
// checked first.
//
// POST /auth/login {"username": "...", "password": "..."}
func LoginHandler(a *AuthService, users *roster.Registry, admin AdminAccount) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sub, role, ok := "", "", false
		if req.Username == admin.Username && admin.Hash != "" {
			if bcrypt.CompareHashAndPassword([]byte(admin.Hash), []byte(req.Password)) == nil {
				sub, role, ok = admin.Username, roster.RoleAdmin, true
			}
		}
		if !ok {
			u, err := users.GetUserByUsername(r.Context(), req.Username)
			if err == nil && bcrypt.CompareHashAndPassword([]byte(u.PassHash), []byte(req.Password)) == nil {
				sub, role, ok = u.ID, u.Role, true
			}
		}
		if !ok {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(sub, role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": tok,
			"user_id":      sub,
			"role":         role,
		})
	}
}
