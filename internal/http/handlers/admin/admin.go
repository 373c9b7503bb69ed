// Package admin contains the HTTP handlers for the administrator account.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-portal/internal/seed"
	"github.com/aanand-mishra/student-portal/internal/storage"
	"github.com/aanand-mishra/student-portal/internal/types"
	"github.com/aanand-mishra/student-portal/internal/utils/response"
)

var validate = response.NewValidator()

// LoginResponse is the 200 body of POST /api/admin/login.
type LoginResponse struct {
	Message string            `json:"message"`
	Admin   types.PublicAdmin `json:"admin"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Login handles POST /api/admin/login
//
// Request body (JSON):
//
//	{ "username": "admin", "password": "12345" }
//
// Success response (200 OK):
//
//	{ "message": "Login successful", "admin": { "id": "…", "username": "admin", "name": "Administrator" } }
//
// Error responses:
//
//	400 Bad Request  — empty body, malformed JSON, or failed validation
//	401 Unauthorized — any other username/password pair
//	500 Internal     — database error
//
// The admin row is created on the first successful login if startup
// seeding has not already done it.
// ─────────────────────────────────────────────────────────────────────────────
func Login(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AdminLogin
		if !response.Bind(w, r, validate, &req) {
			return
		}

		// Same message for a bad username and a bad password.
		if req.Username != seed.AdminUsername || req.Password != seed.AdminPassword {
			slog.Info("admin login rejected")
			response.WriteJSON(w, http.StatusUnauthorized, response.Message("Invalid credentials"))
			return
		}

		admin, err := seed.EnsureAdmin(r.Context(), store)
		if err != nil {
			slog.Error("admin login error", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.Message(response.MsgInternal))
			return
		}

		slog.Info("admin logged in", slog.String("id", admin.ID))
		response.WriteJSON(w, http.StatusOK, LoginResponse{
			Message: "Login successful",
			Admin:   admin.Public(),
		})
	}
}
