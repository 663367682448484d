package authapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the authentication endpoints.
//
// When mounted at /auth:
//   - POST /auth/login  - Exchange a Google ID token for a session
//   - POST /auth/logout - Destroy the session
//
// Both endpoints are CSRF-exempt: login carries no session yet, and logout
// is an idempotent destroy.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/login", h.LoginHandler)
	r.Post("/logout", h.LogoutHandler)
	return r
}
