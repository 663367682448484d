package pagesapi

import (
	"net/http"

	"github.com/dalemusser/stratapages/internal/app/system/auth"
	"github.com/dalemusser/stratapages/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the page management endpoints.
//
// Every route requires a session; the auth check runs before any validator
// or store access. Mutations additionally require the matching capability,
// which superadmins always hold.
func Routes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireAdmin)

	r.Get("/", h.ListHandler)
	r.With(sessionMgr.RequireCapability(models.CapCreate)).Post("/", h.CreateHandler)

	r.Route("/{id}", func(sr chi.Router) {
		sr.Get("/", h.GetHandler)
		sr.With(sessionMgr.RequireCapability(models.CapEdit)).Put("/", h.UpdateHandler)
		sr.With(sessionMgr.RequireCapability(models.CapDelete)).Delete("/", h.DeleteHandler)
		sr.With(sessionMgr.RequireCapability(models.CapPublish)).Post("/publish", h.PublishHandler)
	})

	return r
}
