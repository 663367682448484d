// Package buildhook receives completion callbacks from the CI pipeline and
// exposes recent build records to admins.
//
// The callback is machine-to-machine: CI authenticates with a bearer secret
// whose bcrypt hash lives in configuration, not with a session.
package buildhook

import (
	"net/http"

	buildstore "github.com/dalemusser/stratapages/internal/app/store/builds"
	"github.com/dalemusser/stratapages/internal/app/system/auth"
	"github.com/dalemusser/stratapages/internal/app/system/authutil"
	"github.com/dalemusser/stratapages/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler handles build callback and listing requests.
type Handler struct {
	builds     *buildstore.Store
	secretHash string // bcrypt hash of the CI callback secret
	logger     *zap.Logger
}

// NewHandler creates a new buildhook handler.
func NewHandler(db *mongo.Database, secretHash string, logger *zap.Logger) *Handler {
	return &Handler{
		builds:     buildstore.New(db),
		secretHash: secretHash,
		logger:     logger,
	}
}

// CompleteHandler handles POST /api/rebuild/complete.
//
// Request body: {"buildId": "...", "success": true|false, "detail": "..."}
//
// An unknown or already-completed buildId is a 404; completions are
// recorded once.
func (h *Handler) CompleteHandler(w http.ResponseWriter, r *http.Request) {
	token := authutil.BearerToken(r.Header.Get("Authorization"))
	if !authutil.CheckSecret(token, h.secretHash) {
		h.logger.Warn("rebuild callback with bad credential",
			zap.String("remote_addr", r.RemoteAddr))
		jsonutil.Unauthorized(w, "unauthorized")
		return
	}

	var in struct {
		BuildID string `json:"buildId"`
		Success *bool  `json:"success"`
		Detail  string `json:"detail"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.BuildID == "" || in.Success == nil {
		jsonutil.BadRequest(w, "buildId and success are required")
		return
	}

	found, err := h.builds.Complete(r.Context(), in.BuildID, *in.Success, in.Detail)
	if err != nil {
		h.logger.Error("failed to complete build",
			zap.String("build_id", in.BuildID),
			zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}
	if !found {
		jsonutil.NotFound(w, "build not found")
		return
	}

	h.logger.Info("build completed",
		zap.String("build_id", in.BuildID),
		zap.Bool("success", *in.Success))

	jsonutil.OK(w, map[string]bool{"success": true})
}

// ListHandler handles GET /builds for admins: the most recent dispatches,
// newest first.
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	builds, err := h.builds.GetRecent(r.Context(), 50)
	if err != nil {
		h.logger.Error("failed to list builds", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}
	if builds == nil {
		builds = []buildstore.Build{}
	}

	jsonutil.OK(w, map[string]any{
		"data":  builds,
		"count": len(builds),
	})
}

// CallbackRoutes returns a router with the CI callback endpoint.
//
// When mounted at /api/rebuild:
//   - POST /api/rebuild/complete - Mark a dispatched build completed/failed
func CallbackRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/complete", h.CompleteHandler)
	return r
}

// AdminRoutes returns a router with the admin-facing build listing.
//
// When mounted at /builds:
//   - GET /builds - List recent builds (session required)
func AdminRoutes(h *Handler, sessionMgr *auth.SessionManager) http.Handler {
	r := chi.NewRouter()
	r.Use(sessionMgr.RequireAdmin)
	r.Get("/", h.ListHandler)
	return r
}
