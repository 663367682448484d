// Package authapi provides the admin authentication endpoints.
//
// Endpoints:
//   - POST /auth/login  - Exchange a Google ID token for a session cookie
//   - POST /auth/logout - Destroy the session (idempotent)
//
// A verified identity is necessary but not sufficient: the token's subject
// must also exist in the admins collection. The two failures are kept
// distinct (400 invalid token vs 403 not authorized) so a locked-out
// operator can tell which side to fix.
package authapi

import (
	"errors"
	"net/http"

	adminstore "github.com/dalemusser/stratapages/internal/app/store/admins"
	"github.com/dalemusser/stratapages/internal/app/system/auditlog"
	"github.com/dalemusser/stratapages/internal/app/system/auth"
	"github.com/dalemusser/stratapages/internal/app/system/jsonutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler handles authentication API requests.
type Handler struct {
	admins      *adminstore.Store
	sessionMgr  *auth.SessionManager
	verifier    auth.TokenVerifier
	auditLogger *auditlog.Logger
	logger      *zap.Logger
}

// NewHandler creates a new authapi handler.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	verifier auth.TokenVerifier,
	auditLogger *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		admins:      adminstore.New(db),
		sessionMgr:  sessionMgr,
		verifier:    verifier,
		auditLogger: auditLogger,
		logger:      logger,
	}
}

// adminResponse is the admin object returned by login.
type adminResponse struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// LoginHandler handles POST /auth/login.
//
// Request body:
//
//	{"token": "<google id token>"}
//
// Responses:
//   - 200 {"admin": {"uid": ..., "email": ..., "displayName": ...}}
//   - 400 invalid or missing token
//   - 403 verified identity that is not a registered admin
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token string `json:"token"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.Token == "" {
		jsonutil.BadRequest(w, "token is required")
		return
	}

	claims, err := h.verifier.Verify(r.Context(), in.Token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			h.auditLogger.LoginFailedInvalidToken(r.Context(), r)
			jsonutil.BadRequest(w, "invalid token")
			return
		}
		h.logger.Error("token verification unavailable", zap.Error(err))
		jsonutil.InternalError(w, "authentication provider unavailable")
		return
	}

	admin, err := h.admins.GetByUID(r.Context(), claims.Subject)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			h.auditLogger.LoginFailedNotAdmin(r.Context(), r, claims.Subject, claims.Email)
			jsonutil.Forbidden(w, "not authorized")
			return
		}
		h.logger.Error("failed to look up admin",
			zap.String("uid", claims.Subject),
			zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}

	if err := h.sessionMgr.CreateSession(w, r, admin.UID, claims.ExpiresAt); err != nil {
		h.logger.Error("failed to create session",
			zap.String("uid", admin.UID),
			zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}

	// Best effort - a failed timestamp never blocks a login
	if err := h.admins.TouchLastLogin(r.Context(), admin.UID); err != nil {
		h.logger.Warn("failed to touch last login",
			zap.String("uid", admin.UID),
			zap.Error(err))
	}

	h.auditLogger.LoginSuccess(r.Context(), r, admin.UID, admin.Email)

	jsonutil.OK(w, map[string]any{
		"admin": adminResponse{
			UID:         admin.UID,
			Email:       admin.Email,
			DisplayName: admin.DisplayName,
		},
	})
}

// LogoutHandler handles POST /auth/logout. Destroying a session that does
// not exist is fine; logout is idempotent.
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if admin, ok := auth.CurrentAdmin(r); ok {
		h.auditLogger.Logout(r.Context(), r, admin.UID)
	}

	h.sessionMgr.DestroySession(w, r)
	jsonutil.OK(w, map[string]bool{"success": true})
}
