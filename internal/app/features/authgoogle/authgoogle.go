// Package authgoogle implements the browser-initiated Google OAuth flow for
// the admin console: GET /auth/google redirects to Google, the callback
// exchanges the code, checks admin membership by email, and sets the same
// session cookie the token-based login endpoint does.
//
// Token-based login (POST /auth/login) is the primary path; this flow exists
// for consoles that prefer a plain redirect over loading the Google Identity
// Services script.
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	adminstore "github.com/dalemusser/stratapages/internal/app/store/admins"
	"github.com/dalemusser/stratapages/internal/app/store/oauthstate"
	"github.com/dalemusser/stratapages/internal/app/system/auditlog"
	"github.com/dalemusser/stratapages/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Handler provides Google OAuth handlers.
type Handler struct {
	admins          *adminstore.Store
	sessionMgr      *auth.SessionManager
	auditLogger     *auditlog.Logger
	oauthStateStore *oauthstate.Store
	oauthConfig     *oauth2.Config
	consoleURL      string
	logger          *zap.Logger
}

// NewHandler creates a new Google OAuth Handler. consoleURL is where the
// browser lands after the flow finishes, successfully or not.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	auditLogger *auditlog.Logger,
	oauthStateStore *oauthstate.Store,
	clientID string,
	clientSecret string,
	baseURL string,
	consoleURL string,
	logger *zap.Logger,
) *Handler {
	if consoleURL == "" {
		consoleURL = "/"
	}
	return &Handler{
		admins:          adminstore.New(db),
		sessionMgr:      sessionMgr,
		auditLogger:     auditLogger,
		oauthStateStore: oauthStateStore,
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  baseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		consoleURL: consoleURL,
		logger:     logger,
	}
}

// Routes returns a chi.Router with Google OAuth routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.startAuth)
	r.Get("/callback", h.handleCallback)
	return r
}

// startAuth initiates the Google OAuth flow.
func (h *Handler) startAuth(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		h.logger.Error("failed to generate oauth state", zap.Error(err))
		h.redirectWithError(w, r, "oauth_error")
		return
	}

	// Store state in database; the callback consumes it exactly once.
	if err := h.oauthStateStore.Create(r.Context(), state); err != nil {
		h.logger.Error("failed to store oauth state", zap.Error(err))
		h.redirectWithError(w, r, "oauth_error")
		return
	}

	url := h.oauthConfig.AuthCodeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// handleCallback processes the Google OAuth callback.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	// Verify state
	state := r.URL.Query().Get("state")
	if !h.oauthStateStore.Verify(r.Context(), state) {
		h.logger.Warn("invalid oauth state")
		h.redirectWithError(w, r, "invalid_state")
		return
	}

	// Check for error from Google
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		h.logger.Warn("oauth error from google", zap.String("error", errMsg))
		h.redirectWithError(w, r, errMsg)
		return
	}

	// Exchange code for token
	code := r.URL.Query().Get("code")
	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("failed to exchange oauth code", zap.Error(err))
		h.redirectWithError(w, r, "token_exchange_failed")
		return
	}

	// Get user info from Google
	userInfo, err := h.getUserInfo(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to get user info", zap.Error(err))
		h.redirectWithError(w, r, "userinfo_failed")
		return
	}

	// Admins are provisioned out-of-band; an unknown email is rejected, not
	// auto-registered.
	admin, err := h.admins.GetByEmail(r.Context(), userInfo.Email)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			h.auditLogger.LoginFailedNotAdmin(r.Context(), r, userInfo.ID, userInfo.Email)
			h.redirectWithError(w, r, "not_authorized")
			return
		}
		h.logger.Error("failed to look up admin", zap.Error(err))
		h.redirectWithError(w, r, "database_error")
		return
	}

	if err := h.sessionMgr.CreateSession(w, r, admin.UID, token.Expiry); err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		h.redirectWithError(w, r, "session_error")
		return
	}

	if err := h.admins.TouchLastLogin(r.Context(), admin.UID); err != nil {
		h.logger.Warn("failed to record last login",
			zap.String("uid", admin.UID),
			zap.Error(err))
	}

	h.auditLogger.LoginSuccess(r.Context(), r, admin.UID, admin.Email)

	http.Redirect(w, r, h.consoleURL, http.StatusSeeOther)
}

// GoogleUserInfo represents user info from Google.
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// getUserInfo fetches user info from Google.
func (h *Handler) getUserInfo(ctx context.Context, token *oauth2.Token) (*GoogleUserInfo, error) {
	client := h.oauthConfig.Client(ctx, token)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var userInfo GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, err
	}

	return &userInfo, nil
}

// generateState generates a random state token.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// redirectWithError sends the browser back to the console with an error code
// in the query string.
func (h *Handler) redirectWithError(w http.ResponseWriter, r *http.Request, code string) {
	sep := "?"
	if u, err := url.Parse(h.consoleURL); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	http.Redirect(w, r, h.consoleURL+sep+"error="+url.QueryEscape(code), http.StatusSeeOther)
}
