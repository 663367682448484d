package auth

// Terminology: Admin Identifiers
//   - UID / uid: The identity provider's subject claim, used as the admins
//     collection _id. It is the only identifier a session carries.

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/stratapages/internal/app/system/jsonutil"
	"github.com/dalemusser/stratapages/internal/domain/models"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Session error classification for logging and monitoring.
type sessionErrorType int

const (
	sessionErrUnknown sessionErrorType = iota
	sessionErrExpired                  // timestamp expired - normal
	sessionErrTampered                 // MAC invalid - potential attack
	sessionErrCorrupted                // decode/decrypt failed - corruption or key rotation
	sessionErrBackend                  // store/backend failure
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session constants                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey      = "is_authenticated"
	adminUIDKey    = "admin_uid"
	tokenExpiryKey = "token_expiry" // unix seconds; the provider token's exp claim
)

/*─────────────────────────────────────────────────────────────────────────────*
| SessionManager - injectable session management                              |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager encapsulates session store and configuration.
// It provides middleware and utilities for session-based authentication.
// Use NewSessionManager to create an instance.
type SessionManager struct {
	store        *sessions.CookieStore
	logger       *zap.Logger
	name         string
	adminFetcher AdminFetcher
}

// NewSessionManager creates a new SessionManager with the provided configuration.
//
// Parameters:
//   - sessionKey: signing key for cookies (must be ≥32 chars in production)
//   - name: session cookie name (defaults to "stratapages-session" if empty)
//   - domain: cookie domain (empty means current host)
//   - maxAge: session cookie lifetime (e.g., 24*time.Hour)
//   - secure: if true, cookies are Secure (for HTTPS production)
//   - logger: zap logger for session error logging
//
// Returns an error if sessionKey is empty or too weak for production mode.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, &SessionConfigError{Message: "session key is empty; provide ≥32 random chars"}
	}

	// Check for weak/default keys
	isWeak := len(sessionKey) < 32 || isDefaultKey(sessionKey)

	if secure {
		// In production mode, require a strong key - fail startup if weak
		if isWeak {
			return nil, &SessionConfigError{
				Message: "session key is too weak for production; provide ≥32 random chars (not the default dev key)",
			}
		}
	} else if isWeak {
		// In dev mode, warn but allow weak keys
		logger.Warn("session key is weak; 32+ random chars required in production",
			zap.Int("length", len(sessionKey)),
			zap.Bool("is_default", isDefaultKey(sessionKey)))
	}

	// Set session name (use default if empty)
	if name == "" {
		name = "stratapages-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}

	// SameSite=Lax is the recommended setting for first-party session cookies.
	// It allows cookies on same-site requests and top-level navigations, while
	// blocking cross-site POST requests.
	opts.SameSite = http.SameSiteLaxMode

	store.Options = opts

	logger.Info("session manager initialized",
		zap.Bool("secure", secure),
		zap.String("name", name),
		zap.String("domain", domain))

	return &SessionManager{
		store:  store,
		logger: logger,
		name:   name,
	}, nil
}

// SessionConfigError is returned when session configuration is invalid.
type SessionConfigError struct {
	Message string
}

func (e *SessionConfigError) Error() string {
	return e.Message
}

// SessionName returns the configured session cookie name.
func (sm *SessionManager) SessionName() string {
	return sm.name
}

// SetAdminFetcher sets the AdminFetcher used by LoadSessionAdmin to re-check
// admin membership on each request. This must be called after database
// initialization.
func (sm *SessionManager) SetAdminFetcher(af AdminFetcher) {
	sm.adminFetcher = af
}

/*─────────────────────────────────────────────────────────────────────────────*
| AdminFetcher interface                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// AdminFetcher re-checks admin membership against the database.
// Implementations return nil if the uid is not (or no longer) an admin.
type AdminFetcher interface {
	// FetchAdmin retrieves an admin by uid. Returns nil if the uid is not
	// registered or any other condition that should invalidate the session.
	FetchAdmin(ctx context.Context, uid string) *SessionAdmin
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-Admin helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionAdmin represents the authenticated admin in the request context.
// This data is fetched fresh from the database on each request so that a
// removed admin loses access on their next request, with no cached window.
type SessionAdmin struct {
	UID          string
	Email        string
	DisplayName  string
	Role         string
	Capabilities models.Capabilities
}

// Can reports whether the admin holds the named capability.
// Superadmins hold every capability.
func (a *SessionAdmin) Can(capability string) bool {
	m := models.Admin{Role: a.Role, Capabilities: a.Capabilities}
	return m.Can(capability)
}

type ctxKey string

const currentAdminKey ctxKey = "currentAdmin"

// CurrentAdmin returns the admin & "found?" flag from the request context.
func CurrentAdmin(r *http.Request) (*SessionAdmin, bool) {
	a, ok := r.Context().Value(currentAdminKey).(*SessionAdmin)
	return a, ok
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// LoadSessionAdmin returns middleware that injects the admin into context if
// logged in. Membership is re-checked against the database on every request,
// and sessions whose recorded provider-token expiry has passed are cleared.
func (sm *SessionManager) LoadSessionAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			// Classify the session error for appropriate logging.
			errType, errCategory := classifySessionError(err)
			switch errType {
			case sessionErrExpired:
				sm.logger.Debug("session expired, starting fresh session",
					zap.String("category", errCategory),
					zap.String("path", r.URL.Path))
			case sessionErrTampered:
				sm.logger.Warn("session MAC validation failed (possible tampering)",
					zap.String("category", errCategory),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("user_agent", r.UserAgent()))
			case sessionErrCorrupted:
				sm.logger.Info("session decode failed, starting fresh session",
					zap.String("category", errCategory),
					zap.String("path", r.URL.Path))
			case sessionErrBackend:
				sm.logger.Error("session store error, starting fresh session",
					zap.Error(err),
					zap.String("path", r.URL.Path))
			default:
				sm.logger.Warn("session error, starting fresh session",
					zap.Error(err),
					zap.String("category", errCategory),
					zap.String("path", r.URL.Path))
			}
		}

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			uid := getString(sess, adminUIDKey)

			if expired(sess) {
				sm.logger.Info("session invalidated: provider token expired",
					zap.String("admin_uid", uid),
					zap.String("path", r.URL.Path))
				sm.clearSession(sess, r, w)
			} else if sm.adminFetcher != nil && uid != "" {
				a := sm.adminFetcher.FetchAdmin(r.Context(), uid)
				if a != nil {
					r = withAdmin(r, a)
				} else {
					// Admin removed since login - clear session
					sm.logger.Info("session invalidated: admin not found",
						zap.String("admin_uid", uid),
						zap.String("path", r.URL.Path))
					sm.clearSession(sess, r, w)
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns middleware that ensures there is an admin in context.
// API callers get a JSON 401; there is no HTML login surface to redirect to.
func (sm *SessionManager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentAdmin(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		jsonutil.Unauthorized(w, "unauthorized")
	})
}

// RequireCapability returns middleware that ensures the current admin holds
// the named capability. Runs after RequireAdmin; a missing admin is still 401.
func (sm *SessionManager) RequireCapability(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := CurrentAdmin(r)
			if !ok {
				jsonutil.Unauthorized(w, "unauthorized")
				return
			}
			if !a.Can(capability) {
				jsonutil.Forbidden(w, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func withAdmin(r *http.Request, a *SessionAdmin) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentAdminKey, a))
}

// WithTestAdmin injects a SessionAdmin into the request context for testing.
func WithTestAdmin(r *http.Request, a *SessionAdmin) *http.Request {
	return withAdmin(r, a)
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

// expired reports whether the session's recorded provider-token expiry has
// passed. Sessions without a recorded expiry never expire on this path.
func expired(s *sessions.Session) bool {
	exp, ok := s.Values[tokenExpiryKey].(int64)
	if !ok || exp == 0 {
		return false
	}
	return time.Now().Unix() >= exp
}

func (sm *SessionManager) clearSession(sess *sessions.Session, r *http.Request, w http.ResponseWriter) {
	sess.Values[isAuthKey] = false
	delete(sess.Values, adminUIDKey)
	delete(sess.Values, tokenExpiryKey)
	_ = sess.Save(r, w) // Best effort to clear
}

// isDefaultKey checks if the session key appears to be a default/placeholder value.
func isDefaultKey(key string) bool {
	lower := strings.ToLower(key)
	patterns := []string{
		"dev-only",
		"change-me",
		"placeholder",
		"default",
		"example",
		"insecure",
		"test-key",
		"secret123",
		"password",
	}
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// classifySessionError categorizes a session/cookie error for appropriate logging.
func classifySessionError(err error) (sessionErrorType, string) {
	if err == nil {
		return sessionErrUnknown, "none"
	}

	errStr := strings.ToLower(err.Error())

	if scErr, ok := err.(securecookie.Error); ok {
		if !scErr.IsDecode() {
			return sessionErrBackend, "backend"
		}

		switch {
		case strings.Contains(errStr, "expired timestamp"):
			return sessionErrExpired, "expired"
		case strings.Contains(errStr, "mac") || strings.Contains(errStr, "hash"):
			return sessionErrTampered, "mac_invalid"
		case strings.Contains(errStr, "decrypt"):
			return sessionErrCorrupted, "decrypt_failed"
		case strings.Contains(errStr, "base64") || strings.Contains(errStr, "decode"):
			return sessionErrCorrupted, "decode_failed"
		default:
			return sessionErrCorrupted, "decode_other"
		}
	}

	return sessionErrBackend, "unknown"
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session Management                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// CreateSession establishes a session for the admin. tokenExpiry is the
// verified provider token's exp claim; the session is rejected once it passes.
// A zero tokenExpiry records no expiry (the cookie MaxAge still applies).
func (sm *SessionManager) CreateSession(w http.ResponseWriter, r *http.Request, uid string, tokenExpiry time.Time) error {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		// Create new session if can't get existing
		sess, _ = sm.store.New(r, sm.name)
	}

	sess.Values[isAuthKey] = true
	sess.Values[adminUIDKey] = uid
	if !tokenExpiry.IsZero() {
		sess.Values[tokenExpiryKey] = tokenExpiry.Unix()
	} else {
		delete(sess.Values, tokenExpiryKey)
	}

	return sess.Save(r, w)
}

// DestroySession terminates the admin's session. Safe to call when no
// session exists; logout stays idempotent.
func (sm *SessionManager) DestroySession(w http.ResponseWriter, r *http.Request) {
	sess, err := sm.store.Get(r, sm.name)
	if err != nil {
		return
	}

	sess.Values[isAuthKey] = false
	delete(sess.Values, adminUIDKey)
	delete(sess.Values, tokenExpiryKey)

	sess.Options.MaxAge = -1
	_ = sess.Save(r, w)
}
