// internal/app/bootstrap/csrf.go
package bootstrap

import (
	"net/http"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// csrfExemptPaths are routes a browser form never posts to:
//   - /auth/login authenticates with a Google identity token, not a session
//   - /auth/logout must succeed even from a stale console tab
//   - /api/rebuild/complete is machine-to-machine (bearer secret auth)
var csrfExemptPaths = map[string]bool{
	"/auth/login":           true,
	"/auth/logout":          true,
	"/api/rebuild/complete": true,
}

// buildCSRFMiddleware constructs the CSRF layer for the admin API. Cookie name
// is "stratapages_csrf" to avoid collisions with other services on the same
// domain.
//
// The admin console is a JSON client, not a form poster, so every protected
// response carries the current token in an X-CSRF-Token header. The console
// reads the header off any GET (e.g. the page list) and echoes it back in
// X-CSRF-Token on mutations.
func buildCSRFMiddleware(appCfg AppConfig, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("stratapages_csrf"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			http.Error(w, "CSRF token invalid or missing", http.StatusForbidden)
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	trustedOrigins := []string{
		"localhost:8080",
		"localhost:3000",
		"127.0.0.1:8080",
		"127.0.0.1:3000",
	}
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins(trustedOrigins))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	csrfProtect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)

	return func(next http.Handler) http.Handler {
		// csrf.Token only yields a valid token inside the protected chain,
		// so the header is set by an inner handler rather than out here.
		protected := csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-CSRF-Token", csrf.Token(req))
			next.ServeHTTP(w, req)
		}))
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if csrfExemptPaths[req.URL.Path] {
				next.ServeHTTP(w, req)
				return
			}
			protected.ServeHTTP(w, req)
		})
	}
}
