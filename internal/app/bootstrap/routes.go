// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	authapifeature "github.com/dalemusser/stratapages/internal/app/features/authapi"
	authgooglefeature "github.com/dalemusser/stratapages/internal/app/features/authgoogle"
	buildhookfeature "github.com/dalemusser/stratapages/internal/app/features/buildhook"
	healthfeature "github.com/dalemusser/stratapages/internal/app/features/health"
	pagesapifeature "github.com/dalemusser/stratapages/internal/app/features/pagesapi"
	publicfeature "github.com/dalemusser/stratapages/internal/app/features/public"
	adminstore "github.com/dalemusser/stratapages/internal/app/store/admins"
	"github.com/dalemusser/stratapages/internal/app/store/audit"
	buildstore "github.com/dalemusser/stratapages/internal/app/store/builds"
	"github.com/dalemusser/stratapages/internal/app/store/oauthstate"
	pagestore "github.com/dalemusser/stratapages/internal/app/store/pages"
	"github.com/dalemusser/stratapages/internal/app/system/auditlog"
	"github.com/dalemusser/stratapages/internal/app/system/auth"
	"github.com/dalemusser/stratapages/internal/app/system/rebuild"
	"github.com/dalemusser/stratapages/internal/app/system/staticgen"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// The surface splits three ways:
//   - Admin JSON API (/auth, /pages, /builds): session auth + CSRF
//   - CI callback (/api/rebuild/complete): bearer secret auth, no CSRF
//   - Public origin (/{slug}, /sitemap.xml, /robots.txt): anonymous GETs
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Set up the AdminFetcher so LoadSessionAdmin re-checks membership on each
	// request. Removing an admin record locks them out on their next request.
	sessionMgr.SetAdminFetcher(adminstore.NewFetcher(deps.MongoDatabase, logger))

	// Create audit store and logger for security event tracking.
	auditStore := audit.New(deps.MongoDatabase)
	auditConfig := auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	}
	auditLogger := auditlog.New(auditStore, logger, auditConfig)

	// Renderer and generator share the configured site origin so live pages
	// and the static export emit identical canonical URLs.
	renderer, err := staticgen.NewRenderer(appCfg.BaseURL)
	if err != nil {
		logger.Error("renderer init failed", zap.Error(err))
		return nil, err
	}
	generator := staticgen.NewGenerator(
		pagestore.New(deps.MongoDatabase),
		renderer,
		appCfg.StaticExportDir,
		deps.ExportMirror,
		logger,
	)

	// Rebuild trigger: fire-and-forget dispatch to CI after publish-state
	// changes, plus an immediate local re-export.
	buildsStore := buildstore.New(deps.MongoDatabase)
	trigger := rebuild.New(rebuild.Config{
		WebhookURL:       appCfg.RebuildWebhookURL,
		WebhookToken:     appCfg.RebuildWebhookToken,
		CDNPurgeURL:      appCfg.CDNPurgeURL,
		CDNPurgeToken:    appCfg.CDNPurgeToken,
		NotifyWebhookURL: appCfg.NotifyWebhookURL,
		Timeout:          appCfg.RebuildTimeout,
	}, buildsStore, logger)
	trigger.SetExporter(generator)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Session middleware: loads SessionAdmin into context if logged in.
	// Public and CI routes simply have no session, which is fine.
	r.Use(sessionMgr.LoadSessionAdmin)

	// CSRF protection with path-based exemptions for non-browser routes.
	r.Use(buildCSRFMiddleware(appCfg, secure, logger))

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Authentication: token-based login for the admin console, plus the
	// optional browser OAuth flow when a client secret is configured.
	verifier := auth.NewGoogleVerifier(appCfg.GoogleClientID)
	authHandler := authapifeature.NewHandler(deps.MongoDatabase, sessionMgr, verifier, auditLogger, logger)
	r.Route("/auth", func(ar chi.Router) {
		ar.Mount("/", authapifeature.Routes(authHandler))

		if appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret != "" {
			oauthStateStore := oauthstate.New(deps.MongoDatabase)
			googleHandler := authgooglefeature.NewHandler(
				deps.MongoDatabase,
				sessionMgr,
				auditLogger,
				oauthStateStore,
				appCfg.GoogleClientID,
				appCfg.GoogleClientSecret,
				appCfg.BaseURL,
				appCfg.AdminConsoleURL,
				logger,
			)
			ar.Mount("/google", authgooglefeature.Routes(googleHandler))
			logger.Info("Google OAuth browser flow enabled",
				zap.String("redirect_url", appCfg.BaseURL+"/auth/google/callback"))
		}
	})

	// Page management API (session required)
	pagesHandler := pagesapifeature.NewHandler(deps.MongoDatabase, auditLogger, trigger, logger)
	r.Mount("/pages", pagesapifeature.Routes(pagesHandler, sessionMgr))

	// Build pipeline: CI completion callback plus the admin-facing listing
	buildhookHandler := buildhookfeature.NewHandler(deps.MongoDatabase, appCfg.BuildCallbackSecretHash, logger)
	r.Mount("/api/rebuild", buildhookfeature.CallbackRoutes(buildhookHandler))
	r.Mount("/builds", buildhookfeature.AdminRoutes(buildhookHandler, sessionMgr))

	// Public origin: rendered pages, sitemap, robots
	publicHandler := publicfeature.NewHandler(deps.MongoDatabase, renderer, logger)
	r.Get("/sitemap.xml", publicHandler.SitemapHandler)
	r.Get("/robots.txt", publicHandler.RobotsHandler)
	r.Get("/{slug}", publicHandler.PageHandler)

	// 404 catch-all for unmatched routes
	r.NotFound(publicHandler.NotFoundHandler)

	return r, nil
}
