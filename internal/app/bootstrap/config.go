// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/stratapages/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATAPAGES"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: STRATAPAGES_MONGO_URI, STRATAPAGES_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratapages", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "stratapages-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie max age (e.g., 24h, 720h, 30m)"},

	{Name: "csrf_key", Default: "dev-only-csrf-key-please-change-0123456789", Desc: "CSRF token signing key (32+ chars in production)"},

	// Public site origin
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public site origin for canonical URLs and the sitemap"},
	{Name: "admin_console_url", Default: "/", Desc: "Where the browser OAuth flow redirects after login"},

	// Google identity configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID (required for admin login)"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret (enables the browser OAuth flow)"},

	// Rebuild pipeline configuration
	{Name: "rebuild_webhook_url", Default: "", Desc: "CI build hook URL (empty disables dispatch)"},
	{Name: "rebuild_webhook_token", Default: "", Desc: "Bearer token for the CI build hook"},
	{Name: "cdn_purge_url", Default: "", Desc: "CDN cache purge URL (empty disables purge)"},
	{Name: "cdn_purge_token", Default: "", Desc: "Bearer token for CDN purge"},
	{Name: "notify_webhook_url", Default: "", Desc: "Chat webhook for rebuild notifications (empty disables)"},
	{Name: "rebuild_timeout", Default: "60s", Desc: "Budget for one rebuild dispatch"},
	{Name: "build_callback_secret_hash", Default: "", Desc: "bcrypt hash of the CI completion callback secret"},

	// Static export configuration
	{Name: "static_export_dir", Default: "./public", Desc: "Directory the static site export is written to"},
	{Name: "static_export_interval", Default: "1h", Desc: "Periodic static re-export interval"},

	// Export mirror configuration
	{Name: "storage_type", Default: "local", Desc: "Export mirror backend: 'local' (disk only) or 's3'"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "site/", Desc: "S3 key prefix"},
	{Name: "storage_cf_url", Default: "", Desc: "CloudFront distribution URL"},
	{Name: "storage_cf_keypair_id", Default: "", Desc: "CloudFront key pair ID"},
	{Name: "storage_cf_key_path", Default: "", Desc: "Path to CloudFront private key file"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "2160h", Desc: "Audit event retention (e.g., 2160h for 90 days; 0 disables pruning)"},

	// Admin seeding configuration
	{Name: "seed_admin_uid", Default: "", Desc: "Identity provider subject of admin to create on startup"},
	{Name: "seed_admin_email", Default: "", Desc: "Email of admin to create on startup"},
	{Name: "seed_admin_name", Default: "Admin", Desc: "Display name of admin to create on startup"},
	{Name: "seed_admin_role", Default: "superadmin", Desc: "Role of admin to create on startup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app and can be extended as the app grows.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, STRATAPAGES_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),

		CSRFKey: appValues.String("csrf_key"),

		BaseURL:         appValues.String("base_url"),
		AdminConsoleURL: appValues.String("admin_console_url"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		// Rebuild pipeline
		RebuildWebhookURL:       appValues.String("rebuild_webhook_url"),
		RebuildWebhookToken:     appValues.String("rebuild_webhook_token"),
		CDNPurgeURL:             appValues.String("cdn_purge_url"),
		CDNPurgeToken:           appValues.String("cdn_purge_token"),
		NotifyWebhookURL:        appValues.String("notify_webhook_url"),
		RebuildTimeout:          appValues.Duration("rebuild_timeout", 60*time.Second),
		BuildCallbackSecretHash: appValues.String("build_callback_secret_hash"),

		// Static export
		StaticExportDir:      appValues.String("static_export_dir"),
		StaticExportInterval: appValues.Duration("static_export_interval", 1*time.Hour),

		// Export mirror
		StorageType:        appValues.String("storage_type"),
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageCFURL:       appValues.String("storage_cf_url"),
		StorageCFKeyPairID: appValues.String("storage_cf_keypair_id"),
		StorageCFKeyPath:   appValues.String("storage_cf_key_path"),

		// Audit logging
		AuditLogAuth:   appValues.String("audit_log_auth"),
		AuditLogAdmin:  appValues.String("audit_log_admin"),
		AuditRetention: appValues.Duration("audit_retention", 90*24*time.Hour),

		// Admin seeding
		SeedAdminUID:   appValues.String("seed_admin_uid"),
		SeedAdminEmail: appValues.String("seed_admin_email"),
		SeedAdminName:  appValues.String("seed_admin_name"),
		SeedAdminRole:  appValues.String("seed_admin_role"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.SeedAdminUID != "" && appCfg.SeedAdminRole != "" && !models.IsValidAdminRole(appCfg.SeedAdminRole) {
		return fmt.Errorf("invalid seed_admin_role: %s", appCfg.SeedAdminRole)
	}

	if appCfg.StorageType == "s3" && appCfg.StorageS3Bucket == "" {
		return fmt.Errorf("storage_type is s3 but storage_s3_bucket is empty")
	}

	return nil
}
