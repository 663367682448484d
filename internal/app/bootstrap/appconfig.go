// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where you put everything specific to YOUR application:
//   - Database connection strings (MongoDB URI, etc.)
//   - External service API keys and endpoints
//   - Feature flags and application modes
//   - Business logic configuration
//   - Default values for your domain
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: stratapages-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Maximum session cookie lifetime (default: 24h)

	// CSRF protection configuration
	CSRFKey string // Secret key for CSRF token signing (32 bytes, must be strong in production)

	// Public site origin. Used for canonical URLs, sitemap entries, and the
	// Google OAuth redirect URL.
	BaseURL string // e.g., "https://example.com" or "http://localhost:8080"

	// AdminConsoleURL is where the browser OAuth flow lands after login.
	// Usually the admin SPA origin; defaults to "/".
	AdminConsoleURL string

	// Google identity configuration. ClientID alone enables the token-based
	// login endpoint; ClientSecret additionally enables the browser OAuth flow.
	GoogleClientID     string
	GoogleClientSecret string

	// Rebuild pipeline configuration. Empty URLs disable the matching step.
	RebuildWebhookURL   string        // CI build hook endpoint
	RebuildWebhookToken string        // Bearer credential for the build hook
	CDNPurgeURL         string        // CDN cache invalidation endpoint
	CDNPurgeToken       string        // Bearer credential for CDN purge
	NotifyWebhookURL    string        // Chat notification webhook
	RebuildTimeout      time.Duration // Budget for one whole dispatch (default: 60s)

	// BuildCallbackSecretHash is the bcrypt hash of the secret CI presents
	// when reporting build completion. Empty disables the callback endpoint's
	// only valid credential, effectively locking it.
	BuildCallbackSecretHash string

	// Static export configuration
	StaticExportDir      string        // Directory the static site is written to
	StaticExportInterval time.Duration // Periodic re-export interval (default: 1h)

	// Export mirror configuration. "s3" mirrors every exported artifact to an
	// S3 bucket (fronted by CloudFront); "local" keeps the export on disk only.
	StorageType        string
	StorageS3Region    string // AWS region
	StorageS3Bucket    string // S3 bucket name
	StorageS3Prefix    string // Key prefix (e.g., "site/")
	StorageCFURL       string // CloudFront distribution URL
	StorageCFKeyPairID string // CloudFront key pair ID
	StorageCFKeyPath   string // Path to CloudFront private key file

	// Audit logging configuration
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	AuditLogAuth   string        // Authentication events (login, logout)
	AuditLogAdmin  string        // Admin actions (page CRUD, publish changes)
	AuditRetention time.Duration // How long audit events are kept (0 disables pruning)

	// Admin seeding configuration. When UID and email are set, an admin
	// record is created at startup if one does not already exist.
	SeedAdminUID   string // Identity provider subject of the seed admin
	SeedAdminEmail string // Email of the seed admin
	SeedAdminName  string // Display name of the seed admin
	SeedAdminRole  string // Role of the seed admin (default: superadmin)
}
