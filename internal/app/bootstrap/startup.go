// internal/app/bootstrap/startup.go
package bootstrap

// Terminology: Admin Identifiers
//   - UID / uid: The identity provider's subject claim, used as the admins
//     collection _id. Sessions and audit events reference admins by uid.

import (
	"context"

	"github.com/dalemusser/stratapages/internal/app/store/admins"
	"github.com/dalemusser/stratapages/internal/app/store/audit"
	buildstore "github.com/dalemusser/stratapages/internal/app/store/builds"
	pagestore "github.com/dalemusser/stratapages/internal/app/store/pages"
	"github.com/dalemusser/stratapages/internal/app/system/staticgen"
	"github.com/dalemusser/stratapages/internal/app/system/tasks"
	"github.com/dalemusser/stratapages/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// This is the place for one-time initialization that depends on having live
// database connections and fully loaded configuration. Unlike ConnectDB and
// EnsureSchema which focus on infrastructure, Startup is for application-level
// initialization.
//
// Returning a non-nil error will abort startup and prevent the server from
// starting. Returning nil signals that initialization succeeded.
//
// The context will be cancelled if the process is asked to shut down while
// Startup is running; honor it in any long-running work.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Seed admin if configured
	if appCfg.SeedAdminUID != "" && appCfg.SeedAdminEmail != "" {
		if err := ensureSeedAdmin(ctx, deps, appCfg, logger); err != nil {
			logger.Error("failed to seed admin", zap.Error(err))
			return err
		}
	}

	// Start background task runner
	if err := startTaskRunner(appCfg, deps, logger); err != nil {
		logger.Error("failed to start task runner", zap.Error(err))
		return err
	}

	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	taskRunner = tasks.New(logger)

	// Periodic static re-export, so the export directory converges even if
	// a fire-and-forget rebuild dispatch was lost.
	renderer, err := staticgen.NewRenderer(appCfg.BaseURL)
	if err != nil {
		return err
	}
	gen := staticgen.NewGenerator(
		pagestore.New(deps.MongoDatabase),
		renderer,
		appCfg.StaticExportDir,
		deps.ExportMirror,
		logger,
	)
	taskRunner.Register(tasks.StaticExportJob(gen, appCfg.StaticExportInterval, logger))

	// Retention jobs
	taskRunner.Register(tasks.AuditPruneJob(audit.New(deps.MongoDatabase), appCfg.AuditRetention, logger))
	taskRunner.Register(tasks.BuildPruneJob(buildstore.New(deps.MongoDatabase), logger))

	// Start running jobs
	taskRunner.Start()
	return nil
}

// ensureSeedAdmin creates the configured admin record if it does not exist.
// The seed admin gets the full capability set; an existing record is left
// untouched so capability edits made out-of-band survive restarts.
func ensureSeedAdmin(ctx context.Context, deps DBDeps, appCfg AppConfig, logger *zap.Logger) error {
	store := adminstore.New(deps.MongoDatabase)

	exists, err := store.Exists(ctx, appCfg.SeedAdminUID)
	if err != nil {
		return err
	}
	if exists {
		logger.Debug("seed admin already configured", zap.String("uid", appCfg.SeedAdminUID))
		return nil
	}

	role := appCfg.SeedAdminRole
	if role == "" {
		role = models.RoleSuperadmin
	}

	created, err := store.Create(ctx, models.Admin{
		UID:          appCfg.SeedAdminUID,
		Email:        appCfg.SeedAdminEmail,
		DisplayName:  appCfg.SeedAdminName,
		Role:         role,
		Capabilities: models.FullCapabilities(),
	})
	if err != nil {
		return err
	}

	logger.Info("created seed admin",
		zap.String("uid", created.UID),
		zap.String("email", created.Email),
		zap.String("role", created.Role))
	return nil
}
