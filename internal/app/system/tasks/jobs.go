// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/stratapages/internal/app/store/audit"
	buildstore "github.com/dalemusser/stratapages/internal/app/store/builds"
	"go.uber.org/zap"
)

// exporter matches staticgen.Generator without importing it.
type exporter interface {
	Export(ctx context.Context) error
}

// StaticExportJob regenerates the local static export on an interval, so the
// export directory converges even if a fire-and-forget rebuild was lost.
func StaticExportJob(gen exporter, interval time.Duration, logger *zap.Logger) Job {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	return Job{
		Name:     "static-export",
		Interval: interval,
		Run: func(ctx context.Context) error {
			return gen.Export(ctx)
		},
	}
}

// AuditPruneJob enforces audit log retention. Events older than the retention
// window are deleted once a day.
func AuditPruneJob(store *audit.Store, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "audit-prune",
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) error {
			if retention <= 0 {
				return nil
			}
			deleted, err := store.Prune(ctx, time.Now().Add(-retention))
			if err != nil {
				return err
			}
			if deleted > 0 {
				logger.Info("pruned old audit events",
					zap.Int64("deleted", deleted))
			}
			return nil
		},
	}
}

// BuildPruneJob removes old build records. Builds are operational breadcrumbs,
// not an audit trail, so 90 days is plenty.
func BuildPruneJob(store *buildstore.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "build-prune",
		Interval: 24 * time.Hour,
		Run: func(ctx context.Context) error {
			deleted, err := store.Prune(ctx, time.Now().Add(-90*24*time.Hour))
			if err != nil {
				return err
			}
			if deleted > 0 {
				logger.Info("pruned old build records",
					zap.Int64("deleted", deleted))
			}
			return nil
		},
	}
}
