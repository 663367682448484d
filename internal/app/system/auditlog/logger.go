// internal/app/system/auditlog/logger.go
package auditlog

// Terminology: Admin Identifiers
//   - UID / uid: The identity provider's subject claim, used as the admins
//     collection _id. Audit events record actors by uid.

import (
	"context"
	"net/http"

	"github.com/dalemusser/stratapages/internal/app/store/audit"
	"github.com/dalemusser/stratapages/internal/app/system/network"
	"github.com/dalemusser/stratapages/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for page mutation events (create, update, delete, publish).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
// Store failures are logged and swallowed; an audit insert never blocks or
// fails the mutation it describes.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure. Snapshots stay in
// MongoDB only; the structured log carries the classification and context.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.ActorUID != "" {
		fields = append(fields, zap.String("actor_uid", event.ActorUID))
	}
	if event.TargetType != "" {
		fields = append(fields, zap.String("target_type", event.TargetType),
			zap.String("target_id", event.TargetID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	// Determine which config setting applies based on event category
	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all" // Default to logging everything for unknown categories
	}

	// Check if logging is disabled for this category
	if setting == "off" {
		return
	}

	// Log to zap if configured
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	// Log to MongoDB if configured
	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// PageSnapshot converts a page into the bson document stored in an audit
// event's before/after fields. nil in, nil out (created pages have no
// "before"; deleted pages have no "after").
func PageSnapshot(p *models.LandingPage) bson.M {
	if p == nil {
		return nil
	}
	raw, err := bson.Marshal(p)
	if err != nil {
		return nil
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return doc
}

// --- Authentication Events ---

// LoginSuccess logs a successful admin login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, uid, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		ActorUID:  uid,
		IP:        network.GetClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"email": email,
		},
	})
}

// LoginFailedInvalidToken logs a login attempt with a token the provider rejected.
func (l *Logger) LoginFailedInvalidToken(ctx context.Context, r *http.Request) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedInvalidToken,
		IP:            network.GetClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "invalid token",
	})
}

// LoginFailedNotAdmin logs a verified identity that is not a registered admin.
func (l *Logger) LoginFailedNotAdmin(ctx context.Context, r *http.Request, uid, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedNotAdmin,
		ActorUID:      uid,
		IP:            network.GetClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "not an admin",
		Details: map[string]string{
			"email": email,
		},
	})
}

// Logout logs an admin logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, uid string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		ActorUID:  uid,
		IP:        network.GetClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// --- Page Events ---

// PageCreated logs a page creation with the created document as "after".
func (l *Logger) PageCreated(ctx context.Context, r *http.Request, actorUID string, after *models.LandingPage) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  audit.EventPageCreated,
		ActorUID:   actorUID,
		TargetType: audit.TargetPage,
		TargetID:   after.ID.Hex(),
		After:      PageSnapshot(after),
		IP:         network.GetClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"slug": after.Slug,
		},
	})
}

// PageUpdated logs a page update with before/after snapshots.
func (l *Logger) PageUpdated(ctx context.Context, r *http.Request, actorUID string, before, after *models.LandingPage) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  audit.EventPageUpdated,
		ActorUID:   actorUID,
		TargetType: audit.TargetPage,
		TargetID:   before.ID.Hex(),
		Before:     PageSnapshot(before),
		After:      PageSnapshot(after),
		IP:         network.GetClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"slug": after.Slug,
		},
	})
}

// PageDeleted logs a page deletion with the removed document as "before".
func (l *Logger) PageDeleted(ctx context.Context, r *http.Request, actorUID string, before *models.LandingPage) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  audit.EventPageDeleted,
		ActorUID:   actorUID,
		TargetType: audit.TargetPage,
		TargetID:   before.ID.Hex(),
		Before:     PageSnapshot(before),
		IP:         network.GetClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"slug": before.Slug,
		},
	})
}

// PagePublishChanged logs a publish toggle with before/after snapshots.
// The event type follows the direction of the transition.
func (l *Logger) PagePublishChanged(ctx context.Context, r *http.Request, actorUID string, before, after *models.LandingPage) {
	eventType := audit.EventPagePublished
	if after.Status != models.StatusPublished {
		eventType = audit.EventPageUnpublished
	}
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  eventType,
		ActorUID:   actorUID,
		TargetType: audit.TargetPage,
		TargetID:   before.ID.Hex(),
		Before:     PageSnapshot(before),
		After:      PageSnapshot(after),
		IP:         network.GetClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"slug": after.Slug,
		},
	})
}
