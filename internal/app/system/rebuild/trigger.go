// Package rebuild dispatches site rebuilds after publish-state changes.
//
// Dispatch is fire-and-forget by contract: the admin mutation that caused it
// has already committed and responded, so every failure here is logged and
// swallowed. Nothing on this path ever rolls back a status change.
package rebuild

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	buildstore "github.com/dalemusser/stratapages/internal/app/store/builds"
	"go.uber.org/zap"
)

// Rebuild reasons, re-exported so handlers depend only on this package.
const (
	ReasonPublish   = buildstore.ReasonPublish
	ReasonUnpublish = buildstore.ReasonUnpublish
	ReasonUpdate    = buildstore.ReasonUpdate
	ReasonDelete    = buildstore.ReasonDelete
	ReasonManual    = buildstore.ReasonManual
)

// Config holds the external endpoints a rebuild touches. Any empty URL
// disables that step.
type Config struct {
	// WebhookURL is the CI pipeline's build hook; WebhookToken is sent as a
	// Bearer credential.
	WebhookURL   string
	WebhookToken string

	// CDNPurgeURL invalidates the edge cache after CI redeploys.
	CDNPurgeURL   string
	CDNPurgeToken string

	// NotifyWebhookURL posts a human-readable note to a chat channel.
	NotifyWebhookURL string

	// Timeout bounds one whole dispatch. Defaults to 60s.
	Timeout time.Duration
}

// Exporter regenerates the local static export. *staticgen.Generator
// satisfies this; the indirection keeps the import direction one-way.
type Exporter interface {
	Export(ctx context.Context) error
}

// Trigger dispatches rebuilds.
type Trigger struct {
	cfg      Config
	builds   *buildstore.Store
	exporter Exporter
	client   *http.Client
	logger   *zap.Logger
}

// New creates a rebuild trigger.
func New(cfg Config, builds *buildstore.Store, logger *zap.Logger) *Trigger {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Trigger{
		cfg:    cfg,
		builds: builds,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// SetExporter enables the local static re-export step.
func (t *Trigger) SetExporter(e Exporter) {
	t.exporter = e
}

// Fire dispatches a rebuild without waiting for it. The work runs on a
// detached context so the HTTP response that triggered it returns
// immediately and a client disconnect cannot cancel the dispatch.
func (t *Trigger) Fire(reason, pageSlug string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.cfg.Timeout)
		defer cancel()
		t.Dispatch(ctx, reason, pageSlug)
	}()
}

// Dispatch performs one rebuild synchronously: record the build, notify CI,
// purge the CDN, post the chat notification, and refresh the local export.
// Each step is independent; one failing does not stop the rest.
func (t *Trigger) Dispatch(ctx context.Context, reason, pageSlug string) {
	buildID := ""
	if t.builds != nil {
		b, err := t.builds.Create(ctx, reason, pageSlug)
		if err != nil {
			t.logger.Error("rebuild: failed to record build", zap.Error(err))
		} else {
			buildID = b.ID
		}
	}

	log := t.logger.With(
		zap.String("build_id", buildID),
		zap.String("reason", reason),
		zap.String("page_slug", pageSlug))

	if t.cfg.WebhookURL != "" {
		payload := map[string]string{
			"buildId": buildID,
			"reason":  reason,
			"slug":    pageSlug,
		}
		if err := t.post(ctx, t.cfg.WebhookURL, t.cfg.WebhookToken, payload); err != nil {
			log.Error("rebuild: webhook dispatch failed", zap.Error(err))
		} else {
			log.Info("rebuild: webhook dispatched")
		}
	}

	if t.cfg.CDNPurgeURL != "" {
		if err := t.post(ctx, t.cfg.CDNPurgeURL, t.cfg.CDNPurgeToken, map[string]string{"reason": reason}); err != nil {
			log.Error("rebuild: cdn purge failed", zap.Error(err))
		} else {
			log.Info("rebuild: cdn purge requested")
		}
	}

	if t.cfg.NotifyWebhookURL != "" {
		msg := map[string]string{
			"text": "site rebuild dispatched (" + reason + ", slug: " + pageSlug + ")",
		}
		if err := t.post(ctx, t.cfg.NotifyWebhookURL, "", msg); err != nil {
			log.Warn("rebuild: notification failed", zap.Error(err))
		}
	}

	if t.exporter != nil {
		if err := t.exporter.Export(ctx); err != nil {
			log.Error("rebuild: local export failed", zap.Error(err))
		}
	}
}

// post sends a JSON payload, optionally with a Bearer token. Non-2xx
// responses count as failures.
func (t *Trigger) post(ctx context.Context, url, token string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// StatusError reports a non-2xx response from an external endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return "unexpected status " + strconv.Itoa(e.Code)
}
