// Package public serves the live public surface: rendered landing pages,
// sitemap.xml, and robots.txt. In production the CDN serves the static
// export for most traffic; these routes are the origin behind it and the
// always-fresh fallback.
package public

import (
	"context"
	"net/http"
	"time"

	pagestore "github.com/dalemusser/stratapages/internal/app/store/pages"
	"github.com/dalemusser/stratapages/internal/app/system/pageval"
	"github.com/dalemusser/stratapages/internal/app/system/staticgen"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves public page requests.
type Handler struct {
	pages    *pagestore.Store
	renderer *staticgen.Renderer
	logger   *zap.Logger
}

// NewHandler creates a new public handler.
func NewHandler(db *mongo.Database, renderer *staticgen.Renderer, logger *zap.Logger) *Handler {
	return &Handler{
		pages:    pagestore.New(db),
		renderer: renderer,
		logger:   logger,
	}
}

// PageHandler handles GET /{slug}. Draft and archived pages 404 exactly like
// missing ones; the public surface only knows published pages exist.
func (h *Handler) PageHandler(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if !pageval.IsValidSlug(slug) {
		h.NotFoundHandler(w, r)
		return
	}

	page, err := h.pages.GetPublishedBySlug(r.Context(), slug)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			h.NotFoundHandler(w, r)
			return
		}
		h.logger.Error("failed to load page",
			zap.String("slug", slug),
			zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	html, err := h.renderer.RenderPage(page)
	if err != nil {
		h.logger.Error("failed to render page",
			zap.String("slug", slug),
			zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// View tracking is best-effort and off the request path; a dead counter
	// never slows or fails a page view.
	go h.countView(page.ID, page.Slug)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func (h *Handler) countView(id primitive.ObjectID, slug string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.pages.IncrementViewCount(ctx, id); err != nil {
		h.logger.Warn("failed to count view",
			zap.String("slug", slug),
			zap.Error(err))
	}
}

// SitemapHandler handles GET /sitemap.xml. A page store failure degrades to
// the static-only sitemap; crawlers always get a valid document.
func (h *Handler) SitemapHandler(w http.ResponseWriter, r *http.Request) {
	pages, err := h.pages.ListPublished(r.Context())
	if err != nil {
		h.logger.Error("sitemap: page store unavailable, serving static-only sitemap",
			zap.Error(err))
		pages = nil
	}

	body, err := h.renderer.Sitemap(pages)
	if err != nil {
		h.logger.Error("failed to render sitemap", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write(body)
}

// RobotsHandler handles GET /robots.txt.
func (h *Handler) RobotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(h.renderer.RobotsTxt())
}

// NotFoundHandler serves a minimal 404 page.
func (h *Handler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("<!DOCTYPE html><html><head><title>Page Not Found</title></head><body><h1>404</h1><p>This page does not exist.</p></body></html>\n"))
}
