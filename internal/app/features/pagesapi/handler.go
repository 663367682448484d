// Package pagesapi provides the landing page management endpoints.
//
// Endpoints (all behind a session; mutations also behind capabilities):
//   - GET    /pages              - List pages with optional filters
//   - POST   /pages              - Create a page
//   - GET    /pages/{id}         - Fetch one page
//   - PUT    /pages/{id}         - Replace a page's editable fields
//   - DELETE /pages/{id}         - Delete a page
//   - POST   /pages/{id}/publish - Toggle published status
//
// Every successful mutation writes one audit event before the response goes
// out. Mutations that move a page across the published boundary also fire
// the rebuild trigger, after responding, without awaiting it.
package pagesapi

import (
	"errors"
	"net/http"

	pagestore "github.com/dalemusser/stratapages/internal/app/store/pages"
	"github.com/dalemusser/stratapages/internal/app/system/auditlog"
	"github.com/dalemusser/stratapages/internal/app/system/auth"
	"github.com/dalemusser/stratapages/internal/app/system/jsonutil"
	"github.com/dalemusser/stratapages/internal/app/system/normalize"
	"github.com/dalemusser/stratapages/internal/app/system/pageval"
	"github.com/dalemusser/stratapages/internal/app/system/rebuild"
	"github.com/dalemusser/stratapages/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler handles page management API requests.
type Handler struct {
	pages       *pagestore.Store
	auditLogger *auditlog.Logger
	trigger     *rebuild.Trigger
	logger      *zap.Logger
}

// NewHandler creates a new pagesapi handler.
func NewHandler(db *mongo.Database, auditLogger *auditlog.Logger, trigger *rebuild.Trigger, logger *zap.Logger) *Handler {
	return &Handler{
		pages:       pagestore.New(db),
		auditLogger: auditLogger,
		trigger:     trigger,
		logger:      logger,
	}
}

// pageID extracts and parses the {id} route parameter. A malformed id is
// indistinguishable from an unknown one to callers: both are 404.
func pageID(r *http.Request) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// ListHandler handles GET /pages.
//
// Query parameters: status, category, search (all optional).
// Response: {"data": [...], "count": N}
func (h *Handler) ListHandler(w http.ResponseWriter, r *http.Request) {
	filter := pagestore.ListFilter{
		Status:   normalize.QueryParam(r.URL.Query().Get("status")),
		Category: normalize.QueryParam(r.URL.Query().Get("category")),
		Search:   normalize.QueryParam(r.URL.Query().Get("search")),
	}

	pages, err := h.pages.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list pages", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}
	if pages == nil {
		pages = []models.LandingPage{}
	}

	jsonutil.OK(w, map[string]any{
		"data":  pages,
		"count": len(pages),
	})
}

// CreateHandler handles POST /pages.
//
// Response (201 Created): {"pageId": "..."}
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.CurrentAdmin(r)

	var in pageval.PageInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	in.Slug = normalize.Slug(in.Slug)

	if fields := pageval.Validate(in); len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	taken, err := h.pages.IsSlugTaken(r.Context(), in.Slug, primitive.NilObjectID)
	if err != nil {
		h.logger.Error("failed to check slug", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}
	if taken {
		jsonutil.ValidationError(w, map[string]string{"slug": "this slug is already in use"})
		return
	}

	created, err := h.pages.Create(r.Context(), pageFromInput(in), admin.UID)
	if err != nil {
		// The unique index closes the check-then-create race; a concurrent
		// winner surfaces here as a duplicate.
		if errors.Is(err, pagestore.ErrDuplicateSlug) {
			jsonutil.ValidationError(w, map[string]string{"slug": "this slug is already in use"})
			return
		}
		h.logger.Error("failed to create page", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}

	h.auditLogger.PageCreated(r.Context(), r, admin.UID, &created)

	if created.IsPublished {
		h.trigger.Fire(rebuild.ReasonPublish, created.Slug)
	}

	jsonutil.Created(w, map[string]string{"pageId": created.ID.Hex()})
}

// GetHandler handles GET /pages/{id}.
func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	oid, ok := pageID(r)
	if !ok {
		jsonutil.NotFound(w, "page not found")
		return
	}

	page, err := h.pages.GetByID(r.Context(), oid)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			jsonutil.NotFound(w, "page not found")
			return
		}
		h.logger.Error("failed to get page", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}

	jsonutil.OK(w, map[string]any{"data": page})
}

// UpdateHandler handles PUT /pages/{id}. The body is a full replacement of
// the editable surface; partial updates are not supported.
func (h *Handler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.CurrentAdmin(r)

	oid, ok := pageID(r)
	if !ok {
		jsonutil.NotFound(w, "page not found")
		return
	}

	var in pageval.PageInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	in.Slug = normalize.Slug(in.Slug)

	if fields := pageval.Validate(in); len(fields) > 0 {
		jsonutil.ValidationError(w, fields)
		return
	}

	taken, err := h.pages.IsSlugTaken(r.Context(), in.Slug, oid)
	if err != nil {
		h.logger.Error("failed to check slug", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}
	if taken {
		jsonutil.ValidationError(w, map[string]string{"slug": "this slug is already in use"})
		return
	}

	before, err := h.pages.GetByID(r.Context(), oid)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			jsonutil.NotFound(w, "page not found")
			return
		}
		h.logger.Error("failed to get page", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}

	found, err := h.pages.Update(r.Context(), oid, updateFromInput(in), admin.UID)
	if err != nil {
		if errors.Is(err, pagestore.ErrDuplicateSlug) {
			jsonutil.ValidationError(w, map[string]string{"slug": "this slug is already in use"})
			return
		}
		h.logger.Error("failed to update page", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}
	if !found {
		jsonutil.NotFound(w, "page not found")
		return
	}

	after, err := h.pages.GetByID(r.Context(), oid)
	if err != nil {
		h.logger.Error("failed to reload page after update", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}

	h.auditLogger.PageUpdated(r.Context(), r, admin.UID, before, after)

	// A full update can cross the published boundary too
	switch {
	case after.IsPublished && !before.IsPublished:
		h.trigger.Fire(rebuild.ReasonPublish, after.Slug)
	case !after.IsPublished && before.IsPublished:
		h.trigger.Fire(rebuild.ReasonUnpublish, after.Slug)
	case after.IsPublished:
		// Edits to a live page need a rebuild as well
		h.trigger.Fire(rebuild.ReasonUpdate, after.Slug)
	}

	jsonutil.OK(w, map[string]bool{"success": true})
}

// DeleteHandler handles DELETE /pages/{id}. Deletion is hard; the audit
// event's "before" snapshot is the only remaining copy.
func (h *Handler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.CurrentAdmin(r)

	oid, ok := pageID(r)
	if !ok {
		jsonutil.NotFound(w, "page not found")
		return
	}

	before, err := h.pages.GetByID(r.Context(), oid)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			jsonutil.NotFound(w, "page not found")
			return
		}
		h.logger.Error("failed to get page", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}

	deleted, err := h.pages.Delete(r.Context(), oid)
	if err != nil {
		h.logger.Error("failed to delete page", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}
	if deleted == 0 {
		jsonutil.NotFound(w, "page not found")
		return
	}

	h.auditLogger.PageDeleted(r.Context(), r, admin.UID, before)

	if before.IsPublished {
		h.trigger.Fire(rebuild.ReasonDelete, before.Slug)
	}

	jsonutil.OK(w, map[string]bool{"success": true})
}

// PublishHandler handles POST /pages/{id}/publish.
//
// Request body: {"publish": true|false}
// Response: {"success": true, "page": {...}}
//
// Toggling to the state the page is already in is a no-op: no audit event,
// no rebuild, no timestamp changes, and the unchanged page comes back 200.
func (h *Handler) PublishHandler(w http.ResponseWriter, r *http.Request) {
	admin, _ := auth.CurrentAdmin(r)

	oid, ok := pageID(r)
	if !ok {
		jsonutil.NotFound(w, "page not found")
		return
	}

	var in struct {
		Publish *bool `json:"publish"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if in.Publish == nil {
		jsonutil.BadRequest(w, "publish is required")
		return
	}

	before, err := h.pages.GetByID(r.Context(), oid)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			jsonutil.NotFound(w, "page not found")
			return
		}
		h.logger.Error("failed to get page", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}

	if before.IsPublished == *in.Publish {
		jsonutil.OK(w, map[string]any{"success": true, "page": before})
		return
	}

	newStatus := models.StatusDraft
	reason := rebuild.ReasonUnpublish
	if *in.Publish {
		newStatus = models.StatusPublished
		reason = rebuild.ReasonPublish
	}

	found, err := h.pages.SetStatus(r.Context(), oid, newStatus, admin.UID)
	if err != nil {
		h.logger.Error("failed to set page status", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}
	if !found {
		jsonutil.NotFound(w, "page not found")
		return
	}

	after, err := h.pages.GetByID(r.Context(), oid)
	if err != nil {
		h.logger.Error("failed to reload page after publish", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}

	h.auditLogger.PagePublishChanged(r.Context(), r, admin.UID, before, after)

	h.trigger.Fire(reason, after.Slug)

	jsonutil.OK(w, map[string]any{"success": true, "page": after})
}

// pageFromInput maps a validated input onto a new page record. Lifecycle
// fields are the store's job.
func pageFromInput(in pageval.PageInput) models.LandingPage {
	return models.LandingPage{
		Title:            in.Title,
		Slug:             in.Slug,
		Description:      in.Description,
		MetaTitle:        in.MetaTitle,
		MetaDescription:  in.MetaDescription,
		CanonicalURL:     in.CanonicalURL,
		OGTitle:          in.OGTitle,
		OGDescription:    in.OGDescription,
		OGImage:          in.OGImage,
		TwitterCard:      in.TwitterCard,
		BusinessName:     in.BusinessName,
		BusinessCategory: in.BusinessCategory,
		BusinessPhone:    in.BusinessPhone,
		BusinessEmail:    in.BusinessEmail,
		BusinessWebsite:  in.BusinessWebsite,
		BusinessLocation: in.BusinessLocation,
		HTMLContent:      in.HTMLContent,
		Status:           in.Status,
	}
}

// updateFromInput maps a validated input onto a store update.
func updateFromInput(in pageval.PageInput) pagestore.PageUpdate {
	return pagestore.PageUpdate{
		Title:            in.Title,
		Slug:             in.Slug,
		Description:      in.Description,
		MetaTitle:        in.MetaTitle,
		MetaDescription:  in.MetaDescription,
		CanonicalURL:     in.CanonicalURL,
		OGTitle:          in.OGTitle,
		OGDescription:    in.OGDescription,
		OGImage:          in.OGImage,
		TwitterCard:      in.TwitterCard,
		BusinessName:     in.BusinessName,
		BusinessCategory: in.BusinessCategory,
		BusinessPhone:    in.BusinessPhone,
		BusinessEmail:    in.BusinessEmail,
		BusinessWebsite:  in.BusinessWebsite,
		BusinessLocation: in.BusinessLocation,
		HTMLContent:      in.HTMLContent,
		Status:           in.Status,
	}
}
