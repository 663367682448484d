// internal/app/store/pages/pagestore.go
package pagestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/stratapages/internal/app/system/normalize"
	"github.com/dalemusser/stratapages/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the landing_pages collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new landing page store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("landing_pages")}
}

// ErrDuplicateSlug is returned when attempting to create or update a page
// with a slug that already belongs to another page.
var ErrDuplicateSlug = errors.New("a page with this slug already exists")

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Status   string // exact match against status
	Category string // exact match against business_category
	Search   string // case/diacritic-insensitive substring over title, slug, business name
}

// List returns pages matching the filter, newest update first.
// Status and category are applied as query conditions; the free-text search
// is applied after retrieval as a folded substring match so partial words
// and mixed case behave the way admins expect.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.LandingPage, error) {
	query := bson.M{}
	if st := normalize.Status(f.Status); st != "" {
		query["status"] = st
	}
	if cat := normalize.Category(f.Category); cat != "" {
		query["business_category"] = cat
	}

	opts := options.Find().SetSort(bson.M{"updated_at": -1})
	cur, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var pages []models.LandingPage
	if err := cur.All(ctx, &pages); err != nil {
		return nil, err
	}

	search := text.Fold(normalize.QueryParam(f.Search))
	if search == "" {
		return pages, nil
	}

	matched := pages[:0]
	for _, p := range pages {
		if strings.Contains(text.Fold(p.Title), search) ||
			strings.Contains(text.Fold(p.Slug), search) ||
			strings.Contains(text.Fold(p.BusinessName), search) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// GetByID loads a page by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.LandingPage, error) {
	var p models.LandingPage
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPublishedBySlug loads a page by slug only if it is currently published.
// Returns mongo.ErrNoDocuments for missing, draft, and archived pages alike.
func (s *Store) GetPublishedBySlug(ctx context.Context, slug string) (*models.LandingPage, error) {
	var p models.LandingPage
	if err := s.c.FindOne(ctx, bson.M{
		"slug":   normalize.Slug(slug),
		"status": models.StatusPublished,
	}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// IsSlugTaken checks if a slug already belongs to a page other than excludeID.
// Pass primitive.NilObjectID when creating (no page to exclude).
func (s *Store) IsSlugTaken(ctx context.Context, slug string, excludeID primitive.ObjectID) (bool, error) {
	query := bson.M{"slug": normalize.Slug(slug)}
	if !excludeID.IsZero() {
		query["_id"] = bson.M{"$ne": excludeID}
	}
	err := s.c.FindOne(ctx, query).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}

// Create inserts a new page after normalizing and stamping it.
// The caller validates field contents first; Create derives the lifecycle
// fields (is_published, published_at) from status and zeroes the counters.
func (s *Store) Create(ctx context.Context, p models.LandingPage, actorUID string) (models.LandingPage, error) {
	p.ID = primitive.NewObjectID()
	p.Slug = normalize.Slug(p.Slug)
	p.Status = normalize.Status(p.Status)
	if p.Status == "" {
		p.Status = models.StatusDraft
	}
	if p.BusinessEmail != "" {
		p.BusinessEmail = normalize.Email(p.BusinessEmail)
	}

	now := time.Now().UTC()
	p.IsPublished = p.Status == models.StatusPublished
	if p.IsPublished {
		p.PublishedAt = &now
	} else {
		p.PublishedAt = nil
	}
	p.ViewCount = 0
	p.LastViewedAt = nil
	p.CreatedAt = now
	p.CreatedBy = actorUID
	p.UpdatedAt = now
	p.UpdatedBy = actorUID

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.LandingPage{}, ErrDuplicateSlug
		}
		return models.LandingPage{}, err
	}
	return p, nil
}

// PageUpdate holds the replaceable fields of a page. Update treats it as a
// full replacement of the editable surface; created_at/created_by and the
// view counters are never touched.
type PageUpdate struct {
	Title       string
	Slug        string
	Description string

	MetaTitle       string
	MetaDescription string
	CanonicalURL    string

	OGTitle       string
	OGDescription string
	OGImage       string
	TwitterCard   string

	BusinessName     string
	BusinessCategory string
	BusinessPhone    string
	BusinessEmail    string
	BusinessWebsite  string
	BusinessLocation string

	HTMLContent string
	Status      string
}

// Update replaces the editable fields of a page. Returns (false, nil) when no
// page has the given ID. published_at moves only on a status transition
// across the published boundary: set when entering published, cleared when
// leaving it, untouched otherwise.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd PageUpdate, actorUID string) (bool, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, err
	}

	newStatus := normalize.Status(upd.Status)
	if newStatus == "" {
		newStatus = models.StatusDraft
	}
	now := time.Now().UTC()

	set := bson.M{
		"title":             upd.Title,
		"slug":              normalize.Slug(upd.Slug),
		"description":       upd.Description,
		"meta_title":        upd.MetaTitle,
		"meta_description":  upd.MetaDescription,
		"canonical_url":     upd.CanonicalURL,
		"og_title":          upd.OGTitle,
		"og_description":    upd.OGDescription,
		"og_image":          upd.OGImage,
		"twitter_card":      upd.TwitterCard,
		"business_name":     upd.BusinessName,
		"business_category": normalize.Category(upd.BusinessCategory),
		"business_phone":    upd.BusinessPhone,
		"business_email":    normalize.Email(upd.BusinessEmail),
		"business_website":  upd.BusinessWebsite,
		"business_location": upd.BusinessLocation,
		"html_content":      upd.HTMLContent,
		"status":            newStatus,
		"is_published":      newStatus == models.StatusPublished,
		"updated_at":        now,
		"updated_by":        actorUID,
	}

	update := bson.M{"$set": set}
	wasPublished := current.Status == models.StatusPublished
	nowPublished := newStatus == models.StatusPublished
	switch {
	case nowPublished && !wasPublished:
		set["published_at"] = now
	case !nowPublished && wasPublished:
		update["$unset"] = bson.M{"published_at": ""}
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return false, ErrDuplicateSlug
		}
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// SetStatus moves a page to the given status, applying the same published_at
// transition rules as Update. Returns (false, nil) when the page is missing.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status, actorUID string) (bool, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, err
	}

	newStatus := normalize.Status(status)
	now := time.Now().UTC()
	set := bson.M{
		"status":       newStatus,
		"is_published": newStatus == models.StatusPublished,
		"updated_at":   now,
		"updated_by":   actorUID,
	}

	update := bson.M{"$set": set}
	wasPublished := current.Status == models.StatusPublished
	nowPublished := newStatus == models.StatusPublished
	switch {
	case nowPublished && !wasPublished:
		set["published_at"] = now
	case !nowPublished && wasPublished:
		update["$unset"] = bson.M{"published_at": ""}
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// Delete removes a page by ID.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListPublished returns published pages only, most recently published first.
// This is the static renderer's input set.
func (s *Store) ListPublished(ctx context.Context) ([]models.LandingPage, error) {
	opts := options.Find().SetSort(bson.M{"published_at": -1})
	cur, err := s.c.Find(ctx, bson.M{"status": models.StatusPublished}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var pages []models.LandingPage
	if err := cur.All(ctx, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// IncrementViewCount bumps a page's view counter and last-viewed timestamp.
// Best-effort tracking; callers log and ignore the error.
func (s *Store) IncrementViewCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"view_count": 1},
		"$set": bson.M{"last_viewed_at": time.Now().UTC()},
	})
	return err
}
