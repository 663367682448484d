// internal/domain/models/landingpage.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LandingPage represents one published or draft landing page: the business
// metadata, SEO/social head fields, and the raw HTML body that the static
// renderer injects verbatim into the page document.
//
// bson field names are snake_case (MongoDB convention); json field names are
// camelCase to match the admin API surface.
type LandingPage struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title string             `bson:"title" json:"title"`
	Slug  string             `bson:"slug" json:"slug"` // unique, lowercase [a-z0-9-]{2,50}

	Description string `bson:"description,omitempty" json:"description,omitempty"`

	// SEO fields
	MetaTitle       string `bson:"meta_title" json:"metaTitle"`
	MetaDescription string `bson:"meta_description" json:"metaDescription"`
	CanonicalURL    string `bson:"canonical_url,omitempty" json:"canonicalUrl,omitempty"`

	// Social sharing fields
	OGTitle       string `bson:"og_title" json:"ogTitle"`
	OGDescription string `bson:"og_description" json:"ogDescription"`
	OGImage       string `bson:"og_image,omitempty" json:"ogImage,omitempty"`
	TwitterCard   string `bson:"twitter_card,omitempty" json:"twitterCard,omitempty"` // summary, summary_large_image

	// Business fields
	BusinessName     string `bson:"business_name" json:"businessName"`
	BusinessCategory string `bson:"business_category" json:"businessCategory"`
	BusinessPhone    string `bson:"business_phone,omitempty" json:"businessPhone,omitempty"`
	BusinessEmail    string `bson:"business_email,omitempty" json:"businessEmail,omitempty"`
	BusinessWebsite  string `bson:"business_website,omitempty" json:"businessWebsite,omitempty"`
	BusinessLocation string `bson:"business_location" json:"businessLocation"`

	// Raw HTML body, rendered verbatim by the static renderer.
	HTMLContent string `bson:"html_content" json:"htmlContent"`

	// Lifecycle
	Status      string     `bson:"status" json:"status"`             // draft, published, archived
	IsPublished bool       `bson:"is_published" json:"isPublished"`  // derived: status == published
	PublishedAt *time.Time `bson:"published_at,omitempty" json:"publishedAt,omitempty"`

	// View tracking (best-effort, never consistency-sensitive)
	ViewCount    int64      `bson:"view_count" json:"viewCount"`
	LastViewedAt *time.Time `bson:"last_viewed_at,omitempty" json:"lastViewedAt,omitempty"`

	// Audit stamps. CreatedAt/CreatedBy never change after creation.
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	CreatedBy string    `bson:"created_by" json:"createdBy"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
	UpdatedBy string    `bson:"updated_by" json:"updatedBy"`
}

// Page statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// AllStatuses returns all valid page statuses.
func AllStatuses() []string {
	return []string{
		StatusDraft,
		StatusPublished,
		StatusArchived,
	}
}

// IsValidStatus checks if a status is valid.
func IsValidStatus(status string) bool {
	for _, s := range AllStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// Twitter card variants
const (
	TwitterCardSummary           = "summary"
	TwitterCardSummaryLargeImage = "summary_large_image"
)

// AllTwitterCards returns all valid twitter card variants.
func AllTwitterCards() []string {
	return []string{
		TwitterCardSummary,
		TwitterCardSummaryLargeImage,
	}
}

// IsValidTwitterCard checks if a twitter card variant is valid.
func IsValidTwitterCard(card string) bool {
	for _, c := range AllTwitterCards() {
		if c == card {
			return true
		}
	}
	return false
}
