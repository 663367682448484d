// Package pageval validates candidate landing page records using
// waffle/pantry/validate.
//
// Validation is pure: it inspects a PageInput and returns a map of
// json field name -> user-friendly message, first violated rule per field.
// An empty map means the input is valid. Uniqueness (slug collisions) is the
// store's concern, not this package's.
package pageval

import (
	"net/mail"
	"net/url"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/dalemusser/stratapages/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
)

// PageInput is the editable surface of a landing page as submitted by the
// admin API. json tags double as the field keys in validation error maps.
type PageInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"required,slug"`
	Description string `json:"description" validate:"max=500"`

	MetaTitle       string `json:"metaTitle" validate:"required,max=70"`
	MetaDescription string `json:"metaDescription" validate:"required,min=20,max=160"`
	CanonicalURL    string `json:"canonicalUrl" validate:"opturl"`

	OGTitle       string `json:"ogTitle" validate:"required,max=100"`
	OGDescription string `json:"ogDescription" validate:"required,max=200"`
	OGImage       string `json:"ogImage" validate:"imageurl"`
	TwitterCard   string `json:"twitterCard" validate:"twittercard"`

	BusinessName     string `json:"businessName" validate:"required,max=200"`
	BusinessCategory string `json:"businessCategory" validate:"required,max=100"`
	BusinessPhone    string `json:"businessPhone" validate:"optphone"`
	BusinessEmail    string `json:"businessEmail" validate:"optemail"`
	BusinessWebsite  string `json:"businessWebsite" validate:"opturl"`
	BusinessLocation string `json:"businessLocation" validate:"required,max=200"`

	HTMLContent string `json:"htmlContent" validate:"required,min=10,max=1000000"`
	Status      string `json:"status" validate:"pagestatus"`
}

// slugRe enforces 2-50 chars of lowercase letters, digits, and hyphens,
// with no leading or trailing hyphen.
var slugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,48}[a-z0-9]$`)

// AllowedImageExtensions are the file extensions accepted for ogImage URLs.
var AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}

// AllowedImageHosts are hosts whose URLs are accepted for ogImage even
// without a recognizable file extension (image CDNs serve extensionless URLs).
var AllowedImageHosts = []string{
	"images.unsplash.com",
	"res.cloudinary.com",
	"lh3.googleusercontent.com",
}

// customValidator is a singleton validator with custom rules registered.
// The optional-field rules ("opt*") accept empty strings so absent values
// pass; required-ness is always expressed separately.
var (
	customValidator *validate.Validator
	validatorOnce   sync.Once
)

func getValidator() *validate.Validator {
	validatorOnce.Do(func() {
		customValidator = validate.New()

		// slug: validates the canonical slug format
		customValidator.RegisterRuleFunc("slug", func(value any) bool {
			if s, ok := value.(string); ok {
				return IsValidSlug(s)
			}
			return false
		}, "slug")

		// opturl: empty, or a valid http/https URL
		customValidator.RegisterRuleFunc("opturl", func(value any) bool {
			if s, ok := value.(string); ok {
				return s == "" || IsValidHTTPURL(s)
			}
			return false
		}, "opturl")

		// optemail: empty, or a valid email address
		customValidator.RegisterRuleFunc("optemail", func(value any) bool {
			if s, ok := value.(string); ok {
				return s == "" || IsValidEmail(s)
			}
			return false
		}, "optemail")

		// optphone: empty, or a plausible phone number
		customValidator.RegisterRuleFunc("optphone", func(value any) bool {
			if s, ok := value.(string); ok {
				return s == "" || IsValidPhone(s)
			}
			return false
		}, "optphone")

		// imageurl: empty, or an http/https URL with an allowed image
		// extension or an allow-listed host
		customValidator.RegisterRuleFunc("imageurl", func(value any) bool {
			if s, ok := value.(string); ok {
				return s == "" || IsValidImageURL(s)
			}
			return false
		}, "imageurl")

		// twittercard: empty, or a valid twitter card variant
		customValidator.RegisterRuleFunc("twittercard", func(value any) bool {
			if s, ok := value.(string); ok {
				return s == "" || models.IsValidTwitterCard(s)
			}
			return false
		}, "twittercard")

		// pagestatus: empty (defaults to draft downstream), or a valid status
		customValidator.RegisterRuleFunc("pagestatus", func(value any) bool {
			if s, ok := value.(string); ok {
				return s == "" || models.IsValidStatus(s)
			}
			return false
		}, "pagestatus")
	})
	return customValidator
}

// Validate checks a PageInput and returns a map of json field name to
// message. The first violated rule per field wins; an empty map means valid.
func Validate(in PageInput) map[string]string {
	fields := make(map[string]string)

	err := getValidator().Struct(in)
	if err == nil {
		return fields
	}

	if errs, ok := err.(validate.Errors); ok {
		for _, e := range errs {
			if _, seen := fields[e.Field]; seen {
				continue
			}
			fields[e.Field] = formatMessage(e.Field, e.Rule, e.Param)
		}
	}

	return fields
}

// formatMessage creates a user-friendly message for a validation rule.
func formatMessage(field, rule, param string) string {
	switch rule {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + param + " characters"
	case "max":
		return field + " must be at most " + param + " characters"
	case "slug":
		return "slug must be 2-50 lowercase letters, digits, or hyphens, with no leading or trailing hyphen"
	case "opturl":
		return field + " must be a valid URL starting with http:// or https://"
	case "optemail":
		return field + " must be a valid email address"
	case "optphone":
		return field + " must be a valid phone number"
	case "imageurl":
		return field + " must be an image URL (" + strings.Join(AllowedImageExtensions, ", ") + ") or from an allowed image host"
	case "twittercard":
		return field + " must be one of: " + strings.Join(models.AllTwitterCards(), ", ")
	case "pagestatus":
		return field + " must be one of: " + strings.Join(models.AllStatuses(), ", ")
	default:
		return field + " is invalid"
	}
}

// IsValidSlug checks the canonical slug format.
func IsValidSlug(s string) bool {
	return slugRe.MatchString(s)
}

// IsValidHTTPURL checks if the given string is a valid http:// or https:// URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidEmail checks if the given string has a valid email format.
//
// Uses net/mail.ParseAddress for RFC 5322 compliant validation.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}

	// ParseAddress accepts "Name <email>" format, so verify the address
	// matches what we passed in (just the email part).
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email
}

// IsValidPhone checks for a plausible phone number: an optional leading +,
// then digits optionally separated by spaces, dots, hyphens, or parentheses,
// with at least 7 digits total.
func IsValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+':
			if i != 0 {
				return false
			}
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}

// IsValidImageURL checks that the string is an http/https URL and either
// carries an allowed image extension or comes from an allow-listed host.
func IsValidImageURL(s string) bool {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}

	host := strings.ToLower(u.Hostname())
	for _, h := range AllowedImageHosts {
		if host == h {
			return true
		}
	}

	ext := strings.ToLower(path.Ext(u.Path))
	for _, e := range AllowedImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// slugStripRe matches characters that are neither word, space, nor hyphen;
// slugSepRe matches the separator runs that become single hyphens.
var (
	slugStripRe = regexp.MustCompile(`[^a-z0-9_\s-]+`)
	slugSepRe   = regexp.MustCompile(`[\s_-]+`)
)

// GenerateSlug derives a slug from a title: lowercase, punctuation stripped,
// whitespace and underscore runs collapsed into single hyphens, edge hyphens
// trimmed, truncated to 50 chars. Idempotent: feeding a generated slug back
// yields the same slug. This is a convenience for admin UIs; the submitted
// slug is always re-validated.
func GenerateSlug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugSepRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	return s
}
