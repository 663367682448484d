// Package htmlsanitize provides HTML stripping for text that lands in page
// head metadata. It uses bluemonday to make sure titles, descriptions, and
// social fields render as plain text in <meta> tags, sitemaps, and JSON-LD.
//
// The stored page body is deliberately NOT sanitized: admins own the raw
// HTML and the renderer injects it verbatim.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strict strips every element and attribute, leaving text content only.
	strict     *bluemonday.Policy
	strictOnce sync.Once
)

func getStrict() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// MetaText strips all HTML from a metadata value and collapses the result to
// trimmed plain text. bluemonday entity-escapes the surviving text, so the
// escaping is undone here; template rendering re-escapes per context.
func MetaText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(getStrict().Sanitize(s)))
}
