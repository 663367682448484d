// Package staticgen renders published landing pages into standalone HTML
// documents, plus the sitemap.xml and robots.txt that describe them. The
// same renderer backs the live public routes and the static export that CI
// pushes to the CDN.
//
// Head metadata (titles, descriptions, social fields) is stripped to plain
// text before rendering; the stored page body is injected verbatim.
package staticgen

import (
	"bytes"
	"embed"
	"encoding/json"
	"encoding/xml"
	"html/template"
	"strings"
	"time"

	"github.com/dalemusser/stratapages/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratapages/internal/domain/models"
)

//go:embed templates/landing.gohtml
var templateFS embed.FS

// StaticPaths are the fixed marketing pages the CDN serves alongside the
// landing pages. They appear in every sitemap, even when the page store is
// unreachable.
var StaticPaths = []string{"/", "/about", "/contact"}

// Renderer renders landing pages and site-level artifacts against a base URL.
type Renderer struct {
	baseURL string
	tmpl    *template.Template
}

// NewRenderer parses the embedded page template. baseURL is the public
// origin, e.g. "https://pages.example.com", without a trailing slash.
func NewRenderer(baseURL string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/landing.gohtml")
	if err != nil {
		return nil, err
	}
	return &Renderer{
		baseURL: strings.TrimRight(baseURL, "/"),
		tmpl:    tmpl,
	}, nil
}

// pageData is what the landing template sees.
type pageData struct {
	MetaTitle       string
	MetaDescription string
	Canonical       string
	OGTitle         string
	OGDescription   string
	OGImage         string
	TwitterCard     string
	JSONLD          template.JS
	Body            template.HTML
}

// PageURL returns the public URL for a page slug.
func (r *Renderer) PageURL(slug string) string {
	return r.baseURL + "/" + slug
}

// CanonicalURL returns the page's canonical URL: the stored override if set,
// otherwise the page's own public URL.
func (r *Renderer) CanonicalURL(p *models.LandingPage) string {
	if p.CanonicalURL != "" {
		return p.CanonicalURL
	}
	return r.PageURL(p.Slug)
}

// RenderPage renders one page into a complete HTML document. Social fields
// fall back to the SEO fields when unset, and the twitter card defaults to
// "summary", so a minimal record still produces a complete head.
func (r *Renderer) RenderPage(p *models.LandingPage) ([]byte, error) {
	canonical := r.CanonicalURL(p)

	metaTitle := htmlsanitize.MetaText(p.MetaTitle)
	if metaTitle == "" {
		metaTitle = htmlsanitize.MetaText(p.Title)
	}
	metaDesc := htmlsanitize.MetaText(p.MetaDescription)

	ogTitle := htmlsanitize.MetaText(p.OGTitle)
	if ogTitle == "" {
		ogTitle = metaTitle
	}
	ogDesc := htmlsanitize.MetaText(p.OGDescription)
	if ogDesc == "" {
		ogDesc = metaDesc
	}
	twitterCard := p.TwitterCard
	if twitterCard == "" {
		twitterCard = models.TwitterCardSummary
	}

	jsonLD, err := r.localBusinessJSONLD(p, canonical, metaDesc)
	if err != nil {
		return nil, err
	}

	data := pageData{
		MetaTitle:       metaTitle,
		MetaDescription: metaDesc,
		Canonical:       canonical,
		OGTitle:         ogTitle,
		OGDescription:   ogDesc,
		OGImage:         p.OGImage,
		TwitterCard:     twitterCard,
		JSONLD:          jsonLD,
		Body:            template.HTML(p.HTMLContent),
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// localBusinessJSONLD builds the schema.org LocalBusiness block. Optional
// business fields are omitted when empty rather than emitted blank.
func (r *Renderer) localBusinessJSONLD(p *models.LandingPage, canonical, description string) (template.JS, error) {
	ld := map[string]any{
		"@context": "https://schema.org",
		"@type":    "LocalBusiness",
		"name":     htmlsanitize.MetaText(p.BusinessName),
		"url":      canonical,
	}
	if description != "" {
		ld["description"] = description
	}
	if p.BusinessCategory != "" {
		ld["category"] = htmlsanitize.MetaText(p.BusinessCategory)
	}
	if p.BusinessPhone != "" {
		ld["telephone"] = p.BusinessPhone
	}
	if p.BusinessEmail != "" {
		ld["email"] = p.BusinessEmail
	}
	if p.BusinessLocation != "" {
		ld["address"] = htmlsanitize.MetaText(p.BusinessLocation)
	}
	if p.BusinessWebsite != "" {
		ld["sameAs"] = []string{p.BusinessWebsite}
	}
	if p.OGImage != "" {
		ld["image"] = p.OGImage
	}

	b, err := json.Marshal(ld)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Sitemap and robots                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap renders sitemap.xml: the fixed marketing paths first, then one
// entry per published page with lastmod from updated_at. Callers that cannot
// reach the page store pass nil and get the static-only sitemap.
func (r *Renderer) Sitemap(pages []models.LandingPage) ([]byte, error) {
	set := urlset{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	for _, path := range StaticPaths {
		loc := r.baseURL + path
		if path == "/" {
			loc = r.baseURL + "/"
		}
		set.URLs = append(set.URLs, sitemapURL{Loc: loc})
	}

	for _, p := range pages {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:     r.PageURL(p.Slug),
			LastMod: p.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// RobotsTxt renders robots.txt, allowing everything and pointing crawlers at
// the sitemap.
func (r *Renderer) RobotsTxt() []byte {
	var buf bytes.Buffer
	buf.WriteString("User-agent: *\n")
	buf.WriteString("Allow: /\n\n")
	buf.WriteString("Sitemap: " + r.baseURL + "/sitemap.xml\n")
	return buf.Bytes()
}
