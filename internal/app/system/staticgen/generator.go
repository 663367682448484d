// internal/app/system/staticgen/generator.go
package staticgen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	pagestore "github.com/dalemusser/stratapages/internal/app/store/pages"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.uber.org/zap"
)

// Generator writes the full static site to an export directory and, when an
// upload backend is configured, mirrors it there (local tree or S3 bucket
// behind CloudFront). Each published page becomes <slug>/index.html so the
// CDN serves clean URLs.
type Generator struct {
	pages    *pagestore.Store
	renderer *Renderer
	outDir   string
	upload   storage.Store // optional; nil disables mirroring
	logger   *zap.Logger
}

// NewGenerator creates a static site generator.
func NewGenerator(pages *pagestore.Store, renderer *Renderer, outDir string, upload storage.Store, logger *zap.Logger) *Generator {
	return &Generator{
		pages:    pages,
		renderer: renderer,
		outDir:   outDir,
		upload:   upload,
		logger:   logger,
	}
}

// Export renders every published page plus sitemap.xml and robots.txt.
// A page store failure degrades to the static-only sitemap: the export still
// succeeds with robots.txt and the fixed marketing entries, so a bad database
// moment never tears down the published site.
func (g *Generator) Export(ctx context.Context) error {
	pages, err := g.pages.ListPublished(ctx)
	if err != nil {
		g.logger.Error("static export: page store unavailable, writing static-only sitemap",
			zap.Error(err))
		pages = nil
	}

	if err := os.MkdirAll(g.outDir, 0o755); err != nil {
		return err
	}

	rendered := 0
	for i := range pages {
		p := &pages[i]
		html, err := g.renderer.RenderPage(p)
		if err != nil {
			g.logger.Error("static export: render failed",
				zap.String("slug", p.Slug),
				zap.Error(err))
			continue
		}
		if err := g.writeFile(ctx, filepath.Join(p.Slug, "index.html"), html, "text/html; charset=utf-8"); err != nil {
			return err
		}
		rendered++
	}

	sitemap, err := g.renderer.Sitemap(pages)
	if err != nil {
		return err
	}
	if err := g.writeFile(ctx, "sitemap.xml", sitemap, "application/xml"); err != nil {
		return err
	}
	if err := g.writeFile(ctx, "robots.txt", g.renderer.RobotsTxt(), "text/plain; charset=utf-8"); err != nil {
		return err
	}

	g.logger.Info("static export complete",
		zap.Int("pages", rendered),
		zap.String("out_dir", g.outDir))
	return nil
}

// writeFile writes one artifact to the export directory and mirrors it to the
// upload backend when one is configured. Upload failures are logged, not
// fatal: the local export remains the source CI pulls from.
func (g *Generator) writeFile(ctx context.Context, rel string, data []byte, contentType string) error {
	dest := filepath.Join(g.outDir, rel)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return err
	}

	if g.upload != nil {
		opts := &storage.PutOptions{
			ContentType: contentType,
		}
		if err := g.upload.Put(ctx, filepath.ToSlash(rel), bytes.NewReader(data), opts); err != nil {
			g.logger.Warn("static export: upload failed",
				zap.String("path", rel),
				zap.Error(err))
		}
	}
	return nil
}
