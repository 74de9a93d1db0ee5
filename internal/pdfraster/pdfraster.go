// Package pdfraster renders PDF pages to bitmaps with MuPDF.
package pdfraster

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
	"github.com/hyperjump/mediatext/pkg/utils"
	"go.uber.org/zap"
)

// DefaultDPI is used when no resolution is configured.
const DefaultDPI = 200

// Rasterizer renders every page of a document.
type Rasterizer struct {
	dpi    float64
	logger *zap.Logger
}

// New returns a rasterizer rendering at dpi (DefaultDPI when <= 0).
func New(dpi int, logger *zap.Logger) *Rasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	logger = utils.OrNop(logger)
	return &Rasterizer{dpi: float64(dpi), logger: logger}
}

// Rasterize returns one image per page, in page order. A page that fails to render is
// left nil so indices stay aligned with page numbers.
func (r *Rasterizer) Rasterize(ctx context.Context, path string) ([]image.Image, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	pages := make([]image.Image, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return pages[:i], err
		}
		img, err := doc.ImageDPI(i, r.dpi)
		if err != nil {
			r.logger.Warn("page render failed", zap.String("path", path), zap.Int("page", i+1), zap.Error(err))
			continue
		}
		pages[i] = img
	}
	r.logger.Debug("pdf rasterized", zap.String("path", path), zap.Int("pages", n), zap.Float64("dpi", r.dpi))
	return pages, nil
}
