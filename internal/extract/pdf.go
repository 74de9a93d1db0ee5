package extract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/hyperjump/mediatext/internal/fallback"
	"github.com/hyperjump/mediatext/internal/models"
	"github.com/hyperjump/mediatext/internal/ocr"
	"github.com/hyperjump/mediatext/internal/workarea"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

const noPageText = "No text could be extracted from this page."

var errNoRaster = errors.New("page was not rendered")

// PDFTextLayer reads embedded page text with github.com/ledongthuc/pdf.
type PDFTextLayer struct{}

// Pages returns the plain text of every page. A page whose content cannot be parsed
// yields "" instead of failing the document.
func (PDFTextLayer) Pages(ctx context.Context, path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("parse pdf: %v", r)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		pages = append(pages, pageText(r, i))
	}
	return pages, nil
}

func pageText(r *pdf.Reader, i int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	page := r.Page(i)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

type pdfStrategy struct {
	text     TextLayer
	raster   Rasterizer
	ocr      Recognizer
	maxWidth int
	logger   *zap.Logger
}

// Extract runs the digital and raster passes and merges them page by page: embedded text
// when present, OCR of the page raster otherwise. Pages with digital text are never OCR'd.
func (s *pdfStrategy) Extract(ctx context.Context, area *workarea.Area, in Input) models.Result {
	digital, derr := s.text.Pages(ctx, in.Path)
	if derr != nil {
		s.logger.Warn("pdf text layer failed, continuing with OCR", zap.String("path", in.Path), zap.Error(derr))
	}
	var rasters []image.Image
	rerr := errNoRaster
	if s.raster != nil {
		rasters, rerr = s.raster.Rasterize(ctx, in.Path)
		if rerr != nil {
			s.logger.Warn("pdf rasterization failed, continuing with text layer", zap.String("path", in.Path), zap.Error(rerr))
		}
	}
	if derr != nil && rerr != nil && len(rasters) == 0 {
		return errorRecord("Error processing PDF: ", derr, area.Path(), filepath.Dir(in.Path))
	}

	n := max(len(digital), len(rasters))
	var res models.Result
	for i := 0; i < n; i++ {
		var text string
		if i < len(digital) {
			text = digital[i]
		}
		var img image.Image
		if i < len(rasters) {
			img = rasters[i]
		}
		rec := s.page(ctx, i+1, text, img)
		rec.Media = pngPreview(img, s.maxWidth)
		res.Append(rec)
	}
	return res
}

func (s *pdfStrategy) page(ctx context.Context, page int, text string, img image.Image) models.Record {
	out := fallback.First(ctx, fallback.NonBlank,
		fallback.Value("digital", text),
		fallback.Attempt[string]{Name: "ocr", Run: func(ctx context.Context) (string, error) {
			return s.ocrPage(ctx, page, img)
		}},
	)
	switch out.Index {
	case 0:
		return models.Record{Text: out.Value, Source: models.SourceDigital}
	case 1:
		return models.Record{Text: out.Value, Source: models.SourceOCR}
	}
	return models.Record{Text: noPageText, Source: models.SourceNone}
}

func (s *pdfStrategy) ocrPage(ctx context.Context, page int, img image.Image) (string, error) {
	if img == nil || s.ocr == nil {
		return "", errNoRaster
	}
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}
	text, err := s.ocr.Recognize(ctx, data, ocr.PageChain)
	if err != nil {
		s.logger.Warn("page ocr failed", zap.Int("page", page), zap.Error(err))
	}
	return text, err
}
