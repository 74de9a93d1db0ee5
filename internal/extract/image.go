package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/mediatext/internal/models"
	"github.com/hyperjump/mediatext/internal/ocr"
	"github.com/hyperjump/mediatext/internal/workarea"
	"github.com/hyperjump/mediatext/pkg/utils"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const noImageText = "No text could be detected in this image."

type imageStrategy struct {
	ocr      Recognizer
	maxWidth int
	logger   *zap.Logger
}

// Extract decodes and flattens the image, then runs the full OCR cascade over it.
func (s *imageStrategy) Extract(ctx context.Context, area *workarea.Area, in Input) models.Result {
	fail := func(err error, preview *models.Preview) models.Result {
		s.logger.Warn("image extraction failed", zap.String("path", in.Path), zap.Error(err))
		res := errorRecord("Error extracting text from image: ", err, area.Path(), filepath.Dir(in.Path))
		res[0].Media = preview
		return res
	}

	raw, err := os.ReadFile(in.Path)
	if err != nil {
		return fail(err, nil)
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return fail(fmt.Errorf("decode image: %w", err), rawPreview(raw))
	}
	flat := flatten(img)
	preview := pngPreview(flat, s.maxWidth)
	if preview == nil {
		preview = rawPreview(raw)
	}
	if s.ocr == nil {
		return fail(fmt.Errorf("no OCR engine configured"), preview)
	}
	data, err := encodePNG(flat)
	if err != nil {
		return fail(fmt.Errorf("encode image: %w", err), preview)
	}
	text, err := s.ocr.Recognize(ctx, data, ocr.ImageChain)
	if err != nil {
		return fail(err, preview)
	}
	s.logger.Debug("image recognized", zap.String("path", in.Path), zap.String("format", format), zap.Int("chars", len(text)))
	if utils.IsBlank(text) {
		return models.Single(noImageText, models.SourceOCR, preview)
	}
	return models.Single(text, models.SourceOCR, preview)
}

// rawPreview embeds the original bytes when they sniff as an image.
func rawPreview(raw []byte) *models.Preview {
	mime := http.DetectContentType(raw)
	if !strings.HasPrefix(mime, "image/") {
		return nil
	}
	return models.NewPreview(mime, raw)
}
