// Package ocr runs optical character recognition over a single image with an ordered
// cascade of page segmentation modes.
package ocr

import (
	"context"
	"fmt"

	"github.com/hyperjump/mediatext/internal/fallback"
	"github.com/hyperjump/mediatext/pkg/utils"
	"go.uber.org/zap"
)

// PageSegMode is a Tesseract page segmentation mode.
type PageSegMode int

const (
	PSMAuto        PageSegMode = 3  // fully automatic page segmentation
	PSMSingleBlock PageSegMode = 6  // assume a single uniform block of text
	PSMSparseText  PageSegMode = 11 // find as much text as possible in no particular order
)

// Config is one step of a recognition cascade.
type Config struct {
	Name string
	Mode PageSegMode
}

func (c Config) String() string { return fmt.Sprintf("%s(psm %d)", c.Name, c.Mode) }

var (
	// ImageChain is tried for standalone images.
	ImageChain = []Config{
		{Name: "block", Mode: PSMSingleBlock},
		{Name: "sparse", Mode: PSMSparseText},
		{Name: "auto", Mode: PSMAuto},
	}
	// PageChain is tried for rasterized PDF pages.
	PageChain = ImageChain[:2]
)

// Request carries the engine parameters for one recognition call.
type Request struct {
	Language string
	Mode     PageSegMode
}

// Engine recognizes text in an encoded image (PNG, JPEG, ...).
type Engine interface {
	Recognize(ctx context.Context, image []byte, req Request) (string, error)
}

// Extractor applies a Config cascade on top of an Engine.
type Extractor struct {
	engine   Engine
	language string
	logger   *zap.Logger
}

// NewExtractor returns an extractor for language (default "eng").
func NewExtractor(engine Engine, language string, logger *zap.Logger) *Extractor {
	if language == "" {
		language = "eng"
	}
	logger = utils.OrNop(logger)
	return &Extractor{engine: engine, language: language, logger: logger}
}

// Recognize tries configs in order and returns the first result that is not blank.
// It returns "" with a nil error when every config ran but found no text, and an error
// only when every config failed.
func (e *Extractor) Recognize(ctx context.Context, image []byte, configs []Config) (string, error) {
	attempts := make([]fallback.Attempt[string], 0, len(configs))
	for _, cfg := range configs {
		req := Request{Language: e.language, Mode: cfg.Mode}
		attempts = append(attempts, fallback.Attempt[string]{
			Name: cfg.String(),
			Run: func(ctx context.Context) (string, error) {
				return e.engine.Recognize(ctx, image, req)
			},
		})
	}
	out := fallback.First(ctx, fallback.NonBlank, attempts...)
	if out.Err != nil {
		return "", fmt.Errorf("ocr: %w", out.Err)
	}
	if !out.Accepted() {
		e.logger.Debug("ocr found no text", zap.Int("configs_tried", out.Tried))
		return "", nil
	}
	e.logger.Debug("ocr recognized text", zap.String("config", out.Name), zap.Int("chars", len(out.Value)))
	return out.Value, nil
}
