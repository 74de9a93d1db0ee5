// Package tesseract implements ocr.Engine with the Tesseract library through gosseract.
package tesseract

import (
	"context"
	"fmt"

	"github.com/hyperjump/mediatext/internal/ocr"
	"github.com/otiai10/gosseract/v2"
)

// Engine creates one gosseract client per call; clients are not shared between requests.
type Engine struct {
	tessdataPrefix string
	clientFactory  func() *gosseract.Client
}

// NewEngine returns a Tesseract engine. tessdataPrefix may be empty to use the library default.
func NewEngine(tessdataPrefix string) *Engine {
	return &Engine{tessdataPrefix: tessdataPrefix, clientFactory: gosseract.NewClient}
}

// Version reports the linked Tesseract version.
func Version() string { return gosseract.Version() }

// Recognize runs one OCR pass with the requested language and segmentation mode.
func (e *Engine) Recognize(ctx context.Context, image []byte, req ocr.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer c.Close()

	if e.tessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if req.Language != "" {
		if err := c.SetLanguage(req.Language); err != nil {
			return "", fmt.Errorf("set language: %w", err)
		}
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(req.Mode)); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}
