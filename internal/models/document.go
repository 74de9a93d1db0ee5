// Package models defines the page-oriented extraction records shared by the pipeline, CLI and HTTP API.
package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Source identifies how the text of a record was obtained.
type Source string

const (
	SourceDigital Source = "digital"
	SourceOCR     Source = "ocr"
	SourceSpeech  Source = "speech"
	SourceVideo   Source = "video"
	SourceError   Source = "error"
	SourceNone    Source = "none"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceDigital, SourceOCR, SourceSpeech, SourceVideo, SourceError, SourceNone:
		return true
	}
	return false
}

// Preview is inline-embeddable media derived from the input (page raster, audio clip,
// video clip or frame). It is serialized as a data URI.
type Preview struct {
	MIME string
	Data []byte
}

// NewPreview returns a preview for data, or nil when data is empty.
func NewPreview(mime string, data []byte) *Preview {
	if len(data) == 0 {
		return nil
	}
	return &Preview{MIME: mime, Data: data}
}

// DataURI renders the preview as data:<mime>;base64,<payload>.
func (p Preview) DataURI() string {
	return "data:" + p.MIME + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// Kind returns the MIME family ("image", "audio", "video").
func (p Preview) Kind() string {
	kind, _, _ := strings.Cut(p.MIME, "/")
	return kind
}

// MarshalJSON encodes the preview as its data URI.
func (p Preview) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.DataURI())
}

// UnmarshalJSON decodes a data URI produced by MarshalJSON.
func (p *Preview) UnmarshalJSON(b []byte) error {
	var uri string
	if err := json.Unmarshal(b, &uri); err != nil {
		return err
	}
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return fmt.Errorf("preview: not a data uri")
	}
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return fmt.Errorf("preview: missing base64 payload")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	p.MIME = mime
	p.Data = data
	return nil
}
