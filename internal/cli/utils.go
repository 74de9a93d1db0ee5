// Package cli provides output formatting for the mediatext command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/mediatext/internal/extract"
	"github.com/hyperjump/mediatext/internal/models"
)

// OutputFormat is the format for extraction output.
type OutputFormat string

const (
	// OutputText is the full transcript with a summary header (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON, previews included as data URIs.
	OutputJSON OutputFormat = "json"
	// OutputCompact is one line per page: number, source and the first words.
	OutputCompact OutputFormat = "compact"
)

const compactWords = 12

// ParseOutputFormat accepts "text", "json" or "compact"; anything else is an error.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputJSON, OutputCompact:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or compact)", s)
}

type extractionJSON struct {
	File     string        `json:"file"`
	FileType string        `json:"fileType"`
	Artifact string        `json:"artifact,omitempty"`
	Pages    models.Result `json:"pages"`
}

// WriteExtraction writes ex to w in the given format. Unknown formats fall back to text.
func WriteExtraction(w io.Writer, file string, ex *extract.Extraction, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(extractionJSON{File: file, FileType: ex.Kind.String(), Artifact: ex.ArtifactPath, Pages: ex.Result})
	case OutputCompact:
		for _, rec := range ex.Result {
			fmt.Fprintf(w, "%d\t%s\t%s\n", rec.Page, rec.Source, TruncateWords(strings.Join(strings.Fields(rec.Text), " "), compactWords))
		}
		return nil
	default:
		writeExtractionText(w, file, ex)
		return nil
	}
}

func writeExtractionText(w io.Writer, file string, ex *extract.Extraction) {
	fmt.Fprintf(w, "\nExtracted %d page(s) from %s [%s]\n", len(ex.Result), file, ex.Kind)
	if ex.ArtifactPath != "" {
		fmt.Fprintf(w, "Transcript saved to %s\n", ex.ArtifactPath)
	}
	fmt.Fprintln(w)
	for _, rec := range ex.Result {
		fmt.Fprintf(w, "--- Page %d (%s) ---\n", rec.Page, rec.Source)
		if rec.Media != nil {
			fmt.Fprintf(w, "[%s preview, %s]\n", rec.Media.MIME, HumanBytes(int64(len(rec.Media.Data))))
		}
		if len(rec.Frames) > 0 {
			fmt.Fprintf(w, "[%d frame(s)]\n", len(rec.Frames))
		}
		fmt.Fprintf(w, "\n%s\n\n", rec.Text)
	}
}

// HumanBytes formats n as B, KB or MB with one decimal.
func HumanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
