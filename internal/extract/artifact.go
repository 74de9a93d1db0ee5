package extract

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hyperjump/mediatext/internal/models"
)

// FormatArtifact renders res as the plain-text transcript: one section per record,
//
//	--- Page {index} ({source}) ---\n\n{text}\n\n
func FormatArtifact(res models.Result) string {
	var b strings.Builder
	for _, rec := range res {
		fmt.Fprintf(&b, "--- Page %d (%s) ---\n\n%s\n\n", rec.Page, rec.Source, rec.Text)
	}
	return b.String()
}

// WriteArtifact writes the transcript of res to path.
func WriteArtifact(path string, res models.Result) error {
	return os.WriteFile(path, []byte(FormatArtifact(res)), 0o644)
}

// ParseArtifact reads a transcript back into records (page, source and text only).
// Sections must be numbered 1, 2, ... in order. A record's text ends where the header of
// the next expected page begins, so a text that itself contains "\n\n--- Page N+1 ("
// is split there: the format has no escaping and such artifacts do not round-trip.
func ParseArtifact(s string) (models.Result, error) {
	var res models.Result
	pos := 0
	for page := 1; pos < len(s); page++ {
		prefix := "--- Page " + strconv.Itoa(page) + " ("
		if !strings.HasPrefix(s[pos:], prefix) {
			return nil, fmt.Errorf("artifact: expected header for page %d at offset %d", page, pos)
		}
		pos += len(prefix)
		end := strings.Index(s[pos:], ") ---\n\n")
		if end < 0 {
			return nil, fmt.Errorf("artifact: unterminated header for page %d", page)
		}
		source := models.Source(s[pos : pos+end])
		if !source.Valid() {
			return nil, fmt.Errorf("artifact: page %d has unknown source %q", page, source)
		}
		pos += end + len(") ---\n\n")

		next := "\n\n--- Page " + strconv.Itoa(page+1) + " ("
		var text string
		if i := strings.Index(s[pos:], next); i >= 0 {
			text = s[pos : pos+i]
			pos += i + 2
		} else {
			if !strings.HasSuffix(s[pos:], "\n\n") {
				return nil, fmt.Errorf("artifact: page %d is not terminated", page)
			}
			text = s[pos : len(s)-2]
			pos = len(s)
		}
		res = append(res, models.Record{Page: page, Text: text, Source: source})
	}
	return res, nil
}

// ReadArtifact parses the transcript stored at path.
func ReadArtifact(path string) (models.Result, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseArtifact(string(b))
}
