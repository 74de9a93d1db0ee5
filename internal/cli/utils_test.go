package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/mediatext/internal/extract"
	"github.com/hyperjump/mediatext/internal/models"
)

func sampleExtraction() *extract.Extraction {
	var res models.Result
	res.Append(models.Record{
		Text:   "Quarterly report\nrevenue grew in every region this year thanks to strong demand",
		Source: models.SourceDigital,
		Media:  models.NewPreview("image/png", bytes.Repeat([]byte{1}, 2048)),
	})
	res.Append(models.Record{Text: "No text could be extracted from this page.", Source: models.SourceNone})
	return &extract.Extraction{Kind: extract.KindPDF, Result: res, ArtifactPath: "/tmp/report_extracted.txt"}
}

func TestWriteExtraction_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteExtraction(&buf, "report.pdf", sampleExtraction(), OutputJSON); err != nil {
		t.Fatalf("WriteExtraction(json): %v", err)
	}
	var decoded struct {
		File     string          `json:"file"`
		FileType string          `json:"fileType"`
		Pages    []models.Record `json:"pages"`
	}
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.File != "report.pdf" || decoded.FileType != "pdf" {
		t.Errorf("decoded file=%q fileType=%q", decoded.File, decoded.FileType)
	}
	if len(decoded.Pages) != 2 || decoded.Pages[0].Source != models.SourceDigital {
		t.Fatalf("pages = %+v", decoded.Pages)
	}
	if decoded.Pages[0].Media == nil || decoded.Pages[0].Media.MIME != "image/png" {
		t.Error("page 1 preview lost in JSON")
	}
}

func TestWriteExtraction_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteExtraction(&buf, "report.pdf", sampleExtraction(), OutputText); err != nil {
		t.Fatalf("WriteExtraction(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"Extracted 2 page(s) from report.pdf [pdf]", "/tmp/report_extracted.txt", "--- Page 1 (digital) ---", "[image/png preview, 2.0 KB]", "Quarterly report", "--- Page 2 (none) ---"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteExtraction_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteExtraction(&buf, "report.pdf", sampleExtraction(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "1\tdigital\tQuarterly report revenue") || !strings.HasSuffix(lines[0], "...") {
		t.Errorf("line 1 = %q", lines[0])
	}
}

func TestWriteExtraction_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteExtraction(&buf, "x.pdf", sampleExtraction(), OutputFormat("unknown")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Extracted") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestParseOutputFormat(t *testing.T) {
	for _, s := range []string{"text", "JSON", "compact"} {
		if _, err := ParseOutputFormat(s); err != nil {
			t.Errorf("ParseOutputFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseOutputFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestHumanBytes(t *testing.T) {
	tests := map[int64]string{0: "0 B", 512: "512 B", 1536: "1.5 KB", 3 << 20: "3.0 MB"}
	for n, want := range tests {
		if got := HumanBytes(n); got != want {
			t.Errorf("HumanBytes(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWords int
		want     string
	}{
		{"empty", "", 3, ""},
		{"few words", "one two", 3, "one two"},
		{"exact", "one two three", 3, "one two three"},
		{"more", "one two three four", 3, "one two three..."},
		{"single long", "word", 1, "word"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWords(tt.s, tt.maxWords)
			if got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
			}
		})
	}
}
