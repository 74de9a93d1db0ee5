package extract

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/hyperjump/mediatext/internal/models"
	"github.com/hyperjump/mediatext/internal/ocr"
	"github.com/hyperjump/mediatext/internal/workarea"
	"go.uber.org/zap"
)

func runPDF(t *testing.T, s *pdfStrategy) models.Result {
	t.Helper()
	area, err := workarea.Acquire(t.TempDir(), "test")
	if err != nil {
		t.Fatal(err)
	}
	defer area.Release()
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s.Extract(context.Background(), area, Input{Path: filepath.Join(t.TempDir(), "doc.pdf"), Ext: ".pdf"})
}

func pages(n int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		out[i] = solid(40, 20, image.White)
	}
	return out
}

func TestPDF_mixedDigitalAndScanned(t *testing.T) {
	o := &fakeOCR{text: "Scanned"}
	res := runPDF(t, &pdfStrategy{
		text:   &fakeTextLayer{pages: []string{"Hello world", ""}},
		raster: &fakeRasterizer{pages: pages(2)},
		ocr:    o,
	})
	if len(res) != 2 {
		t.Fatalf("len = %d, want 2", len(res))
	}
	if res[0].Text != "Hello world" || res[0].Source != models.SourceDigital {
		t.Errorf("page 1 = %q (%s)", res[0].Text, res[0].Source)
	}
	if res[1].Text != "Scanned" || res[1].Source != models.SourceOCR {
		t.Errorf("page 2 = %q (%s)", res[1].Text, res[1].Source)
	}
	if o.calls != 1 {
		t.Errorf("OCR calls = %d, want 1 (digital pages are never OCR'd)", o.calls)
	}
	if len(o.configs) == 1 && len(o.configs[0]) != len(ocr.PageChain) {
		t.Errorf("OCR chain length = %d", len(o.configs[0]))
	}
	for _, rec := range res {
		if rec.Media == nil || rec.Media.MIME != "image/png" {
			t.Errorf("page %d missing PNG preview", rec.Page)
		}
	}
}

func TestPDF_lengthIsMaxOfPassesAndContiguous(t *testing.T) {
	res := runPDF(t, &pdfStrategy{
		text:   &fakeTextLayer{pages: []string{"only page one"}},
		raster: &fakeRasterizer{pages: pages(3)},
		ocr:    &fakeOCR{text: "  "},
	})
	if len(res) != 3 {
		t.Fatalf("len = %d, want 3", len(res))
	}
	for i, rec := range res {
		if rec.Page != i+1 {
			t.Errorf("record %d has page %d", i, rec.Page)
		}
	}
	for _, rec := range res[1:] {
		if rec.Source != models.SourceNone || rec.Text != noPageText {
			t.Errorf("page %d = %q (%s), want placeholder", rec.Page, rec.Text, rec.Source)
		}
	}
}

func TestPDF_rasterFailureKeepsDigitalText(t *testing.T) {
	o := &fakeOCR{text: "never"}
	res := runPDF(t, &pdfStrategy{
		text:   &fakeTextLayer{pages: []string{"a", "", "c"}},
		raster: &fakeRasterizer{err: errors.New("mupdf exploded")},
		ocr:    o,
	})
	if len(res) != 3 {
		t.Fatalf("len = %d, want 3", len(res))
	}
	if res[1].Source != models.SourceNone {
		t.Errorf("page 2 source = %s, want none", res[1].Source)
	}
	if o.calls != 0 {
		t.Errorf("OCR called %d times without rasters", o.calls)
	}
	if res[0].Media != nil {
		t.Error("page preview present without raster")
	}
}

func TestPDF_textLayerFailureUsesOCR(t *testing.T) {
	res := runPDF(t, &pdfStrategy{
		text:   &fakeTextLayer{err: errors.New("xref broken")},
		raster: &fakeRasterizer{pages: pages(2)},
		ocr:    &fakeOCR{text: "from ocr"},
	})
	if len(res) != 2 {
		t.Fatalf("len = %d", len(res))
	}
	for _, rec := range res {
		if rec.Source != models.SourceOCR {
			t.Errorf("page %d source = %s", rec.Page, rec.Source)
		}
	}
}

func TestPDF_ocrErrorsBecomePlaceholder(t *testing.T) {
	res := runPDF(t, &pdfStrategy{
		text:   &fakeTextLayer{pages: []string{""}},
		raster: &fakeRasterizer{pages: pages(1)},
		ocr:    &fakeOCR{err: errors.New("tesseract missing")},
	})
	if len(res) != 1 || res[0].Source != models.SourceNone {
		t.Fatalf("got %+v", res)
	}
}

func TestPDF_neitherPassOpens(t *testing.T) {
	res := runPDF(t, &pdfStrategy{
		text:   &fakeTextLayer{err: errors.New("not a pdf")},
		raster: &fakeRasterizer{err: errors.New("not a pdf")},
		ocr:    &fakeOCR{},
	})
	if len(res) != 1 || res[0].Source != models.SourceError {
		t.Fatalf("got %+v, want single error record", res)
	}
}

func TestPDFTextLayer_garbage(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.pdf", []byte("this is not a pdf"))
	if _, err := (PDFTextLayer{}).Pages(context.Background(), path); err == nil {
		t.Fatal("expected error for garbage input")
	}
}
