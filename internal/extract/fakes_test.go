package extract

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/mediatext/internal/ocr"
)

type fakeTextLayer struct {
	pages []string
	err   error
}

func (f *fakeTextLayer) Pages(context.Context, string) ([]string, error) { return f.pages, f.err }

type fakeRasterizer struct {
	pages []image.Image
	err   error
}

func (f *fakeRasterizer) Rasterize(context.Context, string) ([]image.Image, error) {
	return f.pages, f.err
}

type fakeOCR struct {
	text    string
	err     error
	calls   int
	configs [][]ocr.Config
}

func (f *fakeOCR) Recognize(_ context.Context, _ []byte, configs []ocr.Config) (string, error) {
	f.calls++
	f.configs = append(f.configs, configs)
	return f.text, f.err
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, wav string) (string, error) {
	f.calls++
	if _, err := os.Stat(wav); err != nil {
		return "", err
	}
	return f.text, f.err
}

// fakeConverter writes a small file for every successful conversion.
type fakeConverter struct {
	normalizeErr error
	clipErr      error
	demuxErr     error
	previewErr   error
	// frameUntil is the end of the fake video; frames at or after it are not produced.
	frameUntil time.Duration
	frames     []time.Duration
}

func produce(out string, err error) error {
	if err != nil {
		return err
	}
	return os.WriteFile(out, []byte("media"), 0o600)
}

func (f *fakeConverter) NormalizeAudio(_ context.Context, _, out string) error {
	return produce(out, f.normalizeErr)
}

func (f *fakeConverter) ClipAudio(_ context.Context, _, out string, _ time.Duration) error {
	return produce(out, f.clipErr)
}

func (f *fakeConverter) ExtractAudio(_ context.Context, _, out string) error {
	return produce(out, f.demuxErr)
}

func (f *fakeConverter) VideoPreview(_ context.Context, _, out string, _ time.Duration, _ int) error {
	return produce(out, f.previewErr)
}

func (f *fakeConverter) Frame(_ context.Context, _, out string, offset time.Duration) error {
	f.frames = append(f.frames, offset)
	if offset >= f.frameUntil {
		return nil
	}
	return produce(out, nil)
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// newTestExtractor returns an extractor whose working areas live under a fresh directory,
// along with that directory.
func newTestExtractor(t *testing.T, eng Engines) (*Extractor, string) {
	t.Helper()
	work := filepath.Join(t.TempDir(), "work")
	return NewExtractor(eng, Options{WorkDir: work, ArtifactDir: t.TempDir()}, nil), work
}

func assertNoLeftovers(t *testing.T, work string) {
	t.Helper()
	entries, err := os.ReadDir(work)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("work dir still has %d entries", len(entries))
	}
}
