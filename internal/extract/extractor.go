// Package extract routes an input file to the strategy for its format family and turns
// the outcome into a page-oriented result plus a plain-text artifact.
package extract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/mediatext/internal/models"
	"github.com/hyperjump/mediatext/internal/ocr"
	"github.com/hyperjump/mediatext/internal/workarea"
	"github.com/hyperjump/mediatext/pkg/utils"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for extensions outside the four format families.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Kind is a format family.
type Kind int

const (
	KindPDF Kind = iota + 1
	KindImage
	KindAudio
	KindVideo
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	}
	return "unknown"
}

var kindByExt = map[string]Kind{
	".pdf":  KindPDF,
	".png":  KindImage,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".bmp":  KindImage,
	".tif":  KindImage,
	".tiff": KindImage,
	".webp": KindImage,
	".mp3":  KindAudio,
	".wav":  KindAudio,
	".m4a":  KindAudio,
	".ogg":  KindAudio,
	".flac": KindAudio,
	".mp4":  KindVideo,
	".avi":  KindVideo,
	".mov":  KindVideo,
	".mkv":  KindVideo,
	".webm": KindVideo,
}

// ParseKind maps an extension (with or without the leading dot, any case) to its family.
func ParseKind(ext string) (Kind, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if k, ok := kindByExt[ext]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Extensions returns every supported extension, sorted.
func Extensions() []string {
	out := make([]string, 0, len(kindByExt))
	for ext := range kindByExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// TextLayer reads the embedded text of each PDF page.
type TextLayer interface {
	Pages(ctx context.Context, path string) ([]string, error)
}

// Rasterizer renders each PDF page. Pages that could not be rendered are nil.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string) ([]image.Image, error)
}

// Recognizer runs an OCR cascade over an encoded image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, configs []ocr.Config) (string, error)
}

// Transcriber turns a normalized WAV file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

// Converter performs the ffmpeg conversions used by the audio and video strategies.
type Converter interface {
	NormalizeAudio(ctx context.Context, in, out string) error
	ClipAudio(ctx context.Context, in, out string, max time.Duration) error
	ExtractAudio(ctx context.Context, video, out string) error
	VideoPreview(ctx context.Context, video, out string, max time.Duration, width int) error
	Frame(ctx context.Context, video, out string, offset time.Duration) error
}

// Engines are the recognition and conversion backends the strategies run on.
type Engines struct {
	TextLayer  TextLayer // defaults to PDFTextLayer
	Rasterizer Rasterizer
	OCR        Recognizer
	Media      Converter
	Speech     Transcriber
}

// Options tune previews, working areas and the artifact location.
type Options struct {
	// WorkDir holds per-request working areas; empty means the OS temp dir.
	WorkDir string
	// ArtifactDir receives <stem>_extracted.txt; empty means next to the input.
	ArtifactDir string
	// PreviewMaxWidth downscales image and page previews wider than this; 0 keeps full size.
	PreviewMaxWidth   int
	AudioPreview      time.Duration
	VideoPreview      time.Duration
	VideoPreviewWidth int
	FrameCount        int
	FrameInterval     time.Duration
	// SettleDelay is waited before removing a video working area.
	SettleDelay time.Duration
}

// ApplyDefaults fills zero fields.
func (o *Options) ApplyDefaults() {
	if o.AudioPreview <= 0 {
		o.AudioPreview = 30 * time.Second
	}
	if o.VideoPreview <= 0 {
		o.VideoPreview = 15 * time.Second
	}
	if o.VideoPreviewWidth <= 0 {
		o.VideoPreviewWidth = 480
	}
	if o.FrameCount <= 0 {
		o.FrameCount = 5
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = 5 * time.Second
	}
}

// Input is the file handed to a strategy.
type Input struct {
	Path string
	Ext  string // lower-case, with leading dot
}

// Strategy extracts one format family. Failures are reported as records, never as errors.
type Strategy interface {
	Extract(ctx context.Context, area *workarea.Area, in Input) models.Result
}

// Extraction is the outcome of one Extract call.
type Extraction struct {
	Kind         Kind
	Result       models.Result
	ArtifactPath string
}

// Extractor is the pipeline dispatcher.
type Extractor struct {
	opts       Options
	strategies map[Kind]Strategy
	logger     *zap.Logger
}

// NewExtractor wires the four strategies over eng.
func NewExtractor(eng Engines, opts Options, logger *zap.Logger) *Extractor {
	logger = utils.OrNop(logger)
	if eng.TextLayer == nil {
		eng.TextLayer = PDFTextLayer{}
	}
	opts.ApplyDefaults()
	return &Extractor{
		opts: opts,
		strategies: map[Kind]Strategy{
			KindPDF:   &pdfStrategy{text: eng.TextLayer, raster: eng.Rasterizer, ocr: eng.OCR, maxWidth: opts.PreviewMaxWidth, logger: logger},
			KindImage: &imageStrategy{ocr: eng.OCR, maxWidth: opts.PreviewMaxWidth, logger: logger},
			KindAudio: &audioStrategy{media: eng.Media, speech: eng.Speech, preview: opts.AudioPreview, logger: logger},
			KindVideo: &videoStrategy{media: eng.Media, speech: eng.Speech, opts: opts, logger: logger},
		},
		logger: logger,
	}
}

// Extract runs the strategy for ext on path inside a fresh working area, writes the text
// artifact and returns both. Only an unsupported extension or a working area that cannot
// be created is reported as an error; everything else becomes records.
func (e *Extractor) Extract(ctx context.Context, path, ext string) (*Extraction, error) {
	return e.ExtractTo(ctx, path, ext, e.artifactPath(path))
}

// ExtractTo is Extract with an explicit artifact location.
func (e *Extractor) ExtractTo(ctx context.Context, path, ext, artifact string) (*Extraction, error) {
	kind, err := ParseKind(ext)
	if err != nil {
		return nil, err
	}
	area, err := workarea.Acquire(e.opts.WorkDir, "extract", workarea.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	defer area.Release()

	start := time.Now()
	in := Input{Path: path, Ext: strings.ToLower(filepath.Ext(path))}
	if in.Ext == "" {
		in.Ext = strings.ToLower(ext)
	}
	res := e.run(ctx, kind, area, in)

	out := &Extraction{Kind: kind, Result: res}
	if err := WriteArtifact(artifact, res); err != nil {
		e.logger.Error("write artifact failed", zap.String("path", artifact), zap.Error(err))
	} else {
		out.ArtifactPath = artifact
	}
	e.logger.Info("extracted",
		zap.String("path", path),
		zap.Stringer("kind", kind),
		zap.Int("pages", len(res)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// run executes the strategy for kind. A panic inside the strategy is logged and turned
// into a single error record so the caller still receives a result.
func (e *Extractor) run(ctx context.Context, kind Kind, area *workarea.Area, in Input) (res models.Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extraction panicked",
				zap.String("path", in.Path),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			res = errorRecord(panicPrefix(kind), fmt.Errorf("%v", r), area.Path(), filepath.Dir(in.Path))
		}
	}()
	return e.strategies[kind].Extract(ctx, area, in)
}

func panicPrefix(kind Kind) string {
	if kind == KindPDF {
		return "Error processing PDF: "
	}
	return fmt.Sprintf("Error processing %s: ", kind)
}

func (e *Extractor) artifactPath(path string) string {
	dir := e.opts.ArtifactDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	return filepath.Join(dir, ArtifactName(path))
}

// ArtifactName returns the artifact file name for an input path.
func ArtifactName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_extracted.txt"
}
