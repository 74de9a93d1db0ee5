package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/mediatext/internal/extract"
	"github.com/hyperjump/mediatext/internal/fileid"
	"github.com/hyperjump/mediatext/pkg/utils"
	"go.uber.org/zap"
)

// Extractor is the part of the extraction pipeline an Inbox drives.
type Extractor interface {
	ExtractTo(ctx context.Context, path, ext, artifact string) (*extract.Extraction, error)
}

// Inbox turns watcher callbacks into extractions: files that become ready get an artifact,
// files that disappear lose theirs.
type Inbox struct {
	extractor Extractor
	outputDir string
	logger    *zap.Logger
}

// NewInbox returns an inbox writing artifacts to outputDir, or next to each input when
// outputDir is empty.
func NewInbox(ex Extractor, outputDir string, logger *zap.Logger) *Inbox {
	logger = utils.OrNop(logger)
	return &Inbox{extractor: ex, outputDir: outputDir, logger: logger}
}

// ArtifactPath returns where the artifact for path is written. In a shared output
// directory the name carries a path tag so equal file names from different folders
// do not collide.
func (in *Inbox) ArtifactPath(path string) string {
	if in.outputDir == "" {
		return filepath.Join(filepath.Dir(path), extract.ArtifactName(path))
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(in.outputDir, stem+"_"+fileid.PathTag(path)+"_extracted.txt")
}

// Process extracts path unless its artifact is already newer than the input.
func (in *Inbox) Process(ctx context.Context, path string) {
	src, err := os.Stat(path)
	if err != nil {
		in.logger.Debug("inbox file vanished before extraction", zap.String("path", path))
		return
	}
	artifact := in.ArtifactPath(path)
	if dst, err := os.Stat(artifact); err == nil && !dst.ModTime().Before(src.ModTime()) {
		in.logger.Debug("inbox artifact up to date", zap.String("path", path))
		return
	}
	if in.outputDir != "" {
		if err := os.MkdirAll(in.outputDir, 0755); err != nil {
			in.logger.Error("inbox output dir", zap.String("dir", in.outputDir), zap.Error(err))
			return
		}
	}
	ex, err := in.extractor.ExtractTo(ctx, path, filepath.Ext(path), artifact)
	if err != nil {
		in.logger.Warn("inbox extraction failed", zap.String("path", path), zap.Error(err))
		return
	}
	in.logger.Info("inbox extracted",
		zap.String("path", path),
		zap.Stringer("kind", ex.Kind),
		zap.Int("pages", len(ex.Result)),
		zap.String("artifact", ex.ArtifactPath),
	)
}

// Forget removes the artifact of a file that left the inbox.
func (in *Inbox) Forget(path string) {
	artifact := in.ArtifactPath(path)
	if err := os.Remove(artifact); err != nil {
		if !os.IsNotExist(err) {
			in.logger.Warn("inbox artifact removal failed", zap.String("artifact", artifact), zap.Error(err))
		}
		return
	}
	in.logger.Info("inbox artifact removed", zap.String("path", path), zap.String("artifact", artifact))
}
