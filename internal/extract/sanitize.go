package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/mediatext/internal/media"
	"github.com/hyperjump/mediatext/internal/models"
	"github.com/hyperjump/mediatext/pkg/utils"
)

const maxDiagnosticLen = 300

// describe renders err for an error record. Local paths (working area, input directory)
// are stripped and the message is capped; for ffmpeg failures the stderr excerpt is used.
func describe(err error, paths ...string) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	var conv *media.ConversionError
	if errors.As(err, &conv) {
		msg = conv.Stderr
		if msg == "" {
			msg = fmt.Sprintf("ffmpeg exited with code %d", conv.ExitCode)
		}
	}
	for _, p := range paths {
		if p == "" || p == "." || p == string(os.PathSeparator) {
			continue
		}
		p = filepath.Clean(p)
		msg = strings.ReplaceAll(msg, p+string(os.PathSeparator), "")
		msg = strings.ReplaceAll(msg, p, "")
	}
	msg = strings.Join(strings.Fields(msg), " ")
	return utils.Truncate(msg, maxDiagnosticLen)
}

// errorRecord builds the single-record result for a failed extraction.
func errorRecord(prefix string, err error, paths ...string) models.Result {
	return models.Single(prefix+describe(err, paths...), models.SourceError, nil)
}
