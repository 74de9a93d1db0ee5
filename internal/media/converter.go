// Package media wraps ffmpeg for the audio and video conversions the extraction
// pipeline needs: resampling, trimming, demuxing and frame/preview sampling.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/mediatext/pkg/utils"
	"go.uber.org/zap"
)

const stderrExcerptLen = 2048

// ErrNoOutput is returned when ffmpeg exits cleanly but leaves no (or an empty) output file.
var ErrNoOutput = errors.New("conversion produced no output")

// ConversionError reports a non-zero ffmpeg exit.
type ConversionError struct {
	ExitCode int
	Stderr   string
}

func (e *ConversionError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("ffmpeg exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("ffmpeg exited with code %d: %s", e.ExitCode, e.Stderr)
}

// NoAudioStream reports whether ffmpeg failed because the input has no audio track.
func (e *ConversionError) NoAudioStream() bool {
	s := strings.ToLower(e.Stderr)
	return strings.Contains(s, "matches no streams") ||
		strings.Contains(s, "does not contain any stream") ||
		strings.Contains(s, "output file #0 does not contain any stream")
}

// Options configures a Converter.
type Options struct {
	FFmpeg string // binary name or absolute path; default "ffmpeg"
	// SampleRate of the normalized recognition waveform; default 16000.
	SampleRate int
}

// Converter runs fixed ffmpeg argument sets. Inputs and outputs are file paths chosen by
// the pipeline; no caller-supplied flags reach the command line.
type Converter struct {
	ffmpeg     string
	sampleRate int
	runner     Runner
	logger     *zap.Logger
}

// NewConverter returns a converter using ExecRunner. A nil logger is replaced with a no-op.
func NewConverter(opts Options, logger *zap.Logger) *Converter {
	logger = utils.OrNop(logger)
	if opts.FFmpeg == "" {
		opts.FFmpeg = "ffmpeg"
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	return &Converter{
		ffmpeg:     opts.FFmpeg,
		sampleRate: opts.SampleRate,
		runner:     ExecRunner{Logger: logger},
		logger:     logger,
	}
}

// WithRunner returns a copy of c that executes commands through r.
func (c *Converter) WithRunner(r Runner) *Converter {
	cp := *c
	cp.runner = r
	return &cp
}

// NormalizeAudio decodes any audio input into mono 16-bit PCM WAV at the configured rate.
func (c *Converter) NormalizeAudio(ctx context.Context, in, out string) error {
	return c.run(ctx, out,
		"-i", in,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(c.sampleRate),
		"-sample_fmt", "s16",
		"-f", "wav",
		out,
	)
}

// ClipAudio writes the first max of in as an MP3 preview.
func (c *Converter) ClipAudio(ctx context.Context, in, out string, max time.Duration) error {
	return c.run(ctx, out,
		"-i", in,
		"-t", seconds(max),
		"-vn",
		"-codec:a", "libmp3lame",
		"-b:a", "128k",
		"-f", "mp3",
		out,
	)
}

// ExtractAudio demuxes the audio track of a video into a normalized WAV.
func (c *Converter) ExtractAudio(ctx context.Context, video, out string) error {
	return c.run(ctx, out,
		"-i", video,
		"-map", "a",
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(c.sampleRate),
		"-sample_fmt", "s16",
		"-f", "wav",
		out,
	)
}

// VideoPreview writes a short H.264/AAC clip scaled to width pixels.
func (c *Converter) VideoPreview(ctx context.Context, video, out string, max time.Duration, width int) error {
	return c.run(ctx, out,
		"-i", video,
		"-t", seconds(max),
		"-vf", fmt.Sprintf("scale=%d:-2", width),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		out,
	)
}

// Frame writes a single JPEG still taken at offset.
func (c *Converter) Frame(ctx context.Context, video, out string, offset time.Duration) error {
	return c.run(ctx, out,
		"-ss", seconds(offset),
		"-i", video,
		"-frames:v", "1",
		"-q:v", "2",
		out,
	)
}

func (c *Converter) run(ctx context.Context, out string, args ...string) error {
	full := append([]string{"-nostdin", "-hide_banner", "-loglevel", "error", "-y"}, args...)
	_, stderr, err := c.runner.Run(ctx, c.ffmpeg, full...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		convErr := &ConversionError{ExitCode: -1, Stderr: excerpt(stderr)}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			convErr.ExitCode = exitErr.ExitCode()
		} else if convErr.Stderr == "" {
			convErr.Stderr = err.Error()
		}
		c.logger.Debug("conversion failed", zap.String("output", out), zap.Int("exit_code", convErr.ExitCode))
		return convErr
	}
	info, statErr := os.Stat(out)
	if statErr != nil || info.Size() == 0 {
		return ErrNoOutput
	}
	return nil
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

func excerpt(stderr []byte) string {
	s := strings.TrimSpace(string(stderr))
	if len(s) > stderrExcerptLen {
		s = s[len(s)-stderrExcerptLen:]
	}
	return s
}
