package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperjump/mediatext/internal/media"
	"github.com/hyperjump/mediatext/internal/models"
	"github.com/hyperjump/mediatext/internal/speech"
	"github.com/hyperjump/mediatext/internal/workarea"
	"go.uber.org/zap"
)

const (
	noVideoAudio        = "No audio detected in this video file or audio extraction failed."
	unintelligibleVideo = "Speech recognition could not understand the audio in this video"
)

type videoStrategy struct {
	media  Converter
	speech Transcriber
	opts   Options
	logger *zap.Logger
}

// Extract copies the video into its own working area, demuxes the audio track, samples a
// preview clip and still frames, and transcribes the audio once. Preview and frames are
// best-effort and attached to whatever record the transcription produces.
func (s *videoStrategy) Extract(ctx context.Context, area *workarea.Area, in Input) models.Result {
	strip := []string{area.Path(), filepath.Dir(in.Path)}
	sub, err := area.Sub("video_extract", workarea.WithSettleDelay(s.opts.SettleDelay))
	if err != nil {
		return errorRecord("Error processing video: ", err, strip...)
	}
	defer sub.Release()

	src := sub.Join("video_copy" + in.Ext)
	if err := copyFile(in.Path, src); err != nil {
		return errorRecord("Error processing video: ", err, strip...)
	}

	wav := sub.Join("extracted_audio.wav")
	if err := s.media.ExtractAudio(ctx, src, wav); err != nil {
		var conv *media.ConversionError
		if errors.Is(err, media.ErrNoOutput) || (errors.As(err, &conv) && conv.NoAudioStream()) {
			s.logger.Info("video has no usable audio", zap.String("path", in.Path), zap.Error(err))
			return models.Single(noVideoAudio, models.SourceVideo, nil)
		}
		s.logger.Warn("video audio extraction failed", zap.String("path", in.Path), zap.Error(err))
		return errorRecord("Error extracting audio from video: ", err, strip...)
	}

	var preview *models.Preview
	clip := sub.Join("preview.mp4")
	if err := s.media.VideoPreview(ctx, src, clip, s.opts.VideoPreview, s.opts.VideoPreviewWidth); err != nil {
		s.logger.Debug("video preview skipped", zap.Error(err))
	} else {
		preview = filePreview(clip, "video/mp4")
	}
	frames, stamps := s.frames(ctx, sub, src)

	rec := models.Record{Page: 1, Media: preview, Frames: frames, FrameTimestamps: stamps}
	text, err := s.speech.Transcribe(ctx, wav)
	var svc *speech.ServiceError
	switch {
	case err == nil:
		rec.Text, rec.Source = text, models.SourceVideo
	case errors.Is(err, speech.ErrUnintelligible):
		rec.Text, rec.Source = unintelligibleVideo, models.SourceVideo
	case errors.As(err, &svc):
		s.logger.Warn("speech service failed", zap.String("reason", svc.Reason))
		rec.Text, rec.Source = serviceErrorPrefix+svc.Reason, models.SourceError
	default:
		s.logger.Warn("video transcription failed", zap.String("path", in.Path), zap.Error(err))
		rec.Text, rec.Source = "Error processing audio from video: "+describe(err, strip...), models.SourceError
	}
	return models.Result{rec}
}

// frames samples up to FrameCount stills at FrameInterval spacing. Offsets past the end of
// the video produce no output and are skipped.
func (s *videoStrategy) frames(ctx context.Context, sub *workarea.Area, src string) ([]models.Preview, []float64) {
	var frames []models.Preview
	var stamps []float64
	for i := 0; i < s.opts.FrameCount; i++ {
		offset := time.Duration(i) * s.opts.FrameInterval
		out := sub.Join(fmt.Sprintf("frame_%d.jpg", i))
		if err := s.media.Frame(ctx, src, out, offset); err != nil {
			s.logger.Debug("frame skipped", zap.Duration("offset", offset), zap.Error(err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if p := filePreview(out, "image/jpeg"); p != nil {
			frames = append(frames, *p)
			stamps = append(stamps, offset.Seconds())
		}
	}
	return frames, stamps
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
