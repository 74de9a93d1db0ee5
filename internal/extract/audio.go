package extract

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/hyperjump/mediatext/internal/models"
	"github.com/hyperjump/mediatext/internal/speech"
	"github.com/hyperjump/mediatext/internal/workarea"
	"go.uber.org/zap"
)

const (
	unintelligibleAudio = "Speech recognition could not understand the audio"
	serviceErrorPrefix  = "Could not request results from speech recognition service; "
)

type audioStrategy struct {
	media   Converter
	speech  Transcriber
	preview time.Duration
	logger  *zap.Logger
}

// Extract normalizes the clip to a recognition waveform, cuts a short MP3 preview from it
// and transcribes it once.
func (s *audioStrategy) Extract(ctx context.Context, area *workarea.Area, in Input) models.Result {
	strip := []string{area.Path(), filepath.Dir(in.Path)}
	sub, err := area.Sub("audio_extract")
	if err != nil {
		return errorRecord("Error processing audio: ", err, strip...)
	}
	defer sub.Release()

	wav := sub.Join("audio.wav")
	if err := s.media.NormalizeAudio(ctx, in.Path, wav); err != nil {
		s.logger.Warn("audio conversion failed", zap.String("path", in.Path), zap.Error(err))
		return errorRecord("Error processing audio: ", err, strip...)
	}

	var preview *models.Preview
	clip := sub.Join("preview.mp3")
	if err := s.media.ClipAudio(ctx, wav, clip, s.preview); err != nil {
		s.logger.Debug("audio preview skipped", zap.Error(err))
	} else {
		preview = filePreview(clip, "audio/mpeg")
	}

	text, err := s.speech.Transcribe(ctx, wav)
	var svc *speech.ServiceError
	switch {
	case err == nil:
		return models.Single(text, models.SourceSpeech, preview)
	case errors.Is(err, speech.ErrUnintelligible):
		return models.Single(unintelligibleAudio, models.SourceSpeech, preview)
	case errors.As(err, &svc):
		s.logger.Warn("speech service failed", zap.String("reason", svc.Reason))
		return models.Single(serviceErrorPrefix+svc.Reason, models.SourceError, preview)
	default:
		s.logger.Warn("audio transcription failed", zap.String("path", in.Path), zap.Error(err))
		res := errorRecord("Error processing audio: ", err, strip...)
		res[0].Media = preview
		return res
	}
}
