// Package speech converts a normalized waveform to text through a remote recognition
// service, after calibrating for ambient noise on the start of the clip.
package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/mediatext/pkg/utils"
	"go.uber.org/zap"
)

// ErrUnintelligible means the service was reached but recognized no speech.
var ErrUnintelligible = errors.New("speech could not be understood")

// ServiceError means the recognition service was unreachable or rejected the request.
// Reason is safe to show to users.
type ServiceError struct {
	Reason string
	Err    error
}

func (e *ServiceError) Error() string { return "speech service unavailable: " + e.Reason }

func (e *ServiceError) Unwrap() error { return e.Err }

// DefaultCalibration is how much of the clip is spent listening to ambient noise.
const DefaultCalibration = time.Second

// Extractor transcribes WAV files with exactly one recognizer call per file.
type Extractor struct {
	recognizer  Recognizer
	calibration time.Duration
	logger      *zap.Logger
}

// NewExtractor returns an extractor. A zero calibration uses DefaultCalibration; a
// negative one disables calibration.
func NewExtractor(rec Recognizer, calibration time.Duration, logger *zap.Logger) *Extractor {
	if calibration == 0 {
		calibration = DefaultCalibration
	}
	logger = utils.OrNop(logger)
	return &Extractor{recognizer: rec, calibration: calibration, logger: logger}
}

// Transcribe decodes wavPath, calibrates on its opening segment and recognizes the rest.
func (e *Extractor) Transcribe(ctx context.Context, wavPath string) (string, error) {
	audio, err := LoadWAV(wavPath)
	if err != nil {
		return "", fmt.Errorf("decode waveform: %w", err)
	}
	cal, rest := Calibrate(audio, e.calibration)
	e.logger.Debug("ambient noise calibrated",
		zap.Float64("energy_threshold", cal.EnergyThreshold),
		zap.Int("consumed_samples", cal.Consumed),
		zap.Duration("remaining", rest.Duration()),
	)
	if len(rest.Samples) == 0 {
		return "", ErrUnintelligible
	}
	text, err := e.recognizer.Recognize(ctx, rest)
	if err != nil {
		return "", err
	}
	if utils.IsBlank(text) {
		return "", ErrUnintelligible
	}
	return text, nil
}
