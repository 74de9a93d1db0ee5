package speech

import (
	"math"
	"time"
)

// Ambient-noise listener constants, expressed per buffer of calibrationChunk samples.
const (
	calibrationChunk   = 1024
	initialThreshold   = 300.0
	dampingBase        = 0.15
	dynamicEnergyRatio = 1.5
)

// Calibration is the outcome of listening to the start of a clip.
type Calibration struct {
	EnergyThreshold float64
	// Consumed is the number of leading samples used for calibration.
	Consumed int
}

// Calibrate listens to the first d of a and adapts an energy threshold to its ambient
// noise. The listened-to samples are consumed: the returned Audio holds only what follows
// them, which is what recognition should be run on.
func Calibrate(a *Audio, d time.Duration) (Calibration, *Audio) {
	cal := Calibration{EnergyThreshold: initialThreshold}
	if a.SampleRate <= 0 || d <= 0 {
		return cal, a
	}
	secondsPerBuffer := float64(calibrationChunk) / float64(a.SampleRate)
	damping := math.Pow(dampingBase, secondsPerBuffer)
	elapsed := 0.0
	pos := 0
	for pos < len(a.Samples) {
		elapsed += secondsPerBuffer
		if elapsed > d.Seconds() {
			break
		}
		end := min(pos+calibrationChunk, len(a.Samples))
		target := rms(a.Samples[pos:end]) * dynamicEnergyRatio
		cal.EnergyThreshold = cal.EnergyThreshold*damping + target*(1-damping)
		pos = end
	}
	cal.Consumed = pos
	return cal, &Audio{Samples: a.Samples[pos:], SampleRate: a.SampleRate}
}

func rms(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
