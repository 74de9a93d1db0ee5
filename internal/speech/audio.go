package speech

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned for files that are not RIFF/WAVE PCM.
var ErrInvalidWAV = errors.New("not a valid wav file")

// Audio is mono signed 16-bit PCM.
type Audio struct {
	Samples    []int16
	SampleRate int
}

// Duration returns the playing time of the samples.
func (a *Audio) Duration() time.Duration {
	if a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(a.Samples)) * time.Second / time.Duration(a.SampleRate)
}

// LoadWAV decodes a PCM WAV file, downmixing to mono and rescaling to 16 bits.
func LoadWAV(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	channels := int(d.NumChans)
	if channels <= 0 {
		channels = 1
	}
	depth := int(d.BitDepth)

	frames := len(buf.Data) / channels
	out := &Audio{Samples: make([]int16, frames), SampleRate: int(d.SampleRate)}
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += to16(buf.Data[i*channels+c], depth)
		}
		out.Samples[i] = int16(sum / channels)
	}
	return out, nil
}

func to16(v, depth int) int {
	switch {
	case depth == 8:
		return (v - 128) << 8
	case depth > 16:
		return v >> (depth - 16)
	default:
		return v
	}
}

// WriteWAV encodes a as a mono 16-bit PCM WAV file.
func WriteWAV(path string, a *Audio) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, a.SampleRate, 16, 1, 1)
	data := make([]int, len(a.Samples))
	for i, s := range a.Samples {
		data[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: a.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
