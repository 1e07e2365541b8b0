// Package wavio reads and writes PCM WAV files as mono float64 buffers
// for feature extraction.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrUnsupportedFormat is returned for files that are not integer PCM WAV.
var ErrUnsupportedFormat = errors.New("wavio: unsupported wav format")

// Audio is a decoded file downmixed to mono.
type Audio struct {
	Samples    []float64 // mono, nominally in [-1, 1]
	SampleRate int
	Channels   int // channel count of the source file
	BitDepth   int
}

// Duration returns the length of the buffer in seconds.
func (a *Audio) Duration() float64 {
	if a.SampleRate <= 0 {
		return 0
	}
	return float64(len(a.Samples)) / float64(a.SampleRate)
}

// Decode reads a PCM WAV stream. Multi-channel audio is averaged to mono
// and integer samples are scaled by the source bit depth.
func Decode(r io.ReadSeeker) (*Audio, error) {
	dec := wav.NewDecoder(r)
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("read wav header: %w", err)
	}
	if dec.NumChans < 1 || dec.BitDepth < 8 {
		return nil, fmt.Errorf("%w: %d channels, %d bits", ErrUnsupportedFormat, dec.NumChans, dec.BitDepth)
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: audio format %d (want integer PCM)", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	return &Audio{
		Samples:    downmix(buf),
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   buf.SourceBitDepth,
	}, nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	a, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Encode writes mono samples as integer PCM at the given bit depth (8, 16,
// 24 or 32). Samples are clamped to [-1, 1].
func Encode(w io.WriteSeeker, samples []float64, sampleRate, bitDepth int) error {
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: %d-bit output", ErrUnsupportedFormat, bitDepth)
	}

	buf := &audio.IntBuffer{
		Data:           make([]int, len(samples)),
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		SourceBitDepth: bitDepth,
	}
	for i, s := range samples {
		buf.Data[i] = toInt(s, bitDepth)
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}

// WriteFile encodes samples to a new file at path.
func WriteFile(path string, samples []float64, sampleRate, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, samples, sampleRate, bitDepth); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func downmix(buf *audio.IntBuffer) []float64 {
	chans := buf.Format.NumChannels
	if chans < 1 {
		chans = 1
	}
	frames := len(buf.Data) / chans
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < chans; c++ {
			sum += toFloat(buf.Data[i*chans+c], buf.SourceBitDepth)
		}
		out[i] = sum / float64(chans)
	}
	return out
}

// toFloat scales a PCM integer to [-1, 1]. 8-bit WAV is unsigned.
func toFloat(v, bitDepth int) float64 {
	if bitDepth == 8 {
		return float64(v-128) / 128
	}
	return float64(v) / float64(int64(1)<<(bitDepth-1))
}

func toInt(s float64, bitDepth int) int {
	if math.IsNaN(s) {
		s = 0
	}
	s = math.Max(-1, math.Min(1, s))
	if bitDepth == 8 {
		return int(math.Round(s*127)) + 128
	}
	full := float64(int64(1)<<(bitDepth-1)) - 1
	return int(math.Round(s * full))
}
