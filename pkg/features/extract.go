// Package features turns raw mono audio into the analysis snapshot that
// node graphs are evaluated against: beat and transient markers, a
// loudness contour, a prefix magnitude spectrum and a tempo estimate.
//
// Everything here is pure and deterministic. No I/O, no shared state.
package features

import "math"

// Extractor runs every detector with one Config.
type Extractor struct {
	cfg Config
}

// NewExtractor returns an Extractor. Zero fields of cfg take defaults.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (e *Extractor) Config() Config { return e.cfg }

// Extract analyses samples recorded at sampleRate. Non-finite samples count
// as silence and huge ones are clamped to MaxSampleMagnitude. A
// non-positive sample rate leaves every time-based field empty; the
// spectrum is still computed.
func (e *Extractor) Extract(samples []float64, sampleRate int) *Snapshot {
	clean := sanitize(samples)

	beats := e.cfg.DetectBeats(clean, sampleRate)
	transients := e.cfg.DetectTransients(clean, sampleRate)
	contour, hop := e.cfg.LoudnessContour(clean, sampleRate)

	snap := &Snapshot{
		BeatTimestamps:      IndicesToSeconds(beats, sampleRate),
		TransientTimestamps: IndicesToSeconds(transients, sampleRate),
		LoudnessContour:     contour,
		FrequencyBands:      Spectrum(clean, e.cfg.SpectrumSize),
		TempoEstimate:       EstimateTempo(beats, sampleRate),
	}
	if sampleRate > 0 {
		snap.SampleRate = sampleRate
		if hop > 0 {
			snap.LoudnessHopSeconds = float64(hop) / float64(sampleRate)
		}
	}
	return snap
}

// Extract analyses samples with DefaultConfig.
func Extract(samples []float64, sampleRate int) *Snapshot {
	return NewExtractor(DefaultConfig()).Extract(samples, sampleRate)
}

// MaxSampleMagnitude bounds sample values before analysis. Squared and
// summed over any realistic buffer it stays finite, so every snapshot
// field is representable in JSON.
const MaxSampleMagnitude = 1e100

// sanitize copies samples, replacing NaN and ±Inf with 0 and clamping
// finite values to ±MaxSampleMagnitude. The input is returned unchanged
// when it is already clean.
func sanitize(samples []float64) []float64 {
	for i, s := range samples {
		if clampSample(s) != s {
			out := make([]float64, len(samples))
			copy(out, samples[:i])
			for j := i; j < len(samples); j++ {
				out[j] = clampSample(samples[j])
			}
			return out
		}
	}
	return samples
}

func clampSample(s float64) float64 {
	switch {
	case math.IsNaN(s), math.IsInf(s, 0):
		return 0
	case s > MaxSampleMagnitude:
		return MaxSampleMagnitude
	case s < -MaxSampleMagnitude:
		return -MaxSampleMagnitude
	}
	return s
}
