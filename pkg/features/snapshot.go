package features

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the analysis result consumed by graph evaluation.
//
// All timestamps are in seconds. The detectors work on sample indices;
// Extract divides them by the sample rate before they land here, so the
// evaluator's tolerance windows (0.1s for beats, 0.05s for transients)
// compare like with like.
type Snapshot struct {
	BeatTimestamps      []float64 `json:"beat_timestamps" yaml:"beat_timestamps"`
	TransientTimestamps []float64 `json:"transient_timestamps" yaml:"transient_timestamps"`
	LoudnessContour     []float64 `json:"loudness_contour" yaml:"loudness_contour"`
	FrequencyBands      []float64 `json:"frequency_bands,omitempty" yaml:"frequency_bands,omitempty"`
	TempoEstimate       float64   `json:"tempo_estimate" yaml:"tempo_estimate"`
	CurrentTime         float64   `json:"current_time" yaml:"current_time"`

	// SampleRate is the rate the snapshot was extracted at, 0 when unknown.
	SampleRate int `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
	// LoudnessHopSeconds is the spacing of LoudnessContour entries, 0 when unknown.
	LoudnessHopSeconds float64 `json:"loudness_hop_seconds,omitempty" yaml:"loudness_hop_seconds,omitempty"`
}

// Duration returns the span covered by the loudness contour in seconds,
// or 0 when the hop is unknown.
func (s *Snapshot) Duration() float64 {
	if s == nil || s.LoudnessHopSeconds <= 0 {
		return 0
	}
	return float64(len(s.LoudnessContour)) * s.LoudnessHopSeconds
}

// IndicesToSeconds converts sample indices to seconds at the given rate.
// A non-positive rate yields an empty slice.
func IndicesToSeconds(indices []int, sampleRate int) []float64 {
	out := make([]float64, 0, len(indices))
	if sampleRate <= 0 {
		return out
	}
	sr := float64(sampleRate)
	for _, i := range indices {
		out = append(out, float64(i)/sr)
	}
	return out
}

// ParseSnapshot decodes a JSON snapshot. Missing arrays decode as empty.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot json: %w", err)
	}
	return &s, nil
}
