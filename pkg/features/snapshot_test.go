package features

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSnapshot(t *testing.T) {
	data := `{
	  "beat_timestamps": [1.0, 2.0, 3.0],
	  "transient_timestamps": [],
	  "loudness_contour": [0.5, 0.7, 0.3],
	  "tempo_estimate": 120.0,
	  "current_time": 1.0
	}`
	got, err := ParseSnapshot([]byte(data))
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	want := &Snapshot{
		BeatTimestamps:      []float64{1, 2, 3},
		TransientTimestamps: []float64{},
		LoudnessContour:     []float64{0.5, 0.7, 0.3},
		TempoEstimate:       120,
		CurrentTime:         1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseSnapshot([]byte(`{"beat_timestamps": "nope"}`)); err == nil {
		t.Error("expected error for wrongly typed field")
	}
}

func TestSnapshot_Duration(t *testing.T) {
	s := &Snapshot{LoudnessContour: []float64{0, 0, 0, 0}, LoudnessHopSeconds: 0.25}
	if got := s.Duration(); got != 1 {
		t.Errorf("Duration = %v, want 1", got)
	}
	if got := (&Snapshot{LoudnessContour: []float64{1}}).Duration(); got != 0 {
		t.Errorf("Duration without hop = %v, want 0", got)
	}
	var nilSnap *Snapshot
	if got := nilSnap.Duration(); got != 0 {
		t.Errorf("nil Duration = %v", got)
	}
}

func TestIndicesToSeconds(t *testing.T) {
	if diff := cmp.Diff([]float64{0, 0.5, 2}, IndicesToSeconds([]int{0, 50, 200}, 100)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if got := IndicesToSeconds([]int{1, 2}, 0); got == nil || len(got) != 0 {
		t.Errorf("IndicesToSeconds at rate 0 = %v, want empty non-nil", got)
	}
}
