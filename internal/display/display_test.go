package display

import "testing"

func TestNodeType(t *testing.T) {
	cases := []struct {
		code, want string
	}{
		{"input-beat-markers", "Beat Markers"},
		{"input-transient-markers", "Transient Markers"},
		{"input-audio-loudness", "Audio Loudness"},
		{"logic-and", "And"},
		{"logic-counter", "Counter"},
		{"logic-map-range", "Map Range"},
		{"logic-random-gate", "Random Gate"},
		{"output-cut-video", "Cut Video"},
		{"output-set-effect", "Set Effect"},
		{"output-select-clip", "Select Clip"},
		{"input-video-motion", "input-video-motion"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NodeType(tc.code); got != tc.want {
			t.Errorf("NodeType(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestNodeTypeWithCode(t *testing.T) {
	if got := NodeTypeWithCode("logic-counter"); got != "Counter (logic-counter)" {
		t.Errorf("got %q", got)
	}
	if got := NodeTypeWithCode("unknown"); got != "unknown" {
		t.Errorf("got %q", got)
	}
}

func TestPhase(t *testing.T) {
	cases := []struct {
		code, want string
	}{
		{"input-audio-loudness", "Input"},
		{"logic-random-gate", "Logic"},
		{"output-select-clip", "Output"},
		{"input-video-motion", "Ignored"},
		{"comment", "Ignored"},
	}
	for _, tc := range cases {
		if got := Phase(tc.code); got != tc.want {
			t.Errorf("Phase(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestAction(t *testing.T) {
	if got := Action("set_effect"); got != "Set Effect" {
		t.Errorf("got %q", got)
	}
	if got := ActionWithCode("cut_video"); got != "Cut Video (cut_video)" {
		t.Errorf("got %q", got)
	}
	if got := ActionWithCode("fade"); got != "fade" {
		t.Errorf("got %q", got)
	}
}

func TestTarget(t *testing.T) {
	cases := []struct {
		target, want string
	}{
		{"video_track", "Video Track"},
		{"clip_library", "Clip Library"},
		{"glitch.intensity", "glitch / intensity"},
		{"3.intensity", "3 / intensity"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		if got := Target(tc.target); got != tc.want {
			t.Errorf("Target(%q) = %q, want %q", tc.target, got, tc.want)
		}
	}
}

func TestPath(t *testing.T) {
	if got := Path([]string{"beat", "count", "clip"}); got != "beat → count → clip" {
		t.Errorf("got %q", got)
	}
	if got := Path(nil); got != "" {
		t.Errorf("got %q", got)
	}
}
