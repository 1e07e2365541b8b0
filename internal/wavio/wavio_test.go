package wavio

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func sine(n, rate int, freq float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.8 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	for _, depth := range []int{8, 16, 24, 32} {
		path := filepath.Join(t.TempDir(), "tone.wav")
		in := sine(2205, 22050, 440)
		if err := WriteFile(path, in, 22050, depth); err != nil {
			t.Fatalf("%d-bit WriteFile: %v", depth, err)
		}

		a, err := ReadFile(path)
		if err != nil {
			t.Fatalf("%d-bit ReadFile: %v", depth, err)
		}
		if a.SampleRate != 22050 || a.Channels != 1 || a.BitDepth != depth {
			t.Errorf("%d-bit header = rate %d, chans %d, depth %d", depth, a.SampleRate, a.Channels, a.BitDepth)
		}
		if len(a.Samples) != len(in) {
			t.Fatalf("%d-bit: %d samples, want %d", depth, len(a.Samples), len(in))
		}
		tol := 2.0 / float64(int64(1)<<(depth-1))
		for i := range in {
			if math.Abs(a.Samples[i]-in[i]) > tol {
				t.Fatalf("%d-bit sample %d = %v, want %v (tol %v)", depth, i, a.Samples[i], in[i], tol)
			}
		}
		if d := a.Duration(); math.Abs(d-0.1) > 1e-9 {
			t.Errorf("%d-bit duration = %v, want 0.1", depth, d)
		}
	}
}

func TestDecode_DownmixesStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 8000, 16, 2, 1)
	buf := &audio.IntBuffer{
		// Frames: (L, R) = (16384, -16384), (16384, 16384)
		Data:   []int{16384, -16384, 16384, 16384},
		Format: &audio.Format{SampleRate: 8000, NumChannels: 2},
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	a, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if a.Channels != 2 || len(a.Samples) != 2 {
		t.Fatalf("got %d channels, %d samples", a.Channels, len(a.Samples))
	}
	if a.Samples[0] != 0 || a.Samples[1] != 0.5 {
		t.Errorf("samples = %v, want [0 0.5]", a.Samples)
	}
}

func TestDecode_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	if err := WriteFile(path, nil, 44100, 16); err != nil {
		t.Fatal(err)
	}
	a, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(a.Samples) != 0 || a.SampleRate != 44100 {
		t.Errorf("got %d samples at %d Hz", len(a.Samples), a.SampleRate)
	}
}

func TestDecode_NotWav(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("this is not a riff file at all"))); err == nil {
		t.Error("expected error for garbage input")
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEncode_RejectsBitDepth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := WriteFile(path, []float64{0}, 8000, 12); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestEncode_Clamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := WriteFile(path, []float64{2, -2, math.NaN()}, 8000, 16); err != nil {
		t.Fatal(err)
	}
	a, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if a.Samples[0] > 1 || a.Samples[0] < 0.999 || a.Samples[1] < -1 || a.Samples[1] > -0.999 || a.Samples[2] != 0 {
		t.Errorf("samples = %v", a.Samples)
	}
}
