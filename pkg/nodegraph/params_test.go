package nodegraph

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParams_Float(t *testing.T) {
	p := Params{
		"f64":    2.5,
		"f32":    float32(1.5),
		"int":    3,
		"int64":  int64(4),
		"number": json.Number("0.25"),
		"bad":    json.Number("x"),
		"text":   "7",
		"nan":    math.NaN(),
		"inf":    math.Inf(1),
		"bool":   true,
	}
	tests := map[string]float64{
		"f64": 2.5, "f32": 1.5, "int": 3, "int64": 4, "number": 0.25,
		"bad": -1, "text": -1, "nan": -1, "inf": -1, "bool": -1, "missing": -1,
	}
	for name, want := range tests {
		if got := p.Float(name, -1); got != want {
			t.Errorf("Float(%q) = %v, want %v", name, got, want)
		}
	}

	var nilParams Params
	if got := nilParams.Float("x", 9); got != 9 {
		t.Errorf("nil Params Float = %v, want 9", got)
	}
}

func TestParams_Text(t *testing.T) {
	p := Params{"name": "blur", "index": 2.0, "ratio": 0.75, "flag": false}
	tests := map[string]string{"name": "blur", "index": "2", "ratio": "0.75", "flag": "def", "missing": "def"}
	for name, want := range tests {
		if got := p.Text(name, "def"); got != want {
			t.Errorf("Text(%q) = %q, want %q", name, got, want)
		}
	}
}
