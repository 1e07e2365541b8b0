package nodegraph

import (
	"encoding/json"
	"math"
	"strconv"
)

// Params holds node parameters. Numbers drive numeric settings; strings
// are accepted for names such as effectName. Values of any other type are
// ignored and the documented default applies.
type Params map[string]any

// Float returns the numeric parameter name, or def when it is missing,
// not a number, or not finite.
func (p Params) Float(name string, def float64) float64 {
	v, ok := p.number(name)
	if !ok {
		return def
	}
	return v
}

// Text returns the parameter name as a string. Numbers are formatted in
// their shortest form (1 not 1.000000).
func (p Params) Text(name, def string) string {
	if s, ok := p[name].(string); ok {
		return s
	}
	if v, ok := p.number(name); ok {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return def
}

func (p Params) number(name string) (float64, bool) {
	var v float64
	switch x := p[name].(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case uint64:
		v = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
