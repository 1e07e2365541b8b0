package format

import (
	"fmt"
	"strconv"
	"strings"
)

// Seconds formats a playback time with millisecond precision.
func Seconds(t float64) string {
	return fmt.Sprintf("%.3fs", t)
}

// BPM formats a tempo estimate; zero reads as "-".
func BPM(bpm float64) string {
	if bpm == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", bpm)
}

// Number formats a value in its shortest round-trippable form.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List shows at most max values followed by a count of the rest.
func List(vals []float64, max int) string {
	if len(vals) == 0 {
		return "-"
	}
	n := len(vals)
	if max > 0 && n > max {
		n = max
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("%.2f", vals[i])
	}
	s := strings.Join(parts, ", ")
	if rest := len(vals) - n; rest > 0 {
		s += fmt.Sprintf(" (+%d)", rest)
	}
	return s
}

// Truncate shortens s to maxLen runes, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
