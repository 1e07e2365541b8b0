package features

import "math"

// DetectBeats slides an energy window over samples and returns the start
// index of every window whose summed squared amplitude exceeds the
// threshold. Without a refractory period a sustained loud region yields a
// marker at every hop, not only at its onset.
func (c Config) DetectBeats(samples []float64, sampleRate int) []int {
	c = c.withDefaults()
	window, hop := windowAndHop(c.BeatWindowSeconds, c.BeatHopDivisor, sampleRate)
	beats := make([]int, 0)
	if window == 0 {
		return beats
	}
	gap := refractorySamples(c.BeatRefractorySeconds, sampleRate)
	last := math.MinInt
	for start := 0; start+window <= len(samples); start += hop {
		var energy float64
		for _, s := range samples[start : start+window] {
			energy += s * s
		}
		if energy <= c.BeatEnergyThreshold {
			continue
		}
		if gap > 0 && last != math.MinInt && start-last < gap {
			continue
		}
		beats = append(beats, start)
		last = start
	}
	return beats
}

// DetectTransients returns every index i where the jump from the previous
// sample exceeds the threshold. Consecutive hits are not merged unless a
// refractory period is configured.
func (c Config) DetectTransients(samples []float64, sampleRate int) []int {
	c = c.withDefaults()
	hits := make([]int, 0)
	gap := refractorySamples(c.TransientRefractorySeconds, sampleRate)
	last := math.MinInt
	for i := 1; i < len(samples); i++ {
		if math.Abs(samples[i]-samples[i-1]) <= c.TransientThreshold {
			continue
		}
		if gap > 0 && last != math.MinInt && i-last < gap {
			continue
		}
		hits = append(hits, i)
		last = i
	}
	return hits
}

// LoudnessContour computes windowed RMS, one value per hop. Only full
// windows contribute. The second result is the hop length in samples.
func (c Config) LoudnessContour(samples []float64, sampleRate int) ([]float64, int) {
	c = c.withDefaults()
	window, hop := windowAndHop(c.LoudnessWindowSeconds, c.LoudnessHopDivisor, sampleRate)
	contour := make([]float64, 0)
	if window == 0 {
		return contour, 0
	}
	for start := 0; start+window <= len(samples); start += hop {
		var sum float64
		for _, s := range samples[start : start+window] {
			sum += s * s
		}
		contour = append(contour, math.Sqrt(sum/float64(window)))
	}
	return contour, hop
}

// EstimateTempo averages the spacing of beat indices and converts it to
// beats per minute. Fewer than two beats, or a non-positive rate, give 0.
func EstimateTempo(beats []int, sampleRate int) float64 {
	if len(beats) < 2 || sampleRate <= 0 {
		return 0
	}
	var total float64
	for i := 1; i < len(beats); i++ {
		total += float64(beats[i]-beats[i-1]) / float64(sampleRate)
	}
	avg := total / float64(len(beats)-1)
	if avg <= 0 {
		return 0
	}
	return 60 / avg
}

func refractorySamples(seconds float64, sampleRate int) int {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(seconds * float64(sampleRate))
}
