package features

// Config holds the detector constants. The zero value is not useful;
// start from DefaultConfig and override fields.
type Config struct {
	// Beat detection: sliding energy window.
	BeatWindowSeconds     float64 `json:"beat_window_seconds" yaml:"beat_window_seconds"`
	BeatHopDivisor        int     `json:"beat_hop_divisor" yaml:"beat_hop_divisor"`
	BeatEnergyThreshold   float64 `json:"beat_energy_threshold" yaml:"beat_energy_threshold"`
	BeatRefractorySeconds float64 `json:"beat_refractory_seconds" yaml:"beat_refractory_seconds"` // 0 disables

	// Transient detection: adjacent-sample delta.
	TransientThreshold         float64 `json:"transient_threshold" yaml:"transient_threshold"`
	TransientRefractorySeconds float64 `json:"transient_refractory_seconds" yaml:"transient_refractory_seconds"` // 0 disables

	// Loudness contour: windowed RMS.
	LoudnessWindowSeconds float64 `json:"loudness_window_seconds" yaml:"loudness_window_seconds"`
	LoudnessHopDivisor    int     `json:"loudness_hop_divisor" yaml:"loudness_hop_divisor"`

	// SpectrumSize is the DFT length applied to the buffer prefix.
	SpectrumSize int `json:"spectrum_size" yaml:"spectrum_size"`
}

const (
	DefaultBeatWindowSeconds     = 0.1
	DefaultBeatHopDivisor        = 4
	DefaultBeatEnergyThreshold   = 0.1
	DefaultTransientThreshold    = 0.3
	DefaultLoudnessWindowSeconds = 0.05
	DefaultLoudnessHopDivisor    = 2
	DefaultSpectrumSize          = 2048
)

// DefaultConfig returns the stock detector constants.
func DefaultConfig() Config {
	return Config{
		BeatWindowSeconds:     DefaultBeatWindowSeconds,
		BeatHopDivisor:        DefaultBeatHopDivisor,
		BeatEnergyThreshold:   DefaultBeatEnergyThreshold,
		TransientThreshold:    DefaultTransientThreshold,
		LoudnessWindowSeconds: DefaultLoudnessWindowSeconds,
		LoudnessHopDivisor:    DefaultLoudnessHopDivisor,
		SpectrumSize:          DefaultSpectrumSize,
	}
}

// withDefaults fills zero or negative fields from DefaultConfig so a
// partially written config file never disables a detector by accident.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BeatWindowSeconds <= 0 {
		c.BeatWindowSeconds = d.BeatWindowSeconds
	}
	if c.BeatHopDivisor <= 0 {
		c.BeatHopDivisor = d.BeatHopDivisor
	}
	if c.BeatEnergyThreshold <= 0 {
		c.BeatEnergyThreshold = d.BeatEnergyThreshold
	}
	if c.BeatRefractorySeconds < 0 {
		c.BeatRefractorySeconds = 0
	}
	if c.TransientThreshold <= 0 {
		c.TransientThreshold = d.TransientThreshold
	}
	if c.TransientRefractorySeconds < 0 {
		c.TransientRefractorySeconds = 0
	}
	if c.LoudnessWindowSeconds <= 0 {
		c.LoudnessWindowSeconds = d.LoudnessWindowSeconds
	}
	if c.LoudnessHopDivisor <= 0 {
		c.LoudnessHopDivisor = d.LoudnessHopDivisor
	}
	if c.SpectrumSize <= 0 {
		c.SpectrumSize = d.SpectrumSize
	}
	return c
}

// windowAndHop converts a window length in seconds to samples and derives
// the hop. Both are at least one sample when the window is non-empty.
func windowAndHop(seconds float64, divisor, sampleRate int) (window, hop int) {
	window = int(seconds * float64(sampleRate))
	if window <= 0 {
		return 0, 0
	}
	hop = window / divisor
	if hop < 1 {
		hop = 1
	}
	return window, hop
}
