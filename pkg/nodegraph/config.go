package nodegraph

// Config holds the evaluator constants.
type Config struct {
	// BeatTolerance is the window (seconds) around the playback time in
	// which a beat marker counts as "now".
	BeatTolerance float64 `json:"beat_tolerance" yaml:"beat_tolerance"`
	// TransientTolerance is the same window for transient markers.
	TransientTolerance float64 `json:"transient_tolerance" yaml:"transient_tolerance"`

	// LoudnessSampleRate and LoudnessHopSize map playback time to a
	// loudness contour index when the snapshot does not carry its own hop.
	LoudnessSampleRate float64 `json:"loudness_sample_rate" yaml:"loudness_sample_rate"`
	LoudnessHopSize    float64 `json:"loudness_hop_size" yaml:"loudness_hop_size"`
	// LoudnessFixedHop ignores the snapshot's own hop and always indexes
	// with LoudnessSampleRate / LoudnessHopSize.
	LoudnessFixedHop bool `json:"loudness_fixed_hop,omitempty" yaml:"loudness_fixed_hop,omitempty"`

	// TriggerThreshold is the level above which a value counts as high.
	TriggerThreshold float64 `json:"trigger_threshold" yaml:"trigger_threshold"`

	Order Order `json:"order" yaml:"order"`
}

const (
	DefaultBeatTolerance      = 0.1
	DefaultTransientTolerance = 0.05
	DefaultLoudnessSampleRate = 44100
	DefaultLoudnessHopSize    = 1024
	DefaultTriggerThreshold   = 0.5

	defaultMaxCount    = 10.0
	defaultIntensity   = 0.5
	defaultProbability = 0.5
	defaultEffectName  = "glitch"
	defaultEffectParam = "intensity"
	defaultOutputMax   = 100.0
)

// DefaultConfig returns the stock evaluator constants with dependency ordering.
func DefaultConfig() Config {
	return Config{
		BeatTolerance:      DefaultBeatTolerance,
		TransientTolerance: DefaultTransientTolerance,
		LoudnessSampleRate: DefaultLoudnessSampleRate,
		LoudnessHopSize:    DefaultLoudnessHopSize,
		TriggerThreshold:   DefaultTriggerThreshold,
		Order:              OrderDependency,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BeatTolerance <= 0 {
		c.BeatTolerance = d.BeatTolerance
	}
	if c.TransientTolerance <= 0 {
		c.TransientTolerance = d.TransientTolerance
	}
	if c.LoudnessSampleRate <= 0 {
		c.LoudnessSampleRate = d.LoudnessSampleRate
	}
	if c.LoudnessHopSize <= 0 {
		c.LoudnessHopSize = d.LoudnessHopSize
	}
	if c.TriggerThreshold <= 0 {
		c.TriggerThreshold = d.TriggerThreshold
	}
	if c.Order == "" {
		c.Order = d.Order
	}
	return c
}
