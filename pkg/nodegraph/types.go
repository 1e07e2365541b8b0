package nodegraph

// NodeType is the type tag carried by every node.
type NodeType string

const (
	TypeBeatMarkers      NodeType = "input-beat-markers"
	TypeTransientMarkers NodeType = "input-transient-markers"
	TypeAudioLoudness    NodeType = "input-audio-loudness"

	TypeAnd        NodeType = "logic-and"
	TypeCounter    NodeType = "logic-counter"
	TypeMapRange   NodeType = "logic-map-range"
	TypeRandomGate NodeType = "logic-random-gate"

	TypeCutVideo   NodeType = "output-cut-video"
	TypeSetEffect  NodeType = "output-set-effect"
	TypeSelectClip NodeType = "output-select-clip"
)

// Category groups node types into the three evaluation phases.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryInput
	CategoryLogic
	CategoryOutput
)

func (c Category) String() string {
	switch c {
	case CategoryInput:
		return "input"
	case CategoryLogic:
		return "logic"
	case CategoryOutput:
		return "output"
	default:
		return "unknown"
	}
}

var categories = map[NodeType]Category{
	TypeBeatMarkers:      CategoryInput,
	TypeTransientMarkers: CategoryInput,
	TypeAudioLoudness:    CategoryInput,
	TypeAnd:              CategoryLogic,
	TypeCounter:          CategoryLogic,
	TypeMapRange:         CategoryLogic,
	TypeRandomGate:       CategoryLogic,
	TypeCutVideo:         CategoryOutput,
	TypeSetEffect:        CategoryOutput,
	TypeSelectClip:       CategoryOutput,
}

// Category returns the phase a node type belongs to. Unknown tags report
// CategoryUnknown and are skipped by the evaluator.
func (t NodeType) Category() Category { return categories[t] }

// Known reports whether the evaluator understands t.
func (t NodeType) Known() bool { return t.Category() != CategoryUnknown }

// Handle names read and written by the built-in node types.
const (
	HandleBeats      = "beats"
	HandleTransients = "transients"
	HandleLoudness   = "loudness"

	HandleInputA  = "input-a"
	HandleInputB  = "input-b"
	HandleInput   = "input"
	HandleOutput  = "output"
	HandleTrigger = "trigger"
	HandleReset   = "reset"
	HandleCount   = "count"

	HandleIntensity = "intensity"
	HandleValue     = "value"
	HandleClipIndex = "clipIndex"
)

// Action type tags and fixed targets.
const (
	ActionCutVideo   = "cut_video"
	ActionSetEffect  = "set_effect"
	ActionSelectClip = "select_clip"

	TargetVideoTrack  = "video_track"
	TargetClipLibrary = "clip_library"
)

// Action is a timestamped instruction for the downstream effect system.
type Action struct {
	ActionType string  `json:"action_type" yaml:"action_type"`
	Target     string  `json:"target" yaml:"target"`
	Value      float64 `json:"value" yaml:"value"`
	Timestamp  float64 `json:"timestamp" yaml:"timestamp"`
}

// readsHandles and writesHandles list the handles each built-in type
// consumes and produces. Edges outside these sets never carry a value.
var (
	readsHandles = map[NodeType][]string{
		TypeAnd:        {HandleInputA, HandleInputB},
		TypeCounter:    {HandleTrigger, HandleReset},
		TypeMapRange:   {HandleInput},
		TypeRandomGate: {HandleTrigger},
		TypeCutVideo:   {HandleTrigger, HandleIntensity},
		TypeSetEffect:  {HandleTrigger, HandleValue},
		TypeSelectClip: {HandleTrigger, HandleClipIndex},
	}
	writesHandles = map[NodeType][]string{
		TypeBeatMarkers:      {HandleBeats},
		TypeTransientMarkers: {HandleTransients},
		TypeAudioLoudness:    {HandleLoudness},
		TypeAnd:              {HandleOutput},
		TypeCounter:          {HandleCount},
		TypeMapRange:         {HandleOutput},
		TypeRandomGate:       {HandleOutput},
	}
)

// Reads reports whether nodes of type t consume input handle h.
func (t NodeType) Reads(h string) bool { return hasHandle(readsHandles[t], h) }

// Writes reports whether nodes of type t produce output handle h.
func (t NodeType) Writes(h string) bool { return hasHandle(writesHandles[t], h) }

func hasHandle(hs []string, h string) bool {
	for _, x := range hs {
		if x == h {
			return true
		}
	}
	return false
}
