// Package display provides human-readable names for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in CLI tables and logs meant for people.
// Keep raw codes for JSON fields, map keys, and equality comparisons.
package display

import "strings"

// --- Node Types ---

var nodeTypes = map[string]string{
	"input-beat-markers":      "Beat Markers",
	"input-transient-markers": "Transient Markers",
	"input-audio-loudness":    "Audio Loudness",
	"logic-and":               "And",
	"logic-counter":           "Counter",
	"logic-map-range":         "Map Range",
	"logic-random-gate":       "Random Gate",
	"output-cut-video":        "Cut Video",
	"output-set-effect":       "Set Effect",
	"output-select-clip":      "Select Clip",
}

// NodeType returns the human-readable name for a node type tag.
// Unknown tags are returned as-is.
func NodeType(code string) string {
	if name, ok := nodeTypes[code]; ok {
		return name
	}
	return code
}

// NodeTypeWithCode returns "Beat Markers (input-beat-markers)" format.
func NodeTypeWithCode(code string) string {
	if name, ok := nodeTypes[code]; ok {
		return name + " (" + code + ")"
	}
	return code
}

// Phase returns the evaluation phase named by a node type's prefix:
// "input-beat-markers" -> "Input". Unknown tags give "Ignored".
func Phase(code string) string {
	if _, ok := nodeTypes[code]; !ok {
		return "Ignored"
	}
	switch {
	case strings.HasPrefix(code, "input-"):
		return "Input"
	case strings.HasPrefix(code, "logic-"):
		return "Logic"
	default:
		return "Output"
	}
}

// --- Actions ---

var actions = map[string]string{
	"cut_video":   "Cut Video",
	"set_effect":  "Set Effect",
	"select_clip": "Select Clip",
}

// Action returns the human-readable name for an action type.
// "cut_video" -> "Cut Video".
func Action(code string) string {
	if name, ok := actions[code]; ok {
		return name
	}
	return code
}

// ActionWithCode returns "Cut Video (cut_video)" format.
func ActionWithCode(code string) string {
	if name, ok := actions[code]; ok {
		return name + " (" + code + ")"
	}
	return code
}

// --- Targets ---

// Target humanizes a dotted effect target.
// "glitch.intensity" -> "glitch / intensity"; "video_track" -> "Video Track".
func Target(target string) string {
	switch target {
	case "video_track":
		return "Video Track"
	case "clip_library":
		return "Clip Library"
	}
	return strings.Join(strings.Split(target, "."), " / ")
}

// Path joins node ids into an evaluation path.
// ["beat", "count", "clip"] -> "beat → count → clip"
func Path(ids []string) string {
	return strings.Join(ids, " → ")
}
