package nodegraph

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand"
)

// visit evaluates the node at pos. Unknown types do nothing.
func (r *evaluation) visit(pos int) {
	n := &r.graph.Nodes[pos]
	switch n.Type {
	case TypeBeatMarkers:
		r.set(n, HandleBeats, indicator(anyWithin(r.snap.BeatTimestamps, r.time, r.cfg.BeatTolerance)))
	case TypeTransientMarkers:
		r.set(n, HandleTransients, indicator(anyWithin(r.snap.TransientTimestamps, r.time, r.cfg.TransientTolerance)))
	case TypeAudioLoudness:
		r.set(n, HandleLoudness, r.loudness())

	case TypeAnd:
		a := r.input(n, HandleInputA, 0)
		b := r.input(n, HandleInputB, 0)
		r.set(n, HandleOutput, indicator(r.high(a) && r.high(b)))
	case TypeCounter:
		r.set(n, HandleCount, r.counter(n))
	case TypeMapRange:
		r.set(n, HandleOutput, mapRange(n, r.input(n, HandleInput, 0)))
	case TypeRandomGate:
		trigger := r.input(n, HandleTrigger, 0)
		p := n.Data.Parameters.Float("probability", defaultProbability)
		r.set(n, HandleOutput, indicator(r.high(trigger) && draw(n.ID, r.time) < p))

	case TypeCutVideo:
		if r.high(r.input(n, HandleTrigger, 0)) {
			r.act(pos, n, Action{
				ActionType: ActionCutVideo,
				Target:     TargetVideoTrack,
				Value:      r.input(n, HandleIntensity, defaultIntensity),
				Timestamp:  r.time,
			})
		}
	case TypeSetEffect:
		if r.high(r.input(n, HandleTrigger, 0)) {
			params := n.Data.Parameters
			r.act(pos, n, Action{
				ActionType: ActionSetEffect,
				Target:     params.Text("effectName", defaultEffectName) + "." + params.Text("parameterName", defaultEffectParam),
				Value:      r.input(n, HandleValue, 0),
				Timestamp:  r.time,
			})
		}
	case TypeSelectClip:
		if r.high(r.input(n, HandleTrigger, 0)) {
			r.act(pos, n, Action{
				ActionType: ActionSelectClip,
				Target:     TargetClipLibrary,
				Value:      r.input(n, HandleClipIndex, 0),
				Timestamp:  r.time,
			})
		}
	}
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func anyWithin(ts []float64, t, tol float64) bool {
	for _, x := range ts {
		if math.Abs(x-t) < tol {
			return true
		}
	}
	return false
}

// loudness picks the contour entry covering the playback time. The
// snapshot's own hop wins over the configured sample rate and hop size
// unless LoudnessFixedHop is set. Negative or past-the-end positions read
// as silence.
func (r *evaluation) loudness() float64 {
	var pos float64
	if hop := r.snap.LoudnessHopSeconds; hop > 0 && !r.cfg.LoudnessFixedHop {
		pos = r.time / hop
	} else {
		pos = r.time * r.cfg.LoudnessSampleRate / r.cfg.LoudnessHopSize
	}
	if math.IsNaN(pos) || pos < 0 || pos >= float64(len(r.snap.LoudnessContour)) {
		return 0
	}
	return r.snap.LoudnessContour[int(math.Floor(pos))]
}

// counter returns the count for a logic-counter. Without state it is
// floor(time × trigger) mod maxCount, recomputed every call. With state
// it counts rising edges of trigger and honours the reset input.
func (r *evaluation) counter(n *Node) float64 {
	trigger := r.input(n, HandleTrigger, 0)
	maxCount := n.Data.Parameters.Float("maxCount", defaultMaxCount)
	if maxCount <= 0 {
		maxCount = defaultMaxCount
	}

	if r.state == nil {
		return math.Mod(math.Floor(r.time*trigger), maxCount)
	}

	st := r.state[n.ID]
	high := r.high(trigger)
	switch {
	case r.high(r.input(n, HandleReset, 0)):
		st.Count = 0
	case high && !st.TriggerHigh:
		st.Count = math.Mod(st.Count+1, maxCount)
	default:
		st.Count = math.Mod(st.Count, maxCount)
	}
	st.TriggerHigh = high
	r.state[n.ID] = st
	return st.Count
}

// mapRange remaps v from [inputMin, inputMax] to [outputMin, outputMax]
// and clamps. A zero-width input range maps everything to outputMin.
func mapRange(n *Node, v float64) float64 {
	p := n.Data.Parameters
	inMin := p.Float("inputMin", 0)
	inMax := p.Float("inputMax", 1)
	outMin := p.Float("outputMin", 0)
	outMax := p.Float("outputMax", defaultOutputMax)

	if inMax == inMin {
		return outMin
	}
	norm := (v - inMin) / (inMax - inMin)
	// Written as a weighted sum so norm 0 and 1 land exactly on the bounds.
	mapped := (1-norm)*outMin + norm*outMax

	lo, hi := outMin, outMax
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(hi, mapped))
}

// draw returns a pseudo-random number in [0, 1) determined by the node id
// and playback time, so a random gate gives the same answer for the same
// inputs.
func draw(nodeID string, t float64) float64 {
	h := fnv.New64a()
	h.Write([]byte(nodeID))
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(t))
	h.Write(buf[:])
	return rand.New(rand.NewSource(int64(h.Sum64()))).Float64()
}
