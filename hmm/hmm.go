// Package hmm reads tied-distribution HMM topologies.
//
// Every model has NumStates states, a single start state 0, a single final
// state LastState and exactly NumArcs arcs. Each arc carries a fixed-point log
// transition probability and the index of the output distribution scored
// while taking it. Arcs are kept sorted by (From, To); the search indexes
// arcs by that order.
package hmm

import "github.com/ieee0824/tiedhmm-go/internal/logmath"

const (
	// NumStates is the state count of every model, final state included.
	NumStates = 6
	// LastState is the final (non-emitting) state.
	LastState = NumStates - 1
	// NumArcs is the arc count of every model.
	NumArcs = 14
	// MaxNameLen bounds a model name in a big file, terminator included.
	MaxNameLen = 256
)

const (
	// TiedDistMagic starts a single-model file.
	TiedDistMagic int32 = -10
	// BigHMMMagic starts every entry of a big file.
	BigHMMMagic int32 = -100
	// NullTransition marks an arc that emits no observation.
	NullTransition int32 = -1
)

// Arc is a directed transition.
type Arc struct {
	From int32
	To   int32
	Prob int32 // fixed-point log probability
	Dist int32 // output distribution, or NullTransition
}

// key orders arcs lexicographically by (From, To).
func (a Arc) key() int32 { return a.From<<16 | a.To }

// Model is the topology of one senone sequence.
type Model struct {
	Arcs [NumArcs]Arc
	// Source names the model entry this topology was read from; empty
	// until the model has been loaded.
	Source string
}

// Loaded reports whether a model file has filled m.
func (m *Model) Loaded() bool { return m.Source != "" }

// topology is a bitmask of the (from, to) pairs that have an arc.
// It only lives while a model is parsed or normalized.
type topology uint64

func bit(from, to int32) topology { return 1 << uint(from*NumStates+to) }

func (t topology) has(from, to int32) bool { return t&bit(from, to) != 0 }

func topologyOf(m *Model) topology {
	var t topology
	for _, a := range m.Arcs {
		t |= bit(a.From, a.To)
	}
	return t
}

// Bakis returns the arcs of the standard left-to-right topology: every
// emitting state s loops, steps to s+1 and skips to s+2, and the arcs
// leaving state s score distribution s. Probabilities are uniform per state.
func Bakis(lm *logmath.Math) []Arc {
	arcs := make([]Arc, 0, NumArcs)
	for s := int32(0); s < LastState; s++ {
		var to []int32
		for d := int32(0); d <= 2 && s+d <= LastState; d++ {
			to = append(to, s+d)
		}
		p := lm.Log(1 / float64(len(to)))
		for _, t := range to {
			arcs = append(arcs, Arc{From: s, To: t, Prob: p, Dist: s})
		}
	}
	return arcs
}
