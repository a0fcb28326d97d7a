// Package senone builds the distribution map of an acoustic model: which
// global output distribution each state of each phonetic unit scores, and
// which units share the same sequence of distributions.
package senone

import (
	"github.com/ieee0824/tiedhmm-go/amerr"
	"github.com/ieee0824/tiedhmm-go/phone"
)

// NumDistTypes is the number of distribution slots per unit.
const NumDistTypes = 5

// Vector holds the global distribution index of each slot of a unit.
type Vector [NumDistTypes]int32

// Phones is the unit table the map is built against.
type Phones interface {
	Count() int
	CICount() int
	WDCount() int
	Type(id int) phone.Type
	Base(id int) int
	Len(id int) int
	Name(id int) string
	ID(name string) (int, bool)
}

// Map is the distribution map. It is built once by Build and consumed by
// Remap; after Remap only the Index it returned may be used.
type Map struct {
	file       string
	phones     Phones
	numDists   []int // per base unit
	numDPDists []int // per base unit, synthesized diphone distributions
	totalDists int
	ssid       []int    // unit id -> sequence id
	vectors    []Vector // sequence id -> distributions; nil once consumed
}

func (m *Map) consumed() error {
	if m.vectors == nil {
		return amerr.Inconsistent(m.file, "distribution map already consumed by Remap")
	}
	return nil
}

// Phones returns the unit table the map was built against.
func (m *Map) Phones() Phones { return m.phones }

// NumBaseUnits returns the number of units that own a distribution block.
func (m *Map) NumBaseUnits() int { return len(m.numDists) }

// NumDists returns the number of distributions owned by base unit base,
// synthesized diphone distributions included.
func (m *Map) NumDists(base int) int { return m.numDists[base] }

// NumDiphoneDists returns how many of base's distributions are synthesized
// from context-dependent units rather than read from files.
func (m *Map) NumDiphoneDists(base int) int { return m.numDPDists[base] }

// TotalDists returns the size of the global distribution index space.
func (m *Map) TotalDists() int { return m.totalDists }

// NumSequences returns the number of distinct senone sequences.
func (m *Map) NumSequences() (int, error) {
	if err := m.consumed(); err != nil {
		return 0, err
	}
	if len(m.vectors) == 0 {
		return 0, amerr.Inconsistent(m.file, "number of senone sequences is 0")
	}
	return len(m.vectors), nil
}

// SequenceID returns the senone sequence of unit pid.
func (m *Map) SequenceID(pid int) int { return m.ssid[pid] }

// Vector returns the distributions of unit pid.
func (m *Map) Vector(pid int) (Vector, error) {
	if err := m.consumed(); err != nil {
		return Vector{}, err
	}
	return m.vectors[m.ssid[pid]], nil
}

// SequenceVector returns the distributions of senone sequence id.
func (m *Map) SequenceVector(id int) (Vector, error) {
	if err := m.consumed(); err != nil {
		return Vector{}, err
	}
	if id < 0 || id >= len(m.vectors) {
		return Vector{}, amerr.Range(m.file, "senone sequence", int64(id), int64(len(m.vectors)))
	}
	return m.vectors[id], nil
}
