package senone

import (
	"github.com/ieee0824/tiedhmm-go/amerr"
	"github.com/ieee0824/tiedhmm-go/hmm"
)

// Index is what remains of a Map after Remap: the unit to sequence mapping
// and the per-base-unit distribution counts.
type Index struct {
	ssid       []int
	numSeq     int
	numDists   []int
	totalDists int
	owner      []int // global distribution -> base unit
}

// Remap rewrites the model-local distribution numbers of every arc into
// global distribution indices, using the vector of the arc's senone
// sequence. models must hold one entry per sequence. The map's vectors are
// released; any later use of them returns an InconsistentModel error.
func (m *Map) Remap(models []hmm.Model) (*Index, error) {
	if err := m.consumed(); err != nil {
		return nil, err
	}
	if len(models) != len(m.vectors) {
		return nil, amerr.Inconsistent(m.file, "%d models for %d senone sequences", len(models), len(m.vectors))
	}
	for i := range models {
		for j := range models[i].Arcs {
			a := &models[i].Arcs[j]
			if a.Dist == hmm.NullTransition {
				continue
			}
			if a.Dist < 0 || a.Dist >= NumDistTypes {
				return nil, amerr.Range(models[i].Source, "local distribution", int64(a.Dist), NumDistTypes)
			}
			a.Dist = m.vectors[i][a.Dist]
		}
	}

	idx := &Index{
		ssid:       m.ssid,
		numSeq:     len(m.vectors),
		numDists:   m.numDists,
		totalDists: m.totalDists,
		owner:      make([]int, 0, m.totalDists),
	}
	for p, n := range m.numDists {
		for k := 0; k < n; k++ {
			idx.owner = append(idx.owner, p)
		}
	}
	m.vectors = nil
	return idx, nil
}

// NumSequences returns the number of senone sequences.
func (x *Index) NumSequences() int { return x.numSeq }

// SequenceID returns the senone sequence of unit pid.
func (x *Index) SequenceID(pid int) int { return x.ssid[pid] }

// NumDists returns the number of distributions owned by base unit base.
func (x *Index) NumDists(base int) int { return x.numDists[base] }

// TotalDists returns the size of the global distribution index space.
func (x *Index) TotalDists() int { return x.totalDists }

// SenoneBase returns the base unit owning global distribution senone.
func (x *Index) SenoneBase(senone int) (int, error) {
	if senone < 0 || senone >= x.totalDists {
		return 0, amerr.Range("", "senone", int64(senone), int64(x.totalDists))
	}
	return x.owner[senone], nil
}
