package hmm

import (
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/ieee0824/tiedhmm-go/amerr"
	"github.com/ieee0824/tiedhmm-go/internal/binio"
	"github.com/ieee0824/tiedhmm-go/internal/logmath"
)

// Config holds the parsing and smoothing parameters.
type Config struct {
	NumAlphabet int     // codebook size every model must declare
	TransSmooth float64 // transition floor in the linear domain
	ArcWeight   float64 // scales normalized transition log probabilities
	Normalize   bool    // normalize and floor transitions after reading
}

// DefaultConfig returns the usual parameters for a 256-codeword model.
func DefaultConfig() Config {
	return Config{
		NumAlphabet: 256,
		TransSmooth: 1e-4,
		ArcWeight:   1.0,
		Normalize:   true,
	}
}

// Parser reads models with a fixed Config.
type Parser struct {
	cfg Config
	lm  *logmath.Math
}

// NewParser creates a parser. A nil lm selects logmath.Default.
func NewParser(cfg Config, lm *logmath.Math) *Parser {
	if lm == nil {
		lm = logmath.Default()
	}
	return &Parser{cfg: cfg, lm: lm}
}

// parse reads one model body, everything after the magic number:
//
//	numAlphabet, numOMatrix, numStates,
//	numInitial, initial[numInitial],
//	numFinal, final[numFinal],
//	numArcs, {from, to, prob, dist}[numArcs]
//
// all int32 in the byte order already set on r.
func (p *Parser) parse(r *binio.Reader, m *Model, name string) error {
	read := func(field string) (int32, error) {
		v, err := r.Int32()
		if err != nil {
			return 0, amerr.IO(name, errors.Wrapf(err, "read %s", field))
		}
		return v, nil
	}

	numAlphabet, err := read("alphabet size")
	if err != nil {
		return err
	}
	if int(numAlphabet) != p.cfg.NumAlphabet {
		return amerr.Format(name, "VQ size = %d, expected %d", numAlphabet, p.cfg.NumAlphabet)
	}
	numOMatrix, err := read("output matrix count")
	if err != nil {
		return err
	}
	if numOMatrix < 0 {
		return amerr.Format(name, "negative output matrix count %d", numOMatrix)
	}
	stateCnt, err := read("state count")
	if err != nil {
		return err
	}
	if stateCnt != NumStates {
		return amerr.Format(name, "unexpected state count = %d, want %d", stateCnt, NumStates)
	}

	numInitial, err := read("initial state count")
	if err != nil {
		return err
	}
	if numInitial != 1 {
		return amerr.Format(name, "unexpected num. initial states = %d", numInitial)
	}
	state, err := read("initial state")
	if err != nil {
		return err
	}
	if state != 0 {
		return amerr.Format(name, "unexpected initial state = %d", state)
	}

	numFinal, err := read("final state count")
	if err != nil {
		return err
	}
	if numFinal != 1 {
		return amerr.Format(name, "unexpected num. final states = %d", numFinal)
	}
	state, err = read("final state")
	if err != nil {
		return err
	}
	if state != LastState {
		return amerr.Format(name, "unexpected final state = %d", state)
	}

	numArcs, err := read("arc count")
	if err != nil {
		return err
	}
	if numArcs != NumArcs {
		return amerr.Format(name, "unexpected number of arcs = %d, want %d", numArcs, NumArcs)
	}

	var topo topology
	arcs := make([]Arc, numArcs)
	for i := range arcs {
		var f [4]int32
		for j, field := range [...]string{"arc from", "arc to", "arc prob", "arc dist"} {
			if f[j], err = read(field); err != nil {
				return err
			}
		}
		a := Arc{From: f[0], To: f[1], Prob: f[2], Dist: f[3]}
		if a.Dist >= numOMatrix || (a.Dist < 0 && a.Dist != NullTransition) {
			return amerr.Format(name, "illegal out_prob_index = %d, arc %d", a.Dist, i)
		}
		if a.From < 0 || a.From >= stateCnt || a.To < 0 || a.To >= stateCnt {
			return amerr.Format(name, "illegal arc(%d) from(%d)->to(%d)", i, a.From, a.To)
		}
		if topo.has(a.From, a.To) {
			return amerr.Format(name, "duplicate arc(%d) from(%d)->to(%d)", i, a.From, a.To)
		}
		topo |= bit(a.From, a.To)
		arcs[i] = a
	}

	sort.SliceStable(arcs, func(i, j int) bool { return arcs[i].key() < arcs[j].key() })
	copy(m.Arcs[:], arcs)
	m.Source = name

	if p.cfg.Normalize {
		if err := p.arcNormalize(m, topo); err != nil {
			return errors.Wrapf(err, "problem with trans probs in %s", name)
		}
	}
	return nil
}

// Normalize applies the transition smoothing to an already loaded model.
func (p *Parser) Normalize(m *Model) error {
	return p.arcNormalize(m, topologyOf(m))
}

// arcNormalize normalizes outgoing transitions per state, floors them at
// log(TransSmooth) and normalizes again. Any result above 0 or below
// MinLog makes the model unusable.
func (p *Parser) arcNormalize(m *Model, topo topology) error {
	floor := p.lm.Log(p.cfg.TransSmooth)

	p.normalizeTrans(m, topo)
	for i := range m.Arcs {
		if m.Arcs[i].Prob < floor {
			m.Arcs[i].Prob = floor
		}
	}
	p.normalizeTrans(m, topo)

	for i, a := range m.Arcs {
		if a.Prob > 0 || a.Prob < logmath.MinLog {
			return amerr.Inconsistent(m.Source, "arc %d (%d->%d) has log prob %d", i, a.From, a.To, a.Prob)
		}
	}
	return nil
}

// normalizeTrans walks states in order; arcs are sorted by (from, to) so the
// arcs of state fs are consecutive and in topology order.
func (p *Parser) normalizeTrans(m *Model, topo topology) {
	arc := 0
	for fs := int32(0); fs < NumStates; fs++ {
		denom := logmath.MinLog
		start := arc
		for ts := int32(0); ts < NumStates; ts++ {
			if topo.has(fs, ts) {
				denom = p.lm.Add(denom, m.Arcs[arc].Prob)
				arc++
			}
		}
		arc = start
		for ts := int32(0); ts < NumStates; ts++ {
			if !topo.has(fs, ts) {
				continue
			}
			tp := &m.Arcs[arc].Prob
			if *tp <= logmath.MinLog {
				*tp = logmath.MinLog
			} else {
				*tp = logmath.Clamp(int64((float64(*tp) - float64(denom)) * p.cfg.ArcWeight))
			}
			arc++
		}
	}
}

// checkEOF accepts fewer than two trailing int32 words after a single model.
func checkEOF(r *binio.Reader, name string) error {
	n, err := r.Discard(8)
	if err != nil && err != io.EOF {
		return amerr.IO(name, err)
	}
	if n >= 8 {
		return amerr.Format(name, "EOF not encountered")
	}
	return nil
}
