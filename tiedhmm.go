// Package tiedhmm loads a semi-continuous acoustic model set: the phone
// table, the senone map, the tied-distribution HMM topologies and the four
// output probability tables, ready for a discrete-observation search.
package tiedhmm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"

	"github.com/ieee0824/tiedhmm-go/amerr"
	"github.com/ieee0824/tiedhmm-go/hmm"
	"github.com/ieee0824/tiedhmm-go/internal/logmath"
	"github.com/ieee0824/tiedhmm-go/outprob"
	"github.com/ieee0824/tiedhmm-go/phone"
	"github.com/ieee0824/tiedhmm-go/senone"
)

// Model is a fully loaded model set. It is read-only after Load.
type Model struct {
	Config  Config
	LogMath *logmath.Math
	Phones  *phone.Table
	Index   *senone.Index
	// HMMs holds one topology per senone sequence, with global
	// distribution indices on every arc.
	HMMs  []hmm.Model
	Probs outprob.Source
}

// Load reads the model set named by cfg after applying opts.
func Load(cfg Config, opts ...Option) (*Model, error) {
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	lm := logmath.Default()
	if cfg.LogBase != lm.Base() {
		lm = logmath.New(cfg.LogBase)
	}

	phones, err := phone.LoadFile(cfg.PhoneFile)
	if err != nil {
		return nil, err
	}
	smap, err := senone.BuildFile(cfg.MapFile, phones, cfg.Compress)
	if err != nil {
		return nil, err
	}
	numSeq, err := smap.NumSequences()
	if err != nil {
		return nil, err
	}

	probs, err := loadProbs(cfg, lm, smap)
	if err != nil {
		return nil, err
	}

	hmms := make([]hmm.Model, numSeq)
	if err := readHMMs(cfg, lm, phones, smap, hmms); err != nil {
		return nil, err
	}
	idx, err := smap.Remap(hmms)
	if err != nil {
		return nil, err
	}

	glog.Infof("loaded %d units, %d senone sequences, %d distributions in %v",
		phones.Count(), numSeq, idx.TotalDists(), time.Since(start))
	return &Model{
		Config:  cfg,
		LogMath: lm,
		Phones:  phones,
		Index:   idx,
		HMMs:    hmms,
		Probs:   probs,
	}, nil
}

func loadProbs(cfg Config, lm *logmath.Math, smap *senone.Map) (outprob.Source, error) {
	total := smap.TotalDists()
	if cfg.SenProbSize == 8 {
		if cfg.DumpFile == "" {
			return nil, amerr.Inconsistent("", "8-bit senone probabilities need a precompiled dump file")
		}
		f, err := os.Open(cfg.DumpFile)
		if err != nil {
			return nil, amerr.IO(cfg.DumpFile, err)
		}
		defer f.Close()
		glog.Infof("loading 8-bit probabilities from dump file %s", cfg.DumpFile)
		t, _, err := outprob.LoadDump8(bufio.NewReader(f), cfg.DumpFile, cfg.NumAlphabet, total, outprob.Dump8Options{})
		if err != nil {
			return nil, err
		}
		return t, nil
	}

	if cfg.DumpFile != "" && cfg.ReuseDump {
		if f, err := os.Open(cfg.DumpFile); err == nil {
			defer f.Close()
			glog.Infof("loading probabilities from dump file %s", cfg.DumpFile)
			t, _, err := outprob.LoadDump(bufio.NewReader(f), cfg.DumpFile, cfg.NumAlphabet, total)
			if err != nil {
				return nil, err
			}
			return t, nil
		}
	}

	oc := outprob.Config{
		Dir:         cfg.DistDir,
		NumAlphabet: cfg.NumAlphabet,
		SmoothMin:   cfg.SmoothMin,
		CIOnly:      cfg.CIDistsOnly,
		DumpFile:    cfg.DumpFile,
		Progress:    cfg.Progress,
	}
	copy(oc.Exts[:], cfg.CodeExts)
	if cfg.CIDistsOnly {
		glog.Info("only using context-independent senones")
	}
	t, err := outprob.NewCompiler(oc, lm, smap).ReadDists()
	if err != nil {
		return nil, err
	}
	return t, nil
}

// readHMMs reads one model file per base unit, named after the unit, and
// stores each entry in the topology of its senone sequence.
func readHMMs(cfg Config, lm *logmath.Math, phones *phone.Table, smap *senone.Map, hmms []hmm.Model) error {
	p := hmm.NewParser(hmm.Config{
		NumAlphabet: cfg.NumAlphabet,
		TransSmooth: cfg.TransSmooth,
		ArcWeight:   cfg.ArcWeight,
		Normalize:   cfg.Normalize,
	}, lm)
	res := hmm.ResolverFunc(func(name string) (int, bool) {
		pid, ok := phones.ID(name)
		if !ok {
			return 0, false
		}
		return smap.SequenceID(pid), true
	})
	for i := 0; i < smap.NumBaseUnits(); i++ {
		path := filepath.Join(cfg.HMMDir, phones.Name(i)+"."+cfg.HMMExt)
		format, err := p.ReadFile(path, hmms, res)
		if err != nil {
			return err
		}
		glog.V(2).Infof("read %s (%v)", path, format)
	}

	missing := 0
	for i := range hmms {
		if !hmms[i].Loaded() {
			missing++
		}
	}
	if missing > 0 {
		glog.Warningf("%d of %d senone sequences have no topology", missing, len(hmms))
	}
	return nil
}

// NumSequences returns the number of senone sequences.
func (m *Model) NumSequences() int { return len(m.HMMs) }

// WriteSSIDList writes one line per senone sequence: its id, then the
// distributions of the self-loop arcs of its five emitting states.
func (m *Model) WriteSSIDList(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := range m.HMMs {
		fmt.Fprintf(bw, "%6d\t", i)
		for j := 0; j < senone.NumDistTypes; j++ {
			fmt.Fprintf(bw, " %5d", m.HMMs[i].Arcs[j*3].Dist)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// WriteSSIDListFile writes the sequence list to path.
func (m *Model) WriteSSIDListFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return amerr.IO(path, err)
	}
	if err := m.WriteSSIDList(f); err != nil {
		f.Close()
		return amerr.IO(path, err)
	}
	if err := f.Close(); err != nil {
		return amerr.IO(path, err)
	}
	return nil
}
