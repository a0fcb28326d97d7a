package outprob

import (
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/ieee0824/tiedhmm-go/amerr"
	"github.com/ieee0824/tiedhmm-go/internal/binio"
	"github.com/ieee0824/tiedhmm-go/internal/logmath"
	"github.com/ieee0824/tiedhmm-go/senone"
)

// DefaultExts are the distribution file extensions, one per stream.
var DefaultExts = [NumStreams]string{"ccode", "d2code", "p3code", "xcode"}

// DistMap is the view of a senone map the compiler needs.
type DistMap interface {
	Phones() senone.Phones
	NumBaseUnits() int
	NumDists(base int) int
	NumDiphoneDists(base int) int
	TotalDists() int
	Vector(pid int) (senone.Vector, error)
}

// Config controls table compilation.
type Config struct {
	Dir         string
	Exts        [NumStreams]string
	NumAlphabet int
	// SmoothMin is the linear floor applied to every normalized entry.
	SmoothMin float64
	// CIOnly loads only the trailing context-independent block of each file.
	CIOnly bool
	// DumpFile, if set, receives the compiled tables.
	DumpFile string
	// Progress is called after each base unit's files are read.
	Progress func(done, total int)
}

// DefaultConfig returns the usual codebook settings.
func DefaultConfig() Config {
	return Config{
		Exts:        DefaultExts,
		NumAlphabet: 256,
		SmoothMin:   1e-5,
	}
}

// Compiler assembles output probability tables from per-unit files.
type Compiler struct {
	cfg Config
	lm  *logmath.Math
	m   DistMap
}

// NewCompiler returns a compiler over the distribution space of m.
func NewCompiler(cfg Config, lm *logmath.Math, m DistMap) *Compiler {
	return &Compiler{cfg: cfg, lm: lm, m: m}
}

// ReadDists builds the full tables: it reads every base unit's files,
// synthesizes diphone distributions, normalizes and floors each
// distribution, transposes to codeword-major and dumps if configured.
func (c *Compiler) ReadDists() (*Tables, error) {
	start := time.Now()
	t, err := c.readRaw(true)
	if err != nil {
		return nil, err
	}
	if err := c.synthesizeDiphones(t); err != nil {
		return nil, err
	}
	Normalize(c.lm, t, c.cfg.SmoothMin)
	t.Transpose()
	glog.Infof("compiled %d distributions x %d codewords in %v", t.NumDists, t.NumAlphabet, time.Since(start))

	if c.cfg.DumpFile != "" {
		if err := c.dump(t); err != nil {
			glog.Warningf("can't dump probabilities: %v", err)
		}
	}
	return t, nil
}

// ReadDistsOnly reads the distribution files as they are: no diphone
// synthesis, no normalization, dist-major layout. Each file must cover
// every distribution of its base unit, including diphone blocks.
func (c *Compiler) ReadDistsOnly() (*Tables, error) {
	return c.readRaw(false)
}

func (c *Compiler) readRaw(excludeDiphones bool) (*Tables, error) {
	alpha := c.cfg.NumAlphabet
	t := NewTables(alpha, c.m.TotalDists())
	phones := c.m.Phones()
	nBase := c.m.NumBaseUnits()
	tail := senone.NumDistTypes * alpha

	offset := 0
	for i := 0; i < nBase; i++ {
		n := c.m.NumDists(i)
		if excludeDiphones {
			n -= c.m.NumDiphoneDists(i)
		}
		expected := n * alpha
		for k, ext := range c.cfg.Exts {
			path := filepath.Join(c.cfg.Dir, phones.Name(i)+"."+ext)
			vals, err := binio.ReadInt32s(path)
			if err != nil {
				return nil, err
			}
			src := vals
			switch {
			case c.cfg.CIOnly:
				if len(vals) < tail || expected > tail {
					return nil, amerr.Format(path, "length trouble (%d expected, read %d, CI block %d)", expected, len(vals), tail)
				}
				src = vals[len(vals)-tail:]
			case len(vals) != expected:
				return nil, amerr.Format(path, "length trouble (%d expected, read %d)", expected, len(vals))
			}
			copy(t.Streams[k][offset*alpha:], src[:expected])
		}
		if glog.V(2) {
			glog.Infof("read %d distributions of %s", n, phones.Name(i))
		}
		offset += c.m.NumDists(i)
		if c.cfg.Progress != nil {
			c.cfg.Progress(i+1, nBase)
		}
	}
	return t, nil
}

func (c *Compiler) dump(t *Tables) error {
	f, err := os.Create(c.cfg.DumpFile)
	if err != nil {
		return amerr.IO(c.cfg.DumpFile, err)
	}
	if err := WriteDump(f, t, c.cfg.Dir, "build_id "+uuid.New().String()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return amerr.IO(c.cfg.DumpFile, err)
	}
	glog.Infof("dumped probabilities to %s", c.cfg.DumpFile)
	return nil
}
