package tiedhmm

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ieee0824/tiedhmm-go/amerr"
	"github.com/ieee0824/tiedhmm-go/hmm"
	"github.com/ieee0824/tiedhmm-go/internal/logmath"
	"github.com/ieee0824/tiedhmm-go/outprob"
)

// Config names the model files and the smoothing parameters.
type Config struct {
	PhoneFile string   `yaml:"phone_file"`
	MapFile   string   `yaml:"map_file"`
	HMMDir    string   `yaml:"hmm_dir"`
	HMMExt    string   `yaml:"hmm_ext"`
	DistDir   string   `yaml:"dist_dir"`
	CodeExts  []string `yaml:"code_exts"` // one per feature stream

	NumAlphabet int     `yaml:"num_alphabet"`
	TransSmooth float64 `yaml:"trans_smooth"`
	ArcWeight   float64 `yaml:"arc_weight"`
	Normalize   bool    `yaml:"normalize"`
	SmoothMin   float64 `yaml:"smooth_min"`
	LogBase     float64 `yaml:"log_base"`

	CIDistsOnly bool   `yaml:"ci_dists_only"`
	Compress    bool   `yaml:"compress"`
	DumpFile    string `yaml:"dump_file"`
	// ReuseDump loads DumpFile instead of compiling when it exists.
	ReuseDump   bool `yaml:"reuse_dump"`
	SenProbSize int  `yaml:"senprob_size"` // 32 or 8

	// Progress is called after each base unit's distribution files are read.
	Progress func(done, total int) `yaml:"-"`
}

// DefaultConfig returns the usual semi-continuous model settings.
func DefaultConfig() Config {
	hc := hmm.DefaultConfig()
	oc := outprob.DefaultConfig()
	return Config{
		HMMExt:      "chmm",
		CodeExts:    append([]string(nil), oc.Exts[:]...),
		NumAlphabet: hc.NumAlphabet,
		TransSmooth: hc.TransSmooth,
		ArcWeight:   hc.ArcWeight,
		Normalize:   hc.Normalize,
		SmoothMin:   oc.SmoothMin,
		LogBase:     logmath.DefaultBase,
		Compress:    true,
		SenProbSize: 32,
	}
}

// LoadConfig reads a YAML file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, amerr.IO(path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, amerr.Format(path, "%v", errors.Wrap(err, "parse config"))
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch {
	case len(c.CodeExts) != outprob.NumStreams:
		return amerr.Format("", "%d code extensions, want %d", len(c.CodeExts), outprob.NumStreams)
	case c.ArcWeight <= 0:
		return amerr.Format("", "arc weight %g, want > 0", c.ArcWeight)
	case c.NumAlphabet <= 0:
		return amerr.Format("", "alphabet size %d", c.NumAlphabet)
	case c.SenProbSize != 32 && c.SenProbSize != 8:
		return amerr.Format("", "senone probability size %d, want 32 or 8", c.SenProbSize)
	case c.LogBase <= 1:
		return amerr.Format("", "log base %g", c.LogBase)
	}
	return nil
}

// Option adjusts a Config before loading.
type Option func(*Config)

// WithCompress enables or disables senone sequence deduplication.
func WithCompress(enabled bool) Option {
	return func(c *Config) {
		c.Compress = enabled
	}
}

// WithCIDistsOnly loads only the context-independent block of each
// distribution file.
func WithCIDistsOnly(enabled bool) Option {
	return func(c *Config) {
		c.CIDistsOnly = enabled
	}
}

// WithDumpFile sets the probability dump. With reuse set an existing dump
// is loaded instead of compiling the distribution files.
func WithDumpFile(path string, reuse bool) Option {
	return func(c *Config) {
		c.DumpFile = path
		c.ReuseDump = reuse
	}
}

// WithSenProbSize selects 32-bit or clustered 8-bit output probabilities.
func WithSenProbSize(bits int) Option {
	return func(c *Config) {
		c.SenProbSize = bits
	}
}

// WithProgress sets the distribution file progress callback.
func WithProgress(fn func(done, total int)) Option {
	return func(c *Config) {
		c.Progress = fn
	}
}

// WithNormalize enables or disables transition normalization.
func WithNormalize(enabled bool) Option {
	return func(c *Config) {
		c.Normalize = enabled
	}
}
