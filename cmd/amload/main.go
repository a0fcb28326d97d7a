package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/schollz/progressbar"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	tiedhmm "github.com/ieee0824/tiedhmm-go"
	"github.com/ieee0824/tiedhmm-go/outprob"
)

func main() {
	configPath := flag.String("config", "", "YAML model configuration (flags override it)")
	phones := flag.String("phones", "", "phone table file")
	mapFile := flag.String("map", "", "senone map file")
	hmmDir := flag.String("hmmdir", "", "directory of per-unit HMM files")
	hmmExt := flag.String("hmmext", "", "HMM file extension")
	distDir := flag.String("distdir", "", "directory of per-unit distribution files")
	alphabet := flag.Int("alphabet", 0, "codebook size")
	compress := flag.Bool("compress", true, "share identical senone sequences")
	ciOnly := flag.Bool("cionly", false, "use context-independent distributions only")
	dump := flag.String("dump", "", "probability dump file")
	reuse := flag.Bool("reuse", false, "load the dump file instead of compiling when it exists")
	senprob := flag.Int("senprob", 0, "senone probability size, 32 or 8")
	ssidList := flag.String("ssid", "ssid_list.txt", "senone sequence list output (empty to skip)")
	showProgress := flag.Bool("progress", true, "show a progress bar while reading distributions")
	flag.Parse()
	defer glog.Flush()

	cfg := tiedhmm.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = tiedhmm.LoadConfig(*configPath); err != nil {
			fatal(err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "phones":
			cfg.PhoneFile = *phones
		case "map":
			cfg.MapFile = *mapFile
		case "hmmdir":
			cfg.HMMDir = *hmmDir
		case "hmmext":
			cfg.HMMExt = *hmmExt
		case "distdir":
			cfg.DistDir = *distDir
		case "alphabet":
			cfg.NumAlphabet = *alphabet
		case "compress":
			cfg.Compress = *compress
		case "cionly":
			cfg.CIDistsOnly = *ciOnly
		case "dump":
			cfg.DumpFile = *dump
		case "reuse":
			cfg.ReuseDump = *reuse
		case "senprob":
			cfg.SenProbSize = *senprob
		}
	})
	if cfg.PhoneFile == "" || cfg.MapFile == "" || cfg.HMMDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: amload [-config AM.yaml] -phones PHONES -map MAP -hmmdir DIR -distdir DIR")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var opts []tiedhmm.Option
	if *showProgress {
		var bar *progressbar.ProgressBar
		opts = append(opts, tiedhmm.WithProgress(func(done, total int) {
			if bar == nil {
				bar = progressbar.New(total)
			}
			bar.Add(1)
			if done == total {
				fmt.Fprintln(os.Stderr)
			}
		}))
	}

	m, err := tiedhmm.Load(cfg, opts...)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("units:            %d (%d ci, %d word)\n", m.Phones.Count(), m.Phones.CICount(), m.Phones.WDCount())
	fmt.Printf("senone sequences: %d\n", m.NumSequences())
	fmt.Printf("distributions:    %d x %d codewords\n", m.Probs.Dists(), m.Probs.Alphabet())
	printStreamStats(m)

	if *ssidList != "" {
		if err := m.WriteSSIDListFile(*ssidList); err != nil {
			fatal(err)
		}
		glog.Infof("wrote %s", *ssidList)
	}
}

func printStreamStats(m *tiedhmm.Model) {
	p := m.Probs
	vals := make([]float64, 0, p.Dists()*p.Alphabet())
	for k := 0; k < outprob.NumStreams; k++ {
		vals = vals[:0]
		for cw := 0; cw < p.Alphabet(); cw++ {
			for d := 0; d < p.Dists(); d++ {
				vals = append(vals, m.LogMath.Ln(p.Prob(k, d, cw)))
			}
		}
		mean, std := stat.MeanStdDev(vals, nil)
		fmt.Printf("stream %d: ln prob min %.3f max %.3f mean %.3f std %.3f\n",
			k, floats.Min(vals), floats.Max(vals), mean, std)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	glog.Flush()
	os.Exit(1)
}
