package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/ieee0824/tiedhmm-go/outprob"
)

func main() {
	in := flag.String("in", "", "full-precision probability dump")
	out := flag.String("out", "", "8-bit probability dump to write")
	alphabet := flag.Int("alphabet", 256, "codebook size")
	dists := flag.Int("dists", 0, "total number of distributions")
	flag.Parse()
	defer glog.Flush()

	if *in == "" || *out == "" || *dists <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: amdump8 -in PROBS.dmp -out PROBS8.dmp -dists N [-alphabet 256]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := os.Open(*in)
	if err != nil {
		fatal(err)
	}
	t, h, err := outprob.LoadDump(bufio.NewReader(f), *in, *alphabet, *dists)
	f.Close()
	if err != nil {
		fatal(err)
	}
	glog.Infof("%s: %s (%s)", *in, h.Title, h.Dir)

	q := outprob.Quantize8(t)

	w, err := os.Create(*out)
	if err != nil {
		fatal(err)
	}
	bw := bufio.NewWriter(w)
	extra := append(h.Extra, "source "+*in, "build_id "+uuid.New().String())
	if err := outprob.WriteDump8(bw, q, h.Dir, outprob.Dump8Options{}, extra...); err != nil {
		w.Close()
		fatal(err)
	}
	if err := bw.Flush(); err != nil {
		w.Close()
		fatal(err)
	}
	if err := w.Close(); err != nil {
		fatal(err)
	}
	fmt.Printf("wrote %s: %d codewords x %d distributions\n", *out, q.NumAlphabet, q.NumDists)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	glog.Flush()
	os.Exit(1)
}
