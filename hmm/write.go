package hmm

import (
	"io"

	"github.com/ieee0824/tiedhmm-go/internal/binio"
)

// Entry is one model as laid out on disk. Arcs are written in the given
// order, which need not be sorted.
type Entry struct {
	Name        string
	NumAlphabet int32
	NumOMatrix  int32
	Arcs        []Arc
}

func writeBody(w *binio.Writer, e Entry) {
	w.Int32(e.NumAlphabet)
	w.Int32(e.NumOMatrix)
	w.Int32(NumStates)
	w.Int32(1)
	w.Int32(0)
	w.Int32(1)
	w.Int32(LastState)
	w.Int32(int32(len(e.Arcs)))
	for _, a := range e.Arcs {
		w.Int32(a.From)
		w.Int32(a.To)
		w.Int32(a.Prob)
		w.Int32(a.Dist)
	}
}

// WriteSingle writes e as a single-model file in byte order o.
func WriteSingle(w io.Writer, o binio.Order, e Entry) error {
	bw := binio.NewWriter(w, o)
	bw.Int32(TiedDistMagic)
	writeBody(bw, e)
	return bw.Err()
}

// WriteBig writes entries as a big file in byte order o.
func WriteBig(w io.Writer, o binio.Order, entries []Entry) error {
	bw := binio.NewWriter(w, o)
	for _, e := range entries {
		bw.Int32(BigHMMMagic)
		bw.Bytes(append([]byte(e.Name), 0))
		writeBody(bw, e)
	}
	return bw.Err()
}
