package outprob

import (
	"encoding/binary"
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ieee0824/tiedhmm-go/amerr"
	"github.com/ieee0824/tiedhmm-go/internal/binio"
)

// Title8 identifies a clustered 8-bit probability dump.
const Title8 = "V6 Senone Probs, Smoothed, Normalized, Clustered 8 bits"

// NumClusters is the number of distinct values per codeword in an 8-bit table.
const NumClusters = 256

// Stream8 is one clustered stream. Prob[cw] holds the cluster values of
// codeword cw and ID[cw][dist] selects the cluster of each distribution.
type Stream8 struct {
	Prob [][NumClusters]int32
	ID   [][]uint8
}

// Tables8 holds the four clustered streams.
type Tables8 struct {
	NumAlphabet int
	NumDists    int
	Streams     [NumStreams]Stream8
}

func newTables8(numAlphabet, numDists int) *Tables8 {
	t := &Tables8{NumAlphabet: numAlphabet, NumDists: numDists}
	for k := range t.Streams {
		s := &t.Streams[k]
		s.Prob = make([][NumClusters]int32, numAlphabet)
		s.ID = make([][]uint8, numAlphabet)
		for cw := range s.ID {
			s.ID[cw] = make([]uint8, numDists)
		}
	}
	return t
}

// Alphabet returns the codebook size.
func (t *Tables8) Alphabet() int { return t.NumAlphabet }

// Dists returns the number of distributions.
func (t *Tables8) Dists() int { return t.NumDists }

// Prob implements Source.
func (t *Tables8) Prob(k, dist, cw int) int32 {
	s := &t.Streams[k]
	return s.Prob[cw][s.ID[cw][dist]]
}

// Dump8Options controls the cluster value encoding of an 8-bit dump.
// Header fields are always little-endian.
type Dump8Options struct {
	// ProbOrder is the byte order of cluster values. Nil means little-endian.
	ProbOrder binary.ByteOrder
}

func (o Dump8Options) probOrder() binary.ByteOrder {
	if o.ProbOrder == nil {
		return binary.LittleEndian
	}
	return o.ProbOrder
}

// WriteDump8 writes clustered tables: the dump header, then for each stream
// and codeword the cluster values followed by one id byte per distribution.
func WriteDump8(w io.Writer, t *Tables8, dir string, opt Dump8Options, extra ...string) error {
	hw := binio.NewWriterOrder(w, dumpOrder)
	writeHeader(hw, Title8, dir, extra, t.NumAlphabet, t.NumDists)
	if err := hw.Err(); err != nil {
		return amerr.IO("", errors.Wrap(err, "write 8-bit dump header"))
	}
	pw := binio.NewWriterOrder(w, opt.probOrder())
	for k := range t.Streams {
		s := &t.Streams[k]
		for cw := 0; cw < t.NumAlphabet; cw++ {
			for _, v := range s.Prob[cw] {
				pw.Int32(v)
			}
			pw.Bytes(s.ID[cw])
		}
	}
	if err := pw.Err(); err != nil {
		return amerr.IO("", errors.Wrap(err, "write 8-bit dump"))
	}
	return nil
}

// LoadDump8 reads tables written by WriteDump8. The codebook size and
// distribution count must match exactly.
func LoadDump8(r io.Reader, name string, numAlphabet, numDists int, opt Dump8Options) (*Tables8, Header, error) {
	d := newDumpReader(r, name)
	h, err := d.header(numAlphabet, numDists)
	if err != nil {
		return nil, h, err
	}
	glog.V(1).Infof("%s: %s", name, h.Title)

	bo := opt.probOrder()
	buf := make([]byte, 4*NumClusters)
	t := newTables8(numAlphabet, numDists)
	for k := range t.Streams {
		s := &t.Streams[k]
		for cw := 0; cw < numAlphabet; cw++ {
			if err := d.full(buf, "cluster values"); err != nil {
				return nil, h, err
			}
			for j := range s.Prob[cw] {
				s.Prob[cw][j] = int32(bo.Uint32(buf[4*j:]))
			}
			if err := d.full(s.ID[cw], "cluster ids"); err != nil {
				return nil, h, err
			}
		}
	}
	return t, h, nil
}
