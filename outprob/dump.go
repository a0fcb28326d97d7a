package outprob

import (
	"encoding/binary"
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ieee0824/tiedhmm-go/amerr"
	"github.com/ieee0824/tiedhmm-go/internal/binio"
)

// Title identifies a full-precision probability dump.
const Title = "V6 Senone Probs, Smoothed, Normalized"

const maxHeaderLen = 999

// Header is the descriptive part of a dump file.
type Header struct {
	Title string
	// Dir is the distribution directory the tables were compiled from.
	Dir   string
	Extra []string
}

// dump fields are little-endian regardless of host.
var dumpOrder = binary.LittleEndian

func writeString(w *binio.Writer, s string) {
	w.Int32(int32(len(s) + 1))
	w.Bytes(append([]byte(s), 0))
}

func writeHeader(w *binio.Writer, title, dir string, extra []string, rows, cols int) {
	writeString(w, title)
	writeString(w, dir)
	for _, s := range extra {
		writeString(w, s)
	}
	w.Int32(0)
	w.Int32(int32(rows))
	w.Int32(int32(cols))
}

// WriteDump writes codeword-major tables: the header, the codebook size as
// row count, the distribution count as column count, then the four tables.
func WriteDump(w io.Writer, t *Tables, dir string, extra ...string) error {
	if t.Layout != CodewordMajor {
		return amerr.Inconsistent("", "dump needs codeword-major tables, have %v", t.Layout)
	}
	bw := binio.NewWriterOrder(w, dumpOrder)
	writeHeader(bw, Title, dir, extra, t.NumAlphabet, t.NumDists)
	for k := range t.Streams {
		for _, v := range t.Streams[k] {
			bw.Int32(v)
		}
	}
	if err := bw.Err(); err != nil {
		return amerr.IO("", errors.Wrap(err, "write dump"))
	}
	return nil
}

type dumpReader struct {
	r    *binio.Reader
	name string
}

func newDumpReader(r io.Reader, name string) *dumpReader {
	br := binio.NewReader(r)
	if binio.HostBigEndian() {
		br.SetOrder(binio.Swapped)
	}
	return &dumpReader{r: br, name: name}
}

func (d *dumpReader) readInt32(what string) (int32, error) {
	v, err := d.r.Int32()
	if err != nil {
		return 0, amerr.IO(d.name, errors.Wrapf(err, "read %s", what))
	}
	return v, nil
}

func (d *dumpReader) full(p []byte, what string) error {
	if _, err := io.ReadFull(d.r, p); err != nil {
		return amerr.IO(d.name, errors.Wrapf(err, "read %s", what))
	}
	return nil
}

// readString reads a length-prefixed string. Title and header strings
// (minLen 1) must end in NUL; extra strings may be empty, which ends the
// header, and are taken as they are.
func (d *dumpReader) readString(what string, minLen int32) (string, bool, error) {
	n, err := d.readInt32(what + " length")
	if err != nil {
		return "", false, err
	}
	if n < minLen || n > maxHeaderLen {
		return "", false, amerr.Format(d.name, "%s length %d outside [%d, %d]", what, n, minLen, maxHeaderLen)
	}
	if n == 0 {
		return "", false, nil
	}
	buf := make([]byte, n)
	if err := d.full(buf, what); err != nil {
		return "", false, err
	}
	if buf[n-1] != 0 {
		if minLen == 0 {
			return string(buf), true, nil
		}
		return "", false, amerr.Format(d.name, "%s not NUL-terminated", what)
	}
	return string(buf[:n-1]), true, nil
}

func (d *dumpReader) header(rows, cols int) (Header, error) {
	var h Header
	var err error
	if h.Title, _, err = d.readString("title", 1); err != nil {
		return h, err
	}
	if h.Dir, _, err = d.readString("header", 1); err != nil {
		return h, err
	}
	for {
		s, ok, err := d.readString("extra header", 0)
		if err != nil {
			return h, err
		}
		if !ok {
			break
		}
		h.Extra = append(h.Extra, s)
	}
	r, err := d.readInt32("#codewords")
	if err != nil {
		return h, err
	}
	if int(r) != rows {
		return h, amerr.Format(d.name, "#codewords = %d, expected %d", r, rows)
	}
	c, err := d.readInt32("#distributions")
	if err != nil {
		return h, err
	}
	if int(c) != cols {
		return h, amerr.Format(d.name, "#distributions = %d, expected %d", c, cols)
	}
	return h, nil
}

// LoadDump reads tables written by WriteDump. The codebook size and
// distribution count must match exactly.
func LoadDump(r io.Reader, name string, numAlphabet, numDists int) (*Tables, Header, error) {
	d := newDumpReader(r, name)
	h, err := d.header(numAlphabet, numDists)
	if err != nil {
		return nil, h, err
	}
	glog.V(1).Infof("%s: %s", name, h.Title)
	t := NewTables(numAlphabet, numDists)
	t.Layout = CodewordMajor
	for k := range t.Streams {
		for i := range t.Streams[k] {
			if t.Streams[k][i], err = d.readInt32("probabilities"); err != nil {
				return nil, h, err
			}
		}
	}
	return t, h, nil
}
