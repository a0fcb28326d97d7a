package binio

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/ieee0824/tiedhmm-go/amerr"
)

// ReadInt32s loads an int file: a big-endian int32 element count followed
// by that many big-endian int32 values.
func ReadInt32s(path string) ([]int32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, amerr.IO(path, err)
	}
	defer f.Close()
	return readInt32s(f, path)
}

func readInt32s(r io.Reader, path string) ([]int32, error) {
	var n int32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, amerr.IO(path, errors.Wrap(err, "can't read length (empty file?)"))
	}
	if n < 0 {
		return nil, amerr.Format(path, "negative length %d", n)
	}
	raw := make([]byte, 4*int(n))
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, amerr.IO(path, errors.Wrap(err, "can't read data"))
	}
	vals := make([]int32, n)
	for i := range vals {
		vals[i] = int32(binary.BigEndian.Uint32(raw[4*i:]))
	}
	return vals, nil
}

// WriteInt32s writes vals in the ReadInt32s format.
func WriteInt32s(path string, vals []int32) error {
	f, err := os.Create(path)
	if err != nil {
		return amerr.IO(path, err)
	}
	w := NewWriterOrder(f, binary.BigEndian)
	w.Int32(int32(len(vals)))
	for _, v := range vals {
		w.Int32(v)
	}
	if err := w.Err(); err != nil {
		f.Close()
		return amerr.IO(path, err)
	}
	if err := f.Close(); err != nil {
		return amerr.IO(path, err)
	}
	return nil
}
