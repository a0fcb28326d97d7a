package binio

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Reader decodes int32 fields in a fixed Order.
type Reader struct {
	r   *bufio.Reader
	bo  binary.ByteOrder
	buf [4]byte
}

// NewReader wraps r. The order defaults to Native until SetOrder is called.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r), bo: Native.ByteOrder()}
}

// SetOrder fixes the byte order used by Int32.
func (r *Reader) SetOrder(o Order) { r.bo = o.ByteOrder() }

// Raw4 reads four undecoded bytes. It returns io.EOF only when no byte
// could be read and io.ErrUnexpectedEOF on a short read.
func (r *Reader) Raw4() ([4]byte, error) {
	_, err := io.ReadFull(r.r, r.buf[:])
	return r.buf, err
}

// Int32 reads one field in the current order.
func (r *Reader) Int32() (int32, error) {
	if _, err := io.ReadFull(r.r, r.buf[:]); err != nil {
		return 0, err
	}
	return int32(r.bo.Uint32(r.buf[:])), nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) { return r.r.ReadByte() }

// Read implements io.Reader over the buffered stream.
func (r *Reader) Read(p []byte) (int, error) { return r.r.Read(p) }

// Discard skips up to n bytes and reports how many were skipped.
func (r *Reader) Discard(n int) (int, error) { return r.r.Discard(n) }

// Writer encodes int32 fields in a fixed Order. The first error is sticky.
type Writer struct {
	w   io.Writer
	bo  binary.ByteOrder
	buf [4]byte
	err error
}

// NewWriter writes to w in order o.
func NewWriter(w io.Writer, o Order) *Writer {
	return &Writer{w: w, bo: o.ByteOrder()}
}

// NewWriterOrder writes to w in an explicit byte order.
func NewWriterOrder(w io.Writer, bo binary.ByteOrder) *Writer {
	return &Writer{w: w, bo: bo}
}

// Int32 writes one field.
func (w *Writer) Int32(v int32) {
	if w.err != nil {
		return
	}
	w.bo.PutUint32(w.buf[:], uint32(v))
	_, w.err = w.w.Write(w.buf[:])
}

// Bytes writes p unchanged.
func (w *Writer) Bytes(p []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(p)
}

// Err returns the first write error.
func (w *Writer) Err() error { return w.err }

// Peek4 returns the next four bytes without consuming them.
func (r *Reader) Peek4() ([4]byte, error) {
	var b [4]byte
	p, err := r.r.Peek(4)
	copy(b[:], p)
	if err == io.EOF && len(p) > 0 {
		err = io.ErrUnexpectedEOF
	}
	return b, err
}
