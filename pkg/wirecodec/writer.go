// Package wirecodec implements the binary encoding every wire value in the
// chat protocol is built from: fixed-width integers, big-endian, with
// variable-length byte strings and text prefixed by a 64-bit length. Decoding
// tolerates trailing bytes after the last field a type reads, so a sender
// running a newer, appended-field version of a message does not break an
// older reader mid-stream.
package wirecodec

import "encoding/binary"

// Writer accumulates an encoded value. The zero value is ready to use.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the encoded bytes accumulated so far.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

func (w *Writer) WriteUint16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) WriteUint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v))
}

// WriteBytes writes a u64 big-endian length prefix followed by b.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteUint64(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteString writes a string with the same framing as WriteBytes.
func (w *Writer) WriteString(s string) {
	w.WriteBytes([]byte(s))
}

// WriteFixed writes b verbatim, with no length prefix. Use for fields whose
// length is implied by the wire format (public keys, MACs, salts).
func (w *Writer) WriteFixed(b []byte) {
	w.buf = append(w.buf, b...)
}
