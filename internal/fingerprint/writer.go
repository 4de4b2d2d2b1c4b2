package fingerprint

import (
	"encoding/binary"
	"strings"

	"shapekey/internal/ident"
)

const inlineSize = 40

// Writer accumulates fingerprint bytes. Short fingerprints stay in an inline
// buffer; longer ones spill to the heap. A Writer must not be copied after
// Reset.
type Writer struct {
	buf    []byte
	inline [inlineSize]byte
	limit  int
}

// Reset prepares w for a new fingerprint. A positive limit caps the encoded
// size; exceeding it fails with ErrOutOfMemory.
func (w *Writer) Reset(limit int) {
	w.buf = w.inline[:0]
	w.limit = limit
}

// Bytes returns the encoded bytes. The slice is only valid until the next
// Reset or write.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

// Fingerprint returns an owned copy of the encoded bytes.
func (w *Writer) Fingerprint() Fingerprint { return Fingerprint(w.buf) }

func (w *Writer) ensure(n int) error {
	if w.buf == nil {
		w.buf = w.inline[:0]
	}
	need := len(w.buf) + n
	if w.limit > 0 && need > w.limit {
		return ErrOutOfMemory
	}
	if need <= cap(w.buf) {
		return nil
	}
	size := cap(w.buf)<<2 + 1
	if size < need {
		size = need
	}
	if w.limit > 0 && size > w.limit {
		size = w.limit
	}
	grown := make([]byte, len(w.buf), size)
	copy(grown, w.buf)
	w.buf = grown
	return nil
}

// PutByte appends a single byte.
func (w *Writer) PutByte(c byte) error {
	if err := w.ensure(1); err != nil {
		return err
	}
	w.buf = append(w.buf, c)
	return nil
}

// PutInt32 appends v as four little-endian bytes.
func (w *Writer) PutInt32(v int32) error {
	if err := w.ensure(4); err != nil {
		return err
	}
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
	return nil
}

// PutHandle appends an identity handle as eight little-endian bytes.
func (w *Writer) PutHandle(h ident.Handle) error {
	if err := w.ensure(8); err != nil {
		return err
	}
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(h))
	return nil
}

// PutString appends s followed by a NUL terminator. s must not contain NUL.
func (w *Writer) PutString(s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return ErrUnsupported
	}
	if err := w.ensure(len(s) + 1); err != nil {
		return err
	}
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
	return nil
}
