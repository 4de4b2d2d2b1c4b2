// Package value defines the host-side value kinds that have no direct Go
// counterpart: the none sentinel, tuples and the two raw byte sequences.
//
// Scalars are plain Go values (bool, every integer width, float32/float64,
// complex64/complex128). Array-library values live in package ndarray and
// generic buffer exporters in package buffer.
package value

// NoneType is the type of the absence sentinel.
type NoneType struct{}

// None is the absence sentinel. A nil interface is treated the same way.
var None = NoneType{}

// Tuple is an ordered, fixed-length, heterogeneous sequence.
type Tuple []any

// Bytes is an immutable raw byte sequence.
type Bytes string

// ByteArray is a mutable raw byte sequence.
type ByteArray []byte

// IsNone reports whether v is the absence sentinel.
func IsNone(v any) bool {
	switch v.(type) {
	case nil, NoneType, *NoneType:
		return true
	}
	return false
}

// T builds a tuple from its arguments.
func T(elems ...any) Tuple { return Tuple(elems) }
