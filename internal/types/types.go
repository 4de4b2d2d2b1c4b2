// Package types holds structural type descriptors for host values and the
// interner that gives each distinct descriptor a dense, stable TypeID.
package types

import (
	"fmt"

	"shapekey/internal/dtype"
	"shapekey/internal/ident"
	"shapekey/internal/ndarray"
)

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNone
	KindBool
	KindNumber
	KindDatetime
	KindRecord
	KindCharSeq
	KindObject
	KindString
	KindTuple
	KindBytes
	KindByteArray
	KindArray
	KindBuffer
	KindDType
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindDatetime:
		return "datetime"
	case KindRecord:
		return "record"
	case KindCharSeq:
		return "charseq"
	case KindObject:
		return "object"
	case KindString:
		return "string"
	case KindTuple:
		return "tuple"
	case KindBytes:
		return "bytes"
	case KindByteArray:
		return "bytearray"
	case KindArray:
		return "array"
	case KindBuffer:
		return "buffer"
	case KindDType:
		return "dtype"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor for any supported type. It is comparable and
// used directly as the interner key; variable-size parts (tuple elements,
// names) live in side tables addressed by Payload.
type Type struct {
	Kind     Kind
	Prim     dtype.Kind // numbers, datetimes, char sequences
	Elem     TypeID     // arrays, buffers, dtype values
	Rank     int32
	Layout   ndarray.Layout
	ReadOnly bool
	Unit     dtype.Unit
	Mult     int32 // datetime multiplier, char sequence width
	Handle   ident.Handle
	Payload  uint32
}

// Descriptor helpers ---------------------------------------------------------

// MakeNumber describes a numeric element type.
func MakeNumber(k dtype.Kind) Type {
	return Type{Kind: KindNumber, Prim: k}
}

// MakeDatetime describes a datetime64 or timedelta64 type.
func MakeDatetime(k dtype.Kind, unit dtype.Unit, mult int32) Type {
	return Type{Kind: KindDatetime, Prim: k, Unit: unit, Mult: mult}
}

// MakeCharSeq describes a fixed-width bytes or unicode element type.
func MakeCharSeq(k dtype.Kind, width int32) Type {
	return Type{Kind: KindCharSeq, Prim: k, Mult: width}
}

// MakeArray describes an array of elem with the given rank and layout.
func MakeArray(elem TypeID, rank int32, layout ndarray.Layout, readOnly bool) Type {
	return Type{Kind: KindArray, Elem: elem, Rank: rank, Layout: layout, ReadOnly: readOnly}
}

// MakeDType describes a dtype value whose element type is elem.
func MakeDType(elem TypeID) Type {
	return Type{Kind: KindDType, Elem: elem}
}
