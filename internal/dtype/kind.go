package dtype

import "fmt"

// Kind is the array library's numeric-kind tag. The numbering is part of the
// fingerprint format: primitive kinds are written as a single byte equal to
// their tag.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindLongLong
	KindULongLong
	KindFloat32
	KindFloat64
	KindLongDouble
	KindComplex64
	KindComplex128
	KindCLongDouble
	KindObject
	KindString
	KindUnicode
	KindRecord
	KindDatetime
	KindTimedelta
	KindHalf
)

var kindNames = [...]string{
	KindBool:        "bool",
	KindInt8:        "int8",
	KindUint8:       "uint8",
	KindInt16:       "int16",
	KindUint16:      "uint16",
	KindInt32:       "int32",
	KindUint32:      "uint32",
	KindInt64:       "int64",
	KindUint64:      "uint64",
	KindLongLong:    "longlong",
	KindULongLong:   "ulonglong",
	KindFloat32:     "float32",
	KindFloat64:     "float64",
	KindLongDouble:  "longdouble",
	KindComplex64:   "complex64",
	KindComplex128:  "complex128",
	KindCLongDouble: "clongdouble",
	KindObject:      "object",
	KindString:      "bytes",
	KindUnicode:     "str",
	KindRecord:      "record",
	KindDatetime:    "datetime64",
	KindTimedelta:   "timedelta64",
	KindHalf:        "float16",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsPrimitive reports whether k is a plain numeric (or bool) kind that
// encodes as a single tag byte.
func (k Kind) IsPrimitive() bool { return k < KindObject }

// IsDatetime reports whether k carries a unit and multiplier.
func (k Kind) IsDatetime() bool { return k == KindDatetime || k == KindTimedelta }

// ParseKind maps a kind name (as printed by String) back to the Kind.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	switch name {
	case "float", "f8", "double":
		return KindFloat64, true
	case "f4":
		return KindFloat32, true
	case "int", "i8":
		return KindInt64, true
	case "i4":
		return KindInt32, true
	case "complex", "c16":
		return KindComplex128, true
	case "c8":
		return KindComplex64, true
	case "u1":
		return KindUint8, true
	}
	return 0, false
}

// NumPrimitives is the number of kinds covered by the dense primitive table.
const NumPrimitives = 12

// Primitives lists the dense-table kinds in table order. The same order
// indexes the basic typecode table.
var Primitives = [NumPrimitives]Kind{
	KindInt8, KindInt16, KindInt32, KindInt64,
	KindUint8, KindUint16, KindUint32, KindUint64,
	KindFloat32, KindFloat64,
	KindComplex64, KindComplex128,
}

// PrimitiveIndex returns k's position in Primitives, or -1 when k is not
// covered by the dense table.
func PrimitiveIndex(k Kind) int {
	switch k {
	case KindInt8:
		return 0
	case KindInt16:
		return 1
	case KindInt32:
		return 2
	case KindInt64:
		return 3
	case KindUint8:
		return 4
	case KindUint16:
		return 5
	case KindUint32:
		return 6
	case KindUint64:
		return 7
	case KindFloat32:
		return 8
	case KindFloat64:
		return 9
	case KindComplex64:
		return 10
	case KindComplex128:
		return 11
	default:
		return -1
	}
}
