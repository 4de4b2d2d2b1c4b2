package typecode

import (
	"fmt"
	"strconv"

	"shapekey/internal/dtype"
)

// Basic holds the typecodes of the primitive numeric kinds. It is built once
// at startup and never changes.
type Basic struct {
	codes [dtype.NumPrimitives]Code
	intp  Code
}

// NewBasic builds the table from a registry keyed by kind name
// ("int8" ... "complex128"). Every primitive must be present.
func NewBasic(registry map[string]Code) (*Basic, error) {
	b := &Basic{}
	for i, k := range dtype.Primitives {
		code, ok := registry[k.String()]
		if !ok {
			return nil, fmt.Errorf("typecode registry: missing %s", k)
		}
		if code < 0 {
			return nil, fmt.Errorf("typecode registry: negative code %d for %s", code, k)
		}
		b.codes[i] = code
	}
	switch strconv.IntSize {
	case 32:
		b.intp = b.codes[dtype.PrimitiveIndex(dtype.KindInt32)]
	case 64:
		b.intp = b.codes[dtype.PrimitiveIndex(dtype.KindInt64)]
	default:
		return nil, fmt.Errorf("typecode registry: unsupported pointer width %d", strconv.IntSize)
	}
	return b, nil
}

// Of returns the code for a primitive kind.
func (b *Basic) Of(k dtype.Kind) (Code, bool) {
	i := dtype.PrimitiveIndex(k)
	if i < 0 {
		return Unresolved, false
	}
	return b.codes[i], true
}

// At returns the code at a dense primitive index.
func (b *Basic) At(i int) Code { return b.codes[i] }

// IntP returns the code of the native pointer-sized signed integer.
func (b *Basic) IntP() Code { return b.intp }
