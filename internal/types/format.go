package types

import (
	"fmt"
	"strconv"
	"strings"

	"shapekey/internal/dtype"
)

// String renders id the way the compiler's type printer does:
// "int64", "UniTuple(float64 x 3)", "array(float32, 2d, C)".
func (in *Interner) String(id TypeID) string {
	var b strings.Builder
	in.write(&b, id)
	return b.String()
}

func (in *Interner) write(b *strings.Builder, id TypeID) {
	t, ok := in.Lookup(id)
	if !ok {
		b.WriteString("invalid")
		return
	}
	switch t.Kind {
	case KindNone:
		b.WriteString("none")
	case KindBool:
		b.WriteString("bool")
	case KindNumber:
		b.WriteString(t.Prim.String())
	case KindDatetime:
		b.WriteString(t.Prim.String())
		if t.Unit != dtype.UnitGeneric {
			b.WriteByte('[')
			if t.Mult != 1 {
				b.WriteString(strconv.Itoa(int(t.Mult)))
			}
			b.WriteString(t.Unit.String())
			b.WriteByte(']')
		}
	case KindRecord:
		in.mu.RLock()
		name := in.records[t.Handle]
		in.mu.RUnlock()
		fmt.Fprintf(b, "Record(%s#%d)", name, t.Handle)
	case KindCharSeq:
		fmt.Fprintf(b, "[%s x %d]", t.Prim, t.Mult)
	case KindObject:
		b.WriteString("pyobject")
	case KindString:
		b.WriteString("unicode_type")
	case KindTuple:
		elems, _ := in.TupleElems(id)
		in.writeTuple(b, elems)
	case KindBytes:
		b.WriteString("bytes")
	case KindByteArray:
		b.WriteString("bytearray")
	case KindArray:
		in.writeStrided(b, "array", t)
	case KindBuffer:
		in.mu.RLock()
		name := in.names[t.Payload]
		in.mu.RUnlock()
		in.writeStrided(b, name, t)
	case KindDType:
		b.WriteString("dtype(")
		in.write(b, t.Elem)
		b.WriteByte(')')
	default:
		b.WriteString(t.Kind.String())
	}
}

func (in *Interner) writeTuple(b *strings.Builder, elems []TypeID) {
	uniform := len(elems) > 0
	for _, e := range elems[min(1, len(elems)):] {
		if e != elems[0] {
			uniform = false
			break
		}
	}
	if uniform {
		b.WriteString("UniTuple(")
		in.write(b, elems[0])
		fmt.Fprintf(b, " x %d)", len(elems))
		return
	}
	b.WriteString("Tuple(")
	for i, e := range elems {
		if i > 0 {
			b.WriteString(", ")
		}
		in.write(b, e)
	}
	b.WriteByte(')')
}

func (in *Interner) writeStrided(b *strings.Builder, name string, t Type) {
	if t.ReadOnly {
		b.WriteString("readonly ")
	}
	b.WriteString(name)
	b.WriteByte('(')
	in.write(b, t.Elem)
	fmt.Fprintf(b, ", %dd, %s)", t.Rank, t.Layout)
}
