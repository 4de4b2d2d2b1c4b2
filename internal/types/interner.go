package types

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"fortio.org/safecast"

	"shapekey/internal/dtype"
	"shapekey/internal/ident"
	"shapekey/internal/ndarray"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	None      TypeID
	Bool      TypeID
	String    TypeID
	Object    TypeID
	Bytes     TypeID
	ByteArray TypeID
	Int       TypeID
	Float     TypeID
	Complex   TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// It is safe for concurrent use; IDs are never reused.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[Type]TypeID
	builtins Builtins

	tuples     [][]TypeID
	tupleIndex map[string]uint32
	names      []string
	nameIndex  map[string]uint32
	records    map[ident.Handle]string
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index:      make(map[Type]TypeID, 64),
		tupleIndex: make(map[string]uint32),
		nameIndex:  make(map[string]uint32),
		records:    make(map[ident.Handle]string),
	}
	in.types = append(in.types, Type{}) // reserve 0 as invalid sentinel
	in.tuples = append(in.tuples, nil)
	in.names = append(in.names, "")
	in.builtins.None = in.internRaw(Type{Kind: KindNone})
	in.builtins.Bool = in.internRaw(Type{Kind: KindBool})
	in.builtins.String = in.internRaw(Type{Kind: KindString})
	in.builtins.Object = in.internRaw(Type{Kind: KindObject})
	in.builtins.Bytes = in.internRaw(Type{Kind: KindBytes})
	in.builtins.ByteArray = in.internRaw(Type{Kind: KindByteArray})
	in.builtins.Int = in.internRaw(MakeNumber(dtype.KindInt64))
	in.builtins.Float = in.internRaw(MakeNumber(dtype.KindFloat64))
	in.builtins.Complex = in.internRaw(MakeNumber(dtype.KindComplex128))
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	in.mu.RLock()
	id, ok := in.index[t]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[t]; ok {
		return id
	}
	return in.internRaw(t)
}

// internRaw adds the descriptor to the storage. Callers hold mu or own in
// exclusively.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Len returns the number of interned types, the sentinel included.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.types)
}

// Number interns a numeric element type.
func (in *Interner) Number(k dtype.Kind) TypeID {
	return in.Intern(MakeNumber(k))
}

// Tuple interns a tuple of the given element types.
func (in *Interner) Tuple(elems []TypeID) TypeID {
	key := tupleKey(elems)
	in.mu.Lock()
	defer in.mu.Unlock()
	slot, ok := in.tupleIndex[key]
	if !ok {
		slot = in.appendSlot(len(in.tuples))
		in.tuples = append(in.tuples, append([]TypeID(nil), elems...))
		in.tupleIndex[key] = slot
	}
	t := Type{Kind: KindTuple, Payload: slot}
	if id, ok := in.index[t]; ok {
		return id
	}
	return in.internRaw(t)
}

// TupleElems returns the element types for a tuple TypeID.
func (in *Interner) TupleElems(id TypeID) ([]TypeID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTuple {
		return nil, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return append([]TypeID(nil), in.tuples[tt.Payload]...), true
}

// Record interns the element type of a record dtype. name is informational;
// identity comes from handle alone.
func (in *Interner) Record(handle ident.Handle, name string) TypeID {
	in.mu.Lock()
	if _, ok := in.records[handle]; !ok {
		in.records[handle] = name
	}
	in.mu.Unlock()
	return in.Intern(Type{Kind: KindRecord, Handle: handle})
}

// Buffer interns a buffer view type. exporter names the exporting runtime
// type and is part of the identity.
func (in *Interner) Buffer(exporter string, elem TypeID, rank int32, layout ndarray.Layout, readOnly bool) TypeID {
	t := Type{Kind: KindBuffer, Elem: elem, Rank: rank, Layout: layout, ReadOnly: readOnly}
	in.mu.Lock()
	slot, ok := in.nameIndex[exporter]
	if !ok {
		slot = in.appendSlot(len(in.names))
		in.names = append(in.names, exporter)
		in.nameIndex[exporter] = slot
	}
	in.mu.Unlock()
	t.Payload = slot
	return in.Intern(t)
}

func (in *Interner) appendSlot(n int) uint32 {
	slot, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("side table overflow: %w", err))
	}
	return slot
}

func tupleKey(elems []TypeID) string {
	var b strings.Builder
	for _, e := range elems {
		b.WriteString(strconv.FormatUint(uint64(e), 36))
		b.WriteByte(',')
	}
	return b.String()
}
