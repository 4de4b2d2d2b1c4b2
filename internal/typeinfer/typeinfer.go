// Package typeinfer is a reference slow-path resolver. It infers a
// structural type for a host value and uses the interned TypeID as the
// typecode.
package typeinfer

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"

	"fortio.org/safecast"

	"shapekey/internal/buffer"
	"shapekey/internal/dtype"
	"shapekey/internal/ndarray"
	"shapekey/internal/typecode"
	"shapekey/internal/types"
	"shapekey/internal/value"
)

// ErrUntypable is returned for values the resolver has no type for.
var ErrUntypable = errors.New("cannot determine type")

// Resolver implements typecode.Resolver over a types.Interner.
type Resolver struct {
	in *types.Interner

	calls    atomic.Uint64
	retained atomic.Uint64
	released atomic.Uint64
}

// New creates a resolver with a fresh interner.
func New() *Resolver {
	return NewWith(types.NewInterner())
}

// NewWith creates a resolver over an existing interner.
func NewWith(in *types.Interner) *Resolver {
	return &Resolver{in: in}
}

// Interner returns the backing interner.
func (r *Resolver) Interner() *types.Interner { return r.in }

// Handle is the type representation handed to the cache. It names the
// interned descriptor and reports its release back to the resolver.
type Handle struct {
	ID types.TypeID
	r  *Resolver
}

// Release implements typecode.Releaser.
func (h *Handle) Release() { h.r.released.Add(1) }

func (h *Handle) String() string { return h.r.in.String(h.ID) }

// TypeOf implements typecode.Resolver.
func (r *Resolver) TypeOf(v any, mode typecode.Mode) (typecode.Resolved, error) {
	r.calls.Add(1)
	id, err := r.Infer(v)
	if err != nil {
		return typecode.Resolved{}, err
	}
	code, err := Code(id)
	if err != nil {
		return typecode.Resolved{}, err
	}
	if mode == typecode.Retain {
		r.retained.Add(1)
	}
	return typecode.Resolved{Code: code, Type: &Handle{ID: id, r: r}}, nil
}

// Code converts a TypeID to a typecode.
func Code(id types.TypeID) (typecode.Code, error) {
	c, err := safecast.Conv[int32](uint32(id))
	if err != nil {
		return typecode.Unresolved, fmt.Errorf("type id %d: %w", id, err)
	}
	return typecode.Code(c), nil
}

// Infer returns the interned type of v.
func (r *Resolver) Infer(v any) (types.TypeID, error) {
	b := r.in.Builtins()
	if value.IsNone(v) {
		return b.None, nil
	}
	switch x := v.(type) {
	case bool:
		return b.Bool, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr:
		return b.Int, nil
	case float32, float64:
		return b.Float, nil
	case complex64, complex128:
		return b.Complex, nil
	case string:
		return b.String, nil
	case value.Tuple:
		elems := make([]types.TypeID, len(x))
		for i, e := range x {
			id, err := r.Infer(e)
			if err != nil {
				return types.NoTypeID, err
			}
			elems[i] = id
		}
		return r.in.Tuple(elems), nil
	case value.Bytes:
		return b.Bytes, nil
	case value.ByteArray, []byte:
		return b.ByteArray, nil
	case *ndarray.Scalar:
		if x != nil && x.DType != nil {
			return r.elem(x.DType)
		}
	case *ndarray.Array:
		if x != nil && x.DType != nil {
			return r.array(x)
		}
	case buffer.Exporter:
		if rv := reflect.ValueOf(x); rv.Kind() != reflect.Pointer || !rv.IsNil() {
			return r.buffer(x)
		}
	case *dtype.DType:
		if x != nil {
			elem, err := r.elem(x)
			if err != nil {
				return types.NoTypeID, err
			}
			return r.in.Intern(types.MakeDType(elem)), nil
		}
	}
	return types.NoTypeID, fmt.Errorf("%w: %T", ErrUntypable, v)
}

func (r *Resolver) array(a *ndarray.Array) (types.TypeID, error) {
	elem, err := r.elem(a.DType)
	if err != nil {
		return types.NoTypeID, err
	}
	rank, err := safecast.Conv[int32](a.Rank())
	if err != nil {
		return types.NoTypeID, err
	}
	return r.in.Intern(types.MakeArray(elem, rank, a.Layout(), !a.Writable)), nil
}

func (r *Resolver) buffer(x buffer.Exporter) (types.TypeID, error) {
	view, err := x.Acquire(buffer.Request | buffer.FlagWritable)
	if err != nil {
		view, err = x.Acquire(buffer.Request)
		if err != nil {
			return types.NoTypeID, fmt.Errorf("%w: %T: %w", ErrUntypable, x, err)
		}
	}
	defer view.Release()

	k, ok := formatKind(view.Format)
	if !ok {
		return types.NoTypeID, fmt.Errorf("%w: buffer format %q", ErrUntypable, view.Format)
	}
	rank, err := safecast.Conv[int32](view.Rank())
	if err != nil {
		return types.NoTypeID, err
	}
	layout := ndarray.Classify(view.Shape, view.Strides, view.ItemSize)
	return r.in.Buffer(exporterName(x), r.in.Number(k), rank, layout, view.ReadOnly), nil
}

// elem maps an element dtype to its type. Platform aliases collapse onto the
// fixed-width kinds.
func (r *Resolver) elem(d *dtype.DType) (types.TypeID, error) {
	k := d.Kind()
	switch {
	case k == dtype.KindBool:
		return r.in.Builtins().Bool, nil
	case k == dtype.KindLongLong:
		return r.in.Number(dtype.KindInt64), nil
	case k == dtype.KindULongLong:
		return r.in.Number(dtype.KindUint64), nil
	case k.IsPrimitive() || k == dtype.KindHalf:
		return r.in.Number(k), nil
	case k == dtype.KindObject:
		return r.in.Builtins().Object, nil
	case k.IsDatetime():
		return r.in.Intern(types.MakeDatetime(k, d.Unit(), d.Multiplier())), nil
	case k == dtype.KindRecord:
		return r.in.Record(d.Handle(), d.Name()), nil
	case k == dtype.KindString || k == dtype.KindUnicode:
		width := d.ItemSize()
		if k == dtype.KindUnicode {
			width /= 4
		}
		w, err := safecast.Conv[int32](width)
		if err != nil {
			return types.NoTypeID, err
		}
		return r.in.Intern(types.MakeCharSeq(k, w)), nil
	}
	return types.NoTypeID, fmt.Errorf("%w: dtype %s", ErrUntypable, d)
}

// formatKind maps a struct-module format character to an element kind.
func formatKind(format string) (dtype.Kind, bool) {
	if len(format) == 2 && (format[0] == '<' || format[0] == '=' || format[0] == '@') {
		format = format[1:]
	}
	if len(format) != 1 {
		return 0, false
	}
	switch format[0] {
	case '?':
		return dtype.KindBool, true
	case 'b':
		return dtype.KindInt8, true
	case 'B':
		return dtype.KindUint8, true
	case 'h':
		return dtype.KindInt16, true
	case 'H':
		return dtype.KindUint16, true
	case 'i':
		return dtype.KindInt32, true
	case 'I':
		return dtype.KindUint32, true
	case 'l', 'q':
		return dtype.KindInt64, true
	case 'L', 'Q':
		return dtype.KindUint64, true
	case 'e':
		return dtype.KindHalf, true
	case 'f':
		return dtype.KindFloat32, true
	case 'd':
		return dtype.KindFloat64, true
	case 'F':
		return dtype.KindComplex64, true
	case 'D':
		return dtype.KindComplex128, true
	}
	return 0, false
}

func exporterName(x buffer.Exporter) string {
	switch x.(type) {
	case *buffer.Memory:
		return "memoryview"
	case *buffer.Typed:
		return "typedarray"
	default:
		return fmt.Sprintf("buffer<%T>", x)
	}
}

// Stats reports resolver activity.
type Stats struct {
	Calls    uint64 `json:"calls"`
	Retained uint64 `json:"retained"`
	Released uint64 `json:"released"`
	Types    int    `json:"types"`
}

// Stats returns current counters.
func (r *Resolver) Stats() Stats {
	return Stats{
		Calls:    r.calls.Load(),
		Retained: r.retained.Load(),
		Released: r.released.Load(),
		Types:    r.in.Len(),
	}
}

// BasicNames returns the registry of primitive typecodes expected by
// typecode.NewBasic, interning each primitive on first use.
func (r *Resolver) BasicNames() (map[string]typecode.Code, error) {
	out := make(map[string]typecode.Code, dtype.NumPrimitives)
	for _, k := range dtype.Primitives {
		code, err := Code(r.in.Number(k))
		if err != nil {
			return nil, err
		}
		out[k.String()] = code
	}
	return out, nil
}

// Basic builds the primitive typecode table from r.
func (r *Resolver) Basic() (*typecode.Basic, error) {
	names, err := r.BasicNames()
	if err != nil {
		return nil, err
	}
	return typecode.NewBasic(names)
}
