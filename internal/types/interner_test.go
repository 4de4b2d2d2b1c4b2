package types

import (
	"sync"
	"testing"

	"shapekey/internal/dtype"
	"shapekey/internal/ident"
	"shapekey/internal/ndarray"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.None == NoTypeID || b.Bool == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	none, _ := in.Lookup(b.None)
	if none.Kind != KindNone {
		t.Fatalf("expected none kind, got %v", none.Kind)
	}
	if in.Number(dtype.KindFloat64) != b.Float {
		t.Fatalf("float64 must resolve to the builtin float")
	}
}

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	elem := in.Number(dtype.KindInt32)
	arr1 := in.Intern(MakeArray(elem, 2, ndarray.LayoutC, false))
	arr2 := in.Intern(MakeArray(elem, 2, ndarray.LayoutC, false))
	if arr1 != arr2 {
		t.Fatalf("array types should be deduplicated")
	}
	tup1 := in.Tuple([]TypeID{elem, arr1})
	tup2 := in.Tuple([]TypeID{elem, arr1})
	if tup1 != tup2 {
		t.Fatalf("tuple types should be deduplicated")
	}
	if in.Tuple([]TypeID{arr1, elem}) == tup1 {
		t.Fatalf("element order must matter")
	}
}

func TestReadOnlyAffectsIdentity(t *testing.T) {
	in := NewInterner()
	elem := in.Builtins().Float
	mut := in.Intern(MakeArray(elem, 1, ndarray.LayoutC, false))
	imm := in.Intern(MakeArray(elem, 1, ndarray.LayoutC, true))
	if mut == imm {
		t.Fatalf("writable and read-only arrays must differ")
	}
}

func TestRecordIdentity(t *testing.T) {
	in := NewInterner()
	a := in.Record(ident.Handle(7), "point")
	b := in.Record(ident.Handle(8), "point")
	if a == b {
		t.Fatalf("records with distinct handles must differ")
	}
	if in.Record(ident.Handle(7), "renamed") != a {
		t.Fatalf("record identity must follow the handle")
	}
}

func TestString(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	f32 := in.Number(dtype.KindFloat32)
	tests := []struct {
		id   TypeID
		want string
	}{
		{b.Int, "int64"},
		{in.Tuple([]TypeID{b.Float, b.Float, b.Float}), "UniTuple(float64 x 3)"},
		{in.Tuple([]TypeID{b.Int, b.None}), "Tuple(int64, none)"},
		{in.Tuple(nil), "Tuple()"},
		{in.Intern(MakeArray(f32, 2, ndarray.LayoutF, true)), "readonly array(float32, 2d, F)"},
		{in.Buffer("memoryview", b.Int, 1, ndarray.LayoutC, false), "memoryview(int64, 1d, C)"},
		{in.Intern(MakeDType(in.Intern(MakeDatetime(dtype.KindTimedelta, dtype.UnitNanosecond, 5)))), "dtype(timedelta64[5ns])"},
		{in.Intern(MakeCharSeq(dtype.KindUnicode, 4)), "[str x 4]"},
	}
	for _, tt := range tests {
		if got := in.String(tt.id); got != tt.want {
			t.Fatalf("String(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestConcurrentIntern(t *testing.T) {
	in := NewInterner()
	var wg sync.WaitGroup
	ids := make([]TypeID, 16)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			elem := in.Number(dtype.KindUint16)
			ids[i] = in.Tuple([]TypeID{elem, in.Intern(MakeArray(elem, 3, ndarray.LayoutAny, false))})
		}(i)
	}
	wg.Wait()
	for i, id := range ids {
		if id != ids[0] {
			t.Fatalf("goroutine %d interned %d, want %d", i, id, ids[0])
		}
	}
}
