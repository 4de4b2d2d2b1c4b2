package fingerprint

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"shapekey/internal/buffer"
	"shapekey/internal/dtype"
	"shapekey/internal/ident"
	"shapekey/internal/ndarray"
	"shapekey/internal/value"
)

func mustEncode(t *testing.T, v any) Fingerprint {
	t.Helper()
	fp, err := Encode(v)
	if err != nil {
		t.Fatalf("encode %#v: %v", v, err)
	}
	return fp
}

func TestScalarKindsIgnoreWidth(t *testing.T) {
	cases := []struct {
		vals []any
		want Opcode
	}{
		{[]any{1, int8(1), uint64(7), uintptr(3)}, OpInt},
		{[]any{1.5, float32(2)}, OpFloat},
		{[]any{complex(1, 2), complex64(3)}, OpComplex},
		{[]any{true, false}, OpBool},
		{[]any{nil, value.None}, OpNone},
	}
	for _, tc := range cases {
		for _, v := range tc.vals {
			fp := mustEncode(t, v)
			if string(fp) != string([]byte{byte(tc.want)}) {
				t.Fatalf("%#v: got %q, want %q", v, fp, tc.want)
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	rec := dtype.NewRecord("pt", dtype.Field{Name: "x", Type: dtype.Of(dtype.KindFloat32)})
	values := []any{
		value.T(1, 2.0, value.T(true, nil)),
		ndarray.MustNew(dtype.Of(dtype.KindFloat64), 'C', 2, 3),
		ndarray.NewScalar(rec, nil),
		buffer.NewMemory("<i", 4, false, 8),
		dtype.NewDatetime(dtype.UnitSecond, 10),
	}
	for _, v := range values {
		a := mustEncode(t, v)
		b := mustEncode(t, v)
		if a != b {
			t.Fatalf("fingerprint of %#v not deterministic: %x vs %x", v, a, b)
		}
	}
}

func TestTupleFramingIsInjective(t *testing.T) {
	left := mustEncode(t, value.T(value.T(1), 2))
	right := mustEncode(t, value.T(1, value.T(2)))
	if left == right {
		t.Fatalf("((1,),2) and (1,(2,)) collide: %q", left)
	}
	flat := mustEncode(t, value.T(1, 2))
	a := mustEncode(t, value.T(1))
	b := mustEncode(t, value.T(2))
	if string(flat) == string(a)+string(b) {
		t.Fatalf("framing must separate a tuple from concatenated siblings")
	}
	if got := mustEncode(t, value.T()); got != "()" {
		t.Fatalf("empty tuple = %q", got)
	}
}

func TestElementOrderMatters(t *testing.T) {
	a := mustEncode(t, value.T(1, 2.0))
	b := mustEncode(t, value.T(1.0, 2))
	if a == b {
		t.Fatalf("(1, 2.0) and (1.0, 2) must differ")
	}
	if a != "(if)" || b != "(fi)" {
		t.Fatalf("unexpected encodings %q %q", a, b)
	}
}

func TestBytesAndByteArrayDiffer(t *testing.T) {
	if mustEncode(t, value.Bytes("x")) == mustEncode(t, value.ByteArray("x")) {
		t.Fatalf("bytes and bytearray collide")
	}
	if mustEncode(t, []byte{1}) != mustEncode(t, value.ByteArray{1}) {
		t.Fatalf("plain []byte must encode as bytearray")
	}
}

func TestArrayEncoding(t *testing.T) {
	f8 := dtype.Of(dtype.KindFloat64)
	c := ndarray.MustNew(f8, 'C', 2, 3)
	fp := mustEncode(t, c)
	want := []byte{'A', 2, 0, 0, 0, 'C', 'W', byte(dtype.KindFloat64)}
	if !bytes.Equal(fp.Bytes(), want) {
		t.Fatalf("array fingerprint = %v, want %v", fp.Bytes(), want)
	}
	distinct := []any{
		c,
		ndarray.MustNew(f8, 'F', 3, 2),
		c.ReadOnly(),
		ndarray.MustNew(f8, 'C', 2, 3, 1),
		ndarray.MustNew(dtype.Of(dtype.KindFloat32), 'C', 2, 3),
	}
	seen := map[Fingerprint]int{}
	for i, v := range distinct {
		fp := mustEncode(t, v)
		if j, dup := seen[fp]; dup {
			t.Fatalf("values %d and %d collide: %s", j, i, fp)
		}
		seen[fp] = i
	}
	// Shape extents do not matter, only rank.
	if mustEncode(t, ndarray.MustNew(f8, 'C', 7, 9)) != fp {
		t.Fatalf("arrays differing only in extents must share a fingerprint")
	}
}

func TestDTypeEncoding(t *testing.T) {
	rec1 := dtype.NewRecord("pt", dtype.Field{Name: "x", Type: dtype.Of(dtype.KindInt32)})
	rec2 := dtype.NewRecord("pt", dtype.Field{Name: "x", Type: dtype.Of(dtype.KindInt32)})
	if mustEncode(t, rec1) == mustEncode(t, rec2) {
		t.Fatalf("records are keyed by identity")
	}
	if mustEncode(t, rec1) != mustEncode(t, rec1) {
		t.Fatalf("same record must encode identically")
	}
	d1 := mustEncode(t, dtype.NewDatetime(dtype.UnitSecond, 1))
	d2 := mustEncode(t, dtype.NewDatetime(dtype.UnitSecond, 1000))
	d3 := mustEncode(t, dtype.NewTimedelta(dtype.UnitSecond, 1))
	if d1 == d2 || d1 == d3 {
		t.Fatalf("datetime unit, multiplier and kind must all be encoded")
	}
	if mustEncode(t, dtype.NewDatetime(dtype.UnitDay, 3)) != mustEncode(t, dtype.NewDatetime(dtype.UnitDay, 3)) {
		t.Fatalf("equal datetime descriptors must share a fingerprint")
	}
	scalar := mustEncode(t, ndarray.NewScalar(dtype.Of(dtype.KindInt16), int16(1)))
	desc := mustEncode(t, dtype.Of(dtype.KindInt16))
	if scalar == desc {
		t.Fatalf("array scalar and dtype value must not collide")
	}
}

type otherMemory struct{ *buffer.Memory }

func TestBufferEncoding(t *testing.T) {
	mem := buffer.NewMemory("<d", 8, false, 2, 3)
	fp := mustEncode(t, mem)
	if mem.Outstanding() != 0 {
		t.Fatalf("view leaked: %d outstanding", mem.Outstanding())
	}
	if fp.Bytes()[0] != byte(OpBuffer) {
		t.Fatalf("expected buffer opcode, got %q", fp.Bytes()[0])
	}
	wrapped := otherMemory{buffer.NewMemory("<d", 8, false, 2, 3)}
	if mustEncode(t, wrapped) == fp {
		t.Fatalf("identical layouts from different runtime types must differ")
	}
	ro := buffer.NewMemory("<d", 8, true, 2, 3)
	roFP := mustEncode(t, ro)
	if roFP == fp {
		t.Fatalf("read-only fallback must be reflected in the fingerprint")
	}
	if ro.Outstanding() != 0 {
		t.Fatalf("read-only view leaked")
	}
	if mustEncode(t, buffer.NewMemory("<f", 4, false, 2, 3)) == fp {
		t.Fatalf("format must be part of the fingerprint")
	}
}

func TestBufferReleasedOnError(t *testing.T) {
	mem := buffer.NewMemory("bad\x00format", 1, false, 4)
	_, err := Encode(mem)
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if mem.Outstanding() != 0 {
		t.Fatalf("view leaked on error path")
	}

	long := buffer.NewMemory(strings.Repeat("x", 64), 1, false, 4)
	enc := &Encoder{Types: ident.NewRegistry(), Limit: 32}
	if _, err := enc.Encode(long); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}
	if long.Outstanding() != 0 {
		t.Fatalf("view leaked on limit error")
	}

	closed, _ := buffer.NewTyped('d', 2)
	closed.Close()
	if _, err := Encode(closed); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("unacquirable exporter must be unsupported, got %v", err)
	}
}

func TestUnsupported(t *testing.T) {
	obj := dtype.Of(dtype.KindObject)
	str, _ := dtype.NewString(dtype.KindUnicode, 8)
	cases := []any{
		"text",
		map[string]int{},
		[]any{1, 2},
		struct{}{},
		(*ndarray.Array)(nil),
		(*buffer.Memory)(nil),
		ndarray.MustNew(obj, 'C', 3),
		ndarray.NewScalar(str, "x"),
		value.T(1, "nested"),
	}
	for _, v := range cases {
		if _, err := Encode(v); !errors.Is(err, ErrUnsupported) {
			t.Fatalf("%#v: expected ErrUnsupported, got %v", v, err)
		}
	}
}

func TestWriterGrowsPastInlineBuffer(t *testing.T) {
	elems := make(value.Tuple, 200)
	for i := range elems {
		elems[i] = i
	}
	fp := mustEncode(t, elems)
	if len(fp) != 202 {
		t.Fatalf("len = %d, want 202", len(fp))
	}
	enc := &Encoder{Limit: 100}
	if _, err := enc.Encode(elems); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}
}

func TestHash(t *testing.T) {
	a := mustEncode(t, value.T(1, 2.0))
	b := mustEncode(t, value.T(1.0, 2))
	if Hash(a.Bytes()) != a.Hash() {
		t.Fatalf("byte and string hashes disagree")
	}
	if a.Hash() == b.Hash() {
		t.Fatalf("order-sensitive hash expected to separate %q and %q", a, b)
	}
	if Hash(nil) != 0 {
		t.Fatalf("empty hash must be zero")
	}
}
