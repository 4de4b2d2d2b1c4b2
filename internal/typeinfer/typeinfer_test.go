package typeinfer

import (
	"errors"
	"strconv"
	"testing"

	"shapekey/internal/buffer"
	"shapekey/internal/dtype"
	"shapekey/internal/ndarray"
	"shapekey/internal/typecache"
	"shapekey/internal/typecode"
	"shapekey/internal/value"
)

func TestInferRendering(t *testing.T) {
	r := New()
	rec := dtype.NewRecord("point", dtype.Field{Name: "x", Type: dtype.Of(dtype.KindFloat64)})
	typed, _ := buffer.NewTyped('i', 10)
	tests := []struct {
		name string
		v    any
		want string
	}{
		{"none", nil, "none"},
		{"int", 3, "int64"},
		{"mixed tuple", value.T(1, 2.0), "Tuple(int64, float64)"},
		{"uniform tuple", value.T(1.5, 2.5), "UniTuple(float64 x 2)"},
		{"nested", value.T(value.T(), true), "Tuple(Tuple(), bool)"},
		{"bytes", value.Bytes("ab"), "bytes"},
		{"bytearray", value.ByteArray("ab"), "bytearray"},
		{"string", "text", "unicode_type"},
		{"scalar", ndarray.NewScalar(dtype.Of(dtype.KindUint8), uint8(1)), "uint8"},
		{"longlong scalar", ndarray.NewScalar(dtype.Of(dtype.KindLongLong), int64(1)), "int64"},
		{"array", ndarray.MustNew(dtype.Of(dtype.KindFloat32), 'F', 3, 2), "array(float32, 2d, F)"},
		{"readonly", ndarray.MustNew(dtype.Of(dtype.KindInt8), 'C', 4).ReadOnly(), "readonly array(int8, 1d, C)"},
		{"record array", ndarray.MustNew(rec, 'C', 2), "array(Record(point#" + strconv.FormatUint(uint64(rec.Handle()), 10) + "), 1d, C)"},
		{"memory", buffer.NewMemory("d", 8, true, 2, 2), "readonly memoryview(float64, 2d, C)"},
		{"typed", typed, "typedarray(int32, 1d, C)"},
		{"dtype", dtype.NewDatetime(dtype.UnitDay, 1), "dtype(datetime64[D])"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := r.Infer(tt.v)
			if err != nil {
				t.Fatalf("infer: %v", err)
			}
			if got := r.Interner().String(id); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUntypable(t *testing.T) {
	r := New()
	closed, _ := buffer.NewTyped('d', 1)
	closed.Close()
	for _, v := range []any{
		func() {},
		make(chan int),
		value.T(1, struct{}{}),
		closed,
		buffer.NewMemory("3s", 3, false, 2),
		(*buffer.Memory)(nil),
	} {
		if _, err := r.TypeOf(v, typecode.Release); !errors.Is(err, ErrUntypable) {
			t.Fatalf("%T: expected ErrUntypable, got %v", v, err)
		}
	}
}

func TestBasicMatchesInference(t *testing.T) {
	r := New()
	basic, err := r.Basic()
	if err != nil {
		t.Fatalf("basic: %v", err)
	}
	for _, k := range dtype.Primitives {
		want, _ := basic.Of(k)
		res, err := r.TypeOf(ndarray.NewScalar(dtype.Of(k), nil), typecode.Release)
		if err != nil {
			t.Fatalf("%s: %v", k, err)
		}
		if res.Code != want {
			t.Fatalf("%s scalar resolved to %d, basic table says %d", k, res.Code, want)
		}
	}
	if basic.IntP() != basic.At(dtype.PrimitiveIndex(dtype.KindInt64)) && basic.IntP() != basic.At(dtype.PrimitiveIndex(dtype.KindInt32)) {
		t.Fatalf("intp must alias a signed integer code")
	}
}

func TestHandleOwnership(t *testing.T) {
	r := New()
	c := typecache.New(typecache.Options{})
	for range 3 {
		if _, err := c.Resolve(value.T(1, 2), r); err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if _, err := c.Resolve("uncached", r); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}
	st := r.Stats()
	if st.Calls != 4 || st.Retained != 1 || st.Released != 3 {
		t.Fatalf("unexpected resolver stats %+v", st)
	}
}
