package testkit

import (
	"errors"
	"testing"

	"shapekey/internal/dtype"
	"shapekey/internal/fasttable"
	"shapekey/internal/fingerprint"
	"shapekey/internal/ndarray"
	"shapekey/internal/typecache"
	"shapekey/internal/typecode"
	"shapekey/internal/value"
)

func TestCheckFingerprint(t *testing.T) {
	rec := dtype.NewRecord("r", dtype.Field{Name: "a", Type: dtype.Of(dtype.KindInt16)})
	for _, v := range []any{
		nil,
		value.T(value.T(1), 2),
		ndarray.MustNew(rec, 'F', 2, 2),
		dtype.NewTimedelta(dtype.UnitMicrosecond, 3),
	} {
		if _, err := CheckFingerprint(nil, v); err != nil {
			t.Fatalf("%v: %v", v, err)
		}
	}
	if _, err := CheckFingerprint(nil, "text"); !errors.Is(err, fingerprint.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

type flipResolver struct{ n typecode.Code }

func (r *flipResolver) TypeOf(any, typecode.Mode) (typecode.Resolved, error) {
	r.n++
	return typecode.Resolved{Code: r.n}, nil
}

func TestCheckStableAndAgreement(t *testing.T) {
	c := typecache.New(typecache.Options{})
	tbl := fasttable.New(c, nil)
	r := &flipResolver{}

	if _, err := CheckStable(c, value.T(1.0), r); err != nil {
		t.Fatalf("stable: %v", err)
	}
	// Unsupported values bypass the cache, so a resolver that changes its
	// answer is visible.
	if _, err := CheckStable(c, "text", r); err == nil {
		t.Fatalf("expected instability for uncached values")
	}

	a := ndarray.MustNew(dtype.Of(dtype.KindUint64), 'C', 5, 5)
	if err := CheckAgreement(tbl, c, a); err != nil {
		t.Fatalf("empty cell: %v", err)
	}
	if _, err := tbl.ResolveArray(a, r); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := CheckAgreement(tbl, c, a); err != nil {
		t.Fatalf("agreement: %v", err)
	}

	// A cell filled against a different cache disagrees with this one.
	other := typecache.New(typecache.Options{})
	if _, err := other.Resolve(a, typecode.ResolverFunc(func(any, typecode.Mode) (typecode.Resolved, error) {
		return typecode.Resolved{Code: 999}, nil
	})); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := CheckAgreement(tbl, other, a); err == nil {
		t.Fatalf("expected disagreement")
	}
}
