package typecode

import (
	"errors"
	"testing"

	"shapekey/internal/dtype"
)

type handle struct{ released bool }

func (h *handle) Release() { h.released = true }

func TestCallOwnership(t *testing.T) {
	var arena Arena
	h := &handle{}
	r := ResolverFunc(func(any, Mode) (Resolved, error) {
		return Resolved{Code: 4, Type: h}, nil
	})

	code, err := Call(r, 1, Release, &arena)
	if err != nil || code != 4 {
		t.Fatalf("Call = %d, %v", code, err)
	}
	if !h.released || arena.Len() != 0 {
		t.Fatalf("release mode must drop the handle")
	}

	h2 := &handle{}
	r2 := ResolverFunc(func(any, Mode) (Resolved, error) {
		return Resolved{Code: 5, Type: h2}, nil
	})
	if _, err := Call(r2, 1, Retain, &arena); err != nil {
		t.Fatalf("retain: %v", err)
	}
	if h2.released || arena.Len() != 1 {
		t.Fatalf("retain mode must keep the handle alive")
	}
}

func TestCallErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := ResolverFunc(func(any, Mode) (Resolved, error) { return Resolved{}, boom })
	if _, err := Call(failing, nil, Retain, nil); err != boom {
		t.Fatalf("resolver error must pass through verbatim, got %v", err)
	}
	negative := ResolverFunc(func(any, Mode) (Resolved, error) { return Resolved{Code: -3}, nil })
	if _, err := Call(negative, nil, Retain, nil); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func registry() map[string]Code {
	reg := make(map[string]Code)
	for i, k := range dtype.Primitives {
		reg[k.String()] = Code(100 + i)
	}
	return reg
}

func TestBasic(t *testing.T) {
	b, err := NewBasic(registry())
	if err != nil {
		t.Fatalf("NewBasic: %v", err)
	}
	if c, ok := b.Of(dtype.KindFloat64); !ok || c != 109 {
		t.Fatalf("float64 code = %d %v", c, ok)
	}
	if _, ok := b.Of(dtype.KindBool); ok {
		t.Fatalf("bool is not a basic typecode")
	}
	if b.IntP() != 103 && b.IntP() != 102 {
		t.Fatalf("intp must alias int32 or int64, got %d", b.IntP())
	}

	reg := registry()
	delete(reg, "uint16")
	if _, err := NewBasic(reg); err == nil {
		t.Fatalf("missing primitive must fail")
	}
}
