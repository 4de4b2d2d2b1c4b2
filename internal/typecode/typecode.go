// Package typecode defines typecodes and the contracts with the external
// slow-path resolver and the primitive typecode registry.
package typecode

import (
	"errors"
	"fmt"
	"sync"
)

// Code identifies a resolved type variant.
type Code int32

// Unresolved marks a slot whose typecode is not known yet.
const Unresolved Code = -1

// ErrInvalidCode is returned when a resolver reports success with a negative code.
var ErrInvalidCode = errors.New("resolver returned an invalid typecode")

// Mode tells the resolver whether its result is about to be cached.
type Mode uint8

const (
	// Retain: the result will be cached, so the returned type representation
	// is kept alive for the rest of the process.
	Retain Mode = iota + 1
	// Release: the result is used once; the representation may be dropped.
	Release
)

func (m Mode) String() string {
	switch m {
	case Retain:
		return "retain"
	case Release:
		return "release"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

// Resolved is the outcome of a slow-path resolution.
type Resolved struct {
	Code Code
	// Type is the resolver's representation backing Code. Ownership moves to
	// the caller: retained forever in Retain mode, dropped in Release mode.
	Type any
}

// Resolver performs full structural type inference for a value.
// Implementations must be safe for concurrent use.
type Resolver interface {
	TypeOf(v any, mode Mode) (Resolved, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(v any, mode Mode) (Resolved, error)

// TypeOf implements Resolver.
func (f ResolverFunc) TypeOf(v any, mode Mode) (Resolved, error) { return f(v, mode) }

// Releaser is implemented by type representations that want to know when
// they are dropped.
type Releaser interface {
	Release()
}

// Arena is an append-only store that keeps retained type representations
// reachable for the life of the process. Nothing is ever removed.
type Arena struct {
	mu   sync.Mutex
	kept []any
}

// Keep retains x forever.
func (a *Arena) Keep(x any) {
	if x == nil {
		return
	}
	a.mu.Lock()
	a.kept = append(a.kept, x)
	a.mu.Unlock()
}

// Len reports how many representations are retained.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.kept)
}

// Call runs r for v and applies the ownership rule for mode. Resolver errors
// are returned unmodified.
func Call(r Resolver, v any, mode Mode, arena *Arena) (Code, error) {
	res, err := r.TypeOf(v, mode)
	if err != nil {
		return Unresolved, err
	}
	if res.Code < 0 {
		drop(res.Type)
		return Unresolved, fmt.Errorf("%w: %d for %T", ErrInvalidCode, res.Code, v)
	}
	if mode == Retain && arena != nil {
		arena.Keep(res.Type)
	} else {
		drop(res.Type)
	}
	return res.Code, nil
}

func drop(x any) {
	if rel, ok := x.(Releaser); ok {
		rel.Release()
	}
}
