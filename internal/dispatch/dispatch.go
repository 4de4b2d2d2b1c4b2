// Package dispatch maps host values to typecodes, the entry point used when a
// call site needs to pick a specialised variant for its arguments.
//
// Plain arrays go through the fast-path table; every other value goes
// through the fingerprint cache. Both share one cache, so a value always
// gets the same code whichever path served it.
package dispatch

import (
	"errors"
	"sync/atomic"

	"shapekey/internal/fasttable"
	"shapekey/internal/fingerprint"
	"shapekey/internal/ident"
	"shapekey/internal/ndarray"
	"shapekey/internal/trace"
	"shapekey/internal/typecache"
	"shapekey/internal/typecode"
)

var (
	// ErrAlreadyInitialized is returned by a second call to Init.
	ErrAlreadyInitialized = errors.New("dispatch: already initialized")
	// ErrNotInitialized is returned by TypeofCode before Init.
	ErrNotInitialized = errors.New("dispatch: not initialized")
)

// Options configure a Dispatcher.
type Options struct {
	// Limit caps the encoded size of one fingerprint in bytes; 0 means no cap.
	Limit int
	// ScalarShortcut answers array scalars of a primitive element type
	// straight from the basic table instead of resolving them.
	ScalarShortcut bool
	// Tracer receives dispatch events; trace.Nop when nil.
	Tracer trace.Tracer
	// Types issues identity handles for buffer runtime types; ident.Default
	// when nil.
	Types *ident.Registry
	// Arena keeps retained type representations alive; a private arena when nil.
	Arena *typecode.Arena
}

// Dispatcher owns the fingerprint cache and the fast-path table.
type Dispatcher struct {
	basic    *typecode.Basic
	cache    *typecache.Cache
	table    *fasttable.Table
	tracer   trace.Tracer
	shortcut bool
}

// New creates a dispatcher. basic may be nil when ScalarShortcut is off.
func New(basic *typecode.Basic, opts Options) (*Dispatcher, error) {
	if opts.ScalarShortcut && basic == nil {
		return nil, errors.New("dispatch: scalar shortcut needs a basic typecode table")
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	types := opts.Types
	if types == nil {
		types = ident.Default
	}
	cache := typecache.New(typecache.Options{
		Encoder: &fingerprint.Encoder{Types: types, Limit: opts.Limit},
		Arena:   opts.Arena,
		Tracer:  tracer,
	})
	return &Dispatcher{
		basic:    basic,
		cache:    cache,
		table:    fasttable.New(cache, tracer),
		tracer:   tracer,
		shortcut: opts.ScalarShortcut,
	}, nil
}

// TypeofCode returns the typecode for v, calling r only when neither the
// table nor the cache knows the answer.
func (d *Dispatcher) TypeofCode(v any, r typecode.Resolver) (typecode.Code, error) {
	switch x := v.(type) {
	case *ndarray.Array:
		if x != nil && x.DType != nil {
			return d.table.ResolveArray(x, r)
		}
	case *ndarray.Scalar:
		if d.shortcut && x != nil && x.DType != nil {
			if code, ok := d.basic.Of(x.DType.Kind()); ok {
				return code, nil
			}
		}
	}
	return d.cache.Resolve(v, r)
}

// Basic returns the primitive typecode table, nil if none was given.
func (d *Dispatcher) Basic() *typecode.Basic { return d.basic }

// Cache exposes the fingerprint cache for inspection.
func (d *Dispatcher) Cache() *typecache.Cache { return d.cache }

// Table exposes the fast-path table for inspection.
func (d *Dispatcher) Table() *fasttable.Table { return d.table }

// Stats combines cache and table counters.
type Stats struct {
	Cache typecache.Stats `json:"cache"`
	Table fasttable.Stats `json:"table"`
}

// Stats returns current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{Cache: d.cache.Stats(), Table: d.table.Stats()}
}

var current atomic.Pointer[Dispatcher]

// Init installs the process-wide dispatcher. It succeeds once.
func Init(basic *typecode.Basic, opts Options) error {
	if basic == nil {
		return errors.New("dispatch: nil basic typecode table")
	}
	if current.Load() != nil {
		return ErrAlreadyInitialized
	}
	d, err := New(basic, opts)
	if err != nil {
		return err
	}
	if !current.CompareAndSwap(nil, d) {
		return ErrAlreadyInitialized
	}
	return nil
}

// Default returns the process-wide dispatcher, nil before Init.
func Default() *Dispatcher { return current.Load() }

// TypeofCode resolves v with the process-wide dispatcher.
func TypeofCode(v any, r typecode.Resolver) (typecode.Code, error) {
	d := current.Load()
	if d == nil {
		return typecode.Unresolved, ErrNotInitialized
	}
	return d.TypeofCode(v, r)
}
