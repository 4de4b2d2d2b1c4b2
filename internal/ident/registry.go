package ident

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// Handle is an opaque, process-lifetime-stable identity token.
// Handles are never reused; NoHandle marks the absence of an identity.
type Handle uint64

// NoHandle is the zero handle.
const NoHandle Handle = 0

// Registry issues stable handles for comparable keys by interning them.
type Registry struct {
	mu    sync.RWMutex
	index map[any]Handle
	keys  []any
}

// NewRegistry constructs an empty registry. Slot 0 is reserved for NoHandle.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[any]Handle, 64),
		keys:  []any{nil},
	}
}

// Default is the process-wide registry used for dtype and runtime-type identity.
var Default = NewRegistry()

// Intern returns the handle for key, issuing a new one on first sight.
// key must be comparable.
func (r *Registry) Intern(key any) Handle {
	if key == nil {
		return NoHandle
	}
	r.mu.RLock()
	h, ok := r.index[key]
	r.mu.RUnlock()
	if ok {
		return h
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.index[key]; ok {
		return h
	}
	n, err := safecast.Conv[uint64](len(r.keys))
	if err != nil {
		panic(fmt.Errorf("identity registry overflow: %w", err))
	}
	h = Handle(n)
	r.keys = append(r.keys, key)
	r.index[key] = h
	return h
}

// Fresh issues a handle that is not bound to any key. Each call yields a new handle.
func (r *Registry) Fresh() Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, err := safecast.Conv[uint64](len(r.keys))
	if err != nil {
		panic(fmt.Errorf("identity registry overflow: %w", err))
	}
	r.keys = append(r.keys, nil)
	return Handle(n)
}

// Lookup returns the key bound to h, if any.
func (r *Registry) Lookup(h Handle) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h == NoHandle || uint64(h) >= uint64(len(r.keys)) {
		return nil, false
	}
	key := r.keys[h]
	return key, key != nil
}

// Len reports how many handles were issued.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys) - 1
}
