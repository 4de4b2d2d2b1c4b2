// Package typecache maps value fingerprints to typecodes.
//
// The cache only grows. An entry, once stored, is never replaced or evicted:
// a typecode handed out for a fingerprint stays the answer for that
// fingerprint for the life of the process.
package typecache

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"shapekey/internal/fingerprint"
	"shapekey/internal/trace"
	"shapekey/internal/typecode"
)

// Options configure a Cache.
type Options struct {
	// Encoder computes fingerprints; fingerprint.Default when nil.
	Encoder *fingerprint.Encoder
	// Arena keeps retained type representations alive; a private arena when nil.
	Arena *typecode.Arena
	// Tracer receives miss, fallback and resolve events; trace.Nop when nil.
	Tracer trace.Tracer
}

type entry struct {
	key  fingerprint.Fingerprint
	code typecode.Code
}

// Cache is a fingerprint-keyed typecode table. It is safe for concurrent use.
type Cache struct {
	enc    *fingerprint.Encoder
	arena  *typecode.Arena
	tracer trace.Tracer

	mu      sync.RWMutex
	buckets map[uint64][]entry
	size    int

	flight  singleflight.Group
	writers sync.Pool

	hits     atomic.Uint64
	misses   atomic.Uint64
	uncached atomic.Uint64
}

// New creates an empty cache.
func New(opts Options) *Cache {
	c := &Cache{
		enc:     opts.Encoder,
		arena:   opts.Arena,
		tracer:  opts.Tracer,
		buckets: make(map[uint64][]entry, 256),
	}
	if c.enc == nil {
		c.enc = fingerprint.Default
	}
	if c.arena == nil {
		c.arena = &typecode.Arena{}
	}
	if c.tracer == nil {
		c.tracer = trace.Nop
	}
	c.writers.New = func() any { return new(fingerprint.Writer) }
	return c
}

// Writers point at their own inline buffer, so a stack Writer escapes.
// Pooling keeps the hit path free of allocations.
func (c *Cache) writer() *fingerprint.Writer {
	w := c.writers.Get().(*fingerprint.Writer)
	w.Reset(c.enc.Limit)
	return w
}

// Resolve returns the typecode for v, consulting r on a miss.
//
// Values without a fingerprint go straight to r in release mode and are
// never cached. On a miss r runs in retain mode and its answer is stored.
// Resolver errors are returned unmodified and leave the cache untouched.
func (c *Cache) Resolve(v any, r typecode.Resolver) (typecode.Code, error) {
	w := c.writer()
	if err := c.enc.Write(w, v); err != nil {
		c.writers.Put(w)
		if !errors.Is(err, fingerprint.ErrUnsupported) {
			return typecode.Unresolved, err
		}
		c.uncached.Add(1)
		if c.tracer.Enabled() {
			trace.Point(c.tracer, trace.ScopeCache, "cache.uncached", fmt.Sprintf("%T", v))
		}
		return typecode.Call(r, v, typecode.Release, nil)
	}

	key := w.Bytes()
	h := fingerprint.Hash(key)
	if code, ok := c.lookup(h, key); ok {
		c.writers.Put(w)
		c.hits.Add(1)
		if c.tracer.Enabled() {
			trace.Point(c.tracer, trace.ScopeLookup, "cache.hit", strconv.Itoa(int(code)))
		}
		return code, nil
	}
	fp := w.Fingerprint()
	c.writers.Put(w)
	return c.miss(v, r, h, fp)
}

// Lookup reports the stored typecode for v without resolving.
func (c *Cache) Lookup(v any) (typecode.Code, bool) {
	w := c.writer()
	defer c.writers.Put(w)
	if err := c.enc.Write(w, v); err != nil {
		return typecode.Unresolved, false
	}
	key := w.Bytes()
	return c.lookup(fingerprint.Hash(key), key)
}

func (c *Cache) miss(v any, r typecode.Resolver, h uint64, fp fingerprint.Fingerprint) (typecode.Code, error) {
	// Concurrent misses on one fingerprint share a single resolver call.
	res, err, _ := c.flight.Do(string(fp), func() (any, error) {
		if code, ok := c.lookupKey(h, fp); ok {
			c.hits.Add(1)
			return code, nil
		}
		c.misses.Add(1)
		traced := c.tracer.Enabled()
		if traced {
			trace.Point(c.tracer, trace.ScopeCache, "cache.miss", fp.String())
		}

		span := trace.Begin(c.tracer, trace.ScopeResolve, "resolve", 0)
		code, err := typecode.Call(r, v, typecode.Retain, c.arena)
		if err != nil {
			if traced {
				span.End("error: " + err.Error())
			}
			return typecode.Unresolved, err
		}
		code = c.store(h, fp, code)
		if traced {
			span.WithExtra("code", strconv.Itoa(int(code))).End(fp.String())
		}
		return code, nil
	})
	if err != nil {
		return typecode.Unresolved, err
	}
	return res.(typecode.Code), nil
}

func (c *Cache) lookup(h uint64, key []byte) (typecode.Code, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return find(c.buckets[h], key)
}

func (c *Cache) lookupKey(h uint64, key fingerprint.Fingerprint) (typecode.Code, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return find(c.buckets[h], key)
}

func find[K ~string | ~[]byte](bucket []entry, key K) (typecode.Code, bool) {
	for _, e := range bucket {
		if string(e.key) == string(key) {
			return e.code, true
		}
	}
	return typecode.Unresolved, false
}

// store inserts fp unless it is already present and returns the code that
// is now authoritative for fp.
func (c *Cache) store(h uint64, fp fingerprint.Fingerprint, code typecode.Code) typecode.Code {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := find(c.buckets[h], fp); ok {
		return existing
	}
	c.buckets[h] = append(c.buckets[h], entry{key: fp, code: code})
	c.size++
	return code
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Uncached uint64 `json:"uncached"`
	Entries  int    `json:"entries"`
	Buckets  int    `json:"buckets"`
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	entries, buckets := c.size, len(c.buckets)
	c.mu.RUnlock()
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Uncached: c.uncached.Load(),
		Entries:  entries,
		Buckets:  buckets,
	}
}

// Len returns the number of cached fingerprints.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Entry is one cached fingerprint and its typecode.
type Entry struct {
	Fingerprint fingerprint.Fingerprint
	Code        typecode.Code
}

// Entries returns all cached entries ordered by typecode, then fingerprint.
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	out := make([]Entry, 0, c.size)
	for _, bucket := range c.buckets {
		for _, e := range bucket {
			out = append(out, Entry{Fingerprint: e.key, Code: e.code})
		}
	}
	c.mu.RUnlock()
	slices.SortFunc(out, func(a, b Entry) int {
		if a.Code != b.Code {
			return int(a.Code) - int(b.Code)
		}
		switch {
		case a.Fingerprint < b.Fingerprint:
			return -1
		case a.Fingerprint > b.Fingerprint:
			return 1
		}
		return 0
	})
	return out
}
