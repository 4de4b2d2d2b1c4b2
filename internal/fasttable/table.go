// Package fasttable is the dispatch shortcut for plain arrays: a fixed grid
// of typecodes indexed by rank, layout and primitive element type.
package fasttable

import (
	"strconv"
	"sync/atomic"

	"shapekey/internal/dtype"
	"shapekey/internal/ndarray"
	"shapekey/internal/trace"
	"shapekey/internal/typecache"
	"shapekey/internal/typecode"
)

// MaxRank is the highest rank the grid covers.
const MaxRank = 5

// Table caches typecodes for arrays of rank 1..MaxRank with one of the
// twelve primitive element types. Cells start unresolved and are written at
// most once.
type Table struct {
	cells  [MaxRank][ndarray.NumLayouts][dtype.NumPrimitives]atomic.Int32
	cache  *typecache.Cache
	tracer trace.Tracer

	hits      atomic.Uint64
	fills     atomic.Uint64
	delegated atomic.Uint64
}

// New creates a table whose unresolved cells and out-of-range arrays are
// served by cache.
func New(cache *typecache.Cache, tracer trace.Tracer) *Table {
	if tracer == nil {
		tracer = trace.Nop
	}
	t := &Table{cache: cache, tracer: tracer}
	for r := range t.cells {
		for l := range t.cells[r] {
			for d := range t.cells[r][l] {
				t.cells[r][l][d].Store(int32(typecode.Unresolved))
			}
		}
	}
	return t
}

// Key addresses one cell.
type Key struct {
	Rank   int
	Layout ndarray.Layout
	Elem   dtype.Kind
}

func (k Key) String() string {
	return strconv.Itoa(k.Rank) + "d/" + k.Layout.String() + "/" + k.Elem.String()
}

// KeyOf returns the cell key for a, or false when a is not served by the grid.
// Read-only arrays are excluded: the grid has no mutability axis while the
// fingerprint of a read-only array differs from its writable twin.
func KeyOf(a *ndarray.Array) (Key, bool) {
	rank := a.Rank()
	if rank < 1 || rank > MaxRank || !a.Writable || a.DType == nil {
		return Key{}, false
	}
	kind := a.DType.Kind()
	if dtype.PrimitiveIndex(kind) < 0 {
		return Key{}, false
	}
	return Key{Rank: rank, Layout: a.Layout(), Elem: kind}, true
}

func (t *Table) cell(k Key) *atomic.Int32 {
	return &t.cells[k.Rank-1][k.Layout][dtype.PrimitiveIndex(k.Elem)]
}

// ResolveArray returns the typecode for a. Arrays outside the grid go
// through the fingerprint cache. An unresolved cell is filled from the cache
// so both paths agree on the code for a given array shape class.
func (t *Table) ResolveArray(a *ndarray.Array, r typecode.Resolver) (typecode.Code, error) {
	k, ok := KeyOf(a)
	if !ok {
		t.delegated.Add(1)
		if t.tracer.Enabled() {
			trace.Point(t.tracer, trace.ScopeLookup, "table.delegate", a.String())
		}
		return t.cache.Resolve(a, r)
	}
	c := t.cell(k)
	if code := c.Load(); code >= 0 {
		t.hits.Add(1)
		return typecode.Code(code), nil
	}

	code, err := t.cache.Resolve(a, r)
	if err != nil {
		return typecode.Unresolved, err
	}
	if !c.CompareAndSwap(int32(typecode.Unresolved), int32(code)) {
		// Another goroutine filled the cell first; its value stands.
		return typecode.Code(c.Load()), nil
	}
	t.fills.Add(1)
	if t.tracer.Enabled() {
		trace.Point(t.tracer, trace.ScopeCache, "table.fill", k.String()+" = "+strconv.Itoa(int(code)))
	}
	return code, nil
}

// Cell returns the stored typecode for k, Unresolved when the cell is empty
// or k lies outside the grid.
func (t *Table) Cell(k Key) typecode.Code {
	if k.Rank < 1 || k.Rank > MaxRank || k.Layout >= ndarray.NumLayouts || dtype.PrimitiveIndex(k.Elem) < 0 {
		return typecode.Unresolved
	}
	return typecode.Code(t.cell(k).Load())
}

// Filled returns the number of resolved cells.
func (t *Table) Filled() int {
	n := 0
	for r := range t.cells {
		for l := range t.cells[r] {
			for d := range t.cells[r][l] {
				if t.cells[r][l][d].Load() >= 0 {
					n++
				}
			}
		}
	}
	return n
}

// Stats is a snapshot of table counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Fills     uint64 `json:"fills"`
	Delegated uint64 `json:"delegated"`
	Filled    int    `json:"filled"`
}

// Stats returns current counters.
func (t *Table) Stats() Stats {
	return Stats{
		Hits:      t.hits.Load(),
		Fills:     t.fills.Load(),
		Delegated: t.delegated.Load(),
		Filled:    t.Filled(),
	}
}
