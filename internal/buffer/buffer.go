// Package buffer defines the generic buffer-introspection capability: any
// value that can export a strided view of its memory together with a
// struct-style format string.
//
// Acquisition is scoped. Every successful Acquire must be paired with
// exactly one View.Release.
package buffer

import (
	"errors"
	"sync/atomic"
)

// Flags select what the consumer requests from an exporter.
type Flags uint8

const (
	FlagND Flags = 1 << iota
	FlagStrides
	FlagFormat
	FlagWritable
)

// Request is the flag set used for shape introspection.
const Request = FlagND | FlagStrides | FlagFormat

var (
	// ErrNotWritable is returned when a writable view is requested from a read-only exporter.
	ErrNotWritable = errors.New("buffer: exporter is read-only")
	// ErrReleased is returned when an exporter is used after being closed.
	ErrReleased = errors.New("buffer: exporter closed")
)

// Exporter is implemented by values exposing the buffer capability.
type Exporter interface {
	Acquire(flags Flags) (*View, error)
}

// View is a borrowed description of an exporter's memory.
type View struct {
	Shape    []int
	Strides  []int
	ItemSize int
	Format   string
	ReadOnly bool

	release func()
	done    atomic.Bool
}

// NewView builds a view whose Release runs fn once.
func NewView(shape, strides []int, itemSize int, format string, readOnly bool, fn func()) *View {
	return &View{
		Shape:    shape,
		Strides:  strides,
		ItemSize: itemSize,
		Format:   format,
		ReadOnly: readOnly,
		release:  fn,
	}
}

// Rank returns the number of dimensions of the view.
func (v *View) Rank() int { return len(v.Shape) }

// Release returns the view to its exporter. Extra calls are no-ops.
func (v *View) Release() {
	if v == nil || !v.done.CompareAndSwap(false, true) {
		return
	}
	if v.release != nil {
		v.release()
	}
}

// exports counts outstanding views for an exporter.
type exports struct {
	n atomic.Int64
}

func (e *exports) acquire() func() {
	e.n.Add(1)
	return func() { e.n.Add(-1) }
}

// Outstanding reports how many views are currently acquired.
func (e *exports) Outstanding() int64 { return e.n.Load() }
