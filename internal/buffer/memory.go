package buffer

import (
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
)

// Memory is a memoryview-like exporter over an arbitrary strided region.
type Memory struct {
	exports

	Shape    []int
	Strides  []int
	ItemSize int
	Format   string
	ReadOnly bool
}

// NewMemory describes a contiguous row-major region.
func NewMemory(format string, itemSize int, readOnly bool, shape ...int) *Memory {
	strides := make([]int, len(shape))
	step := itemSize
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = step
		step *= max(shape[i], 1)
	}
	return &Memory{
		Shape:    slices.Clone(shape),
		Strides:  strides,
		ItemSize: itemSize,
		Format:   format,
		ReadOnly: readOnly,
	}
}

// Acquire implements Exporter.
func (m *Memory) Acquire(flags Flags) (*View, error) {
	if flags&FlagWritable != 0 && m.ReadOnly {
		return nil, ErrNotWritable
	}
	if len(m.Strides) != len(m.Shape) {
		return nil, fmt.Errorf("buffer: %d strides for rank %d", len(m.Strides), len(m.Shape))
	}
	format := m.Format
	if flags&FlagFormat == 0 {
		format = ""
	}
	return NewView(slices.Clone(m.Shape), slices.Clone(m.Strides), m.ItemSize, format, m.ReadOnly, m.acquire()), nil
}

// Typed is a one-dimensional, always-writable typed array exporter.
type Typed struct {
	exports

	Code byte
	Len  int

	closed atomic.Bool
}

var typedSizes = map[byte]int{
	'b': 1, 'B': 1, 'h': 2, 'H': 2, 'i': 4, 'I': 4,
	'l': 8, 'L': 8, 'q': 8, 'Q': 8, 'f': 4, 'd': 8,
}

// NewTyped builds a typed array with the given element code.
func NewTyped(code byte, n int) (*Typed, error) {
	if _, ok := typedSizes[code]; !ok {
		return nil, fmt.Errorf("buffer: bad typecode %q, must be one of %s", code, typedCodes())
	}
	return &Typed{Code: code, Len: n}, nil
}

// Close invalidates the exporter; further acquisitions fail.
func (t *Typed) Close() { t.closed.Store(true) }

// Acquire implements Exporter.
func (t *Typed) Acquire(Flags) (*View, error) {
	if t.closed.Load() {
		return nil, ErrReleased
	}
	size := typedSizes[t.Code]
	return NewView([]int{t.Len}, []int{size}, size, string(t.Code), false, t.acquire()), nil
}

func typedCodes() string {
	codes := make([]string, 0, len(typedSizes))
	for c := range typedSizes {
		codes = append(codes, string(c))
	}
	slices.Sort(codes)
	return strings.Join(codes, "")
}
