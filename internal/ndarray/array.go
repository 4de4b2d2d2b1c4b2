// Package ndarray models the array library's primary buffer type and its
// zero-dimensional scalars. Only metadata is kept; element data is never
// needed to compute a value's shape.
package ndarray

import (
	"fmt"
	"slices"

	"shapekey/internal/dtype"
)

// Array is a rectangular multi-dimensional strided buffer.
type Array struct {
	DType    *dtype.DType
	Shape    []int
	Strides  []int // in bytes
	Writable bool
}

// New allocates array metadata with contiguous strides in the given order
// ('C' row-major, 'F' column-major).
func New(dt *dtype.DType, order byte, shape ...int) (*Array, error) {
	if dt == nil {
		return nil, fmt.Errorf("ndarray: nil dtype")
	}
	for i, n := range shape {
		if n < 0 {
			return nil, fmt.Errorf("ndarray: negative extent %d in dimension %d", n, i)
		}
	}
	strides := make([]int, len(shape))
	step := dt.ItemSize()
	switch order {
	case 'C':
		for i := len(shape) - 1; i >= 0; i-- {
			strides[i] = step
			step *= max(shape[i], 1)
		}
	case 'F':
		for i := range shape {
			strides[i] = step
			step *= max(shape[i], 1)
		}
	default:
		return nil, fmt.Errorf("ndarray: unknown order %q", order)
	}
	return &Array{
		DType:    dt,
		Shape:    slices.Clone(shape),
		Strides:  strides,
		Writable: true,
	}, nil
}

// MustNew is New that panics on error. Intended for tests and literals.
func MustNew(dt *dtype.DType, order byte, shape ...int) *Array {
	a, err := New(dt, order, shape...)
	if err != nil {
		panic(err)
	}
	return a
}

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.Shape) }

// Layout classifies the array's strides.
func (a *Array) Layout() Layout {
	return Classify(a.Shape, a.Strides, a.DType.ItemSize())
}

// Size returns the number of elements.
func (a *Array) Size() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

// Transpose returns a view with reversed axes.
func (a *Array) Transpose() *Array {
	v := a.view()
	slices.Reverse(v.Shape)
	slices.Reverse(v.Strides)
	return v
}

// Step returns a view that keeps every step-th element along axis.
func (a *Array) Step(axis, step int) (*Array, error) {
	if axis < 0 || axis >= a.Rank() {
		return nil, fmt.Errorf("ndarray: axis %d out of range for rank %d", axis, a.Rank())
	}
	if step <= 0 {
		return nil, fmt.Errorf("ndarray: step must be positive, got %d", step)
	}
	v := a.view()
	v.Shape[axis] = (a.Shape[axis] + step - 1) / step
	v.Strides[axis] *= step
	return v, nil
}

// ReadOnly returns a non-writable view.
func (a *Array) ReadOnly() *Array {
	v := a.view()
	v.Writable = false
	return v
}

func (a *Array) view() *Array {
	return &Array{
		DType:    a.DType,
		Shape:    slices.Clone(a.Shape),
		Strides:  slices.Clone(a.Strides),
		Writable: a.Writable,
	}
}

func (a *Array) String() string {
	return fmt.Sprintf("array(%s, %v, %s)", a.DType, a.Shape, a.Layout())
}

// Scalar is a zero-dimensional array-library scalar.
type Scalar struct {
	DType *dtype.DType
	Value any
}

// NewScalar wraps v as an array scalar of dt.
func NewScalar(dt *dtype.DType, v any) *Scalar {
	return &Scalar{DType: dt, Value: v}
}
