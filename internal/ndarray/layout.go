package ndarray

// Layout is the contiguity class of a strided buffer. The numeric values are
// the layout axis of the fast-path table.
type Layout uint8

const (
	LayoutAny Layout = iota // arbitrary strides
	LayoutC                 // row-major contiguous
	LayoutF                 // column-major contiguous
)

// NumLayouts is the number of layout classes.
const NumLayouts = 3

// Code returns the single-byte tag written into fingerprints.
func (l Layout) Code() byte {
	switch l {
	case LayoutC:
		return 'C'
	case LayoutF:
		return 'F'
	default:
		return 'A'
	}
}

func (l Layout) String() string { return string(l.Code()) }

// Classify returns the layout class of a strided buffer. Row-major
// contiguity is tested first, so buffers that are both (one element,
// zero-size, or rank one) classify as LayoutC.
func Classify(shape, strides []int, itemSize int) Layout {
	if IsCContiguous(shape, strides, itemSize) {
		return LayoutC
	}
	if IsFContiguous(shape, strides, itemSize) {
		return LayoutF
	}
	return LayoutAny
}

// IsCContiguous reports row-major contiguity. Dimensions of extent one are
// skipped and zero-size buffers are contiguous.
func IsCContiguous(shape, strides []int, itemSize int) bool {
	if len(strides) != len(shape) {
		return len(strides) == 0
	}
	if isEmpty(shape) {
		return true
	}
	want := itemSize
	for i := len(shape) - 1; i >= 0; i-- {
		if shape[i] == 1 {
			continue
		}
		if strides[i] != want {
			return false
		}
		want *= shape[i]
	}
	return true
}

// IsFContiguous reports column-major contiguity with the same relaxations as
// IsCContiguous.
func IsFContiguous(shape, strides []int, itemSize int) bool {
	if len(strides) != len(shape) {
		return len(strides) == 0
	}
	if isEmpty(shape) {
		return true
	}
	want := itemSize
	for i := range shape {
		if shape[i] == 1 {
			continue
		}
		if strides[i] != want {
			return false
		}
		want *= shape[i]
	}
	return true
}

func isEmpty(shape []int) bool {
	for _, n := range shape {
		if n == 0 {
			return true
		}
	}
	return false
}
