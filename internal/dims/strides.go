package dims

import (
	"slices"

	"github.com/born-ml/strided/internal/errs"
)

// Strides holds one memory step per dimension, in the order of the
// Dimensions they belong to. A stride of 0 broadcasts the dimension.
type Strides []int

// Clone returns a copy of the strides.
func (s Strides) Clone() Strides { return slices.Clone(s) }

// ContiguousStrides returns row-major strides for d.
// The innermost dimension has stride 1.
func ContiguousStrides(d Dimensions) Strides {
	strides := make(Strides, d.NDim())
	step := 1
	for i := d.NDim() - 1; i >= 0; i-- {
		strides[i] = step
		step *= d.shape[i]
	}
	return strides
}

// Align returns the strides needed to iterate target over data laid out as
// src with srcStrides. Dimensions of target missing in src broadcast with
// stride 0. A dimension present in both must not be smaller in src than in
// target, otherwise iterating target would read out of bounds.
func Align(src Dimensions, srcStrides Strides, target Dimensions) (Strides, error) {
	if len(srcStrides) != src.NDim() {
		return nil, errs.Dimensionf("got %d strides for %s", len(srcStrides), src)
	}
	out := make(Strides, target.NDim())
	for i, label := range target.labels {
		j := src.Index(label)
		if j < 0 {
			continue
		}
		if src.shape[j] < target.shape[i] {
			return nil, errs.Dimensionf("cannot view %s as %s: %s has extent %d < %d",
				src, target, label, src.shape[j], target.shape[i])
		}
		out[i] = srcStrides[j]
	}
	return out, nil
}

// FlatOffset returns the memory offset of coord: the sum of
// strides[d]*coord[d]. It is 0 for zero dimensions.
func FlatOffset(strides, coord []int) int {
	offset := 0
	for d := range coord {
		offset += strides[d] * coord[d]
	}
	return offset
}

// MemoryBounds returns the half-open interval [begin, end) of offsets,
// relative to the view's own offset, touched by a view with the given shape
// and strides. A scalar touches exactly one element. A view with a
// zero-extent dimension touches nothing.
func MemoryBounds(shape, strides []int) (begin, end int) {
	end = 1
	for d, n := range shape {
		if n == 0 {
			return 0, 0
		}
		step := strides[d] * (n - 1)
		if step < 0 {
			begin += step
		} else {
			end += step
		}
	}
	return begin, end
}

// CoordFromFlat writes into coord the coordinate of the flat logical index.
// shape is ordered fastest-varying first. A zero extent yields coordinate 0.
// For flat equal to the volume the result is the end coordinate: all zero
// except the last entry, which equals its extent. Indices beyond the volume
// are not supported.
func CoordFromFlat(flat int, shape, coord []int) {
	n := len(shape)
	if n == 0 {
		return
	}
	for d := 0; d < n-1; d++ {
		if shape[d] == 0 {
			coord[d] = 0
			continue
		}
		coord[d] = flat % shape[d]
		flat /= shape[d]
	}
	coord[n-1] = flat
}
