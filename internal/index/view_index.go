package index

import (
	"github.com/born-ml/strided/internal/dims"
	"github.com/born-ml/strided/internal/errs"
)

// ViewIndex is a cursor over one strided buffer.
//
// It is a value type: copies advance independently.
type ViewIndex struct {
	ndim      int
	memIndex  int
	fullIndex int
	volume    int
	coord     [MaxDims]int
	extent    [MaxDims]int
	stride    [MaxDims]int
}

// NewViewIndex creates a cursor over target. strides are aligned with
// target, see dims.Align. The cursor starts at the first element.
func NewViewIndex(target dims.Dimensions, strides dims.Strides) (ViewIndex, error) {
	ndim := target.NDim()
	if ndim > MaxDims {
		return ViewIndex{}, errs.Dimensionf("%s has more than %d dimensions", target, MaxDims)
	}
	if len(strides) != ndim {
		return ViewIndex{}, errs.Dimensionf("got %d strides for %s", len(strides), target)
	}
	v := ViewIndex{ndim: ndim, volume: target.Volume()}
	for d := 0; d < ndim; d++ {
		v.extent[d] = target.Size(ndim - 1 - d)
		v.stride[d] = strides[ndim-1-d]
	}
	return v, nil
}

// Increment advances to the next element.
func (v *ViewIndex) Increment() {
	v.memIndex += v.stride[0]
	v.coord[0]++
	v.fullIndex++
	if v.coord[0] == v.extent[0] {
		v.incrementOuter()
	}
}

func (v *ViewIndex) incrementOuter() {
	for d := 0; d+1 < v.ndim && v.coord[d] == v.extent[d]; d++ {
		v.memIndex += v.stride[d+1] - v.coord[d]*v.stride[d]
		v.coord[d] = 0
		v.coord[d+1]++
	}
}

// SetIndex moves to the logical flat index i, with 0 <= i <= volume.
func (v *ViewIndex) SetIndex(i int) {
	v.fullIndex = i
	if v.ndim == 0 {
		v.coord[0] = i
		v.memIndex = 0
		return
	}
	dims.CoordFromFlat(i, v.extent[:v.ndim], v.coord[:v.ndim])
	v.memIndex = dims.FlatOffset(v.stride[:v.ndim], v.coord[:v.ndim])
}

// SetToEnd moves one past the last element.
func (v *ViewIndex) SetToEnd() { v.SetIndex(v.volume) }

// Get returns the memory offset of the current element, relative to the
// view's offset.
func (v *ViewIndex) Get() int { return v.memIndex }

// Index returns the logical flat index of the current element.
func (v *ViewIndex) Index() int { return v.fullIndex }

// Equal reports whether both cursors are at the same logical position,
// regardless of the memory layout they walk.
func (v *ViewIndex) Equal(o *ViewIndex) bool { return v.fullIndex == o.fullIndex }
