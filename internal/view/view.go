// Package view provides typed windows onto strided buffers.
//
// Iterate views with All, Values or Begin/End. At and Set recompute the full
// coordinate on every call and are orders of magnitude slower; use them only
// where random access is really needed.
package view

import (
	"iter"
	"unsafe"

	"github.com/born-ml/strided/internal/dims"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/index"
)

// ElementArrayView is a typed read/write view of a buffer. It does not own
// the buffer.
type ElementArrayView[T any] struct {
	data   []T
	params index.ViewParams
}

// New creates a view of data described by params. params.Strides must be
// aligned with params.Dims.
func New[T any](data []T, params index.ViewParams) (ElementArrayView[T], error) {
	if len(params.Strides) != params.Dims.NDim() {
		return ElementArrayView[T]{}, errs.Dimensionf("got %d strides for %s", len(params.Strides), params.Dims)
	}
	begin, end := dims.MemoryBounds(params.Dims.Shape(), params.Strides)
	if begin < end && (params.Offset+begin < 0 || params.Offset+end > len(data)) {
		return ElementArrayView[T]{}, errs.Slicef("view %s at offset %d exceeds buffer of %d elements",
			params.Dims, params.Offset, len(data))
	}
	return ElementArrayView[T]{data: data, params: params}, nil
}

// Contiguous creates a row-major view of all of data.
func Contiguous[T any](data []T, d dims.Dimensions) (ElementArrayView[T], error) {
	return New(data, index.ViewParams{Dims: d, Strides: dims.ContiguousStrides(d)})
}

// Params returns the layout of the view.
func (v ElementArrayView[T]) Params() index.ViewParams { return v.params }

// Dims returns the iteration dimensions.
func (v ElementArrayView[T]) Dims() dims.Dimensions { return v.params.Dims }

// Len returns the number of elements.
func (v ElementArrayView[T]) Len() int { return v.params.Dims.Volume() }

// Buffer returns the underlying buffer, not just the viewed elements.
func (v ElementArrayView[T]) Buffer() []T { return v.data }

// Reshape returns a view of the same elements iterated over target.
// Dimensions of target missing in v are broadcast. A dimension in both must
// not be larger in target, which would read past the viewed elements.
func (v ElementArrayView[T]) Reshape(target dims.Dimensions) (ElementArrayView[T], error) {
	strides, err := dims.Align(v.params.Dims, v.params.Strides, target)
	if err != nil {
		return ElementArrayView[T]{}, err
	}
	p := v.params
	p.Dims = target
	p.Strides = strides
	return ElementArrayView[T]{data: v.data, params: p}, nil
}

// Slice restricts dim to the range [begin, end).
func (v ElementArrayView[T]) Slice(dim dims.Dim, begin, end int) (ElementArrayView[T], error) {
	i := v.params.Dims.Index(dim)
	if i < 0 {
		return ElementArrayView[T]{}, errs.Dimensionf("expected dimension %s in %s", dim, v.params.Dims)
	}
	if begin < 0 || begin > end || end > v.params.Dims.Size(i) {
		return ElementArrayView[T]{}, errs.Slicef("range [%d, %d) outside %s", begin, end, v.params.Dims)
	}
	d, err := v.params.Dims.Resize(dim, end-begin)
	if err != nil {
		return ElementArrayView[T]{}, err
	}
	p := v.params
	p.Offset += begin * p.Strides[i]
	p.Dims = d
	return ElementArrayView[T]{data: v.data, params: p}, nil
}

// At returns the element at logical index i. Slow, see the package doc.
func (v ElementArrayView[T]) At(i int) T {
	return v.data[v.offsetOf(i)]
}

// Set stores x at logical index i. Slow, see the package doc.
func (v ElementArrayView[T]) Set(i int, x T) {
	v.data[v.offsetOf(i)] = x
}

func (v ElementArrayView[T]) offsetOf(i int) int {
	it := v.cursor()
	it.SetIndex(i)
	return v.params.Offset + it.Get()
}

func (v ElementArrayView[T]) cursor() index.ViewIndex {
	it, err := index.NewViewIndex(v.params.Dims, v.params.Strides)
	if err != nil {
		// New validated the layout.
		panic(err)
	}
	return it
}

// Begin returns an iterator at the first element.
func (v ElementArrayView[T]) Begin() Iterator[T] {
	return Iterator[T]{data: v.data, offset: v.params.Offset, index: v.cursor()}
}

// End returns an iterator one past the last element.
func (v ElementArrayView[T]) End() Iterator[T] {
	it := v.Begin()
	it.index.SetToEnd()
	return it
}

// All yields every element with its logical index, in row-major order.
func (v ElementArrayView[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		end := v.End()
		for it := v.Begin(); !it.Equal(end); it.Next() {
			if !yield(it.Index(), it.Get()) {
				return
			}
		}
	}
}

// Values yields every element in row-major order.
func (v ElementArrayView[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, x := range v.All() {
			if !yield(x) {
				return
			}
		}
	}
}

// Collect copies the viewed elements into a new slice.
func (v ElementArrayView[T]) Collect() []T {
	out := make([]T, 0, v.Len())
	for x := range v.Values() {
		out = append(out, x)
	}
	return out
}

// Overlaps reports whether writing through v may change elements read
// through o. Identical views are defined not to overlap: reading and writing
// the same element at the same position is not a hazard.
func (v ElementArrayView[T]) Overlaps(o ElementArrayView[T]) bool {
	if len(v.data) == 0 || len(o.data) == 0 || unsafe.SliceData(v.data) != unsafe.SliceData(o.data) {
		return false
	}
	return Overlaps(v.params, o.params)
}

// Overlaps reports whether two layouts over the same buffer touch a common
// memory range. Identical layouts do not overlap.
func Overlaps(a, b index.ViewParams) bool {
	if a.Identical(b) {
		return false
	}
	aBegin, aEnd := dims.MemoryBounds(a.Dims.Shape(), a.Strides)
	bBegin, bEnd := dims.MemoryBounds(b.Dims.Shape(), b.Strides)
	if aBegin == aEnd || bBegin == bEnd {
		return false
	}
	aBegin, aEnd = aBegin+a.Offset, aEnd+a.Offset
	bBegin, bEnd = bBegin+b.Offset, bEnd+b.Offset
	return aBegin < bEnd && bBegin < aEnd
}

// Iterator walks an ElementArrayView forwards.
type Iterator[T any] struct {
	data   []T
	offset int
	index  index.ViewIndex
}

// Get returns the current element.
func (it *Iterator[T]) Get() T { return it.data[it.offset+it.index.Get()] }

// Set stores x at the current element.
func (it *Iterator[T]) Set(x T) { it.data[it.offset+it.index.Get()] = x }

// Index returns the logical index of the current element.
func (it *Iterator[T]) Index() int { return it.index.Index() }

// Next advances to the next element.
func (it *Iterator[T]) Next() { it.index.Increment() }

// Equal reports whether both iterators are at the same logical position.
func (it *Iterator[T]) Equal(o Iterator[T]) bool { return it.index.Equal(&o.index) }
