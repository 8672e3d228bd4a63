package view

import (
	"iter"

	"github.com/born-ml/strided/internal/dims"
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/index"
)

// BinView is a view of bins. Element i is not a scalar but the sub-view of
// the shared buffer selected by the i-th index pair along the bin dimension.
type BinView[T any] struct {
	indices ElementArrayView[dtype.IndexPair]
	dim     dims.Dim
	buffer  ElementArrayView[T]
}

// NewBinView creates a view of the bins selected by indices. Every index
// pair must lie within the extent of dim in buffer.
func NewBinView[T any](indices ElementArrayView[dtype.IndexPair], dim dims.Dim, buffer ElementArrayView[T]) (BinView[T], error) {
	extent, err := buffer.Dims().Extent(dim)
	if err != nil {
		return BinView[T]{}, err
	}
	for i, p := range indices.All() {
		if p.Begin < 0 || p.Begin > p.End || p.End > extent {
			return BinView[T]{}, errs.Slicef("bin %d has range [%d, %d) outside %s", i, p.Begin, p.End, buffer.Dims())
		}
	}
	return BinView[T]{indices: indices, dim: dim, buffer: buffer}, nil
}

// Dims returns the dimensions of the bins, not of their contents.
func (b BinView[T]) Dims() dims.Dimensions { return b.indices.Dims() }

// Dim returns the dimension of the buffer that bins slice.
func (b BinView[T]) Dim() dims.Dim { return b.dim }

// Len returns the number of bins.
func (b BinView[T]) Len() int { return b.indices.Len() }

// Indices returns the view of index pairs.
func (b BinView[T]) Indices() ElementArrayView[dtype.IndexPair] { return b.indices }

// At returns the contents of bin i. Slow, see the package doc.
func (b BinView[T]) At(i int) ElementArrayView[T] {
	return b.bin(b.indices.At(i))
}

func (b BinView[T]) bin(p dtype.IndexPair) ElementArrayView[T] {
	v, err := b.buffer.Slice(b.dim, p.Begin, p.End)
	if err != nil {
		// NewBinView validated every range.
		panic(err)
	}
	return v
}

// All yields the contents of every bin with the bin's logical index.
func (b BinView[T]) All() iter.Seq2[int, ElementArrayView[T]] {
	return func(yield func(int, ElementArrayView[T]) bool) {
		for i, p := range b.indices.All() {
			if !yield(i, b.bin(p)) {
				return
			}
		}
	}
}

// Elements yields every element of every bin, bin after bin. Empty bins
// contribute nothing.
func (b BinView[T]) Elements() iter.Seq[T] {
	return func(yield func(T) bool) {
		bp := b.buffer.Params()
		ip := b.indices.Params()
		m, err := index.NewMultiIndex(ip.Dims, index.ViewParams{
			Offset:  ip.Offset,
			Dims:    ip.Dims,
			Strides: ip.Strides,
			Bins: &index.BinParams{
				Dim:           b.dim,
				BufferDims:    bp.Dims,
				BufferStrides: bp.Strides,
				BufferOffset:  bp.Offset,
				Indices:       b.indices.Buffer(),
			},
		})
		if err != nil {
			panic(err)
		}
		end := m
		end.SetToEnd()
		data := b.buffer.Buffer()
		for ; !m.Equal(&end); m.Increment() {
			if !yield(data[m.Get(0)]) {
				return
			}
		}
	}
}
