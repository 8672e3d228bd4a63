// Package index converts logical iteration positions into memory offsets.
//
// ViewIndex walks a single strided buffer. MultiIndex walks up to MaxArgs
// buffers in lockstep over one shared iteration space and also handles
// binned operands, whose innermost extent changes from bin to bin.
//
// Internally both cursors store dimensions fastest-varying first, the
// reverse of dims.Dimensions.
package index

import (
	"slices"

	"github.com/born-ml/strided/internal/dims"
	"github.com/born-ml/strided/internal/dtype"
)

const (
	// MaxDims is the maximum number of iteration dimensions of a cursor,
	// counting the dimensions of bin contents.
	MaxDims = 8
	// MaxArgs is the maximum number of operands of a MultiIndex.
	MaxArgs = 5
)

// BinParams describes the buffer behind a binned operand. Each element of
// the operand is an IndexPair selecting the range [Begin, End) of the buffer
// along Dim.
type BinParams struct {
	Dim           dims.Dim
	BufferDims    dims.Dimensions
	BufferStrides dims.Strides
	BufferOffset  int
	Indices       []dtype.IndexPair
}

// ViewParams describes how one operand is laid out in memory.
//
// For a dense operand Offset and Strides address its values. For a binned
// operand they address the index pairs in Bins.Indices instead.
type ViewParams struct {
	Offset  int
	Dims    dims.Dimensions
	Strides dims.Strides
	Bins    *BinParams
}

// Identical reports whether p and o address exactly the same elements in the
// same order.
func (p ViewParams) Identical(o ViewParams) bool {
	if p.Offset != o.Offset || !p.Dims.Equal(o.Dims) || !slices.Equal(p.Strides, o.Strides) {
		return false
	}
	if p.Bins == nil || o.Bins == nil {
		return p.Bins == o.Bins
	}
	return p.Bins.Dim == o.Bins.Dim &&
		p.Bins.BufferOffset == o.Bins.BufferOffset &&
		p.Bins.BufferDims.Equal(o.Bins.BufferDims) &&
		slices.Equal(p.Bins.BufferStrides, o.Bins.BufferStrides)
}
