package index

import (
	"github.com/born-ml/strided/internal/dims"
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
)

// MultiIndex walks several operands in lockstep over one iteration space and
// yields one memory offset per operand.
//
// Dense operands are addressed with strides; a stride of 0 broadcasts. When
// at least one operand is binned, the iteration space is the bin contents
// (inner dimensions) nested inside the dimensions of the index pairs (outer
// dimensions). The extent of the bin dimension is reloaded whenever the
// cursor enters a new bin, and empty bins are skipped.
//
// MultiIndex is a value type. Copies advance independently, which is how the
// engine gives each parallel chunk its own cursor.
type MultiIndex struct {
	nargs     int
	ndim      int
	innerNdim int // 0 in dense mode
	nestedDim int // position of the bin dimension among the inner dims
	volume    int // elements in dense mode, bins in binned mode

	// flat is the logical element index in dense mode and the bin index in
	// binned mode.
	flat int

	shape  [MaxDims]int
	coord  [MaxDims]int
	stride [MaxDims][MaxArgs]int
	base   [MaxArgs]int
	data   [MaxArgs]int

	// outer is the position of each operand at the current outer coordinate:
	// an index into bins[k].indices for binned operands, a data offset for
	// dense ones. Only used in binned mode.
	outer [MaxArgs]int
	bins  [MaxArgs]binState

	err error
}

type binState struct {
	indices   []dtype.IndexPair // nil for dense operands
	base      int
	binStride int
}

// NewMultiIndex creates a cursor over iter for the given operands and
// positions it at the first element. If any operand has bin parameters the
// cursor iterates bin contents, otherwise it iterates iter directly.
func NewMultiIndex(iter dims.Dimensions, params ...ViewParams) (MultiIndex, error) {
	if len(params) == 0 || len(params) > MaxArgs {
		return MultiIndex{}, errs.Dimensionf("expected 1 to %d operands, got %d", MaxArgs, len(params))
	}
	for _, p := range params {
		if p.Bins != nil {
			return newBinned(iter, params)
		}
	}
	return newDense(iter, params)
}

func newDense(iter dims.Dimensions, params []ViewParams) (MultiIndex, error) {
	m := MultiIndex{nargs: len(params), volume: iter.Volume()}
	strides := make([]dims.Strides, len(params))
	for k, p := range params {
		s, err := dims.Align(p.Dims, p.Strides, iter)
		if err != nil {
			return MultiIndex{}, err
		}
		strides[k] = s
		m.base[k] = p.Offset
	}

	// Extent-1 dims are dropped and dims that are contiguous with their inner
	// neighbour for every operand are folded into it, so the innermost run is
	// as long as possible.
	n := 0
	for i := iter.NDim() - 1; i >= 0; i-- {
		extent := iter.Size(i)
		if extent == 1 {
			continue
		}
		if n > 0 && m.contiguous(n-1, strides, i) {
			m.shape[n-1] *= extent
			continue
		}
		if n == MaxDims {
			return MultiIndex{}, errs.Dimensionf("%s has too many non-contiguous dimensions", iter)
		}
		m.shape[n] = extent
		for k := range strides {
			m.stride[n][k] = strides[k][i]
		}
		n++
	}
	switch {
	case m.volume == 0:
		n = 1
		m.shape[0] = 0
		m.stride[0] = [MaxArgs]int{}
	case n == 0:
		n = 1
		m.shape[0] = 1
	}
	m.ndim = n
	m.SetIndex(0)
	return m, nil
}

func (m *MultiIndex) contiguous(inner int, strides []dims.Strides, outer int) bool {
	for k := range strides {
		if strides[k][outer] != m.stride[inner][k]*m.shape[inner] {
			return false
		}
	}
	return true
}

func newBinned(iter dims.Dimensions, params []ViewParams) (MultiIndex, error) {
	var first *BinParams
	for _, p := range params {
		if p.Bins != nil {
			first = p.Bins
			break
		}
	}
	inner := first.BufferDims
	nested := inner.Index(first.Dim)
	if nested < 0 {
		return MultiIndex{}, errs.Dimensionf("bin dimension %s not in buffer %s", first.Dim, inner)
	}
	outerNdim := max(iter.NDim(), 1)
	m := MultiIndex{
		nargs:     len(params),
		innerNdim: inner.NDim(),
		ndim:      inner.NDim() + outerNdim,
		nestedDim: inner.NDim() - 1 - nested,
		volume:    iter.Volume(),
	}
	if m.ndim > MaxDims {
		return MultiIndex{}, errs.Dimensionf("%s with bins over %s has more than %d dimensions", iter, inner, MaxDims)
	}
	for d := 0; d < m.innerNdim; d++ {
		m.shape[d] = inner.Size(m.innerNdim - 1 - d)
	}
	m.shape[m.innerNdim] = 1
	for j := 0; j < iter.NDim(); j++ {
		m.shape[m.innerNdim+j] = iter.Size(iter.NDim() - 1 - j)
	}

	for k, p := range params {
		outerStrides, err := dims.Align(p.Dims, p.Strides, iter)
		if err != nil {
			return MultiIndex{}, err
		}
		for j := range outerStrides {
			m.stride[m.innerNdim+j][k] = outerStrides[len(outerStrides)-1-j]
		}
		m.base[k] = p.Offset
		if p.Bins == nil {
			continue
		}
		if p.Bins.Dim != first.Dim {
			return MultiIndex{}, errs.BinnedDataf("operands are binned along %s and %s", first.Dim, p.Bins.Dim)
		}
		for d := 0; d < m.innerNdim; d++ {
			label := inner.Label(m.innerNdim - 1 - d)
			j := p.Bins.BufferDims.Index(label)
			if j < 0 || p.Bins.BufferDims.NDim() != m.innerNdim {
				return MultiIndex{}, errs.Dimensionf("bin contents %s and %s do not match", inner, p.Bins.BufferDims)
			}
			if label != first.Dim && p.Bins.BufferDims.Size(j) != m.shape[d] {
				return MultiIndex{}, errs.Dimensionf("bin contents %s and %s do not match", inner, p.Bins.BufferDims)
			}
			m.stride[d][k] = p.Bins.BufferStrides[j]
		}
		m.bins[k] = binState{
			indices:   p.Bins.Indices,
			base:      p.Bins.BufferOffset,
			binStride: m.stride[m.nestedDim][k],
		}
	}
	if err := m.checkTotalSizes(); err != nil {
		return MultiIndex{}, err
	}
	m.SetIndex(0)
	return m, nil
}

// checkTotalSizes rejects binned operands whose bins do not add up to the
// same number of elements. Mismatches confined to individual bins are only
// found during traversal.
func (m *MultiIndex) checkTotalSizes() error {
	outerShape := m.shape[m.innerNdim:m.ndim]
	coord := make([]int, len(outerShape))
	firstArg, firstTotal := -1, 0
	for k := 0; k < m.nargs; k++ {
		if m.bins[k].indices == nil {
			continue
		}
		total := 0
		for i := 0; i < m.volume; i++ {
			dims.CoordFromFlat(i, outerShape, coord)
			total += m.bins[k].indices[m.outerOffset(k, coord)].Len()
		}
		if firstArg < 0 {
			firstArg, firstTotal = k, total
		} else if total != firstTotal {
			return errs.BinnedDataf("operand %d holds %d binned elements but operand %d holds %d",
				firstArg, firstTotal, k, total)
		}
	}
	return nil
}

func (m *MultiIndex) outerOffset(k int, coord []int) int {
	offset := m.base[k]
	for j, c := range coord {
		offset += c * m.stride[m.innerNdim+j][k]
	}
	return offset
}

// Increment advances to the next element.
func (m *MultiIndex) Increment() {
	for k := 0; k < m.nargs; k++ {
		m.data[k] += m.stride[0][k]
	}
	m.coord[0]++
	if m.innerNdim == 0 {
		m.flat++
	}
	if m.coord[0] == m.shape[0] {
		m.incrementOuter()
	}
}

// IncrementBy advances n elements along the innermost dimension. n must not
// exceed RunLength.
func (m *MultiIndex) IncrementBy(n int) {
	for k := 0; k < m.nargs; k++ {
		m.data[k] += n * m.stride[0][k]
	}
	m.coord[0] += n
	if m.innerNdim == 0 {
		m.flat += n
	}
	if m.coord[0] == m.shape[0] {
		m.incrementOuter()
	}
}

func (m *MultiIndex) incrementOuter() {
	last := m.ndim
	if m.innerNdim > 0 {
		last = m.innerNdim
	}
	for d := 0; d+1 < last && m.coord[d] == m.shape[d]; d++ {
		for k := 0; k < m.nargs; k++ {
			m.data[k] += m.stride[d+1][k] - m.coord[d]*m.stride[d][k]
		}
		m.coord[d] = 0
		m.coord[d+1]++
	}
	if m.innerNdim > 0 && m.coord[last-1] == m.shape[last-1] {
		m.nextBin()
	}
}

// nextBin moves to the next non-empty bin, or to the end.
func (m *MultiIndex) nextBin() {
	for {
		for d := 0; d < m.innerNdim; d++ {
			m.coord[d] = 0
		}
		d := m.innerNdim
		for k := 0; k < m.nargs; k++ {
			m.outer[k] += m.stride[d][k]
		}
		m.coord[d]++
		for ; d+1 < m.ndim && m.coord[d] == m.shape[d]; d++ {
			for k := 0; k < m.nargs; k++ {
				m.outer[k] += m.stride[d+1][k] - m.coord[d]*m.stride[d][k]
			}
			m.coord[d] = 0
			m.coord[d+1]++
		}
		m.flat++
		if m.flat >= m.volume || m.loadBin() {
			return
		}
	}
}

// loadBin points every operand at the start of the current bin and reports
// whether the bin holds any element. Bins of different length across
// operands record an error and move the cursor to the end.
func (m *MultiIndex) loadBin() bool {
	size, sizeArg := -1, -1
	for k := 0; k < m.nargs; k++ {
		b := &m.bins[k]
		if b.indices == nil {
			m.data[k] = m.outer[k]
			continue
		}
		pair := b.indices[m.outer[k]]
		switch {
		case size < 0:
			size, sizeArg = pair.Len(), k
		case pair.Len() != size:
			m.err = errs.BinnedDataf("bin %d holds %d elements in operand %d but %d in operand %d",
				m.flat, size, sizeArg, pair.Len(), k)
			m.SetToEnd()
			return true
		}
		m.data[k] = b.base + pair.Begin*b.binStride
	}
	m.shape[m.nestedDim] = size
	for d := 0; d < m.innerNdim; d++ {
		if m.shape[d] == 0 {
			return false
		}
	}
	return true
}

// SetIndex positions the cursor. In dense mode i is the logical flat index
// of an element. In binned mode i is the index of a bin, not of an element;
// the cursor moves to the first element of that bin or, if it is empty, of
// the next non-empty bin.
func (m *MultiIndex) SetIndex(i int) {
	if m.innerNdim == 0 {
		m.flat = i
		dims.CoordFromFlat(i, m.shape[:m.ndim], m.coord[:m.ndim])
		for k := 0; k < m.nargs; k++ {
			m.data[k] = m.base[k]
			for d := 0; d < m.ndim; d++ {
				m.data[k] += m.coord[d] * m.stride[d][k]
			}
		}
		return
	}
	if i >= m.volume {
		m.SetToEnd()
		return
	}
	m.flat = i
	for d := 0; d < m.innerNdim; d++ {
		m.coord[d] = 0
	}
	outer := m.coord[m.innerNdim:m.ndim]
	dims.CoordFromFlat(i, m.shape[m.innerNdim:m.ndim], outer)
	for k := 0; k < m.nargs; k++ {
		m.outer[k] = m.outerOffset(k, outer)
	}
	if !m.loadBin() {
		m.nextBin()
	}
}

// SetToEnd moves the cursor to the end position. The end position only
// depends on the iteration space, not on the operands' layouts.
func (m *MultiIndex) SetToEnd() {
	if m.innerNdim == 0 {
		m.SetIndex(m.volume)
		return
	}
	m.flat = m.volume
	for d := 0; d < m.innerNdim; d++ {
		m.coord[d] = 0
	}
	dims.CoordFromFlat(m.volume, m.shape[m.innerNdim:m.ndim], m.coord[m.innerNdim:m.ndim])
}

// Equal reports whether both cursors are at the same logical position.
// Offsets are not compared.
func (m *MultiIndex) Equal(o *MultiIndex) bool {
	if m.flat != o.flat {
		return false
	}
	for d := 0; d < m.innerNdim; d++ {
		if m.coord[d] != o.coord[d] {
			return false
		}
	}
	return true
}

// Get returns the memory offset of operand k.
func (m *MultiIndex) Get(k int) int { return m.data[k] }

// Offsets returns the memory offsets of all operands.
func (m *MultiIndex) Offsets() [MaxArgs]int { return m.data }

// InnerStrides returns the stride of every operand along the innermost
// dimension.
func (m *MultiIndex) InnerStrides() [MaxArgs]int { return m.stride[0] }

// InnerStride returns the stride of operand k along the innermost dimension.
func (m *MultiIndex) InnerStride(k int) int { return m.stride[0][k] }

// RunLength returns how many elements remain in the current innermost run,
// without passing stop. Within a run every offset advances by its inner
// stride.
func (m *MultiIndex) RunLength(stop *MultiIndex) int {
	n := m.shape[0] - m.coord[0]
	if m.innerNdim == 0 {
		n = min(n, stop.flat-m.flat)
	}
	return n
}

// Volume returns the number of positions SetIndex accepts: elements in dense
// mode, bins in binned mode.
func (m *MultiIndex) Volume() int { return m.volume }

// Binned reports whether the cursor iterates bin contents.
func (m *MultiIndex) Binned() bool { return m.innerNdim > 0 }

// NArgs returns the number of operands.
func (m *MultiIndex) NArgs() int { return m.nargs }

// Broadcasts reports whether operand k is visited more than once by
// different units of work handed out by SetIndex: it has stride 0 along a
// dimension of extent > 1 that is not confined to a single unit. In dense
// mode a unit is one element, in binned mode it is one bin.
func (m *MultiIndex) Broadcasts(k int) bool {
	for d := m.innerNdim; d < m.ndim; d++ {
		if m.shape[d] > 1 && m.stride[d][k] == 0 {
			return true
		}
	}
	return false
}

// Err returns the bin length mismatch found during traversal, if any.
func (m *MultiIndex) Err() error { return m.err }
