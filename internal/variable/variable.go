// Package variable is the container the transform engine operates on: a
// labeled, strided array with a unit, optional variances and optional bins.
//
// Variables are handles. Slicing, transposing and broadcasting return new
// handles that share the values and variances buffers with the original, so
// writes through one handle are visible through every other.
package variable

import (
	"fmt"
	"slices"

	"github.com/x448/float16"

	"github.com/born-ml/strided/internal/dims"
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/index"
	"github.com/born-ml/strided/internal/units"
	"github.com/born-ml/strided/internal/view"
)

// buffer holds a []T. Handles compare buffers by pointer to detect aliasing.
type buffer struct {
	data any
}

type binning struct {
	dim    dims.Dim
	buffer *Variable
}

// Variable is a labeled array. A binned variable stores index pairs as its
// values; each pair selects one bin of a shared buffer variable along the
// bin dimension.
type Variable struct {
	dt        dtype.DataType
	dims      dims.Dimensions
	strides   dims.Strides
	offset    int
	unit      units.Unit
	values    *buffer
	variances *buffer
	bins      *binning
}

type options struct {
	unit      units.Unit
	variances any
}

// Option configures New.
type Option func(*options)

// WithUnit sets the unit of a new variable. The default is dimensionless.
func WithUnit(u units.Unit) Option {
	return func(o *options) { o.unit = u }
}

// WithVariances attaches variances. They must have the element type and
// length of the values.
func WithVariances[T dtype.Element](variances []T) Option {
	return func(o *options) { o.variances = variances }
}

// New creates a contiguous variable over d. The variable takes ownership of
// values.
func New[T dtype.Element](d dims.Dimensions, values []T, opts ...Option) (*Variable, error) {
	dt := dtype.Of[T]()
	if dt == dtype.Invalid {
		return nil, errs.Typef("unsupported element type %T", *new(T))
	}
	if len(values) != d.Volume() {
		return nil, errs.Dimensionf("got %d values for %s", len(values), d)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	v := &Variable{
		dt:      dt,
		dims:    d,
		strides: dims.ContiguousStrides(d),
		unit:    o.unit,
		values:  &buffer{data: values},
	}
	if o.variances != nil {
		variances, ok := o.variances.([]T)
		if !ok {
			return nil, errs.Typef("variances of type %T for %s values", o.variances, dt)
		}
		if !dtype.CanHaveVariance(dt) {
			return nil, errs.Variancesf("%s values cannot have variances", dt)
		}
		if len(variances) != len(values) {
			return nil, errs.Dimensionf("got %d variances for %s", len(variances), d)
		}
		v.variances = &buffer{data: variances}
	}
	return v, nil
}

// MustNew is like New but panics on error.
func MustNew[T dtype.Element](d dims.Dimensions, values []T, opts ...Option) *Variable {
	v, err := New(d, values, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// Scalar creates a 0-d variable.
func Scalar[T dtype.Element](x T, u units.Unit) *Variable {
	return MustNew(dims.Dimensions{}, []T{x}, WithUnit(u))
}

// ScalarWithVariance creates a 0-d variable with a variance.
func ScalarWithVariance[T dtype.Element](x, variance T, u units.Unit) *Variable {
	return MustNew(dims.Dimensions{}, []T{x}, WithUnit(u), WithVariances([]T{variance}))
}

// Empty creates a zero-filled contiguous variable over d.
func Empty[T dtype.Element](d dims.Dimensions, u units.Unit, withVariances bool) (*Variable, error) {
	opts := []Option{WithUnit(u)}
	if withVariances {
		opts = append(opts, WithVariances(make([]T, d.Volume())))
	}
	return New(d, make([]T, d.Volume()), opts...)
}

// NewBinned creates a binned variable. indices holds one IndexPair per bin
// and buffer holds the bin contents along dim. Pairs must satisfy
// Begin <= End, lie within the extent of dim, and not overlap each other.
func NewBinned(indices *Variable, dim dims.Dim, buffer *Variable) (*Variable, error) {
	if indices.dt != dtype.IndexPairs || indices.bins != nil {
		return nil, errs.Typef("bin indices must be %s, got %s", dtype.IndexPairs, indices.DType())
	}
	if buffer.bins != nil {
		return nil, errs.BinnedDataf("bin buffer must not be binned")
	}
	extent, err := buffer.dims.Extent(dim)
	if err != nil {
		return nil, err
	}
	for _, label := range buffer.dims.Labels() {
		if indices.dims.Contains(label) {
			return nil, errs.Dimensionf("bin dimension %s of buffer %s also labels the bins %s", label, buffer.dims, indices.dims)
		}
	}

	var used []dtype.IndexPair
	for i, p := range Values[dtype.IndexPair](indices).All() {
		if p.Begin < 0 || p.Begin > p.End || p.End > extent {
			return nil, errs.Slicef("bin %d has range [%d, %d) outside %s of extent %d", i, p.Begin, p.End, dim, extent)
		}
		if p.Len() > 0 {
			used = append(used, p)
		}
	}
	slices.SortFunc(used, func(a, b dtype.IndexPair) int { return a.Begin - b.Begin })
	for i := 1; i < len(used); i++ {
		if used[i].Begin < used[i-1].End {
			return nil, errs.Slicef("bins [%d, %d) and [%d, %d) overlap",
				used[i-1].Begin, used[i-1].End, used[i].Begin, used[i].End)
		}
	}

	out := *indices
	out.variances = nil
	out.unit = units.One
	out.bins = &binning{dim: dim, buffer: buffer}
	return &out, nil
}

// EmptyBinnedLike creates a binned variable over d with new contiguous
// storage of element type T. Its bins have the lengths of the bins of like
// broadcast to d.
func EmptyBinnedLike[T dtype.Element](d dims.Dimensions, like *Variable, u units.Unit, withVariances bool) (*Variable, error) {
	if like.bins == nil {
		return nil, errs.BinnedDataf("expected a binned variable, got %s", like)
	}
	if !d.Includes(like.dims) {
		return nil, errs.Dimensionf("cannot broadcast bins %s to %s", like.dims, d)
	}
	lengths, err := Values[dtype.IndexPair](like.Indices()).Reshape(d)
	if err != nil {
		return nil, err
	}
	pairs := make([]dtype.IndexPair, 0, d.Volume())
	total := 0
	for p := range lengths.Values() {
		pairs = append(pairs, dtype.IndexPair{Begin: total, End: total + p.Len()})
		total += p.Len()
	}
	bufferDims, err := like.bins.buffer.dims.Resize(like.bins.dim, total)
	if err != nil {
		return nil, err
	}
	buf, err := Empty[T](bufferDims, u, withVariances)
	if err != nil {
		return nil, err
	}
	return &Variable{
		dt:      dtype.IndexPairs,
		dims:    d,
		strides: dims.ContiguousStrides(d),
		values:  &buffer{data: pairs},
		bins:    &binning{dim: like.bins.dim, buffer: buf},
	}, nil
}

// DType returns the element type. For a binned variable this is the element
// type of the bin contents.
func (v *Variable) DType() dtype.DataType {
	if v.bins != nil {
		return v.bins.buffer.dt
	}
	return v.dt
}

// Dims returns the dimensions. For a binned variable these are the
// dimensions of the bins, not of their contents.
func (v *Variable) Dims() dims.Dimensions { return v.dims }

// Strides returns the memory strides aligned with Dims.
func (v *Variable) Strides() dims.Strides { return v.strides.Clone() }

// Offset returns the position of the first element in the values buffer.
func (v *Variable) Offset() int { return v.offset }

// Unit returns the unit of the values, of the bin contents if binned.
func (v *Variable) Unit() units.Unit {
	if v.bins != nil {
		return v.bins.buffer.unit
	}
	return v.unit
}

// SetUnit replaces the unit. For a binned variable the unit of the shared
// buffer changes.
func (v *Variable) SetUnit(u units.Unit) {
	if v.bins != nil {
		v.bins.buffer.SetUnit(u)
		return
	}
	v.unit = u
}

// HasVariances reports whether the variable carries variances.
func (v *Variable) HasVariances() bool {
	if v.bins != nil {
		return v.bins.buffer.HasVariances()
	}
	return v.variances != nil
}

// IsBinned reports whether the elements are bins.
func (v *Variable) IsBinned() bool { return v.bins != nil }

// BinDim returns the dimension of the buffer the bins slice.
func (v *Variable) BinDim() dims.Dim {
	if v.bins == nil {
		return ""
	}
	return v.bins.dim
}

// BinBuffer returns the variable holding the contents of all bins, or nil.
func (v *Variable) BinBuffer() *Variable {
	if v.bins == nil {
		return nil
	}
	return v.bins.buffer
}

// Indices returns the index pairs of a binned variable as a dense variable
// sharing storage with v.
func (v *Variable) Indices() *Variable {
	if v.bins == nil {
		return nil
	}
	out := *v
	out.bins = nil
	out.unit = units.One
	return &out
}

// ViewParams describes the layout of v for the cursors.
func (v *Variable) ViewParams() index.ViewParams {
	p := index.ViewParams{Offset: v.offset, Dims: v.dims, Strides: v.strides.Clone()}
	if v.bins != nil {
		buf := v.bins.buffer
		p.Bins = &index.BinParams{
			Dim:           v.bins.dim,
			BufferDims:    buf.dims,
			BufferStrides: buf.strides.Clone(),
			BufferOffset:  buf.offset,
			Indices:       v.values.data.([]dtype.IndexPair),
		}
	}
	return p
}

// String describes dims, dtype and unit, e.g. {x: 3} float64 [m].
func (v *Variable) String() string {
	s := fmt.Sprintf("%s %s [%s]", v.dims, v.DType(), v.Unit())
	if v.HasVariances() {
		s += " with variances"
	}
	if v.bins != nil {
		s = fmt.Sprintf("%s binned along %s", s, v.bins.dim)
	}
	return s
}

// Slice restricts dim to [begin, end). The result shares storage with v.
func (v *Variable) Slice(dim dims.Dim, begin, end int) (*Variable, error) {
	i := v.dims.Index(dim)
	if i < 0 {
		return nil, errs.Dimensionf("expected dimension %s in %s", dim, v.dims)
	}
	if begin < 0 || begin > end || end > v.dims.Size(i) {
		return nil, errs.Slicef("range [%d, %d) outside %s", begin, end, v.dims)
	}
	d, err := v.dims.Resize(dim, end-begin)
	if err != nil {
		return nil, err
	}
	out := *v
	out.dims = d
	out.offset += begin * v.strides[i]
	return &out, nil
}

// SliceAt selects position pos of dim and drops the dimension.
func (v *Variable) SliceAt(dim dims.Dim, pos int) (*Variable, error) {
	out, err := v.Slice(dim, pos, pos+1)
	if err != nil {
		return nil, err
	}
	i := v.dims.Index(dim)
	if out.dims, err = out.dims.Erase(dim); err != nil {
		return nil, err
	}
	out.strides = slices.Delete(v.strides.Clone(), i, i+1)
	return out, nil
}

// Transpose reorders the dimensions without moving data.
func (v *Variable) Transpose(order ...dims.Dim) (*Variable, error) {
	d, err := v.dims.Transpose(order...)
	if err != nil {
		return nil, err
	}
	strides, err := dims.Align(v.dims, v.strides, d)
	if err != nil {
		return nil, err
	}
	out := *v
	out.dims = d
	out.strides = strides
	return &out, nil
}

// BroadcastTo returns a view over d. Dimensions missing in v repeat its
// elements.
func (v *Variable) BroadcastTo(d dims.Dimensions) (*Variable, error) {
	if !d.Includes(v.dims) {
		return nil, errs.Dimensionf("cannot broadcast %s to %s", v.dims, d)
	}
	strides, err := dims.Align(v.dims, v.strides, d)
	if err != nil {
		return nil, err
	}
	out := *v
	out.dims = d
	out.strides = strides
	return &out, nil
}

// SharesBuffer reports whether v and o store their elements in the same
// buffer.
func (v *Variable) SharesBuffer(o *Variable) bool {
	return v.storage() == o.storage()
}

// IsSameView reports whether v and o address the same elements in the same
// order.
func (v *Variable) IsSameView(o *Variable) bool {
	return v.SharesBuffer(o) && v.ViewParams().Identical(o.ViewParams())
}

// Overlaps reports whether writing through v may change elements read
// through o. Identical views do not overlap. Distinct binned views of one
// buffer are assumed to overlap.
func (v *Variable) Overlaps(o *Variable) bool {
	if !v.SharesBuffer(o) {
		return false
	}
	if v.bins != nil || o.bins != nil {
		return !v.IsSameView(o)
	}
	return view.Overlaps(v.ViewParams(), o.ViewParams())
}

func (v *Variable) storage() *buffer {
	if v.bins != nil {
		return v.bins.buffer.values
	}
	return v.values
}

// Copy returns a deep, contiguous copy. Bins are copied into a new buffer
// holding only their contents.
func (v *Variable) Copy() *Variable {
	switch v.DType() {
	case dtype.Float64:
		return copyAs[float64](v)
	case dtype.Float32:
		return copyAs[float32](v)
	case dtype.Int64:
		return copyAs[int64](v)
	case dtype.Int32:
		return copyAs[int32](v)
	case dtype.Bool:
		return copyAs[bool](v)
	case dtype.Float16:
		return copyAs[float16.Float16](v)
	case dtype.IndexPairs:
		return copyAs[dtype.IndexPair](v)
	}
	panic(fmt.Sprintf("variable: cannot copy %s", v))
}

func copyAs[T dtype.Element](v *Variable) *Variable {
	if v.bins != nil {
		out, err := EmptyBinnedLike[T](v.dims, v, v.Unit(), v.HasVariances())
		if err != nil {
			panic(err)
		}
		copyBins(BinValues[T](v), BinValues[T](out))
		if v.HasVariances() {
			copyBins(BinVariances[T](v), BinVariances[T](out))
		}
		return out
	}
	out := &Variable{
		dt:      v.dt,
		dims:    v.dims,
		strides: dims.ContiguousStrides(v.dims),
		unit:    v.unit,
		values:  &buffer{data: Values[T](v).Collect()},
	}
	if v.variances != nil {
		out.variances = &buffer{data: Variances[T](v).Collect()}
	}
	return out
}

func copyBins[T any](src, dst view.BinView[T]) {
	for i, bin := range src.All() {
		it := dst.At(i).Begin()
		for x := range bin.Values() {
			it.Set(x)
			it.Next()
		}
	}
}
