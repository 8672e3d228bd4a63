// Package dims provides labeled dimensions, strides and the flat-index
// arithmetic shared by the cursors and views.
package dims

import (
	"slices"
	"strconv"
	"strings"

	"github.com/born-ml/strided/internal/errs"
)

// Dim is the label of a dimension.
type Dim string

// Dimensions is an ordered set of labeled extents, outermost first.
// The last label is the fastest-varying one in row-major layout.
//
// Dimensions is immutable: methods that change it return a new value.
type Dimensions struct {
	labels []Dim
	shape  []int
}

// New creates Dimensions from parallel label and extent slices.
func New(labels []Dim, shape []int) (Dimensions, error) {
	if len(labels) != len(shape) {
		return Dimensions{}, errs.Dimensionf("got %d labels for %d extents", len(labels), len(shape))
	}
	for i, label := range labels {
		if shape[i] < 0 {
			return Dimensions{}, errs.Dimensionf("negative extent %d for dimension %s", shape[i], label)
		}
		if slices.Contains(labels[:i], label) {
			return Dimensions{}, errs.Dimensionf("duplicate dimension %s", label)
		}
	}
	return Dimensions{labels: slices.Clone(labels), shape: slices.Clone(shape)}, nil
}

// Of creates Dimensions from alternating label/extent pairs.
func Of(pairs ...any) (Dimensions, error) {
	if len(pairs)%2 != 0 {
		return Dimensions{}, errs.Dimensionf("odd number of label/extent arguments")
	}
	labels := make([]Dim, 0, len(pairs)/2)
	shape := make([]int, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		var label Dim
		switch l := pairs[i].(type) {
		case Dim:
			label = l
		case string:
			label = Dim(l)
		default:
			return Dimensions{}, errs.Dimensionf("argument %d is not a label: %v", i, pairs[i])
		}
		n, ok := pairs[i+1].(int)
		if !ok {
			return Dimensions{}, errs.Dimensionf("argument %d is not an extent: %v", i+1, pairs[i+1])
		}
		labels = append(labels, label)
		shape = append(shape, n)
	}
	return New(labels, shape)
}

// MustOf is like Of but panics on error. Intended for tests and literals.
func MustOf(pairs ...any) Dimensions {
	d, err := Of(pairs...)
	if err != nil {
		panic(err)
	}
	return d
}

// NDim returns the number of dimensions.
func (d Dimensions) NDim() int { return len(d.labels) }

// Labels returns a copy of the labels, outermost first.
func (d Dimensions) Labels() []Dim { return slices.Clone(d.labels) }

// Shape returns a copy of the extents, outermost first.
func (d Dimensions) Shape() []int { return slices.Clone(d.shape) }

// Label returns the label at position i.
func (d Dimensions) Label(i int) Dim { return d.labels[i] }

// Size returns the extent at position i.
func (d Dimensions) Size(i int) int { return d.shape[i] }

// Volume returns the number of elements. A scalar has one element.
func (d Dimensions) Volume() int {
	n := 1
	for _, s := range d.shape {
		n *= s
	}
	return n
}

// Index returns the position of dim, or -1 if absent.
func (d Dimensions) Index(dim Dim) int {
	return slices.Index(d.labels, dim)
}

// Contains reports whether dim is present.
func (d Dimensions) Contains(dim Dim) bool {
	return d.Index(dim) >= 0
}

// Extent returns the extent of dim.
func (d Dimensions) Extent(dim Dim) (int, error) {
	i := d.Index(dim)
	if i < 0 {
		return 0, errs.Dimensionf("expected dimension %s in %s", dim, d)
	}
	return d.shape[i], nil
}

// Equal reports whether labels, order and extents all match.
func (d Dimensions) Equal(other Dimensions) bool {
	return slices.Equal(d.labels, other.labels) && slices.Equal(d.shape, other.shape)
}

// Includes reports whether every dimension of other is present in d with
// the same extent. Order is ignored.
func (d Dimensions) Includes(other Dimensions) bool {
	for i, label := range other.labels {
		j := d.Index(label)
		if j < 0 || d.shape[j] != other.shape[i] {
			return false
		}
	}
	return true
}

// Transpose reorders the dimensions. order must be a permutation of the labels.
func (d Dimensions) Transpose(order ...Dim) (Dimensions, error) {
	if len(order) != len(d.labels) {
		return Dimensions{}, errs.Dimensionf("cannot transpose %s to %v", d, order)
	}
	shape := make([]int, len(order))
	for i, label := range order {
		j := d.Index(label)
		if j < 0 {
			return Dimensions{}, errs.Dimensionf("cannot transpose %s to %v", d, order)
		}
		shape[i] = d.shape[j]
	}
	return New(order, shape)
}

// Resize returns a copy with the extent of dim set to n.
func (d Dimensions) Resize(dim Dim, n int) (Dimensions, error) {
	i := d.Index(dim)
	if i < 0 {
		return Dimensions{}, errs.Dimensionf("expected dimension %s in %s", dim, d)
	}
	if n < 0 {
		return Dimensions{}, errs.Dimensionf("negative extent %d for dimension %s", n, dim)
	}
	out := d.clone()
	out.shape[i] = n
	return out, nil
}

// Erase returns a copy without dim.
func (d Dimensions) Erase(dim Dim) (Dimensions, error) {
	i := d.Index(dim)
	if i < 0 {
		return Dimensions{}, errs.Dimensionf("expected dimension %s in %s", dim, d)
	}
	return Dimensions{
		labels: slices.Delete(slices.Clone(d.labels), i, i+1),
		shape:  slices.Delete(slices.Clone(d.shape), i, i+1),
	}, nil
}

// AddInner returns a copy with dim appended as the new innermost dimension.
func (d Dimensions) AddInner(dim Dim, n int) (Dimensions, error) {
	return New(append(d.Labels(), dim), append(d.Shape(), n))
}

// Merge combines a and b into the union of their dimensions: the labels of
// a in order, followed by labels only present in b. A label present in both
// with different extents is a dimension error.
func Merge(a, b Dimensions) (Dimensions, error) {
	out := a.clone()
	for i, label := range b.labels {
		j := out.Index(label)
		switch {
		case j < 0:
			out.labels = append(out.labels, label)
			out.shape = append(out.shape, b.shape[i])
		case out.shape[j] != b.shape[i]:
			return Dimensions{}, errs.Dimensionf("cannot merge %s and %s: extents of %s differ", a, b, label)
		}
	}
	return out, nil
}

// String formats as {x: 2, y: 3}.
func (d Dimensions) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, label := range d.labels {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(string(label))
		sb.WriteString(": ")
		sb.WriteString(strconv.Itoa(d.shape[i]))
	}
	sb.WriteByte('}')
	return sb.String()
}

func (d Dimensions) clone() Dimensions {
	return Dimensions{labels: slices.Clone(d.labels), shape: slices.Clone(d.shape)}
}
