// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package array

import (
	"github.com/born-ml/strided/internal/dims"
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/units"
	"github.com/born-ml/strided/internal/variable"
	"github.com/born-ml/strided/internal/view"
)

// Variable is a labeled array with a unit, optional variances and optional
// bins. Variables returned by Slice, Transpose and BroadcastTo share storage
// with the original.
type Variable = variable.Variable

// Option configures New.
type Option = variable.Option

// Dim labels a dimension.
type Dim = dims.Dim

// Dimensions is an ordered list of labeled extents, outermost first.
type Dimensions = dims.Dimensions

// Unit is a physical unit.
type Unit = units.Unit

// DataType identifies the element type of a variable.
type DataType = dtype.DataType

// Element is the constraint satisfied by every supported element type.
type Element = dtype.Element

// IndexPair is the [Begin, End) range of one bin.
type IndexPair = dtype.IndexPair

// View is a typed, read-write view of the elements of a variable.
type View[T any] = view.ElementArrayView[T]

// BinView is a typed view of the bins of a binned variable.
type BinView[T any] = view.BinView[T]

// Element types.
const (
	Float64    = dtype.Float64
	Float32    = dtype.Float32
	Int64      = dtype.Int64
	Int32      = dtype.Int32
	Bool       = dtype.Bool
	Float16    = dtype.Float16
	IndexPairs = dtype.IndexPairs
)

// Common units.
var (
	Dimensionless = units.One
	Meter         = units.Meter
	Second        = units.Second
	Counts        = units.Counts
)

// Errors. Every error returned by this package wraps exactly one of them.
var (
	ErrDimension  = errs.ErrDimension
	ErrType       = errs.ErrType
	ErrVariances  = errs.ErrVariances
	ErrUnit       = errs.ErrUnit
	ErrSlice      = errs.ErrSlice
	ErrBinnedData = errs.ErrBinnedData
)

// Dims builds dimensions from alternating labels and extents.
//
// Example:
//
//	d, err := array.Dims("x", 2, "y", 3)
func Dims(pairs ...any) (Dimensions, error) { return dims.Of(pairs...) }

// MustDims is like Dims but panics on error.
func MustDims(pairs ...any) Dimensions { return dims.MustOf(pairs...) }

// ParseUnit reads a unit such as "m*s^-1".
func ParseUnit(s string) (Unit, error) { return units.Parse(s) }

// WithUnit sets the unit of a new variable.
func WithUnit(u Unit) Option { return variable.WithUnit(u) }

// WithVariances attaches variances to a new variable.
func WithVariances[T Element](variances []T) Option { return variable.WithVariances(variances) }

// New creates a contiguous variable over d holding values in row-major order.
func New[T Element](d Dimensions, values []T, opts ...Option) (*Variable, error) {
	return variable.New(d, values, opts...)
}

// MustNew is like New but panics on error.
func MustNew[T Element](d Dimensions, values []T, opts ...Option) *Variable {
	return variable.MustNew(d, values, opts...)
}

// Scalar creates a 0-d variable.
func Scalar[T Element](x T, u Unit) *Variable { return variable.Scalar(x, u) }

// Zeros creates a zero-filled variable.
func Zeros[T Element](d Dimensions, u Unit, withVariances bool) (*Variable, error) {
	return variable.Empty[T](d, u, withVariances)
}

// NewBinned creates a binned variable from index pairs into buffer along dim.
//
// Example:
//
//	indices := array.MustNew(array.MustDims("row", 2), []array.IndexPair{{0, 3}, {3, 7}})
//	events := array.MustNew(array.MustDims("event", 7), weights)
//	rows, err := array.NewBinned(indices, "event", events)
func NewBinned(indices *Variable, dim Dim, buffer *Variable) (*Variable, error) {
	return variable.NewBinned(indices, dim, buffer)
}

// Values returns a view of the values of a dense variable. It panics if T
// does not match the dtype.
func Values[T Element](v *Variable) View[T] { return variable.Values[T](v) }

// Variances returns a view of the variances of a dense variable.
func Variances[T Element](v *Variable) View[T] { return variable.Variances[T](v) }

// BinValues returns a view of the bins of a binned variable.
func BinValues[T Element](v *Variable) BinView[T] { return variable.BinValues[T](v) }

// BinVariances returns a view of the bin variances of a binned variable.
func BinVariances[T Element](v *Variable) BinView[T] { return variable.BinVariances[T](v) }
