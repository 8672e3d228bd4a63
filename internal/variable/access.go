package variable

import (
	"fmt"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/index"
	"github.com/born-ml/strided/internal/view"
)

// Data returns the whole values buffer of v, or of its bin buffer if v is
// binned. It panics if T is not the element type.
func Data[T any](v *Variable) []T {
	if v.bins != nil {
		return Data[T](v.bins.buffer)
	}
	return typed[T](v, v.values)
}

// VarianceData is like Data for the variances. It returns nil if v has no
// variances.
func VarianceData[T any](v *Variable) []T {
	if v.bins != nil {
		return VarianceData[T](v.bins.buffer)
	}
	if v.variances == nil {
		return nil
	}
	return typed[T](v, v.variances)
}

func typed[T any](v *Variable, b *buffer) []T {
	data, ok := b.data.([]T)
	if !ok {
		panic(fmt.Sprintf("variable: %s data requested from %s", dtype.Of[T](), v))
	}
	return data
}

// Values returns a view of the values of a dense variable.
func Values[T any](v *Variable) view.ElementArrayView[T] {
	if v.bins != nil {
		panic(fmt.Sprintf("variable: Values of %s, use BinValues", v))
	}
	return mustView(typed[T](v, v.values), v.ViewParams())
}

// Variances returns a view of the variances of a dense variable. It panics
// if v has no variances.
func Variances[T any](v *Variable) view.ElementArrayView[T] {
	if v.bins != nil {
		panic(fmt.Sprintf("variable: Variances of %s, use BinVariances", v))
	}
	if v.variances == nil {
		panic(fmt.Sprintf("variable: %s has no variances", v))
	}
	return mustView(typed[T](v, v.variances), v.ViewParams())
}

// BinValues returns a view of the bins of a binned variable.
func BinValues[T any](v *Variable) view.BinView[T] {
	return mustBinView(v, Values[T](v.binBuffer()))
}

// BinVariances returns a view of the variances of the bins of a binned
// variable. It panics if v has no variances.
func BinVariances[T any](v *Variable) view.BinView[T] {
	return mustBinView(v, Variances[T](v.binBuffer()))
}

func (v *Variable) binBuffer() *Variable {
	if v.bins == nil {
		panic(fmt.Sprintf("variable: %s is not binned", v))
	}
	return v.bins.buffer
}

func mustView[T any](data []T, p index.ViewParams) view.ElementArrayView[T] {
	p.Bins = nil
	v, err := view.New(data, p)
	if err != nil {
		// Variables only ever hold layouts that fit their buffers.
		panic(err)
	}
	return v
}

func mustBinView[T any](v *Variable, buffer view.ElementArrayView[T]) view.BinView[T] {
	b, err := view.NewBinView(Values[dtype.IndexPair](v.Indices()), v.bins.dim, buffer)
	if err != nil {
		panic(err)
	}
	return b
}
