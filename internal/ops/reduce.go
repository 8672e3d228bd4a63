package ops

import (
	"github.com/x448/float16"

	"github.com/born-ml/strided/internal/dims"
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/transform"
	"github.com/born-ml/strided/internal/units"
	"github.com/born-ml/strided/internal/variable"
)

// Sum sums x over dim with the default engine.
func Sum(x *variable.Variable, dim dims.Dim) (*variable.Variable, error) {
	return SumWith(transform.Default(), x, dim)
}

// SumWith sums x over dim. Variances add up.
func SumWith(e *transform.Engine, x *variable.Variable, dim dims.Dim) (*variable.Variable, error) {
	if x.IsBinned() {
		return nil, errs.BinnedDataf("sum: %s is binned, use BinsSum", x)
	}
	d, err := x.Dims().Erase(dim)
	if err != nil {
		return nil, err
	}
	out, err := zeros(x.DType(), d, x.Unit(), x.HasVariances())
	if err != nil {
		return nil, err
	}
	if err := e.AccumulateInPlace(PlusEqualsOp, out, x); err != nil {
		return nil, err
	}
	return out, nil
}

// BinsSum sums the content of every bin of x with the default engine.
func BinsSum(x *variable.Variable) (*variable.Variable, error) {
	return BinsSumWith(transform.Default(), x)
}

// BinsSumWith returns a dense variable with the dimensions of x holding the
// sum of every bin. Empty bins sum to zero.
func BinsSumWith(e *transform.Engine, x *variable.Variable) (*variable.Variable, error) {
	if !x.IsBinned() {
		return nil, errs.BinnedDataf("bins_sum: %s is not binned", x)
	}
	out, err := zeros(x.DType(), x.Dims(), x.Unit(), x.HasVariances())
	if err != nil {
		return nil, err
	}
	if err := e.AccumulateInPlace(PlusEqualsOp, out, x); err != nil {
		return nil, err
	}
	return out, nil
}

// zeros allocates a dense variable of the given dtype.
func zeros(dt dtype.DataType, d dims.Dimensions, u units.Unit, withVariances bool) (*variable.Variable, error) {
	switch dt {
	case dtype.Float64:
		return variable.Empty[float64](d, u, withVariances)
	case dtype.Float32:
		return variable.Empty[float32](d, u, withVariances)
	case dtype.Int64:
		return variable.Empty[int64](d, u, withVariances)
	case dtype.Int32:
		return variable.Empty[int32](d, u, withVariances)
	case dtype.Float16:
		return variable.Empty[float16.Float16](d, u, withVariances)
	default:
		return nil, errs.Typef("cannot sum elements of dtype %s", dt)
	}
}
