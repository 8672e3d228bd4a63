package ops

import (
	"github.com/born-ml/strided/internal/transform"
	"github.com/born-ml/strided/internal/variable"
)

func add[T number](a, b T) T { return a + b }

func addVar[T float](a, b vv[T]) vv[T] {
	return vv[T]{Value: a.Value + b.Value, Variance: a.Variance + b.Variance}
}

func sub[T number](a, b T) T { return a - b }

func subVar[T float](a, b vv[T]) vv[T] {
	return vv[T]{Value: a.Value - b.Value, Variance: a.Variance + b.Variance}
}

func mul[T number](a, b T) T { return a * b }

func mulVar[T float](a, b vv[T]) vv[T] {
	return vv[T]{
		Value:    a.Value * b.Value,
		Variance: a.Variance*b.Value*b.Value + b.Variance*a.Value*a.Value,
	}
}

func div[T float](a, b T) T { return a / b }

func divVar[T float](a, b vv[T]) vv[T] {
	q := a.Value / b.Value
	return vv[T]{Value: q, Variance: (a.Variance + b.Variance*q*q) / (b.Value * b.Value)}
}

// Binary operators. Operands without variances count as exact.
var (
	AddOp = transform.NewOp("add", sameUnit("add"), transform.MixedVariance,
		binary(add[float64], addVar[float64], add[float32], addVar[float32], add[int64], add[int32])...)
	SubtractOp = transform.NewOp("subtract", sameUnit("subtract"), transform.MixedVariance,
		binary(sub[float64], subVar[float64], sub[float32], subVar[float32], sub[int64], sub[int32])...)
	MultiplyOp = transform.NewOp("multiply", productUnit, transform.MixedVariance,
		binary(mul[float64], mulVar[float64], mul[float32], mulVar[float32], mul[int64], mul[int32])...)
	// DivideOp performs true division: integer operands give float64.
	DivideOp = transform.NewOp("divide", quotientUnit, transform.MixedVariance,
		append(binary(div[float64], divVar[float64], div[float32], divVar[float32], nil, nil),
			transform.Func2[float64, int64, int64]{Value: func(a, b int64) float64 { return float64(a) / float64(b) }},
			transform.Func2[float64, int32, int32]{Value: func(a, b int32) float64 { return float64(a) / float64(b) }},
		)...)
)

// Add returns a + b.
func Add(a, b *variable.Variable) (*variable.Variable, error) {
	return transform.Transform(AddOp, a, b)
}

// Subtract returns a - b.
func Subtract(a, b *variable.Variable) (*variable.Variable, error) {
	return transform.Transform(SubtractOp, a, b)
}

// Multiply returns a * b.
func Multiply(a, b *variable.Variable) (*variable.Variable, error) {
	return transform.Transform(MultiplyOp, a, b)
}

// Divide returns a / b.
func Divide(a, b *variable.Variable) (*variable.Variable, error) {
	return transform.Transform(DivideOp, a, b)
}

func plusEq[T number](x *T, a T) { *x += a }

func plusEqVar[T float](x *vv[T], a vv[T]) {
	x.Value += a.Value
	x.Variance += a.Variance
}

func minusEq[T number](x *T, a T) { *x -= a }

func minusEqVar[T float](x *vv[T], a vv[T]) {
	x.Value -= a.Value
	x.Variance += a.Variance
}

func timesEq[T number](x *T, a T) { *x *= a }

func timesEqVar[T float](x *vv[T], a vv[T]) { *x = mulVar(*x, a) }

func divideEq[T number](x *T, a T) { *x /= a }

func divideEqVar[T float](x *vv[T], a vv[T]) { *x = divVar(*x, a) }

// In-place operators. DivideEqualsOp truncates integers and panics on an
// integer division by zero.
var (
	PlusEqualsOp = transform.NewOp("plus_equals", sameUnit("plus_equals"), transform.MixedVariance,
		update(plusEq[float64], plusEqVar[float64], plusEq[float32], plusEqVar[float32], plusEq[int64], plusEq[int32])...)
	MinusEqualsOp = transform.NewOp("minus_equals", sameUnit("minus_equals"), transform.MixedVariance,
		update(minusEq[float64], minusEqVar[float64], minusEq[float32], minusEqVar[float32], minusEq[int64], minusEq[int32])...)
	TimesEqualsOp = transform.NewOp("times_equals", productUnit, transform.MixedVariance,
		update(timesEq[float64], timesEqVar[float64], timesEq[float32], timesEqVar[float32], timesEq[int64], timesEq[int32])...)
	DivideEqualsOp = transform.NewOp("divide_equals", quotientUnit, transform.MixedVariance,
		update(divideEq[float64], divideEqVar[float64], divideEq[float32], divideEqVar[float32], divideEq[int64], divideEq[int32])...)
)

// PlusEquals adds a to target.
func PlusEquals(target, a *variable.Variable) error {
	return transform.TransformInPlace(PlusEqualsOp, target, a)
}

// MinusEquals subtracts a from target.
func MinusEquals(target, a *variable.Variable) error {
	return transform.TransformInPlace(MinusEqualsOp, target, a)
}

// TimesEquals multiplies target by a.
func TimesEquals(target, a *variable.Variable) error {
	return transform.TransformInPlace(TimesEqualsOp, target, a)
}

// DivideEquals divides target by a.
func DivideEquals(target, a *variable.Variable) error {
	return transform.TransformInPlace(DivideEqualsOp, target, a)
}
