package ops

import (
	"math"

	"github.com/born-ml/strided/internal/transform"
	"github.com/born-ml/strided/internal/units"
	"github.com/born-ml/strided/internal/variable"
)

func neg[T number](a T) T { return -a }

func negVar[T float](a vv[T]) vv[T] { return vv[T]{Value: -a.Value, Variance: a.Variance} }

func abs[T number](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

func absVar[T float](a vv[T]) vv[T] { return vv[T]{Value: abs(a.Value), Variance: a.Variance} }

func sqrt[T float](a T) T { return T(math.Sqrt(float64(a))) }

func sqrtVar[T float](a vv[T]) vv[T] {
	return vv[T]{Value: sqrt(a.Value), Variance: a.Variance / (4 * a.Value)}
}

func reciprocal[T float](a T) T { return 1 / a }

func reciprocalVar[T float](a vv[T]) vv[T] {
	r := 1 / a.Value
	return vv[T]{Value: r, Variance: a.Variance * r * r * r * r}
}

// signed returns the overloads of a unary operator defined for every
// numeric dtype.
func signed(
	f64 func(float64) float64, v64 func(vv[float64]) vv[float64],
	f32 func(float32) float32, v32 func(vv[float32]) vv[float32],
	i64 func(int64) int64, i32 func(int32) int32,
) []transform.Overload {
	return append(unary(f64, v64, f32, v32),
		transform.Func1[int64, int64]{Value: i64},
		transform.Func1[int32, int32]{Value: i32},
	)
}

// Unary operators.
var (
	NegativeOp = transform.NewOp("negative", keepUnit, 0,
		signed(neg[float64], negVar[float64], neg[float32], negVar[float32], neg[int64], neg[int32])...)
	AbsOp = transform.NewOp("abs", keepUnit, 0,
		signed(abs[float64], absVar[float64], abs[float32], absVar[float32], abs[int64], abs[int32])...)
	SqrtOp = transform.NewOp("sqrt", func(us ...units.Unit) (units.Unit, error) { return us[0].Sqrt() }, 0,
		unary(sqrt[float64], sqrtVar[float64], sqrt[float32], sqrtVar[float32])...)
	ReciprocalOp = transform.NewOp("reciprocal", func(us ...units.Unit) (units.Unit, error) { return units.One.Div(us[0]), nil }, 0,
		unary(reciprocal[float64], reciprocalVar[float64], reciprocal[float32], reciprocalVar[float32])...)
)

// Negative returns -x.
func Negative(x *variable.Variable) (*variable.Variable, error) {
	return transform.Transform(NegativeOp, x)
}

// Abs returns |x|.
func Abs(x *variable.Variable) (*variable.Variable, error) {
	return transform.Transform(AbsOp, x)
}

// Sqrt returns the square root of x. Its unit must have even powers.
func Sqrt(x *variable.Variable) (*variable.Variable, error) {
	return transform.Transform(SqrtOp, x)
}

// Reciprocal returns 1/x.
func Reciprocal(x *variable.Variable) (*variable.Variable, error) {
	return transform.Transform(ReciprocalOp, x)
}
