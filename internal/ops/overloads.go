// Package ops is the catalogue of element-wise operators built on the
// transform engine.
//
// Every operator is available as a *transform.Op (AddOp, PlusEqualsOp, ...)
// for use with a specific engine, and as a function evaluating it with the
// default engine (Add, PlusEquals, ...).
//
// Arithmetic operators are defined for float64, float32, int64 and int32
// operands of the same type, for float16 (computed in float32), and for
// float64 mixed with float32 or int64.
package ops

import (
	"github.com/x448/float16"

	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/transform"
	"github.com/born-ml/strided/internal/units"
)

type vv[T any] = transform.ValueAndVariance[T]

type number interface {
	float64 | float32 | int64 | int32
}

type float interface {
	float64 | float32
}

func toF64[T number](x vv[T]) vv[float64] {
	return vv[float64]{Value: float64(x.Value), Variance: float64(x.Variance)}
}

func up(x vv[float16.Float16]) vv[float32] {
	return vv[float32]{Value: x.Value.Float32(), Variance: x.Variance.Float32()}
}

func down(x vv[float32]) vv[float16.Float16] {
	return vv[float16.Float16]{Value: float16.Fromfloat32(x.Value), Variance: float16.Fromfloat32(x.Variance)}
}

// binary returns the overloads of an arithmetic operator. Integer overloads
// are omitted when i64 or i32 is nil.
func binary(
	f64 func(a, b float64) float64, v64 func(a, b vv[float64]) vv[float64],
	f32 func(a, b float32) float32, v32 func(a, b vv[float32]) vv[float32],
	i64 func(a, b int64) int64, i32 func(a, b int32) int32,
) []transform.Overload {
	out := []transform.Overload{
		transform.Func2[float64, float64, float64]{Value: f64, Variance: v64},
		transform.Func2[float32, float32, float32]{Value: f32, Variance: v32},
		half2(f32, v32),
		widen2[float64, float32](f64, v64),
		widen2[float32, float64](f64, v64),
		widen2[float64, int64](f64, v64),
		widen2[int64, float64](f64, v64),
	}
	if i64 != nil {
		out = append(out, transform.Func2[int64, int64, int64]{Value: i64})
	}
	if i32 != nil {
		out = append(out, transform.Func2[int32, int32, int32]{Value: i32})
	}
	return out
}

func half2(f func(a, b float32) float32, v func(a, b vv[float32]) vv[float32]) transform.Func2[float16.Float16, float16.Float16, float16.Float16] {
	return transform.Func2[float16.Float16, float16.Float16, float16.Float16]{
		Value: func(a, b float16.Float16) float16.Float16 {
			return float16.Fromfloat32(f(a.Float32(), b.Float32()))
		},
		Variance: func(a, b vv[float16.Float16]) vv[float16.Float16] { return down(v(up(a), up(b))) },
	}
}

func widen2[A, B number](f func(a, b float64) float64, v func(a, b vv[float64]) vv[float64]) transform.Func2[float64, A, B] {
	return transform.Func2[float64, A, B]{
		Value:    func(a A, b B) float64 { return f(float64(a), float64(b)) },
		Variance: func(a vv[A], b vv[B]) vv[float64] { return v(toF64(a), toF64(b)) },
	}
}

// unary returns the overloads of a unary operator on floating-point values.
func unary(
	f64 func(float64) float64, v64 func(vv[float64]) vv[float64],
	f32 func(float32) float32, v32 func(vv[float32]) vv[float32],
) []transform.Overload {
	return []transform.Overload{
		transform.Func1[float64, float64]{Value: f64, Variance: v64},
		transform.Func1[float32, float32]{Value: f32, Variance: v32},
		transform.Func1[float16.Float16, float16.Float16]{
			Value:    func(a float16.Float16) float16.Float16 { return float16.Fromfloat32(f32(a.Float32())) },
			Variance: func(a vv[float16.Float16]) vv[float16.Float16] { return down(v32(up(a))) },
		},
	}
}

// update returns the overloads of an in-place arithmetic operator.
func update(
	f64 func(x *float64, a float64), v64 func(x *vv[float64], a vv[float64]),
	f32 func(x *float32, a float32), v32 func(x *vv[float32], a vv[float32]),
	i64 func(x *int64, a int64), i32 func(x *int32, a int32),
) []transform.Overload {
	return []transform.Overload{
		transform.Update1[float64, float64]{Value: f64, Variance: v64},
		transform.Update1[float32, float32]{Value: f32, Variance: v32},
		transform.Update1[int64, int64]{Value: i64},
		transform.Update1[int32, int32]{Value: i32},
		transform.Update1[float16.Float16, float16.Float16]{
			Value: func(x *float16.Float16, a float16.Float16) {
				y := x.Float32()
				f32(&y, a.Float32())
				*x = float16.Fromfloat32(y)
			},
			Variance: func(x *vv[float16.Float16], a vv[float16.Float16]) {
				y := up(*x)
				v32(&y, up(a))
				*x = down(y)
			},
		},
		widenUpdate[float32](f64, v64),
		widenUpdate[int64](f64, v64),
	}
}

func widenUpdate[A number](f func(x *float64, a float64), v func(x *vv[float64], a vv[float64])) transform.Update1[float64, A] {
	return transform.Update1[float64, A]{
		Value:    func(x *float64, a A) { f(x, float64(a)) },
		Variance: func(x *vv[float64], a vv[A]) { v(x, toF64(a)) },
	}
}

func sameUnit(name string) transform.UnitFunc {
	return func(us ...units.Unit) (units.Unit, error) {
		return units.Same(name, us[0], us[1:]...)
	}
}

func productUnit(us ...units.Unit) (units.Unit, error) {
	return us[0].Mul(us[1]), nil
}

func quotientUnit(us ...units.Unit) (units.Unit, error) {
	return us[0].Div(us[1]), nil
}

func keepUnit(us ...units.Unit) (units.Unit, error) { return us[0], nil }

func dimensionless(name string, u units.Unit) error {
	if !u.IsDimensionless() {
		return errs.Unitf("%s: expected a dimensionless operand, got %s", name, u)
	}
	return nil
}
