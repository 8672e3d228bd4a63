package ops

import (
	"github.com/x448/float16"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/transform"
	"github.com/born-ml/strided/internal/units"
	"github.com/born-ml/strided/internal/variable"
)

func assignOverload[T dtype.Element]() transform.Update1[T, T] {
	return transform.Update1[T, T]{
		Value:    func(x *T, a T) { *x = a },
		Variance: func(x *vv[T], a vv[T]) { *x = a },
	}
}

func clip[T number](x *T, lo, hi T) { *x = min(max(*x, lo), hi) }

// clipVar drops the variance of clipped elements.
func clipVar[T float](x *vv[T], lo, hi vv[T]) {
	if x.Value < lo.Value || x.Value > hi.Value {
		clip(&x.Value, lo.Value, hi.Value)
		x.Variance = 0
	}
}

func lerp[T float](x *T, a, b, w T) { *x = a + w*(b-a) }

func lerpVar[T float](x *vv[T], a, b, w vv[T]) {
	lerp(&x.Value, a.Value, b.Value, w.Value)
	x.Variance = (1-w.Value)*(1-w.Value)*a.Variance + w.Value*w.Value*b.Variance
}

var (
	// AssignOp copies its argument into the target, including unit and
	// variances.
	AssignOp = transform.NewOp("assign", func(us ...units.Unit) (units.Unit, error) { return us[1], nil }, transform.MixedVariance,
		assignOverload[float64](),
		assignOverload[float32](),
		assignOverload[int64](),
		assignOverload[int32](),
		assignOverload[bool](),
		assignOverload[float16.Float16](),
	)
	// ClipOp limits the target to [lo, hi]. The bounds must be exact.
	ClipOp = transform.NewOp("clip", sameUnit("clip"), transform.ExpectNoVarianceArg(1)|transform.ExpectNoVarianceArg(2),
		transform.Update2[float64, float64, float64]{Value: clip[float64], Variance: clipVar[float64]},
		transform.Update2[float32, float32, float32]{Value: clip[float32], Variance: clipVar[float32]},
		transform.Update2[int64, int64, int64]{Value: clip[int64]},
		transform.Update2[int32, int32, int32]{Value: clip[int32]},
	)
	// LerpOp writes a + w*(b-a) into the target. The weight must be exact
	// and dimensionless.
	LerpOp = transform.NewOp("lerp", lerpUnit, transform.MixedVariance|transform.ExpectNoVarianceArg(3),
		transform.Update3[float64, float64, float64, float64]{Value: lerp[float64], Variance: lerpVar[float64]},
		transform.Update3[float32, float32, float32, float32]{Value: lerp[float32], Variance: lerpVar[float32]},
	)
)

func lerpUnit(us ...units.Unit) (units.Unit, error) {
	if err := dimensionless("lerp", us[3]); err != nil {
		return units.Unit{}, err
	}
	return units.Same("lerp", us[1], us[2])
}

// Assign copies a into target, broadcasting it if needed.
func Assign(target, a *variable.Variable) error {
	return transform.TransformInPlace(AssignOp, target, a)
}

// Clip limits every element of target to [lo, hi].
func Clip(target, lo, hi *variable.Variable) error {
	return transform.TransformInPlace(ClipOp, target, lo, hi)
}

// Lerp writes the linear interpolation between a and b at weight w into
// target. The previous content of target is ignored.
func Lerp(target, a, b, w *variable.Variable) error {
	return transform.TransformInPlace(LerpOp, target, a, b, w)
}
