package ops

import (
	"github.com/x448/float16"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/transform"
	"github.com/born-ml/strided/internal/units"
	"github.com/born-ml/strided/internal/variable"
)

func less[T number](a, b T) bool { return a < b }

func equal[T comparable](a, b T) bool { return a == b }

func where[T dtype.Element](c bool, a, b T) T {
	if c {
		return a
	}
	return b
}

func whereVar[T dtype.Element](c vv[bool], a, b vv[T]) vv[T] {
	if c.Value {
		return a
	}
	return b
}

func whereOverload[T dtype.Element]() transform.Func3[T, bool, T, T] {
	return transform.Func3[T, bool, T, T]{Value: where[T], Variance: whereVar[T]}
}

// Comparison operators ignore variances and return bool.
var (
	LessOp = transform.NewOp("less", sameUnit("less"), transform.NoOutVariance,
		transform.Func2[bool, float64, float64]{Value: less[float64]},
		transform.Func2[bool, float32, float32]{Value: less[float32]},
		transform.Func2[bool, int64, int64]{Value: less[int64]},
		transform.Func2[bool, int32, int32]{Value: less[int32]},
		transform.Func2[bool, float16.Float16, float16.Float16]{
			Value: func(a, b float16.Float16) bool { return a.Float32() < b.Float32() },
		},
	)
	EqualOp = transform.NewOp("equal", sameUnit("equal"), transform.NoOutVariance,
		transform.Func2[bool, float64, float64]{Value: equal[float64]},
		transform.Func2[bool, float32, float32]{Value: equal[float32]},
		transform.Func2[bool, int64, int64]{Value: equal[int64]},
		transform.Func2[bool, int32, int32]{Value: equal[int32]},
		transform.Func2[bool, bool, bool]{Value: equal[bool]},
		transform.Func2[bool, float16.Float16, float16.Float16]{
			Value: func(a, b float16.Float16) bool { return a.Float32() == b.Float32() },
		},
	)
	// WhereOp selects from its second or third argument by the first.
	WhereOp = transform.NewOp("where", whereUnit, transform.ExpectNoVarianceArg(0)|transform.MixedVariance,
		whereOverload[float64](),
		whereOverload[float32](),
		whereOverload[int64](),
		whereOverload[int32](),
		whereOverload[bool](),
		whereOverload[float16.Float16](),
	)
)

func whereUnit(us ...units.Unit) (units.Unit, error) {
	if err := dimensionless("where", us[0]); err != nil {
		return units.Unit{}, err
	}
	return units.Same("where", us[1], us[2])
}

// Less returns a < b.
func Less(a, b *variable.Variable) (*variable.Variable, error) {
	return transform.Transform(LessOp, a, b)
}

// Equal returns a == b.
func Equal(a, b *variable.Variable) (*variable.Variable, error) {
	return transform.Transform(EqualOp, a, b)
}

// Where returns a where cond is true and b elsewhere.
func Where(cond, a, b *variable.Variable) (*variable.Variable, error) {
	return transform.Transform(WhereOp, cond, a, b)
}
