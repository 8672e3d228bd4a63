package transform

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strided/internal/dims"
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/units"
	"github.com/born-ml/strided/internal/variable"
)

type vv = ValueAndVariance[float64]

func sameUnit(name string) UnitFunc {
	return func(us ...units.Unit) (units.Unit, error) { return units.Same(name, us[0], us[1:]...) }
}

func productUnit(us ...units.Unit) (units.Unit, error) {
	u := units.One
	for _, x := range us {
		u = u.Mul(x)
	}
	return u, nil
}

func lastUnit(us ...units.Unit) (units.Unit, error) { return us[len(us)-1], nil }

func addOp(flags Flag) *Op {
	return NewOp("add", sameUnit("add"), flags,
		Func2[float64, float64, float64]{
			Value:    func(a, b float64) float64 { return a + b },
			Variance: func(a, b vv) vv { return vv{Value: a.Value + b.Value, Variance: a.Variance + b.Variance} },
		})
}

var (
	add       = addOp(MixedVariance)
	strictAdd = addOp(0)

	multiply = NewOp("multiply", productUnit, MixedVariance,
		Func2[float64, float64, float64]{
			Value: func(a, b float64) float64 { return a * b },
			Variance: func(a, b vv) vv {
				return vv{Value: a.Value * b.Value, Variance: a.Variance*b.Value*b.Value + b.Variance*a.Value*a.Value}
			},
		})

	less = NewOp("less", sameUnit("less"), NoOutVariance,
		Func2[bool, float64, float64]{Value: func(a, b float64) bool { return a < b }})

	plusEquals = NewOp("plus_equals", sameUnit("plus_equals"), MixedVariance,
		Update1[float64, float64]{
			Value:    func(x *float64, a float64) { *x += a },
			Variance: func(x *vv, a vv) { x.Value += a.Value; x.Variance += a.Variance },
		})

	assign = NewOp("assign", lastUnit, 0,
		Update1[float64, float64]{Value: func(x *float64, a float64) { *x = a }})
)

func engines() map[string]*Engine {
	return map[string]*Engine{
		"sequential": NewEngine(parallel.Sequential(), nil),
		"parallel":   NewEngine(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 2}, nil),
	}
}

func vec(t *testing.T, values []float64, opts ...variable.Option) *variable.Variable {
	t.Helper()
	v, err := variable.New(dims.MustOf("x", len(values)), values, opts...)
	require.NoError(t, err)
	return v
}

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func binned(t *testing.T, buffer []float64, p ...int) *variable.Variable {
	t.Helper()
	var pairs []dtype.IndexPair
	for i := 0; i < len(p); i += 2 {
		pairs = append(pairs, dtype.IndexPair{Begin: p[i], End: p[i+1]})
	}
	indices := variable.MustNew(dims.MustOf("row", len(pairs)), pairs)
	b, err := variable.NewBinned(indices, "event", variable.MustNew(dims.MustOf("event", len(buffer)), buffer))
	require.NoError(t, err)
	return b
}

func TestTransformAdd(t *testing.T) {
	for name, e := range engines() {
		t.Run(name, func(t *testing.T) {
			out, err := e.Transform(add, vec(t, []float64{1, 2, 3, 4}), vec(t, []float64{10, 20, 30, 40}))
			require.NoError(t, err)
			assert.Equal(t, []float64{11, 22, 33, 44}, variable.Values[float64](out).Collect())
			assert.False(t, out.HasVariances())
		})
	}
}

func TestTransformMixedVariances(t *testing.T) {
	a := vec(t, []float64{1, 2, 3, 4}, variable.WithVariances([]float64{1, 1, 1, 1}))
	b := vec(t, []float64{10, 20, 30, 40})

	out, err := Transform(add, a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 22, 33, 44}, variable.Values[float64](out).Collect())
	require.True(t, out.HasVariances())
	assert.Equal(t, []float64{1, 1, 1, 1}, variable.Variances[float64](out).Collect())

	_, err = Transform(strictAdd, a, b)
	assert.ErrorIs(t, err, errs.ErrVariances)

	b = vec(t, []float64{10, 20, 30, 40}, variable.WithVariances([]float64{2, 2, 2, 2}))
	out, err = Transform(strictAdd, a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3, 3, 3}, variable.Variances[float64](out).Collect())
}

func TestTransformTypeError(t *testing.T) {
	ints := variable.MustNew(dims.MustOf("x", 2), []int32{1, 2})
	_, err := Transform(add, vec(t, []float64{1, 2}), ints)
	require.ErrorIs(t, err, errs.ErrType)
	assert.Contains(t, err.Error(), "(float64, int32)")

	err = TransformInPlace(add, vec(t, []float64{1, 2}), vec(t, []float64{1, 2}))
	assert.ErrorIs(t, err, errs.ErrType, "out-of-place overloads cannot update in place")
}

func TestTransformBroadcastAndLayout(t *testing.T) {
	for name, e := range engines() {
		t.Run(name, func(t *testing.T) {
			x := vec(t, []float64{1, 2})
			y := variable.MustNew(dims.MustOf("y", 3), []float64{10, 20, 30})
			out, err := e.Transform(add, x, y)
			require.NoError(t, err)
			assert.Equal(t, dims.MustOf("x", 2, "y", 3), out.Dims())
			assert.Equal(t, []float64{11, 21, 31, 12, 22, 32}, variable.Data[float64](out))

			a := variable.MustNew(dims.MustOf("x", 2, "y", 3), ramp(6))
			tr, err := a.Transpose("y", "x")
			require.NoError(t, err)
			out, err = e.Transform(add, a, tr)
			require.NoError(t, err)
			assert.Equal(t, dims.MustOf("x", 2, "y", 3), out.Dims())
			assert.Equal(t, []float64{0, 2, 4, 6, 8, 10}, variable.Data[float64](out))
		})
	}
}

func TestTransformLargeParallel(t *testing.T) {
	const nx, ny = 40, 25
	a := variable.MustNew(dims.MustOf("x", nx, "y", ny+5), ramp(nx*(ny+5)))
	s, err := a.Slice("y", 5, ny+5)
	require.NoError(t, err)
	tr, err := s.Transpose("y", "x")
	require.NoError(t, err)

	want, err := NewEngine(parallel.Sequential(), nil).Transform(multiply, s, tr)
	require.NoError(t, err)
	got, err := engines()["parallel"].Transform(multiply, s, tr)
	require.NoError(t, err)
	assert.Equal(t, variable.Data[float64](want), variable.Data[float64](got))

	v := variable.Values[float64](s).Collect()
	for i, x := range variable.Data[float64](got) {
		if x != v[i]*v[i] {
			t.Fatalf("element %d: got %v, want %v", i, x, v[i]*v[i])
		}
	}
}

func TestTransformErrors(t *testing.T) {
	_, err := Transform(add, vec(t, []float64{1, 2}), vec(t, []float64{1, 2, 3}))
	assert.ErrorIs(t, err, errs.ErrDimension)

	m := vec(t, []float64{1}, variable.WithUnit(units.Meter))
	s := vec(t, []float64{1}, variable.WithUnit(units.Second))
	_, err = Transform(add, m, s)
	assert.ErrorIs(t, err, errs.ErrUnit)

	out, err := Transform(multiply, m, s)
	require.NoError(t, err)
	assert.Equal(t, "m*s", out.Unit().String())

	x := vec(t, []float64{1})
	_, err = Transform(add, x, x, x, x, x)
	assert.ErrorIs(t, err, errs.ErrDimension)
}

func TestNoOutVariance(t *testing.T) {
	a := vec(t, []float64{1, 5}, variable.WithVariances([]float64{1, 1}))
	out, err := Transform(less, a, vec(t, []float64{2, 2}))
	require.NoError(t, err)
	assert.Equal(t, dtype.Bool, out.DType())
	assert.False(t, out.HasVariances())
	assert.Equal(t, []bool{true, false}, variable.Data[bool](out))
}

func TestVarianceContracts(t *testing.T) {
	withVar := func() *variable.Variable {
		return vec(t, []float64{1, 2}, variable.WithVariances([]float64{1, 1}))
	}
	plain := func() *variable.Variable { return vec(t, []float64{3, 4}) }

	t.Run("no variance branch", func(t *testing.T) {
		op := NewOp("value_only", sameUnit("value_only"), MixedVariance,
			Func2[float64, float64, float64]{Value: func(a, b float64) float64 { return a - b }})
		_, err := Transform(op, withVar(), plain())
		assert.ErrorIs(t, err, errs.ErrVariances)
		_, err = Transform(op, plain(), plain())
		assert.NoError(t, err)
	})

	t.Run("no variance on argument", func(t *testing.T) {
		op := addOp(ExpectNoVarianceArg(1))
		_, err := Transform(op, plain(), withVar())
		assert.ErrorIs(t, err, errs.ErrVariances)

		out, err := Transform(op, withVar(), plain())
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 1}, variable.Variances[float64](out).Collect())
	})

	t.Run("all or none", func(t *testing.T) {
		op := NewOp("scale", productUnit, ExpectAllOrNoneHaveVariance|MixedVariance,
			Update1[float64, float64]{
				Value:    func(x *float64, a float64) { *x *= a },
				Variance: func(x *vv, a vv) { x.Value *= a.Value },
			})
		assert.ErrorIs(t, TransformInPlace(op, withVar(), plain()), errs.ErrVariances)
		assert.ErrorIs(t, TransformInPlace(op, plain(), withVar()), errs.ErrVariances)
		assert.NoError(t, TransformInPlace(op, withVar(), withVar()))
		assert.NoError(t, TransformInPlace(op, plain(), plain()))
	})

	t.Run("in variance if out variance", func(t *testing.T) {
		newOp := func(flags Flag) *Op {
			return NewOp("scale", productUnit, flags,
				Update1[float64, float64]{
					Value:    func(x *float64, a float64) { *x *= a },
					Variance: func(x *vv, a vv) { x.Value *= a.Value },
				},
				Update1[int64, float64]{Value: func(x *int64, a float64) { *x = int64(float64(*x) * a) }})
		}

		target := plain()
		require.NoError(t, TransformInPlace(newOp(ExpectInVarianceIfOutVariance), target, withVar()))
		assert.Equal(t, []float64{3, 8}, variable.Data[float64](target))
		assert.False(t, target.HasVariances())

		assert.ErrorIs(t, TransformInPlace(newOp(0), plain(), withVar()), errs.ErrVariances)

		ints := variable.MustNew(dims.MustOf("x", 2), []int64{1, 2})
		err := TransformInPlace(newOp(ExpectInVarianceIfOutVariance), ints, withVar())
		assert.ErrorIs(t, err, errs.ErrVariances, "a target that cannot hold variances never drops them")
		assert.Equal(t, []int64{1, 2}, variable.Data[int64](ints))
	})

	t.Run("variance broadcast", func(t *testing.T) {
		y := variable.MustNew(dims.MustOf("y", 2), []float64{10, 20})
		_, err := Transform(add, withVar(), y)
		assert.ErrorIs(t, err, errs.ErrVariances)

		out, err := Transform(addOp(MixedVariance|ForceVarianceBroadcast), withVar(), y)
		require.NoError(t, err)
		assert.Equal(t, []float64{11, 21, 12, 22}, variable.Data[float64](out))
		assert.Equal(t, []float64{1, 1, 1, 1}, variable.VarianceData[float64](out))

		target := variable.MustNew(dims.MustOf("y", 2, "x", 2), make([]float64, 4), variable.WithVariances(make([]float64, 4)))
		assert.ErrorIs(t, TransformInPlace(plusEquals, target, withVar()), errs.ErrVariances)
	})
}

func TestTransformInPlaceUnits(t *testing.T) {
	target := vec(t, []float64{1, 2}, variable.WithUnit(units.Meter))
	require.NoError(t, TransformInPlace(plusEquals, target, vec(t, []float64{1, 1}, variable.WithUnit(units.Meter))))
	assert.Equal(t, []float64{2, 3}, variable.Data[float64](target))
	assert.Equal(t, units.Meter, target.Unit())

	err := TransformInPlace(plusEquals, target, vec(t, []float64{1, 1}, variable.WithUnit(units.Second)))
	assert.ErrorIs(t, err, errs.ErrUnit)
	assert.Equal(t, []float64{2, 3}, variable.Data[float64](target), "nothing is written on error")

	require.NoError(t, TransformInPlace(assign, target, vec(t, []float64{5, 6}, variable.WithUnit(units.Second))))
	assert.Equal(t, units.Second, target.Unit())
}

func TestTransformInPlaceRejectsGrowingArguments(t *testing.T) {
	target := vec(t, []float64{1, 2})
	arg := variable.MustNew(dims.MustOf("x", 2, "y", 2), ramp(4))
	assert.ErrorIs(t, TransformInPlace(plusEquals, target, arg), errs.ErrDimension)
}

func TestAliasingSafety(t *testing.T) {
	for name, e := range engines() {
		t.Run(name, func(t *testing.T) {
			a := vec(t, ramp(10))
			target, err := a.Slice("x", 1, 10)
			require.NoError(t, err)
			src, err := a.Slice("x", 0, 9)
			require.NoError(t, err)

			want := append([]float64{0}, ramp(9)...)
			require.NoError(t, e.TransformInPlace(assign, target, src))
			assert.Equal(t, want, variable.Data[float64](a))
		})
	}

	// The identical view is not copied and reads each element before
	// writing it.
	a := vec(t, []float64{1, 2, 3})
	require.NoError(t, TransformInPlace(plusEquals, a, a))
	assert.Equal(t, []float64{2, 4, 6}, variable.Data[float64](a))
}

func TestAliasCopyIsLogged(t *testing.T) {
	var buf bytes.Buffer
	e := NewEngine(parallel.Sequential(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	a := vec(t, ramp(4))
	target, _ := a.Slice("x", 0, 3)
	src, _ := a.Slice("x", 1, 4)
	require.NoError(t, e.TransformInPlace(assign, target, src))
	assert.Equal(t, []float64{1, 2, 3, 3}, variable.Data[float64](a))
	assert.Contains(t, buf.String(), "copying input aliasing the target")
}

func TestDryRunInPlace(t *testing.T) {
	target := vec(t, []float64{1, 2})
	require.NoError(t, DryRunInPlace(plusEquals, target, vec(t, []float64{10, 20})))
	assert.Equal(t, []float64{1, 2}, variable.Data[float64](target))

	assert.ErrorIs(t, DryRunInPlace(plusEquals, target, vec(t, []float64{1, 2, 3})), errs.ErrDimension)
	assert.ErrorIs(t, DryRunInPlace(plusEquals, target, vec(t, []float64{1, 2}, variable.WithVariances([]float64{1, 1}))), errs.ErrVariances)
	assert.ErrorIs(t, DryRunInPlace(plusEquals, target, variable.MustNew(dims.MustOf("x", 2), []int64{1, 2})), errs.ErrType)
}

func TestAccumulateInPlace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := NewEngine(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 2}, logger)

	const ny = 1000
	arg := variable.MustNew(dims.MustOf("x", 2, "y", ny), ramp(2*ny), variable.WithUnit(units.Meter))
	target := variable.MustNew(dims.MustOf("x", 2), []float64{0, 0}, variable.WithUnit(units.Counts))

	require.NoError(t, e.AccumulateInPlace(plusEquals, target, arg))
	assert.Equal(t, []float64{499500, 1499500}, variable.Data[float64](target))
	assert.Equal(t, units.Counts, target.Unit(), "accumulation leaves the unit alone")
	assert.Contains(t, buf.String(), "running sequentially")

	err := e.AccumulateInPlace(plusEquals, variable.MustNew(dims.MustOf("z", 2), []float64{0, 0}), arg)
	assert.ErrorIs(t, err, errs.ErrDimension)
}

func TestTransformBinned(t *testing.T) {
	scale := variable.MustNew(dims.MustOf("row", 2), []float64{10, 100})

	for name, e := range engines() {
		t.Run(name, func(t *testing.T) {
			out, err := e.Transform(multiply, binned(t, ramp(7), 0, 3, 3, 7), scale)
			require.NoError(t, err)
			require.True(t, out.IsBinned())
			assert.Equal(t, []float64{0, 10, 20, 300, 400, 500, 600}, variable.Data[float64](out))

			out, err = e.Transform(multiply, binned(t, ramp(7), 4, 7, 0, 4), scale)
			require.NoError(t, err)
			assert.Equal(t, []float64{40, 50, 60, 0, 100, 200, 300}, variable.Data[float64](out))

			out, err = e.Transform(add, binned(t, ramp(7), 4, 7, 0, 4), binned(t, ramp(7), 0, 3, 3, 7))
			require.NoError(t, err)
			assert.Equal(t, []float64{4, 6, 8, 3, 5, 7, 9}, variable.Data[float64](out))
		})
	}
}

func TestTransformBinnedSizeMismatch(t *testing.T) {
	_, err := Transform(add, binned(t, ramp(7), 0, 3, 3, 7), binned(t, ramp(4), 0, 2, 2, 4))
	assert.ErrorIs(t, err, errs.ErrBinnedData)

	_, err = Transform(add, binned(t, ramp(7), 0, 2, 2, 3, 3, 7), binned(t, ramp(7), 0, 2, 2, 4, 4, 7))
	assert.ErrorIs(t, err, errs.ErrBinnedData)
}

func TestTransformInPlaceBinned(t *testing.T) {
	events := binned(t, ramp(7), 0, 3, 3, 3, 3, 7)
	offsets := variable.MustNew(dims.MustOf("row", 3), []float64{100, 200, 300})
	require.NoError(t, TransformInPlace(plusEquals, events, offsets))
	assert.Equal(t, []float64{100, 101, 102, 303, 304, 305, 306}, variable.Data[float64](events))

	dense := variable.MustNew(dims.MustOf("row", 3), []float64{0, 0, 0})
	assert.ErrorIs(t, TransformInPlace(plusEquals, dense, events), errs.ErrBinnedData)
}

func TestAccumulateBins(t *testing.T) {
	for name, e := range engines() {
		t.Run(name, func(t *testing.T) {
			sums := variable.MustNew(dims.MustOf("row", 3), []float64{0, 0, 0})
			require.NoError(t, e.AccumulateInPlace(plusEquals, sums, binned(t, ramp(7), 4, 7, 3, 3, 0, 3)))
			assert.Equal(t, []float64{15, 0, 3}, variable.Data[float64](sums))
		})
	}
}

// sparseRows returns begin/end pairs of 100 consecutive bins, a third of them
// empty, and the total number of events.
func sparseRows() ([]int, int) {
	var p []int
	n := 0
	for i := range 100 {
		size := i%5 + 1
		if i%3 == 0 || (i >= 49 && i <= 51) {
			size = 0
		}
		p = append(p, n, n+size)
		n += size
	}
	return p, n
}

func TestBinnedEmptyBinsAtChunkEdges(t *testing.T) {
	p, n := sparseRows()
	rows := len(p) / 2
	scales := make([]float64, rows)
	wantScaled := make([]float64, n)
	wantShifted := make([]float64, n)
	wantSums := make([]float64, rows)
	for r := range rows {
		scales[r] = float64(r + 1)
		for j := p[2*r]; j < p[2*r+1]; j++ {
			wantScaled[j] = float64(j) * scales[r]
			wantShifted[j] = float64(j) + scales[r]
			wantSums[r] += float64(j)
		}
	}

	for name, e := range map[string]*Engine{
		"sequential": NewEngine(parallel.Sequential(), nil),
		"parallel":   NewEngine(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}, nil),
	} {
		t.Run(name, func(t *testing.T) {
			scale := variable.MustNew(dims.MustOf("row", rows), scales)

			out, err := e.Transform(multiply, binned(t, ramp(n), p...), scale)
			require.NoError(t, err)
			assert.Equal(t, wantScaled, variable.Data[float64](out))

			events := binned(t, ramp(n), p...)
			require.NoError(t, e.TransformInPlace(plusEquals, events, scale))
			assert.Equal(t, wantShifted, variable.Data[float64](events))

			sums := variable.MustNew(dims.MustOf("row", rows), make([]float64, rows))
			require.NoError(t, e.AccumulateInPlace(plusEquals, sums, binned(t, ramp(n), p...)))
			assert.Equal(t, wantSums, variable.Data[float64](sums))
		})
	}
}
