package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/born-ml/strided/array"
)

type check struct {
	name string
	run  func(e *array.Engine) error
}

var errMismatch = errors.New("unexpected result")

func expect[T comparable](got, want []T) error {
	if !slices.Equal(got, want) {
		return fmt.Errorf("%w: got %v, want %v", errMismatch, got, want)
	}
	return nil
}

func vector(values ...float64) *array.Variable {
	return array.MustNew(array.MustDims("x", len(values)), values)
}

var checks = []check{
	{"add", func(e *array.Engine) error {
		out, err := e.Transform(operator("add"), vector(1, 2, 3, 4), vector(10, 20, 30, 40))
		if err != nil {
			return err
		}
		return expect(array.Values[float64](out).Collect(), []float64{11, 22, 33, 44})
	}},
	{"add with variances", func(e *array.Engine) error {
		a := array.MustNew(array.MustDims("x", 2), []float64{1, 2}, array.WithVariances([]float64{0.5, 0.5}))
		out, err := e.Transform(operator("add"), a, vector(3, 4))
		if err != nil {
			return err
		}
		if err := expect(array.Values[float64](out).Collect(), []float64{4, 6}); err != nil {
			return err
		}
		return expect(array.Variances[float64](out).Collect(), []float64{0.5, 0.5})
	}},
	{"transpose", func(e *array.Engine) error {
		a := array.MustNew(array.MustDims("x", 2, "y", 3), []float64{0, 1, 2, 3, 4, 5})
		tr, err := a.Transpose("y", "x")
		if err != nil {
			return err
		}
		zero, err := array.Zeros[float64](tr.Dims(), array.Dimensionless, false)
		if err != nil {
			return err
		}
		out, err := e.Transform(operator("add"), tr, zero)
		if err != nil {
			return err
		}
		return expect(array.Values[float64](out).Collect(), []float64{0, 3, 1, 4, 2, 5})
	}},
	{"bins out of order", func(e *array.Engine) error {
		indices := array.MustNew(array.MustDims("row", 2), []array.IndexPair{{Begin: 4, End: 7}, {Begin: 0, End: 4}})
		rows, err := array.NewBinned(indices, "event", array.MustNew(array.MustDims("event", 7), []float64{0, 1, 2, 3, 4, 5, 6}))
		if err != nil {
			return err
		}
		sums, err := array.Zeros[float64](rows.Dims(), array.Dimensionless, false)
		if err != nil {
			return err
		}
		if err := e.AccumulateInPlace(plusEquals(), sums, rows); err != nil {
			return err
		}
		return expect(array.Values[float64](sums).Collect(), []float64{15, 6})
	}},
	{"aliasing", func(e *array.Engine) error {
		a := vector(0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
		target, err := a.Slice("x", 2, 10)
		if err != nil {
			return err
		}
		src, err := a.Slice("x", 0, 8)
		if err != nil {
			return err
		}
		if err := e.TransformInPlace(assign(), target, src); err != nil {
			return err
		}
		return expect(array.Values[float64](a).Collect(), []float64{0, 1, 0, 1, 2, 3, 4, 5, 6, 7})
	}},
	{"variance broadcast", func(e *array.Engine) error {
		a := array.MustNew(array.MustDims("x", 2), []float64{1, 2}, array.WithVariances([]float64{1, 1}))
		b := array.MustNew(array.MustDims("y", 2), []float64{1, 2})
		_, err := e.Transform(operator("add"), a, b)
		if !errors.Is(err, array.ErrVariances) {
			return fmt.Errorf("%w: got %v, want a variances error", errMismatch, err)
		}
		return nil
	}},
}

func operator(name string) *array.Op {
	for _, op := range array.Operators() {
		if op.Name() == name {
			return op
		}
	}
	panic("unknown operator " + name)
}

func plusEquals() *array.Op { return operator("plus_equals") }

func assign() *array.Op { return operator("assign") }

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run self-checks on the sequential and default engines",
		Args:  cobra.NoArgs,
		RunE:  CheckHandler,
	}
}

// CheckHandler runs every self-check on each engine and fails if any check
// fails.
func CheckHandler(cmd *cobra.Command, _ []string) error {
	engines := []struct {
		name   string
		engine *array.Engine
	}{
		{"sequential", array.NewEngine(array.ParallelConfig{NumWorkers: 1, MinChunkSize: 1}, nil)},
		{"default", array.DefaultEngine()},
	}

	table := newTable(cmd, "CHECK", "ENGINE", "RESULT")
	var failed []error
	for _, c := range checks {
		for _, e := range engines {
			result := "ok"
			if err := c.run(e.engine); err != nil {
				result = "FAIL: " + err.Error()
				failed = append(failed, fmt.Errorf("%s on %s engine: %w", c.name, e.name, err))
			}
			table.Append([]string{c.name, e.name, result})
		}
	}
	table.Render()
	return errors.Join(failed...)
}
