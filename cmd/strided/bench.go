package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/born-ml/strided/array"
	"github.com/born-ml/strided/internal/parallel"
)

type benchCase struct {
	name string
	// setup returns the benchmarked call and the number of elements it
	// touches.
	setup func(n int) (func(e *array.Engine) error, int)
}

func fill(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	parallel.For(n, func(i int) { out[i] = f(i) }, parallel.DefaultConfig())
	return out
}

func sqrtOf(i int) float64 { return math.Sqrt(float64(i)) }

func square(n int) (rows, cols int) {
	rows = max(int(math.Sqrt(float64(n))), 1)
	return rows, max(n/rows, 1)
}

var benchCases = []benchCase{
	{"add contiguous", func(n int) (func(*array.Engine) error, int) {
		a := vector(fill(n, func(i int) float64 { return float64(i) })...)
		b := vector(fill(n, func(i int) float64 { return float64(n - i) })...)
		return func(e *array.Engine) error {
			_, err := e.Transform(operator("add"), a, b)
			return err
		}, n
	}},
	{"add transposed", func(n int) (func(*array.Engine) error, int) {
		rows, cols := square(n)
		a := array.MustNew(array.MustDims("x", rows, "y", cols), fill(rows*cols, sqrtOf))
		b, err := array.MustNew(array.MustDims("y", cols, "x", rows), fill(rows*cols, func(i int) float64 { return math.Cbrt(float64(i)) })).Transpose("x", "y")
		if err != nil {
			panic(err)
		}
		return func(e *array.Engine) error {
			_, err := e.Transform(operator("add"), a, b)
			return err
		}, rows * cols
	}},
	{"multiply broadcast", func(n int) (func(*array.Engine) error, int) {
		rows, cols := square(n)
		a := array.MustNew(array.MustDims("x", rows), fill(rows, sqrtOf))
		b := array.MustNew(array.MustDims("y", cols), fill(cols, sqrtOf))
		return func(e *array.Engine) error {
			_, err := e.Transform(operator("multiply"), a, b)
			return err
		}, rows * cols
	}},
	{"plus_equals with variances", func(n int) (func(*array.Engine) error, int) {
		one := func(int) float64 { return 1 }
		target := array.MustNew(array.MustDims("x", n), fill(n, sqrtOf), array.WithVariances(fill(n, one)))
		a := array.MustNew(array.MustDims("x", n), fill(n, one), array.WithVariances(fill(n, one)))
		return func(e *array.Engine) error {
			return e.TransformInPlace(operator("plus_equals"), target, a)
		}, n
	}},
	{"bins sum", func(n int) (func(*array.Engine) error, int) {
		bins := max(n/64, 1)
		pairs := make([]array.IndexPair, bins)
		for i := range pairs {
			pairs[i] = array.IndexPair{Begin: i * n / bins, End: (i + 1) * n / bins}
		}
		rows, err := array.NewBinned(array.MustNew(array.MustDims("row", bins), pairs), "event",
			array.MustNew(array.MustDims("event", n), fill(n, sqrtOf)))
		if err != nil {
			panic(err)
		}
		sums, err := array.Zeros[float64](rows.Dims(), array.Dimensionless, false)
		if err != nil {
			panic(err)
		}
		return func(e *array.Engine) error {
			return e.AccumulateInPlace(operator("plus_equals"), sums, rows)
		}, n
	}},
}

func newBenchCmd() *cobra.Command {
	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "Time transforms on the sequential and default engines",
		Args:  cobra.NoArgs,
		RunE:  BenchHandler,
	}
	benchCmd.Flags().Int("size", 1<<20, "Number of elements per operand")
	benchCmd.Flags().Int("repeat", 5, "Runs per case; the fastest is reported")
	return benchCmd
}

// BenchHandler times every benchmark case on each engine.
func BenchHandler(cmd *cobra.Command, _ []string) error {
	size, err := cmd.Flags().GetInt("size")
	if err != nil {
		return err
	}
	repeat, err := cmd.Flags().GetInt("repeat")
	if err != nil {
		return err
	}
	if size < 1 || repeat < 1 {
		return fmt.Errorf("size and repeat must be positive, got %d and %d", size, repeat)
	}

	def := array.DefaultEngine()
	engines := []struct {
		name   string
		engine *array.Engine
	}{
		{"sequential", array.NewEngine(array.ParallelConfig{NumWorkers: 1, MinChunkSize: 1}, nil)},
		{fmt.Sprintf("default (%d workers)", def.Config().NumWorkers), def},
	}

	table := newTable(cmd, "CASE", "ENGINE", "ELEMENTS", "BEST", "MELEM/S")
	for _, c := range benchCases {
		run, n := c.setup(size)
		for _, e := range engines {
			best := time.Duration(math.MaxInt64)
			for range repeat {
				start := time.Now()
				if err := run(e.engine); err != nil {
					return fmt.Errorf("%s: %w", c.name, err)
				}
				best = min(best, time.Since(start))
			}
			rate := float64(n) / max(best, time.Nanosecond).Seconds() / 1e6
			table.Append([]string{c.name, e.name, fmt.Sprint(n), best.String(), fmt.Sprintf("%.1f", rate)})
		}
	}
	table.Render()
	return nil
}
