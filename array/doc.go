// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package array provides labeled, strided arrays and the element-wise
// transform engine operating on them.
//
// # Overview
//
// A Variable is a multi-dimensional array whose dimensions carry labels. It
// has a unit, optional variances (squared uncertainties) and may be binned:
// a binned variable holds one range of a shared buffer per element.
//
// Operators are applied element by element over the broadcast of their
// operands:
//
//	x := array.MustNew(array.MustDims("x", 3), []float64{1, 2, 3}, array.WithUnit(array.Meter))
//	y := array.MustNew(array.MustDims("y", 2), []float64{10, 20}, array.WithUnit(array.Meter))
//	z, err := array.Add(x, y) // {x: 3, y: 2}
//
// Operands may be slices or transposes of other variables. Broadcasting is
// by label, never by position.
//
// # Variances
//
// Operators propagate variances assuming uncorrelated operands. An operand
// whose variances would be repeated across several output elements is
// rejected with ErrVariances, since the copies would be correlated.
//
// # Custom operators
//
// NewOp builds an operator from typed overloads:
//
//	square := array.NewOp("square", unitSquared, 0,
//	    array.Func1[float64, float64]{Value: func(x float64) float64 { return x * x }})
//	out, err := array.Transform(square, x)
//
// # Parallelism
//
// Large transforms are split across goroutines. The default engine reads
// STRIDED_NUM_THREADS, STRIDED_GRAIN_SIZE and STRIDED_PARALLEL from the
// environment; NewEngine builds one with an explicit configuration.
package array
