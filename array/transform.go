// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package array

import (
	"log/slog"

	"github.com/born-ml/strided/internal/ops"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/transform"
)

// Op is an element-wise operator.
type Op = transform.Op

// Flag adjusts how an operator treats variances.
type Flag = transform.Flag

// UnitFunc computes the unit of an operator result.
type UnitFunc = transform.UnitFunc

// Overload is one typed implementation of an operator.
type Overload = transform.Overload

// ValueAndVariance is an element together with its variance.
type ValueAndVariance[T any] = transform.ValueAndVariance[T]

// Out-of-place overloads.
type (
	Func1[Out, A Element]       = transform.Func1[Out, A]
	Func2[Out, A, B Element]    = transform.Func2[Out, A, B]
	Func3[Out, A, B, C Element] = transform.Func3[Out, A, B, C]
)

// In-place overloads. The first parameter is the target element.
type (
	Update0[T Element]          = transform.Update0[T]
	Update1[T, A Element]       = transform.Update1[T, A]
	Update2[T, A, B Element]    = transform.Update2[T, A, B]
	Update3[T, A, B, C Element] = transform.Update3[T, A, B, C]
)

// Variance flags.
const (
	NoOutVariance                 = transform.NoOutVariance
	ExpectInVarianceIfOutVariance = transform.ExpectInVarianceIfOutVariance
	ExpectAllOrNoneHaveVariance   = transform.ExpectAllOrNoneHaveVariance
	ForceVarianceBroadcast        = transform.ForceVarianceBroadcast
	MixedVariance                 = transform.MixedVariance
)

// ExpectNoVarianceArg requires argument k to have no variances.
func ExpectNoVarianceArg(k int) Flag { return transform.ExpectNoVarianceArg(k) }

// NewOp creates an operator from overloads that are all in-place or all
// out-of-place.
func NewOp(name string, unit UnitFunc, flags Flag, overloads ...Overload) *Op {
	return transform.NewOp(name, unit, flags, overloads...)
}

// Engine evaluates operators with a fixed parallel configuration.
type Engine = transform.Engine

// ParallelConfig controls how an engine splits work.
type ParallelConfig = parallel.Config

// NewEngine creates an engine. A nil logger discards debug records.
func NewEngine(cfg ParallelConfig, logger *slog.Logger) *Engine {
	return transform.NewEngine(cfg, logger)
}

// DefaultEngine returns the engine used by the package-level functions.
func DefaultEngine() *Engine { return transform.Default() }

// Transform applies op to args and returns a new variable.
func Transform(op *Op, args ...*Variable) (*Variable, error) {
	return transform.Transform(op, args...)
}

// TransformInPlace applies op to target and args, writing into target.
func TransformInPlace(op *Op, target *Variable, args ...*Variable) error {
	return transform.TransformInPlace(op, target, args...)
}

// AccumulateInPlace applies op once for every element of args, accumulating
// into the target element each maps to.
func AccumulateInPlace(op *Op, target *Variable, args ...*Variable) error {
	return transform.AccumulateInPlace(op, target, args...)
}

// DryRunInPlace checks TransformInPlace without writing.
func DryRunInPlace(op *Op, target *Variable, args ...*Variable) error {
	return transform.DryRunInPlace(op, target, args...)
}

// Operators.
var (
	Add        = ops.Add
	Subtract   = ops.Subtract
	Multiply   = ops.Multiply
	Divide     = ops.Divide
	Negative   = ops.Negative
	Abs        = ops.Abs
	Sqrt       = ops.Sqrt
	Reciprocal = ops.Reciprocal
	Less       = ops.Less
	Equal      = ops.Equal
	Where      = ops.Where

	PlusEquals   = ops.PlusEquals
	MinusEquals  = ops.MinusEquals
	TimesEquals  = ops.TimesEquals
	DivideEquals = ops.DivideEquals
	Assign       = ops.Assign
	Clip         = ops.Clip
	Lerp         = ops.Lerp

	Sum     = ops.Sum
	BinsSum = ops.BinsSum
)

// Operators returns every built-in operator.
func Operators() []*Op { return ops.Catalogue() }
