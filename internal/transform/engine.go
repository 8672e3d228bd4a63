// Package transform applies element-wise operators to variables.
//
// An operator is evaluated once per element of the broadcast of its
// operands. Operands may have different layouts, may carry variances and
// may be binned. All contract checks (dtypes, dimensions, units and
// variances) run before the first element is written.
//
// In-place entry points guarantee that every input element is read before
// any element of the target is written: inputs that alias the target
// without being the identical view are copied first.
package transform

import (
	"log/slog"
	"sync"

	"github.com/born-ml/strided/internal/dims"
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/index"
	"github.com/born-ml/strided/internal/parallel"
	"github.com/born-ml/strided/internal/units"
	"github.com/born-ml/strided/internal/variable"
)

// Engine evaluates operators. The zero value is not usable, use NewEngine.
type Engine struct {
	cfg    parallel.Config
	logger *slog.Logger
}

// NewEngine creates an engine splitting work as configured by cfg. A nil
// logger discards debug records.
func NewEngine(cfg parallel.Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Config returns the parallel configuration.
func (e *Engine) Config() parallel.Config { return e.cfg }

var defaultEngine = sync.OnceValue(func() *Engine {
	return NewEngine(parallel.DefaultConfig(), slog.Default())
})

// Default returns the engine used by the package-level functions. It is
// configured from the environment on first use.
func Default() *Engine { return defaultEngine() }

// Transform evaluates op with the default engine.
func Transform(op *Op, args ...*variable.Variable) (*variable.Variable, error) {
	return Default().Transform(op, args...)
}

// TransformInPlace evaluates op into target with the default engine.
func TransformInPlace(op *Op, target *variable.Variable, args ...*variable.Variable) error {
	return Default().TransformInPlace(op, target, args...)
}

// AccumulateInPlace accumulates op into target with the default engine.
func AccumulateInPlace(op *Op, target *variable.Variable, args ...*variable.Variable) error {
	return Default().AccumulateInPlace(op, target, args...)
}

// DryRunInPlace validates op into target with the default engine.
func DryRunInPlace(op *Op, target *variable.Variable, args ...*variable.Variable) error {
	return Default().DryRunInPlace(op, target, args...)
}

// Transform evaluates op for every element of the broadcast of args and
// returns the result in a new variable. The result is binned if any
// argument is binned, and has variances if any argument has variances
// unless op declares NoOutVariance.
func (e *Engine) Transform(op *Op, args ...*variable.Variable) (*variable.Variable, error) {
	if len(args) == 0 || len(args) >= index.MaxArgs {
		return nil, errs.Dimensionf("%s: expected 1 to %d arguments, got %d", op.name, index.MaxArgs-1, len(args))
	}
	ov, err := op.lookup(false, dtypes(args))
	if err != nil {
		return nil, err
	}
	outDims, like, err := mergeDims(args)
	if err != nil {
		return nil, err
	}
	u, err := op.unit(unitsOf(args)...)
	if err != nil {
		return nil, err
	}

	use, withVariances, err := op.plan(ov, args)
	if err != nil {
		return nil, err
	}
	if withVariances {
		if err := op.checkVarianceBroadcast(args, use, outDims, like != nil); err != nil {
			return nil, err
		}
	}

	out, err := ov.allocate(outDims, like, u, withVariances)
	if err != nil {
		return nil, err
	}
	ops := make([]operand, 0, len(args)+1)
	ops = append(ops, operand{v: out, variances: withVariances})
	for k, a := range args {
		ops = append(ops, operand{v: a, variances: use[k]})
	}
	if err := e.run(op, outDims, ops, ov, false); err != nil {
		return nil, err
	}
	return out, nil
}

// TransformInPlace evaluates op for every element of target, passing the
// current target element first. Every argument must broadcast to target.
// The unit of target is updated once all elements are written.
func (e *Engine) TransformInPlace(op *Op, target *variable.Variable, args ...*variable.Variable) error {
	c, err := e.checkInPlace(op, target, args, false)
	if err != nil {
		return err
	}
	if err := e.run(op, target.Dims(), e.resolveAliases(op, c.ops), c.ov, false); err != nil {
		return err
	}
	target.SetUnit(c.unit)
	return nil
}

// DryRunInPlace performs every check of TransformInPlace without writing
// anything.
func (e *Engine) DryRunInPlace(op *Op, target *variable.Variable, args ...*variable.Variable) error {
	_, err := e.checkInPlace(op, target, args, false)
	return err
}

// AccumulateInPlace is like TransformInPlace with the broadcast reversed:
// target must broadcast to the merged dimensions of args, so a target
// element is updated once for every argument element mapping to it. The
// unit of target is not changed.
func (e *Engine) AccumulateInPlace(op *Op, target *variable.Variable, args ...*variable.Variable) error {
	c, err := e.checkInPlace(op, target, args, true)
	if err != nil {
		return err
	}
	return e.run(op, c.iter, e.resolveAliases(op, c.ops), c.ov, true)
}

type inPlaceCall struct {
	ov   Overload
	ops  []operand
	iter dims.Dimensions
	unit units.Unit
}

func (e *Engine) checkInPlace(op *Op, target *variable.Variable, args []*variable.Variable, accumulate bool) (inPlaceCall, error) {
	if len(args) >= index.MaxArgs {
		return inPlaceCall{}, errs.Dimensionf("%s: expected at most %d arguments, got %d", op.name, index.MaxArgs-1, len(args))
	}
	operands := append([]*variable.Variable{target}, args...)
	ov, err := op.lookup(true, dtypes(operands))
	if err != nil {
		return inPlaceCall{}, err
	}

	iter := target.Dims()
	if accumulate {
		merged, _, err := mergeDims(args)
		if err != nil {
			return inPlaceCall{}, err
		}
		if !merged.Includes(target.Dims()) {
			return inPlaceCall{}, errs.Dimensionf("%s: cannot accumulate %s into %s", op.name, merged, target.Dims())
		}
		iter = merged
	} else {
		for _, a := range args {
			if !target.Dims().Includes(a.Dims()) {
				return inPlaceCall{}, errs.Dimensionf("%s: cannot broadcast %s to %s", op.name, a.Dims(), target.Dims())
			}
			if a.IsBinned() && !target.IsBinned() {
				return inPlaceCall{}, errs.BinnedDataf("%s: cannot write binned %s into dense %s", op.name, a, target)
			}
		}
	}

	c := inPlaceCall{ov: ov, iter: iter, unit: target.Unit()}
	if !accumulate {
		if c.unit, err = op.unit(unitsOf(operands)...); err != nil {
			return inPlaceCall{}, err
		}
	}

	use, withVariances, err := op.plan(ov, operands)
	if err != nil {
		return inPlaceCall{}, err
	}
	if withVariances && !accumulate {
		if err := op.checkVarianceBroadcast(args, use[1:], target.Dims(), target.IsBinned()); err != nil {
			return inPlaceCall{}, err
		}
	}
	c.ops = make([]operand, len(operands))
	for k, v := range operands {
		c.ops[k] = operand{v: v, variances: use[k]}
	}

	// Building the cursor validates dimensions and bin sizes.
	if _, err := newCursor(iter, c.ops); err != nil {
		return inPlaceCall{}, err
	}
	return c, nil
}

// resolveAliases replaces every input that overlaps the target without
// being the identical view by a private copy.
func (e *Engine) resolveAliases(op *Op, ops []operand) []operand {
	target := ops[0].v
	for k := 1; k < len(ops); k++ {
		a := ops[k].v
		if a.DType() != target.DType() || !a.Overlaps(target) {
			continue
		}
		e.logger.Debug("copying input aliasing the target", "op", op.name, "arg", k, "input", a.String())
		ops[k].v = a.Copy()
	}
	return ops
}

func newCursor(iter dims.Dimensions, ops []operand) (index.MultiIndex, error) {
	params := make([]index.ViewParams, len(ops))
	for k, o := range ops {
		params[k] = o.v.ViewParams()
	}
	m, err := index.NewMultiIndex(iter, params...)
	if err != nil {
		return index.MultiIndex{}, err
	}
	return m, m.Err()
}

// run evaluates the bound kernel over iter. The positions handed out by
// SetIndex are split into chunks evaluated concurrently, unless the output
// is broadcast and chunks could write the same element.
func (e *Engine) run(op *Op, iter dims.Dimensions, ops []operand, ov Overload, accumulate bool) error {
	m, err := newCursor(iter, ops)
	if err != nil {
		return err
	}
	k := ov.bind(ops)

	cfg := e.cfg
	if m.Broadcasts(0) && parallel.Chunks(m.Volume(), cfg) > 1 {
		e.logger.Debug("output is broadcast, running sequentially", "op", op.name, "dims", iter.String(), "accumulate", accumulate)
		cfg = parallel.Sequential()
	}
	return parallel.Range(m.Volume(), cfg, func(begin, end int) error {
		it, stop := m, m
		it.SetIndex(begin)
		stop.SetIndex(end)
		for it.Err() == nil && !it.Equal(&stop) {
			n := it.RunLength(&stop)
			off, stride := it.Offsets(), it.InnerStrides()
			k(&off, &stride, n)
			it.IncrementBy(n)
		}
		return it.Err()
	})
}

func dtypes(vs []*variable.Variable) []dtype.DataType {
	out := make([]dtype.DataType, len(vs))
	for i, v := range vs {
		out[i] = v.DType()
	}
	return out
}

func unitsOf(vs []*variable.Variable) []units.Unit {
	out := make([]units.Unit, len(vs))
	for i, v := range vs {
		out[i] = v.Unit()
	}
	return out
}

// mergeDims returns the broadcast of the dimensions of vs and the first
// binned variable, if any.
func mergeDims(vs []*variable.Variable) (dims.Dimensions, *variable.Variable, error) {
	var out dims.Dimensions
	var like *variable.Variable
	for _, v := range vs {
		merged, err := dims.Merge(out, v.Dims())
		if err != nil {
			return dims.Dimensions{}, nil, err
		}
		out = merged
		if like == nil && v.IsBinned() {
			like = v
		}
	}
	return out, like, nil
}
