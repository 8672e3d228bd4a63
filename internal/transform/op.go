package transform

import (
	"slices"
	"strings"

	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/units"
)

// Flag declares how an Op treats variances.
type Flag uint32

// Variance flags. Arguments are numbered in the order the element function
// receives them; for in-place operators the target is argument 0.
const (
	// NoOutVariance marks operators whose result never has variances, such
	// as comparisons. Input variances are ignored.
	NoOutVariance Flag = 1 << iota
	// ExpectInVarianceIfOutVariance lets an in-place target without
	// variances ignore the variances of its inputs.
	ExpectInVarianceIfOutVariance
	// ExpectAllOrNoneHaveVariance requires every operand, the in-place
	// target included, to either have variances or not.
	ExpectAllOrNoneHaveVariance
	// ForceVarianceBroadcast allows an input with variances to be broadcast
	// into the output, which ignores the correlations this introduces.
	ForceVarianceBroadcast
	// MixedVariance feeds operands without variances into the variance
	// branch with a variance of zero.
	MixedVariance

	noVarianceArg Flag = 1 << 16
)

// ExpectNoVarianceArg forbids variances on argument k.
func ExpectNoVarianceArg(k int) Flag { return noVarianceArg << k }

func (f Flag) has(g Flag) bool { return f&g != 0 }

func (f Flag) noVarianceOn(k int) bool { return f.has(ExpectNoVarianceArg(k)) }

// UnitFunc computes the unit of the result from the units of the operands,
// the in-place target first. It runs once per call, before any element is
// written.
type UnitFunc func(operands ...units.Unit) (units.Unit, error)

// Op is an element-wise operator: a unit function plus one overload per
// supported combination of element types.
type Op struct {
	name      string
	unit      UnitFunc
	flags     Flag
	overloads []Overload
}

// NewOp creates an operator. Overloads must either all be out-of-place
// (Func*) or all in-place (Update*).
func NewOp(name string, unit UnitFunc, flags Flag, overloads ...Overload) *Op {
	return &Op{name: name, unit: unit, flags: flags, overloads: overloads}
}

// Name returns the operator name used in error messages.
func (op *Op) Name() string { return op.name }

// Flags returns the variance flags.
func (op *Op) Flags() Flag { return op.flags }

// Signatures lists the element types of every overload.
func (op *Op) Signatures() [][]dtype.DataType {
	out := make([][]dtype.DataType, len(op.overloads))
	for i, ov := range op.overloads {
		out[i] = ov.Signature()
	}
	return out
}

func (op *Op) lookup(inPlace bool, dts []dtype.DataType) (Overload, error) {
	for _, ov := range op.overloads {
		if ov.InPlace() != inPlace {
			continue
		}
		if slices.Equal(ov.Signature(), dts) {
			return ov, nil
		}
	}
	return nil, errs.Typef("%s: no overload for (%s)", op.name, typeList(dts))
}

func typeList(dts []dtype.DataType) string {
	names := make([]string, len(dts))
	for i, dt := range dts {
		names[i] = dt.String()
	}
	return strings.Join(names, ", ")
}
