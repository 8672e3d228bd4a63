package transform

import (
	"github.com/born-ml/strided/internal/dims"
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/variable"
)

// plan decides once per call whether the variance branch of ov runs and
// which operands feed their variances into it. For in-place overloads
// operands[0] is the target. use is indexed like operands.
//
// A target whose dtype cannot hold variances is always an error when an
// input has variances, even for operators declaring
// ExpectInVarianceIfOutVariance.
func (op *Op) plan(ov Overload, operands []*variable.Variable) (use []bool, withVariances bool, err error) {
	inPlace, outDT := ov.InPlace(), ov.outType()
	has := make([]bool, len(operands))
	anyIn, anyMissing := false, false
	for k, v := range operands {
		has[k] = v.HasVariances()
		if has[k] && op.flags.noVarianceOn(k) {
			return nil, false, errs.Variancesf("%s: argument %d must not have variances", op.name, k)
		}
		if inPlace && k == 0 {
			continue
		}
		anyIn = anyIn || has[k]
		anyMissing = anyMissing || !has[k]
	}
	if op.flags.has(ExpectAllOrNoneHaveVariance) {
		all := anyIn && !anyMissing
		none := !anyIn
		if inPlace {
			all = all && has[0]
			none = none && !has[0]
		}
		if !all && !none {
			return nil, false, errs.Variancesf("%s: expected either all or no operands to have variances", op.name)
		}
	}

	use = make([]bool, len(operands))
	if inPlace {
		withVariances = has[0]
		if withVariances && op.flags.has(NoOutVariance) {
			return nil, false, errs.Variancesf("%s: result cannot have variances but target has", op.name)
		}
		if anyIn && !withVariances && !op.flags.has(NoOutVariance) {
			switch {
			case !dtype.CanHaveVariance(outDT):
				return nil, false, errs.Variancesf("%s: target of dtype %s cannot hold the variances of its inputs", op.name, outDT)
			case !op.flags.has(ExpectInVarianceIfOutVariance):
				return nil, false, errs.Variancesf("%s: target has no variances but an input has", op.name)
			}
		}
	} else {
		withVariances = anyIn && !op.flags.has(NoOutVariance)
		if withVariances && !dtype.CanHaveVariance(outDT) {
			return nil, false, errs.Variancesf("%s: result of dtype %s cannot hold the variances of its inputs", op.name, outDT)
		}
	}
	if !withVariances {
		return use, false, nil
	}

	if !ov.hasVariance() {
		return nil, false, errs.Variancesf("%s: variances are not supported for (%s)", op.name, typeList(dtypes(operands)))
	}
	for k := range operands {
		if op.flags.noVarianceOn(k) {
			continue
		}
		if !has[k] && !op.flags.has(MixedVariance) {
			return nil, false, errs.Variancesf("%s: argument %d has no variances but others have", op.name, k)
		}
		use[k] = has[k]
	}
	return use, true, nil
}

// checkVarianceBroadcast rejects inputs whose variances would be repeated
// across output elements, which silently drops their correlations.
func (op *Op) checkVarianceBroadcast(args []*variable.Variable, use []bool, out dims.Dimensions, binnedOut bool) error {
	if op.flags.has(ForceVarianceBroadcast) {
		return nil
	}
	for k, a := range args {
		if use[k] && broadcastsInto(a, out, binnedOut) {
			return errs.Variancesf("%s: variances of %s cannot be broadcast to %s", op.name, a, out)
		}
	}
	return nil
}

func broadcastsInto(a *variable.Variable, out dims.Dimensions, binnedOut bool) bool {
	if binnedOut && !a.IsBinned() {
		return a.Dims().Volume() > 0
	}
	if a.Dims().Volume() < out.Volume() {
		return true
	}
	d, strides := a.Dims(), a.Strides()
	for i, s := range strides {
		if s == 0 && d.Size(i) > 1 {
			return true
		}
	}
	return false
}
