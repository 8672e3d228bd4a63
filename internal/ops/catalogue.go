package ops

import "github.com/born-ml/strided/internal/transform"

// Catalogue lists every operator of the package.
func Catalogue() []*transform.Op {
	return []*transform.Op{
		AddOp, SubtractOp, MultiplyOp, DivideOp,
		NegativeOp, AbsOp, SqrtOp, ReciprocalOp,
		LessOp, EqualOp, WhereOp,
		PlusEqualsOp, MinusEqualsOp, TimesEqualsOp, DivideEqualsOp,
		AssignOp, ClipOp, LerpOp,
	}
}
