package transform

import (
	"github.com/born-ml/strided/internal/dims"
	"github.com/born-ml/strided/internal/dtype"
	"github.com/born-ml/strided/internal/errs"
	"github.com/born-ml/strided/internal/index"
	"github.com/born-ml/strided/internal/units"
	"github.com/born-ml/strided/internal/variable"
)

// ValueAndVariance is an element together with its variance.
type ValueAndVariance[T any] struct {
	Value    T
	Variance T
}

// Overload is one typed implementation of an Op. It is implemented by the
// Func* and Update* types of this package only.
type Overload interface {
	// Signature returns the element types of the arguments, the in-place
	// target first.
	Signature() []dtype.DataType
	// InPlace reports whether the overload updates a target.
	InPlace() bool

	outType() dtype.DataType
	hasVariance() bool
	bind(ops []operand) kernel
	allocate(d dims.Dimensions, like *variable.Variable, u units.Unit, withVariances bool) (*variable.Variable, error)
}

// kernel processes n elements. off holds the offset of every operand, the
// output first; each offset advances by its stride after every element.
type kernel func(off, stride *[index.MaxArgs]int, n int)

// operand is a bound argument. variances is false if its variances are not
// read or written.
type operand struct {
	v         *variable.Variable
	variances bool
}

func values[T any](o operand) []T { return variable.Data[T](o.v) }

func variances[T any](o operand) []T {
	if !o.variances {
		return nil
	}
	return variable.VarianceData[T](o.v)
}

func at[T any](vals, vars []T, i int) ValueAndVariance[T] {
	if vars == nil {
		return ValueAndVariance[T]{Value: vals[i]}
	}
	return ValueAndVariance[T]{Value: vals[i], Variance: vars[i]}
}

func allocate[T dtype.Element](d dims.Dimensions, like *variable.Variable, u units.Unit, withVariances bool) (*variable.Variable, error) {
	if like != nil {
		return variable.EmptyBinnedLike[T](d, like, u, withVariances)
	}
	return variable.Empty[T](d, u, withVariances)
}

type inPlace struct{}

func (inPlace) InPlace() bool { return true }

func (inPlace) allocate(dims.Dimensions, *variable.Variable, units.Unit, bool) (*variable.Variable, error) {
	return nil, errs.Typef("in-place overload cannot allocate an output")
}

type outOfPlace struct{}

func (outOfPlace) InPlace() bool { return false }

// Func1 is an out-of-place unary overload.
type Func1[Out, A dtype.Element] struct {
	outOfPlace
	Value    func(a A) Out
	Variance func(a ValueAndVariance[A]) ValueAndVariance[Out]
}

func (f Func1[Out, A]) Signature() []dtype.DataType { return []dtype.DataType{dtype.Of[A]()} }

func (f Func1[Out, A]) hasVariance() bool { return f.Variance != nil }

func (f Func1[Out, A]) outType() dtype.DataType { return dtype.Of[Out]() }

func (f Func1[Out, A]) allocate(d dims.Dimensions, like *variable.Variable, u units.Unit, withVariances bool) (*variable.Variable, error) {
	return allocate[Out](d, like, u, withVariances)
}

func (f Func1[Out, A]) bind(ops []operand) kernel {
	out, a := values[Out](ops[0]), values[A](ops[1])
	if !ops[0].variances {
		fn := f.Value
		return func(off, st *[index.MaxArgs]int, n int) {
			o, i := off[0], off[1]
			for range n {
				out[o] = fn(a[i])
				o, i = o+st[0], i+st[1]
			}
		}
	}
	outV, aV := variances[Out](ops[0]), variances[A](ops[1])
	fn := f.Variance
	return func(off, st *[index.MaxArgs]int, n int) {
		o, i := off[0], off[1]
		for range n {
			r := fn(at(a, aV, i))
			out[o], outV[o] = r.Value, r.Variance
			o, i = o+st[0], i+st[1]
		}
	}
}

// Func2 is an out-of-place binary overload.
type Func2[Out, A, B dtype.Element] struct {
	outOfPlace
	Value    func(a A, b B) Out
	Variance func(a ValueAndVariance[A], b ValueAndVariance[B]) ValueAndVariance[Out]
}

func (f Func2[Out, A, B]) Signature() []dtype.DataType {
	return []dtype.DataType{dtype.Of[A](), dtype.Of[B]()}
}

func (f Func2[Out, A, B]) hasVariance() bool { return f.Variance != nil }

func (f Func2[Out, A, B]) outType() dtype.DataType { return dtype.Of[Out]() }

func (f Func2[Out, A, B]) allocate(d dims.Dimensions, like *variable.Variable, u units.Unit, withVariances bool) (*variable.Variable, error) {
	return allocate[Out](d, like, u, withVariances)
}

func (f Func2[Out, A, B]) bind(ops []operand) kernel {
	out, a, b := values[Out](ops[0]), values[A](ops[1]), values[B](ops[2])
	if !ops[0].variances {
		fn := f.Value
		return func(off, st *[index.MaxArgs]int, n int) {
			o, i, j := off[0], off[1], off[2]
			for range n {
				out[o] = fn(a[i], b[j])
				o, i, j = o+st[0], i+st[1], j+st[2]
			}
		}
	}
	outV, aV, bV := variances[Out](ops[0]), variances[A](ops[1]), variances[B](ops[2])
	fn := f.Variance
	return func(off, st *[index.MaxArgs]int, n int) {
		o, i, j := off[0], off[1], off[2]
		for range n {
			r := fn(at(a, aV, i), at(b, bV, j))
			out[o], outV[o] = r.Value, r.Variance
			o, i, j = o+st[0], i+st[1], j+st[2]
		}
	}
}

// Func3 is an out-of-place ternary overload.
type Func3[Out, A, B, C dtype.Element] struct {
	outOfPlace
	Value    func(a A, b B, c C) Out
	Variance func(a ValueAndVariance[A], b ValueAndVariance[B], c ValueAndVariance[C]) ValueAndVariance[Out]
}

func (f Func3[Out, A, B, C]) Signature() []dtype.DataType {
	return []dtype.DataType{dtype.Of[A](), dtype.Of[B](), dtype.Of[C]()}
}

func (f Func3[Out, A, B, C]) hasVariance() bool { return f.Variance != nil }

func (f Func3[Out, A, B, C]) outType() dtype.DataType { return dtype.Of[Out]() }

func (f Func3[Out, A, B, C]) allocate(d dims.Dimensions, like *variable.Variable, u units.Unit, withVariances bool) (*variable.Variable, error) {
	return allocate[Out](d, like, u, withVariances)
}

func (f Func3[Out, A, B, C]) bind(ops []operand) kernel {
	out, a, b, c := values[Out](ops[0]), values[A](ops[1]), values[B](ops[2]), values[C](ops[3])
	if !ops[0].variances {
		fn := f.Value
		return func(off, st *[index.MaxArgs]int, n int) {
			o, i, j, k := off[0], off[1], off[2], off[3]
			for range n {
				out[o] = fn(a[i], b[j], c[k])
				o, i, j, k = o+st[0], i+st[1], j+st[2], k+st[3]
			}
		}
	}
	outV, aV, bV, cV := variances[Out](ops[0]), variances[A](ops[1]), variances[B](ops[2]), variances[C](ops[3])
	fn := f.Variance
	return func(off, st *[index.MaxArgs]int, n int) {
		o, i, j, k := off[0], off[1], off[2], off[3]
		for range n {
			r := fn(at(a, aV, i), at(b, bV, j), at(c, cV, k))
			out[o], outV[o] = r.Value, r.Variance
			o, i, j, k = o+st[0], i+st[1], j+st[2], k+st[3]
		}
	}
}

// Update0 updates the target from its own value only.
type Update0[T dtype.Element] struct {
	inPlace
	Value    func(x *T)
	Variance func(x *ValueAndVariance[T])
}

func (f Update0[T]) Signature() []dtype.DataType { return []dtype.DataType{dtype.Of[T]()} }

func (f Update0[T]) hasVariance() bool { return f.Variance != nil }

func (f Update0[T]) outType() dtype.DataType { return dtype.Of[T]() }

func (f Update0[T]) bind(ops []operand) kernel {
	out := values[T](ops[0])
	if !ops[0].variances {
		fn := f.Value
		return func(off, st *[index.MaxArgs]int, n int) {
			o := off[0]
			for range n {
				fn(&out[o])
				o += st[0]
			}
		}
	}
	outV := variances[T](ops[0])
	fn := f.Variance
	return func(off, st *[index.MaxArgs]int, n int) {
		o := off[0]
		for range n {
			x := at(out, outV, o)
			fn(&x)
			out[o], outV[o] = x.Value, x.Variance
			o += st[0]
		}
	}
}

// Update1 updates the target from one argument.
type Update1[T, A dtype.Element] struct {
	inPlace
	Value    func(x *T, a A)
	Variance func(x *ValueAndVariance[T], a ValueAndVariance[A])
}

func (f Update1[T, A]) Signature() []dtype.DataType {
	return []dtype.DataType{dtype.Of[T](), dtype.Of[A]()}
}

func (f Update1[T, A]) hasVariance() bool { return f.Variance != nil }

func (f Update1[T, A]) outType() dtype.DataType { return dtype.Of[T]() }

func (f Update1[T, A]) bind(ops []operand) kernel {
	out, a := values[T](ops[0]), values[A](ops[1])
	if !ops[0].variances {
		fn := f.Value
		return func(off, st *[index.MaxArgs]int, n int) {
			o, i := off[0], off[1]
			for range n {
				fn(&out[o], a[i])
				o, i = o+st[0], i+st[1]
			}
		}
	}
	outV, aV := variances[T](ops[0]), variances[A](ops[1])
	fn := f.Variance
	return func(off, st *[index.MaxArgs]int, n int) {
		o, i := off[0], off[1]
		for range n {
			x := at(out, outV, o)
			fn(&x, at(a, aV, i))
			out[o], outV[o] = x.Value, x.Variance
			o, i = o+st[0], i+st[1]
		}
	}
}

// Update2 updates the target from two arguments.
type Update2[T, A, B dtype.Element] struct {
	inPlace
	Value    func(x *T, a A, b B)
	Variance func(x *ValueAndVariance[T], a ValueAndVariance[A], b ValueAndVariance[B])
}

func (f Update2[T, A, B]) Signature() []dtype.DataType {
	return []dtype.DataType{dtype.Of[T](), dtype.Of[A](), dtype.Of[B]()}
}

func (f Update2[T, A, B]) hasVariance() bool { return f.Variance != nil }

func (f Update2[T, A, B]) outType() dtype.DataType { return dtype.Of[T]() }

func (f Update2[T, A, B]) bind(ops []operand) kernel {
	out, a, b := values[T](ops[0]), values[A](ops[1]), values[B](ops[2])
	if !ops[0].variances {
		fn := f.Value
		return func(off, st *[index.MaxArgs]int, n int) {
			o, i, j := off[0], off[1], off[2]
			for range n {
				fn(&out[o], a[i], b[j])
				o, i, j = o+st[0], i+st[1], j+st[2]
			}
		}
	}
	outV, aV, bV := variances[T](ops[0]), variances[A](ops[1]), variances[B](ops[2])
	fn := f.Variance
	return func(off, st *[index.MaxArgs]int, n int) {
		o, i, j := off[0], off[1], off[2]
		for range n {
			x := at(out, outV, o)
			fn(&x, at(a, aV, i), at(b, bV, j))
			out[o], outV[o] = x.Value, x.Variance
			o, i, j = o+st[0], i+st[1], j+st[2]
		}
	}
}

// Update3 updates the target from three arguments.
type Update3[T, A, B, C dtype.Element] struct {
	inPlace
	Value    func(x *T, a A, b B, c C)
	Variance func(x *ValueAndVariance[T], a ValueAndVariance[A], b ValueAndVariance[B], c ValueAndVariance[C])
}

func (f Update3[T, A, B, C]) Signature() []dtype.DataType {
	return []dtype.DataType{dtype.Of[T](), dtype.Of[A](), dtype.Of[B](), dtype.Of[C]()}
}

func (f Update3[T, A, B, C]) hasVariance() bool { return f.Variance != nil }

func (f Update3[T, A, B, C]) outType() dtype.DataType { return dtype.Of[T]() }

func (f Update3[T, A, B, C]) bind(ops []operand) kernel {
	out, a, b, c := values[T](ops[0]), values[A](ops[1]), values[B](ops[2]), values[C](ops[3])
	if !ops[0].variances {
		fn := f.Value
		return func(off, st *[index.MaxArgs]int, n int) {
			o, i, j, k := off[0], off[1], off[2], off[3]
			for range n {
				fn(&out[o], a[i], b[j], c[k])
				o, i, j, k = o+st[0], i+st[1], j+st[2], k+st[3]
			}
		}
	}
	outV, aV, bV, cV := variances[T](ops[0]), variances[A](ops[1]), variances[B](ops[2]), variances[C](ops[3])
	fn := f.Variance
	return func(off, st *[index.MaxArgs]int, n int) {
		o, i, j, k := off[0], off[1], off[2], off[3]
		for range n {
			x := at(out, outV, o)
			fn(&x, at(a, aV, i), at(b, bV, j), at(c, cV, k))
			out[o], outV[o] = x.Value, x.Variance
			o, i, j, k = o+st[0], i+st[1], j+st[2], k+st[3]
		}
	}
}
