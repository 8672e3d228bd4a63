package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strided/internal/dims"
	"github.com/born-ml/strided/internal/errs"
)

func collectView(t *testing.T, target dims.Dimensions, strides dims.Strides) []int {
	t.Helper()
	it, err := NewViewIndex(target, strides)
	require.NoError(t, err)
	end := it
	end.SetToEnd()

	var got []int
	for ; !it.Equal(&end); it.Increment() {
		got = append(got, it.Get())
	}
	return got
}

func TestViewIndexContiguous(t *testing.T) {
	d := dims.MustOf("x", 2, "y", 3)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, collectView(t, d, dims.ContiguousStrides(d)))
}

func TestViewIndexTranspose(t *testing.T) {
	src := dims.MustOf("x", 2, "y", 3)
	target := dims.MustOf("y", 3, "x", 2)
	strides, err := dims.Align(src, dims.ContiguousStrides(src), target)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 3, 1, 4, 2, 5}, collectView(t, target, strides))
}

func TestViewIndexBroadcast(t *testing.T) {
	src := dims.MustOf("x", 3)
	target := dims.MustOf("n", 2, "x", 3)
	strides, err := dims.Align(src, dims.ContiguousStrides(src), target)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 0, 1, 2}, collectView(t, target, strides))
}

func TestViewIndexSlice(t *testing.T) {
	// Inner slice y=[0, 2) of a {x: 2, y: 3} buffer.
	src := dims.MustOf("x", 2, "y", 3)
	target := dims.MustOf("x", 2, "y", 2)
	strides, err := dims.Align(src, dims.ContiguousStrides(src), target)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 3, 4}, collectView(t, target, strides))
}

func TestViewIndexScalarAndEmpty(t *testing.T) {
	assert.Equal(t, []int{0}, collectView(t, dims.Dimensions{}, nil))
	assert.Empty(t, collectView(t, dims.MustOf("x", 0), dims.Strides{1}))
	assert.Empty(t, collectView(t, dims.MustOf("x", 3, "y", 0), dims.Strides{0, 1}))
}

func TestViewIndexSetIndex(t *testing.T) {
	d := dims.MustOf("x", 2, "y", 3)
	it, err := NewViewIndex(d, dims.Strides{1, 2}) // column-major buffer

	require.NoError(t, err)
	var want []int
	for ; it.Index() < d.Volume(); it.Increment() {
		want = append(want, it.Get())
	}

	for i := 0; i < d.Volume(); i++ {
		jump, _ := NewViewIndex(d, dims.Strides{1, 2})
		jump.SetIndex(i)
		assert.Equal(t, want[i], jump.Get(), "index %d", i)
		assert.Equal(t, i, jump.Index())
	}
}

func TestViewIndexEndIsLayoutIndependent(t *testing.T) {
	d := dims.MustOf("x", 2, "y", 3)
	a, _ := NewViewIndex(d, dims.Strides{3, 1})
	b, _ := NewViewIndex(d, dims.Strides{0, 7})
	a.SetToEnd()
	b.SetToEnd()
	assert.True(t, a.Equal(&b))
}

func TestViewIndexErrors(t *testing.T) {
	_, err := NewViewIndex(dims.MustOf("x", 2), dims.Strides{1, 1})
	assert.True(t, errors.Is(err, errs.ErrDimension))

	many := dims.MustOf("a", 1, "b", 1, "c", 1, "d", 1, "e", 1, "f", 1, "g", 1, "h", 1, "i", 1)
	_, err = NewViewIndex(many, make(dims.Strides, 9))
	assert.True(t, errors.Is(err, errs.ErrDimension))
}
