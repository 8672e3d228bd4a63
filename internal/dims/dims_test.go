package dims

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/strided/internal/errs"
)

func TestNew(t *testing.T) {
	d, err := New([]Dim{"x", "y"}, []int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, d.NDim())
	assert.Equal(t, 6, d.Volume())
	assert.Equal(t, []Dim{"x", "y"}, d.Labels())
	assert.Equal(t, []int{2, 3}, d.Shape())
	assert.Equal(t, "{x: 2, y: 3}", d.String())

	_, err = New([]Dim{"x", "x"}, []int{2, 3})
	assert.True(t, errors.Is(err, errs.ErrDimension))

	_, err = New([]Dim{"x"}, []int{-1})
	assert.True(t, errors.Is(err, errs.ErrDimension))

	_, err = New([]Dim{"x"}, []int{1, 2})
	assert.True(t, errors.Is(err, errs.ErrDimension))
}

func TestOf(t *testing.T) {
	d, err := Of("x", 2, Dim("y"), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, d.Volume())

	_, err = Of("x")
	assert.Error(t, err)
	_, err = Of(1, 2)
	assert.Error(t, err)
	_, err = Of("x", "2")
	assert.Error(t, err)
}

func TestScalarVolume(t *testing.T) {
	assert.Equal(t, 1, Dimensions{}.Volume())
	assert.Equal(t, "{}", Dimensions{}.String())
}

func TestDimensionsAreImmutable(t *testing.T) {
	d := MustOf("x", 2, "y", 3)
	shape := d.Shape()
	shape[0] = 100
	labels := d.Labels()
	labels[0] = "z"
	assert.True(t, d.Equal(MustOf("x", 2, "y", 3)))

	r, err := d.Resize("y", 5)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, r.Shape())
	assert.Equal(t, []int{2, 3}, d.Shape())
}

func TestIncludes(t *testing.T) {
	d := MustOf("x", 2, "y", 3)
	assert.True(t, d.Includes(MustOf("y", 3)))
	assert.True(t, d.Includes(MustOf("y", 3, "x", 2)))
	assert.True(t, d.Includes(Dimensions{}))
	assert.False(t, d.Includes(MustOf("y", 2)))
	assert.False(t, d.Includes(MustOf("z", 3)))
}

func TestTranspose(t *testing.T) {
	d := MustOf("x", 2, "y", 3)
	tr, err := d.Transpose("y", "x")
	require.NoError(t, err)
	assert.True(t, tr.Equal(MustOf("y", 3, "x", 2)))

	_, err = d.Transpose("y")
	assert.True(t, errors.Is(err, errs.ErrDimension))
	_, err = d.Transpose("y", "z")
	assert.True(t, errors.Is(err, errs.ErrDimension))
}

func TestEraseAndAddInner(t *testing.T) {
	d := MustOf("x", 2, "y", 3)
	e, err := d.Erase("x")
	require.NoError(t, err)
	assert.True(t, e.Equal(MustOf("y", 3)))

	_, err = d.Erase("z")
	assert.Error(t, err)

	a, err := d.AddInner("z", 4)
	require.NoError(t, err)
	assert.True(t, a.Equal(MustOf("x", 2, "y", 3, "z", 4)))
	assert.Equal(t, 2, d.NDim())
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Dimensions
		want    Dimensions
		wantErr bool
	}{
		{"same", MustOf("x", 2), MustOf("x", 2), MustOf("x", 2), false},
		{"union", MustOf("x", 2), MustOf("y", 3), MustOf("x", 2, "y", 3), false},
		{"a order wins", MustOf("x", 2, "y", 3), MustOf("y", 3, "x", 2), MustOf("x", 2, "y", 3), false},
		{"scalar", Dimensions{}, MustOf("y", 3), MustOf("y", 3), false},
		{"mismatch", MustOf("x", 2), MustOf("x", 3), Dimensions{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Merge(tt.a, tt.b)
			if tt.wantErr {
				assert.True(t, errors.Is(err, errs.ErrDimension))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}
