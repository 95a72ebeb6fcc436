package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scipp/scipp-go/scipp/units"
)

// cube returns a 2x3x4 fixture with values equal to their flat index.
func cube(t *testing.T) Variable {
	t.Helper()
	dims := mustDimensions(Dim{"x", 2}, Dim{"y", 3}, Dim{"z", 4})
	values := make([]float64, 24)
	for i := range values {
		values[i] = float64(i)
	}
	v, err := NewVariable(dims, units.Counts, values)
	require.NoError(t, err)
	return v
}

func TestSliceRoundTrip(t *testing.T) {
	v := cube(t)
	extents := map[string]int{"x": 2, "y": 3, "z": 4}
	strides := map[string]int{"x": 12, "y": 4, "z": 1}
	for dim, extent := range extents {
		for begin := 0; begin <= extent; begin++ {
			for end := begin; end <= extent; end++ {
				view, err := v.Slice(Range(dim, begin, end))
				require.NoError(t, err)
				got := view.Values()
				want := []float64{}
				for i, x := range v.Values() {
					pos := (i / strides[dim]) % extent
					if pos >= begin && pos < end {
						want = append(want, x)
					}
				}
				require.Equal(t, want, got, "slice {%s,%d,%d}", dim, begin, end)
			}
		}
		for i := 0; i < extent; i++ {
			view, err := v.Slice(At(dim, i))
			require.NoError(t, err)
			require.False(t, view.Dims().ContainsDim(dim))
			require.Equal(t, 24/extent, len(view.Values()))
		}
	}
}

func TestSliceCommutes(t *testing.T) {
	v := cube(t)
	slices := []Slice{
		At("x", 1), Range("x", 0, 2),
		At("y", 2), Range("y", 1, 3),
		At("z", 0), Range("z", 1, 4),
	}
	for _, s1 := range slices {
		for _, s2 := range slices {
			if s1.Dim == s2.Dim {
				continue
			}
			a, err := v.Slice(s1, s2)
			require.NoError(t, err)
			b, err := v.Slice(s2, s1)
			require.NoError(t, err)
			require.True(t, a.Equal(b), "%v then %v vs reversed", s1, s2)
		}
	}
}

func TestSliceNesting(t *testing.T) {
	v := cube(t)
	// Slicing a range then an index composes like the translated index.
	a, err := v.Slice(Range("y", 1, 3))
	require.NoError(t, err)
	a, err = a.Slice(At("y", 1))
	require.NoError(t, err)
	b, err := v.Slice(At("y", 2))
	require.NoError(t, err)
	require.True(t, a.Equal(b))

	// A full-width inner range is the identity.
	c, err := v.Slice(Range("y", 1, 3))
	require.NoError(t, err)
	c, err = c.Slice(Range("y", 0, 2))
	require.NoError(t, err)
	d, err := v.Slice(Range("y", 1, 3))
	require.NoError(t, err)
	require.True(t, c.Equal(d))
}

func TestSliceErrors(t *testing.T) {
	v := cube(t)
	_, err := v.Slice(Range("w", 0, 1))
	require.ErrorIs(t, err, ErrNotFound)
	_, err = v.Slice(Range("x", 0, 3))
	require.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = v.Slice(At("x", 2))
	require.ErrorIs(t, err, ErrDimensionMismatch)
	// A collapsed dimension cannot be sliced again.
	view, err := v.Slice(At("x", 0))
	require.NoError(t, err)
	_, err = view.Slice(At("x", 0))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetValuesWriteThrough(t *testing.T) {
	v := cube(t)
	view, err := v.Slice(At("x", 1), At("y", 0))
	require.NoError(t, err)
	require.NoError(t, view.SetValues([]float64{-1, -2, -3, -4}))
	require.Equal(t, []float64{-1, -2, -3, -4}, v.Values()[12:16])
	// Untouched elements survive.
	require.Equal(t, float64(0), v.Values()[0])
}

func TestSetValuesDetachesSharedBuffer(t *testing.T) {
	v := cube(t)
	keep := v.Copy()
	view, err := v.Slice(At("x", 0), At("y", 0), At("z", 0))
	require.NoError(t, err)
	require.NoError(t, view.SetValues([]float64{42}))
	require.Equal(t, float64(42), v.Values()[0])
	require.Equal(t, float64(0), keep.Values()[0], "write leaked into the copy")
}

func TestSetVariancesWriteThrough(t *testing.T) {
	dims := mustDimensions(Dim{"x", 4})
	v, err := NewVariableWithVariances(dims, units.Counts,
		[]float64{1, 2, 3, 4}, []float64{1, 1, 1, 1})
	require.NoError(t, err)
	view, err := v.Slice(Range("x", 1, 3))
	require.NoError(t, err)
	require.NoError(t, view.SetVariances([]float64{5, 6}))
	require.Equal(t, []float64{1, 5, 6, 1}, v.Variances())
	// Length must match the view, and a plain variable has no variances
	// to write.
	require.ErrorIs(t, view.SetVariances([]float64{5}), ErrLength)
	plain := cube(t)
	pv, err := plain.Slice(At("x", 0), At("y", 0))
	require.NoError(t, err)
	require.ErrorIs(t, pv.SetVariances([]float64{0, 0, 0, 0}), ErrVariance)
}

func TestViewEqualVariable(t *testing.T) {
	v := cube(t)
	view, err := v.Slice(At("x", 1), At("y", 0))
	require.NoError(t, err)
	want, err := NewVariable(mustDimensions(Dim{"z", 4}), units.Counts,
		[]float64{12, 13, 14, 15})
	require.NoError(t, err)
	require.True(t, view.EqualVariable(want))
	other, err := NewVariable(mustDimensions(Dim{"z", 4}), units.Counts,
		[]float64{12, 13, 14, 99})
	require.NoError(t, err)
	require.False(t, view.EqualVariable(other))
}

func TestViewIndices(t *testing.T) {
	v := cube(t)
	view, err := v.Slice(Range("z", 1, 3), At("x", 1))
	require.NoError(t, err)
	require.Equal(t, []int{13, 14, 17, 18, 21, 22}, view.Indices())
}
