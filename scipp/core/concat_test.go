package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scipp/scipp-go/scipp/units"
)

func TestConcatVariables(t *testing.T) {
	dims := mustDimensions(Dim{"x", 2}, Dim{"y", 2})
	a, _ := NewVariable(dims, units.M, []float64{1, 2, 3, 4})
	b, _ := NewVariable(mustDimensions(Dim{"x", 1}, Dim{"y", 2}), units.M, []float64{5, 6})
	got, err := ConcatVariables("x", a, b)
	require.NoError(t, err)
	require.True(t, got.Dims().Equal(mustDimensions(Dim{"x", 3}, Dim{"y", 2})))
	require.Equal(t, []float64{1, 2, 3, 4, 5, 6}, got.Values())

	// Joining along the inner dimension interleaves rows.
	c, _ := NewVariable(mustDimensions(Dim{"x", 2}, Dim{"y", 1}), units.M, []float64{9, 10})
	got, err = ConcatVariables("y", a, c)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 9, 3, 4, 10}, got.Values())
}

func TestConcatVariablesErrors(t *testing.T) {
	a, _ := NewVariable(mustDimensions(Dim{"x", 2}), units.M, []float64{1, 2})
	b, _ := NewVariable(mustDimensions(Dim{"x", 2}), units.S, []float64{3, 4})
	_, err := ConcatVariables("x", a, b)
	require.ErrorIs(t, err, ErrUnitMismatch)

	c, _ := NewIntVariable(mustDimensions(Dim{"x", 2}), units.M, []int64{3, 4})
	_, err = ConcatVariables("x", a, c)
	require.ErrorIs(t, err, ErrDType)

	d, _ := NewVariable(mustDimensions(Dim{"x", 2}, Dim{"y", 2}), units.M, []float64{1, 2, 3, 4})
	_, err = ConcatVariables("x", a, d)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestConcatBinnedVariables(t *testing.T) {
	bufA, _ := NewVariable(mustDimensions(Dim{"event", 3}), units.Counts, []float64{1, 2, 3})
	a, err := NewBinned(mustDimensions(Dim{"x", 2}), []IndexRange{{0, 1}, {1, 3}}, "event", bufA)
	require.NoError(t, err)
	bufB, _ := NewVariable(mustDimensions(Dim{"event", 2}), units.Counts, []float64{4, 5})
	b, err := NewBinned(mustDimensions(Dim{"x", 1}), []IndexRange{{0, 2}}, "event", bufB)
	require.NoError(t, err)

	got, err := ConcatVariables("x", a, b)
	require.NoError(t, err)
	require.True(t, got.IsBinned())
	require.True(t, got.Dims().Equal(mustDimensions(Dim{"x", 3})))
	for i, want := range [][]float64{{1}, {2, 3}, {4, 5}} {
		cell, cerr := got.BinCell(i)
		require.NoError(t, cerr)
		require.Equal(t, want, cell.(Variable).Values())
	}
}

func concatFixture(t *testing.T, xvals []float64, coord []float64) *DataArray {
	t.Helper()
	data, _ := NewVariable(mustDimensions(Dim{"x", len(xvals)}), units.Counts, xvals)
	da, err := NewDataArray("a", data)
	require.NoError(t, err)
	cv, _ := NewVariable(mustDimensions(Dim{"x", len(coord)}), units.M, coord)
	require.NoError(t, da.SetCoord("x", cv))
	return da
}

func TestConcatDataArrays(t *testing.T) {
	a := concatFixture(t, []float64{1, 2}, []float64{10, 20})
	b := concatFixture(t, []float64{3}, []float64{30})
	got, err := ConcatDataArrays("x", a, b)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, got.Data().Values())
	c, has := got.Coords().Get("x")
	require.True(t, has)
	require.Equal(t, []float64{10, 20, 30}, c.Values())
}

func TestConcatDataArraysOffDimCoord(t *testing.T) {
	a := concatFixture(t, []float64{1, 2}, []float64{10, 20})
	b := concatFixture(t, []float64{3}, []float64{30})
	scalarA := NewScalar(units.K, 300)
	scalarB := NewScalar(units.K, 300)
	require.NoError(t, a.SetCoord("temperature", scalarA))
	require.NoError(t, b.SetCoord("temperature", scalarB))
	got, err := ConcatDataArrays("x", a, b)
	require.NoError(t, err)
	_, has := got.Coords().Get("temperature")
	require.True(t, has)

	// A disagreeing off-dimension coordinate is an error, not a pick.
	require.NoError(t, b.SetCoord("temperature", NewScalar(units.K, 400)))
	_, err = ConcatDataArrays("x", a, b)
	require.ErrorIs(t, err, ErrCoordMismatch)
}

func TestConcatDataArraysEdgeCoord(t *testing.T) {
	a := concatFixture(t, []float64{1, 2}, []float64{10, 20, 30})
	b := concatFixture(t, []float64{3}, []float64{30, 40})
	_, err := ConcatDataArrays("x", a, b)
	require.ErrorIs(t, err, ErrBinEdge)
}

func TestExtractRanges(t *testing.T) {
	buf, _ := NewVariable(mustDimensions(Dim{"event", 5}), units.Counts,
		[]float64{1, 2, 3, 4, 5})
	out, ranges, err := ExtractRanges(buf, "event",
		[]IndexRange{{3, 5}, {0, 1}})
	require.NoError(t, err)
	require.Equal(t, []IndexRange{{0, 2}, {2, 3}}, ranges)
	require.Equal(t, []float64{4, 5, 1}, out.(Variable).Values())
}

func TestExtractRangesNone(t *testing.T) {
	buf, _ := NewVariable(mustDimensions(Dim{"event", 5}), units.Counts,
		[]float64{1, 2, 3, 4, 5})
	out, ranges, err := ExtractRanges(buf, "event", nil)
	require.NoError(t, err)
	require.Empty(t, ranges)
	require.Empty(t, out.(Variable).Values())
}
