package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scipp/scipp-go/scipp/units"
)

func edgeArray(t *testing.T) *DataArray {
	t.Helper()
	data, err := NewVariable(mustDimensions(Dim{"x", 3}), units.Counts, []float64{1, 2, 3})
	require.NoError(t, err)
	da, err := NewDataArray("a", data)
	require.NoError(t, err)
	edges, err := NewVariable(mustDimensions(Dim{"x", 4}), units.M, []float64{0, 1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, da.SetCoord("x", edges))
	return da
}

func TestSetCoordLedger(t *testing.T) {
	da := edgeArray(t)
	// Extent 4 on length-3 data is accepted as bin edges; 5 is not.
	tooLong, _ := NewVariable(mustDimensions(Dim{"x", 5}), units.M, []float64{0, 1, 2, 3, 4})
	require.ErrorIs(t, da.SetCoord("x", tooLong), ErrDimensionMismatch)

	mask, _ := NewBoolVariable(mustDimensions(Dim{"x", 4}), []bool{false, false, false, false})
	require.ErrorIs(t, da.SetMask("bad", mask), ErrDimensionMismatch)

	notBool, _ := NewVariable(mustDimensions(Dim{"x", 3}), units.Dimensionless, []float64{0, 0, 0})
	require.ErrorIs(t, da.SetMask("bad", notBool), ErrDType)
}

func TestEdgeRangeSlice(t *testing.T) {
	da := edgeArray(t)
	// A range keeps the coordinate as edges: one longer than the data.
	view, err := da.Slice(Range("x", 1, 3))
	require.NoError(t, err)
	require.Equal(t, []float64{2, 3}, view.Data().Values())
	coord, has := view.Coords().Get("x")
	require.True(t, has)
	require.Equal(t, []float64{1, 2, 3}, coord.Values())
}

func TestEdgeSingleSliceDemotes(t *testing.T) {
	da := edgeArray(t)
	// A single index hides the axis label from the aligned coordinates
	// but keeps the spanning edge pair as an unaligned attribute.
	view, err := da.Slice(At("x", 1))
	require.NoError(t, err)
	require.Equal(t, []float64{2}, view.Data().Values())
	_, has := view.Coords().Get("x")
	require.False(t, has)
	attr, has := view.Attrs().Get("x")
	require.True(t, has)
	require.Equal(t, []float64{1, 2}, attr.Values())
}

func TestNonEdgeSingleSliceDemotes(t *testing.T) {
	data, _ := NewVariable(mustDimensions(Dim{"x", 3}), units.Counts, []float64{1, 2, 3})
	da, err := NewDataArray("a", data)
	require.NoError(t, err)
	coord, _ := NewVariable(mustDimensions(Dim{"x", 3}), units.M, []float64{10, 20, 30})
	require.NoError(t, da.SetCoord("x", coord))

	view, err := da.Slice(At("x", 2))
	require.NoError(t, err)
	_, has := view.Coords().Get("x")
	require.False(t, has)
	attr, has := view.Attrs().Get("x")
	require.True(t, has)
	require.Equal(t, []float64{30}, attr.Values())
	require.Equal(t, 0, attr.Dims().Len())
}

func TestUnrelatedCoordSurvivesSingleSlice(t *testing.T) {
	data, _ := NewVariable(mustDimensions(Dim{"x", 2}, Dim{"y", 2}), units.Counts,
		[]float64{1, 2, 3, 4})
	da, err := NewDataArray("a", data)
	require.NoError(t, err)
	ycoord, _ := NewVariable(mustDimensions(Dim{"y", 2}), units.M, []float64{5, 6})
	require.NoError(t, da.SetCoord("y", ycoord))

	// Collapsing x consumes the x label only; y is untouched.
	view, err := da.Slice(At("x", 0))
	require.NoError(t, err)
	coord, has := view.Coords().Get("y")
	require.True(t, has)
	require.Equal(t, []float64{5, 6}, coord.Values())
}

func TestMaskSlicing(t *testing.T) {
	da := edgeArray(t)
	mask, _ := NewBoolVariable(mustDimensions(Dim{"x", 3}), []bool{true, false, true})
	require.NoError(t, da.SetMask("bad", mask))
	view, err := da.Slice(Range("x", 1, 3))
	require.NoError(t, err)
	got, has := view.Masks().Get("bad")
	require.True(t, has)
	require.Equal(t, []bool{false, true}, got.Bools())
}

func TestDataArrayEqualIncludesName(t *testing.T) {
	a := edgeArray(t)
	b := edgeArray(t)
	require.True(t, a.Equal(b))
	b.SetName("b")
	require.False(t, a.Equal(b))
}

func TestDataArrayCopySemantics(t *testing.T) {
	a := edgeArray(t)
	b := a.Copy()
	require.True(t, a.Equal(b))
	b.MutableData().MutableValues()[0] = 99
	require.Equal(t, float64(1), a.Data().Values()[0])
	require.Equal(t, float64(99), b.Data().Values()[0])
}

func TestDataArrayRename(t *testing.T) {
	da := edgeArray(t)
	out, err := da.Rename("x", "tof")
	require.NoError(t, err)
	require.True(t, out.Data().Dims().ContainsDim("tof"))
	coord, has := out.Coords().Get("tof")
	require.True(t, has)
	require.Equal(t, []float64{0, 1, 2, 3}, coord.Values())
	// The source is untouched.
	_, has = da.Coords().Get("tof")
	require.False(t, has)
}

func TestSetDataRollsBackOnConflict(t *testing.T) {
	da := edgeArray(t)
	wrong, _ := NewVariable(mustDimensions(Dim{"x", 5}), units.Counts,
		[]float64{1, 2, 3, 4, 5})
	require.ErrorIs(t, da.SetData(wrong), ErrDimensionMismatch)
	require.Equal(t, []float64{1, 2, 3}, da.Data().Values())
}
