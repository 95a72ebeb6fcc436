package bins

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scipp/scipp-go/scipp/core"
	"github.com/scipp/scipp-go/scipp/units"
)

func TestHistogramDense(t *testing.T) {
	da := eventArray(t)
	got, err := Histogram(da, edges(t, "x", units.M, []float64{0, 2, 4}))
	require.NoError(t, err)
	require.True(t, got.Data().Dims().Equal(dims(t, core.Dim{Name: "x", Extent: 2})))
	// Events at x = 0.5, 1.5, 0.2, 1.2 land in [0, 2); x = 2.5 in
	// [2, 4); x = 5.0 is out of range.
	require.Equal(t, []float64{12, 3}, got.Data().Values())
	require.True(t, got.Data().Unit().Equal(units.Counts))
	coord, has := got.Coords().Get("x")
	require.True(t, has)
	require.Equal(t, []float64{0, 2, 4}, coord.Values())
}

func TestHistogramAfterBin(t *testing.T) {
	da := eventArray(t)
	binned, err := Bin(da, nil, []core.Variable{edges(t, "x", units.M, []float64{0, 1, 2, 3, 4, 5, 6})})
	require.NoError(t, err)
	viaBins, err := Histogram(binned, edges(t, "x", units.M, []float64{0, 2, 4}))
	require.NoError(t, err)
	direct, err := Histogram(da, edges(t, "x", units.M, []float64{0, 2, 4}))
	require.NoError(t, err)
	require.True(t, viaBins.Equal(direct))
}

func TestHistogramOuterDimPreserved(t *testing.T) {
	da := eventArray(t)
	keys, err := core.NewIntVariable(dims(t, core.Dim{Name: "label", Extent: 2}),
		units.Dimensionless, []int64{1, 2})
	require.NoError(t, err)
	binned, err := Bin(da, []core.Variable{keys}, nil)
	require.NoError(t, err)

	got, err := Histogram(binned, edges(t, "x", units.M, []float64{0, 2, 4}))
	require.NoError(t, err)
	require.True(t, got.Data().Dims().Equal(dims(t,
		core.Dim{Name: "label", Extent: 2}, core.Dim{Name: "x", Extent: 2})))
	// Label 1 holds weights 1, 3, 5 at x = 0.5, 2.5, 1.2; label 2
	// holds 2, 4, 6 at x = 1.5, 0.2, 5.0.
	require.Equal(t, []float64{6, 3, 6, 0}, got.Data().Values())
	coord, has := got.Coords().Get("label")
	require.True(t, has)
	require.Equal(t, []int64{1, 2}, coord.Ints())
}

func TestHistogramVariances(t *testing.T) {
	d := dims(t, core.Dim{Name: "event", Extent: 3})
	weights, err := core.NewVariableWithVariances(d, units.Counts,
		[]float64{1, 2, 3}, []float64{0.1, 0.2, 0.3})
	require.NoError(t, err)
	da, err := core.NewDataArray("w", weights)
	require.NoError(t, err)
	x, err := core.NewVariable(d, units.M, []float64{0.5, 0.6, 1.5})
	require.NoError(t, err)
	require.NoError(t, da.SetCoord("x", x))

	got, err := Histogram(da, edges(t, "x", units.M, []float64{0, 1, 2}))
	require.NoError(t, err)
	require.Equal(t, []float64{3, 3}, got.Data().Values())
	require.InDeltaSlice(t, []float64{0.3, 0.3}, got.Data().Variances(), 1e-12)
}

func TestHistogramRejectsHistogrammed(t *testing.T) {
	da := eventArray(t)
	once, err := Histogram(da, edges(t, "x", units.M, []float64{0, 2, 4}))
	require.NoError(t, err)
	_, err = Histogram(once, edges(t, "x", units.M, []float64{0, 1, 2, 3, 4}))
	require.ErrorIs(t, err, core.ErrBinEdge)
}

func TestHistogramUnitMismatch(t *testing.T) {
	da := eventArray(t)
	_, err := Histogram(da, edges(t, "x", units.S, []float64{0, 2, 4}))
	require.ErrorIs(t, err, core.ErrUnitMismatch)
}
