package bins

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scipp/scipp-go/scipp/core"
	"github.com/scipp/scipp-go/scipp/units"
)

// spectrumArray builds a dense array of four spectra tagged with an
// integer run coordinate.
func spectrumArray(t *testing.T) *core.DataArray {
	t.Helper()
	d := dims(t, core.Dim{Name: "spectrum", Extent: 4})
	data, err := core.NewVariableWithVariances(d, units.Counts,
		[]float64{1, 2, 3, 4}, []float64{1, 1, 1, 1})
	require.NoError(t, err)
	da, err := core.NewDataArray("counts", data)
	require.NoError(t, err)
	run, err := core.NewIntVariable(d, units.Dimensionless, []int64{2, 1, 2, 1})
	require.NoError(t, err)
	require.NoError(t, da.SetCoord("run", run))
	return da
}

func TestGroupBySum(t *testing.T) {
	g, err := NewGroupBy(spectrumArray(t), "run")
	require.NoError(t, err)
	require.Equal(t, 2, g.Size())

	got, err := g.Sum()
	require.NoError(t, err)
	require.True(t, got.Data().Dims().Equal(dims(t, core.Dim{Name: "run", Extent: 2})))
	// Keys are sorted ascending: run 1 collects spectra 1 and 3, run 2
	// collects spectra 0 and 2.
	require.Equal(t, []float64{6, 4}, got.Data().Values())
	require.Equal(t, []float64{2, 2}, got.Data().Variances())
	coord, has := got.Coords().Get("run")
	require.True(t, has)
	require.Equal(t, []int64{1, 2}, coord.Ints())
}

func TestGroupByMean(t *testing.T) {
	g, err := NewGroupBy(spectrumArray(t), "run")
	require.NoError(t, err)
	got, err := g.Mean()
	require.NoError(t, err)
	require.Equal(t, []float64{3, 2}, got.Data().Values())
	require.Equal(t, []float64{0.5, 0.5}, got.Data().Variances())
}

func TestGroupBySumSkipsMasked(t *testing.T) {
	da := spectrumArray(t)
	mask, err := core.NewBoolVariable(dims(t, core.Dim{Name: "spectrum", Extent: 4}),
		[]bool{false, false, false, true})
	require.NoError(t, err)
	require.NoError(t, da.SetMask("bad", mask))

	g, err := NewGroupBy(da, "run")
	require.NoError(t, err)
	got, err := g.Sum()
	require.NoError(t, err)
	require.Equal(t, []float64{2, 4}, got.Data().Values())
	// The mask is consumed by the reduction, not carried along.
	_, has := got.Masks().Get("bad")
	require.False(t, has)
}

func TestGroupByMeanMaskedCount(t *testing.T) {
	da := spectrumArray(t)
	mask, err := core.NewBoolVariable(dims(t, core.Dim{Name: "spectrum", Extent: 4}),
		[]bool{false, false, false, true})
	require.NoError(t, err)
	require.NoError(t, da.SetMask("bad", mask))

	g, err := NewGroupBy(da, "run")
	require.NoError(t, err)
	got, err := g.Mean()
	require.NoError(t, err)
	// Run 1 keeps only spectrum 1 after masking, so its mean is exact.
	require.Equal(t, []float64{2, 2}, got.Data().Values())
}

func TestGroupByBins(t *testing.T) {
	da := spectrumArray(t)
	pos, err := core.NewVariable(dims(t, core.Dim{Name: "spectrum", Extent: 4}),
		units.M, []float64{0.1, 1.5, 0.4, 2.5})
	require.NoError(t, err)
	require.NoError(t, da.SetCoord("pos", pos))

	g, err := NewGroupByBins(da, "pos", edges(t, "z", units.M, []float64{0, 1, 2}))
	require.NoError(t, err)
	got, err := g.Sum()
	require.NoError(t, err)
	require.True(t, got.Data().Dims().Equal(dims(t, core.Dim{Name: "z", Extent: 2})))
	// Spectrum 3 at pos 2.5 is outside the edges and dropped.
	require.Equal(t, []float64{4, 2}, got.Data().Values())
	coord, has := got.Coords().Get("z")
	require.True(t, has)
	require.Equal(t, []float64{0, 1, 2}, coord.Values())
}

func TestGroupByConcat(t *testing.T) {
	d := dims(t, core.Dim{Name: "event", Extent: 6})
	buf, err := core.NewVariable(d, units.Counts, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	outer := dims(t, core.Dim{Name: "spectrum", Extent: 3})
	binned, err := MakeBinned(outer, []int{0, 2, 3}, []int{2, 3, 6}, "event", buf)
	require.NoError(t, err)
	da, err := core.NewDataArray("events", binned)
	require.NoError(t, err)
	run, err := core.NewIntVariable(outer, units.Dimensionless, []int64{1, 2, 1})
	require.NoError(t, err)
	require.NoError(t, da.SetCoord("run", run))

	g, err := NewGroupBy(da, "run")
	require.NoError(t, err)
	got, err := g.Concat()
	require.NoError(t, err)
	data := got.Data()
	require.True(t, data.IsBinned())
	require.True(t, data.Dims().Equal(dims(t, core.Dim{Name: "run", Extent: 2})))
	cell0, err := data.BinCell(0)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 4, 5, 6}, cell0.(core.Variable).Values())
	cell1, err := data.BinCell(1)
	require.NoError(t, err)
	require.Equal(t, []float64{3}, cell1.(core.Variable).Values())
}

func TestGroupByConcatAllMasked(t *testing.T) {
	d := dims(t, core.Dim{Name: "event", Extent: 3})
	buf, err := core.NewVariable(d, units.Counts, []float64{1, 2, 3})
	require.NoError(t, err)
	outer := dims(t, core.Dim{Name: "spectrum", Extent: 2})
	binned, err := MakeBinned(outer, []int{0, 1}, []int{1, 3}, "event", buf)
	require.NoError(t, err)
	da, err := core.NewDataArray("events", binned)
	require.NoError(t, err)
	run, err := core.NewIntVariable(outer, units.Dimensionless, []int64{1, 1})
	require.NoError(t, err)
	require.NoError(t, da.SetCoord("run", run))
	mask, err := core.NewBoolVariable(outer, []bool{true, true})
	require.NoError(t, err)
	require.NoError(t, da.SetMask("bad", mask))

	g, err := NewGroupBy(da, "run")
	require.NoError(t, err)
	got, err := g.Concat()
	require.NoError(t, err)
	data := got.Data()
	require.True(t, data.IsBinned())
	require.True(t, data.Dims().Equal(dims(t, core.Dim{Name: "run", Extent: 1})))
	cell, err := data.BinCell(0)
	require.NoError(t, err)
	require.Empty(t, cell.(core.Variable).Values())
}

func TestGroupByErrors(t *testing.T) {
	da := spectrumArray(t)
	_, err := NewGroupBy(da, "nope")
	require.ErrorIs(t, err, core.ErrNotFound)

	g, err := NewGroupBy(da, "run")
	require.NoError(t, err)
	_, err = g.Concat()
	require.ErrorIs(t, err, core.ErrDType)
}
