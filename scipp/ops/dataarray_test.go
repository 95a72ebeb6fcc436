package ops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scipp/scipp-go/scipp/core"
	"github.com/scipp/scipp-go/scipp/units"
)

func namedArray(t *testing.T, name string, values []float64) *core.DataArray {
	t.Helper()
	d := dims(t, core.Dim{Name: "x", Extent: len(values)})
	data, err := core.NewVariable(d, units.Counts, values)
	require.NoError(t, err)
	da, err := core.NewDataArray(name, data)
	require.NoError(t, err)
	coord, err := core.NewVariable(d, units.M, []float64{0, 1, 2}[:len(values)])
	require.NoError(t, err)
	require.NoError(t, da.SetCoord("x", coord))
	return da
}

func TestApplyDataArrays(t *testing.T) {
	a := namedArray(t, "a", []float64{1, 2, 3})
	b := namedArray(t, "a", []float64{10, 20, 30})
	got, err := ApplyDataArrays(Add, a, b)
	require.NoError(t, err)
	require.Equal(t, "a", got.Name())
	require.Equal(t, []float64{11, 22, 33}, got.Data().Values())
	coord, has := got.Coords().Get("x")
	require.True(t, has)
	require.Equal(t, []float64{0, 1, 2}, coord.Values())
}

func TestApplyDataArraysNameMismatch(t *testing.T) {
	a := namedArray(t, "a", []float64{1, 2, 3})
	b := namedArray(t, "b", []float64{1, 1, 1})
	got, err := ApplyDataArrays(Add, a, b)
	require.NoError(t, err)
	require.Equal(t, "", got.Name())
}

func TestApplyDataArraysCoordMismatch(t *testing.T) {
	a := namedArray(t, "a", []float64{1, 2, 3})
	b := namedArray(t, "a", []float64{1, 1, 1})
	d := dims(t, core.Dim{Name: "x", Extent: 3})
	other, _ := core.NewVariable(d, units.M, []float64{5, 6, 7})
	require.NoError(t, b.SetCoord("x", other))
	_, err := ApplyDataArrays(Add, a, b)
	require.ErrorIs(t, err, core.ErrCoordMismatch)
}

func TestApplyDataArraysMasks(t *testing.T) {
	a := namedArray(t, "a", []float64{1, 2, 3})
	b := namedArray(t, "a", []float64{1, 1, 1})
	d := dims(t, core.Dim{Name: "x", Extent: 3})
	ma, _ := core.NewBoolVariable(d, []bool{true, false, false})
	mb, _ := core.NewBoolVariable(d, []bool{false, false, true})
	onlyA, _ := core.NewBoolVariable(d, []bool{true, true, true})
	require.NoError(t, a.SetMask("shared", ma))
	require.NoError(t, b.SetMask("shared", mb))
	require.NoError(t, a.SetMask("solo", onlyA))

	got, err := ApplyDataArrays(Add, a, b)
	require.NoError(t, err)
	// A mask on one operand only does not apply to the sum of both.
	_, has := got.Masks().Get("solo")
	require.False(t, has)
	m, has := got.Masks().Get("shared")
	require.True(t, has)
	require.Equal(t, []bool{true, false, true}, m.Bools())
}

func TestApplyDataArraysAttrs(t *testing.T) {
	a := namedArray(t, "a", []float64{1, 2})
	b := namedArray(t, "a", []float64{3, 4})
	same := core.NewScalar(units.S, 42)
	require.NoError(t, a.SetAttr("agrees", same))
	require.NoError(t, b.SetAttr("agrees", same.Copy()))
	require.NoError(t, a.SetAttr("differs", core.NewScalar(units.S, 1)))
	require.NoError(t, b.SetAttr("differs", core.NewScalar(units.S, 2)))
	require.NoError(t, a.SetAttr("solo", core.NewScalar(units.S, 3)))

	got, err := ApplyDataArrays(Add, a, b)
	require.NoError(t, err)
	v, has := got.Attrs().Get("agrees")
	require.True(t, has)
	require.Equal(t, []float64{42}, v.Values())
	_, has = got.Attrs().Get("differs")
	require.False(t, has)
	_, has = got.Attrs().Get("solo")
	require.False(t, has)
}

func TestApplyInPlaceDataArrayMaskUnion(t *testing.T) {
	a := namedArray(t, "a", []float64{1, 2, 3})
	b := namedArray(t, "a", []float64{10, 10, 10})
	d := dims(t, core.Dim{Name: "x", Extent: 3})
	ma, _ := core.NewBoolVariable(d, []bool{true, false, false})
	mb, _ := core.NewBoolVariable(d, []bool{false, true, false})
	incoming, _ := core.NewBoolVariable(d, []bool{false, false, true})
	require.NoError(t, a.SetMask("shared", ma))
	require.NoError(t, b.SetMask("shared", mb))
	require.NoError(t, b.SetMask("incoming", incoming))

	require.NoError(t, ApplyInPlaceDataArray(Add, a, b))
	require.Equal(t, []float64{11, 12, 13}, a.Data().Values())
	m, _ := a.Masks().Get("shared")
	require.Equal(t, []bool{true, true, false}, m.Bools())
	// In-place addition inherits masks from the operand.
	m, has := a.Masks().Get("incoming")
	require.True(t, has)
	require.Equal(t, []bool{false, false, true}, m.Bools())
}

func TestApplyInPlaceDataArrayRejectsVariances(t *testing.T) {
	a := namedArray(t, "a", []float64{1, 2, 3})
	d := dims(t, core.Dim{Name: "x", Extent: 3})
	data, err := core.NewVariableWithVariances(d, units.Counts,
		[]float64{1, 1, 1}, []float64{1, 1, 1})
	require.NoError(t, err)
	b, err := core.NewDataArray("a", data)
	require.NoError(t, err)
	err = ApplyInPlaceDataArray(Add, a, b)
	require.ErrorIs(t, err, core.ErrVariance)
	require.Equal(t, []float64{1, 2, 3}, a.Data().Values())
}
