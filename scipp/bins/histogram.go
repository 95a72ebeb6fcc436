package bins

import (
	"fmt"

	"github.com/batchatco/go-thrower"

	"github.com/scipp/scipp-go/scipp/core"
)

// Histogram reads ragged event data out into a dense array: every
// event's coordinate value is mapped to a bin of the given edges, and
// the event weights are summed per bin.  Outer dimensions of binned
// input are preserved; the histogrammed dimension is replaced by one
// extent per bin, with the edges attached as a bin-edge coordinate.
func Histogram(da *core.DataArray, edges core.Variable) (out *core.DataArray, err error) {
	defer thrower.RecoverError(&err)
	hdim, search := edgeValues(edges)

	// Dense data that already carries a bin-edge coordinate over the
	// histogram dimension has been histogrammed before.
	if !da.Data().IsBinned() {
		if c, ok := da.Coords().Get(hdim); ok && c.Dims().ContainsDim(hdim) {
			dataExtent, has := da.Data().Dims().Extent(hdim)
			coordExtent, _ := c.Dims().Extent(hdim)
			assert(!has || coordExtent != dataExtent+1,
				fmt.Sprintf("data along %q is already histogrammed", hdim),
				core.ErrBinEdge)
		}
	}
	buf, outer, ranges, eventDim := eventTable(da)

	coord := eventCoord(buf, hdim, eventDim)
	assert(coord.DType() == core.DTypeFloat64,
		fmt.Sprintf("event coordinate %q must be float64 to histogram", hdim),
		core.ErrDType)
	assert(coord.Unit().Equal(edges.Unit()),
		fmt.Sprintf("unit of bin edges %q does not match event coordinate", hdim),
		core.ErrUnitMismatch)
	weights := buf.Data()
	assert(weights.DType() == core.DTypeFloat64,
		"event weights must be float64", core.ErrDType)

	changed := map[string]bool{hdim: true}
	outPairs := make([]core.Dim, 0, outer.Len()+1)
	for i := 0; i < outer.Len(); i++ {
		if d := outer.At(i); !changed[d.Name] {
			outPairs = append(outPairs, d)
		}
	}
	outPairs = append(outPairs, core.Dim{Name: hdim, Extent: search.nbins()})
	outDims, derr := core.NewDimensions(outPairs...)
	thrower.ThrowIfError(derr)

	masked := IrreducibleMask(da.Masks(), outer, changed)
	keptStride := keptStrides(outer, changed, search.nbins())
	outerStrides := rowMajorStrides(outer)

	xs := coord.Values()
	ws := weights.Values()
	var wvars []float64
	if weights.HasVariances() {
		wvars = weights.Variances()
	}
	sums := make([]float64, outDims.Volume())
	var vars []float64
	if wvars != nil {
		vars = make([]float64, outDims.Volume())
	}
	coords := make([]int, outer.Len())
	for f, r := range ranges {
		if masked != nil && masked[f] {
			continue
		}
		unravel(f, outerStrides, outer, coords)
		base := 0
		for i, c := range coords {
			base += c * keptStride[i]
		}
		for p := r.Begin; p < r.End; p++ {
			b := search.bin(xs[p])
			if b < 0 {
				continue
			}
			sums[base+b] += ws[p]
			if vars != nil {
				vars[base+b] += wvars[p]
			}
		}
	}

	var outVar core.Variable
	if vars != nil {
		outVar, derr = core.NewVariableWithVariances(outDims, weights.Unit(), sums, vars)
	} else {
		outVar, derr = core.NewVariable(outDims, weights.Unit(), sums)
	}
	thrower.ThrowIfError(derr)
	out, derr = core.NewDataArray(da.Name(), outVar)
	thrower.ThrowIfError(derr)

	reduced := consumedDims(changed, eventDim)
	carryMeta(da.Coords(), reduced, func(name string, v core.Variable) {
		thrower.ThrowIfError(out.SetCoord(name, v))
	})
	thrower.ThrowIfError(out.SetCoord(hdim, edges.Copy()))
	carryMeta(da.Masks(), reduced, func(name string, v core.Variable) {
		thrower.ThrowIfError(out.SetMask(name, v))
	})
	carryMeta(da.Attrs(), reduced, func(name string, v core.Variable) {
		thrower.ThrowIfError(out.SetAttr(name, v))
	})
	return out, nil
}
