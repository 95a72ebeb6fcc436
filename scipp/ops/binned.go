package ops

import (
	"fmt"

	"github.com/batchatco/go-thrower"

	"github.com/scipp/scipp-go/scipp/core"
	"github.com/scipp/scipp-go/scipp/units"
)

// bufferWeights returns the float64 weight column of a bucket buffer and,
// for data-array buffers, the buffer itself for rebuilding.
func bufferWeights(buf core.Buffer) (core.Variable, *core.DataArray) {
	switch b := buf.(type) {
	case core.Variable:
		return b, nil
	case *core.DataArray:
		return b.Data(), b
	default:
		fail("dataset buffers unsupported in arithmetic", core.ErrDType)
		return core.Variable{}, nil
	}
}

// applyBinned dispatches the bucket cases of Apply: binned (x) binned with
// matching ragged lengths, and binned (x) dense with the dense operand
// broadcast across each cell's events.
func applyBinned(k *Kernel, a, b core.Variable) (core.Variable, error) {
	switch {
	case a.IsBinned() && b.IsBinned():
		return applyBinnedBinned(k, a, b)
	case a.IsBinned():
		return applyBinnedDense(k, a, b, false)
	default:
		return applyBinnedDense(k, b, a, true)
	}
}

func applyBinnedBinned(k *Kernel, a, b core.Variable) (core.Variable, error) {
	assert(a.Dims().Equal(b.Dims()),
		fmt.Sprintf("outer dimensions %v and %v differ", a.Dims(), b.Dims()),
		core.ErrDimensionMismatch)
	ra, rb := a.BinRanges(), b.BinRanges()
	for i := range ra {
		assert(ra[i].Len() == rb[i].Len(),
			fmt.Sprintf("cell %d has %d and %d events", i, ra[i].Len(), rb[i].Len()),
			core.ErrBucketLength)
	}
	wa, bufA := bufferWeights(a.BinBuffer())
	wb, _ := bufferWeights(b.BinBuffer())
	checkDense(wa)
	checkDense(wb)
	unit, uerr := k.unit(wa.Unit(), wb.Unit())
	thrower.ThrowIfError(uerr)

	total := 0
	for _, r := range ra {
		total += r.Len()
	}
	values := make([]float64, total)
	hasVar := wa.HasVariances() || wb.HasVariances()
	var variances []float64
	if hasVar {
		variances = make([]float64, total)
	}
	av, bv := wa.Values(), wb.Values()
	outRanges := make([]core.IndexRange, len(ra))
	off := 0
	for i := range ra {
		outRanges[i] = core.IndexRange{Begin: off, End: off + ra[i].Len()}
		for j := 0; j < ra[i].Len(); j++ {
			x, y := av[ra[i].Begin+j], bv[rb[i].Begin+j]
			values[off] = k.value(x, y)
			if hasVar {
				variances[off] = k.variance(x, varianceAt(wa, ra[i].Begin+j),
					y, varianceAt(wb, rb[i].Begin+j))
			}
			off++
		}
	}
	buf := rebuildWeights(a, bufA, unit, values, variances, outRanges, total)
	out, err := core.NewBinned(a.Dims(), outRanges, a.BinDim(), buf)
	thrower.ThrowIfError(err)
	return out, nil
}

func applyBinnedDense(k *Kernel, binned, dense core.Variable, flipped bool) (core.Variable, error) {
	checkDense(dense)
	assert(binned.Dims().Contains(dense.Dims()),
		fmt.Sprintf("dense operand %v not broadcastable to %v",
			dense.Dims(), binned.Dims()),
		core.ErrDimensionMismatch)
	w, bufDA := bufferWeights(binned.BinBuffer())
	checkDense(w)
	var unit units.Unit
	var uerr error
	if flipped {
		unit, uerr = k.unit(dense.Unit(), w.Unit())
	} else {
		unit, uerr = k.unit(w.Unit(), dense.Unit())
	}
	thrower.ThrowIfError(uerr)

	ranges := binned.BinRanges()
	offsD := broadcastOffsets(binned.Dims(), dense.Dims())
	dv := dense.Values()
	total := 0
	for _, r := range ranges {
		total += r.Len()
	}
	values := make([]float64, total)
	hasVar := w.HasVariances() || dense.HasVariances()
	var variances []float64
	if hasVar {
		variances = make([]float64, total)
	}
	wv := w.Values()
	outRanges := make([]core.IndexRange, len(ranges))
	off := 0
	for i, r := range ranges {
		outRanges[i] = core.IndexRange{Begin: off, End: off + r.Len()}
		d := dv[offsD[i]]
		vd := varianceAt(dense, offsD[i])
		for j := r.Begin; j < r.End; j++ {
			x, vx := wv[j], varianceAt(w, j)
			var val, variance float64
			if flipped {
				val = k.value(d, x)
				variance = k.variance(d, vd, x, vx)
			} else {
				val = k.value(x, d)
				variance = k.variance(x, vx, d, vd)
			}
			values[off] = val
			if hasVar {
				variances[off] = variance
			}
			off++
		}
	}
	buf := rebuildWeights(binned, bufDA, unit, values, variances, outRanges, total)
	out, err := core.NewBinned(binned.Dims(), outRanges, binned.BinDim(), buf)
	thrower.ThrowIfError(err)
	return out, nil
}

// rebuildWeights builds the output buffer: a plain variable, or the source
// data-array buffer with its event coordinates re-gathered to the new
// contiguous layout and the weight column replaced.
func rebuildWeights(binned core.Variable, srcDA *core.DataArray, unit units.Unit,
	values, variances []float64, outRanges []core.IndexRange, total int) core.Buffer {
	dim := binned.BinDim()
	dims, err := core.NewDimensions(core.Dim{Name: dim, Extent: total})
	thrower.ThrowIfError(err)
	var weights core.Variable
	if variances != nil {
		weights, err = core.NewVariableWithVariances(dims, unit, values, variances)
	} else {
		weights, err = core.NewVariable(dims, unit, values)
	}
	thrower.ThrowIfError(err)
	if srcDA == nil {
		return weights
	}
	gathered, _, err := core.ExtractRanges(srcDA, dim, binned.BinRanges())
	thrower.ThrowIfError(err)
	da := gathered.(*core.DataArray)
	thrower.ThrowIfError(da.SetData(weights))
	return da
}
