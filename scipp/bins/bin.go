package bins

import (
	"fmt"

	"github.com/batchatco/go-thrower"

	"github.com/scipp/scipp-go/scipp/core"
)

// MakeBinned builds an owning binned variable over dims from parallel
// begin/end index slices into the event buffer.
func MakeBinned(dims core.Dimensions, begin, end []int, dim string, buf core.Buffer) (core.Variable, error) {
	if len(begin) != len(end) {
		return core.Variable{}, fmt.Errorf("%w: %d begin vs %d end indices",
			core.ErrLength, len(begin), len(end))
	}
	ranges := make([]core.IndexRange, len(begin))
	for i := range begin {
		ranges[i] = core.IndexRange{Begin: begin[i], End: end[i]}
	}
	return core.NewBinned(dims, ranges, dim, buf)
}

// binTarget is one output axis of Bin: the per-event sub-bin index, the
// number of sub-bins, and the coordinate describing them in the output.
type binTarget struct {
	dim   string
	count int
	index []int
	coord core.Variable
}

// eventCoord fetches a per-event coordinate of the buffer table and
// checks it is one-dimensional over the event dimension.
func eventCoord(buf *core.DataArray, name, eventDim string) core.Variable {
	coord, ok := buf.Coords().Get(name)
	assert(ok, fmt.Sprintf("no event coordinate %q to bin by", name), core.ErrNotFound)
	d := coord.Dims()
	assert(d.Len() == 1 && d.At(0).Name == eventDim,
		fmt.Sprintf("event coordinate %q is not over dimension %q", name, eventDim),
		core.ErrDimensionMismatch)
	return coord
}

func edgeTarget(buf *core.DataArray, edges core.Variable, eventDim string) binTarget {
	dim, search := edgeValues(edges)
	coord := eventCoord(buf, dim, eventDim)
	assert(coord.DType() == core.DTypeFloat64,
		fmt.Sprintf("event coordinate %q must be float64 to bin by edges", dim),
		core.ErrDType)
	assert(coord.Unit().Equal(edges.Unit()),
		fmt.Sprintf("unit of bin edges %q does not match event coordinate", dim),
		core.ErrUnitMismatch)
	vals := coord.Values()
	index := make([]int, len(vals))
	for i, x := range vals {
		index[i] = search.bin(x)
	}
	return binTarget{dim: dim, count: search.nbins(), index: index, coord: edges.Copy()}
}

func groupTarget(buf *core.DataArray, group core.Variable, eventDim string) binTarget {
	d := group.Dims()
	assert(d.Len() == 1, "group keys must be one-dimensional", core.ErrDimensionMismatch)
	dim := d.At(0).Name
	coord := eventCoord(buf, dim, eventDim)
	assert(coord.DType() == group.DType(),
		fmt.Sprintf("group keys for %q have dtype %s, event coordinate has %s",
			dim, group.DType(), coord.DType()),
		core.ErrDType)
	nev, _ := coord.Dims().Extent(eventDim)
	index := make([]int, nev)
	switch group.DType() {
	case core.DTypeInt64:
		lut := make(map[int64]int, d.At(0).Extent)
		for i, k := range group.Ints() {
			lut[k] = i
		}
		for i, k := range coord.Ints() {
			index[i] = lookup(lut, k)
		}
	case core.DTypeString:
		lut := make(map[string]int, d.At(0).Extent)
		for i, k := range group.Strings() {
			lut[k] = i
		}
		for i, k := range coord.Strings() {
			index[i] = lookup(lut, k)
		}
	case core.DTypeFloat64:
		lut := make(map[float64]int, d.At(0).Extent)
		for i, k := range group.Values() {
			lut[k] = i
		}
		for i, k := range coord.Values() {
			index[i] = lookup(lut, k)
		}
	default:
		fail(fmt.Sprintf("cannot group by dtype %s", group.DType()), core.ErrDType)
	}
	return binTarget{dim: dim, count: d.At(0).Extent, index: index, coord: group.Copy()}
}

func lookup[K comparable](lut map[K]int, k K) int {
	i, ok := lut[k]
	if !ok {
		return -1
	}
	return i
}

// eventTable resolves a data array to its underlying event table: the
// bucket buffer of binned data, or the array itself treated as one bin
// covering the whole table.
func eventTable(da *core.DataArray) (buf *core.DataArray, outer core.Dimensions, ranges []core.IndexRange, eventDim string) {
	data := da.Data()
	if data.IsBinned() {
		b, ok := data.BinBuffer().(*core.DataArray)
		assert(ok, "binning needs a data-array bucket buffer", core.ErrDType)
		return b, data.Dims(), data.BinRanges(), data.BinDim()
	}
	d := data.Dims()
	assert(d.Len() == 1, "an event table must be one-dimensional", core.ErrDimensionMismatch)
	eventDim = d.At(0).Name
	ranges = []core.IndexRange{{Begin: 0, End: d.At(0).Extent}}
	return da, core.Dimensions{}, ranges, eventDim
}

// Bin sorts event data into bins.  Each entry of groups contributes an
// output dimension with one bin per distinct key, and each entry of
// edges contributes an output dimension of len(edges)-1 half-open
// intervals.  Dimensions of the input that are not re-binned are kept.
// The input may be binned already or a plain one-dimensional event
// table.
func Bin(da *core.DataArray, groups, edges []core.Variable) (out *core.DataArray, err error) {
	defer thrower.RecoverError(&err)
	buf, outer, ranges, eventDim := eventTable(da)

	targets := make([]binTarget, 0, len(groups)+len(edges))
	for _, g := range groups {
		targets = append(targets, groupTarget(buf, g, eventDim))
	}
	for _, e := range edges {
		targets = append(targets, edgeTarget(buf, e, eventDim))
	}
	assert(len(targets) > 0, "nothing to bin by", core.ErrNotFound)

	changed := make(map[string]bool, len(targets))
	for _, t := range targets {
		assert(!changed[t.dim],
			fmt.Sprintf("dimension %q binned twice", t.dim), core.ErrDuplicateDimension)
		changed[t.dim] = true
	}

	outPairs := make([]core.Dim, 0, outer.Len()+len(targets))
	for i := 0; i < outer.Len(); i++ {
		if d := outer.At(i); !changed[d.Name] {
			outPairs = append(outPairs, d)
		}
	}
	for _, t := range targets {
		outPairs = append(outPairs, core.Dim{Name: t.dim, Extent: t.count})
	}
	outDims, derr := core.NewDimensions(outPairs...)
	thrower.ThrowIfError(derr)

	masked := IrreducibleMask(da.Masks(), outer, changed)

	// Flat projection from each input cell onto the kept dimensions.
	nInner := 1
	for _, t := range targets {
		nInner *= t.count
	}
	keptStride := keptStrides(outer, changed, nInner)
	outerStrides := rowMajorStrides(outer)

	nEvents := bufferTableExtent(buf, eventDim)
	target := make([]int, nEvents)
	for i := range target {
		target[i] = -1
	}
	counts := make([]int, outDims.Volume())
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
			inner := 0
			for _, t := range targets {
				si := t.index[p]
				if si < 0 {
					inner = -1
					break
				}
				inner = inner*t.count + si
			}
			if inner < 0 {
				continue
			}
			target[p] = base + inner
			counts[target[p]]++
		}
	}

	// Exclusive prefix sum of the counts gives each output bin its slot.
	outRanges := make([]core.IndexRange, len(counts))
	next := make([]int, len(counts))
	total := 0
	for i, c := range counts {
		outRanges[i] = core.IndexRange{Begin: total, End: total + c}
		next[i] = total
		total += c
	}
	perm := make([]int, nEvents)
	for f, r := range ranges {
		if masked != nil && masked[f] {
			for p := r.Begin; p < r.End; p++ {
				perm[p] = -1
			}
			continue
		}
		for p := r.Begin; p < r.End; p++ {
			t := target[p]
			if t < 0 {
				perm[p] = -1
				continue
			}
			perm[p] = next[t]
			next[t]++
		}
	}

	newBuf := permuteTable(buf, eventDim, perm, total)
	weights, berr := core.NewBinned(outDims, outRanges, eventDim, newBuf)
	thrower.ThrowIfError(berr)
	out, derr = core.NewDataArray(da.Name(), weights)
	thrower.ThrowIfError(derr)

	reduced := consumedDims(changed, eventDim)
	carryMeta(da.Coords(), reduced, func(name string, v core.Variable) {
		thrower.ThrowIfError(out.SetCoord(name, v))
	})
	for _, t := range targets {
		thrower.ThrowIfError(out.SetCoord(t.dim, t.coord))
	}
	carryMeta(da.Masks(), reduced, func(name string, v core.Variable) {
		thrower.ThrowIfError(out.SetMask(name, v))
	})
	carryMeta(da.Attrs(), reduced, func(name string, v core.Variable) {
		thrower.ThrowIfError(out.SetAttr(name, v))
	})
	return out, nil
}

// consumedDims is the changed set plus the event dimension, so that
// table-level metadata over the event axis is absorbed into the buffer
// instead of leaking onto the output container.
func consumedDims(changed map[string]bool, eventDim string) map[string]bool {
	reduced := make(map[string]bool, len(changed)+1)
	for d := range changed {
		reduced[d] = true
	}
	reduced[eventDim] = true
	return reduced
}

// keptStrides gives, per outer dimension, the stride of that dimension
// in the output flat index, already scaled by the inner sub-bin count.
// Consumed dimensions get stride zero.
func keptStrides(outer core.Dimensions, changed map[string]bool, nInner int) []int {
	strides := make([]int, outer.Len())
	stride := nInner
	for i := outer.Len() - 1; i >= 0; i-- {
		d := outer.At(i)
		if changed[d.Name] {
			continue
		}
		strides[i] = stride
		stride *= d.Extent
	}
	return strides
}

// bufferTableExtent is the event-dimension extent of a buffer table.
func bufferTableExtent(buf *core.DataArray, eventDim string) int {
	n, ok := buf.Data().Dims().Extent(eventDim)
	assert(ok, fmt.Sprintf("buffer has no dimension %q", eventDim), core.ErrDimensionMismatch)
	assert(buf.Data().Dims().Len() == 1, "buffer table must be one-dimensional",
		core.ErrDimensionMismatch)
	return n
}

// permuteTable scatters every column of the event table through perm
// into a freshly sized table.  Entries with perm < 0 are dropped.
func permuteTable(buf *core.DataArray, eventDim string, perm []int, outLen int) *core.DataArray {
	data := permuteVariable(buf.Data(), eventDim, perm, outLen)
	out, err := core.NewDataArray(buf.Name(), data)
	thrower.ThrowIfError(err)
	for _, name := range buf.Coords().Keys() {
		v := permuteVariable(buf.Coords().MustGet(name), eventDim, perm, outLen)
		thrower.ThrowIfError(out.SetCoord(name, v))
	}
	for _, name := range buf.Masks().Keys() {
		v := permuteVariable(buf.Masks().MustGet(name), eventDim, perm, outLen)
		thrower.ThrowIfError(out.SetMask(name, v))
	}
	for _, name := range buf.Attrs().Keys() {
		v := permuteVariable(buf.Attrs().MustGet(name), eventDim, perm, outLen)
		thrower.ThrowIfError(out.SetAttr(name, v))
	}
	return out
}

func permuteVariable(v core.Variable, dim string, perm []int, outLen int) core.Variable {
	d := v.Dims()
	if !d.ContainsDim(dim) {
		return v.Copy()
	}
	assert(!v.IsBinned(), "nested binned buffers are not supported", core.ErrDType)
	outDims := d.Resize(dim, outLen)
	var out core.Variable
	var err error
	switch v.DType() {
	case core.DTypeFloat64:
		vals := make([]float64, outLen)
		scatter(v.Values(), perm, vals)
		if v.HasVariances() {
			vars := make([]float64, outLen)
			scatter(v.Variances(), perm, vars)
			out, err = core.NewVariableWithVariances(outDims, v.Unit(), vals, vars)
		} else {
			out, err = core.NewVariable(outDims, v.Unit(), vals)
		}
	case core.DTypeInt64:
		vals := make([]int64, outLen)
		scatter(v.Ints(), perm, vals)
		out, err = core.NewIntVariable(outDims, v.Unit(), vals)
	case core.DTypeBool:
		vals := make([]bool, outLen)
		scatter(v.Bools(), perm, vals)
		out, err = core.NewBoolVariable(outDims, vals)
	case core.DTypeString:
		vals := make([]string, outLen)
		scatter(v.Strings(), perm, vals)
		out, err = core.NewStringVariable(outDims, vals)
	default:
		fail(fmt.Sprintf("cannot permute dtype %s", v.DType()), core.ErrDType)
	}
	thrower.ThrowIfError(err)
	return out
}

func scatter[T any](src []T, perm []int, dst []T) {
	for i, p := range perm {
		if p < 0 {
			continue
		}
		dst[p] = src[i]
	}
}
