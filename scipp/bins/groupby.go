package bins

import (
	"fmt"
	"sort"

	"github.com/batchatco/go-thrower"
	"golang.org/x/sync/errgroup"

	"github.com/scipp/scipp-go/scipp/core"
)

// GroupBy is a split stage waiting for its apply-combine reduction.  The
// groups partition the indices of one dimension of the source array by
// the distinct values (or bin membership) of a coordinate over it.
type GroupBy struct {
	da       *core.DataArray
	dim      string
	groupDim string
	keys     core.Variable
	groups   [][]int
}

// NewGroupBy splits a data array by the distinct values of the named
// one-dimensional coordinate, sorted ascending.  The coordinate's name
// becomes the output dimension of the reductions.
func NewGroupBy(da *core.DataArray, coordName string) (g *GroupBy, err error) {
	defer thrower.RecoverError(&err)
	coord, ok := da.Coords().Get(coordName)
	assert(ok, fmt.Sprintf("no coordinate %q to group by", coordName), core.ErrNotFound)
	d := coord.Dims()
	assert(d.Len() == 1, "grouping coordinate must be one-dimensional",
		core.ErrDimensionMismatch)
	dim := d.At(0).Name
	n := d.At(0).Extent
	dataExtent, has := da.Data().Dims().Extent(dim)
	assert(has && dataExtent == n,
		fmt.Sprintf("coordinate %q is not aligned with the data", coordName),
		core.ErrDimensionMismatch)

	var keys core.Variable
	var groups [][]int
	switch coord.DType() {
	case core.DTypeInt64:
		keys, groups = splitBy(coord.Ints(), func(ks []int64) {
			sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
		}, func(ks []int64, dims core.Dimensions) (core.Variable, error) {
			return core.NewIntVariable(dims, coord.Unit(), ks)
		}, coordName)
	case core.DTypeString:
		keys, groups = splitBy(coord.Strings(), sort.Strings,
			func(ks []string, dims core.Dimensions) (core.Variable, error) {
				return core.NewStringVariable(dims, ks)
			}, coordName)
	case core.DTypeFloat64:
		keys, groups = splitBy(coord.Values(), sort.Float64s,
			func(ks []float64, dims core.Dimensions) (core.Variable, error) {
				return core.NewVariable(dims, coord.Unit(), ks)
			}, coordName)
	default:
		fail(fmt.Sprintf("cannot group by dtype %s", coord.DType()), core.ErrDType)
	}
	return &GroupBy{da: da, dim: dim, groupDim: coordName, keys: keys, groups: groups}, nil
}

// splitBy partitions indices by distinct key, sorted by the given order,
// and builds the key coordinate for the output.
func splitBy[K comparable](vals []K, order func([]K), build func([]K, core.Dimensions) (core.Variable, error), coordName string) (core.Variable, [][]int) {
	seen := map[K]bool{}
	distinct := make([]K, 0)
	for _, k := range vals {
		if !seen[k] {
			seen[k] = true
			distinct = append(distinct, k)
		}
	}
	order(distinct)
	at := make(map[K]int, len(distinct))
	for i, k := range distinct {
		at[k] = i
	}
	groups := make([][]int, len(distinct))
	for i, k := range vals {
		gi := at[k]
		groups[gi] = append(groups[gi], i)
	}
	dims, err := core.NewDimensions(core.Dim{Name: coordName, Extent: len(distinct)})
	thrower.ThrowIfError(err)
	keys, err := build(distinct, dims)
	thrower.ThrowIfError(err)
	return keys, groups
}

// NewGroupByBins splits a data array by bin membership of the named
// float64 coordinate in the given edges.  The edges' dimension becomes
// the output dimension and the edges its bin-edge coordinate.  Elements
// falling outside the edges are dropped.
func NewGroupByBins(da *core.DataArray, coordName string, edges core.Variable) (g *GroupBy, err error) {
	defer thrower.RecoverError(&err)
	groupDim, search := edgeValues(edges)
	coord, ok := da.Coords().Get(coordName)
	assert(ok, fmt.Sprintf("no coordinate %q to group by", coordName), core.ErrNotFound)
	d := coord.Dims()
	assert(d.Len() == 1, "grouping coordinate must be one-dimensional",
		core.ErrDimensionMismatch)
	assert(coord.DType() == core.DTypeFloat64,
		fmt.Sprintf("coordinate %q must be float64 to group by bins", coordName),
		core.ErrDType)
	assert(coord.Unit().Equal(edges.Unit()),
		fmt.Sprintf("unit of bin edges %q does not match coordinate %q", groupDim, coordName),
		core.ErrUnitMismatch)
	dim := d.At(0).Name
	groups := make([][]int, search.nbins())
	for i, x := range coord.Values() {
		if b := search.bin(x); b >= 0 {
			groups[b] = append(groups[b], i)
		}
	}
	return &GroupBy{da: da, dim: dim, groupDim: groupDim, keys: edges.Copy(), groups: groups}, nil
}

// Size is the number of groups.
func (g *GroupBy) Size() int {
	return len(g.groups)
}

// outDims replaces the reduced dimension with the group dimension, in
// place, keeping the order of the others.
func (g *GroupBy) outDims(in core.Dimensions) core.Dimensions {
	pairs := make([]core.Dim, 0, in.Len())
	for i := 0; i < in.Len(); i++ {
		d := in.At(i)
		if d.Name == g.dim {
			pairs = append(pairs, core.Dim{Name: g.groupDim, Extent: len(g.groups)})
		} else {
			pairs = append(pairs, d)
		}
	}
	out, err := core.NewDimensions(pairs...)
	thrower.ThrowIfError(err)
	return out
}

// reducedMask flattens every mask that depends on the reduced dimension
// over the full input shape, so reductions can skip masked elements.
func (g *GroupBy) reducedMask(in core.Dimensions) []bool {
	return IrreducibleMask(g.da.Masks(), in, map[string]bool{g.dim: true})
}

// finish attaches the group coordinate and the surviving metadata to a
// reduction result.
func (g *GroupBy) finish(out *core.DataArray) {
	reduced := map[string]bool{g.dim: true}
	carryMeta(g.da.Coords(), reduced, func(name string, v core.Variable) {
		thrower.ThrowIfError(out.SetCoord(name, v))
	})
	thrower.ThrowIfError(out.SetCoord(g.groupDim, g.keys.Copy()))
	carryMeta(g.da.Masks(), reduced, func(name string, v core.Variable) {
		thrower.ThrowIfError(out.SetMask(name, v))
	})
	carryMeta(g.da.Attrs(), reduced, func(name string, v core.Variable) {
		thrower.ThrowIfError(out.SetAttr(name, v))
	})
}

// Sum reduces each group by summation over the grouped dimension.  The
// groups are independent and write to disjoint output slices, so they
// are dispatched in parallel.
func (g *GroupBy) Sum() (out *core.DataArray, err error) {
	defer thrower.RecoverError(&err)
	sums, _, outDims := g.accumulate()
	return g.buildDense(sums, outDims)
}

// Mean reduces each group by the mean of its unmasked elements.
func (g *GroupBy) Mean() (out *core.DataArray, err error) {
	defer thrower.RecoverError(&err)
	sums, counts, outDims := g.accumulate()
	for i, c := range counts {
		if c == 0 {
			continue
		}
		sums.values[i] /= float64(c)
		if sums.variances != nil {
			sums.variances[i] /= float64(c * c)
		}
	}
	return g.buildDense(sums, outDims)
}

type accumulator struct {
	values    []float64
	variances []float64
}

func (g *GroupBy) accumulate() (accumulator, []int, core.Dimensions) {
	data := g.da.Data()
	assert(!data.IsBinned(), "use Concat to reduce binned groups", core.ErrDType)
	assert(data.DType() == core.DTypeFloat64, "can only reduce float64 data", core.ErrDType)
	in := data.Dims()
	assert(in.ContainsDim(g.dim),
		fmt.Sprintf("data has no dimension %q", g.dim), core.ErrDimensionMismatch)
	outDims := g.outDims(in)

	vals := data.Values()
	var varis []float64
	if data.HasVariances() {
		varis = data.Variances()
	}
	masked := g.reducedMask(in)

	acc := accumulator{values: make([]float64, outDims.Volume())}
	if varis != nil {
		acc.variances = make([]float64, outDims.Volume())
	}
	counts := make([]int, outDims.Volume())

	var grp errgroup.Group
	for gi := range g.groups {
		gi := gi
		grp.Go(func() error {
			outOffs := sliceOffsets(outDims, g.groupDim, gi)
			for _, idx := range g.groups[gi] {
				inOffs := sliceOffsets(in, g.dim, idx)
				for k, o := range inOffs {
					if masked != nil && masked[o] {
						continue
					}
					acc.values[outOffs[k]] += vals[o]
					if varis != nil {
						acc.variances[outOffs[k]] += varis[o]
					}
					counts[outOffs[k]]++
				}
			}
			return nil
		})
	}
	thrower.ThrowIfError(grp.Wait())
	return acc, counts, outDims
}

func (g *GroupBy) buildDense(acc accumulator, outDims core.Dimensions) (*core.DataArray, error) {
	data := g.da.Data()
	var outVar core.Variable
	var err error
	if acc.variances != nil {
		outVar, err = core.NewVariableWithVariances(outDims, data.Unit(), acc.values, acc.variances)
	} else {
		outVar, err = core.NewVariable(outDims, data.Unit(), acc.values)
	}
	thrower.ThrowIfError(err)
	out, err := core.NewDataArray(g.da.Name(), outVar)
	thrower.ThrowIfError(err)
	g.finish(out)
	return out, nil
}

// Concat reduces each group of a binned array by concatenating its
// cells, in increasing index order within the group.
func (g *GroupBy) Concat() (out *core.DataArray, err error) {
	defer thrower.RecoverError(&err)
	data := g.da.Data()
	assert(data.IsBinned(), "Concat needs binned data", core.ErrDType)
	in := data.Dims()
	assert(in.ContainsDim(g.dim),
		fmt.Sprintf("data has no dimension %q", g.dim), core.ErrDimensionMismatch)
	outDims := g.outDims(in)
	ranges := data.BinRanges()
	masked := g.reducedMask(in)

	// Enumerate the member ranges of every output cell in output flat
	// order, then extract them into one contiguous buffer.
	inStrides := rowMajorStrides(in)
	groupPos := outDims.Index(g.groupDim)
	outStrides := rowMajorStrides(outDims)
	nOut := outDims.Volume()
	flat := make([]core.IndexRange, 0, len(ranges))
	cellCount := make([]int, nOut)
	coords := make([]int, outDims.Len())
	for f := 0; f < nOut; f++ {
		unravel(f, outStrides, outDims, coords)
		base := 0
		for i, c := range coords {
			if i == groupPos {
				continue
			}
			base += c * inStrides[i]
		}
		for _, idx := range g.groups[coords[groupPos]] {
			inFlat := base + idx*inStrides[in.Index(g.dim)]
			if masked != nil && masked[inFlat] {
				continue
			}
			flat = append(flat, ranges[inFlat])
			cellCount[f]++
		}
	}
	contig, extracted, eerr := core.ExtractRanges(data.BinBuffer(), data.BinDim(), flat)
	thrower.ThrowIfError(eerr)
	merged := make([]core.IndexRange, nOut)
	pos := 0
	start := 0
	for f := 0; f < nOut; f++ {
		end := start
		for k := 0; k < cellCount[f]; k++ {
			end = extracted[pos].End
			pos++
		}
		merged[f] = core.IndexRange{Begin: start, End: end}
		start = end
	}
	outVar, berr := core.NewBinned(outDims, merged, data.BinDim(), contig)
	thrower.ThrowIfError(berr)
	out, derr := core.NewDataArray(g.da.Name(), outVar)
	thrower.ThrowIfError(derr)
	g.finish(out)
	return out, nil
}
