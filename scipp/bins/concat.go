package bins

import (
	"fmt"

	"github.com/batchatco/go-thrower"

	"github.com/scipp/scipp-go/scipp/core"
)

// Concatenate merges two binned variables cell by cell: the result has
// the same outer shape, and each cell holds a's events followed by b's.
func Concatenate(a, b core.Variable) (out core.Variable, err error) {
	defer thrower.RecoverError(&err)
	assert(a.IsBinned() && b.IsBinned(), "concatenate needs binned operands", core.ErrDType)
	assert(a.Dims().Equal(b.Dims()),
		fmt.Sprintf("outer dimensions %v and %v differ", a.Dims(), b.Dims()),
		core.ErrDimensionMismatch)
	assert(a.BinDim() == b.BinDim(),
		fmt.Sprintf("buffer dimensions %q and %q differ", a.BinDim(), b.BinDim()),
		core.ErrDimensionMismatch)
	dim := a.BinDim()

	// Join the two buffers back to back, then pull each cell's two
	// ranges out into one contiguous run.
	var joined core.Buffer
	var lenA int
	switch ba := a.BinBuffer().(type) {
	case core.Variable:
		bb, ok := b.BinBuffer().(core.Variable)
		assert(ok, "buffer kinds differ", core.ErrDType)
		lenA, _ = ba.Dims().Extent(dim)
		j, cerr := core.ConcatVariables(dim, ba, bb)
		thrower.ThrowIfError(cerr)
		joined = j
	case *core.DataArray:
		bb, ok := b.BinBuffer().(*core.DataArray)
		assert(ok, "buffer kinds differ", core.ErrDType)
		lenA, _ = ba.Data().Dims().Extent(dim)
		j, cerr := core.ConcatDataArrays(dim, ba, bb)
		thrower.ThrowIfError(cerr)
		joined = j
	default:
		fail("dataset buffers are not supported in concatenate", core.ErrDType)
	}

	ra, rb := a.BinRanges(), b.BinRanges()
	interleaved := make([]core.IndexRange, 0, 2*len(ra))
	for i := range ra {
		interleaved = append(interleaved, ra[i],
			core.IndexRange{Begin: rb[i].Begin + lenA, End: rb[i].End + lenA})
	}
	contig, r2, eerr := core.ExtractRanges(joined, dim, interleaved)
	thrower.ThrowIfError(eerr)
	merged := make([]core.IndexRange, len(ra))
	for i := range merged {
		merged[i] = core.IndexRange{Begin: r2[2*i].Begin, End: r2[2*i+1].End}
	}
	return core.NewBinned(a.Dims(), merged, dim, contig)
}

// ConcatBins folds one outer dimension of a binned variable away,
// merging the cells along it in increasing index order.
func ConcatBins(v core.Variable, dim string) (out core.Variable, err error) {
	defer thrower.RecoverError(&err)
	assert(v.IsBinned(), "concat_bins needs a binned variable", core.ErrDType)
	outer := v.Dims()
	extent, ok := outer.Extent(dim)
	assert(ok, fmt.Sprintf("no dimension %q to fold", dim), core.ErrNotFound)
	assert(extent > 0, fmt.Sprintf("dimension %q is empty", dim), core.ErrDimensionMismatch)
	outDims := outer.Erase(dim)

	ranges := v.BinRanges()
	outerStrides := rowMajorStrides(outer)
	foldStride := outerStrides[outer.Index(dim)]
	restStrides := make([]int, outDims.Len())
	for i, k := 0, 0; i < outer.Len(); i++ {
		if outer.At(i).Name == dim {
			continue
		}
		restStrides[k] = outerStrides[i]
		k++
	}
	outStrides := rowMajorStrides(outDims)

	nOut := outDims.Volume()
	flat := make([]core.IndexRange, 0, nOut*extent)
	coords := make([]int, outDims.Len())
	for f := 0; f < nOut; f++ {
		unravel(f, outStrides, outDims, coords)
		base := 0
		for i, c := range coords {
			base += c * restStrides[i]
		}
		for idx := 0; idx < extent; idx++ {
			flat = append(flat, ranges[base+idx*foldStride])
		}
	}
	contig, r2, eerr := core.ExtractRanges(v.BinBuffer(), v.BinDim(), flat)
	thrower.ThrowIfError(eerr)
	merged := make([]core.IndexRange, nOut)
	for i := range merged {
		merged[i] = core.IndexRange{
			Begin: r2[i*extent].Begin,
			End:   r2[(i+1)*extent-1].End,
		}
	}
	return core.NewBinned(outDims, merged, v.BinDim(), contig)
}
