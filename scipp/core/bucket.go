package core

import (
	"fmt"
	"sort"

	"github.com/batchatco/go-thrower"
)

// IndexRange is one half-open [Begin, End) range into a bucket buffer.
type IndexRange struct {
	Begin int
	End   int
}

// Len returns the number of buffer elements the range covers.
func (r IndexRange) Len() int {
	return r.End - r.Begin
}

// Buffer is what a bucket variable's index ranges address: a Variable, a
// DataArray or a Dataset, addressed along one of its dimensions.  The
// interface is closed; only the core container types implement it.
type Buffer interface {
	// bufferExtent returns the extent of the addressed dimension.
	bufferExtent(dim string) (int, bool)
	// bufferSlice materializes one [begin,end) range along dim.
	bufferSlice(dim string, r IndexRange) Buffer
	// bufferEqual compares buffer contents.
	bufferEqual(other Buffer) bool
	// bufferCopy returns an independent deep copy.
	bufferCopy() Buffer
}

// bucketData is the payload of a bucket variable: one index range per outer
// element, the buffer dimension those ranges address, and the buffer
// itself.  owned distinguishes buckets that own their buffer exclusively
// from zero-copy views of an existing buffer.
type bucketData struct {
	ranges []IndexRange
	dim    string
	buffer Buffer
	owned  bool
}

func (bd *bucketData) clone() *bucketData {
	out := &bucketData{
		ranges: append([]IndexRange(nil), bd.ranges...),
		dim:    bd.dim,
		buffer: bd.buffer,
		owned:  bd.owned,
	}
	if bd.owned {
		out.buffer = bd.buffer.bufferCopy()
	}
	return out
}

// validateRanges checks every range against the buffer extent and rejects
// overlapping ranges.  Empty ranges and out-of-order contiguous
// subdivisions are fine.
func validateRanges(ranges []IndexRange, extent int) {
	nonEmpty := make([]IndexRange, 0, len(ranges))
	for _, r := range ranges {
		assert(r.Begin >= 0 && r.Begin <= r.End && r.End <= extent,
			fmt.Sprintf("range [%d,%d) outside buffer of extent %d",
				r.Begin, r.End, extent),
			ErrBucketRange)
		if r.Len() > 0 {
			nonEmpty = append(nonEmpty, r)
		}
	}
	sort.Slice(nonEmpty, func(i, j int) bool {
		return nonEmpty[i].Begin < nonEmpty[j].Begin
	})
	for i := 1; i < len(nonEmpty); i++ {
		assert(nonEmpty[i-1].End <= nonEmpty[i].Begin,
			fmt.Sprintf("ranges [%d,%d) and [%d,%d) overlap",
				nonEmpty[i-1].Begin, nonEmpty[i-1].End,
				nonEmpty[i].Begin, nonEmpty[i].End),
			ErrBucketRange)
	}
}

// NewBinned builds a bucket variable owning its buffer: one ragged
// sub-array of buffer per outer element, addressed along dim.
func NewBinned(dims Dimensions, ranges []IndexRange, dim string, buf Buffer) (v Variable, err error) {
	defer thrower.RecoverError(&err)
	return newBinned(dims, ranges, dim, buf, true), nil
}

// NewBinnedView is like NewBinned but references buf without taking
// ownership, for zero-copy views of an existing buffer.
func NewBinnedView(dims Dimensions, ranges []IndexRange, dim string, buf Buffer) (v Variable, err error) {
	defer thrower.RecoverError(&err)
	return newBinned(dims, ranges, dim, buf, false), nil
}

func newBinned(dims Dimensions, ranges []IndexRange, dim string, buf Buffer, owned bool) Variable {
	assert(len(ranges) == dims.Volume(),
		fmt.Sprintf("%d ranges for dimensions %v", len(ranges), dims), ErrLength)
	extent, has := buf.bufferExtent(dim)
	assert(has, fmt.Sprintf("buffer has no dimension %q", dim), ErrNotFound)
	validateRanges(ranges, extent)
	return Variable{
		dims:  dims,
		dtype: DTypeBucket,
		buf: &buffer{bucket: &bucketData{
			ranges: append([]IndexRange(nil), ranges...),
			dim:    dim,
			buffer: buf,
			owned:  owned,
		}},
	}
}

// IsBinned reports whether the variable holds bucket data.
func (v Variable) IsBinned() bool {
	return v.dtype == DTypeBucket
}

func (v Variable) bucket() *bucketData {
	assert(v.IsBinned(), "variable is not binned", ErrDType)
	return v.buf.bucket
}

// BinRanges returns a copy of the per-cell index ranges.
func (v Variable) BinRanges() []IndexRange {
	return append([]IndexRange(nil), v.bucket().ranges...)
}

// BinDim returns the buffer dimension the index ranges address.
func (v Variable) BinDim() string {
	return v.bucket().dim
}

// BinBuffer returns the shared buffer behind the bucket variable.
func (v Variable) BinBuffer() Buffer {
	return v.bucket().buffer
}

// BinCell materializes the ragged sub-array of the i-th outer element
// (flat row-major index).
func (v Variable) BinCell(i int) (b Buffer, err error) {
	defer thrower.RecoverError(&err)
	bd := v.bucket()
	assert(i >= 0 && i < len(bd.ranges),
		fmt.Sprintf("cell %d out of %d", i, len(bd.ranges)), ErrDimensionMismatch)
	return bd.buffer.bufferSlice(bd.dim, bd.ranges[i]), nil
}

func bucketsEqual(a, b *bucketData, adims, bdims Dimensions) bool {
	if !adims.Equal(bdims) || len(a.ranges) != len(b.ranges) {
		return false
	}
	// Cells compare by content: equal buckets may index their buffers at
	// different offsets.
	for i := range a.ranges {
		if a.ranges[i].Len() != b.ranges[i].Len() {
			return false
		}
		ca := a.buffer.bufferSlice(a.dim, a.ranges[i])
		cb := b.buffer.bufferSlice(b.dim, b.ranges[i])
		if !ca.bufferEqual(cb) {
			return false
		}
	}
	return true
}
