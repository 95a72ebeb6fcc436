package core

import (
	"fmt"

	"github.com/batchatco/go-thrower"
)

// ConcatVariables joins variables along an existing dimension.  All parts
// must agree on every other extent, on unit, dtype and variance presence.
// Binned parts are merged into one bucket variable over a joined buffer.
func ConcatVariables(dim string, parts ...Variable) (out Variable, err error) {
	defer thrower.RecoverError(&err)
	assert(len(parts) > 0, "nothing to concatenate", ErrLength)
	if parts[0].IsBinned() {
		return concatBinnedVariables(dim, parts)
	}
	first := parts[0]
	total := 0
	for _, p := range parts {
		assert(p.dtype == first.dtype, "dtype mismatch in concatenate", ErrDType)
		assert(p.unit.Equal(first.unit), "unit mismatch in concatenate", ErrUnitMismatch)
		assert(p.HasVariances() == first.HasVariances(),
			"variance mismatch in concatenate", ErrVariance)
		assert(p.dims.Erase(dim).Equal(first.dims.Erase(dim)),
			fmt.Sprintf("dimensions %v and %v differ beyond %q",
				p.dims, first.dims, dim),
			ErrDimensionMismatch)
		total += p.dims.extentOf(dim)
	}
	outDims := first.dims.Resize(dim, total)
	out = Variable{dims: outDims, unit: first.unit, dtype: first.dtype, buf: &buffer{}}
	switch first.dtype {
	case DTypeFloat64:
		out.buf.floats = make([]float64, outDims.Volume())
		if first.HasVariances() {
			out.buf.variances = make([]float64, outDims.Volume())
		}
	case DTypeInt64:
		out.buf.ints = make([]int64, outDims.Volume())
	case DTypeBool:
		out.buf.bools = make([]bool, outDims.Volume())
	case DTypeString:
		out.buf.strs = make([]string, outDims.Volume())
	default:
		fail(fmt.Sprintf("cannot concatenate dtype %v", first.dtype), ErrDType)
	}
	start := 0
	for _, p := range parts {
		extent := p.dims.extentOf(dim)
		w := newWindow(outDims).apply(Range(dim, start, start+extent))
		offs := w.flatOffsets()
		switch first.dtype {
		case DTypeFloat64:
			for i, o := range offs {
				out.buf.floats[o] = p.buf.floats[i]
			}
			if first.HasVariances() {
				for i, o := range offs {
					out.buf.variances[o] = p.buf.variances[i]
				}
			}
		case DTypeInt64:
			for i, o := range offs {
				out.buf.ints[o] = p.buf.ints[i]
			}
		case DTypeBool:
			for i, o := range offs {
				out.buf.bools[o] = p.buf.bools[i]
			}
		case DTypeString:
			for i, o := range offs {
				out.buf.strs[o] = p.buf.strs[i]
			}
		}
		start += extent
	}
	return out, nil
}

func concatBinnedVariables(dim string, parts []Variable) (Variable, error) {
	first := parts[0]
	bufDim := first.BinDim()
	var buffers []Buffer
	total := 0
	for _, p := range parts {
		assert(p.IsBinned(), "dtype mismatch in concatenate", ErrDType)
		assert(p.BinDim() == bufDim, "bucket buffer dimension mismatch", ErrDimensionMismatch)
		assert(p.dims.Erase(dim).Equal(first.dims.Erase(dim)),
			fmt.Sprintf("dimensions %v and %v differ beyond %q",
				p.dims, first.dims, dim),
			ErrDimensionMismatch)
		buffers = append(buffers, p.bucket().buffer)
		total += p.dims.extentOf(dim)
	}
	joined, err := concatBuffers(bufDim, buffers)
	thrower.ThrowIfError(err)
	outDims := first.dims.Resize(dim, total)
	ranges := make([]IndexRange, outDims.Volume())
	start, shift := 0, 0
	for _, p := range parts {
		extent := p.dims.extentOf(dim)
		w := newWindow(outDims).apply(Range(dim, start, start+extent))
		offs := w.flatOffsets()
		pr := p.bucket().ranges
		for i, o := range offs {
			ranges[o] = IndexRange{pr[i].Begin + shift, pr[i].End + shift}
		}
		e, _ := p.bucket().buffer.bufferExtent(bufDim)
		shift += e
		start += extent
	}
	return newBinned(outDims, ranges, bufDim, joined, true), nil
}

// ConcatDataArrays joins data arrays along an existing dimension.
// Coordinates and masks shaped over dim are concatenated; metadata not
// covering dim must compare equal across the parts.
func ConcatDataArrays(dim string, parts ...*DataArray) (out *DataArray, err error) {
	defer thrower.RecoverError(&err)
	assert(len(parts) > 0, "nothing to concatenate", ErrLength)
	first := parts[0]
	vars := make([]Variable, len(parts))
	for i, p := range parts {
		vars[i] = p.data
	}
	data, err := ConcatVariables(dim, vars...)
	thrower.ThrowIfError(err)
	out = &DataArray{
		name:   first.name,
		data:   data,
		coords: concatMeta(dim, parts, func(da *DataArray) *Metadata { return da.coords }, true),
		masks:  concatMeta(dim, parts, func(da *DataArray) *Metadata { return da.masks }, false),
		attrs:  concatMeta(dim, parts, func(da *DataArray) *Metadata { return da.attrs }, false),
	}
	return out, nil
}

func concatMeta(dim string, parts []*DataArray, get func(*DataArray) *Metadata, coordLike bool) *Metadata {
	out := NewMetadata()
	first := get(parts[0])
	for _, k := range first.keys {
		if first.hidden[k] {
			continue
		}
		v := first.values[k]
		if !v.Dims().ContainsDim(dim) {
			// Must agree everywhere to survive.
			equal := true
			for _, p := range parts[1:] {
				pv, has := get(p).Get(k)
				if !has || !pv.Equal(v) {
					equal = false
					break
				}
			}
			if equal {
				out.Set(k, v.Copy())
			} else {
				assert(!coordLike,
					fmt.Sprintf("coordinate %q differs between parts", k),
					ErrCoordMismatch)
			}
			continue
		}
		assert(!isEdge(v, dim, parts[0].data.dims),
			fmt.Sprintf("cannot concatenate bin-edge coordinate %q", k),
			ErrBinEdge)
		pieces := make([]Variable, 0, len(parts))
		ok := true
		for _, p := range parts {
			pv, has := get(p).Get(k)
			if !has {
				ok = false
				break
			}
			pieces = append(pieces, pv)
		}
		if !ok {
			continue
		}
		joined, err := ConcatVariables(dim, pieces...)
		thrower.ThrowIfError(err)
		out.Set(k, joined)
	}
	return out
}

func concatBuffers(dim string, buffers []Buffer) (Buffer, error) {
	switch buffers[0].(type) {
	case Variable:
		vars := make([]Variable, len(buffers))
		for i, b := range buffers {
			vars[i] = b.(Variable)
		}
		return ConcatVariables(dim, vars...)
	case *DataArray:
		das := make([]*DataArray, len(buffers))
		for i, b := range buffers {
			das[i] = b.(*DataArray)
		}
		return ConcatDataArrays(dim, das...)
	default:
		return nil, fmt.Errorf("cannot concatenate dataset buffers: %w", ErrDType)
	}
}

// ExtractRanges materializes the given ranges of a bucket buffer into a
// fresh contiguous buffer, returning it and the corresponding contiguous
// ranges.
func ExtractRanges(buf Buffer, dim string, ranges []IndexRange) (out Buffer, outRanges []IndexRange, err error) {
	defer thrower.RecoverError(&err)
	if len(ranges) == 0 {
		return buf.bufferSlice(dim, IndexRange{}), []IndexRange{}, nil
	}
	parts := make([]Buffer, len(ranges))
	outRanges = make([]IndexRange, len(ranges))
	start := 0
	for i, r := range ranges {
		parts[i] = buf.bufferSlice(dim, r)
		outRanges[i] = IndexRange{start, start + r.Len()}
		start += r.Len()
	}
	out, err = concatBuffers(dim, parts)
	thrower.ThrowIfError(err)
	return out, outRanges, nil
}
