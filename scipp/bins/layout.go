package bins

import (
	"github.com/scipp/scipp-go/scipp/core"
)

// rowMajorStrides computes row-major strides for a Dimensions.
func rowMajorStrides(d core.Dimensions) []int {
	strides := make([]int, d.Len())
	stride := 1
	for i := d.Len() - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= d.At(i).Extent
	}
	return strides
}

// unravel decomposes a flat row-major index into per-dimension
// coordinates.
func unravel(flat int, strides []int, d core.Dimensions, coords []int) {
	for i := range coords {
		coords[i] = (flat / strides[i]) % d.At(i).Extent
	}
}

// sliceOffsets returns the flat indices of the hyperplane dim=idx, in
// row-major order over the remaining dimensions.
func sliceOffsets(d core.Dimensions, dim string, idx int) []int {
	strides := rowMajorStrides(d)
	self := d.Index(dim)
	rest := d.Erase(dim)
	n := rest.Volume()
	offs := make([]int, 0, n)
	if n == 0 {
		return offs
	}
	restDims := make([]int, 0, d.Len()-1)
	restStrides := make([]int, 0, d.Len()-1)
	for i := 0; i < d.Len(); i++ {
		if i == self {
			continue
		}
		restDims = append(restDims, d.At(i).Extent)
		restStrides = append(restStrides, strides[i])
	}
	base := idx * strides[self]
	pos := make([]int, len(restDims))
	for {
		off := base
		for i, x := range pos {
			off += x * restStrides[i]
		}
		offs = append(offs, off)
		k := len(pos) - 1
		for ; k >= 0; k-- {
			pos[k]++
			if pos[k] < restDims[k] {
				break
			}
			pos[k] = 0
		}
		if k < 0 {
			break
		}
	}
	return offs
}

// broadcastOffsets maps every flat index of the outer shape to the flat
// index in the sub-shaped operand, repeating the operand along the
// dimensions it lacks.
func broadcastOffsets(out, operand core.Dimensions) []int {
	opStrides := rowMajorStrides(operand)
	strideOf := map[string]int{}
	for i := 0; i < operand.Len(); i++ {
		strideOf[operand.At(i).Name] = opStrides[i]
	}
	dimStride := make([]int, out.Len())
	for i := 0; i < out.Len(); i++ {
		dimStride[i] = strideOf[out.At(i).Name]
	}
	n := out.Volume()
	offs := make([]int, 0, n)
	if n == 0 {
		return offs
	}
	idx := make([]int, out.Len())
	for {
		off := 0
		for i, x := range idx {
			off += x * dimStride[i]
		}
		offs = append(offs, off)
		k := out.Len() - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < out.At(k).Extent {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			break
		}
	}
	return offs
}
