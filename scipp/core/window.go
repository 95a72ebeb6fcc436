package core

import "fmt"

// window is the composition of a slice-op list over one base Dimensions:
// per base dimension a [lo, hi) range and whether the dimension survives.
// Sequential slices on the same dimension compose by translating the later
// slice into the earlier slice's local frame, so slices on different
// dimensions commute.
type window struct {
	base Dimensions
	lo   []int
	hi   []int
	keep []bool
}

func newWindow(d Dimensions) window {
	n := d.Len()
	w := window{
		base: d,
		lo:   make([]int, n),
		hi:   make([]int, n),
		keep: make([]bool, n),
	}
	for i := 0; i < n; i++ {
		w.hi[i] = d.At(i).Extent
		w.keep[i] = true
	}
	return w
}

// apply composes one more slice onto the window, validating bounds against
// the currently visible extent.  Throws on error.
func (w window) apply(s Slice) window {
	i := w.base.Index(s.Dim)
	assert(i >= 0 && w.keep[i],
		fmt.Sprintf("no dimension %q to slice", s.Dim), ErrNotFound)
	extent := w.hi[i] - w.lo[i]
	out := w.copyBounds()
	if s.IsSingle() {
		assert(s.Begin >= 0 && s.Begin < extent,
			fmt.Sprintf("index %d out of range for dimension %q of extent %d",
				s.Begin, s.Dim, extent),
			ErrDimensionMismatch)
		out.lo[i] = w.lo[i] + s.Begin
		out.hi[i] = out.lo[i] + 1
		out.keep[i] = false
		return out
	}
	assert(s.Begin >= 0 && s.Begin <= s.End && s.End <= extent,
		fmt.Sprintf("range [%d,%d) out of range for dimension %q of extent %d",
			s.Begin, s.End, s.Dim, extent),
		ErrDimensionMismatch)
	out.lo[i] = w.lo[i] + s.Begin
	out.hi[i] = w.lo[i] + s.End
	return out
}

func (w window) copyBounds() window {
	return window{
		base: w.base,
		lo:   append([]int(nil), w.lo...),
		hi:   append([]int(nil), w.hi...),
		keep: append([]bool(nil), w.keep...),
	}
}

// visible returns the dimensions the window exposes.
func (w window) visible() Dimensions {
	var out Dimensions
	for i := 0; i < w.base.Len(); i++ {
		if w.keep[i] {
			out.dims = append(out.dims, Dim{w.base.At(i).Name, w.hi[i] - w.lo[i]})
		}
	}
	return out
}

// bounds returns the [lo, hi) range and survival of the named base
// dimension.
func (w window) bounds(dim string) (lo, hi int, kept, has bool) {
	i := w.base.Index(dim)
	if i < 0 {
		return 0, 0, false, false
	}
	return w.lo[i], w.hi[i], w.keep[i], true
}

// flatOffsets enumerates, in row-major order of the visible dimensions,
// the flat offsets of the window's elements in the base buffer.
func (w window) flatOffsets() []int {
	n := 1
	for i := range w.lo {
		n *= w.hi[i] - w.lo[i]
	}
	if n == 0 {
		return nil
	}
	strides := w.base.strides()
	out := make([]int, 0, n)
	idx := append([]int(nil), w.lo...)
	for {
		off := 0
		for i, x := range idx {
			off += x * strides[i]
		}
		out = append(out, off)
		k := len(idx) - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < w.hi[k] {
				break
			}
			idx[k] = w.lo[k]
		}
		if k < 0 {
			break
		}
	}
	return out
}

// compose folds a slice-op list into a window over the given dimensions.
func compose(d Dimensions, ops []Slice) window {
	w := newWindow(d)
	for _, s := range ops {
		w = w.apply(s)
	}
	return w
}
