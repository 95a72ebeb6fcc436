package core

import (
	"fmt"

	"github.com/batchatco/go-thrower"
)

// Sizes is the dimension ledger: the per-container record of agreed
// extents per dimension name.  Extents first proposed by a coordinate stay
// "edge-eligible" (they may shrink by one against data) until a data item
// or a matching coordinate commits them.  Once committed, an extent cannot
// be widened back; this asymmetry is deliberate and matched by tests.
type Sizes struct {
	order   []string
	extents map[string]int
	known   map[string]bool
}

func newSizes() *Sizes {
	return &Sizes{
		extents: map[string]int{},
		known:   map[string]bool{},
	}
}

func (s *Sizes) copy() *Sizes {
	out := newSizes()
	out.order = append(out.order, s.order...)
	for k, v := range s.extents {
		out.extents[k] = v
	}
	for k, v := range s.known {
		out.known[k] = v
	}
	return out
}

// extent returns the recorded (data) extent of a dimension.
func (s *Sizes) extent(dim string) (int, bool) {
	e, has := s.extents[dim]
	return e, has
}

// setExtent records a proposed extent for dim.  Coordinates may propose
// the recorded extent plus one (bin edges); data may shrink an
// edge-eligible extent by one.  Everything else is a conflict.  Throws.
func (s *Sizes) setExtent(dim string, extent int, isCoord bool) {
	stored, seen := s.extents[dim]
	if !seen {
		s.order = append(s.order, dim)
		s.extents[dim] = extent
		s.known[dim] = !isCoord
		return
	}
	switch {
	case extent == stored:
		s.known[dim] = true
	case isCoord && extent == stored+1:
		// Bin-edge coordinate; the data extent stays the smaller one.
		s.known[dim] = true
	case !isCoord && extent == stored-1 && !s.known[dim]:
		// The earlier coordinate turned out to be bin edges.
		s.extents[dim] = extent
		s.known[dim] = true
	default:
		thrower.Throw(fmt.Errorf(
			"dimension %q has extent %d, got %d: %w",
			dim, stored, extent, ErrDimensionMismatch))
	}
}

// register records all extents of a variable.  For coordinates, the +1
// bin-edge allowance applies only along the dimension the coordinate is
// keyed by.
func (s *Sizes) register(name string, v Variable, isCoord bool) {
	d := v.Dims()
	for i := 0; i < d.Len(); i++ {
		p := d.At(i)
		s.setExtent(p.Name, p.Extent, isCoord && p.Name == name)
	}
}
