package core

import "fmt"

// Slice is one slicing operation: either a single index, which collapses
// the dimension, or a half-open [Begin, End) range, which preserves it.
// Slice values are immutable; views hold appended sequences of them.
type Slice struct {
	Dim    string
	Begin  int
	End    int
	single bool
}

// At selects a single position, collapsing the dimension.
func At(dim string, i int) Slice {
	return Slice{Dim: dim, Begin: i, End: i + 1, single: true}
}

// Range selects the half-open range [begin, end), preserving the
// dimension.
func Range(dim string, begin, end int) Slice {
	return Slice{Dim: dim, Begin: begin, End: end}
}

// IsSingle reports whether the slice collapses its dimension.
func (s Slice) IsSingle() bool {
	return s.single
}

func (s Slice) String() string {
	if s.single {
		return fmt.Sprintf("{%s, %d}", s.Dim, s.Begin)
	}
	return fmt.Sprintf("{%s, %d, %d}", s.Dim, s.Begin, s.End)
}
