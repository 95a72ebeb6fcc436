package core

import (
	"sync/atomic"
)

// buffer is the shared element store behind a Variable.  Exactly one of the
// element slices is in use, selected by the owning variable's dtype.
// Logical copies alias the same buffer; the shared flag is raised on copy
// and checked before every mutation (copy-on-write).  Once raised the flag
// stays raised: each holder detaches onto its own private buffer at its
// next write.
type buffer struct {
	shared atomic.Bool

	floats    []float64
	variances []float64 // optional, parallel to floats
	ints      []int64
	bools     []bool
	strs      []string
	bucket    *bucketData
}

func (b *buffer) clone() *buffer {
	out := &buffer{}
	if b.floats != nil {
		out.floats = append([]float64(nil), b.floats...)
	}
	if b.variances != nil {
		out.variances = append([]float64(nil), b.variances...)
	}
	if b.ints != nil {
		out.ints = append([]int64(nil), b.ints...)
	}
	if b.bools != nil {
		out.bools = append([]bool(nil), b.bools...)
	}
	if b.strs != nil {
		out.strs = append([]string(nil), b.strs...)
	}
	if b.bucket != nil {
		out.bucket = b.bucket.clone()
	}
	return out
}

// markShared flags the buffer as aliased by more than one variable.
func (b *buffer) markShared() {
	b.shared.Store(true)
}

func (b *buffer) isShared() bool {
	return b.shared.Load()
}
