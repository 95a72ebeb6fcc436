// Package core implements the labeled multi-dimensional array model:
// dimensions, variables with units and optional variances, coordinate and
// mask metadata, data arrays and datasets, and the non-owning view layer
// that slices them without copying.
package core

import (
	"fmt"
	"strings"

	"github.com/batchatco/go-thrower"

	"github.com/scipp/scipp-go/internal"
)

var (
	logger = internal.NewLogger("core")
)

// SetLogLevel sets the logging level to the given level, and returns the
// old level. The log messages are for developers; level 0 disables all but
// fatal messages, level 3 enables everything.
func SetLogLevel(level int) int {
	old := logger.LogLevel()
	switch level {
	case 0:
		logger.SetLogLevel(internal.LevelFatal)
	case 1:
		logger.SetLogLevel(internal.LevelError)
	case 2:
		logger.SetLogLevel(internal.LevelWarn)
	default:
		logger.SetLogLevel(internal.LevelInfo)
	}
	return int(old)
}

func fail(message string, err error) {
	logger.Error(message)
	thrower.Throw(err)
}

func assert(condition bool, message string, err error) {
	if condition {
		return
	}
	fail(message, err)
}

// Dim is one (name, extent) pair of a Dimensions value.
type Dim struct {
	Name   string
	Extent int
}

// Dimensions is an ordered mapping from dimension name to extent.  Order
// determines memory layout (innermost last) but not the outcome of
// containment queries.  The zero value describes a scalar.
type Dimensions struct {
	dims []Dim
}

// NewDimensions builds a Dimensions from (name, extent) pairs.  Names must
// be unique and valid, extents non-negative.
func NewDimensions(pairs ...Dim) (d Dimensions, err error) {
	defer thrower.RecoverError(&err)
	for i, p := range pairs {
		assert(internal.IsValidName(p.Name),
			fmt.Sprintf("invalid dimension name %q", p.Name), ErrInvalidName)
		assert(p.Extent >= 0,
			fmt.Sprintf("negative extent for dimension %q", p.Name),
			ErrDimensionMismatch)
		for _, q := range pairs[:i] {
			assert(q.Name != p.Name,
				fmt.Sprintf("dimension %q occurs twice", p.Name),
				ErrDuplicateDimension)
		}
	}
	d.dims = append(d.dims, pairs...)
	return d, nil
}

func mustDimensions(pairs ...Dim) Dimensions {
	d, err := NewDimensions(pairs...)
	thrower.ThrowIfError(err)
	return d
}

// Len returns the number of dimensions.
func (d Dimensions) Len() int {
	return len(d.dims)
}

// Names returns the dimension names in order.
func (d Dimensions) Names() []string {
	names := make([]string, len(d.dims))
	for i, p := range d.dims {
		names[i] = p.Name
	}
	return names
}

// Index returns the position of the named dimension, or -1.
func (d Dimensions) Index(name string) int {
	for i, p := range d.dims {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// ContainsDim reports whether the named dimension is present.
func (d Dimensions) ContainsDim(name string) bool {
	return d.Index(name) >= 0
}

// Extent returns the extent of the named dimension.
func (d Dimensions) Extent(name string) (int, bool) {
	i := d.Index(name)
	if i < 0 {
		return 0, false
	}
	return d.dims[i].Extent, true
}

func (d Dimensions) extentOf(name string) int {
	e, has := d.Extent(name)
	assert(has, fmt.Sprintf("no dimension %q", name), ErrNotFound)
	return e
}

// At returns the i-th (name, extent) pair.
func (d Dimensions) At(i int) Dim {
	return d.dims[i]
}

// Contains reports whether every dimension of other is present here with
// the same extent.
func (d Dimensions) Contains(other Dimensions) bool {
	for _, p := range other.dims {
		e, has := d.Extent(p.Name)
		if !has || e != p.Extent {
			return false
		}
	}
	return true
}

// Equal reports whether two Dimensions have the same names and extents in
// the same order.
func (d Dimensions) Equal(other Dimensions) bool {
	if len(d.dims) != len(other.dims) {
		return false
	}
	for i, p := range d.dims {
		if other.dims[i] != p {
			return false
		}
	}
	return true
}

// Volume returns the product of all extents.  A scalar has volume 1.
func (d Dimensions) Volume() int {
	v := 1
	for _, p := range d.dims {
		v *= p.Extent
	}
	return v
}

// Merge unifies two Dimensions.  Dimensions of a keep their order, followed
// by dimensions only in b.  A dimension present in both with different
// extents is a conflict.
func Merge(a, b Dimensions) (d Dimensions, err error) {
	defer thrower.RecoverError(&err)
	d.dims = append(d.dims, a.dims...)
	for _, p := range b.dims {
		e, has := a.Extent(p.Name)
		if !has {
			d.dims = append(d.dims, p)
			continue
		}
		assert(e == p.Extent,
			fmt.Sprintf("dimension %q has extents %d and %d", p.Name, e, p.Extent),
			ErrDimensionMismatch)
	}
	return d, nil
}

// Erase returns a Dimensions without the named dimension.
func (d Dimensions) Erase(name string) Dimensions {
	var out Dimensions
	for _, p := range d.dims {
		if p.Name != name {
			out.dims = append(out.dims, p)
		}
	}
	return out
}

// Resize returns a Dimensions with the named dimension set to extent,
// appending it if absent.
func (d Dimensions) Resize(name string, extent int) Dimensions {
	var out Dimensions
	found := false
	for _, p := range d.dims {
		if p.Name == name {
			p.Extent = extent
			found = true
		}
		out.dims = append(out.dims, p)
	}
	if !found {
		out.dims = append(out.dims, Dim{name, extent})
	}
	return out
}

// Rename returns a Dimensions with dimension from renamed to to.  The
// target name must not already be in use.
func (d Dimensions) Rename(from, to string) (out Dimensions, err error) {
	defer thrower.RecoverError(&err)
	assert(d.ContainsDim(from), fmt.Sprintf("no dimension %q", from), ErrNotFound)
	assert(from == to || !d.ContainsDim(to),
		fmt.Sprintf("dimension %q already exists", to), ErrDuplicateDimension)
	assert(internal.IsValidName(to),
		fmt.Sprintf("invalid dimension name %q", to), ErrInvalidName)
	for _, p := range d.dims {
		if p.Name == from {
			p.Name = to
		}
		out.dims = append(out.dims, p)
	}
	return out, nil
}

// strides returns the row-major stride of each dimension.
func (d Dimensions) strides() []int {
	strides := make([]int, len(d.dims))
	stride := 1
	for i := len(d.dims) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= d.dims[i].Extent
	}
	return strides
}

func (d Dimensions) String() string {
	parts := make([]string, len(d.dims))
	for i, p := range d.dims {
		parts[i] = fmt.Sprintf("%s:%d", p.Name, p.Extent)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
