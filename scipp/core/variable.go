package core

import (
	"fmt"

	"github.com/batchatco/go-thrower"

	"github.com/scipp/scipp-go/scipp/units"
)

// Variable owns (or shares) a typed element buffer plus its Dimensions, a
// unit and an optional per-element variance buffer.  Copying is O(1): the
// buffer is aliased until a mutation on a shared buffer triggers a deep
// copy of exactly the mutated variable.
//
// The lineage token tracks value identity independently of storage: plain
// struct reuse preserves it, Copy replaces it.  Two variables are the same
// value only when both the buffer and the token agree.
type Variable struct {
	dims    Dimensions
	unit    units.Unit
	dtype   DType
	buf     *buffer
	lineage *int
}

// NewVariable builds a dense float64 variable.
func NewVariable(dims Dimensions, unit units.Unit, values []float64) (v Variable, err error) {
	defer thrower.RecoverError(&err)
	checkLength(len(values), dims)
	return Variable{
		dims:  dims,
		unit:  unit,
		dtype: DTypeFloat64,
		buf:   &buffer{floats: append([]float64(nil), values...)},
	}, nil
}

// NewVariableWithVariances builds a dense float64 variable with a parallel
// variance buffer of identical shape.
func NewVariableWithVariances(dims Dimensions, unit units.Unit, values, variances []float64) (v Variable, err error) {
	defer thrower.RecoverError(&err)
	checkLength(len(values), dims)
	assert(len(variances) == len(values),
		fmt.Sprintf("%d variances for %d values", len(variances), len(values)),
		ErrVariance)
	return Variable{
		dims:  dims,
		unit:  unit,
		dtype: DTypeFloat64,
		buf: &buffer{
			floats:    append([]float64(nil), values...),
			variances: append([]float64(nil), variances...),
		},
	}, nil
}

// NewIntVariable builds a dense int64 variable.
func NewIntVariable(dims Dimensions, unit units.Unit, values []int64) (v Variable, err error) {
	defer thrower.RecoverError(&err)
	checkLength(len(values), dims)
	return Variable{
		dims:  dims,
		unit:  unit,
		dtype: DTypeInt64,
		buf:   &buffer{ints: append([]int64(nil), values...)},
	}, nil
}

// NewBoolVariable builds a dense boolean variable, typically a mask.
func NewBoolVariable(dims Dimensions, values []bool) (v Variable, err error) {
	defer thrower.RecoverError(&err)
	checkLength(len(values), dims)
	return Variable{
		dims:  dims,
		dtype: DTypeBool,
		buf:   &buffer{bools: append([]bool(nil), values...)},
	}, nil
}

// NewStringVariable builds a dense string variable.
func NewStringVariable(dims Dimensions, values []string) (v Variable, err error) {
	defer thrower.RecoverError(&err)
	checkLength(len(values), dims)
	return Variable{
		dims:  dims,
		dtype: DTypeString,
		buf:   &buffer{strs: append([]string(nil), values...)},
	}, nil
}

// NewScalar builds a 0-dimensional float64 variable.
func NewScalar(unit units.Unit, value float64) Variable {
	return Variable{
		unit:  unit,
		dtype: DTypeFloat64,
		buf:   &buffer{floats: []float64{value}},
	}
}

func checkLength(n int, dims Dimensions) {
	assert(n == dims.Volume(),
		fmt.Sprintf("%d values for dimensions %v", n, dims), ErrLength)
}

// Dims returns the variable's dimensions.
func (v Variable) Dims() Dimensions {
	return v.dims
}

// Unit returns the variable's unit.
func (v Variable) Unit() units.Unit {
	return v.unit
}

// SetUnit replaces the variable's unit.
func (v *Variable) SetUnit(u units.Unit) {
	v.unit = u
}

// DType returns the element kind tag.
func (v Variable) DType() DType {
	return v.dtype
}

// HasVariances reports whether a parallel variance buffer is present.
func (v Variable) HasVariances() bool {
	return v.buf != nil && v.buf.variances != nil
}

// Values returns the float64 element buffer for reading.  Callers must not
// mutate it; use MutableValues for writes.
func (v Variable) Values() []float64 {
	v.checkDType(DTypeFloat64)
	return v.buf.floats
}

// Variances returns the variance buffer for reading, or nil.
func (v Variable) Variances() []float64 {
	v.checkDType(DTypeFloat64)
	return v.buf.variances
}

// Ints returns the int64 element buffer for reading.
func (v Variable) Ints() []int64 {
	v.checkDType(DTypeInt64)
	return v.buf.ints
}

// Bools returns the boolean element buffer for reading.
func (v Variable) Bools() []bool {
	v.checkDType(DTypeBool)
	return v.buf.bools
}

// Strings returns the string element buffer for reading.
func (v Variable) Strings() []string {
	v.checkDType(DTypeString)
	return v.buf.strs
}

// MutableValues ensures unique ownership of the buffer, deep-copying if it
// is shared, then returns the float64 elements for writing.
func (v *Variable) MutableValues() []float64 {
	v.checkDType(DTypeFloat64)
	v.ensureUnique()
	return v.buf.floats
}

// MutableVariances is the writable counterpart of Variances.
func (v *Variable) MutableVariances() []float64 {
	v.checkDType(DTypeFloat64)
	v.ensureUnique()
	return v.buf.variances
}

// MutableInts is the writable counterpart of Ints.
func (v *Variable) MutableInts() []int64 {
	v.checkDType(DTypeInt64)
	v.ensureUnique()
	return v.buf.ints
}

// MutableBools is the writable counterpart of Bools.
func (v *Variable) MutableBools() []bool {
	v.checkDType(DTypeBool)
	v.ensureUnique()
	return v.buf.bools
}

// MutableStrings is the writable counterpart of Strings.
func (v *Variable) MutableStrings() []string {
	v.checkDType(DTypeString)
	v.ensureUnique()
	return v.buf.strs
}

func (v Variable) checkDType(want DType) {
	assert(v.dtype == want,
		fmt.Sprintf("dtype is %v, want %v", v.dtype, want), ErrDType)
}

// ensureUnique makes the variable the sole owner of its buffer.
func (v *Variable) ensureUnique() {
	if v.buf.isShared() {
		logger.Info("copy-on-write: detaching shared buffer")
		v.buf = v.buf.clone()
	}
}

// Copy returns a logical copy sharing the element buffer.  The first
// mutation of either copy materializes an independent buffer.  The copy
// gets a fresh lineage token: it is a new value, even while it still
// shares storage with the original.
func (v Variable) Copy() Variable {
	if v.buf != nil {
		v.buf.markShared()
	}
	v.lineage = new(int)
	return v
}

// DeepCopy returns an independent copy immediately.
func (v Variable) DeepCopy() Variable {
	out := v
	if v.buf != nil {
		out.buf = v.buf.clone()
	}
	return out
}

// Equal compares dimensions, unit, dtype, values and variances.  Binned
// variables compare cell by cell.  Item names are not part of a variable.
func (v Variable) Equal(other Variable) bool {
	if !v.dims.Equal(other.dims) || !v.unit.Equal(other.unit) || v.dtype != other.dtype {
		return false
	}
	switch v.dtype {
	case DTypeFloat64:
		if v.HasVariances() != other.HasVariances() {
			return false
		}
		if !float64sEqual(v.buf.floats, other.buf.floats) {
			return false
		}
		if v.HasVariances() && !float64sEqual(v.buf.variances, other.buf.variances) {
			return false
		}
	case DTypeInt64:
		if len(v.buf.ints) != len(other.buf.ints) {
			return false
		}
		for i, x := range v.buf.ints {
			if other.buf.ints[i] != x {
				return false
			}
		}
	case DTypeBool:
		if len(v.buf.bools) != len(other.buf.bools) {
			return false
		}
		for i, x := range v.buf.bools {
			if other.buf.bools[i] != x {
				return false
			}
		}
	case DTypeString:
		if len(v.buf.strs) != len(other.buf.strs) {
			return false
		}
		for i, x := range v.buf.strs {
			if other.buf.strs[i] != x {
				return false
			}
		}
	case DTypeBucket:
		return bucketsEqual(v.buf.bucket, other.buf.bucket, v.dims, other.dims)
	}
	return true
}

func float64sEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i, x := range a {
		if b[i] != x {
			return false
		}
	}
	return true
}

// Rename returns a variable with one dimension renamed.
func (v Variable) Rename(from, to string) (out Variable, err error) {
	defer thrower.RecoverError(&err)
	dims, err := v.dims.Rename(from, to)
	thrower.ThrowIfError(err)
	out = v.Copy()
	out.dims = dims
	return out, nil
}

// SameBuffer reports whether two variables alias the same element buffer.
func (v Variable) SameBuffer(other Variable) bool {
	return v.buf != nil && v.buf == other.buf
}

// SharedBuffer reports whether the buffer has been aliased by a logical
// copy.
func (v Variable) SharedBuffer() bool {
	return v.buf != nil && v.buf.isShared()
}

// Identical reports whether two variables are the same value, not merely
// equal: same buffer and same lineage.  A copy-on-write copy shares the
// buffer but carries its own lineage token, so it is not identical to its
// original.  Arithmetic uses this to detect fully-correlated operands.
func (v Variable) Identical(other Variable) bool {
	return v.buf != nil && v.buf == other.buf && v.lineage == other.lineage
}

// gather materializes the elements selected by a window into a fresh
// variable owning its buffer.
func (v Variable) gather(w window) Variable {
	out := Variable{dims: w.visible(), unit: v.unit, dtype: v.dtype}
	offs := w.flatOffsets()
	switch v.dtype {
	case DTypeFloat64:
		buf := &buffer{floats: make([]float64, len(offs))}
		for i, o := range offs {
			buf.floats[i] = v.buf.floats[o]
		}
		if v.HasVariances() {
			buf.variances = make([]float64, len(offs))
			for i, o := range offs {
				buf.variances[i] = v.buf.variances[o]
			}
		}
		out.buf = buf
	case DTypeInt64:
		buf := &buffer{ints: make([]int64, len(offs))}
		for i, o := range offs {
			buf.ints[i] = v.buf.ints[o]
		}
		out.buf = buf
	case DTypeBool:
		buf := &buffer{bools: make([]bool, len(offs))}
		for i, o := range offs {
			buf.bools[i] = v.buf.bools[o]
		}
		out.buf = buf
	case DTypeString:
		buf := &buffer{strs: make([]string, len(offs))}
		for i, o := range offs {
			buf.strs[i] = v.buf.strs[o]
		}
		out.buf = buf
	case DTypeBucket:
		bd := v.buf.bucket
		ranges := make([]IndexRange, len(offs))
		for i, o := range offs {
			ranges[i] = bd.ranges[o]
		}
		// The result references the original buffer without owning it.
		out.buf = &buffer{bucket: &bucketData{
			ranges: ranges,
			dim:    bd.dim,
			buffer: bd.buffer,
			owned:  false,
		}}
	}
	return out
}

// Buffer interface: a Variable can serve as the shared buffer of a bucket
// variable.

func (v Variable) bufferExtent(dim string) (int, bool) {
	return v.dims.Extent(dim)
}

func (v Variable) bufferSlice(dim string, r IndexRange) Buffer {
	w := newWindow(v.dims)
	w = w.apply(Range(dim, r.Begin, r.End))
	return v.gather(w)
}

func (v Variable) bufferEqual(other Buffer) bool {
	ov, ok := other.(Variable)
	return ok && v.Equal(ov)
}

func (v Variable) bufferCopy() Buffer {
	return v.DeepCopy()
}
