package core

import (
	"github.com/batchatco/go-thrower"

	"github.com/scipp/scipp-go/scipp/units"
)

// VariableView is a non-owning window onto a Variable: the base variable
// plus an immutable list of slice operations.  Visible state is re-derived
// from the list on every access.  A view must not outlive its base.
type VariableView struct {
	base *Variable
	ops  []Slice
}

// View returns a view of the whole variable.
func (v *Variable) View() VariableView {
	return VariableView{base: v}
}

// Slice returns a view of the variable with the given operations applied.
func (v *Variable) Slice(ops ...Slice) (VariableView, error) {
	return v.View().Slice(ops...)
}

// Slice appends further slice operations, validating each against the
// currently visible extents.
func (vv VariableView) Slice(ops ...Slice) (out VariableView, err error) {
	defer thrower.RecoverError(&err)
	w := vv.window()
	for _, s := range ops {
		w = w.apply(s)
	}
	newOps := append(append([]Slice(nil), vv.ops...), ops...)
	return VariableView{base: vv.base, ops: newOps}, nil
}

// window composes the op list; ops were validated when appended.
func (vv VariableView) window() window {
	return compose(vv.base.dims, vv.ops)
}

// Base returns the variable the view windows onto.
func (vv VariableView) Base() *Variable {
	return vv.base
}

// Dims returns the visible dimensions.
func (vv VariableView) Dims() Dimensions {
	return vv.window().visible()
}

// Unit returns the base variable's unit.
func (vv VariableView) Unit() units.Unit {
	return vv.base.unit
}

// DType returns the base variable's element kind.
func (vv VariableView) DType() DType {
	return vv.base.dtype
}

// HasVariances reports whether the base carries variances.
func (vv VariableView) HasVariances() bool {
	return vv.base.HasVariances()
}

// Indices returns the flat offsets of the view's elements in the base
// buffer, in row-major order of the visible dimensions.  The arithmetic
// layer uses this to route spans to kernels.
func (vv VariableView) Indices() []int {
	return vv.window().flatOffsets()
}

// Materialize gathers the visible elements into an independent variable.
func (vv VariableView) Materialize() Variable {
	return vv.base.gather(vv.window())
}

// Values returns a gathered copy of the visible float64 elements.
func (vv VariableView) Values() []float64 {
	return vv.Materialize().Values()
}

// Variances returns a gathered copy of the visible variances, or nil.
func (vv VariableView) Variances() []float64 {
	return vv.Materialize().Variances()
}

// SetValues writes through the view into the base variable's buffer.  If
// the buffer is shared with another live copy, a deep copy is triggered
// first so the other copy is unaffected.
func (vv VariableView) SetValues(values []float64) (err error) {
	defer thrower.RecoverError(&err)
	vv.base.checkDType(DTypeFloat64)
	offs := vv.Indices()
	assert(len(values) == len(offs), "wrong number of values", ErrLength)
	dst := vv.base.MutableValues()
	for i, o := range offs {
		dst[o] = values[i]
	}
	return nil
}

// SetVariances writes variances through the view.
func (vv VariableView) SetVariances(variances []float64) (err error) {
	defer thrower.RecoverError(&err)
	vv.base.checkDType(DTypeFloat64)
	assert(vv.base.HasVariances(), "variable has no variances", ErrVariance)
	offs := vv.Indices()
	assert(len(variances) == len(offs), "wrong number of variances", ErrLength)
	dst := vv.base.MutableVariances()
	for i, o := range offs {
		dst[o] = variances[i]
	}
	return nil
}

// Equal compares the materialized contents of two views.
func (vv VariableView) Equal(other VariableView) bool {
	return vv.Materialize().Equal(other.Materialize())
}

// EqualVariable compares the view's contents with a variable.
func (vv VariableView) EqualVariable(other Variable) bool {
	return vv.Materialize().Equal(other)
}
