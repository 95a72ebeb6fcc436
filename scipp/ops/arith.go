package ops

import (
	"fmt"

	"github.com/batchatco/go-thrower"

	"github.com/scipp/scipp-go/scipp/core"
)

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

// broadcastOffsets maps every flat index of the output shape to the flat
// index in the operand.  Dimensions the operand lacks get stride zero, so
// the operand is logically repeated along them.
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

// correlated reports whether two operands are the same physical value, so
// that variance must propagate with full correlation.  A copy-on-write
// copy shares storage but is logically independent; Identical tells the
// two apart by lineage.
func correlated(a, b core.Variable) bool {
	return a.Identical(b) && a.Dims().Equal(b.Dims())
}

// Apply combines two variables element-wise with broadcasting, producing a
// new variable.  Dense float64 and binned operands are supported.
func Apply(k *Kernel, a, b core.Variable) (out core.Variable, err error) {
	defer thrower.RecoverError(&err)
	if a.IsBinned() || b.IsBinned() {
		return applyBinned(k, a, b)
	}
	checkDense(a)
	checkDense(b)
	unit, uerr := k.unit(a.Unit(), b.Unit())
	thrower.ThrowIfError(uerr)
	dims, merr := core.Merge(a.Dims(), b.Dims())
	thrower.ThrowIfError(merr)

	offsA := broadcastOffsets(dims, a.Dims())
	offsB := broadcastOffsets(dims, b.Dims())
	av, bv := a.Values(), b.Values()
	values := make([]float64, dims.Volume())
	for i := range values {
		values[i] = k.value(av[offsA[i]], bv[offsB[i]])
	}

	if !a.HasVariances() && !b.HasVariances() {
		out, err = core.NewVariable(dims, unit, values)
		thrower.ThrowIfError(err)
		return out, nil
	}
	variances := make([]float64, len(values))
	same := correlated(a, b)
	for i := range variances {
		x, vx := av[offsA[i]], varianceAt(a, offsA[i])
		y, vy := bv[offsB[i]], varianceAt(b, offsB[i])
		if same {
			variances[i] = k.varianceSame(x, vx)
		} else {
			variances[i] = k.variance(x, vx, y, vy)
		}
	}
	out, err = core.NewVariableWithVariances(dims, unit, values, variances)
	thrower.ThrowIfError(err)
	return out, nil
}

func checkDense(v core.Variable) {
	assert(v.DType() == core.DTypeFloat64,
		fmt.Sprintf("dtype %v unsupported for arithmetic", v.DType()),
		core.ErrDType)
}

func varianceAt(v core.Variable, i int) float64 {
	if !v.HasVariances() {
		return 0
	}
	return v.Variances()[i]
}

// ApplyInPlace combines b into a element-wise.  b may be broadcast but a's
// shape never grows; b carrying variances requires a to carry them too.
func ApplyInPlace(k *Kernel, a *core.Variable, b core.Variable) (err error) {
	defer thrower.RecoverError(&err)
	return ApplyInPlaceView(k, a, b.View())
}

// ApplyInPlaceView is ApplyInPlace with a view as the right-hand operand.
// The view is read through on every element, so an operand aliasing data
// inside the destination observes the destination as it was at that
// element, with output positions visited in increasing index order.
func ApplyInPlaceView(k *Kernel, a *core.Variable, b core.VariableView) (err error) {
	defer thrower.RecoverError(&err)
	checkDense(*a)
	assert(b.DType() == core.DTypeFloat64,
		fmt.Sprintf("dtype %v unsupported", b.DType()), core.ErrDType)
	throwIfInPlaceInvalid(k, *a, b.Dims(), b)

	unit, uerr := k.unit(a.Unit(), b.Unit())
	thrower.ThrowIfError(uerr)

	dims := a.Dims()
	offsB := broadcastOffsets(dims, b.Dims())
	viewIdx := b.Indices()
	base := b.Base()
	bv := base.Values()
	same := correlated(*a, *base)

	var variances []float64
	if a.HasVariances() {
		variances = a.MutableVariances()
	}
	values := a.MutableValues()
	for i := range values {
		o := viewIdx[offsB[i]]
		x, y := values[i], bv[o]
		if variances != nil {
			vx := variances[i]
			vy := varianceAt(*base, o)
			if same {
				variances[i] = k.varianceSame(x, vx)
			} else {
				variances[i] = k.variance(x, vx, y, vy)
			}
		}
		values[i] = k.value(x, y)
	}
	a.SetUnit(unit)
	return nil
}

// throwIfInPlaceInvalid is the side-effect-free compatibility check used
// by the dry-run pass: shape, unit and variance validation without any
// mutation.
func throwIfInPlaceInvalid(k *Kernel, a core.Variable, bDims core.Dimensions, b core.VariableView) {
	assert(a.Dims().Contains(bDims),
		fmt.Sprintf("operand dimensions %v not contained in %v", bDims, a.Dims()),
		core.ErrDimensionMismatch)
	_, uerr := k.unit(a.Unit(), b.Unit())
	thrower.ThrowIfError(uerr)
	assert(!b.HasVariances() || a.HasVariances(),
		"operand has variances but destination does not", core.ErrVariance)
}
