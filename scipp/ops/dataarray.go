package ops

import (
	"fmt"

	"github.com/batchatco/go-thrower"

	"github.com/scipp/scipp-go/scipp/core"
)

// checkCoords verifies that every coordinate present in both maps compares
// equal by value, not merely by shape.
func checkCoords(a, b *core.Metadata) {
	for _, k := range a.Keys() {
		va, _ := a.Get(k)
		if vb, has := b.Get(k); has {
			assert(va.Equal(vb),
				fmt.Sprintf("coordinate %q differs between operands", k),
				core.ErrCoordMismatch)
		}
	}
}

// orMasks combines two boolean masks with broadcasting.
func orMasks(a, b core.Variable) core.Variable {
	dims, err := core.Merge(a.Dims(), b.Dims())
	thrower.ThrowIfError(err)
	offsA := broadcastOffsets(dims, a.Dims())
	offsB := broadcastOffsets(dims, b.Dims())
	av, bv := a.Bools(), b.Bools()
	values := make([]bool, dims.Volume())
	for i := range values {
		values[i] = av[offsA[i]] || bv[offsB[i]]
	}
	out, err := core.NewBoolVariable(dims, values)
	thrower.ThrowIfError(err)
	return out
}

// ApplyDataArrays combines two data arrays element-wise.  Shared
// coordinates must compare equal; the result carries the union of the
// coordinates, masks present in both operands (OR-combined), and the
// attributes that compare equal on both sides.
func ApplyDataArrays(k *Kernel, a, b *core.DataArray) (out *core.DataArray, err error) {
	defer thrower.RecoverError(&err)
	checkCoords(a.Coords(), b.Coords())
	data, err := Apply(k, a.Data(), b.Data())
	thrower.ThrowIfError(err)

	name := a.Name()
	if name != b.Name() {
		name = ""
	}
	out, err = core.NewDataArray(name, data)
	thrower.ThrowIfError(err)
	for _, key := range a.Coords().Keys() {
		v, _ := a.Coords().Get(key)
		out.Coords().Set(key, v.Copy())
	}
	for _, key := range b.Coords().Keys() {
		if _, has := out.Coords().Get(key); !has {
			v, _ := b.Coords().Get(key)
			out.Coords().Set(key, v.Copy())
		}
	}
	// Masks present on one side only are not inherited.
	for _, key := range a.Masks().Keys() {
		ma, _ := a.Masks().Get(key)
		if mb, has := b.Masks().Get(key); has {
			out.Masks().Set(key, orMasks(ma, mb))
		}
	}
	// Attributes survive only where both operands agree.
	for _, key := range a.Attrs().Keys() {
		va, _ := a.Attrs().Get(key)
		if vb, has := b.Attrs().Get(key); has && va.Equal(vb) {
			out.Attrs().Set(key, va.Copy())
		}
	}
	return out, nil
}

// ApplyInPlaceDataArray combines b into a.  Masks become the union of both
// operands' masks, OR-combined where names collide.
func ApplyInPlaceDataArray(k *Kernel, a *core.DataArray, b *core.DataArray) (err error) {
	defer thrower.RecoverError(&err)
	checkCoords(a.Coords(), b.Coords())
	thrower.ThrowIfError(ApplyInPlace(k, a.MutableData(), b.Data()))
	mergeMasksInPlace(a.Masks(), b.Masks())
	return nil
}

func mergeMasksInPlace(dst, src *core.Metadata) {
	for _, key := range src.Keys() {
		mb, _ := src.Get(key)
		if ma, has := dst.Get(key); has {
			dst.Set(key, orMasks(ma, mb))
		} else {
			dst.Set(key, mb.Copy())
		}
	}
}
