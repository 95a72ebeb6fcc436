package ops

import (
	"fmt"

	"github.com/batchatco/go-thrower"

	"github.com/scipp/scipp-go/scipp/core"
)

// ApplyDatasets combines two datasets element-wise.  The result holds the
// items present in both operands; shared coordinates must compare equal.
func ApplyDatasets(k *Kernel, a, b *core.Dataset) (out *core.Dataset, err error) {
	defer thrower.RecoverError(&err)
	checkCoords(a.Coords(), b.Coords())

	// Dry run: validate every pair before building anything, so a failure
	// on a late item leaves no partial result behind.
	var names []string
	for _, name := range a.Names() {
		ia, ierr := a.Item(name)
		thrower.ThrowIfError(ierr)
		ib, ierr := b.Item(name)
		if ierr != nil {
			continue // item missing on one side is dropped, not an error
		}
		_, merr := core.Merge(ia.Dims(), ib.Dims())
		thrower.ThrowIfError(merr)
		_, uerr := k.unit(ia.Data().Unit(), ib.Data().Unit())
		thrower.ThrowIfError(uerr)
		names = append(names, name)
	}

	out = core.NewDataset()
	for _, key := range a.Coords().Keys() {
		v, _ := a.Coords().Get(key)
		thrower.ThrowIfError(out.SetCoord(key, v.Copy()))
	}
	for _, name := range names {
		ia, _ := a.Item(name)
		ib, _ := b.Item(name)
		da, derr := ApplyDataArrays(k, ia.Materialize(), ib.Materialize())
		thrower.ThrowIfError(derr)
		da.SetName(name)
		thrower.ThrowIfError(out.SetDataArray(name, da))
	}
	return out, nil
}

// ApplyInPlaceDatasets combines b into a item by item.  Every item of a
// must have a counterpart in b.  A dry-run pass validates the whole
// operation first, so a failure deep in the item list leaves a unchanged.
func ApplyInPlaceDatasets(k *Kernel, a, b *core.Dataset) (err error) {
	defer thrower.RecoverError(&err)
	checkCoords(a.Coords(), b.Coords())
	for _, name := range a.Names() {
		ia, ierr := a.Item(name)
		thrower.ThrowIfError(ierr)
		ib, ierr := b.Item(name)
		if ierr != nil {
			thrower.Throw(fmt.Errorf("item %q: %w", name, ErrOperandMissing))
		}
		throwIfInPlaceInvalid(k, ia.Data().Materialize(), ib.Dims(), ib.Data())
	}
	for _, name := range a.Names() {
		ia, _ := a.Item(name)
		ib, _ := b.Item(name)
		thrower.ThrowIfError(ApplyInPlaceView(k, ia.Data().Base(), ib.Data()))
		mergeItemMasks(a, name, ib.Masks())
	}
	return nil
}

// mergeItemMasks unions src masks into one dataset item's masks.
func mergeItemMasks(ds *core.Dataset, name string, src *core.Metadata) {
	item, err := ds.Item(name)
	thrower.ThrowIfError(err)
	existing := item.Masks()
	for _, key := range src.Keys() {
		mb, _ := src.Get(key)
		merged := mb.Copy()
		if ma, has := existing.Get(key); has {
			merged = orMasks(ma, mb)
		}
		thrower.ThrowIfError(ds.SetItemMask(name, key, merged))
	}
}

// ApplyInPlaceDatasetItem combines one data-array view into every item of
// dst.  When the view aliases an item of dst itself, that item is
// deferred until all other items are updated, so no item observes a
// partially-updated operand.
func ApplyInPlaceDatasetItem(k *Kernel, dst *core.Dataset, src core.DataArrayView) (err error) {
	defer thrower.RecoverError(&err)
	checkCoords(dst.Coords(), src.Coords())
	for _, name := range dst.Names() {
		item, ierr := dst.Item(name)
		thrower.ThrowIfError(ierr)
		throwIfInPlaceInvalid(k, item.Data().Materialize(), src.Dims(), src.Data())
	}
	aliased := ""
	if src.SourceDataset() == dst {
		aliased = src.Name()
	}
	for _, name := range dst.Names() {
		if name == aliased {
			continue
		}
		applyItem(k, dst, name, src)
	}
	if aliased != "" {
		applyItem(k, dst, aliased, src)
	}
	return nil
}

func applyItem(k *Kernel, dst *core.Dataset, name string, src core.DataArrayView) {
	item, err := dst.Item(name)
	thrower.ThrowIfError(err)
	thrower.ThrowIfError(ApplyInPlaceView(k, item.Data().Base(), src.Data()))
	mergeItemMasks(dst, name, src.Masks())
}
