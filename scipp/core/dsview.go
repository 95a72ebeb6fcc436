package core

import (
	"fmt"

	"github.com/batchatco/go-thrower"
)

// DatasetView is a non-owning window onto a Dataset: the dataset plus an
// immutable slice-op list.  Items that lack a sliced dimension pass
// through unchanged.
type DatasetView struct {
	ds  *Dataset
	ops []Slice
}

// Slice appends further slice operations, validating them against the
// dataset's ledger extents.
func (v DatasetView) Slice(ops ...Slice) (out DatasetView, err error) {
	defer thrower.RecoverError(&err)
	w := v.window()
	for _, s := range ops {
		w = w.apply(s)
	}
	newOps := append(append([]Slice(nil), v.ops...), ops...)
	return DatasetView{ds: v.ds, ops: newOps}, nil
}

func (v DatasetView) window() window {
	return compose(v.ds.Dims(), v.ops)
}

// Dims returns the visible dataset dimensions.
func (v DatasetView) Dims() Dimensions {
	return v.window().visible()
}

// Names returns the item names.
func (v DatasetView) Names() []string {
	return v.ds.Names()
}

// Item returns a view of one item with the applicable slice operations.
// Operations on dimensions the item does not have are skipped.
func (v DatasetView) Item(name string) (view DataArrayView, err error) {
	defer thrower.RecoverError(&err)
	it, has := v.ds.items[name]
	assert(has, fmt.Sprintf("no item %q", name), ErrNotFound)
	var ops []Slice
	for _, s := range v.ops {
		if it.data.dims.ContainsDim(s.Dim) {
			ops = append(ops, s)
		}
	}
	return DataArrayView{ds: v.ds, item: name, ops: ops}, nil
}

// Coords returns the dataset coordinates, sliced; coordinates demoted by
// a single-index slice along their keyed dimension are omitted here and
// reappear in the items' unaligned sets.
func (v DatasetView) Coords() *Metadata {
	out := NewMetadata()
	w := v.window()
	baseDims := v.ds.Dims()
	src := v.ds.coords
	for _, k := range src.keys {
		if src.hidden[k] {
			continue
		}
		sliced, demoted := sliceMeta(k, src.values[k], w, baseDims)
		if demoted {
			continue
		}
		out.Set(k, sliced)
	}
	return out
}

// Materialize gathers the view into an independent dataset.
func (v DatasetView) Materialize() *Dataset {
	out := NewDataset()
	coords := v.Coords()
	for _, k := range coords.Keys() {
		thrower.ThrowIfError(out.SetCoord(k, coords.values[k]))
	}
	for _, name := range v.ds.order {
		item, err := v.Item(name)
		thrower.ThrowIfError(err)
		da := item.Materialize()
		trial := out.sizes.copy()
		trial.register(name, da.data, false)
		for _, k := range da.masks.keys {
			trial.register(k, da.masks.values[k], false)
		}
		out.sizes = trial
		out.insert(name, &datasetItem{
			data:  da.data,
			masks: da.masks,
			attrs: da.attrs,
		})
	}
	return out
}

// Equal compares the materialized contents of two views.
func (v DatasetView) Equal(other DatasetView) bool {
	return v.Materialize().Equal(other.Materialize())
}
