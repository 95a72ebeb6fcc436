package core

import (
	"github.com/batchatco/go-thrower"
)

// DataArrayView is a non-owning window onto a standalone DataArray or onto
// one item of a Dataset.  Visible coordinates, masks and attributes are
// re-derived from the slice-op list on every access, applying the
// visibility, shadowing and bin-edge rules.
type DataArrayView struct {
	da   *DataArray
	ds   *Dataset
	item string
	ops  []Slice
}

// Name returns the item name.
func (v DataArrayView) Name() string {
	if v.ds != nil {
		return v.item
	}
	return v.da.name
}

// SourceDataset returns the dataset the view's item belongs to, or nil
// for a standalone data array view.  Arithmetic uses this to detect
// self-overlapping in-place operations.
func (v DataArrayView) SourceDataset() *Dataset {
	return v.ds
}

func (v DataArrayView) dataVar() *Variable {
	if v.ds != nil {
		return &v.ds.items[v.item].data
	}
	return &v.da.data
}

func (v DataArrayView) sourceCoords() *Metadata {
	if v.ds != nil {
		return v.ds.coords
	}
	return v.da.coords
}

func (v DataArrayView) sourceMasks() *Metadata {
	if v.ds != nil {
		return v.ds.items[v.item].masks
	}
	return v.da.masks
}

func (v DataArrayView) sourceAttrs() *Metadata {
	if v.ds != nil {
		return v.ds.items[v.item].attrs
	}
	return v.da.attrs
}

// Slice appends further slice operations, validating them against the
// visible data extents.
func (v DataArrayView) Slice(ops ...Slice) (out DataArrayView, err error) {
	defer thrower.RecoverError(&err)
	w := v.window()
	for _, s := range ops {
		w = w.apply(s)
	}
	newOps := append(append([]Slice(nil), v.ops...), ops...)
	return DataArrayView{da: v.da, ds: v.ds, item: v.item, ops: newOps}, nil
}

func (v DataArrayView) window() window {
	return compose(v.dataVar().dims, v.ops)
}

// Dims returns the visible data dimensions.
func (v DataArrayView) Dims() Dimensions {
	return v.window().visible()
}

// Data returns a view of the item's data variable, sharing the slice-op
// list.  Writing through it mutates the underlying buffer.
func (v DataArrayView) Data() VariableView {
	return VariableView{base: v.dataVar(), ops: v.ops}
}

// coordVisible applies the visibility rule: on an item view a coordinate
// is visible only if all of its dimensions are dimensions of the item's
// data.  Bin-edge coordinates pass by dimension name.
func coordVisible(coord Variable, dataDims Dimensions) bool {
	d := coord.Dims()
	for i := 0; i < d.Len(); i++ {
		if !dataDims.ContainsDim(d.At(i).Name) {
			return false
		}
	}
	return true
}

// sliceMeta applies the composed data window to one metadata variable.
// Bin-edge coordinates get the edge-extended range; a single-index slice
// along the coordinate's own keyed dimension demotes it to the unaligned
// set ("slicing consumes the axis label").
func sliceMeta(name string, mv Variable, w window, baseDims Dimensions) (out Variable, demoted bool) {
	mw := newWindow(mv.dims)
	d := mv.dims
	for i := 0; i < d.Len(); i++ {
		dim := d.At(i).Name
		lo, hi, kept, has := w.bounds(dim)
		if !has {
			continue
		}
		edge := isEdge(mv, dim, baseDims)
		switch {
		case kept && edge:
			mw = mw.apply(Range(dim, lo, hi+1))
		case kept:
			mw = mw.apply(Range(dim, lo, hi))
		case edge:
			// Single index i keeps the half-open edge pair [i, i+1).
			mw = mw.apply(Range(dim, lo, lo+2))
			demoted = demoted || name == dim
		default:
			mw = mw.apply(At(dim, lo))
			demoted = demoted || name == dim
		}
	}
	return mv.gather(mw), demoted
}

// Coords returns the aligned coordinates visible on this view.  Dataset
// coordinates shadowed by an item-local attribute of the same name are
// hidden, not removed.
func (v DataArrayView) Coords() *Metadata {
	out := NewMetadata()
	w := v.window()
	dataDims := v.dataVar().dims
	src := v.sourceCoords()
	for _, k := range src.keys {
		if src.hidden[k] {
			continue
		}
		coord := src.values[k]
		if v.ds != nil && !coordVisible(coord, dataDims) {
			continue
		}
		sliced, demoted := sliceMeta(k, coord, w, dataDims)
		if demoted {
			continue
		}
		out.Set(k, sliced)
		if _, shadowed := v.sourceAttrs().Get(k); shadowed && v.ds != nil {
			// The unaligned item coordinate takes precedence.
			out.Hide(k)
		}
	}
	return out
}

// Masks returns the item's masks, sliced.
func (v DataArrayView) Masks() *Metadata {
	out := NewMetadata()
	w := v.window()
	dataDims := v.dataVar().dims
	src := v.sourceMasks()
	for _, k := range src.keys {
		if src.hidden[k] {
			continue
		}
		sliced, _ := sliceMeta(k, src.values[k], w, dataDims)
		out.Set(k, sliced)
	}
	return out
}

// Attrs returns the unaligned metadata: the item's own attributes plus
// any coordinate demoted by a single-index slice along its keyed
// dimension.
func (v DataArrayView) Attrs() *Metadata {
	out := NewMetadata()
	w := v.window()
	dataDims := v.dataVar().dims
	src := v.sourceAttrs()
	for _, k := range src.keys {
		if src.hidden[k] {
			continue
		}
		sliced, _ := sliceMeta(k, src.values[k], w, dataDims)
		out.Set(k, sliced)
	}
	coords := v.sourceCoords()
	for _, k := range coords.keys {
		if coords.hidden[k] {
			continue
		}
		coord := coords.values[k]
		if v.ds != nil && !coordVisible(coord, dataDims) {
			continue
		}
		sliced, demoted := sliceMeta(k, coord, w, dataDims)
		if demoted {
			if _, has := out.Get(k); !has {
				out.Set(k, sliced)
			}
		}
	}
	return out
}

// Meta returns the union of aligned and unaligned coordinates, with the
// unaligned ones taking precedence on name collisions.
func (v DataArrayView) Meta() *Metadata {
	out := NewMetadata()
	coords := v.Coords()
	for _, k := range coords.keys {
		out.Set(k, coords.values[k])
	}
	attrs := v.Attrs()
	for _, k := range attrs.keys {
		out.Set(k, attrs.values[k])
	}
	return out
}

// Materialize gathers the view into an independent data array.
func (v DataArrayView) Materialize() *DataArray {
	da := &DataArray{
		name:   v.Name(),
		data:   v.Data().Materialize(),
		coords: NewMetadata(),
		masks:  v.Masks(),
		attrs:  v.Attrs(),
	}
	coords := v.Coords()
	for _, k := range coords.Keys() {
		da.coords.Set(k, coords.values[k])
	}
	return da
}

// Equal compares the materialized contents of two views.
func (v DataArrayView) Equal(other DataArrayView) bool {
	return v.Materialize().Equal(other.Materialize())
}
