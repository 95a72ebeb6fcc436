package core

import (
	"fmt"

	"github.com/batchatco/go-thrower"

	"github.com/scipp/scipp-go/internal"
)

// Dataset is a named collection of data items sharing one coordinate map.
// A dimension ledger keeps all item and coordinate extents globally
// consistent, with the bin-edge plus-one exception.
type Dataset struct {
	coords *Metadata
	order  []string
	items  map[string]*datasetItem
	sizes  *Sizes
}

// datasetItem is the per-item content: the data variable plus item-local
// masks and attributes (unaligned coordinates).
type datasetItem struct {
	data  Variable
	masks *Metadata
	attrs *Metadata
}

func (it *datasetItem) copy() *datasetItem {
	return &datasetItem{
		data:  it.data.Copy(),
		masks: it.masks.Copy(),
		attrs: it.attrs.Copy(),
	}
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		coords: NewMetadata(),
		items:  map[string]*datasetItem{},
		sizes:  newSizes(),
	}
}

// Names returns the item names in insertion order.
func (ds *Dataset) Names() []string {
	return append([]string(nil), ds.order...)
}

// Coords returns the shared coordinate map.
func (ds *Dataset) Coords() *Metadata {
	return ds.coords
}

// Dims returns the agreed dimensions of the dataset, in the order the
// ledger first saw them, at their data (non-edge) extents.
func (ds *Dataset) Dims() Dimensions {
	var out Dimensions
	for _, name := range ds.sizes.order {
		out.dims = append(out.dims, Dim{name, ds.sizes.extents[name]})
	}
	return out
}

// SetCoord inserts a shared coordinate, validating its extents against the
// ledger.  Along its keyed dimension a coordinate may be one longer than
// the data (bin edges).
func (ds *Dataset) SetCoord(name string, v Variable) (err error) {
	defer thrower.RecoverError(&err)
	assert(internal.IsValidName(name),
		fmt.Sprintf("invalid coordinate name %q", name), ErrInvalidName)
	trial := ds.sizes.copy()
	trial.register(name, v, true)
	ds.sizes = trial
	ds.coords.Set(name, v)
	return nil
}

// SetData inserts a plain data variable as an item.
func (ds *Dataset) SetData(name string, v Variable) (err error) {
	defer thrower.RecoverError(&err)
	assert(internal.IsValidName(name),
		fmt.Sprintf("invalid item name %q", name), ErrInvalidName)
	trial := ds.sizes.copy()
	trial.register(name, v, false)
	ds.sizes = trial
	ds.insert(name, &datasetItem{
		data:  v,
		masks: NewMetadata(),
		attrs: NewMetadata(),
	})
	return nil
}

// SetDataArray inserts a data array as an item.  Its coordinates are
// merged into the dataset's shared coordinates; a coordinate already
// present must compare equal.  Masks and attributes stay item-local.
func (ds *Dataset) SetDataArray(name string, da *DataArray) (err error) {
	defer thrower.RecoverError(&err)
	assert(internal.IsValidName(name),
		fmt.Sprintf("invalid item name %q", name), ErrInvalidName)
	trial := ds.sizes.copy()
	trial.register(name, da.data, false)
	for _, k := range da.coords.keys {
		v := da.coords.values[k]
		if existing, has := ds.coords.Get(k); has {
			assert(existing.Equal(v),
				fmt.Sprintf("coordinate %q differs from dataset coordinate", k),
				ErrCoordMismatch)
			continue
		}
		trial.register(k, v, true)
	}
	for _, k := range da.masks.keys {
		trial.register(k, da.masks.values[k], false)
	}
	ds.sizes = trial
	for _, k := range da.coords.keys {
		if _, has := ds.coords.Get(k); !has {
			ds.coords.Set(k, da.coords.values[k].Copy())
		}
	}
	ds.insert(name, &datasetItem{
		data:  da.data.Copy(),
		masks: da.masks.Copy(),
		attrs: da.attrs.Copy(),
	})
	return nil
}

func (ds *Dataset) insert(name string, it *datasetItem) {
	if _, has := ds.items[name]; !has {
		ds.order = append(ds.order, name)
	}
	ds.items[name] = it
}

// SetItemMask inserts or replaces an item-local mask, validating its
// extents against the ledger.
func (ds *Dataset) SetItemMask(item, name string, v Variable) (err error) {
	defer thrower.RecoverError(&err)
	it, has := ds.items[item]
	assert(has, fmt.Sprintf("no item %q", item), ErrNotFound)
	assert(internal.IsValidName(name),
		fmt.Sprintf("invalid mask name %q", name), ErrInvalidName)
	assert(v.DType() == DTypeBool, "mask must be boolean", ErrDType)
	trial := ds.sizes.copy()
	trial.register(name, v, false)
	ds.sizes = trial
	it.masks.Set(name, v)
	return nil
}

// SetItemAttr inserts or replaces an item-local attribute (unaligned
// coordinate).  Attributes are not checked against the ledger.
func (ds *Dataset) SetItemAttr(item, name string, v Variable) (err error) {
	defer thrower.RecoverError(&err)
	it, has := ds.items[item]
	assert(has, fmt.Sprintf("no item %q", item), ErrNotFound)
	assert(internal.IsValidName(name),
		fmt.Sprintf("invalid attribute name %q", name), ErrInvalidName)
	it.attrs.Set(name, v)
	return nil
}

// Item returns a non-owning view of the named item.
func (ds *Dataset) Item(name string) (view DataArrayView, err error) {
	defer thrower.RecoverError(&err)
	_, has := ds.items[name]
	assert(has, fmt.Sprintf("no item %q", name), ErrNotFound)
	return DataArrayView{ds: ds, item: name}, nil
}

// Erase removes an item and rebuilds the ledger from the survivors, since
// the removed item's extent constraints must not linger.
func (ds *Dataset) Erase(name string) (err error) {
	defer thrower.RecoverError(&err)
	_, has := ds.items[name]
	assert(has, fmt.Sprintf("no item %q", name), ErrNotFound)
	delete(ds.items, name)
	order := ds.order[:0]
	for _, n := range ds.order {
		if n != name {
			order = append(order, n)
		}
	}
	ds.order = order
	ds.rebuildLedger()
	return nil
}

// Extract removes an item and returns it as an independent data array.
func (ds *Dataset) Extract(name string) (da *DataArray, err error) {
	defer thrower.RecoverError(&err)
	view, err := ds.Item(name)
	thrower.ThrowIfError(err)
	da = view.Materialize()
	thrower.ThrowIfError(ds.Erase(name))
	return da, nil
}

// Rename renames a dimension across every item and coordinate.
func (ds *Dataset) Rename(from, to string) (out *Dataset, err error) {
	defer thrower.RecoverError(&err)
	_, has := ds.sizes.extents[from]
	assert(has, fmt.Sprintf("no dimension %q", from), ErrNotFound)
	_, has = ds.sizes.extents[to]
	assert(!has, fmt.Sprintf("dimension %q already exists", to), ErrDuplicateDimension)
	out = NewDataset()
	out.coords = renameMeta(ds.coords, from, to)
	for _, name := range ds.order {
		it := ds.items[name]
		data := it.data
		if data.Dims().ContainsDim(from) {
			data, err = data.Rename(from, to)
			thrower.ThrowIfError(err)
		}
		out.order = append(out.order, name)
		out.items[name] = &datasetItem{
			data:  data.Copy(),
			masks: renameMeta(it.masks, from, to),
			attrs: renameMeta(it.attrs, from, to),
		}
	}
	out.rebuildLedger()
	return out, nil
}

// rebuildLedger re-scans all surviving items and coordinates.  There is no
// incremental retraction: several items may have relied on one extent.
func (ds *Dataset) rebuildLedger() {
	logger.Info("rebuilding dimension ledger")
	s := newSizes()
	for _, name := range ds.order {
		it := ds.items[name]
		s.register(name, it.data, false)
		for _, k := range it.masks.keys {
			s.register(k, it.masks.values[k], false)
		}
		// Attributes are unaligned and don't constrain the ledger.
	}
	for _, k := range ds.coords.keys {
		s.register(k, ds.coords.values[k], true)
	}
	ds.sizes = s
}

// Copy returns a logical copy; all variables are copy-on-write aliases.
func (ds *Dataset) Copy() *Dataset {
	out := NewDataset()
	out.coords = ds.coords.Copy()
	out.sizes = ds.sizes.copy()
	for _, name := range ds.order {
		out.order = append(out.order, name)
		out.items[name] = ds.items[name].copy()
	}
	return out
}

// DeepCopy returns an independent copy immediately.
func (ds *Dataset) DeepCopy() *Dataset {
	out := ds.Copy()
	for _, name := range out.order {
		it := out.items[name]
		it.data = it.data.DeepCopy()
	}
	return out
}

// Equal reports whether two datasets hold the same coordinate map and the
// same items, compared by name.
func (ds *Dataset) Equal(other *Dataset) bool {
	if len(ds.order) != len(other.order) || !ds.coords.Equal(other.coords) {
		return false
	}
	for name, it := range ds.items {
		oit, has := other.items[name]
		if !has ||
			!it.data.Equal(oit.data) ||
			!it.masks.Equal(oit.masks) ||
			!it.attrs.Equal(oit.attrs) {
			return false
		}
	}
	return true
}

// Slice returns a non-owning view with the given slice operations applied.
func (ds *Dataset) Slice(ops ...Slice) (view DatasetView, err error) {
	defer thrower.RecoverError(&err)
	view = DatasetView{ds: ds}
	for _, s := range ops {
		view, err = view.Slice(s)
		thrower.ThrowIfError(err)
	}
	return view, nil
}

// View returns a view of the whole dataset.
func (ds *Dataset) View() DatasetView {
	return DatasetView{ds: ds}
}

// Buffer interface: a Dataset can back a bucket variable when every cell
// carries several aligned columns.

func (ds *Dataset) bufferExtent(dim string) (int, bool) {
	return ds.sizes.extent(dim)
}

func (ds *Dataset) bufferSlice(dim string, r IndexRange) Buffer {
	view, err := ds.Slice(Range(dim, r.Begin, r.End))
	thrower.ThrowIfError(err)
	return view.Materialize()
}

func (ds *Dataset) bufferEqual(other Buffer) bool {
	ods, ok := other.(*Dataset)
	return ok && ds.Equal(ods)
}

func (ds *Dataset) bufferCopy() Buffer {
	return ds.DeepCopy()
}
