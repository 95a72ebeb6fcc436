package core

import (
	"fmt"

	"github.com/batchatco/go-thrower"

	"github.com/scipp/scipp-go/internal"
)

// DataArray is one named data variable together with its own coordinate,
// mask and attribute maps.  Attributes double as unaligned coordinates.
type DataArray struct {
	name   string
	data   Variable
	coords *Metadata
	masks  *Metadata
	attrs  *Metadata
}

// NewDataArray wraps a data variable with empty metadata.
func NewDataArray(name string, data Variable) (da *DataArray, err error) {
	defer thrower.RecoverError(&err)
	assert(name == "" || internal.IsValidName(name),
		fmt.Sprintf("invalid item name %q", name), ErrInvalidName)
	return &DataArray{
		name:   name,
		data:   data,
		coords: NewMetadata(),
		masks:  NewMetadata(),
		attrs:  NewMetadata(),
	}, nil
}

// Name returns the item name.
func (da *DataArray) Name() string {
	return da.name
}

// SetName renames the item.
func (da *DataArray) SetName(name string) {
	da.name = name
}

// Data returns the data variable.
func (da *DataArray) Data() Variable {
	return da.data
}

// MutableData returns a pointer to the data variable for write-through.
func (da *DataArray) MutableData() *Variable {
	return &da.data
}

// SetData replaces the data variable, revalidating all coordinates and
// masks against the new shape.
func (da *DataArray) SetData(v Variable) (err error) {
	defer thrower.RecoverError(&err)
	old := da.data
	da.data = v
	if err := da.validate(); err != nil {
		da.data = old
		thrower.Throw(err)
	}
	return nil
}

// Coords returns the coordinate map.
func (da *DataArray) Coords() *Metadata {
	return da.coords
}

// Masks returns the mask map.
func (da *DataArray) Masks() *Metadata {
	return da.masks
}

// Attrs returns the attribute (unaligned coordinate) map.
func (da *DataArray) Attrs() *Metadata {
	return da.attrs
}

// SetCoord inserts a coordinate.  Along its own keyed dimension the
// coordinate may exceed the data extent by exactly one (bin edges); all
// other extents must match the data.
func (da *DataArray) SetCoord(name string, v Variable) (err error) {
	defer thrower.RecoverError(&err)
	assert(internal.IsValidName(name),
		fmt.Sprintf("invalid coordinate name %q", name), ErrInvalidName)
	s := da.ledger()
	s.register(name, v, true)
	da.coords.Set(name, v)
	return nil
}

// SetMask inserts a mask; extents must match the data exactly.
func (da *DataArray) SetMask(name string, v Variable) (err error) {
	defer thrower.RecoverError(&err)
	assert(internal.IsValidName(name),
		fmt.Sprintf("invalid mask name %q", name), ErrInvalidName)
	assert(v.DType() == DTypeBool, "mask must be boolean", ErrDType)
	s := da.ledger()
	s.register(name, v, false)
	da.masks.Set(name, v)
	return nil
}

// SetAttr inserts an attribute.  Attributes are not checked against the
// ledger; they may carry shapes the data no longer has, such as the
// edge pair left behind by a single-index slice.
func (da *DataArray) SetAttr(name string, v Variable) (err error) {
	defer thrower.RecoverError(&err)
	assert(internal.IsValidName(name),
		fmt.Sprintf("invalid attribute name %q", name), ErrInvalidName)
	da.attrs.Set(name, v)
	return nil
}

// ledger builds the consistency ledger from data, coordinates and masks.
func (da *DataArray) ledger() *Sizes {
	s := newSizes()
	s.register(da.name, da.data, false)
	for _, k := range da.coords.keys {
		s.register(k, da.coords.values[k], true)
	}
	for _, k := range da.masks.keys {
		s.register(k, da.masks.values[k], false)
	}
	return s
}

func (da *DataArray) validate() (err error) {
	defer thrower.RecoverError(&err)
	da.ledger()
	return nil
}

// isEdge reports whether a coordinate is a bin-edge coordinate along dim:
// its extent there is exactly the data extent plus one.
func isEdge(coord Variable, dim string, dataDims Dimensions) bool {
	ce, has := coord.Dims().Extent(dim)
	if !has {
		return false
	}
	de, has := dataDims.Extent(dim)
	return has && ce == de+1
}

// Copy returns a logical copy; all variables are copy-on-write aliases.
func (da *DataArray) Copy() *DataArray {
	return &DataArray{
		name:   da.name,
		data:   da.data.Copy(),
		coords: da.coords.Copy(),
		masks:  da.masks.Copy(),
		attrs:  da.attrs.Copy(),
	}
}

// DeepCopy returns an independent copy immediately.
func (da *DataArray) DeepCopy() *DataArray {
	out := da.Copy()
	out.data = da.data.DeepCopy()
	return out
}

// Equal compares name, data, coordinates, masks and attributes.
func (da *DataArray) Equal(other *DataArray) bool {
	return da.name == other.name &&
		da.data.Equal(other.data) &&
		da.coords.Equal(other.coords) &&
		da.masks.Equal(other.masks) &&
		da.attrs.Equal(other.attrs)
}

// Slice returns a non-owning view with the given slice operations applied.
func (da *DataArray) Slice(ops ...Slice) (view DataArrayView, err error) {
	defer thrower.RecoverError(&err)
	view = DataArrayView{da: da}
	for _, s := range ops {
		view, err = view.Slice(s)
		thrower.ThrowIfError(err)
	}
	return view, nil
}

// View returns a view of the whole data array.
func (da *DataArray) View() DataArrayView {
	return DataArrayView{da: da}
}

// Rename renames a dimension on the data and all metadata.
func (da *DataArray) Rename(from, to string) (out *DataArray, err error) {
	defer thrower.RecoverError(&err)
	data, err := da.data.Rename(from, to)
	thrower.ThrowIfError(err)
	out = &DataArray{
		name:   da.name,
		data:   data,
		coords: renameMeta(da.coords, from, to),
		masks:  renameMeta(da.masks, from, to),
		attrs:  renameMeta(da.attrs, from, to),
	}
	return out, nil
}

func renameMeta(m *Metadata, from, to string) *Metadata {
	out := NewMetadata()
	for _, k := range m.keys {
		v := m.values[k]
		if v.Dims().ContainsDim(from) {
			renamed, err := v.Rename(from, to)
			thrower.ThrowIfError(err)
			v = renamed
		}
		key := k
		if key == from {
			key = to
		}
		out.Set(key, v)
	}
	for k := range m.hidden {
		out.hidden[k] = true
	}
	return out
}

// Buffer interface: a DataArray is the usual buffer of event data, with
// per-event coordinates alongside the weights.

func (da *DataArray) bufferExtent(dim string) (int, bool) {
	return da.data.Dims().Extent(dim)
}

func (da *DataArray) bufferSlice(dim string, r IndexRange) Buffer {
	view, err := da.Slice(Range(dim, r.Begin, r.End))
	thrower.ThrowIfError(err)
	return view.Materialize()
}

func (da *DataArray) bufferEqual(other Buffer) bool {
	// Buffer contents compare like variables: the name is not part of it.
	oda, ok := other.(*DataArray)
	return ok && da.data.Equal(oda.data) &&
		da.coords.Equal(oda.coords) &&
		da.masks.Equal(oda.masks) &&
		da.attrs.Equal(oda.attrs)
}

func (da *DataArray) bufferCopy() Buffer {
	return da.DeepCopy()
}
