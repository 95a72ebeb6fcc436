package core

import (
	"fmt"

	"github.com/batchatco/go-thrower"
)

// Metadata is an ordered name-to-Variable map used for coordinates, masks
// and attributes.  Insertion order is preserved for iteration but is
// irrelevant for equality.  Keys can be hidden without being removed; the
// view layer uses this for coordinate shadowing.
type Metadata struct {
	keys   []string
	values map[string]Variable
	hidden map[string]bool
}

// NewMetadata returns an empty map.
func NewMetadata() *Metadata {
	return &Metadata{
		values: map[string]Variable{},
		hidden: map[string]bool{},
	}
}

// Set inserts or replaces the named variable.
func (m *Metadata) Set(name string, v Variable) {
	if _, has := m.values[name]; !has {
		m.keys = append(m.keys, name)
	}
	m.values[name] = v
}

// Get returns the named variable.
func (m *Metadata) Get(name string) (Variable, bool) {
	v, has := m.values[name]
	return v, has
}

// MustGet is Get that throws ErrNotFound.
func (m *Metadata) MustGet(name string) Variable {
	v, has := m.values[name]
	if !has {
		thrower.Throw(fmt.Errorf("%q: %w", name, ErrNotFound))
	}
	return v
}

// Erase removes the named entry.
func (m *Metadata) Erase(name string) bool {
	if _, has := m.values[name]; !has {
		return false
	}
	delete(m.values, name)
	delete(m.hidden, name)
	keys := m.keys[:0]
	for _, k := range m.keys {
		if k != name {
			keys = append(keys, k)
		}
	}
	m.keys = keys
	return true
}

// Hide marks a key as invisible to Keys without removing the value.
func (m *Metadata) Hide(name string) {
	m.hidden[name] = true
}

// Keys returns the visible keys in insertion order.
func (m *Metadata) Keys() []string {
	var visible []string
	for _, k := range m.keys {
		if !m.hidden[k] {
			visible = append(visible, k)
		}
	}
	return visible
}

// Len returns the number of visible entries.
func (m *Metadata) Len() int {
	return len(m.Keys())
}

// Copy returns a map whose variables are O(1) copy-on-write copies.
func (m *Metadata) Copy() *Metadata {
	out := NewMetadata()
	for _, k := range m.keys {
		out.keys = append(out.keys, k)
		out.values[k] = m.values[k].Copy()
	}
	for k, v := range m.hidden {
		out.hidden[k] = v
	}
	return out
}

// Equal compares visible entries by name and value, ignoring insertion
// order.
func (m *Metadata) Equal(other *Metadata) bool {
	ka := m.Keys()
	kb := other.Keys()
	if len(ka) != len(kb) {
		return false
	}
	for _, k := range ka {
		va, _ := m.Get(k)
		vb, has := other.Get(k)
		if !has || other.hidden[k] || !va.Equal(vb) {
			return false
		}
	}
	return true
}
