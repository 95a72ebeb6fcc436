package bins

import (
	"github.com/scipp/scipp-go/scipp/core"
)

// dependsOn reports whether a mask variable is shaped over any of the
// named dimensions.
func dependsOn(v core.Variable, names map[string]bool) bool {
	d := v.Dims()
	for i := 0; i < d.Len(); i++ {
		if names[d.At(i).Name] {
			return true
		}
	}
	return false
}

// IrreducibleMask ORs every mask that depends on one of the reduced
// dimensions into a single flat mask over the outer shape.  Events in a
// masked outer cell must be dropped, not hidden: once a cell is rebinned
// or folded away there is no mask left to hide them behind.  Returns nil
// when no mask applies.
func IrreducibleMask(masks *core.Metadata, outer core.Dimensions, reduced map[string]bool) []bool {
	var flat []bool
	for _, name := range masks.Keys() {
		mv := masks.MustGet(name)
		if mv.Dims().Len() == 0 || !dependsOn(mv, reduced) {
			continue
		}
		if flat == nil {
			flat = make([]bool, outer.Volume())
		}
		offs := broadcastOffsets(outer, mv.Dims())
		vals := mv.Bools()
		for i, o := range offs {
			if vals[o] {
				flat[i] = true
			}
		}
	}
	return flat
}

// carryMeta copies every entry of src not shaped over a reduced
// dimension into dst, using set.  Entries over reduced dimensions are
// consumed by the operation and dropped.
func carryMeta(src *core.Metadata, reduced map[string]bool, set func(name string, v core.Variable)) {
	for _, name := range src.Keys() {
		v := src.MustGet(name)
		if dependsOn(v, reduced) {
			continue
		}
		set(name, v.Copy())
	}
}
