package symmetry

import (
	"cmp"
	"slices"

	"voro-editor/internal/kernel"
)

// Orbit is one equivalence class. Linked holds the other members in the
// order the operator generates them from Primary. A member whose image
// coincided with an existing orbit member is kept as kernel.NoID so that
// positions in the list stay aligned with operator steps.
type Orbit struct {
	Primary kernel.ID   `json:"primary"`
	Linked  []kernel.ID `json:"linked"`
}

// Members returns Primary followed by Linked, placeholders included.
func (o Orbit) Members() []kernel.ID {
	return append([]kernel.ID{o.Primary}, o.Linked...)
}

// Live returns the members that name real cells.
func (o Orbit) Live() []kernel.ID {
	ids := []kernel.ID{o.Primary}
	for _, id := range o.Linked {
		if id.Valid() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Position returns the generation position of id, 0 for the primary.
func (o Orbit) Position(id kernel.ID) int {
	if !id.Valid() {
		return -1
	}
	if id == o.Primary {
		return 0
	}
	if i := slices.Index(o.Linked, id); i >= 0 {
		return i + 1
	}
	return -1
}

// Clone returns a deep copy.
func (o Orbit) Clone() Orbit {
	return Orbit{Primary: o.Primary, Linked: slices.Clone(o.Linked)}
}

// Map records orbit membership by stable id.
type Map struct {
	orbits map[kernel.ID]Orbit     // primary -> orbit
	owner  map[kernel.ID]kernel.ID // member -> primary
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{orbits: make(map[kernel.ID]Orbit), owner: make(map[kernel.ID]kernel.ID)}
}

// Len returns the number of orbits.
func (m *Map) Len() int { return len(m.orbits) }

// Has reports whether id belongs to any orbit.
func (m *Map) Has(id kernel.ID) bool {
	_, ok := m.owner[id]
	return ok
}

// Lookup returns the orbit containing id.
func (m *Map) Lookup(id kernel.ID) (Orbit, bool) {
	primary, ok := m.owner[id]
	if !ok {
		return Orbit{}, false
	}
	o, ok := m.orbits[primary]
	return o, ok
}

// Put inserts an orbit, replacing any orbit with the same primary.
func (m *Map) Put(o Orbit) {
	m.Remove(o.Primary)
	o = o.Clone()
	m.orbits[o.Primary] = o
	for _, id := range o.Live() {
		m.owner[id] = o.Primary
	}
}

// Remove deletes the orbit whose primary is primary.
func (m *Map) Remove(primary kernel.ID) {
	o, ok := m.orbits[primary]
	if !ok {
		return
	}
	for _, id := range o.Live() {
		if m.owner[id] == primary {
			delete(m.owner, id)
		}
	}
	delete(m.orbits, primary)
}

// Replace removes the orbits in out and then inserts the orbits in in.
func (m *Map) Replace(out, in []Orbit) {
	for _, o := range out {
		m.Remove(o.Primary)
	}
	for _, o := range in {
		m.Put(o)
	}
}

// Orbits returns a copy of every orbit ordered by primary id.
func (m *Map) Orbits() []Orbit {
	out := make([]Orbit, 0, len(m.orbits))
	for _, o := range m.orbits {
		out = append(out, o.Clone())
	}
	slices.SortFunc(out, func(a, b Orbit) int { return cmp.Compare(a.Primary, b.Primary) })
	return out
}

// Clear removes every orbit.
func (m *Map) Clear() {
	clear(m.orbits)
	clear(m.owner)
}
