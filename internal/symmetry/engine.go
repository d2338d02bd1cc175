package symmetry

import (
	"fmt"
	"log/slog"
	"slices"

	"voro-editor/internal/kernel"
	"voro-editor/internal/registry"

	"gonum.org/v1/gonum/spatial/r3"
)

// TypeOverride records a type change applied to resolve an orbit conflict.
type TypeOverride struct {
	ID     kernel.ID
	Before int
	After  int
}

// Result collects the side effects of orbit generation so they can be
// recorded and inverted.
type Result struct {
	Orbits    []Orbit
	Created   []kernel.Cell
	Overrides []TypeOverride
}

func (r *Result) merge(o Result) {
	r.Orbits = append(r.Orbits, o.Orbits...)
	r.Created = append(r.Created, o.Created...)
	r.Overrides = append(r.Overrides, o.Overrides...)
}

// Image is the position an orbit member should take.
type Image struct {
	ID  kernel.ID
	Pos r3.Vec
}

// Engine owns the active operator and the symmetry map.
type Engine struct {
	reg    *registry.Registry
	op     Operator
	m      *Map
	logger *slog.Logger
}

// NewEngine creates an engine with no active operator.
func NewEngine(reg *registry.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{reg: reg, m: NewMap(), logger: logger}
}

// Active reports whether an operator is set.
func (e *Engine) Active() bool { return e.op != nil }

// Operator returns the active operator, or nil.
func (e *Engine) Operator() Operator { return e.op }

// Map returns the live symmetry map.
func (e *Engine) Map() *Map { return e.m }

// SetOperator replaces the operator without touching the map. Used when
// replaying recorded state.
func (e *Engine) SetOperator(op Operator) { e.op = op }

// Reset drops the operator and the map.
func (e *Engine) Reset() {
	e.op = nil
	e.m.Clear()
}

// Enable activates op and builds an orbit for every live cell that is not
// already mapped, visiting cells once in creation order. Ids only grow and
// resurrected cells keep theirs, so ascending id is creation order; slot
// order is not, once a delete has swapped a later cell down.
func (e *Engine) Enable(op Operator) Result {
	e.op = op
	var res Result
	ids := e.reg.IDs()
	slices.Sort(ids)
	for _, id := range ids {
		if e.m.Has(id) || !e.reg.Exists(id) {
			continue
		}
		res.merge(e.Generate(id))
	}
	e.logger.Info("symmetry enabled", "operator", op.Spec().String(),
		"orbits", len(res.Orbits), "created", len(res.Created), "overrides", len(res.Overrides))
	return res
}

// Bake discards the map and the operator, leaving every cell as is, and
// returns the orbits that were dropped.
func (e *Engine) Bake() []Orbit {
	orbits := e.m.Orbits()
	e.Reset()
	e.logger.Info("symmetry baked", "orbits", len(orbits))
	return orbits
}

// Generate walks the operator from primary, linking cells that already sit
// at an image position and creating cells where none does. Type conflicts
// are resolved after the walk: every member takes the highest type seen.
// Created cells do not trigger further propagation. An image that lands on
// the primary or on an already claimed member leaves a NoID placeholder; the
// slot stays empty if the cell later moves off the fixed point.
func (e *Engine) Generate(primary kernel.ID) Result {
	if e.op == nil {
		return Result{}
	}
	anchor, ok := e.reg.Cell(primary)
	if !ok {
		return Result{}
	}
	box := e.reg.Kernel().Bounds()

	orbit := Orbit{Primary: primary}
	claimed := map[kernel.ID]bool{primary: true}
	var created []kernel.ID
	winner := anchor.Type

	cur := anchor.Pos
	for i := 0; i < e.op.Iterations(); i++ {
		cur = e.op.Step(cur, i)
		at := box.ClampInside(cur)
		if id, found := e.reg.AtPosition(at); found {
			if claimed[id] || e.m.Has(id) {
				orbit.Linked = append(orbit.Linked, kernel.NoID)
				continue
			}
			typ, _ := e.reg.Type(id)
			winner = max(winner, typ)
			claimed[id] = true
			orbit.Linked = append(orbit.Linked, id)
			continue
		}
		id := e.reg.Add(at, anchor.Type)
		claimed[id] = true
		created = append(created, id)
		orbit.Linked = append(orbit.Linked, id)
	}

	res := Result{Orbits: []Orbit{orbit}}
	fresh := make(map[kernel.ID]bool, len(created))
	for _, id := range created {
		fresh[id] = true
	}
	for _, id := range orbit.Live() {
		typ, _ := e.reg.Type(id)
		if typ == winner {
			continue
		}
		e.reg.SetType(id, winner)
		if !fresh[id] {
			res.Overrides = append(res.Overrides, TypeOverride{ID: id, Before: typ, After: winner})
		}
	}
	for _, id := range created {
		if c, ok := e.reg.Cell(id); ok {
			res.Created = append(res.Created, c)
		}
	}
	e.m.Put(orbit)
	e.logger.Debug("orbit generated", "primary", int64(primary),
		"linked", len(orbit.Linked), "created", len(created), "type", winner)
	return res
}

// OrderedSymList returns the other live members of id's orbit, starting
// with the member one step ahead of id and continuing in generation order.
func (e *Engine) OrderedSymList(id kernel.ID) []kernel.ID {
	o, ok := e.m.Lookup(id)
	if !ok {
		return nil
	}
	members := o.Members()
	m := o.Position(id)
	out := make([]kernel.ID, 0, len(members)-1)
	for j := 1; j < len(members); j++ {
		if other := members[(m+j)%len(members)]; other.Valid() {
			out = append(out, other)
		}
	}
	return out
}

// Images returns where every other member of id's orbit must be when id is
// at p. Positions are derived from p alone.
func (e *Engine) Images(id kernel.ID, p r3.Vec) []Image {
	o, ok := e.m.Lookup(id)
	if !ok || e.op == nil {
		return nil
	}
	members := o.Members()
	m := o.Position(id)
	out := make([]Image, 0, len(members)-1)
	cur := p
	for j := 1; j < len(members); j++ {
		cur = e.op.Step(cur, m+j-1)
		if other := members[(m+j)%len(members)]; other.Valid() {
			out = append(out, Image{ID: other, Pos: cur})
		}
	}
	return out
}

// Check verifies the map invariants: every live member resolves to the same
// primary, appears once, and names a live cell; and every orbit has the
// operator's size.
func (e *Engine) Check() error {
	seen := make(map[kernel.ID]kernel.ID)
	for _, o := range e.m.Orbits() {
		if e.op != nil && len(o.Linked) != e.op.Iterations() {
			return fmt.Errorf("orbit %d: %d linked, want %d", o.Primary, len(o.Linked), e.op.Iterations())
		}
		for _, id := range o.Live() {
			if prev, dup := seen[id]; dup {
				return fmt.Errorf("cell %d in orbits %d and %d", id, prev, o.Primary)
			}
			seen[id] = o.Primary
			if got, _ := e.m.Lookup(id); got.Primary != o.Primary {
				return fmt.Errorf("cell %d maps to %d, want %d", id, got.Primary, o.Primary)
			}
			if !e.reg.Exists(id) {
				return fmt.Errorf("orbit %d references retired cell %d", o.Primary, id)
			}
		}
	}
	if e.op == nil && e.m.Len() > 0 {
		return fmt.Errorf("%d orbits without an active operator", e.m.Len())
	}
	return nil
}
