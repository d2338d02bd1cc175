// Package registry resolves stable cell ids to the kernel's volatile slot
// indices.
//
// Callers hold ids, never indices: any add, delete or move may reorder
// slots, so an index is only meaningful until the next kernel call that
// mutates the cell set.
package registry

import (
	"voro-editor/internal/kernel"

	"gonum.org/v1/gonum/spatial/r3"
)

// Registry is a pass-through over kernel identity queries plus an alias
// table for cells that were re-created under their original id by undo or
// redo. The kernel always assigns a fresh internal id on creation; the alias
// maps it back so that selections, orbits and recorded actions stay valid.
type Registry struct {
	k kernel.Kernel

	toKernel map[kernel.ID]kernel.ID // editor id -> kernel id
	toEditor map[kernel.ID]kernel.ID // kernel id -> editor id
}

// New creates a registry over k.
func New(k kernel.Kernel) *Registry {
	r := &Registry{}
	r.Reset(k)
	return r
}

// Reset rebinds the registry to a new kernel and forgets all aliases.
func (r *Registry) Reset(k kernel.Kernel) {
	r.k = k
	r.toKernel = make(map[kernel.ID]kernel.ID)
	r.toEditor = make(map[kernel.ID]kernel.ID)
}

// Kernel returns the underlying kernel.
func (r *Registry) Kernel() kernel.Kernel { return r.k }

// Count returns the number of live cells.
func (r *Registry) Count() int { return r.k.CellCount() }

// IDOf returns the stable id of the cell at index, or kernel.NoID.
func (r *Registry) IDOf(index int) kernel.ID {
	kid := r.k.StableID(index)
	if !kid.Valid() {
		return kernel.NoID
	}
	if id, ok := r.toEditor[kid]; ok {
		return id
	}
	return kid
}

// IndexOf returns the current slot of id. Retired or unknown ids report
// false and must be skipped by the caller.
func (r *Registry) IndexOf(id kernel.ID) (int, bool) {
	if !id.Valid() {
		return -1, false
	}
	kid := id
	if aliased, ok := r.toKernel[id]; ok {
		kid = aliased
	} else if _, hidden := r.toEditor[id]; hidden {
		// Kernel-internal id of a resurrected cell; not an editor id.
		return -1, false
	}
	index := r.k.IndexFromID(kid)
	return index, index >= 0
}

// Exists reports whether id names a live cell.
func (r *Registry) Exists(id kernel.ID) bool {
	_, ok := r.IndexOf(id)
	return ok
}

// Add creates a cell and returns its new id.
func (r *Registry) Add(p r3.Vec, typ int) kernel.ID {
	return r.IDOf(r.k.AddCell(p, typ))
}

// Resurrect re-creates a deleted cell under its original id.
func (r *Registry) Resurrect(id kernel.ID, p r3.Vec, typ int) {
	if r.Exists(id) {
		return
	}
	kid := r.k.StableID(r.k.AddCell(p, typ))
	if kid != id {
		r.toKernel[id] = kid
		r.toEditor[kid] = id
	}
}

// Delete removes the cell named by id. Unknown ids are ignored.
func (r *Registry) Delete(id kernel.ID) bool {
	index, ok := r.IndexOf(id)
	if !ok {
		return false
	}
	r.k.DeleteCell(index)
	if kid, aliased := r.toKernel[id]; aliased {
		delete(r.toKernel, id)
		delete(r.toEditor, kid)
	}
	return true
}

// Cell returns a copy of the cell's attributes.
func (r *Registry) Cell(id kernel.ID) (kernel.Cell, bool) {
	index, ok := r.IndexOf(id)
	if !ok {
		return kernel.Cell{ID: kernel.NoID}, false
	}
	return kernel.Cell{ID: id, Pos: r.k.CellPosition(index), Type: r.k.CellType(index)}, true
}

// Position returns the position of id.
func (r *Registry) Position(id kernel.ID) (r3.Vec, bool) {
	c, ok := r.Cell(id)
	return c.Pos, ok
}

// Type returns the type of id.
func (r *Registry) Type(id kernel.ID) (int, bool) {
	c, ok := r.Cell(id)
	return c.Type, ok
}

// Move moves id to p.
func (r *Registry) Move(id kernel.ID, p r3.Vec) {
	if index, ok := r.IndexOf(id); ok {
		r.k.MoveCell(index, p)
	}
}

// MoveMany moves each live id to the matching point in one kernel call.
func (r *Registry) MoveMany(ids []kernel.ID, pts []r3.Vec) {
	indices := make([]int, 0, len(ids))
	targets := make([]r3.Vec, 0, len(ids))
	for i, id := range ids {
		if i >= len(pts) {
			break
		}
		if index, ok := r.IndexOf(id); ok {
			indices = append(indices, index)
			targets = append(targets, pts[i])
		}
	}
	if len(indices) > 0 {
		r.k.MoveCells(indices, targets)
	}
}

// SetType sets the type of id.
func (r *Registry) SetType(id kernel.ID, typ int) {
	if index, ok := r.IndexOf(id); ok {
		r.k.SetCellType(index, typ)
	}
}

// AtPosition returns the id of the cell at p, if any.
func (r *Registry) AtPosition(p r3.Vec) (kernel.ID, bool) {
	index := r.k.CellAtPosition(p)
	if index < 0 {
		return kernel.NoID, false
	}
	return r.IDOf(index), true
}

// IDs returns the ids of all live cells in kernel enumeration order. The
// result is a snapshot and is safe to iterate while editing.
func (r *Registry) IDs() []kernel.ID {
	n := r.k.CellCount()
	ids := make([]kernel.ID, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, r.IDOf(i))
	}
	return ids
}

// Cells returns every live cell.
func (r *Registry) Cells() []kernel.Cell {
	n := r.k.CellCount()
	cells := make([]kernel.Cell, 0, n)
	for i := 0; i < n; i++ {
		cells = append(cells, kernel.Cell{ID: r.IDOf(i), Pos: r.k.CellPosition(i), Type: r.k.CellType(i)})
	}
	return cells
}

// Aliases returns the number of resurrected cells currently aliased.
func (r *Registry) Aliases() int { return len(r.toKernel) }

// Check verifies that every alias points at a live kernel cell and that the
// two directions agree.
func (r *Registry) Check() bool {
	if len(r.toKernel) != len(r.toEditor) {
		return false
	}
	for id, kid := range r.toKernel {
		if r.toEditor[kid] != id || r.k.IndexFromID(kid) < 0 {
			return false
		}
	}
	return true
}
