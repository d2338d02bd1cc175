package app

import (
	"slices"

	"voro-editor/internal/history"
	"voro-editor/internal/kernel"
	"voro-editor/internal/symmetry"
	"voro-editor/pkg/colorutil"
	"voro-editor/pkg/geometry"

	"gonum.org/v1/gonum/spatial/r3"
)

// Every gesture below follows the same shape: capture the selection, mutate
// through the registry while recording actions, then finish, which commits
// the transaction, refreshes buffer views and notifies listeners. Stale or
// absent cells are ignored.

// AddCellAt adds an active cell of the current category at p. Under an
// active symmetry the cell's orbit is generated in the same transaction.
func (s *State) AddCellAt(p r3.Vec) kernel.ID {
	return s.AddCell(p, true)
}

// AddCell adds a cell at p, active or inactive.
func (s *State) AddCell(p r3.Vec, active bool) kernel.ID {
	defer s.metrics.Time("add")()
	if !geometry.Finite(p) {
		s.logger.Warn("add ignored: position is not finite", "pos", p)
		return kernel.NoID
	}
	before := s.Selection()

	id := s.reg.Add(p, kernel.TypeFor(active, s.activeType))
	anchor, _ := s.reg.Cell(id)
	act := history.Add{Cells: []kernel.Cell{anchor}}
	if s.sym.Active() {
		res := s.sym.Generate(id)
		if len(res.Orbits) > 0 {
			orbit := res.Orbits[0].Clone()
			act.Orbit = &orbit
		}
		act.Cells = append(act.Cells, res.Created...)
		act.Overrides = res.Overrides
	}
	s.log.Record(act)
	s.logger.Debug("cell added", "cell_id", int64(id), "type", anchor.Type, "orbit_cells", len(act.Cells))

	s.finish(before, EventCellsChanged)
	return id
}

// DeleteCellAt deletes the cell at a kernel index along with its orbit.
func (s *State) DeleteCellAt(index int) {
	id := s.reg.IDOf(index)
	if !id.Valid() {
		return
	}
	s.DeleteCells([]kernel.ID{id})
}

// DeleteSelection deletes the selected cells along with their orbits.
func (s *State) DeleteSelection() {
	s.DeleteCells(s.selection)
}

// DeleteCells deletes ids. A mapped cell takes its whole orbit with it and
// the orbit leaves the symmetry map.
func (s *State) DeleteCells(ids []kernel.ID) {
	defer s.metrics.Time("delete")()
	before := s.Selection()

	var orbits []symmetry.Orbit
	var doomed []kernel.ID
	seen := make(map[kernel.ID]bool)
	mark := func(id kernel.ID) {
		if id.Valid() && !seen[id] && s.reg.Exists(id) {
			seen[id] = true
			doomed = append(doomed, id)
		}
	}
	for _, id := range ids {
		if o, ok := s.sym.Map().Lookup(id); ok {
			if !slices.ContainsFunc(orbits, func(x symmetry.Orbit) bool { return x.Primary == o.Primary }) {
				orbits = append(orbits, o.Clone())
			}
			for _, m := range o.Live() {
				mark(m)
			}
			continue
		}
		mark(id)
	}
	if len(doomed) == 0 {
		return
	}

	cells := make([]kernel.Cell, 0, len(doomed))
	for _, id := range doomed {
		c, _ := s.reg.Cell(id)
		cells = append(cells, c)
	}
	if len(orbits) > 0 {
		s.sym.Map().Replace(orbits, nil)
		s.log.Record(history.UpdateSymmetryMap{Before: orbits})
	}
	for _, id := range doomed {
		s.reg.Delete(id)
	}
	s.log.Record(history.Delete{Cells: cells})
	s.dropFromSelection(seen)
	s.logger.Debug("cells deleted", "count", len(cells), "orbits", len(orbits))

	s.finish(before, EventCellsChanged)
}

// MoveSelection moves ids to pts pairwise. Under an active symmetry each
// orbit moves once, following the first of its members listed, and the other
// members go to their images. While a drag is open, successive calls for the
// same cells coalesce into one move.
func (s *State) MoveSelection(ids []kernel.ID, pts []r3.Vec) {
	defer s.metrics.Time("move")()
	before := s.Selection()

	var moveIDs []kernel.ID
	var targets []r3.Vec
	scheduled := make(map[kernel.ID]bool)
	orbitDone := make(map[kernel.ID]bool)
	schedule := func(id kernel.ID, p r3.Vec) {
		if scheduled[id] || !s.reg.Exists(id) {
			return
		}
		scheduled[id] = true
		moveIDs = append(moveIDs, id)
		targets = append(targets, p)
	}

	for i, id := range ids {
		if i >= len(pts) {
			break
		}
		if !s.reg.Exists(id) {
			continue
		}
		p := pts[i]
		if !geometry.Finite(p) {
			s.logger.Warn("move ignored: position is not finite", "cell_id", int64(id), "pos", p)
			continue
		}
		// Images follow where the kernel will actually put the cell.
		p = s.box.ClampInside(p)
		if o, ok := s.sym.Map().Lookup(id); ok && s.sym.Active() {
			if orbitDone[o.Primary] {
				continue
			}
			orbitDone[o.Primary] = true
			schedule(id, p)
			for _, img := range s.sym.Images(id, p) {
				schedule(img.ID, img.Pos)
			}
			continue
		}
		schedule(id, p)
	}
	if len(moveIDs) == 0 {
		return
	}

	from := s.positions(moveIDs)
	s.reg.MoveMany(moveIDs, targets)
	s.log.RecordMove(history.Move{IDs: moveIDs, From: from, To: s.positions(moveIDs)})

	s.finish(before, EventCellsChanged)
}

// TranslateSelection moves every selected cell by delta.
func (s *State) TranslateSelection(delta r3.Vec) {
	pts := make([]r3.Vec, 0, len(s.selection))
	ids := make([]kernel.ID, 0, len(s.selection))
	for _, id := range s.selection {
		if p, ok := s.reg.Position(id); ok {
			ids = append(ids, id)
			pts = append(pts, r3.Add(p, delta))
		}
	}
	s.MoveSelection(ids, pts)
}

// BeginDrag opens a drag. Moves until EndDrag form one transaction.
func (s *State) BeginDrag() {
	if s.log.Dragging() {
		return
	}
	s.dragBefore = s.Selection()
	s.log.OpenDrag()
}

// EndDrag closes the drag and commits its coalesced move.
func (s *State) EndDrag() {
	if !s.log.Dragging() {
		return
	}
	s.log.CloseDrag()
	before := s.dragBefore
	s.dragBefore = nil
	s.finish(before)
}

// ToggleCellAt flips the cell at a kernel index, and its orbit, between
// inactive and the current category.
func (s *State) ToggleCellAt(index int) {
	s.toggle(s.reg.IDOf(index))
}

// ToggleNeighborAt flips the cell adjacent to the face a hit vertex belongs
// to.
func (s *State) ToggleNeighborAt(vertex int) {
	index := s.reg.Kernel().CellNeighborFromVertex(vertex)
	if index < 0 {
		return
	}
	s.ToggleCellAt(index)
}

func (s *State) toggle(id kernel.ID) {
	if !s.reg.Exists(id) {
		return
	}
	defer s.metrics.Time("toggle")()
	before := s.Selection()

	var changes []history.TypeChange
	for _, m := range s.withOrbit(id) {
		typ, _ := s.reg.Type(m)
		after := kernel.TypeFor(typ == 0, s.activeType)
		changes = append(changes, history.TypeChange{ID: m, Before: typ, After: after})
		s.reg.SetType(m, after)
	}
	s.log.Record(history.Toggle{Changes: changes})

	s.finish(before, EventCellsChanged)
}

// SetCellTypeAt assigns typ to the cell at a kernel index and its orbit.
func (s *State) SetCellTypeAt(index int, typ int) {
	id := s.reg.IDOf(index)
	if !s.reg.Exists(id) || typ < 0 {
		return
	}
	before := s.Selection()

	var changes []history.TypeChange
	for _, m := range s.withOrbit(id) {
		cur, _ := s.reg.Type(m)
		if cur == typ {
			continue
		}
		changes = append(changes, history.TypeChange{ID: m, Before: cur, After: typ})
		s.reg.SetType(m, typ)
	}
	if len(changes) > 0 {
		s.log.Record(history.SetType{Changes: changes})
	}

	s.finish(before, EventCellsChanged)
}

// SetActiveCategory selects the category new and toggled cells receive.
func (s *State) SetActiveCategory(typ int) {
	if typ < 1 || typ == s.activeType {
		return
	}
	before := s.Selection()
	s.log.Record(history.SetActiveType{Before: s.activeType, After: typ})
	s.activeType = typ
	s.finish(before, EventActiveTypeChanged)
}

// SetPalette replaces the category colors.
func (s *State) SetPalette(colors []colorutil.RGB) {
	if len(colors) == 0 {
		return
	}
	before := s.Selection()
	s.log.Record(history.SetPalette{Before: s.Palette(), After: slices.Clone(colors)})
	s.applyPalette(colors)
	s.finish(before, EventPaletteChanged)
}

// EnableSymmetry activates the operator described by spec and builds an
// orbit for every unmapped cell. Enabling while another operator is active
// bakes the old map first, in the same transaction.
func (s *State) EnableSymmetry(spec symmetry.Spec) error {
	op, err := spec.Build(s.box.Center())
	if err != nil {
		return err
	}
	defer s.metrics.Time("enable_symmetry")()
	before := s.Selection()

	prev := s.Symmetry()
	var mapBefore []symmetry.Orbit
	if prev != nil {
		mapBefore = s.sym.Bake()
	}
	res := s.sym.Enable(op)
	after := op.Spec()
	s.log.Record(history.EnableSymmetry{
		Before:    prev,
		After:     &after,
		MapBefore: mapBefore,
		MapAfter:  s.sym.Map().Orbits(),
		Created:   res.Created,
		Overrides: res.Overrides,
	})

	s.finish(before, EventSymmetryChanged, EventCellsChanged)
	return nil
}

// BakeSymmetry turns the active symmetry off, keeping every cell where it
// is as an independent cell.
func (s *State) BakeSymmetry() {
	prev := s.Symmetry()
	if prev == nil {
		return
	}
	before := s.Selection()
	orbits := s.sym.Bake()
	s.log.Record(history.EnableSymmetry{Before: prev, MapBefore: orbits})
	s.finish(before, EventSymmetryChanged)
}

// Select replaces the selection with the live ids given.
func (s *State) Select(ids ...kernel.ID) {
	before := s.Selection()
	s.selection = s.live(ids)
	s.finish(before)
}

// ToggleSelected adds id to the selection or removes it.
func (s *State) ToggleSelected(id kernel.ID) {
	if !s.reg.Exists(id) {
		return
	}
	before := s.Selection()
	if i := slices.Index(s.selection, id); i >= 0 {
		s.selection = slices.Delete(s.selection, i, i+1)
	} else {
		s.selection = append(s.selection, id)
	}
	s.finish(before)
}

// ClearSelection empties the selection. Committed edits stay.
func (s *State) ClearSelection() {
	if len(s.selection) == 0 {
		return
	}
	before := s.Selection()
	s.selection = nil
	s.finish(before)
}

// Undo reverts the last transaction. An open drag is committed first.
func (s *State) Undo() bool {
	s.EndDrag()
	tx, ok := s.log.Undo(replayer{s})
	if !ok {
		return false
	}
	s.selection = s.live(tx.SelectionBefore)
	s.afterReplay()
	return true
}

// Redo re-applies the next transaction.
func (s *State) Redo() bool {
	s.EndDrag()
	tx, ok := s.log.Redo(replayer{s})
	if !ok {
		return false
	}
	s.selection = s.live(tx.SelectionAfter)
	s.afterReplay()
	return true
}

// finish commits the gesture's transaction, unless a drag is still open,
// then refreshes views and notifies listeners.
func (s *State) finish(before []kernel.ID, events ...EventType) {
	committed := false
	if !s.log.Dragging() {
		committed = s.log.CommitIfChanged(before, s.selection)
	}
	s.views.Refresh()
	s.metrics.SetCells(s.reg.Count())
	s.dirty.Store(true)

	for _, e := range events {
		s.Emit(e, nil)
	}
	if !slices.Equal(before, s.selection) {
		s.Emit(EventSelectionChanged, s.Selection())
	}
	if committed {
		s.SetModified(true)
		s.Emit(EventHistoryChanged, nil)
	}
}

func (s *State) afterReplay() {
	s.views.Refresh()
	s.metrics.SetCells(s.reg.Count())
	s.dirty.Store(true)
	s.SetModified(true)
	s.Emit(EventCellsChanged, nil)
	s.Emit(EventSymmetryChanged, nil)
	s.Emit(EventSelectionChanged, s.Selection())
	s.Emit(EventHistoryChanged, nil)
}

// withOrbit returns id followed by the other live members of its orbit.
func (s *State) withOrbit(id kernel.ID) []kernel.ID {
	return append([]kernel.ID{id}, s.sym.OrderedSymList(id)...)
}

func (s *State) positions(ids []kernel.ID) []r3.Vec {
	out := make([]r3.Vec, len(ids))
	for i, id := range ids {
		out[i], _ = s.reg.Position(id)
	}
	return out
}

// live filters ids down to existing cells, dropping duplicates.
func (s *State) live(ids []kernel.ID) []kernel.ID {
	var out []kernel.ID
	for _, id := range ids {
		if s.reg.Exists(id) && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (s *State) dropFromSelection(gone map[kernel.ID]bool) {
	s.selection = slices.DeleteFunc(s.selection, func(id kernel.ID) bool { return gone[id] })
	if gone[s.preview] {
		s.preview = kernel.NoID
	}
}

func (s *State) applyPalette(colors []colorutil.RGB) {
	s.palette = slices.Clone(colors)
	s.reg.Kernel().SetPalette(s.palette)
}
