package app

import (
	"fmt"

	"voro-editor/internal/generate"
	"voro-editor/internal/history"
	"voro-editor/internal/kernel"
	"voro-editor/internal/snapshot"
	"voro-editor/pkg/colorutil"
	"voro-editor/pkg/geometry"

	"gonum.org/v1/gonum/spatial/r3"
)

// Hit is a picking result from the renderer: the index of the mesh vertex
// that was hit and the world-space hit point.
type Hit struct {
	Vertex int
	Point  r3.Vec
}

// StartGeometry asks the kernel to produce the triangle mesh, site and
// preview buffers.
func (s *State) StartGeometry() {
	if s.geometryOn {
		return
	}
	before := s.Selection()
	s.log.Record(history.StartGL{Limits: s.limits})
	s.startGeometry(s.limits)
	s.finish(before, EventGeometryChanged)
}

// StopGeometry releases the kernel's geometry buffers.
func (s *State) StopGeometry() {
	if !s.geometryOn {
		return
	}
	before := s.Selection()
	s.log.Record(history.StopGL{Limits: s.limits})
	s.stopGeometry()
	s.finish(before, EventGeometryChanged)
}

func (s *State) startGeometry(l history.Limits) {
	s.limits = l
	s.geometryOn = true
	s.reg.Kernel().RebuildGeometry(l.MaxTriangles, l.MaxPreviewVerts, l.MaxSites)
	s.Emit(EventGeometryChanged, nil)
}

func (s *State) stopGeometry() {
	s.geometryOn = false
	s.reg.Kernel().ClearGeometry()
	s.Emit(EventGeometryChanged, nil)
}

// SetPreview shows the wireframe of one cell. A stale id clears it.
func (s *State) SetPreview(id kernel.ID) {
	index, ok := s.reg.IndexOf(id)
	if !ok {
		id, index = kernel.NoID, -1
	}
	s.preview = id
	s.reg.Kernel().ComputeSingleCell(index)
	s.views.Refresh(kernel.Preview)
	s.dirty.Store(true)
}

// Preview returns the previewed cell, or NoID.
func (s *State) Preview() kernel.ID {
	if !s.reg.Exists(s.preview) {
		return kernel.NoID
	}
	return s.preview
}

// PickCell resolves a hit to the cell owning the hit face.
func (s *State) PickCell(h Hit) (kernel.ID, bool) {
	return s.pick(s.reg.Kernel().CellFromVertex(h.Vertex))
}

// PickNeighbor resolves a hit to the cell on the other side of the hit face.
func (s *State) PickNeighbor(h Hit) (kernel.ID, bool) {
	return s.pick(s.reg.Kernel().CellNeighborFromVertex(h.Vertex))
}

func (s *State) pick(index int) (kernel.ID, bool) {
	id := s.reg.IDOf(index)
	return id, id.Valid()
}

// Sanity runs the kernel, registry and symmetry checks and reports whether
// all passed. Failures are logged with label.
func (s *State) Sanity(label string) bool {
	ok := true
	if !s.reg.Kernel().SanityCheck(label) {
		s.logger.Warn("kernel sanity check failed", "label", label)
		ok = false
	}
	if !s.reg.Check() {
		s.logger.Warn("registry sanity check failed", "label", label)
		ok = false
	}
	if err := s.sym.Check(); err != nil {
		s.logger.Warn("symmetry sanity check failed", "label", label, "err", err)
		ok = false
	}
	if sphere, found := s.views.Bounds(kernel.Triangles); found {
		s.logger.Debug("mesh bounds", "label", label, "center", sphere.Center, "radius", sphere.Radius)
	}
	if !ok {
		s.metrics.SanityFailed()
	}
	return ok
}

// Tick is called once per frame, possibly from a ticker goroutine. It
// reports whether anything changed since the last tick and emits EventRedraw
// when so.
func (s *State) Tick() bool {
	if !s.dirty.CompareAndSwap(true, false) {
		return false
	}
	s.Emit(EventRedraw, nil)
	return true
}

// ExportSnapshot encodes every live cell with the bounding box and palette.
func (s *State) ExportSnapshot() []byte {
	snap := snapshot.Snapshot{
		Min:     geometry.ToF32(s.box.Min),
		Max:     geometry.ToF32(s.box.Max),
		Palette: s.Palette(),
	}
	for _, c := range s.reg.Cells() {
		snap.Cells = append(snap.Cells, snapshot.Cell{Pos: geometry.ToF32(c.Pos), Type: c.Type})
	}
	return snapshot.Encode(snap)
}

// ImportSnapshot replaces the scene with a decoded snapshot. Malformed
// input is rejected before anything is torn down.
func (s *State) ImportSnapshot(data []byte) bool {
	return s.LoadSnapshot(data) == nil
}

// LoadSnapshot is ImportSnapshot reporting why input was rejected.
func (s *State) LoadSnapshot(data []byte) error {
	snap, err := snapshot.Decode(data)
	if err != nil {
		s.logger.Warn("snapshot rejected", "bytes", len(data), "err", err)
		s.metrics.ImportFailed()
		return err
	}

	box := geometry.NewBox(geometry.FromF32(snap.Min), geometry.FromF32(snap.Max))
	pts := make([]r3.Vec, len(snap.Cells))
	types := make([]int, len(snap.Cells))
	for i, c := range snap.Cells {
		pts[i] = geometry.FromF32(c.Pos)
		types[i] = c.Type
	}
	palette := s.palette
	if len(snap.Palette) > 0 {
		palette = snap.Palette
	}
	s.rebuild(box, pts, types, palette)
	s.logger.Info("snapshot imported", "cells", len(snap.Cells), "palette", len(snap.Palette), "bounds", box.String())
	s.Emit(EventSnapshotLoaded, len(snap.Cells))
	return nil
}

// ExportTriangleMeshBinary dumps the current triangle mesh. When geometry
// is stopped it is produced for the export and released again.
func (s *State) ExportTriangleMeshBinary() []byte {
	k := s.reg.Kernel()
	if !s.geometryOn {
		k.RebuildGeometry(s.limits.MaxTriangles, s.limits.MaxPreviewVerts, s.limits.MaxSites)
		defer k.ClearGeometry()
		info := k.Buffer(kernel.Triangles)
		return snapshot.EncodeTriangleMesh(k.BufferData(kernel.Triangles), info.Count/3)
	}

	data, err := s.views.Read(kernel.Triangles)
	if err != nil {
		s.views.Refresh(kernel.Triangles)
		if data, err = s.views.Read(kernel.Triangles); err != nil {
			s.logger.Warn("mesh export: no triangle view", "err", err)
			return snapshot.EncodeTriangleMesh(nil, 0)
		}
	}
	return snapshot.EncodeTriangleMesh(data, len(data)/9)
}

// Generate replaces the scene with a procedural layout. Generation is not
// undoable: it clears history and symmetry.
func (s *State) Generate(p generate.Params) error {
	layout, err := generate.Generate(p, s.box, kernel.TypeFor(true, s.activeType))
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	s.rebuild(s.box, layout.Points, layout.Types, s.palette)
	s.logger.Info("scene generated", "kind", string(p.Kind), "count", len(layout.Points), "seed", p.Seed, "fill", p.Fill)
	if s.Project != nil {
		params := p
		s.Project.Generator = &params
	}
	return nil
}

// rebuild discards the kernel, the symmetry map and history, and populates
// a fresh kernel with pts.
func (s *State) rebuild(box geometry.Box, pts []r3.Vec, types []int, palette []colorutil.RGB) {
	old := s.reg.Kernel()
	s.views.Detach()

	k := s.factory(box)
	s.box = box
	s.reg.Reset(k)
	s.views.Reset(k)
	old.Close()

	s.sym.Reset()
	s.log.Clear()
	s.selection = nil
	s.preview = kernel.NoID
	s.dragBefore = nil

	s.log.Suspend()
	for i, p := range pts {
		s.reg.Add(p, types[i])
	}
	s.log.Resume()

	s.applyPalette(palette)
	if s.geometryOn {
		k.RebuildGeometry(s.limits.MaxTriangles, s.limits.MaxPreviewVerts, s.limits.MaxSites)
	}
	s.views.Refresh()
	s.metrics.SetCells(s.reg.Count())
	s.dirty.Store(true)
	s.SetModified(true)

	s.Emit(EventCellsChanged, nil)
	s.Emit(EventSymmetryChanged, nil)
	s.Emit(EventSelectionChanged, nil)
	s.Emit(EventHistoryChanged, nil)
}
