package app

import (
	"voro-editor/internal/history"
	"voro-editor/internal/kernel"
	"voro-editor/internal/symmetry"
	"voro-editor/pkg/colorutil"

	"gonum.org/v1/gonum/spatial/r3"
)

// replayer applies recorded actions to a State without recording them.
type replayer struct{ s *State }

var _ history.Applier = replayer{}

func (r replayer) CreateCells(cells []kernel.Cell) {
	for _, c := range cells {
		if c.ID.Valid() {
			r.s.reg.Resurrect(c.ID, c.Pos, c.Type)
		}
	}
}

func (r replayer) DeleteCells(ids []kernel.ID) {
	gone := make(map[kernel.ID]bool, len(ids))
	for _, id := range ids {
		if r.s.reg.Delete(id) {
			gone[id] = true
		}
	}
	r.s.dropFromSelection(gone)
}

func (r replayer) SetTypes(changes []history.TypeChange, dir history.Direction) {
	for _, ch := range changes {
		if dir == history.Forward {
			r.s.reg.SetType(ch.ID, ch.After)
		} else {
			r.s.reg.SetType(ch.ID, ch.Before)
		}
	}
}

func (r replayer) MoveCells(ids []kernel.ID, pts []r3.Vec) {
	r.s.reg.MoveMany(ids, pts)
}

func (r replayer) ReplaceOrbits(out, in []symmetry.Orbit) {
	r.s.sym.Map().Replace(out, in)
}

func (r replayer) SetSymmetry(spec *symmetry.Spec) {
	if spec == nil {
		r.s.sym.SetOperator(nil)
		return
	}
	op, err := spec.Build(r.s.box.Center())
	if err != nil {
		// Recorded specs were built once already.
		r.s.logger.Warn("recorded symmetry no longer builds", "operator", spec.String(), "err", err)
		r.s.sym.SetOperator(nil)
		return
	}
	r.s.sym.SetOperator(op)
}

func (r replayer) StartGeometry(l history.Limits) {
	r.s.startGeometry(l)
}

func (r replayer) StopGeometry() {
	r.s.stopGeometry()
}

func (r replayer) SetPalette(colors []colorutil.RGB) {
	r.s.applyPalette(colors)
	r.s.Emit(EventPaletteChanged, nil)
}

func (r replayer) SetActiveType(typ int) {
	r.s.activeType = typ
	r.s.Emit(EventActiveTypeChanged, nil)
}
