package history

import (
	"fmt"

	"voro-editor/internal/kernel"
	"voro-editor/internal/symmetry"
	"voro-editor/pkg/colorutil"

	"gonum.org/v1/gonum/spatial/r3"
)

// Direction selects whether an action is applied or inverted.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Applier is the editor surface actions are replayed against. Every method
// must tolerate ids that no longer exist.
type Applier interface {
	CreateCells(cells []kernel.Cell)
	DeleteCells(ids []kernel.ID)
	SetTypes(changes []TypeChange, dir Direction)
	MoveCells(ids []kernel.ID, pts []r3.Vec)
	ReplaceOrbits(out, in []symmetry.Orbit)
	SetSymmetry(spec *symmetry.Spec)
	StartGeometry(l Limits)
	StopGeometry()
	SetPalette(colors []colorutil.RGB)
	SetActiveType(typ int)
}

// Apply performs act, or its inverse when dir is Backward.
func Apply(a Applier, act Action, dir Direction) {
	fwd := dir == Forward
	switch act := act.(type) {
	case Add:
		if fwd {
			a.CreateCells(act.Cells)
			a.SetTypes(overrides(act.Overrides), Forward)
			if act.Orbit != nil {
				a.ReplaceOrbits(nil, []symmetry.Orbit{*act.Orbit})
			}
			return
		}
		if act.Orbit != nil {
			a.ReplaceOrbits([]symmetry.Orbit{*act.Orbit}, nil)
		}
		a.SetTypes(overrides(act.Overrides), Backward)
		a.DeleteCells(ids(act.Cells))

	case Delete:
		if fwd {
			a.DeleteCells(ids(act.Cells))
		} else {
			a.CreateCells(act.Cells)
		}

	case Toggle:
		a.SetTypes(act.Changes, dir)

	case SetType:
		a.SetTypes(act.Changes, dir)

	case Move:
		if fwd {
			a.MoveCells(act.IDs, act.To)
		} else {
			a.MoveCells(act.IDs, act.From)
		}

	case EnableSymmetry:
		if fwd {
			a.ReplaceOrbits(act.MapBefore, nil)
			a.SetSymmetry(act.After)
			a.CreateCells(act.Created)
			a.SetTypes(overrides(act.Overrides), Forward)
			a.ReplaceOrbits(nil, act.MapAfter)
			return
		}
		a.ReplaceOrbits(act.MapAfter, nil)
		a.SetTypes(overrides(act.Overrides), Backward)
		a.DeleteCells(ids(act.Created))
		a.SetSymmetry(act.Before)
		a.ReplaceOrbits(nil, act.MapBefore)

	case UpdateSymmetryMap:
		if fwd {
			a.ReplaceOrbits(act.Before, act.After)
		} else {
			a.ReplaceOrbits(act.After, act.Before)
		}

	case StartGL:
		if fwd {
			a.StartGeometry(act.Limits)
		} else {
			a.StopGeometry()
		}

	case StopGL:
		if fwd {
			a.StopGeometry()
		} else {
			a.StartGeometry(act.Limits)
		}

	case SetPalette:
		if fwd {
			a.SetPalette(act.After)
		} else {
			a.SetPalette(act.Before)
		}

	case SetActiveType:
		if fwd {
			a.SetActiveType(act.After)
		} else {
			a.SetActiveType(act.Before)
		}

	default:
		panic(fmt.Sprintf("history: unknown action %T", act))
	}
}

// ApplyTransaction replays every action of tx: in order going forward, in
// reverse order going backward.
func ApplyTransaction(a Applier, tx Transaction, dir Direction) {
	if dir == Forward {
		for _, act := range tx.Actions {
			Apply(a, act, Forward)
		}
		return
	}
	for i := len(tx.Actions) - 1; i >= 0; i-- {
		Apply(a, tx.Actions[i], Backward)
	}
}

func ids(cells []kernel.Cell) []kernel.ID {
	out := make([]kernel.ID, len(cells))
	for i, c := range cells {
		out[i] = c.ID
	}
	return out
}

func overrides(in []symmetry.TypeOverride) []TypeChange {
	out := make([]TypeChange, len(in))
	for i, o := range in {
		out[i] = TypeChange{ID: o.ID, Before: o.Before, After: o.After}
	}
	return out
}
