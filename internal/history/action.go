// Package history records reversible edits and replays them for undo and
// redo.
//
// Every action names cells by stable id and carries the values it replaced,
// never slot indices, so replaying is valid after any reshuffling.
package history

import (
	"voro-editor/internal/kernel"
	"voro-editor/internal/symmetry"
	"voro-editor/pkg/colorutil"

	"gonum.org/v1/gonum/spatial/r3"
)

// Action is one reversible edit. The set of actions is closed; Apply is the
// only dispatcher.
type Action interface {
	Name() string
	action()
}

// TypeChange is one cell's type before and after an edit.
type TypeChange struct {
	ID     kernel.ID
	Before int
	After  int
}

// Limits are the buffer sizes passed to the kernel when geometry starts.
type Limits struct {
	MaxTriangles    int
	MaxPreviewVerts int
	MaxSites        int
}

// Add creates Cells. When symmetry was active, Orbit is the orbit the first
// cell anchored and Overrides the conflict resolution applied to it.
type Add struct {
	Cells     []kernel.Cell
	Orbit     *symmetry.Orbit
	Overrides []symmetry.TypeOverride
}

// Delete removes Cells, which hold the state needed to re-create them.
type Delete struct {
	Cells []kernel.Cell
}

// Toggle flips cells between inactive and the active category.
type Toggle struct {
	Changes []TypeChange
}

// SetType assigns explicit types.
type SetType struct {
	Changes []TypeChange
}

// Move relocates a batch of cells.
type Move struct {
	IDs  []kernel.ID
	From []r3.Vec
	To   []r3.Vec
}

// EnableSymmetry switches the active operator. After is nil for a bake.
type EnableSymmetry struct {
	Before, After       *symmetry.Spec
	MapBefore, MapAfter []symmetry.Orbit
	Created             []kernel.Cell
	Overrides           []symmetry.TypeOverride
}

// UpdateSymmetryMap swaps orbits in the symmetry map.
type UpdateSymmetryMap struct {
	Before, After []symmetry.Orbit
}

// StartGL enables geometry output.
type StartGL struct {
	Limits Limits
}

// StopGL disables geometry output.
type StopGL struct {
	Limits Limits
}

// SetPalette replaces the palette.
type SetPalette struct {
	Before, After []colorutil.RGB
}

// SetActiveType changes the category used for new and toggled cells.
type SetActiveType struct {
	Before, After int
}

func (Add) Name() string               { return "add" }
func (Delete) Name() string            { return "delete" }
func (Toggle) Name() string            { return "toggle" }
func (SetType) Name() string           { return "set_type" }
func (Move) Name() string              { return "move" }
func (EnableSymmetry) Name() string    { return "enable_symmetry" }
func (UpdateSymmetryMap) Name() string { return "update_symmetry_map" }
func (StartGL) Name() string           { return "start_gl" }
func (StopGL) Name() string            { return "stop_gl" }
func (SetPalette) Name() string        { return "set_palette" }
func (SetActiveType) Name() string     { return "set_active_type" }

func (Add) action()               {}
func (Delete) action()            {}
func (Toggle) action()            {}
func (SetType) action()           {}
func (Move) action()              {}
func (EnableSymmetry) action()    {}
func (UpdateSymmetryMap) action() {}
func (StartGL) action()           {}
func (StopGL) action()            {}
func (SetPalette) action()        {}
func (SetActiveType) action()     {}

// Transaction is the group of actions produced by one gesture, with the
// selection on either side of it.
type Transaction struct {
	Actions         []Action
	SelectionBefore []kernel.ID
	SelectionAfter  []kernel.ID
}
