package panels

import (
	"fmt"
	"strconv"

	"voro-editor/internal/app"
	"voro-editor/pkg/colorutil"
	"voro-editor/ui/canvas"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Mode selects what a click in the viewport does.
type Mode int

const (
	ModeAdd Mode = iota
	ModeSelect
	ModeToggle
	ModeDelete
)

var modeNames = []string{"Add", "Select", "Toggle", "Delete"}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode maps a radio label back to its mode.
func ParseMode(name string) (Mode, bool) {
	for i, n := range modeNames {
		if n == name {
			return Mode(i), true
		}
	}
	return ModeAdd, false
}

// ScenePanel shows scene statistics and the editing controls.
type ScenePanel struct {
	state     *app.State
	viewport  *canvas.Viewport
	container fyne.CanvasObject

	statsLabel    *widget.Label
	symmetryLabel *widget.Label
	modeGroup     *widget.RadioGroup
	categorySel   *widget.Select
	geometryCheck *widget.Check
	planeSelect   *widget.Select
	swatches      *fyne.Container

	mode     Mode
	updating bool
}

// NewScenePanel creates a new scene panel.
func NewScenePanel(state *app.State, viewport *canvas.Viewport) *ScenePanel {
	sp := &ScenePanel{
		state:    state,
		viewport: viewport,
	}

	sp.statsLabel = widget.NewLabel("")
	sp.symmetryLabel = widget.NewLabel("")

	sp.modeGroup = widget.NewRadioGroup(modeNames, func(selected string) {
		if m, ok := ParseMode(selected); ok {
			sp.mode = m
		}
	})
	sp.modeGroup.Horizontal = true
	sp.modeGroup.Required = true
	sp.modeGroup.SetSelected(ModeAdd.String())

	sp.categorySel = widget.NewSelect(nil, func(selected string) {
		if sp.updating {
			return
		}
		if typ, err := strconv.Atoi(selected); err == nil {
			state.SetActiveCategory(typ)
		}
	})

	sp.geometryCheck = widget.NewCheck("Build geometry", func(on bool) {
		if sp.updating {
			return
		}
		if on {
			state.StartGeometry()
		} else {
			state.StopGeometry()
		}
	})

	planes := []string{canvas.PlaneXY.String(), canvas.PlaneXZ.String(), canvas.PlaneZY.String()}
	sp.planeSelect = widget.NewSelect(planes, func(selected string) {
		for i, name := range planes {
			if name == selected {
				viewport.SetPlane(canvas.Plane(i))
			}
		}
	})
	sp.planeSelect.SetSelected(viewport.Plane().String())

	sp.swatches = container.NewGridWrap(fyne.NewSize(24, 24))

	sp.container = container.NewVBox(
		widget.NewCard("Scene", "", container.NewVBox(sp.statsLabel, sp.symmetryLabel)),
		widget.NewCard("Mode", "", sp.modeGroup),
		widget.NewCard("Category", "", container.NewVBox(sp.categorySel, sp.swatches)),
		widget.NewCard("View", "", container.NewVBox(sp.planeSelect, sp.geometryCheck)),
	)

	sp.Refresh()
	return sp
}

// Container returns the panel container.
func (sp *ScenePanel) Container() fyne.CanvasObject {
	return sp.container
}

// Mode returns the selected interaction mode.
func (sp *ScenePanel) Mode() Mode {
	return sp.mode
}

// SetMode selects an interaction mode.
func (sp *ScenePanel) SetMode(m Mode) {
	sp.modeGroup.SetSelected(m.String())
}

// Refresh updates the widgets from the session.
func (sp *ScenePanel) Refresh() {
	sp.updating = true
	defer func() { sp.updating = false }()

	st := sp.state.Stats()
	sp.statsLabel.SetText(fmt.Sprintf("%d cells, %d active\nHistory %d/%d",
		st.Cells, st.Active, st.Cursor, st.History))

	if spec := sp.state.Symmetry(); spec != nil {
		sp.symmetryLabel.SetText(fmt.Sprintf("Symmetry: %s, %d orbits", spec, st.Orbits))
	} else {
		sp.symmetryLabel.SetText("Symmetry: none")
	}

	palette := sp.state.Palette()
	options := make([]string, len(palette))
	for i := range palette {
		options[i] = strconv.Itoa(i + 1)
	}
	sp.categorySel.Options = options
	sp.categorySel.SetSelected(strconv.Itoa(sp.state.ActiveType()))

	sp.swatches.RemoveAll()
	for i, c := range palette {
		rect := fynecanvas.NewRectangle(colorutil.ToNRGBA(c))
		if i+1 == sp.state.ActiveType() {
			rect.StrokeColor = canvas.SelectionColor
			rect.StrokeWidth = 2
		}
		sp.swatches.Add(rect)
	}

	sp.geometryCheck.SetChecked(sp.state.GeometryActive())
}
