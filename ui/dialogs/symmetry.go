// Package dialogs provides application dialogs.
package dialogs

import (
	"fmt"
	"strconv"
	"strings"

	"voro-editor/internal/symmetry"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"gonum.org/v1/gonum/spatial/r3"
)

// SymmetryDialog edits a symmetry operator spec.
type SymmetryDialog struct {
	spec   symmetry.Spec
	window fyne.Window

	kindSelect   *widget.Select
	orderEntry   *widget.Entry
	axisEntry    *widget.Entry
	normalEntry  *widget.Entry
	factorEntry  *widget.Entry
	previewLabel *widget.Label

	// Callback
	onApply func(symmetry.Spec) error
}

var symmetryKinds = []string{
	string(symmetry.KindMirror),
	string(symmetry.KindRotational),
	string(symmetry.KindDihedral),
	string(symmetry.KindScale),
}

// NewSymmetryDialog creates a dialog starting from spec.
func NewSymmetryDialog(spec symmetry.Spec, window fyne.Window, onApply func(symmetry.Spec) error) *SymmetryDialog {
	if spec.Kind == "" || spec.Kind == symmetry.KindNone {
		spec.Kind = symmetry.KindMirror
	}
	return &SymmetryDialog{spec: spec, window: window, onApply: onApply}
}

// Show displays the dialog.
func (d *SymmetryDialog) Show() {
	content := d.createContent()

	dlg := dialog.NewCustomConfirm(
		"Symmetry",
		"Enable",
		"Cancel",
		content,
		func(ok bool) {
			if !ok {
				return
			}
			spec, err := d.parse()
			if err == nil && d.onApply != nil {
				err = d.onApply(spec)
			}
			if err != nil {
				dialog.ShowError(err, d.window)
			}
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(420, 320))
	dlg.Show()
}

func (d *SymmetryDialog) createContent() fyne.CanvasObject {
	d.previewLabel = widget.NewLabel("")
	d.orderEntry = widget.NewEntry()
	d.axisEntry = widget.NewEntry()
	d.normalEntry = widget.NewEntry()
	d.factorEntry = widget.NewEntry()

	if d.spec.N > 0 {
		d.orderEntry.SetText(strconv.Itoa(d.spec.N))
	}
	d.axisEntry.SetText(formatVec(d.spec.Axis))
	d.normalEntry.SetText(formatVec(d.spec.Normal))
	if d.spec.Factor > 0 {
		d.factorEntry.SetText(strconv.FormatFloat(d.spec.Factor, 'g', -1, 64))
	}
	d.orderEntry.SetPlaceHolder(strconv.Itoa(symmetry.DefaultN))
	d.axisEntry.SetPlaceHolder(formatVec(symmetry.DefaultAxis))
	d.normalEntry.SetPlaceHolder(formatVec(symmetry.DefaultNormal))
	d.factorEntry.SetPlaceHolder(strconv.FormatFloat(symmetry.DefaultFactor, 'g', -1, 64))

	for _, e := range []*widget.Entry{d.orderEntry, d.axisEntry, d.normalEntry, d.factorEntry} {
		e.OnChanged = func(string) { d.updatePreview() }
	}

	// Created last: SetSelected fires OnChanged
	d.kindSelect = widget.NewSelect(symmetryKinds, func(string) { d.updatePreview() })
	d.kindSelect.SetSelected(string(d.spec.Kind))

	return widget.NewForm(
		widget.NewFormItem("Kind", d.kindSelect),
		widget.NewFormItem("Order (n)", d.orderEntry),
		widget.NewFormItem("Axis (x y z)", d.axisEntry),
		widget.NewFormItem("Normal (x y z)", d.normalEntry),
		widget.NewFormItem("Factor", d.factorEntry),
		widget.NewFormItem("", d.previewLabel),
	)
}

func (d *SymmetryDialog) updatePreview() {
	if d.previewLabel == nil || d.kindSelect == nil {
		return
	}
	spec, err := d.parse()
	if err != nil {
		d.previewLabel.SetText(err.Error())
		return
	}
	op, err := spec.Build(r3.Vec{})
	if err != nil {
		d.previewLabel.SetText(err.Error())
		return
	}
	d.previewLabel.SetText(fmt.Sprintf("%s: %d cells per orbit", op.Spec(), op.Iterations()+1))
}

func (d *SymmetryDialog) parse() (symmetry.Spec, error) {
	spec := symmetry.Spec{Kind: symmetry.Kind(d.kindSelect.Selected)}
	var err error
	if s := strings.TrimSpace(d.orderEntry.Text); s != "" {
		if spec.N, err = strconv.Atoi(s); err != nil {
			return spec, fmt.Errorf("order: %w", err)
		}
	}
	if spec.Axis, err = ParseVec(d.axisEntry.Text); err != nil {
		return spec, fmt.Errorf("axis: %w", err)
	}
	if spec.Normal, err = ParseVec(d.normalEntry.Text); err != nil {
		return spec, fmt.Errorf("normal: %w", err)
	}
	if s := strings.TrimSpace(d.factorEntry.Text); s != "" {
		if spec.Factor, err = strconv.ParseFloat(s, 64); err != nil {
			return spec, fmt.Errorf("factor: %w", err)
		}
	}
	return spec, nil
}

// ParseVec parses "x y z" (commas allowed). Empty text is the zero vector,
// which selects the default.
func ParseVec(text string) (r3.Vec, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) == 0 {
		return r3.Vec{}, nil
	}
	if len(fields) != 3 {
		return r3.Vec{}, fmt.Errorf("want 3 components, got %d", len(fields))
	}
	var c [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return r3.Vec{}, err
		}
		c[i] = v
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

func formatVec(v r3.Vec) string {
	if v == (r3.Vec{}) {
		return ""
	}
	return fmt.Sprintf("%g %g %g", v.X, v.Y, v.Z)
}
