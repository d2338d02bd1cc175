package dialogs

import (
	"fmt"
	"strconv"

	"voro-editor/internal/generate"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// GenerateDialog collects procedural generation parameters.
type GenerateDialog struct {
	params generate.Params
	window fyne.Window

	kindSelect *widget.Select
	countEntry *widget.Entry
	seedEntry  *widget.Entry
	fillSlider *widget.Slider
	fillLabel  *widget.Label

	// Callback
	onGenerate func(generate.Params) error
}

var generateKinds = []string{
	string(generate.Uniform),
	string(generate.Grid),
	string(generate.Sphere),
	string(generate.Spiral),
}

// NewGenerateDialog creates a dialog starting from params.
func NewGenerateDialog(params generate.Params, window fyne.Window, onGenerate func(generate.Params) error) *GenerateDialog {
	return &GenerateDialog{params: params, window: window, onGenerate: onGenerate}
}

// Show displays the dialog.
func (d *GenerateDialog) Show() {
	content := d.createContent()

	dlg := dialog.NewCustomConfirm(
		"Generate Scene",
		"Generate",
		"Cancel",
		content,
		func(ok bool) {
			if !ok {
				return
			}
			params, err := d.parse()
			if err == nil && d.onGenerate != nil {
				err = d.onGenerate(params)
			}
			if err != nil {
				dialog.ShowError(err, d.window)
			}
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(400, 300))
	dlg.Show()
}

func (d *GenerateDialog) createContent() fyne.CanvasObject {
	d.kindSelect = widget.NewSelect(generateKinds, nil)
	kind := d.params.Kind
	if kind == "" {
		kind = generate.Uniform
	}
	d.kindSelect.SetSelected(string(kind))

	d.countEntry = widget.NewEntry()
	d.countEntry.SetText(strconv.Itoa(d.params.Count))
	d.seedEntry = widget.NewEntry()
	d.seedEntry.SetText(strconv.FormatInt(d.params.Seed, 10))

	d.fillLabel = widget.NewLabel("")
	d.fillSlider = widget.NewSlider(0, 100)
	d.fillSlider.Step = 1
	d.fillSlider.OnChanged = func(v float64) {
		if v == 0 {
			d.fillLabel.SetText("center cell only")
		} else {
			d.fillLabel.SetText(fmt.Sprintf("%.0f%% active", v))
		}
	}
	d.fillSlider.SetValue(d.params.Fill)
	d.fillSlider.OnChanged(d.params.Fill)

	return widget.NewForm(
		widget.NewFormItem("Distribution", d.kindSelect),
		widget.NewFormItem("Cells", d.countEntry),
		widget.NewFormItem("Seed", d.seedEntry),
		widget.NewFormItem("Fill", d.fillSlider),
		widget.NewFormItem("", d.fillLabel),
	)
}

func (d *GenerateDialog) parse() (generate.Params, error) {
	p := generate.Params{Kind: generate.Kind(d.kindSelect.Selected), Fill: d.fillSlider.Value}
	var err error
	if p.Count, err = strconv.Atoi(d.countEntry.Text); err != nil {
		return p, fmt.Errorf("cells: %w", err)
	}
	if p.Count < 0 {
		return p, fmt.Errorf("cells: %d is negative", p.Count)
	}
	if p.Seed, err = strconv.ParseInt(d.seedEntry.Text, 10, 64); err != nil {
		return p, fmt.Errorf("seed: %w", err)
	}
	return p, nil
}
