package dialogs

import (
	"fmt"
	"strconv"
	"strings"

	"voro-editor/internal/library"
	"voro-editor/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// PreferencesDialog edits the persisted editor settings. Changes take
// effect on the next start.
type PreferencesDialog struct {
	prefs  *prefs.Prefs
	window fyne.Window

	boxEntry      *widget.Entry
	historyEntry  *widget.Entry
	paletteEntry  *widget.Entry
	driverSelect  *widget.Select
	pathEntry     *widget.Entry
	bucketEntry   *widget.Entry
	regionEntry   *widget.Entry
	endpointEntry *widget.Entry
	pathStyle     *widget.Check
	metricsEntry  *widget.Entry

	// Callback
	onSave func()
}

var libraryDrivers = []string{
	string(library.DriverFS),
	string(library.DriverSQLite),
	string(library.DriverS3),
	string(library.DriverMemory),
}

// NewPreferencesDialog creates a dialog over p.
func NewPreferencesDialog(p *prefs.Prefs, window fyne.Window, onSave func()) *PreferencesDialog {
	return &PreferencesDialog{prefs: p, window: window, onSave: onSave}
}

// Show displays the dialog.
func (d *PreferencesDialog) Show() {
	content := d.createContent()

	dlg := dialog.NewCustomConfirm(
		"Preferences",
		"Save",
		"Cancel",
		content,
		func(save bool) {
			if !save {
				return
			}
			if err := d.apply(); err != nil {
				dialog.ShowError(err, d.window)
				return
			}
			if d.onSave != nil {
				d.onSave()
			}
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(480, 460))
	dlg.Show()
}

func (d *PreferencesDialog) createContent() fyne.CanvasObject {
	e := d.prefs.Editor()

	d.boxEntry = widget.NewEntry()
	d.boxEntry.SetText(strconv.FormatFloat(e.Bounds.Max.X, 'g', -1, 64))
	d.historyEntry = widget.NewEntry()
	d.historyEntry.SetText(strconv.Itoa(e.HistoryLimit))
	d.paletteEntry = widget.NewEntry()
	d.paletteEntry.SetText(strconv.Itoa(e.PaletteSize))

	d.driverSelect = widget.NewSelect(libraryDrivers, nil)
	d.driverSelect.SetSelected(string(e.Library.Driver))
	d.pathEntry = widget.NewEntry()
	d.pathEntry.SetText(e.Library.Path)
	d.bucketEntry = widget.NewEntry()
	d.bucketEntry.SetText(e.Library.Bucket)
	d.regionEntry = widget.NewEntry()
	d.regionEntry.SetText(e.Library.Region)
	d.endpointEntry = widget.NewEntry()
	d.endpointEntry.SetText(e.Library.Endpoint)
	d.endpointEntry.SetPlaceHolder("http://localhost:9000")
	d.pathStyle = widget.NewCheck("Path-style addressing", nil)
	d.pathStyle.SetChecked(e.Library.PathStyle)

	d.metricsEntry = widget.NewEntry()
	d.metricsEntry.SetText(e.MetricsAddr)
	d.metricsEntry.SetPlaceHolder("127.0.0.1:9464")

	return widget.NewForm(
		widget.NewFormItem("Box half-size", d.boxEntry),
		widget.NewFormItem("History limit", d.historyEntry),
		widget.NewFormItem("Palette size", d.paletteEntry),
		widget.NewFormItem("Library driver", d.driverSelect),
		widget.NewFormItem("Library path", d.pathEntry),
		widget.NewFormItem("S3 bucket", d.bucketEntry),
		widget.NewFormItem("S3 region", d.regionEntry),
		widget.NewFormItem("S3 endpoint", d.endpointEntry),
		widget.NewFormItem("", d.pathStyle),
		widget.NewFormItem("Metrics address", d.metricsEntry),
	)
}

func (d *PreferencesDialog) apply() error {
	half, err := strconv.ParseFloat(strings.TrimSpace(d.boxEntry.Text), 64)
	if err != nil || half <= 0 {
		return fmt.Errorf("box half-size must be a positive number")
	}
	history, err := strconv.Atoi(strings.TrimSpace(d.historyEntry.Text))
	if err != nil {
		return fmt.Errorf("history limit: %w", err)
	}
	palette, err := strconv.Atoi(strings.TrimSpace(d.paletteEntry.Text))
	if err != nil || palette < 1 {
		return fmt.Errorf("palette size must be at least 1")
	}

	d.prefs.SetFloat(prefs.KeyBoxHalf, half)
	d.prefs.SetInt(prefs.KeyHistoryLimit, history)
	d.prefs.SetInt(prefs.KeyPaletteSize, palette)
	d.prefs.SetString(prefs.KeyLibraryDriver, d.driverSelect.Selected)
	d.prefs.SetString(prefs.KeyLibraryPath, strings.TrimSpace(d.pathEntry.Text))
	d.prefs.SetString(prefs.KeyLibraryBucket, strings.TrimSpace(d.bucketEntry.Text))
	d.prefs.SetString(prefs.KeyLibraryRegion, strings.TrimSpace(d.regionEntry.Text))
	d.prefs.SetString(prefs.KeyLibraryEndpoint, strings.TrimSpace(d.endpointEntry.Text))
	d.prefs.SetBool(prefs.KeyLibraryPathStyle, d.pathStyle.Checked)
	d.prefs.SetString(prefs.KeyMetricsAddr, strings.TrimSpace(d.metricsEntry.Text))
	return nil
}
