// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"voro-editor/internal/app"
	"voro-editor/internal/generate"
	"voro-editor/internal/project"
	"voro-editor/internal/snapshot"
	"voro-editor/internal/symmetry"
	"voro-editor/internal/version"
	"voro-editor/pkg/colorutil"
	"voro-editor/pkg/geometry"
	"voro-editor/ui/canvas"
	"voro-editor/ui/dialogs"
	"voro-editor/ui/panels"
	"voro-editor/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	prefKeyLastDir     = "lastDirectory"
	prefKeyLastProject = "lastProject"
)

const selectionRadius = 7

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	viewport  *canvas.Viewport
	sidePanel *panels.SidePanel
	statusBar *widget.Label

	// Menu items that need state tracking
	undoItem     *fyne.MenuItem
	redoItem     *fyne.MenuItem
	geometryItem *fyne.MenuItem
	mainMenu     *fyne.MainMenu

	genParams generate.Params
	dragging  bool
}

// New creates a new main window. The viewport must be the binder the
// session's buffer views were created with.
func New(fyneApp fyne.App, state *app.State, viewport *canvas.Viewport, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow(version.AppName)

	mw := &MainWindow{
		Window:    win,
		app:       fyneApp,
		state:     state,
		prefs:     p,
		viewport:  viewport,
		genParams: generate.DefaultParams(),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.setupShortcuts()
	mw.refreshScene()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.viewport.OnTap(mw.onViewportTap)
	mw.viewport.OnDrag(mw.onViewportDrag)
	mw.viewport.OnDragEnd(mw.onViewportDragEnd)

	// Create the side panel with tabs
	mw.sidePanel = panels.NewSidePanel(mw.state, mw.viewport)
	mw.sidePanel.SetWindow(mw.Window)

	// Create status bar
	mw.statusBar = widget.NewLabel("Ready")

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar,     // top
		nil,         // bottom
		nil,         // left
		nil,         // right
		mw.viewport, // center
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(1200, 800))
}

// createToolbar creates the toolbar with zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	zoomOutBtn := widget.NewButton("-", mw.viewport.ZoomOut)
	zoomInBtn := widget.NewButton("+", mw.viewport.ZoomIn)
	resetBtn := widget.NewButton("1:1", mw.viewport.ResetZoom)
	undoBtn := widget.NewButton("Undo", mw.onUndo)
	redoBtn := widget.NewButton("Redo", mw.onRedo)

	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		resetBtn,
		widget.NewSeparator(),
		undoBtn,
		redoBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Scene", mw.onNewScene),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Snapshot...", mw.onImportSnapshot),
		fyne.NewMenuItem("Export Snapshot...", mw.onExportSnapshot),
		fyne.NewMenuItem("Export Mesh (STL)...", mw.onExportMesh),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	mw.undoItem = fyne.NewMenuItem("Undo", mw.onUndo)
	mw.redoItem = fyne.NewMenuItem("Redo", mw.onRedo)
	editMenu := fyne.NewMenu("Edit",
		mw.undoItem,
		mw.redoItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Clear Selection", mw.state.ClearSelection),
		fyne.NewMenuItem("Delete Selection", mw.state.DeleteSelection),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Preferences...", mw.onPreferences),
	)

	mw.geometryItem = fyne.NewMenuItem("Build Geometry", mw.onToggleGeometry)
	sceneMenu := fyne.NewMenu("Scene",
		fyne.NewMenuItem("Generate...", mw.onGenerate),
		fyne.NewMenuItemSeparator(),
		mw.geometryItem,
		fyne.NewMenuItem("Sanity Check", mw.onSanityCheck),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("View XY", func() { mw.viewport.SetPlane(canvas.PlaneXY) }),
		fyne.NewMenuItem("View XZ", func() { mw.viewport.SetPlane(canvas.PlaneXZ) }),
		fyne.NewMenuItem("View ZY", func() { mw.viewport.SetPlane(canvas.PlaneZY) }),
	)

	symmetryMenu := fyne.NewMenu("Symmetry",
		fyne.NewMenuItem("Mirror", func() { mw.onSymmetry(symmetry.Spec{Kind: symmetry.KindMirror}) }),
		fyne.NewMenuItem("Rotational (4)", func() { mw.onSymmetry(symmetry.Spec{Kind: symmetry.KindRotational, N: 4}) }),
		fyne.NewMenuItem("Dihedral (3)", func() { mw.onSymmetry(symmetry.Spec{Kind: symmetry.KindDihedral, N: 3}) }),
		fyne.NewMenuItem("Scale (4)", func() { mw.onSymmetry(symmetry.Spec{Kind: symmetry.KindScale, N: 4}) }),
		fyne.NewMenuItem("Custom...", mw.onCustomSymmetry),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Bake", mw.state.BakeSymmetry),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.mainMenu = fyne.NewMainMenu(fileMenu, editMenu, sceneMenu, symmetryMenu, mw.categoryMenu(), helpMenu)
	mw.SetMainMenu(mw.mainMenu)
}

// categoryMenu lists one item per palette entry.
func (mw *MainWindow) categoryMenu() *fyne.Menu {
	var items []*fyne.MenuItem
	for i := range mw.state.Palette() {
		typ := i + 1
		item := fyne.NewMenuItem("Category "+strconv.Itoa(typ), func() { mw.state.SetActiveCategory(typ) })
		item.Checked = typ == mw.state.ActiveType()
		items = append(items, item)
	}
	return fyne.NewMenu("Category", items...)
}

// setupEventHandlers registers for session events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(version.AppName + " - " + filepath.Base(path))
			mw.updateStatus("Project loaded: " + path)
			mw.app.Preferences().SetString(prefKeyLastProject, path)
		}
	})

	mw.state.On(app.EventProjectSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(version.AppName + " - " + filepath.Base(path))
			mw.updateStatus("Project saved: " + path)
			mw.app.Preferences().SetString(prefKeyLastProject, path)
		}
	})

	mw.state.On(app.EventSnapshotLoaded, func(data interface{}) {
		if n, ok := data.(int); ok {
			mw.updateStatus(fmt.Sprintf("Snapshot loaded: %d cells", n))
		}
		mw.viewport.SetBox(mw.state.Bounds())
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		title := mw.Title()
		if len(title) > 0 && title[len(title)-1] != '*' {
			mw.SetTitle(title + " *")
		}
	})

	for _, ev := range []app.EventType{
		app.EventCellsChanged,
		app.EventSelectionChanged,
		app.EventSymmetryChanged,
		app.EventPaletteChanged,
		app.EventActiveTypeChanged,
		app.EventGeometryChanged,
		app.EventHistoryChanged,
	} {
		mw.state.On(ev, func(interface{}) { mw.refreshScene() })
	}

	mw.state.On(app.EventPaletteChanged, func(interface{}) { mw.rebuildCategoryMenu() })
	mw.state.On(app.EventActiveTypeChanged, func(interface{}) { mw.rebuildCategoryMenu() })

	// Emitted from the frame ticker goroutine; the viewport only reads its
	// own copies of the buffers.
	mw.state.On(app.EventRedraw, func(interface{}) {
		mw.viewport.Refresh()
	})
}

// setupShortcuts binds keyboard shortcuts.
func (mw *MainWindow) setupShortcuts() {
	c := mw.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { mw.onUndo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift},
		func(fyne.Shortcut) { mw.onRedo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { mw.onSaveProject() })
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyEscape:
			mw.state.ClearSelection()
		case fyne.KeyDelete, fyne.KeyBackspace:
			mw.state.DeleteSelection()
		case fyne.KeyA:
			mw.sidePanel.SetMode(panels.ModeAdd)
		case fyne.KeyS:
			mw.sidePanel.SetMode(panels.ModeSelect)
		case fyne.KeyT:
			mw.sidePanel.SetMode(panels.ModeToggle)
		case fyne.KeyD:
			mw.sidePanel.SetMode(panels.ModeDelete)
		}
	})
}

// refreshScene pushes session state into the viewport and panels.
func (mw *MainWindow) refreshScene() {
	mw.viewport.SetSiteColors(mw.siteColors())
	mw.viewport.SetMarkers(mw.selectionMarkers())
	mw.sidePanel.Refresh()

	mw.undoItem.Disabled = !mw.state.CanUndo()
	mw.redoItem.Disabled = !mw.state.CanRedo()
	if mw.state.GeometryActive() {
		mw.geometryItem.Label = "Stop Geometry"
	} else {
		mw.geometryItem.Label = "Build Geometry"
	}
	mw.mainMenu.Refresh()

	st := mw.state.Stats()
	mw.updateStatus(fmt.Sprintf("%s | %d cells (%d active) | %d selected | history %d/%d",
		mw.sidePanel.Mode(), st.Cells, st.Active, len(mw.state.Selection()), st.Cursor, st.History))
}

func (mw *MainWindow) rebuildCategoryMenu() {
	mw.mainMenu.Items[4] = mw.categoryMenu()
	mw.mainMenu.Refresh()
}

// siteColors returns one color per kernel slot, matching the site buffer.
func (mw *MainWindow) siteColors() []color.RGBA {
	k := mw.state.Kernel()
	palette := mw.state.Palette()
	colors := make([]color.RGBA, k.CellCount())
	for i := range colors {
		typ := k.CellType(i)
		if typ == 0 {
			colors[i] = canvas.InactiveColor
			continue
		}
		c := colorutil.ToNRGBA(colorutil.ForType(palette, typ))
		colors[i] = color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
	}
	return colors
}

func (mw *MainWindow) selectionMarkers() []canvas.Marker {
	sel := mw.state.Selection()
	markers := make([]canvas.Marker, 0, len(sel))
	for _, id := range sel {
		if c, ok := mw.state.Cell(id); ok {
			markers = append(markers, canvas.Marker{Pos: c.Pos, Radius: selectionRadius, Color: canvas.SelectionColor})
		}
	}
	return markers
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// Viewport interaction

func (mw *MainWindow) onViewportTap(world r3.Vec, site int) {
	switch mw.sidePanel.Mode() {
	case panels.ModeAdd:
		mw.state.AddCellAt(world)
	case panels.ModeSelect:
		if site < 0 {
			mw.state.ClearSelection()
			return
		}
		mw.state.ToggleSelected(mw.state.Registry().IDOf(site))
	case panels.ModeToggle:
		if site >= 0 {
			mw.state.ToggleCellAt(site)
		}
	case panels.ModeDelete:
		if site >= 0 {
			mw.state.DeleteCellAt(site)
		}
	}
}

func (mw *MainWindow) onViewportDrag(delta r3.Vec) {
	if mw.sidePanel.Mode() != panels.ModeSelect || len(mw.state.Selection()) == 0 {
		return
	}
	if !mw.dragging {
		mw.dragging = true
		mw.state.BeginDrag()
	}
	mw.state.TranslateSelection(delta)
}

func (mw *MainWindow) onViewportDragEnd() {
	if !mw.dragging {
		return
	}
	mw.dragging = false
	mw.state.EndDrag()
}

// File dialogs

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		path = mw.prefs.String(prefs.KeyLastDir)
	}
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	dir := filepath.Dir(filePath)
	mw.app.Preferences().SetString(prefKeyLastDir, dir)
	mw.prefs.SetString(prefs.KeyLastDir, dir)
}

func (mw *MainWindow) openFile(exts []string, fn func(path string) error) {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := fn(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(exts))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) saveFile(name, ext string, fn func(path string) error) {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ext {
			path += ext
		}
		mw.saveLastDir(path)
		if err := fn(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName(name + ext)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// Menu action handlers

func (mw *MainWindow) onNewScene() {
	empty := snapshot.Encode(snapshot.Snapshot{
		Min:     geometry.ToF32(mw.state.Bounds().Min),
		Max:     geometry.ToF32(mw.state.Bounds().Max),
		Palette: mw.state.Palette(),
	})
	if err := mw.state.LoadSnapshot(empty); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.state.ProjectPath = ""
	mw.state.Project = nil
	mw.state.SetModified(false)
	mw.SetTitle(version.AppName + " - New Scene")
}

func (mw *MainWindow) onOpenProject() {
	mw.openFile([]string{project.Extension}, mw.state.LoadProject)
}

func (mw *MainWindow) onSaveProject() {
	if mw.state.ProjectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	if err := mw.state.SaveProject(mw.state.ProjectPath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveProjectAs() {
	mw.saveFile("scene", project.Extension, mw.state.SaveProject)
}

func (mw *MainWindow) onImportSnapshot() {
	mw.openFile([]string{snapshot.Extension}, func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return mw.state.LoadSnapshot(data)
	})
}

func (mw *MainWindow) onExportSnapshot() {
	mw.saveFile("scene", snapshot.Extension, func(path string) error {
		if err := os.WriteFile(path, mw.state.ExportSnapshot(), 0644); err != nil {
			return err
		}
		mw.updateStatus("Snapshot exported: " + path)
		return nil
	})
}

func (mw *MainWindow) onExportMesh() {
	mw.saveFile("scene", ".stl", func(path string) error {
		data := mw.state.ExportTriangleMeshBinary()
		if err := os.WriteFile(path, data, 0644); err != nil {
			return err
		}
		n, _ := snapshot.TriangleMeshCount(data)
		mw.updateStatus(fmt.Sprintf("Mesh exported: %d triangles", n))
		return nil
	})
}

func (mw *MainWindow) onUndo() {
	if !mw.state.Undo() {
		mw.updateStatus("Nothing to undo")
	}
}

func (mw *MainWindow) onRedo() {
	if !mw.state.Redo() {
		mw.updateStatus("Nothing to redo")
	}
}

func (mw *MainWindow) onPreferences() {
	dialogs.NewPreferencesDialog(mw.prefs, mw.Window, func() {
		mw.updateStatus("Preferences saved; restart to apply")
	}).Show()
}

func (mw *MainWindow) onGenerate() {
	dialogs.NewGenerateDialog(mw.genParams, mw.Window, func(p generate.Params) error {
		if err := mw.state.Generate(p); err != nil {
			return err
		}
		mw.genParams = p
		mw.updateStatus(fmt.Sprintf("Generated %d cells (%s)", p.Count, p.Kind))
		return nil
	}).Show()
}

func (mw *MainWindow) onToggleGeometry() {
	if mw.state.GeometryActive() {
		mw.state.StopGeometry()
	} else {
		mw.state.StartGeometry()
	}
}

func (mw *MainWindow) onSanityCheck() {
	if mw.state.Sanity("menu") {
		mw.updateStatus("Sanity check passed")
		return
	}
	dialog.ShowInformation("Sanity Check", "The scene failed its consistency checks. See the log for details.", mw.Window)
}

func (mw *MainWindow) onSymmetry(spec symmetry.Spec) {
	if err := mw.state.EnableSymmetry(spec); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus("Symmetry: " + spec.String())
}

func (mw *MainWindow) onCustomSymmetry() {
	spec := symmetry.Spec{Kind: symmetry.KindMirror}
	if cur := mw.state.Symmetry(); cur != nil {
		spec = *cur
	}
	dialogs.NewSymmetryDialog(spec, mw.Window, mw.state.EnableSymmetry).Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+version.AppName,
		fmt.Sprintf("%s v%s\n\n"+
			"An editor for 3D Voronoi cell complexes.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.AppName, version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// RestoreLastProject reopens the project used in the previous session.
func (mw *MainWindow) RestoreLastProject() {
	path := mw.app.Preferences().String(prefKeyLastProject)
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := mw.state.LoadProject(path); err != nil {
		mw.updateStatus("Could not reopen " + filepath.Base(path) + ": " + err.Error())
	}
}
