package panels

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"voro-editor/internal/app"
	"voro-editor/internal/library"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// libraryTimeout bounds one request to the snapshot store.
const libraryTimeout = 10 * time.Second

// LibraryPanel browses the snapshot library.
type LibraryPanel struct {
	state     *app.State
	window    fyne.Window
	container fyne.CanvasObject

	entries   []library.Entry
	selected  int
	list      *widget.List
	nameEntry *widget.Entry
	status    *widget.Label
}

// NewLibraryPanel creates a new library panel.
func NewLibraryPanel(state *app.State) *LibraryPanel {
	lp := &LibraryPanel{
		state:    state,
		selected: -1,
	}

	lp.list = widget.NewList(
		func() int {
			return len(lp.entries)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Snapshot")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < len(lp.entries) {
				obj.(*widget.Label).SetText(describeEntry(lp.entries[id]))
			}
		},
	)
	lp.list.OnSelected = func(id widget.ListItemID) {
		if id < len(lp.entries) {
			lp.selected = id
			lp.nameEntry.SetText(lp.entries[id].Name)
		}
	}

	lp.nameEntry = widget.NewEntry()
	lp.nameEntry.SetPlaceHolder("snapshot name")
	lp.status = widget.NewLabel("")

	saveBtn := widget.NewButton("Save", lp.onSave)
	loadBtn := widget.NewButton("Load", lp.onLoad)
	deleteBtn := widget.NewButton("Delete", lp.onDelete)
	refreshBtn := widget.NewButton("Refresh", lp.Reload)

	lp.container = container.NewBorder(
		container.NewVBox(lp.nameEntry, container.NewGridWithColumns(4, saveBtn, loadBtn, deleteBtn, refreshBtn)),
		lp.status,
		nil, nil,
		lp.list,
	)

	lp.Reload()
	return lp
}

// Container returns the panel container.
func (lp *LibraryPanel) Container() fyne.CanvasObject {
	return lp.container
}

// SetWindow sets the parent window for dialogs.
func (lp *LibraryPanel) SetWindow(w fyne.Window) {
	lp.window = w
}

// Reload lists the store in the background and refreshes the list.
func (lp *LibraryPanel) Reload() {
	store := lp.state.Library()
	if store == nil {
		lp.entries = nil
		lp.list.Refresh()
		lp.status.SetText("No library configured")
		return
	}
	lp.status.SetText("Loading...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), libraryTimeout)
		defer cancel()
		entries, err := store.List(ctx)
		if err != nil {
			lp.status.SetText(fmt.Sprintf("List failed: %v", err))
			return
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		lp.entries = entries
		lp.selected = -1
		lp.list.UnselectAll()
		lp.list.Refresh()
		lp.status.SetText(fmt.Sprintf("%d snapshots (%s)", len(entries), store.Driver()))
	}()
}

func (lp *LibraryPanel) onSave() {
	name := strings.TrimSpace(lp.nameEntry.Text)
	if name == "" {
		lp.showError(library.ErrInvalidName)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), libraryTimeout)
	defer cancel()
	e, err := lp.state.SaveToLibrary(ctx, name)
	if err != nil {
		lp.showError(err)
		return
	}
	lp.status.SetText(fmt.Sprintf("Saved %s", e.Name))
	lp.Reload()
}

func (lp *LibraryPanel) onLoad() {
	name := strings.TrimSpace(lp.nameEntry.Text)
	if name == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), libraryTimeout)
	defer cancel()
	if err := lp.state.LoadFromLibrary(ctx, name); err != nil {
		lp.showError(err)
		return
	}
	lp.status.SetText(fmt.Sprintf("Loaded %s", name))
}

func (lp *LibraryPanel) onDelete() {
	store := lp.state.Library()
	name := strings.TrimSpace(lp.nameEntry.Text)
	if store == nil || name == "" {
		return
	}
	confirm := func(ok bool) {
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), libraryTimeout)
		defer cancel()
		found, err := store.Delete(ctx, name)
		if err != nil {
			lp.showError(err)
			return
		}
		if !found {
			lp.showError(fmt.Errorf("%s: %w", name, library.ErrNotFound))
			return
		}
		lp.nameEntry.SetText("")
		lp.Reload()
	}
	if lp.window == nil {
		confirm(true)
		return
	}
	dialog.ShowConfirm("Delete Snapshot", fmt.Sprintf("Delete %q from the library?", name), confirm, lp.window)
}

func (lp *LibraryPanel) showError(err error) {
	if errors.Is(err, app.ErrNoLibrary) {
		lp.status.SetText("No library configured")
	}
	if lp.window != nil {
		dialog.ShowError(err, lp.window)
		return
	}
	lp.status.SetText(err.Error())
}

func describeEntry(e library.Entry) string {
	return fmt.Sprintf("%s  (%s, %s)", e.Name, formatSize(e.Size), e.Modified.Local().Format("2006-01-02 15:04"))
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
