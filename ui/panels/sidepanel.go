// Package panels provides UI panels for the application.
package panels

import (
	"voro-editor/internal/app"
	"voro-editor/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs

	// Tab content
	scenePanel   *ScenePanel
	libraryPanel *LibraryPanel
}

// NewSidePanel creates a new side panel.
func NewSidePanel(state *app.State, viewport *canvas.Viewport) *SidePanel {
	sp := &SidePanel{
		state: state,
	}

	sp.scenePanel = NewScenePanel(state, viewport)
	sp.libraryPanel = NewLibraryPanel(state)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Scene", sp.scenePanel.Container()),
		container.NewTabItem("Library", sp.libraryPanel.Container()),
	)

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// Mode returns the current viewport interaction mode.
func (sp *SidePanel) Mode() Mode {
	return sp.scenePanel.Mode()
}

// SetMode changes the interaction mode.
func (sp *SidePanel) SetMode(m Mode) {
	sp.scenePanel.SetMode(m)
}

// Refresh re-reads the session into every tab.
func (sp *SidePanel) Refresh() {
	sp.scenePanel.Refresh()
}

// RefreshLibrary reloads the library listing.
func (sp *SidePanel) RefreshLibrary() {
	sp.libraryPanel.Reload()
}

// SetWindow sets the parent window for dialogs.
func (sp *SidePanel) SetWindow(w fyne.Window) {
	sp.libraryPanel.SetWindow(w)
}
