// Package app provides the editor session: the cell set, its symmetry and
// history, the buffer views the renderer reads, and the events the UI
// listens to.
package app

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"voro-editor/internal/bufview"
	"voro-editor/internal/history"
	"voro-editor/internal/kernel"
	"voro-editor/internal/kernel/refkernel"
	"voro-editor/internal/library"
	"voro-editor/internal/metrics"
	"voro-editor/internal/project"
	"voro-editor/internal/registry"
	"voro-editor/internal/symmetry"
	"voro-editor/pkg/colorutil"
	"voro-editor/pkg/geometry"
)

// Default geometry limits passed to the kernel when geometry is started.
const (
	DefaultMaxTriangles    = 32768
	DefaultMaxPreviewVerts = 1024
	DefaultMaxSites        = 4096
	DefaultHistoryLimit    = 500
	DefaultPaletteSize     = 6
)

// Options configures a State. Zero values select defaults.
type Options struct {
	Bounds       geometry.Box
	Factory      kernel.Factory
	Limits       history.Limits
	HistoryLimit int
	PaletteSize  int
	Binder       bufview.Binder
	Metrics      *metrics.Metrics
	Library      library.Store
	Logger       *slog.Logger

	// Geometry starts the kernel producing geometry without recording it.
	Geometry bool
}

// DefaultLimits returns the geometry limits used when none are configured.
func DefaultLimits() history.Limits {
	return history.Limits{
		MaxTriangles:    DefaultMaxTriangles,
		MaxPreviewVerts: DefaultMaxPreviewVerts,
		MaxSites:        DefaultMaxSites,
	}
}

// State holds one editing session.
//
// State is not safe for concurrent edits: every method that changes the scene
// must run on the UI goroutine. Only listener registration is guarded.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath string
	Project     *project.File
	Modified    bool

	factory kernel.Factory
	box     geometry.Box
	reg     *registry.Registry
	sym     *symmetry.Engine
	log     *history.Log
	views   *bufview.Manager
	binder  bufview.Binder
	metrics *metrics.Metrics
	store   library.Store
	logger  *slog.Logger

	// Editing mode
	activeType int
	palette    []colorutil.RGB
	selection  []kernel.ID

	// Geometry
	limits     history.Limits
	geometryOn bool
	preview    kernel.ID

	// Selection at the start of an open drag
	dragBefore []kernel.ID

	// Set by edits, cleared by Tick
	dirty atomic.Bool

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different session events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventSnapshotLoaded
	EventCellsChanged
	EventSelectionChanged
	EventSymmetryChanged
	EventPaletteChanged
	EventActiveTypeChanged
	EventGeometryChanged
	EventHistoryChanged
	EventModified
	EventRedraw
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a session over an empty scene.
func NewState(opts Options) *State {
	if opts.Bounds.Empty() {
		opts.Bounds = geometry.Cube(10)
	}
	if opts.Factory == nil {
		opts.Factory = refkernel.Factory
	}
	if opts.Limits == (history.Limits{}) {
		opts.Limits = DefaultLimits()
	}
	if opts.HistoryLimit == 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.PaletteSize <= 0 {
		opts.PaletteSize = DefaultPaletteSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	k := opts.Factory(opts.Bounds)
	palette := colorutil.DefaultPalette(opts.PaletteSize)
	k.SetPalette(palette)

	s := &State{
		factory:    opts.Factory,
		box:        opts.Bounds,
		reg:        registry.New(k),
		binder:     opts.Binder,
		metrics:    opts.Metrics,
		store:      opts.Library,
		logger:     logger,
		activeType: 1,
		palette:    palette,
		limits:     opts.Limits,
		preview:    kernel.NoID,
		listeners:  make(map[EventType][]EventListener),
	}
	s.sym = symmetry.NewEngine(s.reg, logger)
	s.log = history.NewLog(opts.HistoryLimit, logger)
	if opts.Metrics != nil {
		s.log.SetObserver(opts.Metrics)
	}
	s.views = bufview.NewManager(k, opts.Binder, logger)
	s.views.OnRebuild(s.metrics.ViewRebuilt)
	if opts.Geometry {
		s.startGeometry(s.limits)
		s.views.Refresh()
	}
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, l := range listeners {
		l(data)
	}
}

// SetModified marks the session as modified.
func (s *State) SetModified(modified bool) {
	s.Modified = modified
	if modified {
		s.Emit(EventModified, nil)
	}
}

// Kernel returns the current kernel. It is replaced on import and generation.
func (s *State) Kernel() kernel.Kernel { return s.reg.Kernel() }

// Registry returns the id registry.
func (s *State) Registry() *registry.Registry { return s.reg }

// Views returns the buffer view manager the renderer reads through.
func (s *State) Views() *bufview.Manager { return s.views }

// Bounds returns the scene bounding box.
func (s *State) Bounds() geometry.Box { return s.box }

// Cells returns every live cell in enumeration order.
func (s *State) Cells() []kernel.Cell { return s.reg.Cells() }

// Cell returns a live cell by id.
func (s *State) Cell(id kernel.ID) (kernel.Cell, bool) { return s.reg.Cell(id) }

// Selection returns a copy of the selected ids.
func (s *State) Selection() []kernel.ID { return slices.Clone(s.selection) }

// ActiveType returns the category new active cells receive.
func (s *State) ActiveType() int { return s.activeType }

// Palette returns a copy of the palette.
func (s *State) Palette() []colorutil.RGB { return slices.Clone(s.palette) }

// Symmetry returns the active operator's spec, or nil.
func (s *State) Symmetry() *symmetry.Spec {
	if !s.sym.Active() {
		return nil
	}
	spec := s.sym.Operator().Spec()
	return &spec
}

// Orbits returns the symmetry map's orbits.
func (s *State) Orbits() []symmetry.Orbit { return s.sym.Map().Orbits() }

// GeometryActive reports whether the kernel is producing geometry.
func (s *State) GeometryActive() bool { return s.geometryOn }

// Library returns the configured snapshot library, or nil.
func (s *State) Library() library.Store { return s.store }

// SetLibrary replaces the snapshot library.
func (s *State) SetLibrary(store library.Store) { s.store = store }

// CanUndo reports whether there is a transaction to undo.
func (s *State) CanUndo() bool { return s.log.CanUndo() }

// CanRedo reports whether there is a transaction to redo.
func (s *State) CanRedo() bool { return s.log.CanRedo() }

// Stats summarizes the scene for the status bar.
type Stats struct {
	Cells   int
	Active  int
	Orbits  int
	History int
	Cursor  int
}

// Stats returns scene statistics.
func (s *State) Stats() Stats {
	st := Stats{
		Cells:   s.reg.Count(),
		Orbits:  s.sym.Map().Len(),
		History: s.log.Len(),
		Cursor:  s.log.Cursor(),
	}
	for _, c := range s.reg.Cells() {
		if c.Type > 0 {
			st.Active++
		}
	}
	return st
}

// Close releases the kernel and the library.
func (s *State) Close() error {
	s.views.Detach()
	s.reg.Kernel().Close()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
