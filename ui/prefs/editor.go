package prefs

import (
	"path/filepath"
	"time"

	"voro-editor/internal/app"
	"voro-editor/internal/history"
	"voro-editor/internal/library"
	"voro-editor/pkg/geometry"
)

// Preference keys.
const (
	KeyBoxHalf          = "box_half"
	KeyMaxTriangles     = "max_triangles"
	KeyMaxPreviewVerts  = "max_preview_verts"
	KeyMaxSites         = "max_sites"
	KeyHistoryLimit     = "history_limit"
	KeyPaletteSize      = "palette_size"
	KeyLibraryDriver    = "library_driver"
	KeyLibraryPath      = "library_path"
	KeyLibraryBucket    = "library_bucket"
	KeyLibraryRegion    = "library_region"
	KeyLibraryEndpoint  = "library_endpoint"
	KeyLibraryPathStyle = "library_path_style"
	KeyMetricsAddr      = "metrics_addr"
	KeyFrameMillis      = "frame_ms"
	KeyLastDir          = "last_dir"
)

const defaultBoxHalf = 10.0

// Editor is the typed view of the preferences the session is built from.
type Editor struct {
	Bounds        geometry.Box
	Limits        history.Limits
	HistoryLimit  int
	PaletteSize   int
	Library       library.Config
	MetricsAddr   string
	FrameInterval time.Duration
}

// Editor reads the editor settings, filling defaults for unset keys and
// overlaying library settings from the environment.
func (p *Prefs) Editor() Editor {
	half := p.FloatWithFallback(KeyBoxHalf, defaultBoxHalf)
	if half <= 0 {
		half = defaultBoxHalf
	}
	lib := library.Config{
		Driver:    library.Driver(p.StringWithFallback(KeyLibraryDriver, string(library.DriverFS))),
		Path:      p.StringWithFallback(KeyLibraryPath, filepath.Join(filepath.Dir(p.path), "library")),
		Bucket:    p.String(KeyLibraryBucket),
		Region:    p.String(KeyLibraryRegion),
		Endpoint:  p.String(KeyLibraryEndpoint),
		PathStyle: p.Bool(KeyLibraryPathStyle, false),
	}
	return Editor{
		Bounds: geometry.Cube(half),
		Limits: history.Limits{
			MaxTriangles:    positive(p.Int(KeyMaxTriangles, app.DefaultMaxTriangles), app.DefaultMaxTriangles),
			MaxPreviewVerts: positive(p.Int(KeyMaxPreviewVerts, app.DefaultMaxPreviewVerts), app.DefaultMaxPreviewVerts),
			MaxSites:        positive(p.Int(KeyMaxSites, app.DefaultMaxSites), app.DefaultMaxSites),
		},
		HistoryLimit:  p.Int(KeyHistoryLimit, app.DefaultHistoryLimit),
		PaletteSize:   positive(p.Int(KeyPaletteSize, app.DefaultPaletteSize), app.DefaultPaletteSize),
		Library:       library.FromEnv(lib),
		MetricsAddr:   p.String(KeyMetricsAddr),
		FrameInterval: time.Duration(positive(p.Int(KeyFrameMillis, 16), 16)) * time.Millisecond,
	}
}

// Options converts the settings into session options.
func (e Editor) Options() app.Options {
	return app.Options{
		Bounds:       e.Bounds,
		Limits:       e.Limits,
		HistoryLimit: e.HistoryLimit,
		PaletteSize:  e.PaletteSize,
	}
}

func positive(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
