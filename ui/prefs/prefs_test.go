package prefs

import (
	"path/filepath"
	"testing"
	"time"

	"voro-editor/internal/app"
	"voro-editor/internal/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voro-editor", prefsFile)
	p := LoadFrom(path)
	assert.False(t, p.Dirty())

	p.SetFloat(KeyBoxHalf, 4)
	p.SetInt(KeyHistoryLimit, 20)
	p.SetString(KeyLastDir, "/tmp")
	p.SetBool(KeyLibraryPathStyle, true)
	assert.True(t, p.Dirty())
	require.NoError(t, p.SaveIfDirty())
	assert.False(t, p.Dirty())

	q := LoadFrom(path)
	assert.Equal(t, 4.0, q.Float(KeyBoxHalf))
	assert.Equal(t, 20, q.Int(KeyHistoryLimit, 0))
	assert.Equal(t, "/tmp", q.String(KeyLastDir))
	assert.True(t, q.Bool(KeyLibraryPathStyle, false))
	assert.Equal(t, 7, q.Int("missing", 7))
}

func TestEditorDefaults(t *testing.T) {
	t.Setenv(library.EnvDriver, "")
	p := LoadFrom(filepath.Join(t.TempDir(), prefsFile))
	e := p.Editor()

	assert.Equal(t, 10.0, e.Bounds.Max.X)
	assert.Equal(t, app.DefaultLimits(), e.Limits)
	assert.Equal(t, app.DefaultHistoryLimit, e.HistoryLimit)
	assert.Equal(t, app.DefaultPaletteSize, e.PaletteSize)
	assert.Equal(t, library.DriverFS, e.Library.Driver)
	assert.Equal(t, filepath.Join(filepath.Dir(p.Path()), "library"), e.Library.Path)
	assert.Equal(t, 16*time.Millisecond, e.FrameInterval)
	assert.Empty(t, e.MetricsAddr)
}

func TestEditorOverrides(t *testing.T) {
	t.Setenv(library.EnvDriver, "sqlite")
	t.Setenv(library.EnvPath, "/data/lib.db")
	p := LoadFrom(filepath.Join(t.TempDir(), prefsFile))
	p.SetFloat(KeyBoxHalf, 2.5)
	p.SetInt(KeyMaxTriangles, -1)
	p.SetString(KeyLibraryDriver, "fs")

	e := p.Editor()
	assert.Equal(t, -2.5, e.Bounds.Min.Z)
	assert.Equal(t, app.DefaultMaxTriangles, e.Limits.MaxTriangles)
	assert.Equal(t, library.DriverSQLite, e.Library.Driver)
	assert.Equal(t, "/data/lib.db", e.Library.Path)

	opts := e.Options()
	assert.Equal(t, e.Bounds, opts.Bounds)
}
