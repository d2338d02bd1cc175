package project

import (
	"os"
	"path/filepath"
	"testing"

	"voro-editor/internal/generate"
	"voro-editor/internal/symmetry"
	"voro-editor/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene"+Extension)

	p := New("scene", geometry.Cube(10))
	p.Symmetry = &symmetry.Spec{Kind: symmetry.KindDihedral, N: 3}
	p.Generator = &generate.Params{Kind: generate.Grid, Count: 27, Seed: 3}
	p.SetSnapshot(path, filepath.Join(dir, "data", "scene.voro"))
	require.NoError(t, p.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.Bounds, got.Bounds)
	assert.Equal(t, *p.Symmetry, *got.Symmetry)
	assert.Equal(t, *p.Generator, *got.Generator)
	assert.Equal(t, filepath.Join("data", "scene.voro"), got.SnapshotPath)
	assert.Equal(t, filepath.Join(dir, "data", "scene.voro"), got.SnapshotPathFor(path))
}

func TestDefaultSnapshotPath(t *testing.T) {
	p := New("x", geometry.Cube(1))
	assert.Equal(t, filepath.Join("a", "x.voro"), p.SnapshotPathFor(filepath.Join("a", "x"+Extension)))
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new"+Extension)
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
