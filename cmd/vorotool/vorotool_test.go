package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voro-editor/internal/library"
	"voro-editor/internal/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerateAndInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.voro")

	out, err := run(t, "generate", "-o", path, "--kind", "grid", "-n", "27", "--fill", "100", "--half", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 27 cells")

	out, err = run(t, "info", "--json", path)
	require.NoError(t, err)
	var info snapshotInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, 27, info.Cells)
	assert.Equal(t, float32(-3), info.Min[0])
	assert.Equal(t, float32(3), info.Max[2])
	assert.NotEmpty(t, info.Palette)
	assert.True(t, strings.HasPrefix(info.Palette[0], "#"))

	out, err = run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Cells:   27")
}

func TestGenerateRequiresOutput(t *testing.T) {
	_, err := run(t, "generate")
	assert.Error(t, err)
}

func TestInfoRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.voro")
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot"), 0644))
	_, err := run(t, "info", path)
	assert.ErrorIs(t, err, snapshot.ErrBadMagic)
}

func TestMesh(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "one.voro")
	stl := filepath.Join(dir, "one.stl")
	_, err := run(t, "generate", "-o", in, "-n", "1")
	require.NoError(t, err)

	out, err := run(t, "mesh", in, stl)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 12 triangles")

	data, err := os.ReadFile(stl)
	require.NoError(t, err)
	n, ok := snapshot.TriangleMeshCount(data)
	require.True(t, ok)
	assert.Equal(t, 12, n)
}

func TestLibraryCommands(t *testing.T) {
	t.Setenv(library.EnvDriver, "")
	t.Setenv(library.EnvPath, "")
	dir := t.TempDir()
	libDir := filepath.Join(dir, "lib")
	in := filepath.Join(dir, "scene.voro")
	_, err := run(t, "generate", "-o", in, "-n", "10")
	require.NoError(t, err)

	lib := []string{"lib", "--driver", "fs", "--path", libDir}
	out, err := run(t, append(lib, "put", "scenes/first", in)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Stored scenes/first")

	out, err = run(t, append(lib, "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "scenes/first")

	back := filepath.Join(dir, "back.voro")
	_, err = run(t, append(lib, "get", "scenes/first", back)...)
	require.NoError(t, err)
	want, _ := os.ReadFile(in)
	got, _ := os.ReadFile(back)
	assert.Equal(t, want, got)

	_, err = run(t, append(lib, "rm", "scenes/first")...)
	require.NoError(t, err)
	_, err = run(t, append(lib, "rm", "scenes/first")...)
	assert.ErrorIs(t, err, library.ErrNotFound)
}
