// Package project provides project file handling and persistence.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"voro-editor/internal/generate"
	"voro-editor/internal/snapshot"
	"voro-editor/internal/symmetry"
	"voro-editor/pkg/geometry"

	"github.com/google/uuid"
)

// Extension is the project file suffix.
const Extension = ".voroproj"

// CurrentVersion is the project file format version written by Save.
const CurrentVersion = 1

// File represents a scene project file (.voroproj). The cell set itself
// lives in a binary snapshot next to it.
type File struct {
	Version     int       `json:"version"`
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Description string    `json:"description,omitempty"`

	// Snapshot path (relative to project file)
	SnapshotPath string `json:"snapshot,omitempty"`

	Bounds geometry.Box `json:"bounds"`

	// Editing mode at save time
	Symmetry   *symmetry.Spec `json:"symmetry,omitempty"`
	ActiveType int            `json:"active_type"`

	// Generator used to seed the scene, if any
	Generator *generate.Params `json:"generator,omitempty"`

	// Library name the scene was last synced with
	LibraryName string `json:"library_name,omitempty"`
}

// New creates a new project file with default settings.
func New(name string, bounds geometry.Box) *File {
	now := time.Now()
	return &File{
		Version:    CurrentVersion,
		ID:         uuid.NewString(),
		Name:       name,
		Created:    now,
		Modified:   now,
		Bounds:     bounds,
		ActiveType: 1,
	}
}

// Load loads a project from a .voroproj file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if proj.Version > CurrentVersion {
		return nil, fmt.Errorf("%s: project version %d is newer than supported %d", filepath.Base(path), proj.Version, CurrentVersion)
	}
	if proj.ID == "" {
		proj.ID = uuid.NewString()
	}

	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetSnapshot sets the snapshot path (relative to project).
func (p *File) SetSnapshot(projectPath, snapshotPath string) {
	rel, err := filepath.Rel(filepath.Dir(projectPath), snapshotPath)
	if err != nil {
		p.SnapshotPath = snapshotPath
	} else {
		p.SnapshotPath = rel
	}
	p.Modified = time.Now()
}

// SnapshotPathFor returns the absolute path to the snapshot file.
func (p *File) SnapshotPathFor(projectPath string) string {
	if p.SnapshotPath == "" {
		// Default: project_name.voro
		base := projectPath[:len(projectPath)-len(filepath.Ext(projectPath))]
		return base + snapshot.Extension
	}
	if filepath.IsAbs(p.SnapshotPath) {
		return p.SnapshotPath
	}
	return filepath.Join(filepath.Dir(projectPath), p.SnapshotPath)
}
