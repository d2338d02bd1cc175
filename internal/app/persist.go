package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voro-editor/internal/library"
	"voro-editor/internal/project"
)

// ErrNoLibrary is returned by library operations when none is configured.
var ErrNoLibrary = errors.New("app: no snapshot library configured")

// SaveProject writes the project file and its snapshot next to it.
func (s *State) SaveProject(path string) error {
	proj := s.Project
	if proj == nil {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		proj = project.New(name, s.box)
	}
	proj.Bounds = s.box
	proj.Symmetry = s.Symmetry()
	proj.ActiveType = s.activeType

	snapPath := proj.SnapshotPathFor(path)
	if err := os.WriteFile(snapPath, s.ExportSnapshot(), 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	proj.SetSnapshot(path, snapPath)
	if err := proj.Save(path); err != nil {
		return fmt.Errorf("write project: %w", err)
	}

	s.Project = proj
	s.ProjectPath = path
	s.Modified = false
	s.logger.Info("project saved", "path", path, "cells", s.reg.Count())

	s.Emit(EventProjectSaved, path)
	return nil
}

// LoadProject loads a project file and its snapshot, then restores the
// saved symmetry and category. History starts empty.
func (s *State) LoadProject(path string) error {
	proj, err := project.Load(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(proj.SnapshotPathFor(path))
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if err := s.LoadSnapshot(data); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	s.log.Suspend()
	if proj.ActiveType > 0 {
		s.activeType = proj.ActiveType
	}
	if proj.Symmetry != nil {
		if op, err := proj.Symmetry.Build(s.box.Center()); err != nil {
			s.logger.Warn("project symmetry ignored", "operator", proj.Symmetry.String(), "err", err)
		} else {
			s.sym.Enable(op)
		}
	}
	s.log.Resume()
	s.log.Clear()
	s.views.Refresh()

	s.Project = proj
	s.ProjectPath = path
	s.Modified = false
	s.logger.Info("project loaded", "path", path, "name", proj.Name, "cells", s.reg.Count())

	s.Emit(EventSymmetryChanged, nil)
	s.Emit(EventActiveTypeChanged, nil)
	s.Emit(EventProjectLoaded, path)
	return nil
}

// SaveToLibrary stores the current snapshot under name.
func (s *State) SaveToLibrary(ctx context.Context, name string) (library.Entry, error) {
	if s.store == nil {
		return library.Entry{}, ErrNoLibrary
	}
	e, err := s.store.Put(ctx, name, s.ExportSnapshot())
	if err != nil {
		return library.Entry{}, err
	}
	if s.Project != nil {
		s.Project.LibraryName = e.Name
	}
	s.logger.Info("snapshot stored", "driver", string(s.store.Driver()), "name", e.Name, "size_bytes", e.Size)
	return e, nil
}

// LoadFromLibrary replaces the scene with a stored snapshot.
func (s *State) LoadFromLibrary(ctx context.Context, name string) error {
	if s.store == nil {
		return ErrNoLibrary
	}
	data, err := s.store.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := s.LoadSnapshot(data); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if s.Project != nil {
		s.Project.LibraryName = name
	}
	return nil
}

// ListLibrary lists stored snapshots.
func (s *State) ListLibrary(ctx context.Context) ([]library.Entry, error) {
	if s.store == nil {
		return nil, ErrNoLibrary
	}
	return s.store.List(ctx)
}
