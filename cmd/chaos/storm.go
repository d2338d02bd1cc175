package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"slices"

	"voro-editor/internal/app"
	"voro-editor/internal/kernel"
	"voro-editor/internal/symmetry"

	"gonum.org/v1/gonum/spatial/r3"
)

// Config parameterizes one storm.
type Config struct {
	Seed         int64
	Steps        int
	CheckEvery   int
	Symmetry     bool
	HistoryLimit int
	Logger       *slog.Logger
}

// Report summarizes a storm.
type Report struct {
	Counts   map[string]int
	Cells    int
	Orbits   int
	Replayed int
}

var gestureNames = []string{
	"add", "delete", "toggle", "select", "move", "drag", "undo", "redo",
	"symmetry", "bake", "category", "geometry",
}

var errSanity = errors.New("sanity check failed")

var stormSpecs = []symmetry.Spec{
	{Kind: symmetry.KindMirror},
	{Kind: symmetry.KindMirror, Normal: r3.Vec{Z: 1}},
	{Kind: symmetry.KindRotational, N: 3},
	{Kind: symmetry.KindRotational, N: 5, Axis: r3.Vec{Z: 1}},
	{Kind: symmetry.KindDihedral, N: 2},
	{Kind: symmetry.KindScale, N: 3, Factor: 0.6},
}

type storm struct {
	cfg    Config
	rng    *rand.Rand
	state  *app.State
	report Report
}

// Run executes a storm. It fails on the first sanity failure, and at the
// end checks that undoing and redoing the whole retained history restores
// the final scene.
func Run(cfg Config) (Report, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &storm{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		state: app.NewState(app.Options{
			HistoryLimit: cfg.HistoryLimit,
			Logger:       cfg.Logger,
			Geometry:     true,
		}),
		report: Report{Counts: make(map[string]int)},
	}
	defer s.state.Close()

	for step := 0; step < cfg.Steps; step++ {
		name := s.gesture()
		s.report.Counts[name]++
		cfg.Logger.Debug("gesture", "step", step, "name", name, "cells", len(s.state.Cells()))
		if cfg.CheckEvery > 0 && (step+1)%cfg.CheckEvery == 0 {
			if !s.state.Sanity(fmt.Sprintf("step %d", step)) {
				return s.finish(), fmt.Errorf("step %d (%s): %w", step, name, errSanity)
			}
		}
	}
	if !s.state.Sanity("end") {
		return s.finish(), fmt.Errorf("end of storm: %w", errSanity)
	}
	if err := s.verifyReplay(); err != nil {
		return s.finish(), err
	}
	return s.finish(), nil
}

func (s *storm) finish() Report {
	s.report.Cells = len(s.state.Cells())
	s.report.Orbits = len(s.state.Orbits())
	return s.report
}

func (s *storm) gesture() string {
	st := s.state
	switch r := s.rng.Intn(100); {
	case r < 28 || len(st.Cells()) == 0:
		st.AddCell(s.point(), s.rng.Intn(4) > 0)
		return "add"
	case r < 38:
		st.DeleteCells([]kernel.ID{s.someCell()})
		return "delete"
	case r < 50:
		st.ToggleCellAt(s.rng.Intn(len(st.Cells()) + 1))
		return "toggle"
	case r < 58:
		st.Select(s.someCell(), s.someCell())
		return "select"
	case r < 64:
		st.TranslateSelection(s.delta())
		return "move"
	case r < 70:
		st.BeginDrag()
		for i := s.rng.Intn(5) + 1; i > 0; i-- {
			st.TranslateSelection(s.delta())
		}
		st.EndDrag()
		return "drag"
	case r < 80:
		st.Undo()
		return "undo"
	case r < 88:
		st.Redo()
		return "redo"
	case r < 92 && s.cfg.Symmetry:
		if err := st.EnableSymmetry(stormSpecs[s.rng.Intn(len(stormSpecs))]); err != nil {
			s.cfg.Logger.Warn("enable symmetry", "err", err)
		}
		return "symmetry"
	case r < 94:
		st.BakeSymmetry()
		return "bake"
	case r < 98:
		st.SetActiveCategory(s.rng.Intn(len(st.Palette())) + 1)
		return "category"
	default:
		if st.GeometryActive() {
			st.StopGeometry()
		} else {
			st.StartGeometry()
		}
		return "geometry"
	}
}

func (s *storm) someCell() kernel.ID {
	cells := s.state.Cells()
	if len(cells) == 0 || s.rng.Intn(20) == 0 {
		// Occasionally a stale id
		return kernel.ID(s.rng.Int63n(1 << 20))
	}
	return cells[s.rng.Intn(len(cells))].ID
}

func (s *storm) point() r3.Vec {
	b := s.state.Bounds()
	size := r3.Sub(b.Max, b.Min)
	return r3.Vec{
		X: b.Min.X + s.rng.Float64()*size.X,
		Y: b.Min.Y + s.rng.Float64()*size.Y,
		Z: b.Min.Z + s.rng.Float64()*size.Z,
	}
}

func (s *storm) delta() r3.Vec {
	return r3.Vec{X: s.rng.NormFloat64(), Y: s.rng.NormFloat64(), Z: s.rng.NormFloat64()}
}

// verifyReplay undoes everything retained, redoes it all, and compares.
func (s *storm) verifyReplay() error {
	st := s.state
	want := sorted(st.Cells())
	for st.Undo() {
		s.report.Replayed++
	}
	if !st.Sanity("undo all") {
		return fmt.Errorf("after undoing %d steps: %w", s.report.Replayed, errSanity)
	}
	for st.Redo() {
	}
	got := sorted(st.Cells())
	if len(got) != len(want) {
		return fmt.Errorf("replay: %d cells after redo, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Type != want[i].Type || r3.Norm(r3.Sub(got[i].Pos, want[i].Pos)) > 1e-6 {
			return fmt.Errorf("replay: cell %d is %+v, want %+v", want[i].ID, got[i], want[i])
		}
	}
	return nil
}

func sorted(cells []kernel.Cell) []kernel.Cell {
	out := slices.Clone(cells)
	slices.SortFunc(out, func(a, b kernel.Cell) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}
