package app

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"voro-editor/internal/generate"
	"voro-editor/internal/kernel"
	"voro-editor/internal/library"
	"voro-editor/internal/snapshot"
	"voro-editor/internal/symmetry"
	"voro-editor/pkg/colorutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func newState(t *testing.T) *State {
	t.Helper()
	s := NewState(Options{})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func byID(cells []kernel.Cell) []kernel.Cell {
	out := slices.Clone(cells)
	slices.SortFunc(out, func(a, b kernel.Cell) int { return int(a.ID - b.ID) })
	return out
}

func assertSameCells(t *testing.T, want, got []kernel.Cell) {
	t.Helper()
	want, got = byID(want), byID(got)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Type, got[i].Type, "cell %d", want[i].ID)
		assert.InDelta(t, want[i].Pos.X, got[i].Pos.X, 1e-9)
		assert.InDelta(t, want[i].Pos.Y, got[i].Pos.Y, 1e-9)
		assert.InDelta(t, want[i].Pos.Z, got[i].Pos.Z, 1e-9)
	}
}

func TestMirrorRoundTrip(t *testing.T) {
	s := newState(t)
	require.NoError(t, s.EnableSymmetry(symmetry.Spec{Kind: symmetry.KindMirror}))

	id := s.AddCellAt(r3.Vec{X: 3, Y: 1, Z: -2})
	require.True(t, id.Valid())
	cells := s.Cells()
	require.Len(t, cells, 2)

	var image kernel.Cell
	for _, c := range cells {
		if c.ID != id {
			image = c
		}
	}
	assert.InDelta(t, -3, image.Pos.X, 1e-9)
	assert.InDelta(t, 1, image.Pos.Y, 1e-9)
	assert.InDelta(t, -2, image.Pos.Z, 1e-9)
	anchor, _ := s.Cell(id)
	assert.Equal(t, anchor.Type, image.Type)
	require.Len(t, s.Orbits(), 1)

	index, ok := s.Registry().IndexOf(image.ID)
	require.True(t, ok)
	s.DeleteCellAt(index)
	assert.Empty(t, s.Cells())
	assert.Empty(t, s.Orbits())
	assert.True(t, s.Sanity("mirror delete"))

	require.True(t, s.Undo())
	assert.Len(t, s.Cells(), 2)
	assert.Len(t, s.Orbits(), 1)
	assert.True(t, s.Sanity("mirror undo"))
}

func TestTypeConflictOnEnable(t *testing.T) {
	s := newState(t)
	s.SetActiveCategory(2)
	a := s.AddCellAt(r3.Vec{X: 2})
	s.SetActiveCategory(5)
	b := s.AddCellAt(r3.Vec{X: -2})

	require.NoError(t, s.EnableSymmetry(symmetry.Spec{Kind: symmetry.KindMirror}))
	ca, _ := s.Cell(a)
	cb, _ := s.Cell(b)
	assert.Equal(t, 5, ca.Type)
	assert.Equal(t, 5, cb.Type)
	assert.Len(t, s.Cells(), 2)

	require.True(t, s.Undo())
	ca, _ = s.Cell(a)
	assert.Equal(t, 2, ca.Type)
	assert.Nil(t, s.Symmetry())
}

func TestEnableRejectsBadSpec(t *testing.T) {
	s := newState(t)
	err := s.EnableSymmetry(symmetry.Spec{Kind: symmetry.KindRotational, N: 1})
	assert.ErrorIs(t, err, symmetry.ErrInvalidSpec)
	assert.False(t, s.CanUndo())
}

func TestUndoRedoInverseLaw(t *testing.T) {
	s := newState(t)
	s.AddCellAt(r3.Vec{X: 1, Y: 1, Z: 1})
	require.NoError(t, s.EnableSymmetry(symmetry.Spec{Kind: symmetry.KindDihedral, N: 3}))
	b := s.AddCellAt(r3.Vec{X: 4, Y: -2, Z: 1})
	c := s.AddCell(r3.Vec{X: -5, Y: 3, Z: 2}, false)

	index, _ := s.Registry().IndexOf(c)
	s.ToggleCellAt(index)
	s.Select(b)
	s.MoveSelection([]kernel.ID{b}, []r3.Vec{{X: 5, Y: -1, Z: 2}})
	s.SetActiveCategory(3)
	index, _ = s.Registry().IndexOf(c)
	s.SetCellTypeAt(index, 4)
	s.DeleteSelection()
	s.StartGeometry()
	s.SetPalette(colorutil.DefaultPalette(3))
	require.True(t, s.Sanity("edits"))

	wantCells := s.Cells()
	wantOrbits := s.Orbits()
	wantSpec := s.Symmetry()

	n := 0
	for s.Undo() {
		n++
	}
	require.Greater(t, n, 5)
	assert.Empty(t, s.Cells())
	assert.Empty(t, s.Orbits())
	assert.Nil(t, s.Symmetry())
	assert.False(t, s.GeometryActive())
	assert.True(t, s.Sanity("undone"))

	for i := 0; i < n; i++ {
		require.True(t, s.Redo(), "redo %d", i)
	}
	assert.False(t, s.CanRedo())
	assertSameCells(t, wantCells, s.Cells())
	assert.Equal(t, wantOrbits, s.Orbits())
	assert.Equal(t, wantSpec, s.Symmetry())
	assert.Equal(t, 3, s.ActiveType())
	assert.Len(t, s.Palette(), 3)
	assert.True(t, s.GeometryActive())
	assert.True(t, s.Sanity("redone"))
}

func TestHistoryTruncation(t *testing.T) {
	s := newState(t)
	s.AddCellAt(r3.Vec{X: 1})
	s.AddCellAt(r3.Vec{X: 2})
	s.AddCellAt(r3.Vec{X: 3})

	require.True(t, s.Undo())
	require.True(t, s.Undo())
	s.AddCellAt(r3.Vec{X: 4})

	assert.False(t, s.CanRedo())
	assert.False(t, s.Redo())
	assert.Len(t, s.Cells(), 2)
}

func TestStaleIndicesAreNoops(t *testing.T) {
	s := newState(t)
	s.AddCellAt(r3.Vec{X: 1})
	before := s.Stats()

	s.DeleteCellAt(-1)
	s.DeleteCellAt(7)
	s.ToggleCellAt(-3)
	s.SetCellTypeAt(99, 2)
	s.MoveSelection([]kernel.ID{42}, []r3.Vec{{X: 1}})
	s.SetPreview(42)

	assert.Equal(t, before, s.Stats())
	assert.Equal(t, kernel.NoID, s.Preview())
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newState(t)
	s.SetPalette([]colorutil.RGB{{1, 0, 0}, {0, 1, 0}})
	s.AddCellAt(r3.Vec{X: 1})
	s.SetActiveCategory(2)
	s.AddCellAt(r3.Vec{X: 2})
	data := s.ExportSnapshot()

	other := newState(t)
	require.True(t, other.ImportSnapshot(data))
	assert.Equal(t, []colorutil.RGB{{1, 0, 0}, {0, 1, 0}}, other.Palette())

	got := make(map[[2]float64]int)
	for _, c := range other.Cells() {
		got[[2]float64{c.Pos.X, float64(c.Type)}]++
	}
	assert.Equal(t, map[[2]float64]int{{1, 1}: 1, {2, 2}: 1}, got)
	assert.False(t, other.CanUndo())
}

func TestMalformedImportKeepsScene(t *testing.T) {
	s := newState(t)
	s.AddCellAt(r3.Vec{X: 1})
	s.AddCellAt(r3.Vec{X: 2})
	want := s.Cells()

	bad := s.ExportSnapshot()
	bad[0] ^= 0xFF
	assert.False(t, s.ImportSnapshot(bad))
	assert.ErrorIs(t, s.LoadSnapshot(bad), snapshot.ErrBadMagic)
	assert.ErrorIs(t, s.LoadSnapshot(s.ExportSnapshot()[:10]), snapshot.ErrTruncated)

	assertSameCells(t, want, s.Cells())
	assert.True(t, s.CanUndo())
}

func TestDragCoalescesIntoOneTransaction(t *testing.T) {
	s := newState(t)
	id := s.AddCellAt(r3.Vec{X: 1})
	s.Select(id)
	start := s.Stats().History

	s.BeginDrag()
	for i := 1; i <= 5; i++ {
		s.MoveSelection([]kernel.ID{id}, []r3.Vec{{X: 1 + float64(i)*0.5}})
	}
	assert.Equal(t, start, s.Stats().History)
	s.EndDrag()
	assert.Equal(t, start+1, s.Stats().History)

	c, _ := s.Cell(id)
	assert.InDelta(t, 3.5, c.Pos.X, 1e-9)
	require.True(t, s.Undo())
	c, _ = s.Cell(id)
	assert.InDelta(t, 1, c.Pos.X, 1e-9)
}

func TestMoveUnderSymmetryMovesImages(t *testing.T) {
	s := newState(t)
	require.NoError(t, s.EnableSymmetry(symmetry.Spec{Kind: symmetry.KindMirror}))
	id := s.AddCellAt(r3.Vec{X: 3, Y: 1, Z: -2})
	s.Select(id)
	s.TranslateSelection(r3.Vec{Y: 2})

	for _, c := range s.Cells() {
		assert.InDelta(t, 3, c.Pos.Y, 1e-9)
	}
	assert.True(t, s.Sanity("move"))
}

func TestMovePastBoxKeepsImagesOnAnchor(t *testing.T) {
	s := newState(t)
	require.NoError(t, s.EnableSymmetry(symmetry.Spec{Kind: symmetry.KindScale, N: 2, Factor: 0.5}))
	id := s.AddCellAt(r3.Vec{X: 4})
	require.Len(t, s.Cells(), 2)

	s.MoveSelection([]kernel.ID{id}, []r3.Vec{{X: 16}})

	anchor, ok := s.Registry().Position(id)
	require.True(t, ok)
	assert.Less(t, anchor.X, 10.0)
	others := s.sym.OrderedSymList(id)
	require.Len(t, others, 1)
	image, ok := s.Registry().Position(others[0])
	require.True(t, ok)
	assert.InDelta(t, anchor.X*0.5, image.X, 1e-9)
	assert.InDelta(t, s.sym.Operator().Step(anchor, 0).X, image.X, 1e-9)
	assert.True(t, s.Sanity("move past box"))
}

func TestFixedPointCellStaysSingleWhenMoved(t *testing.T) {
	s := newState(t)
	require.NoError(t, s.EnableSymmetry(symmetry.Spec{Kind: symmetry.KindMirror}))
	id := s.AddCellAt(r3.Vec{Y: 2})
	require.Len(t, s.Cells(), 1)

	s.MoveSelection([]kernel.ID{id}, []r3.Vec{{X: 3, Y: 2}})
	require.Len(t, s.Cells(), 1)
	o, ok := s.sym.Map().Lookup(id)
	require.True(t, ok)
	assert.Equal(t, []kernel.ID{kernel.NoID}, o.Linked)
	assert.Empty(t, s.sym.OrderedSymList(id))
	assert.True(t, s.Sanity("fixed point moved"))
}

func TestToggleFollowsOrbit(t *testing.T) {
	s := newState(t)
	require.NoError(t, s.EnableSymmetry(symmetry.Spec{Kind: symmetry.KindRotational, N: 4}))
	s.AddCellAt(r3.Vec{X: 4, Y: 1})
	require.Len(t, s.Cells(), 4)

	s.ToggleCellAt(0)
	for _, c := range s.Cells() {
		assert.Equal(t, 0, c.Type)
	}
	s.ToggleCellAt(2)
	for _, c := range s.Cells() {
		assert.Equal(t, 1, c.Type)
	}
}

func TestBakeKeepsCells(t *testing.T) {
	s := newState(t)
	require.NoError(t, s.EnableSymmetry(symmetry.Spec{Kind: symmetry.KindMirror}))
	s.AddCellAt(r3.Vec{X: 3})
	s.BakeSymmetry()

	assert.Nil(t, s.Symmetry())
	assert.Empty(t, s.Orbits())
	assert.Len(t, s.Cells(), 2)

	s.DeleteCellAt(0)
	assert.Len(t, s.Cells(), 1)
	require.True(t, s.Undo())
	require.True(t, s.Undo())
	assert.NotNil(t, s.Symmetry())
	assert.Len(t, s.Orbits(), 1)
}

func TestGenerationIsNotUndoable(t *testing.T) {
	s := newState(t)
	s.AddCellAt(r3.Vec{X: 1})
	require.NoError(t, s.EnableSymmetry(symmetry.Spec{Kind: symmetry.KindMirror}))

	require.NoError(t, s.Generate(generate.Params{Kind: generate.Grid, Count: 27, Seed: 3, Fill: 100}))
	assert.Len(t, s.Cells(), 27)
	assert.False(t, s.CanUndo())
	assert.Nil(t, s.Symmetry())
	assert.True(t, s.Sanity("generate"))

	err := s.Generate(generate.Params{Kind: "hexagonal", Count: 3})
	assert.ErrorIs(t, err, generate.ErrUnknownKind)
	assert.Len(t, s.Cells(), 27)
}

func TestViewsNeverStale(t *testing.T) {
	s := NewState(Options{Limits: DefaultLimits()})
	t.Cleanup(func() { _ = s.Close() })
	s.limits.MaxTriangles = 4
	s.StartGeometry()

	for i := 0; i < 40; i++ {
		s.AddCellAt(r3.Vec{X: -9 + float64(i)*0.4, Y: 0.5})
		data, err := s.Views().Read(kernel.Triangles)
		require.NoError(t, err, "after add %d", i)
		assert.Len(t, data, (i+1)*12*9)
	}
	rebuilds := s.Views().Rebuilds(kernel.Triangles)
	assert.Greater(t, rebuilds, 1)
	assert.Less(t, rebuilds, 10)
}

func TestExportTriangleMesh(t *testing.T) {
	s := newState(t)
	s.AddCellAt(r3.Vec{X: 1})
	s.AddCell(r3.Vec{X: 2}, false)

	n, ok := snapshot.TriangleMeshCount(s.ExportTriangleMeshBinary())
	require.True(t, ok)
	assert.Equal(t, 12, n)
	assert.False(t, s.GeometryActive())

	s.StartGeometry()
	n, ok = snapshot.TriangleMeshCount(s.ExportTriangleMeshBinary())
	require.True(t, ok)
	assert.Equal(t, 12, n)
}

func TestPicking(t *testing.T) {
	s := newState(t)
	a := s.AddCellAt(r3.Vec{X: -1})
	b := s.AddCellAt(r3.Vec{X: 1})
	s.StartGeometry()

	id, ok := s.PickCell(Hit{Vertex: 0})
	require.True(t, ok)
	assert.Equal(t, a, id)

	// Vertex 30 lies on a's +x face, which looks at b.
	id, ok = s.PickNeighbor(Hit{Vertex: 30})
	require.True(t, ok)
	assert.Equal(t, b, id)

	_, ok = s.PickCell(Hit{Vertex: 1 << 20})
	assert.False(t, ok)
}

func TestSelectionIsUndoable(t *testing.T) {
	s := newState(t)
	a := s.AddCellAt(r3.Vec{X: 1})
	b := s.AddCellAt(r3.Vec{X: 2})

	s.Select(a)
	s.ToggleSelected(b)
	assert.Equal(t, []kernel.ID{a, b}, s.Selection())
	s.ClearSelection()
	assert.Empty(t, s.Selection())

	require.True(t, s.Undo())
	assert.Equal(t, []kernel.ID{a, b}, s.Selection())
}

func TestEventsAndTick(t *testing.T) {
	s := newState(t)
	var changed, history, redraws int
	s.On(EventCellsChanged, func(interface{}) { changed++ })
	s.On(EventHistoryChanged, func(interface{}) { history++ })
	s.On(EventRedraw, func(interface{}) { redraws++ })

	assert.False(t, s.Tick())
	s.AddCellAt(r3.Vec{X: 1})
	assert.True(t, s.Tick())
	assert.False(t, s.Tick())

	assert.Equal(t, 1, changed)
	assert.Equal(t, 1, history)
	assert.Equal(t, 1, redraws)
	assert.True(t, s.Modified)
}

func TestProjectRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.voroproj")

	s := newState(t)
	require.NoError(t, s.EnableSymmetry(symmetry.Spec{Kind: symmetry.KindMirror}))
	s.SetActiveCategory(3)
	s.AddCellAt(r3.Vec{X: 2, Y: 1})
	require.NoError(t, s.SaveProject(path))
	assert.False(t, s.Modified)
	assert.FileExists(t, filepath.Join(dir, "scene.voro"))

	other := newState(t)
	require.NoError(t, other.LoadProject(path))
	assert.Len(t, other.Cells(), 2)
	require.NotNil(t, other.Symmetry())
	assert.Equal(t, symmetry.KindMirror, other.Symmetry().Kind)
	assert.Len(t, other.Orbits(), 1)
	assert.Equal(t, 3, other.ActiveType())
	assert.False(t, other.CanUndo())
	assert.Equal(t, "scene", other.Project.Name)
}

func TestLibraryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newState(t)
	_, err := s.SaveToLibrary(ctx, "empty")
	assert.ErrorIs(t, err, ErrNoLibrary)

	s.SetLibrary(library.NewMemory())
	s.AddCellAt(r3.Vec{X: 1})
	s.AddCellAt(r3.Vec{X: -1})
	e, err := s.SaveToLibrary(ctx, "pair")
	require.NoError(t, err)
	assert.Equal(t, "pair", e.Name)

	s.DeleteCellAt(0)
	require.NoError(t, s.LoadFromLibrary(ctx, "pair"))
	assert.Len(t, s.Cells(), 2)

	err = s.LoadFromLibrary(ctx, "missing")
	assert.ErrorIs(t, err, library.ErrNotFound)

	entries, err := s.ListLibrary(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStartWithGeometryIsNotRecorded(t *testing.T) {
	s := NewState(Options{Geometry: true})
	t.Cleanup(func() { _ = s.Close() })

	assert.True(t, s.GeometryActive())
	assert.False(t, s.CanUndo())

	s.AddCellAt(r3.Vec{X: 1})
	_, err := s.Views().Read(kernel.SitePositions)
	require.NoError(t, err)
}

func TestFrameTicker(t *testing.T) {
	ticker := NewFrameTicker(time.Millisecond)
	ticks := make(chan struct{}, 16)
	ticker.OnTick(func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	})
	ticker.Start()
	ticker.Start()
	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker never fired")
	}
	ticker.Stop()
	ticker.Stop()
	assert.Positive(t, ticker.Ticks())
	assert.Equal(t, time.Millisecond, ticker.Interval())
	assert.Equal(t, time.Second/60, NewFrameTicker(0).Interval())
}
