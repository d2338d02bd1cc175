package refkernel

import (
	"testing"

	"voro-editor/internal/kernel"
	"voro-editor/pkg/colorutil"
	"voro-editor/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func newKernel() *Kernel {
	return New(geometry.Cube(10))
}

func TestSwapPopKeepsIDs(t *testing.T) {
	k := newKernel()
	a := k.AddCell(r3.Vec{X: 1}, 1)
	b := k.AddCell(r3.Vec{X: 2}, 0)
	c := k.AddCell(r3.Vec{X: 3}, 1)
	idA, idB, idC := k.StableID(a), k.StableID(b), k.StableID(c)

	k.DeleteCell(a)
	require.Equal(t, 2, k.CellCount())
	assert.Equal(t, -1, k.IndexFromID(idA))
	assert.Equal(t, 0, k.IndexFromID(idC), "last cell moves into the freed slot")
	assert.Equal(t, 1, k.IndexFromID(idB))
	assert.Equal(t, r3.Vec{X: 3}, k.CellPosition(k.IndexFromID(idC)))

	d := k.AddCell(r3.Vec{X: 4}, 0)
	assert.Greater(t, int64(k.StableID(d)), int64(idC), "ids are never reused")
	assert.True(t, k.SanityCheck("swap-pop"))
}

func TestSanityCheckReportsCorruption(t *testing.T) {
	k := newKernel()
	i := k.AddCell(r3.Vec{X: 1}, 1)
	require.NoError(t, k.check())

	k.cells[i].pos = r3.Vec{X: 50}
	assert.ErrorContains(t, k.check(), "outside the box")
	assert.False(t, k.SanityCheck("corrupt position"))

	k.cells[i].pos = r3.Vec{X: 1}
	delete(k.slots, k.cells[i].id)
	assert.ErrorContains(t, k.check(), "0 slots for 1 cells")
	assert.False(t, k.SanityCheck("missing slot"))
}

func TestPositionsClampedInside(t *testing.T) {
	k := newKernel()
	i := k.AddCell(r3.Vec{X: 50, Y: -50}, 0)
	p := k.CellPosition(i)
	assert.True(t, k.Bounds().Contains(p))

	k.MoveCell(i, r3.Vec{Z: 99})
	assert.True(t, k.Bounds().Contains(k.CellPosition(i)))
}

func TestToggle(t *testing.T) {
	k := newKernel()
	i := k.AddCell(r3.Vec{}, 0)
	k.ToggleCell(i, 3)
	assert.Equal(t, 3, k.CellType(i))
	k.ToggleCell(i, 3)
	assert.Equal(t, 0, k.CellType(i))
}

func TestCellAtPosition(t *testing.T) {
	k := newKernel()
	i := k.AddCell(r3.Vec{X: 1, Y: 2, Z: 3}, 0)
	assert.Equal(t, i, k.CellAtPosition(r3.Vec{X: 1, Y: 2, Z: 3}))
	assert.Equal(t, -1, k.CellAtPosition(r3.Vec{X: 1.5, Y: 2, Z: 3}))
}

func TestBuffersGrowAndReallocate(t *testing.T) {
	k := newKernel()
	k.RebuildGeometry(12, 24, 1)
	before := k.Buffer(kernel.Triangles)
	require.NotZero(t, before.Addr)
	assert.Equal(t, 36, before.Capacity)

	k.AddCell(r3.Vec{X: -5}, 1)
	assert.Equal(t, before.Addr, k.Buffer(kernel.Triangles).Addr, "one cube fits")
	assert.Equal(t, 36, k.Buffer(kernel.Triangles).Count)

	k.AddCell(r3.Vec{X: 5}, 1)
	after := k.Buffer(kernel.Triangles)
	assert.NotEqual(t, before.Addr, after.Addr)
	assert.Equal(t, 72, after.Count)
	assert.GreaterOrEqual(t, after.Capacity, 72)

	assert.Equal(t, 2, k.Buffer(kernel.SitePositions).Count)
	assert.Equal(t, float32(activeSiteSize), k.BufferData(kernel.SiteSizes)[0])
}

func TestColorsFollowPalette(t *testing.T) {
	k := newKernel()
	k.RebuildGeometry(64, 24, 8)
	assert.Zero(t, k.Buffer(kernel.TriangleColors).Addr)

	k.SetPalette([]colorutil.RGB{colorutil.Red, colorutil.Green})
	k.AddCell(r3.Vec{}, 2)
	require.True(t, k.HasColors())
	col := k.BufferData(kernel.TriangleColors)
	assert.Equal(t, colorutil.Green[:], col[:3])

	k.SetPalette(nil)
	assert.False(t, k.HasColors())
	assert.Zero(t, k.Buffer(kernel.TriangleColors).Addr)
}

func TestVertexPicking(t *testing.T) {
	k := newKernel()
	k.RebuildGeometry(64, 24, 8)
	a := k.AddCell(r3.Vec{}, 1)
	b := k.AddCell(r3.Vec{X: 4}, 0)

	assert.Equal(t, a, k.CellFromVertex(0))
	assert.Equal(t, -1, k.CellFromVertex(12*3))

	// Triangle 10 lies on the +x face of the cube.
	assert.Equal(t, b, k.CellNeighborFromVertex(10*3))
}

func TestPreview(t *testing.T) {
	k := newKernel()
	k.RebuildGeometry(12, 24, 4)
	i := k.AddCell(r3.Vec{}, 0)
	k.ComputeSingleCell(i)
	assert.Equal(t, geometry.CubeEdgeCount*2, k.Buffer(kernel.Preview).Count)

	k.DeleteCell(i)
	assert.Zero(t, k.Buffer(kernel.Preview).Count)
}

func TestClearGeometry(t *testing.T) {
	k := newKernel()
	k.RebuildGeometry(12, 24, 4)
	k.AddCell(r3.Vec{}, 1)
	k.ClearGeometry()
	for c := kernel.BufferClass(0); int(c) < kernel.NumBufferClasses; c++ {
		assert.Zero(t, k.Buffer(c).Addr, c.String())
	}
	assert.Equal(t, -1, k.CellFromVertex(0))
}
