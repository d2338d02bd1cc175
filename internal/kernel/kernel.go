// Package kernel defines the boundary to the native geometry kernel that
// computes the cell partition and its triangulated surface.
//
// The kernel addresses cells by slot index. Slots are dense and are
// reassigned whenever a cell is removed (swap with last), so callers outside
// this package hold stable ids and resolve them to slots at the point of use.
package kernel

import (
	"fmt"

	"voro-editor/pkg/geometry"

	"golang.org/x/image/math/f32"
	"gonum.org/v1/gonum/spatial/r3"
)

// ID is a stable cell identifier. It is assigned once at creation and never
// reused.
type ID int64

// NoID marks an absent cell.
const NoID ID = -1

// Valid reports whether id can refer to a cell.
func (id ID) Valid() bool { return id >= 0 }

// Cell captures one cell's identity and attributes.
type Cell struct {
	ID   ID
	Pos  r3.Vec
	Type int
}

// BufferClass identifies a render-visible buffer owned by the kernel.
type BufferClass int

const (
	// Triangles holds triangle mesh positions, 3 floats per vertex.
	Triangles BufferClass = iota
	// TriangleColors holds per-vertex colors; present only when HasColors.
	TriangleColors
	// Preview holds wireframe preview positions for a single cell.
	Preview
	// SitePositions holds one point per cell.
	SitePositions
	// SiteSizes holds one point size per cell.
	SiteSizes

	NumBufferClasses = iota
)

var bufferNames = [NumBufferClasses]string{"triangles", "triangle_colors", "preview", "site_positions", "site_sizes"}

// String implements fmt.Stringer.
func (c BufferClass) String() string {
	if c < 0 || int(c) >= NumBufferClasses {
		return fmt.Sprintf("BufferClass(%d)", int(c))
	}
	return bufferNames[c]
}

// ItemSize returns the number of floats per element of the buffer.
func (c BufferClass) ItemSize() int {
	if c == SiteSizes {
		return 1
	}
	return 3
}

// BufferInfo describes the current backing memory of a buffer. Addr changes
// whenever the kernel reallocates the buffer; Capacity and Count are in
// elements (vertices for mesh classes, cells for site classes).
type BufferInfo struct {
	Addr     uint64
	Capacity int
	Count    int
}

// Kernel is the capability set consumed from the native geometry kernel.
//
// Every index argument may be stale or negative; implementations ignore
// out-of-range indices.
type Kernel interface {
	Bounds() geometry.Box

	AddCell(p r3.Vec, typ int) int
	DeleteCell(index int)
	MoveCell(index int, p r3.Vec)
	MoveCells(indices []int, pts []r3.Vec)
	ToggleCell(index int, typ int)
	SetCellType(index int, typ int)

	CellPosition(index int) r3.Vec
	CellType(index int) int
	CellCount() int
	StableID(index int) ID
	IndexFromID(id ID) int
	CellAtPosition(p r3.Vec) int
	CellFromVertex(vertex int) int
	CellNeighborFromVertex(vertex int) int

	Buffer(c BufferClass) BufferInfo
	BufferData(c BufferClass) []float32
	RebuildGeometry(maxTriangles, maxPreviewVerts, maxSites int)
	ClearGeometry()
	ComputeSingleCell(index int)

	SetPalette(colors []f32.Vec3)
	HasColors() bool
	SanityCheck(label string) bool

	Close()
}

// Factory creates a kernel for a bounding box.
type Factory func(box geometry.Box) Kernel

// TypeFor converts the boolean "active" flag used by creation gestures into
// a cell type. Inactive cells are type 0; active cells take category, or 1
// when no category is selected.
func TypeFor(active bool, category int) int {
	if !active {
		return 0
	}
	if category > 0 {
		return category
	}
	return 1
}
