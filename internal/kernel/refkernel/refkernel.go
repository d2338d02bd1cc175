// Package refkernel is an in-process reference implementation of the geometry
// kernel boundary. It keeps the kernel's observable contract (swap-pop slots,
// never-reused ids, growable buffers whose address changes on reallocation)
// but stands in a cube per active cell for the real partition surface.
package refkernel

import (
	"fmt"
	"log/slog"
	"math"

	"voro-editor/internal/kernel"
	"voro-editor/pkg/colorutil"
	"voro-editor/pkg/geometry"

	"golang.org/x/image/math/f32"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// toleranceFraction of the box diagonal is the CellAtPosition radius.
	toleranceFraction = 1e-5
	// cellFraction of the box diagonal is the half-size of a cell's cube.
	cellFraction = 0.01

	activeSiteSize   = 2.0
	inactiveSiteSize = 1.0
)

type cell struct {
	id  kernel.ID
	pos r3.Vec
	typ int
}

type buffer struct {
	data  []float32
	addr  uint64
	count int
}

func (b *buffer) capacity(item int) int {
	return len(b.data) / item
}

// Kernel is the reference kernel.
type Kernel struct {
	box       geometry.Box
	tolerance float64
	half      float64

	cells  []cell
	slots  map[kernel.ID]int
	nextID kernel.ID

	active   bool
	bufs     [kernel.NumBufferClasses]buffer
	nextAddr uint64
	triOwner []int
	preview  int

	palette []f32.Vec3

	// Reallocations counts buffer reallocations per class.
	Reallocations [kernel.NumBufferClasses]int
}

var _ kernel.Kernel = (*Kernel)(nil)

// New creates a reference kernel for the bounding box.
func New(box geometry.Box) *Kernel {
	diag := box.Diagonal()
	return &Kernel{
		box:       box,
		tolerance: diag * toleranceFraction,
		half:      diag * cellFraction,
		slots:     make(map[kernel.ID]int),
		nextAddr:  0x10000,
		preview:   -1,
	}
}

// Factory adapts New to kernel.Factory.
func Factory(box geometry.Box) kernel.Kernel {
	return New(box)
}

// SetTolerance overrides the CellAtPosition search radius.
func (k *Kernel) SetTolerance(tol float64) {
	k.tolerance = tol
}

func (k *Kernel) Bounds() geometry.Box { return k.box }

func (k *Kernel) valid(index int) bool {
	return index >= 0 && index < len(k.cells)
}

func (k *Kernel) AddCell(p r3.Vec, typ int) int {
	if typ < 0 {
		typ = 0
	}
	id := k.nextID
	k.nextID++
	k.cells = append(k.cells, cell{id: id, pos: k.box.ClampInside(p), typ: typ})
	index := len(k.cells) - 1
	k.slots[id] = index
	k.regenerate()
	return index
}

func (k *Kernel) DeleteCell(index int) {
	if !k.valid(index) {
		return
	}
	last := len(k.cells) - 1
	delete(k.slots, k.cells[index].id)
	if index != last {
		k.cells[index] = k.cells[last]
		k.slots[k.cells[index].id] = index
	}
	k.cells = k.cells[:last]
	switch k.preview {
	case index:
		k.preview = -1
	case last:
		k.preview = index
	}
	k.regenerate()
}

func (k *Kernel) MoveCell(index int, p r3.Vec) {
	if !k.valid(index) {
		return
	}
	k.cells[index].pos = k.box.ClampInside(p)
	k.regenerate()
}

func (k *Kernel) MoveCells(indices []int, pts []r3.Vec) {
	n := min(len(indices), len(pts))
	for i := 0; i < n; i++ {
		if k.valid(indices[i]) {
			k.cells[indices[i]].pos = k.box.ClampInside(pts[i])
		}
	}
	k.regenerate()
}

func (k *Kernel) ToggleCell(index int, typ int) {
	if !k.valid(index) {
		return
	}
	if k.cells[index].typ > 0 {
		k.cells[index].typ = 0
	} else {
		k.cells[index].typ = max(typ, 0)
	}
	k.regenerate()
}

func (k *Kernel) SetCellType(index int, typ int) {
	if !k.valid(index) {
		return
	}
	k.cells[index].typ = max(typ, 0)
	k.regenerate()
}

func (k *Kernel) CellPosition(index int) r3.Vec {
	if !k.valid(index) {
		return r3.Vec{}
	}
	return k.cells[index].pos
}

func (k *Kernel) CellType(index int) int {
	if !k.valid(index) {
		return 0
	}
	return k.cells[index].typ
}

func (k *Kernel) CellCount() int { return len(k.cells) }

func (k *Kernel) StableID(index int) kernel.ID {
	if !k.valid(index) {
		return kernel.NoID
	}
	return k.cells[index].id
}

func (k *Kernel) IndexFromID(id kernel.ID) int {
	if index, ok := k.slots[id]; ok {
		return index
	}
	return -1
}

func (k *Kernel) CellAtPosition(p r3.Vec) int {
	best, bestDist := -1, k.tolerance
	for i, c := range k.cells {
		if d := r3.Norm(r3.Sub(c.pos, p)); d <= bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func (k *Kernel) CellFromVertex(vertex int) int {
	tri := vertex / 3
	if vertex < 0 || tri >= len(k.triOwner) {
		return -1
	}
	return k.triOwner[tri]
}

// CellNeighborFromVertex returns the cell nearest to the point reflected
// through the hit face, which is the cell on the far side of that face.
func (k *Kernel) CellNeighborFromVertex(vertex int) int {
	owner := k.CellFromVertex(vertex)
	if owner < 0 {
		return -1
	}
	tri := vertex / 3
	data := k.bufs[kernel.Triangles].data
	var t geometry.Triangle
	for v := 0; v < 3; v++ {
		o := (tri*3 + v) * 3
		t[v] = r3.Vec{X: float64(data[o]), Y: float64(data[o+1]), Z: float64(data[o+2])}
	}
	center := k.cells[owner].pos
	probe := r3.Add(center, r3.Scale(2, r3.Sub(t.Centroid(), center)))
	best, bestDist := -1, math.Inf(1)
	for i, c := range k.cells {
		if i == owner {
			continue
		}
		if d := r3.Norm(r3.Sub(c.pos, probe)); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func (k *Kernel) Buffer(c kernel.BufferClass) kernel.BufferInfo {
	if c < 0 || int(c) >= kernel.NumBufferClasses {
		return kernel.BufferInfo{}
	}
	b := &k.bufs[c]
	return kernel.BufferInfo{Addr: b.addr, Capacity: b.capacity(c.ItemSize()), Count: b.count}
}

func (k *Kernel) BufferData(c kernel.BufferClass) []float32 {
	if c < 0 || int(c) >= kernel.NumBufferClasses {
		return nil
	}
	return k.bufs[c].data
}

func (k *Kernel) RebuildGeometry(maxTriangles, maxPreviewVerts, maxSites int) {
	k.active = true
	k.alloc(kernel.Triangles, maxTriangles*3)
	if k.HasColors() {
		k.alloc(kernel.TriangleColors, maxTriangles*3)
	}
	k.alloc(kernel.Preview, maxPreviewVerts)
	k.alloc(kernel.SitePositions, maxSites)
	k.alloc(kernel.SiteSizes, maxSites)
	k.regenerate()
}

func (k *Kernel) ClearGeometry() {
	k.active = false
	k.bufs = [kernel.NumBufferClasses]buffer{}
	k.triOwner = nil
}

func (k *Kernel) ComputeSingleCell(index int) {
	if !k.valid(index) {
		index = -1
	}
	k.preview = index
	k.regenerate()
}

func (k *Kernel) SetPalette(colors []f32.Vec3) {
	k.palette = append([]f32.Vec3(nil), colors...)
	if !k.HasColors() {
		k.bufs[kernel.TriangleColors] = buffer{}
	}
	k.regenerate()
}

func (k *Kernel) HasColors() bool { return len(k.palette) > 0 }

// SanityCheck verifies slot bookkeeping, id uniqueness and containment. A
// failure is logged at debug level under label.
func (k *Kernel) SanityCheck(label string) bool {
	if err := k.check(); err != nil {
		slog.Debug("kernel sanity check failed", "label", label, "err", err)
		return false
	}
	return true
}

func (k *Kernel) check() error {
	if len(k.slots) != len(k.cells) {
		return fmt.Errorf("%d slots for %d cells", len(k.slots), len(k.cells))
	}
	for i, c := range k.cells {
		if k.slots[c.id] != i {
			return fmt.Errorf("cell %d at slot %d, indexed at %d", c.id, i, k.slots[c.id])
		}
		if c.id >= k.nextID || c.typ < 0 {
			return fmt.Errorf("cell %d: bad id or type %d", c.id, c.typ)
		}
		if !k.box.Contains(c.pos) {
			return fmt.Errorf("cell %d outside the box at %v", c.id, c.pos)
		}
	}
	if k.active {
		if got, want := k.bufs[kernel.Triangles].count, len(k.triOwner)*3; got != want {
			return fmt.Errorf("triangle buffer holds %d vertices, want %d", got, want)
		}
		for _, owner := range k.triOwner {
			if !k.valid(owner) {
				return fmt.Errorf("triangle owned by missing slot %d", owner)
			}
		}
	}
	return nil
}

func (k *Kernel) Close() {
	k.ClearGeometry()
	k.cells = nil
	k.slots = map[kernel.ID]int{}
}

// alloc replaces a buffer with fresh memory of at least items elements.
func (k *Kernel) alloc(c kernel.BufferClass, items int) {
	items = max(items, 1)
	k.bufs[c] = buffer{data: make([]float32, items*c.ItemSize()), addr: k.nextAddr}
	k.nextAddr += uint64(items * c.ItemSize() * 4)
	k.Reallocations[c]++
}

// ensure grows a buffer geometrically when items exceed its capacity.
func (k *Kernel) ensure(c kernel.BufferClass, items int) {
	b := &k.bufs[c]
	if b.data != nil && items <= b.capacity(c.ItemSize()) {
		return
	}
	capacity := max(items, 2*b.capacity(c.ItemSize()))
	old := b.data
	k.alloc(c, capacity)
	copy(k.bufs[c].data, old)
}

// regenerate rewrites every buffer from the cell set.
func (k *Kernel) regenerate() {
	if !k.active {
		return
	}
	var tris []geometry.Triangle
	k.triOwner = k.triOwner[:0]
	for i, c := range k.cells {
		if c.typ <= 0 {
			continue
		}
		for _, t := range geometry.CubeTriangles(c.pos, k.half) {
			tris = append(tris, t)
			k.triOwner = append(k.triOwner, i)
		}
	}

	verts := len(tris) * 3
	k.ensure(kernel.Triangles, verts)
	pos := k.bufs[kernel.Triangles].data
	for ti, t := range tris {
		for v := 0; v < 3; v++ {
			p := geometry.ToF32(t[v])
			copy(pos[(ti*3+v)*3:], p[:])
		}
	}
	k.bufs[kernel.Triangles].count = verts

	if k.HasColors() {
		k.ensure(kernel.TriangleColors, verts)
		col := k.bufs[kernel.TriangleColors].data
		for ti := range tris {
			rgb := colorutil.ForType(k.palette, k.cells[k.triOwner[ti]].typ)
			for v := 0; v < 3; v++ {
				copy(col[(ti*3+v)*3:], rgb[:])
			}
		}
		k.bufs[kernel.TriangleColors].count = verts
	}

	k.ensure(kernel.SitePositions, len(k.cells))
	k.ensure(kernel.SiteSizes, len(k.cells))
	sites := k.bufs[kernel.SitePositions].data
	sizes := k.bufs[kernel.SiteSizes].data
	for i, c := range k.cells {
		p := geometry.ToF32(c.pos)
		copy(sites[i*3:], p[:])
		sizes[i] = inactiveSiteSize
		if c.typ > 0 {
			sizes[i] = activeSiteSize
		}
	}
	k.bufs[kernel.SitePositions].count = len(k.cells)
	k.bufs[kernel.SiteSizes].count = len(k.cells)

	k.bufs[kernel.Preview].count = 0
	if k.valid(k.preview) {
		edges := geometry.CubeEdges(k.cells[k.preview].pos, k.half)
		k.ensure(kernel.Preview, len(edges)*2)
		pv := k.bufs[kernel.Preview].data
		for ei, e := range edges {
			a, b := geometry.ToF32(e[0]), geometry.ToF32(e[1])
			copy(pv[(ei*2)*3:], a[:])
			copy(pv[(ei*2+1)*3:], b[:])
		}
		k.bufs[kernel.Preview].count = len(edges) * 2
	}
}
