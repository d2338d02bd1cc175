// Package canvas provides a projected 2D viewport over the kernel's site
// and preview buffers, with zoom, picking and drag.
package canvas

import (
	"image"
	"image/color"
	"math"
	"sync"

	"voro-editor/internal/bufview"
	"voro-editor/internal/kernel"
	"voro-editor/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	minZoom  = 0.25
	maxZoom  = 8.0
	zoomStep = 1.25

	// pickRadius is how close, in pixels, a tap must land to hit a site.
	pickRadius = 8.0
)

// Plane selects which two axes the viewport shows.
type Plane int

const (
	PlaneXY Plane = iota // front
	PlaneXZ              // top
	PlaneZY              // side
)

// String implements fmt.Stringer.
func (p Plane) String() string {
	switch p {
	case PlaneXZ:
		return "Top (XZ)"
	case PlaneZY:
		return "Side (ZY)"
	default:
		return "Front (XY)"
	}
}

// Viewport draws cell sites projected onto a plane. It is the renderer side
// of the buffer views: the view manager binds kernel buffers to it and it
// copies the draw range whenever a buffer is marked for update, so drawing
// never touches kernel memory.
type Viewport struct {
	widget.BaseWidget

	mu      sync.Mutex
	bound   [kernel.NumBufferClasses][]float32
	counts  [kernel.NumBufferClasses]int
	items   [kernel.NumBufferClasses]int
	sites   []float32
	sizes   []float32
	preview []float32
	colors  []color.RGBA
	markers []Marker

	box   geometry.Box
	plane Plane
	zoom  float64

	raster *fynecanvas.Raster

	dragging bool
	dragLast fyne.Position

	// Callbacks
	onTap     func(world r3.Vec, site int)
	onDrag    func(delta r3.Vec)
	onDragEnd func()
}

var _ bufview.Binder = (*Viewport)(nil)

// NewViewport creates a viewport over box.
func NewViewport(box geometry.Box) *Viewport {
	v := &Viewport{box: box, zoom: 1}
	v.raster = fynecanvas.NewRaster(v.draw)
	v.raster.ScaleMode = fynecanvas.ImageScalePixels
	v.raster.SetMinSize(fyne.NewSize(400, 400))
	v.ExtendBaseWidget(v)
	return v
}

// Bind implements bufview.Binder.
func (v *Viewport) Bind(c kernel.BufferClass, data []float32, itemSize int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bound[c] = data
	v.items[c] = itemSize
}

// Unbind implements bufview.Binder.
func (v *Viewport) Unbind(c kernel.BufferClass) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bound[c] = nil
	v.counts[c] = 0
	v.copyLocked(c)
}

// SetDrawRange implements bufview.Binder.
func (v *Viewport) SetDrawRange(c kernel.BufferClass, count int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.counts[c] = count
}

// MarkNeedsUpdate implements bufview.Binder.
func (v *Viewport) MarkNeedsUpdate(c kernel.BufferClass) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.copyLocked(c)
}

func (v *Viewport) copyLocked(c kernel.BufferClass) {
	n := min(v.counts[c]*v.items[c], len(v.bound[c]))
	var dst *[]float32
	switch c {
	case kernel.SitePositions:
		dst = &v.sites
	case kernel.SiteSizes:
		dst = &v.sizes
	case kernel.Preview:
		dst = &v.preview
	default:
		return
	}
	*dst = append((*dst)[:0], v.bound[c][:max(n, 0)]...)
}

// SetSiteColors sets one color per site, in site order.
func (v *Viewport) SetSiteColors(colors []color.RGBA) {
	v.mu.Lock()
	v.colors = colors
	v.mu.Unlock()
}

// SetMarkers replaces the highlighted positions.
func (v *Viewport) SetMarkers(markers []Marker) {
	v.mu.Lock()
	v.markers = markers
	v.mu.Unlock()
}

// SetBox changes the scene box the projection fits.
func (v *Viewport) SetBox(box geometry.Box) {
	v.mu.Lock()
	v.box = box
	v.mu.Unlock()
}

// SetPlane changes the projection plane.
func (v *Viewport) SetPlane(p Plane) {
	v.mu.Lock()
	v.plane = p
	v.mu.Unlock()
	v.Refresh()
}

// Plane returns the projection plane.
func (v *Viewport) Plane() Plane {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.plane
}

// ZoomIn zooms in one step.
func (v *Viewport) ZoomIn() { v.setZoom(v.zoom * zoomStep) }

// ZoomOut zooms out one step.
func (v *Viewport) ZoomOut() { v.setZoom(v.zoom / zoomStep) }

// ResetZoom fits the box to the viewport.
func (v *Viewport) ResetZoom() { v.setZoom(1) }

func (v *Viewport) setZoom(z float64) {
	v.mu.Lock()
	v.zoom = math.Max(minZoom, math.Min(maxZoom, z))
	v.mu.Unlock()
	v.Refresh()
}

// OnTap sets the callback for taps. site is the index of the site under the
// pointer, or -1.
func (v *Viewport) OnTap(fn func(world r3.Vec, site int)) { v.onTap = fn }

// OnDrag sets the callback for drags, called with the world-space motion.
func (v *Viewport) OnDrag(fn func(delta r3.Vec)) { v.onDrag = fn }

// OnDragEnd sets the callback for the end of a drag.
func (v *Viewport) OnDragEnd(fn func()) { v.onDragEnd = fn }

// CreateRenderer implements fyne.Widget.
func (v *Viewport) CreateRenderer() fyne.WidgetRenderer {
	return &viewportRenderer{v: v}
}

// Tapped handles left-click events.
func (v *Viewport) Tapped(ev *fyne.PointEvent) {
	if v.onTap == nil {
		return
	}
	// Reject clicks outside widget bounds
	size := v.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}
	v.mu.Lock()
	p := v.projection(size)
	world := p.unproject(float64(ev.Position.X), float64(ev.Position.Y))
	site := p.nearest(v.sites, float64(ev.Position.X), float64(ev.Position.Y))
	v.mu.Unlock()
	v.onTap(world, site)
}

// Dragged handles drag motion.
func (v *Viewport) Dragged(ev *fyne.DragEvent) {
	if !v.dragging {
		v.dragging = true
		v.dragLast = fyne.NewPos(ev.Position.X-ev.Dragged.DX, ev.Position.Y-ev.Dragged.DY)
	}
	v.mu.Lock()
	p := v.projection(v.Size())
	from := p.unproject(float64(v.dragLast.X), float64(v.dragLast.Y))
	to := p.unproject(float64(ev.Position.X), float64(ev.Position.Y))
	v.mu.Unlock()
	v.dragLast = ev.Position
	if v.onDrag != nil {
		v.onDrag(r3.Sub(to, from))
	}
}

// DragEnd handles the end of a drag.
func (v *Viewport) DragEnd() {
	if !v.dragging {
		return
	}
	v.dragging = false
	if v.onDragEnd != nil {
		v.onDragEnd()
	}
}

// Scrolled zooms with the mouse wheel.
func (v *Viewport) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		v.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		v.ZoomOut()
	}
}

// draw renders the current copies of the buffers.
func (v *Viewport) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(output, background)

	v.mu.Lock()
	defer v.mu.Unlock()
	p := v.projection(fyne.NewSize(float32(w), float32(h)))

	// Box outline
	x0, y0 := p.project(v.box.Min)
	x1, y1 := p.project(v.box.Max)
	drawRect(output, int(x0), int(y0), int(x1), int(y1), boxColor)

	// Preview wireframe: vertex pairs are edges
	for i := 0; i+5 < len(v.preview); i += 6 {
		ax, ay := p.project(point(v.preview, i/3))
		bx, by := p.project(point(v.preview, i/3+1))
		drawLine(output, int(ax), int(ay), int(bx), int(by), previewColor, 1)
	}

	for i := 0; i*3+2 < len(v.sites); i++ {
		x, y := p.project(point(v.sites, i))
		r := 2.0
		if i < len(v.sizes) {
			r = 1.5 + 1.5*float64(v.sizes[i])
		}
		col := inactiveColor
		if i < len(v.colors) {
			col = v.colors[i]
		}
		drawCircle(output, x, y, r, col, true)
	}

	for _, m := range v.markers {
		x, y := p.project(m.Pos)
		drawCircle(output, x, y, m.Radius, m.Color, m.Filled)
	}
	return output
}

type viewportRenderer struct {
	v *Viewport
}

func (r *viewportRenderer) Layout(size fyne.Size) {
	r.v.raster.Resize(size)
}

func (r *viewportRenderer) MinSize() fyne.Size {
	return r.v.raster.MinSize()
}

func (r *viewportRenderer) Refresh() {
	r.v.raster.Refresh()
}

func (r *viewportRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.v.raster}
}

func (r *viewportRenderer) Destroy() {}

func point(data []float32, i int) r3.Vec {
	return r3.Vec{X: float64(data[i*3]), Y: float64(data[i*3+1]), Z: float64(data[i*3+2])}
}
