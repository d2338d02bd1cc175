package canvas

import (
	"image"
	"image/color"
	"testing"

	"voro-editor/internal/kernel"
	"voro-editor/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestProjectionRoundTrip(t *testing.T) {
	box := geometry.Cube(10)
	for _, plane := range []Plane{PlaneXY, PlaneXZ, PlaneZY} {
		p := newProjection(plane, box, 1.5, 400, 300)
		w := join(plane, 3, -2, 0)
		x, y := p.project(w)
		back := p.unproject(x, y)
		assert.InDelta(t, w.X, back.X, 1e-9, plane.String())
		assert.InDelta(t, w.Y, back.Y, 1e-9, plane.String())
		assert.InDelta(t, w.Z, back.Z, 1e-9, plane.String())
	}
}

func TestProjectionFlipsVertical(t *testing.T) {
	p := newProjection(PlaneXY, geometry.Cube(10), 1, 200, 200)
	x, y := p.project(r3.Vec{X: 10, Y: 10})
	assert.Greater(t, x, 100.0)
	assert.Less(t, y, 100.0)
	x, y = p.project(r3.Vec{})
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 100.0, y)
}

func TestNearestSite(t *testing.T) {
	p := newProjection(PlaneXY, geometry.Cube(10), 1, 200, 200)
	sites := []float32{0, 0, 0, 5, 5, 0}
	x, y := p.project(r3.Vec{X: 5, Y: 5})
	assert.Equal(t, 1, p.nearest(sites, x+2, y-1))
	assert.Equal(t, 0, p.nearest(sites, 100, 101))
	assert.Equal(t, -1, p.nearest(sites, 10, 190))
}

func TestBinderCopiesDrawRange(t *testing.T) {
	v := NewViewport(geometry.Cube(10))
	data := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	v.Bind(kernel.SitePositions, data, 3)
	v.SetDrawRange(kernel.SitePositions, 2)
	v.MarkNeedsUpdate(kernel.SitePositions)

	data[0] = 100
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, v.sites)

	v.Unbind(kernel.SitePositions)
	assert.Empty(t, v.sites)
}

func TestDrawPaintsSites(t *testing.T) {
	v := NewViewport(geometry.Cube(10))
	v.Bind(kernel.SitePositions, []float32{0, 0, 0}, 3)
	v.SetDrawRange(kernel.SitePositions, 1)
	v.MarkNeedsUpdate(kernel.SitePositions)
	red := color.RGBA{R: 0xFF, A: 0xFF}
	v.SetSiteColors([]color.RGBA{red})

	img, ok := v.draw(100, 100).(*image.RGBA)
	require.True(t, ok)
	assert.Equal(t, red, img.RGBAAt(50, 50))
	assert.Equal(t, background, img.RGBAAt(50, 20))
}
