package canvas

import (
	"math"

	"voro-editor/pkg/geometry"

	"fyne.io/fyne/v2"
	"gonum.org/v1/gonum/spatial/r3"
)

// projection maps world points onto viewport pixels for one plane. Screen y
// grows downward, so the plane's second axis is flipped.
type projection struct {
	plane  Plane
	center r3.Vec
	scale  float64 // pixels per world unit
	cx, cy float64
}

func newProjection(plane Plane, box geometry.Box, zoom, w, h float64) projection {
	size := box.Size()
	eu, ev, _ := split(plane, size)
	scale := 1.0
	if eu > 0 && ev > 0 && w > 0 && h > 0 {
		scale = 0.9 * zoom * math.Min(w/eu, h/ev)
	}
	return projection{plane: plane, center: box.Center(), scale: scale, cx: w / 2, cy: h / 2}
}

func (v *Viewport) projection(size fyne.Size) projection {
	return newProjection(v.plane, v.box, v.zoom, float64(size.Width), float64(size.Height))
}

// split returns the in-plane coordinates and the depth of p.
func split(plane Plane, p r3.Vec) (u, v, depth float64) {
	switch plane {
	case PlaneXZ:
		return p.X, p.Z, p.Y
	case PlaneZY:
		return p.Z, p.Y, p.X
	default:
		return p.X, p.Y, p.Z
	}
}

func join(plane Plane, u, v, depth float64) r3.Vec {
	switch plane {
	case PlaneXZ:
		return r3.Vec{X: u, Y: depth, Z: v}
	case PlaneZY:
		return r3.Vec{X: depth, Y: v, Z: u}
	default:
		return r3.Vec{X: u, Y: v, Z: depth}
	}
}

func (p projection) project(w r3.Vec) (x, y float64) {
	u, v, _ := split(p.plane, r3.Sub(w, p.center))
	return p.cx + u*p.scale, p.cy - v*p.scale
}

// unproject returns the world point under a pixel on the plane through the
// box center.
func (p projection) unproject(x, y float64) r3.Vec {
	u := (x - p.cx) / p.scale
	v := (p.cy - y) / p.scale
	return r3.Add(p.center, join(p.plane, u, v, 0))
}

// nearest returns the index of the site closest to a pixel within
// pickRadius, or -1.
func (p projection) nearest(sites []float32, x, y float64) int {
	best, bestDist := -1, pickRadius
	for i := 0; i*3+2 < len(sites); i++ {
		sx, sy := p.project(point(sites, i))
		if d := math.Hypot(sx-x, sy-y); d <= bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
