// Package generate produces seeded procedural cell layouts.
package generate

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"voro-editor/pkg/geometry"

	"gonum.org/v1/gonum/spatial/r3"
)

// Kind selects a point distribution.
type Kind string

const (
	Uniform Kind = "uniform"
	Grid    Kind = "grid"
	Sphere  Kind = "sphere"
	Spiral  Kind = "spiral"
)

// Kinds lists the available distributions.
var Kinds = []Kind{Uniform, Grid, Sphere, Spiral}

// ErrUnknownKind is returned for an unsupported distribution.
var ErrUnknownKind = errors.New("generate: unknown kind")

// Params describe one generation run.
type Params struct {
	Kind  Kind  `json:"kind"`
	Count int   `json:"count"`
	Seed  int64 `json:"seed"`
	// Fill is the percentage of cells made active. Zero activates only the
	// cell nearest the box center.
	Fill float64 `json:"fill"`
}

// DefaultParams returns a moderate uniform layout.
func DefaultParams() Params {
	return Params{Kind: Uniform, Count: 200, Seed: 1, Fill: 0}
}

// Layout is a generated set of points with their types.
type Layout struct {
	Points []r3.Vec
	Types  []int
}

// Generate builds a layout inside box. Active cells take activeType. The
// result is deterministic for a given Params.
func Generate(p Params, box geometry.Box, activeType int) (Layout, error) {
	if p.Count < 0 {
		return Layout{}, fmt.Errorf("generate: negative count %d", p.Count)
	}
	rng := rand.New(rand.NewSource(p.Seed))
	var pts []r3.Vec
	switch p.Kind {
	case Uniform, "":
		pts = uniform(rng, p.Count, box)
	case Grid:
		pts = grid(rng, p.Count, box)
	case Sphere:
		pts = sphere(rng, p.Count, box)
	case Spiral:
		pts = spiral(p.Count, box)
	default:
		return Layout{}, fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}
	for i := range pts {
		pts[i] = box.ClampInside(pts[i])
	}
	return Layout{Points: pts, Types: fill(rng, pts, box, p.Fill, max(activeType, 1))}, nil
}

func uniform(rng *rand.Rand, n int, box geometry.Box) []r3.Vec {
	size := box.Size()
	pts := make([]r3.Vec, n)
	for i := range pts {
		pts[i] = r3.Vec{
			X: box.Min.X + rng.Float64()*size.X,
			Y: box.Min.Y + rng.Float64()*size.Y,
			Z: box.Min.Z + rng.Float64()*size.Z,
		}
	}
	return pts
}

// grid places cells at lattice centers with a small jitter so that no four
// sites are exactly cospherical.
func grid(rng *rand.Rand, n int, box geometry.Box) []r3.Vec {
	if n == 0 {
		return nil
	}
	side := int(math.Ceil(math.Cbrt(float64(n))))
	size := box.Size()
	step := r3.Vec{X: size.X / float64(side), Y: size.Y / float64(side), Z: size.Z / float64(side)}
	jitter := math.Min(step.X, math.Min(step.Y, step.Z)) * 1e-3
	pts := make([]r3.Vec, 0, n)
	for z := 0; z < side && len(pts) < n; z++ {
		for y := 0; y < side && len(pts) < n; y++ {
			for x := 0; x < side && len(pts) < n; x++ {
				pts = append(pts, r3.Vec{
					X: box.Min.X + (float64(x)+0.5)*step.X + (rng.Float64()-0.5)*jitter,
					Y: box.Min.Y + (float64(y)+0.5)*step.Y + (rng.Float64()-0.5)*jitter,
					Z: box.Min.Z + (float64(z)+0.5)*step.Z + (rng.Float64()-0.5)*jitter,
				})
			}
		}
	}
	return pts
}

// sphere scatters cells uniformly over a sphere filling most of the box.
func sphere(rng *rand.Rand, n int, box geometry.Box) []r3.Vec {
	size := box.Size()
	radius := 0.45 * math.Min(size.X, math.Min(size.Y, size.Z))
	c := box.Center()
	pts := make([]r3.Vec, n)
	for i := range pts {
		z := 2*rng.Float64() - 1
		phi := 2 * math.Pi * rng.Float64()
		r := math.Sqrt(1 - z*z)
		pts[i] = r3.Add(c, r3.Scale(radius, r3.Vec{X: r * math.Cos(phi), Y: z, Z: r * math.Sin(phi)}))
	}
	return pts
}

// spiral places cells on a Fibonacci spiral climbing the box's Y axis.
func spiral(n int, box geometry.Box) []r3.Vec {
	size := box.Size()
	radius := 0.45 * math.Min(size.X, size.Z)
	c := box.Center()
	golden := math.Pi * (3 - math.Sqrt(5))
	pts := make([]r3.Vec, n)
	for i := range pts {
		t := (float64(i) + 0.5) / float64(n)
		theta := golden * float64(i)
		pts[i] = r3.Vec{
			X: c.X + radius*math.Sqrt(t)*math.Cos(theta),
			Y: box.Min.Y + t*size.Y,
			Z: c.Z + radius*math.Sqrt(t)*math.Sin(theta),
		}
	}
	return pts
}

func fill(rng *rand.Rand, pts []r3.Vec, box geometry.Box, level float64, active int) []int {
	types := make([]int, len(pts))
	if len(pts) == 0 {
		return types
	}
	if level <= 0 {
		c := box.Center()
		nearest := 0
		best := math.Inf(1)
		for i, p := range pts {
			if d := r3.Norm(r3.Sub(p, c)); d < best {
				nearest, best = i, d
			}
		}
		types[nearest] = active
		return types
	}
	prob := math.Min(level, 100) / 100
	for i := range types {
		if rng.Float64() < prob {
			types[i] = active
		}
	}
	return types
}
