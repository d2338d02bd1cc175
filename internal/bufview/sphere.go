package bufview

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Sphere is a bounding sphere.
type Sphere struct {
	Center r3.Vec
	Radius float64
}

// Finite reports whether the sphere has a usable radius.
func (s Sphere) Finite() bool {
	return !math.IsNaN(s.Radius) && !math.IsInf(s.Radius, 0)
}

// BoundingSphere fits a sphere around the first count points of a packed
// xyz array: centered on their bounding box, with the radius of the
// farthest point.
func BoundingSphere(positions []float32, count int) Sphere {
	count = min(count, len(positions)/3)
	if count <= 0 {
		return Sphere{}
	}
	lo := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	nan := false
	for i := 0; i < count; i++ {
		p := point(positions, i)
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
			nan = true
			continue
		}
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	if nan {
		return Sphere{Radius: math.NaN()}
	}
	center := r3.Scale(0.5, r3.Add(lo, hi))
	maxSq := 0.0
	for i := 0; i < count; i++ {
		d := r3.Sub(point(positions, i), center)
		maxSq = math.Max(maxSq, r3.Dot(d, d))
	}
	return Sphere{Center: center, Radius: math.Sqrt(maxSq)}
}

func point(data []float32, i int) r3.Vec {
	return r3.Vec{X: float64(data[i*3]), Y: float64(data[i*3+1]), Z: float64(data[i*3+2])}
}
