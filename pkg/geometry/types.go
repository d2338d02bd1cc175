// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"fmt"
	"math"

	"golang.org/x/image/math/f32"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// insideEpsilon is the fraction of the box diagonal kept between a clamped
// point and the box faces.
const insideEpsilon = 1e-6

// Box is an axis-aligned bounding box.
type Box struct {
	Min r3.Vec `json:"min"`
	Max r3.Vec `json:"max"`
}

// NewBox creates a new Box from two corners, normalizing their order.
func NewBox(a, b r3.Vec) Box {
	return Box{
		Min: r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)},
		Max: r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)},
	}
}

// Cube returns the box [-half, half]^3.
func Cube(half float64) Box {
	return Box{
		Min: r3.Vec{X: -half, Y: -half, Z: -half},
		Max: r3.Vec{X: half, Y: half, Z: half},
	}
}

// Center returns the center point of the box.
func (b Box) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

// Size returns the edge lengths of the box.
func (b Box) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

// Diagonal returns the length of the box diagonal.
func (b Box) Diagonal() float64 {
	return r3.Norm(b.Size())
}

// Empty reports whether the box has no volume.
func (b Box) Empty() bool {
	return !(b.Max.X > b.Min.X && b.Max.Y > b.Min.Y && b.Max.Z > b.Min.Z)
}

// Contains returns true if the point lies strictly inside the box.
func (b Box) Contains(p r3.Vec) bool {
	return p.X > b.Min.X && p.X < b.Max.X &&
		p.Y > b.Min.Y && p.Y < b.Max.Y &&
		p.Z > b.Min.Z && p.Z < b.Max.Z
}

// ClampInside returns p moved the minimum distance needed to lie strictly
// inside the box. Non-finite coordinates collapse to the box center.
func (b Box) ClampInside(p r3.Vec) r3.Vec {
	eps := b.Diagonal() * insideEpsilon
	c := b.Center()
	return r3.Vec{
		X: clampAxis(p.X, b.Min.X+eps, b.Max.X-eps, c.X),
		Y: clampAxis(p.Y, b.Min.Y+eps, b.Max.Y-eps, c.Y),
		Z: clampAxis(p.Z, b.Min.Z+eps, b.Max.Z-eps, c.Z),
	}
}

func clampAxis(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	if lo > hi {
		return fallback
	}
	return math.Max(lo, math.Min(hi, v))
}

// String implements fmt.Stringer.
func (b Box) String() string {
	return fmt.Sprintf("[(%g, %g, %g) - (%g, %g, %g)]", b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
}

// Finite reports whether every coordinate of v is a finite number.
func Finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// NearlyEqual compares two points coordinate-wise within tol.
func NearlyEqual(a, b r3.Vec, tol float64) bool {
	return scalar.EqualWithinAbs(a.X, b.X, tol) &&
		scalar.EqualWithinAbs(a.Y, b.Y, tol) &&
		scalar.EqualWithinAbs(a.Z, b.Z, tol)
}

// ToF32 narrows a point to the float32 layout used by kernel buffers and files.
func ToF32(v r3.Vec) f32.Vec3 {
	return f32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// FromF32 widens a float32 triple.
func FromF32(v f32.Vec3) r3.Vec {
	return r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

// Affine3 represents a 3D affine transformation p -> L*p + T.
type Affine3 struct {
	L [3][3]float64
	T r3.Vec
}

// Identity returns the identity transform.
func Identity() Affine3 {
	return Affine3{L: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// Translation returns a translation transform.
func Translation(t r3.Vec) Affine3 {
	a := Identity()
	a.T = t
	return a
}

// Reflection returns the reflection across the plane through center with
// the given normal. A zero normal yields the identity.
func Reflection(normal, center r3.Vec) Affine3 {
	if r3.Norm(normal) == 0 {
		return Identity()
	}
	n := r3.Unit(normal)
	nv := [3]float64{n.X, n.Y, n.Z}
	var l [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			l[i][j] = -2 * nv[i] * nv[j]
			if i == j {
				l[i][j]++
			}
		}
	}
	return about(Affine3{L: l}, center)
}

// UniformScale returns a scaling by f about center.
func UniformScale(f float64, center r3.Vec) Affine3 {
	return about(Affine3{L: [3][3]float64{{f, 0, 0}, {0, f, 0}, {0, 0, f}}}, center)
}

// about conjugates a linear map with a translation so it fixes center.
func about(lin Affine3, center r3.Vec) Affine3 {
	return Translation(center).Compose(lin).Compose(Translation(r3.Scale(-1, center)))
}

// Apply applies the transform to a point.
func (a Affine3) Apply(p r3.Vec) r3.Vec {
	return r3.Vec{
		X: a.L[0][0]*p.X + a.L[0][1]*p.Y + a.L[0][2]*p.Z + a.T.X,
		Y: a.L[1][0]*p.X + a.L[1][1]*p.Y + a.L[1][2]*p.Z + a.T.Y,
		Z: a.L[2][0]*p.X + a.L[2][1]*p.Y + a.L[2][2]*p.Z + a.T.Z,
	}
}

// Compose returns this transform composed with another (a * other), so
// other is applied first.
func (a Affine3) Compose(other Affine3) Affine3 {
	var prod mat.Dense
	prod.Mul(a.dense(), other.dense())
	return fromDense(&prod)
}

// Inverse returns the inverse transform, if it exists.
func (a Affine3) Inverse() (Affine3, bool) {
	var inv mat.Dense
	if err := inv.Inverse(a.dense()); err != nil {
		return Affine3{}, false
	}
	return fromDense(&inv), true
}

// dense returns the 4x4 homogeneous matrix of the transform.
func (a Affine3) dense() *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		a.L[0][0], a.L[0][1], a.L[0][2], a.T.X,
		a.L[1][0], a.L[1][1], a.L[1][2], a.T.Y,
		a.L[2][0], a.L[2][1], a.L[2][2], a.T.Z,
		0, 0, 0, 1,
	})
}

func fromDense(m *mat.Dense) Affine3 {
	var a Affine3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			a.L[i][j] = m.At(i, j)
		}
	}
	a.T = r3.Vec{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}
	return a
}
