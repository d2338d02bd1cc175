// Package symmetry keeps mirrored, rotated and scaled copies of cells
// consistent under editing.
package symmetry

import (
	"errors"
	"fmt"
	"math"

	"voro-editor/pkg/geometry"

	"gonum.org/v1/gonum/spatial/r3"
)

// Kind names a symmetry operator family.
type Kind string

const (
	KindNone       Kind = "none"
	KindMirror     Kind = "mirror"
	KindRotational Kind = "rotational"
	KindDihedral   Kind = "dihedral"
	KindScale      Kind = "scale"
)

// Defaults applied by Spec.Build for zero-valued fields.
var (
	DefaultNormal = r3.Vec{X: 1}
	DefaultAxis   = r3.Vec{Y: 1}
)

const (
	DefaultN      = 4
	DefaultFactor = 0.75
)

// ErrInvalidSpec is returned when an operator cannot be built.
var ErrInvalidSpec = errors.New("symmetry: invalid operator spec")

// Spec describes an operator independently of the scene it is applied to.
type Spec struct {
	Kind   Kind    `json:"kind"`
	N      int     `json:"n,omitempty"`
	Axis   r3.Vec  `json:"axis,omitempty"`
	Normal r3.Vec  `json:"normal,omitempty"`
	Factor float64 `json:"factor,omitempty"`
}

// String implements fmt.Stringer.
func (s Spec) String() string {
	switch s.Kind {
	case KindMirror:
		return "mirror"
	case KindRotational, KindDihedral, KindScale:
		return fmt.Sprintf("%s(%d)", s.Kind, s.N)
	}
	return string(KindNone)
}

// withDefaults fills zero fields.
func (s Spec) withDefaults() Spec {
	if r3.Norm(s.Normal) == 0 {
		s.Normal = DefaultNormal
	}
	if r3.Norm(s.Axis) == 0 {
		s.Axis = DefaultAxis
	}
	if s.N == 0 {
		s.N = DefaultN
	}
	if s.Factor == 0 {
		s.Factor = DefaultFactor
	}
	return s
}

// Operator maps an orbit member's position to the next member's position.
type Operator interface {
	// Step applies iteration i, taken modulo the orbit size.
	Step(p r3.Vec, i int) r3.Vec
	// Iterations is the orbit size minus one.
	Iterations() int
	Spec() Spec
}

// Build constructs the operator described by s, acting about center.
func (s Spec) Build(center r3.Vec) (Operator, error) {
	s = s.withDefaults()
	if !geometry.Finite(s.Normal) || !geometry.Finite(s.Axis) || !geometry.Finite(center) {
		return nil, fmt.Errorf("%w: non-finite parameters", ErrInvalidSpec)
	}
	switch s.Kind {
	case KindMirror:
		s.N, s.Factor, s.Axis = 0, 0, r3.Vec{}
		return &Mirror{spec: s, reflect: geometry.Reflection(s.Normal, center)}, nil
	case KindRotational:
		if s.N < 2 {
			return nil, fmt.Errorf("%w: rotational order %d", ErrInvalidSpec, s.N)
		}
		s.Factor, s.Normal = 0, r3.Vec{}
		return &Rotational{spec: s, rot: newRotation(s.N, s.Axis, center)}, nil
	case KindDihedral:
		if s.N < 1 {
			return nil, fmt.Errorf("%w: dihedral order %d", ErrInvalidSpec, s.N)
		}
		s.Factor = 0
		return &Dihedral{
			spec:    s,
			reflect: geometry.Reflection(s.Normal, center),
			rot:     newRotation(s.N, s.Axis, center),
		}, nil
	case KindScale:
		if s.N < 2 {
			return nil, fmt.Errorf("%w: scale order %d", ErrInvalidSpec, s.N)
		}
		if s.Factor <= 0 || s.Factor == 1 || math.IsInf(s.Factor, 0) {
			return nil, fmt.Errorf("%w: scale factor %g", ErrInvalidSpec, s.Factor)
		}
		s.Axis, s.Normal = r3.Vec{}, r3.Vec{}
		return newScale(s, center)
	}
	return nil, fmt.Errorf("%w: kind %q", ErrInvalidSpec, s.Kind)
}

// rotation turns by 2π/n about an axis through center.
type rotation struct {
	r      r3.Rotation
	center r3.Vec
}

func newRotation(n int, axis, center r3.Vec) rotation {
	return rotation{r: r3.NewRotation(2*math.Pi/float64(n), r3.Unit(axis)), center: center}
}

func (r rotation) apply(p r3.Vec) r3.Vec {
	return r3.Add(r.center, r.r.Rotate(r3.Sub(p, r.center)))
}

// Mirror reflects across a plane through the box center.
type Mirror struct {
	spec    Spec
	reflect geometry.Affine3
}

func (m *Mirror) Step(p r3.Vec, _ int) r3.Vec { return m.reflect.Apply(p) }
func (m *Mirror) Iterations() int              { return 1 }
func (m *Mirror) Spec() Spec                   { return m.spec }

// Rotational is the cyclic group of order N about an axis.
type Rotational struct {
	spec Spec
	rot  rotation
}

func (r *Rotational) Step(p r3.Vec, _ int) r3.Vec { return r.rot.apply(p) }
func (r *Rotational) Iterations() int              { return r.spec.N - 1 }
func (r *Rotational) Spec() Spec                   { return r.spec }

// Dihedral is the dihedral group of order 2N. Even steps reflect; odd steps
// undo the reflection and rotate, so member 2j is the j-th rotation of the
// anchor and member 2j+1 is its reflection.
type Dihedral struct {
	spec    Spec
	reflect geometry.Affine3
	rot     rotation
}

func (d *Dihedral) Step(p r3.Vec, i int) r3.Vec {
	if mod(i, 2*d.spec.N)%2 == 0 {
		return d.reflect.Apply(p)
	}
	return d.rot.apply(d.reflect.Apply(p))
}

func (d *Dihedral) Iterations() int { return 2*d.spec.N - 1 }
func (d *Dihedral) Spec() Spec      { return d.spec }

// Scale applies a uniform scaling about the center N-1 times; the closing
// step inverts their product so the orbit returns to the anchor.
type Scale struct {
	spec    Spec
	step    geometry.Affine3
	closing geometry.Affine3
}

func newScale(s Spec, center r3.Vec) (*Scale, error) {
	step := geometry.UniformScale(s.Factor, center)
	prod := geometry.Identity()
	for i := 0; i < s.N-1; i++ {
		prod = step.Compose(prod)
	}
	closing, ok := prod.Inverse()
	if !ok {
		return nil, fmt.Errorf("%w: singular scale product", ErrInvalidSpec)
	}
	return &Scale{spec: s, step: step, closing: closing}, nil
}

func (s *Scale) Step(p r3.Vec, i int) r3.Vec {
	if mod(i, s.spec.N) == s.spec.N-1 {
		return s.closing.Apply(p)
	}
	return s.step.Apply(p)
}

func (s *Scale) Iterations() int { return s.spec.N - 1 }
func (s *Scale) Spec() Spec      { return s.spec }

func mod(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}
