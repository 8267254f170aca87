// Package particles implements the granular-particle subsystem: per-kind
// kinematics, spatial-hash broad phase and pairwise collision resolution.
package particles

import (
	"errors"
	"fmt"

	"github.com/siltlab/grainfall/vec"
)

// ErrInvalidConfig is returned for construction-time invariant violations.
var ErrInvalidConfig = errors.New("particles: invalid configuration")

// Kind discriminates particle species. Behavior differences between kinds
// are purely parametric; see Params.
type Kind uint8

const (
	KindSand Kind = iota
	KindDust

	numKinds = 2
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSand:
		return "sand"
	case KindDust:
		return "dust"
	}
	return "unknown"
}

// Params holds the per-kind constants table entry. Mass and radius are
// fixed for a particle's lifetime.
type Params struct {
	Mass         float64
	Radius       float64
	GravityCoeff float64
	MaxSpeed     float64
	Restitution  float64 // wall-bounce energy retention
	Color        [4]uint8
}

// Validate reports construction-time invariant violations. A non-positive
// mass or radius would corrupt later arithmetic.
func (p Params) Validate() error {
	if p.Mass <= 0 {
		return fmt.Errorf("%w: mass %v", ErrInvalidConfig, p.Mass)
	}
	if p.Radius <= 0 {
		return fmt.Errorf("%w: radius %v", ErrInvalidConfig, p.Radius)
	}
	return nil
}

// DefaultParams returns the reference constants for a kind.
func DefaultParams(k Kind) Params {
	switch k {
	case KindDust:
		return Params{
			Mass:         0.5,
			Radius:       1.5,
			GravityCoeff: 0.2,
			MaxSpeed:     4,
			Restitution:  0.1,
			Color:        [4]uint8{168, 160, 150, 255},
		}
	default:
		return Params{
			Mass:         2,
			Radius:       3,
			GravityCoeff: 0.5,
			MaxSpeed:     10,
			Restitution:  0.3,
			Color:        [4]uint8{194, 161, 96, 255},
		}
	}
}

// Body is the kinematic state of one particle. Bodies are stored in a
// flat slice indexed by the spatial hash; the kind tag selects constants
// from the system's params table instead of dispatching through a type
// hierarchy.
type Body struct {
	Pos  vec.Vec2
	Vel  vec.Vec2
	Acc  vec.Vec2 // accumulated force/mass, zeroed after each Integrate
	Kind Kind
}

// ApplyForce accumulates f/mass into the body's acceleration.
func (b *Body) ApplyForce(f vec.Vec2, p Params) {
	b.Acc = b.Acc.Add(f.Scale(1 / p.Mass))
}

// Integrate applies gravity (GravityCoeff scaled by mass, as a force),
// advances velocity and position by dt, clamps speed to the kind cap and
// zeroes the accumulated acceleration.
func (b *Body) Integrate(dt float64, p Params) {
	b.ApplyForce(vec.Vec2{Y: p.GravityCoeff * p.Mass}, p)

	b.Vel = b.Vel.Add(b.Acc.Scale(dt))
	if speed := b.Vel.Length(); speed > p.MaxSpeed {
		b.Vel = b.Vel.Normalize().Scale(p.MaxSpeed)
	}
	b.Pos = b.Pos.Add(b.Vel.Scale(dt))
	b.Acc = vec.Vec2{}
}

// ReflectBoundary keeps the body inside [radius, dim-radius] on both
// axes, inverting the offending velocity component scaled by the kind's
// wall restitution (energy-losing bounce).
func (b *Body) ReflectBoundary(width, height float64, p Params) {
	if b.Pos.X < p.Radius {
		b.Pos.X = p.Radius
		b.Vel.X = -b.Vel.X * p.Restitution
	} else if b.Pos.X > width-p.Radius {
		b.Pos.X = width - p.Radius
		b.Vel.X = -b.Vel.X * p.Restitution
	}
	if b.Pos.Y < p.Radius {
		b.Pos.Y = p.Radius
		b.Vel.Y = -b.Vel.Y * p.Restitution
	} else if b.Pos.Y > height-p.Radius {
		b.Pos.Y = height - p.Radius
		b.Vel.Y = -b.Vel.Y * p.Restitution
	}
}
