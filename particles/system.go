package particles

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/siltlab/grainfall/fluid"
	"github.com/siltlab/grainfall/vec"
)

const (
	// pairRestitution is the normal-velocity retention of particle-particle
	// contacts. Empirical reference value; changing it changes visible
	// simulation character.
	pairRestitution = 0.5

	// couplingScale is applied to the sampled fluid velocity before it is
	// fed to a particle as a drag force.
	couplingScale = 0.5
)

// StepStats reports what one particle tick did, for telemetry.
type StepStats struct {
	Collisions   int // narrow-phase contacts resolved
	RestContacts int // dust clamped onto a supporting particle
}

// System owns the particle list and the transient spatial hash, and runs
// the per-tick pipeline: broad phase, collision resolution, dust resting,
// fluid coupling, integration, boundary reflection.
type System struct {
	width, height float64
	bucketSize    float64
	params        [numKinds]Params
	bodies        []Body
	hash          *SpatialHash
	rng           *rand.Rand
	counts        [numKinds]int
}

// NewSystem creates an empty particle system over a width x height
// domain. bucketSize is the broad-phase bucket edge; it should be no
// larger than the largest particle diameter.
func NewSystem(width, height, bucketSize float64, seed int64) (*System, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: domain %vx%v", ErrInvalidConfig, width, height)
	}
	if bucketSize <= 0 {
		return nil, fmt.Errorf("%w: bucket size %v", ErrInvalidConfig, bucketSize)
	}

	s := &System{
		width:      width,
		height:     height,
		bucketSize: bucketSize,
		hash:       NewSpatialHash(width, height),
		rng:        rand.New(rand.NewSource(seed)),
	}
	for k := Kind(0); k < numKinds; k++ {
		s.params[k] = DefaultParams(k)
	}
	return s, nil
}

// SetParams overrides the constants table entry for one kind. Must be
// called before any particle of that kind exists.
func (s *System) SetParams(k Kind, p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.params[k] = p
	return nil
}

// Params returns the constants table entry for a kind.
func (s *System) Params(k Kind) Params { return s.params[k] }

// Spawn adds one particle of the given kind at (x, y), at rest.
func (s *System) Spawn(k Kind, x, y float64) {
	s.bodies = append(s.bodies, Body{Pos: vec.Vec2{X: x, Y: y}, Kind: k})
	s.counts[k]++
}

// SeedRandom spawns the given number of sand and dust particles at
// random positions in the upper half of the domain.
func (s *System) SeedRandom(sand, dust int) {
	for i := 0; i < sand; i++ {
		s.Spawn(KindSand, s.rng.Float64()*s.width, s.rng.Float64()*s.height/2)
	}
	for i := 0; i < dust; i++ {
		s.Spawn(KindDust, s.rng.Float64()*s.width, s.rng.Float64()*s.height/2)
	}
}

// Reset removes all particles. The only operation besides Spawn that
// changes the particle count.
func (s *System) Reset() {
	s.bodies = s.bodies[:0]
	for k := range s.counts {
		s.counts[k] = 0
	}
}

// Bodies returns the particle list, ordered by spawn time. Read-only for
// callers; the rendering adapter iterates it between ticks.
func (s *System) Bodies() []Body { return s.bodies }

// Count returns the total particle count.
func (s *System) Count() int { return len(s.bodies) }

// CountOf returns the particle count for one kind.
func (s *System) CountOf(k Kind) int { return s.counts[k] }

// Step advances every particle one tick against the given field. The
// field is read-only here; particles do not feed back into the fluid.
func (s *System) Step(field *fluid.Field, dt float64) StepStats {
	s.hash.Rebuild(s.bodies, s.bucketSize)

	var stats StepStats
	stats.Collisions = s.collidePass()
	stats.RestContacts = s.restingPass()
	s.couplePass(field)

	for i := range s.bodies {
		b := &s.bodies[i]
		p := s.params[b.Kind]
		b.Integrate(dt, p)
		b.ReflectBoundary(s.width, s.height, p)
	}
	return stats
}

// collidePass resolves every broad-phase candidate pair and returns the
// number of actual contacts.
func (s *System) collidePass() int {
	resolved := 0
	s.hash.ForEachPair(func(i, j int) {
		if s.resolveCollision(&s.bodies[i], &s.bodies[j]) {
			resolved++
		}
	})
	return resolved
}

// resolveCollision separates an overlapping pair and applies the damped
// bounce response. Dust does not collide with dust; exactly coincident
// pairs are skipped to avoid a zero-length normal.
func (s *System) resolveCollision(a, b *Body) bool {
	if a.Kind == KindDust && b.Kind == KindDust {
		return false
	}

	delta := b.Pos.Sub(a.Pos)
	dist := delta.Length()
	sum := s.params[a.Kind].Radius + s.params[b.Kind].Radius
	if dist <= 0 || dist >= sum {
		return false
	}

	normal := delta.Scale(1 / dist)

	// Positional correction: push both apart by half the overlap.
	half := (sum - dist) / 2
	a.Pos = a.Pos.Sub(normal.Scale(half))
	b.Pos = b.Pos.Add(normal.Scale(half))

	// Damped bounce: swap the normal velocity components scaled by the
	// pair restitution, tangential components untouched.
	an := a.Vel.Dot(normal)
	bn := b.Vel.Dot(normal)
	a.Vel = a.Vel.Add(normal.Scale(bn*pairRestitution - an))
	b.Vel = b.Vel.Add(normal.Scale(an*pairRestitution - bn))
	return true
}

// restingPass lets dust settle on top of coarser particles: an
// overlapping non-dust particle below a dust grain clamps the grain to
// sit exactly atop it and cancels its downward velocity. Accelerated
// with the tick's spatial hash; candidates are applied in ascending
// index order so results match the exhaustive scan even when a grain
// touches several supports.
func (s *System) restingPass() int {
	contacts := 0
	dr := s.params[KindDust].Radius
	reach := dr + s.maxRadius()
	var supports []int
	for i := range s.bodies {
		d := &s.bodies[i]
		if d.Kind != KindDust {
			continue
		}
		supports = supports[:0]
		s.hash.ForEachNear(d.Pos.X, d.Pos.Y, reach, func(j int) {
			if s.bodies[j].Kind != KindDust {
				supports = append(supports, j)
			}
		})
		sort.Ints(supports)
		for _, j := range supports {
			o := &s.bodies[j]
			or := s.params[o.Kind].Radius
			if o.Pos.Y <= d.Pos.Y {
				continue // support must be below
			}
			if d.Pos.Sub(o.Pos).Length() >= dr+or {
				continue
			}
			d.Pos.Y = o.Pos.Y - or - dr
			if d.Vel.Y > 0 {
				d.Vel.Y = 0
			}
			contacts++
		}
	}
	return contacts
}

// couplePass applies the sampled fluid velocity to each particle as a
// scaled drag force.
func (s *System) couplePass(field *fluid.Field) {
	if field == nil {
		return
	}
	for i := range s.bodies {
		b := &s.bodies[i]
		u, v := field.Sample(b.Pos.X, b.Pos.Y)
		if u == 0 && v == 0 {
			continue
		}
		b.ApplyForce(vec.Vec2{X: u, Y: v}.Scale(couplingScale), s.params[b.Kind])
	}
}

func (s *System) maxRadius() float64 {
	max := 0.0
	for k := Kind(0); k < numKinds; k++ {
		if s.params[k].Radius > max {
			max = s.params[k].Radius
		}
	}
	return max
}
