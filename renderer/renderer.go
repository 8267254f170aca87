// Package renderer draws simulation state with raylib. It is a thin
// read-only adapter: nothing here mutates the simulation.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/siltlab/grainfall/sim"
)

// velocityDrawScale stretches cell velocities into visible vector strokes.
const velocityDrawScale = 2.0

// Renderer maps world coordinates onto the screen and draws the field
// and particle layers.
type Renderer struct {
	scaleX, scaleY float32
}

// New creates a renderer mapping a world of the given extent onto a
// screen of the given pixel size.
func New(screenW, screenH float32, worldW, worldH float64) *Renderer {
	return &Renderer{
		scaleX: screenW / float32(worldW),
		scaleY: screenH / float32(worldH),
	}
}

// ScreenToWorld converts a screen position to world coordinates.
func (r *Renderer) ScreenToWorld(x, y float32) (float64, float64) {
	return float64(x / r.scaleX), float64(y / r.scaleY)
}

// DrawField renders the velocity field as vector strokes, one per cell,
// brightness following the local speed.
func (r *Renderer) DrawField(s *sim.Sim) {
	rows, cols, h := s.FieldDims()

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			u, v := s.FieldVelocityAt(j, i)
			speedSq := u*u + v*v
			if speedSq < 0.001 {
				continue
			}

			cx := (float64(j) + 0.5) * h
			cy := (float64(i) + 0.5) * h
			from := rl.Vector2{X: float32(cx) * r.scaleX, Y: float32(cy) * r.scaleY}
			to := rl.Vector2{
				X: float32(cx+u*velocityDrawScale) * r.scaleX,
				Y: float32(cy+v*velocityDrawScale) * r.scaleY,
			}

			alpha := speedSq * 24
			if alpha > 200 {
				alpha = 200
			}
			rl.DrawLineV(from, to, rl.Color{R: 90, G: 140, B: 220, A: uint8(40 + alpha)})
		}
	}
}

// DrawParticles renders every particle as a circle in its kind color.
func (r *Renderer) DrawParticles(s *sim.Sim) {
	bodies := s.Particles()
	for i := range bodies {
		b := &bodies[i]
		p := s.ParticleParams(b.Kind)

		pos := rl.Vector2{X: float32(b.Pos.X) * r.scaleX, Y: float32(b.Pos.Y) * r.scaleY}
		radius := float32(p.Radius) * r.scaleX
		if radius < 1 {
			radius = 1
		}

		rl.DrawCircleV(pos, radius, rl.Color{R: p.Color[0], G: p.Color[1], B: p.Color[2], A: p.Color[3]})
	}
}
