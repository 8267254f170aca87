package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/siltlab/grainfall/particles"
	"github.com/siltlab/grainfall/sim"
)

// Panel colors shared by the overlay widgets.
var (
	colorPanelBg = rl.Color{R: 20, G: 24, B: 30, A: 210}
	colorBarBg   = rl.Color{R: 40, G: 40, B: 40, A: 255}
	colorBarFill = rl.Color{R: 100, G: 180, B: 100, A: 255}
	colorBarHot  = rl.Color{R: 180, G: 80, B: 80, A: 255}
	colorText    = rl.Color{R: 220, G: 220, B: 220, A: 255}
	colorTextDim = rl.Color{R: 150, G: 150, B: 150, A: 255}
)

// StatsPanel is a live HUD over the running simulation: particle counts,
// energy, solver residual and per-phase tick timings.
type StatsPanel struct {
	x, y    float32
	visible bool
}

// NewStatsPanel creates a stats overlay anchored at (x, y).
func NewStatsPanel(x, y float32) *StatsPanel {
	return &StatsPanel{x: x, y: y}
}

// Toggle switches overlay visibility.
func (p *StatsPanel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

// IsVisible returns whether the overlay is shown.
func (p *StatsPanel) IsVisible() bool { return p.visible }

// Draw renders the overlay from the simulation's current state.
func (p *StatsPanel) Draw(s *sim.Sim) {
	if !p.visible {
		return
	}

	x := int32(p.x)
	y := int32(p.y)
	rl.DrawRectangle(x, y, 240, 196, colorPanelBg)
	x += 10
	y += 8

	rl.DrawText("Simulation", x, y, 16, colorText)
	y += 22

	bodies := s.Particles()
	var sand, dust int
	var meanSpeed, kinetic float64
	for i := range bodies {
		if bodies[i].Kind == particles.KindSand {
			sand++
		} else {
			dust++
		}
		speed := bodies[i].Vel.Length()
		meanSpeed += speed
		kinetic += 0.5 * s.ParticleParams(bodies[i].Kind).Mass * speed * speed
	}
	if len(bodies) > 0 {
		meanSpeed /= float64(len(bodies))
	}

	y += drawLabel(x, y, "tick", fmt.Sprintf("%d", s.Tick()))
	y += drawLabel(x, y, "sand", fmt.Sprintf("%d", sand))
	y += drawLabel(x, y, "dust", fmt.Sprintf("%d", dust))
	y += drawLabel(x, y, "mean speed", fmt.Sprintf("%.2f", meanSpeed))
	y += drawLabel(x, y, "kinetic", fmt.Sprintf("%.1f", kinetic))
	y += drawLabel(x, y, "max div", fmt.Sprintf("%.4f", s.MaxDivergence()))
	y += 4

	perf := s.PerfStats()
	for _, phase := range []string{"turbulence", "fluid", "particles", "telemetry"} {
		pct, ok := perf.PhasePct[phase]
		if !ok {
			continue
		}
		y += drawPhaseBar(x, y, phase, float32(pct))
	}
}

// drawLabel renders "name: value" and returns the row height.
func drawLabel(x, y int32, name, value string) int32 {
	rl.DrawText(name, x, y, 14, colorTextDim)
	rl.DrawText(value, x+90, y, 14, colorText)
	return 18
}

// drawPhaseBar renders one phase's share of tick time as a horizontal bar.
func drawPhaseBar(x, y int32, name string, pct float32) int32 {
	const barWidth, barHeight = int32(100), int32(12)

	ratio := pct / 100
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}

	rl.DrawText(name, x, y, 12, colorTextDim)
	barX := x + 90
	rl.DrawRectangle(barX, y, barWidth, barHeight, colorBarBg)
	fill := colorBarFill
	if ratio > 0.7 {
		fill = colorBarHot
	}
	rl.DrawRectangle(barX, y, int32(float32(barWidth)*ratio), barHeight, fill)
	rl.DrawText(fmt.Sprintf("%.0f%%", pct), barX+barWidth+5, y, 12, colorTextDim)

	return 16
}
