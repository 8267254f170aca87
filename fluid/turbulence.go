package fluid

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Turbulence injects a slowly drifting background current into a field's
// previous-step buffers, driven by seeded OpenSimplex noise. With a fixed
// seed the injection sequence is fully deterministic, so it composes with
// the simulation's reproducibility guarantee. Zero strength disables it.
type Turbulence struct {
	noise     opensimplex.Noise
	strength  float64
	scale     float64 // noise frequency in cell units
	timeScale float64 // noise animation speed per tick
}

// NewTurbulence creates a turbulence source. Typical values: scale 0.05,
// timeScale 0.002.
func NewTurbulence(seed int64, strength, scale, timeScale float64) *Turbulence {
	return &Turbulence{
		noise:     opensimplex.New(seed),
		strength:  strength,
		scale:     scale,
		timeScale: timeScale,
	}
}

// Apply adds the current noise flow to every interior cell of f.
// Call it before Field.Step, the same slot external force injection uses.
func (t *Turbulence) Apply(f *Field, tick int) {
	if t == nil || t.strength == 0 {
		return
	}
	z := float64(tick) * t.timeScale
	for i := 1; i < f.rows-1; i++ {
		for j := 1; j < f.cols-1; j++ {
			x := float64(j) * t.scale
			y := float64(i) * t.scale

			angle := t.noise.Eval3(x, y, z) * math.Pi * 2
			mag := (t.noise.Eval3(x+100, y+100, z) + 1) * 0.5

			k := f.idx(i, j)
			f.uPrev[k] += math.Cos(angle) * mag * t.strength
			f.vPrev[k] += math.Sin(angle) * mag * t.strength
		}
	}
}
