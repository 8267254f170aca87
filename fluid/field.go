// Package fluid implements a 2D stable-fluids velocity field: explicit
// diffusion, semi-Lagrangian advection and Jacobi pressure projection.
package fluid

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned for construction-time invariant violations.
var ErrInvalidConfig = errors.New("fluid: invalid configuration")

const (
	// jacobiIters is the fixed pressure-solve iteration count. Fixed cost,
	// approximate accuracy; changing it changes visible simulation character.
	jacobiIters = 20

	// decayFactor damps the field each tick for long-term stability.
	decayFactor = 0.99
)

// Field holds the velocity grid. Cells are indexed [row][col] with u the
// horizontal (col-direction) and v the vertical (row-direction) component.
// The outermost ring of cells acts as solid walls: it is diffused but
// never advected or projected.
type Field struct {
	rows, cols int
	h          float64 // world units per cell

	u, v         []float64
	uPrev, vPrev []float64

	// Pressure-solve scratch. p and pNew swap each Jacobi iteration;
	// their boundary ring stays zero, which gives the implicit solid
	// boundary (out-of-range pressure reads as zero).
	p, pNew, div []float64

	workers int
}

// New creates a zeroed field of rows x cols cells, each cellSize world
// units across.
func New(rows, cols int, cellSize float64) (*Field, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: grid dimensions %dx%d", ErrInvalidConfig, rows, cols)
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("%w: cell size %v", ErrInvalidConfig, cellSize)
	}

	n := rows * cols
	return &Field{
		rows:    rows,
		cols:    cols,
		h:       cellSize,
		u:       make([]float64, n),
		v:       make([]float64, n),
		uPrev:   make([]float64, n),
		vPrev:   make([]float64, n),
		p:       make([]float64, n),
		pNew:    make([]float64, n),
		div:     make([]float64, n),
		workers: defaultWorkers(),
	}, nil
}

// Rows returns the grid row count.
func (f *Field) Rows() int { return f.rows }

// Cols returns the grid column count.
func (f *Field) Cols() int { return f.cols }

// CellSize returns the cell size in world units.
func (f *Field) CellSize() float64 { return f.h }

func (f *Field) idx(i, j int) int { return i*f.cols + j }

// InjectForce adds (dx, dy) with linear falloff into the previous-step
// buffers of every cell within radius of cell (cellX, cellY). Cells
// outside the grid are skipped. Called by the input adapter between
// ticks, never by Step itself.
func (f *Field) InjectForce(cellX, cellY int, dx, dy, radius float64) {
	if radius <= 0 {
		return
	}
	r := int(radius)
	for i := cellY - r; i <= cellY+r; i++ {
		if i < 0 || i >= f.rows {
			continue
		}
		for j := cellX - r; j <= cellX+r; j++ {
			if j < 0 || j >= f.cols {
				continue
			}
			di := float64(i - cellY)
			dj := float64(j - cellX)
			dist := math.Hypot(dj, di)
			if dist >= radius {
				continue
			}
			factor := 1 - dist/radius
			f.uPrev[f.idx(i, j)] += dx * factor
			f.vPrev[f.idx(i, j)] += dy * factor
		}
	}
}

// Step advances the field one tick: diffuse, advect, project, then
// decay-and-swap. Phases are strictly ordered; each reads only buffers
// the previous phase has fully written.
func (f *Field) Step(dt, viscosity float64) {
	f.diffuse(viscosity)
	f.advect(dt)
	f.project()
	f.decayAndSwap()
}

// Reset zeroes every buffer.
func (f *Field) Reset() {
	for _, buf := range [][]float64{f.u, f.v, f.uPrev, f.vPrev, f.p, f.pNew, f.div} {
		for i := range buf {
			buf[i] = 0
		}
	}
}

// Sample returns the cell velocity at world position (x, y), or zero if
// out of bounds. Boundary queries are frequent near walls; zero-fallback
// is the documented policy, not an error.
func (f *Field) Sample(x, y float64) (u, v float64) {
	col := int(x / f.h)
	row := int(y / f.h)
	if row < 0 || row >= f.rows || col < 0 || col >= f.cols {
		return 0, 0
	}
	k := f.idx(row, col)
	return f.u[k], f.v[k]
}

// VelocityAt returns the current velocity of cell (cellX, cellY), or zero
// if out of bounds. Read-only accessor for the rendering adapter.
func (f *Field) VelocityAt(cellX, cellY int) (u, v float64) {
	if cellY < 0 || cellY >= f.rows || cellX < 0 || cellX >= f.cols {
		return 0, 0
	}
	k := f.idx(cellY, cellX)
	return f.u[k], f.v[k]
}

// Divergence returns the discrete divergence at cell (i, j), the same
// quantity the projection step drives toward zero. Non-interior cells
// report zero.
func (f *Field) Divergence(i, j int) float64 {
	if i < 1 || i >= f.rows-1 || j < 1 || j >= f.cols-1 {
		return 0
	}
	return -0.5 * f.h * ((f.u[f.idx(i, j+1)] - f.u[f.idx(i, j-1)]) +
		(f.v[f.idx(i+1, j)] - f.v[f.idx(i-1, j)]))
}

// diffuse smooths the previous-step buffers into the current ones with a
// single explicit Laplacian pass. Stable only for small viscosity.
// Boundary cells carry straight over; they act as walls.
func (f *Field) diffuse(viscosity float64) {
	f.forRows(0, f.rows, func(i int) {
		if i == 0 || i == f.rows-1 {
			for j := 0; j < f.cols; j++ {
				k := f.idx(i, j)
				f.u[k] = f.uPrev[k]
				f.v[k] = f.vPrev[k]
			}
			return
		}
		for j := 0; j < f.cols; j++ {
			k := f.idx(i, j)
			if j == 0 || j == f.cols-1 {
				f.u[k] = f.uPrev[k]
				f.v[k] = f.vPrev[k]
				continue
			}
			up, down := f.idx(i-1, j), f.idx(i+1, j)
			left, right := f.idx(i, j-1), f.idx(i, j+1)
			f.u[k] = f.uPrev[k] + viscosity*(f.uPrev[up]+f.uPrev[down]+f.uPrev[left]+f.uPrev[right]-4*f.uPrev[k])
			f.v[k] = f.vPrev[k] + viscosity*(f.vPrev[up]+f.vPrev[down]+f.vPrev[left]+f.vPrev[right]-4*f.vPrev[k])
		}
	})
}

// advect backtraces each interior cell along its velocity and bilinearly
// interpolates the pre-advection field there. Unconditionally stable for
// any dt at the cost of numerical diffusion.
func (f *Field) advect(dt float64) {
	// Snapshot the post-diffusion field; prev buffers are free until the
	// decay-and-swap phase.
	copy(f.uPrev, f.u)
	copy(f.vPrev, f.v)

	dt0 := dt / f.h
	maxX := float64(f.cols) - 1.5
	maxY := float64(f.rows) - 1.5

	f.forRows(1, f.rows-1, func(i int) {
		for j := 1; j < f.cols-1; j++ {
			k := f.idx(i, j)

			x := float64(j) - dt0*f.uPrev[k]
			y := float64(i) - dt0*f.vPrev[k]
			x = clamp(x, 0.5, maxX)
			y = clamp(y, 0.5, maxY)

			j0 := int(x)
			i0 := int(y)
			j1, i1 := j0+1, i0+1
			s1 := x - float64(j0)
			s0 := 1 - s1
			t1 := y - float64(i0)
			t0 := 1 - t1

			f.u[k] = s0*(t0*f.uPrev[f.idx(i0, j0)]+t1*f.uPrev[f.idx(i1, j0)]) +
				s1*(t0*f.uPrev[f.idx(i0, j1)]+t1*f.uPrev[f.idx(i1, j1)])
			f.v[k] = s0*(t0*f.vPrev[f.idx(i0, j0)]+t1*f.vPrev[f.idx(i1, j0)]) +
				s1*(t0*f.vPrev[f.idx(i0, j1)]+t1*f.vPrev[f.idx(i1, j1)])
		}
	})
}

// project removes the divergent component of the field: divergence,
// a fixed-count Jacobi Poisson solve for pressure, then gradient
// subtraction. Interior cells only.
func (f *Field) project() {
	for i := range f.p {
		f.p[i] = 0
		f.pNew[i] = 0
	}

	f.forRows(1, f.rows-1, func(i int) {
		for j := 1; j < f.cols-1; j++ {
			f.div[f.idx(i, j)] = f.Divergence(i, j)
		}
	})

	// True Jacobi with a double buffer: every iteration reads only the
	// previous iterate, so rows can be solved in parallel and the result
	// is independent of traversal order.
	for iter := 0; iter < jacobiIters; iter++ {
		f.forRows(1, f.rows-1, func(i int) {
			for j := 1; j < f.cols-1; j++ {
				k := f.idx(i, j)
				f.pNew[k] = (f.div[k] +
					f.p[f.idx(i-1, j)] + f.p[f.idx(i+1, j)] +
					f.p[f.idx(i, j-1)] + f.p[f.idx(i, j+1)]) / 4
			}
		})
		f.p, f.pNew = f.pNew, f.p
	}

	f.forRows(1, f.rows-1, func(i int) {
		for j := 1; j < f.cols-1; j++ {
			k := f.idx(i, j)
			f.u[k] -= 0.5 * (f.p[f.idx(i, j+1)] - f.p[f.idx(i, j-1)]) / f.h
			f.v[k] -= 0.5 * (f.p[f.idx(i+1, j)] - f.p[f.idx(i-1, j)]) / f.h
		}
	})
}

// decayAndSwap stores a damped copy of the field as next tick's previous
// buffers, leaving u and v as the externally visible state.
func (f *Field) decayAndSwap() {
	f.forRows(0, f.rows, func(i int) {
		base := f.idx(i, 0)
		for j := 0; j < f.cols; j++ {
			f.uPrev[base+j] = f.u[base+j] * decayFactor
			f.vPrev[base+j] = f.v[base+j] * decayFactor
		}
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
