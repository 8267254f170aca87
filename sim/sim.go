// Package sim wires the fluid field and particle system into a single
// tick-stepped simulation with telemetry.
package sim

import (
	"fmt"
	"log/slog"

	"github.com/siltlab/grainfall/config"
	"github.com/siltlab/grainfall/fluid"
	"github.com/siltlab/grainfall/particles"
	"github.com/siltlab/grainfall/telemetry"
)

// Options configures a simulation run.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string  // "" = CSV output disabled
}

// Sim owns all mutable simulation state. It is single-threaded by
// contract: Step, InjectForce, SpawnParticle and ResetAll must be
// serialized by the driver. Pause is a driver concern; a paused driver
// simply stops calling Step.
type Sim struct {
	cfg *config.Config

	field      *fluid.Field
	turbulence *fluid.Turbulence
	system     *particles.System

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager

	logStats bool
	tick     int
}

// New builds a simulation from the loaded config. Construction is the
// only place errors can surface; stepping is total afterwards.
func New(opts Options) (*Sim, error) {
	cfg := config.Cfg()

	field, err := fluid.New(cfg.Fluid.Rows, cfg.Fluid.Cols, cfg.Fluid.CellSize)
	if err != nil {
		return nil, fmt.Errorf("creating field: %w", err)
	}

	system, err := particles.NewSystem(
		cfg.Derived.WorldWidth,
		cfg.Derived.WorldHeight,
		cfg.Particles.BucketSize,
		opts.Seed,
	)
	if err != nil {
		return nil, fmt.Errorf("creating particle system: %w", err)
	}
	for kind, kc := range map[particles.Kind]config.KindConfig{
		particles.KindSand: cfg.Particles.Sand,
		particles.KindDust: cfg.Particles.Dust,
	} {
		p := particles.DefaultParams(kind)
		p.Mass = kc.Mass
		p.Radius = kc.Radius
		p.GravityCoeff = kc.GravityCoeff
		p.MaxSpeed = kc.MaxSpeed
		p.Restitution = kc.Restitution
		if err := system.SetParams(kind, p); err != nil {
			return nil, fmt.Errorf("configuring %v: %w", kind, err)
		}
	}
	system.SeedRandom(cfg.Spawn.Sand, cfg.Spawn.Dust)

	var turbulence *fluid.Turbulence
	if cfg.Turbulence.Strength > 0 {
		turbulence = fluid.NewTurbulence(opts.Seed, cfg.Turbulence.Strength, cfg.Turbulence.Scale, cfg.Turbulence.TimeSpeed)
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, err
	}

	return &Sim{
		cfg:        cfg,
		field:      field,
		turbulence: turbulence,
		system:     system,
		// Sim time is counted in particle ticks; the field advances on
		// its own dt within the same tick.
		collector: telemetry.NewCollector(statsWindow, cfg.Particles.DT),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		output:    output,
		logStats:  opts.LogStats,
	}, nil
}

// Step advances the field then the particles by one tick. The two
// subsystems use independent time steps from config.
func (s *Sim) Step() {
	s.perf.StartTick()

	if s.turbulence != nil {
		s.perf.StartPhase(telemetry.PhaseTurbulence)
		s.turbulence.Apply(s.field, s.tick)
	}

	s.perf.StartPhase(telemetry.PhaseFluid)
	s.field.Step(s.cfg.Fluid.DT, s.cfg.Fluid.Viscosity)

	s.perf.StartPhase(telemetry.PhaseParticles)
	stats := s.system.Step(s.field, s.cfg.Particles.DT)
	s.collector.RecordCollisions(stats.Collisions)
	s.collector.RecordRestContacts(stats.RestContacts)

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.tick++
	if s.collector.ShouldFlush(s.tick) {
		s.flushWindow()
	}

	s.perf.EndTick()
}

// flushWindow snapshots current state and emits one stats window.
func (s *Sim) flushWindow() {
	bodies := s.system.Bodies()

	snap := telemetry.Snapshot{
		SandCount: s.system.CountOf(particles.KindSand),
		DustCount: s.system.CountOf(particles.KindDust),
		Speeds:    make([]float64, 0, len(bodies)),
	}
	for i := range bodies {
		speed := bodies[i].Vel.Length()
		snap.Speeds = append(snap.Speeds, speed)
		mass := s.system.Params(bodies[i].Kind).Mass
		snap.KineticEnergy += 0.5 * mass * speed * speed
	}
	snap.MaxDivergence = s.MaxDivergence()

	w := s.collector.Flush(s.tick, snap)
	if s.logStats {
		w.Log()
		s.perf.Stats().LogStats()
	}
	if err := s.output.WriteTelemetry(w); err != nil {
		slog.Error("telemetry write failed", "error", err)
	}
	if err := s.output.WritePerf(s.perf.Stats(), s.tick); err != nil {
		slog.Error("perf write failed", "error", err)
	}
}

// InjectForce applies a pointer-drag force at a world position: the drag
// delta is scaled and spread with linear falloff over the configured
// cell radius.
func (s *Sim) InjectForce(worldX, worldY, dx, dy float64) {
	h := s.cfg.Fluid.CellSize
	scale := s.cfg.Input.ForceScale
	s.field.InjectForce(int(worldX/h), int(worldY/h), dx*scale, dy*scale, s.cfg.Input.Radius)
	s.collector.RecordInjection()
}

// SpawnParticle adds one particle at a world position.
func (s *Sim) SpawnParticle(kind particles.Kind, x, y float64) {
	s.system.Spawn(kind, x, y)
	s.collector.RecordSpawn()
}

// ResetAll clears all particles and zeroes the field.
func (s *Sim) ResetAll() {
	s.field.Reset()
	s.system.Reset()
}

// Tick returns the number of completed steps.
func (s *Sim) Tick() int { return s.tick }

// MaxDivergence scans the interior for the largest absolute divergence.
func (s *Sim) MaxDivergence() float64 {
	var max float64
	for i := 1; i < s.field.Rows()-1; i++ {
		for j := 1; j < s.field.Cols()-1; j++ {
			if d := s.field.Divergence(i, j); d > max {
				max = d
			} else if -d > max {
				max = -d
			}
		}
	}
	return max
}

// PerfStats returns aggregated timing over the current perf window.
func (s *Sim) PerfStats() telemetry.PerfStats { return s.perf.Stats() }

// Viscosity returns the current fluid viscosity.
func (s *Sim) Viscosity() float64 { return s.cfg.Fluid.Viscosity }

// SetViscosity overrides the fluid viscosity for subsequent steps.
func (s *Sim) SetViscosity(v float64) {
	if v >= 0 {
		s.cfg.Fluid.Viscosity = v
	}
}

// FieldVelocityAt returns the current velocity of a grid cell.
func (s *Sim) FieldVelocityAt(cellX, cellY int) (u, v float64) {
	return s.field.VelocityAt(cellX, cellY)
}

// FieldDims returns the grid dimensions and cell size.
func (s *Sim) FieldDims() (rows, cols int, cellSize float64) {
	return s.field.Rows(), s.field.Cols(), s.field.CellSize()
}

// WorldSize returns the domain extent in world units.
func (s *Sim) WorldSize() (width, height float64) {
	return s.cfg.Derived.WorldWidth, s.cfg.Derived.WorldHeight
}

// Particles returns the particle list in spawn order, read-only.
func (s *Sim) Particles() []particles.Body {
	return s.system.Bodies()
}

// ParticleParams returns the constants table entry for a kind (radius
// and color for drawing).
func (s *Sim) ParticleParams(kind particles.Kind) particles.Params {
	return s.system.Params(kind)
}

// RecordFrame forwards frame timing to the perf collector (graphics mode).
func (s *Sim) RecordFrame() {
	s.perf.RecordFrame()
}

// Close flushes telemetry output.
func (s *Sim) Close() error {
	return s.output.Close()
}
