// Package telemetry collects windowed simulation statistics and per-tick
// performance timings, and writes them as CSV.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one stats window.
type WindowStats struct {
	WindowStartTick int     `csv:"-"`
	WindowEndTick   int     `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Particle population at window end
	SandCount int `csv:"sand"`
	DustCount int `csv:"dust"`

	// Events during window
	Collisions   int `csv:"collisions"`
	RestContacts int `csv:"rest_contacts"`
	Injections   int `csv:"injections"`
	Spawns       int `csv:"spawns"`

	// Particle speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// Field health (sampled at window end)
	KineticEnergy float64 `csv:"kinetic_energy"`
	MaxDivergence float64 `csv:"max_divergence"`
}

// SpeedStats summarizes a speed sample.
type SpeedStats struct {
	Mean, Std, P50, P90, Max float64
}

// ComputeSpeedStats aggregates a slice of particle speeds. Returns zeros
// for an empty sample. The input slice is sorted in place.
func ComputeSpeedStats(speeds []float64) SpeedStats {
	if len(speeds) == 0 {
		return SpeedStats{}
	}
	sort.Float64s(speeds)

	s := SpeedStats{
		Mean: stat.Mean(speeds, nil),
		P50:  stat.Quantile(0.5, stat.Empirical, speeds, nil),
		P90:  stat.Quantile(0.9, stat.Empirical, speeds, nil),
		Max:  speeds[len(speeds)-1],
	}
	if len(speeds) > 1 {
		s.Std = stat.StdDev(speeds, nil)
	}
	return s
}

// Log writes the window to the default slog logger.
func (w WindowStats) Log() {
	slog.Info("stats",
		"tick", w.WindowEndTick,
		"sim_time", w.SimTimeSec,
		"sand", w.SandCount,
		"dust", w.DustCount,
		"collisions", w.Collisions,
		"rest_contacts", w.RestContacts,
		"speed_mean", w.SpeedMean,
		"kinetic_energy", w.KineticEnergy,
		"max_divergence", w.MaxDivergence,
	)
}
