package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few ticks
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseFluid)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseParticles)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Verify we got timing data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}

	// Verify phases are tracked
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}

	if _, ok := stats.PhaseAvg[PhaseFluid]; !ok {
		t.Error("expected fluid phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseParticles]; !ok {
		t.Error("expected particles phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseFluid)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Should have data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}

	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	pc := NewPerfCollector(4)
	for i := 0; i < 4; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseFluid)
		time.Sleep(50 * time.Microsecond)
		pc.EndTick()
	}

	rec := pc.Stats().ToCSV(120)

	if rec.WindowEnd != 120 {
		t.Errorf("window_end = %d, want 120", rec.WindowEnd)
	}
	if rec.AvgTickUs <= 0 {
		t.Error("expected positive avg_tick_us")
	}
	if rec.FluidPct <= 0 {
		t.Error("expected positive fluid_pct")
	}
}

func TestPerfStatsToCSVIncludesTurbulence(t *testing.T) {
	pc := NewPerfCollector(4)
	for i := 0; i < 4; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseTurbulence)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseFluid)
		time.Sleep(50 * time.Microsecond)
		pc.EndTick()
	}

	rec := pc.Stats().ToCSV(60)

	if rec.TurbulencePct <= 0 {
		t.Error("expected positive turbulence_pct")
	}
	total := rec.TurbulencePct + rec.FluidPct
	if total > 100.01 {
		t.Errorf("phase percentages sum to %.2f, want <= 100", total)
	}
}
