package telemetry

import (
	"math"
	"testing"
)

func TestComputeSpeedStats(t *testing.T) {
	speeds := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	s := ComputeSpeedStats(speeds)

	if math.Abs(s.Mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", s.Mean)
	}
	if math.Abs(s.P50-0.5) > 0.11 {
		t.Errorf("p50 = %v, want ~0.5", s.P50)
	}
	if s.P90 < s.P50 {
		t.Errorf("p90 = %v below p50 = %v", s.P90, s.P50)
	}
	if s.Max != 1.0 {
		t.Errorf("max = %v, want 1.0", s.Max)
	}
	if s.Std <= 0 {
		t.Errorf("std = %v, want > 0", s.Std)
	}
}

func TestComputeSpeedStatsEmpty(t *testing.T) {
	s := ComputeSpeedStats(nil)
	if s != (SpeedStats{}) {
		t.Errorf("empty sample should return all zeros, got %+v", s)
	}
}

func TestComputeSpeedStatsSingle(t *testing.T) {
	s := ComputeSpeedStats([]float64{2.5})
	if s.Mean != 2.5 || s.Max != 2.5 {
		t.Errorf("single sample: mean = %v, max = %v, want 2.5", s.Mean, s.Max)
	}
	if s.Std != 0 {
		t.Errorf("single sample std = %v, want 0", s.Std)
	}
}

func TestCollectorWindowing(t *testing.T) {
	c := NewCollector(5, 0.1) // 50 ticks per window

	if c.ShouldFlush(49) {
		t.Error("window flushed early at tick 49")
	}
	if !c.ShouldFlush(50) {
		t.Error("window not flushed at tick 50")
	}

	c.RecordCollisions(3)
	c.RecordCollisions(2)
	c.RecordRestContacts(7)
	c.RecordInjection()
	c.RecordSpawn()
	c.RecordSpawn()

	w := c.Flush(50, Snapshot{
		SandCount:     10,
		DustCount:     20,
		Speeds:        []float64{1, 2, 3},
		KineticEnergy: 42,
		MaxDivergence: 0.01,
	})

	if w.Collisions != 5 || w.RestContacts != 7 || w.Injections != 1 || w.Spawns != 2 {
		t.Errorf("counters = %d/%d/%d/%d, want 5/7/1/2",
			w.Collisions, w.RestContacts, w.Injections, w.Spawns)
	}
	if w.SandCount != 10 || w.DustCount != 20 {
		t.Errorf("counts = %d sand, %d dust", w.SandCount, w.DustCount)
	}
	if math.Abs(w.SimTimeSec-5.0) > 1e-9 {
		t.Errorf("sim_time = %v, want 5.0", w.SimTimeSec)
	}

	// Counters reset; a second window starts at tick 50.
	if c.ShouldFlush(99) {
		t.Error("second window flushed early")
	}
	w2 := c.Flush(100, Snapshot{})
	if w2.Collisions != 0 || w2.WindowStartTick != 50 {
		t.Errorf("second window = %+v, want zero counters starting at 50", w2)
	}
}
