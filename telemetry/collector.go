package telemetry

// Snapshot is the state sample the simulation provides when a window is
// flushed.
type Snapshot struct {
	SandCount     int
	DustCount     int
	Speeds        []float64 // consumed (sorted) by the flush
	KineticEnergy float64
	MaxDivergence float64
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int
	dt                  float64

	windowStartTick int

	// Event counters for current window
	collisions   int
	restContacts int
	injections   int
	spawns       int
}

// NewCollector creates a stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordCollisions adds resolved narrow-phase contacts for this tick.
func (c *Collector) RecordCollisions(n int) {
	c.collisions += n
}

// RecordRestContacts adds dust-resting clamps for this tick.
func (c *Collector) RecordRestContacts(n int) {
	c.restContacts += n
}

// RecordInjection records one external force injection.
func (c *Collector) RecordInjection() {
	c.injections++
}

// RecordSpawn records a particle spawn.
func (c *Collector) RecordSpawn() {
	c.spawns++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush closes the current window against the given snapshot, resets the
// counters and starts the next window at currentTick.
func (c *Collector) Flush(currentTick int, snap Snapshot) WindowStats {
	speed := ComputeSpeedStats(snap.Speeds)

	w := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,
		SandCount:       snap.SandCount,
		DustCount:       snap.DustCount,
		Collisions:      c.collisions,
		RestContacts:    c.restContacts,
		Injections:      c.injections,
		Spawns:          c.spawns,
		SpeedMean:       speed.Mean,
		SpeedStd:        speed.Std,
		SpeedP50:        speed.P50,
		SpeedP90:        speed.P90,
		SpeedMax:        speed.Max,
		KineticEnergy:   snap.KineticEnergy,
		MaxDivergence:   snap.MaxDivergence,
	}

	c.collisions = 0
	c.restContacts = 0
	c.injections = 0
	c.spawns = 0
	c.windowStartTick = currentTick

	return w
}
