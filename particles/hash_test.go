package particles

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/siltlab/grainfall/vec"
)

func bodiesAt(positions ...[2]float64) []Body {
	bodies := make([]Body, len(positions))
	for i, p := range positions {
		bodies[i] = Body{Pos: vec.Vec2{X: p[0], Y: p[1]}, Kind: KindSand}
	}
	return bodies
}

func collectPairs(h *SpatialHash) map[[2]int]int {
	pairs := make(map[[2]int]int)
	h.ForEachPair(func(i, j int) {
		pairs[[2]int{i, j}]++
	})
	return pairs
}

func TestForEachPairNeighborhood(t *testing.T) {
	h := NewSpatialHash(100, 100)
	// Bucket size 4: first three cluster within one neighborhood, the
	// fourth is far away.
	bodies := bodiesAt([2]float64{10, 10}, [2]float64{11, 11}, [2]float64{13, 10}, [2]float64{90, 90})
	h.Rebuild(bodies, 4)

	pairs := collectPairs(h)

	for _, want := range [][2]int{{0, 1}, {0, 2}, {1, 2}} {
		if pairs[want] == 0 {
			t.Errorf("pair %v not reported", want)
		}
	}
	for pair := range pairs {
		if pair[0] == 3 || pair[1] == 3 {
			t.Errorf("distant body paired: %v", pair)
		}
	}
}

// TestForEachPairNoDuplicates verifies each unordered pair is reported
// exactly once with i < j, across many random layouts including bodies
// straddling bucket borders.
func TestForEachPairNoDuplicates(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	h := NewSpatialHash(64, 64)

	for trial := 0; trial < 20; trial++ {
		bodies := make([]Body, 50)
		for i := range bodies {
			bodies[i] = Body{Pos: vec.Vec2{X: rng.Float64() * 64, Y: rng.Float64() * 64}}
		}
		h.Rebuild(bodies, 4)

		for pair, n := range collectPairs(h) {
			if pair[0] >= pair[1] {
				t.Fatalf("trial %d: pair %v not ordered i < j", trial, pair)
			}
			if n != 1 {
				t.Fatalf("trial %d: pair %v reported %d times", trial, pair, n)
			}
		}
	}
}

// TestForEachPairCoversContacts verifies the broad phase never misses a
// pair closer than one bucket edge; such pairs always land in adjacent
// buckets, so the 3x3 neighborhood must report them.
func TestForEachPairCoversContacts(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	h := NewSpatialHash(64, 64)
	const bucketSize = 4.0

	bodies := make([]Body, 80)
	for i := range bodies {
		bodies[i] = Body{Pos: vec.Vec2{X: rng.Float64() * 64, Y: rng.Float64() * 64}}
	}
	h.Rebuild(bodies, bucketSize)
	pairs := collectPairs(h)

	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			if bodies[i].Pos.Sub(bodies[j].Pos).Length() >= bucketSize {
				continue
			}
			if pairs[[2]int{i, j}] == 0 {
				t.Errorf("near pair (%d,%d) missed by broad phase", i, j)
			}
		}
	}
}

func TestRebuildSkipsOutOfDomain(t *testing.T) {
	h := NewSpatialHash(100, 100)

	tests := []struct {
		x, y float64
	}{
		{-1, 50}, {50, -1}, {100, 50}, {50, 100}, {150, 150},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("(%v,%v)", tc.x, tc.y), func(t *testing.T) {
			// One body out of domain next to one inside; no pair may form.
			bodies := bodiesAt([2]float64{tc.x, tc.y}, [2]float64{50, 50})
			h.Rebuild(bodies, 4)

			if pairs := collectPairs(h); len(pairs) != 0 {
				t.Errorf("out-of-domain body produced pairs: %v", pairs)
			}
		})
	}
}

func TestForEachPairDeterministicOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	bodies := make([]Body, 40)
	for i := range bodies {
		bodies[i] = Body{Pos: vec.Vec2{X: rng.Float64() * 64, Y: rng.Float64() * 64}}
	}

	order := func() [][2]int {
		h := NewSpatialHash(64, 64)
		h.Rebuild(bodies, 4)
		var seq [][2]int
		h.ForEachPair(func(i, j int) {
			seq = append(seq, [2]int{i, j})
		})
		return seq
	}

	first := order()
	second := order()
	if len(first) != len(second) {
		t.Fatalf("pair counts differ: %d vs %d", len(first), len(second))
	}
	for k := range first {
		if first[k] != second[k] {
			t.Fatalf("enumeration order differs at %d: %v vs %v", k, first[k], second[k])
		}
	}
}
