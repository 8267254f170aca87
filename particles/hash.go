package particles

// SpatialHash is the broad-phase acceleration structure: a uniform bucket
// grid over particle positions, rebuilt from scratch every tick. It is
// never a source of truth; bodies outside the domain are simply not
// inserted. Buckets are a flat slice so pair enumeration order is
// deterministic across runs.
type SpatialHash struct {
	width, height float64
	bucketSize    float64
	cols, rows    int
	buckets       [][]int
}

// NewSpatialHash creates an empty hash over a width x height domain.
func NewSpatialHash(width, height float64) *SpatialHash {
	return &SpatialHash{width: width, height: height}
}

// Rebuild clears the hash and re-inserts every body index keyed by
// floor(pos/bucketSize). Bucket slices are retained across ticks to
// avoid reallocating.
func (h *SpatialHash) Rebuild(bodies []Body, bucketSize float64) {
	if bucketSize != h.bucketSize {
		h.bucketSize = bucketSize
		h.cols = int(h.width/bucketSize) + 1
		h.rows = int(h.height/bucketSize) + 1
		h.buckets = make([][]int, h.cols*h.rows)
	}
	for i := range h.buckets {
		h.buckets[i] = h.buckets[i][:0]
	}
	for i := range bodies {
		p := bodies[i].Pos
		if p.X < 0 || p.X >= h.width || p.Y < 0 || p.Y >= h.height {
			continue
		}
		bx := int(p.X / bucketSize)
		by := int(p.Y / bucketSize)
		if bx >= h.cols || by >= h.rows {
			continue
		}
		k := by*h.cols + bx
		h.buckets[k] = append(h.buckets[k], i)
	}
}

// forwardNeighbors covers half of the 3x3 neighborhood. Pairing each
// bucket against itself and only these offsets yields every cross-bucket
// pair exactly once; same-bucket pairs are emitted once via the a<b scan.
var forwardNeighbors = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {-1, 1}}

// ForEachPair invokes fn(i, j) with i < j for every unordered candidate
// pair found within a 3x3 bucket neighborhood. Each pair is reported
// exactly once, in deterministic order.
func (h *SpatialHash) ForEachPair(fn func(i, j int)) {
	for by := 0; by < h.rows; by++ {
		for bx := 0; bx < h.cols; bx++ {
			list := h.buckets[by*h.cols+bx]
			if len(list) == 0 {
				continue
			}
			for a := 0; a < len(list); a++ {
				for b := a + 1; b < len(list); b++ {
					emit(fn, list[a], list[b])
				}
			}
			for _, off := range forwardNeighbors {
				nx, ny := bx+off[0], by+off[1]
				if nx < 0 || nx >= h.cols || ny >= h.rows {
					continue
				}
				for _, i := range list {
					for _, j := range h.buckets[ny*h.cols+nx] {
						emit(fn, i, j)
					}
				}
			}
		}
	}
}

// ForEachNear invokes fn(i) for every body index whose bucket lies within
// radius of position (x, y). Used by the resting pass.
func (h *SpatialHash) ForEachNear(x, y, radius float64, fn func(i int)) {
	if h.bucketSize <= 0 {
		return
	}
	reach := int(radius/h.bucketSize) + 1
	cx := int(x / h.bucketSize)
	cy := int(y / h.bucketSize)
	for by := cy - reach; by <= cy+reach; by++ {
		if by < 0 || by >= h.rows {
			continue
		}
		for bx := cx - reach; bx <= cx+reach; bx++ {
			if bx < 0 || bx >= h.cols {
				continue
			}
			for _, i := range h.buckets[by*h.cols+bx] {
				fn(i)
			}
		}
	}
}

func emit(fn func(i, j int), i, j int) {
	if i > j {
		i, j = j, i
	}
	fn(i, j)
}
