package fluid

import (
	"runtime"
	"sync"
)

// parallelRowThreshold is the minimum row span to fan out across workers.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelRowThreshold = 64

func defaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// SetWorkers overrides the worker count used for row-parallel phases.
// n < 1 forces single-threaded execution.
func (f *Field) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	f.workers = n
}

// forRows invokes fn for every row in [lo, hi), fanning rows out across
// workers when the span is large enough. Each phase reads only buffers
// the previous phase finished writing and rows are disjoint, so the only
// synchronization needed is the join barrier at the end. Callers must
// not pipeline across phase boundaries.
func (f *Field) forRows(lo, hi int, fn func(i int)) {
	span := hi - lo
	if span <= 0 {
		return
	}
	if f.workers < 2 || span < parallelRowThreshold {
		for i := lo; i < hi; i++ {
			fn(i)
		}
		return
	}

	chunk := (span + f.workers - 1) / f.workers
	var wg sync.WaitGroup
	for start := lo; start < hi; start += chunk {
		end := start + chunk
		if end > hi {
			end = hi
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
