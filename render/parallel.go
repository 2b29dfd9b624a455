package render

import (
	"runtime"
	"sync"
)

// parallelForEach runs fn(i) for i in [0, n) across up to GOMAXPROCS
// goroutines in contiguous chunks, returning the first error encountered
// (which error is first is not guaranteed across chunks). Small n runs
// sequentially: per-request work is bounded by atlas count, and spawning
// goroutines for a handful of parts costs more than it saves.
func parallelForEach(n int, fn func(i int) error) error {
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, n)
		if start >= end {
			break
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				if err := fn(i); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
			}
		}(start, end)
	}

	wg.Wait()
	return firstErr
}
