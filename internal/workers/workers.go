package workers

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"sync"
)

// OverrideEnv pins the probe pool size.
const OverrideEnv = "PROBE_WORKERS"

// Count returns perCPU workers for every CPU the container may use, at least
// one and at most limit (0 means no limit). GOMAXPROCS follows the container
// CPU quota, runtime.NumCPU does not. A positive PROBE_WORKERS replaces the
// computed value but is still capped by limit.
func Count(perCPU float64, limit int) int {
	n := int(float64(runtime.GOMAXPROCS(0)) * perCPU)
	if v, err := strconv.Atoi(os.Getenv(OverrideEnv)); err == nil && v > 0 {
		n = v
	}
	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// ForIO sizes a pool for work that mostly waits on reads: two per CPU.
// ffprobe spends its time reading container headers.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// Each calls fn(i) for every i in [0, count) on at most n goroutines and
// returns when all calls have finished. Indexes not yet handed out when ctx
// is cancelled are skipped.
func Each(ctx context.Context, n, count int, fn func(i int)) {
	if count <= 0 {
		return
	}
	if n < 1 {
		n = 1
	}
	if n > count {
		n = count
	}

	next := make(chan int)
	var wg sync.WaitGroup
	wg.Add(n)
	for w := 0; w < n; w++ {
		go func() {
			defer wg.Done()
			for i := range next {
				fn(i)
			}
		}()
	}

feed:
	for i := 0; i < count; i++ {
		select {
		case next <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(next)
	wg.Wait()
}
