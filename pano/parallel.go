package pano

import (
	"runtime"
	"sync"
)

// ParallelConfig configures how per-pixel work is split across goroutines.
// Work is partitioned by output row; pixels never depend on each other.
type ParallelConfig struct {
	// NumWorkers is the number of worker goroutines. 0 means runtime.GOMAXPROCS(0).
	NumWorkers int `json:"workers"`

	// GrainSize is the minimum number of rows per worker before the work is
	// split. If rows < GrainSize * NumWorkers, the loop runs sequentially.
	GrainSize int `json:"grain_size"`
}

// DefaultParallelConfig returns the default parallel configuration.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		NumWorkers: 0,  // Use all available CPUs
		GrainSize:  16, // Small views are cheaper to do inline
	}
}

// parallelConfig is used by the package-level helpers (Remap, Synthesize,
// ExtractCubeFaces). Engines carry their own copy in Config.
var (
	parallelConfig   = DefaultParallelConfig()
	parallelConfigMu sync.RWMutex
)

// SetParallelConfig sets the configuration used by package-level helpers.
func SetParallelConfig(config ParallelConfig) {
	parallelConfigMu.Lock()
	defer parallelConfigMu.Unlock()
	parallelConfig = config
}

// GetParallelConfig returns the configuration used by package-level helpers.
func GetParallelConfig() ParallelConfig {
	parallelConfigMu.RLock()
	defer parallelConfigMu.RUnlock()
	return parallelConfig
}

// effectiveWorkers returns the number of workers to use.
func effectiveWorkers(config ParallelConfig) int {
	if config.NumWorkers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return config.NumWorkers
}

// parallelRows runs fn(y) for y in [0, n) over contiguous row bands.
func parallelRows(config ParallelConfig, n int, fn func(y int)) {
	_ = parallelRowsWithError(config, n, func(y int) error {
		fn(y)
		return nil
	})
}

// parallelRowsWithError runs fn(y) for y in [0, n) over contiguous row
// bands and returns the first error encountered (order not guaranteed).
// A band stops at its first error; other bands run to completion.
func parallelRowsWithError(config ParallelConfig, n int, fn func(y int) error) error {
	numWorkers := effectiveWorkers(config)

	// Run sequentially if not worth parallelizing
	if n <= config.GrainSize*numWorkers || numWorkers == 1 {
		for y := 0; y < n; y++ {
			if err := fn(y); err != nil {
				return err
			}
		}
		return nil
	}

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error
	chunkSize := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			break
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for y := s; y < e; y++ {
				if err := fn(y); err != nil {
					errOnce.Do(func() {
						firstErr = err
					})
					return
				}
			}
		}(start, end)
	}

	wg.Wait()
	return firstErr
}
