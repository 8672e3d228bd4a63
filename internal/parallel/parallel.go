// Package parallel runs blocked ranges on a bounded set of goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/strided/internal/envconfig"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns the configuration selected by the STRIDED_*
// environment variables, falling back to one worker per CPU.
func DefaultConfig() Config {
	n := int(envconfig.NumThreads())
	if n == 0 {
		n = runtime.NumCPU()
	}
	return Config{
		Enabled:      n > 1 && envconfig.Parallel(true),
		NumWorkers:   n,
		MinChunkSize: max(int(envconfig.GrainSize()), 1),
	}
}

// Sequential returns a configuration that runs everything on the caller's
// goroutine.
func Sequential() Config {
	return Config{NumWorkers: 1, MinChunkSize: 1}
}

// Chunks returns how many blocks Range splits n items into.
func Chunks(n int, cfg Config) int {
	if n <= 0 {
		return 0
	}
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < 2*max(cfg.MinChunkSize, 1) {
		return 1
	}
	return min(cfg.NumWorkers, n/max(cfg.MinChunkSize, 1))
}

// Range calls f on disjoint blocks [begin, end) covering [0, n). Blocks run
// concurrently on at most cfg.NumWorkers goroutines; with a single block f
// runs on the caller's goroutine. The first error is returned after every
// started block finished.
func Range(n int, cfg Config, f func(begin, end int) error) error {
	chunks := Chunks(n, cfg)
	switch chunks {
	case 0:
		return nil
	case 1:
		return f(0, n)
	}

	var g errgroup.Group
	g.SetLimit(cfg.NumWorkers)
	for c := 0; c < chunks; c++ {
		begin, end := c*n/chunks, (c+1)*n/chunks
		g.Go(func() error {
			return f(begin, end)
		})
	}
	return g.Wait()
}

// For executes f(i) for i in [0, n) with optional parallelism.
func For(n int, f func(i int), cfg Config) {
	_ = Range(n, cfg, func(begin, end int) error {
		for i := begin; i < end; i++ {
			f(i)
		}
		return nil
	})
}
