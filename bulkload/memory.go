package bulkload

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// memoryRecoveredFraction is the fraction of the soft limit the heap must
// drop below before a paused load resumes.
const memoryRecoveredFraction = 0.8

// MemoryGuard pauses the load when the heap grows past a soft limit, giving
// the collector room between batch chunks. A zero SoftLimitBytes disables
// the guard.
type MemoryGuard struct {
	// SoftLimitBytes is the heap size that triggers a pause.
	SoftLimitBytes uint64

	// PollInterval is how long to wait between heap checks while paused.
	PollInterval time.Duration

	// MaxPolls bounds the pause; after this many checks the load proceeds
	// regardless, with a warning.
	MaxPolls int

	// ForceGC triggers a collection when the limit is first crossed.
	ForceGC bool

	logger *slog.Logger
}

// NewMemoryGuard creates a guard with the given soft limit.
func NewMemoryGuard(softLimitBytes uint64, logger *slog.Logger) *MemoryGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryGuard{
		SoftLimitBytes: softLimitBytes,
		PollInterval:   250 * time.Millisecond,
		MaxPolls:       20,
		ForceGC:        true,
		logger:         logger.With("component", "memory-guard"),
	}
}

// Wait blocks until the heap is back under the recovery threshold, the poll
// budget runs out, or the context is cancelled.
func (g *MemoryGuard) Wait(ctx context.Context) error {
	if g.SoftLimitBytes == 0 {
		return nil
	}

	heap := heapInUse()
	if heap < g.SoftLimitBytes {
		return nil
	}

	g.logger.Warn("heap above soft limit, pausing load",
		"heapBytes", heap, "softLimitBytes", g.SoftLimitBytes)
	if g.ForceGC {
		runtime.GC()
	}

	target := uint64(float64(g.SoftLimitBytes) * memoryRecoveredFraction)
	for poll := 0; poll < g.MaxPolls; poll++ {
		timer := time.NewTimer(g.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		heap = heapInUse()
		if heap < target {
			g.logger.Info("heap recovered, resuming load", "heapBytes", heap)
			return nil
		}
	}

	g.logger.Warn("heap still above soft limit after poll budget, proceeding",
		"heapBytes", heap)
	return nil
}

// heapInUse reads the current heap usage.
func heapInUse() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapInuse
}
