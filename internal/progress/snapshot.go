// Package progress tracks batch progress and periodically pushes a fixed
// snapshot to a display. Workers only touch counters; rendering happens on
// the reporter's own ticker goroutine.
package progress

import (
	"time"
)

// Snapshot is everything a display may show. Fields marked by a *Ready
// flag are meaningless while the flag is false.
type Snapshot struct {
	Overall   int
	Total     int
	PerWorker []int
	// Current holds the item each worker is busy with, "" when idle.
	Current []string

	Elapsed         time.Duration
	Throughput      float64
	ThroughputReady bool

	Completed        int
	Failed           int
	OriginalBytes    uint64
	TransformedBytes uint64
	Delta            float64
	DeltaReady       bool
	MeanSimilarity   float64
	SimilarityReady  bool

	// Final is set on the snapshot pushed by Stop.
	Final bool
}

// Ratio is Overall/Total clamped to [0,1].
func (s Snapshot) Ratio() float64 {
	if s.Total <= 0 {
		return 0
	}
	r := float64(s.Overall) / float64(s.Total)
	if r > 1 {
		return 1
	}
	return r
}

// Display receives snapshots. Update must return promptly; implementations
// drop updates rather than block.
type Display interface {
	Update(Snapshot)
	Close()
}

// Discard is a Display that ignores everything.
var Discard Display = discard{}

type discard struct{}

func (discard) Update(Snapshot) {}
func (discard) Close()          {}
