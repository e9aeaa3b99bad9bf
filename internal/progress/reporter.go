package progress

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"avifgun/internal/stats"
)

// DefaultInterval is the refresh period of the ticker.
const DefaultInterval = 100 * time.Millisecond

// TotalsSource provides running aggregate totals for the footer.
type TotalsSource interface {
	Totals() stats.Totals
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(r *Reporter) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// Reporter owns the progress state of one run. Counter methods are safe
// for concurrent use by workers and never block on the display.
type Reporter struct {
	display  Display
	totals   TotalsSource
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	total     int
	overall   int
	perWorker []int
	current   []string
	started   time.Time

	startOnce sync.Once
	running   bool
	stopOnce  sync.Once
	stopCh    chan struct{}
	done      chan struct{}
}

// New creates a reporter for total items spread over workers slots.
// display and totals may be nil.
func New(total, workers int, display Display, totals TotalsSource, opts ...Option) *Reporter {
	if display == nil {
		display = Discard
	}
	if workers < 1 {
		workers = 1
	}
	r := &Reporter{
		display:   display,
		totals:    totals,
		interval:  DefaultInterval,
		now:       time.Now,
		total:     total,
		perWorker: make([]int, workers),
		current:   make([]string, workers),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.started = r.now()
	return r
}

// ItemStarted marks worker as busy with path.
func (r *Reporter) ItemStarted(worker int, path string) {
	r.mu.Lock()
	if worker >= 0 && worker < len(r.current) {
		r.current[worker] = filepath.Base(path)
	}
	r.mu.Unlock()
}

// ItemCompleted counts one finished item (any terminal state) for worker.
func (r *Reporter) ItemCompleted(worker int) {
	r.mu.Lock()
	if worker >= 0 && worker < len(r.perWorker) {
		r.perWorker[worker]++
		r.current[worker] = ""
	}
	r.overall++
	r.mu.Unlock()
}

// Start launches the ticker goroutine. It runs until Stop or ctx ends.
func (r *Reporter) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		r.running = true
		go r.loop(ctx)
	})
}

func (r *Reporter) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Tick computes a snapshot and pushes it to the display.
func (r *Reporter) Tick() Snapshot {
	snap := r.Snapshot()
	r.display.Update(snap)
	return snap
}

// Snapshot computes the current view without pushing it.
func (r *Reporter) Snapshot() Snapshot {
	now := r.now()

	r.mu.Lock()
	snap := Snapshot{
		Overall:   r.overall,
		Total:     r.total,
		PerWorker: append([]int(nil), r.perWorker...),
		Current:   append([]string(nil), r.current...),
		Elapsed:   now.Sub(r.started),
	}
	r.mu.Unlock()

	if snap.Elapsed > 0 {
		snap.Throughput = float64(snap.Overall) / snap.Elapsed.Seconds()
		snap.ThroughputReady = true
	}

	if r.totals != nil {
		t := r.totals.Totals()
		snap.Completed = t.Count
		snap.Failed = t.Failed
		snap.OriginalBytes = t.SumOriginal
		snap.TransformedBytes = t.SumTransformed
		snap.Delta, snap.DeltaReady = t.Delta()
		snap.MeanSimilarity, snap.SimilarityReady = t.MeanSimilarity()
	}
	return snap
}

// Stop halts the ticker, pushes a final snapshot and closes the display.
// It is safe to call more than once; only the first call has effect.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		// A Start after Stop must not launch the loop.
		r.startOnce.Do(func() {})
		close(r.stopCh)
		if r.running {
			<-r.done
		}

		snap := r.Snapshot()
		snap.Final = true
		r.display.Update(snap)
		r.display.Close()
	})
}
