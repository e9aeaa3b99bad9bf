package progress

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// LogDisplay writes a progress line through slog at most once per period.
// It is used when stdout is not a terminal.
type LogDisplay struct {
	log    *slog.Logger
	period time.Duration

	mu   sync.Mutex
	last time.Duration
}

// NewLogDisplay returns a LogDisplay logging at most every period.
func NewLogDisplay(log *slog.Logger, period time.Duration) *LogDisplay {
	if period <= 0 {
		period = 5 * time.Second
	}
	return &LogDisplay{log: log, period: period}
}

// Update logs snap when a period has passed since the last line.
func (d *LogDisplay) Update(snap Snapshot) {
	d.mu.Lock()
	if !snap.Final && snap.Elapsed-d.last < d.period {
		d.mu.Unlock()
		return
	}
	d.last = snap.Elapsed
	d.mu.Unlock()

	attrs := []any{
		slog.Int("processed", snap.Overall),
		slog.Int("total", snap.Total),
		slog.Int("failed", snap.Failed),
		slog.Duration("elapsed", snap.Elapsed.Round(time.Second)),
		slog.String("size", FooterSizes(snap)),
	}
	if snap.ThroughputReady {
		attrs = append(attrs, slog.String("rate", FormatThroughput(snap)))
	}
	if snap.DeltaReady {
		attrs = append(attrs, slog.String("delta", FormatDelta(snap.Delta)))
	}
	msg := "progress"
	if snap.Final {
		msg = "progress final"
	}
	d.log.Info(msg, attrs...)
}

// Close is a no-op.
func (d *LogDisplay) Close() {}

// FooterSizes renders "<avif> vs. <original>" or "pending".
func FooterSizes(snap Snapshot) string {
	if snap.Completed == 0 {
		return "pending"
	}
	return humanize.IBytes(snap.TransformedBytes) + " vs. " + humanize.IBytes(snap.OriginalBytes)
}

// FormatThroughput renders items per second, or "pending".
func FormatThroughput(snap Snapshot) string {
	if !snap.ThroughputReady {
		return "pending"
	}
	return humanize.FormatFloat("#,###.##", snap.Throughput) + " img/s"
}

// FormatDelta renders a signed percentage with two decimals.
func FormatDelta(delta float64) string {
	return humanize.FormatFloat("#,###.##", delta) + "%"
}
