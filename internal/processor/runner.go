// Package processor drives one conversion run: it validates the input,
// prepares the output folder, enumerates work items and feeds them
// through the scheduler while stats and progress are collected.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"avifgun/internal/classify"
	"avifgun/internal/config"
	"avifgun/internal/logging"
	"avifgun/internal/progress"
	"avifgun/internal/scheduler"
	"avifgun/internal/sourcemeta"
	"avifgun/internal/stats"
	"avifgun/internal/transform"
)

// ErrLocked is returned when another run holds the output folder.
var ErrLocked = errors.New("output folder is in use by another run")

type batch struct {
	cfg       config.Config
	tx        Transformer
	log       *slog.Logger
	outputDir string
	agg       *stats.Aggregator
	reporter  *progress.Reporter
}

// Run converts every eligible item of cfg.InputPath. Per-item failures
// never abort the run; they are counted in the summary. A returned error
// means the run could not start (validation, filesystem, lock) or was
// interrupted, in which case the partial summary is still returned.
func Run(ctx context.Context, cfg config.Config, deps Deps) (RunSummary, error) {
	started := time.Now()
	summary := RunSummary{RunID: uuid.NewString()}

	if err := cfg.Validate(); err != nil {
		return summary, err
	}

	log := deps.Log
	if log == nil {
		log = logging.Nop()
	}
	log = log.With(slog.String("run_id", summary.RunID))

	input, err := filepath.Abs(cfg.InputPath)
	if err != nil {
		return summary, &FilesystemError{Op: "resolve", Path: cfg.InputPath, Err: err}
	}
	info, err := os.Stat(input)
	if err != nil {
		return summary, &FilesystemError{Op: "stat", Path: input, Err: err}
	}
	if err := cfg.ValidateInputKind(info.IsDir()); err != nil {
		return summary, err
	}

	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = OutputDirFor(input)
	}
	if outputDir, err = filepath.Abs(outputDir); err != nil {
		return summary, &FilesystemError{Op: "resolve", Path: cfg.OutputDir, Err: err}
	}
	summary.OutputDir = outputDir

	existed, err := ensureOutputDir(outputDir)
	if err != nil {
		return summary, err
	}
	if existed {
		log.Info("output folder already exists", slog.String("dir", outputDir))
	}

	lock := flock.New(filepath.Join(outputDir, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return summary, &FilesystemError{Op: "lock", Path: lock.Path(), Err: err}
	}
	if !locked {
		return summary, &FilesystemError{Op: "lock", Path: outputDir, Err: ErrLocked}
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	var items []scheduler.Item
	if info.IsDir() {
		summary.InputDir = input
		items, err = Enumerate(input, cfg.Deep, outputDir)
		if err != nil {
			return summary, err
		}
	} else {
		summary.InputDir = filepath.Dir(input)
		items = []scheduler.Item{{Path: input, RelPath: filepath.Base(input)}}
	}

	AssignOutputs(items, outputDir)

	pool := scheduler.PoolSize(cfg.Threads, deps.CPUs, cfg.HardCap)
	workers := min(pool, max(len(items), 1))
	summary.PoolSize = pool

	display := progress.Discard
	if deps.NewDisplay != nil {
		display = deps.NewDisplay(workers)
	}

	tx := deps.Transformer
	if tx == nil {
		tx = transform.New(transform.Options{
			EncoderPath:    cfg.Encoder.Path,
			EncoderArgs:    cfg.Encoder.Args,
			SimilarityPath: cfg.Encoder.SimilarityPath,
		})
	}

	b := &batch{
		cfg:       cfg,
		tx:        tx,
		log:       log,
		outputDir: outputDir,
		agg:       stats.NewAggregator(),
	}
	b.reporter = progress.New(len(items), workers, display, b.agg,
		progress.WithInterval(cfg.RefreshInterval()))
	defer b.reporter.Stop()

	log.Info("run started",
		slog.String("input", input),
		slog.String("output", outputDir),
		slog.Int("items", len(items)),
		slog.Int("workers", workers),
		slog.Bool("live_dssim", cfg.LiveSimilarity),
	)

	b.reporter.Start(ctx)
	outcomes := scheduler.Run(ctx, items, scheduler.Config[Outcome]{
		PoolSize:  pool,
		Step:      b.step,
		Cancelled: b.cancelled,
		Recovered: b.recovered,
	})
	b.reporter.Stop()

	summary.Outcomes = outcomes
	summary.Total = len(items)
	summary.SkipReasons = make(map[string]int)
	for _, out := range outcomes {
		switch out.State {
		case scheduler.Completed:
			summary.Completed++
			if out.Source.HasExif {
				summary.SourcesWithExif++
			}
			if out.Result.Report.ExifMetadataPresent {
				summary.OutputsWithExif++
			}
			if b.cfg.LiveSimilarity && out.Similarity == nil {
				summary.SimilarityErrors++
			}
		case scheduler.Skipped:
			summary.Skipped++
			summary.SkipReasons[out.Classification.Reason]++
			if out.Classification.Reason == classify.ReasonCancelled {
				summary.Cancelled++
			}
		case scheduler.Failed:
			summary.Failed++
			summary.Failures = append(summary.Failures, FailureRecord{Path: out.Item.Path, Err: out.Err})
		}
	}
	summary.Stats = b.agg.Snapshot()
	summary.Elapsed = time.Since(started)

	logSummary(log, summary)

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("run interrupted: %w", err)
	}
	return summary, nil
}

func (b *batch) step(ctx context.Context, worker int, item scheduler.Item) (out Outcome) {
	started := time.Now()
	b.reporter.ItemStarted(worker, item.Path)
	defer b.reporter.ItemCompleted(worker)
	defer func() { out.Duration = time.Since(started) }()

	out = Outcome{Item: item, Worker: worker, State: scheduler.Classifying}

	out.Classification = classify.Classify(item.Path)
	if !out.Classification.Eligible {
		out.State = scheduler.Skipped
		b.log.Debug("skipped",
			slog.String("path", item.RelPath),
			slog.String("reason", out.Classification.Reason),
		)
		return b.finish(out)
	}

	out.State = scheduler.Transforming
	md, err := sourcemeta.Inspect(item.Path, out.Classification.Kind)
	if err != nil {
		b.log.Debug("source metadata unreadable", slog.String("path", item.RelPath), slog.Any("error", err))
	}
	out.Source = md

	out.OutputPath = item.OutputPath
	if out.OutputPath == "" {
		out.OutputPath = OutputPathFor(b.outputDir, item.RelPath)
	}
	if err := os.MkdirAll(filepath.Dir(out.OutputPath), 0o755); err != nil {
		return b.fail(out, &FilesystemError{Op: "create output dir", Path: filepath.Dir(out.OutputPath), Err: err})
	}

	res, err := b.tx.Transform(ctx, item.Path, out.OutputPath)
	if err != nil {
		return b.fail(out, err)
	}
	out.Result = res

	if b.cfg.LiveSimilarity {
		score, err := b.tx.Similarity(ctx, item.Path, out.OutputPath)
		if err != nil {
			b.log.Warn("similarity unavailable", slog.String("path", item.RelPath), slog.Any("error", err))
		} else {
			out.Similarity = &score
		}
	}

	b.agg.Record(uint64(out.Classification.Size), res.TotalBytes(), out.Similarity)
	out.State = scheduler.Completed

	attrs := []any{
		slog.String("path", item.RelPath),
		slog.Int64("original", out.Classification.Size),
		slog.Uint64("transformed", res.TotalBytes()),
	}
	if out.Similarity != nil {
		attrs = append(attrs, slog.Float64("dssim", *out.Similarity))
	}
	if b.cfg.Verbose {
		attrs = append(attrs,
			slog.String("resolution", res.Report.Resolution),
			slog.String("format", res.Report.Format),
			slog.Bool("exif_kept", res.Report.ExifMetadataPresent),
		)
	}
	b.log.Info("converted", attrs...)
	return b.finish(out)
}

func (b *batch) fail(out Outcome, err error) Outcome {
	out.State = scheduler.Failed
	out.Err = err
	b.agg.RecordFailure()
	b.log.Warn("conversion failed", slog.String("path", out.Item.RelPath), slog.Any("error", err))
	return b.finish(out)
}

// finish is the single exit of step, so every outcome leaves in a
// terminal state.
func (b *batch) finish(out Outcome) Outcome {
	if !out.State.Terminal() {
		if out.Err == nil {
			out.Err = fmt.Errorf("item left in state %s", out.State)
		}
		out.State = scheduler.Failed
	}
	return out
}

func (b *batch) cancelled(item scheduler.Item) Outcome {
	return Outcome{
		Item:           item,
		Worker:         -1,
		State:          scheduler.Skipped,
		Classification: classify.Ineligible(classify.ReasonCancelled, context.Canceled),
	}
}

func (b *batch) recovered(item scheduler.Item, worker int, err error) Outcome {
	b.agg.RecordFailure()
	b.log.Error("worker recovered from panic", slog.String("path", item.RelPath), slog.Any("error", err))
	return Outcome{Item: item, Worker: worker, State: scheduler.Failed, Err: err}
}

func logSummary(log *slog.Logger, s RunSummary) {
	attrs := []any{
		slog.Int("total", s.Total),
		slog.Int("completed", s.Completed),
		slog.Int("skipped", s.Skipped),
		slog.Int("failed", s.Failed),
		slog.Duration("elapsed", s.Elapsed),
	}
	if s.Stats.Delta != nil {
		attrs = append(attrs, slog.Float64("delta_pct", *s.Stats.Delta))
	}
	if s.Cancelled > 0 {
		attrs = append(attrs, slog.Int("cancelled", s.Cancelled))
	}
	log.Info("run finished", attrs...)
}
