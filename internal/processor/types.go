package processor

import (
	"context"
	"log/slog"
	"time"

	"avifgun/internal/classify"
	"avifgun/internal/progress"
	"avifgun/internal/scheduler"
	"avifgun/internal/sourcemeta"
	"avifgun/internal/stats"
	"avifgun/internal/transform"
)

// Transformer is the external encode/score boundary.
type Transformer interface {
	Transform(ctx context.Context, inputPath, outputPath string) (transform.Result, error)
	Similarity(ctx context.Context, inputPath, outputPath string) (float64, error)
}

// Deps are the collaborators of a run. Zero values get defaults.
type Deps struct {
	Transformer Transformer
	Log         *slog.Logger
	// NewDisplay builds the live display once the pool size is known.
	NewDisplay func(workers int) progress.Display
	// CPUs overrides the detected logical CPU count.
	CPUs int
}

// Outcome is the terminal record of one work item.
type Outcome struct {
	Item           scheduler.Item
	Worker         int
	State          scheduler.State
	Classification classify.Classification
	Source         sourcemeta.Metadata
	Result         transform.Result
	Similarity     *float64
	OutputPath     string
	Err            error
	Duration       time.Duration
}

// FailureRecord names one failed item.
type FailureRecord struct {
	Path string
	Err  error
}

// RunSummary is what a run reports back once every worker has drained.
type RunSummary struct {
	RunID     string
	InputDir  string
	OutputDir string
	PoolSize  int

	Total     int
	Completed int
	Skipped   int
	Failed    int
	// Cancelled counts items never dispatched because the run was
	// interrupted; they are included in Skipped.
	Cancelled   int
	SkipReasons map[string]int
	Failures    []FailureRecord

	// SimilarityErrors counts completed items whose score could not be
	// computed.
	SimilarityErrors int
	SourcesWithExif  int
	OutputsWithExif  int

	Stats    stats.Summary
	Elapsed  time.Duration
	Outcomes []Outcome
}

// Processed is the number of items a worker actually visited.
func (s RunSummary) Processed() int {
	return s.Completed + s.Skipped + s.Failed - s.Cancelled
}

// FilesystemError aborts a run: the input cannot be read or the output
// location cannot be prepared.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}
