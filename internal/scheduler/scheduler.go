// Package scheduler runs a step function over a list of work items with a
// fixed number of workers pulling from a bounded queue.
package scheduler

import (
	"context"
	"fmt"
	"io/fs"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// Item is one unit of work. Index is its position in the enumerated list.
type Item struct {
	Index   int
	Path    string
	RelPath string
	// OutputPath is where the item's result goes, unique within a run.
	OutputPath string
	Entry      fs.DirEntry
}

// State is the lifecycle position of an item.
type State int

const (
	Pending State = iota
	Classifying
	Transforming
	Skipped
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Classifying:
		return "classifying"
	case Transforming:
		return "transforming"
	case Skipped:
		return "skipped"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Skipped || s == Completed || s == Failed
}

// Step processes one item on the given worker slot.
type Step[O any] func(ctx context.Context, worker int, item Item) O

// Config describes one scheduler run.
type Config[O any] struct {
	PoolSize int
	Step     Step[O]
	// Cancelled builds the outcome for items never dispatched because ctx
	// ended. Nil leaves the zero value.
	Cancelled func(item Item) O
	// Recovered builds the outcome for a step that panicked.
	Recovered func(item Item, worker int, err error) O
}

type result[O any] struct {
	pos     int
	outcome O
}

// Run dispatches every item exactly once and returns the outcomes in item
// order. Workers pull the next item only after finishing the previous one,
// so at most PoolSize steps run at a time. Cancelling ctx stops dispatch;
// in-flight steps run to completion and queued items are reported through
// Config.Cancelled.
func Run[O any](ctx context.Context, items []Item, cfg Config[O]) []O {
	outcomes := make([]O, len(items))
	if len(items) == 0 {
		return outcomes
	}

	pool := cfg.PoolSize
	if pool < 1 {
		pool = 1
	}
	if pool > len(items) {
		pool = len(items)
	}

	jobs := make(chan int, pool)
	results := make(chan result[O], pool)
	dispatched := make([]bool, len(items))

	var g errgroup.Group

	g.Go(func() error {
		defer close(jobs)
		for pos := range items {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			select {
			case jobs <- pos:
				dispatched[pos] = true
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < pool; w++ {
		g.Go(func() error {
			for pos := range jobs {
				if ctx.Err() != nil {
					results <- result[O]{pos: pos, outcome: cancelled(cfg, items[pos])}
					continue
				}
				results <- result[O]{pos: pos, outcome: runStep(ctx, cfg, w, items[pos])}
			}
			return nil
		})
	}

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for r := range results {
			outcomes[r.pos] = r.outcome
		}
	}()

	_ = g.Wait()
	close(results)
	<-collected

	for pos, sent := range dispatched {
		if !sent {
			outcomes[pos] = cancelled(cfg, items[pos])
		}
	}
	return outcomes
}

func cancelled[O any](cfg Config[O], item Item) O {
	var out O
	if cfg.Cancelled != nil {
		out = cfg.Cancelled(item)
	}
	return out
}

func runStep[O any](ctx context.Context, cfg Config[O], worker int, item Item) (out O) {
	defer func() {
		if v := recover(); v != nil {
			err := fmt.Errorf("panic processing %s: %v\n%s", item.Path, v, debug.Stack())
			if cfg.Recovered != nil {
				out = cfg.Recovered(item, worker, err)
			}
		}
	}()
	return cfg.Step(ctx, worker, item)
}
