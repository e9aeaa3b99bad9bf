package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type visit struct {
	worker int
	path   string
	state  State
	err    error
}

func makeItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{Index: i, Path: fmt.Sprintf("item-%03d", i)}
	}
	return items
}

func TestRunVisitsEveryItemOnce(t *testing.T) {
	for _, n := range []int{0, 1, 7, 64, 257} {
		for _, pool := range []int{1, 2, 3, 8, 300} {
			t.Run(fmt.Sprintf("n=%d/pool=%d", n, pool), func(t *testing.T) {
				var mu sync.Mutex
				seen := map[string]int{}
				perWorker := map[int]int{}

				items := makeItems(n)
				out := Run(context.Background(), items, Config[visit]{
					PoolSize: pool,
					Step: func(_ context.Context, worker int, item Item) visit {
						mu.Lock()
						seen[item.Path]++
						perWorker[worker]++
						mu.Unlock()
						return visit{worker: worker, path: item.Path, state: Completed}
					},
				})

				require.Len(t, out, n)
				total := 0
				for _, c := range perWorker {
					total += c
				}
				assert.Equal(t, n, total)
				assert.Len(t, seen, n)
				for i, v := range out {
					assert.Equal(t, items[i].Path, v.path, "outcomes are in item order")
					assert.Equal(t, 1, seen[v.path])
					assert.Less(t, v.worker, max(1, min(pool, n)))
				}
			})
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	const pool = 3
	var inFlight, peak atomic.Int32

	Run(context.Background(), makeItems(30), Config[visit]{
		PoolSize: pool,
		Step: func(_ context.Context, _ int, item Item) visit {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
			return visit{path: item.Path}
		},
	})

	assert.LessOrEqual(t, peak.Load(), int32(pool))
	assert.Positive(t, peak.Load())
}

func TestRunIsolatesFailures(t *testing.T) {
	errBoom := errors.New("boom")
	out := Run(context.Background(), makeItems(10), Config[visit]{
		PoolSize: 4,
		Step: func(_ context.Context, _ int, item Item) visit {
			if item.Index == 3 {
				return visit{path: item.Path, state: Failed, err: errBoom}
			}
			if item.Index == 6 {
				panic("encoder exploded")
			}
			return visit{path: item.Path, state: Completed}
		},
		Recovered: func(item Item, worker int, err error) visit {
			return visit{path: item.Path, worker: worker, state: Failed, err: err}
		},
	})

	counts := map[State]int{}
	for _, v := range out {
		counts[v.state]++
	}
	assert.Equal(t, 8, counts[Completed])
	assert.Equal(t, 2, counts[Failed])
	assert.ErrorIs(t, out[3].err, errBoom)
	assert.ErrorContains(t, out[6].err, "encoder exploded")
}

func TestRunCancellationStopsDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var started atomic.Int32
	out := Run(ctx, makeItems(50), Config[visit]{
		PoolSize: 2,
		Step: func(_ context.Context, _ int, item Item) visit {
			if started.Add(1) == 4 {
				cancel()
			}
			return visit{path: item.Path, state: Completed}
		},
		Cancelled: func(item Item) visit {
			return visit{path: item.Path, state: Skipped}
		},
	})

	counts := map[State]int{}
	for i, v := range out {
		counts[v.state]++
		assert.Equal(t, fmt.Sprintf("item-%03d", i), v.path)
	}
	assert.Equal(t, 50, counts[Completed]+counts[Skipped])
	assert.Positive(t, counts[Skipped])
	assert.Equal(t, int(started.Load()), counts[Completed])
}

func TestPoolSize(t *testing.T) {
	tests := []struct {
		requested, cpus, want int
	}{
		{requested: 4, cpus: 4, want: 3},
		{requested: 16, cpus: 16, want: 8},
		{requested: 12, cpus: 10, want: 8},
		{requested: 2, cpus: 16, want: 2},
		{requested: 1, cpus: 1, want: 1},
		{requested: 8, cpus: 2, want: 1},
		{requested: 0, cpus: 6, want: 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PoolSize(tt.requested, tt.cpus, 0), "requested=%d cpus=%d", tt.requested, tt.cpus)
	}
	assert.GreaterOrEqual(t, PoolSize(0, 0, 0), 1)
	assert.Equal(t, 4, PoolSize(16, 16, 4))
}

func TestStateTerminal(t *testing.T) {
	assert.False(t, Pending.Terminal())
	assert.False(t, Transforming.Terminal())
	assert.True(t, Skipped.Terminal())
	assert.True(t, Failed.Terminal())
	assert.Equal(t, "completed", Completed.String())
}
