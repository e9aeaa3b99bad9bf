package stats

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	d := Describe([]float64{40, 80, 120})
	require.True(t, d.Available)
	assert.Equal(t, 3, d.Count)
	assert.Equal(t, 120.0, d.Max)
	assert.Equal(t, 40.0, d.Min)
	assert.Equal(t, 80.0, d.Mean)
	assert.Equal(t, 80.0, d.Median)
	assert.InDelta(t, math.Sqrt(3200.0/3), d.StdDev, 1e-9)
}

func TestDescribeEmpty(t *testing.T) {
	d := Describe(nil)
	assert.False(t, d.Available)
	assert.Zero(t, d.Mean)
	assert.False(t, math.IsNaN(d.StdDev))
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, Median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, Median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 7.0, Median([]float64{7}))
	assert.True(t, math.IsNaN(Median(nil)))

	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in, "input must not be reordered")
}

func TestStdDevIsPopulation(t *testing.T) {
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
	assert.Equal(t, 0.0, StdDev([]float64{5}))
	assert.True(t, math.IsNaN(StdDev(nil)))
}

func TestDeltaPercent(t *testing.T) {
	d, ok := DeltaPercent(600, 240)
	require.True(t, ok)
	assert.InDelta(t, -60.0, d, 1e-9)

	d, ok = DeltaPercent(100, 150)
	require.True(t, ok)
	assert.InDelta(t, 50.0, d, 1e-9)

	_, ok = DeltaPercent(0, 10)
	assert.False(t, ok)
}

func TestAggregatorScenario(t *testing.T) {
	a := NewAggregator()
	a.Record(100, 40, nil)
	a.Record(200, 80, nil)
	a.Record(300, 120, nil)

	s := a.Snapshot()
	assert.Equal(t, 3, s.Totals.Count)
	assert.Equal(t, uint64(600), s.Totals.SumOriginal)
	assert.Equal(t, uint64(240), s.Totals.SumTransformed)
	require.NotNil(t, s.Delta)
	assert.InDelta(t, -60.0, *s.Delta, 1e-9)
	assert.Equal(t, 80.0, s.Transformed.Mean)
	assert.Equal(t, 80.0, s.Transformed.Median)
	assert.Equal(t, 200.0, s.Original.Median)
	assert.False(t, s.Similarity.Available)
}

func TestAggregatorEmpty(t *testing.T) {
	s := NewAggregator().Snapshot()
	assert.Zero(t, s.Totals.Count)
	assert.Nil(t, s.Delta)
	assert.False(t, s.Transformed.Available)
	assert.False(t, s.Original.Available)
	_, ok := s.Totals.MeanSimilarity()
	assert.False(t, ok)
}

func TestAggregatorFailuresExcluded(t *testing.T) {
	a := NewAggregator()
	a.Record(100, 50, nil)
	a.RecordFailure()
	a.RecordFailure()

	s := a.Snapshot()
	assert.Equal(t, 1, s.Totals.Count)
	assert.Equal(t, 2, s.Totals.Failed)
	assert.Equal(t, 1, s.Transformed.Count)
}

type triple struct {
	original, transformed uint64
	similarity            float64
}

func TestAggregatorOrderIndependent(t *testing.T) {
	var items []triple
	for i := 0; i < 200; i++ {
		items = append(items, triple{
			original:    uint64(1000 + i*7),
			transformed: uint64(300 + (i*13)%97),
			similarity:  float64(i%17) / 1000,
		})
	}

	sequential := NewAggregator()
	for _, it := range items {
		s := it.similarity
		sequential.Record(it.original, it.transformed, &s)
	}
	want := sequential.Snapshot()

	shuffled := append([]triple(nil), items...)
	rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	concurrent := NewAggregator()
	var wg sync.WaitGroup
	for _, it := range shuffled {
		wg.Add(1)
		go func(it triple) {
			defer wg.Done()
			s := it.similarity
			concurrent.Record(it.original, it.transformed, &s)
		}(it)
	}
	wg.Wait()
	got := concurrent.Snapshot()

	assert.Equal(t, want.Totals.Count, got.Totals.Count)
	assert.Equal(t, want.Totals.SumOriginal, got.Totals.SumOriginal)
	assert.Equal(t, want.Totals.SumTransformed, got.Totals.SumTransformed)
	assert.InDelta(t, want.Totals.SumSimilarity, got.Totals.SumSimilarity, 1e-9)
	assert.Equal(t, want.Transformed.Mean, got.Transformed.Mean)
	assert.Equal(t, want.Transformed.Median, got.Transformed.Median)
	assert.InDelta(t, want.Transformed.StdDev, got.Transformed.StdDev, 1e-9)
	assert.Equal(t, want.Similarity.Median, got.Similarity.Median)
	assert.Equal(t, want.Similarity.Mean, got.Similarity.Mean)
	assert.Equal(t, want.Similarity.StdDev, got.Similarity.StdDev)
}

func TestDescribeExactUnderReordering(t *testing.T) {
	// Values whose float sum depends on addition order.
	values := []float64{0.1, 0.2, 0.3, 1e-17, 0.7, 3e-9, 0.000123, 1e16, -1e16, 0.45}
	want := Describe(values)

	for i := 0; i < 50; i++ {
		shuffled := append([]float64(nil), values...)
		rand.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Describe(shuffled)
		require.Equal(t, math.Float64bits(want.Mean), math.Float64bits(got.Mean), "mean differs for %v", shuffled)
		require.Equal(t, math.Float64bits(want.StdDev), math.Float64bits(got.StdDev), "stddev differs for %v", shuffled)
	}
}
