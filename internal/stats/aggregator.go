package stats

import (
	"sync"
)

// Totals is a consistent point-in-time view of the running sums, cheap
// enough to read on every progress tick.
type Totals struct {
	Count           int
	Failed          int
	SumOriginal     uint64
	SumTransformed  uint64
	SumSimilarity   float64
	SimilarityCount int
}

// Delta returns the running size delta in percent.
func (t Totals) Delta() (float64, bool) {
	return DeltaPercent(t.SumOriginal, t.SumTransformed)
}

// MeanSimilarity returns the mean of the similarity scores recorded so far.
func (t Totals) MeanSimilarity() (float64, bool) {
	if t.SimilarityCount == 0 {
		return 0, false
	}
	return t.SumSimilarity / float64(t.SimilarityCount), true
}

// Summary is the end-of-run view over every completed item.
type Summary struct {
	Totals Totals

	// Delta is nil when nothing was recorded.
	Delta *float64

	Transformed Distribution
	Original    Distribution
	Similarity  Distribution
}

// Aggregator accumulates completed items. All methods are safe for
// concurrent use; the invariant Count == len(transformed sizes) holds at
// every observable point.
type Aggregator struct {
	mu           sync.Mutex
	totals       Totals
	originals    []uint64
	transformed  []uint64
	similarities []float64
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record adds one completed item. similarity is nil when scoring is off
// or failed for this item.
func (a *Aggregator) Record(original, transformed uint64, similarity *float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totals.Count++
	a.totals.SumOriginal += original
	a.totals.SumTransformed += transformed
	a.originals = append(a.originals, original)
	a.transformed = append(a.transformed, transformed)
	if similarity != nil {
		a.totals.SumSimilarity += *similarity
		a.totals.SimilarityCount++
		a.similarities = append(a.similarities, *similarity)
	}
}

// RecordFailure counts an item whose transform failed. Failed items never
// contribute to sizes or scores.
func (a *Aggregator) RecordFailure() {
	a.mu.Lock()
	a.totals.Failed++
	a.mu.Unlock()
}

// Totals returns the running sums.
func (a *Aggregator) Totals() Totals {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totals
}

// Snapshot computes the summary over everything recorded so far.
func (a *Aggregator) Snapshot() Summary {
	a.mu.Lock()
	totals := a.totals
	transformed := toFloats(a.transformed)
	originals := toFloats(a.originals)
	similarities := append([]float64(nil), a.similarities...)
	a.mu.Unlock()

	s := Summary{
		Totals:      totals,
		Transformed: Describe(transformed),
		Original:    Describe(originals),
		Similarity:  Describe(similarities),
	}
	if totals.Count > 0 {
		if d, ok := totals.Delta(); ok {
			s.Delta = &d
		}
	}
	return s
}

func toFloats(values []uint64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
