package metrics

import "github.com/kitmetrics/metrics/sample"

// Histogram measures the distribution of int64 values. Count is exact; the
// distribution is approximated by the histogram's Reservoir.
type Histogram struct {
	reservoir sample.Reservoir
	count     AtomicCounter
}

// NewHistogram returns a Histogram sampling into r. The histogram must be the
// reservoir's only writer.
func NewHistogram(r sample.Reservoir) *Histogram {
	return &Histogram{reservoir: r}
}

// Update records a value.
func (h *Histogram) Update(value int64) {
	h.count.AddAndGet(1)
	h.reservoir.Update(value)
}

// Count returns the number of values recorded.
func (h *Histogram) Count() int64 { return h.count.Get() }

// Snapshot returns a point-in-time view of the sampled distribution.
func (h *Histogram) Snapshot() sample.Snapshot { return h.reservoir.Snapshot() }

// Kind implements Metric.
func (*Histogram) Kind() Kind { return KindHistogram }

func (*Histogram) metric() {}

func (x *Histogram) unwrap() *Histogram { return x }
