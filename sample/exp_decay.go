package sample

import (
	"container/heap"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/kitmetrics/metrics/clock"
)

const (
	// DefaultSize is the capacity used by NewExpDecay when WithSize is not
	// given. It offers a 99.9% confidence level with a 5% margin of error
	// assuming a normal distribution.
	DefaultSize = 1028

	// DefaultAlpha is the decay factor used when WithAlpha is not given. It
	// heavily biases the reservoir to the past five minutes of measurements.
	DefaultAlpha = 0.015

	rescaleThreshold = int64(time.Hour)
)

// ExpDecay is an exponentially-decaying reservoir. Each sample is weighted by
// exp(alpha * age-in-seconds) relative to a landmark, so recent values are far
// more likely to survive eviction than old ones. Once an hour the landmark
// moves forward and every weight is rescaled so they stay within float64
// range.
//
// See Cormode et al., "Forward Decay: A Practical Time Decay Model for
// Streaming Systems", ICDE 2009.
type ExpDecay struct {
	size  int
	alpha float64
	clock clock.Clock

	count         atomic.Int64
	nextScaleTime atomic.Int64

	mu        sync.Mutex
	startTime int64 // seconds, guarded by mu
	values    priorityHeap
}

var _ Reservoir = (*ExpDecay)(nil)

// Option sets a parameter of an ExpDecay reservoir.
type Option func(*ExpDecay)

// WithSize sets the reservoir capacity. Non-positive sizes are ignored.
func WithSize(size int) Option {
	return func(r *ExpDecay) {
		if size > 0 {
			r.size = size
		}
	}
}

// WithAlpha sets the exponential decay factor; higher values bias the
// reservoir more strongly towards recent data.
func WithAlpha(alpha float64) Option {
	return func(r *ExpDecay) { r.alpha = alpha }
}

// NewExpDecay returns an exponentially-decaying reservoir reading time from c.
func NewExpDecay(c clock.Clock, options ...Option) *ExpDecay {
	r := &ExpDecay{
		size:  DefaultSize,
		alpha: DefaultAlpha,
		clock: c,
	}
	for _, option := range options {
		option(r)
	}
	now := c.Tick()
	r.startTime = seconds(now)
	r.nextScaleTime.Store(now + rescaleThreshold)
	r.values = make(priorityHeap, 0, r.size)
	return r
}

// Size implements Reservoir.
func (r *ExpDecay) Size() int {
	n := r.count.Load()
	if n > int64(r.size) {
		return r.size
	}
	return int(n)
}

// Update implements Reservoir.
func (r *ExpDecay) Update(value int64) {
	now := r.clock.Tick()
	r.rescaleIfNeeded(now)

	r.mu.Lock()
	defer r.mu.Unlock()

	weight := r.weight(seconds(now) - r.startTime)
	// 1-Float64 lies in (0, 1], so priority is always finite.
	s := prioritized{
		priority: weight / (1 - rand.Float64()),
		sample:   WeightedSample{Value: value, Weight: weight},
	}

	if n := r.count.Add(1); n <= int64(r.size) {
		heap.Push(&r.values, s)
		return
	}
	if r.values[0].priority < s.priority {
		r.values[0] = s
		heap.Fix(&r.values, 0)
	}
}

// Snapshot implements Reservoir.
func (r *ExpDecay) Snapshot() Snapshot {
	r.mu.Lock()
	samples := make([]WeightedSample, len(r.values))
	for i, p := range r.values {
		samples[i] = p.sample
	}
	r.mu.Unlock()
	return NewWeightedSnapshot(samples)
}

// rescaleIfNeeded lets exactly one caller per threshold window win the CAS on
// nextScaleTime and move the landmark forward.
func (r *ExpDecay) rescaleIfNeeded(now int64) {
	next := r.nextScaleTime.Load()
	if now < next {
		return
	}
	if !r.nextScaleTime.CompareAndSwap(next, now+rescaleThreshold) {
		return
	}
	r.rescale(now)
}

// rescale multiplies every priority and weight by the same positive factor,
// which preserves heap order: no sample is dropped or duplicated.
func (r *ExpDecay) rescale(now int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.startTime
	r.startTime = seconds(now)
	factor := math.Exp(-r.alpha * float64(r.startTime-old))
	for i := range r.values {
		r.values[i].priority *= factor
		r.values[i].sample.Weight *= factor
	}
}

func (r *ExpDecay) weight(age int64) float64 {
	return math.Exp(r.alpha * float64(age))
}

func seconds(tick int64) int64 {
	return tick / int64(time.Second)
}

type prioritized struct {
	priority float64
	sample   WeightedSample
}

// priorityHeap is a min-heap on priority: the root is the first candidate
// for eviction.
type priorityHeap []prioritized

func (h priorityHeap) Len() int           { return len(h) }
func (h priorityHeap) Less(i, j int) bool { return h[i].priority < h[j].priority }
func (h priorityHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *priorityHeap) Push(x any) { *h = append(*h, x.(prioritized)) }

func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
