package metrics

import (
	"time"

	"go.uber.org/atomic"

	"github.com/kitmetrics/metrics/clock"
	"github.com/kitmetrics/metrics/sample"
)

// Timer measures both the rate at which a piece of code is called and the
// distribution of its duration. Durations are recorded in nanoseconds.
type Timer struct {
	clock     clock.Clock
	meter     *Meter
	histogram *Histogram
}

// NewTimer returns a Timer sampling durations into r and reading time from c.
func NewTimer(r sample.Reservoir, c clock.Clock) *Timer {
	return &Timer{
		clock:     c,
		meter:     NewMeter(c),
		histogram: NewHistogram(r),
	}
}

// Update records a duration. Negative durations, which a non-monotonic clock
// can produce, are dropped.
func (t *Timer) Update(d time.Duration) {
	t.update(int64(d))
}

func (t *Timer) update(nanos int64) {
	if nanos < 0 {
		return
	}
	t.histogram.Update(nanos)
	t.meter.Mark(1)
}

// Time calls f and records how long it took, including when f panics.
func (t *Timer) Time(f func()) {
	start := t.clock.Tick()
	defer func() { t.update(t.clock.Tick() - start) }()
	f()
}

// TimeErr calls f, records how long it took, and returns f's error.
func (t *Timer) TimeErr(f func() error) error {
	start := t.clock.Tick()
	defer func() { t.update(t.clock.Tick() - start) }()
	return f()
}

// TimeValue calls f, records how long it took on t, and returns f's result.
func TimeValue[T any](t *Timer, f func() T) T {
	start := t.clock.Tick()
	defer func() { t.update(t.clock.Tick() - start) }()
	return f()
}

// Start returns a TimerContext measuring from now. Pair it with a deferred
// Stop to time a scope on every exit path:
//
//	defer timer.Start().Stop()
func (t *Timer) Start() *TimerContext {
	return &TimerContext{timer: t, start: t.clock.Tick()}
}

// Count returns the number of durations recorded.
func (t *Timer) Count() int64 { return t.histogram.Count() }

// MeanRate returns the mean rate of recorded durations per second.
func (t *Timer) MeanRate() float64 { return t.meter.MeanRate() }

// OneMinuteRate returns the one-minute moving average rate per second.
func (t *Timer) OneMinuteRate() float64 { return t.meter.OneMinuteRate() }

// FiveMinuteRate returns the five-minute moving average rate per second.
func (t *Timer) FiveMinuteRate() float64 { return t.meter.FiveMinuteRate() }

// FifteenMinuteRate returns the fifteen-minute moving average rate per
// second.
func (t *Timer) FifteenMinuteRate() float64 { return t.meter.FifteenMinuteRate() }

// Snapshot returns a point-in-time view of the duration distribution, in
// nanoseconds.
func (t *Timer) Snapshot() sample.Snapshot { return t.histogram.Snapshot() }

// Kind implements Metric.
func (*Timer) Kind() Kind { return KindTimer }

func (*Timer) metric() {}

func (x *Timer) unwrap() *Timer { return x }

// TimerContext times one scope for a Timer.
type TimerContext struct {
	timer   *Timer
	start   int64
	stopped atomic.Bool
}

// Stop returns the time elapsed since Start. The first call records it on
// the Timer; later calls only report it.
func (c *TimerContext) Stop() time.Duration {
	elapsed := c.timer.clock.Tick() - c.start
	if c.stopped.CompareAndSwap(false, true) {
		c.timer.update(elapsed)
	}
	return time.Duration(elapsed)
}
