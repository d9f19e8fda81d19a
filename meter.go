package metrics

import (
	"time"

	"github.com/kitmetrics/metrics/clock"
)

// Meter measures the rate of events: a lifetime mean rate, and one-, five-
// and fifteen-minute exponentially-weighted moving averages. All rates are
// events per second.
//
// Decay is driven by the meter's Clock, not by a background goroutine. Every
// Mark and every rate read first catches up on the ticks that have elapsed
// since the last one.
type Meter struct {
	clock     clock.Clock
	startTime int64

	count    AtomicCounter
	lastTick AtomicCounter

	m1, m5, m15 *EWMA
}

// NewMeter returns a Meter reading time from c.
func NewMeter(c clock.Clock) *Meter {
	m := &Meter{
		clock: c,
		m1:    NewOneMinuteEWMA(),
		m5:    NewFiveMinuteEWMA(),
		m15:   NewFifteenMinuteEWMA(),
	}
	m.startTime = c.Tick()
	m.lastTick.AddAndGet(m.startTime)
	return m
}

// Mark records n events.
func (m *Meter) Mark(n int64) {
	m.tickIfNecessary()
	m.count.AddAndGet(n)
	m.m1.Update(n)
	m.m5.Update(n)
	m.m15.Update(n)
}

// tickIfNecessary lets the single caller that wins the CAS on lastTick apply
// every tick that elapsed since it was last moved. lastTick is realigned to
// the tick grid so the remainder carries into the next interval.
func (m *Meter) tickIfNecessary() {
	interval := int64(TickInterval)
	oldTick := m.lastTick.Get()
	newTick := m.clock.Tick()
	age := newTick - oldTick
	if age <= interval {
		return
	}
	newIntervalStartTick := newTick - age%interval
	if !m.lastTick.CompareAndSet(oldTick, newIntervalStartTick) {
		return
	}
	for i := age / interval; i > 0; i-- {
		m.m1.Tick()
		m.m5.Tick()
		m.m15.Tick()
	}
}

// Count returns the number of events marked.
func (m *Meter) Count() int64 { return m.count.Get() }

// MeanRate returns the mean rate since the meter was created. It is zero
// before the first event and while no clock time has elapsed.
func (m *Meter) MeanRate() float64 {
	count := m.Count()
	if count == 0 {
		return 0
	}
	elapsed := m.clock.Tick() - m.startTime
	if elapsed <= 0 {
		return 0
	}
	return float64(count) / float64(elapsed) * float64(time.Second)
}

// OneMinuteRate returns the one-minute moving average rate.
func (m *Meter) OneMinuteRate() float64 {
	m.tickIfNecessary()
	return m.m1.Rate(time.Second)
}

// FiveMinuteRate returns the five-minute moving average rate.
func (m *Meter) FiveMinuteRate() float64 {
	m.tickIfNecessary()
	return m.m5.Rate(time.Second)
}

// FifteenMinuteRate returns the fifteen-minute moving average rate.
func (m *Meter) FifteenMinuteRate() float64 {
	m.tickIfNecessary()
	return m.m15.Rate(time.Second)
}

// Kind implements Metric.
func (*Meter) Kind() Kind { return KindMeter }

func (*Meter) metric() {}

func (x *Meter) unwrap() *Meter { return x }
