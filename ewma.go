package metrics

import (
	"math"
	"time"

	"go.uber.org/atomic"
)

// TickInterval is the decay step shared by every EWMA built by this package
// and by Meter.
const TickInterval = 5 * time.Second

var (
	m1Alpha  = alpha(TickInterval, time.Minute)
	m5Alpha  = alpha(TickInterval, 5*time.Minute)
	m15Alpha = alpha(TickInterval, 15*time.Minute)
)

func alpha(interval, window time.Duration) float64 {
	return 1 - math.Exp(-interval.Seconds()/window.Seconds())
}

// EWMA is an exponentially-weighted moving average of an event rate, decayed
// once per tick interval.
//
// Update may be called from any goroutine. Tick must be driven by a single
// authority; Meter guarantees that with a compare-and-swap on its last tick.
type EWMA struct {
	alpha    float64
	interval int64 // nanoseconds

	uncounted   AtomicCounter
	rate        atomic.Float64 // events per nanosecond
	initialized atomic.Bool
}

// NewEWMA returns an EWMA with the given smoothing constant, ticked every
// interval.
func NewEWMA(alpha float64, interval time.Duration) *EWMA {
	return &EWMA{alpha: alpha, interval: int64(interval)}
}

// NewOneMinuteEWMA returns an EWMA equivalent to the one-minute load average
// of the top Unix command, ticked every TickInterval.
func NewOneMinuteEWMA() *EWMA { return NewEWMA(m1Alpha, TickInterval) }

// NewFiveMinuteEWMA returns an EWMA equivalent to the five-minute load
// average.
func NewFiveMinuteEWMA() *EWMA { return NewEWMA(m5Alpha, TickInterval) }

// NewFifteenMinuteEWMA returns an EWMA equivalent to the fifteen-minute load
// average.
func NewFifteenMinuteEWMA() *EWMA { return NewEWMA(m15Alpha, TickInterval) }

// Update records n events. It never ticks.
func (e *EWMA) Update(n int64) {
	e.uncounted.AddAndGet(n)
}

// Tick folds the events recorded since the previous tick into the average.
// The first tick seeds the average with the instant rate.
func (e *EWMA) Tick() {
	count := e.uncounted.GetAndReset()
	instant := float64(count) / float64(e.interval)
	if e.initialized.Load() {
		rate := e.rate.Load()
		e.rate.Store(rate + e.alpha*(instant-rate))
		return
	}
	e.rate.Store(instant)
	e.initialized.Store(true)
}

// Rate returns the average number of events per unit.
func (e *EWMA) Rate(unit time.Duration) float64 {
	return e.rate.Load() * float64(unit)
}
