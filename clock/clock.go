// Package clock provides the time source used by every time-sensitive metric.
//
// Metrics never read the wall clock directly. They are handed a Clock at
// construction, which makes decay and rate math deterministic under test: wrap
// a github.com/benbjohnson/clock Mock with New and advance it by hand.
package clock

import (
	"time"

	bclock "github.com/benbjohnson/clock"
)

// Clock is a source of time for metrics.
type Clock interface {
	// Tick returns the current value of a monotonic nanosecond counter.
	// Only differences between two ticks are meaningful.
	Tick() int64

	// Time returns the current wall-clock time. Reporters use it to stamp
	// the values they emit.
	Time() time.Time
}

// Default is the process-wide clock used when no explicit clock is given. It
// is built once and never replaced; components receive it as an explicit
// dependency rather than reading it from inside their algorithms.
var Default Clock = New(bclock.New())

// Source adapts a benbjohnson/clock Clock, real or mock, to Clock.
type Source struct {
	c     bclock.Clock
	start time.Time
	epoch int64
}

// New returns a Clock reading time from c. Ticks are anchored at the Unix
// time of construction and then advance by the monotonic elapsed time, so
// wall-clock adjustments never make them step backwards.
func New(c bclock.Clock) *Source {
	start := c.Now()
	return &Source{
		c:     c,
		start: start,
		epoch: start.UnixNano(),
	}
}

// Tick implements Clock.
func (s *Source) Tick() int64 {
	return s.epoch + int64(s.c.Since(s.start))
}

// Time implements Clock.
func (s *Source) Time() time.Time {
	return s.c.Now()
}

// Func is an adapter to allow the use of an ordinary function as the tick
// source of a Clock. Time is derived from the tick as Unix nanoseconds.
type Func func() int64

// Tick implements Clock.
func (f Func) Tick() int64 { return f() }

// Time implements Clock.
func (f Func) Time() time.Time { return time.Unix(0, f()) }
