package reporting

import (
	"fmt"
	"time"
)

// Units selects the units reporters convert rates and durations to. Rates
// are events per Rate; durations, recorded in nanoseconds, are reported in
// multiples of Duration.
type Units struct {
	Rate     time.Duration
	Duration time.Duration
}

// DefaultUnits reports events per second and durations in milliseconds.
var DefaultUnits = Units{Rate: time.Second, Duration: time.Millisecond}

// ConvertRate converts a per-second rate.
func (u Units) ConvertRate(perSecond float64) float64 {
	return perSecond * u.Rate.Seconds()
}

// ConvertDuration converts a duration in nanoseconds.
func (u Units) ConvertDuration(nanos float64) float64 {
	return nanos / float64(u.Duration)
}

// RateUnit names the rate unit, e.g. "second".
func (u Units) RateUnit() string {
	switch u.Rate {
	case time.Nanosecond:
		return "nanosecond"
	case time.Microsecond:
		return "microsecond"
	case time.Millisecond:
		return "millisecond"
	case time.Second:
		return "second"
	case time.Minute:
		return "minute"
	case time.Hour:
		return "hour"
	case 24 * time.Hour:
		return "day"
	default:
		return u.Rate.String()
	}
}

// DurationUnit abbreviates the duration unit, e.g. "ms".
func (u Units) DurationUnit() string {
	return abbreviate(u.Duration)
}

func abbreviate(d time.Duration) string {
	switch d {
	case time.Nanosecond:
		return "ns"
	case time.Microsecond:
		return "us"
	case time.Millisecond:
		return "ms"
	case time.Second:
		return "s"
	case time.Minute:
		return "m"
	case time.Hour:
		return "h"
	case 24 * time.Hour:
		return "d"
	default:
		return fmt.Sprintf("x%s", d)
	}
}

// Option sets a parameter of the reporters in this package.
type Option func(*options)

type options struct {
	units   Units
	buckets int
}

// WithUnits sets the units a reporter converts to. The default is
// DefaultUnits.
func WithUnits(u Units) Option {
	return func(o *options) { o.units = u }
}

// WithDistributions makes Console follow each histogram and timer with a bar
// chart of its sampled values in the given number of buckets.
func WithDistributions(buckets int) Option {
	return func(o *options) { o.buckets = buckets }
}

func newOptions(opts []Option) options {
	o := options{units: DefaultUnits}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
