// Package reporting reads point-in-time samples from a metrics.Registry and
// writes them out: as human-readable text, JSON documents or go-kit log
// events, on demand or on a schedule.
package reporting

import (
	"context"
	"slices"
	"time"

	"github.com/kitmetrics/metrics"
)

// Reporter writes one Sample somewhere.
type Reporter interface {
	Report(ctx context.Context, s Sample) error
}

// ReporterFunc is an adapter to allow the use of an ordinary function as a
// Reporter.
type ReporterFunc func(ctx context.Context, s Sample) error

// Report implements Reporter.
func (f ReporterFunc) Report(ctx context.Context, s Sample) error { return f(ctx, s) }

// Sample is the set of metrics a registry held at one moment, split by kind.
// The maps are copies; the metrics in them are live.
type Sample struct {
	Time       time.Time
	Gauges     map[metrics.Name]metrics.Gauge
	Counters   map[metrics.Name]*metrics.Counter
	Histograms map[metrics.Name]*metrics.Histogram
	Meters     map[metrics.Name]*metrics.Meter
	Timers     map[metrics.Name]*metrics.Timer
}

// Collect samples the metrics of r that f matches. A nil filter matches all.
func Collect(r *metrics.Registry, f metrics.Filter, now time.Time) Sample {
	return Sample{
		Time:       now,
		Gauges:     r.Gauges(f),
		Counters:   r.Counters(f),
		Histograms: r.Histograms(f),
		Meters:     r.Meters(f),
		Timers:     r.Timers(f),
	}
}

// Len returns the number of metrics in the sample.
func (s Sample) Len() int {
	return len(s.Gauges) + len(s.Counters) + len(s.Histograms) + len(s.Meters) + len(s.Timers)
}

// Sorted returns the names of m in metrics.Compare order.
func Sorted[M any](m map[metrics.Name]M) []metrics.Name {
	names := make([]metrics.Name, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.SortFunc(names, metrics.Compare)
	return names
}
