// Package graphite reports registry samples to Graphite over the plaintext
// protocol. Each metric becomes one series per field, e.g.
//
//	prefix.http.latency.p99 12.50 1700000000
//
// Tags are appended in Graphite's tagged-series form, ";k=v" sorted by key.
package graphite

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/kitmetrics/metrics"
	"github.com/kitmetrics/metrics/reporting"
)

// Reporter writes samples to a Sender.
type Reporter struct {
	sender Sender
	prefix string
	units  reporting.Units
}

// Option sets an optional parameter for reporters.
type Option func(*Reporter)

// WithPrefix prepends prefix to every path.
func WithPrefix(prefix string) Option {
	return func(r *Reporter) { r.prefix = prefix }
}

// WithUnits sets the units rates and durations are converted to. The
// default is reporting.DefaultUnits.
func WithUnits(u reporting.Units) Option {
	return func(r *Reporter) { r.units = u }
}

// NewReporter returns a Reporter writing to sender.
func NewReporter(sender Sender, options ...Option) *Reporter {
	r := &Reporter{sender: sender, units: reporting.DefaultUnits}
	for _, option := range options {
		option(r)
	}
	return r
}

// Report implements reporting.Reporter. Gauges whose value is not a number
// are skipped.
func (r *Reporter) Report(_ context.Context, s reporting.Sample) error {
	ts := s.Time.Unix()
	send := func(name metrics.Name, field string, value float64) {
		r.sender.Send(r.path(name, field), format(value), ts)
	}

	for _, name := range reporting.Sorted(s.Gauges) {
		v := s.Gauges[name].ValueAsString()
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			r.sender.Send(r.path(name, ""), v, ts)
		}
	}
	for _, name := range reporting.Sorted(s.Counters) {
		r.sender.Send(r.path(name, "count"), strconv.FormatInt(s.Counters[name].Count(), 10), ts)
	}
	for _, name := range reporting.Sorted(s.Histograms) {
		h := s.Histograms[name]
		r.sender.Send(r.path(name, "count"), strconv.FormatInt(h.Count(), 10), ts)
		reporting.Summarize(h.Snapshot(), 1).Each(func(field string, v float64) { send(name, field, v) })
	}
	for _, name := range reporting.Sorted(s.Meters) {
		m := s.Meters[name]
		r.sender.Send(r.path(name, "count"), strconv.FormatInt(m.Count(), 10), ts)
		reporting.MeterRates(m, r.units).Each(func(field string, v float64) { send(name, field, v) })
	}
	for _, name := range reporting.Sorted(s.Timers) {
		t := s.Timers[name]
		r.sender.Send(r.path(name, "count"), strconv.FormatInt(t.Count(), 10), ts)
		reporting.MeterRates(t, r.units).Each(func(field string, v float64) { send(name, field, v) })
		reporting.Summarize(t.Snapshot(), 1/float64(r.units.Duration)).Each(func(field string, v float64) { send(name, field, v) })
	}
	return r.sender.Flush()
}

var _ reporting.Reporter = (*Reporter)(nil)

func (r *Reporter) path(name metrics.Name, field string) string {
	var b strings.Builder
	for _, part := range []string{r.prefix, name.Key(), field} {
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(part)
	}
	tags := name.Tags()
	for _, k := range slices.Sorted(maps.Keys(tags)) {
		b.WriteByte(';')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(tags[k])
	}
	return b.String()
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
