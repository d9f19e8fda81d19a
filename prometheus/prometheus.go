// Package prometheus exposes a metrics.Registry to Prometheus as a
// client_golang Collector.
//
// Names are converted to Prometheus metric names by replacing every
// character outside [a-zA-Z0-9_:] with an underscore, and tags become
// constant labels. Metrics that share a converted name must agree on kind
// and tag keys, or gathering fails.
package prometheus

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kitmetrics/metrics"
	"github.com/kitmetrics/metrics/reporting"
	"github.com/kitmetrics/metrics/sample"
)

// Collector is an unchecked prometheus.Collector reading a Registry at
// scrape time.
//
// Counters become gauges, since they can decrease. Meters become a
// "_total" counter plus a "_rate" gauge per window, in events per second.
// Histograms become summaries, and timers become summaries in seconds with a
// "_seconds" suffix. Summary sums are estimated as mean times count.
type Collector struct {
	registry  *metrics.Registry
	namespace string
	filter    metrics.Filter
}

// Option sets an optional parameter for collectors.
type Option func(*Collector)

// WithNamespace prefixes every metric name with namespace and an underscore.
func WithNamespace(namespace string) Option {
	return func(c *Collector) { c.namespace = namespace }
}

// WithFilter restricts the collector to the metrics f matches.
func WithFilter(f metrics.Filter) Option {
	return func(c *Collector) { c.filter = f }
}

// NewCollector returns a Collector for r. Register it with a
// prometheus.Registerer to expose r.
func NewCollector(r *metrics.Registry, options ...Option) *Collector {
	c := &Collector{registry: r, filter: metrics.All}
	for _, option := range options {
		option(c)
	}
	return c
}

// Describe implements prometheus.Collector. It sends nothing, which makes
// the collector unchecked: the registry's metrics are not known up front.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

var quantiles = []float64{0.5, 0.75, 0.95, 0.98, 0.99, 0.999}

var windows = []struct {
	label string
	rate  func(reporting.Metered) float64
}{
	{"mean", reporting.Metered.MeanRate},
	{"1m", reporting.Metered.OneMinuteRate},
	{"5m", reporting.Metered.FiveMinuteRate},
	{"15m", reporting.Metered.FifteenMinuteRate},
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := reporting.Collect(c.registry, c.filter, time.Now())

	for name, g := range s.Gauges {
		v, err := strconv.ParseFloat(g.ValueAsString(), 64)
		if err != nil {
			continue
		}
		c.constMetric(ch, c.desc(name, "", "gauge", nil), prometheus.GaugeValue, v)
	}
	for name, counter := range s.Counters {
		c.constMetric(ch, c.desc(name, "", "counter", nil), prometheus.GaugeValue, float64(counter.Count()))
	}
	for name, h := range s.Histograms {
		c.summary(ch, c.desc(name, "", "histogram", nil), h.Count(), h.Snapshot(), 1)
	}
	for name, m := range s.Meters {
		c.metered(ch, name, "meter", m)
	}
	for name, t := range s.Timers {
		c.metered(ch, name, "timer", t)
		c.summary(ch, c.desc(name, "_seconds", "timer durations in seconds", nil), t.Count(), t.Snapshot(), 1/float64(time.Second))
	}
}

func (c *Collector) metered(ch chan<- prometheus.Metric, name metrics.Name, kind string, m reporting.Metered) {
	c.constMetric(ch, c.desc(name, "_total", kind+" event count", nil), prometheus.CounterValue, float64(m.Count()))
	desc := c.desc(name, "_rate", kind+" events per second", []string{"window"})
	for _, w := range windows {
		c.constMetric(ch, desc, prometheus.GaugeValue, w.rate(m), w.label)
	}
}

func (c *Collector) constMetric(ch chan<- prometheus.Metric, desc *prometheus.Desc, t prometheus.ValueType, v float64, labelValues ...string) {
	m, err := prometheus.NewConstMetric(desc, t, v, labelValues...)
	if err != nil {
		m = prometheus.NewInvalidMetric(desc, err)
	}
	ch <- m
}

func (c *Collector) summary(ch chan<- prometheus.Metric, desc *prometheus.Desc, count int64, s sample.Snapshot, factor float64) {
	qs := make(map[float64]float64, len(quantiles))
	for _, q := range quantiles {
		v, err := s.Value(q)
		if err != nil {
			ch <- prometheus.NewInvalidMetric(desc, err)
			return
		}
		qs[q] = v * factor
	}
	sum := s.Mean() * factor * float64(count)
	m, err := prometheus.NewConstSummary(desc, uint64(count), sum, qs)
	if err != nil {
		m = prometheus.NewInvalidMetric(desc, err)
	}
	ch <- m
}

func (c *Collector) desc(name metrics.Name, suffix, help string, variableLabels []string) *prometheus.Desc {
	labels := prometheus.Labels{}
	for k, v := range name.Tags() {
		labels[sanitize(k)] = v
	}
	fqName := prometheus.BuildFQName(c.namespace, "", sanitize(name.Key())+suffix)
	return prometheus.NewDesc(fqName, help+" "+name.Key(), variableLabels, labels)
}

var _ prometheus.Collector = (*Collector)(nil)

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == ':':
			return r
		}
		return '_'
	}, s)
}
