// Package influx reports registry samples to InfluxDB as line-protocol
// points, one point per metric with one field per value.
package influx

import (
	"context"
	"maps"
	"strconv"

	influxdb "github.com/influxdata/influxdb1-client/v2"

	"github.com/kitmetrics/metrics"
	"github.com/kitmetrics/metrics/reporting"
)

// BatchPointsWriter writes a batch of points. An influxdb client.Client is a
// BatchPointsWriter.
type BatchPointsWriter interface {
	Write(influxdb.BatchPoints) error
}

// Reporter converts samples into batches of points.
type Reporter struct {
	writer BatchPointsWriter
	config influxdb.BatchPointsConfig
	tags   map[string]string
	units  reporting.Units
}

// Option sets an optional parameter for reporters.
type Option func(*Reporter)

// WithUnits sets the units rates and durations are converted to. The
// default is reporting.DefaultUnits.
func WithUnits(u reporting.Units) Option {
	return func(r *Reporter) { r.units = u }
}

// New returns a Reporter writing through w. Every point carries tags, merged
// with the tags of its metric's name; the name's tags win on conflict.
func New(tags map[string]string, conf influxdb.BatchPointsConfig, w BatchPointsWriter, options ...Option) *Reporter {
	r := &Reporter{writer: w, config: conf, tags: tags, units: reporting.DefaultUnits}
	for _, option := range options {
		option(r)
	}
	return r
}

// Report implements reporting.Reporter.
func (r *Reporter) Report(_ context.Context, s reporting.Sample) error {
	bp, err := influxdb.NewBatchPoints(r.config)
	if err != nil {
		return err
	}
	add := func(name metrics.Name, fields map[string]interface{}) error {
		p, err := influxdb.NewPoint(name.Key(), r.pointTags(name), fields, s.Time)
		if err != nil {
			return err
		}
		bp.AddPoint(p)
		return nil
	}

	for _, name := range reporting.Sorted(s.Gauges) {
		if err := add(name, map[string]interface{}{"value": gaugeValue(s.Gauges[name])}); err != nil {
			return err
		}
	}
	for _, name := range reporting.Sorted(s.Counters) {
		if err := add(name, map[string]interface{}{"count": s.Counters[name].Count()}); err != nil {
			return err
		}
	}
	for _, name := range reporting.Sorted(s.Histograms) {
		h := s.Histograms[name]
		fields := map[string]interface{}{"count": h.Count()}
		reporting.Summarize(h.Snapshot(), 1).Each(set(fields))
		if err := add(name, fields); err != nil {
			return err
		}
	}
	for _, name := range reporting.Sorted(s.Meters) {
		m := s.Meters[name]
		fields := map[string]interface{}{"count": m.Count()}
		reporting.MeterRates(m, r.units).Each(set(fields))
		if err := add(name, fields); err != nil {
			return err
		}
	}
	for _, name := range reporting.Sorted(s.Timers) {
		t := s.Timers[name]
		fields := map[string]interface{}{"count": t.Count()}
		reporting.MeterRates(t, r.units).Each(set(fields))
		reporting.Summarize(t.Snapshot(), 1/float64(r.units.Duration)).Each(set(fields))
		if err := add(name, fields); err != nil {
			return err
		}
	}
	return r.writer.Write(bp)
}

var _ reporting.Reporter = (*Reporter)(nil)

func (r *Reporter) pointTags(name metrics.Name) map[string]string {
	if !name.HasTags() {
		return r.tags
	}
	tags := maps.Clone(r.tags)
	if tags == nil {
		tags = map[string]string{}
	}
	maps.Copy(tags, name.Tags())
	return tags
}

func set(fields map[string]interface{}) func(string, float64) {
	return func(field string, v float64) { fields[field] = v }
}

func gaugeValue(g metrics.Gauge) interface{} {
	v := g.ValueAsString()
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
