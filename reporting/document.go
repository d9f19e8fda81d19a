package reporting

import (
	"github.com/kitmetrics/metrics"
	"github.com/kitmetrics/metrics/sample"
)

// Document is the serializable form of a Sample, keyed by kind and then by
// metric name. Rates and durations are converted to the Units it was built
// with. Apart from gauge values every field is a JSON number, so consumers
// can decode the other sections into map[string]map[string]float64.
type Document struct {
	Gauges     map[string]GaugeValue        `json:"gauges,omitempty"`
	Counters   map[string]CounterValue      `json:"counters,omitempty"`
	Histograms map[string]DistributionValue `json:"histograms,omitempty"`
	Meters     map[string]MeterValue        `json:"meters,omitempty"`
	Timers     map[string]TimerValue        `json:"timers,omitempty"`
}

// GaugeValue is a gauge reading.
type GaugeValue struct {
	Value string `json:"value"`
}

// CounterValue is a counter reading.
type CounterValue struct {
	Count int64 `json:"count"`
}

// DistributionValue summarizes a histogram.
type DistributionValue struct {
	Count int64 `json:"count"`
	Summary
}

// MeterValue is a meter's count and rates.
type MeterValue struct {
	Count int64 `json:"count"`
	Rates
}

// TimerValue is a timer's count, rates and duration distribution.
type TimerValue struct {
	Count int64 `json:"count"`
	Rates
	Summary
}

// Summary describes a snapshot.
type Summary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	P95    float64 `json:"p95"`
	P98    float64 `json:"p98"`
	P99    float64 `json:"p99"`
	P999   float64 `json:"p999"`
}

// Rates are a meter's mean and moving-average rates.
type Rates struct {
	MeanRate float64 `json:"mean_rate"`
	M1Rate   float64 `json:"m1_rate"`
	M5Rate   float64 `json:"m5_rate"`
	M15Rate  float64 `json:"m15_rate"`
}

// NewDocument converts s.
func NewDocument(s Sample, u Units) Document {
	var d Document
	if len(s.Gauges) > 0 {
		d.Gauges = make(map[string]GaugeValue, len(s.Gauges))
		for name, g := range s.Gauges {
			d.Gauges[name.String()] = GaugeValue{Value: g.ValueAsString()}
		}
	}
	if len(s.Counters) > 0 {
		d.Counters = make(map[string]CounterValue, len(s.Counters))
		for name, c := range s.Counters {
			d.Counters[name.String()] = CounterValue{Count: c.Count()}
		}
	}
	if len(s.Histograms) > 0 {
		d.Histograms = make(map[string]DistributionValue, len(s.Histograms))
		for name, h := range s.Histograms {
			d.Histograms[name.String()] = DistributionValue{Count: h.Count(), Summary: Summarize(h.Snapshot(), 1)}
		}
	}
	if len(s.Meters) > 0 {
		d.Meters = make(map[string]MeterValue, len(s.Meters))
		for name, m := range s.Meters {
			d.Meters[name.String()] = MeterValue{Count: m.Count(), Rates: MeterRates(m, u)}
		}
	}
	if len(s.Timers) > 0 {
		d.Timers = make(map[string]TimerValue, len(s.Timers))
		for name, t := range s.Timers {
			d.Timers[name.String()] = TimerValue{
				Count:   t.Count(),
				Rates:   MeterRates(t, u),
				Summary: Summarize(t.Snapshot(), 1/float64(u.Duration)),
			}
		}
	}
	return d
}

// Metered is implemented by meters and timers.
type Metered interface {
	Count() int64
	MeanRate() float64
	OneMinuteRate() float64
	FiveMinuteRate() float64
	FifteenMinuteRate() float64
}

var (
	_ Metered = (*metrics.Meter)(nil)
	_ Metered = (*metrics.Timer)(nil)
)

// MeterRates reads the rates of m, converted to u.
func MeterRates(m Metered, u Units) Rates {
	return Rates{
		MeanRate: u.ConvertRate(m.MeanRate()),
		M1Rate:   u.ConvertRate(m.OneMinuteRate()),
		M5Rate:   u.ConvertRate(m.FiveMinuteRate()),
		M15Rate:  u.ConvertRate(m.FifteenMinuteRate()),
	}
}

// Summarize describes s, multiplying every value by factor.
func Summarize(s sample.Snapshot, factor float64) Summary {
	return Summary{
		Min:    float64(s.Min()) * factor,
		Max:    float64(s.Max()) * factor,
		Mean:   s.Mean() * factor,
		StdDev: s.StdDev() * factor,
		P50:    s.Median() * factor,
		P75:    s.Percentile75th() * factor,
		P95:    s.Percentile95th() * factor,
		P98:    s.Percentile98th() * factor,
		P99:    s.Percentile99th() * factor,
		P999:   s.Percentile999th() * factor,
	}
}

// Each calls f with every field of s, in a fixed order.
func (s Summary) Each(f func(field string, value float64)) {
	f("min", s.Min)
	f("max", s.Max)
	f("mean", s.Mean)
	f("stddev", s.StdDev)
	f("p50", s.P50)
	f("p75", s.P75)
	f("p95", s.P95)
	f("p98", s.P98)
	f("p99", s.P99)
	f("p999", s.P999)
}

// Each calls f with every field of r, in a fixed order.
func (r Rates) Each(f func(field string, value float64)) {
	f("mean_rate", r.MeanRate)
	f("m1_rate", r.M1Rate)
	f("m5_rate", r.M5Rate)
	f("m15_rate", r.M15Rate)
}
