package reporting

import (
	"context"

	"github.com/go-kit/log"
	"go.uber.org/multierr"
)

// Log writes one event per metric to a go-kit logger. Each event carries the
// metric's kind and name followed by its values.
type Log struct {
	logger log.Logger
	opts   options
}

// NewLog returns a Log reporter writing to logger.
func NewLog(logger log.Logger, options ...Option) *Log {
	return &Log{logger: logger, opts: newOptions(options)}
}

// Report implements Reporter.
func (l *Log) Report(_ context.Context, s Sample) error {
	var (
		u   = l.opts.units
		err error
	)
	emit := func(keyvals ...interface{}) {
		err = multierr.Append(err, l.logger.Log(keyvals...))
	}
	for _, name := range Sorted(s.Gauges) {
		emit("type", "gauge", "name", name, "value", s.Gauges[name].ValueAsString())
	}
	for _, name := range Sorted(s.Counters) {
		emit("type", "counter", "name", name, "count", s.Counters[name].Count())
	}
	for _, name := range Sorted(s.Histograms) {
		h := s.Histograms[name]
		emit(append([]interface{}{"type", "histogram", "name", name, "count", h.Count()},
			summaryKeyvals(Summarize(h.Snapshot(), 1))...)...)
	}
	for _, name := range Sorted(s.Meters) {
		m := s.Meters[name]
		emit(append([]interface{}{"type", "meter", "name", name, "count", m.Count()},
			ratesKeyvals(MeterRates(m, u), u)...)...)
	}
	for _, name := range Sorted(s.Timers) {
		t := s.Timers[name]
		keyvals := []interface{}{"type", "timer", "name", name, "count", t.Count()}
		keyvals = append(keyvals, ratesKeyvals(MeterRates(t, u), u)...)
		keyvals = append(keyvals, summaryKeyvals(Summarize(t.Snapshot(), 1/float64(u.Duration)))...)
		keyvals = append(keyvals, "duration_unit", u.DurationUnit())
		emit(keyvals...)
	}
	return err
}

var _ Reporter = (*Log)(nil)

func ratesKeyvals(r Rates, u Units) []interface{} {
	var keyvals []interface{}
	r.Each(func(field string, value float64) { keyvals = append(keyvals, field, value) })
	return append(keyvals, "rate_unit", "events/"+u.RateUnit())
}

func summaryKeyvals(s Summary) []interface{} {
	var keyvals []interface{}
	s.Each(func(field string, value float64) { keyvals = append(keyvals, field, value) })
	return keyvals
}
