package reporting

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/kitmetrics/metrics"
	"github.com/kitmetrics/metrics/sample"
)

// Console writes samples as human-readable text: a timestamped banner, then
// one block per kind with metrics sorted by name.
type Console struct {
	mtx  sync.Mutex
	w    io.Writer
	opts options
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer, options ...Option) *Console {
	return &Console{w: w, opts: newOptions(options)}
}

const width = 80

// Report implements Reporter.
func (c *Console) Report(_ context.Context, s Sample) error {
	var b strings.Builder
	banner := s.Time.UTC().Format(time.DateTime)
	fmt.Fprintf(&b, "%s %s\n\n", banner, strings.Repeat("=", width-len(banner)-1))

	u := c.opts.units
	if len(s.Gauges) > 0 {
		section(&b, "Gauges")
		for _, name := range Sorted(s.Gauges) {
			block(&b, name, func(tw io.Writer) {
				fmt.Fprintf(tw, "value\t = %s\n", s.Gauges[name].ValueAsString())
			})
		}
	}
	if len(s.Counters) > 0 {
		section(&b, "Counters")
		for _, name := range Sorted(s.Counters) {
			block(&b, name, func(tw io.Writer) {
				fmt.Fprintf(tw, "count\t = %d\n", s.Counters[name].Count())
			})
		}
	}
	if len(s.Histograms) > 0 {
		section(&b, "Histograms")
		for _, name := range Sorted(s.Histograms) {
			h := s.Histograms[name]
			snapshot := h.Snapshot()
			block(&b, name, func(tw io.Writer) {
				fmt.Fprintf(tw, "count\t = %d\n", h.Count())
				writeSummary(tw, Summarize(snapshot, 1), "")
			})
			c.distribution(&b, name, snapshot)
		}
	}
	if len(s.Meters) > 0 {
		section(&b, "Meters")
		for _, name := range Sorted(s.Meters) {
			m := s.Meters[name]
			block(&b, name, func(tw io.Writer) {
				fmt.Fprintf(tw, "count\t = %d\n", m.Count())
				writeRates(tw, MeterRates(m, u), "events/"+u.RateUnit())
			})
		}
	}
	if len(s.Timers) > 0 {
		section(&b, "Timers")
		for _, name := range Sorted(s.Timers) {
			t := s.Timers[name]
			snapshot := t.Snapshot()
			block(&b, name, func(tw io.Writer) {
				fmt.Fprintf(tw, "count\t = %d\n", t.Count())
				writeRates(tw, MeterRates(t, u), "calls/"+u.RateUnit())
				writeSummary(tw, Summarize(snapshot, 1/float64(u.Duration)), u.DurationUnit())
			})
			c.distribution(&b, name, snapshot)
		}
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()
	_, err := io.WriteString(c.w, b.String())
	return err
}

func (c *Console) distribution(b *strings.Builder, name metrics.Name, s sample.Snapshot) {
	if c.opts.buckets <= 0 || s.Size() == 0 {
		return
	}
	PrintDistribution(b, name, s, c.opts.buckets)
	b.WriteByte('\n')
}

var _ Reporter = (*Console)(nil)

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "-- %s %s\n", title, strings.Repeat("-", width-len(title)-4))
}

func block(b *strings.Builder, name metrics.Name, body func(tw io.Writer)) {
	fmt.Fprintf(b, "%s\n", name)
	tw := tabwriter.NewWriter(b, 0, 2, 1, ' ', tabwriter.AlignRight)
	body(tw)
	tw.Flush()
	b.WriteByte('\n')
}

func writeRates(w io.Writer, r Rates, unit string) {
	fmt.Fprintf(w, "mean rate\t = %.2f %s\n", r.MeanRate, unit)
	fmt.Fprintf(w, "1-minute rate\t = %.2f %s\n", r.M1Rate, unit)
	fmt.Fprintf(w, "5-minute rate\t = %.2f %s\n", r.M5Rate, unit)
	fmt.Fprintf(w, "15-minute rate\t = %.2f %s\n", r.M15Rate, unit)
}

func writeSummary(w io.Writer, s Summary, unit string) {
	fmt.Fprintf(w, "min\t = %.2f%s\n", s.Min, unit)
	fmt.Fprintf(w, "max\t = %.2f%s\n", s.Max, unit)
	fmt.Fprintf(w, "mean\t = %.2f%s\n", s.Mean, unit)
	fmt.Fprintf(w, "stddev\t = %.2f%s\n", s.StdDev, unit)
	fmt.Fprintf(w, "median\t = %.2f%s\n", s.P50, unit)
	fmt.Fprintf(w, "75%%\t <= %.2f%s\n", s.P75, unit)
	fmt.Fprintf(w, "95%%\t <= %.2f%s\n", s.P95, unit)
	fmt.Fprintf(w, "98%%\t <= %.2f%s\n", s.P98, unit)
	fmt.Fprintf(w, "99%%\t <= %.2f%s\n", s.P99, unit)
	fmt.Fprintf(w, "99.9%%\t <= %.2f%s\n", s.P999, unit)
}
