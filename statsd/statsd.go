// Package statsd reports registry samples in the statsd line protocol.
//
// Counts are sent as statsd counters carrying the change since the previous
// report, so the server's own aggregation sums to the registry's count.
// Everything the registry has already summarized (gauge readings, rates,
// snapshot quantiles) is sent as an absolute gauge:
//
//	prefix.http.latency.p99:12.5|g
//	prefix.http.requests.count:42|c
//
// Tagged names get a DogStatsD tag suffix, "|#k:v,k2:v2", sorted by key.
// Lines are batched into packets of at most 1400 bytes.
package statsd

import (
	"bytes"
	"context"
	"io"
	"maps"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/kitmetrics/metrics"
	"github.com/kitmetrics/metrics/reporting"
	"github.com/kitmetrics/metrics/util/conn"
)

const maxBufferSize = 1400 // bytes

// ErrNotConnected is returned by Writer.Write while there is no connection.
var ErrNotConnected = errors.New("not connected to statsd")

// Reporter writes samples to w, one Write per packet.
type Reporter struct {
	w      io.Writer
	prefix string
	units  reporting.Units

	mtx  sync.Mutex
	last map[metrics.Name]int64 // counts sent so far
}

// Option sets an optional parameter for reporters.
type Option func(*Reporter)

// WithPrefix prepends prefix to every key.
func WithPrefix(prefix string) Option {
	return func(r *Reporter) { r.prefix = prefix }
}

// WithUnits sets the units rates and durations are converted to. The
// default is reporting.DefaultUnits.
func WithUnits(u reporting.Units) Option {
	return func(r *Reporter) { r.units = u }
}

// New returns a Reporter writing packets to w. Use a Writer to send them
// over the network.
func New(w io.Writer, options ...Option) *Reporter {
	r := &Reporter{
		w:     w,
		units: reporting.DefaultUnits,
		last:  map[metrics.Name]int64{},
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Report implements reporting.Reporter. Gauges whose value is not a number
// are skipped, and unchanged counts are not sent. A failed packet is dropped
// and its error returned after the remaining packets are written.
func (r *Reporter) Report(_ context.Context, s reporting.Sample) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	var (
		buf  bytes.Buffer
		err  error
		seen = make(map[metrics.Name]int64, s.Len())
	)
	line := func(name metrics.Name, field, value, typ string) {
		l := r.key(name, field) + ":" + value + "|" + typ + tagSuffix(name) + "\n"
		if buf.Len() > 0 && buf.Len()+len(l) > maxBufferSize {
			err = multierr.Append(err, r.flush(&buf))
		}
		buf.WriteString(l)
	}
	gauge := func(name metrics.Name, field string, v float64) {
		if v < 0 {
			// A signed gauge value is read as a relative change.
			line(name, field, "0", "g")
		}
		line(name, field, format(v), "g")
	}
	count := func(name metrics.Name, n int64) {
		seen[name] = n
		if delta := n - r.last[name]; delta != 0 {
			line(name, "count", strconv.FormatInt(delta, 10), "c")
		}
	}

	for _, name := range reporting.Sorted(s.Gauges) {
		if v, err := strconv.ParseFloat(s.Gauges[name].ValueAsString(), 64); err == nil {
			gauge(name, "", v)
		}
	}
	for _, name := range reporting.Sorted(s.Counters) {
		count(name, s.Counters[name].Count())
	}
	for _, name := range reporting.Sorted(s.Histograms) {
		h := s.Histograms[name]
		count(name, h.Count())
		reporting.Summarize(h.Snapshot(), 1).Each(func(field string, v float64) { gauge(name, field, v) })
	}
	for _, name := range reporting.Sorted(s.Meters) {
		m := s.Meters[name]
		count(name, m.Count())
		reporting.MeterRates(m, r.units).Each(func(field string, v float64) { gauge(name, field, v) })
	}
	for _, name := range reporting.Sorted(s.Timers) {
		t := s.Timers[name]
		count(name, t.Count())
		reporting.MeterRates(t, r.units).Each(func(field string, v float64) { gauge(name, field, v) })
		reporting.Summarize(t.Snapshot(), 1/float64(r.units.Duration)).Each(func(field string, v float64) { gauge(name, field, v) })
	}
	r.last = seen
	if buf.Len() > 0 {
		err = multierr.Append(err, r.flush(&buf))
	}
	return err
}

var _ reporting.Reporter = (*Reporter)(nil)

func (r *Reporter) flush(buf *bytes.Buffer) error {
	defer buf.Reset()
	_, err := r.w.Write(buf.Bytes())
	return errors.Wrap(err, "write statsd packet")
}

func (r *Reporter) key(name metrics.Name, field string) string {
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
	return sanitize(b.String())
}

func tagSuffix(name metrics.Name) string {
	if !name.HasTags() {
		return ""
	}
	tags := name.Tags()
	var b strings.Builder
	b.WriteString("|#")
	for i, k := range slices.Sorted(maps.Keys(tags)) {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(sanitize(k))
		b.WriteByte(':')
		b.WriteString(sanitize(tags[k]))
	}
	return b.String()
}

var replacer = strings.NewReplacer(":", "_", "|", "_", "@", "_", "#", "_", ",", "_", " ", "_", "\n", "_")

func sanitize(s string) string { return replacer.Replace(s) }

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Writer sends packets over a connection kept alive by a conn.Manager.
type Writer struct {
	mgr *conn.Manager
}

// Dial returns a Writer over network/address, e.g. "udp", "localhost:8125".
func Dial(network, address string, options ...conn.Option) *Writer {
	return NewWriter(net.Dial, network, address, options...)
}

// NewWriter is the same as Dial, but allows you to specify your own Dialer.
func NewWriter(dialer conn.Dialer, network, address string, options ...conn.Option) *Writer {
	return &Writer{mgr: conn.NewManager(dialer, network, address, options...)}
}

// Write sends p as one packet. A failed write invalidates the connection.
func (w *Writer) Write(p []byte) (int, error) {
	c := w.mgr.Take()
	if c == nil {
		return 0, ErrNotConnected
	}
	n, err := c.Write(p)
	w.mgr.Put(err)
	return n, errors.Wrap(err, "write to statsd")
}

// Close stops reconnecting and closes the connection.
func (w *Writer) Close() error { return w.mgr.Close() }
