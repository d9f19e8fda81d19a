package metrics

import (
	"io"
	"slices"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/kitmetrics/metrics/clock"
	"github.com/kitmetrics/metrics/sample"
)

// Registry holds named metrics of every kind. It is safe for concurrent use:
// writers never block on readers, and every query returns a point-in-time
// copy rather than a live view.
type Registry struct {
	metrics sync.Map // Name -> Metric

	listenersMtx sync.Mutex // serializes listener list writers
	listeners    atomic.Pointer[[]Listener]

	clock        clock.Clock
	newReservoir func() sample.Reservoir
	logger       log.Logger
}

// Option sets an optional parameter for registries.
type Option func(*Registry)

// WithClock sets the clock given to meters and timers created by the
// registry. The default is clock.Default.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithReservoir sets the reservoir factory for histograms and timers created
// by the registry. The default is an exponentially-decaying reservoir on the
// registry's clock.
func WithReservoir(newReservoir func() sample.Reservoir) Option {
	return func(r *Registry) { r.newReservoir = newReservoir }
}

// WithLogger sets the logger for registry events, logged at debug level. The
// default is a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry returns an empty Registry.
func NewRegistry(options ...Option) *Registry {
	r := &Registry{
		clock:  clock.Default,
		logger: log.NewNopLogger(),
	}
	for _, option := range options {
		option(r)
	}
	if r.newReservoir == nil {
		c := r.clock
		r.newReservoir = func() sample.Reservoir { return sample.NewExpDecay(c) }
	}
	r.listeners.Store(&[]Listener{})
	return r
}

// Register adds m under name. If name is taken, it returns ErrDuplicateName
// and leaves the registry unchanged. Register panics if m does not match its
// own Kind.
func (r *Registry) Register(name Name, m Metric) error {
	if m == nil {
		return errors.Wrapf(ErrInvalidArgument, "nil metric for %s", name)
	}
	checkKind(m)
	if _, loaded := r.metrics.LoadOrStore(name, m); loaded {
		return errors.Wrapf(ErrDuplicateName, "%s", name)
	}
	r.added(name, m)
	return nil
}

// RegisterAll registers every metric of set under Join(prefix, name), in
// name order. It stops at the first failure and returns it; metrics
// registered before the failure stay registered.
func (r *Registry) RegisterAll(prefix Name, set MetricSet) error {
	metrics := set.Metrics()
	names := make([]Name, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	slices.SortFunc(names, Compare)
	for _, name := range names {
		if err := r.Register(Join(prefix, name), metrics[name]); err != nil {
			return err
		}
	}
	return nil
}

// Counter returns the counter registered under name, creating it if needed.
func (r *Registry) Counter(name Name) *Counter {
	return getOrCreate(r, name, KindCounter, NewCounter)
}

// Histogram returns the histogram registered under name, creating it if
// needed.
func (r *Registry) Histogram(name Name) *Histogram {
	return getOrCreate(r, name, KindHistogram, func() *Histogram {
		return NewHistogram(r.newReservoir())
	})
}

// Meter returns the meter registered under name, creating it if needed.
func (r *Registry) Meter(name Name) *Meter {
	return getOrCreate(r, name, KindMeter, func() *Meter {
		return NewMeter(r.clock)
	})
}

// Timer returns the timer registered under name, creating it if needed.
func (r *Registry) Timer(name Name) *Timer {
	return getOrCreate(r, name, KindTimer, func() *Timer {
		return NewTimer(r.newReservoir(), r.clock)
	})
}

// GaugeFunc returns the gauge registered under name, creating a gauge
// reading f if needed. An existing gauge of another value type is a kind
// mismatch.
func GaugeFunc[T any](r *Registry, name Name, f func() T) ValueGauge[T] {
	if m, ok := r.metrics.Load(name); ok {
		return asGauge[T](name, m.(Metric))
	}
	g := NewGauge(f)
	m, loaded := r.metrics.LoadOrStore(name, Metric(g))
	if loaded {
		return asGauge[T](name, m.(Metric))
	}
	r.added(name, g)
	return g
}

func asGauge[T any](name Name, m Metric) ValueGauge[T] {
	if g, ok := m.(ValueGauge[T]); ok && m.Kind() == KindGauge {
		return g
	}
	panic(kindMismatch(name, m, KindGauge))
}

// getOrCreate loads name, or inserts the result of create if absent. Racing
// callers all get the instance that won the insert, and only the winner
// notifies listeners.
func getOrCreate[M Metric](r *Registry, name Name, kind Kind, create func() M) M {
	if m, ok := r.metrics.Load(name); ok {
		return as[M](name, m.(Metric), kind)
	}
	created := create()
	m, loaded := r.metrics.LoadOrStore(name, Metric(created))
	if loaded {
		return as[M](name, m.(Metric), kind)
	}
	r.added(name, created)
	return created
}

func as[M Metric](name Name, m Metric, kind Kind) M {
	if m.Kind() == kind {
		if v, ok := unwrapAs[M](m); ok {
			return v
		}
	}
	panic(kindMismatch(name, m, kind))
}

func kindMismatch(name Name, m Metric, want Kind) error {
	return errors.Wrapf(ErrKindMismatch, "%s is a %v, not a %v", name, m.Kind(), want)
}

// checkKind panics with ErrUnknownKind unless m is the shape its Kind claims.
func checkKind(m Metric) {
	var ok bool
	switch m.Kind() {
	case KindGauge:
		_, ok = m.(Gauge)
	case KindCounter:
		_, ok = unwrapAs[*Counter](m)
	case KindHistogram:
		_, ok = unwrapAs[*Histogram](m)
	case KindMeter:
		_, ok = unwrapAs[*Meter](m)
	case KindTimer:
		_, ok = unwrapAs[*Timer](m)
	}
	if !ok {
		unknownKind(m)
	}
}

// Remove deletes the metric registered under name, and reports whether there
// was one.
func (r *Registry) Remove(name Name) bool {
	m, ok := r.metrics.LoadAndDelete(name)
	if !ok {
		return false
	}
	r.removed(name, m.(Metric))
	return true
}

// RemoveMatching removes every metric f matches. The scan is weakly
// consistent: metrics added while it runs may or may not be visited.
func (r *Registry) RemoveMatching(f Filter) {
	f = orAll(f)
	r.metrics.Range(func(k, v any) bool {
		name, m := k.(Name), v.(Metric)
		if f(name, m) && r.metrics.CompareAndDelete(name, m) {
			r.removed(name, m)
		}
		return true
	})
}

// Names returns the names of all registered metrics, sorted by Compare.
func (r *Registry) Names() []Name {
	var names []Name
	r.metrics.Range(func(k, _ any) bool {
		names = append(names, k.(Name))
		return true
	})
	slices.SortFunc(names, Compare)
	return names
}

// Metrics returns a copy of every registered metric by name. It implements
// MetricSet.
func (r *Registry) Metrics() map[Name]Metric {
	return collect(r, All, func(m Metric) (Metric, bool) { return m, true })
}

// Gauges returns the gauges f matches. A nil filter matches all.
func (r *Registry) Gauges(f Filter) map[Name]Gauge {
	return collect(r, OfKind(KindGauge).And(orAll(f)), func(m Metric) (Gauge, bool) {
		g, ok := m.(Gauge)
		return g, ok
	})
}

// Counters returns the counters f matches. A nil filter matches all.
func (r *Registry) Counters(f Filter) map[Name]*Counter {
	return collect(r, OfKind(KindCounter).And(orAll(f)), unwrapAs[*Counter])
}

// Histograms returns the histograms f matches. A nil filter matches all.
func (r *Registry) Histograms(f Filter) map[Name]*Histogram {
	return collect(r, OfKind(KindHistogram).And(orAll(f)), unwrapAs[*Histogram])
}

// Meters returns the meters f matches. A nil filter matches all.
func (r *Registry) Meters(f Filter) map[Name]*Meter {
	return collect(r, OfKind(KindMeter).And(orAll(f)), unwrapAs[*Meter])
}

// Timers returns the timers f matches. A nil filter matches all.
func (r *Registry) Timers(f Filter) map[Name]*Timer {
	return collect(r, OfKind(KindTimer).And(orAll(f)), unwrapAs[*Timer])
}

func collect[M any](r *Registry, f Filter, convert func(Metric) (M, bool)) map[Name]M {
	out := map[Name]M{}
	r.metrics.Range(func(k, v any) bool {
		name, m := k.(Name), v.(Metric)
		if !f(name, m) {
			return true
		}
		if c, ok := convert(m); ok {
			out[name] = c
		}
		return true
	})
	return out
}

// AddListener adds l and immediately notifies it of every metric already
// registered. A metric registered concurrently with AddListener may be
// reported to l twice, but never missed.
func (r *Registry) AddListener(l Listener) {
	r.listenersMtx.Lock()
	current := *r.listeners.Load()
	next := make([]Listener, len(current), len(current)+1)
	copy(next, current)
	next = append(next, l)
	r.listeners.Store(&next)
	r.listenersMtx.Unlock()

	r.metrics.Range(func(k, v any) bool {
		notifyAdded(l, k.(Name), v.(Metric))
		return true
	})
}

// RemoveListener removes l. Listeners are compared with ==, so l must be
// the same comparable value that was added.
func (r *Registry) RemoveListener(l Listener) {
	r.listenersMtx.Lock()
	defer r.listenersMtx.Unlock()
	current := *r.listeners.Load()
	i := slices.Index(current, l)
	if i < 0 {
		return
	}
	next := slices.Delete(slices.Clone(current), i, i+1)
	r.listeners.Store(&next)
}

// Close removes every metric, notifying listeners, and closes each removed
// metric that implements io.Closer. Close errors are combined.
func (r *Registry) Close() error {
	var err error
	r.metrics.Range(func(k, v any) bool {
		name := k.(Name)
		v, ok := r.metrics.LoadAndDelete(name)
		if !ok {
			return true
		}
		m := v.(Metric)
		r.removed(name, m)
		if c, ok := m.(io.Closer); ok {
			err = multierr.Append(err, errors.Wrapf(c.Close(), "close %s", name))
		}
		return true
	})
	return err
}

func (r *Registry) added(name Name, m Metric) {
	level.Debug(r.logger).Log("msg", "metric added", "name", name, "kind", m.Kind())
	for _, l := range *r.listeners.Load() {
		notifyAdded(l, name, m)
	}
}

func (r *Registry) removed(name Name, m Metric) {
	level.Debug(r.logger).Log("msg", "metric removed", "name", name, "kind", m.Kind())
	for _, l := range *r.listeners.Load() {
		notifyRemoved(l, name, m)
	}
}
