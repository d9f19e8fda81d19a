package metrics_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	bclock "github.com/benbjohnson/clock"

	"github.com/kitmetrics/metrics"
	"github.com/kitmetrics/metrics/clock"
)

type recordingListener struct {
	metrics.ListenerBase
	mtx    sync.Mutex
	events []string
}

func (l *recordingListener) record(event string, name metrics.Name) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.events = append(l.events, event+" "+name.String())
}

func (l *recordingListener) OnGaugeAdded(n metrics.Name, _ metrics.Gauge) { l.record("+gauge", n) }
func (l *recordingListener) OnGaugeRemoved(n metrics.Name)                { l.record("-gauge", n) }
func (l *recordingListener) OnCounterAdded(n metrics.Name, _ *metrics.Counter) {
	l.record("+counter", n)
}
func (l *recordingListener) OnCounterRemoved(n metrics.Name) { l.record("-counter", n) }
func (l *recordingListener) OnMeterAdded(n metrics.Name, _ *metrics.Meter) {
	l.record("+meter", n)
}
func (l *recordingListener) OnTimerAdded(n metrics.Name, _ *metrics.Timer) {
	l.record("+timer", n)
}
func (l *recordingListener) OnHistogramAdded(n metrics.Name, _ *metrics.Histogram) {
	l.record("+histogram", n)
}

func (l *recordingListener) Events() []string {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return append([]string(nil), l.events...)
}

func newTestRegistry() *metrics.Registry {
	return metrics.NewRegistry(metrics.WithClock(clock.New(bclock.NewMock())))
}

func TestRegistryGetOrCreateIsAtomic(t *testing.T) {
	r := newTestRegistry()
	l := &recordingListener{}
	r.AddListener(l)

	const n = 64
	var (
		wg       sync.WaitGroup
		counters [n]*metrics.Counter
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counters[i] = r.Counter(metrics.Build("requests"))
			counters[i].Inc(1)
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if counters[i] != counters[0] {
			t.Fatalf("call %d returned a different counter", i)
		}
	}
	if want, have := int64(n), counters[0].Count(); want != have {
		t.Errorf("want %d, have %d", want, have)
	}
	if want, have := []string{"+counter requests"}, l.Events(); !equalStrings(want, have) {
		t.Errorf("want %v, have %v", want, have)
	}
}

func TestRegistryRegisterRejectsDuplicates(t *testing.T) {
	r := newTestRegistry()
	name := metrics.Build("thing")
	first := metrics.NewCounter()
	if err := r.Register(name, first); err != nil {
		t.Fatal(err)
	}
	err := r.Register(name, metrics.NewCounter())
	if !errors.Is(err, metrics.ErrDuplicateName) {
		t.Fatalf("want ErrDuplicateName, have %v", err)
	}
	if r.Counter(name) != first {
		t.Errorf("duplicate register replaced the original")
	}
	if err := r.Register(metrics.Build("nil"), nil); !errors.Is(err, metrics.ErrInvalidArgument) {
		t.Errorf("want ErrInvalidArgument, have %v", err)
	}
}

func TestRegistryKindMismatchPanics(t *testing.T) {
	r := newTestRegistry()
	name := metrics.Build("x")
	r.Meter(name)
	defer func() {
		err, _ := recover().(error)
		if !errors.Is(err, metrics.ErrKindMismatch) {
			t.Errorf("want ErrKindMismatch, have %v", err)
		}
	}()
	r.Counter(name)
}

func TestRegistryGaugeFunc(t *testing.T) {
	r := newTestRegistry()
	name := metrics.Build("queue", "depth")
	g := metrics.GaugeFunc(r, name, func() int { return 3 })
	again := metrics.GaugeFunc(r, name, func() int { return 99 })
	if want, have := 3, again.Value(); want != have {
		t.Errorf("want %d, have %d", want, have)
	}
	if g != again {
		t.Errorf("want the same gauge")
	}
	if want, have := 1, len(r.Gauges(nil)); want != have {
		t.Errorf("want %d gauge, have %d", want, have)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := newTestRegistry()
	l := &recordingListener{}
	r.AddListener(l)
	name := metrics.Build("c")
	r.Counter(name)
	if !r.Remove(name) {
		t.Errorf("want removal")
	}
	if r.Remove(name) {
		t.Errorf("want no second removal")
	}
	if want, have := []string{"+counter c", "-counter c"}, l.Events(); !equalStrings(want, have) {
		t.Errorf("want %v, have %v", want, have)
	}
}

func TestRegistryRemoveMatching(t *testing.T) {
	r := newTestRegistry()
	r.Counter(metrics.Build("http", "requests"))
	r.Counter(metrics.Build("http", "errors"))
	r.Meter(metrics.Build("db", "queries"))
	r.RemoveMatching(metrics.KeyPrefix("http."))
	names := r.Names()
	if want, have := 1, len(names); want != have {
		t.Fatalf("want %d, have %d", want, have)
	}
	if want, have := "db.queries", names[0].Key(); want != have {
		t.Errorf("want %q, have %q", want, have)
	}
}

func TestRegistryNamesAreSorted(t *testing.T) {
	r := newTestRegistry()
	tagged := metrics.Build("b").WithTags(map[string]string{"x": "1"})
	for _, name := range []metrics.Name{tagged, metrics.Build("c"), metrics.Build("a"), metrics.Build("b")} {
		r.Counter(name)
	}
	var have []string
	for _, name := range r.Names() {
		have = append(have, name.String())
	}
	if want := []string{"a", "b", "b{x=1}", "c"}; !equalStrings(want, have) {
		t.Errorf("want %v, have %v", want, have)
	}
}

func TestRegistryTypedGetters(t *testing.T) {
	r := newTestRegistry()
	r.Counter(metrics.Build("c"))
	r.Histogram(metrics.Build("h"))
	r.Meter(metrics.Build("m"))
	r.Timer(metrics.Build("t"))
	r.Timer(metrics.Build("t2"))
	metrics.GaugeFunc(r, metrics.Build("g"), func() float64 { return 1 })

	for _, tc := range []struct {
		kind string
		want int
		have int
	}{
		{"gauges", 1, len(r.Gauges(nil))},
		{"counters", 1, len(r.Counters(nil))},
		{"histograms", 1, len(r.Histograms(metrics.All))},
		{"meters", 1, len(r.Meters(nil))},
		{"timers", 2, len(r.Timers(nil))},
		{"timers t2", 1, len(r.Timers(metrics.KeyPrefix("t2")))},
		{"metrics", 6, len(r.Metrics())},
	} {
		if tc.want != tc.have {
			t.Errorf("%s: want %d, have %d", tc.kind, tc.want, tc.have)
		}
	}
}

func TestRegistryQueriesAreCopies(t *testing.T) {
	r := newTestRegistry()
	r.Counter(metrics.Build("a"))
	counters := r.Counters(nil)
	r.Counter(metrics.Build("b"))
	if want, have := 1, len(counters); want != have {
		t.Errorf("want %d, have %d", want, have)
	}
}

func TestRegistryListenerCatchUpAndRemoval(t *testing.T) {
	r := newTestRegistry()
	r.Counter(metrics.Build("before"))
	l := &recordingListener{}
	r.AddListener(l)
	if want, have := []string{"+counter before"}, l.Events(); !equalStrings(want, have) {
		t.Errorf("catch-up: want %v, have %v", want, have)
	}
	r.RemoveListener(l)
	r.Counter(metrics.Build("after"))
	if want, have := 1, len(l.Events()); want != have {
		t.Errorf("want %d events after removal, have %d", want, have)
	}
}

func TestRegistryListenersNotifiedInOrder(t *testing.T) {
	r := newTestRegistry()
	var (
		mtx   sync.Mutex
		order []int
	)
	for i := 0; i < 3; i++ {
		r.AddListener(&orderListener{id: i, mtx: &mtx, order: &order})
	}
	r.Meter(metrics.Build("m"))
	if want, have := "[0 1 2]", fmt.Sprint(order); want != have {
		t.Errorf("want %s, have %s", want, have)
	}
}

type orderListener struct {
	metrics.ListenerBase
	id    int
	mtx   *sync.Mutex
	order *[]int
}

func (l *orderListener) OnMeterAdded(metrics.Name, *metrics.Meter) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	*l.order = append(*l.order, l.id)
}

type closingGauge struct {
	*metrics.FuncGauge[int]
	closed bool
	err    error
}

func (g *closingGauge) Close() error {
	g.closed = true
	return g.err
}

func TestRegistryClose(t *testing.T) {
	r := newTestRegistry()
	l := &recordingListener{}
	r.AddListener(l)
	errClose := errors.New("handle leaked")
	ok := &closingGauge{FuncGauge: metrics.NewGauge(func() int { return 1 })}
	bad := &closingGauge{FuncGauge: metrics.NewGauge(func() int { return 2 }), err: errClose}
	if err := r.Register(metrics.Build("ok"), ok); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(metrics.Build("bad"), bad); err != nil {
		t.Fatal(err)
	}
	r.Counter(metrics.Build("c"))

	err := r.Close()
	if !errors.Is(err, errClose) {
		t.Errorf("want %v, have %v", errClose, err)
	}
	if !ok.closed || !bad.closed {
		t.Errorf("want every closer closed")
	}
	if want, have := 0, len(r.Names()); want != have {
		t.Errorf("want %d names, have %d", want, have)
	}
	if want, have := 6, len(l.Events()); want != have {
		t.Errorf("want %d events, have %d: %v", want, have, l.Events())
	}
}

type embeddedCounter struct{ *metrics.Counter }

func TestRegistryAcceptsEmbeddedMetrics(t *testing.T) {
	r := newTestRegistry()
	c := embeddedCounter{metrics.NewCounter()}
	if err := r.Register(metrics.Build("e"), c); err != nil {
		t.Fatal(err)
	}
	if r.Counter(metrics.Build("e")) != c.Counter {
		t.Errorf("want the embedded counter")
	}
}

func TestRegisterAll(t *testing.T) {
	source := newTestRegistry()
	source.Counter(metrics.Build("a"))
	source.Meter(metrics.Build("b"))

	r := newTestRegistry()
	if err := r.RegisterAll(metrics.Build("jvm"), source); err != nil {
		t.Fatal(err)
	}
	if want, have := 2, len(r.Names()); want != have {
		t.Fatalf("want %d, have %d", want, have)
	}
	if want, have := "jvm.a", r.Names()[0].Key(); want != have {
		t.Errorf("want %q, have %q", want, have)
	}
	err := r.RegisterAll(metrics.Build("jvm"), metrics.MetricSetFunc(func() map[metrics.Name]metrics.Metric {
		return map[metrics.Name]metrics.Metric{metrics.Build("a"): metrics.NewCounter()}
	}))
	if !errors.Is(err, metrics.ErrDuplicateName) {
		t.Errorf("want ErrDuplicateName, have %v", err)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
