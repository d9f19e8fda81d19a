package metrics

import (
	"fmt"
	"time"

	"go.uber.org/atomic"

	"github.com/kitmetrics/metrics/clock"
)

// Gauge is an instantaneous reading of some value. The registry stores
// gauges of every value type behind this interface.
type Gauge interface {
	Metric
	// ValueAsString renders the current value for reporting.
	ValueAsString() string
}

// ValueGauge is a Gauge with a typed value.
type ValueGauge[T any] interface {
	Gauge
	Value() T
}

// FuncGauge is a Gauge that calls its function on every read.
//
// An evaluator should not panic; if it does, the panic reaches the caller of
// Value.
type FuncGauge[T any] struct {
	f func() T
}

// NewGauge returns a gauge reading f.
func NewGauge[T any](f func() T) *FuncGauge[T] {
	return &FuncGauge[T]{f: f}
}

// Value returns the current value.
func (g *FuncGauge[T]) Value() T { return g.f() }

// ValueAsString implements Gauge.
func (g *FuncGauge[T]) ValueAsString() string { return fmt.Sprint(g.Value()) }

// Kind implements Metric.
func (*FuncGauge[T]) Kind() Kind { return KindGauge }

func (*FuncGauge[T]) metric() {}

// DerivativeGauge is a gauge whose value is a transform of another gauge's.
type DerivativeGauge[F, T any] struct {
	base      ValueGauge[F]
	transform func(F) T
}

// NewDerivativeGauge returns a gauge reporting transform(base.Value()).
func NewDerivativeGauge[F, T any](base ValueGauge[F], transform func(F) T) *DerivativeGauge[F, T] {
	return &DerivativeGauge[F, T]{base: base, transform: transform}
}

// Value returns the transformed value of the base gauge.
func (g *DerivativeGauge[F, T]) Value() T { return g.transform(g.base.Value()) }

// ValueAsString implements Gauge.
func (g *DerivativeGauge[F, T]) ValueAsString() string { return fmt.Sprint(g.Value()) }

// Kind implements Metric.
func (*DerivativeGauge[F, T]) Kind() Kind { return KindGauge }

func (*DerivativeGauge[F, T]) metric() {}

// CachedGauge is a gauge that evaluates its function at most once per
// timeout window and serves the cached value in between. It suits values
// that are expensive to compute.
type CachedGauge[T any] struct {
	f        func() T
	clock    clock.Clock
	timeout  int64
	reloadAt AtomicCounter
	value    atomic.Pointer[T]
}

// NewCachedGauge returns a gauge caching f's result for timeout, measured on
// c.
func NewCachedGauge[T any](c clock.Clock, timeout time.Duration, f func() T) *CachedGauge[T] {
	return &CachedGauge[T]{f: f, clock: c, timeout: int64(timeout)}
}

// Value returns the cached value, recomputing it first if the window has
// expired. Under contention exactly one caller recomputes; the others return
// the value cached so far, which is the zero value until the first
// computation completes.
func (g *CachedGauge[T]) Value() T {
	if g.shouldLoad() {
		v := g.f()
		g.value.Store(&v)
		return v
	}
	if p := g.value.Load(); p != nil {
		return *p
	}
	var zero T
	return zero
}

func (g *CachedGauge[T]) shouldLoad() bool {
	for {
		now := g.clock.Tick()
		current := g.reloadAt.Get()
		if current > now {
			return false
		}
		if g.reloadAt.CompareAndSet(current, now+g.timeout) {
			return true
		}
	}
}

// ValueAsString implements Gauge.
func (g *CachedGauge[T]) ValueAsString() string { return fmt.Sprint(g.Value()) }

// Kind implements Metric.
func (*CachedGauge[T]) Kind() Kind { return KindGauge }

func (*CachedGauge[T]) metric() {}
