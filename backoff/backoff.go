// Package backoff provides jittered exponential delays for retrying a failed
// operation, such as reconnecting to a metrics backend.
package backoff

import (
	"context"
	"math/rand/v2"
	"time"

	bclock "github.com/benbjohnson/clock"
	"go.uber.org/atomic"
)

const (
	DefaultInterval    = time.Second
	DefaultMaxInterval = time.Minute
)

// ExponentialBackoff provides jittered exponential durations for the purpose
// of avoiding flooding a backend with reconnects. It is safe for concurrent
// use.
type ExponentialBackoff struct {
	interval time.Duration
	max      time.Duration
	clock    bclock.Clock

	currentInterval atomic.Duration
}

// Option sets an optional parameter for backoffs.
type Option func(*ExponentialBackoff)

// WithInterval sets the base interval the first backoff doubles from.
func WithInterval(d time.Duration) Option {
	return func(b *ExponentialBackoff) { b.interval = d }
}

// WithMax caps every backoff.
func WithMax(d time.Duration) Option {
	return func(b *ExponentialBackoff) { b.max = d }
}

// WithClock sets the clock Wait sleeps on. The default is the real clock.
func WithClock(c bclock.Clock) Option {
	return func(b *ExponentialBackoff) { b.clock = c }
}

// New creates an ExponentialBackoff with the default values.
func New(options ...Option) *ExponentialBackoff {
	b := &ExponentialBackoff{
		interval: DefaultInterval,
		max:      DefaultMaxInterval,
		clock:    bclock.New(),
	}
	for _, option := range options {
		option(b)
	}
	b.Reset()
	return b
}

// Reset should be called after an attempt succeeds.
func (b *ExponentialBackoff) Reset() {
	b.currentInterval.Store(b.interval)
}

// Wait increases the backoff and blocks until the duration is over or ctx is
// done, in which case it returns the context's error.
func (b *ExponentialBackoff) Wait(ctx context.Context) error {
	timer := b.clock.Timer(b.NextBackoff())
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// After increases the backoff and returns a channel that fires once it is
// over.
func (b *ExponentialBackoff) After() <-chan time.Time {
	return b.clock.After(b.NextBackoff())
}

// NextBackoff updates the time interval and returns the updated value.
func (b *ExponentialBackoff) NextBackoff() time.Duration {
	d := b.next()
	if d > b.max {
		d = b.max
	}
	b.currentInterval.Store(d)
	return d
}

// next provides the exponential jittered backoff value. See
// https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
// for rationale.
func (b *ExponentialBackoff) next() time.Duration {
	d := float64(b.currentInterval.Load() * 2)
	jitter := rand.Float64() + 0.5
	return time.Duration(d * jitter)
}
