package reporting

import (
	"context"
	"time"

	bclock "github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/kitmetrics/metrics"
)

// Scheduled runs a Reporter against a registry at a fixed interval.
type Scheduled struct {
	registry *metrics.Registry
	reporter Reporter
	interval time.Duration

	filter metrics.Filter
	clock  bclock.Clock
	logger log.Logger
}

// ScheduledOption sets an optional parameter for scheduled reporters.
type ScheduledOption func(*Scheduled)

// WithFilter restricts reports to the metrics f matches.
func WithFilter(f metrics.Filter) ScheduledOption {
	return func(s *Scheduled) { s.filter = f }
}

// WithLogger sets the logger report failures are written to. The default is
// a no-op logger.
func WithLogger(logger log.Logger) ScheduledOption {
	return func(s *Scheduled) { s.logger = logger }
}

// WithTickerClock sets the clock that drives the schedule and stamps each
// sample. The default is the real clock.
func WithTickerClock(c bclock.Clock) ScheduledOption {
	return func(s *Scheduled) { s.clock = c }
}

// NewScheduled returns a scheduled reporter. Call Run to start it.
func NewScheduled(r *metrics.Registry, reporter Reporter, interval time.Duration, options ...ScheduledOption) *Scheduled {
	s := &Scheduled{
		registry: r,
		reporter: reporter,
		interval: interval,
		filter:   metrics.All,
		clock:    bclock.New(),
		logger:   log.NewNopLogger(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Run reports once per interval until ctx is done, and then returns the
// context's error. A failing or panicking report is logged and skipped; it
// is not retried and does not stop the schedule.
func (s *Scheduled) Run(ctx context.Context) error {
	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.ReportOnce(ctx); err != nil {
				level.Error(s.logger).Log("msg", "report failed", "err", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ReportOnce collects and reports one sample immediately. Use it to flush
// the final values on shutdown. A panic in the reporter is returned as an
// error.
func (s *Scheduled) ReportOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("reporter panic: %v", r)
		}
	}()
	return s.reporter.Report(ctx, Collect(s.registry, s.filter, s.clock.Now()))
}
