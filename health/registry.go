package health

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ErrDuplicateCheck is returned by Register when a check with the same name
// is already registered.
var ErrDuplicateCheck = errors.New("a health check with this name already exists")

// Registry holds named health checks.
type Registry struct {
	mtx    sync.RWMutex
	checks map[string]*HealthCheck

	logger      log.Logger
	concurrency int
}

// Option sets an optional parameter for registries.
type Option func(*Registry)

// WithLogger sets the logger unhealthy results are reported to. The default
// is a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithConcurrency bounds how many checks RunAll executes at once. Zero or
// less, the default, runs them all at once.
func WithConcurrency(n int) Option {
	return func(r *Registry) { r.concurrency = n }
}

// NewRegistry returns an empty Registry.
func NewRegistry(options ...Option) *Registry {
	r := &Registry{
		checks: map[string]*HealthCheck{},
		logger: log.NewNopLogger(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Register adds h, failing with ErrDuplicateCheck if its name is taken.
func (r *Registry) Register(h *HealthCheck) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.checks[h.Name()]; ok {
		return errors.Wrapf(ErrDuplicateCheck, "%q", h.Name())
	}
	r.checks[h.Name()] = h
	return nil
}

// Unregister removes the check called name, and reports whether there was
// one.
func (r *Registry) Unregister(name string) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	_, ok := r.checks[name]
	delete(r.checks, name)
	return ok
}

// Names returns the sorted names of the registered checks.
func (r *Registry) Names() []string {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// RunAll executes every registered check concurrently and returns the
// results by name. The error combines one entry per unhealthy check, and is
// nil when all are healthy. Checks not yet started when ctx is done are
// reported unhealthy with the context's error.
func (r *Registry) RunAll(ctx context.Context) (map[string]Result, error) {
	r.mtx.RLock()
	checks := make([]*HealthCheck, 0, len(r.checks))
	for _, h := range r.checks {
		checks = append(checks, h)
	}
	r.mtx.RUnlock()
	slices.SortFunc(checks, func(a, b *HealthCheck) int {
		return cmp.Compare(a.Name(), b.Name())
	})

	results := make([]Result, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, h := range checks {
		i, h := i, h
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = UnhealthyErr(err)
				return nil
			}
			results[i] = h.Execute(gctx)
			return nil
		})
	}
	g.Wait() // checks never fail the group

	var (
		out = make(map[string]Result, len(checks))
		err error
	)
	for i, h := range checks {
		res := results[i]
		out[h.Name()] = res
		if res.Healthy {
			continue
		}
		level.Warn(r.logger).Log("msg", "health check failed", "check", h.Name(), "message", res.Message)
		err = multierr.Append(err, errors.Errorf("%s: %s", h.Name(), res.Message))
	}
	return out, err
}
