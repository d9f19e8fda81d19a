package health_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/kitmetrics/metrics/health"
)

func ok(context.Context) (health.Result, error) { return health.Healthy("fine"), nil }

func TestExecuteConvertsFailures(t *testing.T) {
	errDown := errors.New("database down")
	for _, tc := range []struct {
		name    string
		check   health.Func
		healthy bool
		message string
	}{
		{"healthy", ok, true, "fine"},
		{"unhealthy", func(context.Context) (health.Result, error) {
			return health.Unhealthy("%d replicas lagging", 2), nil
		}, false, "2 replicas lagging"},
		{"error", func(context.Context) (health.Result, error) {
			return health.Result{}, errDown
		}, false, "database down"},
		{"panic", func(context.Context) (health.Result, error) {
			panic("nil map")
		}, false, "panic: nil map"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res := health.New(tc.name, tc.check).Execute(context.Background())
			assert.Equal(t, tc.healthy, res.Healthy)
			assert.Equal(t, tc.message, res.Message)
		})
	}
}

func TestExecuteKeepsError(t *testing.T) {
	errDown := errors.New("down")
	res := health.New("db", func(context.Context) (health.Result, error) {
		return health.Result{}, errDown
	}).Execute(context.Background())
	require.ErrorIs(t, res.Err, errDown)
	assert.Equal(t, "unhealthy: down", res.String())
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := health.NewRegistry()
	require.NoError(t, r.Register(health.New("db", ok)))
	require.ErrorIs(t, r.Register(health.New("db", ok)), health.ErrDuplicateCheck)
	assert.Equal(t, []string{"db"}, r.Names())
	assert.True(t, r.Unregister("db"))
	assert.False(t, r.Unregister("db"))
}

func TestRunAll(t *testing.T) {
	var buf bytes.Buffer
	r := health.NewRegistry(health.WithLogger(log.NewLogfmtLogger(log.NewSyncWriter(&buf))))
	require.NoError(t, r.Register(health.New("cache", ok)))
	require.NoError(t, r.Register(health.New("db", func(context.Context) (health.Result, error) {
		return health.Result{}, errors.New("timeout")
	})))
	require.NoError(t, r.Register(health.New("queue", func(context.Context) (health.Result, error) {
		panic(errors.New("closed channel"))
	})))

	results, err := r.RunAll(context.Background())
	require.Len(t, results, 3)
	assert.True(t, results["cache"].Healthy)
	assert.False(t, results["db"].Healthy)
	assert.False(t, results["queue"].Healthy)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, buf.String(), "check=db")
	assert.Contains(t, buf.String(), "check=queue")
}

func TestRunAllHonoursConcurrency(t *testing.T) {
	var (
		running, peak atomic.Int64
		mtx           sync.Mutex
	)
	check := func(context.Context) (health.Result, error) {
		n := running.Inc()
		mtx.Lock()
		if n > peak.Load() {
			peak.Store(n)
		}
		mtx.Unlock()
		defer running.Dec()
		return health.Healthy(""), nil
	}
	r := health.NewRegistry(health.WithConcurrency(2))
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, r.Register(health.New(name, check)))
	}
	results, err := r.RunAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 5)
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestRunAllCancelled(t *testing.T) {
	r := health.NewRegistry()
	require.NoError(t, r.Register(health.New("db", ok)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := r.RunAll(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, results["db"].Err, context.Canceled)
}
