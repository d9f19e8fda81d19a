package reporting_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	bclock "github.com/benbjohnson/clock"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/kitmetrics/metrics"
	"github.com/kitmetrics/metrics/clock"
	"github.com/kitmetrics/metrics/reporting"
	"github.com/kitmetrics/metrics/sample"
)

func populated(t *testing.T) (*metrics.Registry, *bclock.Mock) {
	t.Helper()
	mock := bclock.NewMock()
	r := metrics.NewRegistry(metrics.WithClock(clock.New(mock)))
	metrics.GaugeFunc(r, metrics.Build("queue", "depth"), func() int { return 7 })
	r.Counter(metrics.Build("jobs", "done")).Inc(42)
	h := r.Histogram(metrics.Build("payload", "bytes"))
	for i := int64(1); i <= 5; i++ {
		h.Update(i * 100)
	}
	r.Meter(metrics.Build("requests")).Mark(20)
	timer := r.Timer(metrics.Build("latency"))
	timer.Update(10 * time.Millisecond)
	timer.Update(30 * time.Millisecond)
	mock.Add(10 * time.Second)
	return r, mock
}

func TestCollect(t *testing.T) {
	r, mock := populated(t)
	s := reporting.Collect(r, nil, mock.Now())
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, mock.Now(), s.Time)

	s = reporting.Collect(r, metrics.KeyPrefix("jobs"), mock.Now())
	assert.Equal(t, 1, s.Len())
	assert.Len(t, s.Counters, 1)
}

func TestUnits(t *testing.T) {
	u := reporting.Units{Rate: time.Minute, Duration: time.Microsecond}
	assert.InDelta(t, 120.0, u.ConvertRate(2), 1e-9)
	assert.InDelta(t, 1.5, u.ConvertDuration(1500), 1e-9)
	assert.Equal(t, "minute", u.RateUnit())
	assert.Equal(t, "us", u.DurationUnit())
	assert.Equal(t, "second", reporting.DefaultUnits.RateUnit())
	assert.Equal(t, "ms", reporting.DefaultUnits.DurationUnit())
}

func TestConsole(t *testing.T) {
	r, mock := populated(t)
	var buf bytes.Buffer
	require.NoError(t, reporting.NewConsole(&buf).Report(context.Background(), reporting.Collect(r, nil, mock.Now())))
	out := buf.String()
	t.Logf("\n%s", out)

	for _, want := range []string{
		"1970-01-01 00:00:10 ",
		"-- Gauges ",
		"value = 7",
		"count = 42",
		"mean rate = 2.00 events/second",
		"mean rate = 0.20 calls/second",
		"max = 30.00ms",
		"99.9% <= 500.00",
	} {
		assert.Contains(t, out, want)
	}
	sections := []string{"-- Gauges", "-- Counters", "-- Histograms", "-- Meters", "-- Timers"}
	last := -1
	for _, section := range sections {
		i := strings.Index(out, section)
		assert.Greater(t, i, last, section)
		last = i
	}
}

func TestConsoleDistributions(t *testing.T) {
	r, mock := populated(t)
	var buf bytes.Buffer
	c := reporting.NewConsole(&buf, reporting.WithDistributions(5))
	require.NoError(t, c.Report(context.Background(), reporting.Collect(r, metrics.KeyPrefix("payload"), mock.Now())))
	assert.Contains(t, buf.String(), "From  To")
	assert.Equal(t, 100, strings.Count(buf.String(), "#"))
}

func TestPrintDistributionFullInt64Range(t *testing.T) {
	s := sample.NewWeightedSnapshot([]sample.WeightedSample{
		{Value: math.MinInt64, Weight: 1},
		{Value: 0, Weight: 1},
		{Value: math.MaxInt64, Weight: 1},
	})
	for buckets, bars := range map[int]int{1: 100, 2: 99, 3: 99, 10: 99} {
		var buf bytes.Buffer
		require.NotPanics(t, func() {
			reporting.PrintDistribution(&buf, metrics.Build("extremes"), s, buckets)
		})
		assert.Contains(t, buf.String(), "-9223372036854775808", "buckets=%d", buckets)
		assert.Equal(t, bars, strings.Count(buf.String(), "#"), "buckets=%d", buckets)
	}
}

func TestJSON(t *testing.T) {
	r, mock := populated(t)
	var buf bytes.Buffer
	require.NoError(t, reporting.NewJSON(&buf).Report(context.Background(), reporting.Collect(r, nil, mock.Now())))

	var doc struct {
		Timestamp int64 `json:"timestamp"`
		reporting.Document
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, int64(10), doc.Timestamp)
	assert.Equal(t, "7", doc.Gauges["queue.depth"].Value)
	assert.Equal(t, int64(42), doc.Counters["jobs.done"].Count)
	assert.Equal(t, int64(5), doc.Histograms["payload.bytes"].Count)
	assert.InDelta(t, 300.0, doc.Histograms["payload.bytes"].P50, 1e-9)
	assert.InDelta(t, 2.0, doc.Meters["requests"].MeanRate, 1e-9)
	assert.InDelta(t, 30.0, doc.Timers["latency"].Max, 1e-9)
	assert.Equal(t, int64(2), doc.Timers["latency"].Count)
}

func TestLog(t *testing.T) {
	r, mock := populated(t)
	var buf bytes.Buffer
	l := reporting.NewLog(log.NewLogfmtLogger(&buf))
	require.NoError(t, l.Report(context.Background(), reporting.Collect(r, nil, mock.Now())))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "type=gauge name=queue.depth value=7", lines[0])
	assert.Equal(t, "type=counter name=jobs.done count=42", lines[1])
	assert.Contains(t, lines[4], "type=timer name=latency count=2")
	assert.Contains(t, lines[4], "duration_unit=ms")
}

func TestScheduledSurvivesFailures(t *testing.T) {
	r, _ := populated(t)
	var (
		mock  = bclock.NewMock()
		calls atomic.Int64
		buf   bytes.Buffer
	)
	reporter := reporting.ReporterFunc(func(_ context.Context, s reporting.Sample) error {
		switch calls.Inc() {
		case 1:
			return errors.New("backend down")
		case 2:
			panic("bad reporter")
		}
		if s.Len() != 1 {
			return errors.New("filter ignored")
		}
		return nil
	})
	s := reporting.NewScheduled(r, reporter, time.Minute,
		reporting.WithTickerClock(mock),
		reporting.WithFilter(metrics.KeyPrefix("jobs")),
		reporting.WithLogger(log.NewLogfmtLogger(log.NewSyncWriter(&buf))),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		mock.Add(time.Minute)
		return calls.Load() >= 3
	}, 5*time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestReportOnceRecoversPanics(t *testing.T) {
	r := metrics.NewRegistry()
	s := reporting.NewScheduled(r, reporting.ReporterFunc(func(context.Context, reporting.Sample) error {
		panic("boom")
	}), time.Second)
	err := s.ReportOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
