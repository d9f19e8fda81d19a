package teststat

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// AssertPrometheusNormalSummary ensures the Prometheus summary gathered from g
// under metricName abides a normal distribution. Quantile values are
// compared after dividing by scale, so timers exported in seconds can be
// checked against a population recorded in other units.
func AssertPrometheusNormalSummary(t *testing.T, g prometheus.Gatherer, metricName string, mean, stdev int64, scale float64) {
	t.Helper()
	const tolerance = 3.0

	summary := gatherSummary(t, g, metricName)
	if want, have := uint64(Population), summary.GetSampleCount(); want != have {
		t.Errorf("sample count: want %d, have %d", want, have)
	}
	wants := map[float64]int{0.5: 50, 0.95: 95, 0.99: 99}
	for _, q := range summary.GetQuantile() {
		quantile, ok := wants[q.GetQuantile()]
		if !ok {
			continue
		}
		want := NormalValueAtQuantile(mean, stdev, quantile)
		if have := q.GetValue() / scale; math.Abs(float64(want)-have) > tolerance {
			t.Errorf("%v: want %d, have %.2f", q.GetQuantile(), want, have)
		}
	}
}

func gatherSummary(t *testing.T, g prometheus.Gatherer, metricName string) *dto.Summary {
	t.Helper()
	families, err := g.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, family := range families {
		if family.GetName() != metricName {
			continue
		}
		for _, m := range family.GetMetric() {
			if m.GetSummary() != nil {
				return m.GetSummary()
			}
		}
	}
	t.Fatalf("summary %q not gathered", metricName)
	return nil
}
