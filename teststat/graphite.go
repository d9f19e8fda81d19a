package teststat

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"testing"
)

// AssertGraphiteNormalHistogram ensures the histogram written to a Graphite
// plaintext payload under prefix.metricName abides a normal distribution.
func AssertGraphiteNormalHistogram(t *testing.T, prefix, metricName string, mean, stdev int64, payload string) {
	t.Helper()
	const tolerance = 3.0

	count := graphiteValue(t, payload, prefix, metricName, "count")
	if want, have := float64(Population), count; want != have {
		t.Errorf("count: want %.0f, have %.0f", want, have)
	}

	for key, want := range map[string]int64{"mean": mean, "stddev": stdev} {
		have := graphiteValue(t, payload, prefix, metricName, key)
		if math.Abs(float64(want)-have) > tolerance {
			t.Errorf("%s: want %d, have %.2f", key, want, have)
		}
	}

	for field, quantile := range map[string]int{"p50": 50, "p95": 95, "p99": 99} {
		want := NormalValueAtQuantile(mean, stdev, quantile)
		have := graphiteValue(t, payload, prefix, metricName, field)
		if math.Abs(float64(want)-have) > tolerance {
			t.Errorf("%s: want %d, have %.2f", field, want, have)
		}
	}
}

func graphiteValue(t *testing.T, payload, prefix, metricName, field string) float64 {
	t.Helper()
	re := regexp.MustCompile(fmt.Sprintf(`(?m)^%s\.%s\.%s ([0-9.eE+-]+) [0-9]+$`,
		regexp.QuoteMeta(prefix), regexp.QuoteMeta(metricName), regexp.QuoteMeta(field)))
	res := re.FindStringSubmatch(payload)
	if res == nil {
		t.Fatalf("did not find %s.%s.%s in\n%s", prefix, metricName, field, payload)
	}
	v, err := strconv.ParseFloat(res[1], 64)
	if err != nil {
		t.Fatal(err)
	}
	return v
}
