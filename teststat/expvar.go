package teststat

import (
	"encoding/json"
	"expvar"
	"math"
	"testing"
)

// AssertExpvarNormalHistogram ensures the histogram published under the
// expvar varName, in section/metricName of its JSON document, abides a normal
// distribution.
func AssertExpvarNormalHistogram(t *testing.T, varName, section, metricName string, mean, stdev int64) {
	t.Helper()
	const tolerance = 3.0

	v := expvar.Get(varName)
	if v == nil {
		t.Fatalf("expvar %q not published", varName)
	}
	var doc map[string]map[string]map[string]float64
	if err := json.Unmarshal([]byte(v.String()), &doc); err != nil {
		t.Fatal(err)
	}
	fields, ok := doc[section][metricName]
	if !ok {
		t.Fatalf("%s/%s missing from %s", section, metricName, v.String())
	}
	for field, quantile := range map[string]int{"p50": 50, "p95": 95, "p99": 99} {
		want := NormalValueAtQuantile(mean, stdev, quantile)
		if have := fields[field]; math.Abs(float64(want)-have) > tolerance {
			t.Errorf("%s: want %d, have %.2f", field, want, have)
		}
	}
}
