// Package teststat contains helper functions for statistical testing of
// metrics implementations and the backends that export them.
package teststat

import (
	"math"
	"math/rand"
	"testing"
)

// Population is the number of observations PopulateNormal records.
const Population = 1234

// Updater is anything that records int64 observations: histograms, timers
// fed raw nanoseconds, reservoirs.
type Updater interface {
	Update(value int64)
}

// Quantiler returns the value at a quantile in [0, 1].
type Quantiler interface {
	Value(q float64) (float64, error)
}

// PopulateNormal records Population observations drawn from a normal
// distribution with the given mean and standard deviation.
func PopulateNormal(u Updater, seed int64, mean, stdev int64) {
	r := rand.New(rand.NewSource(seed))
	for i := 0; i < Population; i++ {
		sample := int64(r.NormFloat64()*float64(stdev) + float64(mean))
		u.Update(sample)
	}
}

// AssertNormalQuantiles checks that the 50th, 90th, 95th and 99th percentiles
// reported by q lie within tolerance of the normal distribution's.
func AssertNormalQuantiles(t *testing.T, q Quantiler, mean, stdev int64, tolerance float64) {
	t.Helper()
	for _, quantile := range []int{50, 90, 95, 99} {
		want := NormalValueAtQuantile(mean, stdev, quantile)
		have, err := q.Value(float64(quantile) / 100)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(float64(want)-have) > tolerance {
			t.Errorf("p%d: want %d, have %.2f", quantile, want, have)
		}
	}
}

// NormalValueAtQuantile returns the value at the given percentile of a normal
// distribution.
// https://en.wikipedia.org/wiki/Normal_distribution#Quantile_function
func NormalValueAtQuantile(mean, stdev int64, quantile int) int64 {
	return int64(float64(mean) + float64(stdev)*math.Sqrt2*erfinv(2*(float64(quantile)/100)-1))
}

// https://stackoverflow.com/questions/5971830/need-code-for-inverse-error-function
func erfinv(y float64) float64 {
	if y < -1.0 || y > 1.0 {
		panic("invalid input")
	}

	var (
		a = [4]float64{0.886226899, -1.645349621, 0.914624893, -0.140543331}
		b = [4]float64{-2.118377725, 1.442710462, -0.329097515, 0.012229801}
		c = [4]float64{-1.970840454, -1.624906493, 3.429567803, 1.641345311}
		d = [2]float64{3.543889200, 1.637067800}
	)

	const y0 = 0.7
	var x, z float64

	if math.Abs(y) == 1.0 {
		x = -y * math.Log(0.0)
	} else if y < -y0 {
		z = math.Sqrt(-math.Log((1.0 + y) / 2.0))
		x = -(((c[3]*z+c[2])*z+c[1])*z + c[0]) / ((d[1]*z+d[0])*z + 1.0)
	} else {
		if y < y0 {
			z = y * y
			x = y * (((a[3]*z+a[2])*z+a[1])*z + a[0]) / ((((b[3]*z+b[2])*z+b[1])*z+b[0])*z + 1.0)
		} else {
			z = math.Sqrt(-math.Log((1.0 - y) / 2.0))
			x = (((c[3]*z+c[2])*z+c[1])*z + c[0]) / ((d[1]*z+d[0])*z + 1.0)
		}
		x = x - (math.Erf(x)-y)/(2.0/math.SqrtPi*math.Exp(-x*x))
		x = x - (math.Erf(x)-y)/(2.0/math.SqrtPi*math.Exp(-x*x))
	}

	return x
}
