package sample

import (
	"bufio"
	"io"
	"math"
	"slices"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// ErrInvalidArgument is returned when a caller passes an argument outside its
// documented domain, e.g. a quantile outside [0, 1].
var ErrInvalidArgument = errors.New("invalid argument")

// Snapshot is an immutable, point-in-time view of a distribution.
type Snapshot interface {
	// Value returns the value at quantile q, which must lie in [0, 1].
	Value(q float64) (float64, error)
	// Values returns a copy of the values in ascending order.
	Values() []int64
	Size() int
	Min() int64
	Max() int64
	Mean() float64
	StdDev() float64
	Median() float64
	Percentile75th() float64
	Percentile95th() float64
	Percentile98th() float64
	Percentile99th() float64
	Percentile999th() float64
	// Dump writes the values, one per line, in ascending order.
	Dump(w io.Writer) error
}

// WeightedSample is a single value together with its sampling weight.
type WeightedSample struct {
	Value  int64
	Weight float64
}

// WeightedSnapshot is a Snapshot over weighted samples. Quantiles, mean and
// standard deviation are computed against the normalized weights, not the
// raw sample count.
type WeightedSnapshot struct {
	values     []int64
	normWeight []float64
	boundaries []float64
}

var _ Snapshot = (*WeightedSnapshot)(nil)

// NewWeightedSnapshot builds a snapshot from an unordered set of samples. The
// slice is not retained.
func NewWeightedSnapshot(samples []WeightedSample) *WeightedSnapshot {
	cp := make([]WeightedSample, len(samples))
	copy(cp, samples)
	slices.SortStableFunc(cp, func(a, b WeightedSample) int {
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		}
		return 0
	})

	s := &WeightedSnapshot{
		values:     make([]int64, len(cp)),
		normWeight: make([]float64, len(cp)),
		boundaries: make([]float64, len(cp)),
	}

	var sum float64
	for _, ws := range cp {
		sum += ws.Weight
	}
	for i, ws := range cp {
		s.values[i] = ws.Value
		if sum > 0 && !math.IsInf(sum, 0) {
			s.normWeight[i] = ws.Weight / sum
		} else {
			// Degenerate weights (all underflowed, or overflowed): fall
			// back to uniform so quantiles stay defined.
			s.normWeight[i] = 1 / float64(len(cp))
		}
	}
	for i := 1; i < len(cp); i++ {
		s.boundaries[i] = s.boundaries[i-1] + s.normWeight[i-1]
	}
	return s
}

// Value implements Snapshot.
func (s *WeightedSnapshot) Value(q float64) (float64, error) {
	if math.IsNaN(q) || q < 0 || q > 1 {
		return 0, errors.Wrapf(ErrInvalidArgument, "quantile %v is not in [0..1]", q)
	}
	return s.value(q), nil
}

func (s *WeightedSnapshot) value(q float64) float64 {
	if len(s.values) == 0 {
		return 0
	}
	// Rounding can push the running boundary sum past 1 when the largest
	// value carries a negligible weight.
	if q >= 1 {
		return float64(s.values[len(s.values)-1])
	}

	// pos is the last boundary at or below q.
	pos := sort.SearchFloat64s(s.boundaries, q)
	if pos == len(s.boundaries) || s.boundaries[pos] != q {
		pos--
	}

	if pos < 1 {
		return float64(s.values[0])
	}
	if pos >= len(s.values) {
		return float64(s.values[len(s.values)-1])
	}
	return float64(s.values[pos])
}

// Values implements Snapshot.
func (s *WeightedSnapshot) Values() []int64 {
	return slices.Clone(s.values)
}

// Size implements Snapshot.
func (s *WeightedSnapshot) Size() int { return len(s.values) }

// Min implements Snapshot.
func (s *WeightedSnapshot) Min() int64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[0]
}

// Max implements Snapshot.
func (s *WeightedSnapshot) Max() int64 {
	if len(s.values) == 0 {
		return 0
	}
	return s.values[len(s.values)-1]
}

// Mean returns the weighted arithmetic mean.
func (s *WeightedSnapshot) Mean() float64 {
	var sum float64
	for i, v := range s.values {
		sum += float64(v) * s.normWeight[i]
	}
	return sum
}

// StdDev returns the weighted standard deviation, using the two-pass
// algorithm to avoid accumulating large squares.
func (s *WeightedSnapshot) StdDev() float64 {
	if len(s.values) <= 1 {
		return 0
	}
	mean := s.Mean()
	var variance float64
	for i, v := range s.values {
		diff := float64(v) - mean
		variance += s.normWeight[i] * diff * diff
	}
	return math.Sqrt(variance)
}

// Median implements Snapshot.
func (s *WeightedSnapshot) Median() float64 { return s.value(0.5) }

// Percentile75th implements Snapshot.
func (s *WeightedSnapshot) Percentile75th() float64 { return s.value(0.75) }

// Percentile95th implements Snapshot.
func (s *WeightedSnapshot) Percentile95th() float64 { return s.value(0.95) }

// Percentile98th implements Snapshot.
func (s *WeightedSnapshot) Percentile98th() float64 { return s.value(0.98) }

// Percentile99th implements Snapshot.
func (s *WeightedSnapshot) Percentile99th() float64 { return s.value(0.99) }

// Percentile999th implements Snapshot.
func (s *WeightedSnapshot) Percentile999th() float64 { return s.value(0.999) }

// Dump implements Snapshot.
func (s *WeightedSnapshot) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 24)
	for _, v := range s.values {
		buf = strconv.AppendInt(buf[:0], v, 10)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return errors.Wrap(err, "dump snapshot")
		}
	}
	return errors.Wrap(bw.Flush(), "dump snapshot")
}
