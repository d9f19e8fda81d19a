package metrics

import "github.com/pkg/errors"

// Kind enumerates the closed set of metric kinds a Registry can hold.
type Kind int

// Metric kinds.
const (
	KindGauge Kind = iota + 1
	KindCounter
	KindHistogram
	KindMeter
	KindTimer
)

func (k Kind) String() string {
	switch k {
	case KindGauge:
		return "gauge"
	case KindCounter:
		return "counter"
	case KindHistogram:
		return "histogram"
	case KindMeter:
		return "meter"
	case KindTimer:
		return "timer"
	default:
		return "unknown"
	}
}

// Metric is implemented by every metric type of this package. The interface
// is sealed: a type outside the package satisfies it only by embedding one of
// the package's metrics, and then reports that metric's Kind, so a switch
// over Kind is exhaustive.
type Metric interface {
	Kind() Kind
	metric()
}

// unknownKind panics; reaching it means a Metric escaped the sealed set.
func unknownKind(m Metric) {
	panic(errors.Wrapf(ErrUnknownKind, "%T reports kind %v", m, m.Kind()))
}

// unwrapAs returns the concrete metric of type M behind m, looking through
// embedding.
func unwrapAs[M Metric](m Metric) (M, bool) {
	if u, ok := m.(interface{ unwrap() M }); ok {
		return u.unwrap(), true
	}
	var zero M
	return zero, false
}
