package metrics

// Counter is an incrementing and decrementing 64-bit count.
type Counter struct {
	count AtomicCounter
}

// NewCounter returns a Counter at zero.
func NewCounter() *Counter { return &Counter{} }

// Inc adds n to the count.
func (c *Counter) Inc(n int64) { c.count.AddAndGet(n) }

// Dec subtracts n from the count.
func (c *Counter) Dec(n int64) { c.count.AddAndGet(-n) }

// Count returns the current count.
func (c *Counter) Count() int64 { return c.count.Get() }

// Kind implements Metric.
func (*Counter) Kind() Kind { return KindCounter }

func (*Counter) metric() {}

func (x *Counter) unwrap() *Counter { return x }
