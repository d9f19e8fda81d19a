package metrics

import "go.uber.org/atomic"

// AtomicCounter is a lock-free 64-bit signed counter. Every operation is a
// single atomic instruction on one memory word and is immediately visible to
// all goroutines. Overflow wraps.
//
// The zero value is ready to use.
type AtomicCounter struct {
	v atomic.Int64
}

// Get returns the current value.
func (c *AtomicCounter) Get() int64 { return c.v.Load() }

// AddAndGet adds delta and returns the new value.
func (c *AtomicCounter) AddAndGet(delta int64) int64 { return c.v.Add(delta) }

// CompareAndSet sets the value to next iff it currently equals expected, and
// reports whether it did.
func (c *AtomicCounter) CompareAndSet(expected, next int64) bool {
	return c.v.CompareAndSwap(expected, next)
}

// GetAndReset sets the value to zero and returns what it was.
func (c *AtomicCounter) GetAndReset() int64 {
	for {
		old := c.Get()
		if c.CompareAndSet(old, 0) {
			return old
		}
	}
}
