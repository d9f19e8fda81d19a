// Package sample implements bounded reservoirs that approximate a value
// distribution without retaining every observation, and the snapshots they
// produce.
package sample

// Reservoir is a bounded store of observed values.
type Reservoir interface {
	// Size returns the number of samples currently held, which never
	// exceeds the reservoir's capacity.
	Size() int
	// Update records a new value.
	Update(value int64)
	// Snapshot returns an immutable copy of the current samples.
	Snapshot() Snapshot
}
