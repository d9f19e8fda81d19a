// Package metrics provides in-process application instrumentation: counters,
// meters, histograms, timers and gauges, held by name in a Registry that
// reporters read from. All metrics are safe for concurrent use, and hot paths
// use only atomic operations. Considerable design influence has been taken
// from https://github.com/codahale/metrics.
//
// Rates decay on the metric's clock rather than on a background goroutine,
// so tests can drive time deterministically through clock.New with a mock.
// Distributions are sampled by the reservoirs of package sample.
package metrics
