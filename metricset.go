package metrics

// MetricSet is a group of related metrics that can be registered together
// with RegisterAll. A Registry is itself a MetricSet.
type MetricSet interface {
	Metrics() map[Name]Metric
}

// MetricSetFunc adapts a function to a MetricSet.
type MetricSetFunc func() map[Name]Metric

// Metrics implements MetricSet.
func (f MetricSetFunc) Metrics() map[Name]Metric { return f() }
