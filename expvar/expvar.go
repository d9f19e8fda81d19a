// Package expvar publishes a metrics.Registry through the standard expvar
// package, so it is served as JSON on /debug/vars.
package expvar

import (
	"encoding/json"
	"expvar"
	"time"

	"github.com/kitmetrics/metrics"
	"github.com/kitmetrics/metrics/reporting"
)

// Var is an expvar.Var rendering a registry as a reporting.Document.
type Var struct {
	registry *metrics.Registry
	filter   metrics.Filter
	units    reporting.Units
}

// Option sets an optional parameter for Vars.
type Option func(*Var)

// WithFilter restricts the Var to the metrics f matches.
func WithFilter(f metrics.Filter) Option {
	return func(v *Var) { v.filter = f }
}

// WithUnits sets the units rates and durations are converted to. The
// default is reporting.DefaultUnits.
func WithUnits(u reporting.Units) Option {
	return func(v *Var) { v.units = u }
}

// NewVar returns a Var for r without publishing it.
func NewVar(r *metrics.Registry, options ...Option) *Var {
	v := &Var{registry: r, filter: metrics.All, units: reporting.DefaultUnits}
	for _, option := range options {
		option(v)
	}
	return v
}

// Publish publishes r under name. Like expvar.Publish, it panics if name is
// already taken.
func Publish(name string, r *metrics.Registry, options ...Option) *Var {
	v := NewVar(r, options...)
	expvar.Publish(name, v)
	return v
}

// String implements expvar.Var.
func (v *Var) String() string {
	doc := reporting.NewDocument(reporting.Collect(v.registry, v.filter, time.Now()), v.units)
	b, err := json.Marshal(doc)
	if err != nil {
		return "{}"
	}
	return string(b)
}

var _ expvar.Var = (*Var)(nil)
