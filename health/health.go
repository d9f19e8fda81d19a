// Package health runs named health checks and reports their results.
//
// A check converts every failure into an unhealthy Result: a returned error
// and a panic are both caught by Execute, so one broken check never takes
// down the caller running all of them.
package health

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Result is the outcome of one health check.
type Result struct {
	Healthy bool
	Message string
	Err     error
}

// Healthy returns a healthy Result with an optional formatted message.
func Healthy(format string, args ...interface{}) Result {
	return Result{Healthy: true, Message: sprintf(format, args...)}
}

// Unhealthy returns an unhealthy Result with a formatted message.
func Unhealthy(format string, args ...interface{}) Result {
	return Result{Healthy: false, Message: sprintf(format, args...)}
}

// UnhealthyErr returns an unhealthy Result carrying err and its message.
func UnhealthyErr(err error) Result {
	return Result{Healthy: false, Message: err.Error(), Err: err}
}

func (r Result) String() string {
	status := "healthy"
	if !r.Healthy {
		status = "unhealthy"
	}
	if r.Message == "" {
		return status
	}
	return status + ": " + r.Message
}

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Func checks one dependency. A non-nil error is shorthand for
// UnhealthyErr(err).
type Func func(ctx context.Context) (Result, error)

// HealthCheck is a named check.
type HealthCheck struct {
	name  string
	check Func
}

// New returns a HealthCheck running check.
func New(name string, check Func) *HealthCheck {
	return &HealthCheck{name: name, check: check}
}

// Name returns the name the check was created with.
func (h *HealthCheck) Name() string { return h.name }

// Execute runs the check. Errors and panics become unhealthy results.
func (h *HealthCheck) Execute(ctx context.Context) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = errors.Errorf("%v", r)
			}
			result = UnhealthyErr(errors.Wrap(err, "panic"))
		}
	}()
	result, err := h.check(ctx)
	if err != nil {
		return UnhealthyErr(err)
	}
	return result
}
