package metrics

import (
	"github.com/pkg/errors"

	"github.com/kitmetrics/metrics/sample"
)

var (
	// ErrDuplicateName is returned by Register when a metric already exists
	// under the requested name. The registry is left unchanged.
	ErrDuplicateName = errors.New("a metric with this name already exists")

	// ErrInvalidArgument is returned for malformed arguments: quantiles
	// outside [0, 1] and odd-length tag pair lists. It is the same value as
	// sample.ErrInvalidArgument.
	ErrInvalidArgument = sample.ErrInvalidArgument

	// ErrUnknownKind signals a metric that matches none of the known kinds.
	// It indicates a programming error and is raised with panic.
	ErrUnknownKind = errors.New("unknown metric kind")

	// ErrKindMismatch is raised with panic when a get-or-create call finds a
	// metric of a different kind under the requested name.
	ErrKindMismatch = errors.New("metric registered with a different kind")
)
