package bayesopt

import (
	"errors"
	"fmt"
)

//////
// Error taxonomy.
//////

// ErrEarlyStop is returned by a Callback to terminate the run early. It is
// not a failure: Minimize returns the partial result with a nil error.
var ErrEarlyStop = errors.New("early stop requested")

// ConfigurationError reports an invalid combination of run parameters, for
// example an evaluation budget that comes out negative after subtracting
// the initial points. It is always reported before the first objective
// evaluation.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Reason
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// SurrogateFitError reports that the surrogate model could not be fit on
// the current observations, for example because the covariance matrix is
// singular. It is fatal to the run; the result accumulated so far is still
// returned.
type SurrogateFitError struct {
	Err error
}

func (e *SurrogateFitError) Error() string {
	return "surrogate fit failed: " + e.Err.Error()
}

func (e *SurrogateFitError) Unwrap() error { return e.Err }

// ObjectiveError wraps a failure raised by the objective function together
// with the point that triggered it. The run aborts immediately and the
// evaluation is never retried; observations recorded before the failure
// remain available on the returned result.
type ObjectiveError struct {
	// X is the decoded point the objective was invoked with.
	X Point

	// Err is the error returned by the objective.
	Err error
}

func (e *ObjectiveError) Error() string {
	return fmt.Sprintf("objective evaluation failed at %v: %v", e.X, e.Err)
}

func (e *ObjectiveError) Unwrap() error { return e.Err }
