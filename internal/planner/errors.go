package planner

import "errors"

// PlannerError wraps a failure with whether retrying the same task is
// expected to help, and whether it belongs to spec §4.2's critical class
// (timeout, connection_error) that triggers intention reconsideration
// rather than a local correction-task retry. Renamed from the teacher's
// EngagementError, same shape. The Planner branches on Critical (see
// isCritical); Retryable is recorded but no caller reads it.
type PlannerError struct {
	Err       error
	Retryable bool
	Critical  bool
}

func (e *PlannerError) Error() string { return e.Err.Error() }
func (e *PlannerError) Unwrap() error { return e.Err }

func retryable(err error) *PlannerError { return &PlannerError{Err: err, Retryable: true} }
func permanent(err error) *PlannerError { return &PlannerError{Err: err, Retryable: false} }

// critical marks a bus-transport failure (a send error, or a
// send_and_wait timeout with no reply at all) as spec §4.2's critical
// class, which suspends the affected intentions and synthesizes fix_
// desires rather than retrying the task in place.
func critical(err error) *PlannerError { return &PlannerError{Err: err, Retryable: true, Critical: true} }

// isCritical reports whether err is a PlannerError marked Critical.
func isCritical(err error) bool {
	var pe *PlannerError
	return errors.As(err, &pe) && pe.Critical
}
