package service

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned by Submit when no background worker can take the run
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrExecutionNotFound is returned when no record exists for an event id
	ErrExecutionNotFound = errors.New("execution not found")
	// ErrReportingDisabled is returned when no audit store is configured
	ErrReportingDisabled = errors.New("delivery reporting is not enabled")
	// ErrQueueDisabled is returned by Enqueue when no intake queue is configured
	ErrQueueDisabled = errors.New("queue intake is not enabled")
)

// ValidationError reports a malformed event. It is raised before any state
// transition and never produces an execution record.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InternalError is an unexpected failure inside a decisioning run. The run is
// still recorded, with status failed.
type InternalError struct {
	EventID string
	State   State
	Cause   error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in state %s for event %s: %v", e.State, e.EventID, e.Cause)
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}
