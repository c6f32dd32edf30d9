package session

import (
	"errors"
	"fmt"
)

// ErrOperationPending is returned when an operation of the same kind is still
// outstanding. The controller refuses, it never queues.
var ErrOperationPending = errors.New("operation already in flight")

// ValidationError is a local pre-flight failure (missing camera, marker not
// smaller than its square). It never reaches the device.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// InvalidStateError marks an operation invoked in a step that does not permit
// it. This is a programming or UI error, not a user mistake.
type InvalidStateError struct {
	Op   string
	Step Step
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is not allowed in step %s", e.Op, e.Step)
}

// PreconditionError is a local gate failure, currently only the minimum
// captured-frame count before calculate.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

// ConflictError is returned when a session is started for a camera that
// already has a live session.
type ConflictError struct {
	CameraID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("a calibration session is already active for camera %s", e.CameraID)
}

// RemoteFailure wraps a failed device operation. The workflow state is left
// unchanged so the user may retry; the controller never retries on its own.
type RemoteFailure struct {
	Op  string
	Err error
}

func (e *RemoteFailure) Error() string {
	return fmt.Sprintf("device %s failed: %v", e.Op, e.Err)
}

func (e *RemoteFailure) Unwrap() error { return e.Err }
