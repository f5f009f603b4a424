package qmem

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedMode is returned at construction for a backend mode
	// outside the closed set {local, gpu, remote-queue}.
	ErrUnsupportedMode = errors.New("qmem: unsupported backend mode")

	// ErrBackendMissing is returned at construction when the handle required
	// by the configured mode was not provided.
	ErrBackendMissing = errors.New("qmem: backend handle not configured")

	// ErrBatchMismatch is returned when vectors and slot indices disagree in
	// length and the slot list is not a single broadcastable index.
	ErrBatchMismatch = errors.New("qmem: batch length mismatch")

	// ErrPollTimeout is returned when a job fails to reach a terminal state
	// within the configured poll timeout. Distinct from a backend-reported
	// ERROR terminal state.
	ErrPollTimeout = errors.New("qmem: job polling timed out")
)

// SlotRangeError reports an out-of-range slot index for one batch item.
// It is a client validation error, not a backend fault.
type SlotRangeError struct {
	Item  int
	Slot  int
	Depth int
}

func (e *SlotRangeError) Error() string {
	return fmt.Sprintf("qmem: slot index %d for item %d out of range [0, %d)", e.Slot, e.Item, e.Depth)
}

// JobFailedError reports a job that reached a terminal state other than DONE.
type JobFailedError struct {
	JobID string
	State JobState
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("qmem: job %s failed with status %s", e.JobID, e.State)
}
