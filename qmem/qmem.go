package qmem

import "context"

// JobState is the lifecycle status of one execution request. Transitions are
// backend-reported: QUEUED -> RUNNING -> {DONE, ERROR, CANCELLED}.
type JobState string

const (
	JobQueued    JobState = "QUEUED"
	JobRunning   JobState = "RUNNING"
	JobDone      JobState = "DONE"
	JobError     JobState = "ERROR"
	JobCancelled JobState = "CANCELLED"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	switch s {
	case JobDone, JobError, JobCancelled:
		return true
	}
	return false
}

// Job is a handle to one in-flight execution request. It is owned by the
// cell for the duration of a single read item and never shared across reads.
type Job interface {
	// ID identifies the job for diagnostics.
	ID() string

	// Status returns the backend-reported state.
	Status(ctx context.Context) (JobState, error)

	// Result returns the measurement counts. Valid only once Status has
	// reported DONE; synchronous backends are DONE the moment Run returns.
	Result(ctx context.Context) (Counts, error)
}

// Runner executes measurement circuits. Implemented by the local simulator
// (synchronous, jobs are DONE on return) and the remote queue client
// (asynchronous, jobs require polling).
type Runner interface {
	Run(ctx context.Context, circ *Circuit, shots int) (Job, error)
}

// Device is one memory slot's simulator in gpu mode. The slot's content
// lives directly in device state; there is no circuit blueprint. A device is
// exclusively owned by its slot index and must not be used concurrently.
type Device interface {
	// Reset returns the device to the all-zero basis state.
	Reset() error

	// ApplyRotation applies one single-qubit rotation to the current state.
	ApplyRotation(axis Axis, angle float64, qubit int) error

	// MeasureShots samples the given qubits shots times without collapsing
	// the stored state, returning a counts histogram.
	MeasureShots(qubits []int, shots int) (Counts, error)
}

// DevicePool owns one Device per memory slot in gpu mode.
type DevicePool interface {
	// Slot returns the device for a slot index.
	Slot(index int) (Device, error)

	// Release frees all device resources. Safe to call more than once; a
	// single device's release failure must not prevent releasing the rest.
	Release() error
}
