package qmem

import (
	"fmt"
	"time"
)

// Mode selects the backend family. The set is closed; dispatch happens once
// at construction, never per call.
type Mode string

const (
	// ModeLocal runs circuits on an in-process statevector simulator.
	ModeLocal Mode = "local"

	// ModeGPU holds slot state directly on per-slot simulator devices.
	ModeGPU Mode = "gpu"

	// ModeRemote submits circuits to a hosted job queue and polls.
	ModeRemote Mode = "remote-queue"
)

// RemoteCredentials carries the opaque token and identity for a remote
// backend. The cell never inspects or stores these beyond handing them to
// the remote client at construction.
type RemoteCredentials struct {
	Token    string
	Identity string
}

// Config holds cell construction parameters.
type Config struct {
	// Mode is the backend family, one of ModeLocal, ModeGPU, ModeRemote.
	Mode Mode

	// NumQubits is the register size of every memory slot.
	NumQubits int

	// Depth is the number of memory slots.
	Depth int

	// HiddenSize is the width of the classical hidden vectors written to and
	// read from the cell.
	HiddenSize int

	// RemoteBackend names the processor to target in remote-queue mode.
	RemoteBackend string

	// PollInterval is the wait between job status checks in remote-queue
	// mode. Default: 5s.
	PollInterval time.Duration

	// PollTimeout bounds the total wait for a job to reach a terminal
	// state. Default: 5m.
	PollTimeout time.Duration

	// Credentials are passed through to the remote client. Unused by the
	// other modes.
	Credentials RemoteCredentials
}

// withDefaults returns a copy with unset poll settings filled in.
func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 5 * time.Minute
	}
	return c
}

// Validate checks the configuration. Violations are configuration errors,
// fatal to cell construction.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeLocal, ModeGPU, ModeRemote:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMode, c.Mode)
	}
	if c.NumQubits <= 0 {
		return fmt.Errorf("qmem: NumQubits must be positive, got %d", c.NumQubits)
	}
	if c.Depth <= 0 {
		return fmt.Errorf("qmem: Depth must be positive, got %d", c.Depth)
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("qmem: HiddenSize must be positive, got %d", c.HiddenSize)
	}
	return nil
}
