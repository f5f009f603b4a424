// Package gpu holds memory slot state directly on native simulator devices,
// one device per slot. There are no circuit blueprints in this mode: a write
// mutates device state, a read samples it.
//
// The native engine is compiled in under the cuda build tag (see
// engine_cuda.go); without it, opening a device fails with
// ErrEngineUnavailable and gpu-mode cell construction fails loudly rather
// than substituting a behaviorally different stand-in.
package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/becomeliminal/qmem-go-sdk/qmem"
)

// ErrEngineUnavailable is returned when the native engine was not compiled
// into this binary.
var ErrEngineUnavailable = errors.New("gpu: native engine unavailable (build with -tags cuda)")

// Device extends the cell-facing device contract with resource release.
type Device interface {
	qmem.Device

	// Release frees the device's resources. Called exactly once by the pool.
	Release() error
}

// Opener creates one device sized for numQubits qubits.
type Opener func(numQubits int) (Device, error)

// Pool owns one device per memory slot. It implements qmem.DevicePool.
type Pool struct {
	log     zerolog.Logger
	devices []Device

	releaseOnce sync.Once
	releaseErr  error
}

// Option configures the pool.
type Option func(*poolConfig)

type poolConfig struct {
	opener Opener
	log    zerolog.Logger
}

// WithOpener replaces the default (native) device opener.
func WithOpener(o Opener) Option {
	return func(c *poolConfig) {
		c.opener = o
	}
}

// WithLogger sets the pool's logger. Default: disabled.
func WithLogger(log zerolog.Logger) Option {
	return func(c *poolConfig) {
		c.log = log.With().Str("component", "qmem-gpu").Logger()
	}
}

// NewPool opens depth devices of numQubits qubits each. If any open fails,
// already-opened devices are released and the error is returned: engine
// absence is a construction-time failure, never a silent fallback.
func NewPool(depth, numQubits int, opts ...Option) (*Pool, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("gpu: depth must be positive, got %d", depth)
	}
	if numQubits <= 0 {
		return nil, fmt.Errorf("gpu: numQubits must be positive, got %d", numQubits)
	}

	cfg := poolConfig{opener: openNativeDevice, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pool{log: cfg.log, devices: make([]Device, 0, depth)}
	for i := 0; i < depth; i++ {
		dev, err := cfg.opener(numQubits)
		if err != nil {
			p.Release()
			return nil, fmt.Errorf("gpu: open device for slot %d: %w", i, err)
		}
		p.devices = append(p.devices, dev)
	}
	p.log.Info().Int("devices", depth).Int("qubits", numQubits).Msg("device pool ready")
	return p, nil
}

// Slot returns the device owned by a slot index.
func (p *Pool) Slot(index int) (qmem.Device, error) {
	if index < 0 || index >= len(p.devices) {
		return nil, fmt.Errorf("gpu: no device for slot %d", index)
	}
	return p.devices[index], nil
}

// Release frees every device exactly once. One device's release failure is
// logged and does not prevent releasing the rest; the joined error is
// returned for diagnostics only.
func (p *Pool) Release() error {
	p.releaseOnce.Do(func() {
		var errs []error
		for i, dev := range p.devices {
			if err := dev.Release(); err != nil {
				p.log.Warn().Int("slot", i).Err(err).Msg("device release failed")
				errs = append(errs, fmt.Errorf("slot %d: %w", i, err))
			}
		}
		p.devices = nil
		p.releaseErr = errors.Join(errs...)
	})
	return p.releaseErr
}
