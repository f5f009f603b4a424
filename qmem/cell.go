package qmem

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Cell is a quantum memory cell: Depth addressable slots of NumQubits qubits
// each, written and read through a single backend chosen at construction.
//
// Write and Read are safe for concurrent use, with one caveat: concurrent
// writes to the same slot race and the last writer wins. A gpu-mode slot's
// device is guarded by a per-slot lock, so duplicate slot targets in one
// batch never touch a device concurrently.
type Cell struct {
	cfg Config

	encoder *AngleEncoder
	decoder *ProbabilityDecoder
	slots   *SlotStore

	runner Runner       // local and remote-queue modes
	pool   DevicePool   // gpu mode
	devMu  []sync.Mutex // per-slot, gpu mode: serializes access to one device

	tracer Tracer
	log    zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
	seed  int64

	released    atomic.Bool
	releaseOnce sync.Once
}

// Option configures the cell.
type Option func(*Cell)

// WithRunner supplies the execution backend for local and remote-queue
// modes.
func WithRunner(r Runner) Option {
	return func(c *Cell) {
		c.runner = r
	}
}

// WithDevicePool supplies the per-slot device pool for gpu mode.
func WithDevicePool(p DevicePool) Option {
	return func(c *Cell) {
		c.pool = p
	}
}

// WithTracer sets the diagnostic event sink. Default: NopTracer.
func WithTracer(t Tracer) Option {
	return func(c *Cell) {
		c.tracer = t
	}
}

// WithLogger sets the cell's logger. Default: disabled.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Cell) {
		c.log = log.With().Str("component", "qmem").Logger()
	}
}

// WithSeed makes weight initialization and fallback sampling deterministic.
func WithSeed(seed int64) Option {
	return func(c *Cell) {
		c.seed = seed
	}
}

// New constructs a cell. The backend handle matching cfg.Mode must be
// supplied via WithRunner or WithDevicePool; a missing or mismatched handle
// is a configuration error and fails construction immediately.
func New(cfg Config, opts ...Option) (*Cell, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Cell{
		cfg:    cfg,
		tracer: NopTracer{},
		log:    zerolog.Nop(),
		seed:   time.Now().UnixNano(),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch cfg.Mode {
	case ModeLocal, ModeRemote:
		if c.runner == nil {
			return nil, fmt.Errorf("%w: mode %q requires a Runner", ErrBackendMissing, cfg.Mode)
		}
	case ModeGPU:
		if c.pool == nil {
			return nil, fmt.Errorf("%w: mode %q requires a DevicePool", ErrBackendMissing, cfg.Mode)
		}
		c.devMu = make([]sync.Mutex, cfg.Depth)
	}

	c.rng = rand.New(rand.NewSource(c.seed))
	c.encoder = NewAngleEncoder(cfg.HiddenSize, cfg.NumQubits, c.rng)
	c.decoder = NewProbabilityDecoder(cfg.NumQubits, cfg.HiddenSize, c.rng)
	c.slots = NewSlotStore(cfg.Depth)

	c.tracer.ModeSelected(cfg.Mode, cfg.RemoteBackend)
	c.log.Info().
		Str("mode", string(cfg.Mode)).
		Int("qubits", cfg.NumQubits).
		Int("depth", cfg.Depth).
		Int("hidden", cfg.HiddenSize).
		Msg("quantum memory cell initialized")
	return c, nil
}

// Encoder returns the angle encoder, e.g. to load trained weights.
func (c *Cell) Encoder() *AngleEncoder {
	return c.encoder
}

// Decoder returns the probability decoder, e.g. to load trained weights.
func (c *Cell) Decoder() *ProbabilityDecoder {
	return c.decoder
}

// Write encodes each vector and stores it in its slot, fully replacing the
// slot's previous content. A single slot index is broadcast across the
// batch. Items are applied in batch order, so duplicate slot targets within
// one call resolve to the last write.
//
// Validation failures (length mismatch, out-of-range slot) abort the call;
// items already applied stay written.
func (c *Cell) Write(ctx context.Context, vectors [][]float64, slots []int) error {
	slots, err := broadcastSlots(slots, len(vectors))
	if err != nil {
		return err
	}

	for i, vector := range vectors {
		if err := ctx.Err(); err != nil {
			return err
		}
		slot := slots[i]
		if slot < 0 || slot >= c.cfg.Depth {
			return &SlotRangeError{Item: i, Slot: slot, Depth: c.cfg.Depth}
		}

		angles, err := c.encoder.Encode(vector)
		if err != nil {
			return fmt.Errorf("qmem: write item %d: %w", i, err)
		}

		if c.cfg.Mode == ModeGPU {
			if err := c.writeDevice(slot, angles); err != nil {
				return fmt.Errorf("qmem: write item %d slot %d: %w", i, slot, err)
			}
			continue
		}

		circ := NewCircuit(fmt.Sprintf("qmem-s%d-%s", slot, uuid.NewString()), c.cfg.NumQubits)
		for q, a := range angles {
			circ.Rotate(AxisY, a.Theta, q)
			circ.Rotate(AxisZ, a.Phi, q)
		}
		c.slots.Put(slot, circ)
	}
	return nil
}

// writeDevice resets the slot's device and applies the rotations in qubit
// order.
func (c *Cell) writeDevice(slot int, angles []Angle) error {
	c.devMu[slot].Lock()
	defer c.devMu[slot].Unlock()

	dev, err := c.pool.Slot(slot)
	if err != nil {
		return err
	}
	if err := dev.Reset(); err != nil {
		return fmt.Errorf("reset device: %w", err)
	}
	for q, a := range angles {
		if err := dev.ApplyRotation(AxisY, a.Theta, q); err != nil {
			return fmt.Errorf("ry qubit %d: %w", q, err)
		}
		if err := dev.ApplyRotation(AxisZ, a.Phi, q); err != nil {
			return fmt.Errorf("rz qubit %d: %w", q, err)
		}
	}
	return nil
}

// Read measures each slot with the given shot count and decodes the outcome
// probabilities into hidden vectors, preserving batch order.
//
// Items execute concurrently; one item's failure or poll delay never affects
// the others. A failing item degrades to a randomly sampled vector of the
// configured hidden size and is reported through the Tracer. An empty batch
// returns an empty result without touching the backend. Out-of-range slot
// indices fail the whole call before any backend work starts.
func (c *Cell) Read(ctx context.Context, slots []int, shots int) ([][]float64, error) {
	out := make([][]float64, len(slots))
	if len(slots) == 0 {
		return out, nil
	}

	for i, slot := range slots {
		if slot < 0 || slot >= c.cfg.Depth {
			return nil, &SlotRangeError{Item: i, Slot: slot, Depth: c.cfg.Depth}
		}
	}

	// Degraded mode: the handle this mode needs is gone (the cell was
	// closed). Keep batch shape, return fallbacks for every item.
	if c.cfg.Mode == ModeGPU && c.released.Load() {
		c.log.Error().Msg("device pool released; returning fallback vectors for whole batch")
		for i := range out {
			out[i] = c.fallbackVector()
			c.tracer.ItemFallback(i, slots[i], ErrBackendMissing)
		}
		return out, nil
	}

	var wg sync.WaitGroup
	for i, slot := range slots {
		wg.Add(1)
		go func(item, slot int) {
			defer wg.Done()
			out[item] = c.readItem(ctx, item, slot, shots)
		}(i, slot)
	}
	wg.Wait()
	return out, nil
}

// Forward performs write-then-read as one step.
func (c *Cell) Forward(ctx context.Context, vectors [][]float64, slots []int, shots int) ([][]float64, error) {
	if err := c.Write(ctx, vectors, slots); err != nil {
		return nil, err
	}
	slots, err := broadcastSlots(slots, len(vectors))
	if err != nil {
		return nil, err
	}
	return c.Read(ctx, slots, shots)
}

// readItem measures one slot and decodes the result. Any execution failure
// is swallowed into a fallback vector so the rest of the batch proceeds.
func (c *Cell) readItem(ctx context.Context, item, slot, shots int) []float64 {
	counts, err := c.measure(ctx, item, slot, shots)
	if err != nil {
		if errors.Is(err, ErrPollTimeout) {
			c.tracer.JobTimeout(item, slot, c.cfg.PollTimeout)
		}
		c.log.Warn().Int("item", item).Int("slot", slot).Err(err).Msg("read item failed")
		c.tracer.ItemFallback(item, slot, err)
		return c.fallbackVector()
	}

	probs := counts.Probabilities(c.cfg.NumQubits, shots)
	vector, err := c.decoder.Decode(probs)
	if err != nil {
		c.log.Warn().Int("item", item).Int("slot", slot).Err(err).Msg("decode failed")
		c.tracer.ItemFallback(item, slot, err)
		return c.fallbackVector()
	}
	return vector
}

// measure obtains measurement counts for one slot.
func (c *Cell) measure(ctx context.Context, item, slot, shots int) (Counts, error) {
	if c.cfg.Mode == ModeGPU {
		// A device is exclusively owned by its slot; items targeting the
		// same slot must not measure it concurrently.
		c.devMu[slot].Lock()
		defer c.devMu[slot].Unlock()

		dev, err := c.pool.Slot(slot)
		if err != nil {
			return nil, err
		}
		qubits := make([]int, c.cfg.NumQubits)
		for q := range qubits {
			qubits[q] = q
		}
		return dev.MeasureShots(qubits, shots)
	}

	blueprint := c.slots.Get(slot)
	if blueprint == nil {
		// Never-written slot: measure the all-zero state.
		c.log.Debug().Int("slot", slot).Msg("no blueprint for slot, measuring empty circuit")
		blueprint = NewCircuit(fmt.Sprintf("qmem-empty-s%d", slot), c.cfg.NumQubits)
	}

	job, err := c.runner.Run(ctx, blueprint.WithMeasurement(), shots)
	if err != nil {
		return nil, fmt.Errorf("submit item %d slot %d: %w", item, slot, err)
	}

	if c.cfg.Mode == ModeRemote {
		state, err := AwaitJob(ctx, job, c.cfg.PollInterval, c.cfg.PollTimeout)
		if err != nil {
			return nil, err
		}
		if state != JobDone {
			return nil, &JobFailedError{JobID: job.ID(), State: state}
		}
	}

	return job.Result(ctx)
}

// fallbackVector samples a standard-normal vector of the hidden size,
// substituted for a failed read item.
func (c *Cell) fallbackVector() []float64 {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	v := make([]float64, c.cfg.HiddenSize)
	for i := range v {
		v[i] = c.rng.NormFloat64()
	}
	return v
}

// Close releases backend resources. In gpu mode the device pool is released
// exactly once; further reads degrade to fallback vectors instead of
// touching freed devices. Close is idempotent and never panics.
func (c *Cell) Close() error {
	c.releaseOnce.Do(func() {
		c.released.Store(true)
		if c.pool != nil {
			if err := c.pool.Release(); err != nil {
				c.log.Warn().Err(err).Msg("device pool release reported errors")
			}
		}
	})
	return nil
}

// broadcastSlots expands a single slot index to the batch size and enforces
// length consistency.
func broadcastSlots(slots []int, batch int) ([]int, error) {
	if len(slots) == batch {
		return slots, nil
	}
	if len(slots) == 1 && batch > 1 {
		expanded := make([]int, batch)
		for i := range expanded {
			expanded[i] = slots[0]
		}
		return expanded, nil
	}
	return nil, fmt.Errorf("%w: %d vectors, %d slot indices", ErrBatchMismatch, batch, len(slots))
}
