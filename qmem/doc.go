// Package qmem provides a quantum memory cell for hybrid neural networks.
//
// Content is stored by encoding a classical hidden vector into per-qubit
// rotation angles, writing those rotations into an addressable memory slot,
// and recalled by measuring the slot's quantum state and decoding the
// observed outcome probabilities back into a hidden vector.
//
// Architecture:
//   - AngleEncoder / ProbabilityDecoder: learned linear maps between hidden
//     vectors and rotation angles / measurement probabilities
//   - SlotStore: fixed-depth array of circuit blueprints, one per slot
//   - Cell: orchestrates batched write (encode -> store) and read
//     (assemble -> execute -> poll -> decode) with per-item failure isolation
//   - Runner / DevicePool: narrow capability contracts implemented by the
//     backend adapters
//
// Backends (see qmem/backend):
//   - sim: pure-Go statevector simulator, synchronous
//   - gpu: one native simulator device per slot, state held on the device
//   - remote: job-queue client for a hosted quantum processor, asynchronous
//     with status polling and a bounded wait
//
// The cell is availability-biased on the read path: a failure executing one
// batch item is logged, reported through the Tracer, and replaced with a
// randomly sampled vector of the correct width so the rest of the batch is
// unaffected. Construction failures, in contrast, surface immediately.
package qmem
