//go:build cuda

package gpu

/*
#cgo LDFLAGS: -lcustatevec -lcudart
#include <stdlib.h>
#include <cuda_runtime_api.h>
#include <custatevec.h>
*/
import "C"

import (
	"fmt"
	"math/rand"
	"unsafe"

	"github.com/becomeliminal/qmem-go-sdk/qmem"
)

// cudaDevice is one slot's statevector held in GPU memory, driven through
// cuStateVec. Exclusive ownership by the slot index is assumed; none of the
// methods lock.
type cudaDevice struct {
	handle    C.custatevecHandle_t
	sv        unsafe.Pointer // device-side complex128 array, 2^numQubits
	numQubits int
}

// openNativeDevice allocates a device statevector and a cuStateVec handle.
func openNativeDevice(numQubits int) (Device, error) {
	d := &cudaDevice{numQubits: numQubits}

	if status := C.custatevecCreate(&d.handle); status != C.CUSTATEVEC_STATUS_SUCCESS {
		return nil, fmt.Errorf("gpu: custatevecCreate: status %d", int(status))
	}

	size := C.size_t(16) << numQubits // complex128 amplitudes
	if rc := C.cudaMalloc(&d.sv, size); rc != C.cudaSuccess {
		C.custatevecDestroy(d.handle)
		return nil, fmt.Errorf("gpu: cudaMalloc(%d bytes): %s", size, C.GoString(C.cudaGetErrorString(rc)))
	}

	if err := d.Reset(); err != nil {
		d.Release()
		return nil, err
	}
	return d, nil
}

// Reset writes the all-zero basis state |0...0>.
func (d *cudaDevice) Reset() error {
	status := C.custatevecInitializeStateVector(
		d.handle, d.sv, C.CUDA_C_64F, C.uint32_t(d.numQubits),
		C.CUSTATEVEC_STATE_VECTOR_TYPE_ZERO)
	if status != C.CUSTATEVEC_STATUS_SUCCESS {
		return fmt.Errorf("gpu: initialize state vector: status %d", int(status))
	}
	return nil
}

// ApplyRotation applies RY or RZ on one qubit. RY(a) = exp(-i a Y / 2), so
// the Pauli rotation angle passed to cuStateVec is -a.
func (d *cudaDevice) ApplyRotation(axis qmem.Axis, angle float64, qubit int) error {
	if qubit < 0 || qubit >= d.numQubits {
		return fmt.Errorf("gpu: qubit %d out of range [0, %d)", qubit, d.numQubits)
	}

	var pauli C.custatevecPauli_t
	switch axis {
	case qmem.AxisY:
		pauli = C.CUSTATEVEC_PAULI_Y
	case qmem.AxisZ:
		pauli = C.CUSTATEVEC_PAULI_Z
	default:
		return fmt.Errorf("gpu: unsupported rotation axis %v", axis)
	}

	target := C.int32_t(qubit)
	status := C.custatevecApplyPauliRotation(
		d.handle, d.sv, C.CUDA_C_64F, C.uint32_t(d.numQubits),
		C.double(-angle), &pauli, &target, 1,
		nil, nil, 0)
	if status != C.CUSTATEVEC_STATUS_SUCCESS {
		return fmt.Errorf("gpu: apply %s(%g) on qubit %d: status %d", axis, angle, qubit, int(status))
	}
	return nil
}

// MeasureShots samples the given qubits shots times without collapsing the
// stored state.
func (d *cudaDevice) MeasureShots(qubits []int, shots int) (qmem.Counts, error) {
	counts := make(qmem.Counts)
	if shots <= 0 || len(qubits) == 0 {
		return counts, nil
	}

	var sampler C.custatevecSamplerDescriptor_t
	var extraSize C.size_t
	status := C.custatevecSamplerCreate(
		d.handle, d.sv, C.CUDA_C_64F, C.uint32_t(d.numQubits),
		&sampler, C.uint32_t(shots), &extraSize)
	if status != C.CUSTATEVEC_STATUS_SUCCESS {
		return nil, fmt.Errorf("gpu: sampler create: status %d", int(status))
	}
	defer C.custatevecSamplerDestroy(sampler)

	var extra unsafe.Pointer
	if extraSize > 0 {
		if rc := C.cudaMalloc(&extra, extraSize); rc != C.cudaSuccess {
			return nil, fmt.Errorf("gpu: sampler workspace: %s", C.GoString(C.cudaGetErrorString(rc)))
		}
		defer C.cudaFree(extra)
	}

	if status := C.custatevecSamplerPreprocess(d.handle, sampler, extra, extraSize); status != C.CUSTATEVEC_STATUS_SUCCESS {
		return nil, fmt.Errorf("gpu: sampler preprocess: status %d", int(status))
	}

	bitOrdering := make([]C.int32_t, len(qubits))
	for i, q := range qubits {
		bitOrdering[i] = C.int32_t(q)
	}
	randnums := make([]C.double, shots)
	for i := range randnums {
		randnums[i] = C.double(rand.Float64())
	}

	bitStrings := make([]C.custatevecIndex_t, shots)
	status = C.custatevecSamplerSample(
		d.handle, sampler,
		&bitStrings[0], &bitOrdering[0], C.uint32_t(len(qubits)),
		&randnums[0], C.uint32_t(shots),
		C.CUSTATEVEC_SAMPLER_OUTPUT_RANDNUM_ORDER)
	if status != C.CUSTATEVEC_STATUS_SUCCESS {
		return nil, fmt.Errorf("gpu: sampler sample: status %d", int(status))
	}

	n := len(qubits)
	for _, bits := range bitStrings {
		counts[fmt.Sprintf("%0*b", n, uint64(bits))]++
	}
	return counts, nil
}

// Release frees the statevector and handle. Safe on a partially opened
// device.
func (d *cudaDevice) Release() error {
	if d.sv != nil {
		C.cudaFree(d.sv)
		d.sv = nil
	}
	if d.handle != nil {
		C.custatevecDestroy(d.handle)
		d.handle = nil
	}
	return nil
}
