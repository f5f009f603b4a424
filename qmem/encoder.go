package qmem

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Angle is one qubit's encoded rotation pair: RY(Theta) followed by
// RZ(Phi), both in radians.
type Angle struct {
	Theta float64
	Phi   float64
}

// AngleEncoder is a learned linear map from a hidden vector of width H to
// 2*Q rotation angles scaled into [-pi, pi]-equivalent range. Training
// happens outside this core; weights are settable.
type AngleEncoder struct {
	weights *mat.Dense    // (2*numQubits) x hiddenSize
	bias    *mat.VecDense // 2*numQubits

	hiddenSize int
	numQubits  int
}

// NewAngleEncoder creates an encoder with small random weights drawn from
// the given source.
func NewAngleEncoder(hiddenSize, numQubits int, rng *rand.Rand) *AngleEncoder {
	rows := 2 * numQubits
	return &AngleEncoder{
		weights:    randomDense(rows, hiddenSize, rng),
		bias:       mat.NewVecDense(rows, nil),
		hiddenSize: hiddenSize,
		numQubits:  numQubits,
	}
}

// SetWeights replaces the transform. w is row-major (2*numQubits) x
// hiddenSize; b has length 2*numQubits and may be nil for a zero bias.
func (e *AngleEncoder) SetWeights(w []float64, b []float64) error {
	rows := 2 * e.numQubits
	if len(w) != rows*e.hiddenSize {
		return fmt.Errorf("qmem: encoder weights must be %dx%d, got %d values", rows, e.hiddenSize, len(w))
	}
	if b != nil && len(b) != rows {
		return fmt.Errorf("qmem: encoder bias must have length %d, got %d", rows, len(b))
	}
	e.weights = mat.NewDense(rows, e.hiddenSize, w)
	if b == nil {
		e.bias = mat.NewVecDense(rows, nil)
	} else {
		e.bias = mat.NewVecDense(rows, b)
	}
	return nil
}

// Encode maps one hidden vector to numQubits (theta, phi) pairs, scaling the
// linear output by pi. Pure function of the weights and input.
func (e *AngleEncoder) Encode(hidden []float64) ([]Angle, error) {
	if len(hidden) != e.hiddenSize {
		return nil, fmt.Errorf("qmem: encode expects a vector of width %d, got %d", e.hiddenSize, len(hidden))
	}
	in := mat.NewVecDense(e.hiddenSize, hidden)
	out := mat.NewVecDense(2*e.numQubits, nil)
	out.MulVec(e.weights, in)
	out.AddVec(out, e.bias)

	angles := make([]Angle, e.numQubits)
	for q := 0; q < e.numQubits; q++ {
		angles[q] = Angle{
			Theta: out.AtVec(2*q) * math.Pi,
			Phi:   out.AtVec(2*q+1) * math.Pi,
		}
	}
	return angles, nil
}

// ProbabilityDecoder is a learned linear map from the per-qubit probability
// vector back to a hidden vector of width H.
type ProbabilityDecoder struct {
	weights *mat.Dense    // hiddenSize x numQubits
	bias    *mat.VecDense // hiddenSize

	hiddenSize int
	numQubits  int
}

// NewProbabilityDecoder creates a decoder with small random weights drawn
// from the given source.
func NewProbabilityDecoder(numQubits, hiddenSize int, rng *rand.Rand) *ProbabilityDecoder {
	return &ProbabilityDecoder{
		weights:    randomDense(hiddenSize, numQubits, rng),
		bias:       mat.NewVecDense(hiddenSize, nil),
		hiddenSize: hiddenSize,
		numQubits:  numQubits,
	}
}

// SetWeights replaces the transform. w is row-major hiddenSize x numQubits;
// b has length hiddenSize and may be nil for a zero bias.
func (d *ProbabilityDecoder) SetWeights(w []float64, b []float64) error {
	if len(w) != d.hiddenSize*d.numQubits {
		return fmt.Errorf("qmem: decoder weights must be %dx%d, got %d values", d.hiddenSize, d.numQubits, len(w))
	}
	if b != nil && len(b) != d.hiddenSize {
		return fmt.Errorf("qmem: decoder bias must have length %d, got %d", d.hiddenSize, len(b))
	}
	d.weights = mat.NewDense(d.hiddenSize, d.numQubits, w)
	if b == nil {
		d.bias = mat.NewVecDense(d.hiddenSize, nil)
	} else {
		d.bias = mat.NewVecDense(d.hiddenSize, b)
	}
	return nil
}

// Decode maps a per-qubit probability vector to a hidden vector.
// Deterministic given fixed weights and input.
func (d *ProbabilityDecoder) Decode(probs []float64) ([]float64, error) {
	if len(probs) != d.numQubits {
		return nil, fmt.Errorf("qmem: decode expects %d probabilities, got %d", d.numQubits, len(probs))
	}
	in := mat.NewVecDense(d.numQubits, probs)
	result := mat.NewVecDense(d.hiddenSize, nil)
	result.MulVec(d.weights, in)
	result.AddVec(result, d.bias)

	out := make([]float64, d.hiddenSize)
	copy(out, result.RawVector().Data)
	return out, nil
}

// randomDense fills a rows x cols matrix with values drawn uniformly from
// [-1/sqrt(cols), 1/sqrt(cols)], the usual linear-layer initialization.
func randomDense(rows, cols int, rng *rand.Rand) *mat.Dense {
	bound := 1.0 / math.Sqrt(float64(cols))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = (2*rng.Float64() - 1) * bound
	}
	return mat.NewDense(rows, cols, data)
}
