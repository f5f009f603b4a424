package qmem_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/qmem-go-sdk/qmem"
)

func TestAngleEncoderEncodeDimensionsAndScaling(t *testing.T) {
	enc := qmem.NewAngleEncoder(3, 2, rand.New(rand.NewSource(1)))
	// Identity-like weights: theta_q = x[q], phi_q = x[q+1 mod 3].
	require.NoError(t, enc.SetWeights([]float64{
		1, 0, 0, // theta qubit 0
		0, 1, 0, // phi qubit 0
		0, 1, 0, // theta qubit 1
		0, 0, 1, // phi qubit 1
	}, nil))

	angles, err := enc.Encode([]float64{0.5, -0.25, 1})
	require.NoError(t, err)

	require.Len(t, angles, 2)
	assert.InDelta(t, 0.5*math.Pi, angles[0].Theta, 1e-12)
	assert.InDelta(t, -0.25*math.Pi, angles[0].Phi, 1e-12)
	assert.InDelta(t, -0.25*math.Pi, angles[1].Theta, 1e-12)
	assert.InDelta(t, 1*math.Pi, angles[1].Phi, 1e-12)
}

func TestAngleEncoderRejectsWrongWidth(t *testing.T) {
	enc := qmem.NewAngleEncoder(4, 2, rand.New(rand.NewSource(1)))

	_, err := enc.Encode([]float64{1, 2})
	assert.Error(t, err)
}

func TestAngleEncoderSetWeightsValidation(t *testing.T) {
	enc := qmem.NewAngleEncoder(2, 2, rand.New(rand.NewSource(1)))

	assert.Error(t, enc.SetWeights([]float64{1, 2, 3}, nil))
	assert.Error(t, enc.SetWeights(make([]float64, 8), []float64{1}))
	assert.NoError(t, enc.SetWeights(make([]float64, 8), make([]float64, 4)))
}

func TestProbabilityDecoderDeterministic(t *testing.T) {
	dec := qmem.NewProbabilityDecoder(2, 3, rand.New(rand.NewSource(42)))
	probs := []float64{0.5, 0.2}

	first, err := dec.Decode(probs)
	require.NoError(t, err)
	second, err := dec.Decode(probs)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestProbabilityDecoderKnownWeights(t *testing.T) {
	dec := qmem.NewProbabilityDecoder(2, 2, rand.New(rand.NewSource(1)))
	require.NoError(t, dec.SetWeights([]float64{
		1, 0,
		0, 2,
	}, []float64{0.5, -0.5}))

	out, err := dec.Decode([]float64{0.25, 0.75})
	require.NoError(t, err)

	assert.InDelta(t, 0.75, out[0], 1e-12)
	assert.InDelta(t, 1.0, out[1], 1e-12)
}

func TestProbabilityDecoderRejectsWrongWidth(t *testing.T) {
	dec := qmem.NewProbabilityDecoder(2, 3, rand.New(rand.NewSource(1)))

	_, err := dec.Decode([]float64{0.1})
	assert.Error(t, err)
}
