package sim

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"sort"

	"github.com/becomeliminal/qmem-go-sdk/qmem"
)

// stateVector holds 2^n complex amplitudes for n qubits. Qubit q maps to bit
// 1<<q of the basis-state index, so the rendered bitstring has qubit 0 as
// its rightmost character.
type stateVector struct {
	amps      []complex128
	numQubits int
}

func newStateVector(numQubits int) *stateVector {
	amps := make([]complex128, 1<<numQubits)
	amps[0] = 1
	return &stateVector{amps: amps, numQubits: numQubits}
}

func (s *stateVector) reset() {
	for i := range s.amps {
		s.amps[i] = 0
	}
	s.amps[0] = 1
}

func (s *stateVector) apply(op qmem.Rotation) error {
	if op.Qubit < 0 || op.Qubit >= s.numQubits {
		return fmt.Errorf("sim: qubit %d out of range [0, %d)", op.Qubit, s.numQubits)
	}
	switch op.Axis {
	case qmem.AxisY:
		s.applyRY(op.Qubit, op.Angle)
	case qmem.AxisZ:
		s.applyRZ(op.Qubit, op.Angle)
	default:
		return fmt.Errorf("sim: unsupported rotation axis %v", op.Axis)
	}
	return nil
}

func (s *stateVector) applyRY(q int, theta float64) {
	cos := complex(math.Cos(theta/2), 0)
	sin := complex(math.Sin(theta/2), 0)
	bit := 1 << q
	for i := range s.amps {
		if i&bit == 0 {
			j := i | bit
			a0, a1 := s.amps[i], s.amps[j]
			s.amps[i] = cos*a0 - sin*a1
			s.amps[j] = sin*a0 + cos*a1
		}
	}
}

func (s *stateVector) applyRZ(q int, phi float64) {
	neg := cmplx.Exp(complex(0, -phi/2))
	pos := cmplx.Exp(complex(0, phi/2))
	bit := 1 << q
	for i := range s.amps {
		if i&bit == 0 {
			s.amps[i] *= neg
		} else {
			s.amps[i] *= pos
		}
	}
}

// sample draws shots basis states from the state's outcome distribution and
// returns them as a counts histogram keyed by bitstring.
func (s *stateVector) sample(shots int, rng *rand.Rand) qmem.Counts {
	counts := make(qmem.Counts)
	if shots <= 0 {
		return counts
	}

	cumulative := make([]float64, len(s.amps))
	total := 0.0
	for i, a := range s.amps {
		total += real(a)*real(a) + imag(a)*imag(a)
		cumulative[i] = total
	}

	for shot := 0; shot < shots; shot++ {
		r := rng.Float64() * total
		idx := sort.SearchFloat64s(cumulative, r)
		if idx >= len(s.amps) {
			idx = len(s.amps) - 1
		}
		counts[fmt.Sprintf("%0*b", s.numQubits, idx)]++
	}
	return counts
}
