package qmem

// Counts is a histogram of observed measurement outcomes: bitstring of
// length numQubits -> number of shots that produced it. A well-behaved
// backend returns counts whose values sum to the requested shot count.
type Counts map[string]int

// Total returns the number of shots accounted for.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Probabilities converts counts into a per-qubit probability of observing 1.
//
// Bit q is read from the least-significant end of the bitstring: qubit 0 is
// the rightmost character. Every backend producing bitstrings must preserve
// this convention. Bitstrings whose length does not equal numQubits are
// ignored. shots <= 0 yields an all-zero vector, never NaN.
func (c Counts) Probabilities(numQubits, shots int) []float64 {
	probs := make([]float64, numQubits)
	if shots <= 0 {
		return probs
	}
	for bitstring, n := range c {
		if len(bitstring) != numQubits {
			continue
		}
		for q := 0; q < numQubits; q++ {
			if bitstring[numQubits-1-q] == '1' {
				probs[q] += float64(n)
			}
		}
	}
	for q := range probs {
		probs[q] /= float64(shots)
	}
	return probs
}
