package qmem

import (
	"fmt"
	"strings"
)

// Axis identifies the rotation axis of a single-qubit gate.
type Axis byte

const (
	AxisY Axis = iota
	AxisZ
)

// String returns the OpenQASM gate name for the axis.
func (a Axis) String() string {
	switch a {
	case AxisY:
		return "ry"
	case AxisZ:
		return "rz"
	default:
		return fmt.Sprintf("axis(%d)", a)
	}
}

// Rotation is one single-qubit rotation operation in a blueprint.
type Rotation struct {
	Axis  Axis
	Angle float64 // radians
	Qubit int
}

// Circuit is an ordered list of rotations over one qubit register. A slot's
// stored blueprint is a Circuit without measurement; the read path derives a
// measurement circuit from it with WithMeasurement.
type Circuit struct {
	Name      string
	NumQubits int
	Ops       []Rotation

	// Measured marks a measure-all of every qubit into a classical register
	// of the same size, appended after Ops.
	Measured bool
}

// NewCircuit creates an empty blueprint over numQubits qubits.
func NewCircuit(name string, numQubits int) *Circuit {
	return &Circuit{Name: name, NumQubits: numQubits}
}

// Rotate appends a rotation to the blueprint.
func (c *Circuit) Rotate(axis Axis, angle float64, qubit int) {
	c.Ops = append(c.Ops, Rotation{Axis: axis, Angle: angle, Qubit: qubit})
}

// WithMeasurement returns a copy of the blueprint with a measure-all
// appended. The rotation list is copied verbatim; the register layout is
// identical by construction, so no operation remapping can occur.
func (c *Circuit) WithMeasurement() *Circuit {
	ops := make([]Rotation, len(c.Ops))
	copy(ops, c.Ops)
	return &Circuit{
		Name:      c.Name + "-meas",
		NumQubits: c.NumQubits,
		Ops:       ops,
		Measured:  true,
	}
}

// QASM renders the circuit as an OpenQASM 2.0 program. This is the wire
// format the remote backend submits.
func (c *Circuit) QASM() string {
	var b strings.Builder
	b.WriteString("OPENQASM 2.0;\n")
	b.WriteString("include \"qelib1.inc\";\n")
	fmt.Fprintf(&b, "qreg q[%d];\n", c.NumQubits)
	if c.Measured {
		fmt.Fprintf(&b, "creg c[%d];\n", c.NumQubits)
	}
	for _, op := range c.Ops {
		fmt.Fprintf(&b, "%s(%.17g) q[%d];\n", op.Axis, op.Angle, op.Qubit)
	}
	if c.Measured {
		for q := 0; q < c.NumQubits; q++ {
			fmt.Fprintf(&b, "measure q[%d] -> c[%d];\n", q, q)
		}
	}
	return b.String()
}
