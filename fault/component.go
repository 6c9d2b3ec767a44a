// Package fault models single-bit hardware faults injected into a running
// spiking neural network: where a fault lives (layer, component kind,
// component index, bit index), when it fires (always, for stuck-at faults;
// a single time step, for a transient bit-flip), and how it perturbs a
// value (forcing a bit to 0, forcing it to 1, or inverting it).
//
// The taxonomy mirrors the three places a single stuck/flipped bit can hide
// in this kind of accelerator: the wires between neurons (Connection), the
// registers holding a neuron's numeric state (MemoryArea), and the
// arithmetic/decision hardware a neuron's update rule is built from
// (InternalProcessingBlock).
package fault

import "fmt"

// ComponentCategory groups the fine-grained ComponentType values into the
// three structural places a fault can be injected.
type ComponentCategory int

const (
	// Connection faults target a single entry of a layer's weight matrix
	// (extra_weights or intra_weights), before it is read for a multiply.
	Connection ComponentCategory = iota
	// MemoryArea faults target one of a neuron's persisted f64/u64 fields.
	MemoryArea
	// InternalProcessingBlock faults target the adder, multiplier, or
	// threshold comparator a neuron's update rule is built from.
	InternalProcessingBlock
)

func (c ComponentCategory) String() string {
	switch c {
	case Connection:
		return "Connection"
	case MemoryArea:
		return "MemoryArea"
	case InternalProcessingBlock:
		return "InternalProcessingBlock"
	default:
		return "Unknown"
	}
}

// ComponentType is a stable identifier for one kind of faultable component,
// used both to locate a fault at injection time and to drive the campaign
// simulator's random-component sampling.
type ComponentType int

const (
	// Extra is the inter-layer connection weight: previous layer -> this layer.
	Extra ComponentType = iota
	// Intra is the lateral (same-layer, inhibitory) connection weight.
	Intra
	// ResetPotential is the LIF v_reset parameter.
	ResetPotential
	// RestingPotential is the LIF v_rest parameter.
	RestingPotential
	// Threshold is the LIF v_th parameter.
	Threshold
	// MembranePotential is the LIF v_mem state register.
	MembranePotential
	// Tau is the LIF membrane time constant.
	Tau
	// Ts is the LIF "last update time step" counter (a u64, not an f64).
	Ts
	// DT is the LIF quantization/time-step-duration parameter.
	DT
	// Adder is the internal processing block that sums extra+intra inputs.
	Adder
	// Multiplier is the internal processing block performing weight*spike.
	Multiplier
	// ThresholdComparator is the internal processing block deciding
	// whether the membrane potential crosses the firing threshold. It is
	// a single-bit (boolean spike) component: it has no bit index.
	ThresholdComparator
)

func (t ComponentType) String() string {
	switch t {
	case Extra:
		return "Extra"
	case Intra:
		return "Intra"
	case ResetPotential:
		return "ResetPotential"
	case RestingPotential:
		return "RestingPotential"
	case Threshold:
		return "Threshold"
	case MembranePotential:
		return "MembranePotential"
	case Tau:
		return "Tau"
	case Ts:
		return "Ts"
	case DT:
		return "DT"
	case Adder:
		return "Adder"
	case Multiplier:
		return "Multiplier"
	case ThresholdComparator:
		return "ThresholdComparator"
	default:
		return "Unknown"
	}
}

// Category classifies a ComponentType into its structural ComponentCategory.
func (t ComponentType) Category() ComponentCategory {
	switch t {
	case Extra, Intra:
		return Connection
	case Adder, Multiplier, ThresholdComparator:
		return InternalProcessingBlock
	default:
		return MemoryArea
	}
}

// IsStatic reports whether a component's value is time-invariant across an
// inference, i.e. whether a stuck-at fault on it can be pre-applied once to
// a cloned network instead of being checked on every access.
func (t ComponentType) IsStatic() bool {
	switch t {
	case Extra, Intra, ResetPotential, RestingPotential, Threshold, Tau, DT:
		return true
	default:
		return false
	}
}

// ParseComponentType resolves a ComponentType from its String() form, for
// CLI flags and config-driven component selection.
func ParseComponentType(s string) (ComponentType, error) {
	switch s {
	case "Extra":
		return Extra, nil
	case "Intra":
		return Intra, nil
	case "ResetPotential":
		return ResetPotential, nil
	case "RestingPotential":
		return RestingPotential, nil
	case "Threshold":
		return Threshold, nil
	case "MembranePotential":
		return MembranePotential, nil
	case "Tau":
		return Tau, nil
	case "Ts":
		return Ts, nil
	case "DT":
		return DT, nil
	case "Adder":
		return Adder, nil
	case "Multiplier":
		return Multiplier, nil
	case "ThresholdComparator":
		return ThresholdComparator, nil
	default:
		return 0, fmt.Errorf("fault: unknown component type %q", s)
	}
}
