// Package neuron implements the leaky integrate-and-fire (LIF) neuron model
// that every layer of the simulated network is built from.
//
// A LIF neuron integrates weighted input over time with exponential decay
// toward a resting potential, and emits an all-or-nothing spike the instant
// its membrane potential crosses a threshold. The unit here has a single,
// fixed parameter set per instance and is driven synchronously by its
// owning layer one time step at a time — there is no goroutine and no
// channel inside a Neuron itself; concurrency lives one level up, in the
// layer/network pipeline.
package neuron

import "github.com/SynapticNetworks/snn-resilience/fault"

// Neuron is the capability set a layer depends on, so a layer can be built
// generically over any single-time-step spiking unit. The only
// implementation in this module is Lif, but the interface keeps the layer
// package decoupled from it.
type Neuron interface {
	// ProcessInput advances the neuron by one time step, given the
	// pre-summed weighted input for that step and an optional fault to
	// apply while computing this step's result. It returns 1 if the
	// neuron spikes, 0 otherwise.
	ProcessInput(t uint64, weightedSum float64, f *fault.Injected) uint8
	// Initialize resets the neuron to its power-on state: membrane
	// potential at resting potential, last-update time step at 0.
	Initialize()
	// ParameterPointer returns a pointer to the live storage location for
	// one of the neuron's f64 fields (its static parameters or its membrane
	// potential), so the campaign simulator's pre-application optimisation
	// can fault a static parameter in place. It panics for component types
	// that are not one of the neuron's f64 fields.
	ParameterPointer(component fault.ComponentType) *float64
	// Clone returns a deep, independent copy of the neuron, used when a
	// campaign replicate clones the whole network.
	Clone() Neuron
}
