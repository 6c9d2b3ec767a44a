package neuron

import (
	"fmt"
	"math"

	"github.com/SynapticNetworks/snn-resilience/fault"
)

// ErrTimeTravel is the panic value raised when a neuron is asked to process
// a time step earlier than its own last-update counter. This only happens
// when a Ts (last-update-time) fault corrupts that counter into the future,
// making a later, legitimate time step look like it travelled backwards.
// The layer worker's recover turns it into a failed replicate rather than
// a crashed campaign.
type ErrTimeTravel struct {
	Ts, T uint64
}

func (e ErrTimeTravel) Error() string {
	return fmt.Sprintf("neuron: time step %d precedes last update %d", e.T, e.Ts)
}

// Lif is a leaky integrate-and-fire neuron. All five of its shaping
// parameters (reset/resting potential, threshold, tau, dt) are ordinary
// f64 fields rather than immutable constants, because each is an
// individually targetable memory area in the fault model.
type Lif struct {
	resetPotential    float64
	restingPotential  float64
	threshold         float64
	tau               float64
	dt                float64
	membranePotential float64
	ts                uint64
}

// NewLif constructs a Lif neuron. The membrane potential starts at the
// resting potential and ts starts at 0, exactly what Initialize() also
// resets it to, so NewLif delegates to it.
func NewLif(resetPotential, restingPotential, threshold, tau, dt float64) *Lif {
	n := &Lif{
		resetPotential:   resetPotential,
		restingPotential: restingPotential,
		threshold:        threshold,
		tau:              tau,
		dt:               dt,
	}
	n.Initialize()
	return n
}

// Initialize resets the neuron to its power-on state.
func (n *Lif) Initialize() {
	n.membranePotential = n.restingPotential
	n.ts = 0
}

// Getters, used by tests and by the campaign simulator's reporting.
func (n *Lif) ResetPotential() float64     { return n.resetPotential }
func (n *Lif) RestingPotential() float64   { return n.restingPotential }
func (n *Lif) ThresholdPotential() float64 { return n.threshold }
func (n *Lif) MembranePotential() float64  { return n.membranePotential }
func (n *Lif) Tau() float64                { return n.tau }
func (n *Lif) DT() float64                 { return n.dt }
func (n *Lif) Ts() uint64                  { return n.ts }

// ProcessInput computes the membrane potential update for time step t given
// the already-accumulated weighted sum of this step's inputs, applies any
// targeted fault, and returns the resulting spike (0 or 1).
//
// Update order:
//  1. Read the neuron's parameters, diverting them through the fault if a
//     MemoryArea fault targets this neuron.
//  2. Apply an Adder/Multiplier fault to the incoming weighted sum, if any.
//  3. delta = (t - ts) * dt; v = resting + (v_prev - resting)*exp(-delta/tau) + weightedSum.
//  4. Apply a MembranePotential fault to the value about to be stored.
//  5. Write back membranePotential and ts.
//  6. Spike iff v > threshold; on spike, reset membranePotential to reset_potential.
//  7. Apply a ThresholdComparator fault to the spike decision, if any.
func (n *Lif) ProcessInput(t uint64, weightedSum float64, f *fault.Injected) uint8 {
	resetPotential, restingPotential, threshold, membranePotential, tau, dt, ts := n.readMemoryAreas(f, t)

	if f != nil && (f.Component == fault.Adder || f.Component == fault.Multiplier) {
		weightedSum = f.ApplyFloat64(weightedSum, t)
	}

	if t < ts {
		panic(ErrTimeTravel{Ts: ts, T: t})
	}
	delta := float64(t-ts) * dt
	v := restingPotential + (membranePotential-restingPotential)*math.Exp(-delta/tau) + weightedSum

	if f != nil && f.Component == fault.MembranePotential {
		n.membranePotential = f.ApplyFloat64(v, t)
	} else {
		n.membranePotential = v
	}
	n.ts = t

	var spike uint8
	if n.membranePotential > threshold {
		n.membranePotential = resetPotential
		spike = 1
	} else {
		spike = 0
	}

	if f != nil && f.Component == fault.ThresholdComparator {
		spike = f.ApplySpike(spike, t)
	}

	return spike
}

// readMemoryAreas returns local copies of the neuron's parameters, routing
// the targeted one through the fault if a MemoryArea fault is active. This
// keeps the neuron's persisted fields untouched by non-transient faults
// except for membranePotential/ts, which are always written through: the
// fault forces a bit on each read, it never soils the stored parameter.
func (n *Lif) readMemoryAreas(f *fault.Injected, t uint64) (resetPotential, restingPotential, threshold, membranePotential, tau, dt float64, ts uint64) {
	resetPotential = n.resetPotential
	restingPotential = n.restingPotential
	threshold = n.threshold
	membranePotential = n.membranePotential
	tau = n.tau
	dt = n.dt
	ts = n.ts

	if f == nil || f.Category != fault.MemoryArea {
		return
	}
	switch f.Component {
	case fault.ResetPotential:
		resetPotential = f.ApplyFloat64(resetPotential, t)
	case fault.RestingPotential:
		restingPotential = f.ApplyFloat64(restingPotential, t)
	case fault.Threshold:
		threshold = f.ApplyFloat64(threshold, t)
	case fault.MembranePotential:
		membranePotential = f.ApplyFloat64(membranePotential, t)
	case fault.Tau:
		tau = f.ApplyFloat64(tau, t)
	case fault.DT:
		dt = f.ApplyFloat64(dt, t)
	case fault.Ts:
		ts = f.ApplyUint64(ts, t)
	}
	return
}

// ParameterPointer returns the live storage location for one of the
// neuron's f64 fields: a static parameter, used by the campaign simulator
// to pre-apply a stuck-at fault once to a cloned network, or the membrane
// potential. It panics for every other component type.
func (n *Lif) ParameterPointer(component fault.ComponentType) *float64 {
	switch component {
	case fault.ResetPotential:
		return &n.resetPotential
	case fault.RestingPotential:
		return &n.restingPotential
	case fault.Threshold:
		return &n.threshold
	case fault.MembranePotential:
		return &n.membranePotential
	case fault.Tau:
		return &n.tau
	case fault.DT:
		return &n.dt
	default:
		panic(fmt.Sprintf("neuron: component type %s is not a faultable LIF parameter", component))
	}
}

// Clone returns an independent copy of the neuron.
func (n *Lif) Clone() Neuron {
	c := *n
	return &c
}
