// Package spike defines the immutable event that carries one time step's
// worth of binary spikes between layers of the network.
package spike

// Event is a single time-stamped slice of 0/1 spikes, carried on the
// channel between two layers (or between the input pre-processor and the
// first layer, or the last layer and the output post-processor). It is
// created once and never mutated after emission: equality on T does not
// imply equality of Spikes, and ordering between events on one channel is
// preserved by the channel itself, not by anything in this type.
type Event struct {
	T      uint64
	Spikes []uint8
}

// New constructs an Event. The caller retains no further claim on spikes;
// layers that need to keep a copy across time steps (Layer.prevOutput) do
// so explicitly.
func New(t uint64, spikes []uint8) Event {
	return Event{T: t, Spikes: spikes}
}

// AnyActive reports whether at least one spike in the event is 1, used to
// decide whether an all-zero event should be suppressed before being sent
// downstream.
func (e Event) AnyActive() bool {
	for _, s := range e.Spikes {
		if s == 1 {
			return true
		}
	}
	return false
}
