package layer

import (
	"testing"

	"github.com/SynapticNetworks/snn-resilience/fault"
	"github.com/SynapticNetworks/snn-resilience/neuron"
	"github.com/SynapticNetworks/snn-resilience/spike"
)

func threeNeuronLayer() *Layer {
	neurons := []neuron.Neuron{
		neuron.NewLif(0.0, 0.0, 0.3, 1.0, 1.0),
		neuron.NewLif(0.0, 0.0, 0.3, 1.0, 1.0),
		neuron.NewLif(0.0, 0.0, 0.3, 1.0, 1.0),
	}
	extra := [][]float64{
		{1.0, 0.0, 0.0},
		{0.0, 1.0, 0.0},
		{0.0, 0.0, 1.0},
	}
	intra := [][]float64{
		{0.0, 0.0, 0.0},
		{0.0, 0.0, 0.0},
		{0.0, 0.0, 0.0},
	}
	return New(neurons, extra, intra)
}

func runLayer(t *testing.T, l *Layer, events []spike.Event, f *fault.Injected) []spike.Event {
	t.Helper()
	in := make(chan spike.Event, len(events))
	out := make(chan spike.Event, len(events))
	for _, e := range events {
		in <- e
	}
	close(in)

	done := make(chan struct{})
	go func() {
		l.ProcessInput(in, out, f)
		close(done)
	}()

	var got []spike.Event
	for e := range out {
		got = append(got, e)
	}
	<-done
	return got
}

func TestNew_PanicsOnShapeMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic constructing a layer with mismatched weight rows")
		}
	}()
	New([]neuron.Neuron{neuron.NewLif(0, 0, 0.3, 1, 1)}, [][]float64{{1}, {1}}, [][]float64{{0}})
}

func TestProcessInput_IdentityExtraWeightsNoIntra(t *testing.T) {
	l := threeNeuronLayer()
	events := []spike.Event{
		spike.New(0, []uint8{1, 0, 0}),
		spike.New(1, []uint8{0, 1, 1}),
	}
	out := runLayer(t, l, events, nil)
	if len(out) != 2 {
		t.Fatalf("expected 2 output events, got %d", len(out))
	}
	if out[0].Spikes[0] != 1 || out[0].Spikes[1] != 0 || out[0].Spikes[2] != 0 {
		t.Fatalf("unexpected event 0 spikes: %v", out[0].Spikes)
	}
	if out[1].Spikes[0] != 0 || out[1].Spikes[1] != 1 || out[1].Spikes[2] != 1 {
		t.Fatalf("unexpected event 1 spikes: %v", out[1].Spikes)
	}
}

func TestProcessInput_AllZeroEventsSuppressed(t *testing.T) {
	l := threeNeuronLayer()
	events := []spike.Event{spike.New(0, []uint8{0, 0, 0})}
	out := runLayer(t, l, events, nil)
	if len(out) != 0 {
		t.Fatalf("expected all-zero event to be suppressed, got %d events", len(out))
	}
}

func TestProcessInput_ThresholdComparatorFaultAppliedToTargetedNeuronOnly(t *testing.T) {
	l := threeNeuronLayer()
	bf := fault.New(fault.StuckAt1, nil, 0, fault.ThresholdComparator, fault.InternalProcessingBlock, 1, nil)
	events := []spike.Event{spike.New(0, []uint8{0, 0, 0})}
	out := runLayer(t, l, events, &bf)
	if len(out) != 1 {
		t.Fatalf("expected one event once neuron 1 is forced to fire, got %d", len(out))
	}
	if out[0].Spikes[0] != 0 || out[0].Spikes[1] != 1 || out[0].Spikes[2] != 0 {
		t.Fatalf("unexpected spikes: %v", out[0].Spikes)
	}
}

func TestFaultInComponent_StuckAt1OnAlreadySetBitShortCircuits(t *testing.T) {
	l := threeNeuronLayer()
	bit := 52 // extra_weights[0][0] = 1.0 already has this exponent bit set
	f := fault.New(fault.StuckAt1, nil, 0, fault.Extra, fault.Connection, 0, &bit)
	if unchanged := l.FaultInComponent(&f); !unchanged {
		t.Fatalf("expected bit to already be set (short circuit), got changed")
	}
}

func TestFaultInComponent_MutatesWeightMatrixInPlace(t *testing.T) {
	l := threeNeuronLayer()
	bit := 63 // sign bit of extra_weights[0][0] = 1.0
	f := fault.New(fault.StuckAt1, nil, 0, fault.Extra, fault.Connection, 0, &bit)
	if unchanged := l.FaultInComponent(&f); unchanged {
		t.Fatalf("expected the sign bit flip to change the stored weight")
	}
	if l.ExtraWeights[0][0] >= 0 {
		t.Fatalf("expected extra_weights[0][0] to be negative after the fault, got %v", l.ExtraWeights[0][0])
	}
}

func TestClone_IndependentWeights(t *testing.T) {
	l := threeNeuronLayer()
	c := l.Clone()
	c.ExtraWeights[0][0] = 99
	if l.ExtraWeights[0][0] == 99 {
		t.Fatalf("mutating the clone's weights affected the original")
	}
}

func TestNumComponents(t *testing.T) {
	l := threeNeuronLayer()
	if got := l.NumComponents(fault.Extra); got != 9 {
		t.Fatalf("NumComponents(Extra) = %d, want 9", got)
	}
	if got := l.NumComponents(fault.Intra); got != 9 {
		t.Fatalf("NumComponents(Intra) = %d, want 9", got)
	}
	if got := l.NumComponents(fault.Threshold); got != 3 {
		t.Fatalf("NumComponents(Threshold) = %d, want 3", got)
	}
}
