package campaign

import (
	"context"
	"testing"

	"github.com/SynapticNetworks/snn-resilience/fault"
	"github.com/SynapticNetworks/snn-resilience/network"
	"github.com/SynapticNetworks/snn-resilience/neuron"
)

func singleNeuronNetwork() *network.SNN {
	return network.NewBuilder(2).
		AddLayer(
			[]neuron.Neuron{neuron.NewLif(0.1, 0.05, 0.3, 1.0, 1.0)},
			[][]float64{{0.2, 0.3}},
			[][]float64{{0.0}},
		).Build()
}

func TestRunSimulation_TsStuckAt1AlwaysFailsTheReplicateWithoutAbortingTheCampaign(t *testing.T) {
	snn := singleNeuronNetwork()
	selection := UserSelection{
		Components:    []fault.ComponentType{fault.Ts},
		FaultType:     fault.StuckAt1,
		NumReplicates: 5,
		InputSequence: [][][]uint8{{{1, 0}, {0, 1}}},
	}
	outcomes := RunSimulation(context.Background(), snn, selection, []int{0}, 50)
	if len(outcomes) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(outcomes))
	}
	for i, o := range outcomes {
		if o.Err == nil {
			t.Fatalf("outcome %d: expected a WorkerPanic (t < ts at the first event), got accuracy %d", i, o.Accuracy)
		}
		if o.Fault.Component != fault.Ts {
			t.Fatalf("outcome %d: fault targeted %s, want Ts", i, o.Fault.Component)
		}
	}
}

func TestRunSimulation_StaticPreapplicationShortCircuitsOnUnchangedBit(t *testing.T) {
	// Some sampled bits of extra_weights[0][0]/[0][1] are already 0; a
	// StuckAt0 fault landing on one of those must short-circuit to the
	// baseline accuracy without running a single inference.
	snn := singleNeuronNetwork()
	selection := UserSelection{
		Components:    []fault.ComponentType{fault.Extra},
		FaultType:     fault.StuckAt0,
		NumReplicates: 20,
		InputSequence: [][][]uint8{{{1, 0}, {0, 1}}},
	}
	outcomes := RunSimulation(context.Background(), snn, selection, []int{0}, 77)
	for i, o := range outcomes {
		if o.Err != nil {
			t.Fatalf("outcome %d: unexpected replicate failure: %v", i, o.Err)
		}
		// A short-circuited replicate reports the baseline verbatim. A
		// replicate whose sampled bit was actually set runs the batch, and
		// with a single output neuron argmax always predicts class 0, so
		// the one-sample accuracy is 100 no matter what the fault did.
		if o.Accuracy != 77 && o.Accuracy != 100 {
			t.Fatalf("outcome %d: accuracy = %d, want 77 (short circuit) or 100", i, o.Accuracy)
		}
	}
}

func TestRunSimulation_ThresholdComparatorStuckAt1SingleOutputAccuracyFixedByTargets(t *testing.T) {
	snn := singleNeuronNetwork()
	selection := UserSelection{
		Components:    []fault.ComponentType{fault.ThresholdComparator},
		FaultType:     fault.StuckAt1,
		NumReplicates: 3,
		InputSequence: [][][]uint8{{{1, 0}, {0, 1}}, {{0, 1}, {1, 0}}},
	}
	outcomes := RunSimulation(context.Background(), snn, selection, []int{0, 1}, 50)
	for i, o := range outcomes {
		if o.Err != nil {
			t.Fatalf("outcome %d: unexpected error: %v", i, o.Err)
		}
		if o.Fault.Component != fault.ThresholdComparator {
			t.Fatalf("outcome %d: fault targeted %s, want ThresholdComparator", i, o.Fault.Component)
		}
		// With a single output neuron, argmax always predicts class 0
		// regardless of the fault, so accuracy is fixed by how many
		// targets are actually 0: one of two here.
		if o.Accuracy != 50 {
			t.Fatalf("outcome %d: accuracy = %d, want 50", i, o.Accuracy)
		}
	}
}

func TestRunSimulation_PanicsOnMalformedSelection(t *testing.T) {
	snn := singleNeuronNetwork()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on zero replicates")
		}
	}()
	RunSimulation(context.Background(), snn, UserSelection{
		Components:    []fault.ComponentType{fault.Extra},
		FaultType:     fault.StuckAt0,
		NumReplicates: 0,
		InputSequence: [][][]uint8{{{1, 0}}},
	}, []int{0}, 0)
}

func TestIsStaticallyPreapplicable(t *testing.T) {
	cases := []struct {
		ft   fault.Type
		ct   fault.ComponentType
		want bool
	}{
		{fault.StuckAt0, fault.Threshold, true},
		{fault.StuckAt1, fault.Extra, true},
		{fault.TransientBitFlip, fault.Threshold, false},
		{fault.StuckAt1, fault.Adder, false},
		{fault.StuckAt1, fault.ThresholdComparator, false},
	}
	for _, c := range cases {
		bit := 0
		var bitIndex *int
		if c.ct != fault.ThresholdComparator {
			bitIndex = &bit
		}
		f := fault.New(c.ft, faultTimeStep(c.ft), 0, c.ct, c.ct.Category(), 0, bitIndex)
		if got := isStaticallyPreapplicable(f); got != c.want {
			t.Fatalf("isStaticallyPreapplicable(%v, %v) = %v, want %v", c.ft, c.ct, got, c.want)
		}
	}
}

func faultTimeStep(ft fault.Type) *uint64 {
	if ft != fault.TransientBitFlip {
		return nil
	}
	ts := uint64(0)
	return &ts
}
