// Package campaign drives a fault-injection resilience campaign: it samples
// a random fault per replicate, runs a batch of inferences on a cloned
// network with that fault active, and reports the resulting accuracy
// alongside the fault descriptor that produced it.
package campaign

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/SynapticNetworks/snn-resilience/accuracy"
	"github.com/SynapticNetworks/snn-resilience/fault"
	"github.com/SynapticNetworks/snn-resilience/network"
	"golang.org/x/sync/errgroup"
)

// UserSelection is the immutable campaign input: which component kinds are
// eligible fault targets, which single fault model to sample from, how many
// independent replicates to run, and the batch of input spike trains every
// replicate runs through its cloned network.
type UserSelection struct {
	Components    []fault.ComponentType
	FaultType     fault.Type
	NumReplicates int
	InputSequence [][][]uint8 // [sample][input neuron][time step]
}

// Outcome is one replicate's result: the fault that was sampled for it, and
// either the resulting accuracy or the error recovered from a panicking
// inference (Err != nil signals a WorkerPanic — the replicate is recorded
// as failed, the campaign itself does not abort).
type Outcome struct {
	Fault    fault.Injected
	Accuracy int
	Err      error
}

// RunSimulation spawns one independent goroutine per replicate, each owning
// a clone of snn. It panics if the selection itself is malformed (no
// components, no replicates, or an empty input batch) — those are
// programmer errors, not per-replicate failures.
func RunSimulation(ctx context.Context, snn *network.SNN, selection UserSelection, targets []int, baselineAccuracy int) []Outcome {
	if selection.NumReplicates <= 0 {
		panic("campaign: NumReplicates must be positive")
	}
	if len(selection.Components) == 0 {
		panic("campaign: at least one component type must be selected")
	}
	if len(selection.InputSequence) == 0 || len(selection.InputSequence[0]) == 0 || len(selection.InputSequence[0][0]) == 0 {
		panic("campaign: input sequence must contain at least one non-empty sample")
	}

	timeSteps := len(selection.InputSequence[0][0])
	outcomes := make([]Outcome, selection.NumReplicates)

	g, gctx := errgroup.WithContext(ctx)
	for r := 0; r < selection.NumReplicates; r++ {
		r := r
		g.Go(func() error {
			outcomes[r] = runReplicate(gctx, snn, selection, targets, baselineAccuracy, timeSteps)
			return nil
		})
	}
	_ = g.Wait() // replicate workers never return a non-nil error; failures live in Outcome.Err

	return outcomes
}

func runReplicate(ctx context.Context, snn *network.SNN, selection UserSelection, targets []int, baselineAccuracy, timeSteps int) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("campaign: replicate panicked: %v", r)
		}
	}()

	clone := snn.Clone()
	f := sampleFault(clone, selection, timeSteps)
	outcome.Fault = f

	if isStaticallyPreapplicable(f) {
		l := clone.GetLayer(f.LayerIndex)
		if unchanged := l.FaultInComponent(&f); unchanged {
			outcome.Accuracy = baselineAccuracy
			return outcome
		}
		outcome.Accuracy = runBatch(ctx, clone, selection.InputSequence, targets, nil)
		return outcome
	}

	outcome.Accuracy = runBatch(ctx, clone, selection.InputSequence, targets, &f)
	return outcome
}

// isStaticallyPreapplicable reports whether f can be baked into a cloned
// network once, up front, instead of being checked on every access during
// the batch: only stuck-at faults on a time-invariant component.
func isStaticallyPreapplicable(f fault.Injected) bool {
	return (f.FaultType == fault.StuckAt0 || f.FaultType == fault.StuckAt1) && f.Component.IsStatic()
}

func runBatch(ctx context.Context, snn *network.SNN, batch [][][]uint8, targets []int, f *fault.Injected) int {
	predictions := make([]int, len(batch))
	for i, sample := range batch {
		out, err := snn.ProcessInput(ctx, sample, f)
		if err != nil {
			panic(err)
		}
		predictions[i] = accuracy.ArgmaxOverTime(out)
	}
	return accuracy.Accuracy(predictions, targets)
}

// sampleFault draws a fault uniformly from the selection's eligible
// component types, a uniformly random layer, a uniformly random component
// within that layer/type, a uniformly random bit (unless the component is
// the single-bit ThresholdComparator), and a uniformly random time step
// (only for TransientBitFlip).
func sampleFault(snn *network.SNN, selection UserSelection, timeSteps int) fault.Injected {
	componentType := selection.Components[rand.Intn(len(selection.Components))]
	category := componentType.Category()
	layerIndex := rand.Intn(snn.NumLayers())
	numComponents := snn.GetLayer(layerIndex).NumComponents(componentType)
	componentIndex := rand.Intn(numComponents)

	var bitIndex *int
	if componentType != fault.ThresholdComparator {
		b := rand.Intn(64)
		bitIndex = &b
	}

	var timeStep *uint64
	if selection.FaultType == fault.TransientBitFlip {
		ts := uint64(rand.Intn(timeSteps))
		timeStep = &ts
	}

	return fault.New(selection.FaultType, timeStep, layerIndex, componentType, category, componentIndex, bitIndex)
}
