// Package network assembles layers into a feed-forward SNN and orchestrates
// one inference as a pipeline of per-layer goroutines connected by channels.
package network

import (
	"context"
	"fmt"

	"github.com/SynapticNetworks/snn-resilience/fault"
	"github.com/SynapticNetworks/snn-resilience/layer"
	"github.com/SynapticNetworks/snn-resilience/spike"
	"golang.org/x/sync/errgroup"
)

// channelCapacity sizes every inter-layer channel so that no send can ever
// block: a layer emits at most one event per input time step, so a buffer of
// T events absorbs a whole inference. This keeps memory bounded by T events
// per boundary and, more importantly, guarantees that a panicking layer
// worker can never strand an upstream sender on a full channel.
func channelCapacity(numInputEvents int) int {
	if numInputEvents < 1 {
		return 1
	}
	return numInputEvents
}

// MalformedInput is returned by DeriveInputSpikeEvents when the input
// matrix's shape or contents don't match what the network expects.
type MalformedInput struct {
	Reason string
}

func (e MalformedInput) Error() string { return "network: malformed input: " + e.Reason }

// SNN is an ordered, fixed sequence of layers. It has no exported
// constructor other than Builder.Build: the Builder is responsible for all
// shape/consistency validation, so by the time an SNN exists its layers are
// known-good.
type SNN struct {
	layers []*layer.Layer
}

// NumLayers returns how many layers the network has.
func (s *SNN) NumLayers() int { return len(s.layers) }

// GetLayer returns the layer at index i, used by the campaign simulator to
// sample a component and, for static faults, to pre-apply one.
func (s *SNN) GetLayer(i int) *layer.Layer { return s.layers[i] }

// Clone returns an independent deep copy of the entire network, one clone
// per campaign replicate so a pre-applied static fault never leaks across
// replicates.
func (s *SNN) Clone() *SNN {
	layers := make([]*layer.Layer, len(s.layers))
	for i, l := range s.layers {
		layers[i] = l.Clone()
	}
	return &SNN{layers: layers}
}

// DeriveInputSpikeEvents validates matrix (rows = input neurons, columns =
// time steps, entries in {0,1}) and turns it into one spike.Event per
// column, t running from 0.
func (s *SNN) DeriveInputSpikeEvents(matrix [][]uint8) ([]spike.Event, error) {
	if len(matrix) == 0 {
		return nil, MalformedInput{Reason: "input matrix has no rows"}
	}
	wantRows := 0
	if len(s.layers) > 0 && len(s.layers[0].ExtraWeights) > 0 {
		wantRows = len(s.layers[0].ExtraWeights[0])
	}
	if len(matrix) != wantRows {
		return nil, MalformedInput{Reason: fmt.Sprintf("input has %d rows, network expects %d", len(matrix), wantRows)}
	}

	t := len(matrix[0])
	for i, row := range matrix {
		if len(row) != t {
			return nil, MalformedInput{Reason: fmt.Sprintf("row %d has length %d, want %d", i, len(row), t)}
		}
		for _, v := range row {
			if v != 0 && v != 1 {
				return nil, MalformedInput{Reason: fmt.Sprintf("row %d contains a non-binary entry %d", i, v)}
			}
		}
	}

	events := make([]spike.Event, t)
	for col := 0; col < t; col++ {
		column := make([]uint8, len(matrix))
		for row := range matrix {
			column[row] = matrix[row][col]
		}
		events[col] = spike.New(uint64(col), column)
	}
	return events, nil
}

// ProcessInputSpikeEvents runs one full inference: it wires one buffered
// channel per layer boundary, spawns one goroutine per layer, feeds every
// non-all-zero input event into the first layer in order, and collects
// whatever the last layer emits. f is routed to the single layer goroutine
// whose index equals f.LayerIndex; every other layer gets no fault. A panic
// inside any layer worker (e.g. neuron.ErrTimeTravel) is recovered and
// returned as an error rather than crashing the process, so a campaign
// replicate can record it as a failure instead of aborting the whole run.
func (s *SNN) ProcessInputSpikeEvents(ctx context.Context, inputEvents []spike.Event, f *fault.Injected) ([]spike.Event, error) {
	g, _ := errgroup.WithContext(ctx)

	channels := make([]chan spike.Event, len(s.layers)+1)
	for i := range channels {
		channels[i] = make(chan spike.Event, channelCapacity(len(inputEvents)))
	}

	for i, l := range s.layers {
		i, l := i, l
		in, out := channels[i], channels[i+1]
		var layerFault *fault.Injected
		if f != nil && f.LayerIndex == i {
			layerFault = f
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("network: layer %d worker panicked: %v", i, r)
				}
			}()
			l.ProcessInput(in, out, layerFault)
			return nil
		})
	}

	g.Go(func() error {
		defer close(channels[0])
		for _, e := range inputEvents {
			if !e.AnyActive() {
				continue
			}
			channels[0] <- e
		}
		return nil
	})

	var outputEvents []spike.Event
	g.Go(func() error {
		for e := range channels[len(channels)-1] {
			outputEvents = append(outputEvents, e)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputEvents, nil
}

// DeriveOutputSpikes reconstructs a dense, zero-filled (numOutputNeurons x T)
// matrix from the sparse set of events the last layer actually emitted.
// Columns whose event was suppressed (every layer along the way produced an
// all-zero output) remain zero, per the absence-means-zero contract.
func DeriveOutputSpikes(events []spike.Event, numOutputNeurons, t int) [][]uint8 {
	out := make([][]uint8, numOutputNeurons)
	for n := range out {
		out[n] = make([]uint8, t)
	}
	for _, e := range events {
		col := int(e.T)
		if col < 0 || col >= t {
			continue
		}
		for n, v := range e.Spikes {
			out[n][col] = v
		}
	}
	return out
}

// ProcessInput runs the full pre-process/pipeline/post-process sequence for
// one input spike matrix, optionally under a runtime fault: one call, one
// complete inference.
func (s *SNN) ProcessInput(ctx context.Context, spikes [][]uint8, f *fault.Injected) ([][]uint8, error) {
	inputEvents, err := s.DeriveInputSpikeEvents(spikes)
	if err != nil {
		return nil, err
	}
	t := len(spikes[0])

	outputEvents, err := s.ProcessInputSpikeEvents(ctx, inputEvents, f)
	if err != nil {
		return nil, err
	}

	lastLayer := s.layers[len(s.layers)-1]
	return DeriveOutputSpikes(outputEvents, lastLayer.NumNeurons(), t), nil
}
