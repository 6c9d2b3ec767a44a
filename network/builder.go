package network

import (
	"fmt"

	"github.com/SynapticNetworks/snn-resilience/layer"
	"github.com/SynapticNetworks/snn-resilience/neuron"
)

// Builder is a fluent, consistency-checked accumulator for the layers of an
// SNN. Each call to AddLayer validates the new layer's shape against the
// network built so far and panics on any mismatch — a BuilderConsistencyError
// is a fatal programming error, never a recoverable one.
type Builder struct {
	inputLength int
	layers      []*layer.Layer
}

// NewBuilder starts a builder for a network whose first layer receives
// inputLength-dimensional spike vectors.
func NewBuilder(inputLength int) *Builder {
	if inputLength <= 0 {
		panic("network: input length must be positive")
	}
	return &Builder{inputLength: inputLength}
}

// AddLayer appends a layer built from neurons, extraWeights, and
// intraWeights, checking:
//   - len(neurons) == rows(extraWeights) == rows(intraWeights) == cols(intraWeights)
//   - cols(extraWeights) == input length (first layer) or the previous
//     layer's neuron count (every other layer)
//   - every off-diagonal intraWeights[i][j] <= 0
func (b *Builder) AddLayer(neurons []neuron.Neuron, extraWeights, intraWeights [][]float64) *Builder {
	n := len(neurons)
	if n == 0 {
		panic("network: a layer must have at least one neuron")
	}
	if len(extraWeights) != n {
		panic(fmt.Sprintf("network: extra_weights has %d rows, want %d (one per neuron)", len(extraWeights), n))
	}
	if len(intraWeights) != n {
		panic(fmt.Sprintf("network: intra_weights has %d rows, want %d (one per neuron)", len(intraWeights), n))
	}
	for i, row := range intraWeights {
		if len(row) != n {
			panic(fmt.Sprintf("network: intra_weights row %d has %d columns, want %d (square)", i, len(row), n))
		}
	}

	wantCols := b.inputLength
	if len(b.layers) > 0 {
		wantCols = b.layers[len(b.layers)-1].NumNeurons()
	}
	for i, row := range extraWeights {
		if len(row) != wantCols {
			panic(fmt.Sprintf("network: extra_weights row %d has %d columns, want %d", i, len(row), wantCols))
		}
	}

	for i, row := range intraWeights {
		for j, w := range row {
			if i != j && w > 0 {
				panic(fmt.Sprintf("network: intra_weights[%d][%d] = %v is positive; lateral weights must be <= 0", i, j, w))
			}
		}
	}

	b.layers = append(b.layers, layer.New(neurons, extraWeights, intraWeights))
	return b
}

// Build finalises the network, panicking if no layer was ever added.
func (b *Builder) Build() *SNN {
	if len(b.layers) == 0 {
		panic("network: a network must have at least one layer")
	}
	return &SNN{layers: b.layers}
}
