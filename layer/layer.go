// Package layer implements one layer of the spiking network: its neurons,
// its two weight matrices (connections from the previous layer, and lateral
// connections within the layer itself), and the per-time-step processing
// loop a goroutine runs to turn an incoming stream of spike.Event into an
// outgoing one.
package layer

import (
	"fmt"
	"math"

	"github.com/SynapticNetworks/snn-resilience/fault"
	"github.com/SynapticNetworks/snn-resilience/neuron"
	"github.com/SynapticNetworks/snn-resilience/spike"
	"gonum.org/v1/gonum/floats"
)

// Layer owns a slice of neurons and the two matrices connecting them to the
// previous layer (ExtraWeights) and to each other (IntraWeights).
// ExtraWeights[n][p] is the weight from previous-layer neuron p into this
// layer's neuron n; IntraWeights[n][m] is the lateral (inhibitory) weight
// from this layer's neuron m into neuron n — diagonal entries are ignored
// by construction.
type Layer struct {
	Neurons      []neuron.Neuron
	ExtraWeights [][]float64
	IntraWeights [][]float64
	prevOutput   []uint8
	spikeBuf     []float64 // scratch buffer reused across time steps
}

// New constructs a layer, panicking if the weight matrices are inconsistent
// with the neuron count. The network builder is expected to have already
// validated shapes; this check only catches direct misuse of New.
func New(neurons []neuron.Neuron, extraWeights, intraWeights [][]float64) *Layer {
	n := len(neurons)
	if len(extraWeights) != n || len(intraWeights) != n {
		panic("layer: number of neurons is not consistent with the number of rows in the weight matrices")
	}
	return &Layer{
		Neurons:      neurons,
		ExtraWeights: extraWeights,
		IntraWeights: intraWeights,
		prevOutput:   make([]uint8, n),
	}
}

// NumNeurons returns how many neurons this layer owns.
func (l *Layer) NumNeurons() int { return len(l.Neurons) }

// PrevOutput returns the output spike vector this layer produced at the
// previous time step it processed: the vector the lateral sum reads.
func (l *Layer) PrevOutput() []uint8 { return l.prevOutput }

func (l *Layer) totalExtraWeights() int {
	if len(l.ExtraWeights) == 0 {
		return 0
	}
	return len(l.ExtraWeights) * len(l.ExtraWeights[0])
}

func (l *Layer) totalIntraWeights() int {
	if len(l.IntraWeights) == 0 {
		return 0
	}
	return len(l.IntraWeights) * len(l.IntraWeights[0])
}

// NumComponents returns the number of components of the given kind in this
// layer (rows*cols for the weight kinds, the neuron count otherwise), used
// by the campaign simulator to pick a uniformly random component index.
func (l *Layer) NumComponents(componentType fault.ComponentType) int {
	switch componentType {
	case fault.Extra:
		return l.totalExtraWeights()
	case fault.Intra:
		return l.totalIntraWeights()
	default:
		return l.NumNeurons()
	}
}

// initialize resets every neuron and clears prevOutput, called once at the
// start of every inference.
func (l *Layer) initialize() {
	for _, n := range l.Neurons {
		n.Initialize()
	}
	for i := range l.prevOutput {
		l.prevOutput[i] = 0
	}
}

// ProcessInput is the goroutine body for this layer during one inference:
// it reads spike.Event values from in until the channel is closed, and
// writes its own output events to out, closing out when it returns. f is
// either nil or an already-routed fault whose LayerIndex is this layer's
// (the caller — network.SNN — is responsible for only handing a fault to
// the one layer worker it targets).
func (l *Layer) ProcessInput(in <-chan spike.Event, out chan<- spike.Event, f *fault.Injected) {
	defer close(out)
	l.initialize()

	extraLen := 0
	if len(l.ExtraWeights) > 0 {
		extraLen = len(l.ExtraWeights[0])
	}
	intraLen := 0
	if len(l.IntraWeights) > 0 {
		intraLen = len(l.IntraWeights[0])
	}

	if cap(l.spikeBuf) < extraLen {
		l.spikeBuf = make([]float64, extraLen)
	}
	spikesFloat := l.spikeBuf[:extraLen]

	for event := range in {
		t := event.T
		inputSpikes := event.Spikes

		for j, s := range inputSpikes {
			spikesFloat[j] = float64(s)
		}

		output := make([]uint8, len(l.Neurons))
		anyActive := false

		for i, n := range l.Neurons {
			extraSum := l.extraSum(i, t, extraLen, spikesFloat, inputSpikes, f)
			intraSum := l.intraSum(i, t, intraLen, f)
			weightedSum := extraSum + intraSum

			var s uint8
			if f != nil && f.Category != fault.Connection && f.ComponentIndex == i {
				s = n.ProcessInput(t, weightedSum, f)
			} else {
				s = n.ProcessInput(t, weightedSum, nil)
			}
			output[i] = s
			if s == 1 {
				anyActive = true
			}
		}

		copy(l.prevOutput, output)

		// All-zero events are suppressed: a downstream layer never hears
		// about a time step where nothing happened upstream, and recomputes
		// the leak from the elapsed (t - ts) on the next real arrival.
		if anyActive {
			out <- spike.New(t, output)
		}
	}
}

// extraSum computes the sum of extra_weights[i][*] * input_spikes[*] for
// neuron i, applying a Connection/Extra fault to the one matching entry if
// present. The fault-free path uses gonum's floats.Dot for the
// multiply-accumulate.
func (l *Layer) extraSum(i int, t uint64, extraLen int, spikesFloat []float64, inputSpikes []uint8, f *fault.Injected) float64 {
	row := l.ExtraWeights[i]
	if f == nil || f.Component != fault.Extra || f.ComponentIndex/colsOrOne(extraLen) != i {
		return floats.Dot(row, spikesFloat)
	}
	// A fault targets a weight in this row: fall back to an element-wise
	// accumulation so the faulted entry can be substituted in place
	// without mutating the stored weight matrix.
	j := f.ComponentIndex % colsOrOne(extraLen)
	sum := 0.0
	for p, w := range row {
		if p == j {
			w = f.ApplyFloat64(w, t)
		}
		sum += w * float64(inputSpikes[p])
	}
	return sum
}

// intraSum computes the lateral sum from the previous time step's output,
// skipping the reflexive i==i term, applying a Connection/Intra fault to
// the one matching entry if present.
func (l *Layer) intraSum(i int, t uint64, intraLen int, f *fault.Injected) float64 {
	row := l.IntraWeights[i]
	targetJ := -1
	if f != nil && f.Component == fault.Intra && f.ComponentIndex/colsOrOne(intraLen) == i {
		targetJ = f.ComponentIndex % colsOrOne(intraLen)
	}
	sum := 0.0
	for j, w := range row {
		if j == i {
			continue
		}
		if j == targetJ {
			w = f.ApplyFloat64(w, t)
		}
		sum += w * float64(l.prevOutput[j])
	}
	return sum
}

func colsOrOne(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

// FaultInComponent reads and (for a static, non-transient fault) writes the
// targeted component in place, returning true iff the requested bit was
// already at the forced value, so the caller can skip running the
// simulation at all and report the baseline accuracy. It assumes the caller
// has already checked f.Component.IsStatic(); it panics if asked to
// pre-apply a transient fault, since only StuckAt0/StuckAt1 are ever
// pre-applied.
func (l *Layer) FaultInComponent(f *fault.Injected) (bitUnchanged bool) {
	if f.FaultType == fault.TransientBitFlip {
		panic("layer: only static faults can be pre-applied before processing")
	}

	var component *float64
	switch f.Component {
	case fault.Extra:
		cols := len(l.ExtraWeights[0])
		component = &l.ExtraWeights[f.ComponentIndex/cols][f.ComponentIndex%cols]
	case fault.Intra:
		cols := len(l.IntraWeights[0])
		component = &l.IntraWeights[f.ComponentIndex/cols][f.ComponentIndex%cols]
	default:
		component = l.Neurons[f.ComponentIndex].ParameterPointer(f.Component)
	}

	if f.BitIndex == nil {
		panic(fmt.Sprintf("layer: fault on %s is missing its bit index", f.Component))
	}
	bit := *f.BitIndex
	before := math.Float64bits(*component)

	switch f.FaultType {
	case fault.StuckAt0:
		if fault.BitValue(before, bit) == 0 {
			return true
		}
	case fault.StuckAt1:
		if fault.BitValue(before, bit) == 1 {
			return true
		}
	}

	*component = f.ApplyFloat64(*component, 0)
	return false
}

// Clone returns an independent deep copy of the layer: its own neurons and
// its own weight matrices, so a campaign replicate's static fault
// pre-application never leaks into another replicate's clone.
func (l *Layer) Clone() *Layer {
	neurons := make([]neuron.Neuron, len(l.Neurons))
	for i, n := range l.Neurons {
		neurons[i] = n.Clone()
	}
	extra := make([][]float64, len(l.ExtraWeights))
	for i, row := range l.ExtraWeights {
		extra[i] = append([]float64(nil), row...)
	}
	intra := make([][]float64, len(l.IntraWeights))
	for i, row := range l.IntraWeights {
		intra[i] = append([]float64(nil), row...)
	}
	return New(neurons, extra, intra)
}
