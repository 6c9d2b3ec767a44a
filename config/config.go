// Package config loads the TOML network description, the plain-text weight
// and spike-train files it references, and wires the result into a
// network.SNN ready for inference or a campaign.
package config

import (
	"bufio"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/SynapticNetworks/snn-resilience/network"
	"github.com/SynapticNetworks/snn-resilience/neuron"
)

// tomlConfig mirrors the TOML file's key layout exactly; NetworkSetup (below)
// is the normalized, derived form the rest of this package works with.
type tomlConfig struct {
	InputLayer struct {
		InputLength int `toml:"input_length"`
	} `toml:"input_layer"`
	HiddenLayers struct {
		Neurons []int `toml:"neurons"`
	} `toml:"hidden_layers"`
	OutputLayer struct {
		Neurons int `toml:"neurons"`
	} `toml:"output_layer"`
	WeightFiles struct {
		ExtraWeights []string `toml:"extra_weights"`
		IntraWeights []string `toml:"intra_weights"`
	} `toml:"weight_files"`
	LIFNeuronParameters struct {
		RestingPotential float64  `toml:"resting_potential"`
		ResetPotential   float64  `toml:"reset_potential"`
		Threshold        float64  `toml:"threshold"`
		DT               float64  `toml:"dt"`
		Beta             *float64 `toml:"beta"`
		Tau              *float64 `toml:"tau"`
	} `toml:"LIF_neuron_parameters"`
	InputSpikeTrain struct {
		SpikeLength int    `toml:"spike_length"`
		BatchSize   int    `toml:"batch_size"`
		Filename    string `toml:"filename"`
	} `toml:"input_spike_train"`
	Accuracy struct {
		TargetFile string `toml:"target_file"`
	} `toml:"accuracy"`
}

// NetworkSetup is the normalized network description this module builds an
// SNN from: layer sizes (hidden layers with the output layer appended),
// per-boundary weight file paths, the shared LIF parameter set, and the
// input/target file locations.
type NetworkSetup struct {
	InputLength      int
	LayerSizes       []int // hidden layer sizes followed by the output layer size
	ExtraWeightFiles []string
	IntraWeightFiles []string // may be shorter than LayerSizes; missing entries mean an all-zero intra matrix

	RestingPotential float64
	ResetPotential   float64
	Threshold        float64
	Tau              float64
	Beta             float64
	DT               float64

	SpikeLength         int
	BatchSize           int
	InputSpikeTrainFile string
	TargetFile          string
}

// LoadNetworkSetup parses the TOML config file at path and derives tau/beta
// (exactly one of which the file supplies) via the relation
// `beta = exp(-dt/tau)` / `tau = -dt/ln(beta)`.
func LoadNetworkSetup(path string) (*NetworkSetup, error) {
	var raw tomlConfig
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, errors.Wrapf(err, "config: failed to parse %s", path)
	}

	if raw.LIFNeuronParameters.Beta == nil && raw.LIFNeuronParameters.Tau == nil {
		return nil, errors.Errorf("config: %s must set exactly one of LIF_neuron_parameters.beta or .tau", path)
	}
	if raw.LIFNeuronParameters.Beta != nil && raw.LIFNeuronParameters.Tau != nil {
		return nil, errors.Errorf("config: %s must not set both LIF_neuron_parameters.beta and .tau", path)
	}

	dt := raw.LIFNeuronParameters.DT
	var tau, beta float64
	if raw.LIFNeuronParameters.Beta != nil {
		beta = *raw.LIFNeuronParameters.Beta
		tau = -dt / math.Log(beta)
	} else {
		tau = *raw.LIFNeuronParameters.Tau
		beta = math.Exp(-dt / tau)
	}

	layerSizes := append(append([]int{}, raw.HiddenLayers.Neurons...), raw.OutputLayer.Neurons)

	return &NetworkSetup{
		InputLength:         raw.InputLayer.InputLength,
		LayerSizes:          layerSizes,
		ExtraWeightFiles:    raw.WeightFiles.ExtraWeights,
		IntraWeightFiles:    raw.WeightFiles.IntraWeights,
		RestingPotential:    raw.LIFNeuronParameters.RestingPotential,
		ResetPotential:      raw.LIFNeuronParameters.ResetPotential,
		Threshold:           raw.LIFNeuronParameters.Threshold,
		Tau:                 tau,
		Beta:                beta,
		DT:                  dt,
		SpikeLength:         raw.InputSpikeTrain.SpikeLength,
		BatchSize:           raw.InputSpikeTrain.BatchSize,
		InputSpikeTrainFile: raw.InputSpikeTrain.Filename,
		TargetFile:          raw.Accuracy.TargetFile,
	}, nil
}

// BuildNetworkFromSetup wires a NetworkSetup into a network.SNN, along with
// the input batch and target labels it references.
func BuildNetworkFromSetup(setup *NetworkSetup) (*network.SNN, [][][]uint8, []int, error) {
	if len(setup.ExtraWeightFiles) != len(setup.LayerSizes) {
		return nil, nil, nil, errors.Errorf("config: %d extra weight files for %d layers", len(setup.ExtraWeightFiles), len(setup.LayerSizes))
	}

	builder := network.NewBuilder(setup.InputLength)
	prevSize := setup.InputLength
	for i, size := range setup.LayerSizes {
		neurons := make([]neuron.Neuron, size)
		for n := range neurons {
			neurons[n] = neuron.NewLif(setup.ResetPotential, setup.RestingPotential, setup.Threshold, setup.Tau, setup.DT)
		}

		extra, err := readWeightMatrix(setup.ExtraWeightFiles[i], size, prevSize)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "config: loading extra weights for layer %d", i)
		}

		var intra [][]float64
		if i < len(setup.IntraWeightFiles) && setup.IntraWeightFiles[i] != "" {
			intra, err = readWeightMatrix(setup.IntraWeightFiles[i], size, size)
			if err != nil {
				return nil, nil, nil, errors.Wrapf(err, "config: loading intra weights for layer %d", i)
			}
		} else {
			intra = zeroMatrix(size, size)
		}

		builder.AddLayer(neurons, extra, intra)
		prevSize = size
	}

	batch, err := readInputSpikeTrain(setup.InputSpikeTrainFile, setup.InputLength, setup.SpikeLength, setup.BatchSize)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "config: loading input spike train")
	}

	targets, err := readTargets(setup.TargetFile)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "config: loading targets")
	}

	return builder.Build(), batch, targets, nil
}

func zeroMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// readWeightMatrix parses a plain-text weight file: one row per line,
// entries separated by spaces (empty tokens ignored).
func readWeightMatrix(path string, rows, cols int) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening weight file %s", path)
	}
	defer f.Close()

	matrix := zeroMatrix(rows, cols)
	scanner := bufio.NewScanner(f)
	for i := 0; scanner.Scan() && i < rows; i++ {
		j := 0
		for _, tok := range strings.Split(scanner.Text(), " ") {
			if tok == "" {
				continue
			}
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s line %d: %q is not a float", path, i+1, tok)
			}
			if j < cols {
				matrix[i][j] = v
			}
			j++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return matrix, nil
}

// readInputSpikeTrain parses batchSize slices separated by lines reading
// "# New slice", each spikeLength lines of inputLength characters from
// {'0','1',' '} (spaces removed), into [sample][input neuron][time step].
func readInputSpikeTrain(path string, inputLength, spikeLength, batchSize int) ([][][]uint8, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening input spike train file %s", path)
	}
	defer f.Close()

	trains := make([][][]uint8, batchSize)
	for b := range trains {
		trains[b] = make([][]uint8, inputLength)
		for n := range trains[b] {
			trains[b][n] = make([]uint8, spikeLength)
		}
	}

	scanner := bufio.NewScanner(f)
	sample := -1
	step := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "# New slice" {
			sample++
			step = 0
			continue
		}
		if sample < 0 || sample >= batchSize {
			continue
		}
		stripped := strings.ReplaceAll(line, " ", "")
		for n, c := range stripped {
			if n >= inputLength {
				break
			}
			v, err := strconv.Atoi(string(c))
			if err != nil {
				return nil, errors.Wrapf(err, "%s: %q is not a spike digit", path, c)
			}
			trains[sample][n][step] = uint8(v)
		}
		step++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return trains, nil
}

// readTargets parses one integer class label per line.
func readTargets(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening target file %s", path)
	}
	defer f.Close()

	var targets []int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.Atoi(line)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %q is not an integer target", path, line)
		}
		targets = append(targets, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return targets, nil
}
