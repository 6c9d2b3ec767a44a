// Command snnsim loads a network from a TOML configuration file and either
// runs a single fault-free inference over its configured input batch
// ("infer") or drives a fault-injection resilience campaign over it
// ("campaign").
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/SynapticNetworks/snn-resilience/accuracy"
	"github.com/SynapticNetworks/snn-resilience/campaign"
	"github.com/SynapticNetworks/snn-resilience/config"
	"github.com/SynapticNetworks/snn-resilience/fault"
	"github.com/SynapticNetworks/snn-resilience/report"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "infer":
		runInfer(os.Args[2:])
	case "campaign":
		runCampaign(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: snnsim <infer|campaign> -config <path> [flags]")
}

func runInfer(args []string) {
	fs := flag.NewFlagSet("infer", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the network TOML config")
	fs.Parse(args)

	if *configPath == "" {
		log.Fatal("snnsim infer: -config is required")
	}

	setup, err := config.LoadNetworkSetup(*configPath)
	if err != nil {
		log.Fatalf("snnsim infer: %v", err)
	}
	snn, batch, targets, err := config.BuildNetworkFromSetup(setup)
	if err != nil {
		log.Fatalf("snnsim infer: %v", err)
	}

	ctx := context.Background()
	predictions := make([]int, len(batch))
	for i, sample := range batch {
		out, err := snn.ProcessInput(ctx, sample, nil)
		if err != nil {
			log.Fatalf("snnsim infer: sample %d: %v", i, err)
		}
		predictions[i] = accuracy.ArgmaxOverTime(out)
		fmt.Printf("sample %d: predicted class %d\n", i, predictions[i])
	}

	if len(targets) == len(predictions) {
		fmt.Printf("accuracy: %d%%\n", accuracy.Accuracy(predictions, targets))
	}

	if err := writePredictions("output.txt", predictions); err != nil {
		log.Fatalf("snnsim infer: %v", err)
	}
}

func runCampaign(args []string) {
	fs := flag.NewFlagSet("campaign", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the network TOML config")
	components := fs.String("components", "Extra,Intra,Threshold", "comma-separated component types to fault")
	faultType := fs.String("fault-type", "StuckAt1", "StuckAt0, StuckAt1, or TransientBitFlip")
	replicates := fs.Int("replicates", 100, "number of independent replicates")
	fs.Parse(args)

	if *configPath == "" {
		log.Fatal("snnsim campaign: -config is required")
	}

	setup, err := config.LoadNetworkSetup(*configPath)
	if err != nil {
		log.Fatalf("snnsim campaign: %v", err)
	}
	snn, batch, targets, err := config.BuildNetworkFromSetup(setup)
	if err != nil {
		log.Fatalf("snnsim campaign: %v", err)
	}

	ctx := context.Background()
	predictions := make([]int, len(batch))
	for i, sample := range batch {
		out, err := snn.ProcessInput(ctx, sample, nil)
		if err != nil {
			log.Fatalf("snnsim campaign: baseline: sample %d: %v", i, err)
		}
		predictions[i] = accuracy.ArgmaxOverTime(out)
	}
	baseline := accuracy.Accuracy(predictions, targets)

	componentTypes, err := parseComponentTypes(*components)
	if err != nil {
		log.Fatalf("snnsim campaign: %v", err)
	}
	ft, err := parseFaultType(*faultType)
	if err != nil {
		log.Fatalf("snnsim campaign: %v", err)
	}

	selection := campaign.UserSelection{
		Components:    componentTypes,
		FaultType:     ft,
		NumReplicates: *replicates,
		InputSequence: batch,
	}

	outcomes := campaign.RunSimulation(ctx, snn, selection, targets, baseline)
	fmt.Printf("baseline accuracy: %d%%\n", baseline)
	fmt.Println(report.Summary(outcomes, baseline))
}

func writePredictions(path string, predictions []int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, p := range predictions {
		if _, err := fmt.Fprintf(f, "%d\n", p); err != nil {
			return err
		}
	}
	return nil
}

func parseComponentTypes(s string) ([]fault.ComponentType, error) {
	var out []fault.ComponentType
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		ct, err := fault.ParseComponentType(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, nil
}

func parseFaultType(s string) (fault.Type, error) {
	switch s {
	case "StuckAt0":
		return fault.StuckAt0, nil
	case "StuckAt1":
		return fault.StuckAt1, nil
	case "TransientBitFlip":
		return fault.TransientBitFlip, nil
	default:
		return 0, fmt.Errorf("unknown fault type %q", s)
	}
}
