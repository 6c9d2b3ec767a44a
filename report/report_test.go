package report

import (
	"strings"
	"testing"

	"github.com/SynapticNetworks/snn-resilience/campaign"
	"github.com/SynapticNetworks/snn-resilience/fault"
)

func TestSummary_IncludesFailedReplicateMarker(t *testing.T) {
	bit := 10
	outcomes := []campaign.Outcome{
		{
			Fault:    fault.New(fault.StuckAt1, nil, 0, fault.Extra, fault.Connection, 0, &bit),
			Accuracy: 80,
		},
		{
			Fault: fault.New(fault.StuckAt1, nil, 0, fault.Ts, fault.MemoryArea, 0, &bit),
			Err:   errTimeTravel,
		},
	}

	out := Summary(outcomes, 90)
	if !strings.Contains(out, "FAILED") {
		t.Fatalf("expected summary to mark the failed replicate, got:\n%s", out)
	}
	if !strings.Contains(out, "Extra") || !strings.Contains(out, "Ts") {
		t.Fatalf("expected summary to name both fault components, got:\n%s", out)
	}
}

func TestSummary_EmptyOutcomesStillRendersHeader(t *testing.T) {
	out := Summary(nil, 50)
	if !strings.Contains(out, "Accuracy") {
		t.Fatalf("expected header row even with no outcomes, got:\n%s", out)
	}
}

var errTimeTravel = &fixedErr{"neuron: time step precedes last update"}

type fixedErr struct{ msg string }

func (e *fixedErr) Error() string { return e.msg }
