// Package report renders a campaign's outcomes as a terminal summary table:
// one row per replicate, the fault it injected, the resulting accuracy, and
// its delta against the fault-free baseline.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/SynapticNetworks/snn-resilience/campaign"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	failStyle   = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("9"))
	okStyle     = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("10"))
)

// Summary formats a campaign's outcomes as a bordered table with columns
// replicate index, component, fault type, layer, accuracy, and delta from
// baselineAccuracy. A replicate with a non-nil Err shows "FAILED" in place
// of an accuracy.
func Summary(outcomes []campaign.Outcome, baselineAccuracy int) string {
	rows := make([][]string, 0, len(outcomes)+1)
	rows = append(rows, []string{"#", "Component", "Fault", "Layer", "Accuracy", "Delta"})

	for i, o := range outcomes {
		if o.Err != nil {
			rows = append(rows, []string{
				strconv.Itoa(i),
				o.Fault.Component.String(),
				o.Fault.FaultType.String(),
				strconv.Itoa(o.Fault.LayerIndex),
				"FAILED",
				"-",
			})
			continue
		}
		delta := o.Accuracy - baselineAccuracy
		rows = append(rows, []string{
			strconv.Itoa(i),
			o.Fault.Component.String(),
			o.Fault.FaultType.String(),
			strconv.Itoa(o.Fault.LayerIndex),
			strconv.Itoa(o.Accuracy),
			fmt.Sprintf("%+d", delta),
		})
	}

	widths := columnWidths(rows)

	var b strings.Builder
	for r, row := range rows {
		style := cellStyle
		if r == 0 {
			style = headerStyle
		} else if outcomes[r-1].Err != nil {
			style = failStyle
		} else if outcomes[r-1].Accuracy >= baselineAccuracy {
			style = okStyle
		} else {
			style = failStyle
		}
		b.WriteString(renderRow(row, widths, style))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Render(strings.TrimRight(b.String(), "\n"))
}

func columnWidths(rows [][]string) []int {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for c, cell := range row {
			if len(cell) > widths[c] {
				widths[c] = len(cell)
			}
		}
	}
	return widths
}

func renderRow(row []string, widths []int, style lipgloss.Style) string {
	cells := make([]string, len(row))
	for c, cell := range row {
		cells[c] = style.Width(widths[c] + 2).Render(cell)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}
