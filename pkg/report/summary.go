package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/riskhound/faultquant/pkg/engine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FF99")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	valueStyle = lipgloss.NewStyle().
			Bold(true)
)

// Summary renders the terminal panel for one completed run.
func Summary(results *engine.Results) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("QUANTIFICATION RESULTS"))
	b.WriteString("\n")

	if results.ProbabilityRan {
		row(&b, "Top-event probability", fmt.Sprintf("%.6g", results.PTotal))
	}

	if len(results.ImportantEvents) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("IMPORTANCE"))
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("  %-20s %10s %10s %10s %10s %10s",
			"EVENT", "MIF", "CIF", "DIF", "RAW", "RRW")))
		b.WriteString("\n")
		for _, re := range results.ImportantEvents {
			f := re.Factors
			b.WriteString(fmt.Sprintf("  %-20s %10.4g %10.4g %10.4g %10.4g %10s\n",
				re.Event.ID, f.MIF, f.CIF, f.DIF, f.RAW, formatRatio(f.RRW)))
		}
	}

	if u := results.Uncertainty; u != nil {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("UNCERTAINTY"))
		b.WriteString("\n")
		row(&b, "Mean", fmt.Sprintf("%.6g", u.Mean))
		row(&b, "Sigma", fmt.Sprintf("%.6g", u.Sigma))
		row(&b, "Error factor (95%)", formatRatio(u.ErrorFactor))
		row(&b, "CI 95%", fmt.Sprintf("[%.6g, %.6g]", u.CI95Low, u.CI95High))
	}

	return b.String()
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(fmt.Sprintf("  %-22s", label)))
	b.WriteString(" ")
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.4g", v)
}
