package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Run Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s` | Beam set-ups: %d\n\n", r.RunID, r.SetupCount))

	// Run Summary
	sb.WriteString("## Run Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Events | %d |\n", r.Summary.TotalEvents))
	sb.WriteString(fmt.Sprintf("| Succeeded | %d |\n", r.Summary.Succeeded))
	sb.WriteString(fmt.Sprintf("| Failed | %d |\n", r.Summary.Failed))
	sb.WriteString(fmt.Sprintf("| Success Rate | %.4f |\n", r.Summary.SuccessRate))
	sb.WriteString(fmt.Sprintf("| Date Range Start (ms) | %d |\n", r.Summary.DateRangeStart))
	sb.WriteString(fmt.Sprintf("| Date Range End (ms) | %d |\n", r.Summary.DateRangeEnd))
	sb.WriteString("\n")

	// Set-up Metrics
	sb.WriteString("## Beam Set-ups\n\n")
	if len(r.SetupMetrics) > 0 {
		sb.WriteString("| ID1 | ID2 | E (GeV) | Channel | sqrt(s) | Events | OK | Rate | Att. Mean | Att. Median | Att. P90 | Att. Max | Mult. Mean | Mult. SD |\n")
		sb.WriteString("|-----|-----|---------|---------|---------|--------|----|------|-----------|-------------|----------|----------|------------|----------|\n")
		for _, m := range r.SetupMetrics {
			sb.WriteString(fmt.Sprintf("| %d | %d | %g | %s | %.4f | %d | %d | %.4f | %.2f | %.2f | %.2f | %d | %.3f | %.3f |\n",
				m.ID1, m.ID2, m.BeamEnergy, m.Channel, m.SqrtS,
				m.TotalEvents, m.Succeeded, m.SuccessRate,
				m.AttemptsMean, m.AttemptsMedian, m.AttemptsP90, m.AttemptsMax,
				m.MultiplicityMean, m.MultiplicityStddev))
		}
	} else {
		sb.WriteString("No beam set-ups available.\n")
	}
	sb.WriteString("\n")

	// Channel Totals
	sb.WriteString("## Channels\n\n")
	if len(r.ChannelTotals) > 0 {
		sb.WriteString("| Channel | Set-ups | Events | OK | Rate |\n")
		sb.WriteString("|---------|---------|--------|----|------|\n")
		for _, c := range r.ChannelTotals {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %.4f |\n",
				c.Channel, c.Setups, c.TotalEvents, c.Succeeded, c.SuccessRate))
		}
	} else {
		sb.WriteString("No channel totals available.\n")
	}
	sb.WriteString("\n")

	// Failures
	sb.WriteString("## Failures\n\n")
	if len(r.Failures) > 0 {
		sb.WriteString("| ID1 | ID2 | E (GeV) | Unsupported | No Particles | No Resonance | Exhausted |\n")
		sb.WriteString("|-----|-----|---------|-------------|--------------|--------------|-----------|\n")
		for _, f := range r.Failures {
			sb.WriteString(fmt.Sprintf("| %d | %d | %g | %d | %d | %d | %d |\n",
				f.ID1, f.ID2, f.BeamEnergy, f.Unsupported, f.NoParticles, f.NoResonance, f.Exhausted))
		}
	} else {
		sb.WriteString("No failures recorded.\n")
	}
	sb.WriteString("\n")

	// Top Products
	sb.WriteString("## Top Final-State Species\n\n")
	if len(r.TopProducts) > 0 {
		sb.WriteString("| ID1 | ID2 | E (GeV) | Rank | Code | Name | Count |\n")
		sb.WriteString("|-----|-----|---------|------|------|------|-------|\n")
		for _, p := range r.TopProducts {
			name := p.Name
			if name == "" {
				name = "-"
			}
			sb.WriteString(fmt.Sprintf("| %d | %d | %g | %d | %d | %s | %d |\n",
				p.ID1, p.ID2, p.BeamEnergy, p.Rank, p.ProductID, name, p.Count))
		}
	} else {
		sb.WriteString("No final-state species recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}
