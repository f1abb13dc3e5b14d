package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders set-up metrics as CSV string.
func RenderCSV(metrics []SetupMetricRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("id1,id2,beam_energy,channel,sqrt_s,total_events,succeeded,success_rate,")
	sb.WriteString("attempts_mean,attempts_median,attempts_p90,attempts_max,")
	sb.WriteString("multiplicity_mean,multiplicity_stddev\n")

	// Rows
	for _, m := range metrics {
		sb.WriteString(fmt.Sprintf("%d,%d,%g,%s,%.6f,%d,%d,%.6f,%.6f,%.6f,%.6f,%d,%.6f,%.6f\n",
			m.ID1,
			m.ID2,
			m.BeamEnergy,
			m.Channel,
			m.SqrtS,
			m.TotalEvents,
			m.Succeeded,
			m.SuccessRate,
			m.AttemptsMean,
			m.AttemptsMedian,
			m.AttemptsP90,
			m.AttemptsMax,
			m.MultiplicityMean,
			m.MultiplicityStddev,
		))
	}

	return sb.String()
}

// RenderProductsCSV renders top product frequencies as CSV string.
func RenderProductsCSV(rows []ProductRow) string {
	var sb strings.Builder

	sb.WriteString("id1,id2,beam_energy,rank,product_id,name,count\n")
	for _, p := range rows {
		sb.WriteString(fmt.Sprintf("%d,%d,%g,%d,%d,%s,%d\n",
			p.ID1, p.ID2, p.BeamEnergy, p.Rank, p.ProductID, csvField(p.Name), p.Count))
	}

	return sb.String()
}

// csvField quotes s when it contains a separator or quote.
func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
