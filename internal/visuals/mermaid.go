package visuals

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"ticket-kpi/internal/report"
)

// GenerateAgingSeriesChart creates a Mermaid xychart-beta with mean aging bars and a goal line.
func GenerateAgingSeriesChart(title string, points []report.Point, goal float64) string {
	if len(points) == 0 {
		return ""
	}

	var labels []string
	var values []string
	var goals []string

	maxY := goal * 1.2
	for _, p := range points {
		labels = append(labels, fmt.Sprintf("\"%s\"", p.Label))
		values = append(values, fmt.Sprintf("%.1f", p.Value))
		goals = append(goals, fmt.Sprintf("%.1f", goal))
		if p.Value > maxY {
			maxY = p.Value * 1.1
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Aging (dias)\" 0 --> %d\n", ceilAxis(maxY)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(goals, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateOTDChart creates a Mermaid line chart with one OTD line per contract over the periods
// present. Months a contract has no tickets in are drawn at 0.
func GenerateOTDChart(points []report.Point) string {
	if len(points) == 0 {
		return ""
	}

	var periods []string
	var contracts []string
	values := make(map[string]map[string]float64)
	for _, p := range points {
		period, _, _ := strings.Cut(p.Key, "|")
		if !slices.Contains(periods, period) {
			periods = append(periods, period)
		}
		if !slices.Contains(contracts, p.Contract) {
			contracts = append(contracts, p.Contract)
		}
		if values[p.Contract] == nil {
			values[p.Contract] = make(map[string]float64)
		}
		values[p.Contract][period] = p.Value
	}
	slices.Sort(periods)
	slices.Sort(contracts)

	var labels []string
	for _, period := range periods {
		labels = append(labels, fmt.Sprintf("\"%s\"", report.PeriodLabel(period)))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"OTD Mensal por Contrato (%s)\"\n", strings.Join(contracts, ", ")))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"OTD (%)\" 0 --> 100\n")
	for _, c := range contracts {
		var series []string
		for _, period := range periods {
			series = append(series, fmt.Sprintf("%.1f", values[c][period]))
		}
		sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(series, ", ")))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateLeaderboardChart creates a Mermaid bar chart of a ranked list, limited to 20 rows.
func GenerateLeaderboardChart(title, axis string, rows []report.Ranked) string {
	if len(rows) == 0 {
		return ""
	}

	// Limit to 20 rows to keep the text chart readable
	limit := min(len(rows), 20)

	var labels []string
	var values []string
	maxVal := 0.0
	for _, r := range rows[:limit] {
		labels = append(labels, fmt.Sprintf("\"%s\"", r.Name))
		values = append(values, fmt.Sprintf("%.1f", r.Value))
		maxVal = math.Max(maxVal, r.Value)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"%s\" 0 --> %d\n", axis, ceilAxis(maxVal*1.1)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

func ceilAxis(v float64) int {
	return max(1, int(math.Ceil(v)))
}
