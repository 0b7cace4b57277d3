package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"superforecaster/models"
)

// SegmentData holds a prepared segment table used by all formatters
type SegmentData struct {
	Key            string      `json:"segment"`
	Name           string      `json:"name"`
	Color          string      `json:"color,omitempty"`
	ColumnLocks    []string    `json:"column_locks,omitempty"`
	CriticalMonths int         `json:"critical_months"`
	Months         []MonthData `json:"months"`
}

// MonthData is one forecast row ready for output
type MonthData struct {
	Month             string                `json:"month"`
	Past              bool                  `json:"past,omitempty"`
	Current           bool                  `json:"current,omitempty"`
	Locked            bool                  `json:"locked,omitempty"`
	Inputs            map[string]any        `json:"inputs"`
	Overridden        []string              `json:"overridden,omitempty"`
	EffectiveTeamSize float64               `json:"effective_team_size"`
	Result            models.ForecastResult `json:"result"`
	Severity          models.GapSeverity    `json:"severity"`
	Sentiment         models.Sentiment      `json:"sentiment,omitempty"`
}

// prepareGridData flattens the grid into output records. Metric keys are
// kept in registry column order for every list.
func prepareGridData(grid []models.SegmentForecast) []SegmentData {
	out := make([]SegmentData, 0, len(grid))
	for _, sf := range grid {
		seg := SegmentData{
			Key:    sf.Segment.Key,
			Name:   sf.Segment.Name,
			Color:  sf.Segment.Color,
			Months: make([]MonthData, 0, len(sf.Rows)),
		}
		for _, spec := range models.Metrics() {
			if sf.ColumnLocks[spec.Key] {
				seg.ColumnLocks = append(seg.ColumnLocks, string(spec.Key))
			}
		}

		for _, r := range sf.Rows {
			md := MonthData{
				Month:             r.Month.Label,
				Past:              r.Month.IsPastMonth,
				Current:           r.Month.IsCurrentMonth,
				Locked:            r.RowLocked,
				Inputs:            make(map[string]any, len(r.Inputs)),
				EffectiveTeamSize: r.EffectiveTeamSize,
				Result:            r.Result,
				Severity:          r.Severity,
			}
			for _, spec := range models.EditableMetrics(sf.Segment.Key) {
				v, ok := r.Inputs[spec.Key]
				if !ok {
					continue
				}
				if spec.Key == models.MetricSentiment {
					md.Sentiment = v.Sentiment()
					continue
				}
				md.Inputs[string(spec.Key)] = v.Interface()
				if r.Overridden[spec.Key] {
					md.Overridden = append(md.Overridden, string(spec.Key))
				}
			}
			if r.Overridden[models.MetricSentiment] {
				md.Overridden = append(md.Overridden, string(models.MetricSentiment))
			}
			if r.Severity == models.GapCritical {
				seg.CriticalMonths++
			}
			seg.Months = append(seg.Months, md)
		}
		out = append(out, seg)
	}
	return out
}

// FormatText returns the text representation of the forecast
func FormatText(grid []models.SegmentForecast) string {
	data := prepareGridData(grid)
	var sb strings.Builder

	for i, seg := range data {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("== %s (%s) : critical months=%d ==\n", seg.Name, seg.Key, seg.CriticalMonths))
		if len(seg.ColumnLocks) > 0 {
			sb.WriteString(fmt.Sprintf("  🔒 locked columns: %s\n", strings.Join(seg.ColumnLocks, ", ")))
		}
		for _, m := range seg.Months {
			sb.WriteString(formatTextLine(m))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// formatTextLine formats a single month line for text output
func formatTextLine(m MonthData) string {
	r := m.Result
	line := fmt.Sprintf("%s : volume=%s remaining=%s tdcx=%s core=%s ; required=%d team=%s gap=%s [%s]",
		m.Month, num(r.TotalVolume), num(r.RemainingVolume), num(r.TDCXVolume), num(r.CoreTeamVolume),
		r.RequiredFTEsWithImprovement, num(m.EffectiveTeamSize), num(r.Gap), m.Severity)

	var flags []string
	switch {
	case m.Past:
		flags = append(flags, "past")
	case m.Current:
		flags = append(flags, "current")
	}
	if m.Locked {
		flags = append(flags, "🔒")
	}
	if g := m.Sentiment.Glyph(); g != "" {
		flags = append(flags, g)
	}
	if len(m.Overridden) > 0 {
		flags = append(flags, "overrides="+strings.Join(m.Overridden, ","))
	}
	if len(flags) > 0 {
		line += " ; " + strings.Join(flags, " ")
	}
	if m.Past {
		line = "  " + line
	} else {
		line = "* " + line
	}
	return line
}

// FormatJSON returns the JSON representation of the forecast
func FormatJSON(grid []models.SegmentForecast) string {
	data := prepareGridData(grid)
	jsonBytes, _ := json.MarshalIndent(data, "", "  ")
	return string(jsonBytes)
}

// inputColumns are the input metrics in CSV and spreadsheet column order.
func inputColumns() []models.MetricSpec {
	var cols []models.MetricSpec
	for _, spec := range models.Metrics() {
		if spec.Key == models.MetricIsLocked || spec.Key == models.MetricSentiment {
			continue
		}
		cols = append(cols, spec)
	}
	return cols
}

var resultHeaders = []string{
	"Est Volume", "Total Volume", "AI Deflected", "Chat Deflected", "Remaining Volume",
	"TDCX Max Capacity", "TDCX Volume", "Core Team Volume", "Required FTEs",
	"Required FTEs (Improved)", "Effective Team Size", "Gap", "TDCX % of Total", "Severity",
}

func headers() []string {
	h := []string{"Segment", "Month", "Period", "Row Locked", "Sentiment"}
	for _, spec := range inputColumns() {
		h = append(h, spec.Label)
	}
	h = append(h, resultHeaders...)
	return append(h, "Overridden")
}

// rowCells renders a month as one record, leaving inputs the segment
// doesn't carry empty.
func rowCells(seg SegmentData, m MonthData) []string {
	period := "future"
	switch {
	case m.Past:
		period = "past"
	case m.Current:
		period = "current"
	}
	cells := []string{seg.Key, m.Month, period, strconv.FormatBool(m.Locked), string(m.Sentiment)}
	for _, spec := range inputColumns() {
		v, ok := m.Inputs[string(spec.Key)]
		if !ok || v == nil {
			cells = append(cells, "")
			continue
		}
		cells = append(cells, fmt.Sprint(v))
	}
	r := m.Result
	cells = append(cells,
		num(r.EstVolume), num(r.TotalVolume), num(r.AIDeflectedVolume), num(r.ChatDeflectedVolume),
		num(r.RemainingVolume), num(r.TDCXMaxCapacity), num(r.TDCXVolume), num(r.CoreTeamVolume),
		strconv.Itoa(r.RequiredFTEs), strconv.Itoa(r.RequiredFTEsWithImprovement),
		num(m.EffectiveTeamSize), num(r.Gap), num(r.TDCXPercentOfTotal), string(m.Severity),
		strings.Join(m.Overridden, ";"),
	)
	return cells
}

// FormatCSV returns the CSV representation of the forecast
func FormatCSV(grid []models.SegmentForecast) string {
	data := prepareGridData(grid)
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	writer.Write(headers())
	for _, seg := range data {
		for _, m := range seg.Months {
			writer.Write(rowCells(seg, m))
		}
	}

	writer.Flush()
	return sb.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
