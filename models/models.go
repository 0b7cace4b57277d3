package models

import "time"

// Segment is a customer tier with its own default operating parameters.
type Segment struct {
	Key    string
	Name   string
	Color  string
	Config map[Metric]float64
}

// Default returns the configured default for metric, if any.
func (s *Segment) Default(metric Metric) (float64, bool) {
	v, ok := s.Config[metric]
	return v, ok
}

// Month is one entry of the rolling forecast timeline.
type Month struct {
	Label          string
	Date           time.Time
	Offset         int
	IsPastMonth    bool
	IsCurrentMonth bool
}

// IsFutureMonth reports whether the month lies after the current month.
func (m Month) IsFutureMonth() bool {
	return !m.IsPastMonth && !m.IsCurrentMonth
}

// AcceptsSentiment reports whether a sentiment can be recorded for the month.
// Sentiment describes how a month actually went, so future months don't take one.
func (m Month) AcceptsSentiment() bool {
	return m.IsPastMonth || m.IsCurrentMonth
}

// ForecastResult holds the derived figures for one segment-month.
type ForecastResult struct {
	EstVolume                          float64 `json:"est_volume"`
	TotalVolume                        float64 `json:"total_volume"`
	AIDeflectedVolume                  float64 `json:"ai_deflected_volume"`
	ChatDeflectedVolume                float64 `json:"chat_deflected_volume"`
	RemainingVolume                    float64 `json:"remaining_volume"`
	TDCXMaxCapacity                    float64 `json:"tdcx_max_capacity"`
	TDCXVolume                         float64 `json:"tdcx_volume"`
	CoreTeamVolume                     float64 `json:"core_team_volume"`
	CoreTicketsPerMonth                float64 `json:"core_tickets_per_month"`
	RequiredFTEs                       int     `json:"required_ftes"`
	EfficiencyMultiplier               float64 `json:"efficiency_multiplier"`
	CoreTicketsPerMonthWithImprovement float64 `json:"core_tickets_per_month_with_improvement"`
	RequiredFTEsWithImprovement        int     `json:"required_ftes_with_improvement"`
	Gap                                float64 `json:"gap"`
	TDCXPercentOfTotal                 float64 `json:"tdcx_percent_of_total"`
}

// Severity classifies the staffing gap of the result.
func (r ForecastResult) Severity() GapSeverity {
	return ClassifyGap(r.Gap)
}

// GapSeverity buckets a staffing gap for presentation.
type GapSeverity string

const (
	GapSatisfied GapSeverity = "satisfied"
	GapWarning   GapSeverity = "warning"
	GapCritical  GapSeverity = "critical"
)

// ClassifyGap maps a gap to its severity: above 2 FTEs is critical, any
// positive gap up to 2 is a warning, and zero or below is satisfied.
func ClassifyGap(gap float64) GapSeverity {
	switch {
	case gap > 2:
		return GapCritical
	case gap > 0:
		return GapWarning
	default:
		return GapSatisfied
	}
}

// ForecastRow is one month of a segment's forecast table. Inputs are in
// display units. Muted rows are past months, shown for reference.
type ForecastRow struct {
	Month             Month
	Inputs            map[Metric]Value
	EffectiveTeamSize float64
	Result            ForecastResult
	Severity          GapSeverity
	RowLocked         bool
	Muted             bool
	Overridden        map[Metric]bool
}

// SegmentForecast groups the forecast rows of one segment.
type SegmentForecast struct {
	Segment     Segment
	ColumnLocks map[Metric]bool
	Rows        []ForecastRow
}
