// Package forecast resolves effective cell values and turns them into a
// staffing forecast for one segment-month.
package forecast

import (
	"superforecaster/models"
)

// Defaults provides segment default configuration values.
type Defaults interface {
	Default(segment string, metric models.Metric) (float64, bool)
}

// Overrides provides manual per-cell values.
type Overrides interface {
	Override(segment, month string, metric models.Metric) (models.Value, bool)
}

// Engine resolves values and computes forecasts. It holds no state of its
// own; results depend only on the defaults and overrides it reads.
type Engine struct {
	defaults  Defaults
	overrides Overrides
}

// NewEngine returns an Engine reading from the given sources.
func NewEngine(defaults Defaults, overrides Overrides) *Engine {
	return &Engine{defaults: defaults, overrides: overrides}
}

// Resolve returns the effective value of a cell. Precedence, highest first:
//  1. a manual override
//  2. a seasonal multiplier of 1.0 in past and current months
//  3. the segment default
//
// Unknown metrics fall through to the default lookup and may come back absent.
func (e *Engine) Resolve(segment string, month models.Month, metric models.Metric) models.Value {
	if v, ok := e.overrides.Override(segment, month.Label, metric); ok && !v.IsAbsent() {
		return v
	}
	if metric == models.MetricSeasonalMultiplier && (month.IsPastMonth || month.IsCurrentMonth) {
		return models.Number(1.0)
	}
	if v, ok := e.defaults.Default(segment, metric); ok {
		return models.Number(v)
	}
	return models.Absent
}

// number resolves a metric as a float, treating absent values as zero.
func (e *Engine) number(segment string, month models.Month, metric models.Metric) float64 {
	return e.Resolve(segment, month, metric).Float()
}

// ShiftLink moves headcount from one segment's core team to the next one in
// the chain. The shift amount is owned by the From segment.
type ShiftLink struct {
	From   string
	To     string
	Metric models.Metric
}

// ShiftChain is nonvip -> vip -> plus.
var ShiftChain = []ShiftLink{
	{From: models.SegmentNonVIP, To: models.SegmentVIP, Metric: models.MetricShiftToVIP},
	{From: models.SegmentVIP, To: models.SegmentPlus, Metric: models.MetricShiftToPlus},
}

// EffectiveTeamSize returns the core team size after team shifts: headcount
// shifted out is subtracted, headcount shifted in is added. The total across
// the chain equals the total of the unadjusted sizes.
func (e *Engine) EffectiveTeamSize(segment string, month models.Month) float64 {
	size := e.number(segment, month, models.MetricCoreTeamSize)
	for _, link := range ShiftChain {
		switch segment {
		case link.From:
			size -= e.number(link.From, month, link.Metric)
		case link.To:
			size += e.number(link.From, month, link.Metric)
		}
	}
	return size
}
