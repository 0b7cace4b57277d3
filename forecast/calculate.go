package forecast

import (
	"math"

	"superforecaster/models"
)

const (
	// WorkingDaysPerMonth is the number of staffed days assumed per month.
	WorkingDaysPerMonth = 22
	// OccupancyRate is the share of core FTE time spent on tickets.
	OccupancyRate = 0.85
	// MaxHandleTimeImprovement caps the handle time improvement percentage so
	// the efficiency multiplier stays positive.
	MaxHandleTimeImprovement = 99
)

// Inputs are the resolved values one forecast is computed from.
type Inputs struct {
	Customers             float64
	ContactRate           models.Fraction
	SeasonalMultiplier    float64
	AIDeflection          models.Percent
	ChatDeflection        models.Percent
	HandleTimeImprovement models.Percent
	TDCXTeamSize          float64
	TDCXTicketsPerDay     float64
	CoreTicketsPerDay     float64
	CoreOvertime          float64
	EffectiveTeamSize     float64
}

// Inputs resolves every value the forecast of a segment-month depends on.
func (e *Engine) Inputs(segment string, month models.Month) Inputs {
	return Inputs{
		Customers:             e.number(segment, month, models.MetricCustomers),
		ContactRate:           models.Fraction(e.number(segment, month, models.MetricContactRate)),
		SeasonalMultiplier:    e.number(segment, month, models.MetricSeasonalMultiplier),
		AIDeflection:          models.Percent(e.number(segment, month, models.MetricAIDeflection)),
		ChatDeflection:        models.Percent(e.number(segment, month, models.MetricChatDeflection)),
		HandleTimeImprovement: models.Percent(e.number(segment, month, models.MetricHandleTimeImprovement)),
		TDCXTeamSize:          e.number(segment, month, models.MetricTDCXTeamSize),
		TDCXTicketsPerDay:     e.number(segment, month, models.MetricTDCXTicketsPerDay),
		CoreTicketsPerDay:     e.number(segment, month, models.MetricCoreTicketsPerDay),
		CoreOvertime:          e.number(segment, month, models.MetricCoreOvertime),
		EffectiveTeamSize:     e.EffectiveTeamSize(segment, month),
	}
}

// Calculate computes the forecast of a segment-month from its resolved inputs.
func (e *Engine) Calculate(segment string, month models.Month) models.ForecastResult {
	return Compute(e.Inputs(segment, month))
}

// Compute runs the volume-to-gap pipeline. It is a pure function of in.
func Compute(in Inputs) models.ForecastResult {
	var r models.ForecastResult

	r.EstVolume = round(in.Customers * float64(in.ContactRate))
	r.TotalVolume = round(r.EstVolume * in.SeasonalMultiplier)

	r.AIDeflectedVolume = round(r.TotalVolume * float64(in.AIDeflection.Fraction()))
	r.ChatDeflectedVolume = round(r.TotalVolume * float64(in.ChatDeflection.Fraction()))
	// Not clamped: deflection above 100% in total leaves a negative remainder.
	r.RemainingVolume = r.TotalVolume - r.AIDeflectedVolume - r.ChatDeflectedVolume

	r.TDCXMaxCapacity = in.TDCXTeamSize * in.TDCXTicketsPerDay * WorkingDaysPerMonth
	if in.TDCXTeamSize > 0 {
		r.TDCXVolume = math.Min(r.RemainingVolume, r.TDCXMaxCapacity)
	}
	r.CoreTeamVolume = r.RemainingVolume - r.TDCXVolume

	r.CoreTicketsPerMonth = in.CoreTicketsPerDay * WorkingDaysPerMonth * OccupancyRate
	if r.CoreTicketsPerMonth > 0 {
		r.RequiredFTEs = int(math.Ceil(r.CoreTeamVolume / r.CoreTicketsPerMonth))
	}

	improvement := math.Max(0, math.Min(float64(in.HandleTimeImprovement), MaxHandleTimeImprovement))
	r.EfficiencyMultiplier = 1 - improvement/100
	if r.CoreTicketsPerMonth > 0 {
		r.CoreTicketsPerMonthWithImprovement = r.CoreTicketsPerMonth / r.EfficiencyMultiplier
	}
	if r.CoreTicketsPerMonthWithImprovement > 0 {
		r.RequiredFTEsWithImprovement = int(math.Ceil(r.CoreTeamVolume / r.CoreTicketsPerMonthWithImprovement))
	}

	r.Gap = float64(r.RequiredFTEsWithImprovement) - (in.EffectiveTeamSize + in.CoreOvertime)

	if r.RemainingVolume > 0 {
		r.TDCXPercentOfTotal = round1(r.TDCXVolume / r.RemainingVolume * 100)
	}

	return r
}

// round rounds half up towards positive infinity.
func round(x float64) float64 {
	return math.Floor(x + 0.5)
}

// round1 rounds to one decimal place, half up.
func round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}
