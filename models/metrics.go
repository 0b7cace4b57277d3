package models

// Metric names a resolvable per segment-month quantity.
type Metric string

const (
	MetricCustomers             Metric = "customers"
	MetricContactRate           Metric = "contactRate"
	MetricAIDeflection          Metric = "aiDeflection"
	MetricChatDeflection        Metric = "chatDeflection"
	MetricHandleTimeImprovement Metric = "handleTimeImprovement"
	MetricCoreTeamSize          Metric = "coreTeamSize"
	MetricTDCXTeamSize          Metric = "tdcxTeamSize"
	MetricCoreTicketsPerDay     Metric = "coreTicketsPerDay"
	MetricTDCXTicketsPerDay     Metric = "tdcxTicketsPerDay"
	MetricSeasonalMultiplier    Metric = "seasonalMultiplier"
	MetricCoreOvertime          Metric = "coreOvertime"
	MetricShiftToVIP            Metric = "shiftToVip"
	MetricShiftToPlus           Metric = "shiftToPlus"
	MetricSentiment             Metric = "sentiment"
	MetricIsLocked              Metric = "isLocked"
)

// Unit describes how a metric is represented internally.
type Unit int

const (
	UnitCount Unit = iota
	UnitFraction
	UnitPercentPoints
	UnitFTE
	UnitTicketsPerDay
	UnitMultiplier
	UnitCategorical
	UnitFlag
)

// Percent is a value in percentage points (20 means 20%).
type Percent float64

// Fraction is a value on the unit interval (0.2 means 20%).
type Fraction float64

// Fraction converts percentage points to a fraction.
func (p Percent) Fraction() Fraction { return Fraction(p / 100) }

// Percent converts a fraction to percentage points.
func (f Fraction) Percent() Percent { return Percent(f * 100) }

// MetricSpec is the registry entry for a metric.
type MetricSpec struct {
	Key   Metric
	Label string
	Unit  Unit
	// Default marks metrics that live in a segment's default configuration.
	Default bool
	// Segment restricts a metric to one segment; empty means every segment.
	Segment string
}

// FromDisplay converts a user-facing number into the stored representation.
// Only fraction metrics differ: they are entered in percentage points.
func (s MetricSpec) FromDisplay(v float64) float64 {
	if s.Unit == UnitFraction {
		return float64(Percent(v).Fraction())
	}
	return v
}

// ToDisplay converts a stored number into its user-facing representation.
func (s MetricSpec) ToDisplay(v float64) float64 {
	if s.Unit == UnitFraction {
		return float64(Fraction(v).Percent())
	}
	return v
}

// Numeric reports whether the metric holds a number.
func (s MetricSpec) Numeric() bool {
	return s.Unit != UnitCategorical && s.Unit != UnitFlag
}

// AppliesTo reports whether the metric is editable for the given segment.
func (s MetricSpec) AppliesTo(segment string) bool {
	return s.Segment == "" || s.Segment == segment
}

var metricSpecs = []MetricSpec{
	{Key: MetricCustomers, Label: "Customer Base", Unit: UnitCount, Default: true},
	{Key: MetricContactRate, Label: "Contact Rate (%)", Unit: UnitFraction, Default: true},
	{Key: MetricSeasonalMultiplier, Label: "Seasonal Multiplier", Unit: UnitMultiplier, Default: true},
	{Key: MetricAIDeflection, Label: "AI Deflection %", Unit: UnitPercentPoints, Default: true},
	{Key: MetricChatDeflection, Label: "Chat Deflection %", Unit: UnitPercentPoints, Default: true},
	{Key: MetricTDCXTeamSize, Label: "TDCX Team Size", Unit: UnitFTE, Default: true},
	{Key: MetricTDCXTicketsPerDay, Label: "TDCX Tickets/Day", Unit: UnitTicketsPerDay, Default: true},
	{Key: MetricCoreTeamSize, Label: "Core Team Size", Unit: UnitFTE, Default: true},
	{Key: MetricCoreOvertime, Label: "Core Overtime", Unit: UnitFTE},
	{Key: MetricCoreTicketsPerDay, Label: "Core Tickets/Day", Unit: UnitTicketsPerDay, Default: true},
	{Key: MetricHandleTimeImprovement, Label: "% Improvement in Handle Time", Unit: UnitPercentPoints, Default: true},
	{Key: MetricShiftToVIP, Label: "Shift to VIP", Unit: UnitFTE, Segment: SegmentNonVIP},
	{Key: MetricShiftToPlus, Label: "Shift to Plus", Unit: UnitFTE, Segment: SegmentVIP},
	{Key: MetricSentiment, Label: "Sentiment", Unit: UnitCategorical},
	{Key: MetricIsLocked, Label: "Lock", Unit: UnitFlag},
}

var metricIndex = func() map[Metric]MetricSpec {
	idx := make(map[Metric]MetricSpec, len(metricSpecs))
	for _, s := range metricSpecs {
		idx[s.Key] = s
	}
	return idx
}()

// Metrics returns the registry in table column order.
func Metrics() []MetricSpec {
	out := make([]MetricSpec, len(metricSpecs))
	copy(out, metricSpecs)
	return out
}

// LookupMetric returns the registry entry for key.
func LookupMetric(key Metric) (MetricSpec, bool) {
	s, ok := metricIndex[key]
	return s, ok
}

// SpecFor returns the registry entry for key, treating unknown keys as plain counts.
func SpecFor(key Metric) MetricSpec {
	if s, ok := metricIndex[key]; ok {
		return s
	}
	return MetricSpec{Key: key, Label: string(key), Unit: UnitCount}
}

// EditableMetrics returns the per-month editable metrics for a segment, in
// column order. The row lock flag is not a cell and is excluded.
func EditableMetrics(segment string) []MetricSpec {
	var out []MetricSpec
	for _, s := range metricSpecs {
		if s.Key == MetricIsLocked || !s.AppliesTo(segment) {
			continue
		}
		out = append(out, s)
	}
	return out
}
