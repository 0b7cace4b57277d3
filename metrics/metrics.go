// Package metrics provides Prometheus observability metrics for the forecaster.
// It includes staffing metrics for planning visibility and operational
// metrics for the override store and persistence.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// STAFFING METRICS - Planning Visibility
// =============================================================================

// GapFTEs tracks the staffing gap per segment and month.
// Positive values mean the segment is understaffed.
var GapFTEs = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "forecast",
	Name:      "gap_ftes",
	Help:      "Required FTEs (with handle time improvement) minus available core FTEs",
}, []string{"segment", "month"})

// RequiredFTEs tracks the required core FTEs with handle time improvement applied.
var RequiredFTEs = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "forecast",
	Name:      "required_ftes",
	Help:      "Required core FTEs after handle time improvement",
}, []string{"segment", "month"})

// TotalVolume tracks the seasonal ticket volume before deflection.
var TotalVolume = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "forecast",
	Name:      "total_volume",
	Help:      "Monthly ticket volume after seasonality, before deflection",
}, []string{"segment", "month"})

// CriticalMonths tracks how many months of a segment have a critical gap.
var CriticalMonths = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "forecast",
	Name:      "critical_months",
	Help:      "Number of months in the timeline with a gap above 2 FTEs",
}, []string{"segment"})

// =============================================================================
// OPERATIONAL METRICS - Store and Persistence Health
// =============================================================================

// OverridesActive tracks the number of manually overridden cells per segment.
var OverridesActive = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "overrides",
	Name:      "active_cells",
	Help:      "Number of cells carrying a manual override",
}, []string{"segment"})

// StoreDeniedTotal counts edits refused because of locks or missing privilege.
var StoreDeniedTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "overrides",
	Name:      "denied_total",
	Help:      "Edits refused by lock state or privilege checks",
}, []string{"operation"})

// PersistenceFailuresTotal counts swallowed load/save failures by record.
var PersistenceFailuresTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "persistence",
	Name:      "failures_total",
	Help:      "Failed record loads and saves, absorbed by the adapter boundary",
}, []string{"record", "op"})

// RecomputeDurationSeconds tracks time to recompute the whole forecast grid.
var RecomputeDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "forecast",
	Name:      "recompute_duration_seconds",
	Help:      "Time taken to recompute every segment-month forecast",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
})

// =============================================================================
// Helper Functions
// =============================================================================

// ResetForecastGauges clears the per-month forecast gauges before a recompute
// so months that rolled off the timeline stop being reported.
func ResetForecastGauges() {
	GapFTEs.Reset()
	RequiredFTEs.Reset()
	TotalVolume.Reset()
	CriticalMonths.Reset()
	OverridesActive.Reset()
}
