// Package planner is the application object behind the forecast table. It
// owns the segment defaults, the override store and the persistence
// repository, and is the only entry point presentation code talks to.
package planner

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"superforecaster/calendar"
	customerrors "superforecaster/errors"
	"superforecaster/forecast"
	"superforecaster/metrics"
	"superforecaster/models"
	"superforecaster/overrides"
	"superforecaster/persistence"

	"go.uber.org/zap"
)

// Planner wires segment defaults, overrides and persistence together. It is
// not safe for concurrent use; callers apply one edit at a time.
type Planner struct {
	segments []models.Segment
	index    map[string]int
	store    *overrides.Store
	engine   *forecast.Engine
	repo     *persistence.Repository
	months   []models.Month
	logger   *zap.Logger
}

// New returns a Planner seeded with the built-in segments over months. A nil
// repository keeps everything in memory.
func New(repo *persistence.Repository, months []models.Month, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if repo == nil {
		repo = persistence.NewRepository(persistence.NewMemoryAdapter(), "", logger)
	}

	p := &Planner{
		segments: models.DefaultSegments(),
		index:    make(map[string]int),
		store:    overrides.NewStore(logger),
		repo:     repo,
		months:   months,
		logger:   logger,
	}
	for i, s := range p.segments {
		p.index[s.Key] = i
	}
	p.engine = forecast.NewEngine(p, p.store)
	return p
}

// IsAdminRequest reports whether request parameters ask for admin mode.
func IsAdminRequest(q url.Values) bool {
	return q.Get("admin") == "true"
}

// Load restores saved state. Saved segment config is merged onto the built-in
// defaults, so metrics added since the save keep their seed value. Saved
// segments that no longer exist are ignored. Saved overrides are merged onto
// the in-memory ones. Missing or unreadable records leave defaults in place.
func (p *Planner) Load(ctx context.Context) {
	if state, ok := p.repo.LoadState(ctx); ok {
		for key, rec := range state.Segments {
			i, known := p.index[key]
			if !known {
				p.logger.Debug("ignoring saved segment", zap.String("segment", key))
				continue
			}
			merged := overrides.Merge(configTree(p.segments[i].Config), rec.Config)
			p.segments[i].Config = numericConfig(merged)
		}
		if state.ColumnLocks != nil {
			p.store.SetColumnLocks(state.ColumnLocks)
		}
	}
	if tree, ok := p.repo.LoadOverrides(ctx); ok {
		p.store.MergeLoaded(tree)
	}

	p.logger.Info("planner loaded",
		zap.Int("segments", len(p.segments)),
		zap.Int("months", len(p.months)),
		zap.Strings("overridden_segments", p.store.Segments()),
	)
	p.Recompute()
}

// Default implements forecast.Defaults over the current segment config.
func (p *Planner) Default(segment string, metric models.Metric) (float64, bool) {
	i, ok := p.index[segment]
	if !ok {
		return 0, false
	}
	return p.segments[i].Default(metric)
}

// Segments returns a copy of the segments in chain order.
func (p *Planner) Segments() []models.Segment {
	out := make([]models.Segment, len(p.segments))
	for i, s := range p.segments {
		out[i] = copySegment(s)
	}
	return out
}

// Segment returns a copy of one segment.
func (p *Planner) Segment(key string) (models.Segment, bool) {
	i, ok := p.index[key]
	if !ok {
		return models.Segment{}, false
	}
	return copySegment(p.segments[i]), true
}

// Months returns the timeline.
func (p *Planner) Months() []models.Month {
	out := make([]models.Month, len(p.months))
	copy(out, p.months)
	return out
}

// Month looks up a timeline month by label.
func (p *Planner) Month(label string) (models.Month, bool) {
	return calendar.Find(p.months, label)
}

// Resolve returns the effective stored value of a cell.
func (p *Planner) Resolve(segment string, month models.Month, metric models.Metric) models.Value {
	return p.engine.Resolve(segment, month, metric)
}

// Calculate returns the forecast of one segment-month.
func (p *Planner) Calculate(segment string, month models.Month) models.ForecastResult {
	return p.engine.Calculate(segment, month)
}

// EffectiveTeamSize returns the core team size after team shifts.
func (p *Planner) EffectiveTeamSize(segment string, month models.Month) float64 {
	return p.engine.EffectiveTeamSize(segment, month)
}

func (p *Planner) IsRowLocked(segment, month string) bool {
	return p.store.IsRowLocked(segment, month)
}

func (p *Planner) IsColumnLocked(segment string, metric models.Metric) bool {
	return p.store.IsColumnLocked(segment, metric)
}

// IsOverridden reports whether a cell carries a manual value.
func (p *Planner) IsOverridden(segment, month string, metric models.Metric) bool {
	return p.store.HasOverride(segment, month, metric)
}

// CanReset reports whether the per-cell reset control applies: the cell is
// overridden and neither its row nor its column is locked.
func (p *Planner) CanReset(segment, month string, metric models.Metric) bool {
	return p.IsOverridden(segment, month, metric) &&
		!p.IsRowLocked(segment, month) &&
		!p.IsColumnLocked(segment, metric)
}

// CanToggleRowLock reports whether actor may flip the row lock.
func (p *Planner) CanToggleRowLock(segment, month string, admin bool) bool {
	return admin || !p.IsRowLocked(segment, month)
}

// CanResetColumn reports whether the reset-all control applies to a column.
func (p *Planner) CanResetColumn(segment string, metric models.Metric) bool {
	return !p.IsColumnLocked(segment, metric)
}

// SetOverride records a display-unit edit for a cell. Locked cells are left
// untouched. Returns whether the edit was applied.
func (p *Planner) SetOverride(ctx context.Context, segment, month string, metric models.Metric, v models.Value) bool {
	applied := p.store.SetOverride(segment, month, metric, v)
	if applied {
		p.commit(ctx, true)
	}
	return applied
}

// ClearOverride resets one cell to its resolved default.
func (p *Planner) ClearOverride(ctx context.Context, segment, month string, metric models.Metric) bool {
	cleared := p.store.ClearOverride(segment, month, metric)
	if cleared {
		p.commit(ctx, true)
	}
	return cleared
}

// ClearAllOverridesForConfig resets a column across every unlocked row.
// Returns the number of cells cleared.
func (p *Planner) ClearAllOverridesForConfig(ctx context.Context, segment string, metric models.Metric) int {
	n := p.store.ClearAllOverridesForConfig(segment, metric)
	if n > 0 {
		p.commit(ctx, true)
	}
	return n
}

// ToggleRowLock flips a row lock and returns the resulting state.
func (p *Planner) ToggleRowLock(ctx context.Context, segment, month string, admin bool) bool {
	before := p.store.IsRowLocked(segment, month)
	after := p.store.ToggleRowLock(segment, month, admin)
	if after != before {
		p.commit(ctx, true)
	}
	return after
}

// ToggleColumnLock flips a column lock and returns the resulting state.
func (p *Planner) ToggleColumnLock(ctx context.Context, segment string, metric models.Metric, admin bool) bool {
	before := p.store.IsColumnLocked(segment, metric)
	after := p.store.ToggleColumnLock(segment, metric, admin)
	if after != before {
		p.commit(ctx, false)
	}
	return after
}

// SetDefault changes a segment default from a display-unit value and returns
// the labels of the months the new default shows up in: those without an
// override for metric whose row and column are unlocked.
func (p *Planner) SetDefault(ctx context.Context, segment string, metric models.Metric, display float64) []string {
	i, ok := p.index[segment]
	spec, known := models.LookupMetric(metric)
	if !ok || !known || !spec.Default {
		p.logger.Debug("default edit ignored",
			zap.String("segment", segment),
			zap.String("metric", string(metric)),
		)
		return nil
	}

	p.segments[i].Config[metric] = spec.FromDisplay(display)

	var propagated []string
	if !p.store.IsColumnLocked(segment, metric) {
		for _, m := range p.months {
			if p.store.HasOverride(segment, m.Label, metric) || p.store.IsRowLocked(segment, m.Label) {
				continue
			}
			propagated = append(propagated, m.Label)
		}
	}

	p.logger.Debug("default updated",
		zap.String("segment", segment),
		zap.String("metric", string(metric)),
		zap.Float64("value", display),
		zap.Int("propagated_months", len(propagated)),
	)
	p.commit(ctx, false)
	return propagated
}

// Apply runs one scripted edit. Unknown segments and months are errors here
// because a script names them explicitly; lock refusals are not.
func (p *Planner) Apply(ctx context.Context, e models.Edit, admin bool) error {
	if _, ok := p.index[e.Segment]; !ok {
		return fmt.Errorf("%w: %q", customerrors.ErrUnknownSegment, e.Segment)
	}
	switch e.Action {
	case models.ActionSet, models.ActionClear, models.ActionLockRow:
		if _, ok := p.Month(e.Month); !ok {
			return fmt.Errorf("%w: %q", customerrors.ErrUnknownMonth, e.Month)
		}
	}

	switch e.Action {
	case models.ActionSet:
		p.SetOverride(ctx, e.Segment, e.Month, e.Metric, e.Value)
	case models.ActionClear:
		p.ClearOverride(ctx, e.Segment, e.Month, e.Metric)
	case models.ActionResetColumn:
		p.ClearAllOverridesForConfig(ctx, e.Segment, e.Metric)
	case models.ActionLockRow:
		p.ToggleRowLock(ctx, e.Segment, e.Month, admin)
	case models.ActionLockColumn:
		p.ToggleColumnLock(ctx, e.Segment, e.Metric, admin)
	case models.ActionDefault:
		p.SetDefault(ctx, e.Segment, e.Metric, e.Value.Float())
	default:
		return fmt.Errorf("%w: %q", customerrors.ErrInvalidAction, e.Action)
	}
	return nil
}

// Grid builds the forecast table for every segment in chain order.
func (p *Planner) Grid() []models.SegmentForecast {
	out := make([]models.SegmentForecast, 0, len(p.segments))
	for _, seg := range p.segments {
		sf := models.SegmentForecast{
			Segment:     copySegment(seg),
			ColumnLocks: p.store.SegmentColumnLocks(seg.Key),
			Rows:        make([]models.ForecastRow, 0, len(p.months)),
		}
		for _, m := range p.months {
			sf.Rows = append(sf.Rows, p.row(seg.Key, m))
		}
		out = append(out, sf)
	}
	return out
}

func (p *Planner) row(segment string, m models.Month) models.ForecastRow {
	result := p.engine.Calculate(segment, m)
	r := models.ForecastRow{
		Month:             m,
		Inputs:            make(map[models.Metric]models.Value),
		EffectiveTeamSize: p.engine.EffectiveTeamSize(segment, m),
		Result:            result,
		Severity:          result.Severity(),
		RowLocked:         p.store.IsRowLocked(segment, m.Label),
		Muted:             m.IsPastMonth,
		Overridden:        make(map[models.Metric]bool),
	}
	for _, spec := range models.EditableMetrics(segment) {
		if spec.Key == models.MetricSentiment && !m.AcceptsSentiment() {
			continue
		}
		v := p.engine.Resolve(segment, m, spec.Key)
		if v.Kind == models.KindNumber {
			v = models.Number(spec.ToDisplay(v.Num))
		}
		r.Inputs[spec.Key] = v
		if p.store.HasOverride(segment, m.Label, spec.Key) {
			r.Overridden[spec.Key] = true
		}
	}
	return r
}

// Recompute rebuilds the grid and publishes it as metrics.
func (p *Planner) Recompute() []models.SegmentForecast {
	start := time.Now()
	grid := p.Grid()
	metrics.RecomputeDurationSeconds.Observe(time.Since(start).Seconds())

	metrics.ResetForecastGauges()
	for _, sf := range grid {
		critical := 0
		for _, r := range sf.Rows {
			metrics.GapFTEs.WithLabelValues(sf.Segment.Key, r.Month.Label).Set(r.Result.Gap)
			metrics.RequiredFTEs.WithLabelValues(sf.Segment.Key, r.Month.Label).Set(float64(r.Result.RequiredFTEsWithImprovement))
			metrics.TotalVolume.WithLabelValues(sf.Segment.Key, r.Month.Label).Set(r.Result.TotalVolume)
			if r.Severity == models.GapCritical {
				critical++
			}
		}
		metrics.CriticalMonths.WithLabelValues(sf.Segment.Key).Set(float64(critical))
		metrics.OverridesActive.WithLabelValues(sf.Segment.Key).Set(float64(p.store.ActiveCells(sf.Segment.Key)))
	}
	return grid
}

// Close releases the persistence adapter.
func (p *Planner) Close() error {
	return p.repo.Close()
}

// commit recomputes and writes the state record, plus the overrides record
// when the edit touched overrides.
func (p *Planner) commit(ctx context.Context, overridesChanged bool) {
	p.Recompute()
	if overridesChanged {
		p.repo.SaveOverrides(ctx, p.store.Tree())
	}
	p.repo.SaveState(ctx, p.stateRecord())
}

func (p *Planner) stateRecord() persistence.StateRecord {
	rec := persistence.StateRecord{
		Segments:    make(map[string]persistence.SegmentRecord, len(p.segments)),
		ColumnLocks: p.store.ColumnLocks(),
	}
	for _, s := range p.segments {
		rec.Segments[s.Key] = persistence.SegmentRecord{
			Name:   s.Name,
			Color:  s.Color,
			Config: configTree(s.Config),
		}
	}
	return rec
}

func configTree(cfg map[models.Metric]float64) overrides.Tree {
	t := make(overrides.Tree, len(cfg))
	for k, v := range cfg {
		t[string(k)] = v
	}
	return t
}

// numericConfig keeps the numeric leaves of a config tree. Numeric strings
// from hand-edited records are accepted.
func numericConfig(t overrides.Tree) map[models.Metric]float64 {
	out := make(map[models.Metric]float64, len(t))
	for k, raw := range t {
		v := models.ValueOf(raw)
		switch v.Kind {
		case models.KindNumber:
			out[models.Metric(k)] = v.Num
		case models.KindText:
			if f, err := strconv.ParseFloat(v.Str, 64); err == nil {
				out[models.Metric(k)] = f
			}
		}
	}
	return out
}

func copySegment(s models.Segment) models.Segment {
	cfg := make(map[models.Metric]float64, len(s.Config))
	for k, v := range s.Config {
		cfg[k] = v
	}
	s.Config = cfg
	return s
}
