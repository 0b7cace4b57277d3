package overrides

import (
	"sort"

	"superforecaster/metrics"
	"superforecaster/models"

	"go.uber.org/zap"
)

// LockedKey is the tree key of a row's lock flag.
const LockedKey = string(models.MetricIsLocked)

// row is the override container of one segment-month.
type row struct {
	values map[models.Metric]models.Value
	locked bool
}

func (r *row) empty() bool {
	return len(r.values) == 0 && !r.locked
}

// Store owns every manual override and lock. All mutation goes through its
// methods; permission failures and locked cells are silent no-ops.
type Store struct {
	rows        map[string]map[string]*row
	columnLocks map[string]map[models.Metric]bool
	logger      *zap.Logger
}

// NewStore returns an empty override store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		rows:        make(map[string]map[string]*row),
		columnLocks: make(map[string]map[models.Metric]bool),
		logger:      logger,
	}
}

func (s *Store) lookup(segment, month string) *row {
	return s.rows[segment][month]
}

func (s *Store) ensure(segment, month string) *row {
	months, ok := s.rows[segment]
	if !ok {
		months = make(map[string]*row)
		s.rows[segment] = months
	}
	r, ok := months[month]
	if !ok {
		r = &row{values: make(map[models.Metric]models.Value)}
		months[month] = r
	}
	return r
}

// prune drops the month container when it holds nothing, then the segment
// container when it has no months left.
func (s *Store) prune(segment, month string) {
	months, ok := s.rows[segment]
	if !ok {
		return
	}
	if r, ok := months[month]; ok && r.empty() {
		delete(months, month)
	}
	if len(months) == 0 {
		delete(s.rows, segment)
	}
}

// Override returns the manual override for a cell. The row lock flag is
// reported under models.MetricIsLocked when set.
func (s *Store) Override(segment, month string, metric models.Metric) (models.Value, bool) {
	r := s.lookup(segment, month)
	if r == nil {
		return models.Absent, false
	}
	if metric == models.MetricIsLocked {
		if r.locked {
			return models.Bool(true), true
		}
		return models.Absent, false
	}
	v, ok := r.values[metric]
	if !ok || v.IsAbsent() {
		return models.Absent, false
	}
	return v, true
}

// HasOverride reports whether a cell carries a manual value.
func (s *Store) HasOverride(segment, month string, metric models.Metric) bool {
	_, ok := s.Override(segment, month, metric)
	return ok && metric != models.MetricIsLocked
}

// IsRowLocked reports whether the segment-month row is frozen.
func (s *Store) IsRowLocked(segment, month string) bool {
	r := s.lookup(segment, month)
	return r != nil && r.locked
}

// IsColumnLocked reports whether metric is frozen across the segment.
func (s *Store) IsColumnLocked(segment string, metric models.Metric) bool {
	return s.columnLocks[segment][metric]
}

// SetOverride records a user edit. v is in display units and is converted to
// the stored representation here. Setting an absent value, or the empty
// sentiment, clears the cell instead. Returns false when the edit was refused
// because the row or column is locked.
func (s *Store) SetOverride(segment, month string, metric models.Metric, v models.Value) bool {
	if metric == models.MetricIsLocked {
		return false
	}
	if s.IsColumnLocked(segment, metric) || s.IsRowLocked(segment, month) {
		s.deny("set_override", segment, month, metric)
		return false
	}
	if v.IsAbsent() || (v.Kind == models.KindText && v.Str == string(models.SentimentNone)) {
		s.ClearOverride(segment, month, metric)
		return true
	}
	if v.Kind == models.KindNumber {
		v = models.Number(models.SpecFor(metric).FromDisplay(v.Num))
	}
	s.ensure(segment, month).values[metric] = v
	return true
}

// ClearOverride removes a single cell override and prunes empty containers.
// Returns whether anything was removed.
func (s *Store) ClearOverride(segment, month string, metric models.Metric) bool {
	r := s.lookup(segment, month)
	if r == nil {
		return false
	}
	if _, ok := r.values[metric]; !ok {
		return false
	}
	delete(r.values, metric)
	s.prune(segment, month)
	return true
}

// ClearAllOverridesForConfig removes metric overrides from every unlocked row
// of the segment. Nothing happens while the column is locked. Returns the
// number of cells cleared.
func (s *Store) ClearAllOverridesForConfig(segment string, metric models.Metric) int {
	if s.IsColumnLocked(segment, metric) {
		s.deny("clear_column", segment, "", metric)
		return 0
	}
	cleared := 0
	for month, r := range s.rows[segment] {
		if r.locked {
			continue
		}
		if _, ok := r.values[metric]; ok {
			delete(r.values, metric)
			cleared++
		}
		s.prune(segment, month)
	}
	return cleared
}

// ToggleRowLock flips the row lock. Anyone may lock; only an admin may
// unlock. Returns the resulting lock state.
func (s *Store) ToggleRowLock(segment, month string, admin bool) bool {
	locked := s.IsRowLocked(segment, month)
	if locked && !admin {
		s.deny("unlock_row", segment, month, models.MetricIsLocked)
		return true
	}
	s.ensure(segment, month).locked = !locked
	s.prune(segment, month)
	return !locked
}

// ToggleColumnLock flips a column lock. Admin only. Returns the resulting
// lock state.
func (s *Store) ToggleColumnLock(segment string, metric models.Metric, admin bool) bool {
	locked := s.IsColumnLocked(segment, metric)
	if !admin {
		s.deny("toggle_column_lock", segment, "", metric)
		return locked
	}
	if locked {
		delete(s.columnLocks[segment], metric)
		if len(s.columnLocks[segment]) == 0 {
			delete(s.columnLocks, segment)
		}
		return false
	}
	if s.columnLocks[segment] == nil {
		s.columnLocks[segment] = make(map[models.Metric]bool)
	}
	s.columnLocks[segment][metric] = true
	return true
}

func (s *Store) deny(op, segment, month string, metric models.Metric) {
	metrics.StoreDeniedTotal.WithLabelValues(op).Inc()
	s.logger.Debug("edit refused",
		zap.String("operation", op),
		zap.String("segment", segment),
		zap.String("month", month),
		zap.String("metric", string(metric)),
	)
}

// ActiveCells counts the overridden cells of a segment.
func (s *Store) ActiveCells(segment string) int {
	n := 0
	for _, r := range s.rows[segment] {
		n += len(r.values)
	}
	return n
}

// Months returns the month labels holding any override data for segment, sorted.
func (s *Store) Months(segment string) []string {
	out := make([]string, 0, len(s.rows[segment]))
	for m := range s.rows[segment] {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Segments returns the segment keys holding any override data, sorted.
func (s *Store) Segments() []string {
	out := make([]string, 0, len(s.rows))
	for k := range s.rows {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Tree snapshots the overrides in their persisted shape:
// segment -> month -> metric -> value, with "isLocked": true on locked rows.
func (s *Store) Tree() Tree {
	out := make(Tree, len(s.rows))
	for segment, months := range s.rows {
		seg := make(Tree, len(months))
		for month, r := range months {
			cell := make(Tree, len(r.values)+1)
			for metric, v := range r.values {
				cell[string(metric)] = v.Interface()
			}
			if r.locked {
				cell[LockedKey] = true
			}
			seg[month] = cell
		}
		out[segment] = seg
	}
	return out
}

// Replace swaps the override state for the contents of t. Leaves that are
// not numbers, strings or booleans are dropped, as are containers left empty.
func (s *Store) Replace(t Tree) {
	s.rows = make(map[string]map[string]*row)
	for segment, sv := range t {
		months, ok := asTree(sv)
		if !ok {
			continue
		}
		for month, mv := range months {
			cells, ok := asTree(mv)
			if !ok {
				continue
			}
			for key, raw := range cells {
				if key == LockedKey {
					if locked, _ := raw.(bool); locked {
						s.ensure(segment, month).locked = true
					}
					continue
				}
				v := models.ValueOf(raw)
				if v.IsAbsent() {
					continue
				}
				s.ensure(segment, month).values[models.Metric(key)] = v
			}
		}
	}
}

// MergeLoaded folds a freshly loaded snapshot into the in-memory overrides,
// loaded values taking precedence.
func (s *Store) MergeLoaded(loaded Tree) {
	s.Replace(Merge(s.Tree(), loaded))
}

// ColumnLocks snapshots the column locks as segment -> metric -> true.
func (s *Store) ColumnLocks() map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(s.columnLocks))
	for segment, locks := range s.columnLocks {
		inner := make(map[string]bool, len(locks))
		for metric, locked := range locks {
			inner[string(metric)] = locked
		}
		out[segment] = inner
	}
	return out
}

// SegmentColumnLocks returns the locked columns of one segment.
func (s *Store) SegmentColumnLocks(segment string) map[models.Metric]bool {
	out := make(map[models.Metric]bool, len(s.columnLocks[segment]))
	for metric, locked := range s.columnLocks[segment] {
		out[metric] = locked
	}
	return out
}

// SetColumnLocks replaces every column lock. False entries are dropped.
func (s *Store) SetColumnLocks(locks map[string]map[string]bool) {
	s.columnLocks = make(map[string]map[models.Metric]bool, len(locks))
	for segment, inner := range locks {
		for metric, locked := range inner {
			if !locked {
				continue
			}
			if s.columnLocks[segment] == nil {
				s.columnLocks[segment] = make(map[models.Metric]bool)
			}
			s.columnLocks[segment][models.Metric(metric)] = true
		}
	}
}
