package persistence

import (
	"context"
	"encoding/json"
	"errors"

	customerrors "superforecaster/errors"
	"superforecaster/metrics"
	"superforecaster/overrides"

	"go.uber.org/zap"
)

// Record names, as used in logs and metrics.
const (
	RecordState     = "state"
	RecordOverrides = "overrides"
)

// DefaultKeyPrefix prefixes both record keys.
const DefaultKeyPrefix = "superforecaster"

// StateRecord is the persisted segment configuration and column locks.
type StateRecord struct {
	Segments    map[string]SegmentRecord   `json:"segments"`
	ColumnLocks map[string]map[string]bool `json:"columnLocks,omitempty"`
}

// SegmentRecord is the persisted part of one segment.
type SegmentRecord struct {
	Name   string         `json:"name,omitempty"`
	Color  string         `json:"color,omitempty"`
	Config overrides.Tree `json:"config"`
}

// Repository reads and writes the two records through an Adapter. Failures
// are logged and counted, never returned: the in-memory model stays
// authoritative when storage misbehaves.
type Repository struct {
	adapter Adapter
	prefix  string
	logger  *zap.Logger
}

// NewRepository wraps adapter. An empty prefix uses DefaultKeyPrefix.
func NewRepository(adapter Adapter, prefix string, logger *zap.Logger) *Repository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{adapter: adapter, prefix: prefix, logger: logger}
}

// Key returns the storage key of a record.
func (r *Repository) Key(record string) string {
	return r.prefix + "-" + record
}

// LoadState returns the saved state record. ok is false when the record is
// missing or unreadable.
func (r *Repository) LoadState(ctx context.Context) (state StateRecord, ok bool) {
	if !r.load(ctx, RecordState, &state) {
		return StateRecord{}, false
	}
	return state, true
}

// SaveState overwrites the state record.
func (r *Repository) SaveState(ctx context.Context, state StateRecord) {
	r.save(ctx, RecordState, state)
}

// LoadOverrides returns the saved override tree. ok is false when the record
// is missing or unreadable.
func (r *Repository) LoadOverrides(ctx context.Context) (tree overrides.Tree, ok bool) {
	if !r.load(ctx, RecordOverrides, &tree) {
		return nil, false
	}
	return tree, true
}

// SaveOverrides overwrites the overrides record.
func (r *Repository) SaveOverrides(ctx context.Context, tree overrides.Tree) {
	r.save(ctx, RecordOverrides, tree)
}

// Close closes the underlying adapter.
func (r *Repository) Close() error {
	return r.adapter.Close()
}

func (r *Repository) load(ctx context.Context, record string, into any) bool {
	data, err := r.adapter.Load(ctx, r.Key(record))
	if errors.Is(err, customerrors.ErrRecordNotFound) {
		r.logger.Debug("no saved record", zap.String("record", record))
		return false
	}
	if err != nil {
		r.fail("load", record, err)
		return false
	}
	if err := json.Unmarshal(data, into); err != nil {
		r.fail("decode", record, err)
		return false
	}
	return true
}

func (r *Repository) save(ctx context.Context, record string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		r.fail("encode", record, err)
		return
	}
	if err := r.adapter.Save(ctx, r.Key(record), data); err != nil {
		r.fail("save", record, err)
	}
}

func (r *Repository) fail(op, record string, err error) {
	metrics.PersistenceFailuresTotal.WithLabelValues(record, op).Inc()
	r.logger.Warn("persistence failed",
		zap.String("record", record),
		zap.String("op", op),
		zap.Error(&customerrors.StorageError{Op: op, Record: r.Key(record), Err: err}),
	)
}
