package overrides_test

import (
	"testing"

	"superforecaster/metrics"
	"superforecaster/models"
	"superforecaster/overrides"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	jan = "Jan 2026"
	feb = "Feb 2026"
)

func TestSetOverride(t *testing.T) {
	tests := map[string]struct {
		metric   models.Metric
		input    models.Value
		expected models.Value
	}{
		"Count_StoredVerbatim": {
			metric:   models.MetricCustomers,
			input:    models.Number(14000),
			expected: models.Number(14000),
		},
		"ContactRate_PercentToFraction": {
			metric:   models.MetricContactRate,
			input:    models.Number(48),
			expected: models.Number(0.48),
		},
		"DeflectionPercent_StaysPercentPoints": {
			metric:   models.MetricAIDeflection,
			input:    models.Number(35),
			expected: models.Number(35),
		},
		"Sentiment": {
			metric:   models.MetricSentiment,
			input:    models.Text(string(models.SentimentPositive)),
			expected: models.Text("positive"),
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := overrides.NewStore(nil)
			require.True(t, s.SetOverride(models.SegmentNonVIP, jan, tt.metric, tt.input))

			got, ok := s.Override(models.SegmentNonVIP, jan, tt.metric)
			require.True(t, ok)
			assert.Equal(t, tt.expected.Kind, got.Kind)
			assert.InDelta(t, tt.expected.Num, got.Num, 1e-12)
			assert.Equal(t, tt.expected.Str, got.Str)
		})
	}
}

func TestSetOverride_AbsentClears(t *testing.T) {
	s := overrides.NewStore(nil)
	s.SetOverride(models.SegmentVIP, jan, models.MetricSentiment, models.Text("neutral"))
	s.SetOverride(models.SegmentVIP, jan, models.MetricSentiment, models.Text(""))

	assert.False(t, s.HasOverride(models.SegmentVIP, jan, models.MetricSentiment))
	assert.Empty(t, s.Tree())

	s.SetOverride(models.SegmentVIP, jan, models.MetricCustomers, models.Number(1))
	s.SetOverride(models.SegmentVIP, jan, models.MetricCustomers, models.Absent)
	assert.Empty(t, s.Tree())
}

func TestSetOverride_RefusedWhenLocked(t *testing.T) {
	t.Run("RowLocked", func(t *testing.T) {
		s := overrides.NewStore(nil)
		s.ToggleRowLock(models.SegmentNonVIP, jan, false)

		before := testutil.ToFloat64(metrics.StoreDeniedTotal.WithLabelValues("set_override"))
		assert.False(t, s.SetOverride(models.SegmentNonVIP, jan, models.MetricCustomers, models.Number(5)))
		assert.False(t, s.HasOverride(models.SegmentNonVIP, jan, models.MetricCustomers))
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.StoreDeniedTotal.WithLabelValues("set_override")))

		// other rows are unaffected
		assert.True(t, s.SetOverride(models.SegmentNonVIP, feb, models.MetricCustomers, models.Number(5)))
	})

	t.Run("ColumnLocked", func(t *testing.T) {
		s := overrides.NewStore(nil)
		s.ToggleColumnLock(models.SegmentNonVIP, models.MetricCustomers, true)

		assert.False(t, s.SetOverride(models.SegmentNonVIP, jan, models.MetricCustomers, models.Number(5)))
		assert.True(t, s.SetOverride(models.SegmentNonVIP, jan, models.MetricAIDeflection, models.Number(5)))
		assert.True(t, s.SetOverride(models.SegmentVIP, jan, models.MetricCustomers, models.Number(5)))
	})

	t.Run("LockFlagIsNotACell", func(t *testing.T) {
		s := overrides.NewStore(nil)
		assert.False(t, s.SetOverride(models.SegmentNonVIP, jan, models.MetricIsLocked, models.Bool(true)))
		assert.False(t, s.IsRowLocked(models.SegmentNonVIP, jan))
	})
}

func TestClearOverride_Prunes(t *testing.T) {
	s := overrides.NewStore(nil)
	s.SetOverride(models.SegmentNonVIP, jan, models.MetricCustomers, models.Number(1))
	s.SetOverride(models.SegmentNonVIP, jan, models.MetricAIDeflection, models.Number(2))
	s.SetOverride(models.SegmentNonVIP, feb, models.MetricCustomers, models.Number(3))

	assert.True(t, s.ClearOverride(models.SegmentNonVIP, jan, models.MetricCustomers))
	assert.Equal(t, []string{feb, jan}, s.Months(models.SegmentNonVIP))

	assert.True(t, s.ClearOverride(models.SegmentNonVIP, jan, models.MetricAIDeflection))
	assert.Equal(t, []string{feb}, s.Months(models.SegmentNonVIP))
	_, present := s.Tree()[models.SegmentNonVIP].(overrides.Tree)[jan]
	assert.False(t, present, "empty month container must be removed")

	assert.True(t, s.ClearOverride(models.SegmentNonVIP, feb, models.MetricCustomers))
	assert.Empty(t, s.Segments())

	assert.False(t, s.ClearOverride(models.SegmentNonVIP, feb, models.MetricCustomers))
}

func TestClearOverride_KeepsLockedRowContainer(t *testing.T) {
	s := overrides.NewStore(nil)
	s.SetOverride(models.SegmentPlus, jan, models.MetricCustomers, models.Number(1))
	s.ToggleRowLock(models.SegmentPlus, jan, false)

	assert.True(t, s.ClearOverride(models.SegmentPlus, jan, models.MetricCustomers))
	assert.True(t, s.IsRowLocked(models.SegmentPlus, jan))
	assert.Equal(t, overrides.Tree{
		models.SegmentPlus: overrides.Tree{jan: overrides.Tree{"isLocked": true}},
	}, s.Tree())
}

func TestClearAllOverridesForConfig(t *testing.T) {
	s := overrides.NewStore(nil)
	s.SetOverride(models.SegmentVIP, jan, models.MetricCustomers, models.Number(1))
	s.SetOverride(models.SegmentVIP, feb, models.MetricCustomers, models.Number(2))
	s.SetOverride(models.SegmentVIP, feb, models.MetricAIDeflection, models.Number(3))
	s.SetOverride(models.SegmentVIP, "Mar 2026", models.MetricCustomers, models.Number(4))
	s.ToggleRowLock(models.SegmentVIP, "Mar 2026", false)

	assert.Equal(t, 2, s.ClearAllOverridesForConfig(models.SegmentVIP, models.MetricCustomers))

	assert.Equal(t, []string{feb, "Mar 2026"}, s.Months(models.SegmentVIP))
	assert.False(t, s.HasOverride(models.SegmentVIP, feb, models.MetricCustomers))
	assert.True(t, s.HasOverride(models.SegmentVIP, feb, models.MetricAIDeflection))
	assert.True(t, s.HasOverride(models.SegmentVIP, "Mar 2026", models.MetricCustomers), "locked row survives")
}

func TestClearAllOverridesForConfig_ColumnLocked(t *testing.T) {
	s := overrides.NewStore(nil)
	s.SetOverride(models.SegmentVIP, jan, models.MetricCustomers, models.Number(1))
	s.ToggleColumnLock(models.SegmentVIP, models.MetricCustomers, true)

	assert.Equal(t, 0, s.ClearAllOverridesForConfig(models.SegmentVIP, models.MetricCustomers))
	assert.True(t, s.HasOverride(models.SegmentVIP, jan, models.MetricCustomers))
}

func TestToggleRowLock(t *testing.T) {
	tests := map[string]struct {
		initiallyLocked bool
		admin           bool
		expected        bool
	}{
		"Unlocked_NonAdmin_Locks": {initiallyLocked: false, admin: false, expected: true},
		"Unlocked_Admin_Locks":    {initiallyLocked: false, admin: true, expected: true},
		"Locked_NonAdmin_Latches": {initiallyLocked: true, admin: false, expected: true},
		"Locked_Admin_Unlocks":    {initiallyLocked: true, admin: true, expected: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := overrides.NewStore(nil)
			if tt.initiallyLocked {
				require.True(t, s.ToggleRowLock(models.SegmentNonVIP, jan, false))
			}
			assert.Equal(t, tt.expected, s.ToggleRowLock(models.SegmentNonVIP, jan, tt.admin))
			assert.Equal(t, tt.expected, s.IsRowLocked(models.SegmentNonVIP, jan))
		})
	}
}

func TestToggleRowLock_UnlockPrunesEmptyRow(t *testing.T) {
	s := overrides.NewStore(nil)
	s.ToggleRowLock(models.SegmentNonVIP, jan, false)
	s.ToggleRowLock(models.SegmentNonVIP, jan, true)

	assert.Empty(t, s.Tree())
}

func TestToggleColumnLock(t *testing.T) {
	s := overrides.NewStore(nil)

	assert.False(t, s.ToggleColumnLock(models.SegmentPlus, models.MetricCoreTeamSize, false))
	assert.False(t, s.IsColumnLocked(models.SegmentPlus, models.MetricCoreTeamSize))

	assert.True(t, s.ToggleColumnLock(models.SegmentPlus, models.MetricCoreTeamSize, true))
	assert.True(t, s.IsColumnLocked(models.SegmentPlus, models.MetricCoreTeamSize))
	assert.Equal(t, map[string]map[string]bool{"plus": {"coreTeamSize": true}}, s.ColumnLocks())

	assert.True(t, s.ToggleColumnLock(models.SegmentPlus, models.MetricCoreTeamSize, false), "non-admin cannot unlock")
	assert.False(t, s.ToggleColumnLock(models.SegmentPlus, models.MetricCoreTeamSize, true))
	assert.Empty(t, s.ColumnLocks())
}

func TestMergeLoaded(t *testing.T) {
	s := overrides.NewStore(nil)
	s.SetOverride(models.SegmentNonVIP, jan, models.MetricCustomers, models.Number(100))
	s.SetOverride(models.SegmentNonVIP, jan, models.MetricAIDeflection, models.Number(10))

	s.MergeLoaded(overrides.Tree{
		models.SegmentNonVIP: map[string]any{
			jan: map[string]any{"customers": 200.0, "isLocked": true},
		},
		models.SegmentVIP: map[string]any{
			feb: map[string]any{"sentiment": "negative", "junk": []any{1.0}},
		},
		"garbage": "not a container",
	})

	v, ok := s.Override(models.SegmentNonVIP, jan, models.MetricCustomers)
	require.True(t, ok)
	assert.Equal(t, 200.0, v.Float())

	v, ok = s.Override(models.SegmentNonVIP, jan, models.MetricAIDeflection)
	require.True(t, ok)
	assert.Equal(t, 10.0, v.Float())

	assert.True(t, s.IsRowLocked(models.SegmentNonVIP, jan))

	v, ok = s.Override(models.SegmentVIP, feb, models.MetricSentiment)
	require.True(t, ok)
	assert.Equal(t, models.SentimentNegative, v.Sentiment())
	assert.False(t, s.HasOverride(models.SegmentVIP, feb, "junk"))
	assert.Equal(t, []string{models.SegmentNonVIP, models.SegmentVIP}, s.Segments())
}

func TestStore_TreeRoundTripsThroughReplace(t *testing.T) {
	s := overrides.NewStore(nil)
	s.SetOverride(models.SegmentNonVIP, jan, models.MetricContactRate, models.Number(50))
	s.SetOverride(models.SegmentVIP, feb, models.MetricSentiment, models.Text("neutral"))
	s.ToggleRowLock(models.SegmentVIP, feb, false)

	other := overrides.NewStore(nil)
	other.Replace(s.Tree())

	assert.Equal(t, s.Tree(), other.Tree())
	assert.Equal(t, 1, other.ActiveCells(models.SegmentNonVIP))
}

func TestSetColumnLocks_DropsFalse(t *testing.T) {
	s := overrides.NewStore(nil)
	s.SetColumnLocks(map[string]map[string]bool{
		"vip":    {"customers": true, "aiDeflection": false},
		"nonvip": {"customers": false},
	})

	assert.True(t, s.IsColumnLocked(models.SegmentVIP, models.MetricCustomers))
	assert.False(t, s.IsColumnLocked(models.SegmentVIP, models.MetricAIDeflection))
	assert.Equal(t, map[string]map[string]bool{"vip": {"customers": true}}, s.ColumnLocks())
	assert.Equal(t, map[models.Metric]bool{models.MetricCustomers: true}, s.SegmentColumnLocks(models.SegmentVIP))
}
