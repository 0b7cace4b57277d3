package models

// Segment keys, in team-shift chain order.
const (
	SegmentNonVIP = "nonvip"
	SegmentVIP    = "vip"
	SegmentPlus   = "plus"
)

// SegmentChain is the order headcount shifts along: nonvip -> vip -> plus.
var SegmentChain = []string{SegmentNonVIP, SegmentVIP, SegmentPlus}

// DefaultSegments returns a fresh copy of the built-in segment seed set.
func DefaultSegments() []Segment {
	return []Segment{
		{
			Key:   SegmentNonVIP,
			Name:  "Non-VIP",
			Color: "#3498db",
			Config: map[Metric]float64{
				MetricCustomers:             13000,
				MetricContactRate:           0.48,
				MetricAIDeflection:          20,
				MetricChatDeflection:        20,
				MetricHandleTimeImprovement: 20,
				MetricCoreTeamSize:          12,
				MetricTDCXTeamSize:          6,
				MetricCoreTicketsPerDay:     15,
				MetricTDCXTicketsPerDay:     10,
				MetricSeasonalMultiplier:    1.2,
			},
		},
		{
			Key:   SegmentVIP,
			Name:  "VIP",
			Color: "#e74c3c",
			Config: map[Metric]float64{
				MetricCustomers:             10000,
				MetricContactRate:           1.15,
				MetricAIDeflection:          20,
				MetricChatDeflection:        20,
				MetricHandleTimeImprovement: 20,
				MetricCoreTeamSize:          12,
				MetricTDCXTeamSize:          0,
				MetricCoreTicketsPerDay:     7,
				MetricTDCXTicketsPerDay:     0,
				MetricSeasonalMultiplier:    1.2,
			},
		},
		{
			Key:   SegmentPlus,
			Name:  "Plus",
			Color: "#f39c12",
			Config: map[Metric]float64{
				MetricCustomers:             5000,
				MetricContactRate:           0.08,
				MetricAIDeflection:          20,
				MetricChatDeflection:        20,
				MetricHandleTimeImprovement: 20,
				MetricCoreTeamSize:          4,
				MetricTDCXTeamSize:          0,
				MetricCoreTicketsPerDay:     5,
				MetricTDCXTicketsPerDay:     10,
				MetricSeasonalMultiplier:    1.2,
			},
		},
	}
}

// Edit is one user action against the planner.
type Edit struct {
	Action  EditAction
	Segment string
	Month   string
	Metric  Metric
	Value   Value
}

// EditAction names a mutating planner entry point.
type EditAction string

const (
	ActionSet         EditAction = "set"
	ActionClear       EditAction = "clear"
	ActionResetColumn EditAction = "reset-column"
	ActionLockRow     EditAction = "lock-row"
	ActionLockColumn  EditAction = "lock-column"
	ActionDefault     EditAction = "default"
)

// ValidEditActions is the accepted set of edit actions.
var ValidEditActions = map[EditAction]bool{
	ActionSet:         true,
	ActionClear:       true,
	ActionResetColumn: true,
	ActionLockRow:     true,
	ActionLockColumn:  true,
	ActionDefault:     true,
}
