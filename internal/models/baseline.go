package models

import "time"

// Specificity describes how narrowly historical samples were filtered
type Specificity string

const (
	SpecificityStrict   Specificity = "strict"    // exact hour and day of week
	SpecificitySameHour Specificity = "same_hour" // exact hour, any day
	SpecificitySameDay  Specificity = "same_day"  // exact day, any hour
	SpecificityAny      Specificity = "any"       // every sample in the window
	SpecificityNone     Specificity = "none"      // no samples anywhere
)

// PercentileBaseline is the historical Nth-percentile wait for one hour/day slot.
// A PercentileValue of 0 means no history was available.
type PercentileBaseline struct {
	EntityType       EntityType  `json:"entityType"`
	EntityID         string      `json:"entityId"`
	HourOfDay        int         `json:"hourOfDay"`
	DayOfWeek        int         `json:"dayOfWeek"`
	Percentile       float64     `json:"percentile"`
	PercentileValue  int         `json:"percentileValue"`
	SampleCount      int         `json:"sampleCount"`
	WindowUsed       string      `json:"windowUsed,omitempty"`
	SpecificityLevel Specificity `json:"specificityLevel"`
	// Distribution summarises the samples behind the value, nil without history
	Distribution *BaselineDistribution `json:"distribution,omitempty"`
	ComputedAt   time.Time             `json:"computedAt"`
}

// BaselineDistribution holds the nearest-rank quartiles and upper tail of a slot, in whole minutes
type BaselineDistribution struct {
	P25 int `json:"p25"`
	P50 int `json:"p50"`
	P75 int `json:"p75"`
	P90 int `json:"p90"`
	P95 int `json:"p95"`
}

// IsSentinel reports whether the baseline carries the "no history" marker
func (b PercentileBaseline) IsSentinel() bool {
	return b.PercentileValue == 0
}
