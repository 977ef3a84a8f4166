package models

import "time"

// Trend is the short-term direction of wait times
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// ComparisonStatus compares current waits against the long-term typical average
type ComparisonStatus string

const (
	ComparisonLower   ComparisonStatus = "lower"
	ComparisonTypical ComparisonStatus = "typical"
	ComparisonHigher  ComparisonStatus = "higher"
)

// OccupancyBreakdown carries the supporting numbers behind an occupancy result
type OccupancyBreakdown struct {
	CurrentAvg  int `json:"currentAvg"`  // Unfiltered recent average, rounded
	TypicalAvg  int `json:"typicalAvg"`  // Long-window average, rounded
	ActiveCount int `json:"activeCount"` // Attractions reporting OPERATING in the recent window
}

// OccupancyResult is the real-time occupancy reading for one entity
type OccupancyResult struct {
	EntityID            string             `json:"entityId"`
	CurrentValue        float64            `json:"currentValue"`
	BaselineValue       int                `json:"baselineValue"`
	OccupancyPercentage int                `json:"occupancyPercentage"`
	Trend               Trend              `json:"trend"`
	ComparisonStatus    ComparisonStatus   `json:"comparisonStatus"`
	ComparedToTypical   float64            `json:"comparedToTypical"`
	CrowdLevel          CrowdLevel         `json:"crowdLevel"`
	Breakdown           OccupancyBreakdown `json:"breakdown"`
	ComputedAt          time.Time          `json:"computedAt"`
}

// OccupancyFeature is the single scalar handed to downstream feature consumers
type OccupancyFeature struct {
	ParkID       string    `json:"parkId"`
	OccupancyPct int       `json:"occupancyPct"` // Capped
	ComputedAt   time.Time `json:"computedAt"`
}

// BatchOccupancyResponse wraps batch results
type BatchOccupancyResponse struct {
	Results   map[string]OccupancyResult `json:"results"`
	Requested int                        `json:"requested"`
	Returned  int                        `json:"returned"`
}

// CrowdLevelResult is a percentage classified under a named scheme
type CrowdLevelResult struct {
	Occupancy  float64    `json:"occupancy"`
	Scheme     string     `json:"scheme"`
	CrowdLevel CrowdLevel `json:"crowdLevel"`
}
