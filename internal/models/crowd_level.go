package models

// CrowdLevel is a discretized busyness bucket. Which values appear depends on the scheme.
type CrowdLevel string

// Percentage-of-baseline scheme
const (
	CrowdVeryLow  CrowdLevel = "very_low"
	CrowdLow      CrowdLevel = "low"
	CrowdModerate CrowdLevel = "moderate"
	CrowdHigh     CrowdLevel = "high"
	CrowdVeryHigh CrowdLevel = "very_high"
)

// Load-rating scheme additions
const (
	CrowdNormal  CrowdLevel = "normal"
	CrowdHigher  CrowdLevel = "higher"
	CrowdExtreme CrowdLevel = "extreme"
	CrowdClosed  CrowdLevel = "closed"
)

// LoadRating is the per-attraction display rating together with the baseline it was judged against
type LoadRating struct {
	Rating   CrowdLevel `json:"rating"`
	Baseline float64    `json:"baseline"`
}

// PredictedCrowd is a predicted wait bucketed against a P50 baseline
type PredictedCrowd struct {
	CrowdLevel    CrowdLevel `json:"crowdLevel"`
	Baseline      float64    `json:"baseline"`
	DisplayedWait int        `json:"displayedWait"` // Rounded to 5-minute steps
}
