package models

// SampleQuery represents filter parameters for querying wait-time samples
type SampleQuery struct {
	Entity    EntityRef
	Status    string // OPERATING, DOWN, CLOSED, REFURBISHMENT; empty = any
	QueueType string // STANDBY, SINGLE_RIDER, ...; empty = any

	Since int64 // Unix timestamp, inclusive; 0 = unbounded
	Until int64 // Unix timestamp, exclusive; 0 = unbounded

	HourOfDay *int // 0-23
	DayOfWeek *int // 0=Sunday

	MinWaitTime  *float64 // Inclusive floor in minutes
	PositiveOnly bool     // Excludes zero waits
}

// BaselineParams represents query parameters for the baseline endpoint
type BaselineParams struct {
	Hour       *int    `form:"hour" binding:"omitempty,min=0,max=23"`
	DayOfWeek  *int    `form:"dayOfWeek" binding:"omitempty,min=0,max=6"`
	Percentile float64 `form:"percentile"` // 0-1 or 0-100
	Detail     bool    `form:"detail"`
}

// NearbyFilter represents parameters for proximity queries
type NearbyFilter struct {
	Latitude  *float64 `form:"lat" binding:"required,min=-90,max=90"`
	Longitude *float64 `form:"lon" binding:"required,min=-180,max=180"`
	RadiusKm  float64  `form:"radiusKm"`
	Limit     int      `form:"limit"`
}

// BatchRequest is the body accepted by the batch occupancy endpoint, at most 500 parks
type BatchRequest struct {
	EntityIDs []string `json:"entityIds" binding:"required,min=1,max=500"`
}

// CrowdLevelQuery represents query parameters for the crowd level endpoint
type CrowdLevelQuery struct {
	Occupancy *float64 `form:"occupancy" binding:"required"`
	Scheme    string   `form:"scheme"`
}

// LoadRatingQuery represents query parameters for the load rating endpoint
type LoadRatingQuery struct {
	Current      *float64 `form:"current" binding:"required,min=0"`
	Baseline     float64  `form:"baseline" binding:"min=0"`
	AttractionID string   `form:"attractionId"` // enables the closed override
}

// PredictedCrowdQuery represents query parameters for the predicted crowd endpoint
type PredictedCrowdQuery struct {
	Predicted    *float64 `form:"predicted" binding:"required,min=0"`
	P50          float64  `form:"p50"`
	AttractionID string   `form:"attractionId"` // enables the rolling-average fallback and closed override
}

// SampleListQuery represents query parameters for listing recent samples
type SampleListQuery struct {
	Window string `form:"window"` // Go duration, default 24h
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}
