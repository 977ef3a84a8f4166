package models

// WaitTimeSample represents a single wait-time observation for an attraction queue
type WaitTimeSample struct {
	ID           string   `json:"id" db:"id"`
	AttractionID string   `json:"attractionId" db:"attraction_id" binding:"required"`
	ParkID       string   `json:"parkId" db:"park_id" binding:"required"`
	QueueType    string   `json:"queueType" db:"queue_type"`
	Status       string   `json:"status" db:"status"`
	WaitTime     *float64 `json:"waitTime" db:"wait_time"`                        // Minutes, nil when the queue reported no value
	RecordedAt   int64    `json:"recordedAt" db:"recorded_at" binding:"required"` // Unix timestamp in seconds

	// Derived at insert time in the configured timezone
	HourOfDay int `json:"hourOfDay" db:"hour_of_day"` // 0-23
	DayOfWeek int `json:"dayOfWeek" db:"day_of_week"` // 0=Sunday, 6=Saturday
}

// WaitSample is the projection returned by sample queries
type WaitSample struct {
	WaitTime   float64 `json:"waitTime" db:"wait_time"`
	RecordedAt int64   `json:"recordedAt" db:"recorded_at"`
}

// IngestRequest is the body accepted by the sample ingestion endpoint
type IngestRequest struct {
	Samples []WaitTimeSample `json:"samples" binding:"required,min=1,dive"`
}

// Status constants
const (
	StatusOperating     = "OPERATING"
	StatusDown          = "DOWN"
	StatusClosed        = "CLOSED"
	StatusRefurbishment = "REFURBISHMENT"
)

// QueueType constants
const (
	QueueTypeStandby        = "STANDBY"
	QueueTypeSingleRider    = "SINGLE_RIDER"
	QueueTypeReturnTime     = "RETURN_TIME"
	QueueTypePaidReturnTime = "PAID_RETURN_TIME"
	QueueTypeBoardingGroup  = "BOARDING_GROUP"
)

// EntityType identifies what a sample aggregate is keyed on
type EntityType string

const (
	EntityTypePark       EntityType = "park"
	EntityTypeAttraction EntityType = "attraction"
)

// Valid reports whether t is a known entity type
func (t EntityType) Valid() bool {
	return t == EntityTypePark || t == EntityTypeAttraction
}

// EntityRef addresses either a park (all of its attractions) or a single attraction
type EntityRef struct {
	Type EntityType `json:"type"`
	ID   string     `json:"id"`
}

// IngestResponse reports how many samples were stored
type IngestResponse struct {
	Inserted int      `json:"inserted"`
	IDs      []string `json:"ids"`
}
