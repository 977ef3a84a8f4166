package models

// Park represents a venue whose attractions report wait times
type Park struct {
	ID        string  `json:"id" db:"id"`
	Name      string  `json:"name" db:"name" binding:"required"`
	Latitude  float64 `json:"latitude" db:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" db:"longitude" binding:"min=-180,max=180"`
	Timezone  string  `json:"timezone,omitempty" db:"timezone"`
}

// NearbyPark is a park annotated with its distance from a query point
type NearbyPark struct {
	Park
	DistanceKm float64 `json:"distanceKm"`
}

// NearbyOccupancy pairs a nearby park with its occupancy, nil when it could not be computed
type NearbyOccupancy struct {
	NearbyPark
	Occupancy *OccupancyResult `json:"occupancy"`
}
