package cache

import "fmt"

const (
	baselinePrefix  = "analytics:percentile"
	occupancyPrefix = "analytics:occupancy"
)

// BaselineKey is shared with other services reading the same cache; keep the format stable.
func BaselineKey(entityType, entityID string, hour, dayOfWeek int) string {
	return fmt.Sprintf("%s:%s:%s:%d:%d", baselinePrefix, entityType, entityID, hour, dayOfWeek)
}

// OccupancyKey addresses the most recent occupancy result for an entity
func OccupancyKey(entityID string) string {
	return occupancyPrefix + ":" + entityID
}

// OccupancyKeys maps each entity id to its occupancy key
func OccupancyKeys(entityIDs []string) []string {
	keys := make([]string, len(entityIDs))
	for i, id := range entityIDs {
		keys[i] = OccupancyKey(id)
	}
	return keys
}
