package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/parkfan/occupancy-analytics/internal/models"
	"github.com/parkfan/occupancy-analytics/internal/spatial"
)

// ErrParkNotFound is returned when a park id is unknown
var ErrParkNotFound = errors.New("park not found")

// ParkRepository handles database operations for parks
type ParkRepository struct {
	db *sqlx.DB
}

// NewParkRepository creates a new park repository
func NewParkRepository(db *sql.DB) *ParkRepository {
	return &ParkRepository{db: sqlx.NewDb(db, bindDriver)}
}

// List returns every registered park ordered by name
func (r *ParkRepository) List(ctx context.Context) ([]models.Park, error) {
	parks := []models.Park{}
	query := "SELECT id, name, latitude, longitude, timezone FROM parks ORDER BY name"
	if err := r.db.SelectContext(ctx, &parks, query); err != nil {
		return nil, fmt.Errorf("failed to query parks: %w", err)
	}
	return parks, nil
}

// IDs returns the ids of every registered park
func (r *ParkRepository) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, "SELECT id FROM parks ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to query park ids: %w", err)
	}
	return ids, nil
}

// Get retrieves a single park by ID
func (r *ParkRepository) Get(ctx context.Context, id string) (*models.Park, error) {
	var p models.Park
	query := "SELECT id, name, latitude, longitude, timezone FROM parks WHERE id = ?"
	err := r.db.GetContext(ctx, &p, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrParkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get park: %w", err)
	}
	return &p, nil
}

// Timezone returns the IANA timezone of the park an entity belongs to, "" when the
// park is unregistered or has none. Attractions resolve through their samples.
func (r *ParkRepository) Timezone(ctx context.Context, ref models.EntityRef) (string, error) {
	var query string
	switch ref.Type {
	case models.EntityTypePark:
		query = "SELECT timezone FROM parks WHERE id = ?"
	case models.EntityTypeAttraction:
		query = `SELECT p.timezone FROM queue_data q JOIN parks p ON p.id = q.park_id
			WHERE q.attraction_id = ? LIMIT 1`
	default:
		return "", nil
	}

	var tz string
	err := r.db.GetContext(ctx, &tz, query, ref.ID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get timezone: %w", err)
	}
	return tz, nil
}

// Upsert creates or replaces a park
func (r *ParkRepository) Upsert(ctx context.Context, p models.Park) error {
	query := `
		INSERT INTO parks (id, name, latitude, longitude, timezone)
		VALUES (:id, :name, :latitude, :longitude, :timezone)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			timezone = excluded.timezone,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to upsert park: %w", err)
	}
	return nil
}

// Nearby returns parks within radiusKm of (lat, lon), nearest first. limit <= 0 means no limit.
func (r *ParkRepository) Nearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]models.NearbyPark, error) {
	radius := spatial.NewRadius(lat, lon, radiusKm)
	bounds := radius.Bounds()

	query := "SELECT id, name, latitude, longitude, timezone FROM parks WHERE latitude BETWEEN ? AND ?"
	args := []interface{}{bounds.MinLat, bounds.MaxLat}
	if !bounds.WrapsLon {
		query += " AND longitude BETWEEN ? AND ?"
		args = append(args, bounds.MinLon, bounds.MaxLon)
	}

	var candidates []models.Park
	if err := r.db.SelectContext(ctx, &candidates, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query nearby parks: %w", err)
	}

	nearby := make([]models.NearbyPark, 0, len(candidates))
	for _, p := range candidates {
		if !radius.Contains(p.Latitude, p.Longitude) {
			continue
		}
		nearby = append(nearby, models.NearbyPark{
			Park:       p,
			DistanceKm: spatial.DistanceKm(lat, lon, p.Latitude, p.Longitude),
		})
	}

	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	if limit > 0 && len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}
