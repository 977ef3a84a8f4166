package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/parkfan/occupancy-analytics/internal/models"
)

// bindDriver tells sqlx to use ? placeholders for the modernc driver
const bindDriver = "sqlite3"

// SampleRepository handles database operations for wait-time samples
type SampleRepository struct {
	db  *sqlx.DB
	loc *time.Location
}

// NewSampleRepository creates a new sample repository. Hour of day and day of week
// are derived in the park's registered timezone when samples are inserted, and in
// loc for parks that are unregistered or have none.
func NewSampleRepository(db *sql.DB, loc *time.Location) *SampleRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &SampleRepository{db: sqlx.NewDb(db, bindDriver), loc: loc}
}

// buildWhere turns a SampleQuery into a WHERE clause. NULL and negative waits never match.
func buildWhere(q models.SampleQuery) (string, []interface{}) {
	conditions := []string{"wait_time IS NOT NULL", "wait_time >= 0"}
	var args []interface{}

	switch q.Entity.Type {
	case models.EntityTypePark:
		conditions = append(conditions, "park_id = ?")
		args = append(args, q.Entity.ID)
	case models.EntityTypeAttraction:
		conditions = append(conditions, "attraction_id = ?")
		args = append(args, q.Entity.ID)
	}
	if q.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, q.Status)
	}
	if q.QueueType != "" {
		conditions = append(conditions, "queue_type = ?")
		args = append(args, q.QueueType)
	}
	if q.Since > 0 {
		conditions = append(conditions, "recorded_at >= ?")
		args = append(args, q.Since)
	}
	if q.Until > 0 {
		conditions = append(conditions, "recorded_at < ?")
		args = append(args, q.Until)
	}
	if q.HourOfDay != nil {
		conditions = append(conditions, "hour_of_day = ?")
		args = append(args, *q.HourOfDay)
	}
	if q.DayOfWeek != nil {
		conditions = append(conditions, "day_of_week = ?")
		args = append(args, *q.DayOfWeek)
	}
	if q.PositiveOnly {
		conditions = append(conditions, "wait_time > 0")
	}
	if q.MinWaitTime != nil {
		conditions = append(conditions, "wait_time >= ?")
		args = append(args, *q.MinWaitTime)
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// WaitTimes returns the wait times matching q
func (r *SampleRepository) WaitTimes(ctx context.Context, q models.SampleQuery) ([]float64, error) {
	where, args := buildWhere(q)
	var values []float64
	if err := r.db.SelectContext(ctx, &values, "SELECT wait_time FROM queue_data"+where, args...); err != nil {
		return nil, fmt.Errorf("failed to query wait times: %w", err)
	}
	return values, nil
}

// Samples returns matching samples, newest first
func (r *SampleRepository) Samples(ctx context.Context, q models.SampleQuery, limit int) ([]models.WaitSample, error) {
	where, args := buildWhere(q)
	query := "SELECT wait_time, recorded_at FROM queue_data" + where + " ORDER BY recorded_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var samples []models.WaitSample
	if err := r.db.SelectContext(ctx, &samples, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	return samples, nil
}

// Average returns the mean wait time and sample count for q
func (r *SampleRepository) Average(ctx context.Context, q models.SampleQuery) (float64, int, error) {
	where, args := buildWhere(q)
	var row struct {
		Avg   sql.NullFloat64 `db:"avg_wait"`
		Count int             `db:"sample_count"`
	}
	query := "SELECT AVG(wait_time) AS avg_wait, COUNT(*) AS sample_count FROM queue_data" + where
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return 0, 0, fmt.Errorf("failed to average wait times: %w", err)
	}
	return row.Avg.Float64, row.Count, nil
}

// CountActiveEntities counts distinct attractions of a park reporting OPERATING since the given time
func (r *SampleRepository) CountActiveEntities(ctx context.Context, parkID string, since int64) (int, error) {
	var count int
	query := `SELECT COUNT(DISTINCT attraction_id) FROM queue_data
		WHERE park_id = ? AND status = ? AND recorded_at >= ?`
	if err := r.db.GetContext(ctx, &count, query, parkID, models.StatusOperating, since); err != nil {
		return 0, fmt.Errorf("failed to count active attractions: %w", err)
	}
	return count, nil
}

// LatestStatus returns the status of the entity's newest sample since the given time,
// "" when there is none. Samples without a wait time count.
func (r *SampleRepository) LatestStatus(ctx context.Context, ref models.EntityRef, since int64) (string, error) {
	column := "park_id"
	if ref.Type == models.EntityTypeAttraction {
		column = "attraction_id"
	}
	var status string
	query := "SELECT status FROM queue_data WHERE " + column + " = ? AND recorded_at >= ? ORDER BY recorded_at DESC LIMIT 1"
	err := r.db.GetContext(ctx, &status, query, ref.ID, since)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest status: %w", err)
	}
	return status, nil
}

// parkLocations maps each park of samples to the timezone its buckets are derived in
func (r *SampleRepository) parkLocations(ctx context.Context, tx *sqlx.Tx, samples []models.WaitTimeSample) (map[string]*time.Location, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, s := range samples {
		if !seen[s.ParkID] {
			seen[s.ParkID] = true
			ids = append(ids, s.ParkID)
		}
	}

	query, args, err := sqlx.In("SELECT id, timezone FROM parks WHERE timezone != '' AND id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build timezone query: %w", err)
	}
	var rows []struct {
		ID       string `db:"id"`
		Timezone string `db:"timezone"`
	}
	if err := tx.SelectContext(ctx, &rows, tx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query park timezones: %w", err)
	}

	locs := make(map[string]*time.Location, len(ids))
	byName := make(map[string]*time.Location)
	for _, row := range rows {
		loc, ok := byName[row.Timezone]
		if !ok {
			if loc, err = time.LoadLocation(row.Timezone); err != nil {
				loc = r.loc
			}
			byName[row.Timezone] = loc
		}
		locs[row.ID] = loc
	}
	for _, id := range ids {
		if locs[id] == nil {
			locs[id] = r.loc
		}
	}
	return locs, nil
}

// InsertSamples stores samples in one transaction, filling in ids, defaults
// and the local hour/day buckets. Returns the stored samples.
func (r *SampleRepository) InsertSamples(ctx context.Context, samples []models.WaitTimeSample) ([]models.WaitTimeSample, error) {
	if len(samples) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	locs, err := r.parkLocations(ctx, tx, samples)
	if err != nil {
		return nil, err
	}

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO queue_data (id, attraction_id, park_id, queue_type, status, wait_time, recorded_at, hour_of_day, day_of_week)
		VALUES (:id, :attraction_id, :park_id, :queue_type, :status, :wait_time, :recorded_at, :hour_of_day, :day_of_week)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	stored := make([]models.WaitTimeSample, len(samples))
	for i, s := range samples {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if s.QueueType == "" {
			s.QueueType = models.QueueTypeStandby
		}
		if s.Status == "" {
			s.Status = models.StatusOperating
		}
		local := time.Unix(s.RecordedAt, 0).In(locs[s.ParkID])
		s.HourOfDay = local.Hour()
		s.DayOfWeek = int(local.Weekday())

		if _, err := stmt.ExecContext(ctx, s); err != nil {
			return nil, fmt.Errorf("failed to insert sample %s: %w", s.ID, err)
		}
		stored[i] = s
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit samples: %w", err)
	}
	return stored, nil
}
