package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/parkfan/occupancy-analytics/internal/cache"
	"github.com/parkfan/occupancy-analytics/internal/models"
)

// Occupier computes a single occupancy result. *OccupancyEngine implements it.
type Occupier interface {
	ComputeOccupancy(ctx context.Context, entityID string) (models.OccupancyResult, error)
}

// BatchOrchestrator computes occupancy for many entities, cache first
type BatchOrchestrator struct {
	deps        Deps
	engine      Occupier
	concurrency int
	logger      *slog.Logger
}

// NewBatchOrchestrator creates an orchestrator. Concurrency below 1 means sequential.
func NewBatchOrchestrator(deps Deps, engine Occupier, concurrency int) *BatchOrchestrator {
	deps = deps.withDefaults()
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchOrchestrator{
		deps:        deps,
		engine:      engine,
		concurrency: concurrency,
		logger:      deps.Logger.With("component", "batch"),
	}
}

// ComputeBatchOccupancy returns one result per distinct entity id. Entities whose
// computation fails are logged and left out of the map.
func (b *BatchOrchestrator) ComputeBatchOccupancy(ctx context.Context, entityIDs []string) map[string]models.OccupancyResult {
	ids := dedupe(entityIDs)
	results := make(map[string]models.OccupancyResult, len(ids))
	if len(ids) == 0 {
		return results
	}

	misses := b.fromCache(ctx, ids, results)
	if len(misses) == 0 {
		return results
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, id := range misses {
		id := id
		g.Go(func() error {
			result, err := b.engine.ComputeOccupancy(gctx, id)
			if err != nil {
				b.deps.Metrics.BatchFailure()
				b.logger.Error("occupancy computation failed, omitting entity", "entity", id, "error", err)
				return nil
			}
			mu.Lock()
			results[id] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	b.logger.Debug("batch occupancy computed",
		"requested", len(ids), "cached", len(ids)-len(misses), "returned", len(results))
	return results
}

// fromCache fills results with cached entries and returns the ids still to compute
func (b *BatchOrchestrator) fromCache(ctx context.Context, ids []string, results map[string]models.OccupancyResult) []string {
	hits, err := b.deps.Cache.MultiGet(ctx, cache.OccupancyKeys(ids))
	if err != nil {
		b.logger.Warn("batch cache read failed, computing every entity", "error", err)
		return ids
	}

	misses := make([]string, 0, len(ids))
	for _, id := range ids {
		raw, ok := hits[cache.OccupancyKey(id)]
		if !ok {
			misses = append(misses, id)
			continue
		}
		var result models.OccupancyResult
		if err := json.Unmarshal([]byte(raw), &result); err != nil {
			b.logger.Warn("ignoring malformed cached occupancy", "entity", id, "error", err)
			misses = append(misses, id)
			continue
		}
		results[id] = result
	}
	return misses
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
