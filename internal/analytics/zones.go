package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/parkfan/occupancy-analytics/internal/models"
)

// Locator resolves the local timezone used for an entity's hour and day buckets.
// Unknown parks, parks without a timezone and lookup failures use the fallback.
type Locator struct {
	resolver ZoneResolver
	fallback *time.Location
	logger   *slog.Logger

	mu    sync.Mutex
	zones map[string]*time.Location
}

// NewLocator creates a locator. A nil resolver always returns fallback.
func NewLocator(resolver ZoneResolver, fallback *time.Location, logger *slog.Logger) *Locator {
	if fallback == nil {
		fallback = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{
		resolver: resolver,
		fallback: fallback,
		logger:   logger.With("component", "zones"),
		zones:    make(map[string]*time.Location),
	}
}

// Location returns the timezone of the park ref belongs to
func (l *Locator) Location(ctx context.Context, ref models.EntityRef) *time.Location {
	if l.resolver == nil || ref.ID == "" {
		return l.fallback
	}
	name, err := l.resolver.Timezone(ctx, ref)
	if err != nil {
		l.logger.Warn("timezone lookup failed, using default", "entity", ref.ID, "error", err)
		return l.fallback
	}
	if name == "" {
		return l.fallback
	}
	return l.load(name)
}

// Local converts t into the entity's local time
func (l *Locator) Local(ctx context.Context, ref models.EntityRef, t time.Time) time.Time {
	return t.In(l.Location(ctx, ref))
}

func (l *Locator) load(name string) *time.Location {
	l.mu.Lock()
	defer l.mu.Unlock()
	if loc, ok := l.zones[name]; ok {
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		l.logger.Warn("unknown timezone, using default", "timezone", name, "error", err)
		loc = l.fallback
	}
	l.zones[name] = loc
	return loc
}
