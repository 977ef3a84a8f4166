package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/parkfan/occupancy-analytics/internal/cache"
	"github.com/parkfan/occupancy-analytics/internal/models"
)

// SampleStore is the read side of the wait-time history.
// Implementations never return samples with a NULL or negative wait time.
type SampleStore interface {
	// WaitTimes returns the matching wait times in minutes
	WaitTimes(ctx context.Context, q models.SampleQuery) ([]float64, error)
	// Average returns the mean wait time and the number of samples behind it
	Average(ctx context.Context, q models.SampleQuery) (float64, int, error)
	// CountActiveEntities counts distinct attractions of a park reporting OPERATING since the given time
	CountActiveEntities(ctx context.Context, parkID string, since int64) (int, error)
	// LatestStatus returns the status of the newest sample since the given time, "" when there is none.
	// Samples without a wait time count here.
	LatestStatus(ctx context.Context, ref models.EntityRef, since int64) (string, error)
}

// ZoneResolver reports the IANA timezone of the park an entity belongs to, "" when unknown
type ZoneResolver interface {
	Timezone(ctx context.Context, ref models.EntityRef) (string, error)
}

// Recorder receives engine events for metrics. *metrics.Metrics implements it.
type Recorder interface {
	BaselineComputed(entityType, window, specificity string)
	BatchFailure()
}

type nopRecorder struct{}

func (nopRecorder) BaselineComputed(string, string, string) {}
func (nopRecorder) BatchFailure()                           {}

// Deps are the collaborators shared by every engine component
type Deps struct {
	Store   SampleStore
	Cache   cache.Cache
	Logger  *slog.Logger
	Metrics Recorder
	Zones   ZoneResolver // nil buckets every entity in Settings.Location
	Now     func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Cache == nil {
		d.Cache = cache.NewMemory(nil)
	}
	return d
}
