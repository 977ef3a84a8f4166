package analytics

import (
	"fmt"
	"time"

	"github.com/parkfan/occupancy-analytics/internal/config"
	"github.com/parkfan/occupancy-analytics/internal/models"
)

// Window is one step of the baseline fallback search. Lookback 0 means all history.
type Window struct {
	Name     string
	Lookback time.Duration
}

// Thresholds are the sample counts at which a specificity level is accepted outright
type Thresholds struct {
	Strict   int
	SameHour int
	SameDay  int
}

// TrendMode selects how the short-term trend is measured
type TrendMode string

const (
	TrendHourly   TrendMode = "hourly"   // last bucket vs the one before
	TrendSmoothed TrendMode = "smoothed" // mean of two consecutive deltas over three buckets
)

// Valid reports whether m is a known trend mode
func (m TrendMode) Valid() bool {
	return m == TrendHourly || m == TrendSmoothed
}

// Settings tune every engine component
type Settings struct {
	Location   *time.Location
	QueueType  string
	Percentile float64

	Windows    []Window
	Thresholds map[models.EntityType]Thresholds

	BaselineTTL      time.Duration
	EmptyBaselineTTL time.Duration
	OccupancyTTL     time.Duration

	CurrentWindow time.Duration
	MinWaitTime   float64
	MinQualifying int

	TrendMode      TrendMode
	TrendBucket    time.Duration
	TrendThreshold float64

	TypicalWindow    time.Duration
	TypicalThreshold float64

	FeatureCap  int
	Scheme      PercentageScheme
	Concurrency int
}

// SettingsFromConfig translates the validated application config
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	a := cfg.Analytics

	scheme, err := NewScheme(a.CrowdScheme, a.CrowdBounds)
	if err != nil {
		return Settings{}, err
	}

	windows := make([]Window, len(a.Windows))
	for i, w := range a.Windows {
		windows[i] = Window{Name: w.Name, Lookback: w.Lookback}
	}

	mode := TrendMode(a.TrendMode)
	if !mode.Valid() {
		return Settings{}, fmt.Errorf("unknown trend mode %q", a.TrendMode)
	}

	return Settings{
		Location:   cfg.Location(),
		QueueType:  a.PrimaryQueueType,
		Percentile: a.Percentile,
		Windows:    windows,
		Thresholds: map[models.EntityType]Thresholds{
			models.EntityTypePark:       Thresholds(a.ParkThresholds),
			models.EntityTypeAttraction: Thresholds(a.AttractionThresholds),
		},
		BaselineTTL:      cfg.Cache.BaselineTTL,
		EmptyBaselineTTL: cfg.Cache.EmptyBaselineTTL,
		OccupancyTTL:     cfg.Cache.OccupancyTTL,
		CurrentWindow:    a.CurrentWindow,
		MinWaitTime:      a.MinWaitTime,
		MinQualifying:    a.MinQualifyingSamples,
		TrendMode:        mode,
		TrendBucket:      a.TrendBucket,
		TrendThreshold:   a.TrendThreshold,
		TypicalWindow:    a.TypicalWindow,
		TypicalThreshold: a.TypicalThreshold,
		FeatureCap:       a.FeatureCap,
		Scheme:           scheme,
		Concurrency:      cfg.Batch.Concurrency,
	}, nil
}

// DefaultSettings returns the settings derived from config.Default
func DefaultSettings() Settings {
	s, err := SettingsFromConfig(config.Default())
	if err != nil {
		panic(err)
	}
	return s
}
