package analytics

import (
	"fmt"
	"math"

	"github.com/parkfan/occupancy-analytics/internal/models"
)

// PercentageScheme buckets an occupancy percentage into five levels.
// A value belongs to the first bucket whose bound it is strictly below.
type PercentageScheme struct {
	Name   string
	Bounds [4]float64
}

var (
	StandardScheme  = PercentageScheme{Name: "standard", Bounds: [4]float64{20, 40, 70, 95}}
	AlternateScheme = PercentageScheme{Name: "alternate", Bounds: [4]float64{30, 50, 75, 95}}
)

var percentageLevels = [5]models.CrowdLevel{
	models.CrowdVeryLow,
	models.CrowdLow,
	models.CrowdModerate,
	models.CrowdHigh,
	models.CrowdVeryHigh,
}

// SchemeByName looks up a built-in scheme
func SchemeByName(name string) (PercentageScheme, bool) {
	switch name {
	case StandardScheme.Name:
		return StandardScheme, true
	case AlternateScheme.Name:
		return AlternateScheme, true
	}
	return PercentageScheme{}, false
}

// NewScheme resolves a named scheme. Non-empty bounds override the built-in ones,
// and a custom name is accepted only together with bounds.
func NewScheme(name string, bounds []float64) (PercentageScheme, error) {
	scheme, known := SchemeByName(name)
	if len(bounds) == 0 {
		if !known {
			return PercentageScheme{}, fmt.Errorf("unknown crowd scheme %q", name)
		}
		return scheme, nil
	}
	if len(bounds) != len(scheme.Bounds) {
		return PercentageScheme{}, fmt.Errorf("crowd scheme needs %d bounds, got %d", len(scheme.Bounds), len(bounds))
	}
	scheme.Name = name
	copy(scheme.Bounds[:], bounds)
	return scheme, scheme.Validate()
}

// Validate checks that bounds are strictly ascending
func (s PercentageScheme) Validate() error {
	for i := 1; i < len(s.Bounds); i++ {
		if s.Bounds[i] <= s.Bounds[i-1] {
			return fmt.Errorf("crowd scheme %q bounds must be strictly ascending", s.Name)
		}
	}
	return nil
}

// Classify maps an occupancy percentage to a crowd level
func (s PercentageScheme) Classify(pct float64) models.CrowdLevel {
	for i, bound := range s.Bounds {
		if pct < bound {
			return percentageLevels[i]
		}
	}
	return percentageLevels[len(percentageLevels)-1]
}

// ClassifyCrowdLevel maps an occupancy percentage using the given scheme
func ClassifyCrowdLevel(pct float64, scheme PercentageScheme) models.CrowdLevel {
	return scheme.Classify(pct)
}

type ratioBucket struct {
	upper float64 // inclusive
	level models.CrowdLevel
}

// absolute minutes, used when there is no baseline to compare against
var absoluteBuckets = []ratioBucket{
	{0, models.CrowdVeryLow},
	{15, models.CrowdLow},
	{30, models.CrowdNormal},
	{45, models.CrowdHigher},
	{60, models.CrowdHigh},
}

var loadRatioBuckets = []ratioBucket{
	{0.3, models.CrowdVeryLow},
	{0.6, models.CrowdLow},
	{1.05, models.CrowdNormal},
	{1.3, models.CrowdHigher},
	{1.6, models.CrowdHigh},
}

// ratio percentages against a P50 baseline
var predictedBuckets = []ratioBucket{
	{50, models.CrowdVeryLow},
	{79, models.CrowdLow},
	{120, models.CrowdModerate},
	{170, models.CrowdHigh},
	{250, models.CrowdVeryHigh},
}

func bucketize(v float64, buckets []ratioBucket) models.CrowdLevel {
	for _, b := range buckets {
		if v <= b.upper {
			return b.level
		}
	}
	return models.CrowdExtreme
}

// ClassifyLoadRating rates a single attraction's current wait against its baseline.
// With no baseline the current wait in minutes is rated on an absolute scale.
func ClassifyLoadRating(current, baseline float64) models.LoadRating {
	if baseline <= 0 {
		return models.LoadRating{Rating: bucketize(current, absoluteBuckets), Baseline: 0}
	}
	return models.LoadRating{Rating: bucketize(current/baseline, loadRatioBuckets), Baseline: baseline}
}

// DefaultPredictionBaseline is the wait in minutes a prediction is judged against
// when neither a P50 baseline nor a rolling average is available
const DefaultPredictionBaseline = 30.0

// ClassifyPredictedCrowd rates a predicted wait against the P50 baseline for its slot.
// Without a P50 the rolling average is used, and without that DefaultPredictionBaseline.
func ClassifyPredictedCrowd(predicted, p50, rollingAvg float64) models.PredictedCrowd {
	baseline := p50
	if baseline <= 0 {
		baseline = rollingAvg
	}
	if baseline <= 0 {
		baseline = DefaultPredictionBaseline
	}
	return models.PredictedCrowd{
		CrowdLevel:    bucketize(predicted/baseline*100, predictedBuckets),
		Baseline:      baseline,
		DisplayedWait: RoundToNearest5(predicted),
	}
}

// IsClosedStatus reports whether a queue status means the attraction is not running
func IsClosedStatus(status string) bool {
	return status == models.StatusClosed || status == models.StatusDown
}

// ClassifyAttractionLoad is ClassifyLoadRating that rates a closed or down attraction "closed"
func ClassifyAttractionLoad(status string, current, baseline float64) models.LoadRating {
	if IsClosedStatus(status) {
		return models.LoadRating{Rating: models.CrowdClosed, Baseline: math.Max(baseline, 0)}
	}
	return ClassifyLoadRating(current, baseline)
}

// ClassifyAttractionPrediction is ClassifyPredictedCrowd with the closed override:
// a closed or down attraction is "closed" with a displayed wait of 0
func ClassifyAttractionPrediction(status string, predicted, p50, rollingAvg float64) models.PredictedCrowd {
	result := ClassifyPredictedCrowd(predicted, p50, rollingAvg)
	if IsClosedStatus(status) {
		result.CrowdLevel = models.CrowdClosed
		result.DisplayedWait = 0
	}
	return result
}

// RoundToNearest5 rounds a wait in minutes to the 5-minute steps shown to visitors
func RoundToNearest5(v float64) int {
	if v < 2.5 {
		return 0
	}
	return int(math.Floor((v+2.5)/5) * 5)
}
