package analytics

import (
	"testing"

	"github.com/parkfan/occupancy-analytics/internal/models"
)

func TestPercentageSchemes(t *testing.T) {
	tests := []struct {
		scheme PercentageScheme
		pct    float64
		want   models.CrowdLevel
	}{
		{AlternateScheme, 29.9, models.CrowdVeryLow},
		{AlternateScheme, 30, models.CrowdLow},
		{AlternateScheme, 74, models.CrowdModerate},
		{AlternateScheme, 95, models.CrowdVeryHigh},
		{StandardScheme, 0, models.CrowdVeryLow},
		{StandardScheme, 20, models.CrowdLow},
		{StandardScheme, 69.9, models.CrowdModerate},
		{StandardScheme, 94.9, models.CrowdHigh},
		{StandardScheme, 250, models.CrowdVeryHigh},
	}
	for _, tt := range tests {
		if got := ClassifyCrowdLevel(tt.pct, tt.scheme); got != tt.want {
			t.Errorf("%s(%v): expected %s, got %s", tt.scheme.Name, tt.pct, tt.want, got)
		}
	}
}

func TestNewScheme(t *testing.T) {
	if s, err := NewScheme("alternate", nil); err != nil || s != AlternateScheme {
		t.Fatalf("expected alternate scheme, got %+v %v", s, err)
	}
	custom, err := NewScheme("venue", []float64{10, 20, 30, 40})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if custom.Classify(35) != models.CrowdHigh {
		t.Fatalf("expected custom bounds to apply, got %s", custom.Classify(35))
	}
	if _, err := NewScheme("venue", nil); err == nil {
		t.Fatal("expected unknown scheme without bounds to fail")
	}
	if _, err := NewScheme("standard", []float64{40, 20, 70, 95}); err == nil {
		t.Fatal("expected descending bounds to fail")
	}
	if _, err := NewScheme("standard", []float64{20, 40}); err == nil {
		t.Fatal("expected wrong bound count to fail")
	}
}

func TestClassifyLoadRating(t *testing.T) {
	tests := []struct {
		current, baseline float64
		want              models.CrowdLevel
	}{
		// absolute minutes without a baseline
		{0, 0, models.CrowdVeryLow},
		{15, 0, models.CrowdLow},
		{15.5, 0, models.CrowdNormal},
		{45, 0, models.CrowdHigher},
		{60, 0, models.CrowdHigh},
		{61, 0, models.CrowdExtreme},
		// ratios, upper bounds inclusive
		{30, 100, models.CrowdVeryLow},
		{31, 100, models.CrowdLow},
		{105, 100, models.CrowdNormal},
		{106, 100, models.CrowdHigher},
		{160, 100, models.CrowdHigh},
		{200, 100, models.CrowdExtreme},
	}
	for _, tt := range tests {
		got := ClassifyLoadRating(tt.current, tt.baseline)
		if got.Rating != tt.want {
			t.Errorf("current %v baseline %v: expected %s, got %s", tt.current, tt.baseline, tt.want, got.Rating)
		}
		if got.Baseline != tt.baseline {
			t.Errorf("expected baseline %v echoed, got %v", tt.baseline, got.Baseline)
		}
	}
}

func TestClassifyPredictedCrowd(t *testing.T) {
	tests := []struct {
		predicted, p50, rolling float64
		want                    models.CrowdLevel
		displayed               int
		baseline                float64
	}{
		{20, 40, 0, models.CrowdVeryLow, 20, 40},
		{32, 40, 0, models.CrowdModerate, 30, 40},
		{48, 40, 0, models.CrowdModerate, 50, 40},
		{60, 40, 0, models.CrowdHigh, 60, 40},
		{100, 40, 0, models.CrowdVeryHigh, 100, 40},
		{101, 40, 0, models.CrowdExtreme, 100, 40},
		// p50 wins over the rolling average
		{20, 40, 10, models.CrowdVeryLow, 20, 40},
		// no p50: rolling average
		{30, 0, 20, models.CrowdHigh, 30, 20},
		{5, -1, 20, models.CrowdVeryLow, 5, 20},
		// neither: fixed default
		{90, 0, 0, models.CrowdExtreme, 90, DefaultPredictionBaseline},
		{5, 0, 0, models.CrowdVeryLow, 5, DefaultPredictionBaseline},
		{30, 0, 0, models.CrowdModerate, 30, DefaultPredictionBaseline},
	}
	for _, tt := range tests {
		got := ClassifyPredictedCrowd(tt.predicted, tt.p50, tt.rolling)
		if got.CrowdLevel != tt.want || got.DisplayedWait != tt.displayed {
			t.Errorf("predicted %v p50 %v rolling %v: expected %s/%d, got %s/%d",
				tt.predicted, tt.p50, tt.rolling, tt.want, tt.displayed, got.CrowdLevel, got.DisplayedWait)
		}
		if got.Baseline != tt.baseline {
			t.Errorf("predicted %v p50 %v rolling %v: expected baseline %v, got %v",
				tt.predicted, tt.p50, tt.rolling, tt.baseline, got.Baseline)
		}
	}
}

func TestClosedAttractions(t *testing.T) {
	for _, status := range []string{models.StatusClosed, models.StatusDown} {
		if got := ClassifyAttractionLoad(status, 45, 30); got.Rating != models.CrowdClosed || got.Baseline != 30 {
			t.Errorf("%s load: expected closed, got %+v", status, got)
		}
		got := ClassifyAttractionPrediction(status, 60, 40, 0)
		if got.CrowdLevel != models.CrowdClosed || got.DisplayedWait != 0 {
			t.Errorf("%s prediction: expected closed/0, got %+v", status, got)
		}
	}
	for _, status := range []string{"", models.StatusOperating, models.StatusRefurbishment} {
		if got := ClassifyAttractionLoad(status, 45, 30); got.Rating == models.CrowdClosed {
			t.Errorf("%q load should not be closed", status)
		}
		if got := ClassifyAttractionPrediction(status, 60, 40, 0); got.CrowdLevel != models.CrowdHigh {
			t.Errorf("%q prediction: expected high, got %s", status, got.CrowdLevel)
		}
	}
}

func TestRoundToNearest5(t *testing.T) {
	cases := map[float64]int{0: 0, 2.4: 0, 2.5: 5, 7.4: 5, 7.5: 10, 12: 10, 58: 60}
	for in, want := range cases {
		if got := RoundToNearest5(in); got != want {
			t.Errorf("RoundToNearest5(%v): expected %d, got %d", in, want, got)
		}
	}
}
