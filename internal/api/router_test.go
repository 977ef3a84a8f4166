package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/parkfan/occupancy-analytics/internal/analytics"
	"github.com/parkfan/occupancy-analytics/internal/cache"
	"github.com/parkfan/occupancy-analytics/internal/config"
	"github.com/parkfan/occupancy-analytics/internal/database"
	"github.com/parkfan/occupancy-analytics/internal/handler"
	"github.com/parkfan/occupancy-analytics/internal/metrics"
	"github.com/parkfan/occupancy-analytics/internal/middleware"
	"github.com/parkfan/occupancy-analytics/internal/models"
	"github.com/parkfan/occupancy-analytics/internal/repository"
	"github.com/parkfan/occupancy-analytics/internal/service"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Auth.JWTSecret = "router-test-secret"

	db, err := database.OpenAndMigrate(database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	settings, err := analytics.SettingsFromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	m := metrics.New(nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	samples := repository.NewSampleRepository(db, cfg.Location())
	parks := repository.NewParkRepository(db)
	engine := analytics.NewEngine(analytics.Deps{
		Store:   samples,
		Cache:   cache.NewMemory(m),
		Logger:  logger,
		Metrics: m,
		Zones:   parks,
	}, settings)

	analyticsService := service.NewAnalyticsService(engine, parks)
	router := SetupRouter(cfg, Handlers{
		Occupancy: handler.NewOccupancyHandler(analyticsService),
		Baseline:  handler.NewBaselineHandler(analyticsService),
		Crowd:     handler.NewCrowdHandler(analyticsService),
		Sample:    handler.NewSampleHandler(service.NewSampleService(samples)),
		Park:      handler.NewParkHandler(service.NewParkService(parks)),
	}, Options{Metrics: m, Logger: logger})

	token, err := middleware.NewToken(cfg.Auth.JWTSecret, "test", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return &testServer{router: router, token: token}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, auth bool) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode body %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode data %s: %v", raw, err)
	}
}

func waitPtr(v float64) *float64 { return &v }

func seed(t *testing.T, s *testServer) {
	t.Helper()
	park := models.Park{Name: "Lakeside", Latitude: 28.41, Longitude: -81.58, Timezone: "UTC"}
	if code, env := s.do(t, http.MethodPut, "/api/v1/parks/p1", park, true); code != http.StatusOK {
		t.Fatalf("put park: %d %s", code, env.Error)
	}

	at := time.Now().Add(-5 * time.Minute).Unix()
	req := models.IngestRequest{}
	for i, w := range []float64{30, 40, 50} {
		req.Samples = append(req.Samples, models.WaitTimeSample{
			AttractionID: []string{"a1", "a2", "a3"}[i],
			ParkID:       "p1",
			WaitTime:     waitPtr(w),
			RecordedAt:   at,
		})
	}
	code, env := s.do(t, http.MethodPost, "/api/v1/samples", req, true)
	if code != http.StatusCreated {
		t.Fatalf("ingest: %d %s", code, env.Error)
	}
	var ingested models.IngestResponse
	decode(t, env.Data, &ingested)
	if ingested.Inserted != 3 || len(ingested.IDs) != 3 {
		t.Fatalf("ingested = %+v", ingested)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}

	s.do(t, http.MethodGet, "/api/v1/crowd-level?occupancy=10", nil, false)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `route="/api/v1/crowd-level"`) {
		t.Errorf("metrics missing request counter:\n%s", w.Body.String())
	}
}

func TestWriteRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	if code, _ := s.do(t, http.MethodPut, "/api/v1/parks/p1", models.Park{Name: "x"}, false); code != http.StatusUnauthorized {
		t.Errorf("put park without token = %d", code)
	}
	if code, _ := s.do(t, http.MethodPost, "/api/v1/samples", models.IngestRequest{}, false); code != http.StatusUnauthorized {
		t.Errorf("ingest without token = %d", code)
	}
}

func TestOccupancyFlow(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)

	code, env := s.do(t, http.MethodGet, "/api/v1/occupancy/p1", nil, false)
	if code != http.StatusOK {
		t.Fatalf("occupancy: %d %s", code, env.Error)
	}
	var result models.OccupancyResult
	decode(t, env.Data, &result)
	// current = mean(30,40,50) = 40, baseline = P90 of the same samples = 50
	if result.BaselineValue != 50 || result.OccupancyPercentage != 80 {
		t.Errorf("baseline %d occupancy %d, want 50 and 80", result.BaselineValue, result.OccupancyPercentage)
	}
	if result.Trend != models.TrendStable || result.Breakdown.ActiveCount != 3 {
		t.Errorf("trend %s active %d", result.Trend, result.Breakdown.ActiveCount)
	}

	code, env = s.do(t, http.MethodGet, "/api/v1/occupancy/p1/feature", nil, false)
	if code != http.StatusOK {
		t.Fatalf("feature: %d", code)
	}
	var feature models.OccupancyFeature
	decode(t, env.Data, &feature)
	if feature.ParkID != "p1" || feature.OccupancyPct != 80 {
		t.Errorf("feature = %+v", feature)
	}

	code, env = s.do(t, http.MethodPost, "/api/v1/occupancy/batch", models.BatchRequest{EntityIDs: []string{"p1", "p1", "ghost"}}, false)
	if code != http.StatusOK {
		t.Fatalf("batch: %d", code)
	}
	var batch models.BatchOccupancyResponse
	decode(t, env.Data, &batch)
	if batch.Results["p1"].OccupancyPercentage != 80 {
		t.Errorf("batch p1 = %+v", batch.Results["p1"])
	}
	if ghost, ok := batch.Results["ghost"]; !ok || ghost.OccupancyPercentage != 0 {
		t.Errorf("park without data should report 0, got %+v (present %v)", ghost, ok)
	}

	code, env = s.do(t, http.MethodGet, "/api/v1/occupancy/nearby?lat=28.4&lon=-81.58&radiusKm=5", nil, false)
	if code != http.StatusOK {
		t.Fatalf("nearby: %d %s", code, env.Error)
	}
	var nearby struct {
		Data  []models.NearbyOccupancy `json:"data"`
		Total int                      `json:"total"`
	}
	decode(t, env.Data, &nearby)
	if nearby.Total != 1 || nearby.Data[0].ID != "p1" || nearby.Data[0].Occupancy == nil {
		t.Fatalf("nearby = %+v", nearby)
	}
	if nearby.Data[0].DistanceKm <= 0 || nearby.Data[0].DistanceKm > 5 {
		t.Errorf("distance = %v", nearby.Data[0].DistanceKm)
	}

	code, env = s.do(t, http.MethodGet, "/api/v1/samples/park/p1?limit=10", nil, false)
	if code != http.StatusOK {
		t.Fatalf("samples: %d %s", code, env.Error)
	}
	var listed struct {
		Total int `json:"total"`
	}
	decode(t, env.Data, &listed)
	if listed.Total != 3 {
		t.Errorf("listed %d samples", listed.Total)
	}
}

func TestBaselineRoute(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)

	code, env := s.do(t, http.MethodGet, "/api/v1/baselines/attraction/a2?detail=true&percentile=50", nil, false)
	if code != http.StatusOK {
		t.Fatalf("baseline: %d %s", code, env.Error)
	}
	var b models.PercentileBaseline
	decode(t, env.Data, &b)
	if b.PercentileValue != 40 || b.SampleCount != 1 || b.Percentile != 0.5 {
		t.Errorf("baseline = %+v", b)
	}

	code, env = s.do(t, http.MethodGet, "/api/v1/baselines/attraction/unknown?hour=3&dayOfWeek=2", nil, false)
	if code != http.StatusOK {
		t.Fatalf("empty baseline: %d", code)
	}
	decode(t, env.Data, &b)
	if b.PercentileValue != 0 || b.HourOfDay != 3 || b.DayOfWeek != 2 {
		t.Errorf("empty baseline = %+v", b)
	}
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t)

	oversized := models.BatchRequest{EntityIDs: make([]string, 501)}
	for i := range oversized.EntityIDs {
		oversized.EntityIDs[i] = "p1"
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"unknown entity type", http.MethodGet, "/api/v1/baselines/ride/a1", nil},
		{"hour out of range", http.MethodGet, "/api/v1/baselines/park/p1?hour=24", nil},
		{"percentile out of range", http.MethodGet, "/api/v1/baselines/park/p1?percentile=150", nil},
		{"unknown trend mode", http.MethodGet, "/api/v1/occupancy/p1?trend=weekly", nil},
		{"empty batch", http.MethodPost, "/api/v1/occupancy/batch", models.BatchRequest{}},
		{"oversized batch", http.MethodPost, "/api/v1/occupancy/batch", oversized},
		{"nearby without lat", http.MethodGet, "/api/v1/occupancy/nearby?lon=-81.58", nil},
		{"nearby without lon", http.MethodGet, "/api/v1/occupancy/nearby?lat=28.4", nil},
		{"nearby without point", http.MethodGet, "/api/v1/occupancy/nearby", nil},
		{"missing occupancy", http.MethodGet, "/api/v1/crowd-level", nil},
		{"unknown scheme", http.MethodGet, "/api/v1/crowd-level?occupancy=50&scheme=bogus", nil},
		{"missing predicted", http.MethodGet, "/api/v1/crowd-level/predicted?p50=20", nil},
		{"bad sample window", http.MethodGet, "/api/v1/samples/park/p1?window=soon", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _ := s.do(t, tt.method, tt.path, tt.body, false); code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", code)
			}
		})
	}
}

func TestCrowdRoutes(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/v1/crowd-level?occupancy=63", nil, false)
	if code != http.StatusOK {
		t.Fatalf("crowd level: %d", code)
	}
	var level models.CrowdLevelResult
	decode(t, env.Data, &level)
	if level.CrowdLevel != models.CrowdModerate || level.Scheme != "standard" {
		t.Errorf("crowd level = %+v", level)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/crowd-level?occupancy=45&scheme=alternate", nil, false)
	decode(t, env.Data, &level)
	if level.CrowdLevel != models.CrowdLow {
		t.Errorf("alternate 45 = %s", level.CrowdLevel)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/crowd-level/predicted?predicted=32&p50=30", nil, false)
	var predicted models.PredictedCrowd
	decode(t, env.Data, &predicted)
	if predicted.CrowdLevel != models.CrowdModerate || predicted.DisplayedWait != 30 {
		t.Errorf("predicted = %+v", predicted)
	}

	code, _ = s.do(t, http.MethodGet, "/api/v1/load-rating?current=40&baseline=40", nil, false)
	if code != http.StatusOK {
		t.Errorf("load rating = %d", code)
	}
}

func TestCrowdRoutesForAttraction(t *testing.T) {
	s := newTestServer(t)
	seed(t, s)

	closed := models.IngestRequest{Samples: []models.WaitTimeSample{{
		AttractionID: "a1",
		ParkID:       "p1",
		Status:       models.StatusClosed,
		RecordedAt:   time.Now().Add(-time.Minute).Unix(),
	}}}
	if code, env := s.do(t, http.MethodPost, "/api/v1/samples", closed, true); code != http.StatusCreated {
		t.Fatalf("ingest closed sample: %d %s", code, env.Error)
	}

	code, env := s.do(t, http.MethodGet, "/api/v1/load-rating?current=40&baseline=40&attractionId=a1", nil, false)
	if code != http.StatusOK {
		t.Fatalf("load rating: %d %s", code, env.Error)
	}
	var rating models.LoadRating
	decode(t, env.Data, &rating)
	if rating.Rating != models.CrowdClosed {
		t.Errorf("closed attraction rating = %+v", rating)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/load-rating?current=40&baseline=40&attractionId=a2", nil, false)
	decode(t, env.Data, &rating)
	if rating.Rating != models.CrowdNormal {
		t.Errorf("operating attraction rating = %+v", rating)
	}

	var predicted models.PredictedCrowd
	_, env = s.do(t, http.MethodGet, "/api/v1/crowd-level/predicted?predicted=60&attractionId=a1", nil, false)
	decode(t, env.Data, &predicted)
	if predicted.CrowdLevel != models.CrowdClosed || predicted.DisplayedWait != 0 {
		t.Errorf("closed prediction = %+v", predicted)
	}

	// no p50: judged against a2's rolling average of 40
	_, env = s.do(t, http.MethodGet, "/api/v1/crowd-level/predicted?predicted=60&attractionId=a2", nil, false)
	decode(t, env.Data, &predicted)
	if predicted.CrowdLevel != models.CrowdHigh || predicted.Baseline != 40 {
		t.Errorf("rolling average prediction = %+v", predicted)
	}

	// no p50 and no history: fixed 30 minute baseline
	_, env = s.do(t, http.MethodGet, "/api/v1/crowd-level/predicted?predicted=90", nil, false)
	decode(t, env.Data, &predicted)
	if predicted.CrowdLevel != models.CrowdExtreme || predicted.Baseline != 30 {
		t.Errorf("default baseline prediction = %+v", predicted)
	}
	_, env = s.do(t, http.MethodGet, "/api/v1/crowd-level/predicted?predicted=5", nil, false)
	decode(t, env.Data, &predicted)
	if predicted.CrowdLevel != models.CrowdVeryLow {
		t.Errorf("short predicted wait = %+v", predicted)
	}
}

func TestParkRoutes(t *testing.T) {
	s := newTestServer(t)

	if code, _ := s.do(t, http.MethodGet, "/api/v1/parks/p1", nil, false); code != http.StatusNotFound {
		t.Errorf("missing park = %d", code)
	}
	if code, _ := s.do(t, http.MethodPut, "/api/v1/parks/p1", models.Park{Name: "Lakeside", Timezone: "Mars/Olympus"}, true); code != http.StatusBadRequest {
		t.Errorf("bad timezone = %d", code)
	}
	seed(t, s)

	code, env := s.do(t, http.MethodGet, "/api/v1/parks", nil, false)
	if code != http.StatusOK {
		t.Fatalf("list parks: %d", code)
	}
	var list struct {
		Data []models.Park `json:"data"`
	}
	decode(t, env.Data, &list)
	if len(list.Data) != 1 || list.Data[0].Name != "Lakeside" {
		t.Errorf("parks = %+v", list.Data)
	}
}
