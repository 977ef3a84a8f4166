package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.CacheHit()
	m.CacheMiss()
	m.BaselineComputed("park", "1y", "strict")
	m.BatchFailure()
	m.FeaturesPublished(3, true)
	if m.Registry() != nil {
		t.Fatal("expected nil registry")
	}
}

func TestCountersAndMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(nil)
	m.CacheHit()
	m.CacheHit()
	m.CacheMiss()
	m.BaselineComputed("park", "30d", "same_hour")
	m.BatchFailure()
	m.FeaturesPublished(4, true)

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/ping/:id", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping/7", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()

	expected := []string{
		"analytics_cache_hits_total 2",
		"analytics_cache_misses_total 1",
		`analytics_baselines_computed_total{entity_type="park",specificity="same_hour",window="30d"} 1`,
		"analytics_batch_entity_failures_total 1",
		`analytics_features_published_total{outcome="success"} 4`,
		`http_requests_total{route="/ping/:id",status="200"} 1`,
		"go_goroutines",
	}
	for _, line := range expected {
		if !strings.Contains(body, line) {
			t.Errorf("expected exposition to contain %q", line)
		}
	}
}
