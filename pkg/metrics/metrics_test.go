package metrics_test

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/binhbb2204/bookhub/pkg/metrics"
	"github.com/gin-gonic/gin"
)

func TestMetrics_InitialState(t *testing.T) {
	m := metrics.New()

	handler := metrics.NewHandler(m)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/metrics", handler.Metrics)

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != 200 {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result["requests_total"].(float64) != 0 {
		t.Fatalf("expected requests_total=0, got %v", result["requests_total"])
	}
	if result["failures_total"].(float64) != 0 {
		t.Fatalf("expected failures_total=0, got %v", result["failures_total"])
	}
}

func TestMetrics_BeginRecordsOutcome(t *testing.T) {
	m := metrics.New()

	m.Begin()(200, nil)
	m.Begin()(401, nil)
	m.Begin()(0, errors.New("dial tcp: refused"))
	pending := m.Begin()

	s := m.Snapshot()
	if s.RequestsTotal != 4 {
		t.Fatalf("expected 4 requests, got %d", s.RequestsTotal)
	}
	if s.FailuresTotal != 2 {
		t.Fatalf("expected 2 failures, got %d", s.FailuresTotal)
	}
	if s.UnauthorizedTotal != 1 {
		t.Fatalf("expected 1 unauthorized, got %d", s.UnauthorizedTotal)
	}
	if s.InFlight != 1 {
		t.Fatalf("expected 1 in flight, got %d", s.InFlight)
	}

	pending(204, nil)
	if m.Snapshot().InFlight != 0 {
		t.Fatal("in-flight counter not released")
	}

	m.Reset()
	if m.Snapshot().RequestsTotal != 0 {
		t.Fatal("reset did not clear counters")
	}
}

func TestMiddleware_CountsServedRequests(t *testing.T) {
	m := metrics.New()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(metrics.Middleware(m))
	router.GET("/ok", func(c *gin.Context) { c.Status(200) })
	router.GET("/denied", func(c *gin.Context) { c.Status(401) })

	for _, path := range []string{"/ok", "/denied", "/ok"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	s := m.Snapshot()
	if s.RequestsTotal != 3 || s.FailuresTotal != 1 || s.UnauthorizedTotal != 1 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}
