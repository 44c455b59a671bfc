package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
)

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func TestMiddleware_RecordsByRoute(t *testing.T) {
	p := NewProvider()

	e := echo.New()
	e.Use(p.Middleware())
	e.POST("/form/field", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]bool{"valid": false})
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/form/field", nil)
		e.ServeHTTP(httptest.NewRecorder(), req)
	}

	h := p.RequestHistogram(http.MethodPost, "/form/field", "200")
	if h == nil {
		t.Fatal("expected histogram for POST /form/field 200")
	}
	if h.Count() != 3 {
		t.Fatalf("expected count=3, got %d", h.Count())
	}
	if h.Sum() < 0 {
		t.Fatalf("expected non-negative sum, got %f", h.Sum())
	}
}

func TestMiddleware_UsesHTTPErrorCode(t *testing.T) {
	p := NewProvider()

	e := echo.New()
	e.Use(p.Middleware())
	e.POST("/form", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "invalid csrf token")
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/form", nil))

	if h := p.RequestHistogram(http.MethodPost, "/form", "403"); h == nil || h.Count() != 1 {
		t.Fatal("expected one observation labeled 403")
	}
}

func TestMiddleware_ActiveRequests(t *testing.T) {
	p := NewProvider()
	observed := make(chan int64, 1)

	e := echo.New()
	e.Use(p.Middleware())
	e.GET("/done", func(c echo.Context) error {
		observed <- p.active
		return c.String(http.StatusOK, "ok")
	})
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/done", nil))

	if got := <-observed; got != 1 {
		t.Fatalf("expected active=1 during handling, got %d", got)
	}
	if p.active != 0 {
		t.Fatalf("expected active=0 after request, got %d", p.active)
	}
}

// ---------------------------------------------------------------------------
// Events and export
// ---------------------------------------------------------------------------

func TestEvent_Counts(t *testing.T) {
	p := NewProvider()
	p.Event("identity_captured")
	p.Event("identity_captured")
	p.Event("form_submitted")

	if got := p.EventCount("identity_captured"); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := p.EventCount("form_rejected"); got != 0 {
		t.Errorf("expected 0 for unseen event, got %d", got)
	}
}

func TestHandler_PrometheusFormat(t *testing.T) {
	p := NewProvider()
	p.ReportSessions(func() int { return 4 })
	p.Event("form_submitted")

	e := echo.New()
	e.Use(p.Middleware())
	e.GET("/onboarding", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", p.Handler())

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/onboarding", nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"# TYPE http_server_request_duration_seconds histogram",
		`http_server_request_duration_seconds_count{method="GET",route="/onboarding",status_code="200"} 1`,
		`http_server_request_duration_seconds_bucket{method="GET",route="/onboarding",status_code="200",le="+Inf"} 1`,
		"onboarding_sessions_active 4",
		`onboarding_events_total{event="form_submitted"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in output:\n%s", want, body)
		}
	}
}

func TestHandler_OmitsSessionsWithoutSource(t *testing.T) {
	p := NewProvider()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/metrics", nil), rec)
	if err := p.Handler()(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(rec.Body.String(), "onboarding_sessions_active") {
		t.Error("expected no session gauge without a source")
	}
}

// ---------------------------------------------------------------------------
// Histogram
// ---------------------------------------------------------------------------

func TestHistogram_Buckets(t *testing.T) {
	h := newHistogram([]float64{0.010, 0.100, 1.0})
	h.Observe(0.005)
	h.Observe(0.050)
	h.Observe(0.070)
	h.Observe(3.0)

	if h.Count() != 4 {
		t.Fatalf("expected count=4, got %d", h.Count())
	}
	// Non-cumulative in storage.
	if h.bucketCounts[0] != 1 || h.bucketCounts[1] != 2 || h.bucketCounts[2] != 0 {
		t.Fatalf("unexpected raw buckets %v", h.bucketCounts)
	}
	cum := h.cumulativeBuckets()
	if cum[0] != 1 || cum[1] != 3 || cum[2] != 3 {
		t.Fatalf("unexpected cumulative buckets %v", cum)
	}
}

func TestMetrics_ConcurrentSafe(t *testing.T) {
	p := NewProvider()
	e := echo.New()
	e.Use(p.Middleware())
	e.GET("/form", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/form", nil))
			p.Event("form_viewed")
		}()
	}
	wg.Wait()

	if h := p.RequestHistogram(http.MethodGet, "/form", "200"); h == nil || h.Count() != 50 {
		t.Fatal("expected 50 observations")
	}
	if p.EventCount("form_viewed") != 50 {
		t.Errorf("expected 50 events, got %d", p.EventCount("form_viewed"))
	}
}
