package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestHandler(t *testing.T) {
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "wpgql_metrics_handler_test_total",
		Help: "Counter registered by TestHandler",
	})
	if err := Registry.Register(counter); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	defer Registry.Unregister(counter)
	counter.Add(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "wpgql_metrics_handler_test_total 3") {
		t.Errorf("metrics output missing test counter:\n%s", rec.Body.String())
	}
}

func TestHandler_CountsScrapes(t *testing.T) {
	h := Handler()
	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), `promhttp_metric_handler_requests_total{code="200"}`) {
		t.Errorf("metrics output missing handler scrape counter:\n%s", rec.Body.String())
	}

	// A second handler shares the collectors registered by the first.
	rec = httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
