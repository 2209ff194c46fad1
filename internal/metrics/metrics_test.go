package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequest_IncrementsCounter(t *testing.T) {
	counter := RequestsTotal.WithLabelValues("test", RouteCalculate, "200")
	before := testutil.ToFloat64(counter)

	ObserveRequest("test", RouteCalculate, http.StatusOK, 3*time.Millisecond)

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("requests counter = %v, want %v", got, before+1)
	}
}

func TestRouteFor(t *testing.T) {
	tests := map[string]string{
		"/calculate":  RouteCalculate,
		"/history":    RouteHistory,
		"/":           RouteNotFound,
		"/foo":        RouteNotFound,
		"/calculate/": RouteNotFound,
	}
	for path, want := range tests {
		if got := RouteFor(path); got != want {
			t.Errorf("RouteFor(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestHandler_ExposesCollectors(t *testing.T) {
	CalculationsTotal.WithLabelValues(DivisionDefined).Add(0)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "abacus_calculations_total") {
		t.Error("metrics output missing abacus_calculations_total")
	}
}
