package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(operationsTotal.WithLabelValues("test_op", "error"))
	RecordOperation("test_op", errors.New("boom"))
	RecordOperation("test_op", nil)

	if got := testutil.ToFloat64(operationsTotal.WithLabelValues("test_op", "error")); got != before+1 {
		t.Errorf("error count = %v, want %v", got, before+1)
	}
	if got := testutil.ToFloat64(operationsTotal.WithLabelValues("test_op", "success")); got < 1 {
		t.Errorf("success count = %v", got)
	}
}

func TestCatalogueGauge(t *testing.T) {
	SetCatalogueDocuments(7)
	if got := testutil.ToFloat64(catalogueDocuments); got != 7 {
		t.Errorf("gauge = %v, want 7", got)
	}
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/documents/*", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, p := range []string{"/documents/a.md", "/documents/b/c.txt"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/documents/*", "418")); got != 2 {
		t.Errorf("route counter = %v, want 2", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordImport(10)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "folio_imported_bytes_total") {
		t.Error("metrics output missing folio_imported_bytes_total")
	}
}
