package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/billing-service/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("billing", []float64{1, 10}, registry)
	handler := chi.NewRouter()
	handler.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	handler.Get("/users/{userId}/bill", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/u-42/bill", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/users/{userId}/bill", "204")))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "unmatched", "404")))
	require.NotZero(t, testutil.CollectAndCount(metrics.ReqDur))
	require.Equal(t, float64(0), testutil.ToFloat64(metrics.InFlight))
}

func TestDomainMetricsRecord(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("billing_test", registry)

	obs.RecordOrderConfirmed("ok", 300)
	obs.RecordOrderConfirmed("conflict", 0)
	obs.RecordCartMutation("add", "ok")
	obs.RecordBillComputed("ok")

	require.Equal(t, float64(1), testutil.ToFloat64(obs.OrdersConfirmedTotal.WithLabelValues("ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(obs.OrdersConfirmedTotal.WithLabelValues("conflict")))
	require.Equal(t, float64(1), testutil.ToFloat64(obs.CartMutationsTotal.WithLabelValues("add", "ok")))
	require.Equal(t, 1, testutil.CollectAndCount(obs.OrderTotal))
}

func TestTracingMiddlewarePassesThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(obs.TracingMiddleware)
	r.Get("/users/{userId}/bill", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/users/u1/bill", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)
}
