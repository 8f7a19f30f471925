package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/jobboard-auth/metrics"
)

func TestObserveAuth(t *testing.T) {
	m := metrics.New()
	m.ObserveAuth("login", metrics.OutcomeSuccess)
	m.ObserveAuth("login", metrics.OutcomeSuccess)
	m.ObserveAuth("login", metrics.OutcomeRejected)

	require.Equal(t, 2.0, testutil.ToFloat64(m.AuthCounter("login", metrics.OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.AuthCounter("login", metrics.OutcomeRejected)))
	require.Zero(t, testutil.ToFloat64(m.AuthCounter("refresh", metrics.OutcomeSuccess)))
}

func TestInstrumentAndHandler(t *testing.T) {
	m := metrics.New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/account", m.Instrument(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	mux.Handle("GET /metrics", m.Handler())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/account", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `http_requests_total{method="GET",route="GET /auth/account",status="401"} 1`)
}
