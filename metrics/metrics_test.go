package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	prom "github.com/prometheus/client_golang/prometheus"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestMetricsServer(t *testing.T) {
	registry := prom.NewRegistry()
	counter := prom.NewCounter(prom.CounterOpts{Name: "functest_test_total", Help: "test counter"})
	registry.MustRegister(counter)
	counter.Add(3)

	server := NewMetricsServer(0, registry)

	code, body := get(t, server.Handler(), "/health")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "OK", body)

	code, body = get(t, server.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "functest_test_total 3")
}

func TestHandlerDefaultGatherer(t *testing.T) {
	code, _ := get(t, Handler(nil), "/metrics")
	require.Equal(t, http.StatusOK, code)
}

func TestScrape(t *testing.T) {
	registry := prom.NewRegistry()
	waits := prom.NewCounterVec(prom.CounterOpts{Name: "functest_test_waits_total", Help: "test waits"}, []string{"type", "outcome"})
	registry.MustRegister(waits)
	waits.WithLabelValues("wallet", "satisfied").Add(2)
	waits.WithLabelValues("wallet", "timeout").Inc()
	waits.WithLabelValues("node.login", "satisfied").Inc()

	server := httptest.NewServer(NewMetricsServer(0, registry).Handler())
	defer server.Close()

	families, err := Scrape(context.Background(), server.URL+"/metrics")
	require.NoError(t, err)
	require.Equal(t, float64(4), CounterValue(families, "functest_test_waits_total", nil))
	require.Equal(t, float64(3), CounterValue(families, "functest_test_waits_total", map[string]string{"type": "wallet"}))
	require.Equal(t, float64(1), CounterValue(families, "functest_test_waits_total", map[string]string{"type": "wallet", "outcome": "timeout"}))
	require.Zero(t, CounterValue(families, "missing_total", nil))

	_, err = Scrape(context.Background(), server.URL+"/missing")
	require.Error(t, err)
}
