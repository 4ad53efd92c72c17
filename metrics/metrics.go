package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/status-im/status-backend-tests/logutils"
)

// Server exposes the harness metrics over HTTP.
type Server struct {
	server *http.Server
}

// NewMetricsServer serves g on /metrics and a liveness probe on /health. A
// nil g serves the default prometheus registry, which holds the signal
// metrics.
func NewMetricsServer(port int, g prom.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/health", healthHandler())
	mux.Handle("/metrics", Handler(g))
	p := Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			ReadHeaderTimeout: 5 * time.Second,
			Handler:           mux,
		},
	}
	return &p
}

func healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte("OK"))
		if err != nil {
			logutils.ZapLogger().Error("health handler error", zap.Error(err))
		}
	})
}

func Handler(g prom.Gatherer) http.Handler {
	if g == nil {
		g = prom.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Handler returns the mux of the server, mostly for tests.
func (p *Server) Handler() http.Handler {
	return p.server.Handler
}

// Listen starts the HTTP server and blocks until it is stopped.
func (p *Server) Listen() {
	defer logutils.LogOnPanic()
	logutils.ZapLogger().Info("metrics server stopped", zap.Error(p.server.ListenAndServe()))
}

func (p *Server) Stop(ctx context.Context) error {
	return p.server.Shutdown(ctx)
}
