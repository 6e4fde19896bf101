package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/orbiterzero/groundlink/internal/logging"
)

// WebServer exposes telemetry history, live updates, and Prometheus
// metrics over HTTP.
type WebServer struct {
	srv    *http.Server
	logger logging.Logger
}

// NewWebServer wires the hub's history and live endpoints plus the
// metrics handler into one server. metrics may be nil.
func NewWebServer(addr string, hub *Hub, metrics *Metrics, logger logging.Logger) *WebServer {
	if logger == nil {
		logger = logging.Default()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/history", hub.handleHistory)
	mux.HandleFunc("/api/live", hub.handleLive)
	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}
	return &WebServer{
		srv:    &http.Server{Addr: addr, Handler: mux},
		logger: logger,
	}
}

// Start begins listening and shuts down when the context is canceled.
func (w *WebServer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := w.srv.Shutdown(shutdownCtx); err != nil {
			w.logger.Error("telemetry server shutdown", logging.F("err", err))
		}
	}()

	if err := w.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		w.logger.Error("telemetry server", logging.F("err", err))
	}
}
