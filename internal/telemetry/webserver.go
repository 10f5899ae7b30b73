package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/rjboer/jsonplot/internal/logging"
)

// WebServer exposes the hub's series and filter-chain endpoints over HTTP.
type WebServer struct {
	srv    *http.Server
	hub    *Hub
	logger logging.Logger
}

// NewWebServer builds an HTTP server around the hub's JSON API.
func NewWebServer(addr string, hub *Hub, logger logging.Logger) *WebServer {
	if logger == nil {
		logger = logging.Default()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/topics", hub.handleTopics)
	mux.HandleFunc("/api/series", hub.handleSeries)
	mux.HandleFunc("/api/live", hub.handleLive)
	mux.HandleFunc("/api/filters", hub.handleFilters)
	mux.HandleFunc("/api/filters/remove", hub.handleFilterRemove)
	mux.HandleFunc("/api/filters/set", hub.handleFilterSet)

	return &WebServer{
		hub:    hub,
		logger: logger,
		srv:    &http.Server{Addr: addr, Handler: mux},
	}
}

// Start begins listening and shuts down when the context is canceled.
func (w *WebServer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := w.srv.Shutdown(shutdownCtx); err != nil {
			w.logger.Warn("web telemetry shutdown", logging.Field{Key: "error", Value: err})
		}
	}()

	if err := w.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		w.logger.Error("web telemetry server error", logging.Field{Key: "error", Value: err})
	}
}
