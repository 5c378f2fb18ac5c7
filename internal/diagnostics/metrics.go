package diagnostics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OverlayFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wain",
		Subsystem: "overlay",
		Name:      "fetches_total",
		Help:      "Overlay fetches applied to the session, by layer and outcome",
	}, []string{"kind", "outcome"})

	StaleDiscards = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wain",
		Subsystem: "overlay",
		Name:      "stale_discarded_total",
		Help:      "Overlay results dropped because a newer request superseded them",
	}, []string{"kind"})

	Exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wain",
		Subsystem: "export",
		Name:      "files_total",
		Help:      "Category exports written, by category",
	}, []string{"category"})
)

// Handler serves the Prometheus metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
