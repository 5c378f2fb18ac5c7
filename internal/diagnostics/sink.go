// Package diagnostics reports overlay and export activity to the log and
// to Prometheus counters.
package diagnostics

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/hydromonitoring/wain-terminal/internal/overlay"
)

// Sink implements overlay.Sink. Every log line carries the session id.
type Sink struct {
	sessionID string
	logger    *slog.Logger
}

// NewSink creates a sink for one browsing session
func NewSink(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &Sink{
		sessionID: id,
		logger:    logger.With("session", id),
	}
}

// SessionID returns the id attached to this session's log lines
func (s *Sink) SessionID() string {
	return s.sessionID
}

// Logger returns the session-scoped logger
func (s *Sink) Logger() *slog.Logger {
	return s.logger
}

// FetchResolved counts a successful overlay fetch
func (s *Sink) FetchResolved(req overlay.Request) {
	OverlayFetches.WithLabelValues(req.Kind.String(), "resolved").Inc()
	s.logger.Debug("overlay resolved", "kind", req.Kind, "target", req.Target)
}

// FetchFailed counts and logs a failed overlay fetch
func (s *Sink) FetchFailed(req overlay.Request, err error) {
	OverlayFetches.WithLabelValues(req.Kind.String(), "failed").Inc()
	s.logger.Warn("overlay fetch failed",
		"kind", req.Kind, "target", req.Target, "error", err)
}

// StaleDiscarded counts a result dropped for a superseded request
func (s *Sink) StaleDiscarded(req overlay.Request) {
	StaleDiscards.WithLabelValues(req.Kind.String()).Inc()
}

// Exported records a written category export
func (s *Sink) Exported(category, path string) {
	Exports.WithLabelValues(category).Inc()
	s.logger.Info("exported category", "category", category, "path", path)
}
