// Package httphandler is the HTTP driving adapter: a manual run trigger and
// a health endpoint for container health checks.
package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
)

// Scheduler is the part of the schedule service the handler drives.
type Scheduler interface {
	TriggerNow(ctx context.Context) (model.RunResult, error)
	Next(t time.Time) time.Time
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	scheduler Scheduler
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(scheduler Scheduler, logger *slog.Logger) *Handler {
	return &Handler{
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/runs", h.TriggerRun)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging; the request ID
	// is assigned first so both can report it.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)
	wrapped = requestIDMiddleware(wrapped)

	return wrapped
}

// TriggerRun queues a run on the schedule loop and blocks until it finishes.
// Runs never overlap with the weekly firing; a trigger that arrives during a
// run waits for it.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	requestID := RequestID(r.Context())
	h.logger.Info("manual run requested", "request_id", requestID, "remote_addr", r.RemoteAddr)

	result, err := h.scheduler.TriggerNow(r.Context())
	if err != nil {
		status, msg := runErrorStatus(err)
		h.logger.Error("manual run failed", "request_id", requestID, "status", status, "error", err)
		writeError(w, r, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, toRunResponse(result))
}

// runErrorStatus maps a run failure to a response status and a message safe
// to return to the caller.
func runErrorStatus(err error) (int, string) {
	var authErr *model.AuthError
	var fetchErr *model.FetchError

	switch {
	case errors.As(err, &authErr):
		return http.StatusBadGateway, "authentication failed for " + authErr.Identity
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, "directory fetch failed"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "run timed out"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "run cancelled"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	now := h.now().UTC()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Time:    now.Format(time.RFC3339),
		NextRun: h.scheduler.Next(now).UTC().Format(time.RFC3339),
	})
}
