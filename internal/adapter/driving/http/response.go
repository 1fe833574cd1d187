package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/secretwatch/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response tagged with the request's
// correlation ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message, RequestID: RequestID(r.Context())})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// RunResponse is the JSON representation of a completed run.
type RunResponse struct {
	StartedAt    string              `json:"started_at"`
	DurationMS   int64               `json:"duration_ms"`
	Applications int                 `json:"applications"`
	Expired      model.BucketSummary `json:"expired"`
	Critical     model.BucketSummary `json:"critical"`
	Warning      model.BucketSummary `json:"warning"`
	Recipients   int                 `json:"recipients"`
	Delivered    bool                `json:"delivered"`
}

// HealthResponse is the JSON response for the health check endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	NextRun string `json:"next_run"`
}

func toRunResponse(r model.RunResult) RunResponse {
	return RunResponse{
		StartedAt:    r.StartedAt.UTC().Format(time.RFC3339),
		DurationMS:   r.Duration.Milliseconds(),
		Applications: r.Applications,
		Expired:      r.Expired,
		Critical:     r.Critical,
		Warning:      r.Warning,
		Recipients:   r.Recipients,
		Delivered:    r.Delivered,
	}
}
