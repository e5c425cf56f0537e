package telemetry

import "time"

// HealthStatus is the JSON document served on GET /health. It reports
// per-stage liveness only — spec.md §7 is explicit that health endpoints
// do not reflect consumer lag (derived externally from broker metrics).
type HealthStatus struct {
	Status    string    `json:"status"`
	Stage     string    `json:"stage"`
	StartedAt time.Time `json:"started_at"`
}

// NewHealthStatus builds the standing health document for a stage,
// reporting its process start time.
func NewHealthStatus(stage string, startedAt time.Time) HealthStatus {
	return HealthStatus{Status: "ok", Stage: stage, StartedAt: startedAt}
}
