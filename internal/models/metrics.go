package models

import "time"

// SystemMetrics is a lightweight runtime snapshot served by the health endpoint.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SheetFetches             uint64    `json:"sheet_fetches"`
	SheetFetchFailures       uint64    `json:"sheet_fetch_failures"`
	VerificationsAccepted    uint64    `json:"verifications_accepted"`
	VerificationsRejected    uint64    `json:"verifications_rejected"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
