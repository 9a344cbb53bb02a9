package models

import "time"

// SystemMetrics is a point-in-time summary of process instrumentation.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	RefreshesTotal           uint64    `json:"refreshesTotal"`
	RefreshFailures          uint64    `json:"refreshFailures"`
	StoreErrors              uint64    `json:"storeErrors"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
