package models

import "time"

// SystemMetrics is an aggregated snapshot of process-level metrics.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	RegistrationsTotal       uint64    `json:"registrations_total"`
	DropsTotal               uint64    `json:"drops_total"`
	BookingsTotal            uint64    `json:"bookings_total"`
	SlotClaimsTotal          uint64    `json:"slot_claims_total"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
