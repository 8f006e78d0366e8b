package models

import "time"

// TargetStatus is the lifecycle state of a monitored target.
type TargetStatus string

const (
	TargetActive TargetStatus = "active"
	TargetPaused TargetStatus = "paused"
)

// MonitorTarget is one registered storefront to watch.
type MonitorTarget struct {
	Name        string       `json:"name"`
	URL         string       `json:"url"`
	NotifyEmail string       `json:"notify_email,omitempty"`
	AddedAt     int64        `json:"added_at"`
	Status      TargetStatus `json:"status"`
}

// StoreStats is the per-storefront summary written after each cycle.
type StoreStats struct {
	TotalItems   int   `json:"total_items"`
	NewItems     int   `json:"new_items"`
	PriceChanges int   `json:"price_changes"`
	RemovedItems int   `json:"removed_items"`
	UpdateTime   int64 `json:"update_time"`
}

// RunStats aggregates the outcome of one monitoring cycle across all
// targets. Returned to the caller for logging; the orchestrator does not
// persist it beyond the per-store stats keys.
type RunStats struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	TargetsProcessed int `json:"targets_processed"`
	TargetsSucceeded int `json:"targets_succeeded"`
	TargetsFailed    int `json:"targets_failed"`

	NewListings     int `json:"new_listings"`
	PriceChanges    int `json:"price_changes"`
	RemovedListings int `json:"removed_listings"`

	NotificationsSent   int `json:"notifications_sent"`
	NotificationsFailed int `json:"notifications_failed"`

	ComparisonsChecked int `json:"comparisons_checked"`
	ComparisonsFailed  int `json:"comparisons_failed"`
}
