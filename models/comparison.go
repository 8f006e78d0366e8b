package models

// ComparisonStatus classifies the price relation between the two watched
// listings.
type ComparisonStatus string

const (
	CompetitorHigher ComparisonStatus = "competitor_higher"
	CompetitorLower  ComparisonStatus = "competitor_lower"
	CompetitorEqual  ComparisonStatus = "equal"
	CompetitorUnknown ComparisonStatus = "unknown"
)

// ComparisonListing identifies one side of a price comparison.
type ComparisonListing struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	ItemID string `json:"item_id"`
}

// NotifyConditions controls when a comparison check mails the subscriber.
type NotifyConditions struct {
	Higher    bool    `json:"higher"`
	Lower     bool    `json:"lower"`
	Threshold float64 `json:"threshold"`
}

// ComparisonConfig is one registered pair of listings to compare.
type ComparisonConfig struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	MyListing         ComparisonListing `json:"my_listing"`
	CompetitorListing ComparisonListing `json:"competitor_listing"`
	NotifyEmail       string            `json:"notify_email"`
	NotifyConditions  NotifyConditions  `json:"notify_conditions"`
	CreatedAt         int64             `json:"created_at"`
	LastCheck         int64             `json:"last_check"`
	Status            TargetStatus      `json:"status"`
}

// PricePoint is one side's observed price at check time.
type PricePoint struct {
	Current  float64       `json:"current"`
	Currency string        `json:"currency"`
	Status   ListingStatus `json:"status"`
	Title    string        `json:"title"`
}

// ComparisonResult is the derived outcome of one check.
type ComparisonResult struct {
	Difference        float64          `json:"difference"`
	Percentage        float64          `json:"percentage"`
	Status            ComparisonStatus `json:"status"`
	ThresholdExceeded bool             `json:"threshold_exceeded"`
}

// ComparisonRecord is one timestamped observation, kept as append-only
// history for a bounded window.
type ComparisonRecord struct {
	Timestamp        int64            `json:"timestamp"`
	ComparisonID     string           `json:"comparison_id"`
	MyPrice          PricePoint       `json:"my_price"`
	CompetitorPrice  PricePoint       `json:"competitor_price"`
	Result           ComparisonResult `json:"comparison_result"`
	NotificationSent bool             `json:"notification_sent"`
	CheckStatus      string           `json:"check_status"`
}
