package models

import "time"

// ListingStatus is the sale state shown on the listing card.
type ListingStatus string

const (
	StatusActive  ListingStatus = "active"
	StatusSold    ListingStatus = "sold"
	StatusEnded   ListingStatus = "ended"
	StatusUnknown ListingStatus = "unknown"
)

// ListingRecord represents one observed product at one point in time.
// ID is the site-assigned listing id and is stable across re-scrapes;
// it is the identity key for snapshot diffing.
type ListingRecord struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	// PriceText keeps the display price verbatim ("$10.00 to $20.00");
	// Price holds the parsed lower bound.
	PriceText string        `json:"price_text,omitempty"`
	ImageURL  string        `json:"image_url,omitempty"`
	Status    ListingStatus `json:"status"`
	Shipping  string        `json:"shipping,omitempty"`
	Category  string        `json:"category,omitempty"`
	SellerInfo string       `json:"seller_info,omitempty"`
	SoldCount  int          `json:"sold_count"`

	// OriginalPrice and DiscountPercent come from the strikethrough
	// price and discount badge, when present.
	OriginalPrice   float64 `json:"original_price,omitempty"`
	DiscountPercent int     `json:"discount_percent,omitempty"`

	// IsNewListing is true only when the site itself marked the listing
	// with a "New listing" badge. It is never derived from snapshot
	// diffing.
	IsNewListing bool `json:"is_new_listing"`

	// ListedAt is the parsed listing date, when the card shows one.
	ListedAt           *time.Time `json:"listed_at,omitempty"`
	IsYesterdayListing bool       `json:"is_yesterday_listing"`

	ScrapedAt time.Time `json:"scraped_at"`
}

// Valid reports whether the record carries the required identity fields.
func (r *ListingRecord) Valid() bool {
	return r.ID != "" && r.Title != ""
}

// PriceChange records one listing whose price moved between snapshots.
type PriceChange struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	ImageURL string  `json:"image_url,omitempty"`
	OldPrice float64 `json:"old_price"`
	NewPrice float64 `json:"new_price"`
	Currency string  `json:"currency"`
}

// ChangeSet is the three-way diff between two snapshots of a storefront.
type ChangeSet struct {
	NewListings     []ListingRecord `json:"new_listings"`
	PriceChanges    []PriceChange   `json:"price_changes"`
	RemovedListings []ListingRecord `json:"removed_listings"`
}

// Empty reports whether the diff found no changes at all.
func (c *ChangeSet) Empty() bool {
	return len(c.NewListings) == 0 && len(c.PriceChanges) == 0 && len(c.RemovedListings) == 0
}
