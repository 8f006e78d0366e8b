// Package differ compares fresh scrapes against persisted snapshots and
// owns snapshot persistence.
package differ

import (
	"math"

	"store-monitor/models"
)

// priceEpsilon guards float noise when comparing prices. Any real price
// move is at least a cent.
const priceEpsilon = 0.001

// Diff produces the three-way change set between the previous snapshot
// and the current scrape. Identity is the listing id. When previous is
// empty (cold start) every current item is classified as new; the
// notification layer applies its own badge filter on top, so this does
// not over-notify on first run.
func Diff(previous, current []models.ListingRecord) models.ChangeSet {
	var changes models.ChangeSet

	if len(previous) == 0 {
		changes.NewListings = append(changes.NewListings, current...)
		return changes
	}

	prevByID := make(map[string]models.ListingRecord, len(previous))
	for _, item := range previous {
		prevByID[item.ID] = item
	}
	currentIDs := make(map[string]bool, len(current))

	for _, item := range current {
		currentIDs[item.ID] = true

		prev, ok := prevByID[item.ID]
		if !ok {
			changes.NewListings = append(changes.NewListings, item)
			continue
		}
		// Numeric comparison only; display-text changes on range prices
		// are not price changes.
		if math.Abs(prev.Price-item.Price) > priceEpsilon {
			changes.PriceChanges = append(changes.PriceChanges, models.PriceChange{
				ID:       item.ID,
				Title:    item.Title,
				URL:      item.URL,
				ImageURL: item.ImageURL,
				OldPrice: prev.Price,
				NewPrice: item.Price,
				Currency: item.Currency,
			})
		}
	}

	for _, item := range previous {
		if !currentIDs[item.ID] {
			changes.RemovedListings = append(changes.RemovedListings, item)
		}
	}

	return changes
}
