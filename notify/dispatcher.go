package notify

import (
	"bytes"
	"fmt"
	"log"

	"store-monitor/models"
)

// Dispatcher renders change sets into messages and hands them to a Sender.
// Transport failures are logged, never propagated: a broken mail relay must
// not abort a monitoring cycle.
type Dispatcher struct {
	sender Sender
}

func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// NotifyNewListings mails the new listings that carry the seller's
// "New Listing" badge. Items that are new to the snapshot but unbadged are
// skipped here, so a cold-start diff does not flood the subscriber with the
// whole inventory. Returns true when a message was actually sent.
func (d *Dispatcher) NotifyNewListings(recipient, storeName string, items []models.ListingRecord) bool {
	var badged []models.ListingRecord
	for _, it := range items {
		if it.IsNewListing {
			badged = append(badged, it)
		}
	}
	if len(badged) == 0 {
		return false
	}

	var buf bytes.Buffer
	data := struct {
		StoreName string
		Items     []models.ListingRecord
	}{storeName, badged}
	if err := newListingsTmpl.Execute(&buf, data); err != nil {
		log.Printf("notify: render new-listings mail for %s: %v", storeName, err)
		return false
	}

	subject := fmt.Sprintf("[%s] %d new listing(s)", storeName, len(badged))
	if err := d.sender.Send(recipient, subject, buf.String(), true); err != nil {
		log.Printf("notify: send new-listings mail for %s: %v", storeName, err)
		return false
	}
	return true
}

type priceChangeView struct {
	models.PriceChange
	Up    bool
	Delta float64
}

// NotifyPriceChanges mails every price change in the set, no filtering.
func (d *Dispatcher) NotifyPriceChanges(recipient, storeName string, changes []models.PriceChange) bool {
	if len(changes) == 0 {
		return false
	}

	views := make([]priceChangeView, 0, len(changes))
	for _, c := range changes {
		views = append(views, priceChangeView{
			PriceChange: c,
			Up:          c.NewPrice > c.OldPrice,
			Delta:       c.NewPrice - c.OldPrice,
		})
	}

	var buf bytes.Buffer
	data := struct {
		StoreName string
		Changes   []priceChangeView
	}{storeName, views}
	if err := priceChangesTmpl.Execute(&buf, data); err != nil {
		log.Printf("notify: render price-change mail for %s: %v", storeName, err)
		return false
	}

	subject := fmt.Sprintf("[%s] %d price change(s)", storeName, len(changes))
	if err := d.sender.Send(recipient, subject, buf.String(), true); err != nil {
		log.Printf("notify: send price-change mail for %s: %v", storeName, err)
		return false
	}
	return true
}

// NotifyComparison mails a comparison alert when the observed difference
// crossed the configured threshold in a direction the subscriber asked about.
func (d *Dispatcher) NotifyComparison(recipient string, cfg models.ComparisonConfig, rec models.ComparisonRecord) bool {
	if !rec.Result.ThresholdExceeded {
		return false
	}
	switch rec.Result.Status {
	case models.CompetitorHigher:
		if !cfg.NotifyConditions.Higher {
			return false
		}
	case models.CompetitorLower:
		if !cfg.NotifyConditions.Lower {
			return false
		}
	default:
		return false
	}

	direction := "higher"
	if rec.Result.Status == models.CompetitorLower {
		direction = "lower"
	}

	var buf bytes.Buffer
	data := struct {
		Name            string
		MyTitle         string
		MyPrice         float64
		CompetitorTitle string
		CompetitorPrice float64
		Difference      float64
		Percentage      float64
		Direction       string
	}{
		Name:            cfg.Name,
		MyTitle:         cfg.MyListing.Title,
		MyPrice:         rec.MyPrice.Current,
		CompetitorTitle: cfg.CompetitorListing.Title,
		CompetitorPrice: rec.CompetitorPrice.Current,
		Difference:      rec.Result.Difference,
		Percentage:      rec.Result.Percentage,
		Direction:       direction,
	}
	if err := comparisonTmpl.Execute(&buf, data); err != nil {
		log.Printf("notify: render comparison mail for %s: %v", cfg.ID, err)
		return false
	}

	subject := fmt.Sprintf("[Price Alert] %s: competitor %s by $%.2f", cfg.Name, direction, abs(rec.Result.Difference))
	if err := d.sender.Send(recipient, subject, buf.String(), true); err != nil {
		log.Printf("notify: send comparison mail for %s: %v", cfg.ID, err)
		return false
	}
	return true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
