package comparison

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"store-monitor/fetcher"
	"store-monitor/models"
	"store-monitor/parser"
)

var (
	titleSelectors = []string{
		"h1.x-item-title__mainTitle span",
		"h1.x-item-title__mainTitle",
		"#itemTitle",
		".x-item-title .ux-textspans--BOLD",
	}
	priceSelectors = []string{
		".x-price-primary span.ux-textspans",
		".x-price-primary",
		"#prcIsum",
		"#mm-saleDscPrc",
		".x-bin-price__content .ux-textspans",
	}
	endedMarkers = []string{
		"this listing has ended",
		"this listing was ended",
		"bidding has ended",
	}
)

// Lookup fetches a single item page and extracts its current price point.
type Lookup struct {
	fetcher fetcher.Fetcher
}

func NewLookup(f fetcher.Fetcher) *Lookup {
	return &Lookup{fetcher: f}
}

func (l *Lookup) Lookup(ctx context.Context, url string) (models.PricePoint, error) {
	html, err := l.fetcher.Fetch(ctx, url)
	if err != nil {
		return models.PricePoint{}, fmt.Errorf("fetch listing %s: %w", url, err)
	}
	return parseListingPage(html)
}

func parseListingPage(html string) (models.PricePoint, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.PricePoint{}, fmt.Errorf("parse listing page: %w", err)
	}

	point := models.PricePoint{Currency: "USD", Status: models.StatusActive}

	for _, sel := range titleSelectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			point.Title = text
			break
		}
	}

	var priceText string
	for _, sel := range priceSelectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			priceText = text
			break
		}
	}
	point.Current = parser.ParsePrice(priceText)
	point.Currency = detectCurrency(priceText)

	bodyText := strings.ToLower(doc.Find("body").Text())
	for _, marker := range endedMarkers {
		if strings.Contains(bodyText, marker) {
			point.Status = models.StatusEnded
			break
		}
	}
	if strings.Contains(bodyText, "item sold") || strings.Contains(bodyText, "this item is out of stock") {
		point.Status = models.StatusSold
	}

	if point.Title == "" && point.Current == 0 {
		return models.PricePoint{}, fmt.Errorf("no listing data on page")
	}
	return point, nil
}

func detectCurrency(priceText string) string {
	switch {
	case strings.Contains(priceText, "£"):
		return "GBP"
	case strings.Contains(priceText, "€"):
		return "EUR"
	case strings.Contains(priceText, "AU $"):
		return "AUD"
	case strings.Contains(priceText, "C $"):
		return "CAD"
	default:
		return "USD"
	}
}
