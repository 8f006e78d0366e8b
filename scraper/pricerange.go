package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"store-monitor/models"
)

// DefaultRangeStep is the default price band width in dollars.
const DefaultRangeStep = 50

// PriceRangeURL is one price-banded variant of a search URL.
type PriceRangeURL struct {
	URL   string
	Label string
	Min   int
	Max   int
}

// GeneratePriceRangeURLs splits a search URL into price bands using the
// _udlo/_udhi parameters. Large storefronts cap out at a fixed page
// count; banding the price keeps every band under the cap. A URL without
// _udhi is returned unchanged.
func GeneratePriceRangeURLs(urlStr string, step int) ([]PriceRangeURL, error) {
	if step <= 0 {
		step = DefaultRangeStep
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	query := parsed.Query()

	maxStr := query.Get("_udhi")
	if maxStr == "" {
		return []PriceRangeURL{{URL: urlStr, Label: "all prices"}}, nil
	}
	priceMax, err := strconv.Atoi(maxStr)
	if err != nil {
		return nil, fmt.Errorf("invalid _udhi value %q", maxStr)
	}

	priceMin := 0
	if minStr := query.Get("_udlo"); minStr != "" {
		priceMin, err = strconv.Atoi(minStr)
		if err != nil {
			return nil, fmt.Errorf("invalid _udlo value %q", minStr)
		}
	}
	if priceMax <= priceMin {
		return nil, fmt.Errorf("_udhi %d must exceed _udlo %d", priceMax, priceMin)
	}

	var ranges []PriceRangeURL
	for lo := priceMin; lo < priceMax; lo += step {
		hi := lo + step
		if hi > priceMax {
			hi = priceMax
		}
		q := parsed.Query()
		q.Set("_udlo", strconv.Itoa(lo))
		q.Set("_udhi", strconv.Itoa(hi))
		banded := *parsed
		banded.RawQuery = q.Encode()

		ranges = append(ranges, PriceRangeURL{
			URL:   banded.String(),
			Label: fmt.Sprintf("$%d-$%d", lo, hi),
			Min:   lo,
			Max:   hi,
		})
	}
	return ranges, nil
}

// ScrapeAllRanges walks every price band of the start URL, deduplicating
// listings by id across bands. Without _udhi on the URL this degrades to
// a plain ScrapeAllPages.
func (s *Scraper) ScrapeAllRanges(ctx context.Context, startURL string, maxPages, step int) []models.ListingRecord {
	ranges, err := GeneratePriceRangeURLs(startURL, step)
	if err != nil {
		return s.ScrapeAllPages(ctx, startURL, maxPages)
	}

	var records []models.ListingRecord
	index := make(map[string]int)

	for _, band := range ranges {
		if ctx.Err() != nil {
			break
		}
		for _, record := range s.ScrapeAllPages(ctx, band.URL, maxPages) {
			if at, seen := index[record.ID]; seen {
				records[at] = record
				continue
			}
			index[record.ID] = len(records)
			records = append(records, record)
		}
	}
	return records
}
