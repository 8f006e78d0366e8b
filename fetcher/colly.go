package fetcher

import (
	"context"
	"fmt"

	"github.com/gocolly/colly/v2"

	"store-monitor/config"
)

// CollyFetcher fetches through a colly collector. Colly manages its own
// connection reuse and per-domain rate limiting, which makes it a useful
// third opinion when both direct strategies are being served error
// pages.
type CollyFetcher struct {
	cfg     config.ScraperConfig
	profile *config.SiteProfile
}

// NewCollyFetcher creates the colly strategy.
func NewCollyFetcher(cfg config.ScraperConfig, profile *config.SiteProfile) *CollyFetcher {
	return &CollyFetcher{cfg: cfg, profile: profile}
}

func (f *CollyFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := SleepBetween(ctx, f.cfg.HTTPDelayMin, f.cfg.HTTPDelayMax); err != nil {
		return "", err
	}

	c := colly.NewCollector(
		colly.UserAgent(randomUserAgent(f.profile)),
	)
	c.SetRequestTimeout(f.cfg.Timeout)

	var html string
	var fetchErr error

	c.OnRequest(func(r *colly.Request) {
		for name, value := range browserHeaders() {
			r.Headers.Set(name, value)
		}
	})
	c.OnResponse(func(r *colly.Response) {
		html = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(url); err != nil {
		return "", fmt.Errorf("colly visit: %w", err)
	}
	c.Wait()

	if fetchErr != nil {
		return "", fmt.Errorf("colly fetch: %w", fetchErr)
	}
	if html == "" {
		return "", fmt.Errorf("colly returned empty body")
	}
	return html, nil
}
