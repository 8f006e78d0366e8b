package fetcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"store-monitor/config"
)

// HTTPFetcher is the in-process HTTP client strategy. It retries with
// exponential backoff and re-randomizes its headers and cookies on every
// attempt.
type HTTPFetcher struct {
	cfg     config.ScraperConfig
	profile *config.SiteProfile
	client  *http.Client
}

// NewHTTPFetcher creates the HTTP client strategy.
func NewHTTPFetcher(cfg config.ScraperConfig, profile *config.SiteProfile) *HTTPFetcher {
	return &HTTPFetcher{
		cfg:     cfg,
		profile: profile,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	maxRetries := f.cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			// 2^attempt seconds plus jitter, scaled away entirely when
			// delays are zeroed for tests.
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			backoff += time.Duration(rand.Int63n(int64(time.Second)))
			if f.cfg.HTTPDelayMax == 0 {
				backoff = 0
			}
			log.Printf("Retrying fetch (attempt %d/%d) after %v...\n", attempt+1, maxRetries, backoff)
			if err := SleepBetween(ctx, backoff, backoff); err != nil {
				return "", err
			}
		}

		if err := SleepBetween(ctx, f.cfg.HTTPDelayMin, f.cfg.HTTPDelayMax); err != nil {
			return "", err
		}

		html, err := f.fetchOnce(ctx, url)
		if err != nil {
			lastErr = err
			log.Printf("HTTP fetch attempt %d/%d failed: %v\n", attempt+1, maxRetries, err)
			continue
		}
		return html, nil
	}
	return "", fmt.Errorf("all %d attempts failed: %w", maxRetries, lastErr)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", randomUserAgent(f.profile))
	for name, value := range browserHeaders() {
		req.Header.Set(name, value)
	}
	for name, value := range sessionCookies() {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("empty body")
	}
	return string(body), nil
}
