package fetcher

import (
	"context"
	"fmt"
	"log"
	"strings"

	"store-monitor/config"
)

// Fetcher retrieves the raw HTML of a single URL. Implementations are
// transport strategies; the chain tries them in order.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Chain tries each strategy in order until one returns plausible HTML.
// Exhausting all strategies returns an error the paginator treats as
// "no items this attempt", never as a fatal condition.
type Chain struct {
	strategies []Fetcher
	trace      TraceSink
}

// NewChain builds the default strategy chain for the given config:
// curl subprocess first, then the in-process HTTP client, then colly,
// then (when enabled) a headless browser.
func NewChain(cfg config.ScraperConfig, profile *config.SiteProfile) *Chain {
	if profile == nil {
		profile = config.DefaultProfile()
	}
	trace := NewTraceSink(cfg.TraceDir)

	strategies := []Fetcher{
		NewCurlFetcher(cfg, profile),
		NewHTTPFetcher(cfg, profile),
		NewCollyFetcher(cfg, profile),
	}
	if cfg.UseBrowser {
		if rf, err := NewRodFetcher(); err == nil {
			strategies = append(strategies, rf)
		} else {
			log.Printf("Browser strategy unavailable: %v\n", err)
		}
	}

	return &Chain{strategies: strategies, trace: trace}
}

// NewChainWith builds a chain from explicit strategies, for tests and
// custom wiring.
func NewChainWith(trace TraceSink, strategies ...Fetcher) *Chain {
	if trace == nil {
		trace = NopTrace{}
	}
	return &Chain{strategies: strategies, trace: trace}
}

func (c *Chain) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error
	for i, strategy := range c.strategies {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		html, err := strategy.Fetch(ctx, url)
		if err != nil {
			log.Printf("Fetch strategy %d failed for %s: %v\n", i+1, url, err)
			lastErr = err
			continue
		}

		if botWall(html) {
			log.Printf("Fetch strategy %d hit a bot-detection page for %s\n", i+1, url)
			c.trace.Dump(url, "botwall", html)
			lastErr = fmt.Errorf("bot-detection page returned")
			continue
		}

		c.trace.Dump(url, "page", html)
		return html, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no fetch strategies configured")
	}
	return "", fmt.Errorf("all fetch strategies failed: %w", lastErr)
}

// botWall reports whether the page looks like a captcha or robot check
// rather than listing content.
func botWall(html string) bool {
	lower := strings.ToLower(html)
	return strings.Contains(lower, "captcha") ||
		strings.Contains(lower, "pardon our interruption") ||
		strings.Contains(lower, "verify you are a human")
}
