package fetcher

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// RodFetcher drives a headless browser. It is the last-resort strategy
// for pages that feed empty shells to plain HTTP clients, and is only
// wired in when the config enables it.
type RodFetcher struct {
	browser *rod.Browser
}

// NewRodFetcher launches a headless browser instance.
func NewRodFetcher() (*RodFetcher, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(true).
		Leakless(false).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("disable-extensions").
		Set("mute-audio")

	// Prefer a system browser over downloading Chromium.
	for _, path := range []string{
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
	} {
		if _, err := os.Stat(path); err == nil {
			l = l.Bin(path)
			break
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	return &RodFetcher{browser: browser}, nil
}

func (f *RodFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var page *rod.Page
	var pageErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				pageErr = fmt.Errorf("panic while creating page: %v", r)
			}
		}()
		page = f.browser.MustPage()
	}()
	if pageErr != nil {
		return "", pageErr
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}
	page.WaitLoad()

	if err := page.Timeout(10 * time.Second).WaitStable(500 * time.Millisecond); err != nil {
		log.Printf("Warning: page did not stabilize within timeout, continuing anyway: %v\n", err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	if html == "" {
		return "", fmt.Errorf("browser returned empty document")
	}
	return html, nil
}

// Close shuts the browser down.
func (f *RodFetcher) Close() error {
	return f.browser.Close()
}
