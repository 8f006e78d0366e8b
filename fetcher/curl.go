package fetcher

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"store-monitor/config"
)

// CurlFetcher shells out to curl. Running as an external process gives a
// different TLS/HTTP fingerprint than the Go client, which gets past
// some request-level blocking.
type CurlFetcher struct {
	cfg     config.ScraperConfig
	profile *config.SiteProfile
	binary  string
}

// NewCurlFetcher creates the curl strategy.
func NewCurlFetcher(cfg config.ScraperConfig, profile *config.SiteProfile) *CurlFetcher {
	return &CurlFetcher{cfg: cfg, profile: profile, binary: "curl"}
}

func (f *CurlFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := SleepBetween(ctx, f.cfg.CurlDelayMin, f.cfg.CurlDelayMax); err != nil {
		return "", err
	}

	timeoutSec := strconv.Itoa(int(f.cfg.Timeout.Seconds()))

	var cookies []string
	for name, value := range sessionCookies() {
		cookies = append(cookies, name+"="+value)
	}

	args := []string{
		"-s",
		"-L",
		"-A", randomUserAgent(f.profile),
		"--max-time", timeoutSec,
		"--connect-timeout", timeoutSec,
		"-H", "Cookie: " + strings.Join(cookies, "; "),
		"-H", "dnt: 1",
	}
	for name, value := range browserHeaders() {
		args = append(args, "-H", name+": "+value)
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, f.binary, args...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("curl fetch failed: %w", err)
	}
	if len(out) == 0 {
		return "", fmt.Errorf("curl returned empty body")
	}
	return string(out), nil
}
