package fetcher

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"store-monitor/config"
)

const idChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// randomID produces a cookie-shaped random token.
func randomID(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = idChars[rand.Intn(len(idChars))]
	}
	return string(b)
}

// randomUserAgent picks a User-Agent from the profile pool.
func randomUserAgent(profile *config.SiteProfile) string {
	return profile.UserAgents[rand.Intn(len(profile.UserAgents))]
}

// sessionCookies builds a randomized synthetic cookie set mimicking the
// session identifiers a browser would carry.
func sessionCookies() map[string]string {
	return map[string]string{
		"npii": fmt.Sprintf("btguid/%s^cguid/%s^", randomID(32), randomID(32)),
		"dp1":  fmt.Sprintf("bu1p/QEBfX0BAX19AQA**%s^u1f/QEBfX0BAX19AQA**%s^", randomID(8), randomID(8)),
		"s":    "CgAD4gIBYLDqk9W" + randomID(30),
		"ebay": "%5Ejs%3D1%5Edv%3D0%5Esjs%3D0%5E",
	}
}

// browserHeaders returns the standard header set sent with every fetch.
func browserHeaders() map[string]string {
	return map[string]string{
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Cache-Control":             "max-age=0",
		"Referer":                   "https://www.google.com/",
	}
}

// SleepBetween waits a random duration in [min, max], honoring context
// cancellation. Both bounds zero means no wait, which tests rely on.
func SleepBetween(ctx context.Context, min, max time.Duration) error {
	if max <= 0 {
		return ctx.Err()
	}
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
