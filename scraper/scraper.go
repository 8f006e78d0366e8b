// Package scraper drives the fetcher and parser across consecutive
// listing pages of one storefront.
package scraper

import (
	"context"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"store-monitor/config"
	"store-monitor/fetcher"
	"store-monitor/models"
	"store-monitor/parser"
)

// Scraper walks a storefront's listing pages and accumulates records.
type Scraper struct {
	fetcher fetcher.Fetcher
	parser  *parser.Parser
	profile *config.SiteProfile
	cfg     config.ScraperConfig
}

// New creates a Scraper. A nil profile uses the built-in defaults.
func New(f fetcher.Fetcher, p *parser.Parser, profile *config.SiteProfile, cfg config.ScraperConfig) *Scraper {
	if profile == nil {
		profile = config.DefaultProfile()
	}
	return &Scraper{fetcher: f, parser: p, profile: profile, cfg: cfg}
}

// ScrapeAllPages fetches pages starting at startURL until the page cap
// is hit, a next-page URL repeats, or a page yields no items. Records
// are deduplicated by listing id, last seen wins. Fetch failures end the
// walk with whatever was accumulated; the caller treats an empty result
// as a soft failure.
func (s *Scraper) ScrapeAllPages(ctx context.Context, startURL string, maxPages int) []models.ListingRecord {
	var records []models.ListingRecord
	index := make(map[string]int)
	visited := map[string]bool{startURL: true}

	currentURL := startURL
	page := 0

	for {
		if maxPages > 0 && page >= maxPages {
			log.Printf("Page cap %d reached for %s\n", maxPages, startURL)
			break
		}
		page++

		html, err := s.fetcher.Fetch(ctx, currentURL)
		if err != nil {
			log.Printf("Fetch failed on page %d (%s): %v\n", page, currentURL, err)
			break
		}

		items, err := s.parser.Parse(html)
		if err != nil {
			log.Printf("Parse failed on page %d (%s): %v\n", page, currentURL, err)
			break
		}
		if len(items) == 0 {
			log.Printf("No items on page %d (%s), stopping\n", page, currentURL)
			break
		}
		log.Printf("Page %d: %d items\n", page, len(items))

		for _, item := range items {
			if i, seen := index[item.ID]; seen {
				records[i] = item
				continue
			}
			index[item.ID] = len(records)
			records = append(records, item)
		}

		nextURL := s.resolveNextURL(html, currentURL)
		if nextURL == "" {
			break
		}
		if visited[nextURL] {
			log.Printf("Next-page URL already visited (%s), stopping\n", nextURL)
			break
		}
		visited[nextURL] = true
		currentURL = nextURL

		if err := fetcher.SleepBetween(ctx, s.cfg.PageDelayMin, s.cfg.PageDelayMax); err != nil {
			break
		}
	}

	return records
}

// resolveNextURL determines the URL of the page after currentURL, in
// order: explicit next-navigation element, pagination widget current+1,
// incrementing an existing page parameter, appending one.
func (s *Scraper) resolveNextURL(html, currentURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		if next := s.nextFromNav(doc, currentURL); next != "" {
			return next
		}
		if next := s.nextFromWidget(doc, currentURL); next != "" {
			return next
		}
	}
	return s.nextFromPageParam(currentURL)
}

func (s *Scraper) nextFromNav(doc *goquery.Document, currentURL string) string {
	if sel := doc.Find(s.profile.Pagination.NextSelector).First(); sel.Length() > 0 {
		if href, ok := sel.Attr("href"); ok {
			return absoluteURL(currentURL, href)
		}
	}

	var found string
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		label := strings.ToLower(strings.TrimSpace(a.Text()))
		for _, want := range s.profile.Pagination.NextLabels {
			if label == want {
				if href, ok := a.Attr("href"); ok {
					found = absoluteURL(currentURL, href)
					return false
				}
			}
		}
		return true
	})
	return found
}

// nextFromWidget reads the active page number out of the pagination
// widget and follows the link labeled current+1.
func (s *Scraper) nextFromWidget(doc *goquery.Document, currentURL string) string {
	widget := doc.Find(s.profile.Pagination.WidgetSelector).First()
	if widget.Length() == 0 {
		return ""
	}

	current := 0
	widget.Find("[aria-current], .pagination__item--selected").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if n, err := strconv.Atoi(strings.TrimSpace(sel.Text())); err == nil {
			current = n
			return false
		}
		return true
	})
	if current == 0 {
		return ""
	}

	wantLabel := strconv.Itoa(current + 1)
	var found string
	widget.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.TrimSpace(a.Text()) == wantLabel {
			if href, ok := a.Attr("href"); ok {
				found = absoluteURL(currentURL, href)
				return false
			}
		}
		return true
	})
	return found
}

// nextFromPageParam rewrites or appends the page-number query parameter.
func (s *Scraper) nextFromPageParam(currentURL string) string {
	u, err := url.Parse(currentURL)
	if err != nil {
		return ""
	}
	param := s.profile.Pagination.PageParam

	q := u.Query()
	if raw := q.Get(param); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return ""
		}
		q.Set(param, strconv.Itoa(n+1))
	} else {
		q.Set(param, "2")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func absoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}
