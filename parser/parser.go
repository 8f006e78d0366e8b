package parser

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"store-monitor/config"
	"store-monitor/models"
)

var (
	itemIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/itm/(\d+)`),
		regexp.MustCompile(`/(\d+)\?`),
	}
	digitsRe = regexp.MustCompile(`\d+`)
)

// adTitle marks the placeholder card the site injects into results.
const adTitle = "Shop on eBay"

// Parser extracts listing records from storefront listing-page HTML.
type Parser struct {
	profile *config.SiteProfile
	now     func() time.Time
}

// NewParser creates a Parser for the given site profile. A nil profile
// uses the built-in defaults.
func NewParser(profile *config.SiteProfile) *Parser {
	if profile == nil {
		profile = config.DefaultProfile()
	}
	return &Parser{profile: profile, now: time.Now}
}

// Parse extracts all listing records found in the HTML. Records missing
// the required id or title are dropped; a page with no recognizable
// containers yields an empty slice, not an error.
func (p *Parser) Parse(htmlContent string) ([]models.ListingRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var records []models.ListingRecord

	// Selector families are exclusive fallbacks for layout variants:
	// the first one that matches wins, matches are never merged.
	for _, selector := range p.profile.ContainerSelectors {
		containers := doc.Find(selector)
		if containers.Length() == 0 {
			continue
		}

		// The first container is the sponsored/ad slot; skip it when
		// there is more than one.
		skipFirst := containers.Length() > 1

		containers.Each(func(i int, s *goquery.Selection) {
			if skipFirst && i == 0 {
				return
			}
			if record := p.parseContainer(s); record != nil {
				records = append(records, *record)
			}
		})

		if len(records) > 0 {
			break
		}
	}

	return records, nil
}

// parseContainer extracts one record from a listing container. Optional
// fields are filled best-effort; a missing required field drops the
// record and returns nil.
func (p *Parser) parseContainer(s *goquery.Selection) *models.ListingRecord {
	record := &models.ListingRecord{
		Status:    models.StatusUnknown,
		Currency:  "USD",
		ScrapedAt: p.now(),
	}

	title := strings.TrimSpace(s.Find(p.profile.Fields.Title).First().Text())
	if title == adTitle {
		return nil
	}
	record.Title = title

	if link := s.Find(p.profile.Fields.Link).First(); link.Length() > 0 {
		if href, ok := link.Attr("href"); ok {
			record.URL = href
			record.ID = extractItemID(href)
		}
	}

	if priceEl := s.Find(p.profile.Fields.Price).First(); priceEl.Length() > 0 {
		raw := strings.TrimSpace(priceEl.Text())
		record.PriceText = raw
		record.Price = ParsePrice(raw)
	}

	p.addOptionalFields(s, record)
	p.detectNewListing(s, record)
	p.parseListingDate(s, record)

	if !record.Valid() {
		if record.Title != "" || record.URL != "" {
			log.Printf("Dropping listing without id/title (url=%q)\n", record.URL)
		}
		return nil
	}
	return record
}

// addOptionalFields fills in fields whose absence must not drop the
// record.
func (p *Parser) addOptionalFields(s *goquery.Selection, record *models.ListingRecord) {
	if img := s.Find(p.profile.Fields.Image).First(); img.Length() > 0 {
		src, _ := img.Attr("src")
		// src is sometimes a placeholder; prefer data-src when set.
		if dataSrc, ok := img.Attr("data-src"); ok && dataSrc != "" {
			src = dataSrc
		}
		if strings.HasPrefix(src, "/") {
			src = "https://www.ebay.com" + src
		}
		record.ImageURL = src
	}

	if statusText := strings.TrimSpace(s.Find(p.profile.Fields.Status).First().Text()); statusText != "" {
		record.Status = parseStatus(statusText)
	}

	record.Shipping = strings.TrimSpace(s.Find(p.profile.Fields.Shipping).First().Text())
	record.Category = strings.TrimSpace(s.Find(p.profile.Fields.Category).First().Text())
	record.SellerInfo = strings.TrimSpace(s.Find(p.profile.Fields.SellerInfo).First().Text())

	if soldText := strings.TrimSpace(s.Find(p.profile.Fields.SoldCount).First().Text()); soldText != "" {
		record.SoldCount = parseDigits(soldText)
	}

	if origText := strings.TrimSpace(s.Find(p.profile.Fields.OriginalPrice).First().Text()); origText != "" {
		record.OriginalPrice = ParsePrice(origText)
	}

	if discText := strings.TrimSpace(s.Find(p.profile.Fields.Discount).First().Text()); discText != "" {
		record.DiscountPercent = parseDigits(discText)
	}
}

// detectNewListing sets the badge flag only when the site explicitly
// marks the listing as new, in the title region or a highlight element.
// A record merely absent from the previous snapshot is not "new" in this
// sense.
func (p *Parser) detectNewListing(s *goquery.Selection, record *models.ListingRecord) {
	titleRegion := strings.ToLower(s.Find(p.profile.Fields.Title).First().Parent().Text())
	if strings.Contains(titleRegion, "new listing") {
		record.IsNewListing = true
		return
	}
	highlight := strings.ToLower(s.Find(p.profile.Fields.Highlight).First().Text())
	if strings.Contains(highlight, "new listing") {
		record.IsNewListing = true
	}
}

func (p *Parser) parseListingDate(s *goquery.Selection, record *models.ListingRecord) {
	text := strings.TrimSpace(s.Find(p.profile.Fields.ListingDate).First().Text())
	if text == "" {
		return
	}
	now := p.now()
	listed, ok := ParseListingDate(text, now)
	if !ok {
		return
	}
	record.ListedAt = &listed
	record.IsYesterdayListing = sameDay(listed, now.AddDate(0, 0, -1))
}

func extractItemID(url string) string {
	for _, re := range itemIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

func parseStatus(text string) models.ListingStatus {
	switch strings.ToLower(text) {
	case "sold", "sold out":
		return models.StatusSold
	case "ended":
		return models.StatusEnded
	case "":
		return models.StatusUnknown
	default:
		// Condition strings like "Brand New" or "Pre-Owned" mean the
		// listing is live.
		return models.StatusActive
	}
}

// parseDigits extracts the first run of digits in the text as an int.
func parseDigits(text string) int {
	m := digitsRe.FindString(strings.ReplaceAll(text, ",", ""))
	if m == "" {
		return 0
	}
	n := 0
	for _, c := range m {
		n = n*10 + int(c-'0')
	}
	return n
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
