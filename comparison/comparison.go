package comparison

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"store-monitor/fetcher"
	"store-monitor/models"
	"store-monitor/store"
)

const (
	listKey       = "comparison:list"
	configPrefix  = "comparison:config:"
	historyPrefix = "comparison:history:"
	indexPrefix   = "comparison:history_index:"

	historyTTL      = 90 * 24 * time.Hour
	historyIndexCap = 100

	equalEpsilon     = 0.01
	defaultThreshold = 5.0
)

var (
	// ErrInvalidListingURL is returned when a URL is not an eBay listing
	// with a recognizable item id.
	ErrInvalidListingURL = errors.New("not a valid eBay listing URL")

	// ErrComparisonNotFound is returned for operations on an unknown
	// comparison id.
	ErrComparisonNotFound = errors.New("comparison not found")

	itemIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/itm/(\d+)`),
		regexp.MustCompile(`/p/(\d+)`),
		regexp.MustCompile(`item=(\d+)`),
		regexp.MustCompile(`(\d{10,15})`),
	}

	ebayDomains = []string{
		"ebay.com", "ebay.co.uk", "ebay.de", "ebay.fr", "ebay.com.au", "ebay.ca",
	}
)

// ListingLookup fetches the current price point of a single listing page.
// Satisfied by *Lookup; tests substitute a stub.
type ListingLookup interface {
	Lookup(ctx context.Context, url string) (models.PricePoint, error)
}

// Notifier is the slice of the dispatcher the comparison checks need.
type Notifier interface {
	NotifyComparison(recipient string, cfg models.ComparisonConfig, rec models.ComparisonRecord) bool
}

// RunResult summarizes one pass over all active comparisons.
type RunResult struct {
	Checked           int
	Failed            int
	NotificationsSent int
}

// Comparisons manages price-comparison configs and their check history.
type Comparisons struct {
	store    store.Store
	lookup   ListingLookup
	notifier Notifier
	delayMin time.Duration
	delayMax time.Duration
	now      func() time.Time
}

func New(kv store.Store, lookup ListingLookup, notifier Notifier, delayMin, delayMax time.Duration) *Comparisons {
	return &Comparisons{
		store:    kv,
		lookup:   lookup,
		notifier: notifier,
		delayMin: delayMin,
		delayMax: delayMax,
		now:      time.Now,
	}
}

// ExtractItemID pulls the numeric item id out of an eBay listing URL.
// Empty string when no pattern matches.
func ExtractItemID(url string) string {
	for _, pattern := range itemIDPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// ValidateListingURL reports whether the URL points at an eBay listing
// with an extractable item id.
func ValidateListingURL(url string) bool {
	if !strings.HasPrefix(url, "http") {
		return false
	}
	onEbay := false
	for _, domain := range ebayDomains {
		if strings.Contains(url, domain) {
			onEbay = true
			break
		}
	}
	if !onEbay {
		return false
	}
	return ExtractItemID(url) != ""
}

// Create registers a new comparison pair. Listing titles are resolved
// best-effort through the lookup; a failed lookup falls back to a
// placeholder title.
func (c *Comparisons) Create(ctx context.Context, myURL, competitorURL, notifyEmail, name string, conditions *models.NotifyConditions) (models.ComparisonConfig, error) {
	if !ValidateListingURL(myURL) {
		return models.ComparisonConfig{}, fmt.Errorf("my listing: %w", ErrInvalidListingURL)
	}
	if !ValidateListingURL(competitorURL) {
		return models.ComparisonConfig{}, fmt.Errorf("competitor listing: %w", ErrInvalidListingURL)
	}

	if conditions == nil {
		conditions = &models.NotifyConditions{Higher: true, Lower: true, Threshold: defaultThreshold}
	}

	myTitle := c.resolveTitle(ctx, myURL, "my listing")
	competitorTitle := c.resolveTitle(ctx, competitorURL, "competitor listing")
	if name == "" {
		name = truncate(myTitle, 30) + " vs " + truncate(competitorTitle, 30)
	}

	id, err := c.nextID(ctx)
	if err != nil {
		return models.ComparisonConfig{}, err
	}

	cfg := models.ComparisonConfig{
		ID:   id,
		Name: name,
		MyListing: models.ComparisonListing{
			URL: myURL, Title: myTitle, ItemID: ExtractItemID(myURL),
		},
		CompetitorListing: models.ComparisonListing{
			URL: competitorURL, Title: competitorTitle, ItemID: ExtractItemID(competitorURL),
		},
		NotifyEmail:      notifyEmail,
		NotifyConditions: *conditions,
		CreatedAt:        c.now().Unix(),
		Status:           models.TargetActive,
	}
	if err := c.putConfig(ctx, cfg); err != nil {
		return models.ComparisonConfig{}, err
	}
	if err := c.addToList(ctx, id); err != nil {
		return models.ComparisonConfig{}, err
	}
	return cfg, nil
}

// Get returns one comparison config. ErrComparisonNotFound when missing.
func (c *Comparisons) Get(ctx context.Context, id string) (models.ComparisonConfig, error) {
	data, err := c.store.Get(ctx, configPrefix+id)
	if errors.Is(err, store.ErrNotFound) {
		return models.ComparisonConfig{}, ErrComparisonNotFound
	}
	if err != nil {
		return models.ComparisonConfig{}, fmt.Errorf("load comparison %s: %w", id, err)
	}
	var cfg models.ComparisonConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return models.ComparisonConfig{}, fmt.Errorf("decode comparison %s: %w", id, err)
	}
	return cfg, nil
}

// List returns all registered comparison configs in index order.
// Ids whose config record has gone missing are skipped.
func (c *Comparisons) List(ctx context.Context) ([]models.ComparisonConfig, error) {
	ids, err := c.listIDs(ctx)
	if err != nil {
		return nil, err
	}
	configs := make([]models.ComparisonConfig, 0, len(ids))
	for _, id := range ids {
		cfg, err := c.Get(ctx, id)
		if errors.Is(err, ErrComparisonNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// Delete removes a config, its history and the history index.
func (c *Comparisons) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, configPrefix+id); err != nil {
		return fmt.Errorf("delete comparison %s: %w", id, err)
	}
	if err := c.removeFromList(ctx, id); err != nil {
		return err
	}

	historyKeys, err := c.store.Keys(ctx, historyPrefix+id+":")
	if err != nil {
		return fmt.Errorf("list history for %s: %w", id, err)
	}
	for _, key := range historyKeys {
		if err := c.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return c.store.Delete(ctx, indexPrefix+id)
}

// History returns up to limit most recent records, newest first.
func (c *Comparisons) History(ctx context.Context, id string, limit int) ([]models.ComparisonRecord, error) {
	timestamps, err := c.historyIndex(ctx, id)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(timestamps) > limit {
		timestamps = timestamps[:limit]
	}

	records := make([]models.ComparisonRecord, 0, len(timestamps))
	for _, ts := range timestamps {
		key := historyPrefix + id + ":" + strconv.FormatInt(ts, 10)
		data, err := c.store.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			// Expired record still listed in the index.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load history %s: %w", key, err)
		}
		var rec models.ComparisonRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			log.Printf("Skipping corrupt history record %s: %v\n", key, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Latest returns the most recent check record, or ErrComparisonNotFound
// when no history exists.
func (c *Comparisons) Latest(ctx context.Context, id string) (models.ComparisonRecord, error) {
	records, err := c.History(ctx, id, 1)
	if err != nil {
		return models.ComparisonRecord{}, err
	}
	if len(records) == 0 {
		return models.ComparisonRecord{}, ErrComparisonNotFound
	}
	return records[0], nil
}

// Perform runs one comparison check: fetches both listings, derives the
// result, decides on notification, and records history. Paused configs
// and fetch failures yield no record and no error beyond the log line.
func (c *Comparisons) Perform(ctx context.Context, id string) (models.ComparisonRecord, bool) {
	cfg, err := c.Get(ctx, id)
	if err != nil {
		log.Printf("Comparison %s: %v\n", id, err)
		return models.ComparisonRecord{}, false
	}
	if cfg.Status != models.TargetActive {
		log.Printf("Comparison %s is %s, skipping\n", id, cfg.Status)
		return models.ComparisonRecord{}, false
	}

	myPoint, err := c.lookup.Lookup(ctx, cfg.MyListing.URL)
	if err != nil {
		log.Printf("Comparison %s: my listing fetch failed: %v\n", id, err)
		return models.ComparisonRecord{}, false
	}
	competitorPoint, err := c.lookup.Lookup(ctx, cfg.CompetitorListing.URL)
	if err != nil {
		log.Printf("Comparison %s: competitor fetch failed: %v\n", id, err)
		return models.ComparisonRecord{}, false
	}

	rec := BuildRecord(id, myPoint, competitorPoint, cfg.NotifyConditions.Threshold, c.now().Unix())

	if c.notifier != nil && cfg.NotifyEmail != "" {
		rec.NotificationSent = c.notifier.NotifyComparison(cfg.NotifyEmail, cfg, rec)
	}

	if err := c.saveHistory(ctx, rec); err != nil {
		log.Printf("Comparison %s: persist history: %v\n", id, err)
	}

	cfg.LastCheck = c.now().Unix()
	if err := c.putConfig(ctx, cfg); err != nil {
		log.Printf("Comparison %s: update last_check: %v\n", id, err)
	}
	return rec, true
}

// PerformAll runs every active comparison with inter-check throttling.
func (c *Comparisons) PerformAll(ctx context.Context) RunResult {
	var result RunResult

	configs, err := c.List(ctx)
	if err != nil {
		log.Printf("Comparison run: list configs: %v\n", err)
		return result
	}

	for _, cfg := range configs {
		if cfg.Status != models.TargetActive {
			continue
		}
		if ctx.Err() != nil {
			return result
		}
		if err := fetcher.SleepBetween(ctx, c.delayMin, c.delayMax); err != nil {
			return result
		}

		rec, ok := c.Perform(ctx, cfg.ID)
		if !ok {
			result.Failed++
			continue
		}
		result.Checked++
		if rec.NotificationSent {
			result.NotificationsSent++
		}
	}
	return result
}

// BuildRecord derives the comparison outcome from two observed price
// points. Prices at or below zero make the relation unknown; differences
// under a cent count as equal.
func BuildRecord(id string, my, competitor models.PricePoint, threshold float64, timestamp int64) models.ComparisonRecord {
	rec := models.ComparisonRecord{
		Timestamp:       timestamp,
		ComparisonID:    id,
		MyPrice:         my,
		CompetitorPrice: competitor,
		CheckStatus:     "success",
	}

	if threshold <= 0 {
		threshold = defaultThreshold
	}

	if my.Current > 0 && competitor.Current > 0 {
		difference := competitor.Current - my.Current
		percentage := difference / my.Current * 100

		status := models.CompetitorEqual
		if difference > equalEpsilon {
			status = models.CompetitorHigher
		} else if difference < -equalEpsilon {
			status = models.CompetitorLower
		}

		rec.Result = models.ComparisonResult{
			Difference:        round2(difference),
			Percentage:        round2(percentage),
			Status:            status,
			ThresholdExceeded: abs(difference) >= threshold,
		}
	} else {
		rec.Result = models.ComparisonResult{Status: models.CompetitorUnknown}
	}
	return rec
}

func (c *Comparisons) resolveTitle(ctx context.Context, url, fallback string) string {
	if c.lookup == nil {
		return fallback
	}
	point, err := c.lookup.Lookup(ctx, url)
	if err != nil || point.Title == "" {
		return fallback
	}
	return point.Title
}

// nextID allocates comp_YYYYMMDD_NNN, numbering within the current day.
func (c *Comparisons) nextID(ctx context.Context) (string, error) {
	dateStr := c.now().Format("20060102")
	prefix := "comp_" + dateStr

	ids, err := c.listIDs(ctx)
	if err != nil {
		return "", err
	}
	today := 0
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			today++
		}
	}
	return fmt.Sprintf("%s_%03d", prefix, today+1), nil
}

func (c *Comparisons) listIDs(ctx context.Context) ([]string, error) {
	data, err := c.store.Get(ctx, listKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load comparison list: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode comparison list: %w", err)
	}
	return ids, nil
}

func (c *Comparisons) addToList(ctx context.Context, id string) error {
	ids, err := c.listIDs(ctx)
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	ids = append(ids, id)
	return c.writeList(ctx, ids)
}

func (c *Comparisons) removeFromList(ctx context.Context, id string) error {
	ids, err := c.listIDs(ctx)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	return c.writeList(ctx, kept)
}

func (c *Comparisons) writeList(ctx context.Context, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode comparison list: %w", err)
	}
	return c.store.Set(ctx, listKey, data, 0)
}

func (c *Comparisons) putConfig(ctx context.Context, cfg models.ComparisonConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode comparison %s: %w", cfg.ID, err)
	}
	return c.store.Set(ctx, configPrefix+cfg.ID, data, 0)
}

func (c *Comparisons) saveHistory(ctx context.Context, rec models.ComparisonRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode history %s: %w", rec.ComparisonID, err)
	}
	key := historyPrefix + rec.ComparisonID + ":" + strconv.FormatInt(rec.Timestamp, 10)
	if err := c.store.Set(ctx, key, data, historyTTL); err != nil {
		return fmt.Errorf("persist history %s: %w", key, err)
	}
	return c.updateHistoryIndex(ctx, rec.ComparisonID, rec.Timestamp)
}

// updateHistoryIndex keeps a newest-first, bounded list of timestamps so
// the "most recent N" query never scans keys.
func (c *Comparisons) updateHistoryIndex(ctx context.Context, id string, timestamp int64) error {
	timestamps, err := c.historyIndex(ctx, id)
	if err != nil {
		return err
	}
	for _, ts := range timestamps {
		if ts == timestamp {
			return nil
		}
	}

	inserted := false
	updated := make([]int64, 0, len(timestamps)+1)
	for _, ts := range timestamps {
		if !inserted && timestamp > ts {
			updated = append(updated, timestamp)
			inserted = true
		}
		updated = append(updated, ts)
	}
	if !inserted {
		updated = append(updated, timestamp)
	}
	if len(updated) > historyIndexCap {
		updated = updated[:historyIndexCap]
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encode history index %s: %w", id, err)
	}
	return c.store.Set(ctx, indexPrefix+id, data, 0)
}

func (c *Comparisons) historyIndex(ctx context.Context, id string) ([]int64, error) {
	data, err := c.store.Get(ctx, indexPrefix+id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history index %s: %w", id, err)
	}
	var timestamps []int64
	if err := json.Unmarshal(data, &timestamps); err != nil {
		return nil, fmt.Errorf("decode history index %s: %w", id, err)
	}
	return timestamps, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func round2(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
