package comparison

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"store-monitor/models"
	"store-monitor/store"
)

type stubLookup struct {
	points map[string]models.PricePoint
	err    error
}

func (s *stubLookup) Lookup(_ context.Context, url string) (models.PricePoint, error) {
	if s.err != nil {
		return models.PricePoint{}, s.err
	}
	point, ok := s.points[url]
	if !ok {
		return models.PricePoint{}, errors.New("no such listing")
	}
	return point, nil
}

type stubNotifier struct {
	calls []models.ComparisonRecord
	sent  bool
}

func (s *stubNotifier) NotifyComparison(_ string, _ models.ComparisonConfig, rec models.ComparisonRecord) bool {
	s.calls = append(s.calls, rec)
	return s.sent
}

const (
	myURL   = "https://www.ebay.com/itm/1112223334445"
	rivalURL = "https://www.ebay.com/itm/5556667778889"
)

func newComparisons(lookup ListingLookup, notifier Notifier) (*Comparisons, store.Store) {
	kv := store.NewMemoryStore()
	c := New(kv, lookup, notifier, 0, 0)
	return c, kv
}

func TestExtractItemID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.ebay.com/itm/123456789012", "123456789012"},
		{"https://www.ebay.com/itm/123456789012?var=0", "123456789012"},
		{"https://www.ebay.com/p/9876543210", "9876543210"},
		{"https://www.ebay.com/ws/eBayISAPI.dll?ViewItem&item=1234567890", "1234567890"},
		{"https://www.ebay.co.uk/x/112233445566", "112233445566"},
		{"https://www.ebay.com/sch/i.html?_nkw=widget", ""},
	}
	for _, tt := range tests {
		if got := ExtractItemID(tt.url); got != tt.want {
			t.Errorf("ExtractItemID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestValidateListingURL(t *testing.T) {
	if !ValidateListingURL("https://www.ebay.com/itm/123456789012") {
		t.Error("standard item URL should validate")
	}
	if !ValidateListingURL("https://www.ebay.co.uk/itm/123456789012") {
		t.Error("uk domain should validate")
	}
	if ValidateListingURL("https://example.com/itm/123456789012") {
		t.Error("non-ebay domain must not validate")
	}
	if ValidateListingURL("https://www.ebay.com/sch/i.html?_nkw=widget") {
		t.Error("URL without item id must not validate")
	}
	if ValidateListingURL("ftp://ebay.com/itm/123456789012") {
		t.Error("non-http scheme must not validate")
	}
}

func TestCreateAssignsDailySequence(t *testing.T) {
	lookup := &stubLookup{points: map[string]models.PricePoint{
		myURL:   {Title: "My Widget", Current: 100},
		rivalURL: {Title: "Rival Widget", Current: 110},
	}}
	c, _ := newComparisons(lookup, nil)
	fixed := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }
	ctx := context.Background()

	first, err := c.Create(ctx, myURL, rivalURL, "a@example.com", "", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.ID != "comp_20260314_001" {
		t.Errorf("first id = %q, want comp_20260314_001", first.ID)
	}
	if first.MyListing.Title != "My Widget" {
		t.Errorf("my title = %q, want resolved title", first.MyListing.Title)
	}
	if first.Name != "My Widget vs Rival Widget" {
		t.Errorf("derived name = %q", first.Name)
	}
	if first.MyListing.ItemID != "1112223334445" {
		t.Errorf("item id = %q", first.MyListing.ItemID)
	}
	if !first.NotifyConditions.Higher || !first.NotifyConditions.Lower || first.NotifyConditions.Threshold != 5 {
		t.Errorf("default conditions = %+v", first.NotifyConditions)
	}

	second, err := c.Create(ctx, myURL, rivalURL, "a@example.com", "named", nil)
	if err != nil {
		t.Fatalf("Create second: %v", err)
	}
	if second.ID != "comp_20260314_002" {
		t.Errorf("second id = %q, want comp_20260314_002", second.ID)
	}

	configs, err := c.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("got %d configs, want 2", len(configs))
	}
}

func TestCreateRejectsBadURLs(t *testing.T) {
	c, _ := newComparisons(&stubLookup{}, nil)
	if _, err := c.Create(context.Background(), "https://example.com/x", rivalURL, "", "", nil); !errors.Is(err, ErrInvalidListingURL) {
		t.Errorf("got %v, want ErrInvalidListingURL", err)
	}
}

func TestCreateSurvivesLookupFailure(t *testing.T) {
	c, _ := newComparisons(&stubLookup{err: errors.New("blocked")}, nil)
	cfg, err := c.Create(context.Background(), myURL, rivalURL, "", "", nil)
	if err != nil {
		t.Fatalf("Create with failing lookup: %v", err)
	}
	if cfg.MyListing.Title == "" {
		t.Error("expected a placeholder title")
	}
}

func TestBuildRecord(t *testing.T) {
	tests := []struct {
		name       string
		my, rival  float64
		threshold  float64
		wantStatus models.ComparisonStatus
		wantExceed bool
		wantDiff   float64
	}{
		{"competitor higher past threshold", 100, 110, 5, models.CompetitorHigher, true, 10},
		{"competitor lower past threshold", 100, 90, 5, models.CompetitorLower, true, -10},
		{"within threshold", 100, 102, 5, models.CompetitorHigher, false, 2},
		{"sub-cent difference is equal", 100, 100.004, 5, models.CompetitorEqual, false, 0},
		{"zero my price is unknown", 0, 90, 5, models.CompetitorUnknown, false, 0},
		{"zero competitor price is unknown", 100, 0, 5, models.CompetitorUnknown, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := BuildRecord("comp_x", models.PricePoint{Current: tt.my}, models.PricePoint{Current: tt.rival}, tt.threshold, 1700000000)
			if rec.Result.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", rec.Result.Status, tt.wantStatus)
			}
			if rec.Result.ThresholdExceeded != tt.wantExceed {
				t.Errorf("threshold_exceeded = %v, want %v", rec.Result.ThresholdExceeded, tt.wantExceed)
			}
			if rec.Result.Difference != tt.wantDiff {
				t.Errorf("difference = %v, want %v", rec.Result.Difference, tt.wantDiff)
			}
		})
	}
}

func TestBuildRecordPercentage(t *testing.T) {
	rec := BuildRecord("comp_x", models.PricePoint{Current: 100}, models.PricePoint{Current: 90}, 5, 1700000000)
	if rec.Result.Percentage != -10 {
		t.Errorf("percentage = %v, want -10", rec.Result.Percentage)
	}
}

func TestPerformRecordsHistoryAndNotifies(t *testing.T) {
	lookup := &stubLookup{points: map[string]models.PricePoint{
		myURL:   {Title: "Mine", Current: 100, Currency: "USD", Status: models.StatusActive},
		rivalURL: {Title: "Rival", Current: 120, Currency: "USD", Status: models.StatusActive},
	}}
	notifier := &stubNotifier{sent: true}
	c, _ := newComparisons(lookup, notifier)
	ctx := context.Background()

	cfg, err := c.Create(ctx, myURL, rivalURL, "seller@example.com", "", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec, ok := c.Perform(ctx, cfg.ID)
	if !ok {
		t.Fatal("Perform failed")
	}
	if rec.Result.Status != models.CompetitorHigher {
		t.Errorf("status = %q", rec.Result.Status)
	}
	if !rec.NotificationSent {
		t.Error("notification_sent should be true")
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("notifier called %d times, want 1", len(notifier.calls))
	}

	latest, err := c.Latest(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Result.Difference != 20 {
		t.Errorf("persisted difference = %v, want 20", latest.Result.Difference)
	}

	updated, err := c.Get(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if updated.LastCheck == 0 {
		t.Error("last_check not updated")
	}
}

func TestPerformSkipsPaused(t *testing.T) {
	lookup := &stubLookup{points: map[string]models.PricePoint{
		myURL: {Current: 100}, rivalURL: {Current: 110},
	}}
	c, kv := newComparisons(lookup, nil)
	ctx := context.Background()

	cfg, err := c.Create(ctx, myURL, rivalURL, "", "", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cfg.Status = models.TargetPaused
	if err := c.putConfig(ctx, cfg); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Perform(ctx, cfg.ID); ok {
		t.Error("paused comparison must not run")
	}
	keys, err := kv.Keys(ctx, historyPrefix)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("history written for paused config: %v", keys)
	}
}

func TestPerformFetchFailureLeavesNoRecord(t *testing.T) {
	c, kv := newComparisons(&stubLookup{err: errors.New("blocked")}, nil)
	ctx := context.Background()

	cfg, err := c.Create(ctx, myURL, rivalURL, "", "", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := c.Perform(ctx, cfg.ID); ok {
		t.Error("fetch failure must not produce a record")
	}
	keys, err := kv.Keys(ctx, historyPrefix)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 0 {
		t.Errorf("history keys written on failure: %v", keys)
	}
}

func TestHistoryIndexNewestFirstAndBounded(t *testing.T) {
	c, _ := newComparisons(&stubLookup{}, nil)
	ctx := context.Background()
	id := "comp_20260314_001"

	base := int64(1700000000)
	for i := 0; i < historyIndexCap+10; i++ {
		rec := models.ComparisonRecord{
			Timestamp:    base + int64(i),
			ComparisonID: id,
			CheckStatus:  "success",
		}
		if err := c.saveHistory(ctx, rec); err != nil {
			t.Fatalf("saveHistory %d: %v", i, err)
		}
	}

	timestamps, err := c.historyIndex(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(timestamps) != historyIndexCap {
		t.Fatalf("index holds %d entries, want %d", len(timestamps), historyIndexCap)
	}
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i-1] <= timestamps[i] {
			t.Fatalf("index not newest-first at %d: %d <= %d", i, timestamps[i-1], timestamps[i])
		}
	}
	if timestamps[0] != base+int64(historyIndexCap+9) {
		t.Errorf("newest entry = %d, want %d", timestamps[0], base+int64(historyIndexCap+9))
	}

	records, err := c.History(ctx, id, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 5 {
		t.Fatalf("History(5) returned %d records", len(records))
	}
	if records[0].Timestamp != timestamps[0] {
		t.Errorf("History order mismatch: %d vs %d", records[0].Timestamp, timestamps[0])
	}
}

func TestDeleteRemovesEverything(t *testing.T) {
	lookup := &stubLookup{points: map[string]models.PricePoint{
		myURL: {Current: 100}, rivalURL: {Current: 120},
	}}
	c, kv := newComparisons(lookup, nil)
	ctx := context.Background()

	cfg, err := c.Create(ctx, myURL, rivalURL, "", "", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok := c.Perform(ctx, cfg.ID); !ok {
		t.Fatal("Perform failed")
	}

	if err := c.Delete(ctx, cfg.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, cfg.ID); !errors.Is(err, ErrComparisonNotFound) {
		t.Errorf("config should be gone, got %v", err)
	}
	for _, prefix := range []string{configPrefix + cfg.ID, historyPrefix + cfg.ID, indexPrefix + cfg.ID} {
		keys, err := kv.Keys(ctx, prefix)
		if err != nil {
			t.Fatal(err)
		}
		if len(keys) != 0 {
			t.Errorf("keys remain under %s: %v", prefix, keys)
		}
	}
	configs, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 0 {
		t.Errorf("list still holds %d configs", len(configs))
	}
}

func TestPerformAll(t *testing.T) {
	lookup := &stubLookup{points: map[string]models.PricePoint{
		myURL:   {Current: 100},
		rivalURL: {Current: 120},
	}}
	notifier := &stubNotifier{sent: true}
	c, _ := newComparisons(lookup, notifier)
	ctx := context.Background()

	active, err := c.Create(ctx, myURL, rivalURL, "a@example.com", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = active
	paused, err := c.Create(ctx, myURL, rivalURL, "a@example.com", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	paused.Status = models.TargetPaused
	if err := c.putConfig(ctx, paused); err != nil {
		t.Fatal(err)
	}

	result := c.PerformAll(ctx)
	if result.Checked != 1 {
		t.Errorf("checked = %d, want 1", result.Checked)
	}
	if result.Failed != 0 {
		t.Errorf("failed = %d, want 0", result.Failed)
	}
	if result.NotificationsSent != 1 {
		t.Errorf("notifications = %d, want 1", result.NotificationsSent)
	}
}

func TestHistoryTTLSet(t *testing.T) {
	c, kv := newComparisons(&stubLookup{}, nil)
	ctx := context.Background()

	rec := models.ComparisonRecord{Timestamp: 1700000000, ComparisonID: "comp_x", CheckStatus: "success"}
	if err := c.saveHistory(ctx, rec); err != nil {
		t.Fatal(err)
	}
	key := historyPrefix + "comp_x:" + strconv.FormatInt(rec.Timestamp, 10)
	if _, err := kv.Get(ctx, key); err != nil {
		t.Fatalf("history record missing: %v", err)
	}
}
