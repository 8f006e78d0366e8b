package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"store-monitor/comparison"
	"store-monitor/config"
	"store-monitor/differ"
	"store-monitor/fetcher"
	"store-monitor/models"
)

// Scraper walks a storefront's listing pages and accumulates records.
type Scraper interface {
	ScrapeAllPages(ctx context.Context, startURL string, maxPages int) []models.ListingRecord
}

// TargetSource lists the registered storefronts to process.
type TargetSource interface {
	List(ctx context.Context) ([]models.MonitorTarget, error)
}

// SnapshotStore persists per-storefront snapshots between cycles.
type SnapshotStore interface {
	Load(ctx context.Context, name string) ([]models.ListingRecord, error)
	Replace(ctx context.Context, name string, items []models.ListingRecord, changes models.ChangeSet) error
	LoadBackup(name string) []models.ListingRecord
}

// Notifier dispatches per-store change notifications.
type Notifier interface {
	NotifyNewListings(recipient, storeName string, items []models.ListingRecord) bool
	NotifyPriceChanges(recipient, storeName string, changes []models.PriceChange) bool
}

// ComparisonRunner checks all registered price comparisons.
type ComparisonRunner interface {
	PerformAll(ctx context.Context) comparison.RunResult
}

// Monitor drives one full monitoring cycle over every registered target.
// A failing target never aborts the run; its snapshot stays untouched and
// the cycle moves on.
type Monitor struct {
	targets     TargetSource
	scraper     Scraper
	snapshots   SnapshotStore
	notifier    Notifier
	comparisons ComparisonRunner
	cfg         config.ScraperConfig
}

func New(targets TargetSource, scraper Scraper, snapshots SnapshotStore, notifier Notifier, comparisons ComparisonRunner, cfg config.ScraperConfig) *Monitor {
	return &Monitor{
		targets:     targets,
		scraper:     scraper,
		snapshots:   snapshots,
		notifier:    notifier,
		comparisons: comparisons,
		cfg:         cfg,
	}
}

// RunCycle processes every active target sequentially with inter-target
// throttling, then runs all price comparisons. Always returns stats, even
// when cancelled midway.
func (m *Monitor) RunCycle(ctx context.Context) models.RunStats {
	stats := models.RunStats{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	defer func() {
		stats.Duration = time.Since(stats.StartedAt)
	}()

	log.Printf("Cycle %s starting\n", stats.RunID)

	targets, err := m.targets.List(ctx)
	if err != nil {
		log.Printf("Cycle %s: list targets: %v\n", stats.RunID, err)
		return stats
	}

	for i, target := range targets {
		if ctx.Err() != nil {
			log.Printf("Cycle %s cancelled after %d targets\n", stats.RunID, i)
			return stats
		}
		if target.Status != models.TargetActive {
			log.Printf("Skipping paused store %s\n", target.Name)
			continue
		}
		if i > 0 {
			if err := fetcher.SleepBetween(ctx, m.cfg.TargetDelayMin, m.cfg.TargetDelayMax); err != nil {
				return stats
			}
		}

		stats.TargetsProcessed++
		if err := m.processTarget(ctx, target, &stats); err != nil {
			stats.TargetsFailed++
			log.Printf("Store %s failed: %v\n", target.Name, err)
			continue
		}
		stats.TargetsSucceeded++
	}

	if m.comparisons != nil {
		result := m.comparisons.PerformAll(ctx)
		stats.ComparisonsChecked = result.Checked
		stats.ComparisonsFailed = result.Failed
		stats.NotificationsSent += result.NotificationsSent
	}

	log.Printf("Cycle %s done: %d/%d targets ok, %d new, %d price changes, %d removed\n",
		stats.RunID, stats.TargetsSucceeded, stats.TargetsProcessed,
		stats.NewListings, stats.PriceChanges, stats.RemovedListings)
	return stats
}

// processTarget runs the scrape-diff-notify pipeline for one storefront.
// Panics from any stage are contained here.
func (m *Monitor) processTarget(ctx context.Context, target models.MonitorTarget, stats *models.RunStats) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	items := m.scraper.ScrapeAllPages(ctx, target.URL, m.cfg.MaxPages)
	if len(items) == 0 {
		// A failed or empty scrape must not wipe the snapshot. Try the
		// file backup; without one the target counts as failed.
		items = m.snapshots.LoadBackup(target.Name)
		if len(items) == 0 {
			return fmt.Errorf("scrape returned no items and no backup exists")
		}
		log.Printf("Store %s: scrape empty, restored %d items from backup\n", target.Name, len(items))
	}

	previous, err := m.snapshots.Load(ctx, target.Name)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	changes := differ.Diff(previous, items)
	stats.NewListings += len(changes.NewListings)
	stats.PriceChanges += len(changes.PriceChanges)
	stats.RemovedListings += len(changes.RemovedListings)

	if err := m.snapshots.Replace(ctx, target.Name, items, changes); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	m.dispatch(target, changes, stats)
	return nil
}

func (m *Monitor) dispatch(target models.MonitorTarget, changes models.ChangeSet, stats *models.RunStats) {
	if m.notifier == nil || target.NotifyEmail == "" || changes.Empty() {
		return
	}

	hasBadged := false
	for _, item := range changes.NewListings {
		if item.IsNewListing {
			hasBadged = true
			break
		}
	}
	if hasBadged {
		if m.notifier.NotifyNewListings(target.NotifyEmail, target.Name, changes.NewListings) {
			stats.NotificationsSent++
		} else {
			stats.NotificationsFailed++
		}
	}

	if len(changes.PriceChanges) > 0 {
		if m.notifier.NotifyPriceChanges(target.NotifyEmail, target.Name, changes.PriceChanges) {
			stats.NotificationsSent++
		} else {
			stats.NotificationsFailed++
		}
	}
}
