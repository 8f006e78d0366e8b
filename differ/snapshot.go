package differ

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"store-monitor/models"
	"store-monitor/store"
)

// Snapshots persists per-storefront snapshots, timestamps and cycle
// stats in the key-value store, with a JSON file backup used as a
// fallback when a scrape comes back empty.
type Snapshots struct {
	store     store.Store
	backupDir string
}

// NewSnapshots creates a snapshot store. backupDir may be empty to
// disable file backups.
func NewSnapshots(kv store.Store, backupDir string) *Snapshots {
	return &Snapshots{store: kv, backupDir: backupDir}
}

func itemsKey(name string) string      { return "store:" + name + ":items" }
func lastUpdateKey(name string) string { return "store:" + name + ":last_update" }
func statsKey(name string) string      { return "store:" + name + ":stats" }

// Load returns the persisted snapshot for a storefront, or an empty
// slice when none exists yet.
func (s *Snapshots) Load(ctx context.Context, name string) ([]models.ListingRecord, error) {
	data, err := s.store.Get(ctx, itemsKey(name))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", name, err)
	}

	var items []models.ListingRecord
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return items, nil
}

// Replace overwrites the snapshot wholesale and records the cycle
// timestamp and summary counts. Callers must only invoke this after a
// successful scrape; a failed cycle keeps the previous snapshot.
func (s *Snapshots) Replace(ctx context.Context, name string, items []models.ListingRecord, changes models.ChangeSet) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", name, err)
	}

	now := time.Now().Unix()
	if err := s.store.Set(ctx, itemsKey(name), data, 0); err != nil {
		return fmt.Errorf("persist snapshot %s: %w", name, err)
	}
	if err := s.store.Set(ctx, lastUpdateKey(name), []byte(strconv.FormatInt(now, 10)), 0); err != nil {
		return fmt.Errorf("persist last_update %s: %w", name, err)
	}

	stats := models.StoreStats{
		TotalItems:   len(items),
		NewItems:     len(changes.NewListings),
		PriceChanges: len(changes.PriceChanges),
		RemovedItems: len(changes.RemovedListings),
		UpdateTime:   now,
	}
	statsData, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats %s: %w", name, err)
	}
	if err := s.store.Set(ctx, statsKey(name), statsData, 0); err != nil {
		return fmt.Errorf("persist stats %s: %w", name, err)
	}

	s.writeBackup(name, data)
	return nil
}

// LoadBackup reads the last-known-good snapshot from the backup file.
// Returns nil with no error when no backup exists.
func (s *Snapshots) LoadBackup(name string) []models.ListingRecord {
	if s.backupDir == "" {
		return nil
	}
	data, err := os.ReadFile(s.backupPath(name))
	if err != nil {
		return nil
	}
	var items []models.ListingRecord
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("Corrupt backup for %s: %v\n", name, err)
		return nil
	}
	return items
}

// Delete removes all persisted state for a storefront.
func (s *Snapshots) Delete(ctx context.Context, name string) error {
	keys, err := s.store.Keys(ctx, "store:"+name+":")
	if err != nil {
		return fmt.Errorf("list keys for %s: %w", name, err)
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	if s.backupDir != "" {
		_ = os.Remove(s.backupPath(name))
	}
	return nil
}

func (s *Snapshots) backupPath(name string) string {
	return filepath.Join(s.backupDir, "backup_"+name+"_items.json")
}

func (s *Snapshots) writeBackup(name string, data []byte) {
	if s.backupDir == "" {
		return
	}
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		log.Printf("Backup dir unavailable: %v\n", err)
		return
	}
	if err := os.WriteFile(s.backupPath(name), data, 0o644); err != nil {
		log.Printf("Failed to write backup for %s: %v\n", name, err)
	}
}
