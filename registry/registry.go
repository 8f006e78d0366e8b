package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"store-monitor/models"
	"store-monitor/store"
)

const targetPrefix = "monitor:store:"

var (
	// ErrInvalidURL is returned when the URL does not look like an eBay
	// storefront address.
	ErrInvalidURL = errors.New("not a valid eBay store URL")

	// ErrInvalidEmail is returned when the subscriber address fails the
	// format check.
	ErrInvalidEmail = errors.New("not a valid email address")

	// ErrNotRegistered is returned for operations on an unknown target.
	ErrNotRegistered = errors.New("store is not registered")

	storeURLPattern = regexp.MustCompile(`^https?://(www\.)?ebay\.com/.*`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
)

// Registry owns the set of registered monitor targets. The pipeline only
// reads targets; all writes go through here.
type Registry struct {
	store store.Store
	now   func() time.Time
}

func New(kv store.Store) *Registry {
	return &Registry{store: kv, now: time.Now}
}

// Register validates and stores a new monitor target. The store name is
// derived from the URL's store_name or _ssn query parameter; when neither
// is present a timestamped name is generated.
func (r *Registry) Register(ctx context.Context, storeURL, notifyEmail string) (models.MonitorTarget, error) {
	if !storeURLPattern.MatchString(storeURL) {
		return models.MonitorTarget{}, ErrInvalidURL
	}
	if notifyEmail != "" && !emailPattern.MatchString(notifyEmail) {
		return models.MonitorTarget{}, ErrInvalidEmail
	}

	name := DeriveName(storeURL)
	if name == "" {
		name = fmt.Sprintf("store_%d", r.now().Unix())
	}

	target := models.MonitorTarget{
		Name:        name,
		URL:         storeURL,
		NotifyEmail: notifyEmail,
		AddedAt:     r.now().Unix(),
		Status:      models.TargetActive,
	}
	if err := r.put(ctx, target); err != nil {
		return models.MonitorTarget{}, err
	}
	return target, nil
}

// Get returns one registered target. ErrNotRegistered when missing.
func (r *Registry) Get(ctx context.Context, name string) (models.MonitorTarget, error) {
	data, err := r.store.Get(ctx, targetPrefix+name)
	if errors.Is(err, store.ErrNotFound) {
		return models.MonitorTarget{}, ErrNotRegistered
	}
	if err != nil {
		return models.MonitorTarget{}, fmt.Errorf("load target %s: %w", name, err)
	}
	var target models.MonitorTarget
	if err := json.Unmarshal(data, &target); err != nil {
		return models.MonitorTarget{}, fmt.Errorf("decode target %s: %w", name, err)
	}
	return target, nil
}

// List returns all registered targets sorted by name. Corrupt entries are
// logged and skipped.
func (r *Registry) List(ctx context.Context) ([]models.MonitorTarget, error) {
	keys, err := r.store.Keys(ctx, targetPrefix)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	sort.Strings(keys)

	targets := make([]models.MonitorTarget, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var target models.MonitorTarget
		if err := json.Unmarshal(data, &target); err != nil {
			log.Printf("Skipping corrupt target record %s: %v\n", key, err)
			continue
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// SetStatus pauses or resumes a target.
func (r *Registry) SetStatus(ctx context.Context, name string, status models.TargetStatus) error {
	target, err := r.Get(ctx, name)
	if err != nil {
		return err
	}
	target.Status = status
	return r.put(ctx, target)
}

// Unregister removes a target and all of its persisted storefront data.
func (r *Registry) Unregister(ctx context.Context, name string) error {
	if _, err := r.Get(ctx, name); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, targetPrefix+name); err != nil {
		return fmt.Errorf("delete target %s: %w", name, err)
	}

	dataKeys, err := r.store.Keys(ctx, "store:"+name+":")
	if err != nil {
		return fmt.Errorf("list data keys for %s: %w", name, err)
	}
	for _, key := range dataKeys {
		if err := r.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

func (r *Registry) put(ctx context.Context, target models.MonitorTarget) error {
	data, err := json.Marshal(target)
	if err != nil {
		return fmt.Errorf("encode target %s: %w", target.Name, err)
	}
	if err := r.store.Set(ctx, targetPrefix+target.Name, data, 0); err != nil {
		return fmt.Errorf("persist target %s: %w", target.Name, err)
	}
	return nil
}

// DeriveName extracts the storefront name from the URL's store_name or
// _ssn query parameter. Empty when neither is present.
func DeriveName(storeURL string) string {
	u, err := url.Parse(storeURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	if name := q.Get("store_name"); name != "" {
		return name
	}
	if name := q.Get("_ssn"); name != "" {
		return name
	}
	// Store pages of the /str/<name> form carry the name in the path.
	if i := strings.Index(u.Path, "/str/"); i >= 0 {
		rest := strings.Trim(u.Path[i+len("/str/"):], "/")
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			rest = rest[:j]
		}
		return rest
	}
	return ""
}
