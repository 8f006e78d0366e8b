package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment
// variables. Components receive the section they need at construction
// time; nothing reads the environment ad hoc.
type Config struct {
	Store     StoreConfig
	Mail      MailConfig
	Telegram  TelegramConfig
	Scraper   ScraperConfig
	Scheduler SchedulerConfig
}

// StoreConfig selects and configures the key-value store backend.
type StoreConfig struct {
	Backend string `envconfig:"STORE_BACKEND" default:"redis"` // redis, postgres or memory

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
}

// MailConfig holds SMTP settings for the email notification channel.
type MailConfig struct {
	Server   string `envconfig:"MAIL_SERVER" default:"smtp.gmail.com"`
	Port     int    `envconfig:"MAIL_PORT" default:"587"`
	Username string `envconfig:"MAIL_USERNAME" default:""`
	Password string `envconfig:"MAIL_PASSWORD" default:""`
	Sender   string `envconfig:"MAIL_DEFAULT_SENDER" default:""`
}

// TelegramConfig holds the optional telegram notification channel.
type TelegramConfig struct {
	Token  string `envconfig:"TELEGRAM_BOT_TOKEN" default:""`
	ChatID int64  `envconfig:"TELEGRAM_CHAT_ID" default:"0"`
}

// ScraperConfig tunes the fetcher and paginator. Every delay can be
// zeroed, which tests rely on.
type ScraperConfig struct {
	MaxRetries int `envconfig:"SCRAPER_MAX_RETRIES" default:"3"`
	MaxPages   int `envconfig:"SCRAPER_MAX_PAGES" default:"5"`

	Timeout time.Duration `envconfig:"SCRAPER_TIMEOUT" default:"30s"`

	// Pre-request delay window for the curl strategy.
	CurlDelayMin time.Duration `envconfig:"SCRAPER_CURL_DELAY_MIN" default:"5s"`
	CurlDelayMax time.Duration `envconfig:"SCRAPER_CURL_DELAY_MAX" default:"10s"`

	// Pre-request delay window for the in-process HTTP strategy.
	HTTPDelayMin time.Duration `envconfig:"SCRAPER_HTTP_DELAY_MIN" default:"10s"`
	HTTPDelayMax time.Duration `envconfig:"SCRAPER_HTTP_DELAY_MAX" default:"20s"`

	// Delay window between listing pages of one storefront.
	PageDelayMin time.Duration `envconfig:"SCRAPER_PAGE_DELAY_MIN" default:"2s"`
	PageDelayMax time.Duration `envconfig:"SCRAPER_PAGE_DELAY_MAX" default:"5s"`

	// Delay window between targets in one cycle.
	TargetDelayMin time.Duration `envconfig:"SCRAPER_TARGET_DELAY_MIN" default:"15s"`
	TargetDelayMax time.Duration `envconfig:"SCRAPER_TARGET_DELAY_MAX" default:"30s"`

	// UseBrowser enables the rod headless-browser fallback strategy.
	UseBrowser bool `envconfig:"SCRAPER_USE_BROWSER" default:"false"`

	// TraceDir, when set, dumps fetched HTML there for inspection.
	TraceDir string `envconfig:"SCRAPER_TRACE_DIR" default:""`

	// BackupDir holds last-known-good snapshots used as a fallback when
	// a scrape comes back empty.
	BackupDir string `envconfig:"SCRAPER_BACKUP_DIR" default:"backups"`
}

// SchedulerConfig controls the periodic cycle runner.
type SchedulerConfig struct {
	Interval   time.Duration `envconfig:"SCHEDULE_INTERVAL" default:"3h"`
	Jitter     time.Duration `envconfig:"SCHEDULE_JITTER" default:"15m"`
	RunOnStart bool          `envconfig:"SCHEDULE_RUN_ON_START" default:"true"`
}

// RedisAddress returns the redis address in host:port format.
func (s *StoreConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", s.RedisHost, s.RedisPort)
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// TestScraperConfig returns a scraper config with all delays zeroed and a
// single attempt per strategy, for deterministic tests.
func TestScraperConfig() ScraperConfig {
	return ScraperConfig{
		MaxRetries: 1,
		MaxPages:   2,
		Timeout:    5 * time.Second,
	}
}
