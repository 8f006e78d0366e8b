package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"store-monitor/comparison"
	"store-monitor/config"
	"store-monitor/differ"
	"store-monitor/fetcher"
	"store-monitor/models"
	"store-monitor/monitor"
	"store-monitor/notify"
	"store-monitor/parser"
	"store-monitor/registry"
	"store-monitor/scheduler"
	"store-monitor/scraper"
	"store-monitor/store"
)

func main() {
	once := flag.Bool("once", false, "Run a single monitoring cycle and exit")
	daemon := flag.Bool("daemon", false, "Run monitoring cycles on a schedule")
	addStore := flag.String("add-store", "", "Register an eBay store URL for monitoring")
	email := flag.String("email", "", "Notification email for -add-store")
	removeStore := flag.String("remove-store", "", "Unregister a store by name and delete its data")
	listStores := flag.Bool("list-stores", false, "List registered stores")
	scrapeURL := flag.String("scrape", "", "Scrape one store URL and print the diff against its snapshot")
	profilePath := flag.String("profile", "", "Path to a site profile YAML file (optional)")
	myListing := flag.String("add-comparison", "", "Register a price comparison: your listing URL (requires -against)")
	against := flag.String("against", "", "Competitor listing URL for -add-comparison")
	threshold := flag.Float64("threshold", 5.0, "Price difference threshold in dollars for -add-comparison")
	removeComparison := flag.String("remove-comparison", "", "Delete a comparison by id")
	listComparisons := flag.Bool("list-comparisons", false, "List registered comparisons")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v\n", err)
	}

	profile := config.DefaultProfile()
	if *profilePath != "" {
		profile, err = config.LoadProfile(*profilePath)
		if err != nil {
			log.Fatalf("Failed to load site profile: %v\n", err)
		}
	}

	kv, err := openStore(cfg.Store)
	if err != nil {
		log.Fatalf("Failed to open store backend: %v\n", err)
	}
	defer kv.Close()

	reg := registry.New(kv)
	ctx := context.Background()

	switch {
	case *addStore != "":
		target, err := reg.Register(ctx, *addStore, *email)
		if err != nil {
			log.Fatalf("Failed to register store: %v\n", err)
		}
		fmt.Printf("Registered store %q (%s)\n", target.Name, target.URL)

	case *removeStore != "":
		if err := reg.Unregister(ctx, *removeStore); err != nil {
			log.Fatalf("Failed to unregister store: %v\n", err)
		}
		fmt.Printf("Removed store %q and its data\n", *removeStore)

	case *listStores:
		targets, err := reg.List(ctx)
		if err != nil {
			log.Fatalf("Failed to list stores: %v\n", err)
		}
		if len(targets) == 0 {
			fmt.Println("No stores registered.")
			return
		}
		for _, target := range targets {
			fmt.Printf("%-20s %-8s %s\n", target.Name, target.Status, target.URL)
		}

	case *myListing != "":
		if *against == "" {
			log.Fatalln("-add-comparison requires -against")
		}
		comparisons := buildComparisons(cfg, profile, kv)
		conditions := &models.NotifyConditions{Higher: true, Lower: true, Threshold: *threshold}
		compCfg, err := comparisons.Create(ctx, *myListing, *against, *email, "", conditions)
		if err != nil {
			log.Fatalf("Failed to create comparison: %v\n", err)
		}
		fmt.Printf("Created comparison %s (%s)\n", compCfg.ID, compCfg.Name)

	case *removeComparison != "":
		comparisons := buildComparisons(cfg, profile, kv)
		if err := comparisons.Delete(ctx, *removeComparison); err != nil {
			log.Fatalf("Failed to delete comparison: %v\n", err)
		}
		fmt.Printf("Removed comparison %s\n", *removeComparison)

	case *listComparisons:
		comparisons := buildComparisons(cfg, profile, kv)
		configs, err := comparisons.List(ctx)
		if err != nil {
			log.Fatalf("Failed to list comparisons: %v\n", err)
		}
		if len(configs) == 0 {
			fmt.Println("No comparisons registered.")
			return
		}
		for _, c := range configs {
			fmt.Printf("%-22s %-8s %s\n", c.ID, c.Status, c.Name)
		}

	case *scrapeURL != "":
		runSingleScrape(ctx, cfg, profile, kv, *scrapeURL)

	case *once:
		m := buildMonitor(cfg, profile, kv, reg)
		stats := m.RunCycle(signalContext())
		fmt.Printf("Cycle %s: %d/%d targets ok, %d new, %d price changes, %d removed, %d comparisons\n",
			stats.RunID, stats.TargetsSucceeded, stats.TargetsProcessed,
			stats.NewListings, stats.PriceChanges, stats.RemovedListings, stats.ComparisonsChecked)

	case *daemon:
		runDaemon(cfg, profile, kv, reg)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

// runSingleScrape scrapes one URL and prints the diff without persisting
// anything. Never exits non-zero on a failed fetch; an empty result is a
// printable outcome.
func runSingleScrape(ctx context.Context, cfg *config.Config, profile *config.SiteProfile, kv store.Store, url string) {
	chain := fetcher.NewChain(cfg.Scraper, profile)
	p := parser.NewParser(profile)
	s := scraper.New(chain, p, profile, cfg.Scraper)

	items := s.ScrapeAllRanges(ctx, url, cfg.Scraper.MaxPages, scraper.DefaultRangeStep)
	fmt.Printf("Scraped %d listings\n", len(items))
	if len(items) == 0 {
		return
	}

	name := registry.DeriveName(url)
	if name == "" {
		for i, item := range items {
			fmt.Printf("%d. %s - $%.2f\n", i+1, item.Title, item.Price)
		}
		return
	}

	snapshots := differ.NewSnapshots(kv, cfg.Scraper.BackupDir)
	previous, err := snapshots.Load(ctx, name)
	if err != nil {
		log.Printf("Could not load previous snapshot: %v\n", err)
		return
	}
	changes := differ.Diff(previous, items)
	fmt.Printf("Against snapshot %q: %d new, %d price changes, %d removed\n",
		name, len(changes.NewListings), len(changes.PriceChanges), len(changes.RemovedListings))
}

func runDaemon(cfg *config.Config, profile *config.SiteProfile, kv store.Store, reg *registry.Registry) {
	if cfg.Telegram.Token != "" {
		notifyStartup(cfg.Telegram)
	}

	m := buildMonitor(cfg, profile, kv, reg)
	sched := scheduler.NewScheduler(m, cfg.Scheduler)
	sched.Start()
	log.Printf("Monitor daemon started, interval %s\n", cfg.Scheduler.Interval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down")
	sched.Stop()
}

func buildMonitor(cfg *config.Config, profile *config.SiteProfile, kv store.Store, reg *registry.Registry) *monitor.Monitor {
	chain := fetcher.NewChain(cfg.Scraper, profile)
	p := parser.NewParser(profile)
	s := scraper.New(chain, p, profile, cfg.Scraper)
	snapshots := differ.NewSnapshots(kv, cfg.Scraper.BackupDir)

	// Typed-nil dispatchers must not leak into the interfaces, or the
	// nil checks downstream stop working.
	var storeNotifier monitor.Notifier
	var comparisonNotifier comparison.Notifier
	if sender := buildSender(cfg); sender != nil {
		dispatcher := notify.NewDispatcher(sender)
		storeNotifier = dispatcher
		comparisonNotifier = dispatcher
	}

	lookup := comparison.NewLookup(chain)
	comparisons := comparison.New(kv, lookup, comparisonNotifier,
		cfg.Scraper.TargetDelayMin, cfg.Scraper.TargetDelayMax)

	return monitor.New(reg, s, snapshots, storeNotifier, comparisons, cfg.Scraper)
}

// buildComparisons wires the comparison store for the management flags.
// No notifier: registration and deletion never send mail.
func buildComparisons(cfg *config.Config, profile *config.SiteProfile, kv store.Store) *comparison.Comparisons {
	chain := fetcher.NewChain(cfg.Scraper, profile)
	lookup := comparison.NewLookup(chain)
	return comparison.New(kv, lookup, nil, 0, 0)
}

// buildSender picks the notification transport: SMTP when configured,
// Telegram as the fallback channel, nil when neither is set up.
func buildSender(cfg *config.Config) notify.Sender {
	if cfg.Mail.Username != "" {
		return notify.NewEmailSender(cfg.Mail)
	}
	if cfg.Telegram.Token != "" {
		sender, err := notify.NewTelegramSender(cfg.Telegram)
		if err != nil {
			log.Printf("Telegram sender unavailable: %v\n", err)
			return nil
		}
		return sender
	}
	log.Println("No notification channel configured, running silent")
	return nil
}

func notifyStartup(cfg config.TelegramConfig) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		log.Printf("Warning: Failed to initialize Telegram bot: %v\n", err)
		return
	}
	if _, err := bot.Send(tgbotapi.NewMessage(cfg.ChatID, "Store monitor started")); err != nil {
		log.Printf("Warning: Failed to send startup notification: %v\n", err)
	}
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "redis":
		return store.NewRedisStore(cfg)
	case "postgres":
		return store.NewPostgresStore(cfg.PostgresDSN)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
	return ctx
}
