package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/savegress/staysync/internal/api"
	"github.com/savegress/staysync/internal/cache"
	"github.com/savegress/staysync/internal/config"
	"github.com/savegress/staysync/internal/engine"
	"github.com/savegress/staysync/internal/normalize"
	"github.com/savegress/staysync/internal/notify"
	"github.com/savegress/staysync/internal/report"
	"github.com/savegress/staysync/internal/scheduler"
	"github.com/savegress/staysync/internal/sources"
	"github.com/savegress/staysync/internal/specialty"
)

func main() {
	log.Println("Starting StaySync...")

	// Load configuration
	cfg := loadConfig()

	// Normalization and specialty mapping
	normalizer := normalize.New(cfg.Engine.Boilerplate)
	resolver, degraded := loadResolver(cfg, normalizer)

	// Reconciliation engine
	rules := engine.DefaultRules()
	if cfg.Engine.ValidationWindowDays > 0 {
		rules.ValidationWindowDays = cfg.Engine.ValidationWindowDays
	}
	if cfg.Engine.CreationLookbackDays > 0 {
		rules.CreationLookbackDays = cfg.Engine.CreationLookbackDays
	}
	if cfg.Engine.EligibilityThreshold != nil {
		rules.EligibilityThreshold = *cfg.Engine.EligibilityThreshold
	}
	eng := engine.New(rules, normalizer, resolver)

	// Data sources
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stays, docs, closeSources := loadSources(ctx, cfg)
	defer closeSources()

	// Report cache
	reportCache, err := cache.New(&cache.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Enabled:  cfg.Redis.Enabled,
	})
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer reportCache.Close()

	// Report service
	svc := report.NewService(stays, docs, eng, report.NewGenerator(), reportCache, degraded)

	// Monthly scheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(svc, buildNotifiers(cfg), cfg.Scheduler.DayOfMonth)
		sched.Start()
		log.Printf("Monthly scheduler enabled (day %d)", cfg.Scheduler.DayOfMonth)
	}

	// Create API server
	server := api.NewServer(cfg, svc)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("StaySync API listening on port %d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down StaySync...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if sched != nil {
		sched.Stop()
	}

	log.Println("StaySync stopped")
}

func loadConfig() *config.Config {
	configPath := os.Getenv("STAYSYNC_CONFIG")
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Printf("Failed to load config from %s: %v, using defaults", configPath, err)
			return config.LoadFromEnv()
		}
		return cfg
	}
	return config.LoadFromEnv()
}

// loadResolver loads the specialty mapping. A missing or unreadable mapping
// degrades the service instead of stopping it: the engine still runs but
// classifies every stay unmatched.
func loadResolver(cfg *config.Config, n *normalize.Normalizer) (*specialty.Resolver, bool) {
	if cfg.Mapping.Path == "" {
		log.Println("No specialty mapping configured, running degraded")
		return specialty.NewDegradedResolver(), true
	}

	mapping, err := specialty.LoadMapping(cfg.Mapping.Path, cfg.Mapping.SeparatorRune(), n)
	if err != nil {
		log.Printf("Failed to load specialty mapping from %s: %v, running degraded", cfg.Mapping.Path, err)
		return specialty.NewDegradedResolver(), true
	}

	log.Printf("Loaded %d specialty mapping entries", mapping.Len())
	return specialty.NewResolver(mapping), false
}

// loadSources connects the warehouse adapters, falls back to an embedded
// SQLite extract when one is configured, and serves empty in-memory sources
// otherwise.
func loadSources(ctx context.Context, cfg *config.Config) (sources.StaySource, sources.DocumentSource, func()) {
	if cfg.Database.URL != "" {
		db, err := sources.Connect(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		log.Println("Connected to warehouse")
		return sources.NewPostgresStaySource(db, cfg.Database.ExcludedUnits), sources.NewPostgresDocumentSource(db), db.Close
	}

	if cfg.Database.EmbeddedPath != "" {
		store, err := sources.OpenEmbedded(cfg.Database.EmbeddedPath, cfg.Database.ExcludedUnits)
		if err != nil {
			log.Fatalf("Failed to open embedded extract: %v", err)
		}
		log.Printf("Serving embedded extract from %s", cfg.Database.EmbeddedPath)
		return store, store, func() { store.Close() }
	}

	log.Println("No database configured, serving empty in-memory sources")
	return sources.NewMemoryStaySource(nil), sources.NewMemoryDocumentSource(nil), func() {}
}

func buildNotifiers(cfg *config.Config) []notify.Notifier {
	if cfg.Notify.WebhookURL == "" {
		return []notify.Notifier{notify.NewConsoleNotifier()}
	}
	return []notify.Notifier{
		notify.NewWebhookNotifier(cfg.Notify.WebhookURL),
		notify.NewConsoleNotifier(),
	}
}
