package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"pokerfinder/internal/adapters/feed"
	web "pokerfinder/internal/adapters/http"
	"pokerfinder/internal/adapters/http/perf"
	"pokerfinder/internal/adapters/storage"
	accountStore "pokerfinder/internal/adapters/storage/account"
	confirmationStore "pokerfinder/internal/adapters/storage/confirmation"
	favoriteStore "pokerfinder/internal/adapters/storage/favorite"
	listingStore "pokerfinder/internal/adapters/storage/listing"
	"pokerfinder/internal/application/orchestrators"
	"pokerfinder/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	level := slog.LevelInfo
	if !cfg.IsProduction() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	regions, err := config.LoadRegions(cfg.RegionsFile)
	if err != nil {
		log.Fatalf("failed to load regions: %v", err)
	}

	db, err := sql.Open("sqlite", storage.DSN(cfg.DBPath))
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(8)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery())

	stores := &web.Stores{
		AccountStore:      accountStore.NewSQLiteStore(timedDB),
		ListingStore:      listingStore.NewSQLiteStore(timedDB),
		FavoriteStore:     favoriteStore.NewSQLiteStore(timedDB),
		ConfirmationStore: confirmationStore.NewSQLiteStore(timedDB),
	}

	if cfg.AdminEmail != "" && cfg.AdminPass != "" {
		seedDeps := orchestrators.RegisterAccountDeps{
			AccountStore: stores.AccountStore,
			GenerateID:   uuid.NewString,
			Now:          time.Now,
		}
		if err := orchestrators.ExecuteSeedAdmin(context.Background(), seedDeps, cfg.AdminEmail, cfg.AdminPass); err != nil {
			log.Fatalf("failed to seed admin: %v", err)
		}
	}

	csrfKey, err := web.LoadCSRFKey(cfg.CSRFKey, cfg.IsProduction())
	if err != nil {
		log.Fatalf("csrf key: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	feedClient := feed.NewClient(nil)
	stopFeeds, err := orchestrators.StartFeedScheduler(ctx, cfg.RefreshCron, regions, orchestrators.RefreshFeedDeps{
		Feed:         feedClient,
		ListingStore: stores.ListingStore,
	})
	if err != nil {
		log.Fatalf("failed to schedule feed refresh: %v", err)
	}
	defer stopFeeds()

	handler := web.NewMux(stores, web.Options{
		Regions:     regions,
		Policy:      cfg.Policy(),
		Feed:        feedClient,
		Collector:   collector,
		CSRFKey:     csrfKey,
		Production:  cfg.IsProduction(),
		SlowRequest: cfg.SlowRequest(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown_error", "error", err.Error())
		}
	}()

	slog.Info("server_start", "version", version, "addr", cfg.Addr, "env", cfg.Env,
		"schema", storage.LatestSchemaVersion(), "regions", len(regions), "refresh_cron", cfg.RefreshCron)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	slog.Info("server_stopped")
}
