package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emogo/emogo/app/api"
	"github.com/emogo/emogo/app/cfg"
	"github.com/emogo/emogo/app/database"
	"github.com/emogo/emogo/app/export"
	"github.com/emogo/emogo/app/feed"
	"github.com/emogo/emogo/app/home"
	"github.com/emogo/emogo/app/journal"
	"github.com/emogo/emogo/app/location"
	"github.com/emogo/emogo/app/notify"
	"github.com/emogo/emogo/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// help was shown
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting EmoGo", "version", appCfg.Version, "timezone", time.Local.String())

	db, err := database.Open(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Initialize(context.Background()); err != nil {
		slog.Error("Failed to initialize database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", db.Path())

	surveyRepo := database.NewSurveyRepository(db)
	vlogRepo := database.NewVlogRepository(db)

	exporter := export.NewExporter(surveyRepo, vlogRepo, appCfg.ExportDir, export.NewCommandSharer(appCfg.ShareCommand)).
		WithMediaDir(appCfg.MediaDir)

	if appCfg.Export != "" {
		if err := runExport(context.Background(), exporter, appCfg.Export); err != nil {
			slog.Error("Export failed", "format", appCfg.Export, "error", err)
			os.Exit(1)
		}
		return
	}

	recorder := journal.NewRecorder(surveyRepo, vlogRepo, newLocationProvider(appCfg), appCfg.MediaDir)

	content := notify.DefaultContent
	if appCfg.RemindersFile != "" {
		content, err = notify.LoadContent(appCfg.RemindersFile)
		if err != nil {
			slog.Error("Failed to load reminders file", "path", appCfg.RemindersFile, "error", err)
			os.Exit(1)
		}
	}

	inbox := notify.NewInbox(0)
	reminders := notify.NewScheduler(content, inbox)
	defer reminders.CancelAll()

	if appCfg.Reminders {
		if _, err := reminders.ScheduleDailyPrompts(context.Background()); err != nil {
			slog.Error("Failed to schedule reminders", "error", err)
		}
	}

	router := notify.NewRouter(notify.NavigatorFunc(func(screen string) {
		slog.Info("Opening screen from notification", "screen", screen)
	}))

	aggregator := home.NewAggregator(surveyRepo, vlogRepo)
	statsCache := home.NewStatsCache()

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "stats_interval", appCfg.StatsInterval)
	scheduler := tasks.NewScheduler(aggregator, statsCache,
		time.Duration(appCfg.StatsInterval)*time.Second, appCfg.WorkerCount)
	scheduler.Start()

	handler := api.NewHandler(api.Dependencies{
		Surveys:    surveyRepo,
		Vlogs:      vlogRepo,
		Maintainer: db,
		Recorder:   recorder,
		Exporter:   exporter,
		Generator:  feed.NewGenerator(feed.DefaultMaxItems),
		Stats:      aggregator,
		StatsCache: statsCache,
		Scheduler:  scheduler,
		ExportJobs: tasks.NewExportJobs(),
		Reminders:  reminders,
		Inbox:      inbox,
		Router:     router,
	})
	server := api.NewServer(handler, appCfg.APIAccessKey)

	// No write timeout: video uploads and downloads can be large.
	httpServer := &http.Server{
		Addr:        listenAddr(appCfg.Port, appCfg.APIAccessKey),
		Handler:     server,
		ReadTimeout: 5 * time.Minute,
		IdleTimeout: 120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	scheduler.Stop()
	slog.Info("Background scheduler stopped")

	slog.Info("EmoGo shutdown complete")
}

func newLocationProvider(appCfg *cfg.Cfg) *location.Provider {
	var locator location.Locator
	if appCfg.LocationURL != "" {
		httpClient := &http.Client{Timeout: time.Duration(appCfg.LocationTimeout) * time.Second}
		locator = location.NewHTTPLocator(appCfg.LocationURL, httpClient, appCfg.UserAgent)
	} else {
		locator = location.NewStaticLocator(appCfg.Latitude, appCfg.Longitude)
	}

	return location.NewProvider(location.NewStaticPermissions(appCfg.LocationEnabled), locator)
}

func runExport(ctx context.Context, exporter *export.Exporter, format string) error {
	var (
		path     string
		mimeType string
		err      error
	)

	switch format {
	case "json":
		path, err = exporter.WriteJSONFile(ctx)
		mimeType = "application/json"
	case "csv":
		path, err = exporter.WriteCSVFile(ctx)
		mimeType = "text/csv"
	case "bundle":
		var bundle *export.BundleResult
		bundle, err = exporter.Bundle(ctx)
		if err == nil {
			path, err = exporter.Archive(ctx, bundle)
		}
		mimeType = "application/zip"
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return err
	}

	result, err := exporter.Share(ctx, path, mimeType)
	if err != nil {
		return err
	}

	if result.Shared {
		slog.Info("Export shared", "path", result.Path)
	} else {
		fmt.Printf("Export saved to %s\n", result.Location)
	}
	return nil
}

// listenAddr keeps an unauthenticated API on the loopback interface.
func listenAddr(port, apiKey string) string {
	if apiKey == "" {
		return "127.0.0.1:" + port
	}
	return ":" + port
}
