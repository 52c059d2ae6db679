package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/avdmnk/daypost/app/api"
	"github.com/avdmnk/daypost/app/bsky"
	"github.com/avdmnk/daypost/app/cfg"
	"github.com/avdmnk/daypost/app/config"
	"github.com/avdmnk/daypost/app/digest"
	"github.com/avdmnk/daypost/app/feed"
	"github.com/avdmnk/daypost/app/post"
	"github.com/avdmnk/daypost/app/store"
	"github.com/avdmnk/daypost/app/tasks"
)

func main() {
	// .env is optional; real deployments pass environment variables directly
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting daypost", "version", appCfg.Version, "dry_run", appCfg.DryRun)

	sourceCfg, err := config.NewLoader(appCfg.ConfigFile).Load()
	if err != nil {
		slog.Error("Failed to load source profile", "error", err)
		os.Exit(1)
	}

	articles, posts, closeStore, err := openStore(appCfg)
	if err != nil {
		slog.Error("Failed to open store", "store", appCfg.Store, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	httpClient := &http.Client{}

	selector := feed.NewSelector(sourceCfg.Source.FeedURL, sourceCfg.Settings.Timeout, appCfg.UserAgent, httpClient)
	segmenter := digest.NewSegmenter(sourceCfg.Settings.ImageMarker)

	sanitizer, err := digest.NewSanitizer(sourceCfg.Source.SiteOrigin,
		sourceCfg.Settings.ImageMarker, sourceCfg.Settings.BornMarker, sourceCfg.Settings.DiedMarker)
	if err != nil {
		slog.Error("Failed to initialize sanitizer", "error", err)
		os.Exit(1)
	}

	composer := post.NewComposer()
	facets := post.NewBuilder()

	var client bsky.Client
	if appCfg.DryRun {
		client = bsky.NewDryRunClient()
	} else {
		xrpc := bsky.NewXRPCClient(appCfg.PDSHost, appCfg.Handle, appCfg.AppPassword,
			appCfg.UserAgent, sourceCfg.Settings.Language, httpClient)

		// Fail fast on bad credentials, but a transient login failure must
		// not kill the process; CreatePost retries the session itself.
		loginCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := xrpc.Login(loginCtx); err != nil {
			slog.Warn("Initial login failed, will retry on first post", "error", err)
		}
		cancel()

		client = xrpc
	}

	scheduler := tasks.NewScheduler(selector, segmenter, sanitizer, composer, facets, client, articles, posts)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Scheduler started", "interval", time.Duration(appCfg.SchedulerInterval)*time.Second)

	handler := api.NewHandler(articles, posts)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Status server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Status server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Status server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}

// openStore selects the persistence backend. Both backends implement the
// same repositories, so everything downstream is indifferent to the choice.
func openStore(appCfg *cfg.Cfg) (store.ArticleRepository, store.PostRepository, func(), error) {
	switch appCfg.Store {
	case "sqlite":
		s, err := store.NewSQLiteStore(appCfg.DBPath)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s, func() { s.Close() }, nil
	default:
		s, err := store.NewJSONStore(appCfg.ArticlesPath, appCfg.PostsPath)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s, func() {}, nil
	}
}
