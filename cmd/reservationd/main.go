package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reservation-wizard-backend/config"
	"reservation-wizard-backend/internal/api"
	"reservation-wizard-backend/internal/availability"
	"reservation-wizard-backend/internal/db"
	"reservation-wizard-backend/internal/fetcher"
	"reservation-wizard-backend/internal/interval"
	"reservation-wizard-backend/internal/notify"
	"reservation-wizard-backend/internal/store"

	"github.com/SherClockHolmes/webpush-go"
)

func main() {
	logger := log.New(os.Stdout, "reservation-backend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatalf("VAPID keys must be configured. Please generate them and add them to your config file.")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	fetchSvc, err := fetcher.NewService(cfg)
	if err != nil {
		logger.Fatalf("failed to initialize fetcher: %v", err)
	}

	hours := interval.BusinessHours{Open: cfg.Hours.Open, Close: cfg.Hours.Close}
	classifier := availability.NewClassifier(hours)

	// Background refresher syncs the catalog, watches resources with
	// subscriptions, and pushes when availability opens up.
	pool := notify.NewWorkerPool(cfg.WorkerPool.Size, appStore, &webpushOptions)
	pool.Start(ctx)
	refresher := notify.NewRefresher(fetchSvc, appStore, classifier, pool, cfg.Upstream.Refresh, fetchSvc.Location())
	go refresher.Run(ctx)

	sessionTTL := time.Duration(cfg.Wizard.SessionTTLMinutes) * time.Minute
	handler := api.NewHandler(appStore, fetchSvc, classifier, sessionTTL, &webpushOptions, fetchSvc.Location())
	router := api.NewRouter(handler, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
