package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market-pulse/src/config"
	"market-pulse/src/data_source/sim"
	"market-pulse/src/data_source/yahoo"
	"market-pulse/src/detector"
	"market-pulse/src/interfaces"
	"market-pulse/src/logger"
	"market-pulse/src/network"
	"market-pulse/src/pipeline"
	"market-pulse/src/resilience"
	"market-pulse/src/scheduler"
	"market-pulse/src/server"
	"market-pulse/src/storage"
	"market-pulse/src/store"
	"market-pulse/src/utils"

	"github.com/redis/go-redis/v9"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// Snapshot store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	snapshotStore := store.NewRedisSnapshotStore(redisClient, appLogger.Named("SnapshotStore"))

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := snapshotStore.Ping(pingCtx); err != nil {
		appLogger.Critical("Failed to reach redis at %s: %v", cfg.Redis.Addr, err)
	}
	pingCancel()

	// Optional relational archive
	var db interfaces.IDatabase
	if cfg.Storage.Enabled {
		db, err = storage.NewDatabase(&cfg.Storage, appLogger.Named("Storage"))
		if err != nil {
			appLogger.Critical("Failed to init db: %v", err)
		}
		if err := db.Initialize(); err != nil {
			appLogger.Critical("Failed to migrate db: %v", err)
		}
	}

	// Resilience layer
	exec := resilience.NewExecutor(cfg.Resilience, appLogger.Named("Resilience"))

	// Quote gateway
	var netMgr interfaces.INetworkManager = network.NewNetworkManager(&cfg.Network, appLogger.Named("Network"))
	var gateway interfaces.ISourceGateway
	switch cfg.Source.Provider {
	case "sim":
		gateway = sim.NewSimSource(cfg.Source, appLogger.Named("SimSource"))
	default:
		gateway = yahoo.NewYahooFinanceSource(cfg.Source, netMgr, appLogger.Named("YahooSource"))
	}

	// Pipeline
	changeDetector := detector.NewChangeDetector(cfg.Pipeline.PriceEpsilon)
	queue := pipeline.NewUpdateQueue()

	// Websocket hub + API server
	hub := server.NewHub(&cfg.Websocket, appLogger.Named("Hub"))
	dispatcher := server.NewDispatcher(hub, snapshotStore, exec, appLogger.Named("Dispatch"))

	processor := pipeline.NewBatchProcessor(&cfg.Pipeline, queue, snapshotStore, hub, db, exec, appLogger.Named("Pipeline"))

	markets := utils.NewMarketScheduler(cfg.Source.Symbols, appLogger.Named("MarketScheduler"))
	sched := scheduler.NewIngestionScheduler(gateway, exec, changeDetector, queue,
		snapshotStore, hub, markets, &cfg.Ingestion, &cfg.Pipeline, appLogger.Named("Scheduler"))

	srv := server.NewServer(cfg.MConfig, appLogger.Named("Server"), hub, dispatcher,
		exec.Breakers, sched, processor)

	// Start everything
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)
	processor.Start(ctx)
	sched.Start(ctx)

	if db != nil {
		sched.RegisterJob("archive-cleanup", "maintenance", 24*time.Hour, func(ctx context.Context) {
			if err := db.CleanupOldData(); err != nil {
				appLogger.Error("Archive cleanup failed: %v", err)
			}
		})
	}

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	appLogger.Info("market-pulse started (provider %s, %d symbols)", cfg.Source.Provider, len(cfg.Source.Symbols))

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	appLogger.Info("Shutting down...")

	// Stop intake first so the final drain can flush what is left
	sched.Stop()
	processor.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		appLogger.Error("Server shutdown error: %v", err)
	}
	hub.Stop()

	if db != nil {
		if err := db.Close(); err != nil {
			appLogger.Error("DB close error: %v", err)
		}
	}
	if err := redisClient.Close(); err != nil {
		appLogger.Error("Redis close error: %v", err)
	}

	appLogger.Info("Shutdown complete")
}
