package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"sublet/rentals/internal/api"
	"sublet/rentals/internal/api/middleware"
	"sublet/rentals/internal/cache"
	"sublet/rentals/internal/config"
	"sublet/rentals/internal/db"
	"sublet/rentals/internal/logger"
	"sublet/rentals/internal/services"
	"sublet/rentals/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")

const connectMaxWait = 30 * time.Second

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	sugar, err := logger.New(logger.Config{Development: cfg.LogDevelopment})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = sugar.Sync() }()

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName, connectMaxWait, sugar)
	if err != nil {
		sugar.Fatalw("Failed to connect to database", "error", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			sugar.Errorw("Error disconnecting from MongoDB", "error", err)
		}
	}()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(indexCtx, mongoDb); err != nil {
		cancelIndex()
		sugar.Fatalw("Failed to ensure indexes", "error", err)
	}
	cancelIndex()

	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, connectMaxWait, sugar)
	if err != nil {
		sugar.Fatalw("Failed to connect to Redis", "error", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			sugar.Errorw("Error disconnecting from Redis", "error", err)
		}
	}()

	taskClient := tasks.NewClient(cfg)
	defer taskClient.Close()

	inbox := tasks.NewRedisInbox(redisClient)
	taskProcessor := tasks.NewTaskProcessor(cfg, services.NewRequestService(mongoDb), inbox, taskClient, sugar)

	var wg sync.WaitGroup
	shutdownChan := make(chan struct{}, 1)
	stopCleanup := make(chan struct{})

	// Service API always runs.
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(inbox, shutdownChan, sugar),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		sugar.Infow("Service API listening", "port", cfg.ServiceApiPort)
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("Service API ListenAndServe error", "error", err)
		}
		sugar.Info("Service API server stopped.")
	}()

	var (
		mainApiSrv        *http.Server
		backgroundTaskSrv *asynq.Server
		scheduler         *asynq.Scheduler
	)

	sugar.Infow("Starting application", "mode", cfg.RunMode)

	apiMode := func() {
		rateLimiter := middleware.NewRateLimiterMiddleware(cfg, sugar)
		go rateLimiter.RunCleanup(stopCleanup)

		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: api.SetupRouter(cfg, mongoDb, redisClient, taskClient, rateLimiter, sugar),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sugar.Infow("Main API listening", "port", cfg.ApiPort)
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				sugar.Fatalw("Main API ListenAndServe error", "error", err)
			}
			sugar.Info("Main API server stopped.")
		}()
	}

	bgMode := func() {
		backgroundTaskSrv = tasks.SetupServer(cfg, sugar)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sugar.Info("Background task server starting...")
			if err := backgroundTaskSrv.Run(tasks.NewServeMux(taskProcessor)); err != nil {
				sugar.Fatalw("Background task server error", "error", err)
			}
			sugar.Info("Background task server stopped.")
		}()

		scheduler, err = tasks.SetupScheduler(cfg, sugar)
		if err != nil {
			sugar.Fatalw("Failed to set up scheduler", "error", err)
		}
		if err := scheduler.Start(); err != nil {
			sugar.Fatalw("Failed to start scheduler", "error", err)
		}
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		sugar.Fatalw("Invalid run mode specified in config", "mode", cfg.RunMode)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		sugar.Infow("Received signal, shutting down gracefully", "signal", sig.String())
	case <-shutdownChan:
		sugar.Info("Shutdown requested via Service API. Shutting down gracefully...")
	}
	close(stopCleanup)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		sugar.Errorw("Service API server shutdown error", "error", err)
	}
	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			sugar.Errorw("Main API server shutdown error", "error", err)
		}
	}
	if scheduler != nil {
		scheduler.Shutdown()
	}
	if backgroundTaskSrv != nil {
		backgroundTaskSrv.Shutdown()
	}

	wg.Wait()
	sugar.Info("Server gracefully stopped")
}
