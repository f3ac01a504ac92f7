package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"wastewatch/web/internal/cache"
	"wastewatch/web/internal/config"
	"wastewatch/web/internal/gateway"
	"wastewatch/web/internal/handlers"
	"wastewatch/web/internal/jobs"
	"wastewatch/web/internal/log"
	"wastewatch/web/internal/server"
	"wastewatch/web/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	client := gateway.New(cfg.Backend, logger)

	var (
		records session.Records
		memory  *session.MemoryRecords
	)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("redis close error")
			}
		}()
		records = session.NewRedisRecords(redisClient)
	} else {
		logger.Warn().Msg("redis disabled, sessions held in process memory")
		memory = session.NewMemoryRecords()
		records = memory
	}

	store := session.NewStore(records, client, cfg.Session, logger)
	client.SetAuthFailureHook(store.EvictOnAuthFailure)

	monitor := jobs.NewMonitor()
	scheduler := jobs.NewScheduler(cfg.Probe, client, monitor, memory, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, client, store, monitor)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	logger.Info().Msg("web frontend exited cleanly")
}
