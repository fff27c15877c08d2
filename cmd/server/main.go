package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"bizledger/internal/cache"
	"bizledger/internal/config"
	httpapi "bizledger/internal/http"
	"bizledger/internal/logging"
	"bizledger/internal/repository"
	"bizledger/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.Production(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	store, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store init failed", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("store close failed", zap.Error(err))
		}
	}()

	var viewCache cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(cfg.RedisURL, cfg.CacheTTL, logger)
		if err != nil {
			logger.Fatal("redis init failed", zap.Error(err))
		}
		viewCache = redisCache
	}
	defer viewCache.Close()

	svc := service.New(store, viewCache, logger, cfg.Location)
	handler := httpapi.NewHandler(svc, logger)
	router := httpapi.NewRouter(handler)

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          zap.NewStdLog(logger),
	}

	go func() {
		logger.Info("bizledger listening",
			zap.String("addr", server.Addr),
			zap.String("store", cfg.StoreDriver),
			zap.String("timezone", cfg.Location.String()),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Warn("force close failed", zap.Error(closeErr))
		}
	}
	logger.Info("server stopped")
}
