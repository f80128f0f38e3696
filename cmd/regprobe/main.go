// Package main wires together the registration search service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hmansoor/regprobe/internal/api"
	"github.com/hmansoor/regprobe/internal/clock/system"
	"github.com/hmansoor/regprobe/internal/config"
	"github.com/hmansoor/regprobe/internal/events"
	"github.com/hmansoor/regprobe/internal/events/sinks"
	"github.com/hmansoor/regprobe/internal/id/uuid"
	"github.com/hmansoor/regprobe/internal/logging"
	"github.com/hmansoor/regprobe/internal/metrics"
	"github.com/hmansoor/regprobe/internal/query"
	"github.com/hmansoor/regprobe/internal/results"
	"github.com/hmansoor/regprobe/internal/search"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	store, err := results.NewStore(cfg.Search.ResultsDir)
	if err != nil {
		logger.Fatal("results store init failed", zap.Error(err))
	}

	console := sinks.NewMemorySink(cfg.Events.ConsoleCapacity, cfg.Events.ConsoleEvictBlock)
	hub := events.NewHub(events.Config{
		BufferSize:    cfg.Events.BufferSize,
		FlushInterval: time.Duration(cfg.Events.FlushIntervalMs) * time.Millisecond,
		Logger:        logger.Named("events"),
	}, console, sinks.NewLogSink(logger.Named("search")))

	client := query.New(query.Config{
		Endpoint:        cfg.Search.Endpoint,
		IdentifierField: cfg.Search.IdentifierField,
		DateField:       cfg.Search.DateField,
		Timeout:         cfg.QueryTimeout(),
		UserAgent:       cfg.Search.UserAgent,
	})

	coordinator := search.NewCoordinator(
		client,
		store,
		hub,
		system.New(),
		uuid.New(),
		search.Options{
			BaseContext: ctx,
			Logger:      logger.Named("coordinator"),
		},
	)

	apiServer := api.NewServer(coordinator, console, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	coordinator.RequestStop()
	if err := hub.Close(shutdownCtx); err != nil {
		logger.Error("event hub close error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
