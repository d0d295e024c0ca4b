package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bundly/internal/httpapi"
	"bundly/pkg/config"
	"bundly/pkg/db"
	"bundly/pkg/logging"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		logger.Fatal("db open", zap.Error(err))
	}
	defer conn.Close()

	if cfg.MigrationsPath != "" {
		if err := db.Migrate(cfg.MigrationsPath, cfg); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
	}

	clients, err := httpapi.NewClientFactory(cfg.Shopify, logger.Named("shopify"))
	if err != nil {
		logger.Fatal("shopify client config", zap.Error(err))
	}

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:     cfg,
		DB:      conn,
		Logger:  logger,
		Shopify: clients,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http serve", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
}
