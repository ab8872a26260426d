package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/awmpietro/golang-execution-graph/internal/bootstrap"
	"github.com/awmpietro/golang-execution-graph/internal/config"
	"github.com/awmpietro/golang-execution-graph/internal/logging"
	"github.com/awmpietro/golang-execution-graph/internal/transport/httptransport"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to wire service", zap.Error(err))
	}
	defer rt.Close()

	srv := httptransport.NewServer(
		httptransport.NewHandler(rt.Service, logger),
		httptransport.Config{
			Addr:        cfg.HTTPAddr,
			AllowOrigin: cfg.CORSAllowOrigin,
			Logger:      logger,
			Gatherer:    rt.Registry,
		},
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
