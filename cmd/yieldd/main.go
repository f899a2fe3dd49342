package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"yieldchain/config"
	"yieldchain/core"
	"yieldchain/core/events"
	yieldstate "yieldchain/core/state"
	"yieldchain/observability/logging"
	telemetry "yieldchain/observability/otel"
	"yieldchain/rpc"
	"yieldchain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	if err := run(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "yieldd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.SetupWithFile("yieldd", cfg.Logging.Environment, logging.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "yieldd",
		Environment: cfg.Logging.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	opts, err := cfg.FarmOptions()
	if err != nil {
		return err
	}
	opts.Logger = logger
	opts.Emitter = events.LogEmitter{Logger: logger.With("component", "events")}
	node, err := core.NewNode(yieldstate.NewManager(db), opts)
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}
	if err := bootstrap(node, cfg, logger); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	server, err := rpc.NewServer(node, rpc.ServerConfig{
		RateLimit: rpc.RateLimit{RequestsPerSecond: cfg.RateLimit.RequestsPerSecond, Burst: cfg.RateLimit.Burst},
		Auth: rpc.AuthFromEnv(cfg.Auth.HMACSecretEnv, cfg.Auth.Issuer, cfg.Auth.Audience,
			time.Duration(cfg.Auth.ClockSkewSeconds)*time.Second),
	}, logger)
	if err != nil {
		return err
	}
	if strings.TrimSpace(os.Getenv(cfg.Auth.HMACSecretEnv)) == "" {
		logger.Warn("RPC secret not set; mutating methods are disabled", "env", cfg.Auth.HMACSecretEnv)
	}

	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting JSON-RPC server", "addr", cfg.RPCAddress)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("rpc server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
