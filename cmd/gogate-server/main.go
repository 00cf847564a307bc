// Command gogate-server serves the goGate HTTP API: registration, token
// issuance, and a guarded /users/me endpoint with per-user rate limiting.
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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/internal/config"
	"github.com/MrEthical07/goGate/internal/logging"
	promexport "github.com/MrEthical07/goGate/metrics/export/prometheus"
	"github.com/MrEthical07/goGate/userstore"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "gogate-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Level: settings.Log.Level, Format: settings.Log.Format})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	engineCfg, err := settings.EngineConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder := goGate.New().
		WithConfig(engineCfg).
		WithUserStore(userstore.NewMemory()).
		WithLogger(logger).
		WithAuditSink(goGate.NewZapSink(logger.Named("audit")))

	if engineCfg.Store.Backend == goGate.StoreRedis {
		var client *redis.Client
		client, err = config.NewRedisClient(ctx, settings.Redis)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		builder = builder.WithRedis(client)
		logger.Info("using redis rate-limit store", zap.String("addr", settings.Redis.Addr()))
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	report := engine.SecurityReport()
	logger.Info("security posture",
		zap.String("signing_algorithm", report.SigningAlgorithm),
		zap.Duration("access_ttl", report.AccessTTL),
		zap.String("password_algorithm", report.Password.Algorithm),
		zap.String("store", report.StoreBackend),
		zap.Bool("shared_store", report.SharedAcrossNodes),
		zap.Bool("breaker", report.BreakerEnabled),
		zap.Bool("audit", report.AuditEnabled),
	)
	for _, w := range engineCfg.Lint() {
		logger.Warn("config lint", zap.String("code", w.Code), zap.String("severity", w.Severity.String()), zap.String("message", w.Message))
	}

	srv := &http.Server{
		Addr: ":" + settings.Server.Port,
		Handler: newRouter(engine, routerOptions{
			failOpen: settings.RateLimit.FailOpen,
			logger:   logger,
			metrics:  promexport.NewPrometheusExporter(engine).Handler(),
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	limit, window := engine.RateLimit()
	logger.Info("server started",
		zap.String("addr", srv.Addr),
		zap.String("store", string(engineCfg.Store.Backend)),
		zap.Int("limit", limit),
		zap.Duration("window", window),
	)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
