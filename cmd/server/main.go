package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ocohenran/adcraft/internal/api"
	"github.com/ocohenran/adcraft/internal/auth"
	"github.com/ocohenran/adcraft/internal/config"
	"github.com/ocohenran/adcraft/internal/copygen"
	"github.com/ocohenran/adcraft/internal/insights"
	"github.com/ocohenran/adcraft/internal/meta"
	"github.com/ocohenran/adcraft/internal/middleware"
	"github.com/ocohenran/adcraft/internal/observability"
	"github.com/ocohenran/adcraft/internal/publish"
	"github.com/ocohenran/adcraft/internal/render"
	"github.com/ocohenran/adcraft/internal/store"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.TracingEndpoint, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	metricsRegistry := observability.NewPrometheusRegistry()

	var states store.StateStore
	switch cfg.StateStoreBackend {
	case "redis":
		rs, err := store.InitRedisStateStore(cfg.RedisAddr, logger)
		if err != nil {
			return fmt.Errorf("failed to connect redis: %w", err)
		}
		defer rs.Close()
		states = rs
	default:
		states = store.NewMemoryStateStore()
	}

	credentials := store.NewCredentialStore(cfg.CredentialFile, logger)
	ledger := store.NewLedger(cfg.LedgerFile, logger)

	platform := meta.NewClient(cfg.GraphBaseURL, cfg.AppID, cfg.AppSecret, cfg.AdAccountID, cfg.PlatformTimeout, logger, metricsRegistry)

	authSvc := auth.NewService(platform, states, credentials, cfg.OAuthRedirectURL, cfg.OAuthScopes, logger, metricsRegistry)
	orchestrator := publish.NewOrchestrator(platform, ledger, cfg.AdAccountID, logger, metricsRegistry)
	aggregator := insights.NewAggregator(platform, ledger, logger, metricsRegistry)

	var copySvc *copygen.Client
	if cfg.CopyServiceURL != "" {
		copySvc = copygen.NewClient(cfg.CopyServiceURL, cfg.CopyServiceKey, cfg.CopyServiceTimeout, logger, metricsRegistry)
	}

	var renderer *render.Client
	if cfg.RenderServiceURL != "" {
		renderer = render.NewClient(cfg.RenderServiceURL, cfg.RenderServiceTimeout, logger)
	}

	r := mux.NewRouter()
	r.Use(middleware.WithTraceLogger(logger))

	srvDeps := api.NewServer(logger, authSvc, orchestrator, aggregator, platform, copySvc, renderer, metricsRegistry, cfg)
	srvDeps.Routes(r)

	r.Handle("/metrics", promhttp.Handler())

	addr := ":" + cfg.Port

	var handler http.Handler = r
	if cfg.TracingEnabled {
		handler = otelhttp.NewHandler(r, "http.server")
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Ad authoring server running", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
