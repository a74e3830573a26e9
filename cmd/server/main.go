package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitkit/internal/auth"
	"github.com/mmynk/splitkit/internal/config"
	"github.com/mmynk/splitkit/internal/metrics"
	"github.com/mmynk/splitkit/internal/middleware"
	"github.com/mmynk/splitkit/internal/service"
	"github.com/mmynk/splitkit/internal/settlement"
	"github.com/mmynk/splitkit/internal/storage"
	"github.com/mmynk/splitkit/internal/storage/bolt"
	"github.com/mmynk/splitkit/internal/storage/sqlite"
	"github.com/mmynk/splitkit/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if cfg.UsingDevSecret() {
		logger.Warn("JWT_SECRET is not set, using the development secret")
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "backend", cfg.StorageBackend, "database", cfg.DBPath)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
	authenticator := auth.NewPasswordAuthenticator(store)
	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst,
		service.AuthServiceLoginProcedure,
		service.AuthServiceRegisterProcedure,
	)

	interceptors := connect.WithInterceptors(
		middleware.LoggingInterceptor(logger),
		m.Interceptor(),
		limiter.Interceptor(),
		middleware.RequireAuth(jwtManager, service.PublicProcedures...),
	)

	mux := http.NewServeMux()
	mux.Handle(service.NewSplitServiceHandler(
		service.NewSplitService(store, settlement.NewBuilder(), m, logger), interceptors))
	mux.Handle(service.NewAnalyticsServiceHandler(
		service.NewAnalyticsService(store, cfg.AnalyticsMonths, logger), interceptors))
	mux.Handle(service.NewFriendServiceHandler(
		service.NewFriendService(store, logger), interceptors))
	mux.Handle(service.NewAuthServiceHandler(
		service.NewAuthService(authenticator, jwtManager, store, m, logger), interceptors))

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	mux.HandleFunc("/healthz", healthz)

	static, err := staticHandler(cfg.StaticPath)
	if err != nil {
		return err
	}
	mux.Handle("/", static)
	logger.Info("Serving static files", "path", cfg.StaticPath)

	server := &http.Server{
		Addr: cfg.Addr(),
		// Wrap with h2c for HTTP/2 without TLS (required for Connect)
		Handler:           h2c.NewHandler(loggingMiddleware(logger, corsMiddleware(mux)), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Connect server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case "bolt":
		return bolt.New(cfg.DBPath)
	default:
		return sqlite.New(cfg.DBPath)
	}
}
