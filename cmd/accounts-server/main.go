package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/eion/accounts/internal/accounts/profiles"
	"github.com/eion/accounts/internal/accounts/users"
	"github.com/eion/accounts/internal/config"
	"github.com/eion/accounts/internal/health"
	"github.com/eion/accounts/internal/metrics"
	"github.com/eion/accounts/internal/middleware"
	"github.com/eion/accounts/internal/server"
)

func main() {
	// Load configuration
	config.Load()

	// Initialize logger with config
	logger := initLogger()
	defer func() { _ = logger.Sync() }()
	logger.Info("Configuration loaded", zap.String("source", "config.Load()"))

	as, err := newAppState(logger)
	if err != nil {
		logger.Fatal("Failed to initialize application state", zap.Error(err))
	}

	if err := as.Health.StartupHealthCheck(context.Background()); err != nil {
		logger.Fatal("Startup health check failed", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	router := server.SetupRouter(as)

	httpConfig := config.Http()
	srv := &http.Server{
		Addr:              httpConfig.Address(),
		Handler:           router,
		ReadHeaderTimeout: httpConfig.ReadHeaderTimeout,
	}

	// Setup graceful shutdown
	done := setupSignalHandler(as, srv, logger)

	logger.Info("Starting accounts server", zap.String("address", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	<-done
	logger.Info("Server shutdown complete")
}

// newAppState wires stores, services and supporting infrastructure
func newAppState(logger *zap.Logger) (*server.AppState, error) {
	userStore := users.NewInMemoryStore()
	profileStore := profiles.NewInMemoryStore()

	userService := users.NewUserService(userStore, logger.Named("users"))
	profileService := profiles.NewProfileService(profileStore, userService, logger.Named("profiles"))
	userService.OnDelete(profileService.ReleaseOwner)

	healthManager := health.NewManager(logger.Named("health"))
	healthManager.AddChecker(health.NewConfigChecker(config.Get()))
	healthManager.AddChecker(userStore)
	healthManager.AddChecker(profileStore)

	rateConfig := config.RateLimit()
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:            rate.Limit(rateConfig.RequestsPerSecond),
		Burst:           rateConfig.Burst,
		CleanupInterval: rateConfig.CleanupInterval,
	}, logger.Named("ratelimit"))

	as := &server.AppState{
		UserService:    userService,
		ProfileService: profileService,
		Health:         healthManager,
		Logger:         logger,
		RateLimiter:    limiter,
		AllowedOrigins: config.Cors().AllowedOrigins,
		MaxRequestSize: config.Http().MaxRequestSize,
	}

	if metricsConfig := config.Metrics(); metricsConfig.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector := metrics.NewCollector(registry)
		collector.RegisterStoreGauges(userStore, profileStore)

		as.Metrics = collector
		as.Gatherer = registry
		as.MetricsPath = metricsConfig.Path
	}

	return as, nil
}

func initLogger() *zap.Logger {
	logConfig := config.Logger()

	logger, err := buildLogger(logConfig.Level, logConfig.Format)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	return logger
}

// buildLogger uses the production encoder for "json" and the development one
// otherwise. Unknown levels fall back to info.
func buildLogger(level, format string) (*zap.Logger, error) {
	var zapConfig zap.Config
	if format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		parsed = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(parsed)

	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapConfig.Build()
}

func setupSignalHandler(as *server.AppState, srv *http.Server, logger *zap.Logger) chan struct{} {
	done := make(chan struct{}, 1)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalCh

		logger.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), config.Http().ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Error during server shutdown", zap.Error(err))
		}

		as.RateLimiter.Stop()

		done <- struct{}{}
	}()

	return done
}
