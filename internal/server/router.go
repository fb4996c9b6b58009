package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eion/accounts/internal/accounts/profiles"
	"github.com/eion/accounts/internal/accounts/users"
	"github.com/eion/accounts/internal/health"
	"github.com/eion/accounts/internal/metrics"
	"github.com/eion/accounts/internal/middleware"
)

const welcomeMessage = "Welcome to the User & Profile Service."

// AppState holds all application services
type AppState struct {
	UserService    users.UserService
	ProfileService profiles.ProfileService
	Health         *health.Manager
	Logger         *zap.Logger
	RateLimiter    *middleware.RateLimiter

	// Metrics and Gatherer are optional; /metrics is only served when both are set
	Metrics     *metrics.Collector
	Gatherer    prometheus.Gatherer
	MetricsPath string

	AllowedOrigins []string
	MaxRequestSize int64
}

// SetupRouter builds the gin engine with middleware and all routes
func SetupRouter(as *AppState) *gin.Engine {
	logger := as.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(corsMiddleware(as.AllowedOrigins))
	router.Use(middleware.RequestLogger(logger))
	if as.Metrics != nil {
		router.Use(as.Metrics.Middleware())
	}
	if as.RateLimiter != nil {
		router.Use(as.RateLimiter.Middleware())
	}
	if as.MaxRequestSize > 0 {
		router.Use(middleware.MaxBodySize(as.MaxRequestSize))
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": welcomeMessage})
	})

	router.GET("/health", func(c *gin.Context) {
		if as.Health == nil {
			c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().UTC().Format(time.RFC3339)})
			return
		}

		report := as.Health.RuntimeHealthCheck(c.Request.Context())
		status, code := "healthy", http.StatusOK
		if !report.Healthy {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     status,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": report.Components,
		})
	})

	if as.Metrics != nil && as.Gatherer != nil {
		path := as.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(metrics.Handler(as.Gatherer)))
	}

	users.NewHandlers(as.UserService, logger).RegisterRoutes(router)
	profiles.NewHandlers(as.ProfileService, logger).RegisterRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "Method Not Allowed"})
	})
	router.HandleMethodNotAllowed = true

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cors.New(cfg)
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}
