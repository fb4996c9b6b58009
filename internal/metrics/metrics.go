// Package metrics exposes Prometheus metrics for the accounts service.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eion/accounts/internal/accounts"
)

// unmatchedRoute labels requests that did not hit a registered route
const unmatchedRoute = "unmatched"

// Counter reports the current number of stored records
type Counter interface {
	Count() int
}

// Collector holds the service metrics
type Collector struct {
	requests             *prometheus.CounterVec
	requestDuration      *prometheus.HistogramVec
	constraintViolations *prometheus.CounterVec
	registerer           prometheus.Registerer
}

// NewCollector creates a Collector and registers its metrics on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accounts_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		constraintViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_constraint_violations_total",
			Help: "Rejected writes by offending field",
		}, []string{"field"}),
		registerer: reg,
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.constraintViolations,
	)

	return c
}

// RegisterStoreGauges exposes live record counts for users and profiles
func (c *Collector) RegisterStoreGauges(users, profiles Counter) {
	c.registerer.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "accounts_users",
			Help: "Number of stored users",
		}, func() float64 { return float64(users.Count()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "accounts_profiles",
			Help: "Number of stored profiles",
		}, func() float64 { return float64(profiles.Count()) }),
	)
}

// RecordRequest records a finished HTTP request
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordConstraintViolation records a write rejected because of field
func (c *Collector) RecordConstraintViolation(field string) {
	c.constraintViolations.WithLabelValues(field).Inc()
}

// Middleware records every request handled by the router. Validation errors
// attached to the context by handlers are counted per field.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		c.RecordRequest(ctx.Request.Method, route, ctx.Writer.Status(), time.Since(start))

		for _, ginErr := range ctx.Errors {
			var validationErr *accounts.ValidationError
			if errors.As(ginErr.Err, &validationErr) {
				c.RecordConstraintViolation(validationErr.Field)
			}
		}
	}
}

// Handler returns the HTTP handler for Prometheus scrapes
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
