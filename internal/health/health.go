package health

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/eion/accounts/internal/config"
)

// Checker defines the interface for health checking components
type Checker interface {
	HealthCheck(ctx context.Context) error
	IsCritical() bool // Critical components block startup and mark the service unhealthy
	Name() string
}

// Manager runs the registered checkers
type Manager struct {
	checkers []Checker
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewManager creates a new health manager
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		checkers: make([]Checker, 0),
		logger:   logger,
	}
}

// AddChecker adds a health checker to the manager
func (h *Manager) AddChecker(checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, checker)
}

// StartupHealthCheck performs critical health checks that must pass for startup
func (h *Manager) StartupHealthCheck(ctx context.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var criticalFailures []error

	for _, checker := range h.checkers {
		err := checker.HealthCheck(ctx)
		switch {
		case err == nil:
			h.logger.Debug("Health check passed",
				zap.String("component", checker.Name()),
				zap.Bool("critical", checker.IsCritical()))
		case checker.IsCritical():
			criticalFailures = append(criticalFailures, fmt.Errorf("%s: %w", checker.Name(), err))
			h.logger.Error("Critical health check failed",
				zap.String("component", checker.Name()),
				zap.Error(err))
		default:
			h.logger.Warn("Non-critical health check failed",
				zap.String("component", checker.Name()),
				zap.Error(err))
		}
	}

	if len(criticalFailures) > 0 {
		return fmt.Errorf("critical components failed health check: %v", criticalFailures)
	}

	h.logger.Info("All critical components healthy", zap.Int("total_checks", len(h.checkers)))
	return nil
}

// Report is the result of a runtime health check
type Report struct {
	Healthy    bool              `json:"healthy"`
	Components map[string]string `json:"components"`
}

// RuntimeHealthCheck runs every checker and summarizes the results. The
// service is unhealthy when any critical checker fails.
func (h *Manager) RuntimeHealthCheck(ctx context.Context) Report {
	h.mu.RLock()
	defer h.mu.RUnlock()

	report := Report{
		Healthy:    true,
		Components: make(map[string]string, len(h.checkers)),
	}
	for _, checker := range h.checkers {
		if err := checker.HealthCheck(ctx); err != nil {
			report.Components[checker.Name()] = err.Error()
			if checker.IsCritical() {
				report.Healthy = false
			}
			continue
		}
		report.Components[checker.Name()] = "healthy"
	}
	return report
}

// ConfigChecker checks configuration validity
type ConfigChecker struct {
	config *config.Config
}

// NewConfigChecker creates a config health checker
func NewConfigChecker(cfg *config.Config) *ConfigChecker {
	return &ConfigChecker{config: cfg}
}

func (c *ConfigChecker) HealthCheck(ctx context.Context) error {
	if c.config == nil {
		return fmt.Errorf("configuration is nil")
	}
	return c.config.Validate()
}

func (c *ConfigChecker) IsCritical() bool {
	return true
}

func (c *ConfigChecker) Name() string {
	return "configuration"
}
