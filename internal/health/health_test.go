package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eion/accounts/internal/config"
)

type stubChecker struct {
	name     string
	critical bool
	err      error
}

func (s *stubChecker) HealthCheck(ctx context.Context) error { return s.err }
func (s *stubChecker) IsCritical() bool                      { return s.critical }
func (s *stubChecker) Name() string                          { return s.name }

func TestStartupHealthCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("all healthy", func(t *testing.T) {
		m := NewManager(zap.NewNop())
		m.AddChecker(&stubChecker{name: "a", critical: true})
		m.AddChecker(&stubChecker{name: "b"})
		assert.NoError(t, m.StartupHealthCheck(ctx))
	})

	t.Run("non-critical failure is tolerated", func(t *testing.T) {
		m := NewManager(nil)
		m.AddChecker(&stubChecker{name: "a", critical: true})
		m.AddChecker(&stubChecker{name: "b", err: errors.New("degraded")})
		assert.NoError(t, m.StartupHealthCheck(ctx))
	})

	t.Run("critical failure blocks startup", func(t *testing.T) {
		m := NewManager(zap.NewNop())
		m.AddChecker(&stubChecker{name: "user_store", critical: true, err: errors.New("corrupt")})
		err := m.StartupHealthCheck(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "user_store")
	})
}

func TestRuntimeHealthCheck(t *testing.T) {
	ctx := context.Background()
	m := NewManager(zap.NewNop())
	m.AddChecker(&stubChecker{name: "a", critical: true})
	m.AddChecker(&stubChecker{name: "b", err: errors.New("slow")})

	report := m.RuntimeHealthCheck(ctx)
	assert.True(t, report.Healthy)
	assert.Equal(t, "healthy", report.Components["a"])
	assert.Equal(t, "slow", report.Components["b"])

	m.AddChecker(&stubChecker{name: "c", critical: true, err: errors.New("down")})
	report = m.RuntimeHealthCheck(ctx)
	assert.False(t, report.Healthy)
	assert.Equal(t, "down", report.Components["c"])
}

func TestConfigChecker(t *testing.T) {
	assert.Error(t, NewConfigChecker(nil).HealthCheck(context.Background()))

	config.LoadDefault()
	checker := NewConfigChecker(config.Get())
	assert.NoError(t, checker.HealthCheck(context.Background()))
	assert.True(t, checker.IsCritical())
	assert.Equal(t, "configuration", checker.Name())
}
