package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("PROVIDER_URL", "https://project.example.co")
	t.Setenv("PROVIDER_ANON_KEY", "anon-key")
	t.Setenv("PROVIDER_SERVICE_KEY", "service-key")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
}

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		setRequired(t)

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
		assert.Equal(t, 10*time.Second, cfg.Provider.Timeout)
		assert.Equal(t, 0, cfg.AuditBuffer)
		assert.Equal(t, 2*time.Second, cfg.AuditTimeout)
		assert.Equal(t, ServiceKey("service-key"), cfg.Provider.ServiceKey)
	})

	t.Run("overrides", func(t *testing.T) {
		setRequired(t)
		t.Setenv("CAREERGATE_ADDR", ":9090")
		t.Setenv("AUDIT_BUFFER", "64")
		t.Setenv("PROVIDER_TIMEOUT", "3s")
		t.Setenv("AUDIT_TIMEOUT", "500ms")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, 64, cfg.AuditBuffer)
		assert.Equal(t, 3*time.Second, cfg.Provider.Timeout)
		assert.Equal(t, 500*time.Millisecond, cfg.AuditTimeout)
	})

	t.Run("missing service key is rejected", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PROVIDER_SERVICE_KEY", "")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ServiceKey")
	})

	t.Run("verify mode follows the jwt secret", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PROVIDER_JWT_SECRET", "")
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, VerifyRemote, cfg.Provider.VerifyMode)

		t.Setenv("PROVIDER_JWT_SECRET", "jwt-secret")
		cfg, err = FromEnv()
		require.NoError(t, err)
		assert.Equal(t, VerifyLocal, cfg.Provider.VerifyMode)
	})

	t.Run("fallback without jwt secret is rejected", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PROVIDER_JWT_SECRET", "")
		t.Setenv("PROVIDER_VERIFY_MODE", VerifyFallback)

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PROVIDER_JWT_SECRET")
	})

	t.Run("unknown verify mode is rejected", func(t *testing.T) {
		setRequired(t)
		t.Setenv("PROVIDER_VERIFY_MODE", "sometimes")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "VerifyMode")
	})

	t.Run("short session secret is rejected", func(t *testing.T) {
		setRequired(t)
		t.Setenv("SESSION_SECRET", "short")

		_, err := FromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SessionSecret")
	})
}

func TestServiceKeyNeverPrints(t *testing.T) {
	key := ServiceKey("super-secret")
	assert.Equal(t, "[redacted]", fmt.Sprint(key))
	assert.Equal(t, "[redacted] [redacted]", fmt.Sprintf("%v %#v", key, key))
	assert.NotContains(t, fmt.Sprintf("%+v", Provider{ServiceKey: key}), "super-secret")
}
