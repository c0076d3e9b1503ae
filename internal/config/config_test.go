package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, ":8080", cfg.Addr())
	require.Equal(t, "G-R0SSHMLP09", cfg.GAMeasurementID)
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
	require.Equal(t, 8760*time.Hour, cfg.AnalyticsRetention)
	require.Empty(t, cfg.ResumePath, "the embedded résumé is served unless overridden")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("GA_MEASUREMENT_ID", "")
	t.Setenv("SECURE_COOKIES", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Addr())
	require.Equal(t, 5*time.Minute, cfg.SessionTTL)
	require.True(t, cfg.SecureCookies)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("unparseable duration", func(t *testing.T) {
		t.Setenv("SESSION_TTL", "soon")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		t.Setenv("SESSION_TTL", "0s")
		_, err := Load()
		require.Error(t, err)
	})
}
