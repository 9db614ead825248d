package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LMS_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "LMS API", cfg.AppName)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, "8080", cfg.AppPort)
	require.Equal(t, 5*time.Minute, cfg.EnrollmentCacheTTL)
	require.False(t, cfg.AllowInactiveEnroll)
	require.Equal(t, 10, cfg.EnrollRateLimit)
	require.Equal(t, time.Minute, cfg.EnrollRateWindow)
	require.Equal(t, 6, cfg.EnrollmentCodeLength)
	require.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LMS_JWT_SECRET", "test-secret")
	t.Setenv("LMS_APP_PORT", ":9090")
	t.Setenv("LMS_ENROLLMENT_CACHE_TTL", "30s")
	t.Setenv("LMS_ENROLLMENT_ALLOW_INACTIVE", "true")
	t.Setenv("LMS_ENROLLMENT_CODE_LENGTH", "8")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, 30*time.Second, cfg.EnrollmentCacheTTL)
	require.True(t, cfg.AllowInactiveEnroll)
	require.Equal(t, 8, cfg.EnrollmentCodeLength)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("LMS_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadClampsCodeLength(t *testing.T) {
	t.Setenv("LMS_JWT_SECRET", "test-secret")
	t.Setenv("LMS_ENROLLMENT_CODE_LENGTH", "99")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 6, cfg.EnrollmentCodeLength)
}

func TestLoadRejectsBadDurations(t *testing.T) {
	t.Setenv("LMS_JWT_SECRET", "test-secret")
	t.Setenv("LMS_ENROLLMENT_CACHE_TTL", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
}
