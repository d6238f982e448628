package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "3000", cfg.Port)
		assert.Equal(t, 30*time.Minute, cfg.AbandonAfter)
		assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
		assert.Equal(t, "usd", cfg.StripeCurrency)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("ENV", "production")
		t.Setenv("ABANDON_AFTER", "45m")
		t.Setenv("SWEEP_INTERVAL", "0s")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
		assert.Equal(t, 45*time.Minute, cfg.AbandonAfter)
		assert.Zero(t, cfg.SweepInterval)
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("ABANDON_AFTER", "half an hour")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestGetEnv(t *testing.T) {
	t.Setenv("CIVICPAY_TEST_VAR", "set")
	assert.Equal(t, "set", GetEnv("CIVICPAY_TEST_VAR", "fallback"))

	t.Setenv("CIVICPAY_TEST_VAR", "")
	assert.Equal(t, "fallback", GetEnv("CIVICPAY_TEST_VAR", "fallback"))
}
