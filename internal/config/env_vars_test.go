package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/epdlink/adproxy/internal/config"
)

func TestGetPort(t *testing.T) {
	cfg := config.New()

	t.Run("default", func(t *testing.T) {
		t.Setenv("PORT", "")
		require.Equal(t, ":8080", cfg.GetPort())
	})

	t.Run("bare port gets colon prefix", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		require.Equal(t, ":9090", cfg.GetPort())
	})

	t.Run("already prefixed port kept as-is", func(t *testing.T) {
		t.Setenv("PORT", ":9090")
		require.Equal(t, ":9090", cfg.GetPort())
	})
}

func TestGetEnvInt(t *testing.T) {
	t.Run("unset uses default", func(t *testing.T) {
		t.Setenv("SOME_INT", "")
		require.Equal(t, 7, config.GetEnvInt("SOME_INT", 7))
	})

	t.Run("set and numeric", func(t *testing.T) {
		t.Setenv("SOME_INT", "42")
		require.Equal(t, 42, config.GetEnvInt("SOME_INT", 7))
	})

	t.Run("garbage uses default", func(t *testing.T) {
		t.Setenv("SOME_INT", "nope")
		require.Equal(t, 7, config.GetEnvInt("SOME_INT", 7))
	})
}

func TestTokenCacheTTLDefault(t *testing.T) {
	t.Setenv("TOKEN_CACHE_MINUTES", "")
	require.Equal(t, 2*time.Minute, config.New().GetTokenCacheTTL())
}
