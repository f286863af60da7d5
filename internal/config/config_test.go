package config

import (
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestDefaultsWhenUnset(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	def := Default()
	require.Equal(t, def.CacheDir, cfg.CacheDir)
	require.Equal(t, def.CacheCodec, cfg.CacheCodec)
	require.Equal(t, def.TTSizeMB, cfg.TTSizeMB)
	require.Equal(t, def.SearchDepth, cfg.SearchDepth)
	require.Equal(t, def.TimeBudget, cfg.TimeBudget)
	require.Equal(t, def.LogLevel, cfg.LogLevel)
	require.True(t, math.IsNaN(cfg.Weights.Tempo), "unset weights stay NaN")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvCacheDir, "/tmp/azul-test")
	t.Setenv(EnvCacheCodec, "zstd")
	t.Setenv(EnvCacheLevel, "7")
	t.Setenv(EnvTTSizeMB, "128")
	t.Setenv(EnvSearchDepth, "9")
	t.Setenv(EnvTimeBudget, "250ms")
	t.Setenv(EnvRollouts, "5000")
	t.Setenv(EnvExploration, "1.2")
	t.Setenv(EnvEndgameThreshold, "12")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvTempo, "3.5")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "/tmp/azul-test", cfg.CacheDir)
	require.Equal(t, "zstd", cfg.CacheCodec)
	require.Equal(t, 7, cfg.CacheLevel)
	require.Equal(t, 128, cfg.TTSizeMB)
	require.Equal(t, 9, cfg.SearchDepth)
	require.Equal(t, 250*time.Millisecond, cfg.TimeBudget)
	require.Equal(t, 5000, cfg.Rollouts)
	require.Equal(t, 1.2, cfg.Exploration)
	require.Equal(t, 12, cfg.EndgameTileThreshold)
	require.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	require.Equal(t, 3.5, cfg.Weights.Tempo)
	require.True(t, math.IsNaN(cfg.Weights.FloorRisk), "untouched weight stays NaN")
}

func TestMalformedValues(t *testing.T) {
	cases := map[string]string{
		EnvTTSizeMB:    "many",
		EnvTimeBudget:  "soon",
		EnvExploration: "high",
		EnvLogLevel:    "loud",
	}
	for env, val := range cases {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, val)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
