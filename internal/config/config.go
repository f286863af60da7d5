// Package config loads runtime settings from the environment, with an
// optional .env file for development. Every knob has a default; an unset
// variable never fails, a malformed one does.
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Environment variable names.
const (
	EnvCacheDir         = "AZULPLAY_CACHE_DIR"
	EnvCacheCodec       = "AZULPLAY_CACHE_CODEC"
	EnvCacheLevel       = "AZULPLAY_CACHE_LEVEL"
	EnvTTSizeMB         = "AZULPLAY_TT_SIZE_MB"
	EnvSearchDepth      = "AZULPLAY_SEARCH_DEPTH"
	EnvTimeBudget       = "AZULPLAY_TIME_BUDGET"
	EnvRollouts         = "AZULPLAY_MCTS_ROLLOUTS"
	EnvExploration      = "AZULPLAY_MCTS_EXPLORATION"
	EnvEndgameThreshold = "AZULPLAY_ENDGAME_TILES"
	EnvLogLevel         = "AZULPLAY_LOG_LEVEL"

	EnvWallProximity     = "AZULPLAY_EVAL_WALL_PROXIMITY"
	EnvPatternEfficiency = "AZULPLAY_EVAL_PATTERN_EFFICIENCY"
	EnvFloorPenalty      = "AZULPLAY_EVAL_FLOOR_PENALTY"
	EnvFloorRisk         = "AZULPLAY_EVAL_FLOOR_RISK"
	EnvTempo             = "AZULPLAY_EVAL_TEMPO"
)

// EvalWeights holds heuristic evaluator weight overrides. These are
// tuning parameters, not fixed constants; NaN means "keep the default".
type EvalWeights struct {
	WallProximity     float64
	PatternEfficiency float64
	FloorPenalty      float64
	FloorRisk         float64
	Tempo             float64
}

// Config holds all runtime settings.
type Config struct {
	CacheDir   string
	CacheCodec string
	CacheLevel int

	TTSizeMB    int
	SearchDepth int
	TimeBudget  time.Duration

	Rollouts    int
	Exploration float64

	EndgameTileThreshold int

	Weights  EvalWeights
	LogLevel logrus.Level
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		CacheDir:             ".azulplay-cache",
		CacheCodec:           "s2",
		CacheLevel:           0,
		TTSizeMB:             64,
		SearchDepth:          6,
		TimeBudget:           5 * time.Second,
		Rollouts:             10000,
		Exploration:          0, // engine default
		EndgameTileThreshold: 0, // solver default
		Weights: EvalWeights{
			WallProximity:     math.NaN(),
			PatternEfficiency: math.NaN(),
			FloorPenalty:      math.NaN(),
			FloorRisk:         math.NaN(),
			Tempo:             math.NaN(),
		},
		LogLevel: logrus.InfoLevel,
	}
}

// Load reads configuration from the environment on top of the defaults.
// A .env file in the working directory is honored when present; a missing
// one is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv(EnvCacheCodec); v != "" {
		cfg.CacheCodec = v
	}

	var err error
	if cfg.CacheLevel, err = intVar(EnvCacheLevel, cfg.CacheLevel); err != nil {
		return Config{}, err
	}
	if cfg.TTSizeMB, err = intVar(EnvTTSizeMB, cfg.TTSizeMB); err != nil {
		return Config{}, err
	}
	if cfg.SearchDepth, err = intVar(EnvSearchDepth, cfg.SearchDepth); err != nil {
		return Config{}, err
	}
	if cfg.Rollouts, err = intVar(EnvRollouts, cfg.Rollouts); err != nil {
		return Config{}, err
	}
	if cfg.EndgameTileThreshold, err = intVar(EnvEndgameThreshold, cfg.EndgameTileThreshold); err != nil {
		return Config{}, err
	}
	if cfg.Exploration, err = floatVar(EnvExploration, cfg.Exploration); err != nil {
		return Config{}, err
	}

	if v := os.Getenv(EnvTimeBudget); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", EnvTimeBudget, err)
		}
		cfg.TimeBudget = d
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", EnvLogLevel, err)
		}
		cfg.LogLevel = level
	}

	for _, w := range []struct {
		env string
		dst *float64
	}{
		{EnvWallProximity, &cfg.Weights.WallProximity},
		{EnvPatternEfficiency, &cfg.Weights.PatternEfficiency},
		{EnvFloorPenalty, &cfg.Weights.FloorPenalty},
		{EnvFloorRisk, &cfg.Weights.FloorRisk},
		{EnvTempo, &cfg.Weights.Tempo},
	} {
		if *w.dst, err = floatVar(w.env, *w.dst); err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// NewLogger builds the process logger at the configured level.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(c.LogLevel)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log
}

func intVar(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return n, nil
}

func floatVar(name string, def float64) (float64, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", name, err)
	}
	return f, nil
}
