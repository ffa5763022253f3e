// Package config holds the calibration surface for the analysis
// pipeline. Every numeric constant a reviewer might need to audit
// (depth budgets, phase cuts, accuracy curve, suspicion weights) lives
// here rather than in code.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chesswatch/fairplay/models"
)

// EngineConfig configures the local UCI engine tier.
type EngineConfig struct {
	// Path is the engine binary. Empty disables the local tier.
	Path    string `yaml:"path"`
	Depth   int    `yaml:"depth"`
	Threads int    `yaml:"threads"`
	HashMB  int    `yaml:"hash_mb"`
}

// CloudConfig configures the pre-computed analysis lookup.
type CloudConfig struct {
	// BaseURL is the analysis host. Empty disables the cloud tier.
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ScoringConfig holds the accuracy and suspicion calibration knobs.
type ScoringConfig struct {
	// OpeningPlies is the number of initial plies scored as opening.
	OpeningPlies int `yaml:"opening_plies"`
	// EndgamePieces is the non-pawn, non-king piece count at or below
	// which a position counts as endgame.
	EndgamePieces int `yaml:"endgame_pieces"`
	// AccuracyTauCP is the decay constant, in centipawns, of the
	// loss-to-accuracy curve acc(loss) = 100*exp(-loss/tau).
	AccuracyTauCP float64 `yaml:"accuracy_tau_cp"`
	// Weights is the suspicion weight vector; it must sum to 1.
	Weights models.SuspicionWeights `yaml:"weights"`
}

// Config is the full pipeline configuration.
type Config struct {
	Engine   EngineConfig  `yaml:"engine"`
	Cloud    CloudConfig   `yaml:"cloud"`
	CacheDir string        `yaml:"cache_dir"` // empty disables the evaluation cache
	Scoring  ScoringConfig `yaml:"scoring"`
	Workers  int           `yaml:"workers"`
	LogLevel string        `yaml:"log_level"`
}

// Default returns the documented baseline configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Depth:   16,
			Threads: 2,
			HashMB:  256,
		},
		Cloud: CloudConfig{
			BaseURL:        "https://lichess.org",
			TimeoutSeconds: 10,
		},
		Scoring: ScoringConfig{
			OpeningPlies:  20,
			EndgamePieces: 6,
			AccuracyTauCP: 150,
			Weights: models.SuspicionWeights{
				Loss:        0.40,
				Correlation: 0.35,
				Consistency: 0.25,
			},
		},
		Workers:  4,
		LogLevel: "info",
	}
}

// Load reads a YAML config file over the defaults and validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the invariants the scoring formulas rely on.
func (c Config) Validate() error {
	w := c.Scoring.Weights
	if sum := w.Loss + w.Correlation + w.Consistency; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("suspicion weights must sum to 1, got %.4f", sum)
	}
	if w.Loss < 0 || w.Correlation < 0 || w.Consistency < 0 {
		return fmt.Errorf("suspicion weights must be non-negative")
	}
	if c.Scoring.AccuracyTauCP <= 0 {
		return fmt.Errorf("accuracy_tau_cp must be positive")
	}
	if c.Scoring.OpeningPlies < 0 || c.Scoring.EndgamePieces < 0 {
		return fmt.Errorf("phase cuts must be non-negative")
	}
	if c.Engine.Depth <= 0 {
		return fmt.Errorf("engine depth must be positive")
	}
	if c.Cloud.BaseURL != "" && c.Cloud.TimeoutSeconds <= 0 {
		return fmt.Errorf("cloud timeout_seconds must be positive when base_url is set")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	return nil
}
