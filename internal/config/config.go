// Package config holds the deployment configuration: storage location,
// query limits, chain-cache TTL, scoring weights, and the permission
// mode. Defaults work out of the box; a YAML file overlays them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "30s" or "168h"
// parse; yaml.v3 only handles bare nanosecond integers on its own.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := node.Decode(&n); err != nil {
		return fmt.Errorf("config: invalid duration value")
	}
	*d = Duration(n)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Scoring holds the ranking weights and recency parameters. The
// weights fix each factor's share of the composite score; they are
// tuning knobs, not invariants.
type Scoring struct {
	PriorityWeight    float64 `yaml:"priority_weight"`
	RecencyWeight     float64 `yaml:"recency_weight"`
	SpecificityWeight float64 `yaml:"specificity_weight"`
	TextWeight        float64 `yaml:"text_weight"`

	// RecencyHalfLife controls the decay: an entry this old scores half
	// the recency of a brand-new one. RecencyFloor is the minimum
	// recency factor — old entries never decay to zero.
	RecencyHalfLife Duration `yaml:"recency_half_life"`
	RecencyFloor    float64  `yaml:"recency_floor"`
}

// Config is the full server configuration.
type Config struct {
	DataDir string `yaml:"data_dir"`

	DefaultLimit  int      `yaml:"default_limit"`
	MaxLimit      int      `yaml:"max_limit"`
	ChainCacheTTL Duration `yaml:"chain_cache_ttl"`

	Scoring Scoring `yaml:"scoring"`

	// PermissionMode selects the built-in permission filter:
	// "allow_all" (default) or "deny_anonymous".
	PermissionMode string `yaml:"permission_mode"`

	// ExplainTopN bounds how many top-ranked entries the score stage
	// diagnostics break down.
	ExplainTopN int `yaml:"explain_top_n"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:       filepath.Join(home, ".agent-memory"),
		DefaultLimit:  50,
		MaxLimit:      100,
		ChainCacheTTL: Duration(5 * time.Minute),
		Scoring: Scoring{
			PriorityWeight:    0.35,
			RecencyWeight:     0.25,
			SpecificityWeight: 0.25,
			TextWeight:        0.15,
			RecencyHalfLife:   Duration(7 * 24 * time.Hour),
			RecencyFloor:      0.1,
		},
		PermissionMode: "allow_all",
		ExplainTopN:    5,
		LogLevel:       "info",
	}
}

// Load overlays the YAML file at path onto the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("config: default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("config: max_limit %d is below default_limit %d", c.MaxLimit, c.DefaultLimit)
	}
	if c.Scoring.RecencyFloor < 0 || c.Scoring.RecencyFloor > 1 {
		return fmt.Errorf("config: recency_floor must be in [0,1], got %g", c.Scoring.RecencyFloor)
	}
	if c.ExplainTopN < 0 {
		return fmt.Errorf("config: explain_top_n must not be negative, got %d", c.ExplainTopN)
	}
	return nil
}
