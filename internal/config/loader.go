package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering, low to high precedence:
//  1. defaults (New)
//  2. YAML file at path, or $PBPMETRICS_CONFIG when path is empty
//  3. environment variables (prefix PBPMETRICS_)
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv("PBPMETRICS_CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// PBPMETRICS_RIM_DISTANCE_FEET -> rim_distance_feet, matching koanf tags.
	envProvider := env.Provider("PBPMETRICS_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PBPMETRICS_"))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.AndOneWindowSeconds < 0 || c.FreeThrowWindowSeconds < 0 {
		return fmt.Errorf("heuristic windows must not be negative")
	}
	if c.ReboundLookback < 1 {
		return fmt.Errorf("rebound_lookback must be at least 1")
	}
	if c.RimDistanceFeet <= 0 {
		return fmt.Errorf("rim_distance_feet must be positive")
	}
	if c.MinPossessions < 0 {
		return fmt.Errorf("min_possessions must not be negative")
	}
	return nil
}
