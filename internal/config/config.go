// Package config holds the documented heuristic knobs of the reconstruction
// pipeline. Defaults match the behavior the possession and rim-defense
// heuristics were validated with; they can be overridden per run via a YAML
// file or PBPMETRICS_* environment variables.
package config

// Config contains the pipeline tunables.
type Config struct {
	// AndOneWindowSeconds is how close (in game-clock seconds) a free throw
	// by the shooter of a made basket must follow for the make to be treated
	// as an and-one that does not end the possession.
	AndOneWindowSeconds int `koanf:"and_one_window_seconds"`

	// FreeThrowWindowSeconds bounds the look-ahead for "another free throw
	// by the same shooter"; only the terminal free throw ends a possession.
	FreeThrowWindowSeconds int `koanf:"free_throw_window_seconds"`

	// ReboundLookback is how many events to scan backwards for the missed
	// shot that classifies a rebound as offensive or defensive.
	ReboundLookback int `koanf:"rebound_lookback"`

	// RimDistanceFeet is the maximum basket distance for a rim shot.
	RimDistanceFeet float64 `koanf:"rim_distance_feet"`

	// MinPossessions is the presentation-layer sample floor for lineup
	// rating rows. The aggregator always computes unfiltered rows.
	MinPossessions int `koanf:"min_possessions"`

	// LogLevel controls cmd-layer verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		AndOneWindowSeconds:    5,
		FreeThrowWindowSeconds: 10,
		ReboundLookback:        5,
		RimDistanceFeet:        4.0,
		MinPossessions:         0,
		LogLevel:               "info",
	}
}
