// Package config loads and saves sentinel's daemon configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	Node        NodeConfig        `toml:"node"`
	API         APIConfig         `toml:"api"`
	Risk        RiskConfig        `toml:"risk"`
	Access      AccessConfig      `toml:"access"`
	Logging     LoggingConfig     `toml:"logging"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

// NodeConfig identifies this evaluator instance.
type NodeConfig struct {
	ID string `toml:"id"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// RiskConfig controls the risk engine's weighting and decay.
type RiskConfig struct {
	BehavioralWeight float64 `toml:"behavioral_weight"`
	DeviceWeight     float64 `toml:"device_weight"`
	NetworkWeight    float64 `toml:"network_weight"`
	ThreatWeight     float64 `toml:"threat_weight"`
	DecayHalfLifeMin int     `toml:"decay_half_life_minutes"`
}

// AccessConfig controls the access decision engine's thresholds.
type AccessConfig struct {
	DenyThreshold       float64 `toml:"deny_threshold"`
	ChallengeThreshold  float64 `toml:"challenge_threshold"`
	RestrictThreshold   float64 `toml:"restrict_threshold"`
	ReverifyIntervalMin int     `toml:"reverify_interval_minutes"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// TelemetryConfig controls observability.
type TelemetryConfig struct {
	Prometheus     bool `toml:"prometheus"`
	PrometheusPort int  `toml:"prometheus_port"`
}

// MaintenanceConfig controls the optional periodic upkeep tasks that
// decay profile distributions and prune expired session state.
// Baselines and sessions remain correct if this is never run — it
// exists purely to keep long-lived processes from holding onto stale
// data forever.
type MaintenanceConfig struct {
	Enabled                bool `toml:"enabled"`
	DecayIntervalMin       int  `toml:"decay_interval_minutes"`
	SessionCleanupMaxAgeHr int  `toml:"session_cleanup_max_age_hours"`
}

// DefaultConfig returns a sensible default configuration, matching the
// thresholds and weights documented in the risk and access engines.
func DefaultConfig() Config {
	return Config{
		Node: NodeConfig{ID: "sentinel-local"},
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8443,
			CORSOrigins: []string{"*"},
		},
		Risk: RiskConfig{
			BehavioralWeight: 0.30,
			DeviceWeight:     0.20,
			NetworkWeight:    0.15,
			ThreatWeight:     0.20,
			DecayHalfLifeMin: 30,
		},
		Access: AccessConfig{
			DenyThreshold:       0.3,
			ChallengeThreshold:  0.5,
			RestrictThreshold:   0.7,
			ReverifyIntervalMin: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Prometheus:     false,
			PrometheusPort: 9464,
		},
		Maintenance: MaintenanceConfig{
			Enabled:                true,
			DecayIntervalMin:       60,
			SessionCleanupMaxAgeHr: 24,
		},
	}
}

// LoadConfig reads config from ~/.sentinel/config.toml, falling back to
// defaults when no file exists.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(sentinelHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to ~/.sentinel/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(sentinelHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

func sentinelHome() string {
	if env := os.Getenv("SENTINEL_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".sentinel")
}

// SentinelHome is exported for use by other packages.
func SentinelHome() string {
	return sentinelHome()
}
