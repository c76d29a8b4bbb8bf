// Package config loads and validates this system's YAML configuration:
// where to reach the guest's GDB-remote bridge, reporting/output settings,
// emergency-stop wiring, and a handful of safety limits (ambient stack,
// following the teacher's config shape).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for flipsim.
type Config struct {
	Bridge    BridgeConfig    `yaml:"bridge"`
	Reporting ReportingConfig `yaml:"reporting"`
	Emergency EmergencyConfig `yaml:"emergency"`
	Execution ExecutionConfig `yaml:"execution"`
	Safety    SafetyConfig    `yaml:"safety"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// BridgeConfig is the GDB-remote connection to the running guest.
type BridgeConfig struct {
	Address        string        `yaml:"address"` // host:port, e.g. "127.0.0.1:1234"
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
}

// ReportingConfig controls where TestReports land and how many are kept.
type ReportingConfig struct {
	OutputDir string `yaml:"output_dir"`
	KeepLastN int    `yaml:"keep_last_n"`
	Format    string `yaml:"format"` // text | table | json
}

// EmergencyConfig configures the stop-file watcher.
type EmergencyConfig struct {
	StopFile     string        `yaml:"stop_file"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// ExecutionConfig carries default campaign interval values. No code path
// reads it: the scenario parser and orchestrator do not fill a phase's
// missing interval from these defaults.
type ExecutionConfig struct {
	DefaultMinIntervalNS int64 `yaml:"default_min_interval_ns"`
	DefaultMaxIntervalNS int64 `yaml:"default_max_interval_ns"`
}

// SafetyConfig holds safety limits. Validate requires MaxInjectionsPerPhase
// to be at least 1; the orchestrator and fuzz runner enforce neither
// MaxInjectionsPerPhase nor RequireConfirmation.
type SafetyConfig struct {
	MaxInjectionsPerPhase int  `yaml:"max_injections_per_phase"`
	RequireConfirmation   bool `yaml:"require_confirmation"`
}

// MetricsConfig holds a listen address for the Prometheus exporter. No code
// path reads it, so it does not configure "flipsim serve".
type MetricsConfig struct {
	Addr string `yaml:"addr"` // host:port
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Address:        "127.0.0.1:1234",
			ConnectTimeout: 5 * time.Second,
			LogLevel:       "info",
			LogFormat:      "text",
		},
		Reporting: ReportingConfig{
			OutputDir: "./reports",
			KeepLastN: 50,
			Format:    "text",
		},
		Emergency: EmergencyConfig{
			StopFile:     "/tmp/flipsim-emergency-stop",
			PollInterval: 1 * time.Second,
		},
		Execution: ExecutionConfig{
			DefaultMinIntervalNS: 1_000_000,
			DefaultMaxIntervalNS: 10_000_000,
		},
		Safety: SafetyConfig{
			MaxInjectionsPerPhase: 10_000,
			RequireConfirmation:   true,
		},
	}
}

// Load reads path (or "config.yaml" if empty) and merges it onto
// DefaultConfig. A missing file is not an error — the defaults apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "config.yaml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if addr := os.Getenv("FLIPSIM_BRIDGE_ADDRESS"); addr != "" {
		cfg.Bridge.Address = addr
	}

	return cfg, nil
}

// Save writes c to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for obviously broken values.
func (c *Config) Validate() error {
	if c.Bridge.Address == "" {
		return fmt.Errorf("config: bridge.address is required")
	}
	if c.Reporting.OutputDir == "" {
		return fmt.Errorf("config: reporting.output_dir is required")
	}
	if c.Safety.MaxInjectionsPerPhase < 1 {
		return fmt.Errorf("config: safety.max_injections_per_phase must be at least 1")
	}
	return nil
}
