// Package config provides configuration for volinit.
//
// Configuration is resolved exactly once at startup: an optional YAML file
// overlaid with VOLINIT_* environment variables. Nothing re-reads the
// environment mid-run.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "/etc/volinit/config.yaml"

// defaultAlarmIntervalSeconds is used when no interval is configured or the
// configured one is unusable.
const defaultAlarmIntervalSeconds = 60

// Config represents the volinit configuration.
type Config struct {
	Logging    LoggingConfig `yaml:"logging"`
	Alarm      AlarmConfig   `yaml:"alarm"`
	VolumeRoot string        `yaml:"volume_root"`
}

// LoggingConfig configures the active threshold and the level used when a
// caller supplies a malformed level.
type LoggingConfig struct {
	Level        string `yaml:"level"`
	DefaultLevel string `yaml:"default_level"`
}

// AlarmConfig configures the blocking alarm.
type AlarmConfig struct {
	Level           string `yaml:"level"`
	IntervalSeconds int    `yaml:"interval_seconds"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:        "INFO",
			DefaultLevel: "INFO",
		},
		Alarm: AlarmConfig{
			Level:           "ALERT",
			IntervalSeconds: defaultAlarmIntervalSeconds,
		},
		VolumeRoot: "/root",
	}
}

// Load loads configuration from the given path.
// Returns default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil // No config file is OK, use defaults
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays VOLINIT_* environment variables onto the config.
// Malformed values are skipped and reported back as warnings so the caller
// can log them; the run continues on the prior value.
func (c *Config) ApplyEnv() []string {
	var warnings []string

	if v := os.Getenv("VOLINIT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VOLINIT_LOG_DEFAULT_LEVEL"); v != "" {
		c.Logging.DefaultLevel = v
	}
	if v := os.Getenv("VOLINIT_ALARM_LEVEL"); v != "" {
		c.Alarm.Level = v
	}
	if v := os.Getenv("VOLINIT_ALARM_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			warnings = append(warnings, fmt.Sprintf("invalid VOLINIT_ALARM_INTERVAL %q, keeping %d", v, c.Alarm.IntervalSeconds))
		} else {
			c.Alarm.IntervalSeconds = n
		}
	}
	if v := os.Getenv("VOLINIT_VOLUME_ROOT"); v != "" {
		c.VolumeRoot = v
	}

	return warnings
}

// AlarmInterval returns the alarm repeat interval as a duration. A
// non-positive configured interval falls back to the default: the alarm must
// always be able to tick, whatever the config file says.
func (c *Config) AlarmInterval() time.Duration {
	if c.Alarm.IntervalSeconds <= 0 {
		return defaultAlarmIntervalSeconds * time.Second
	}
	return time.Duration(c.Alarm.IntervalSeconds) * time.Second
}
