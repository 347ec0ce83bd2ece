// Package config loads μNet's settings document (spec.md §6): database,
// snmp, polling, and git sections, each with documented defaults,
// overridable by YAML file and then by environment variable.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/unet-io/unet/pkg/errcode"
)

// Database holds the `database` settings section.
type Database struct {
	URL            string `yaml:"url"`
	MaxConnections int    `yaml:"max_connections"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SNMP holds the `snmp` settings section.
type SNMP struct {
	Community      string `yaml:"community"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Retries        int    `yaml:"retries"`
}

// Polling holds the `polling` settings section.
type Polling struct {
	DefaultIntervalS       int     `yaml:"default_interval_s"`
	MaxConcurrentPolls     int     `yaml:"max_concurrent_polls"`
	PollTimeoutS           int     `yaml:"poll_timeout_s"`
	MaxRetries             int     `yaml:"max_retries"`
	RetryBackoffMultiplier float64 `yaml:"retry_backoff_multiplier"`
	HealthCheckIntervalS   int     `yaml:"health_check_interval_s"`
}

// Git holds the `git` (loader) settings section. PoliciesRepo,
// TemplatesRepo, and LocalDirectory are optional, per spec.md §6's
// `?` markers.
type Git struct {
	PoliciesRepo   string `yaml:"policies_repo"`
	TemplatesRepo  string `yaml:"templates_repo"`
	Branch         string `yaml:"branch"`
	SyncIntervalS  int    `yaml:"sync_interval_s"`
	LocalDirectory string `yaml:"local_directory"`
}

// Config is the full settings document.
type Config struct {
	Database Database `yaml:"database"`
	SNMP     SNMP     `yaml:"snmp"`
	Polling  Polling  `yaml:"polling"`
	Git      Git      `yaml:"git"`
}

// Default returns the settings document with every default spec.md §6
// lists.
func Default() Config {
	return Config{
		Database: Database{
			URL:            "sqlite::memory:",
			MaxConnections: 10,
			TimeoutSeconds: 30,
		},
		SNMP: SNMP{
			Community:      "public",
			TimeoutSeconds: 5,
			Retries:        3,
		},
		Polling: Polling{
			DefaultIntervalS:       300,
			MaxConcurrentPolls:     10,
			PollTimeoutS:           30,
			MaxRetries:             3,
			RetryBackoffMultiplier: 2.0,
			HealthCheckIntervalS:   60,
		},
		Git: Git{
			Branch:        "main",
			SyncIntervalS: 300,
		},
	}
}

// Load reads the settings document starting from Default, overlaying a
// YAML file at path (if non-empty and present), then environment
// variables prefixed with envPrefix (see ApplyEnv). A missing path is
// not an error; a malformed one is.
func Load(path string, envPrefix string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return applyEnvOrFail(cfg, envPrefix)
			}
			return Config{}, errcode.ValidationError{
				Field:   "path",
				Message: "failed to read config file: " + err.Error(),
			}
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errcode.ValidationError{
				Field:   "yaml",
				Message: "failed to parse config file: " + err.Error(),
			}
		}
	}

	return applyEnvOrFail(cfg, envPrefix)
}

func applyEnvOrFail(cfg Config, envPrefix string) (Config, error) {
	if err := ApplyEnv(&cfg, envPrefix); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DatabaseTimeout returns the database section's timeout as a
// time.Duration.
func (c Config) DatabaseTimeout() time.Duration {
	return time.Duration(c.Database.TimeoutSeconds) * time.Second
}

// SNMPTimeout returns the snmp section's timeout as a time.Duration.
func (c Config) SNMPTimeout() time.Duration {
	return time.Duration(c.SNMP.TimeoutSeconds) * time.Second
}

// PollingDefaultInterval returns the polling section's default poll
// interval as a time.Duration.
func (c Config) PollingDefaultInterval() time.Duration {
	return time.Duration(c.Polling.DefaultIntervalS) * time.Second
}

// PollingTimeout returns the polling section's per-poll timeout as a
// time.Duration.
func (c Config) PollingTimeout() time.Duration {
	return time.Duration(c.Polling.PollTimeoutS) * time.Second
}

// PollingHealthCheckInterval returns the polling section's
// health-check interval as a time.Duration.
func (c Config) PollingHealthCheckInterval() time.Duration {
	return time.Duration(c.Polling.HealthCheckIntervalS) * time.Second
}

// GitSyncInterval returns the git section's sync interval as a
// time.Duration.
func (c Config) GitSyncInterval() time.Duration {
	return time.Duration(c.Git.SyncIntervalS) * time.Second
}
