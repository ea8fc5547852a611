// internal/config/config_file.go

package config

import (
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Addr     string `toml:"addr"`
	LogLevel string `toml:"log_level"`

	AccountName    string `toml:"account_name"`
	InitialBalance *int64 `toml:"initial_balance"`

	RemoteMaxBalance  *int64   `toml:"remote_max_balance"`
	RemoteFailureRate *float64 `toml:"remote_failure_rate"`
	RemoteLatency     string   `toml:"remote_latency"`
	FetchTimeout      string   `toml:"fetch_timeout"`

	SyncInterval    string `toml:"sync_interval"`
	SyncMaxAttempts *int   `toml:"sync_max_attempts"`
	SyncConcurrency int    `toml:"sync_concurrency"`
	BackoffInitial  string `toml:"backoff_initial"`
	BackoffMax      string `toml:"backoff_max"`

	BreakerFailures    *int   `toml:"breaker_failures"`
	BreakerOpenTimeout string `toml:"breaker_open_timeout"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.banksync/config.toml, or "" if the home directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".banksync", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("addr", fc.Addr, &cfg.Addr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("account-name", fc.AccountName, &cfg.AccountName)

	s.setInt64("initial-balance", fc.InitialBalance, &cfg.InitialBalance)
	s.setInt64("remote-max-balance", fc.RemoteMaxBalance, &cfg.RemoteMaxBalance)
	s.setFloat("remote-failure-rate", fc.RemoteFailureRate, &cfg.RemoteFailureRate)

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"remote-latency", fc.RemoteLatency, &cfg.RemoteLatency},
		{"fetch-timeout", fc.FetchTimeout, &cfg.FetchTimeout},
		{"sync-interval", fc.SyncInterval, &cfg.SyncInterval},
		{"backoff-initial", fc.BackoffInitial, &cfg.BackoffInitial},
		{"backoff-max", fc.BackoffMax, &cfg.BackoffMax},
		{"breaker-open-timeout", fc.BreakerOpenTimeout, &cfg.BreakerOpenTimeout},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}

	s.setIntPtr("sync-max-attempts", fc.SyncMaxAttempts, &cfg.SyncMaxAttempts)
	s.setInt("sync-concurrency", fc.SyncConcurrency, &cfg.SyncConcurrency)
	s.setIntPtr("breaker-failures", fc.BreakerFailures, &cfg.BreakerFailures)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
