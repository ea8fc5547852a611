// internal/config/config.go

// Package config 載入服務設定，優先順序為：命令列旗標 > 環境變數 (BANKSYNC_*) > TOML 設定檔 > 預設值。
package config

import (
	"fmt"
	"time"
)

// DefaultAddr is the default HTTP listen address.
const DefaultAddr = ":8080"

// Config holds runtime configuration for banksync.
type Config struct {
	Addr     string
	LogLevel string

	AccountName    string
	InitialBalance int64

	RemoteMaxBalance  int64
	RemoteFailureRate float64
	RemoteLatency     time.Duration
	FetchTimeout      time.Duration

	SyncInterval    time.Duration
	SyncMaxAttempts int // 0 retries until success or shutdown
	SyncConcurrency int
	BackoffInitial  time.Duration
	BackoffMax      time.Duration

	BreakerFailures    int // 0 disables the circuit breaker
	BreakerOpenTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Addr:               DefaultAddr,
		LogLevel:           "info",
		AccountName:        "primary",
		InitialBalance:     0,
		RemoteMaxBalance:   100,
		RemoteFailureRate:  0.5,
		RemoteLatency:      0,
		FetchTimeout:       2 * time.Second,
		SyncInterval:       0, // periodic sync disabled
		SyncMaxAttempts:    10,
		SyncConcurrency:    4,
		BackoffInitial:     50 * time.Millisecond,
		BackoffMax:         2 * time.Second,
		BreakerFailures:    5,
		BreakerOpenTimeout: 10 * time.Second,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.InitialBalance < 0 {
		return fmt.Errorf("initial balance must not be negative")
	}
	if c.RemoteMaxBalance <= 0 {
		return fmt.Errorf("remote max balance must be positive")
	}
	if c.RemoteFailureRate < 0 || c.RemoteFailureRate > 1 {
		return fmt.Errorf("remote failure rate must be within [0, 1]")
	}
	if c.RemoteLatency < 0 || c.FetchTimeout < 0 {
		return fmt.Errorf("remote latency and fetch timeout must not be negative")
	}
	if c.SyncInterval < 0 {
		return fmt.Errorf("sync interval must not be negative")
	}
	if c.SyncConcurrency <= 0 {
		return fmt.Errorf("sync concurrency must be positive")
	}
	if c.BackoffInitial <= 0 {
		return fmt.Errorf("backoff initial must be positive")
	}
	if c.BackoffMax < c.BackoffInitial {
		return fmt.Errorf("backoff max must be >= backoff initial")
	}
	if c.SyncMaxAttempts < 0 {
		return fmt.Errorf("sync max attempts must not be negative")
	}
	if c.BreakerFailures < 0 {
		return fmt.Errorf("breaker failures must not be negative")
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int value from a pointer if not nil and flag not changed.
// Used where zero has a meaning (unlimited attempts, breaker disabled).
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setInt64 sets an int64 value from a pointer if not nil and flag not changed.
// Zero is a meaningful value for balances, hence the pointer.
func (s *configSetter) setInt64(flag string, value *int64, dst *int64) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setFloat sets a float64 value from a pointer if not nil and flag not changed.
func (s *configSetter) setFloat(flag string, value *float64, dst *float64) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
// "0" is accepted so a file or env can disable periodic sync.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// Reload returns base with a re-read config file applied, using the same
// precedence as startup: values from flags in changed and from BANKSYNC_*
// environment variables still win over the file. The result is validated.
func Reload(base Config, fc FileConfig, changed map[string]bool) (Config, error) {
	next := base
	if err := ApplyFileConfig(&next, fc, changed); err != nil {
		return base, err
	}
	if err := ApplyEnvConfig(&next, changed); err != nil {
		return base, err
	}
	if err := next.Validate(); err != nil {
		return base, err
	}
	return next, nil
}
