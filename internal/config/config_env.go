// internal/config/config_env.go

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "BANKSYNC_"

// LoadDotEnv loads variables from the given .env files (default ".env") into the process
// environment without overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if !FileExists(p) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnvConfig applies configuration from environment variables (BANKSYNC_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("addr", env("ADDR"), &cfg.Addr)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("account-name", env("ACCOUNT_NAME"), &cfg.AccountName)

	for _, v := range []struct {
		flag, name string
		dst        *int64
	}{
		{"initial-balance", "INITIAL_BALANCE", &cfg.InitialBalance},
		{"remote-max-balance", "REMOTE_MAX_BALANCE", &cfg.RemoteMaxBalance},
	} {
		raw := env(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("parse %s: %w", v.flag, err)
		}
		s.setInt64(v.flag, &n, v.dst)
	}

	if raw := env("REMOTE_FAILURE_RATE"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parse remote-failure-rate: %w", err)
		}
		s.setFloat("remote-failure-rate", &f, &cfg.RemoteFailureRate)
	}

	if err := s.setDuration("remote-latency", env("REMOTE_LATENCY"), &cfg.RemoteLatency); err != nil {
		return err
	}
	if err := s.setDuration("fetch-timeout", env("FETCH_TIMEOUT"), &cfg.FetchTimeout); err != nil {
		return err
	}
	if err := s.setDuration("sync-interval", env("SYNC_INTERVAL"), &cfg.SyncInterval); err != nil {
		return err
	}
	if err := s.setDuration("backoff-initial", env("BACKOFF_INITIAL"), &cfg.BackoffInitial); err != nil {
		return err
	}
	if err := s.setDuration("backoff-max", env("BACKOFF_MAX"), &cfg.BackoffMax); err != nil {
		return err
	}
	if err := s.setDuration("breaker-open-timeout", env("BREAKER_OPEN_TIMEOUT"), &cfg.BreakerOpenTimeout); err != nil {
		return err
	}

	for _, v := range []struct {
		flag, name string
		dst        *int
	}{
		{"sync-max-attempts", "SYNC_MAX_ATTEMPTS", &cfg.SyncMaxAttempts},
		{"sync-concurrency", "SYNC_CONCURRENCY", &cfg.SyncConcurrency},
		{"breaker-failures", "BREAKER_FAILURES", &cfg.BreakerFailures},
	} {
		raw := env(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", v.flag, err)
		}
		s.setIntPtr(v.flag, &n, v.dst)
	}

	return nil
}
