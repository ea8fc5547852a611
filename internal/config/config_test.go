package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, 0.5, cfg.RemoteFailureRate)
	assert.Equal(t, int64(100), cfg.RemoteMaxBalance)
	assert.Zero(t, cfg.SyncInterval)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "missing addr", mutate: func(c *Config) { c.Addr = "" }, wantErr: true},
		{name: "negative initial balance", mutate: func(c *Config) { c.InitialBalance = -1 }, wantErr: true},
		{name: "zero max balance", mutate: func(c *Config) { c.RemoteMaxBalance = 0 }, wantErr: true},
		{name: "failure rate above one", mutate: func(c *Config) { c.RemoteFailureRate = 1.1 }, wantErr: true},
		{name: "failure rate zero is fine", mutate: func(c *Config) { c.RemoteFailureRate = 0 }},
		{name: "negative sync interval", mutate: func(c *Config) { c.SyncInterval = -time.Second }, wantErr: true},
		{name: "backoff max below initial", mutate: func(c *Config) { c.BackoffMax = time.Millisecond }, wantErr: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.SyncConcurrency = 0 }, wantErr: true},
		{name: "zero breaker failures disables breaker", mutate: func(c *Config) { c.BreakerFailures = 0 }},
		{name: "negative breaker failures", mutate: func(c *Config) { c.BreakerFailures = -1 }, wantErr: true},
		{name: "zero max attempts is unlimited", mutate: func(c *Config) { c.SyncMaxAttempts = 0 }},
		{name: "negative max attempts", mutate: func(c *Config) { c.SyncMaxAttempts = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestApplyFileConfig(t *testing.T) {
	p := writeFile(t, t.TempDir(), `
addr = ":9090"
account_name = "savings"
initial_balance = 0
remote_failure_rate = 0.0
sync_interval = "30s"
sync_max_attempts = 3
backoff_initial = "10ms"
`)
	fc, err := LoadFileConfig(p)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.InitialBalance = 500
	changed := map[string]bool{"account-name": true}
	require.NoError(t, ApplyFileConfig(&cfg, fc, changed))

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "primary", cfg.AccountName, "flag takes precedence")
	assert.Equal(t, int64(0), cfg.InitialBalance, "explicit zero in file applies")
	assert.Equal(t, 0.0, cfg.RemoteFailureRate)
	assert.Equal(t, 30*time.Second, cfg.SyncInterval)
	assert.Equal(t, 3, cfg.SyncMaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.BackoffInitial)
	assert.Equal(t, 2*time.Second, cfg.BackoffMax, "untouched")
}

func TestApplyFileConfig_ZeroInts(t *testing.T) {
	p := writeFile(t, t.TempDir(), `
sync_max_attempts = 0
breaker_failures = 0
`)
	fc, err := LoadFileConfig(p)
	require.NoError(t, err)

	cfg := DefaultConfig()
	require.NoError(t, ApplyFileConfig(&cfg, fc, nil))
	assert.Equal(t, 0, cfg.SyncMaxAttempts)
	assert.Equal(t, 0, cfg.BreakerFailures)
	assert.Equal(t, 4, cfg.SyncConcurrency, "absent keys leave defaults")
}

func TestApplyFileConfig_BadDuration(t *testing.T) {
	cfg := DefaultConfig()
	err := ApplyFileConfig(&cfg, FileConfig{SyncInterval: "soon"}, nil)
	assert.Error(t, err)
}

func TestLoadFileConfig_Errors(t *testing.T) {
	_, err := LoadFileConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	p := writeFile(t, t.TempDir(), "addr = [")
	_, err = LoadFileConfig(p)
	assert.Error(t, err)
}

func TestApplyEnvConfig(t *testing.T) {
	t.Setenv("BANKSYNC_ADDR", ":7070")
	t.Setenv("BANKSYNC_INITIAL_BALANCE", "250")
	t.Setenv("BANKSYNC_REMOTE_FAILURE_RATE", "0.25")
	t.Setenv("BANKSYNC_SYNC_INTERVAL", "1m")
	t.Setenv("BANKSYNC_SYNC_CONCURRENCY", "8")

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnvConfig(&cfg, map[string]bool{"addr": true}))

	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, int64(250), cfg.InitialBalance)
	assert.Equal(t, 0.25, cfg.RemoteFailureRate)
	assert.Equal(t, time.Minute, cfg.SyncInterval)
	assert.Equal(t, 8, cfg.SyncConcurrency)
}

func TestApplyEnvConfig_ZeroMaxAttempts(t *testing.T) {
	t.Setenv("BANKSYNC_SYNC_MAX_ATTEMPTS", "0")

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnvConfig(&cfg, nil))
	assert.Equal(t, 0, cfg.SyncMaxAttempts)
	assert.Equal(t, 5, cfg.BreakerFailures)
}

func TestReload(t *testing.T) {
	fc := FileConfig{SyncInterval: "10s", BackoffMax: "3s"}

	t.Run("flag wins over file", func(t *testing.T) {
		base := DefaultConfig()
		base.SyncInterval = time.Second
		next, err := Reload(base, fc, map[string]bool{"sync-interval": true})
		require.NoError(t, err)
		assert.Equal(t, time.Second, next.SyncInterval)
		assert.Equal(t, 3*time.Second, next.BackoffMax)
	})

	t.Run("env wins over file", func(t *testing.T) {
		t.Setenv("BANKSYNC_SYNC_INTERVAL", "2s")
		next, err := Reload(DefaultConfig(), fc, map[string]bool{})
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, next.SyncInterval)
	})

	t.Run("file applies otherwise", func(t *testing.T) {
		next, err := Reload(DefaultConfig(), fc, nil)
		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, next.SyncInterval)
	})

	t.Run("invalid result keeps base", func(t *testing.T) {
		base := DefaultConfig()
		base.SyncInterval = time.Second
		next, err := Reload(base, FileConfig{SyncInterval: "-5s"}, nil)
		require.Error(t, err)
		assert.Equal(t, base, next)
	})
}

func TestApplyEnvConfig_Invalid(t *testing.T) {
	for name, value := range map[string]string{
		"BANKSYNC_INITIAL_BALANCE":     "lots",
		"BANKSYNC_REMOTE_FAILURE_RATE": "half",
		"BANKSYNC_FETCH_TIMEOUT":       "not-a-duration",
		"BANKSYNC_BREAKER_FAILURES":    "x",
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			cfg := DefaultConfig()
			assert.Error(t, ApplyEnvConfig(&cfg, map[string]bool{}))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(p, []byte("BANKSYNC_ACCOUNT_NAME=from-dotenv\n"), 0o644))
	t.Setenv("BANKSYNC_ACCOUNT_NAME", "")
	require.NoError(t, os.Unsetenv("BANKSYNC_ACCOUNT_NAME"))

	require.NoError(t, LoadDotEnv(p, filepath.Join(dir, "missing.env")))

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnvConfig(&cfg, nil))
	assert.Equal(t, "from-dotenv", cfg.AccountName)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, `sync_interval = "1s"`)

	var last atomic.Value
	w := NewWatcher(p, zerolog.Nop(), func(fc FileConfig) { last.Store(fc.SyncInterval) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// give the watcher time to register before writing
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(p, []byte(`sync_interval = "5s"`), 0o644))

	require.Eventually(t, func() bool {
		v, _ := last.Load().(string)
		return v == "5s"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-errCh)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "nope", "config.toml"), zerolog.Nop(), func(FileConfig) {})
	assert.Error(t, w.Run(context.Background()))
}
