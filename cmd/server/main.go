// cmd/server/main.go

// 本服務提供帳戶建立、存提款、轉帳與遠端餘額同步的 RESTful API。
// 此檔案負責載入設定（旗標 > 環境變數 > 設定檔 > 預設值）、組裝各模組
// （remote, bank, syncer, server），並啟動 HTTP 伺服器；收到 SIGINT/SIGTERM 時優雅關閉。

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"banksync/internal/bank"
	"banksync/internal/config"
	"banksync/internal/logging"
	"banksync/internal/remote"
	"banksync/internal/server"
	"banksync/internal/syncer"
)

const shutdownTimeout = 5 * time.Second

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := config.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:     "banksync",
		Short:   "Account balance service with best-effort remote synchronization",
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = config.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && config.FileExists(cfgFile) {
				fc, err := config.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := config.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// .env 只補上尚未設定的環境變數
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			if err := config.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log := logging.New(cfg.LogLevel, nil)
			log.Info().Interface("config", cfg).Msg("configuration")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, cfgFile, changed, log)
		},
	}

	f := root.Flags()
	f.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.banksync/config.toml)")
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")

	f.StringVar(&cfg.AccountName, "account-name", cfg.AccountName, "name of the account created at startup")
	f.Int64Var(&cfg.InitialBalance, "initial-balance", cfg.InitialBalance, "initial balance of the startup account (minor units)")

	f.Int64Var(&cfg.RemoteMaxBalance, "remote-max-balance", cfg.RemoteMaxBalance, "upper bound of balances reported by the remote source")
	f.Float64Var(&cfg.RemoteFailureRate, "remote-failure-rate", cfg.RemoteFailureRate, "probability that a remote fetch returns no value")
	f.DurationVar(&cfg.RemoteLatency, "remote-latency", cfg.RemoteLatency, "simulated remote latency")
	f.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "remote fetch timeout (0 disables)")

	f.DurationVar(&cfg.SyncInterval, "sync-interval", cfg.SyncInterval, "periodic synchronization interval (0 disables)")
	f.IntVar(&cfg.SyncMaxAttempts, "sync-max-attempts", cfg.SyncMaxAttempts, "attempts per synchronization before giving up (0 retries until shutdown)")
	f.IntVar(&cfg.SyncConcurrency, "sync-concurrency", cfg.SyncConcurrency, "accounts synchronized in parallel")
	f.DurationVar(&cfg.BackoffInitial, "backoff-initial", cfg.BackoffInitial, "first retry delay")
	f.DurationVar(&cfg.BackoffMax, "backoff-max", cfg.BackoffMax, "maximum retry delay")

	f.IntVar(&cfg.BreakerFailures, "breaker-failures", cfg.BreakerFailures, "consecutive remote failures before the circuit opens (0 disables the breaker)")
	f.DurationVar(&cfg.BreakerOpenTimeout, "breaker-open-timeout", cfg.BreakerOpenTimeout, "how long the circuit stays open")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "banksync:", err)
		os.Exit(1)
	}
}

// serve 組裝來源鏈 Random → WithTimeout → Breaker，建立啟動帳戶，
// 啟動定期同步、設定檔監看與 HTTP 伺服器，直到 ctx 結束。
// changed 為命令列上明確設定的旗標，設定檔重新載入時仍以它們為準。
func serve(ctx context.Context, cfg config.Config, cfgFile string, changed map[string]bool, log zerolog.Logger) error {
	var src remote.Source = remote.NewRandom(remote.RandomConfig{
		MaxBalance:  cfg.RemoteMaxBalance,
		FailureRate: cfg.RemoteFailureRate,
		Latency:     cfg.RemoteLatency,
	})
	src = remote.WithTimeout(src, cfg.FetchTimeout)
	if cfg.BreakerFailures > 0 {
		src = remote.NewBreaker(src, remote.BreakerConfig{
			Name:                "remote-balance",
			ConsecutiveFailures: uint32(cfg.BreakerFailures),
			OpenTimeout:         cfg.BreakerOpenTimeout,
			MaxRequests:         1,
		}, log)
	}

	reg := bank.NewRegistry(src)
	acct, err := reg.Create(cfg.AccountName, cfg.InitialBalance)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	log.Info().Str("account", acct.ID()).Str("name", acct.Name()).Int64("balance", acct.Balance()).Msg("account ready")

	sync := syncer.New(syncer.Config{
		MaxAttempts:    cfg.SyncMaxAttempts,
		BackoffInitial: cfg.BackoffInitial,
		BackoffMax:     cfg.BackoffMax,
		Interval:       cfg.SyncInterval,
		Concurrency:    cfg.SyncConcurrency,
	}, log)
	go sync.Run(ctx, reg)

	if cfgFile != "" && config.FileExists(cfgFile) {
		w := config.NewWatcher(cfgFile, log, func(fc config.FileConfig) {
			next, err := config.Reload(cfg, fc, changed)
			if err != nil {
				log.Warn().Err(err).Msg("ignoring invalid config change")
				return
			}
			if next.SyncInterval != sync.Interval() {
				sync.SetInterval(next.SyncInterval)
				log.Info().Dur("interval", next.SyncInterval).Msg("sync interval updated")
			}
		})
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Warn().Err(err).Msg("config watcher stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.NewServer(reg, sync, log).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("bank server running")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("received signal, stopping...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
