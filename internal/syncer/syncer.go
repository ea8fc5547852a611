// internal/syncer/syncer.go

// Package syncer 是帳戶同步的「呼叫端」：Account.SynchronizeBalance 本身只嘗試一次，
// 重試、退避與定期同步都在這裡完成。
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"banksync/internal/bank"
)

// Target 為可同步的帳戶；*bank.Account 滿足此介面。
type Target interface {
	ID() string
	SynchronizeBalance(ctx context.Context) error
}

// Lister 回傳目前所有帳戶；*bank.Registry 滿足此介面。
type Lister interface {
	List() []*bank.Account
}

// Config 設定重試與定期同步。
type Config struct {
	MaxAttempts    int           // 單次 Sync 的最大嘗試次數；<=0 表示直到成功或 ctx 結束
	BackoffInitial time.Duration // 第一次失敗後的等待時間
	BackoffMax     time.Duration // 等待時間上限
	Interval       time.Duration // Run 的同步週期；<=0 表示暫停定期同步
	Concurrency    int           // SyncAll 同時同步的帳戶數上限
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    10,
		BackoffInitial: 50 * time.Millisecond,
		BackoffMax:     2 * time.Second,
		Interval:       0,
		Concurrency:    4,
	}
}

// idlePoll 為定期同步暫停時，檢查是否重新啟用的間隔。
const idlePoll = time.Second

// Synchronizer 以退避重試呼叫 SynchronizeBalance。
type Synchronizer struct {
	cfg      Config
	log      zerolog.Logger
	interval atomic.Int64
	wake     chan struct{}
}

// New 建立 Synchronizer。
func New(cfg Config, log zerolog.Logger) *Synchronizer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	s := &Synchronizer{cfg: cfg, log: log, wake: make(chan struct{}, 1)}
	s.interval.Store(int64(cfg.Interval))
	return s
}

// Sync 重複呼叫 t.SynchronizeBalance，直到成功、達到 MaxAttempts 或 ctx 結束。
// 回傳實際嘗試次數。只有 bank.ErrSynchronizationFailed 會被重試。
func (s *Synchronizer) Sync(ctx context.Context, t Target) (int, error) {
	b := NewBackoff(s.cfg.BackoffInitial, s.cfg.BackoffMax)
	for attempt := 1; ; attempt++ {
		err := t.SynchronizeBalance(ctx)
		if err == nil {
			s.log.Debug().Str("account", t.ID()).Int("attempt", attempt).Msg("balance synchronized")
			return attempt, nil
		}
		if !errors.Is(err, bank.ErrSynchronizationFailed) {
			return attempt, fmt.Errorf("synchronize %s: %w", t.ID(), err)
		}
		if s.cfg.MaxAttempts > 0 && attempt >= s.cfg.MaxAttempts {
			s.log.Warn().Str("account", t.ID()).Int("attempts", attempt).Msg("giving up balance synchronization")
			return attempt, fmt.Errorf("synchronize %s after %d attempts: %w", t.ID(), attempt, err)
		}

		d := b.Next()
		s.log.Debug().Str("account", t.ID()).Int("attempt", attempt).Dur("backoff", d).Msg("balance synchronization failed, retrying")
		if err := sleepContext(ctx, d); err != nil {
			return attempt, fmt.Errorf("synchronize %s: %w", t.ID(), err)
		}
	}
}

// SyncAll 並行同步所有帳戶（最多 Concurrency 個同時進行）。
// 某個帳戶失敗不會中斷其他帳戶；回傳第一個遇到的錯誤。
func (s *Synchronizer) SyncAll(ctx context.Context, accts []*bank.Account) error {
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, a := range accts {
		g.Go(func() error {
			_, err := s.Sync(ctx, a)
			return err
		})
	}
	return g.Wait()
}

// Interval 回傳目前的定期同步週期。
func (s *Synchronizer) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

// SetInterval 於執行中調整同步週期；<=0 暫停定期同步。
func (s *Synchronizer) SetInterval(d time.Duration) {
	s.interval.Store(int64(d))
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run 每隔 Interval 對 l 目前列出的所有帳戶執行一次 SyncAll，直到 ctx 結束。
func (s *Synchronizer) Run(ctx context.Context, l Lister) {
	for {
		d := s.Interval()
		wait := d
		if d <= 0 {
			wait = idlePoll
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
			continue
		case <-timer.C:
		}
		if d <= 0 {
			continue
		}

		accts := l.List()
		if err := s.SyncAll(ctx, accts); err != nil {
			if ctx.Err() == nil {
				s.log.Warn().Err(err).Int("accounts", len(accts)).Msg("periodic synchronization incomplete")
			}
			continue
		}
		s.log.Info().Int("accounts", len(accts)).Msg("periodic synchronization done")
	}
}
