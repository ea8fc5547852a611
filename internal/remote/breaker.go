// internal/remote/breaker.go

package remote

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

var errAbsent = errors.New("remote balance absent")

// BreakerConfig 設定斷路器。
type BreakerConfig struct {
	Name                string
	ConsecutiveFailures uint32        // 連續失敗幾次後斷開
	OpenTimeout         time.Duration // 斷開多久後進入 half-open 試探
	MaxRequests         uint32        // half-open 時允許的試探請求數
}

// DefaultBreakerConfig 回傳預設斷路器設定。
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:                "remote-balance",
		ConsecutiveFailures: 5,
		OpenTimeout:         10 * time.Second,
		MaxRequests:         1,
	}
}

// Breaker 以 gobreaker 包裝來源：未取得數值即計為一次失敗；
// 斷開期間不呼叫被包裝的來源，直接回報失敗。
type Breaker struct {
	src Source
	cb  *gobreaker.CircuitBreaker
	log zerolog.Logger
}

// NewBreaker 建立 Breaker；狀態變化以 log 記錄。
func NewBreaker(src Source, cfg BreakerConfig, log zerolog.Logger) *Breaker {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultBreakerConfig().ConsecutiveFailures
	}
	b := &Breaker{src: src, log: log}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("remote balance circuit breaker state changed")
		},
	})
	return b
}

// Fetch 透過斷路器查詢一次。
func (b *Breaker) Fetch(ctx context.Context) (int64, bool) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		v, ok := b.src.Fetch(ctx)
		if !ok {
			return nil, errAbsent
		}
		return v, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.log.Debug().Err(err).Msg("remote balance fetch rejected by circuit breaker")
		}
		return 0, false
	}
	return out.(int64), true
}

// State 回傳斷路器目前狀態（closed / half-open / open）。
func (b *Breaker) State() string {
	return b.cb.State().String()
}
