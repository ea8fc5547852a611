// internal/remote/random.go

package remote

import (
	"context"
	"math/rand/v2"
	"time"
)

const (
	// DefaultMaxBalance 為參考來源回傳餘額的上限（含）。
	DefaultMaxBalance = 100
	// DefaultFailureRate 為參考來源的失敗機率。
	DefaultFailureRate = 0.5
)

// RandomConfig 設定 Random 的行為。
type RandomConfig struct {
	MaxBalance  int64         // 回傳值落在 [0, MaxBalance]；<=0 時使用 DefaultMaxBalance
	FailureRate float64       // 每次呼叫獨立失敗的機率，限制在 [0, 1]
	Latency     time.Duration // 模擬的回應延遲；等待期間 ctx 結束則視為失敗
}

// DefaultRandomConfig 回傳參考環境的設定：餘額 0~100，約一半呼叫失敗。
func DefaultRandomConfig() RandomConfig {
	return RandomConfig{MaxBalance: DefaultMaxBalance, FailureRate: DefaultFailureRate}
}

// Random 模擬不可靠的遠端餘額服務：每次呼叫與先前呼叫無關。
type Random struct {
	cfg RandomConfig
}

// NewRandom 建立 Random。
func NewRandom(cfg RandomConfig) *Random {
	if cfg.MaxBalance <= 0 {
		cfg.MaxBalance = DefaultMaxBalance
	}
	cfg.FailureRate = min(max(cfg.FailureRate, 0), 1)
	return &Random{cfg: cfg}
}

// Fetch 等待模擬延遲後，依 FailureRate 決定回傳隨機餘額或失敗。
func (r *Random) Fetch(ctx context.Context) (int64, bool) {
	if r.cfg.Latency > 0 {
		timer := time.NewTimer(r.cfg.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, false
		case <-timer.C:
		}
	}
	if ctx.Err() != nil {
		return 0, false
	}
	balance := rand.Int64N(r.cfg.MaxBalance + 1)
	if rand.Float64() < r.cfg.FailureRate {
		return 0, false
	}
	return balance, true
}
