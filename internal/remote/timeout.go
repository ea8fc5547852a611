// internal/remote/timeout.go

package remote

import (
	"context"
	"time"
)

type timeoutSource struct {
	src Source
	d   time.Duration
}

// WithTimeout 包裝 src：超過 d 仍未回應（或 ctx 已結束）即回報失敗，
// 逾時與其他失敗一樣以 (0, false) 表示。d <= 0 時原樣回傳 src。
func WithTimeout(src Source, d time.Duration) Source {
	if d <= 0 {
		return src
	}
	return &timeoutSource{src: src, d: d}
}

func (t *timeoutSource) Fetch(ctx context.Context) (int64, bool) {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	ch := make(chan Result, 1)
	go func() {
		v, ok := t.src.Fetch(ctx)
		ch <- Result{Balance: v, OK: ok}
	}()

	select {
	case r := <-ch:
		return r.Balance, r.OK
	case <-ctx.Done():
		return 0, false
	}
}
