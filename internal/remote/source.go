// internal/remote/source.go

package remote

import (
	"context"
	"sync"
)

// Source 與 bank.BalanceSource 方法集相同；本套件不依賴 bank。
type Source interface {
	Fetch(ctx context.Context) (int64, bool)
}

// Result 為一次查詢的結果：OK 為 false 時 Balance 無意義。
type Result struct {
	Balance int64
	OK      bool
}

// Scripted 依序回傳預先排好的結果，用完後重複最後一筆；沒有任何結果時永遠失敗。
type Scripted struct {
	mu    sync.Mutex
	steps []Result
	next  int
	calls int
}

// NewScripted 以給定的結果序列建立 Scripted。
func NewScripted(steps ...Result) *Scripted {
	return &Scripted{steps: steps}
}

// Fetch 回傳腳本中的下一筆結果。
func (s *Scripted) Fetch(context.Context) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.steps) == 0 {
		return 0, false
	}
	r := s.steps[s.next]
	if s.next < len(s.steps)-1 {
		s.next++
	}
	return r.Balance, r.OK
}

// Calls 回傳 Fetch 被呼叫的次數。
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
