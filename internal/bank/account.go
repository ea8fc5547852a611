// internal/bank/account.go

// Package bank 定義單一帳戶的核心模型與業務規則：存款、提款、轉帳與遠端餘額同步。
// 每個 Account 自行持有一把互斥鎖 (sync.Mutex)，所有餘額讀寫皆在臨界區內完成，
// 因此同一帳戶上的並發操作結果必等同於某一種循序執行順序。
// 金額以 int64 的最小貨幣單位儲存，避免浮點誤差；餘額在任何可觀察時刻皆 >= 0。
// 本套件不含任何 HTTP、日誌或儲存細節。
package bank

import (
	"bytes"
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Log represents a journal entry for one successful balance change.
type Log struct {
	Time      time.Time `json:"time"`
	Amount    int64     `json:"amount"`
	Direction string    `json:"direction"`
	CounterID string    `json:"counter_account,omitempty"`
	Note      string    `json:"note"`
}

// View 為帳戶某一時刻的值拷貝，供序列化與回傳給呼叫端使用。
type View struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

// Account 為獨立擁有的帳戶實體。
// - id：建立時產生的 UUID，轉帳時的身分比對以指標為準，id 只用於決定鎖定順序與對外識別。
// - source：遠端權威餘額來源，僅在同步時使用。
// - mu：保護 balance 與 logs；外部元件無法直接寫入 balance。
type Account struct {
	id     uuid.UUID
	name   string
	source BalanceSource

	mu      sync.Mutex
	balance int64
	logs    []Log
}

// NewAccount 以名稱、初始餘額與遠端來源建立帳戶；初始餘額不得為負。
// src 為 nil 時，FetchBalance 永遠回報失敗。
func NewAccount(name string, balance int64, src BalanceSource) (*Account, error) {
	if balance < 0 {
		return nil, ErrBadAmount
	}
	if src == nil {
		src = unavailable
	}
	return &Account{id: uuid.New(), name: name, source: src, balance: balance}, nil
}

// ID 回傳帳戶識別碼字串。
func (a *Account) ID() string { return a.id.String() }

// Name 回傳帳戶名稱。
func (a *Account) Name() string { return a.name }

// Balance 回傳目前餘額快照（純讀取）。
func (a *Account) Balance() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// View 回傳帳戶的值拷貝。
func (a *Account) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return View{ID: a.ID(), Name: a.name, Balance: a.balance}
}

// Deposit 存款：金額需 > 0；回傳存款後的新餘額。
// 於臨界區內同時更新餘額與追加日誌，確保兩者一致。
func (a *Account) Deposit(amt int64) (int64, error) {
	if amt <= 0 {
		return 0, ErrBadAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if amt > math.MaxInt64-a.balance {
		return 0, ErrBadAmount
	}
	a.balance += amt
	a.logs = append(a.logs, Log{Time: time.Now(), Amount: amt, Direction: "in", Note: "deposit"})
	return a.balance, nil
}

// Withdraw 提款：金額需 > 0 且不得超過餘額；提領全部餘額是允許的。
// 失敗時餘額不變。
func (a *Account) Withdraw(amt int64) (int64, error) {
	if amt <= 0 {
		return 0, ErrBadAmount
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.balance < amt {
		return 0, ErrInsufficientFunds
	}
	a.balance -= amt
	a.logs = append(a.logs, Log{Time: time.Now(), Amount: amt, Direction: "out", Note: "withdraw"})
	return a.balance, nil
}

// Transfer 將 amt 從 a 轉入 to，為原子操作：
// 1) 目標為自己（同一指標）或 nil → ErrTransferFailed，不論金額與餘額
// 2) 檢核金額 → 3) 依 id 順序同時鎖定兩個帳戶 → 4) 檢查餘額 → 5) 扣款與入帳、雙邊日誌。
// 任一步驟失敗皆不會改變任何帳戶狀態；其他讀取者看不到「已扣款未入帳」的中間狀態。
func (a *Account) Transfer(amt int64, to *Account) error {
	if to == nil || to == a {
		return ErrTransferFailed
	}
	if amt <= 0 {
		return ErrBadAmount
	}

	first, second := lockOrder(a, to)
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if a.balance < amt {
		return ErrInsufficientFunds
	}
	if amt > math.MaxInt64-to.balance {
		return ErrBadAmount
	}

	a.balance -= amt
	to.balance += amt

	now := time.Now()
	a.logs = append(a.logs, Log{Time: now, Amount: amt, Direction: "out", CounterID: to.ID(), Note: "transfer"})
	to.logs = append(to.logs, Log{Time: now, Amount: amt, Direction: "in", CounterID: a.ID(), Note: "transfer"})
	return nil
}

// lockOrder 以 UUID 位元組大小決定固定的加鎖順序，避免 A→B 與 B→A 同時轉帳時死鎖。
func lockOrder(a, b *Account) (*Account, *Account) {
	if bytes.Compare(a.id[:], b.id[:]) <= 0 {
		return a, b
	}
	return b, a
}

// FetchBalance 向遠端來源查詢一次權威餘額，原樣回傳結果，本身不會失敗。
// 查詢期間不持有帳戶鎖：並發的查詢彼此獨立，也不會阻塞本地存提款。
func (a *Account) FetchBalance(ctx context.Context) (int64, bool) {
	return a.source.Fetch(ctx)
}

// SynchronizeBalance 呼叫 FetchBalance 一次：
//   - 取得數值 → 於臨界區內以該值取代餘額，並記錄 sync 日誌。
//   - 未取得數值（或取得負值）→ 回傳 ErrSynchronizationFailed，餘額保持原值。
//
// 不在內部重試；重試策略屬於呼叫端（見 syncer 套件）。
func (a *Account) SynchronizeBalance(ctx context.Context) error {
	v, ok := a.FetchBalance(ctx)
	if !ok || v < 0 {
		return ErrSynchronizationFailed
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance = v
	a.logs = append(a.logs, Log{Time: time.Now(), Amount: v, Direction: "set", Note: "sync"})
	return nil
}

// Logs 回傳交易日誌的值拷貝，避免外部修改內部切片。
func (a *Account) Logs() []Log {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Log, len(a.logs))
	copy(out, a.logs)
	return out
}
