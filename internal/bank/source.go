// internal/bank/source.go

package bank

import "context"

// BalanceSource 是遠端權威餘額的查詢介面（外部協作者，不屬於本核心）。
//
// Fetch 回傳 (餘額, true) 表示成功；回傳 (0, false) 表示任何失敗
// （網路錯誤、逾時、伺服器錯誤），核心不區分失敗種類。
// 實作必須可被多個 goroutine 同時呼叫。
type BalanceSource interface {
	Fetch(ctx context.Context) (int64, bool)
}

// BalanceSourceFunc 讓一般函式滿足 BalanceSource。
type BalanceSourceFunc func(ctx context.Context) (int64, bool)

// Fetch calls f(ctx).
func (f BalanceSourceFunc) Fetch(ctx context.Context) (int64, bool) {
	return f(ctx)
}

// unavailable 在帳戶未設定遠端來源時使用：永遠回報查詢失敗。
var unavailable = BalanceSourceFunc(func(context.Context) (int64, bool) { return 0, false })
