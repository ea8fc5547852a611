// internal/bank/errors.go
//
// 本檔集中定義帳戶核心的領域錯誤（domain errors）。
// 呼叫端以 errors.Is 判斷類型；HTTP 層再將其轉換為對應的狀態碼。
// 所有錯誤皆為「本次呼叫失敗」：帳戶本身不會記錄、吞掉或自動重試。

package bank

import "errors"

var (
	// ErrInsufficientFunds 代表提款或轉帳金額大於目前餘額。
	// 呼叫端可改以較小金額重試。對應 409 Conflict。
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrTransferFailed 代表轉帳目標與來源為同一個帳戶（或目標不存在）。
	// 相同參數重試必定再次失敗。對應 400 Bad Request。
	ErrTransferFailed = errors.New("transfer failed: target must be a different account")

	// ErrSynchronizationFailed 代表遠端餘額查詢沒有取得數值。
	// 每次同步彼此獨立，稍後重試即可。對應 503 Service Unavailable。
	ErrSynchronizationFailed = errors.New("synchronization failed: remote balance unavailable")

	// ErrBadAmount 代表金額非法（<=0，或初始餘額為負）。
	ErrBadAmount = errors.New("amount must be > 0")

	// ErrNotFound 代表 Registry 中找不到指定帳戶。
	ErrNotFound = errors.New("account not found")
)
