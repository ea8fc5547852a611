// Package remote 提供遠端權威餘額來源（bank.BalanceSource）的各種實作與包裝：
//
//   - Random：參考環境中的不可靠來源，約一半的呼叫會失敗。
//   - Scripted：依腳本回傳結果，讓測試可重現。
//   - WithTimeout：逾時即視為「未取得數值」。
//   - Breaker：以 sony/gobreaker 斷路，連續失敗後短時間內直接回報失敗。
//
// 所有實作的失敗一律以 (0, false) 表示，不區分失敗種類。
package remote
