// internal/server/response.go
//
// 本檔負責統一 HTTP 回應格式：成功回應以 JSON 輸出，錯誤回應以純文字輸出，
// 並集中管理領域錯誤與 HTTP 狀態碼的對應。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"banksync/internal/bank"
)

// writeJSON 統一輸出成功回應。
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr 統一輸出錯誤回應（純文字訊息）。
func writeErr(w http.ResponseWriter, err error, code int) {
	http.Error(w, err.Error(), code)
}

// statusFor 將領域錯誤對應為 HTTP 狀態碼：
//
//	ErrBadAmount / ErrTransferFailed → 400
//	ErrNotFound                      → 404
//	ErrInsufficientFunds             → 409
//	ErrSynchronizationFailed / ctx   → 503
func statusFor(err error) int {
	switch {
	case errors.Is(err, bank.ErrBadAmount), errors.Is(err, bank.ErrTransferFailed):
		return http.StatusBadRequest
	case errors.Is(err, bank.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bank.ErrInsufficientFunds):
		return http.StatusConflict
	case errors.Is(err, bank.ErrSynchronizationFailed),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
