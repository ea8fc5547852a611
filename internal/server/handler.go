// internal/server/handler.go
//
// Package server 提供 HTTP RESTful 介面，作為 bank 模組的應用層。
// 每個 handler 僅負責：
//  1. 解析與驗證 HTTP 請求
//  2. 透過 Registry 取得帳戶把手並呼叫 bank 層
//  3. 將結果或領域錯誤轉為標準化回應
//
// bank 不依賴 HTTP；server 依賴 bank 與 syncer。
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"banksync/internal/bank"
	"banksync/internal/syncer"
)

// Server 為 HTTP 層核心結構：
// - Registry：帳戶把手表。
// - sync：呼叫端的同步重試器；為 nil 時 ?retry=true 退化為單次同步。
type Server struct {
	Registry *bank.Registry
	sync     *syncer.Synchronizer
	log      zerolog.Logger
}

// NewServer 建立新的 HTTP 伺服器。
func NewServer(reg *bank.Registry, sync *syncer.Synchronizer, log zerolog.Logger) *Server {
	return &Server{Registry: reg, sync: sync, log: log}
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

// account 由路徑參數 {id} 取得帳戶；找不到時直接寫出 404 並回傳 nil。
func (s *Server) account(w http.ResponseWriter, r *http.Request) *bank.Account {
	a, err := s.Registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err, statusFor(err))
		return nil
	}
	return a
}

// listAccounts 處理 GET /accounts。
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accts := s.Registry.List()
	out := make([]bank.View, 0, len(accts))
	for _, a := range accts {
		out = append(out, a.View())
	}
	writeJSON(w, http.StatusOK, out)
}

// createAccount 處理 POST /accounts → 201 Created。
func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Balance int64  `json:"balance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	a, err := s.Registry.Create(req.Name, req.Balance)
	if err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	s.log.Info().Str("account", a.ID()).Int64("balance", req.Balance).Msg("account created")
	writeJSON(w, http.StatusCreated, a.View())
}

// getAccount 處理 GET /accounts/{id}。
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	if a := s.account(w, r); a != nil {
		writeJSON(w, http.StatusOK, a.View())
	}
}

// removeAccount 處理 DELETE /accounts/{id} → 204 No Content。
// 只移除登錄；已取得把手的進行中操作不受影響。
func (s *Server) removeAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Registry.Remove(id); err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	s.log.Info().Str("account", id).Msg("account removed")
	w.WriteHeader(http.StatusNoContent)
}

// deposit 處理 POST /accounts/{id}/deposit。
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, (*bank.Account).Deposit)
}

// withdraw 處理 POST /accounts/{id}/withdraw；餘額不足回傳 409。
func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, (*bank.Account).Withdraw)
}

// mutate 為存款與提款的共用流程：解析金額 → 執行 → 回傳變更後的餘額。
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, op func(*bank.Account, int64) (int64, error)) {
	a := s.account(w, r)
	if a == nil {
		return
	}
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	bal, err := op(a, req.Amount)
	if err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, bank.View{ID: a.ID(), Name: a.Name(), Balance: bal})
}

// logs 處理 GET /accounts/{id}/logs。
func (s *Server) logs(w http.ResponseWriter, r *http.Request) {
	if a := s.account(w, r); a != nil {
		writeJSON(w, http.StatusOK, a.Logs())
	}
}

// remoteBalance 處理 GET /accounts/{id}/remote-balance：
// 只查詢一次遠端來源，不改變本地餘額；查詢失敗回傳 503。
func (s *Server) remoteBalance(w http.ResponseWriter, r *http.Request) {
	a := s.account(w, r)
	if a == nil {
		return
	}
	v, ok := a.FetchBalance(r.Context())
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"available": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available": true, "balance": v})
}

// synchronize 處理 POST /accounts/{id}/sync。
// 預設只嘗試一次；?retry=true 時交給 Synchronizer 以退避重試。
func (s *Server) synchronize(w http.ResponseWriter, r *http.Request) {
	a := s.account(w, r)
	if a == nil {
		return
	}
	retry, _ := strconv.ParseBool(r.URL.Query().Get("retry"))

	attempts := 1
	var err error
	if retry && s.sync != nil {
		attempts, err = s.sync.Sync(r.Context(), a)
	} else {
		err = a.SynchronizeBalance(r.Context())
	}
	if err != nil {
		s.log.Info().Err(err).Str("account", a.ID()).Int("attempts", attempts).Msg("synchronization failed")
		writeErr(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"account": a.View(), "attempts": attempts})
}

// transfer 處理 POST /transfer → JSON {from, to, amount}。
// 成功後同時回傳兩帳戶最新餘額。
func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount int64  `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, err, http.StatusBadRequest)
		return
	}
	from, to, err := s.Registry.Transfer(req.From, req.To, req.Amount)
	if err != nil {
		writeErr(w, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "transfer success",
		"from":    from.View(),
		"to":      to.View(),
	})
}

// health 提供健康檢查端點：GET /health。
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
