// internal/server/router.go
//
// 本檔負責 HTTP 路由註冊（go-chi）。
// handler.go 定義「如何處理請求」，router.go 定義「請求如何被導向」。
// 所有端點同時掛在根路徑與 /api/v1 之下。
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router 建立並回傳整個 HTTP 處理鏈。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api/v1", s.routes)
	s.routes(r)
	return r
}

// routes 註冊 API 端點：
//
//	GET  /health
//	GET  /accounts                       → 列出帳戶
//	POST /accounts                       → 建立帳戶
//	GET  /accounts/{id}                  → 查詢帳戶
//	DELETE /accounts/{id}                → 移除帳戶
//	POST /accounts/{id}/deposit          → 存款
//	POST /accounts/{id}/withdraw         → 提款
//	GET  /accounts/{id}/logs             → 交易日誌
//	GET  /accounts/{id}/remote-balance   → 查詢遠端餘額（不改變本地狀態）
//	POST /accounts/{id}/sync             → 同步遠端餘額（?retry=true 由 Synchronizer 重試）
//	POST /transfer                       → 轉帳
func (s *Server) routes(r chi.Router) {
	r.Get("/health", s.health)

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", s.listAccounts)
		r.Post("/", s.createAccount)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getAccount)
			r.Delete("/", s.removeAccount)
			r.Post("/deposit", s.deposit)
			r.Post("/withdraw", s.withdraw)
			r.Get("/logs", s.logs)
			r.Get("/remote-balance", s.remoteBalance)
			r.Post("/sync", s.synchronize)
		})
	})

	r.Post("/transfer", s.transfer)
}

// logRequests 以 zerolog 記錄每個請求的方法、路徑、狀態碼與耗時。
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		ev := s.log.Debug()
		if ww.Status() >= http.StatusInternalServerError {
			ev = s.log.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
