// internal/bank/registry.go

package bank

import "sync"

// Registry 是帳戶的「把手表」(handle table)：以 ID 找回 *Account，供 HTTP 層使用。
// 每個帳戶仍自行持有餘額與鎖；Registry 只保護自己的索引，不做跨帳戶簿記。
// - mu：保護 accts 與 order；不會在持有 mu 時呼叫帳戶的變更操作。
// - order：建立順序，讓 List() 的輸出穩定。
type Registry struct {
	source BalanceSource

	mu    sync.RWMutex
	accts map[string]*Account
	order []string
}

// NewRegistry 建立空白 Registry；src 為之後 Create 的帳戶共用的遠端來源。
func NewRegistry(src BalanceSource) *Registry {
	return &Registry{source: src, accts: make(map[string]*Account)}
}

// Create 以名稱與初始餘額建立並登錄帳戶；初始餘額不得為負。
func (r *Registry) Create(name string, balance int64) (*Account, error) {
	a, err := NewAccount(name, balance, r.source)
	if err != nil {
		return nil, err
	}
	r.Add(a)
	return a, nil
}

// Add 登錄一個既有帳戶；同一 ID 重複登錄時以後者為準。
func (r *Registry) Add(a *Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := a.ID()
	if _, ok := r.accts[id]; !ok {
		r.order = append(r.order, id)
	}
	r.accts[id] = a
}

// Get 依 ID 取得帳戶把手；若不存在回傳 ErrNotFound。
func (r *Registry) Get(id string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

// List 依建立順序回傳所有帳戶把手。
func (r *Registry) List() []*Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Account, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.accts[id])
	}
	return out
}

// Remove 移除帳戶登錄；帳戶物件本身仍可由持有者繼續使用。
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accts[id]; !ok {
		return ErrNotFound
	}
	delete(r.accts, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Transfer 解析兩端把手後委派給 Account.Transfer，並回傳解析出的把手，
// 讓呼叫端不必再查一次（期間帳戶可能已被移除）。
// fromID == toID 會解析為同一個指標，因此一律得到 ErrTransferFailed。
func (r *Registry) Transfer(fromID, toID string, amt int64) (from, to *Account, err error) {
	if from, err = r.Get(fromID); err != nil {
		return nil, nil, err
	}
	if to, err = r.Get(toID); err != nil {
		return nil, nil, err
	}
	if err = from.Transfer(amt, to); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
