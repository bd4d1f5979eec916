package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/usecase"
)

// Store 是只存在記憶體中的 LedgerStore，程式結束資料即消失
// 用於測試與 store.backend=memory
//
// 結構:
//
//	records: 帳號 -> Record
//	order: 建立順序
//	mu: RWMutex 保護上述資料
type Store struct {
	mu      sync.RWMutex
	records map[int64]domain.Record
	order   []int64
}

// NewStore 建立 Store，可帶入初始資料 (依序視為已建立的客戶)
func NewStore(seed ...domain.Record) *Store {
	s := &Store{
		records: make(map[int64]domain.Record, len(seed)),
	}
	for _, rec := range seed {
		s.put(rec)
	}
	return s
}

func (s *Store) put(rec domain.Record) {
	n := rec.Client.AccountNumber
	if _, ok := s.records[n]; !ok {
		s.order = append(s.order, n)
	}
	s.records[n] = rec
}

// LoadAll 依建立順序回傳所有 Record 的拷貝
func (s *Store) LoadAll(ctx context.Context) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Record, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.records[n])
	}
	return out, nil
}

// AppendClient 新增 Record，重複帳號會覆蓋但保留原順序
func (s *Store) AppendClient(ctx context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(rec)
	return nil
}

// WriteRecord 覆寫既有 Record
func (s *Store) WriteRecord(ctx context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.Client.AccountNumber]; !ok {
		return domain.ErrAccountNotFound
	}
	s.records[rec.Client.AccountNumber] = rec
	return nil
}

// WriteBalance 只更新餘額
func (s *Store) WriteBalance(ctx context.Context, accountNumber int64, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[accountNumber]
	if !ok {
		return domain.ErrAccountNotFound
	}
	rec.Balance = balance
	s.records[accountNumber] = rec
	return nil
}

// DeleteAccountData 刪除帳號，帳號不存在時視為成功
func (s *Store) DeleteAccountData(ctx context.Context, accountNumber int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, accountNumber)
	s.order = slices.DeleteFunc(s.order, func(n int64) bool { return n == accountNumber })
	return nil
}

var _ usecase.LedgerStore = (*Store)(nil)
