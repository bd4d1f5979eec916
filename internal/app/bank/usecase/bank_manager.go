package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/domain"
)

// 帳號範圍 [1_000_000_000, 10_999_999_999)
const (
	accountNumberMin  int64 = 1_000_000_000
	accountNumberSpan int64 = 9_999_999_999
)

// NumberSource 帳號亂數來源，*rand.Rand 直接符合
type NumberSource interface {
	Int64N(n int64) int64
}

// entry 客戶與其帳戶綁在一起，避免兩份清單不同步
type entry struct {
	client  domain.Client
	account domain.Account
}

// BankManager 是核心業務邏輯層
//
// 結構:
//
//	entries: 帳號 -> 客戶/帳戶
//	order: 建立順序，列表與摘要都依此順序輸出
//	mu: 保護 entries/order 以及對 store 的呼叫
//	store: 持久化介面
type BankManager struct {
	mu       sync.RWMutex
	entries  map[int64]*entry
	order    []int64
	store    LedgerStore
	numbers  NumberSource
	notifier domain.Notifier
	logger   *slog.Logger
}

// Option 定義 BankManager 的配置選項函數
type Option func(*BankManager)

// WithLogger 設定 logger
func WithLogger(logger *slog.Logger) Option {
	return func(m *BankManager) {
		m.logger = logger
	}
}

// WithNotifier 設定帳戶異動通知的接收者
func WithNotifier(n domain.Notifier) Option {
	return func(m *BankManager) {
		m.notifier = n
	}
}

// WithNumberSource 設定帳號亂數來源 (測試時注入固定序列)
func WithNumberSource(src NumberSource) Option {
	return func(m *BankManager) {
		m.numbers = src
	}
}

// NewBankManager 建立 BankManager 並從 store 載入所有客戶
//
// 參數:
//
//	ctx: 上下文
//	store: 持久化實作
//	opts: 可選配置
//
// 回傳:
//
//	*BankManager: BankManager 實例
//	error: 載入錯誤 (如資料損毀)
func NewBankManager(ctx context.Context, store LedgerStore, opts ...Option) (*BankManager, error) {
	m := &BankManager{
		entries: make(map[int64]*entry),
		store:   store,
		numbers: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if err := m.loadFromStore(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// loadFromStore 只有 NewBankManager 呼叫，無需 Lock
func (m *BankManager) loadFromStore(ctx context.Context) error {
	records, err := m.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}
	for _, rec := range records {
		if _, dup := m.entries[rec.Client.AccountNumber]; dup {
			return fmt.Errorf("duplicate account number %d: %w", rec.Client.AccountNumber, domain.ErrMalformedRecord)
		}
		acc, err := rec.Account(m.notifier)
		if err != nil {
			return err
		}
		m.insert(rec.Client, acc)
	}
	m.logger.Info("ledger loaded", "accounts", len(records))
	return nil
}

func (m *BankManager) insert(c domain.Client, acc domain.Account) {
	m.entries[c.AccountNumber] = &entry{client: c, account: acc}
	m.order = append(m.order, c.AccountNumber)
}

func (m *BankManager) remove(accountNumber int64) {
	delete(m.entries, accountNumber)
	if i := slices.Index(m.order, accountNumber); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
}

// generateAccountNumber 產生尚未使用的帳號，碰撞時重抽
// 呼叫端必須持有寫鎖
func (m *BankManager) generateAccountNumber() int64 {
	for {
		n := accountNumberMin + m.numbers.Int64N(accountNumberSpan)
		if _, used := m.entries[n]; !used {
			return n
		}
		m.logger.Debug("account number collision, retrying", "account_number", n)
	}
}

// AddClient 為客戶指派新帳號並開立指定種類的帳戶 (預設政策、餘額 0)
//
// 回傳:
//
//	domain.Client: 已指派帳號的客戶
//	error: 寫入 store 失敗 (此時不會留下任何記憶體狀態)
func (m *BankManager) AddClient(ctx context.Context, client domain.Client, kind domain.Kind) (domain.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client.AccountNumber = m.generateAccountNumber()
	rec := domain.NewRecord(client, kind)
	acc, err := rec.Account(m.notifier)
	if err != nil {
		return domain.Client{}, err
	}
	m.insert(client, acc)

	if err := m.store.AppendClient(ctx, rec); err != nil {
		m.remove(client.AccountNumber)
		return domain.Client{}, m.persistFailed("append client", client.AccountNumber, err)
	}

	m.logger.Info("client added", "account_number", client.AccountNumber, "kind", rec.Kind)
	return client, nil
}

// RemoveClient 同時移除客戶與帳戶，並刪除持久化資料
func (m *BankManager) RemoveClient(ctx context.Context, accountNumber int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[accountNumber]; !ok {
		return domain.ErrAccountNotFound
	}
	if err := m.store.DeleteAccountData(ctx, accountNumber); err != nil {
		return m.persistFailed("delete account data", accountNumber, err)
	}
	m.remove(accountNumber)

	m.logger.Info("client removed", "account_number", accountNumber)
	return nil
}

// UpdateClient 更新聯絡資料並連同目前餘額重新寫入
// 帳號、餘額與帳戶持有人快照不會被修改
func (m *BankManager) UpdateClient(ctx context.Context, accountNumber int64, contact domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[accountNumber]
	if !ok {
		return domain.ErrAccountNotFound
	}
	previous := e.client.Contact
	e.client.Contact = contact

	if err := m.store.WriteRecord(ctx, domain.RecordOf(e.client, e.account)); err != nil {
		e.client.Contact = previous
		return m.persistFailed("write record", accountNumber, err)
	}

	m.logger.Info("client updated", "account_number", accountNumber)
	return nil
}

// Deposit 存款，成功後寫入新餘額
func (m *BankManager) Deposit(ctx context.Context, accountNumber int64, amount decimal.Decimal) error {
	return m.mutate(ctx, accountNumber, "deposit", func(acc domain.Account) error {
		return acc.Deposit(amount)
	})
}

// Withdraw 提款，成功後寫入新餘額
func (m *BankManager) Withdraw(ctx context.Context, accountNumber int64, amount decimal.Decimal) error {
	return m.mutate(ctx, accountNumber, "withdraw", func(acc domain.Account) error {
		return acc.Withdraw(amount)
	})
}

// AddInterest 為儲蓄帳戶計息並寫入新餘額
func (m *BankManager) AddInterest(ctx context.Context, accountNumber int64) (decimal.Decimal, error) {
	var interest decimal.Decimal
	err := m.mutate(ctx, accountNumber, "add interest", func(acc domain.Account) error {
		savings, ok := acc.(*domain.Savings)
		if !ok {
			return domain.ErrNotSavings
		}
		interest = savings.AddInterest()
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return interest, nil
}

// mutate 執行單一帳戶異動，寫入失敗時回滾
// 通知在寫入成功後才送出
func (m *BankManager) mutate(ctx context.Context, accountNumber int64, op string, fn func(acc domain.Account) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[accountNumber]
	if !ok {
		return domain.ErrAccountNotFound
	}
	cp := domain.CheckpointOf(e.account)
	outbox := domain.HoldNotifications(e.account)
	if err := fn(e.account); err != nil {
		outbox.Discard()
		return err
	}
	if err := m.store.WriteBalance(ctx, accountNumber, e.account.Balance()); err != nil {
		outbox.Discard()
		cp.Restore()
		return m.persistFailed(op, accountNumber, err)
	}
	outbox.Flush()

	m.logger.Debug("balance updated", "op", op, "account_number", accountNumber, "balance", e.account.Balance())
	return nil
}

// TransferFunds 轉帳: 先從來源提款，失敗則整筆中止；成功後存入目標並寫入雙方餘額
// 任何失敗都不會造成只扣款未入帳
func (m *BankManager) TransferFunds(ctx context.Context, from, to int64, amount decimal.Decimal) error {
	if from == to {
		return domain.ErrSameAccount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.entries[from]
	if !ok {
		return domain.ErrAccountNotFound
	}
	dst, ok := m.entries[to]
	if !ok {
		return domain.ErrAccountNotFound
	}

	srcCP := domain.CheckpointOf(src.account)
	dstCP := domain.CheckpointOf(dst.account)
	srcOut := domain.HoldNotifications(src.account)
	dstOut := domain.HoldNotifications(dst.account)
	rollback := func() {
		srcOut.Discard()
		dstOut.Discard()
		srcCP.Restore()
		dstCP.Restore()
	}

	if err := src.account.Withdraw(amount); err != nil {
		rollback()
		return err
	}
	if err := dst.account.Deposit(amount); err != nil {
		rollback()
		return err
	}

	if err := m.store.WriteBalance(ctx, from, src.account.Balance()); err != nil {
		rollback()
		return m.persistFailed("transfer", from, err)
	}
	if err := m.store.WriteBalance(ctx, to, dst.account.Balance()); err != nil {
		rollback()
		// 來源的新餘額已經寫入，盡力寫回舊值
		if rbErr := m.store.WriteBalance(ctx, from, srcCP.Balance()); rbErr != nil {
			m.logger.Error("failed to restore source balance after transfer",
				"account_number", from, "balance", srcCP.Balance(), "error", rbErr)
		}
		return m.persistFailed("transfer", to, err)
	}

	srcOut.Flush()
	dstOut.Flush()
	m.logger.Info("funds transferred", "from", from, "to", to, "amount", amount)
	return nil
}

func (m *BankManager) persistFailed(op string, accountNumber int64, err error) error {
	m.logger.Error("persist failed, in-memory change rolled back",
		"op", op, "account_number", accountNumber, "error", err)
	return fmt.Errorf("%s %d: %w: %w", op, accountNumber, domain.ErrPersistFailed, err)
}

// GetAccountBalance 取得帳戶餘額
func (m *BankManager) GetAccountBalance(accountNumber int64) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[accountNumber]
	if !ok {
		return decimal.Zero, domain.ErrAccountNotFound
	}
	return e.account.Balance(), nil
}

// FindAccountByNumber 依帳號取得帳戶快照
// 回傳值拷貝，異動一律經由 BankManager 才會寫入 store
func (m *BankManager) FindAccountByNumber(accountNumber int64) (domain.Record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[accountNumber]
	if !ok {
		return domain.Record{}, false
	}
	return domain.RecordOf(e.client, e.account), true
}

// FindClientByAccountNumber 依帳號取得客戶 (值拷貝)
func (m *BankManager) FindClientByAccountNumber(accountNumber int64) (domain.Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[accountNumber]
	if !ok {
		return domain.Client{}, false
	}
	return e.client, true
}

// FindClientByName 以全名 (不分大小寫) 搜尋，可能有多筆
func (m *BankManager) FindClientByName(name string) []domain.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = strings.TrimSpace(name)
	var found []domain.Client
	for _, n := range m.order {
		c := m.entries[n].client
		if strings.EqualFold(c.FullName(), name) {
			found = append(found, c)
		}
	}
	return found
}

// ListAllClients 依建立順序列出所有客戶
func (m *BankManager) ListAllClients() []domain.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	clients := make([]domain.Client, 0, len(m.order))
	for _, n := range m.order {
		clients = append(clients, m.entries[n].client)
	}
	return clients
}

// Records 依建立順序回傳所有 Record 快照 (匯出 CSV 用)
func (m *BankManager) Records() []domain.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records := make([]domain.Record, 0, len(m.order))
	for _, n := range m.order {
		e := m.entries[n]
		records = append(records, domain.RecordOf(e.client, e.account))
	}
	return records
}

// PrintAccountSummaries 依建立順序輸出每個帳戶的摘要
func (m *BankManager) PrintAccountSummaries(w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var errs []error
	for _, n := range m.order {
		if _, err := fmt.Fprintf(w, "%s\n\n", m.entries[n].account.Summary()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
