package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

const accountFileName = "account.yaml"

// 日誌事件種類
const (
	opOpen  = "open"
	opClose = "close"
)

// journalEntry 客戶清單日誌的一行
type journalEntry struct {
	ID            uuid.UUID   `json:"id"`
	Op            string      `json:"op"`
	AccountNumber int64       `json:"account_number"`
	At            time.Time   `json:"at"`
	Record        *accountDoc `json:"record,omitempty"`
}

// Store 以檔案保存帳本
//
// 結構:
//
//	journal: 客戶開戶/銷戶日誌 (clients.jsonl)，只會 append
//	dataDir: 每個帳號一個目錄，內含最新狀態 account.yaml
//	docs: 目前存活帳號的最新狀態快取，寫入時以此為底
type Store struct {
	mu      sync.Mutex
	journal *wal.WAL
	dataDir string
	docs    map[int64]accountDoc
	logger  *slog.Logger
	now     func() time.Time
}

// Option 定義 Store 的配置選項函數
type Option func(*Store)

// WithLogger 設定 logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock 設定時間來源 (測試用)
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore 開啟客戶日誌並建立資料目錄
//
// 參數:
//
//	clientsFile: 客戶日誌路徑
//	dataDir: 帳戶資料根目錄
//
// 回傳:
//
//	*Store: Store 實例
//	error: 開檔或建目錄失敗
func NewStore(clientsFile, dataDir string, opts ...Option) (*Store, error) {
	journal, err := wal.Open(clientsFile)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, wal.FileModeDir); err != nil {
		_ = journal.Close()
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{
		journal: journal,
		dataDir: dataDir,
		docs:    make(map[int64]accountDoc),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "file_store")
	return s, nil
}

// Close 關閉日誌檔
func (s *Store) Close() error {
	return s.journal.Close()
}

// LoadAll 重播日誌取得存活帳號，再讀取各自的 account.yaml
// account.yaml 不存在時退回日誌中的開戶紀錄
func (s *Store) LoadAll(ctx context.Context) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, opened, err := s.replay()
	if err != nil {
		return nil, err
	}

	docs := make(map[int64]accountDoc, len(order))
	records := make([]domain.Record, 0, len(order))
	for _, n := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := s.readAccountFile(n)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			s.logger.Warn("account file missing, using journal record", "account_number", n)
			doc = opened[n]
		case err != nil:
			return nil, err
		}
		if doc.AccountNumber != n {
			return nil, fmt.Errorf("account file for %d holds %d: %w", n, doc.AccountNumber, domain.ErrMalformedRecord)
		}
		rec, err := doc.record()
		if err != nil {
			return nil, err
		}
		docs[n] = doc
		records = append(records, rec)
	}
	s.docs = docs

	s.logger.Debug("journal replayed", "accounts", len(records))
	return records, nil
}

// replay 回傳存活帳號 (開戶順序) 與各帳號的開戶紀錄
// 重複的事件 ID 只套用一次
func (s *Store) replay() ([]int64, map[int64]accountDoc, error) {
	seen := make(map[uuid.UUID]struct{})
	opened := make(map[int64]accountDoc)
	var order []int64

	err := s.journal.Replay(func(line int, raw json.RawMessage) error {
		var e journalEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("journal entry %d: %w", line, domain.ErrMalformedRecord)
		}
		if e.ID == uuid.Nil {
			return fmt.Errorf("journal entry %d: missing id: %w", line, domain.ErrMalformedRecord)
		}
		if _, dup := seen[e.ID]; dup {
			s.logger.Debug("skipping duplicated journal entry", "id", e.ID, "line", line)
			return nil
		}
		seen[e.ID] = struct{}{}

		switch e.Op {
		case opOpen:
			if e.Record == nil || e.Record.AccountNumber != e.AccountNumber {
				return fmt.Errorf("journal entry %d: open without matching record: %w", line, domain.ErrMalformedRecord)
			}
			if _, live := opened[e.AccountNumber]; live {
				return fmt.Errorf("journal entry %d: account %d opened twice: %w", line, e.AccountNumber, domain.ErrMalformedRecord)
			}
			opened[e.AccountNumber] = *e.Record
			order = append(order, e.AccountNumber)
		case opClose:
			delete(opened, e.AccountNumber)
			for i, n := range order {
				if n == e.AccountNumber {
					order = append(order[:i], order[i+1:]...)
					break
				}
			}
		default:
			return fmt.Errorf("journal entry %d: unknown op %q: %w", line, e.Op, domain.ErrMalformedRecord)
		}
		return nil
	})
	if errors.Is(err, wal.ErrCorrupt) {
		err = fmt.Errorf("%w: %w", domain.ErrMalformedRecord, err)
	}
	return order, opened, err
}

// AppendClient 先寫 account.yaml 再寫開戶日誌
// 日誌寫入失敗時清掉帳戶目錄，避免留下半套資料
func (s *Store) AppendClient(ctx context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := rec.Client.AccountNumber
	doc := docOf(rec, s.now())
	if err := s.writeAccountFile(doc); err != nil {
		return err
	}
	entry := journalEntry{
		ID:            uuid.New(),
		Op:            opOpen,
		AccountNumber: n,
		At:            doc.UpdatedAt,
		Record:        &doc,
	}
	if err := s.journal.Append(entry); err != nil {
		_ = os.RemoveAll(s.accountDir(n))
		return fmt.Errorf("append journal: %w", err)
	}
	s.docs[n] = doc
	return nil
}

// WriteRecord 覆寫聯絡資料與餘額
func (s *Store) WriteRecord(ctx context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := rec.Client.AccountNumber
	if _, ok := s.docs[n]; !ok {
		return domain.ErrAccountNotFound
	}
	doc := docOf(rec, s.now())
	if err := s.writeAccountFile(doc); err != nil {
		return err
	}
	s.docs[n] = doc
	return nil
}

// WriteBalance 只更新 account.yaml 中的餘額
func (s *Store) WriteBalance(ctx context.Context, accountNumber int64, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[accountNumber]
	if !ok {
		return domain.ErrAccountNotFound
	}
	doc.Balance = balance.String()
	doc.UpdatedAt = s.now().UTC()
	if err := s.writeAccountFile(doc); err != nil {
		return err
	}
	s.docs[accountNumber] = doc
	return nil
}

// DeleteAccountData 寫入銷戶日誌後刪除帳戶目錄
// 目錄刪除失敗只記錄 log，帳號在重播時已不存在
func (s *Store) DeleteAccountData(ctx context.Context, accountNumber int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[accountNumber]; !ok {
		return nil
	}
	entry := journalEntry{
		ID:            uuid.New(),
		Op:            opClose,
		AccountNumber: accountNumber,
		At:            s.now().UTC(),
	}
	if err := s.journal.Append(entry); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	delete(s.docs, accountNumber)

	if err := os.RemoveAll(s.accountDir(accountNumber)); err != nil {
		s.logger.Warn("failed to remove account dir", "account_number", accountNumber, "error", err)
	}
	return nil
}

func (s *Store) accountDir(accountNumber int64) string {
	return filepath.Join(s.dataDir, strconv.FormatInt(accountNumber, 10))
}

func (s *Store) readAccountFile(accountNumber int64) (accountDoc, error) {
	path := filepath.Join(s.accountDir(accountNumber), accountFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return accountDoc{}, err
	}
	var doc accountDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return accountDoc{}, fmt.Errorf("parse %s: %w", path, domain.ErrMalformedRecord)
	}
	return doc, nil
}

// writeAccountFile 先寫暫存檔再 rename，讀者不會看到寫到一半的檔案
func (s *Store) writeAccountFile(doc accountDoc) error {
	dir := s.accountDir(doc.AccountNumber)
	if err := os.MkdirAll(dir, wal.FileModeDir); err != nil {
		return fmt.Errorf("create account dir: %w", err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode account %d: %w", doc.AccountNumber, err)
	}

	tmp, err := os.CreateTemp(dir, accountFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write account %d: %w", doc.AccountNumber, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync account %d: %w", doc.AccountNumber, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close account %d: %w", doc.AccountNumber, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, accountFileName)); err != nil {
		return fmt.Errorf("rename account %d: %w", doc.AccountNumber, err)
	}
	return nil
}

var _ usecase.LedgerStore = (*Store)(nil)
