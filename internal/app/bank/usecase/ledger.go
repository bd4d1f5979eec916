package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/domain"
)

// LedgerStore 是客戶與餘額的持久化介面 (driven port)
// 實作: file / memory / mysql / postgres
type LedgerStore interface {
	// LoadAll 依建立順序載入所有 Record，重新載入必須是冪等的
	LoadAll(ctx context.Context) ([]domain.Record, error)
	// AppendClient 新增客戶、帳戶與初始餘額
	AppendClient(ctx context.Context, rec domain.Record) error
	// WriteRecord 覆寫聯絡資料與目前餘額
	WriteRecord(ctx context.Context, rec domain.Record) error
	// WriteBalance 只更新餘額
	WriteBalance(ctx context.Context, accountNumber int64, balance decimal.Decimal) error
	// DeleteAccountData 刪除該帳號所有持久化資料
	DeleteAccountData(ctx context.Context, accountNumber int64) error
}
