package mysql

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/mysql"
)

// sqlClient 對應資料庫的 bank_clients 表
// ID 自動遞增，用來保留建立順序
type sqlClient struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	AccountNumber int64  `gorm:"uniqueIndex;not null"`
	FirstName     string `gorm:"size:128"`
	LastName      string `gorm:"size:128"`
	Email         string `gorm:"size:255"`
	Phone         string `gorm:"size:64"`
	CreatedAt     int64  `gorm:"autoCreateTime:milli"`
}

func (*sqlClient) TableName() string {
	return "bank_clients"
}

// sqlAccount 對應資料庫的 bank_accounts 表
type sqlAccount struct {
	AccountNumber  int64           `gorm:"primaryKey;autoIncrement:false"`
	Kind           string          `gorm:"size:16;not null"`
	Holder         string          `gorm:"size:256"`
	Balance        decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	AnnualFee      decimal.Decimal `gorm:"type:decimal(20,4);not null"`
	OverdraftLimit decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	InterestRate   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	UpdatedAt      int64           `gorm:"autoUpdateTime:milli"` // 自動更新時間
}

func (*sqlAccount) TableName() string {
	return "bank_accounts"
}

// ledgerRow 是 LoadAll join 之後的結果
type ledgerRow struct {
	AccountNumber  int64
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Kind           string
	Holder         string
	Balance        decimal.Decimal
	AnnualFee      decimal.Decimal
	OverdraftLimit decimal.Decimal
	InterestRate   decimal.Decimal
}

// Store 以 MySQL (GORM) 保存帳本
type Store struct {
	client *mysql.Client
	logger *slog.Logger
}

// NewStore 建立 Store 並自動建立/更新資料表
func NewStore(ctx context.Context, client *mysql.Client, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		client: client,
		logger: logger.With("component", "mysql_store"),
	}
	if err := client.DB().WithContext(ctx).AutoMigrate(&sqlClient{}, &sqlAccount{}); err != nil {
		return nil, fmt.Errorf("migrating ledger tables: %w", err)
	}
	return s, nil
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.client.DB().WithContext(ctx)
}

// LoadAll 依 bank_clients.id 順序載入
func (s *Store) LoadAll(ctx context.Context) ([]domain.Record, error) {
	var rows []ledgerRow
	err := s.db(ctx).
		Table("bank_clients AS c").
		Select("c.account_number, c.first_name, c.last_name, c.email, c.phone, " +
			"a.kind, a.holder, a.balance, a.annual_fee, a.overdraft_limit, a.interest_rate").
		Joins("JOIN bank_accounts AS a ON a.account_number = c.account_number").
		Order("c.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("loading ledger: %w", err)
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		kind, err := domain.ParseKind(row.Kind)
		if err != nil {
			return nil, fmt.Errorf("account %d: %w", row.AccountNumber, err)
		}
		records = append(records, domain.Record{
			Client: domain.Client{
				AccountNumber: row.AccountNumber,
				Contact: domain.Contact{
					FirstName: row.FirstName,
					LastName:  row.LastName,
					Email:     row.Email,
					Phone:     row.Phone,
				},
			},
			Kind:           kind,
			Holder:         row.Holder,
			Balance:        row.Balance,
			AnnualFee:      row.AnnualFee,
			OverdraftLimit: row.OverdraftLimit,
			InterestRate:   row.InterestRate,
		})
	}
	return records, nil
}

// AppendClient 同一個 Transaction 內寫入客戶與帳戶
func (s *Store) AppendClient(ctx context.Context, rec domain.Record) error {
	client, account := rowsOf(rec)
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&client).Error; err != nil {
			return err
		}
		return tx.Create(&account).Error
	})
	if err != nil {
		return fmt.Errorf("inserting account %d: %w", rec.Client.AccountNumber, err)
	}
	return nil
}

// WriteRecord 更新聯絡資料與餘額
func (s *Store) WriteRecord(ctx context.Context, rec domain.Record) error {
	n := rec.Client.AccountNumber
	return s.db(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&sqlClient{}).Where("account_number = ?", n).Updates(map[string]any{
			"first_name": rec.Client.FirstName,
			"last_name":  rec.Client.LastName,
			"email":      rec.Client.Email,
			"phone":      rec.Client.Phone,
		})
		if res.Error != nil {
			return fmt.Errorf("updating client %d: %w", n, res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrAccountNotFound
		}
		return updateBalance(tx, n, rec.Balance)
	})
}

// WriteBalance 只更新餘額
func (s *Store) WriteBalance(ctx context.Context, accountNumber int64, balance decimal.Decimal) error {
	return updateBalance(s.db(ctx), accountNumber, balance)
}

func updateBalance(tx *gorm.DB, accountNumber int64, balance decimal.Decimal) error {
	res := tx.Model(&sqlAccount{}).Where("account_number = ?", accountNumber).Updates(map[string]any{
		"balance":    balance,
		"updated_at": time.Now().UnixMilli(),
	})
	if res.Error != nil {
		return fmt.Errorf("updating balance %d: %w", accountNumber, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// DeleteAccountData 刪除客戶與帳戶，帳號不存在時視為成功
func (s *Store) DeleteAccountData(ctx context.Context, accountNumber int64) error {
	err := s.db(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_number = ?", accountNumber).Delete(&sqlAccount{}).Error; err != nil {
			return err
		}
		return tx.Where("account_number = ?", accountNumber).Delete(&sqlClient{}).Error
	})
	if err != nil {
		return fmt.Errorf("deleting account %d: %w", accountNumber, err)
	}
	s.logger.Debug("account rows deleted", "account_number", accountNumber)
	return nil
}

func rowsOf(rec domain.Record) (sqlClient, sqlAccount) {
	return sqlClient{
			AccountNumber: rec.Client.AccountNumber,
			FirstName:     rec.Client.FirstName,
			LastName:      rec.Client.LastName,
			Email:         rec.Client.Email,
			Phone:         rec.Client.Phone,
		}, sqlAccount{
			AccountNumber:  rec.Client.AccountNumber,
			Kind:           string(rec.Kind),
			Holder:         rec.Holder,
			Balance:        rec.Balance,
			AnnualFee:      rec.AnnualFee,
			OverdraftLimit: rec.OverdraftLimit,
			InterestRate:   rec.InterestRate,
		}
}

var _ usecase.LedgerStore = (*Store)(nil)
