// Package postgres 以 PostgreSQL (pgx) 保存帳本
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/usecase"
)

//go:embed 001_create_ledger.sql
var migrationSQL string

// Store 以 PostgreSQL 保存帳本，金額以 numeric 文字傳遞
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore 建立 Store 並執行資料表遷移
func NewStore(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		pool:   pool,
		logger: logger.With("component", "postgres_store"),
	}
	if _, err := pool.Exec(ctx, migrationSQL); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	s.logger.Debug("migrations completed")
	return s, nil
}

// LoadAll 依 bank_clients.id 順序載入
func (s *Store) LoadAll(ctx context.Context) ([]domain.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.account_number, c.first_name, c.last_name, c.email, c.phone,
		       a.kind, a.holder, a.balance::text, a.annual_fee::text,
		       a.overdraft_limit::text, a.interest_rate::text
		FROM bank_clients c
		JOIN bank_accounts a ON a.account_number = c.account_number
		ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var (
			rec   domain.Record
			kind  string
			money [4]string
		)
		err := rows.Scan(
			&rec.Client.AccountNumber, &rec.Client.FirstName, &rec.Client.LastName,
			&rec.Client.Email, &rec.Client.Phone,
			&kind, &rec.Holder, &money[0], &money[1], &money[2], &money[3],
		)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		if rec.Kind, err = domain.ParseKind(kind); err != nil {
			return nil, fmt.Errorf("account %d: %w", rec.Client.AccountNumber, err)
		}
		targets := []*decimal.Decimal{&rec.Balance, &rec.AnnualFee, &rec.OverdraftLimit, &rec.InterestRate}
		for i, dst := range targets {
			v, err := decimal.NewFromString(money[i])
			if err != nil {
				return nil, fmt.Errorf("account %d amount %q: %w", rec.Client.AccountNumber, money[i], domain.ErrMalformedRecord)
			}
			*dst = v
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ledger rows: %w", err)
	}
	return records, nil
}

// AppendClient 同一個 Transaction 內寫入客戶與帳戶
func (s *Store) AppendClient(ctx context.Context, rec domain.Record) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO bank_clients (account_number, first_name, last_name, email, phone)
			VALUES ($1, $2, $3, $4, $5)`,
			rec.Client.AccountNumber, rec.Client.FirstName, rec.Client.LastName,
			rec.Client.Email, rec.Client.Phone,
		)
		if err != nil {
			return fmt.Errorf("inserting client %d: %w", rec.Client.AccountNumber, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO bank_accounts (account_number, kind, holder, balance, annual_fee, overdraft_limit, interest_rate)
			VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::numeric, $7::numeric)`,
			rec.Client.AccountNumber, string(rec.Kind), rec.Holder,
			rec.Balance.String(), rec.AnnualFee.String(),
			rec.OverdraftLimit.String(), rec.InterestRate.String(),
		)
		if err != nil {
			return fmt.Errorf("inserting account %d: %w", rec.Client.AccountNumber, err)
		}
		return nil
	})
}

// WriteRecord 更新聯絡資料與餘額
func (s *Store) WriteRecord(ctx context.Context, rec domain.Record) error {
	n := rec.Client.AccountNumber
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE bank_clients SET first_name = $2, last_name = $3, email = $4, phone = $5
			WHERE account_number = $1`,
			n, rec.Client.FirstName, rec.Client.LastName, rec.Client.Email, rec.Client.Phone,
		)
		if err != nil {
			return fmt.Errorf("updating client %d: %w", n, err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrAccountNotFound
		}
		return updateBalance(ctx, tx, n, rec.Balance)
	})
}

// WriteBalance 只更新餘額
func (s *Store) WriteBalance(ctx context.Context, accountNumber int64, balance decimal.Decimal) error {
	return updateBalance(ctx, s.pool, accountNumber, balance)
}

// execer 是 *pgxpool.Pool 與 pgx.Tx 共同的 Exec
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func updateBalance(ctx context.Context, db execer, accountNumber int64, balance decimal.Decimal) error {
	tag, err := db.Exec(ctx,
		`UPDATE bank_accounts SET balance = $2::numeric, updated_at = NOW() WHERE account_number = $1`,
		accountNumber, balance.String(),
	)
	if err != nil {
		return fmt.Errorf("updating balance %d: %w", accountNumber, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// DeleteAccountData 刪除客戶 (帳戶經由 ON DELETE CASCADE 一併刪除)
func (s *Store) DeleteAccountData(ctx context.Context, accountNumber int64) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM bank_clients WHERE account_number = $1`, accountNumber); err != nil {
		return fmt.Errorf("deleting account %d: %w", accountNumber, err)
	}
	return nil
}

var _ usecase.LedgerStore = (*Store)(nil)
