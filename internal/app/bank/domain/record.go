package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Record 是客戶與帳戶合併後的持久化單位，儲存層只認識這個結構
// 支票帳戶的最後交易紀錄只存在記憶體中，不寫入 Record
type Record struct {
	Client         Client
	Kind           Kind
	Holder         string
	Balance        decimal.Decimal
	AnnualFee      decimal.Decimal
	OverdraftLimit decimal.Decimal // 只有 KindChecking 使用
	InterestRate   decimal.Decimal // 只有 KindSavings 使用
}

// RecordOf 由客戶與帳戶組出 Record
func RecordOf(c Client, a Account) Record {
	rec := Record{
		Client:    c,
		Kind:      a.Kind(),
		Holder:    a.Holder(),
		Balance:   a.Balance(),
		AnnualFee: a.AnnualFee(),
	}
	switch acc := a.(type) {
	case *Checking:
		rec.OverdraftLimit = acc.OverdraftLimit()
	case *Savings:
		rec.InterestRate = acc.InterestRate()
	}
	return rec
}

// NewRecord 以預設政策為新客戶建立 Record，初始餘額為 0
func NewRecord(c Client, kind Kind) Record {
	rec := Record{
		Client:  c,
		Kind:    kind,
		Holder:  c.FullName(),
		Balance: decimal.Zero,
	}
	switch kind {
	case KindSavings:
		rec.AnnualFee = DefaultSavingsFee
		rec.InterestRate = DefaultInterestRate
	default:
		rec.Kind = KindChecking
		rec.AnnualFee = DefaultCheckingFee
		rec.OverdraftLimit = DefaultOverdraftLimit
	}
	return rec
}

// Account 依 Record 重建帳戶
//
// 參數:
//
//	n: 帳戶異動通知接收者
//
// 回傳:
//
//	Account: 重建後的帳戶
//	error: Kind 不認得或餘額違反帳戶下限時回傳 ErrMalformedRecord
func (r Record) Account(n Notifier) (Account, error) {
	if r.Client.AccountNumber <= 0 {
		return nil, fmt.Errorf("account number %d: %w", r.Client.AccountNumber, ErrMalformedRecord)
	}
	switch r.Kind {
	case KindChecking:
		if r.Balance.Add(r.OverdraftLimit).IsNegative() {
			return nil, fmt.Errorf("checking %d balance %s below overdraft limit: %w",
				r.Client.AccountNumber, r.Balance, ErrMalformedRecord)
		}
		return NewChecking(r.Client.AccountNumber, r.Holder, r.OverdraftLimit, r.AnnualFee, r.Balance, n), nil
	case KindSavings:
		if r.Balance.IsNegative() {
			return nil, fmt.Errorf("savings %d balance %s is negative: %w",
				r.Client.AccountNumber, r.Balance, ErrMalformedRecord)
		}
		return NewSavings(r.Client.AccountNumber, r.Holder, r.InterestRate, r.AnnualFee, r.Balance, n), nil
	default:
		return nil, fmt.Errorf("unknown account kind %q: %w", r.Kind, ErrMalformedRecord)
	}
}
