package file

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/domain"
)

// accountDoc 是 account.yaml 與日誌 open 事件共用的格式
// 金額一律以字串保存，避免浮點誤差
type accountDoc struct {
	AccountNumber  int64     `yaml:"account_number" json:"account_number"`
	FirstName      string    `yaml:"first_name" json:"first_name"`
	LastName       string    `yaml:"last_name" json:"last_name"`
	Email          string    `yaml:"email" json:"email"`
	Phone          string    `yaml:"phone" json:"phone"`
	Kind           string    `yaml:"kind" json:"kind"`
	Holder         string    `yaml:"holder" json:"holder"`
	Balance        string    `yaml:"balance" json:"balance"`
	AnnualFee      string    `yaml:"annual_fee" json:"annual_fee"`
	OverdraftLimit string    `yaml:"overdraft_limit,omitempty" json:"overdraft_limit,omitempty"`
	InterestRate   string    `yaml:"interest_rate,omitempty" json:"interest_rate,omitempty"`
	UpdatedAt      time.Time `yaml:"updated_at" json:"updated_at"`
}

func docOf(rec domain.Record, now time.Time) accountDoc {
	doc := accountDoc{
		AccountNumber: rec.Client.AccountNumber,
		FirstName:     rec.Client.FirstName,
		LastName:      rec.Client.LastName,
		Email:         rec.Client.Email,
		Phone:         rec.Client.Phone,
		Kind:          string(rec.Kind),
		Holder:        rec.Holder,
		Balance:       rec.Balance.String(),
		AnnualFee:     rec.AnnualFee.String(),
		UpdatedAt:     now.UTC(),
	}
	switch rec.Kind {
	case domain.KindChecking:
		doc.OverdraftLimit = rec.OverdraftLimit.String()
	case domain.KindSavings:
		doc.InterestRate = rec.InterestRate.String()
	}
	return doc
}

// record 轉回 domain.Record，任何欄位無法解析都視為 ErrMalformedRecord
func (doc accountDoc) record() (domain.Record, error) {
	kind, err := domain.ParseKind(doc.Kind)
	if err != nil {
		return domain.Record{}, fmt.Errorf("account %d: %w", doc.AccountNumber, err)
	}
	rec := domain.Record{
		Client: domain.Client{
			AccountNumber: doc.AccountNumber,
			Contact: domain.Contact{
				FirstName: doc.FirstName,
				LastName:  doc.LastName,
				Email:     doc.Email,
				Phone:     doc.Phone,
			},
		},
		Kind:   kind,
		Holder: doc.Holder,
	}

	fields := []struct {
		name     string
		raw      string
		dst      *decimal.Decimal
		optional bool
	}{
		{"balance", doc.Balance, &rec.Balance, false},
		{"annual_fee", doc.AnnualFee, &rec.AnnualFee, false},
		{"overdraft_limit", doc.OverdraftLimit, &rec.OverdraftLimit, kind != domain.KindChecking},
		{"interest_rate", doc.InterestRate, &rec.InterestRate, kind != domain.KindSavings},
	}
	for _, f := range fields {
		if f.raw == "" && f.optional {
			continue
		}
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return domain.Record{}, fmt.Errorf("account %d %s %q: %w", doc.AccountNumber, f.name, f.raw, domain.ErrMalformedRecord)
		}
		*f.dst = v
	}
	return rec, nil
}
