package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind 帳戶種類
type Kind string

const (
	KindChecking Kind = "checking"
	KindSavings  Kind = "savings"
)

// String 回傳顯示用名稱
func (k Kind) String() string {
	switch k {
	case KindChecking:
		return "Checking"
	case KindSavings:
		return "Savings"
	default:
		return string(k)
	}
}

// ParseKind 將儲存層的字串轉回 Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindChecking, KindSavings:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown account kind %q: %w", s, ErrMalformedRecord)
	}
}

// 預設帳戶政策
var (
	DefaultOverdraftLimit = decimal.NewFromInt(200)
	DefaultCheckingFee    = decimal.NewFromInt(100)
	DefaultInterestRate   = decimal.RequireFromString("1.5")
	DefaultSavingsFee     = decimal.NewFromInt(50)

	// SavingsMinimumBalance 儲蓄帳戶要求的最低餘額
	SavingsMinimumBalance = decimal.NewFromInt(500)
)

// Account 是支票帳戶與儲蓄帳戶共用的能力集合
// core() 未匯出，因此只有本 package 的 *Checking 與 *Savings 可以實作
type Account interface {
	Number() int64
	Holder() string
	Kind() Kind
	Balance() decimal.Decimal
	AnnualFee() decimal.Decimal
	// LastTransaction 最後一筆封存紀錄，只有支票帳戶會寫入
	LastTransaction() string

	Deposit(amount decimal.Decimal) error
	Withdraw(amount decimal.Decimal) error
	CalculateAnnualFees() decimal.Decimal
	MinimumBalanceRequired() decimal.Decimal
	Summary() string

	core() *base
}

// base 兩種帳戶共用的狀態與存款邏輯
type base struct {
	number    int64
	holder    string
	balance   decimal.Decimal
	annualFee decimal.Decimal
	lastTx    string
	channel   Channel
	notifier  Notifier
}

func newBase(number int64, holder string, annualFee, balance decimal.Decimal, channel Channel, n Notifier) base {
	if n == nil {
		n = discardNotifier{}
	}
	return base{
		number:    number,
		holder:    holder,
		balance:   balance,
		annualFee: annualFee,
		channel:   channel,
		notifier:  n,
	}
}

func (b *base) core() *base                { return b }
func (b *base) Number() int64              { return b.number }
func (b *base) Holder() string             { return b.holder }
func (b *base) Balance() decimal.Decimal   { return b.balance }
func (b *base) AnnualFee() decimal.Decimal { return b.annualFee }
func (b *base) LastTransaction() string    { return b.lastTx }

// CalculateAnnualFees 兩種帳戶目前都直接回傳年費
func (b *base) CalculateAnnualFees() decimal.Decimal {
	return b.annualFee
}

// Deposit 存款
func (b *base) Deposit(amount decimal.Decimal) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	b.balance = b.balance.Add(amount)
	b.notify(fmt.Sprintf("Deposited: %s; New Balance: %s", money(amount), money(b.balance)))
	return nil
}

// checkAmount 金額須為正數且不得小於一分
// 儲存層的欄位只保留到小數四位，顯示只到兩位
func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return ErrInvalidAmount
	}
	return nil
}

func (b *base) notify(message string) {
	b.notifier.Notify(Notification{
		Channel:       b.channel,
		AccountNumber: b.number,
		Message:       message,
	})
}

// Checking 支票帳戶，可透支到 overdraftLimit
type Checking struct {
	base
	overdraftLimit decimal.Decimal
}

// NewChecking 建立支票帳戶
//
// 參數:
//
//	number: 帳號
//	holder: 持有人顯示名稱 (建立當下的快照)
//	overdraftLimit: 透支額度
//	annualFee: 年費
//	balance: 初始餘額
//	n: 異動通知接收者，nil 表示不通知
func NewChecking(number int64, holder string, overdraftLimit, annualFee, balance decimal.Decimal, n Notifier) *Checking {
	return &Checking{
		base:           newBase(number, holder, annualFee, balance, ChannelSMS, n),
		overdraftLimit: overdraftLimit,
	}
}

func (c *Checking) Kind() Kind { return KindChecking }

// OverdraftLimit 透支額度
func (c *Checking) OverdraftLimit() decimal.Decimal { return c.overdraftLimit }

// Withdraw 提款，餘額加上透支額度必須足夠
func (c *Checking) Withdraw(amount decimal.Decimal) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if c.balance.Add(c.overdraftLimit).LessThan(amount) {
		return ErrInsufficientFunds
	}
	c.balance = c.balance.Sub(amount)
	c.notify(fmt.Sprintf("Withdrawal of %s made. New balance is %s", money(amount), money(c.balance)))
	c.lastTx = "Withdrawal: " + money(amount)
	return nil
}

// MinimumBalanceRequired 支票帳戶沒有最低餘額
func (c *Checking) MinimumBalanceRequired() decimal.Decimal {
	return decimal.Zero
}

// Summary 帳戶摘要，有封存紀錄時多一行 Last Transaction
func (c *Checking) Summary() string {
	summary := fmt.Sprintf("Account Type: %s\nAccount Number: %d\nAccount Holder: %s\nBalance: %s\nOverdraft Limit: %s",
		KindChecking, c.number, c.holder, money(c.balance), money(c.overdraftLimit))
	if c.lastTx != "" {
		summary += "\nLast Transaction: " + c.lastTx
	}
	return summary
}

// Savings 儲蓄帳戶，不可透支，可計息
type Savings struct {
	base
	interestRate decimal.Decimal
}

// NewSavings 建立儲蓄帳戶，interestRate 為百分比 (1.5 代表 1.5%)
func NewSavings(number int64, holder string, interestRate, annualFee, balance decimal.Decimal, n Notifier) *Savings {
	return &Savings{
		base:         newBase(number, holder, annualFee, balance, ChannelEmail, n),
		interestRate: interestRate,
	}
}

func (s *Savings) Kind() Kind { return KindSavings }

// InterestRate 年利率 (百分比)
func (s *Savings) InterestRate() decimal.Decimal { return s.interestRate }

// Withdraw 提款，不允許透支
func (s *Savings) Withdraw(amount decimal.Decimal) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if s.balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	s.balance = s.balance.Sub(amount)
	s.notify(fmt.Sprintf("Withdrawn: %s; New Balance: %s", money(amount), money(s.balance)))
	return nil
}

// MinimumBalanceRequired 儲蓄帳戶固定要求 500
func (s *Savings) MinimumBalanceRequired() decimal.Decimal {
	return SavingsMinimumBalance
}

// AddInterest 以目前餘額計算單利並存入，每呼叫一次就計一次 (會複利)
// 回傳本次計得的利息
func (s *Savings) AddInterest() decimal.Decimal {
	interest := s.balance.Mul(s.interestRate).Div(decimal.NewFromInt(100)).Round(2)
	if interest.IsPositive() {
		// 金額已確定為正數，Deposit 不會失敗
		_ = s.Deposit(interest)
	}
	s.notify("Interest added: " + money(interest))
	return interest
}

// Summary 帳戶摘要
func (s *Savings) Summary() string {
	return fmt.Sprintf("Account Type: %s\nAccount Number: %d\nAccount Holder: %s\nBalance: %s\nInterest Rate: %s%%",
		KindSavings, s.number, s.holder, money(s.balance), s.interestRate.String())
}

// Checkpoint 保存帳戶可變動的狀態，寫入儲存層失敗時用來回滾
type Checkpoint struct {
	account Account
	balance decimal.Decimal
	lastTx  string
}

// CheckpointOf 擷取帳戶目前狀態
func CheckpointOf(a Account) Checkpoint {
	b := a.core()
	return Checkpoint{account: a, balance: b.balance, lastTx: b.lastTx}
}

// Balance 擷取當下的餘額
func (c Checkpoint) Balance() decimal.Decimal {
	return c.balance
}

// Restore 將帳戶還原到擷取時的狀態 (不發通知)
func (c Checkpoint) Restore() {
	b := c.account.core()
	b.balance = c.balance
	b.lastTx = c.lastTx
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

var (
	_ Account = (*Checking)(nil)
	_ Account = (*Savings)(nil)
)
