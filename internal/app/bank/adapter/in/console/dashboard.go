// Package console 是終端機選單介面 (driving adapter)
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/adapter/out/csvexport"
	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/domain"
)

// Bank 是 Dashboard 需要的銀行操作，由 *usecase.BankManager 實作
type Bank interface {
	AddClient(ctx context.Context, client domain.Client, kind domain.Kind) (domain.Client, error)
	RemoveClient(ctx context.Context, accountNumber int64) error
	UpdateClient(ctx context.Context, accountNumber int64, contact domain.Contact) error
	Deposit(ctx context.Context, accountNumber int64, amount decimal.Decimal) error
	Withdraw(ctx context.Context, accountNumber int64, amount decimal.Decimal) error
	TransferFunds(ctx context.Context, from, to int64, amount decimal.Decimal) error
	AddInterest(ctx context.Context, accountNumber int64) (decimal.Decimal, error)
	GetAccountBalance(accountNumber int64) (decimal.Decimal, error)
	FindClientByAccountNumber(accountNumber int64) (domain.Client, bool)
	FindClientByName(name string) []domain.Client
	ListAllClients() []domain.Client
	Records() []domain.Record
	PrintAccountSummaries(w io.Writer) error
}

const menu = `
--- Bank System Menu ---
1. List All Clients
2. Add New Client
3. Remove Client
4. Update Client Details
5. Print Account Summaries
6. Deposit Funds
7. Withdraw Funds
8. Transfer Funds
9. Export Data to CSV
10. Add Interest (Savings)
11. Find Client by Name
0. Exit
`

const accountTypeQuestion = "Account Type (1 for Checking, 2 for Savings)"

// Dashboard 終端機選單
type Dashboard struct {
	bank       Bank
	input      *UserInput
	out        io.Writer
	exportPath string
	logger     *slog.Logger
}

// Option 定義 Dashboard 的配置選項函數
type Option func(*Dashboard)

// WithExportPath 設定 CSV 匯出路徑
func WithExportPath(path string) Option {
	return func(d *Dashboard) {
		d.exportPath = path
	}
}

// WithLogger 設定 logger
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dashboard) {
		d.logger = logger
	}
}

// NewDashboard 建立 Dashboard
func NewDashboard(bank Bank, in io.Reader, out io.Writer, opts ...Option) *Dashboard {
	d := &Dashboard{
		bank:       bank,
		input:      NewUserInput(in, out),
		out:        out,
		exportPath: "data/clients.csv",
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.logger = d.logger.With("component", "dashboard")
	return d
}

// Run 顯示選單並處理輸入，直到使用者選 0、輸入結束或 ctx 取消
func (d *Dashboard) Run(ctx context.Context) error {
	handlers := map[string]func(context.Context) error{
		"1":  d.listAllClients,
		"2":  d.addNewClient,
		"3":  d.removeClient,
		"4":  d.updateClientDetails,
		"5":  d.printAccountSummaries,
		"6":  d.depositFunds,
		"7":  d.withdrawFunds,
		"8":  d.transferFunds,
		"9":  d.exportToCSV,
		"10": d.addInterest,
		"11": d.findClientByName,
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.println(menu)
		choice, err := d.input.ReadLine("Enter choice: ")
		if errors.Is(err, io.EOF) {
			d.println("\nExiting...")
			return nil
		}
		if err != nil {
			return err
		}
		if choice == "0" {
			d.println("Exiting...")
			return nil
		}

		handler, ok := handlers[choice]
		if !ok {
			d.println("Invalid choice, please try again.")
			continue
		}
		if err := handler(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				d.println("\nExiting...")
				return nil
			}
			return err
		}
	}
}

func (d *Dashboard) println(a ...any) {
	_, _ = fmt.Fprintln(d.out, a...)
}

func (d *Dashboard) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(d.out, format, a...)
}

// result 將 BankManager 的 error 轉成成功/失敗訊息
func (d *Dashboard) result(err error, success, failure string) {
	if err != nil {
		d.printf("%s: %v\n", failure, err)
		if errors.Is(err, domain.ErrPersistFailed) {
			d.logger.Error("operation not persisted", "error", err)
		}
		return
	}
	d.println(success)
}

func (d *Dashboard) listAllClients(context.Context) error {
	d.println("\nListing All Clients:")
	for _, c := range d.bank.ListAllClients() {
		d.println(c.String())
	}
	return nil
}

func (d *Dashboard) addNewClient(ctx context.Context) error {
	answers, err := d.input.Ask("First Name", "Last Name", "Email", "Phone", accountTypeQuestion)
	if err != nil {
		return err
	}
	kind := domain.KindChecking
	if answers.Get(accountTypeQuestion) == "2" {
		kind = domain.KindSavings
	}
	client := domain.NewClient(answers.Get("First Name"), answers.Get("Last Name"), answers.Get("Email"), answers.Get("Phone"))

	added, err := d.bank.AddClient(ctx, client, kind)
	if err != nil {
		d.printf("Failed to add client: %v\n", err)
		return nil
	}
	d.printf("New client added successfully. Account Number: %d (%s)\n", added.AccountNumber, kind)
	return nil
}

func (d *Dashboard) removeClient(ctx context.Context) error {
	n, ok, err := d.askAccountNumber("Account Number")
	if err != nil || !ok {
		return err
	}
	d.result(d.bank.RemoveClient(ctx, n), "Client removed successfully.", "Failed to remove client")
	return nil
}

// updateClientDetails 空白回答保留原值
func (d *Dashboard) updateClientDetails(ctx context.Context) error {
	n, ok, err := d.askAccountNumber("Account Number")
	if err != nil || !ok {
		return err
	}
	current, found := d.bank.FindClientByAccountNumber(n)
	if !found {
		d.printf("Failed to update client: %v\n", domain.ErrAccountNotFound)
		return nil
	}

	fields := []struct {
		label string
		dst   *string
	}{
		{"Updated First Name", &current.FirstName},
		{"Updated Last Name", &current.LastName},
		{"Updated Email", &current.Email},
		{"Updated Phone", &current.Phone},
	}
	for _, f := range fields {
		v, err := d.input.ReadLine(fmt.Sprintf("%s [%s]: ", f.label, *f.dst))
		if err != nil {
			return err
		}
		if v != "" {
			*f.dst = v
		}
	}
	d.result(d.bank.UpdateClient(ctx, n, current.Contact), "Client updated successfully.", "Failed to update client")
	return nil
}

func (d *Dashboard) printAccountSummaries(context.Context) error {
	if err := d.bank.PrintAccountSummaries(d.out); err != nil {
		return fmt.Errorf("printing summaries: %w", err)
	}
	return nil
}

func (d *Dashboard) depositFunds(ctx context.Context) error {
	n, amount, ok, err := d.askAccountAndAmount("Account Number", "Amount to Deposit")
	if err != nil || !ok {
		return err
	}
	d.result(d.bank.Deposit(ctx, n, amount), "Deposit successful.", "Deposit failed")
	return nil
}

func (d *Dashboard) withdrawFunds(ctx context.Context) error {
	n, amount, ok, err := d.askAccountAndAmount("Account Number", "Amount to Withdraw")
	if err != nil || !ok {
		return err
	}
	d.result(d.bank.Withdraw(ctx, n, amount), "Withdrawal successful.", "Withdrawal failed")
	return nil
}

func (d *Dashboard) transferFunds(ctx context.Context) error {
	from, ok, err := d.askAccountNumber("Source Account Number")
	if err != nil || !ok {
		return err
	}
	to, amount, ok, err := d.askAccountAndAmount("Destination Account Number", "Amount to Transfer")
	if err != nil || !ok {
		return err
	}
	d.result(d.bank.TransferFunds(ctx, from, to, amount), "Transfer successful.", "Transfer failed")
	return nil
}

func (d *Dashboard) exportToCSV(context.Context) error {
	records := d.bank.Records()
	if err := csvexport.WriteFile(d.exportPath, records); err != nil {
		d.printf("Export failed: %v\n", err)
		return nil
	}
	d.printf("Exported %d clients to %s\n", len(records), d.exportPath)
	return nil
}

func (d *Dashboard) addInterest(ctx context.Context) error {
	n, ok, err := d.askAccountNumber("Account Number")
	if err != nil || !ok {
		return err
	}
	interest, err := d.bank.AddInterest(ctx, n)
	if err != nil {
		d.printf("Failed to add interest: %v\n", err)
		return nil
	}
	balance, _ := d.bank.GetAccountBalance(n)
	d.printf("Interest of %s added. New balance: %s\n", interest.StringFixed(2), balance.StringFixed(2))
	return nil
}

func (d *Dashboard) findClientByName(context.Context) error {
	name, err := d.input.ReadLine("Full Name: ")
	if err != nil {
		return err
	}
	found := d.bank.FindClientByName(name)
	if len(found) == 0 {
		d.println("No client found.")
		return nil
	}
	for _, c := range found {
		d.println(c.String())
	}
	return nil
}

// askAccountNumber 讀取帳號，格式錯誤時輸出訊息並回傳 ok=false
func (d *Dashboard) askAccountNumber(question string) (int64, bool, error) {
	raw, err := d.input.ReadLine(question + ": ")
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		d.printf("Invalid account number %q.\n", raw)
		return 0, false, nil
	}
	return n, true, nil
}

func (d *Dashboard) askAccountAndAmount(accountQuestion, amountQuestion string) (int64, decimal.Decimal, bool, error) {
	n, ok, err := d.askAccountNumber(accountQuestion)
	if err != nil || !ok {
		return 0, decimal.Zero, false, err
	}
	raw, err := d.input.ReadLine(amountQuestion + ": ")
	if err != nil {
		return 0, decimal.Zero, false, err
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		d.printf("Invalid amount %q.\n", raw)
		return 0, decimal.Zero, false, nil
	}
	return n, amount, true, nil
}
