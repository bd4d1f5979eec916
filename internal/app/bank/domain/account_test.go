package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	got []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.got = append(r.got, n)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestChecking(n Notifier) *Checking {
	return NewChecking(1000000001, "Ada Lovelace", DefaultOverdraftLimit, DefaultCheckingFee, decimal.Zero, n)
}

func newTestSavings(balance string, n Notifier) *Savings {
	return NewSavings(1000000002, "Alan Turing", DefaultInterestRate, DefaultSavingsFee, d(balance), n)
}

func TestCheckingOverdraftScenario(t *testing.T) {
	notes := &recordingNotifier{}
	acc := newTestChecking(notes)

	require.NoError(t, acc.Withdraw(d("150")))
	assert.True(t, acc.Balance().Equal(d("-150")))
	assert.Equal(t, "Withdrawal: 150.00", acc.LastTransaction())

	err := acc.Withdraw(d("100"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, acc.Balance().Equal(d("-150")), "failed withdraw must not mutate balance")

	require.Len(t, notes.got, 1)
	assert.Equal(t, ChannelSMS, notes.got[0].Channel)
	assert.Equal(t, "Withdrawal of 150.00 made. New balance is -150.00", notes.got[0].Message)
}

func TestCheckingWithdrawUpToLimit(t *testing.T) {
	acc := newTestChecking(nil)
	require.NoError(t, acc.Withdraw(d("200")))
	assert.True(t, acc.Balance().Equal(d("-200")))
	assert.ErrorIs(t, acc.Withdraw(d("0.01")), ErrInsufficientFunds)
}

func TestSavingsNoOverdraft(t *testing.T) {
	notes := &recordingNotifier{}
	acc := newTestSavings("100", notes)

	assert.ErrorIs(t, acc.Withdraw(d("100.01")), ErrInsufficientFunds)
	require.NoError(t, acc.Withdraw(d("100")))
	assert.True(t, acc.Balance().IsZero())
	assert.Empty(t, acc.LastTransaction(), "savings never archives")

	require.Len(t, notes.got, 1)
	assert.Equal(t, ChannelEmail, notes.got[0].Channel)
	assert.Equal(t, "Withdrawn: 100.00; New Balance: 0.00", notes.got[0].Message)
}

func TestNonPositiveAmountsRejected(t *testing.T) {
	amounts := []string{"0", "-1", "-0.01"}
	accounts := map[string]Account{
		"checking": newTestChecking(nil),
		"savings":  newTestSavings("1000", nil),
	}
	for name, acc := range accounts {
		for _, amt := range amounts {
			t.Run(name+"/"+amt, func(t *testing.T) {
				before := acc.Balance()
				assert.ErrorIs(t, acc.Withdraw(d(amt)), ErrInvalidAmount)
				assert.ErrorIs(t, acc.Deposit(d(amt)), ErrInvalidAmount)
				assert.True(t, acc.Balance().Equal(before))
			})
		}
	}
}

func TestDepositNotifiesOnVariantChannel(t *testing.T) {
	notes := &recordingNotifier{}
	checking := newTestChecking(notes)
	savings := newTestSavings("0", notes)

	require.NoError(t, checking.Deposit(d("25.5")))
	require.NoError(t, savings.Deposit(d("10")))

	require.Len(t, notes.got, 2)
	assert.Equal(t, Notification{Channel: ChannelSMS, AccountNumber: 1000000001, Message: "Deposited: 25.50; New Balance: 25.50"}, notes.got[0])
	assert.Equal(t, Notification{Channel: ChannelEmail, AccountNumber: 1000000002, Message: "Deposited: 10.00; New Balance: 10.00"}, notes.got[1])
}

func TestBalanceIsSumOfAppliedAmounts(t *testing.T) {
	acc := newTestChecking(nil)
	ops := []struct {
		deposit bool
		amount  string
	}{
		{true, "100"}, {false, "250"}, {true, "0.75"}, {false, "50.75"}, {false, "1"},
	}
	want := decimal.Zero
	for _, op := range ops {
		var err error
		if op.deposit {
			err = acc.Deposit(d(op.amount))
		} else {
			err = acc.Withdraw(d(op.amount))
		}
		if err == nil {
			if op.deposit {
				want = want.Add(d(op.amount))
			} else {
				want = want.Sub(d(op.amount))
			}
		}
		assert.False(t, acc.Balance().Add(acc.OverdraftLimit()).IsNegative())
	}
	assert.True(t, acc.Balance().Equal(want), "balance %s, want %s", acc.Balance(), want)
}

func TestSavingsAddInterest(t *testing.T) {
	notes := &recordingNotifier{}
	acc := newTestSavings("1000", notes)

	interest := acc.AddInterest()
	assert.True(t, interest.Equal(d("15")))
	assert.True(t, acc.Balance().Equal(d("1015")))

	// 每次呼叫都會計息
	acc.AddInterest()
	assert.True(t, acc.Balance().Equal(d("1030.23")), "got %s", acc.Balance())

	require.Len(t, notes.got, 4)
	assert.Equal(t, "Interest added: 15.00", notes.got[1].Message)
}

func TestSavingsAddInterestOnEmptyAccount(t *testing.T) {
	acc := newTestSavings("0", nil)
	assert.True(t, acc.AddInterest().IsZero())
	assert.True(t, acc.Balance().IsZero())
}

func TestSubCentAmountsRejected(t *testing.T) {
	acc := newTestSavings("0", nil)
	require.NoError(t, acc.Deposit(d("0.10")))
	require.NoError(t, acc.Deposit(d("1.500")))

	assert.ErrorIs(t, acc.Deposit(d("0.00001")), ErrInvalidAmount)
	assert.ErrorIs(t, acc.Withdraw(d("0.001")), ErrInvalidAmount)
	assert.ErrorIs(t, newTestChecking(nil).Withdraw(d("10.999")), ErrInvalidAmount)
	assert.True(t, acc.Balance().Equal(d("1.6")))
}

func TestCheckingSummaryShowsLastTransaction(t *testing.T) {
	acc := newTestChecking(nil)
	require.NoError(t, acc.Deposit(d("20")))
	assert.NotContains(t, acc.Summary(), "Last Transaction")

	require.NoError(t, acc.Withdraw(d("12.5")))
	assert.Equal(t, "Account Type: Checking\nAccount Number: 1000000001\nAccount Holder: Ada Lovelace\nBalance: 7.50\nOverdraft Limit: 200.00\nLast Transaction: Withdrawal: 12.50", acc.Summary())
}

func TestOutboxHoldsNotificationsUntilFlush(t *testing.T) {
	notes := &recordingNotifier{}
	acc := newTestChecking(notes)

	outbox := HoldNotifications(acc)
	require.NoError(t, acc.Deposit(d("5")))
	assert.Empty(t, notes.got)
	outbox.Discard()
	assert.Empty(t, notes.got)

	outbox = HoldNotifications(acc)
	require.NoError(t, acc.Deposit(d("5")))
	require.NoError(t, acc.Withdraw(d("1")))
	outbox.Flush()
	require.Len(t, notes.got, 2)
	assert.Equal(t, "Deposited: 5.00; New Balance: 10.00", notes.got[0].Message)

	// Flush 之後直接送給原接收者
	require.NoError(t, acc.Deposit(d("1")))
	assert.Len(t, notes.got, 3)
}

func TestFeesAndMinimumBalance(t *testing.T) {
	checking := newTestChecking(nil)
	savings := newTestSavings("0", nil)

	assert.True(t, checking.CalculateAnnualFees().Equal(d("100")))
	assert.True(t, savings.CalculateAnnualFees().Equal(d("50")))
	assert.True(t, checking.MinimumBalanceRequired().IsZero())
	assert.True(t, savings.MinimumBalanceRequired().Equal(d("500")))
}

func TestSummary(t *testing.T) {
	checking := newTestChecking(nil)
	savings := newTestSavings("1000", nil)

	assert.Equal(t, "Account Type: Checking\nAccount Number: 1000000001\nAccount Holder: Ada Lovelace\nBalance: 0.00\nOverdraft Limit: 200.00", checking.Summary())
	assert.Equal(t, "Account Type: Savings\nAccount Number: 1000000002\nAccount Holder: Alan Turing\nBalance: 1000.00\nInterest Rate: 1.5%", savings.Summary())
}

func TestCheckpointRestore(t *testing.T) {
	acc := newTestChecking(nil)
	require.NoError(t, acc.Deposit(d("10")))
	cp := CheckpointOf(acc)

	require.NoError(t, acc.Withdraw(d("50")))
	cp.Restore()

	assert.True(t, acc.Balance().Equal(d("10")))
	assert.Empty(t, acc.LastTransaction())
	assert.True(t, cp.Balance().Equal(d("10")))
}
