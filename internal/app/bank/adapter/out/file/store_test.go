package file

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/domain"
	"github.com/JoeShih716/go-bank-ledger/internal/app/bank/usecase"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type paths struct {
	clients string
	data    string
}

func newPaths(t *testing.T) paths {
	root := t.TempDir()
	return paths{
		clients: filepath.Join(root, "data", "clients.jsonl"),
		data:    filepath.Join(root, "data"),
	}
}

func openStore(t *testing.T, p paths) *Store {
	t.Helper()
	s, err := NewStore(p.clients, p.data,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newRecord(n int64, first string, kind domain.Kind) domain.Record {
	c := domain.NewClient(first, "Tester", first+"@example.com", "555")
	c.AccountNumber = n
	return domain.NewRecord(c, kind)
}

// assertSameRecord 金額以數值比較，不比較 decimal 的內部表示
func assertSameRecord(t *testing.T, want, got domain.Record) {
	t.Helper()
	assert.Equal(t, want.Client, got.Client)
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Holder, got.Holder)
	assert.True(t, want.Balance.Equal(got.Balance), "balance want %s got %s", want.Balance, got.Balance)
	assert.True(t, want.AnnualFee.Equal(got.AnnualFee))
	assert.True(t, want.OverdraftLimit.Equal(got.OverdraftLimit))
	assert.True(t, want.InterestRate.Equal(got.InterestRate))
}

func TestStoreReloadReproducesRecords(t *testing.T) {
	ctx := context.Background()
	p := newPaths(t)
	s := openStore(t, p)

	checking := newRecord(1_000_000_001, "Ada", domain.KindChecking)
	savings := newRecord(1_000_000_002, "Bob", domain.KindSavings)
	gone := newRecord(1_000_000_003, "Cy", domain.KindChecking)
	for _, rec := range []domain.Record{checking, savings, gone} {
		require.NoError(t, s.AppendClient(ctx, rec))
	}

	require.NoError(t, s.WriteBalance(ctx, checking.Client.AccountNumber, d("-150.25")))
	checking.Balance = d("-150.25")

	savings.Client.Email = "bob@new.example.com"
	savings.Balance = d("1015")
	require.NoError(t, s.WriteRecord(ctx, savings))

	require.NoError(t, s.DeleteAccountData(ctx, gone.Client.AccountNumber))
	_, err := os.Stat(filepath.Join(p.data, "1000000003"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, s.Close())
	reopened := openStore(t, p)
	got, err := reopened.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assertSameRecord(t, checking, got[0])
	assertSameRecord(t, savings, got[1])

	// 重新載入是冪等的
	again, err := reopened.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestStoreAccountFileLayout(t *testing.T) {
	ctx := context.Background()
	p := newPaths(t)
	s := openStore(t, p)

	rec := newRecord(1_000_000_001, "Ada", domain.KindSavings)
	require.NoError(t, s.AppendClient(ctx, rec))
	require.NoError(t, s.WriteBalance(ctx, 1_000_000_001, d("12.50")))

	data, err := os.ReadFile(filepath.Join(p.data, "1000000001", "account.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "balance: \"12.5\"")
	assert.Contains(t, string(data), "interest_rate: \"1.5\"")
	assert.NotContains(t, string(data), "overdraft_limit")

	entries, err := os.ReadDir(filepath.Join(p.data, "1000000001"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
}

func TestStoreFallsBackToJournalRecord(t *testing.T) {
	ctx := context.Background()
	p := newPaths(t)
	s := openStore(t, p)

	rec := newRecord(1_000_000_001, "Ada", domain.KindSavings)
	require.NoError(t, s.AppendClient(ctx, rec))
	require.NoError(t, os.RemoveAll(filepath.Join(p.data, "1000000001")))

	got, err := openStore(t, p).LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assertSameRecord(t, rec, got[0])
}

func TestStoreReplaySkipsDuplicateEntries(t *testing.T) {
	ctx := context.Background()
	p := newPaths(t)

	rec := newRecord(1_000_000_001, "Ada", domain.KindChecking)
	doc := docOf(rec, fixedNow)
	open := journalEntry{ID: uuid.New(), Op: opOpen, AccountNumber: 1_000_000_001, At: fixedNow, Record: &doc}
	line, err := json.Marshal(open)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(p.data, 0o755))
	content := string(line) + "\n" + string(line) + "\n"
	require.NoError(t, os.WriteFile(p.clients, []byte(content), 0o644))

	got, err := openStore(t, p).LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assertSameRecord(t, rec, got[0])
}

func TestStoreRecoversFromTornJournalTail(t *testing.T) {
	ctx := context.Background()
	p := newPaths(t)

	ada := newRecord(1_000_000_001, "Ada", domain.KindChecking)
	require.NoError(t, openStore(t, p).AppendClient(ctx, ada))

	f, err := os.OpenFile(p.clients, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{\"id\":\"3f2a")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s := openStore(t, p)
	got, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	bob := newRecord(1_000_000_002, "Bob", domain.KindSavings)
	require.NoError(t, s.AppendClient(ctx, bob))

	got, err = openStore(t, p).LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assertSameRecord(t, ada, got[0])
	assertSameRecord(t, bob, got[1])
}

func TestStoreRejectsMalformedData(t *testing.T) {
	ctx := context.Background()

	t.Run("journal line", func(t *testing.T) {
		p := newPaths(t)
		require.NoError(t, os.MkdirAll(p.data, 0o755))
		require.NoError(t, os.WriteFile(p.clients, []byte("{\"id\":\n"), 0o644))
		_, err := openStore(t, p).LoadAll(ctx)
		assert.ErrorIs(t, err, domain.ErrMalformedRecord)
	})

	t.Run("journal entry without id", func(t *testing.T) {
		p := newPaths(t)
		doc := docOf(newRecord(1_000_000_001, "Ada", domain.KindChecking), fixedNow)
		line, err := json.Marshal(journalEntry{Op: opOpen, AccountNumber: 1_000_000_001, At: fixedNow, Record: &doc})
		require.NoError(t, err)
		require.NoError(t, os.MkdirAll(p.data, 0o755))
		require.NoError(t, os.WriteFile(p.clients, append(line, '\n'), 0o644))
		_, err = openStore(t, p).LoadAll(ctx)
		assert.ErrorIs(t, err, domain.ErrMalformedRecord)
	})

	t.Run("account yaml", func(t *testing.T) {
		p := newPaths(t)
		s := openStore(t, p)
		require.NoError(t, s.AppendClient(ctx, newRecord(1_000_000_001, "Ada", domain.KindChecking)))
		path := filepath.Join(p.data, "1000000001", "account.yaml")
		require.NoError(t, os.WriteFile(path, []byte("account_number: [oops"), 0o644))
		_, err := openStore(t, p).LoadAll(ctx)
		assert.ErrorIs(t, err, domain.ErrMalformedRecord)
	})

	t.Run("balance", func(t *testing.T) {
		p := newPaths(t)
		s := openStore(t, p)
		require.NoError(t, s.AppendClient(ctx, newRecord(1_000_000_001, "Ada", domain.KindChecking)))
		path := filepath.Join(p.data, "1000000001", "account.yaml")
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Contains(t, string(data), "balance: \"0\"")
		data = []byte(strings.Replace(string(data), "balance: \"0\"", "balance: ten dollars", 1))
		require.NoError(t, os.WriteFile(path, data, 0o644))
		_, err = openStore(t, p).LoadAll(ctx)
		assert.ErrorIs(t, err, domain.ErrMalformedRecord)
	})
}

func TestStoreUnknownAccount(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, newPaths(t))

	assert.ErrorIs(t, s.WriteBalance(ctx, 42, d("1")), domain.ErrAccountNotFound)
	assert.ErrorIs(t, s.WriteRecord(ctx, newRecord(42, "Ada", domain.KindChecking)), domain.ErrAccountNotFound)
	assert.NoError(t, s.DeleteAccountData(ctx, 42))
}

func TestBankManagerOverFileStore(t *testing.T) {
	ctx := context.Background()
	p := newPaths(t)

	m, err := usecase.NewBankManager(ctx, openStore(t, p))
	require.NoError(t, err)
	saver, err := m.AddClient(ctx, domain.NewClient("Ada", "Tester", "", ""), domain.KindSavings)
	require.NoError(t, err)
	spender, err := m.AddClient(ctx, domain.NewClient("Bob", "Tester", "", ""), domain.KindChecking)
	require.NoError(t, err)
	require.NoError(t, m.Deposit(ctx, saver.AccountNumber, d("1000")))
	_, err = m.AddInterest(ctx, saver.AccountNumber)
	require.NoError(t, err)
	require.NoError(t, m.TransferFunds(ctx, spender.AccountNumber, saver.AccountNumber, d("100")))

	reloaded, err := usecase.NewBankManager(ctx, openStore(t, p))
	require.NoError(t, err)

	rec, ok := reloaded.FindAccountByNumber(saver.AccountNumber)
	require.True(t, ok)
	assert.Equal(t, domain.KindSavings, rec.Kind)
	assert.True(t, rec.Balance.Equal(d("1115")), "got %s", rec.Balance)

	rec, ok = reloaded.FindAccountByNumber(spender.AccountNumber)
	require.True(t, ok)
	assert.Equal(t, domain.KindChecking, rec.Kind)
	assert.True(t, rec.Balance.Equal(d("-100")))
	assert.Equal(t, m.ListAllClients(), reloaded.ListAllClients())
}
