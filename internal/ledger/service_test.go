package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apt777/finance-app/internal/balance"
	"github.com/apt777/finance-app/internal/importer"
	"github.com/apt777/finance-app/internal/model"
	"github.com/apt777/finance-app/internal/store"
)

const user = "user-1"

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(userID string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := payload.(Event); ok && userID == user {
		p.events = append(p.events, e)
	}
}

type recordingCollector struct {
	mu        sync.Mutex
	mutations []string
	misses    []string
}

func (c *recordingCollector) RecordMutation(kind, result string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mutations = append(c.mutations, kind+":"+result)
}

func (c *recordingCollector) RecordRateMiss(from, to string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.misses = append(c.misses, from+"/"+to)
}

func (c *recordingCollector) RecordRequest(string, string, int, time.Duration) {}

type fixture struct {
	svc     *Service
	pub     *recordingPublisher
	metrics *recordingCollector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{pub: &recordingPublisher{}, metrics: &recordingCollector{}}
	seq := 0
	f.svc = NewService(store.NewMemory(), "JPY",
		WithPublisher(f.pub),
		WithMetrics(f.metrics),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%03d", seq)
		}),
	)
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) account(t *testing.T, typ model.AccountType, cur, bal string) model.Account {
	t.Helper()
	a, err := f.svc.CreateAccount(context.Background(), user, CreateAccountParams{
		Name:     string(typ) + " " + cur,
		Type:     string(typ),
		Currency: cur,
		Balance:  dec(bal),
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) balance(t *testing.T, id string) string {
	t.Helper()
	a, err := f.svc.GetAccount(context.Background(), user, id)
	require.NoError(t, err)
	return a.Balance.String()
}

func TestRecord_ExpenseAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	checking := f.account(t, model.AccountTypeChecking, "JPY", "1000")

	res, err := f.svc.Record(ctx, user, balance.Expense{AccountID: checking.ID, Amount: dec("300"), Description: "Groceries"})
	require.NoError(t, err)
	assert.Equal(t, "700", f.balance(t, checking.ID))
	assert.Equal(t, model.KindExpense, res.Transaction.Kind)
	assert.Equal(t, "-300", res.Transaction.Amount.String())
	assert.Equal(t, user, res.Transaction.UserID)
	assert.Equal(t, "JPY", res.Transaction.Currency)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), res.Transaction.Date)

	_, err = f.svc.Delete(ctx, user, res.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000", f.balance(t, checking.ID))

	_, err = f.svc.GetTransaction(ctx, user, res.Transaction.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.Len(t, f.pub.events, 2)
	assert.Equal(t, EventTransactionCreated, f.pub.events[0].Type)
	assert.Equal(t, EventTransactionDeleted, f.pub.events[1].Type)
	assert.Equal(t, "1000", f.pub.events[1].Balances[0].Balance.String())
	assert.Equal(t, []string{"expense:none", "delete:none"}, f.metrics.mutations)
}

func TestRecord_CreditCardExpenseAndRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	card := f.account(t, model.AccountTypeCreditCard, "JPY", "0")

	_, err := f.svc.Record(ctx, user, balance.Expense{AccountID: card.ID, Amount: dec("5000")})
	require.NoError(t, err)
	assert.Equal(t, "5000", f.balance(t, card.ID))

	_, err = f.svc.Record(ctx, user, balance.Income{AccountID: card.ID, Amount: dec("2000")})
	require.NoError(t, err)
	assert.Equal(t, "3000", f.balance(t, card.ID))
}

func TestRecord_Transfers(t *testing.T) {
	tests := []struct {
		name             string
		fromType, toType model.AccountType
		fromBal, toBal   string
		amount           string
		wantFrom, wantTo string
	}{
		{"pay off card", model.AccountTypeChecking, model.AccountTypeCreditCard, "50000", "10000", "10000", "40000", "0"},
		{"cash advance", model.AccountTypeCreditCard, model.AccountTypeSavings, "0", "1000", "5000", "5000", "6000"},
		{"asset to asset", model.AccountTypeChecking, model.AccountTypeSavings, "100", "0", "40", "60", "40"},
		{"card to card", model.AccountTypeCreditCard, model.AccountTypeCreditCard, "0", "300", "100", "100", "200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			from := f.account(t, tt.fromType, "JPY", tt.fromBal)
			to := f.account(t, tt.toType, "JPY", tt.toBal)

			res, err := f.svc.Record(ctx, user, balance.Transfer{FromAccountID: from.ID, ToAccountID: to.ID, Amount: dec(tt.amount)})
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, f.balance(t, from.ID))
			assert.Equal(t, tt.wantTo, f.balance(t, to.ID))

			_, err = f.svc.Record(ctx, user, balance.Delete{Transaction: res.Transaction})
			require.NoError(t, err)
			assert.Equal(t, tt.fromBal, f.balance(t, from.ID))
			assert.Equal(t, tt.toBal, f.balance(t, to.ID))
		})
	}
}

func TestRecord_CrossCurrencyTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	usd := f.account(t, model.AccountTypeChecking, "USD", "1000")
	jpy := f.account(t, model.AccountTypeSavings, "JPY", "0")

	_, err := f.svc.UpsertRate(ctx, user, SetRateParams{From: "JPY", To: "USD", Rate: dec("0.008")})
	require.NoError(t, err)

	// Only the inverse rate exists: 100 / 0.008 = 12500.
	res, err := f.svc.Record(ctx, user, balance.Transfer{FromAccountID: usd.ID, ToAccountID: jpy.ID, Amount: dec("100")})
	require.NoError(t, err)
	assert.Equal(t, "12500", res.Transaction.ToAmount.String())
	assert.Equal(t, "900", f.balance(t, usd.ID))
	assert.Equal(t, "12500", f.balance(t, jpy.ID))

	// Changing the rate afterwards does not affect the reversal.
	_, err = f.svc.UpsertRate(ctx, user, SetRateParams{From: "JPY", To: "USD", Rate: dec("0.01")})
	require.NoError(t, err)
	_, err = f.svc.Delete(ctx, user, res.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000", f.balance(t, usd.ID))
	assert.Equal(t, "0", f.balance(t, jpy.ID))
	assert.Empty(t, f.metrics.misses)
}

func TestRecord_CrossCurrencyTransferWithoutRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	usd := f.account(t, model.AccountTypeChecking, "USD", "1000")
	eur := f.account(t, model.AccountTypeSavings, "EUR", "0")

	res, err := f.svc.Record(ctx, user, balance.Transfer{FromAccountID: usd.ID, ToAccountID: eur.ID, Amount: dec("100")})
	require.NoError(t, err)
	assert.Equal(t, "100", res.Transaction.ToAmount.String())
	assert.Equal(t, "100", f.balance(t, eur.ID))
	assert.Equal(t, []string{"USD/EUR"}, f.metrics.misses)

	// No rate into a zero-decimal currency: credited as is, not rounded.
	jpy := f.account(t, model.AccountTypeSavings, "JPY", "0")
	res, err = f.svc.Record(ctx, user, balance.Transfer{FromAccountID: usd.ID, ToAccountID: jpy.ID, Amount: dec("100.50")})
	require.NoError(t, err)
	assert.Equal(t, "100.5", res.Transaction.ToAmount.String())
	assert.Equal(t, "100.5", f.balance(t, jpy.ID))
	assert.Equal(t, "799.5", f.balance(t, usd.ID))
	assert.Equal(t, []string{"USD/EUR", "USD/JPY"}, f.metrics.misses)
}

func TestRecord_SameCurrencyTransferRejectsToAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	checking := f.account(t, model.AccountTypeChecking, "JPY", "1000")
	savings := f.account(t, model.AccountTypeSavings, "JPY", "0")

	_, err := f.svc.Record(ctx, user, balance.Transfer{
		FromAccountID: checking.ID,
		ToAccountID:   savings.ID,
		Amount:        dec("100"),
		ToAmount:      dec("99999"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidOperation)
	assert.Equal(t, "1000", f.balance(t, checking.ID))
	assert.Equal(t, "0", f.balance(t, savings.ID))
	assert.Empty(t, f.pub.events)
}

func TestRecord_CrossCurrencyTransferKeepsCallerToAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	usd := f.account(t, model.AccountTypeChecking, "USD", "1000")
	jpy := f.account(t, model.AccountTypeSavings, "JPY", "0")

	res, err := f.svc.Record(ctx, user, balance.Transfer{FromAccountID: usd.ID, ToAccountID: jpy.ID, Amount: dec("10"), ToAmount: dec("1480")})
	require.NoError(t, err)
	assert.Equal(t, "1480", res.Transaction.ToAmount.String())
	assert.Equal(t, "1480", f.balance(t, jpy.ID))
	assert.Empty(t, f.metrics.misses)
}

// failingInsertStore fails every InsertTransaction after the balances of the
// unit of work have been written.
type failingInsertStore struct {
	store.Store
}

func (s failingInsertStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		return fn(failingInsertTx{Tx: tx})
	})
}

type failingInsertTx struct {
	store.Tx
}

func (failingInsertTx) InsertTransaction(context.Context, model.Transaction) error {
	return errors.New("disk full")
}

func TestRecord_TransferRollsBackWhenRecordWriteFails(t *testing.T) {
	mem := store.NewMemory()
	setup := NewService(mem, "JPY")
	ctx := context.Background()
	checking, err := setup.CreateAccount(ctx, user, CreateAccountParams{Name: "Checking", Type: "checking", Balance: dec("50000")})
	require.NoError(t, err)
	card, err := setup.CreateAccount(ctx, user, CreateAccountParams{Name: "Card", Type: "credit_card", Balance: dec("10000")})
	require.NoError(t, err)

	pub := &recordingPublisher{}
	svc := NewService(failingInsertStore{Store: mem}, "JPY", WithPublisher(pub))
	_, err = svc.Record(ctx, user, balance.Transfer{FromAccountID: checking.ID, ToAccountID: card.ID, Amount: dec("10000")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	for id, want := range map[string]string{checking.ID: "50000", card.ID: "10000"} {
		a, err := setup.GetAccount(ctx, user, id)
		require.NoError(t, err)
		assert.Equal(t, want, a.Balance.String())
	}
	recs, err := setup.ListTransactions(ctx, user, store.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Empty(t, pub.events)
}

func TestRecord_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	checking := f.account(t, model.AccountTypeChecking, "JPY", "1000")
	other, err := f.svc.CreateAccount(ctx, "user-2", CreateAccountParams{Name: "Theirs", Type: "checking"})
	require.NoError(t, err)

	tests := []struct {
		name string
		op   balance.Operation
		want error
	}{
		{"zero amount", balance.Income{AccountID: checking.ID, Amount: decimal.Zero}, model.ErrInvalidAmount},
		{"negative amount", balance.Expense{AccountID: checking.ID, Amount: dec("-5")}, model.ErrInvalidAmount},
		{"unknown account", balance.Income{AccountID: "missing", Amount: dec("5")}, model.ErrNotFound},
		{"foreign account", balance.Income{AccountID: other.ID, Amount: dec("5")}, model.ErrNotFound},
		{"self transfer", balance.Transfer{FromAccountID: checking.ID, ToAccountID: checking.ID, Amount: dec("5")}, model.ErrInvalidOperation},
		{"currency mismatch", balance.Income{AccountID: checking.ID, Amount: dec("5"), Currency: "USD"}, model.ErrInvalidOperation},
		{"delete unknown", balance.Delete{Transaction: model.Transaction{ID: "nope"}}, model.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Record(ctx, user, tt.op)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, "1000", f.balance(t, checking.ID))
	assert.Empty(t, f.pub.events)
}

func TestDelete_OtherUsersTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	checking := f.account(t, model.AccountTypeChecking, "JPY", "1000")
	res, err := f.svc.Record(ctx, user, balance.Income{AccountID: checking.ID, Amount: dec("10")})
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, "user-2", res.Transaction.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, "1010", f.balance(t, checking.ID))
}

func TestRecord_ConcurrentTransfersPreserveTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t, model.AccountTypeChecking, "JPY", "1000")
	b := f.account(t, model.AccountTypeSavings, "JPY", "1000")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := a.ID, b.ID
			if i%2 == 1 {
				from, to = to, from
			}
			_, err := f.svc.Record(ctx, user, balance.Transfer{FromAccountID: from, ToAccountID: to, Amount: dec("10")})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, "1000", f.balance(t, a.ID))
	assert.Equal(t, "1000", f.balance(t, b.ID))
}

func TestListTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.account(t, model.AccountTypeChecking, "JPY", "0")
	b := f.account(t, model.AccountTypeSavings, "JPY", "0")

	_, err := f.svc.Record(ctx, user, balance.Income{AccountID: a.ID, Amount: dec("100"), Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	_, err = f.svc.Record(ctx, user, balance.Transfer{FromAccountID: a.ID, ToAccountID: b.ID, Amount: dec("50"), Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	all, err := f.svc.ListTransactions(ctx, user, store.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, model.KindTransfer, all[0].Kind)

	onlyB, err := f.svc.ListTransactions(ctx, user, store.TransactionFilter{AccountID: b.ID})
	require.NoError(t, err)
	require.Len(t, onlyB, 1)
}

func TestImport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	checking := f.account(t, model.AccountTypeChecking, "USD", "100")

	rows := []model.ImportRow{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Description: "Salary", Amount: dec("2000")},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Description: "Coffee", Amount: dec("-4.50"), Reference: "abc"},
		{Date: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), Description: "Pending", Amount: decimal.Zero},
	}
	res, err := f.svc.Import(ctx, user, checking.ID, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "2095.5", res.Balance.String())
	assert.Equal(t, "2095.5", f.balance(t, checking.ID))
	assert.Equal(t, "Coffee [abc]", res.Transactions[1].Description)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, EventImportCompleted, f.pub.events[0].Type)
	assert.Equal(t, 2, f.pub.events[0].Imported)
}

func TestImport_ChaseIntoNonUSDAccount(t *testing.T) {
	const chase = "Details,Posting Date,Description,Amount,Type,Balance,Check or Slip #\n" +
		"CREDIT,01/10/2025,SALARY,300000,ACH_CREDIT,300000,\n" +
		"DEBIT,01/12/2025,KONBINI,-850,DEBIT_CARD,299150,\n"

	f := newFixture(t)
	ctx := context.Background()
	checking := f.account(t, model.AccountTypeChecking, "JPY", "0")

	rows, err := importer.DefaultRegistry().Parse("chase", strings.NewReader(chase))
	require.NoError(t, err)
	res, err := f.svc.Import(ctx, user, checking.ID, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, "299150", f.balance(t, checking.ID))
	assert.Equal(t, "JPY", res.Transactions[0].Currency)
	assert.Equal(t, "KONBINI [debit_card]", res.Transactions[1].Description)

	// A file declared as USD does not land in a JPY account.
	rows, err = importer.RegistryFor("USD").Parse("chase", strings.NewReader(chase))
	require.NoError(t, err)
	_, err = f.svc.Import(ctx, user, checking.ID, rows)
	assert.ErrorIs(t, err, model.ErrInvalidOperation)
	assert.Equal(t, "299150", f.balance(t, checking.ID))
}

func TestImport_RollsBackOnBadRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	checking := f.account(t, model.AccountTypeChecking, "USD", "100")

	rows := []model.ImportRow{
		{Description: "ok", Amount: dec("10")},
		{Description: "wrong currency", Amount: dec("10"), Currency: "EUR"},
	}
	_, err := f.svc.Import(ctx, user, checking.ID, rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidOperation)
	assert.Contains(t, err.Error(), "row 2")

	assert.Equal(t, "100", f.balance(t, checking.ID))
	recs, err := f.svc.ListTransactions(ctx, user, store.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}
