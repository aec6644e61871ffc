package balance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apt777/finance-app/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func checking(id, balance string) model.Account {
	return model.Account{ID: id, Type: model.AccountTypeChecking, Balance: dec(balance), Currency: "JPY"}
}

func creditCard(id, balance string) model.Account {
	return model.Account{ID: id, Type: model.AccountTypeCreditCard, Balance: dec(balance), Currency: "JPY"}
}

// commit returns the accounts with the unit of work's balances applied.
func commit(t *testing.T, uow UnitOfWork, accounts ...model.Account) []model.Account {
	t.Helper()
	out := make([]model.Account, len(accounts))
	for i, a := range accounts {
		if b, ok := uow.Balance(a.ID); ok {
			a.Balance = b
		}
		out[i] = a
	}
	return out
}

func assertBalance(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "balance: want %s, got %s", want, got)
}

func TestScenario_AssetExpenseAndDelete(t *testing.T) {
	acct := checking("chk", "1000")

	uow, err := Apply(Expense{AccountID: "chk", Amount: dec("300"), Currency: "JPY"}, acct)
	require.NoError(t, err)
	require.NotNil(t, uow.Create)
	assert.Nil(t, uow.Remove)
	assert.Equal(t, model.KindExpense, uow.Create.Kind)
	assertBalance(t, "-300", uow.Create.Amount)

	after := commit(t, uow, acct)
	assertBalance(t, "700", after[0].Balance)

	rev, err := Apply(Delete{Transaction: *uow.Create}, after...)
	require.NoError(t, err)
	require.NotNil(t, rev.Remove)
	assert.Nil(t, rev.Create)
	restored := commit(t, rev, after...)
	assertBalance(t, "1000", restored[0].Balance)
}

func TestScenario_CreditCardExpenseThenRefund(t *testing.T) {
	card := creditCard("cc", "0")

	uow, err := Apply(Expense{AccountID: "cc", Amount: dec("5000")}, card)
	require.NoError(t, err)
	accts := commit(t, uow, card)
	assertBalance(t, "5000", accts[0].Balance)

	uow, err = Apply(Income{AccountID: "cc", Amount: dec("2000")}, accts...)
	require.NoError(t, err)
	accts = commit(t, uow, accts...)
	assertBalance(t, "3000", accts[0].Balance)
}

func TestScenario_TransferAssetToCreditCard(t *testing.T) {
	bank := checking("bank", "50000")
	card := creditCard("cc", "10000")

	uow, err := Apply(Transfer{FromAccountID: "bank", ToAccountID: "cc", Amount: dec("10000")}, bank, card)
	require.NoError(t, err)
	require.Len(t, uow.Changes, 2)

	accts := commit(t, uow, bank, card)
	assertBalance(t, "40000", accts[0].Balance)
	assertBalance(t, "0", accts[1].Balance)

	assert.Equal(t, model.KindTransfer, uow.Create.Kind)
	assertBalance(t, "10000", uow.Create.Amount)
	assertBalance(t, "10000", uow.Create.ToAmount)
	assert.Equal(t, "JPY", uow.Create.Currency)
}

func TestScenario_CashAdvance(t *testing.T) {
	card := creditCard("cc", "0")
	bank := checking("bank", "1000")

	uow, err := Apply(Transfer{FromAccountID: "cc", ToAccountID: "bank", Amount: dec("5000")}, card, bank)
	require.NoError(t, err)

	accts := commit(t, uow, card, bank)
	assertBalance(t, "5000", accts[0].Balance)
	assertBalance(t, "6000", accts[1].Balance)
}

func TestAssetIncomeDeleteIsIdentity(t *testing.T) {
	balances := []string{"0", "1000", "-250.75", "0.01", "123456789.123456"}
	amounts := []string{"1", "0.1", "0.2", "999.99", "1e-6"}

	for _, b := range balances {
		for _, a := range amounts {
			acct := checking("a", b)
			uow, err := Apply(Income{AccountID: "a", Amount: dec(a)}, acct)
			require.NoError(t, err)
			after := commit(t, uow, acct)

			rev, err := Apply(Delete{Transaction: *uow.Create}, after...)
			require.NoError(t, err)
			restored := commit(t, rev, after...)
			assert.True(t, restored[0].Balance.Equal(acct.Balance), "balance %s amount %s: got %s", b, a, restored[0].Balance)
		}
	}
}

func TestLiabilitySignPolicy(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		balance string
		want    string
	}{
		{"expense increases debt", Expense{AccountID: "cc", Amount: dec("120")}, "1000", "1120"},
		{"income decreases debt", Income{AccountID: "cc", Amount: dec("120")}, "1000", "880"},
		{"refund below zero", Income{AccountID: "cc", Amount: dec("50")}, "0", "-50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := creditCard("cc", tt.balance)
			uow, err := Apply(tt.op, card)
			require.NoError(t, err)
			after := commit(t, uow, card)
			assertBalance(t, tt.want, after[0].Balance)

			rev, err := Apply(Delete{Transaction: *uow.Create}, after...)
			require.NoError(t, err)
			assertBalance(t, tt.balance, commit(t, rev, after...)[0].Balance)
		})
	}
}

func TestTransferDeleteRestoresBothSides(t *testing.T) {
	pairs := []struct {
		name     string
		from, to model.Account
	}{
		{"asset to asset", checking("a", "500"), checking("b", "20")},
		{"asset to liability", checking("a", "500"), creditCard("b", "300")},
		{"liability to asset", creditCard("a", "0"), checking("b", "20")},
		{"liability to liability", creditCard("a", "10"), creditCard("b", "300")},
	}
	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			uow, err := Apply(Transfer{FromAccountID: p.from.ID, ToAccountID: p.to.ID, Amount: dec("123.45")}, p.from, p.to)
			require.NoError(t, err)
			after := commit(t, uow, p.from, p.to)

			rev, err := Apply(Delete{Transaction: *uow.Create}, after...)
			require.NoError(t, err)
			restored := commit(t, rev, after...)
			assert.True(t, restored[0].Balance.Equal(p.from.Balance))
			assert.True(t, restored[1].Balance.Equal(p.to.Balance))
		})
	}
}

func TestTransferWithToAmount(t *testing.T) {
	usd := model.Account{ID: "usd", Type: model.AccountTypeSavings, Balance: dec("100"), Currency: "USD"}
	jpy := checking("jpy", "0")

	uow, err := Apply(Transfer{FromAccountID: "usd", ToAccountID: "jpy", Amount: dec("10"), ToAmount: dec("1500")}, usd, jpy)
	require.NoError(t, err)
	accts := commit(t, uow, usd, jpy)
	assertBalance(t, "90", accts[0].Balance)
	assertBalance(t, "1500", accts[1].Balance)
	assert.Equal(t, "USD", uow.Create.Currency)

	rev, err := Apply(Delete{Transaction: *uow.Create}, accts...)
	require.NoError(t, err)
	restored := commit(t, rev, accts...)
	assertBalance(t, "100", restored[0].Balance)
	assertBalance(t, "0", restored[1].Balance)
}

func TestTransfer_SameCurrencyToAmountEqualToAmountIsAccepted(t *testing.T) {
	a, b := checking("a", "1000"), checking("b", "0")
	uow, err := Apply(Transfer{FromAccountID: "a", ToAccountID: "b", Amount: dec("100"), ToAmount: dec("100.00")}, a, b)
	require.NoError(t, err)
	accts := commit(t, uow, a, b)
	assertBalance(t, "900", accts[0].Balance)
	assertBalance(t, "100", accts[1].Balance)
}

func TestApply_Errors(t *testing.T) {
	bank := checking("bank", "100")
	card := creditCard("cc", "0")

	tests := []struct {
		name string
		op   Operation
		want error
	}{
		{"zero amount", Expense{AccountID: "bank", Amount: decimal.Zero}, model.ErrInvalidAmount},
		{"negative amount", Income{AccountID: "bank", Amount: dec("-5")}, model.ErrInvalidAmount},
		{"negative transfer", Transfer{FromAccountID: "bank", ToAccountID: "cc", Amount: dec("-1")}, model.ErrInvalidAmount},
		{"negative to amount", Transfer{FromAccountID: "bank", ToAccountID: "cc", Amount: dec("1"), ToAmount: dec("-1")}, model.ErrInvalidAmount},
		{"same currency to amount", Transfer{FromAccountID: "bank", ToAccountID: "cc", Amount: dec("100"), ToAmount: dec("99999")}, model.ErrInvalidOperation},
		{"unknown account", Expense{AccountID: "nope", Amount: dec("1")}, model.ErrNotFound},
		{"unknown transfer target", Transfer{FromAccountID: "bank", ToAccountID: "nope", Amount: dec("1")}, model.ErrNotFound},
		{"self transfer", Transfer{FromAccountID: "bank", ToAccountID: "bank", Amount: dec("1")}, model.ErrInvalidOperation},
		{"currency mismatch", Expense{AccountID: "bank", Amount: dec("1"), Currency: "USD"}, model.ErrInvalidOperation},
		{"unknown kind", Delete{Transaction: model.Transaction{ID: "t", Kind: "gift", AccountID: "bank"}}, model.ErrInvalidOperation},
		{"delete on unknown account", Delete{Transaction: model.Transaction{ID: "t", Kind: model.KindIncome, AccountID: "gone", Amount: dec("1")}}, model.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uow, err := Apply(tt.op, bank, card)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, uow.Changes, "no partial unit of work on error")
		})
	}
}

func TestApply_RecordFields(t *testing.T) {
	date := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	uow, err := Apply(Income{AccountID: "bank", Amount: dec("250"), Currency: "jpy", Date: date, Description: "salary"}, checking("bank", "0"))
	require.NoError(t, err)

	rec := uow.Create
	assert.Equal(t, "bank", rec.AccountID)
	assert.Equal(t, "JPY", rec.Currency)
	assert.Equal(t, date, rec.Date)
	assert.Equal(t, "salary", rec.Description)
	assertBalance(t, "250", rec.Amount)
	assert.Empty(t, rec.ID)
}

func TestSignedAmount(t *testing.T) {
	assertBalance(t, "-5", SignedAmount(model.KindExpense, dec("5")))
	assertBalance(t, "-5", SignedAmount(model.KindExpense, dec("-5")))
	assertBalance(t, "5", SignedAmount(model.KindIncome, dec("-5")))
}

func TestAccountIDs(t *testing.T) {
	assert.Equal(t, []string{"a"}, Income{AccountID: "a"}.AccountIDs())
	assert.Equal(t, []string{"a", "b"}, Transfer{FromAccountID: "a", ToAccountID: "b"}.AccountIDs())
	assert.Equal(t, []string{"a", "b"}, Delete{Transaction: model.Transaction{Kind: model.KindTransfer, FromAccountID: "a", ToAccountID: "b"}}.AccountIDs())
	assert.Equal(t, []string{"c"}, Delete{Transaction: model.Transaction{Kind: model.KindExpense, AccountID: "c"}}.AccountIDs())
}
