package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
)

type ledgerFixture struct {
	prov    *dec.Provider
	ledger  *Ledger
	cash    *Account
	expense *Account
	sales   *Account
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	prov := testProvider(t)
	entity := uuid.New()
	l, err := NewLedger(prov, entity, nil)
	require.NoError(t, err)

	cash := newTestAccount(t, prov, "1010", AccountTypeAsset, NormalDebit)
	expense := newTestAccount(t, prov, "5010", AccountTypeExpense, NormalDebit)
	sales := newTestAccount(t, prov, "4010", AccountTypeIncome, NormalCredit)
	for _, a := range []*Account{cash, expense, sales} {
		require.NoError(t, l.AddAccount(a))
	}
	return &ledgerFixture{prov: prov, ledger: l, cash: cash, expense: expense, sales: sales}
}

func (f *ledgerFixture) postedTransaction(t *testing.T, debitAcc, creditAcc uuid.UUID, amount string) *Transaction {
	t.Helper()
	tx, err := NewTransaction(f.prov, TransactionInput{
		ID:          uuid.New(),
		EntityID:    f.ledger.EntityID,
		Date:        time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Description: "fixture posting",
		Lines: []LineInput{
			{AccountID: debitAcc, Amount: amount, IsDebit: true},
			{AccountID: creditAcc, Amount: amount, IsDebit: false},
		},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Post())
	return tx
}

func (f *ledgerFixture) snapshotBalances() map[uuid.UUID]string {
	out := make(map[uuid.UUID]string)
	for _, a := range f.ledger.Accounts() {
		out[a.ID] = a.Balance().String()
	}
	return out
}

func TestAddAccountRejectsDuplicate(t *testing.T) {
	f := newLedgerFixture(t)
	if err := f.ledger.AddAccount(f.cash); !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestAddJournalChecks(t *testing.T) {
	f := newLedgerFixture(t)

	j, err := NewJournal(f.prov, uuid.New(), "General", f.ledger.EntityID)
	require.NoError(t, err)
	require.NoError(t, f.ledger.AddJournal(j))

	if err := f.ledger.AddJournal(j); !errors.Is(err, ErrDuplicateJournal) {
		t.Fatalf("expected ErrDuplicateJournal, got %v", err)
	}

	foreign, err := NewJournal(f.prov, uuid.New(), "Foreign", uuid.New())
	require.NoError(t, err)
	if err := f.ledger.AddJournal(foreign); !errors.Is(err, ErrEntityMismatch) {
		t.Fatalf("expected ErrEntityMismatch, got %v", err)
	}
}

func TestSimpleCashExpenseScenario(t *testing.T) {
	f := newLedgerFixture(t)

	// Seed: cash holds 1000 from opening capital.
	seed := f.postedTransaction(t, f.cash.ID, f.sales.ID, "1000")
	require.NoError(t, f.ledger.RecordTransaction(seed))
	require.Equal(t, "1000", f.cash.Balance().String())

	// Debit expense 100, credit cash 100.
	tx := f.postedTransaction(t, f.expense.ID, f.cash.ID, "100")
	require.NoError(t, f.ledger.RecordTransaction(tx))

	require.Equal(t, "900", f.cash.Balance().String())
	require.Equal(t, "100", f.expense.Balance().String())
}

func TestRecordTransactionRejections(t *testing.T) {
	f := newLedgerFixture(t)
	seed := f.postedTransaction(t, f.cash.ID, f.sales.ID, "1000")
	require.NoError(t, f.ledger.RecordTransaction(seed))

	cases := []struct {
		name string
		tx   func(t *testing.T) *Transaction
		want error
	}{
		{
			name: "entity mismatch",
			tx: func(t *testing.T) *Transaction {
				tx, err := NewTransaction(f.prov, balancedInput(uuid.New(), f.expense.ID, f.cash.ID, "10"))
				require.NoError(t, err)
				require.NoError(t, tx.Post())
				return tx
			},
			want: ErrEntityMismatch,
		},
		{
			name: "not posted",
			tx: func(t *testing.T) *Transaction {
				tx, err := NewTransaction(f.prov, balancedInput(f.ledger.EntityID, f.expense.ID, f.cash.ID, "10"))
				require.NoError(t, err)
				return tx
			},
			want: ErrInvalidStatus,
		},
		{
			name: "duplicate id",
			tx:   func(t *testing.T) *Transaction { return seed },
			want: ErrDuplicateTransaction,
		},
		{
			name: "unknown account",
			tx: func(t *testing.T) *Transaction {
				return f.postedTransaction(t, uuid.New(), f.cash.ID, "10")
			},
			want: ErrAccountNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := f.snapshotBalances()
			err := f.ledger.RecordTransaction(tc.tx(t))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			// Atomicity: a rejected call never moves any balance.
			require.Equal(t, before, f.snapshotBalances())
		})
	}
}

func TestRecordTransactionRejectsInactiveAccountAtomically(t *testing.T) {
	f := newLedgerFixture(t)
	seed := f.postedTransaction(t, f.cash.ID, f.sales.ID, "1000")
	require.NoError(t, f.ledger.RecordTransaction(seed))

	f.expense.Deactivate()
	before := f.snapshotBalances()

	// Cash line comes first; the inactive expense account must be detected
	// before any line is applied.
	tx, err := NewTransaction(f.prov, TransactionInput{
		ID:          uuid.New(),
		EntityID:    f.ledger.EntityID,
		Date:        time.Now(),
		Description: "inactive target",
		Lines: []LineInput{
			{AccountID: f.cash.ID, Amount: "100", IsDebit: false},
			{AccountID: f.expense.ID, Amount: "100", IsDebit: true},
		},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Post())

	if err := f.ledger.RecordTransaction(tx); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
	require.Equal(t, before, f.snapshotBalances())
}

func TestUnbalancedNeverReachesMutation(t *testing.T) {
	f := newLedgerFixture(t)

	in := balancedInput(f.ledger.EntityID, f.expense.ID, f.cash.ID, "100")
	in.Lines[1].Amount = "50"
	tx, err := NewTransaction(f.prov, in)
	require.NoError(t, err)
	require.False(t, tx.IsBalanced())

	// Post refuses, so the transaction can never be recorded as posted.
	require.ErrorIs(t, tx.Post(), ErrUnbalanced)
	before := f.snapshotBalances()
	require.ErrorIs(t, f.ledger.RecordTransaction(tx), ErrInvalidStatus)
	require.Equal(t, before, f.snapshotBalances())
}

func TestIdempotentRederivation(t *testing.T) {
	f := newLedgerFixture(t)

	amounts := []string{"1000", "123.45", "0.07", "999.99", "42.42"}
	require.NoError(t, f.ledger.RecordTransaction(f.postedTransaction(t, f.cash.ID, f.sales.ID, amounts[0])))
	require.NoError(t, f.ledger.RecordTransaction(f.postedTransaction(t, f.expense.ID, f.cash.ID, amounts[1])))
	require.NoError(t, f.ledger.RecordTransaction(f.postedTransaction(t, f.cash.ID, f.sales.ID, amounts[2])))
	require.NoError(t, f.ledger.RecordTransaction(f.postedTransaction(t, f.expense.ID, f.cash.ID, amounts[3])))
	require.NoError(t, f.ledger.RecordTransaction(f.postedTransaction(t, f.cash.ID, f.sales.ID, amounts[4])))

	derived := f.ledger.DeriveBalances()
	for _, a := range f.ledger.Accounts() {
		require.Equal(t, 0, a.Balance().Cmp(derived[a.ID]),
			"account %s stored %s derived %s", a.Code, a.Balance().String(), derived[a.ID].String())
	}
	require.Empty(t, f.ledger.CheckIntegrity())

	// Tampering with a balance is caught by integrity checking.
	f.cash.ResetBalance()
	require.Equal(t, []uuid.UUID{f.cash.ID}, f.ledger.CheckIntegrity())
}

func TestReversalRestoresBalances(t *testing.T) {
	f := newLedgerFixture(t)
	require.NoError(t, f.ledger.RecordTransaction(f.postedTransaction(t, f.cash.ID, f.sales.ID, "1000")))

	before := f.snapshotBalances()

	tx := f.postedTransaction(t, f.expense.ID, f.cash.ID, "217.38")
	require.NoError(t, f.ledger.RecordTransaction(tx))
	require.NotEqual(t, before, f.snapshotBalances())

	rev, err := tx.CreateReversal(uuid.New(), tx.Date.AddDate(0, 0, 1), "undo")
	require.NoError(t, err)
	require.NoError(t, rev.Post())
	require.NoError(t, f.ledger.RecordTransaction(rev))

	require.Equal(t, before, f.snapshotBalances())
}

func TestTrialBalanceBalances(t *testing.T) {
	f := newLedgerFixture(t)
	require.NoError(t, f.ledger.RecordTransaction(f.postedTransaction(t, f.cash.ID, f.sales.ID, "1000")))
	require.NoError(t, f.ledger.RecordTransaction(f.postedTransaction(t, f.expense.ID, f.cash.ID, "300.55")))

	tb := f.ledger.TrialBalance()
	require.True(t, tb.Balanced(),
		"debit %s credit %s", tb.TotalDebit.String(), tb.TotalCredit.String())
	// cash 699.45 + expense 300.55 on the debit side, sales 1000 on credit.
	require.Equal(t, "1000", tb.TotalDebit.String())
	require.Equal(t, "1000", tb.TotalCredit.String())
}

func TestTrialBalanceNegativeBalanceSwitchesColumn(t *testing.T) {
	f := newLedgerFixture(t)

	// Credit cash below zero: a debit-normal account with a negative
	// balance reports in the credit column as its absolute value.
	tx := f.postedTransaction(t, f.expense.ID, f.cash.ID, "250")
	require.NoError(t, f.ledger.RecordTransaction(tx))
	require.True(t, f.cash.Balance().IsNegative())

	tb := f.ledger.TrialBalance()
	var cashRow *struct{ debit, credit string }
	for _, grp := range tb.Groups {
		for _, row := range grp.Rows {
			if row.Code == "1010" {
				cashRow = &struct{ debit, credit string }{row.Debit.String(), row.Credit.String()}
			}
		}
	}
	require.NotNil(t, cashRow)
	require.Equal(t, "0", cashRow.debit)
	require.Equal(t, "250", cashRow.credit)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	f := newLedgerFixture(t)

	j, err := NewJournal(f.prov, uuid.New(), "General", f.ledger.EntityID)
	require.NoError(t, err)
	require.NoError(t, f.ledger.AddJournal(j))

	seed := f.postedTransaction(t, f.cash.ID, f.sales.ID, "1000")
	require.NoError(t, f.ledger.RecordTransaction(seed))
	require.NoError(t, j.AddTransaction(seed))

	spend := f.postedTransaction(t, f.expense.ID, f.cash.ID, "125.25")
	require.NoError(t, f.ledger.RecordTransaction(spend))
	require.NoError(t, j.AddTransaction(spend))
	require.NoError(t, spend.Void())

	f.sales.Deactivate()

	snap := f.ledger.Snapshot()
	require.Len(t, snap.Accounts, 3)
	require.Len(t, snap.Transactions, 2)
	require.Len(t, snap.Journals, 1)

	restored, err := Restore(f.prov, nil, snap)
	require.NoError(t, err)

	require.Equal(t, f.ledger.EntityID, restored.EntityID)
	for _, orig := range f.ledger.Accounts() {
		got, ok := restored.Account(orig.ID)
		require.True(t, ok)
		require.Equal(t, orig.IsActive, got.IsActive)
		require.Equal(t, 0, orig.Balance().Cmp(got.Balance()),
			"account %s stored %s restored %s", orig.Code, orig.Balance().String(), got.Balance().String())
	}
	require.Len(t, restored.History(), 2)
	require.Equal(t, StatusVoid, restored.History()[1].Status())
	require.Empty(t, restored.CheckIntegrity())

	rj, ok := restored.Journal(j.ID)
	require.True(t, ok)
	require.Len(t, rj.Transactions(), 2)
}

func TestScenarioRunsIdenticallyOnBothBackends(t *testing.T) {
	for _, backend := range []string{dec.BackendAPD, dec.BackendShopspring} {
		t.Run(backend, func(t *testing.T) {
			prov := dec.NewProvider(backend, nil)
			require.NoError(t, prov.Init(context.Background()))

			entity := uuid.New()
			l, err := NewLedger(prov, entity, nil)
			require.NoError(t, err)

			cash, err := NewAccount(prov, AccountInput{ID: uuid.New(), Code: "1010", Name: "Cash", Type: AccountTypeAsset, Normal: NormalDebit})
			require.NoError(t, err)
			fees, err := NewAccount(prov, AccountInput{ID: uuid.New(), Code: "5020", Name: "Fees", Type: AccountTypeExpense, Normal: NormalDebit})
			require.NoError(t, err)
			capital, err := NewAccount(prov, AccountInput{ID: uuid.New(), Code: "3010", Name: "Capital", Type: AccountTypeEquity, Normal: NormalCredit})
			require.NoError(t, err)
			for _, a := range []*Account{cash, fees, capital} {
				require.NoError(t, l.AddAccount(a))
			}

			post := func(debit, credit uuid.UUID, amount string) {
				tx, err := NewTransaction(prov, TransactionInput{
					ID: uuid.New(), EntityID: entity, Date: time.Now(), Description: "backend parity",
					Lines: []LineInput{
						{AccountID: debit, Amount: amount, IsDebit: true},
						{AccountID: credit, Amount: amount, IsDebit: false},
					},
				})
				require.NoError(t, err)
				require.NoError(t, tx.Post())
				require.NoError(t, l.RecordTransaction(tx))
			}

			post(cash.ID, capital.ID, "5000")
			post(fees.ID, cash.ID, "33.33")
			post(fees.ID, cash.ID, "0.01")

			require.Equal(t, "4966.66", cash.Balance().String())
			require.Equal(t, "33.34", fees.Balance().String())
			require.True(t, l.TrialBalance().Balanced())
		})
	}
}
