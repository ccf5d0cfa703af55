package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
)

func testProvider(t *testing.T) *dec.Provider {
	t.Helper()
	prov := dec.NewProvider(dec.BackendAPD, nil)
	require.NoError(t, prov.Init(context.Background()))
	return prov
}

func mustValue(t *testing.T, prov *dec.Provider, s string) dec.Value {
	t.Helper()
	v, err := prov.Parse(s)
	require.NoError(t, err)
	return v
}

func newTestAccount(t *testing.T, prov *dec.Provider, code string, typ AccountType, normal NormalBalance) *Account {
	t.Helper()
	a, err := NewAccount(prov, AccountInput{
		ID:     uuid.New(),
		Code:   code,
		Name:   "Account " + code,
		Type:   typ,
		Normal: normal,
	})
	require.NoError(t, err)
	return a
}

func TestNewAccountRequiresExplicitFields(t *testing.T) {
	prov := testProvider(t)
	base := AccountInput{
		ID:     uuid.New(),
		Code:   "1010",
		Name:   "Cash",
		Type:   AccountTypeAsset,
		Normal: NormalDebit,
	}

	cases := map[string]func(AccountInput) AccountInput{
		"missing id":     func(in AccountInput) AccountInput { in.ID = uuid.Nil; return in },
		"missing code":   func(in AccountInput) AccountInput { in.Code = ""; return in },
		"missing name":   func(in AccountInput) AccountInput { in.Name = ""; return in },
		"unknown type":   func(in AccountInput) AccountInput { in.Type = "CONTRA"; return in },
		"missing normal": func(in AccountInput) AccountInput { in.Normal = ""; return in },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewAccount(prov, mutate(base)); !errors.Is(err, ErrMissingField) {
				t.Fatalf("expected ErrMissingField, got %v", err)
			}
		})
	}

	a, err := NewAccount(prov, base)
	require.NoError(t, err)
	require.True(t, a.IsActive)
	require.True(t, a.Balance().IsZero())
}

func TestNewAccountRequiresReadyProvider(t *testing.T) {
	prov := dec.NewProvider(dec.BackendAPD, nil)
	_, err := NewAccount(prov, AccountInput{ID: uuid.New(), Code: "1010", Name: "Cash", Type: AccountTypeAsset, Normal: NormalDebit})
	if !errors.Is(err, dec.ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestApplyPostingPolarity(t *testing.T) {
	prov := testProvider(t)

	asset := newTestAccount(t, prov, "1010", AccountTypeAsset, NormalDebit)
	require.NoError(t, asset.ApplyPosting(mustValue(t, prov, "100"), true))
	require.Equal(t, "100", asset.Balance().String())
	require.NoError(t, asset.ApplyPosting(mustValue(t, prov, "30"), false))
	require.Equal(t, "70", asset.Balance().String())

	liability := newTestAccount(t, prov, "2010", AccountTypeLiability, NormalCredit)
	require.NoError(t, liability.ApplyPosting(mustValue(t, prov, "100"), false))
	require.Equal(t, "100", liability.Balance().String())
	require.NoError(t, liability.ApplyPosting(mustValue(t, prov, "40"), true))
	require.Equal(t, "60", liability.Balance().String())
}

func TestApplyPostingNormalizesNegativeAmounts(t *testing.T) {
	prov := testProvider(t)
	asset := newTestAccount(t, prov, "1010", AccountTypeAsset, NormalDebit)
	// Negative input is a caller error that is corrected, not rejected.
	require.NoError(t, asset.ApplyPosting(mustValue(t, prov, "-50"), true))
	require.Equal(t, "50", asset.Balance().String())
}

func TestApplyPostingRefusesInactiveAccount(t *testing.T) {
	prov := testProvider(t)
	asset := newTestAccount(t, prov, "1010", AccountTypeAsset, NormalDebit)
	asset.Deactivate()
	err := asset.ApplyPosting(mustValue(t, prov, "10"), true)
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
	require.True(t, asset.Balance().IsZero())

	asset.Activate()
	require.NoError(t, asset.ApplyPosting(mustValue(t, prov, "10"), true))
}

func TestResetBalance(t *testing.T) {
	prov := testProvider(t)
	asset := newTestAccount(t, prov, "1010", AccountTypeAsset, NormalDebit)
	require.NoError(t, asset.ApplyPosting(mustValue(t, prov, "123.45"), true))
	asset.ResetBalance()
	require.True(t, asset.Balance().IsZero())
}

func TestNormalBalancePredicates(t *testing.T) {
	prov := testProvider(t)
	asset := newTestAccount(t, prov, "1010", AccountTypeAsset, NormalDebit)
	income := newTestAccount(t, prov, "4010", AccountTypeIncome, NormalCredit)
	require.True(t, asset.IsDebitNormal())
	require.False(t, asset.IsCreditNormal())
	require.True(t, income.IsCreditNormal())
	require.False(t, income.IsDebitNormal())
}
