package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/observability"
)

type fixture struct {
	router *chi.Mux
	redis  *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	prov := dec.NewProvider(dec.BackendShopspring, nil)
	require.NoError(t, prov.Init(context.Background()))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	registry := ledger.NewRegistry(prov, nil)
	handler := NewHandler(nil, registry, client, time.Minute, observability.NewMetrics())

	router := chi.NewRouter()
	router.Route("/api/v1", handler.MountRoutes)
	return &fixture{router: router, redis: mr}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}

type seeded struct {
	entityID  uuid.UUID
	journalID uuid.UUID
	cashID    uuid.UUID
	salesID   uuid.UUID
}

func seedEntity(t *testing.T, f *fixture) seeded {
	t.Helper()
	rr := f.do(t, http.MethodPost, "/api/v1/entities", map[string]any{})
	require.Equal(t, http.StatusCreated, rr.Code)
	entityID := decodeBody[map[string]uuid.UUID](t, rr)["entity_id"]
	base := fmt.Sprintf("/api/v1/entities/%s", entityID)

	s := seeded{entityID: entityID, cashID: uuid.New(), salesID: uuid.New(), journalID: uuid.New()}
	for _, acc := range []accountCreateRequest{
		{ID: s.cashID, Code: "1010", Name: "Cash", Type: "ASSET", NormalBalance: "DEBIT"},
		{ID: s.salesID, Code: "4010", Name: "Sales", Type: "INCOME", NormalBalance: "CREDIT"},
	} {
		rr := f.do(t, http.MethodPost, base+"/accounts", acc)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}
	rr = f.do(t, http.MethodPost, base+"/journals", journalCreateRequest{ID: s.journalID, Name: "General"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return s
}

func boolPtr(v bool) *bool { return &v }

func (s seeded) saleRequest(amount string) transactionCreateRequest {
	return transactionCreateRequest{
		JournalID:   s.journalID,
		Description: "cash sale",
		Lines: []lineRequest{
			{AccountID: s.cashID, Amount: amount, IsDebit: boolPtr(true)},
			{AccountID: s.salesID, Amount: amount, IsDebit: boolPtr(false)},
		},
	}
}

func TestRecordTransactionUpdatesBalances(t *testing.T) {
	f := newFixture(t)
	s := seedEntity(t, f)
	base := fmt.Sprintf("/api/v1/entities/%s", s.entityID)

	rr := f.do(t, http.MethodPost, base+"/transactions", s.saleRequest("150.25"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	tx := decodeBody[transactionResponse](t, rr)
	require.Equal(t, "POSTED", tx.Status)
	require.Len(t, tx.Lines, 2)

	rr = f.do(t, http.MethodGet, base+"/accounts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	accounts := decodeBody[map[string][]accountResponse](t, rr)["accounts"]
	require.Len(t, accounts, 2)
	require.Equal(t, "150.25", accounts[0].Balance)
	require.Equal(t, "150.25", accounts[1].Balance)
}

func TestRecordTransactionRejectsUnbalanced(t *testing.T) {
	f := newFixture(t)
	s := seedEntity(t, f)
	base := fmt.Sprintf("/api/v1/entities/%s", s.entityID)

	req := s.saleRequest("100")
	req.Lines[1].Amount = "90"
	rr := f.do(t, http.MethodPost, base+"/transactions", req)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, rr.Body.String())

	// Nothing was applied.
	rr = f.do(t, http.MethodGet, base+"/accounts", nil)
	for _, acc := range decodeBody[map[string][]accountResponse](t, rr)["accounts"] {
		require.Equal(t, "0", acc.Balance)
	}
}

func TestRecordTransactionValidation(t *testing.T) {
	f := newFixture(t)
	s := seedEntity(t, f)
	base := fmt.Sprintf("/api/v1/entities/%s", s.entityID)

	// Single line fails the min=2 rule before touching the domain.
	req := s.saleRequest("100")
	req.Lines = req.Lines[:1]
	rr := f.do(t, http.MethodPost, base+"/transactions", req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Unknown journal.
	req = s.saleRequest("100")
	req.JournalID = uuid.New()
	rr = f.do(t, http.MethodPost, base+"/transactions", req)
	require.Equal(t, http.StatusNotFound, rr.Code)

	// Unparseable amount.
	req = s.saleRequest("100")
	req.Lines[0].Amount = "abc"
	rr = f.do(t, http.MethodPost, base+"/transactions", req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeactivatedAccountRejectsPostings(t *testing.T) {
	f := newFixture(t)
	s := seedEntity(t, f)
	base := fmt.Sprintf("/api/v1/entities/%s", s.entityID)

	rr := f.do(t, http.MethodPost, fmt.Sprintf("%s/accounts/%s/deactivate", base, s.salesID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.False(t, decodeBody[accountResponse](t, rr).IsActive)

	rr = f.do(t, http.MethodPost, base+"/transactions", s.saleRequest("10"))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = f.do(t, http.MethodPost, fmt.Sprintf("%s/accounts/%s/activate", base, s.salesID), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(t, http.MethodPost, base+"/transactions", s.saleRequest("10"))
	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestVoidAndReverse(t *testing.T) {
	f := newFixture(t)
	s := seedEntity(t, f)
	base := fmt.Sprintf("/api/v1/entities/%s", s.entityID)

	rr := f.do(t, http.MethodPost, base+"/transactions", s.saleRequest("500"))
	require.Equal(t, http.StatusCreated, rr.Code)
	tx := decodeBody[transactionResponse](t, rr)

	rr = f.do(t, http.MethodPost, fmt.Sprintf("%s/transactions/%s/reverse", base, tx.ID), reverseRequest{JournalID: s.journalID})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	reversal := decodeBody[transactionResponse](t, rr)
	require.NotNil(t, reversal.ReversalOf)
	require.Equal(t, tx.ID, *reversal.ReversalOf)

	rr = f.do(t, http.MethodGet, base+"/accounts", nil)
	for _, acc := range decodeBody[map[string][]accountResponse](t, rr)["accounts"] {
		require.Equal(t, "0", acc.Balance)
	}

	rr = f.do(t, http.MethodPost, fmt.Sprintf("%s/transactions/%s/void", base, reversal.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "VOID", decodeBody[transactionResponse](t, rr).Status)

	// A voided transaction cannot be voided again.
	rr = f.do(t, http.MethodPost, fmt.Sprintf("%s/transactions/%s/void", base, reversal.ID), nil)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	// Unknown transaction.
	rr = f.do(t, http.MethodPost, fmt.Sprintf("%s/transactions/%s/void", base, uuid.New()), nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTrialBalanceCachedAndBusted(t *testing.T) {
	f := newFixture(t)
	s := seedEntity(t, f)
	base := fmt.Sprintf("/api/v1/entities/%s", s.entityID)
	key := trialBalanceCacheKey(s.entityID)

	rr := f.do(t, http.MethodPost, base+"/transactions", s.saleRequest("250"))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = f.do(t, http.MethodGet, base+"/reports/trial-balance", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	tb := decodeBody[trialBalanceResponse](t, rr)
	require.True(t, tb.Balanced)
	require.Equal(t, "250", tb.TotalDebit)
	require.Equal(t, "250", tb.TotalCredit)
	require.True(t, f.redis.Exists(key))

	// Second read is served from cache and agrees.
	rr = f.do(t, http.MethodGet, base+"/reports/trial-balance", nil)
	require.Equal(t, tb, decodeBody[trialBalanceResponse](t, rr))

	// A new posting busts the cached report.
	rr = f.do(t, http.MethodPost, base+"/transactions", s.saleRequest("50"))
	require.Equal(t, http.StatusCreated, rr.Code)
	require.False(t, f.redis.Exists(key))

	rr = f.do(t, http.MethodGet, base+"/reports/trial-balance", nil)
	require.Equal(t, "300", decodeBody[trialBalanceResponse](t, rr).TotalDebit)
}

func TestProfitAndLossAndBalanceSheet(t *testing.T) {
	f := newFixture(t)
	s := seedEntity(t, f)
	base := fmt.Sprintf("/api/v1/entities/%s", s.entityID)

	rr := f.do(t, http.MethodPost, base+"/transactions", s.saleRequest("1200"))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = f.do(t, http.MethodGet, base+"/reports/profit-and-loss", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	pl := decodeBody[profitAndLossResponse](t, rr)
	require.Equal(t, "1200", pl.TotalIncome)
	require.Equal(t, "0", pl.TotalExpense)
	require.Equal(t, "1200", pl.NetIncome)

	rr = f.do(t, http.MethodGet, base+"/reports/balance-sheet", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	bs := decodeBody[balanceSheetResponse](t, rr)
	require.Equal(t, "1200", bs.TotalAssets)
	require.Len(t, bs.Assets, 1)
}

func TestJournalTotalsAndIntegrity(t *testing.T) {
	f := newFixture(t)
	s := seedEntity(t, f)
	base := fmt.Sprintf("/api/v1/entities/%s", s.entityID)

	rr := f.do(t, http.MethodPost, base+"/transactions", s.saleRequest("75.50"))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = f.do(t, http.MethodGet, fmt.Sprintf("%s/journals/%s/totals", base, s.journalID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	totals := decodeBody[journalTotalsResponse](t, rr)
	require.Equal(t, "75.5", totals.TotalDebits)
	require.Equal(t, "75.5", totals.TotalCredits)

	rr = f.do(t, http.MethodGet, base+"/integrity", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	integrity := decodeBody[integrityResponse](t, rr)
	require.True(t, integrity.Clean)
	require.Empty(t, integrity.Diverged)
}

func TestJournalTransactionsDateRange(t *testing.T) {
	f := newFixture(t)
	s := seedEntity(t, f)
	base := fmt.Sprintf("/api/v1/entities/%s", s.entityID)

	old := s.saleRequest("10")
	old.Date = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	rr := f.do(t, http.MethodPost, base+"/transactions", old)
	require.Equal(t, http.StatusCreated, rr.Code)

	recent := s.saleRequest("20")
	recent.Date = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	rr = f.do(t, http.MethodPost, base+"/transactions", recent)
	require.Equal(t, http.StatusCreated, rr.Code)

	listURL := fmt.Sprintf("%s/journals/%s/transactions", base, s.journalID)

	rr = f.do(t, http.MethodGet, listURL, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	all := decodeBody[map[string][]transactionResponse](t, rr)["transactions"]
	require.Len(t, all, 2)

	// The range is inclusive of its bounding days.
	rr = f.do(t, http.MethodGet, listURL+"?from=2026-03-01T23:00:00Z&to=2026-03-01T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	filtered := decodeBody[map[string][]transactionResponse](t, rr)["transactions"]
	require.Len(t, filtered, 1)
	require.Equal(t, "20", filtered[0].Lines[0].Amount)

	rr = f.do(t, http.MethodGet, listURL+"?from=not-a-date", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEntityListing(t *testing.T) {
	f := newFixture(t)
	first := seedEntity(t, f)
	second := seedEntity(t, f)

	rr := f.do(t, http.MethodGet, "/api/v1/entities", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	entities := decodeBody[map[string][]uuid.UUID](t, rr)["entities"]
	require.Len(t, entities, 2)
	require.Contains(t, entities, first.entityID)
	require.Contains(t, entities, second.entityID)
}
