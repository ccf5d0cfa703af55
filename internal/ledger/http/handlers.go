// Package http exposes the ledger API over chi.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/reports"
)

// Handler wires the ledger endpoints.
type Handler struct {
	logger   *slog.Logger
	registry *ledger.Registry
	validate *validator.Validate
	cache    *redis.Client
	cacheTTL time.Duration
	metrics  *observability.Metrics
}

// NewHandler constructs the ledger API handler. The cache client is
// optional; without it report responses are rebuilt on every request.
func NewHandler(logger *slog.Logger, registry *ledger.Registry, cache *redis.Client, cacheTTL time.Duration, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Handler{
		logger:   logger,
		registry: registry,
		validate: validator.New(),
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
	}
}

// MountRoutes registers the API routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/entities", func(r chi.Router) {
		r.Post("/", h.handleCreateEntity)
		r.Get("/", h.handleListEntities)
		r.Route("/{entityID}", func(r chi.Router) {
			r.Post("/accounts", h.handleCreateAccount)
			r.Get("/accounts", h.handleListAccounts)
			r.Post("/accounts/{accountID}/deactivate", h.handleDeactivateAccount)
			r.Post("/accounts/{accountID}/activate", h.handleActivateAccount)
			r.Post("/journals", h.handleCreateJournal)
			r.Get("/journals", h.handleListJournals)
			r.Get("/journals/{journalID}/totals", h.handleJournalTotals)
			r.Get("/journals/{journalID}/transactions", h.handleJournalTransactions)
			r.Post("/transactions", h.handleRecordTransaction)
			r.Post("/transactions/{txID}/void", h.handleVoidTransaction)
			r.Post("/transactions/{txID}/reverse", h.handleReverseTransaction)
			r.Get("/reports/trial-balance", h.handleTrialBalance)
			r.Get("/reports/profit-and-loss", h.handleProfitAndLoss)
			r.Get("/reports/balance-sheet", h.handleBalanceSheet)
			r.Get("/integrity", h.handleIntegrity)
		})
	})
}

func (h *Handler) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	var req entityCreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.ValidationProblem(w, "invalid JSON body")
		return
	}
	entityID := req.EntityID
	if entityID == uuid.Nil {
		entityID = uuid.New()
	}
	if err := h.registry.WithLedger(entityID, func(*ledger.Ledger) error { return nil }); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]uuid.UUID{"entity_id": entityID})
}

func (h *Handler) handleListEntities(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string][]uuid.UUID{"entities": h.registry.Entities()})
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	entityID, ok := h.pathID(w, r, "entityID")
	if !ok {
		return
	}
	var req accountCreateRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	var resp accountResponse
	err := h.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		account, err := ledger.NewAccount(h.registry.Provider(), ledger.AccountInput{
			ID:            req.ID,
			Code:          req.Code,
			Name:          req.Name,
			Type:          ledger.AccountType(req.Type),
			Normal:        ledger.NormalBalance(req.NormalBalance),
			IsControl:     req.IsControl,
			IsRecoverable: req.IsRecoverable,
		})
		if err != nil {
			return err
		}
		if err := l.AddAccount(account); err != nil {
			return err
		}
		resp = newAccountResponse(account)
		return nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	entityID, ok := h.pathID(w, r, "entityID")
	if !ok {
		return
	}
	var resp []accountResponse
	err := h.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		for _, account := range l.Accounts() {
			resp = append(resp, newAccountResponse(account))
		}
		return nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string][]accountResponse{"accounts": resp})
}

func (h *Handler) handleDeactivateAccount(w http.ResponseWriter, r *http.Request) {
	h.setAccountActive(w, r, false)
}

func (h *Handler) handleActivateAccount(w http.ResponseWriter, r *http.Request) {
	h.setAccountActive(w, r, true)
}

func (h *Handler) setAccountActive(w http.ResponseWriter, r *http.Request, active bool) {
	entityID, ok := h.pathID(w, r, "entityID")
	if !ok {
		return
	}
	accountID, ok := h.pathID(w, r, "accountID")
	if !ok {
		return
	}
	var resp accountResponse
	err := h.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		account, found := l.Account(accountID)
		if !found {
			return ledger.ErrAccountNotFound
		}
		if active {
			account.Activate()
		} else {
			account.Deactivate()
		}
		resp = newAccountResponse(account)
		return nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCreateJournal(w http.ResponseWriter, r *http.Request) {
	entityID, ok := h.pathID(w, r, "entityID")
	if !ok {
		return
	}
	var req journalCreateRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	err := h.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		journal, err := ledger.NewJournal(h.registry.Provider(), req.ID, req.Name, entityID)
		if err != nil {
			return err
		}
		return l.AddJournal(journal)
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, journalResponse{ID: req.ID, Name: req.Name})
}

func (h *Handler) handleListJournals(w http.ResponseWriter, r *http.Request) {
	entityID, ok := h.pathID(w, r, "entityID")
	if !ok {
		return
	}
	var resp []journalResponse
	err := h.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		for _, journal := range l.Journals() {
			resp = append(resp, journalResponse{
				ID:           journal.ID,
				Name:         journal.Name,
				Transactions: len(journal.Transactions()),
			})
		}
		return nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string][]journalResponse{"journals": resp})
}

func (h *Handler) handleJournalTotals(w http.ResponseWriter, r *http.Request) {
	entityID, ok := h.pathID(w, r, "entityID")
	if !ok {
		return
	}
	journalID, ok := h.pathID(w, r, "journalID")
	if !ok {
		return
	}
	onlyPosted := r.URL.Query().Get("only_posted") != "false"
	var resp journalTotalsResponse
	err := h.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		journal, found := l.Journal(journalID)
		if !found {
			return ledger.ErrJournalNotFound
		}
		resp = journalTotalsResponse{
			JournalID:    journalID,
			TotalDebits:  journal.TotalDebits(onlyPosted).String(),
			TotalCredits: journal.TotalCredits(onlyPosted).String(),
		}
		return nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// handleJournalTransactions lists a journal's transactions, optionally
// restricted to an inclusive from/to date range (RFC 3339 dates).
func (h *Handler) handleJournalTransactions(w http.ResponseWriter, r *http.Request) {
	entityID, ok := h.pathID(w, r, "entityID")
	if !ok {
		return
	}
	journalID, ok := h.pathID(w, r, "journalID")
	if !ok {
		return
	}
	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.ValidationProblem(w, "invalid from date")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.ValidationProblem(w, "invalid to date")
			return
		}
		to = parsed
	}

	var resp []transactionResponse
	err := h.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		journal, found := l.Journal(journalID)
		if !found {
			return ledger.ErrJournalNotFound
		}
		txs := journal.Transactions()
		if !from.IsZero() || !to.IsZero() {
			if to.IsZero() {
				to = time.Now().UTC().AddDate(100, 0, 0)
			}
			txs = journal.TransactionsByDateRange(from, to)
		}
		for _, tx := range txs {
			resp = append(resp, newTransactionResponse(tx))
		}
		return nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string][]transactionResponse{"transactions": resp})
}

func (h *Handler) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	entityID, ok := h.pathID(w, r, "entityID")
	if !ok {
		return
	}
	var req transactionCreateRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.Date.IsZero() {
		req.Date = time.Now().UTC()
	}
	lines := make([]ledger.LineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, ledger.LineInput{
			AccountID: line.AccountID,
			Amount:    line.Amount,
			IsDebit:   line.IsDebit != nil && *line.IsDebit,
		})
	}

	var resp transactionResponse
	err := h.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		journal, found := l.Journal(req.JournalID)
		if !found {
			return ledger.ErrJournalNotFound
		}
		tx, err := ledger.NewTransaction(h.registry.Provider(), ledger.TransactionInput{
			ID:          req.ID,
			EntityID:    entityID,
			Date:        req.Date,
			Description: req.Description,
			Lines:       lines,
		})
		if err != nil {
			return err
		}
		if err := tx.Post(); err != nil {
			return err
		}
		if err := l.RecordTransaction(tx); err != nil {
			return err
		}
		if err := journal.AddTransaction(tx); err != nil {
			return err
		}
		resp = newTransactionResponse(tx)
		return nil
	})
	if err != nil {
		h.metrics.PostingRejected(rejectionReason(err))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.PostingRecorded()
	h.bustReportCache(r, entityID)
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleVoidTransaction(w http.ResponseWriter, r *http.Request) {
	entityID, ok := h.pathID(w, r, "entityID")
	if !ok {
		return
	}
	txID, ok := h.pathID(w, r, "txID")
	if !ok {
		return
	}
	var resp transactionResponse
	err := h.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		tx, found := l.Transaction(txID)
		if !found {
			return ledger.ErrTransactionNotFound
		}
		if err := tx.Void(); err != nil {
			return err
		}
		resp = newTransactionResponse(tx)
		return nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.bustReportCache(r, entityID)
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReverseTransaction(w http.ResponseWriter, r *http.Request) {
	entityID, ok := h.pathID(w, r, "entityID")
	if !ok {
		return
	}
	txID, ok := h.pathID(w, r, "txID")
	if !ok {
		return
	}
	var req reverseRequest
	if !h.decodeValid(w, r, &req) {
		return
	}
	var resp transactionResponse
	err := h.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		journal, found := l.Journal(req.JournalID)
		if !found {
			return ledger.ErrJournalNotFound
		}
		tx, found := l.Transaction(txID)
		if !found {
			return ledger.ErrTransactionNotFound
		}
		reversal, err := tx.CreateReversal(uuid.New(), time.Now().UTC(), req.Description)
		if err != nil {
			return err
		}
		if err := reversal.Post(); err != nil {
			return err
		}
		if err := l.RecordTransaction(reversal); err != nil {
			return err
		}
		if err := journal.AddTransaction(reversal); err != nil {
			return err
		}
		resp = newTransactionResponse(reversal)
		return nil
	})
	if err != nil {
		h.metrics.PostingRejected(rejectionReason(err))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.PostingRecorded()
	h.bustReportCache(r, entityID)
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	entityID, ok := h.pathID(w, r, "entityID")
	if !ok {
		return
	}
	var resp profitAndLossResponse
	err := h.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		resp = newProfitAndLossResponse(entityID, reports.BuildProfitAndLoss(l.Engine(), l.AccountBalances()))
		return nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleBalanceSheet(w http.ResponseWriter, r *http.Request) {
	entityID, ok := h.pathID(w, r, "entityID")
	if !ok {
		return
	}
	var resp balanceSheetResponse
	err := h.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		resp = newBalanceSheetResponse(entityID, reports.BuildBalanceSheet(l.Engine(), l.AccountBalances()))
		return nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleIntegrity(w http.ResponseWriter, r *http.Request) {
	entityID, ok := h.pathID(w, r, "entityID")
	if !ok {
		return
	}
	var resp integrityResponse
	err := h.registry.WithLedger(entityID, func(l *ledger.Ledger) error {
		diverged := l.CheckIntegrity()
		resp = integrityResponse{EntityID: entityID, Clean: len(diverged) == 0, Diverged: diverged}
		return nil
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.IntegrityCheck(resp.Clean)
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httpx.ValidationProblem(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.ValidationProblem(w, "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.ValidationProblem(w, err.Error())
		return false
	}
	return true
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrUnbalanced):
		return "unbalanced"
	case errors.Is(err, ledger.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ledger.ErrAccountInactive):
		return "account_inactive"
	case errors.Is(err, ledger.ErrEntityMismatch):
		return "entity_mismatch"
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return "duplicate"
	case errors.Is(err, ledger.ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(err, ledger.ErrTooFewLines), errors.Is(err, ledger.ErrMissingField):
		return "invalid_input"
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, dec.ErrInvalidInput):
		return "invalid_amount"
	default:
		return "other"
	}
}
