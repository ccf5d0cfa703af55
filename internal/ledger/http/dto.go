package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/reports"
)

type entityCreateRequest struct {
	EntityID uuid.UUID `json:"entity_id"`
}

type accountCreateRequest struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code" validate:"required"`
	Name          string    `json:"name" validate:"required"`
	Type          string    `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	NormalBalance string    `json:"normal_balance" validate:"required,oneof=DEBIT CREDIT"`
	IsControl     bool      `json:"is_control"`
	IsRecoverable bool      `json:"is_recoverable"`
}

type accountResponse struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	NormalBalance string    `json:"normal_balance"`
	Balance       string    `json:"balance"`
	IsActive      bool      `json:"is_active"`
}

func newAccountResponse(a *ledger.Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		Code:          a.Code,
		Name:          a.Name,
		Type:          string(a.Type),
		NormalBalance: string(a.Normal),
		Balance:       a.Balance().String(),
		IsActive:      a.IsActive,
	}
}

type journalCreateRequest struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name" validate:"required"`
}

type journalResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Transactions int       `json:"transactions"`
}

type journalTotalsResponse struct {
	JournalID    uuid.UUID `json:"journal_id"`
	TotalDebits  string    `json:"total_debits"`
	TotalCredits string    `json:"total_credits"`
}

type lineRequest struct {
	AccountID uuid.UUID `json:"account_id" validate:"required"`
	Amount    string    `json:"amount" validate:"required"`
	IsDebit   *bool     `json:"is_debit" validate:"required"`
}

type transactionCreateRequest struct {
	ID          uuid.UUID     `json:"id"`
	JournalID   uuid.UUID     `json:"journal_id" validate:"required"`
	Date        time.Time     `json:"date"`
	Description string        `json:"description" validate:"required"`
	Lines       []lineRequest `json:"lines" validate:"required,min=2,dive"`
}

type reverseRequest struct {
	JournalID   uuid.UUID `json:"journal_id" validate:"required"`
	Description string    `json:"description"`
}

type lineResponse struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	Amount    string    `json:"amount"`
	IsDebit   bool      `json:"is_debit"`
}

type transactionResponse struct {
	ID          uuid.UUID      `json:"id"`
	Status      string         `json:"status"`
	Date        time.Time      `json:"date"`
	Description string         `json:"description"`
	ReversalOf  *uuid.UUID     `json:"reversal_of,omitempty"`
	Lines       []lineResponse `json:"lines"`
}

func newTransactionResponse(tx *ledger.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          tx.ID,
		Status:      string(tx.Status()),
		Date:        tx.Date,
		Description: tx.Description,
	}
	if tx.ReversalOf != uuid.Nil {
		rev := tx.ReversalOf
		resp.ReversalOf = &rev
	}
	for _, line := range tx.Lines() {
		resp.Lines = append(resp.Lines, lineResponse{
			ID:        line.ID,
			AccountID: line.AccountID,
			Amount:    line.Amount.String(),
			IsDebit:   line.IsDebit,
		})
	}
	return resp
}

type trialBalanceRow struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Debit  string `json:"debit"`
	Credit string `json:"credit"`
}

type trialBalanceGroup struct {
	Key         string            `json:"key"`
	Rows        []trialBalanceRow `json:"rows"`
	TotalDebit  string            `json:"total_debit"`
	TotalCredit string            `json:"total_credit"`
}

type trialBalanceResponse struct {
	EntityID    uuid.UUID           `json:"entity_id"`
	Groups      []trialBalanceGroup `json:"groups"`
	TotalDebit  string              `json:"total_debit"`
	TotalCredit string              `json:"total_credit"`
	Balanced    bool                `json:"balanced"`
}

func newTrialBalanceResponse(entityID uuid.UUID, tb reports.TrialBalance) trialBalanceResponse {
	resp := trialBalanceResponse{
		EntityID:    entityID,
		TotalDebit:  tb.TotalDebit.String(),
		TotalCredit: tb.TotalCredit.String(),
		Balanced:    tb.Balanced(),
	}
	for _, group := range tb.Groups {
		g := trialBalanceGroup{
			Key:         group.Key,
			TotalDebit:  group.Debit.String(),
			TotalCredit: group.Credit.String(),
		}
		for _, row := range group.Rows {
			g.Rows = append(g.Rows, trialBalanceRow{
				Code:   row.Code,
				Name:   row.Name,
				Debit:  row.Debit.String(),
				Credit: row.Credit.String(),
			})
		}
		resp.Groups = append(resp.Groups, g)
	}
	return resp
}

type reportLine struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type profitAndLossResponse struct {
	EntityID     uuid.UUID    `json:"entity_id"`
	Income       []reportLine `json:"income"`
	Expenses     []reportLine `json:"expenses"`
	TotalIncome  string       `json:"total_income"`
	TotalExpense string       `json:"total_expense"`
	NetIncome    string       `json:"net_income"`
}

type balanceSheetResponse struct {
	EntityID                  uuid.UUID    `json:"entity_id"`
	Assets                    []reportLine `json:"assets"`
	Liabilities               []reportLine `json:"liabilities"`
	Equity                    []reportLine `json:"equity"`
	TotalAssets               string       `json:"total_assets"`
	TotalLiabilitiesAndEquity string       `json:"total_liabilities_and_equity"`
}

func newProfitAndLossResponse(entityID uuid.UUID, pl reports.ProfitAndLoss) profitAndLossResponse {
	resp := profitAndLossResponse{
		EntityID:     entityID,
		TotalIncome:  pl.Income.Total.String(),
		TotalExpense: pl.Expense.Total.String(),
		NetIncome:    pl.NetIncome.String(),
	}
	for _, acc := range pl.Income.Accounts {
		resp.Income = append(resp.Income, reportLine{Code: acc.Code, Name: acc.Name, Amount: acc.Amount.String()})
	}
	for _, acc := range pl.Expense.Accounts {
		resp.Expenses = append(resp.Expenses, reportLine{Code: acc.Code, Name: acc.Name, Amount: acc.Amount.String()})
	}
	return resp
}

func newBalanceSheetResponse(entityID uuid.UUID, bs reports.BalanceSheet) balanceSheetResponse {
	resp := balanceSheetResponse{
		EntityID:                  entityID,
		TotalAssets:               bs.Assets.Total.String(),
		TotalLiabilitiesAndEquity: bs.TotalLiabilitiesAndEquity.String(),
	}
	for _, acc := range bs.Assets.Accounts {
		resp.Assets = append(resp.Assets, reportLine{Code: acc.Code, Name: acc.Name, Amount: acc.Balance.String()})
	}
	for _, acc := range bs.Liabilities.Accounts {
		resp.Liabilities = append(resp.Liabilities, reportLine{Code: acc.Code, Name: acc.Name, Amount: acc.Balance.String()})
	}
	for _, acc := range bs.Equity.Accounts {
		resp.Equity = append(resp.Equity, reportLine{Code: acc.Code, Name: acc.Name, Amount: acc.Balance.String()})
	}
	return resp
}

type integrityResponse struct {
	EntityID uuid.UUID   `json:"entity_id"`
	Clean    bool        `json:"clean"`
	Diverged []uuid.UUID `json:"diverged,omitempty"`
}
