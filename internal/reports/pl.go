package reports

import (
	"sort"
	"strings"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
)

// ProfitAndLossAccount represents an income or expense account summary.
type ProfitAndLossAccount struct {
	Code   string
	Name   string
	Amount dec.Value
}

// ProfitAndLossSection groups accounts by nature.
type ProfitAndLossSection struct {
	Label    string
	Accounts []ProfitAndLossAccount
	Total    dec.Value
}

// ProfitAndLoss contains the structured output for the report.
type ProfitAndLoss struct {
	Income    ProfitAndLossSection
	Expense   ProfitAndLossSection
	NetIncome dec.Value
}

// BuildProfitAndLoss aggregates accounts into income and expense sections.
func BuildProfitAndLoss(eng dec.Engine, accounts []AccountBalance) ProfitAndLoss {
	income := ProfitAndLossSection{Label: "Income", Total: eng.Zero()}
	expense := ProfitAndLossSection{Label: "Expense", Total: eng.Zero()}

	for _, acc := range accounts {
		switch strings.ToUpper(acc.Type) {
		case "INCOME", "REVENUE":
			amount := acc.Credit.Sub(acc.Debit)
			income.Accounts = append(income.Accounts, ProfitAndLossAccount{Code: acc.Code, Name: acc.Name, Amount: amount})
			income.Total = income.Total.Add(amount)
		case "EXPENSE":
			amount := acc.Debit.Sub(acc.Credit)
			expense.Accounts = append(expense.Accounts, ProfitAndLossAccount{Code: acc.Code, Name: acc.Name, Amount: amount})
			expense.Total = expense.Total.Add(amount)
		}
	}

	sort.Slice(income.Accounts, func(i, j int) bool { return income.Accounts[i].Code < income.Accounts[j].Code })
	sort.Slice(expense.Accounts, func(i, j int) bool { return expense.Accounts[i].Code < expense.Accounts[j].Code })

	return ProfitAndLoss{
		Income:    income,
		Expense:   expense,
		NetIncome: income.Total.Sub(expense.Total),
	}
}
