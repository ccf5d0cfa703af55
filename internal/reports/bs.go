package reports

import (
	"sort"
	"strings"

	dec "github.com/ledgerline/ledgerline/internal/decimal"
)

// BalanceSheetAccount summarises an account for assets, liabilities, or equity.
type BalanceSheetAccount struct {
	Code    string
	Name    string
	Balance dec.Value
}

// BalanceSheetSection contains the accounts and totals for a classification.
type BalanceSheetSection struct {
	Label    string
	Accounts []BalanceSheetAccount
	Total    dec.Value
}

// BalanceSheet is the structured response for the balance sheet report.
type BalanceSheet struct {
	Assets                    BalanceSheetSection
	Liabilities               BalanceSheetSection
	Equity                    BalanceSheetSection
	TotalLiabilitiesAndEquity dec.Value
}

// BuildBalanceSheet aggregates balances into assets, liabilities, and equity
// sections. Asset balances read from the debit column, the other two from
// the credit column.
func BuildBalanceSheet(eng dec.Engine, accounts []AccountBalance) BalanceSheet {
	assets := BalanceSheetSection{Label: "Assets", Total: eng.Zero()}
	liabilities := BalanceSheetSection{Label: "Liabilities", Total: eng.Zero()}
	equity := BalanceSheetSection{Label: "Equity", Total: eng.Zero()}

	for _, acc := range accounts {
		switch strings.ToUpper(acc.Type) {
		case "ASSET":
			balance := acc.Debit.Sub(acc.Credit)
			assets.Accounts = append(assets.Accounts, BalanceSheetAccount{Code: acc.Code, Name: acc.Name, Balance: balance})
			assets.Total = assets.Total.Add(balance)
		case "LIABILITY":
			balance := acc.Credit.Sub(acc.Debit)
			liabilities.Accounts = append(liabilities.Accounts, BalanceSheetAccount{Code: acc.Code, Name: acc.Name, Balance: balance})
			liabilities.Total = liabilities.Total.Add(balance)
		case "EQUITY":
			balance := acc.Credit.Sub(acc.Debit)
			equity.Accounts = append(equity.Accounts, BalanceSheetAccount{Code: acc.Code, Name: acc.Name, Balance: balance})
			equity.Total = equity.Total.Add(balance)
		}
	}

	sort.Slice(assets.Accounts, func(i, j int) bool { return assets.Accounts[i].Code < assets.Accounts[j].Code })
	sort.Slice(liabilities.Accounts, func(i, j int) bool { return liabilities.Accounts[i].Code < liabilities.Accounts[j].Code })
	sort.Slice(equity.Accounts, func(i, j int) bool { return equity.Accounts[i].Code < equity.Accounts[j].Code })

	return BalanceSheet{
		Assets:                    assets,
		Liabilities:               liabilities,
		Equity:                    equity,
		TotalLiabilitiesAndEquity: liabilities.Total.Add(equity.Total),
	}
}
